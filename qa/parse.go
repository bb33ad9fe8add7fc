package qa

import "strings"

// parseStructured splits a generation response into its ANSWER and QUOTE
// sections. Both markers are optional: a response without markers is treated
// as a bare answer, and section bodies may span multiple lines. Markers are
// matched case-insensitively at the start of a line.
func parseStructured(raw string) (answer, quote string) {
	var answerLines, quoteLines []string
	section := "answer"

	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		upper := strings.ToUpper(trimmed)

		switch {
		case strings.HasPrefix(upper, "ANSWER:"):
			section = "answer"
			if rest := strings.TrimSpace(trimmed[len("ANSWER:"):]); rest != "" {
				answerLines = append(answerLines, rest)
			}
		case strings.HasPrefix(upper, "QUOTE:"):
			section = "quote"
			if rest := strings.TrimSpace(trimmed[len("QUOTE:"):]); rest != "" {
				quoteLines = append(quoteLines, rest)
			}
		default:
			if trimmed == "" {
				continue
			}
			if section == "quote" {
				quoteLines = append(quoteLines, trimmed)
			} else {
				answerLines = append(answerLines, trimmed)
			}
		}
	}

	answer = strings.Join(answerLines, "\n")
	quote = strings.Trim(strings.Join(quoteLines, "\n"), `"`)
	return answer, quote
}

// isRefusal reports whether the generated answer is the fixed refusal
// phrase, allowing for surrounding punctuation or restatement.
func isRefusal(answer string) bool {
	return strings.Contains(answer, notAvailableAnswer) ||
		strings.EqualFold(strings.Trim(answer, ". "), strings.Trim(notAvailableAnswer, ". "))
}
