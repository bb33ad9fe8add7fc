package qa

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/tsawler/finsight/model"
	"github.com/tsawler/finsight/tables"
	"github.com/tsawler/finsight/vector"
)

const (
	financialTopK         = 10
	financialMaxEvidence  = 5
	financialMaxContext   = 3
	financialMaxCitations = 3

	financialHighThreshold   = 0.75
	financialMediumThreshold = 0.5
)

const financialSystemPrompt = "You report figures from financial disclosure tables. " +
	"You only ever repeat values that appear verbatim in the evidence given to you."

const financialPromptFormat = `Answer the question using only the table values below.

Rules:
- Use only the exact values shown. Repeat them verbatim, with their units.
- Perform no arithmetic, no derivation, no extrapolation of any kind.
- If the exact value asked for is not among the evidence, respond exactly with:
  %s

Evidence:
%s
Question: %s

Respond in this format:
ANSWER: <your answer>`

// AnswerFinancial runs the table-row retrieval pipeline. Target table types
// are taken from the question by the keyword classifier; matching rows are
// ranked by similarity, filtered, and handed to the generator under a strict
// no-computation instruction. Every reported value keeps full provenance so
// a reader can verify it against the source PDF.
func (s *Service) AnswerFinancial(ctx context.Context, question string, opts AskOptions) *model.Answer {
	log := s.log.WithField("pipeline", "financial")

	targets := tables.ClassifyTextAll(question)

	queryEmbedding, err := s.embedder.Embed(ctx, question)
	if err != nil {
		log.WithError(err).Warn("question embedding failed")
		return errorAnswer(model.QuestionFinancial)
	}

	rows, err := s.store.AllRows(ctx)
	if err != nil {
		log.WithError(err).Warn("row retrieval failed")
		return errorAnswer(model.QuestionFinancial)
	}

	byID := make(map[string]*model.NormalizedRow, len(rows))
	idx := vector.NewMemoryIndex()
	for i := range rows {
		r := &rows[i]
		byID[r.ID] = r
		idx.Add(r.ID, r.Embedding)
	}

	hits := idx.Search(queryEmbedding, financialTopK)
	if len(hits) == 0 {
		return refusalAnswer(model.QuestionFinancial)
	}

	evidence := make([]model.RowEvidence, 0, len(hits))
	tableCache := make(map[string]*model.ExtractedTable)
	for _, h := range hits {
		row := byID[h.ID]
		tab, ok := tableCache[row.TableID]
		if !ok {
			var err error
			tab, err = s.store.GetTable(ctx, row.TableID)
			if err != nil {
				log.WithError(err).WithField("table_id", row.TableID).Warn("table lookup failed, skipping row")
				continue
			}
			tableCache[row.TableID] = tab
		}
		evidence = append(evidence, model.RowEvidence{Row: row, Table: tab, Similarity: h.Similarity})
	}
	if len(evidence) == 0 {
		return refusalAnswer(model.QuestionFinancial)
	}

	// The table-type filter is soft: when it would empty the candidate set
	// the unfiltered ranking is kept instead.
	if len(targets) > 0 {
		filtered := filterByType(evidence, targets)
		if len(filtered) > 0 {
			evidence = filtered
		}
	}

	// The document filter is hard: an empty result is a refusal.
	if len(opts.DocumentIDs) > 0 {
		evidence = filterByDocument(evidence, opts.DocumentIDs)
		if len(evidence) == 0 {
			return refusalAnswer(model.QuestionFinancial)
		}
	}

	if len(evidence) > financialMaxEvidence {
		evidence = evidence[:financialMaxEvidence]
	}

	prompt := fmt.Sprintf(financialPromptFormat, notAvailableAnswer, evidenceBlock(evidence), question)
	raw, err := s.generator.Generate(ctx, financialSystemPrompt, prompt)
	if err != nil {
		log.WithError(err).Warn("answer generation failed")
		return errorAnswer(model.QuestionFinancial)
	}

	answerText, _ := parseStructured(raw)
	if isRefusal(answerText) {
		return refusalAnswer(model.QuestionFinancial)
	}

	names := newDocumentNames(s.store)
	answer := &model.Answer{
		Type:       model.QuestionFinancial,
		Text:       answerText,
		Values:     evidenceValues(evidence),
		Citations:  financialCitationsFor(ctx, names, evidence),
		Confidence: tier(evidence[0].Similarity, financialHighThreshold, financialMediumThreshold),
	}

	log.WithFields(logrus.Fields{
		"target_types":   targets,
		"candidates":     len(byID),
		"top_similarity": evidence[0].Similarity,
		"confidence":     answer.Confidence,
	}).Info("answered financial question")

	return answer
}

func filterByType(evidence []model.RowEvidence, targets []model.TableType) []model.RowEvidence {
	var kept []model.RowEvidence
	for _, ev := range evidence {
		for _, t := range targets {
			if ev.Table.Name == t {
				kept = append(kept, ev)
				break
			}
		}
	}
	return kept
}

func filterByDocument(evidence []model.RowEvidence, docIDs []string) []model.RowEvidence {
	var kept []model.RowEvidence
	for _, ev := range evidence {
		if inFilter(ev.Table.DocumentID, docIDs) {
			kept = append(kept, ev)
		}
	}
	return kept
}

// evidenceBlock renders the ranked rows for the generation prompt, each with
// its table name, page, raw value and a few surrounding context lines.
func evidenceBlock(evidence []model.RowEvidence) string {
	var sb strings.Builder
	for i, ev := range evidence {
		name := string(ev.Table.Name)
		if name == "" {
			name = "table"
		}
		fmt.Fprintf(&sb, "[Value %d] %s, page %d", i+1, name, ev.Table.Page)
		if ev.Table.Unit != "" {
			fmt.Fprintf(&sb, ", values in %s", ev.Table.Unit)
		}
		fmt.Fprintf(&sb, "\n%s | %s = %s\n", ev.Row.RowLabel, ev.Row.ColumnLabel, ev.Row.RawValue)
		for _, line := range contextLines(ev.Table) {
			fmt.Fprintf(&sb, "context: %s\n", line)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func contextLines(tab *model.ExtractedTable) []string {
	lines := tab.ContextAbove
	if len(lines) > financialMaxContext {
		lines = lines[len(lines)-financialMaxContext:]
	}
	return lines
}

func evidenceValues(evidence []model.RowEvidence) []model.EvidenceValue {
	values := make([]model.EvidenceValue, 0, len(evidence))
	for _, ev := range evidence {
		values = append(values, model.EvidenceValue{
			TableID:   ev.Table.TableID,
			TableName: ev.Table.Name,
			Page:      ev.Table.Page,
			RowLabel:  ev.Row.RowLabel,
			RawText:   fmt.Sprintf("%s | %s = %s", ev.Row.RowLabel, ev.Row.ColumnLabel, ev.Row.RawValue),
			Cells:     map[string]string{ev.Row.ColumnLabel: ev.Row.RawValue},
			Context:   contextLines(ev.Table),
			Unit:      ev.Table.Unit,
		})
	}
	return values
}

func financialCitationsFor(ctx context.Context, names *documentNames, evidence []model.RowEvidence) []model.Citation {
	var citations []model.Citation
	seen := make(map[string]bool)
	for _, ev := range evidence {
		if seen[ev.Table.TableID] {
			continue
		}
		seen[ev.Table.TableID] = true
		citations = append(citations, model.Citation{
			DocumentID:   ev.Table.DocumentID,
			DocumentName: names.name(ctx, ev.Table.DocumentID),
			Page:         ev.Table.Page,
			TableID:      ev.Table.TableID,
		})
		if len(citations) == financialMaxCitations {
			break
		}
	}
	return citations
}
