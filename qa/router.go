package qa

import (
	"context"
	"fmt"
	"strings"

	"github.com/tsawler/finsight/model"
)

const routerSystemPrompt = "You classify questions asked about financial disclosure documents. " +
	"Respond with exactly one word and nothing else."

const routerPromptFormat = `Classify the question into one of two categories.

factual: asks who, what, when or where; about names, parties, dates, events,
covenants, or statements made in the text of a document.
financial: asks for numbers, amounts, ratios, percentages, or any figure
reported in a financial table.

Question: %s

Category:`

// Route classifies a question as factual or financial with a single
// generation call. Any service error or unrecognized label defaults to
// financial: a numeric question misrouted to the text pipeline is the more
// damaging mistake.
func (s *Service) Route(ctx context.Context, question string) model.QuestionType {
	raw, err := s.generator.Generate(ctx, routerSystemPrompt, fmt.Sprintf(routerPromptFormat, question))
	if err != nil {
		s.log.WithError(err).WithField("pipeline", "router").Warn("classification failed, defaulting to financial")
		return model.QuestionFinancial
	}

	label := strings.ToLower(strings.TrimSpace(raw))
	label = strings.Trim(label, ".\"'")
	if label == "factual" {
		return model.QuestionFactual
	}
	return model.QuestionFinancial
}
