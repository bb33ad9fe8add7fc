package qa

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/tsawler/finsight/model"
	"github.com/tsawler/finsight/vector"
)

const (
	factualTopK      = 5
	factualCitations = 3

	factualHighThreshold   = 0.8
	factualMediumThreshold = 0.6
)

const factualSystemPrompt = "You answer questions about financial disclosure documents " +
	"using only the excerpts provided. You never use outside knowledge."

const factualPromptFormat = `Answer the question using only the excerpts below.

Rules:
- Ground every statement in the excerpts.
- Include a verbatim quote from an excerpt that supports the answer.
- If the excerpts do not contain the information, respond exactly with:
  %s

Excerpts:
%s
Question: %s

Respond in this format:
ANSWER: <your answer>
QUOTE: <supporting quote>`

// AnswerFactual runs the text-chunk retrieval pipeline: embed the question,
// rank stored chunks by cosine similarity, and generate a grounded answer
// with a verbatim quote. Citations come from the top ranked chunks, not from
// the generation call.
func (s *Service) AnswerFactual(ctx context.Context, question string, opts AskOptions) *model.Answer {
	log := s.log.WithField("pipeline", "factual")

	queryEmbedding, err := s.embedder.Embed(ctx, question)
	if err != nil {
		log.WithError(err).Warn("question embedding failed")
		return errorAnswer(model.QuestionFactual)
	}

	chunks, err := s.store.AllChunks(ctx)
	if err != nil {
		log.WithError(err).Warn("chunk retrieval failed")
		return errorAnswer(model.QuestionFactual)
	}

	byID := make(map[string]*model.TextChunk, len(chunks))
	idx := vector.NewMemoryIndex()
	for i := range chunks {
		c := &chunks[i]
		if !inFilter(c.DocumentID, opts.DocumentIDs) {
			continue
		}
		byID[c.ID] = c
		idx.Add(c.ID, c.Embedding)
	}

	hits := idx.Search(queryEmbedding, factualTopK)
	if len(hits) == 0 {
		return refusalAnswer(model.QuestionFactual)
	}

	evidence := make([]model.ChunkEvidence, 0, len(hits))
	for _, h := range hits {
		evidence = append(evidence, model.ChunkEvidence{Chunk: byID[h.ID], Similarity: h.Similarity})
	}

	names := newDocumentNames(s.store)
	contextBlock := factualContextBlock(ctx, names, evidence)

	prompt := fmt.Sprintf(factualPromptFormat, notAvailableAnswer, contextBlock, question)
	raw, err := s.generator.Generate(ctx, factualSystemPrompt, prompt)
	if err != nil {
		log.WithError(err).Warn("answer generation failed")
		return errorAnswer(model.QuestionFactual)
	}

	answerText, quote := parseStructured(raw)
	if isRefusal(answerText) {
		return refusalAnswer(model.QuestionFactual)
	}

	answer := &model.Answer{
		Type:       model.QuestionFactual,
		Text:       answerText,
		Quote:      quote,
		Citations:  factualCitationsFor(ctx, names, evidence),
		Confidence: tier(evidence[0].Similarity, factualHighThreshold, factualMediumThreshold),
	}

	log.WithFields(logrus.Fields{
		"candidates":     len(byID),
		"top_similarity": evidence[0].Similarity,
		"confidence":     answer.Confidence,
	}).Info("answered factual question")

	return answer
}

// factualContextBlock labels each ranked chunk with its source document and
// page so the generator can attribute statements.
func factualContextBlock(ctx context.Context, names *documentNames, evidence []model.ChunkEvidence) string {
	var sb strings.Builder
	for i, ev := range evidence {
		fmt.Fprintf(&sb, "[Excerpt %d] %s, page %d\n%s\n\n",
			i+1, names.name(ctx, ev.Chunk.DocumentID), ev.Chunk.Page, ev.Chunk.Text)
	}
	return sb.String()
}

func factualCitationsFor(ctx context.Context, names *documentNames, evidence []model.ChunkEvidence) []model.Citation {
	n := len(evidence)
	if n > factualCitations {
		n = factualCitations
	}
	citations := make([]model.Citation, 0, n)
	for _, ev := range evidence[:n] {
		citations = append(citations, model.Citation{
			DocumentID:   ev.Chunk.DocumentID,
			DocumentName: names.name(ctx, ev.Chunk.DocumentID),
			Page:         ev.Chunk.Page,
			ChunkID:      ev.Chunk.ID,
		})
	}
	return citations
}

// tier buckets a top similarity score into a confidence tier.
func tier(similarity, high, medium float64) model.ConfidenceTier {
	switch {
	case similarity > high:
		return model.ConfidenceHigh
	case similarity > medium:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}
