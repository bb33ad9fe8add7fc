// Package qa answers questions about ingested disclosure documents. A router
// classifies each question as factual or financial and dispatches it to the
// matching retrieval pipeline. Every query-time fault is folded into an
// Answer with the not_found confidence tier; Ask never returns an error to
// its caller for retrieval or generation failures.
package qa

import (
	"context"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tsawler/finsight/llm"
	"github.com/tsawler/finsight/model"
)

// notAvailableAnswer is the fixed refusal phrase. The generation prompts
// instruct the model to emit it verbatim when the evidence does not contain
// the requested information, and the pipelines map it to not_found.
const notAvailableAnswer = "Not available in the provided documents."

// genericErrorAnswer is returned when retrieval or generation fails outright.
const genericErrorAnswer = "Unable to answer the question right now. Please try again."

// askTimeout bounds one question end to end, routing and generation
// included. A stalled provider surfaces as a not_found answer instead of
// hanging the caller.
const askTimeout = 55 * time.Second

// Storage is the slice of the persistence layer the pipelines read from.
// *store.Store satisfies it.
type Storage interface {
	AllChunks(ctx context.Context) ([]model.TextChunk, error)
	AllRows(ctx context.Context) ([]model.NormalizedRow, error)
	GetTable(ctx context.Context, tableID string) (*model.ExtractedTable, error)
	GetDocument(ctx context.Context, id string) (*model.Document, error)
}

// Service routes questions and runs the two answer pipelines.
type Service struct {
	store     Storage
	embedder  llm.Embedder
	generator llm.Generator
	log       *logrus.Logger
}

// NewService builds a question-answering service. A nil logger silences the
// service; retrieval faults still surface as not_found answers.
func NewService(st Storage, embedder llm.Embedder, generator llm.Generator, log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	return &Service{store: st, embedder: embedder, generator: generator, log: log}
}

// AskOptions narrow a question to a subset of the corpus.
type AskOptions struct {
	// DocumentIDs restricts retrieval to the given documents. Empty means
	// the whole corpus.
	DocumentIDs []string
}

// Ask classifies the question and runs the matching pipeline.
func (s *Service) Ask(ctx context.Context, question string, opts AskOptions) *model.Answer {
	ctx, cancel := context.WithTimeout(ctx, askTimeout)
	defer cancel()

	qt := s.Route(ctx, question)
	if qt == model.QuestionFactual {
		return s.AnswerFactual(ctx, question, opts)
	}
	return s.AnswerFinancial(ctx, question, opts)
}

// errorAnswer is the terminal state for any query-time fault.
func errorAnswer(qt model.QuestionType) *model.Answer {
	return &model.Answer{
		Type:       qt,
		Text:       genericErrorAnswer,
		Confidence: model.ConfidenceNotFound,
	}
}

// refusalAnswer is returned when retrieval produced nothing usable or the
// generator explicitly refused.
func refusalAnswer(qt model.QuestionType) *model.Answer {
	return &model.Answer{
		Type:       qt,
		Text:       notAvailableAnswer,
		Confidence: model.ConfidenceNotFound,
	}
}

// documentNames resolves document display names with a per-request cache.
// Lookup failures fall back to the raw document ID so a citation is never
// dropped for a naming problem.
type documentNames struct {
	store Storage
	cache map[string]string
}

func newDocumentNames(st Storage) *documentNames {
	return &documentNames{store: st, cache: make(map[string]string)}
}

func (d *documentNames) name(ctx context.Context, id string) string {
	if name, ok := d.cache[id]; ok {
		return name
	}
	name := id
	if doc, err := d.store.GetDocument(ctx, id); err == nil {
		if doc.DisplayName != "" {
			name = doc.DisplayName
		} else if doc.FileName != "" {
			name = doc.FileName
		}
	}
	d.cache[id] = name
	return name
}

// inFilter reports whether id passes the optional document filter. An empty
// filter admits everything.
func inFilter(id string, ids []string) bool {
	if len(ids) == 0 {
		return true
	}
	for _, want := range ids {
		if id == want {
			return true
		}
	}
	return false
}
