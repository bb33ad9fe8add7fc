// Package finsight answers questions about PDF financial disclosure
// documents. Documents are ingested once — text chunked and embedded, tables
// extracted, classified and normalized — and then queried through two
// retrieval pipelines: a factual one over text chunks and a financial one
// over normalized table rows, both returning cited, confidence-tiered
// answers.
//
// Basic usage:
//
//	engine, err := finsight.New(
//	    finsight.WithDataDir("./data"),
//	    finsight.WithLLM(llm.Config{APIKey: key}),
//	)
//	if err != nil {
//	    // handle error
//	}
//	defer engine.Close()
//
//	doc, err := engine.Ingest(ctx, "q3fy25.pdf", ingest.Meta{Category: "quarterly"})
//	answer := engine.Ask(ctx, "What is the debt service coverage ratio?")
//
// The lower-level packages (reader, tables, normalize, chunker, vector, qa,
// ingest, store) are also available for advanced use.
package finsight

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/tsawler/finsight/ingest"
	"github.com/tsawler/finsight/llm"
	"github.com/tsawler/finsight/model"
	"github.com/tsawler/finsight/ocr"
	"github.com/tsawler/finsight/qa"
	"github.com/tsawler/finsight/store"
	"github.com/tsawler/finsight/tables"
)

// Engine ties the ingestion pipeline, the store and the question-answering
// service together behind one handle.
type Engine struct {
	store     *store.Store
	pipeline  *ingest.Pipeline
	qa        *qa.Service
	log       *logrus.Logger
	ocrClient *ocr.Client
}

// New builds an Engine. Without WithEmbedder/WithGenerator overrides, the
// OpenAI-compatible client from WithLLM serves both roles; its API key may
// also come from the OPENAI_API_KEY environment variable.
func New(opts ...Option) (*Engine, error) {
	var o engineOptions
	for _, opt := range opts {
		opt(&o)
	}

	log := o.logger
	if log == nil {
		log = logrus.New()
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	st, err := store.NewStore(o.dataDir)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	embedder := o.embedder
	generator := o.generator
	if embedder == nil || generator == nil {
		cfg := o.llmConfig
		if cfg.APIKey == "" {
			cfg.APIKey = os.Getenv("OPENAI_API_KEY")
		}
		client := llm.NewClient(cfg)
		if embedder == nil {
			embedder = client
		}
		if generator == nil {
			generator = client
		}
	}

	e := &Engine{
		store:    st,
		pipeline: ingest.NewPipeline(st, embedder, log),
		qa:       qa.NewService(st, embedder, generator, log),
		log:      log,
	}

	if o.ocr {
		client, err := ocr.New()
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("starting ocr: %w", err)
		}
		e.ocrClient = client
		e.pipeline.Extractor.OCR = tables.NewOCRDetector(client)
	}

	return e, nil
}

// Close releases the store and any OCR resources.
func (e *Engine) Close() error {
	if e.ocrClient != nil {
		if err := e.ocrClient.Close(); err != nil {
			e.log.WithError(err).Warn("closing ocr client")
		}
	}
	return e.store.Close()
}

// Ingest processes a new PDF document end to end.
func (e *Engine) Ingest(ctx context.Context, path string, meta ingest.Meta) (*model.Document, error) {
	return e.pipeline.Ingest(ctx, path, meta)
}

// Reingest replaces a previously ingested document, keeping its ID.
func (e *Engine) Reingest(ctx context.Context, path string, meta ingest.Meta) (*model.Document, error) {
	return e.pipeline.Reingest(ctx, path, meta)
}

// Ask routes the question to the factual or financial pipeline and returns a
// cited answer. Retrieval and generation faults surface as answers with the
// not_found confidence tier, never as errors.
func (e *Engine) Ask(ctx context.Context, question string, docIDs ...string) *model.Answer {
	return e.qa.Ask(ctx, question, qa.AskOptions{DocumentIDs: docIDs})
}

// Documents lists all ingested documents, newest first.
func (e *Engine) Documents(ctx context.Context) ([]model.Document, error) {
	return e.store.ListDocuments(ctx)
}

// Document returns one ingested document by ID.
func (e *Engine) Document(ctx context.Context, id string) (*model.Document, error) {
	return e.store.GetDocument(ctx, id)
}

// DocumentTables returns the extracted tables of one document in page order.
func (e *Engine) DocumentTables(ctx context.Context, id string) ([]model.ExtractedTable, error) {
	return e.store.TablesByDocument(ctx, id)
}

// ValidateDocument re-extracts tables from the given source file and compares
// them with the tables stored for the document, reporting per-table match
// status and overall accuracy.
func (e *Engine) ValidateDocument(ctx context.Context, id, path string) (*ingest.ValidationReport, error) {
	if _, err := e.store.GetDocument(ctx, id); err != nil {
		return nil, err
	}
	return e.pipeline.Validate(ctx, e.store, id, path)
}

// DeleteDocument removes a document and all derived data.
func (e *Engine) DeleteDocument(ctx context.Context, id string) error {
	return e.store.DeleteDocument(ctx, id)
}

// IngestionLogs returns the ingestion history of a document, newest first.
func (e *Engine) IngestionLogs(ctx context.Context, id string) ([]model.IngestionLog, error) {
	return e.store.LogsByDocument(ctx, id)
}
