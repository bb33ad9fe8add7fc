// Package ingest runs the document ingestion pipeline: open the PDF, extract
// page text and tables, chunk and normalize, generate embeddings, and persist
// everything. Each run writes an IngestionLog so failed ingestions leave an
// inspectable trail.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tsawler/finsight/chunker"
	"github.com/tsawler/finsight/llm"
	"github.com/tsawler/finsight/model"
	"github.com/tsawler/finsight/normalize"
	"github.com/tsawler/finsight/reader"
	"github.com/tsawler/finsight/store"
	"github.com/tsawler/finsight/tables"
)

// ErrDuplicateDocument is returned when a file with the same name has
// already been ingested. Use Reingest to replace it. It wraps
// store.ErrDuplicateFileName, so an errors.Is check against either sentinel
// matches a duplicate regardless of which layer rejected it.
var ErrDuplicateDocument = fmt.Errorf("document already ingested: %w", store.ErrDuplicateFileName)

// Source is an open page-addressable document.
type Source interface {
	tables.PageSource
	Close() error
}

// Storage is the slice of the persistence layer the pipeline writes to.
// *store.Store satisfies it.
type Storage interface {
	SaveDocument(ctx context.Context, doc *model.Document) error
	GetDocumentByFileName(ctx context.Context, fileName string) (*model.Document, error)
	DeleteDocument(ctx context.Context, id string) error
	SaveChunks(ctx context.Context, chunks []model.TextChunk) error
	SaveTables(ctx context.Context, tabs []model.ExtractedTable) error
	SaveRows(ctx context.Context, rows []model.NormalizedRow) error
	SaveIngestionLog(ctx context.Context, entry *model.IngestionLog) error
}

// Meta is caller-supplied document metadata.
type Meta struct {
	DisplayName string
	Category    string
	Date        string
	Tags        []string
}

// Pipeline ingests PDF documents. The zero value is not usable; construct
// with NewPipeline.
type Pipeline struct {
	// Extractor is the table extraction chain. Replace it to enable the
	// OCR fallback or tune context capture.
	Extractor *tables.Extractor

	// Chunker splits page text into retrieval chunks.
	Chunker *chunker.Chunker

	// Open opens a document by path. Defaults to the PDF reader.
	Open func(path string) (Source, error)

	store    Storage
	embedder llm.Embedder
	log      *logrus.Logger
}

// NewPipeline builds an ingestion pipeline with default extraction and
// chunking parameters. A nil logger silences the pipeline.
func NewPipeline(st Storage, embedder llm.Embedder, log *logrus.Logger) *Pipeline {
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	return &Pipeline{
		Extractor: tables.NewExtractor(),
		Chunker:   chunker.New(),
		Open: func(path string) (Source, error) {
			return reader.Open(path)
		},
		store:    st,
		embedder: embedder,
		log:      log,
	}
}

// Ingest processes a new document. A file name that has already been
// ingested is rejected with ErrDuplicateDocument before any work is done.
func (p *Pipeline) Ingest(ctx context.Context, path string, meta Meta) (*model.Document, error) {
	fileName := filepath.Base(path)

	if _, err := p.store.GetDocumentByFileName(ctx, fileName); err == nil {
		return nil, fmt.Errorf("%s: %w", fileName, ErrDuplicateDocument)
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("checking for duplicate of %s: %w", fileName, err)
	}

	doc := newDocument(uuid.NewString(), fileName, meta)
	if err := p.run(ctx, path, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Reingest replaces a previously ingested document: its chunks, tables,
// rows and logs are deleted and the pipeline runs again. The document keeps
// its ID so existing citations stay valid. A file that was never ingested
// is ingested fresh.
func (p *Pipeline) Reingest(ctx context.Context, path string, meta Meta) (*model.Document, error) {
	fileName := filepath.Base(path)

	var doc *model.Document
	existing, err := p.store.GetDocumentByFileName(ctx, fileName)
	switch {
	case err == nil:
		if err := p.store.DeleteDocument(ctx, existing.ID); err != nil {
			return nil, fmt.Errorf("clearing %s before reingest: %w", fileName, err)
		}
		doc = newDocument(existing.ID, fileName, meta)
		doc.CreatedAt = existing.CreatedAt
	case errors.Is(err, store.ErrNotFound):
		doc = newDocument(uuid.NewString(), fileName, meta)
	default:
		return nil, fmt.Errorf("looking up %s: %w", fileName, err)
	}

	if err := p.run(ctx, path, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func newDocument(id, fileName string, meta Meta) *model.Document {
	displayName := meta.DisplayName
	if displayName == "" {
		displayName = fileName
	}
	return &model.Document{
		ID:          id,
		FileName:    fileName,
		DisplayName: displayName,
		Category:    meta.Category,
		Date:        meta.Date,
		Tags:        meta.Tags,
		CreatedAt:   time.Now().UTC(),
	}
}

// run executes the pipeline for one document and always writes an ingestion
// log on the way out, whether the run completed or failed.
func (p *Pipeline) run(ctx context.Context, path string, doc *model.Document) error {
	log := p.log.WithFields(logrus.Fields{"document_id": doc.ID, "file": doc.FileName})
	entry := &model.IngestionLog{
		ID:         uuid.NewString(),
		DocumentID: doc.ID,
		StartedAt:  time.Now().UTC(),
	}

	fail := func(err error) error {
		entry.Status = model.IngestionFailed
		entry.Error = err.Error()
		entry.FinishedAt = time.Now().UTC()
		if logErr := p.store.SaveIngestionLog(ctx, entry); logErr != nil {
			log.WithError(logErr).Warn("could not record failed ingestion")
		}
		log.WithError(err).Error("ingestion failed")
		return err
	}

	src, err := p.Open(path)
	if err != nil {
		return fail(fmt.Errorf("opening %s: %w", path, err))
	}
	defer src.Close()

	doc.PageCount = src.PageCount()
	if err := p.store.SaveDocument(ctx, doc); err != nil {
		return fail(fmt.Errorf("saving document: %w", err))
	}

	// Text pass. Unreadable pages are skipped, matching the extractor's
	// page-level failure semantics.
	var pages []chunker.PageText
	for n := 1; n <= src.PageCount(); n++ {
		page, err := src.Page(n)
		if err != nil {
			log.WithError(err).WithField("page", n).Warn("skipping unreadable page")
			continue
		}
		pages = append(pages, chunker.PageText{Page: n, Text: page.Text})
	}

	chunks := p.Chunker.Split(doc.ID, pages)
	p.embedChunks(ctx, log, chunks)
	if err := p.store.SaveChunks(ctx, chunks); err != nil {
		return fail(fmt.Errorf("saving chunks: %w", err))
	}

	// Table pass.
	result, err := p.Extractor.ExtractDocument(src, doc.ID)
	if err != nil {
		return fail(fmt.Errorf("extracting tables: %w", err))
	}
	for _, w := range result.Warnings {
		log.WithField("page", w.Page).Warn(w.Message)
	}
	if err := p.store.SaveTables(ctx, result.Tables); err != nil {
		return fail(fmt.Errorf("saving tables: %w", err))
	}

	var rows []model.NormalizedRow
	for i := range result.Tables {
		rows = append(rows, normalize.Grid(result.Tables[i].TableID, result.Tables[i].Grid)...)
	}
	p.embedRows(ctx, log, rows)
	if err := p.store.SaveRows(ctx, rows); err != nil {
		return fail(fmt.Errorf("saving rows: %w", err))
	}

	entry.Status = model.IngestionCompleted
	entry.ChunksExtracted = len(chunks)
	entry.TablesExtracted = len(result.Tables)
	entry.FinishedAt = time.Now().UTC()
	if err := p.store.SaveIngestionLog(ctx, entry); err != nil {
		log.WithError(err).Warn("could not record completed ingestion")
	}

	log.WithFields(logrus.Fields{
		"pages":           doc.PageCount,
		"chunks":          len(chunks),
		"tables":          len(result.Tables),
		"rows":            len(rows),
		"geometry_tables": result.Stats.GeometryTables,
		"ocr_tables":      result.Stats.OCRTables,
		"pages_ocred":     result.Stats.PagesOCRed,
	}).Info("document ingested")

	return nil
}

// embedChunks fills chunk embeddings in place. Embedding failures leave a
// nil embedding; the chunk is stored anyway and excluded from ranking.
func (p *Pipeline) embedChunks(ctx context.Context, log *logrus.Entry, chunks []model.TextChunk) {
	if len(chunks) == 0 {
		return
	}
	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Text
	}
	embeddings := p.embedTexts(ctx, log, texts)
	for i := range chunks {
		chunks[i].Embedding = embeddings[i]
	}
}

// embedRows embeds each row's "label: column" identity string.
func (p *Pipeline) embedRows(ctx context.Context, log *logrus.Entry, rows []model.NormalizedRow) {
	if len(rows) == 0 {
		return
	}
	texts := make([]string, len(rows))
	for i := range rows {
		texts[i] = fmt.Sprintf("%s: %s", rows[i].RowLabel, rows[i].ColumnLabel)
	}
	embeddings := p.embedTexts(ctx, log, texts)
	for i := range rows {
		rows[i].Embedding = embeddings[i]
	}
}

// embedTexts tries one batch call and falls back to per-item calls when the
// batch fails, so one bad input cannot wipe out every embedding.
func (p *Pipeline) embedTexts(ctx context.Context, log *logrus.Entry, texts []string) [][]float32 {
	embeddings, err := p.embedder.EmbedBatch(ctx, texts)
	if err == nil && len(embeddings) == len(texts) {
		return embeddings
	}
	if err != nil {
		log.WithError(err).Warn("batch embedding failed, retrying per item")
	}

	embeddings = make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := p.embedder.Embed(ctx, text)
		if err != nil {
			log.WithError(err).WithField("item", i).Warn("embedding failed, storing without")
			continue
		}
		embeddings[i] = vec
	}
	return embeddings
}
