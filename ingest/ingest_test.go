package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/finsight/model"
	"github.com/tsawler/finsight/store"
	"github.com/tsawler/finsight/tables"
)

// fakeSource serves canned pages. A nil page entry fails that page.
type fakeSource struct {
	pages  []*model.Page
	closed bool
}

func (f *fakeSource) PageCount() int { return len(f.pages) }

func (f *fakeSource) Page(n int) (*model.Page, error) {
	if n < 1 || n > len(f.pages) {
		return nil, errors.New("page out of range")
	}
	if f.pages[n-1] == nil {
		return nil, errors.New("malformed page")
	}
	return f.pages[n-1], nil
}

func (f *fakeSource) Close() error {
	f.closed = true
	return nil
}

// recordingStore keeps everything it is given in memory.
type recordingStore struct {
	documents map[string]*model.Document
	chunks    []model.TextChunk
	tables    []model.ExtractedTable
	rows      []model.NormalizedRow
	logs      []model.IngestionLog
	deleted   []string

	saveChunksErr error
}

func newRecordingStore() *recordingStore {
	return &recordingStore{documents: make(map[string]*model.Document)}
}

func (r *recordingStore) SaveDocument(ctx context.Context, doc *model.Document) error {
	r.documents[doc.FileName] = doc
	return nil
}

func (r *recordingStore) GetDocumentByFileName(ctx context.Context, fileName string) (*model.Document, error) {
	if doc, ok := r.documents[fileName]; ok {
		return doc, nil
	}
	return nil, store.ErrNotFound
}

func (r *recordingStore) DeleteDocument(ctx context.Context, id string) error {
	r.deleted = append(r.deleted, id)
	for name, doc := range r.documents {
		if doc.ID == id {
			delete(r.documents, name)
		}
	}
	r.chunks = nil
	r.tables = nil
	r.rows = nil
	return nil
}

func (r *recordingStore) SaveChunks(ctx context.Context, chunks []model.TextChunk) error {
	if r.saveChunksErr != nil {
		return r.saveChunksErr
	}
	r.chunks = append(r.chunks, chunks...)
	return nil
}

func (r *recordingStore) SaveTables(ctx context.Context, tabs []model.ExtractedTable) error {
	r.tables = append(r.tables, tabs...)
	return nil
}

func (r *recordingStore) SaveRows(ctx context.Context, rows []model.NormalizedRow) error {
	r.rows = append(r.rows, rows...)
	return nil
}

func (r *recordingStore) SaveIngestionLog(ctx context.Context, entry *model.IngestionLog) error {
	r.logs = append(r.logs, *entry)
	return nil
}

type fakeEmbedder struct {
	vec      []float32
	batchErr error
	itemErr  error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.itemErr != nil {
		return nil, f.itemErr
	}
	return f.vec, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vec
	}
	return out, nil
}

// stubStrategy returns the same detection for every page.
type stubStrategy struct {
	grid [][]string
}

func (s *stubStrategy) Name() string { return "stub" }

func (s *stubStrategy) Detect(page *model.Page) ([]*tables.Detection, error) {
	if s.grid == nil {
		return nil, nil
	}
	return []*tables.Detection{{
		Grid:       s.grid,
		BBox:       model.BBox{X: 0, Y: 0, Width: 100, Height: 100},
		Confidence: 0.9,
		Method:     model.MethodBordered,
	}}, nil
}

func textPage(n int, text string) *model.Page {
	return &model.Page{Number: n, Text: text}
}

func newTestPipeline(st Storage, emb *fakeEmbedder, src *fakeSource) *Pipeline {
	p := NewPipeline(st, emb, nil)
	p.Open = func(path string) (Source, error) { return src, nil }
	return p
}

const pageText = "The statutory auditor of the Trust is Walker Chandiok & Co LLP, Chartered Accountants, appointed for a term of five consecutive years."

func TestIngestPersistsEverything(t *testing.T) {
	st := newRecordingStore()
	src := &fakeSource{pages: []*model.Page{textPage(1, pageText), textPage(2, pageText)}}
	p := newTestPipeline(st, &fakeEmbedder{vec: []float32{1, 0}}, src)
	p.Extractor.Strategies = []tables.Strategy{&stubStrategy{grid: [][]string{
		{"Particulars", "Q3 FY25"},
		{"DSCR", "1.45"},
	}}}

	doc, err := p.Ingest(context.Background(), "/tmp/q3fy25.pdf", Meta{DisplayName: "Q3 FY25", Tags: []string{"quarterly"}})
	require.NoError(t, err)

	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "q3fy25.pdf", doc.FileName)
	assert.Equal(t, 2, doc.PageCount)

	require.NotEmpty(t, st.chunks)
	for _, c := range st.chunks {
		assert.Equal(t, doc.ID, c.DocumentID)
		assert.Equal(t, []float32{1, 0}, c.Embedding)
	}

	require.Len(t, st.tables, 2, "one stub table per page")
	require.NotEmpty(t, st.rows)
	assert.Equal(t, st.tables[0].TableID, st.rows[0].TableID)
	assert.Equal(t, []float32{1, 0}, st.rows[0].Embedding)

	require.Len(t, st.logs, 1)
	assert.Equal(t, model.IngestionCompleted, st.logs[0].Status)
	assert.Equal(t, len(st.chunks), st.logs[0].ChunksExtracted)
	assert.Equal(t, 2, st.logs[0].TablesExtracted)
	assert.False(t, st.logs[0].FinishedAt.IsZero())

	assert.True(t, src.closed)
}

func TestIngestRejectsDuplicateFileName(t *testing.T) {
	st := newRecordingStore()
	st.documents["q3fy25.pdf"] = &model.Document{ID: "existing", FileName: "q3fy25.pdf"}
	p := newTestPipeline(st, &fakeEmbedder{vec: []float32{1}}, &fakeSource{})

	_, err := p.Ingest(context.Background(), "/elsewhere/q3fy25.pdf", Meta{})
	assert.ErrorIs(t, err, ErrDuplicateDocument)
	assert.ErrorIs(t, err, store.ErrDuplicateFileName,
		"the pipeline sentinel wraps the store one")
	assert.Empty(t, st.logs, "no pipeline run for a rejected duplicate")
}

func TestIngestUnopenableFileWritesFailedLog(t *testing.T) {
	st := newRecordingStore()
	p := NewPipeline(st, &fakeEmbedder{vec: []float32{1}}, nil)
	p.Open = func(path string) (Source, error) { return nil, errors.New("encrypted pdf") }

	_, err := p.Ingest(context.Background(), "/tmp/locked.pdf", Meta{})
	require.Error(t, err)

	require.Len(t, st.logs, 1)
	assert.Equal(t, model.IngestionFailed, st.logs[0].Status)
	assert.Contains(t, st.logs[0].Error, "encrypted pdf")
}

func TestIngestStoresChunksWithoutEmbeddingsOnFailure(t *testing.T) {
	st := newRecordingStore()
	src := &fakeSource{pages: []*model.Page{textPage(1, pageText)}}
	emb := &fakeEmbedder{batchErr: errors.New("batch down"), itemErr: errors.New("item down")}
	p := newTestPipeline(st, emb, src)

	_, err := p.Ingest(context.Background(), "/tmp/q3fy25.pdf", Meta{})
	require.NoError(t, err, "embedding failure must not fail the ingestion")

	require.NotEmpty(t, st.chunks)
	for _, c := range st.chunks {
		assert.Nil(t, c.Embedding)
	}

	require.Len(t, st.logs, 1)
	assert.Equal(t, model.IngestionCompleted, st.logs[0].Status)
}

func TestIngestBatchFailureFallsBackPerItem(t *testing.T) {
	st := newRecordingStore()
	src := &fakeSource{pages: []*model.Page{textPage(1, pageText)}}
	emb := &fakeEmbedder{vec: []float32{0.5}, batchErr: errors.New("batch down")}
	p := newTestPipeline(st, emb, src)

	_, err := p.Ingest(context.Background(), "/tmp/q3fy25.pdf", Meta{})
	require.NoError(t, err)

	require.NotEmpty(t, st.chunks)
	for _, c := range st.chunks {
		assert.Equal(t, []float32{0.5}, c.Embedding)
	}
}

func TestIngestSkipsUnreadablePages(t *testing.T) {
	st := newRecordingStore()
	src := &fakeSource{pages: []*model.Page{nil, textPage(2, pageText)}}
	p := newTestPipeline(st, &fakeEmbedder{vec: []float32{1}}, src)

	doc, err := p.Ingest(context.Background(), "/tmp/partial.pdf", Meta{})
	require.NoError(t, err)
	assert.Equal(t, 2, doc.PageCount)

	require.NotEmpty(t, st.chunks)
	for _, c := range st.chunks {
		assert.Equal(t, 2, c.Page, "chunks must come from the readable page only")
	}
}

func TestIngestStoreFailureWritesFailedLog(t *testing.T) {
	st := newRecordingStore()
	st.saveChunksErr = errors.New("disk full")
	src := &fakeSource{pages: []*model.Page{textPage(1, pageText)}}
	p := newTestPipeline(st, &fakeEmbedder{vec: []float32{1}}, src)

	_, err := p.Ingest(context.Background(), "/tmp/q3fy25.pdf", Meta{})
	require.Error(t, err)

	require.Len(t, st.logs, 1)
	assert.Equal(t, model.IngestionFailed, st.logs[0].Status)
	assert.True(t, strings.Contains(st.logs[0].Error, "disk full"))
}

func TestReingestKeepsDocumentID(t *testing.T) {
	st := newRecordingStore()
	src := &fakeSource{pages: []*model.Page{textPage(1, pageText)}}
	p := newTestPipeline(st, &fakeEmbedder{vec: []float32{1}}, src)

	first, err := p.Ingest(context.Background(), "/tmp/q3fy25.pdf", Meta{})
	require.NoError(t, err)

	src2 := &fakeSource{pages: []*model.Page{textPage(1, pageText), textPage(2, pageText)}}
	p.Open = func(path string) (Source, error) { return src2, nil }

	second, err := p.Reingest(context.Background(), "/tmp/q3fy25.pdf", Meta{DisplayName: "updated"})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "reingest must keep the document ID")
	assert.Equal(t, []string{first.ID}, st.deleted)
	assert.Equal(t, 2, second.PageCount)
	assert.Equal(t, "updated", second.DisplayName)
}

func TestReingestOfNewFileIngestsFresh(t *testing.T) {
	st := newRecordingStore()
	src := &fakeSource{pages: []*model.Page{textPage(1, pageText)}}
	p := newTestPipeline(st, &fakeEmbedder{vec: []float32{1}}, src)

	doc, err := p.Reingest(context.Background(), "/tmp/new.pdf", Meta{})
	require.NoError(t, err)
	assert.NotEmpty(t, doc.ID)
	assert.Empty(t, st.deleted)
}
