package model

import (
	"fmt"
	"time"
)

// Document is an ingested PDF disclosure document. It is created once at the
// start of ingestion and is immutable afterward except for PageCount, which is
// set after text extraction.
type Document struct {
	ID          string
	FileName    string
	DisplayName string
	Category    string
	Date        string
	Tags        []string
	PageCount   int
	CreatedAt   time.Time
}

// TextChunk is a bounded span of extracted page text used as the retrieval
// unit for factual questions. Chunks never span pages and are discarded when
// shorter than the chunker's minimum length.
type TextChunk struct {
	ID         string
	DocumentID string
	Page       int

	// Seq is the chunk's position within the whole document, monotonically
	// increasing across pages.
	Seq int

	Text string

	// CharStart and CharEnd are offsets of the chunk within its page text.
	CharStart int
	CharEnd   int

	// Embedding is nil when embedding generation failed; such chunks are
	// stored but excluded from similarity ranking.
	Embedding []float32
}

// ChunkIDFor builds the deterministic chunk identifier for a document page
// and sequence position, mirroring TableIDFor so repeated chunking of the
// same document upserts rather than duplicates.
func ChunkIDFor(documentID string, page, seq int) string {
	return fmt.Sprintf("doc%s_p%d_s%d", documentID, page, seq)
}

// IngestionStatus is the terminal state of an ingestion job.
type IngestionStatus string

const (
	IngestionCompleted IngestionStatus = "completed"
	IngestionFailed    IngestionStatus = "failed"
)

// IngestionLog records the outcome of one ingestion job for a document.
type IngestionLog struct {
	ID              string
	DocumentID      string
	Status          IngestionStatus
	ChunksExtracted int
	TablesExtracted int
	Error           string
	StartedAt       time.Time
	FinishedAt      time.Time
}
