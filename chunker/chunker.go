// Package chunker splits extracted page text into overlapping fixed-size
// spans for semantic retrieval. Chunking restarts at every page boundary so
// a chunk never spans two pages, and sequence indices increase monotonically
// across the whole document.
package chunker

import (
	"strings"

	"github.com/tsawler/finsight/model"
)

// Default chunking parameters.
const (
	DefaultWindowSize = 500
	DefaultOverlap    = 100
	DefaultMinLength  = 50
)

// Chunker produces fixed-window overlapping chunks from page text.
type Chunker struct {
	// WindowSize is the chunk length in characters.
	WindowSize int

	// Overlap is how many characters consecutive chunks share. The window
	// advances by WindowSize - Overlap each step.
	Overlap int

	// MinLength discards chunks whose trimmed text is shorter than this.
	MinLength int
}

// New creates a Chunker with default parameters.
func New() *Chunker {
	return &Chunker{
		WindowSize: DefaultWindowSize,
		Overlap:    DefaultOverlap,
		MinLength:  DefaultMinLength,
	}
}

// PageText is one page of extracted text, 1-indexed.
type PageText struct {
	Page int
	Text string
}

// Split chunks the given pages in order. Chunking is a pure function of its
// inputs: the same pages and parameters always yield byte-identical chunks.
func (c *Chunker) Split(documentID string, pages []PageText) []model.TextChunk {
	step := c.WindowSize - c.Overlap
	if step <= 0 {
		step = c.WindowSize
	}

	var chunks []model.TextChunk
	seq := 0

	for _, page := range pages {
		runes := []rune(page.Text)

		for start := 0; start < len(runes); start += step {
			end := start + c.WindowSize
			if end > len(runes) {
				end = len(runes)
			}

			text := string(runes[start:end])
			if len(strings.TrimSpace(text)) >= c.MinLength {
				chunks = append(chunks, model.TextChunk{
					ID:         model.ChunkIDFor(documentID, page.Page, seq),
					DocumentID: documentID,
					Page:       page.Page,
					Seq:        seq,
					Text:       text,
					CharStart:  start,
					CharEnd:    end,
				})
				seq++
			}

			if end == len(runes) {
				break
			}
		}
	}

	return chunks
}
