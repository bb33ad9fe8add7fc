package chunker

import (
	"strings"
	"testing"
)

func TestSplitWindowAndOverlap(t *testing.T) {
	c := &Chunker{WindowSize: 100, Overlap: 20, MinLength: 10}
	text := strings.Repeat("abcdefghij", 30) // 300 chars

	chunks := c.Split("d1", []PageText{{Page: 1, Text: text}})

	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}

	// Window advances by 80 each step.
	for i, ch := range chunks {
		if ch.CharStart != i*80 {
			t.Errorf("chunk %d: expected start %d, got %d", i, i*80, ch.CharStart)
		}
		if len(ch.Text) > 100 {
			t.Errorf("chunk %d: length %d exceeds window", i, len(ch.Text))
		}
	}

	// Consecutive chunks share the overlap region.
	first := chunks[0].Text
	second := chunks[1].Text
	if first[80:] != second[:20] {
		t.Error("overlap region mismatch between consecutive chunks")
	}
}

func TestSplitIdempotent(t *testing.T) {
	c := New()
	pages := []PageText{
		{Page: 1, Text: strings.Repeat("the quick brown fox jumps over the lazy dog. ", 30)},
		{Page: 2, Text: strings.Repeat("statutory auditors reviewed the results. ", 25)},
	}

	a := c.Split("d1", pages)
	b := c.Split("d1", pages)

	if len(a) != len(b) {
		t.Fatalf("chunk counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Text != b[i].Text || a[i].Seq != b[i].Seq || a[i].Page != b[i].Page {
			t.Errorf("chunk %d differs between runs", i)
		}
	}
}

func TestSplitDiscardsShortChunks(t *testing.T) {
	c := New()

	chunks := c.Split("d1", []PageText{{Page: 1, Text: "too short"}})
	if len(chunks) != 0 {
		t.Errorf("expected no chunks for short page, got %d", len(chunks))
	}

	for _, ch := range c.Split("d1", []PageText{{Page: 1, Text: strings.Repeat("x ", 400)}}) {
		if len(strings.TrimSpace(ch.Text)) < c.MinLength {
			t.Errorf("chunk below minimum length emitted: %q", ch.Text)
		}
	}
}

func TestSplitNeverSpansPages(t *testing.T) {
	c := &Chunker{WindowSize: 100, Overlap: 20, MinLength: 10}
	pages := []PageText{
		{Page: 1, Text: strings.Repeat("page one text here. ", 10)},
		{Page: 2, Text: strings.Repeat("page two text here. ", 10)},
	}

	chunks := c.Split("d1", pages)

	for _, ch := range chunks {
		if ch.Page == 1 && strings.Contains(ch.Text, "page two") {
			t.Error("chunk from page 1 contains page 2 text")
		}
		if ch.Page == 2 && strings.Contains(ch.Text, "page one") {
			t.Error("chunk from page 2 contains page 1 text")
		}
	}
}

func TestSplitSequenceMonotonic(t *testing.T) {
	c := New()
	pages := []PageText{
		{Page: 1, Text: strings.Repeat("alpha beta gamma delta epsilon zeta. ", 40)},
		{Page: 2, Text: "short"}, // discarded
		{Page: 3, Text: strings.Repeat("eta theta iota kappa lambda mu. ", 40)},
	}

	chunks := c.Split("d1", pages)
	for i, ch := range chunks {
		if ch.Seq != i {
			t.Errorf("chunk %d: expected seq %d, got %d", i, i, ch.Seq)
		}
	}
}

func TestSplitShortPageSingleChunk(t *testing.T) {
	c := New()
	text := strings.Repeat("a", 120) // shorter than window, above minimum

	chunks := c.Split("d1", []PageText{{Page: 1, Text: text}})
	if len(chunks) != 1 {
		t.Fatalf("expected exactly 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != text {
		t.Error("single chunk should contain the whole page text")
	}
}

func TestSplitAssignsDeterministicIDs(t *testing.T) {
	c := &Chunker{WindowSize: 100, Overlap: 20, MinLength: 10}
	pages := []PageText{
		{Page: 1, Text: strings.Repeat("abcdefghij", 30)},
		{Page: 3, Text: strings.Repeat("klmnopqrst", 30)},
	}

	chunks := c.Split("d1", pages)
	if len(chunks) < 4 {
		t.Fatalf("expected chunks from both pages, got %d", len(chunks))
	}

	seen := make(map[string]bool)
	for _, ch := range chunks {
		if ch.ID == "" {
			t.Fatalf("chunk seq %d has no ID", ch.Seq)
		}
		if seen[ch.ID] {
			t.Fatalf("duplicate chunk ID %q", ch.ID)
		}
		seen[ch.ID] = true
	}

	if chunks[0].ID != "docd1_p1_s0" {
		t.Errorf("expected first ID docd1_p1_s0, got %q", chunks[0].ID)
	}

	// IDs are a pure function of document, page, and sequence.
	again := c.Split("d1", pages)
	for i := range chunks {
		if chunks[i].ID != again[i].ID {
			t.Errorf("chunk %d: ID changed between runs: %q vs %q", i, chunks[i].ID, again[i].ID)
		}
	}
}
