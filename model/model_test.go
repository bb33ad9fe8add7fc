package model

import (
	"strings"
	"testing"
)

func TestBBoxEdges(t *testing.T) {
	b := BBox{X: 10, Y: 20, Width: 100, Height: 50}

	if b.Left() != 10 {
		t.Errorf("Left: expected 10, got %f", b.Left())
	}
	if b.Right() != 110 {
		t.Errorf("Right: expected 110, got %f", b.Right())
	}
	if b.Bottom() != 20 {
		t.Errorf("Bottom: expected 20, got %f", b.Bottom())
	}
	if b.Top() != 70 {
		t.Errorf("Top: expected 70, got %f", b.Top())
	}

	c := b.Center()
	if c.X != 60 || c.Y != 45 {
		t.Errorf("Center: expected (60, 45), got (%f, %f)", c.X, c.Y)
	}
}

func TestBBoxIntersectsAndUnion(t *testing.T) {
	a := BBox{X: 0, Y: 0, Width: 10, Height: 10}
	b := BBox{X: 5, Y: 5, Width: 10, Height: 10}
	c := BBox{X: 50, Y: 50, Width: 10, Height: 10}

	if !a.Intersects(b) {
		t.Error("expected a to intersect b")
	}
	if a.Intersects(c) {
		t.Error("expected a not to intersect c")
	}

	u := a.Union(b)
	if u.X != 0 || u.Y != 0 || u.Width != 15 || u.Height != 15 {
		t.Errorf("Union: got %+v", u)
	}
}

func TestNewBBoxFromPoints(t *testing.T) {
	b := NewBBoxFromPoints(Point{X: 10, Y: 30}, Point{X: 5, Y: 20})
	if b.X != 5 || b.Y != 20 || b.Width != 5 || b.Height != 10 {
		t.Errorf("got %+v", b)
	}
}

func TestTableIDFor(t *testing.T) {
	tests := []struct {
		name     string
		method   ExtractionMethod
		expected string
	}{
		{"bordered", MethodBordered, "doc42_p3_t0"},
		{"borderless", MethodBorderless, "doc42_p3_t0"},
		{"ocr", MethodOCR, "doc42_ocr_p3_t0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TableIDFor("42", 3, 0, tt.method)
			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestTableIDDeterministic(t *testing.T) {
	a := TableIDFor("7", 12, 1, MethodBordered)
	b := TableIDFor("7", 12, 1, MethodBorderless)
	if a != b {
		t.Errorf("geometry methods should share IDs: %q vs %q", a, b)
	}
}

func TestExtractedTableText(t *testing.T) {
	tab := &ExtractedTable{
		Grid: [][]string{
			{"Particulars", "Q3 FY25"},
			{"Revenue", "1,234"},
		},
	}

	text := tab.Text()
	if !strings.Contains(text, "Particulars\tQ3 FY25") {
		t.Errorf("missing header row in %q", text)
	}
	if !strings.Contains(text, "Revenue\t1,234") {
		t.Errorf("missing data row in %q", text)
	}
}

func TestExtractedTableCounts(t *testing.T) {
	tab := &ExtractedTable{Grid: [][]string{{"a", "b", "c"}, {"d", "e", "f"}}}
	if tab.RowCount() != 2 {
		t.Errorf("RowCount: expected 2, got %d", tab.RowCount())
	}
	if tab.ColCount() != 3 {
		t.Errorf("ColCount: expected 3, got %d", tab.ColCount())
	}

	empty := &ExtractedTable{}
	if empty.ColCount() != 0 {
		t.Errorf("empty ColCount: expected 0, got %d", empty.ColCount())
	}
}

func TestRulingLineLength(t *testing.T) {
	l := RulingLine{Start: Point{X: 0, Y: 0}, End: Point{X: 3, Y: 4}}
	if l.Length() != 5 {
		t.Errorf("expected 5, got %f", l.Length())
	}
}
