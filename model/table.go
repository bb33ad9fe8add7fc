package model

import (
	"fmt"
	"strings"
)

// TableType classifies an extracted table by its financial content.
type TableType string

const (
	TableRatios       TableType = "RATIOS"
	TableNDCF         TableType = "NDCF"
	TableDistribution TableType = "DISTRIBUTION"
	TableProfitLoss   TableType = "P&L"
	TableBalanceSheet TableType = "BALANCE_SHEET"
)

// ExtractionMethod tags which strategy produced an extracted table.
type ExtractionMethod string

const (
	MethodBordered   ExtractionMethod = "bordered"
	MethodBorderless ExtractionMethod = "borderless"
	MethodOCR        ExtractionMethod = "ocr"
)

// ExtractedTable is a table detected on one page of a document. The grid
// always has the header row first; OCR-extracted tables carry a degenerate
// single-cell grid holding the recognized text.
type ExtractedTable struct {
	// TableID is derived deterministically from (document, page, index) so
	// repeated extraction of the same page is idempotent.
	TableID    string
	DocumentID string
	Page       int

	// IndexOnPage disambiguates multiple tables on the same page.
	IndexOnPage int

	// Name is the inferred table category; empty when no rule matched.
	Name TableType

	// Unit is the inferred value unit (e.g. "₹ crores", "%", "times");
	// empty when none was detected.
	Unit string

	// Periods are header cells that look like reporting periods.
	Periods []string

	// Grid is the raw 2D cell grid, header row first.
	Grid [][]string

	// ContextAbove and ContextBelow are the page text lines immediately
	// surrounding the table, in reading order.
	ContextAbove []string
	ContextBelow []string

	// Confidence is the extraction confidence in [0, 1].
	Confidence float64

	Method ExtractionMethod
}

// TableIDFor builds the deterministic table identifier for a document page
// and index. OCR tables get a distinct namespace so a geometry table and an
// OCR table on the same page never collide.
func TableIDFor(documentID string, page, index int, method ExtractionMethod) string {
	if method == MethodOCR {
		return fmt.Sprintf("doc%s_ocr_p%d_t%d", documentID, page, index)
	}
	return fmt.Sprintf("doc%s_p%d_t%d", documentID, page, index)
}

// RowCount returns the number of grid rows including the header.
func (t *ExtractedTable) RowCount() int { return len(t.Grid) }

// ColCount returns the number of columns in the header row.
func (t *ExtractedTable) ColCount() int {
	if len(t.Grid) == 0 {
		return 0
	}
	return len(t.Grid[0])
}

// Text returns the grid flattened to tab-separated lines, used for keyword
// classification and for evidence blocks.
func (t *ExtractedTable) Text() string {
	var sb strings.Builder
	for _, row := range t.Grid {
		sb.WriteString(strings.Join(row, "\t"))
		sb.WriteString("\n")
	}
	return sb.String()
}

// NormalizedRow is a single (row label, column label, value) observation in
// long format, derived from one grid cell of an ExtractedTable.
type NormalizedRow struct {
	ID      string
	TableID string

	RowLabel    string
	ColumnLabel string

	// Period usually equals ColumnLabel and identifies the reporting period.
	Period string

	// RawValue preserves the original cell text, including currency symbols
	// and accounting parentheses.
	RawValue string

	// Value is the parsed numeric value; nil when the cell is non-numeric.
	// RawValue is always retained even when parsing fails.
	Value *float64

	RowIndex int
	ColIndex int

	// Embedding covers "RowLabel: ColumnLabel"; nil when generation failed.
	Embedding []float32
}
