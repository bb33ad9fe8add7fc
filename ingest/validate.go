package ingest

import (
	"context"
	"fmt"

	"github.com/tsawler/finsight/model"
)

// ValidationStatus is the outcome of checking one stored table against a
// fresh extraction of its source page.
type ValidationStatus string

const (
	// ValidationMatch means the fresh extraction produced the same grid shape.
	ValidationMatch ValidationStatus = "match"
	// ValidationMismatch means a table was found at the same position but
	// its row count differs.
	ValidationMismatch ValidationStatus = "mismatch"
	// ValidationNoMatch means no table was re-extracted at the stored
	// page and index.
	ValidationNoMatch ValidationStatus = "no_match"
)

// TableValidation reports one stored table against its re-extraction.
type TableValidation struct {
	TableID    string           `json:"tableId"`
	Name       model.TableType  `json:"name,omitempty"`
	Page       int              `json:"page"`
	Status     ValidationStatus `json:"status"`
	Confidence float64          `json:"confidence"`

	// StoredGridRows and FreshGridRows are header-inclusive grid row counts.
	StoredGridRows int `json:"storedGridRows"`
	FreshGridRows  int `json:"freshGridRows"`
	StoredGridCols int `json:"storedGridCols"`
	FreshGridCols  int `json:"freshGridCols"`

	// NormalizedRows is how many long-format rows the store holds for the
	// table, for spotting normalization drift separately from grid drift.
	NormalizedRows int `json:"normalizedRows"`
}

// ValidationReport summarizes re-extraction accuracy for one document.
type ValidationReport struct {
	DocumentID string `json:"documentId"`
	Path       string `json:"path"`

	StoredTables int `json:"storedTables"`
	FreshTables  int `json:"freshTables"`
	Matched      int `json:"matched"`

	// Accuracy is the matched share of stored tables, in percent.
	Accuracy float64 `json:"accuracy"`
	// AvgConfidence averages the stored extraction confidences.
	AvgConfidence float64 `json:"avgConfidence"`

	Tables []TableValidation `json:"tables"`
}

// ValidationStore is the read side Validate needs. *store.Store satisfies it.
type ValidationStore interface {
	TablesByDocument(ctx context.Context, documentID string) ([]model.ExtractedTable, error)
	RowsByTable(ctx context.Context, tableID string) ([]model.NormalizedRow, error)
}

// Validate re-runs table extraction against the source file and compares the
// result with what the store holds for the document. Fresh tables are matched
// to stored ones by page and index on the page; a matched pair compares grid
// row counts. The source file must be the one originally ingested, or every
// table will mismatch.
func (p *Pipeline) Validate(ctx context.Context, st ValidationStore, documentID, path string) (*ValidationReport, error) {
	stored, err := st.TablesByDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("loading stored tables for %s: %w", documentID, err)
	}

	src, err := p.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer src.Close()

	result, err := p.Extractor.ExtractDocument(src, documentID)
	if err != nil {
		return nil, fmt.Errorf("re-extracting %s: %w", path, err)
	}

	// Fresh tables keyed by position. Deterministic table IDs make page and
	// index the natural join key across runs.
	type position struct{ page, index int }
	fresh := make(map[position]*model.ExtractedTable, len(result.Tables))
	for i := range result.Tables {
		t := &result.Tables[i]
		fresh[position{t.Page, t.IndexOnPage}] = t
	}

	report := &ValidationReport{
		DocumentID:   documentID,
		Path:         path,
		StoredTables: len(stored),
		FreshTables:  len(result.Tables),
	}

	var confidenceSum float64
	for i := range stored {
		tab := &stored[i]
		confidenceSum += tab.Confidence

		tv := TableValidation{
			TableID:        tab.TableID,
			Name:           tab.Name,
			Page:           tab.Page,
			Confidence:     tab.Confidence,
			StoredGridRows: tab.RowCount(),
			StoredGridCols: tab.ColCount(),
		}

		if rows, err := st.RowsByTable(ctx, tab.TableID); err == nil {
			tv.NormalizedRows = len(rows)
		}

		re, ok := fresh[position{tab.Page, tab.IndexOnPage}]
		switch {
		case !ok:
			tv.Status = ValidationNoMatch
		case re.RowCount() == tab.RowCount():
			tv.Status = ValidationMatch
			report.Matched++
		default:
			tv.Status = ValidationMismatch
		}
		if ok {
			tv.FreshGridRows = re.RowCount()
			tv.FreshGridCols = re.ColCount()
		}

		report.Tables = append(report.Tables, tv)
	}

	if len(stored) > 0 {
		report.Accuracy = float64(report.Matched) / float64(len(stored)) * 100
		report.AvgConfidence = confidenceSum / float64(len(stored))
	}
	return report, nil
}
