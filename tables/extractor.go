package tables

import (
	"fmt"

	"github.com/tsawler/finsight/model"
)

// PageSource yields pages of an open document. The reader package provides
// the PDF-backed implementation.
type PageSource interface {
	// PageCount returns the number of pages.
	PageCount() int

	// Page returns the 1-indexed page.
	Page(n int) (*model.Page, error)
}

// Warning records a recoverable page-level extraction problem.
type Warning struct {
	Page    int
	Message string
}

// Stats summarizes which strategies produced tables during one extraction.
type Stats struct {
	GeometryTables int
	OCRTables      int
	PagesOCRed     []int
}

// Result is the outcome of extracting one document.
type Result struct {
	Tables   []model.ExtractedTable
	Warnings []Warning
	Stats    Stats
}

// Extractor runs the strategy chain over every page of a document and turns
// detections into ExtractedTable records: classified, annotated with context
// lines and units, and scored. A page that fails detection is skipped with a
// recorded warning; remaining pages continue.
type Extractor struct {
	// Strategies is the ordered detection chain. Later strategies run only
	// when every earlier one found nothing on the page.
	Strategies []Strategy

	// OCR is the optional scanned-page fallback, tried after the geometry
	// strategies on pages with embedded images or dense numeric text.
	OCR *OCRDetector

	// ContextLines is how many text lines to capture above and below each
	// geometry-detected table (clamped to 1-20).
	ContextLines int

	// OCRContextLines applies to OCR detections, whose degenerate grids
	// lean harder on surrounding text for identity.
	OCRContextLines int
}

// NewExtractor creates an extractor with the default strategy chain:
// bordered detection first, borderless second, no OCR fallback.
func NewExtractor() *Extractor {
	return &Extractor{
		Strategies:      []Strategy{NewBorderedDetector(), NewBorderlessDetector()},
		ContextLines:    3,
		OCRContextLines: 20,
	}
}

// ExtractDocument extracts all tables from the document, in page order then
// index-on-page order. Page-level failures are reported as warnings, never
// as errors; the error return covers only an unusable source.
func (e *Extractor) ExtractDocument(src PageSource, documentID string) (*Result, error) {
	if src == nil {
		return nil, fmt.Errorf("nil page source")
	}

	result := &Result{}

	for n := 1; n <= src.PageCount(); n++ {
		page, err := src.Page(n)
		if err != nil {
			result.Warnings = append(result.Warnings, Warning{Page: n, Message: err.Error()})
			continue
		}

		detections, warnings := e.detectPage(page)
		result.Warnings = append(result.Warnings, warnings...)

		for idx, det := range detections {
			tab := e.buildTable(documentID, page, idx, det)
			if tab == nil {
				continue
			}
			result.Tables = append(result.Tables, *tab)
			if det.Method == model.MethodOCR {
				result.Stats.OCRTables++
			} else {
				result.Stats.GeometryTables++
			}
		}
		if len(detections) > 0 && detections[0].Method == model.MethodOCR {
			result.Stats.PagesOCRed = append(result.Stats.PagesOCRed, n)
		}
	}

	return result, nil
}

// detectPage runs the strategy chain on one page, falling through to OCR
// when geometry finds nothing and the page looks like it holds a table.
func (e *Extractor) detectPage(page *model.Page) ([]*Detection, []Warning) {
	var warnings []Warning

	for _, strategy := range e.Strategies {
		detections, err := strategy.Detect(page)
		if err != nil {
			warnings = append(warnings, Warning{
				Page:    page.Number,
				Message: fmt.Sprintf("%s detection: %v", strategy.Name(), err),
			})
			continue
		}
		if len(detections) > 0 {
			return detections, warnings
		}
	}

	if e.OCR != nil && (len(page.Images) > 0 || DenseNumericText(page.Text)) {
		detections, err := e.OCR.Detect(page)
		if err != nil {
			warnings = append(warnings, Warning{Page: page.Number, Message: err.Error()})
			return nil, warnings
		}
		return detections, warnings
	}

	return nil, warnings
}

// buildTable assembles the final ExtractedTable from a detection. Geometry
// grids with no data rows are dropped as noise; OCR keeps its single-cell
// grid since the recognized text is the payload.
func (e *Extractor) buildTable(documentID string, page *model.Page, idx int, det *Detection) *model.ExtractedTable {
	ocr := det.Method == model.MethodOCR
	if !ocr && len(det.Grid) < 2 {
		return nil
	}

	contextN := e.ContextLines
	if ocr {
		contextN = e.OCRContextLines
	}
	above, below := ContextLines(page.Lines, det.BBox, contextN)

	tab := &model.ExtractedTable{
		TableID:      model.TableIDFor(documentID, page.Number, idx, det.Method),
		DocumentID:   documentID,
		Page:         page.Number,
		IndexOnPage:  idx,
		Name:         ClassifyGrid(det.Grid, above),
		Unit:         DetectUnit(det.Grid, above),
		Grid:         det.Grid,
		ContextAbove: above,
		ContextBelow: below,
		Method:       det.Method,
	}

	if len(det.Grid) > 0 {
		tab.Periods = ExtractPeriods(det.Grid[0])
	}

	// The degenerate OCR grid fails the header+data content check; score it
	// from the strategy estimate alone, still under the cap.
	content := contentConfidence(det.Grid)
	if ocr {
		content = det.Confidence
	}
	tab.Confidence = combineConfidence(content, det.Confidence, ocr)

	return tab
}
