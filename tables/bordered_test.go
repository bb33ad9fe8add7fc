package tables

import (
	"testing"

	"github.com/tsawler/finsight/model"
)

// Helpers to build ruling lines.
func hLine(y, x1, x2 float64) model.RulingLine {
	return model.RulingLine{
		Start:        model.Point{X: x1, Y: y},
		End:          model.Point{X: x2, Y: y},
		IsHorizontal: true,
	}
}

func vLine(x, y1, y2 float64) model.RulingLine {
	return model.RulingLine{
		Start:      model.Point{X: x, Y: y1},
		End:        model.Point{X: x, Y: y2},
		IsVertical: true,
	}
}

// fragment places text in a small box centered near (x, y).
func fragment(text string, x, y float64) model.TextFragment {
	return model.TextFragment{
		Text: text,
		BBox: model.BBox{X: x - 10, Y: y - 4, Width: 20, Height: 8},
	}
}

// borderedPage builds a fully ruled 3x2 table: rows at y 100/70/40/10,
// columns at x 0/100/200.
func borderedPage() *model.Page {
	return &model.Page{
		Number: 1,
		Rulings: []model.RulingLine{
			hLine(100, 0, 200),
			hLine(70, 0, 200),
			hLine(40, 0, 200),
			hLine(10, 0, 200),
			vLine(0, 10, 100),
			vLine(100, 10, 100),
			vLine(200, 10, 100),
		},
		Fragments: []model.TextFragment{
			fragment("Particulars", 50, 85),
			fragment("Q3 FY25", 150, 85),
			fragment("Revenue", 50, 55),
			fragment("1,234", 150, 55),
			fragment("Expenses", 50, 25),
			fragment("(567)", 150, 25),
		},
	}
}

func TestBorderedDetectorSimpleGrid(t *testing.T) {
	d := NewBorderedDetector()

	detections, err := d.Detect(borderedPage())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(detections) != 1 {
		t.Fatalf("expected 1 detection, got %d", len(detections))
	}

	det := detections[0]
	if det.Method != model.MethodBordered {
		t.Errorf("expected bordered method, got %s", det.Method)
	}
	if len(det.Grid) != 3 || len(det.Grid[0]) != 2 {
		t.Fatalf("expected 3x2 grid, got %dx%d", len(det.Grid), len(det.Grid[0]))
	}

	if det.Grid[0][0] != "Particulars" || det.Grid[0][1] != "Q3 FY25" {
		t.Errorf("header row wrong: %v", det.Grid[0])
	}
	if det.Grid[1][0] != "Revenue" || det.Grid[1][1] != "1,234" {
		t.Errorf("data row wrong: %v", det.Grid[1])
	}
	if det.Grid[2][1] != "(567)" {
		t.Errorf("expected (567), got %q", det.Grid[2][1])
	}

	if det.Confidence <= 0 || det.Confidence > 1 {
		t.Errorf("confidence out of range: %f", det.Confidence)
	}
}

func TestBorderedDetectorNoLines(t *testing.T) {
	page := &model.Page{
		Number: 1,
		Fragments: []model.TextFragment{
			fragment("just", 50, 85),
			fragment("text", 150, 85),
		},
	}

	d := NewBorderedDetector()
	detections, err := d.Detect(page)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(detections) != 0 {
		t.Errorf("expected no detections without rulings, got %d", len(detections))
	}
}

func TestBorderedDetectorIgnoresShortLines(t *testing.T) {
	page := borderedPage()
	// Underline fragments: too short to be table borders.
	page.Rulings = append(page.Rulings, hLine(95, 10, 15), hLine(85, 20, 24))

	d := NewBorderedDetector()
	detections, err := d.Detect(page)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(detections) != 1 {
		t.Fatalf("expected 1 detection, got %d", len(detections))
	}
	if len(detections[0].Grid) != 3 {
		t.Errorf("short stray lines altered the grid: %d rows", len(detections[0].Grid))
	}
}

func TestBorderedDetectorMergesAlignedLines(t *testing.T) {
	page := borderedPage()
	// A second, nearly coincident top border within tolerance.
	page.Rulings = append(page.Rulings, hLine(101, 0, 200))

	d := NewBorderedDetector()
	detections, err := d.Detect(page)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(detections) != 1 || len(detections[0].Grid) != 3 {
		t.Fatalf("coincident lines should merge into one boundary")
	}
}

func TestBorderedFullBordersScoreHigherThanPartial(t *testing.T) {
	full := borderedPage()

	partial := borderedPage()
	// Remove the outer vertical borders; keep an extra interior rule so the
	// minimum column count still holds.
	partial.Rulings = []model.RulingLine{
		hLine(100, 0, 200),
		hLine(70, 0, 200),
		hLine(40, 0, 200),
		hLine(10, 0, 200),
		vLine(20, 10, 100),
		vLine(100, 10, 100),
		vLine(180, 10, 100),
	}

	d := NewBorderedDetector()
	fullDet, _ := d.Detect(full)
	partialDet, _ := d.Detect(partial)

	if len(fullDet) == 0 || len(partialDet) == 0 {
		t.Skip("detection count changed; border comparison not applicable")
	}
	if fullDet[0].Confidence < partialDet[0].Confidence {
		t.Errorf("full borders %f should not score below partial %f",
			fullDet[0].Confidence, partialDet[0].Confidence)
	}
}
