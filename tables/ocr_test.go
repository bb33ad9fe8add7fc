package tables

import (
	"errors"
	"testing"

	"github.com/tsawler/finsight/model"
)

func TestOCRDetectorDegenerateGrid(t *testing.T) {
	d := NewOCRDetector(&fakeOCR{
		text: "  Particulars Q3 FY25 Revenue 1,234 Expenses 567  ",
	})

	page := &model.Page{Number: 1, Images: [][]byte{[]byte("img")}}
	detections, err := d.Detect(page)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(detections) != 1 {
		t.Fatalf("expected 1 detection, got %d", len(detections))
	}

	det := detections[0]
	if det.Method != model.MethodOCR {
		t.Errorf("expected ocr method, got %s", det.Method)
	}
	if len(det.Grid) != 1 || len(det.Grid[0]) != 1 {
		t.Fatalf("expected single-cell grid, got %v", det.Grid)
	}
	if det.Grid[0][0] != "Particulars Q3 FY25 Revenue 1,234 Expenses 567" {
		t.Errorf("recognized text not trimmed: %q", det.Grid[0][0])
	}
	if det.Confidence != ocrBaseConfidence {
		t.Errorf("expected base confidence %f, got %f", ocrBaseConfidence, det.Confidence)
	}
}

func TestOCRDetectorSkipsNonTabularText(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"heading without digits", "Consolidated Financial Statements of the Trust"},
		{"too few tokens", "FY25 1,234"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewOCRDetector(&fakeOCR{text: tt.text})
			page := &model.Page{Number: 1, Images: [][]byte{[]byte("img")}}

			detections, err := d.Detect(page)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(detections) != 0 {
				t.Errorf("expected no detections for %q", tt.text)
			}
		})
	}
}

func TestOCRDetectorNoImagesNoClient(t *testing.T) {
	withClient := NewOCRDetector(&fakeOCR{text: "1 2 3 4 5 6"})
	if dets, err := withClient.Detect(&model.Page{Number: 1}); err != nil || len(dets) != 0 {
		t.Errorf("pages without images must yield nothing: %v, %v", dets, err)
	}

	noClient := NewOCRDetector(nil)
	page := &model.Page{Number: 1, Images: [][]byte{[]byte("img")}}
	if dets, err := noClient.Detect(page); err != nil || len(dets) != 0 {
		t.Errorf("nil client must yield nothing: %v, %v", dets, err)
	}
}

func TestOCRDetectorPropagatesClientError(t *testing.T) {
	d := NewOCRDetector(&fakeOCR{err: errors.New("engine not installed")})
	page := &model.Page{Number: 3, Images: [][]byte{[]byte("img")}}

	if _, err := d.Detect(page); err == nil {
		t.Fatal("expected error from failing client")
	}
}

func TestDenseNumericText(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"six numeric tokens", "1.45 1.52 1.61 2,034 (567) 98%", true},
		{"mixed prose and numbers", "Revenue grew 12% to ₹1,234 crore in Q3 FY25 from ₹1,100 crore in Q3 FY24", true},
		{"prose only", "The board approved the distribution at its meeting", false},
		{"five numeric tokens", "1 2 3 4 5", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DenseNumericText(tt.text); got != tt.want {
				t.Errorf("DenseNumericText(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}
