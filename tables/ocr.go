package tables

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/tsawler/finsight/model"
)

// OCRClient recognizes text in raw image data. The ocr package provides the
// Tesseract-backed implementation behind the "ocr" build tag.
type OCRClient interface {
	RecognizeImage(image []byte) (string, error)
}

// OCRDetector is the last-resort strategy for scanned pages. It runs OCR
// over the page's embedded images and emits any table-like text block as a
// degenerate single-cell grid tagged with the "ocr" extraction method. Its
// confidence is fixed below what geometry detection can score.
type OCRDetector struct {
	client OCRClient
}

// ocrBaseConfidence is the strategy estimate for OCR text blocks. Recognized
// text has no geometric corroboration, so the value stays at the cap.
const ocrBaseConfidence = 0.6

// NewOCRDetector creates an OCR fallback detector using the given client.
func NewOCRDetector(client OCRClient) *OCRDetector {
	return &OCRDetector{client: client}
}

// Name returns "ocr".
func (d *OCRDetector) Name() string { return string(model.MethodOCR) }

// Detect OCRs the page's embedded images and returns a degenerate detection
// per table-like text block. Pages without images yield nothing.
func (d *OCRDetector) Detect(page *model.Page) ([]*Detection, error) {
	if d.client == nil || len(page.Images) == 0 {
		return nil, nil
	}

	var detections []*Detection
	for i, img := range page.Images {
		text, err := d.client.RecognizeImage(img)
		if err != nil {
			return nil, fmt.Errorf("ocr on page %d image %d: %w", page.Number, i, err)
		}

		if !looksTabular(text) {
			continue
		}

		detections = append(detections, &Detection{
			Grid:       [][]string{{strings.TrimSpace(text)}},
			Confidence: ocrBaseConfidence,
			Method:     model.MethodOCR,
		})
	}

	return detections, nil
}

// looksTabular reports whether recognized text resembles tabular content:
// it must carry digits and enough distinct tokens to be a data block rather
// than a heading.
func looksTabular(text string) bool {
	fields := strings.Fields(text)
	if len(fields) < 6 {
		return false
	}

	for _, r := range text {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// DenseNumericText reports whether page text carries enough numeric tokens
// to suggest tabular content that the geometry detectors may have missed.
// The extractor uses it to decide when the OCR fallback is worth running.
func DenseNumericText(text string) bool {
	numeric := 0
	for _, field := range strings.Fields(text) {
		hasDigit := false
		for _, r := range field {
			if unicode.IsDigit(r) {
				hasDigit = true
				break
			}
		}
		if hasDigit {
			numeric++
			if numeric >= 6 {
				return true
			}
		}
	}
	return false
}
