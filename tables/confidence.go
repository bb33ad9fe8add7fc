package tables

import (
	"math"

	"github.com/tsawler/finsight/normalize"
)

// ocrConfidenceCap bounds OCR degenerate-grid extractions below what
// geometry-based extraction of an equivalent region can score.
const ocrConfidenceCap = 0.6

// contentConfidence scores an extracted grid from its content alone: row
// count, column-count uniformity and the fraction of data cells that parse
// as numeric. Each factor contributes monotonically. The result lands in
// [0, 1] starting from a 0.5 base for any grid with a header and data.
func contentConfidence(grid [][]string) float64 {
	if len(grid) < 2 {
		return 0
	}

	score := 0.5

	if len(grid) >= 5 {
		score += 0.1
	}
	if len(grid) >= 10 {
		score += 0.1
	}

	// Column-count uniformity across rows.
	counts := make([]float64, len(grid))
	mean := 0.0
	for i, row := range grid {
		counts[i] = float64(len(row))
		mean += counts[i]
	}
	mean /= float64(len(counts))

	variance := 0.0
	for _, c := range counts {
		diff := c - mean
		variance += diff * diff
	}
	variance /= float64(len(counts))

	if variance < 1 {
		score += 0.2
	} else if variance < 2 {
		score += 0.1
	}

	// Numeric density over non-header cells.
	numeric, total := 0, 0
	for _, row := range grid[1:] {
		for _, cell := range row[min(1, len(row)):] {
			total++
			if normalize.ParseNumeric(cell) != nil {
				numeric++
			}
		}
	}
	if total > 0 && float64(numeric)/float64(total) > 0.3 {
		score += 0.1
	}

	return math.Min(score, 1.0)
}

// combineConfidence blends the grid content score with the detection
// strategy's own accuracy estimate, mirroring how the geometry detectors
// report their trust. OCR detections are additionally capped so the
// degenerate-grid path always scores below geometry extraction.
func combineConfidence(content, strategy float64, ocr bool) float64 {
	combined := content
	if strategy > 0 {
		combined = (content + strategy) / 2
	}
	if ocr && combined > ocrConfidenceCap {
		combined = ocrConfidenceCap
	}
	return combined
}
