package tables

import (
	"github.com/tsawler/finsight/model"
)

// Detection is one table found on a page by a strategy.
type Detection struct {
	// Grid is the extracted cell grid, header row first.
	Grid [][]string

	// BBox is the table's bounding region on the page.
	BBox model.BBox

	// Confidence is the strategy's own accuracy estimate (0-1).
	Confidence float64

	// Method tags which strategy produced this detection.
	Method model.ExtractionMethod
}

// Strategy is a table detection algorithm. Strategies either return
// detections with their own confidence estimate, or nothing, in which case
// the caller advances to the next strategy in its ordered list.
type Strategy interface {
	// Detect finds tables on a page. Returning an empty slice with a nil
	// error means the page holds no tables this strategy can see.
	Detect(page *model.Page) ([]*Detection, error)

	// Name returns the strategy identifier used in extraction method tags.
	Name() string
}

// Config holds shared detection parameters.
type Config struct {
	// MinRows is the minimum grid rows (header included) for a valid table.
	MinRows int

	// MinCols is the minimum columns for a valid table.
	MinCols int

	// AlignmentTolerance is the distance in points within which coordinates
	// are considered aligned.
	AlignmentTolerance float64

	// MinLineLength filters out ruling lines shorter than this.
	MinLineLength float64

	// MinConfidence discards detections scoring below this.
	MinConfidence float64
}

// DefaultConfig returns the detection defaults.
func DefaultConfig() Config {
	return Config{
		MinRows:            2,
		MinCols:            2,
		AlignmentTolerance: 3.0,
		MinLineLength:      10.0,
		MinConfidence:      0.3,
	}
}
