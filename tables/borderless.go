package tables

import (
	"math"
	"sort"

	"github.com/tsawler/finsight/model"
)

// clusterGapThreshold is the vertical gap in points beyond which fragments
// start a new cluster.
const clusterGapThreshold = 50.0

// BorderlessDetector finds tables with no drawn borders by grouping text
// fragments into spatial clusters and checking each cluster for tabular
// alignment: shared row baselines and shared column edges. It runs after the
// bordered detector and its detections score lower for equivalent regions
// because the line-presence factor contributes nothing.
type BorderlessDetector struct {
	config Config
}

// NewBorderlessDetector creates a borderless detector with default
// configuration.
func NewBorderlessDetector() *BorderlessDetector {
	return &BorderlessDetector{config: DefaultConfig()}
}

// Name returns "borderless".
func (d *BorderlessDetector) Name() string { return string(model.MethodBorderless) }

// Configure sets the detector configuration.
func (d *BorderlessDetector) Configure(config Config) { d.config = config }

// Detect finds borderless tables on a page.
func (d *BorderlessDetector) Detect(page *model.Page) ([]*Detection, error) {
	if len(page.Fragments) == 0 {
		return nil, nil
	}

	var detections []*Detection
	for _, cluster := range d.clusterFragments(page.Fragments) {
		if det := d.detectInCluster(cluster); det != nil {
			detections = append(detections, det)
		}
	}

	return detections, nil
}

// clusterFragments groups fragments by vertical proximity, top to bottom.
func (d *BorderlessDetector) clusterFragments(fragments []model.TextFragment) [][]model.TextFragment {
	sorted := make([]model.TextFragment, len(fragments))
	copy(sorted, fragments)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].BBox.Top() > sorted[j].BBox.Top()
	})

	var clusters [][]model.TextFragment
	current := []model.TextFragment{sorted[0]}

	for _, frag := range sorted[1:] {
		last := current[len(current)-1].BBox
		gap := last.Bottom() - frag.BBox.Top()

		if gap > clusterGapThreshold {
			clusters = append(clusters, current)
			current = []model.TextFragment{frag}
		} else {
			current = append(current, frag)
		}
	}
	clusters = append(clusters, current)

	return clusters
}

// detectInCluster checks one cluster for tabular structure.
func (d *BorderlessDetector) detectInCluster(fragments []model.TextFragment) *Detection {
	if len(fragments) < d.config.MinRows*d.config.MinCols {
		return nil
	}

	rowBounds := d.rowBoundaries(fragments)
	colBounds := d.columnBoundaries(fragments)

	if len(rowBounds) < d.config.MinRows+1 || len(colBounds) < d.config.MinCols+1 {
		return nil
	}

	// Both the top and bottom edge of every text row become boundaries, so
	// the raw grid interleaves empty gap rows; compact them away.
	grid := compactGrid(fillGrid(rowBounds, colBounds, fragments))
	if len(grid) < d.config.MinRows || len(grid[0]) < d.config.MinCols {
		return nil
	}

	confidence := d.clusterConfidence(fragments, rowBounds, colBounds, grid)
	if confidence < d.config.MinConfidence {
		return nil
	}

	return &Detection{
		Grid: grid,
		BBox: model.BBox{
			X:      colBounds[0],
			Y:      rowBounds[len(rowBounds)-1],
			Width:  colBounds[len(colBounds)-1] - colBounds[0],
			Height: rowBounds[0] - rowBounds[len(rowBounds)-1],
		},
		Confidence: confidence,
		Method:     model.MethodBorderless,
	}
}

// rowBoundaries clusters fragment top and bottom edges into row boundary
// Y coordinates, sorted descending (PDF top first).
func (d *BorderlessDetector) rowBoundaries(fragments []model.TextFragment) []float64 {
	values := make([]float64, 0, len(fragments)*2)
	for _, frag := range fragments {
		values = append(values, frag.BBox.Top(), frag.BBox.Bottom())
	}
	sort.Float64s(values)

	clustered := clusterValues(values, d.config.AlignmentTolerance)
	sort.Sort(sort.Reverse(sort.Float64Slice(clustered)))
	return clustered
}

// columnBoundaries clusters fragment left and right edges into column
// boundary X coordinates, sorted ascending.
func (d *BorderlessDetector) columnBoundaries(fragments []model.TextFragment) []float64 {
	values := make([]float64, 0, len(fragments)*2)
	for _, frag := range fragments {
		values = append(values, frag.BBox.Left(), frag.BBox.Right())
	}
	sort.Float64s(values)

	return clusterValues(values, d.config.AlignmentTolerance)
}

// clusterValues merges sorted values within tolerance, averaging merged
// values into the cluster center.
func clusterValues(values []float64, tolerance float64) []float64 {
	if len(values) == 0 {
		return nil
	}

	clustered := []float64{values[0]}
	for _, v := range values[1:] {
		last := clustered[len(clustered)-1]
		if v-last > tolerance {
			clustered = append(clustered, v)
		} else {
			clustered[len(clustered)-1] = (last + v) / 2
		}
	}
	return clustered
}

// clusterConfidence scores a borderless detection from alignment quality,
// cell occupancy and grid regularity. There is no line-presence factor, so
// borderless scores trail bordered ones for comparable regions.
func (d *BorderlessDetector) clusterConfidence(fragments []model.TextFragment, rowBounds, colBounds []float64, grid [][]string) float64 {
	score := 0.0

	score += d.alignmentQuality(fragments, rowBounds, colBounds) * 0.4

	score += occupancy(grid) * 0.3

	heights := make([]float64, len(rowBounds)-1)
	for i := range heights {
		heights[i] = rowBounds[i] - rowBounds[i+1]
	}
	widths := make([]float64, len(colBounds)-1)
	for i := range widths {
		widths[i] = colBounds[i+1] - colBounds[i]
	}
	rowScore := math.Max(0, 1-coefficientOfVariation(heights))
	colScore := math.Max(0, 1-coefficientOfVariation(widths))
	score += (rowScore + colScore) / 2 * 0.3

	return math.Min(1.0, score)
}

// alignmentQuality is the fraction of fragments with at least two edges on
// grid boundaries.
func (d *BorderlessDetector) alignmentQuality(fragments []model.TextFragment, rowBounds, colBounds []float64) float64 {
	if len(fragments) == 0 {
		return 0
	}

	tol := d.config.AlignmentTolerance * 2
	aligned := 0
	for _, frag := range fragments {
		edges := 0
		if nearAny(frag.BBox.Left(), colBounds, tol) {
			edges++
		}
		if nearAny(frag.BBox.Right(), colBounds, tol) {
			edges++
		}
		if nearAny(frag.BBox.Top(), rowBounds, tol) {
			edges++
		}
		if nearAny(frag.BBox.Bottom(), rowBounds, tol) {
			edges++
		}
		if edges >= 2 {
			aligned++
		}
	}

	return float64(aligned) / float64(len(fragments))
}

// compactGrid removes rows and columns that hold no text at all.
func compactGrid(grid [][]string) [][]string {
	if len(grid) == 0 {
		return nil
	}

	cols := len(grid[0])
	colHasText := make([]bool, cols)
	var rows [][]string

	for _, row := range grid {
		empty := true
		for j, cell := range row {
			if cell != "" {
				empty = false
				if j < cols {
					colHasText[j] = true
				}
			}
		}
		if !empty {
			rows = append(rows, row)
		}
	}

	var compacted [][]string
	for _, row := range rows {
		var kept []string
		for j := 0; j < cols && j < len(row); j++ {
			if colHasText[j] {
				kept = append(kept, row[j])
			}
		}
		compacted = append(compacted, kept)
	}

	return compacted
}

// occupancy is the fraction of grid cells holding text.
func occupancy(grid [][]string) float64 {
	total, filled := 0, 0
	for _, row := range grid {
		for _, cell := range row {
			total++
			if cell != "" {
				filled++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(filled) / float64(total)
}

func nearAny(value float64, bounds []float64, tolerance float64) bool {
	for _, b := range bounds {
		if math.Abs(value-b) < tolerance {
			return true
		}
	}
	return false
}
