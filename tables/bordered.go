package tables

import (
	"math"
	"sort"
	"strings"

	"github.com/tsawler/finsight/model"
)

// BorderedDetector locates tables from ruling-line geometry. It groups
// horizontal and vertical ruling lines into aligned boundary groups, forms a
// grid hypothesis where the two sets intersect, and fills cells from the text
// fragments inside the grid region. Tables found this way carry the highest
// trust of the strategy chain.
type BorderedDetector struct {
	config Config
}

// NewBorderedDetector creates a bordered detector with default configuration.
func NewBorderedDetector() *BorderedDetector {
	return &BorderedDetector{config: DefaultConfig()}
}

// Name returns "bordered".
func (d *BorderedDetector) Name() string { return string(model.MethodBordered) }

// Configure sets the detector configuration.
func (d *BorderedDetector) Configure(config Config) { d.config = config }

// lineGroup is a set of ruling lines aligned on one axis.
type lineGroup struct {
	// Position on the alignment axis: Y for horizontal groups, X for vertical.
	Position float64

	// Extent of the lines along the perpendicular axis.
	MinExtent float64
	MaxExtent float64

	Count int
}

// Detect finds bordered tables on a page.
func (d *BorderedDetector) Detect(page *model.Page) ([]*Detection, error) {
	var horizontals, verticals []model.RulingLine
	for _, l := range page.Rulings {
		if l.Length() < d.config.MinLineLength {
			continue
		}
		if l.IsHorizontal {
			horizontals = append(horizontals, l)
		} else if l.IsVertical {
			verticals = append(verticals, l)
		}
	}

	hGroups := d.groupAligned(horizontals, true)
	vGroups := d.groupAligned(verticals, false)

	if len(hGroups) < d.config.MinRows+1 || len(vGroups) < d.config.MinCols+1 {
		return nil, nil
	}

	hypothesis := d.buildHypothesis(hGroups, vGroups)
	if hypothesis == nil {
		return nil, nil
	}

	grid := fillGrid(hypothesis.rowBounds, hypothesis.colBounds, page.Fragments)
	if gridIsEmpty(grid) {
		return nil, nil
	}

	confidence := d.hypothesisConfidence(hypothesis, grid)
	if confidence < d.config.MinConfidence {
		return nil, nil
	}

	return []*Detection{{
		Grid:       grid,
		BBox:       hypothesis.bbox,
		Confidence: confidence,
		Method:     model.MethodBordered,
	}}, nil
}

// gridHypothesis is a candidate table grid built from boundary groups.
type gridHypothesis struct {
	// rowBounds are Y coordinates sorted descending (PDF top first);
	// colBounds are X coordinates sorted ascending.
	rowBounds []float64
	colBounds []float64

	bbox model.BBox

	hasTopBorder    bool
	hasBottomBorder bool
	hasLeftBorder   bool
	hasRightBorder  bool

	// coverage is the fraction of perpendicular extent the boundary lines
	// actually span.
	coverage float64
}

// groupAligned merges ruling lines whose axis positions fall within the
// alignment tolerance, averaging the group position as lines accumulate.
func (d *BorderedDetector) groupAligned(lines []model.RulingLine, horizontal bool) []lineGroup {
	if len(lines) == 0 {
		return nil
	}

	sorted := make([]model.RulingLine, len(lines))
	copy(sorted, lines)
	sort.Slice(sorted, func(i, j int) bool {
		return axisPos(sorted[i], horizontal) < axisPos(sorted[j], horizontal)
	})

	var groups []lineGroup
	current := newLineGroup(sorted[0], horizontal)

	for _, line := range sorted[1:] {
		pos := axisPos(line, horizontal)
		if pos-current.Position <= d.config.AlignmentTolerance {
			current.Position = (current.Position*float64(current.Count) + pos) / float64(current.Count+1)
			current.Count++
			min, max := extent(line, horizontal)
			current.MinExtent = math.Min(current.MinExtent, min)
			current.MaxExtent = math.Max(current.MaxExtent, max)
		} else {
			groups = append(groups, current)
			current = newLineGroup(line, horizontal)
		}
	}
	groups = append(groups, current)

	return groups
}

func newLineGroup(line model.RulingLine, horizontal bool) lineGroup {
	min, max := extent(line, horizontal)
	return lineGroup{
		Position:  axisPos(line, horizontal),
		MinExtent: min,
		MaxExtent: max,
		Count:     1,
	}
}

// axisPos returns the line's position on its alignment axis.
func axisPos(l model.RulingLine, horizontal bool) float64 {
	if horizontal {
		return (l.Start.Y + l.End.Y) / 2
	}
	return (l.Start.X + l.End.X) / 2
}

// extent returns the line's span along the perpendicular axis.
func extent(l model.RulingLine, horizontal bool) (min, max float64) {
	if horizontal {
		return math.Min(l.Start.X, l.End.X), math.Max(l.Start.X, l.End.X)
	}
	return math.Min(l.Start.Y, l.End.Y), math.Max(l.Start.Y, l.End.Y)
}

// buildHypothesis forms a grid where the horizontal and vertical groups
// intersect. Groups that do not span at least half the grid are discarded as
// stray rules (underlines, separators).
func (d *BorderedDetector) buildHypothesis(hGroups, vGroups []lineGroup) *gridHypothesis {
	left := minPosition(vGroups)
	right := maxPosition(vGroups)
	bottom := minPosition(hGroups)
	top := maxPosition(hGroups)

	if right <= left || top <= bottom {
		return nil
	}

	relevantH := filterBySpan(hGroups, left, right)
	relevantV := filterBySpan(vGroups, bottom, top)

	if len(relevantH) < d.config.MinRows+1 || len(relevantV) < d.config.MinCols+1 {
		return nil
	}

	// Rows top to bottom, columns left to right.
	sort.Slice(relevantH, func(i, j int) bool { return relevantH[i].Position > relevantH[j].Position })
	sort.Slice(relevantV, func(i, j int) bool { return relevantV[i].Position < relevantV[j].Position })

	h := &gridHypothesis{
		rowBounds: positions(relevantH),
		colBounds: positions(relevantV),
		bbox: model.BBox{
			X:      left,
			Y:      bottom,
			Width:  right - left,
			Height: top - bottom,
		},
	}

	tol := d.config.AlignmentTolerance
	h.hasTopBorder = math.Abs(relevantH[0].Position-top) < tol
	h.hasBottomBorder = math.Abs(relevantH[len(relevantH)-1].Position-bottom) < tol
	h.hasLeftBorder = math.Abs(relevantV[0].Position-left) < tol
	h.hasRightBorder = math.Abs(relevantV[len(relevantV)-1].Position-right) < tol

	expected := float64(len(hGroups) + len(vGroups))
	if expected > 0 {
		h.coverage = math.Min(1, float64(len(relevantH)+len(relevantV))/expected)
	}

	return h
}

// hypothesisConfidence scores a bordered hypothesis from grid regularity,
// border completeness, line coverage and cell count.
func (d *BorderedDetector) hypothesisConfidence(h *gridHypothesis, grid [][]string) float64 {
	score := 0.0

	rows := len(h.rowBounds) - 1
	cols := len(h.colBounds) - 1
	cellCount := rows * cols
	if cellCount >= 4 {
		score += 0.2
	}
	if cellCount >= 9 {
		score += 0.1
	}

	score += d.regularity(h) * 0.3

	borders := 0.0
	for _, has := range []bool{h.hasTopBorder, h.hasBottomBorder, h.hasLeftBorder, h.hasRightBorder} {
		if has {
			borders += 0.25
		}
	}
	score += borders * 0.2

	score += h.coverage * 0.2

	return math.Min(1.0, score)
}

// regularity measures grid spacing consistency via the coefficient of
// variation of row heights and column widths.
func (d *BorderedDetector) regularity(h *gridHypothesis) float64 {
	rowScore := 1.0
	if len(h.rowBounds) > 2 {
		heights := make([]float64, len(h.rowBounds)-1)
		for i := range heights {
			heights[i] = h.rowBounds[i] - h.rowBounds[i+1]
		}
		rowScore = math.Max(0, 1-coefficientOfVariation(heights))
	}

	colScore := 1.0
	if len(h.colBounds) > 2 {
		widths := make([]float64, len(h.colBounds)-1)
		for i := range widths {
			widths[i] = h.colBounds[i+1] - h.colBounds[i]
		}
		colScore = math.Max(0, 1-coefficientOfVariation(widths))
	}

	return (rowScore + colScore) / 2
}

// fillGrid assigns each fragment to the grid cell containing its center,
// concatenating fragments that land in the same cell in input order.
// rowBounds are sorted descending, colBounds ascending.
func fillGrid(rowBounds, colBounds []float64, fragments []model.TextFragment) [][]string {
	rows := len(rowBounds) - 1
	cols := len(colBounds) - 1
	if rows < 1 || cols < 1 {
		return nil
	}

	grid := make([][]string, rows)
	for i := range grid {
		grid[i] = make([]string, cols)
	}

	for _, frag := range fragments {
		c := frag.BBox.Center()
		row, col := -1, -1

		for i := 0; i < rows; i++ {
			if c.Y <= rowBounds[i] && c.Y >= rowBounds[i+1] {
				row = i
				break
			}
		}
		for j := 0; j < cols; j++ {
			if c.X >= colBounds[j] && c.X <= colBounds[j+1] {
				col = j
				break
			}
		}

		if row < 0 || col < 0 {
			continue
		}
		if grid[row][col] != "" {
			grid[row][col] += " "
		}
		grid[row][col] += strings.TrimSpace(frag.Text)
	}

	return grid
}

// gridIsEmpty reports whether no cell received any text.
func gridIsEmpty(grid [][]string) bool {
	for _, row := range grid {
		for _, cell := range row {
			if cell != "" {
				return false
			}
		}
	}
	return true
}

// filterBySpan keeps groups whose lines span at least half the given extent
// and overlap it.
func filterBySpan(groups []lineGroup, minExtent, maxExtent float64) []lineGroup {
	required := (maxExtent - minExtent) * 0.5

	var result []lineGroup
	for _, g := range groups {
		coverage := g.MaxExtent - g.MinExtent
		if coverage < required {
			continue
		}
		overlapMin := math.Max(g.MinExtent, minExtent)
		overlapMax := math.Min(g.MaxExtent, maxExtent)
		if overlapMax > overlapMin {
			result = append(result, g)
		}
	}
	return result
}

func positions(groups []lineGroup) []float64 {
	out := make([]float64, len(groups))
	for i, g := range groups {
		out[i] = g.Position
	}
	return out
}

func minPosition(groups []lineGroup) float64 {
	if len(groups) == 0 {
		return 0
	}
	min := groups[0].Position
	for _, g := range groups[1:] {
		if g.Position < min {
			min = g.Position
		}
	}
	return min
}

func maxPosition(groups []lineGroup) float64 {
	if len(groups) == 0 {
		return 0
	}
	max := groups[0].Position
	for _, g := range groups[1:] {
		if g.Position > max {
			max = g.Position
		}
	}
	return max
}

// coefficientOfVariation is the standard deviation divided by the mean.
func coefficientOfVariation(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	m := 0.0
	for _, v := range values {
		m += v
	}
	m /= float64(len(values))
	if m == 0 {
		return 0
	}

	variance := 0.0
	for _, v := range values {
		diff := v - m
		variance += diff * diff
	}
	variance /= float64(len(values))

	return math.Sqrt(variance) / m
}
