package tables

import (
	"sort"

	"github.com/tsawler/finsight/model"
)

// ContextLines selects up to n page text lines directly above and below a
// table's bounding region, using line Y coordinates. Both slices come back
// in top-to-bottom reading order. n is clamped to [1, 20].
func ContextLines(lines []model.TextLine, tableBBox model.BBox, n int) (above, below []string) {
	if n < 1 {
		n = 1
	}
	if n > 20 {
		n = 20
	}

	var aboveLines, belowLines []model.TextLine
	for _, line := range lines {
		// PDF coordinates: above the table means a larger Y.
		if line.Y > tableBBox.Top() {
			aboveLines = append(aboveLines, line)
		} else if line.Y < tableBBox.Bottom() {
			belowLines = append(belowLines, line)
		}
	}

	// Nearest lines first, then restore reading order.
	sort.SliceStable(aboveLines, func(i, j int) bool { return aboveLines[i].Y < aboveLines[j].Y })
	if len(aboveLines) > n {
		aboveLines = aboveLines[:n]
	}
	for i := len(aboveLines) - 1; i >= 0; i-- {
		above = append(above, aboveLines[i].Text)
	}

	sort.SliceStable(belowLines, func(i, j int) bool { return belowLines[i].Y > belowLines[j].Y })
	if len(belowLines) > n {
		belowLines = belowLines[:n]
	}
	for _, line := range belowLines {
		below = append(below, line.Text)
	}

	return above, below
}
