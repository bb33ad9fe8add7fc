// Package normalize converts raw table grids into long-format rows: one
// (row label, column label, value) observation per data cell. Numeric
// parsing follows accounting conventions, treating parenthesized values
// as negative and stripping currency and percent markers. The raw cell
// text is always preserved so failed parses lose nothing.
package normalize

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tsawler/finsight/model"
)

// currencyMarkers are stripped from cell text before numeric parsing,
// longest first so "Rs." wins over "Rs".
var currencyMarkers = []string{"₹", "$", "Rs.", "Rs", "INR"}

// Grid converts a 2D cell grid into normalized rows. The first grid row is
// the header and the first cell of each data row is the row label; every
// remaining (data row, data column) pair yields exactly one row, in
// row-major order. Grids with fewer than 2 rows yield nothing.
func Grid(tableID string, grid [][]string) []model.NormalizedRow {
	if len(grid) < 2 {
		return nil
	}

	header := grid[0]
	var rows []model.NormalizedRow

	for i := 1; i < len(grid); i++ {
		if len(grid[i]) == 0 {
			continue
		}
		rowLabel := strings.TrimSpace(grid[i][0])

		for j := 1; j < len(grid[i]); j++ {
			colLabel := ""
			if j < len(header) {
				colLabel = strings.TrimSpace(header[j])
			}

			raw := strings.TrimSpace(grid[i][j])
			rows = append(rows, model.NormalizedRow{
				ID:          fmt.Sprintf("%s_r%d_c%d", tableID, i, j),
				TableID:     tableID,
				RowLabel:    rowLabel,
				ColumnLabel: colLabel,
				Period:      colLabel,
				RawValue:    raw,
				Value:       ParseNumeric(raw),
				RowIndex:    i,
				ColIndex:    j,
			})
		}
	}

	return rows
}

// ParseNumeric parses a cell value into a number, or nil when the cell is
// not numeric. Thousands separators, currency markers and percent signs are
// stripped first; a value fully wrapped in parentheses parses as its
// negation.
func ParseNumeric(raw string) *float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSuffix(s, "%")
	for _, marker := range currencyMarkers {
		s = strings.ReplaceAll(s, marker, "")
	}
	s = strings.TrimSpace(s)

	if s == "" {
		return nil
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}

	if negative {
		v = -v
	}
	return &v
}
