package mandel

import (
	"fmt"
	"slices"
)

// Matrix holds iteration counts indexed [y][x]. Row 0 corresponds to Ymin.
// A Matrix is immutable once built.
type Matrix struct {
	rows    [][]int
	width   int
	maxIter int
}

// NewMatrix takes ownership of rows. Every row must have the same non-zero
// length and every count must lie in [0, maxIter].
func NewMatrix(rows [][]int, maxIter int) (*Matrix, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("matrix: no rows")
	}
	w := len(rows[0])
	if w == 0 {
		return nil, fmt.Errorf("matrix: empty row 0")
	}
	for y, row := range rows {
		if len(row) != w {
			return nil, fmt.Errorf("matrix: row %d has %d entries, want %d", y, len(row), w)
		}
		for x, c := range row {
			if c < 0 || c > maxIter {
				return nil, fmt.Errorf("matrix: cell (%d,%d) = %d outside [0, %d]", x, y, c, maxIter)
			}
		}
	}
	return &Matrix{rows: rows, width: w, maxIter: maxIter}, nil
}

func (m *Matrix) Width() int   { return m.width }
func (m *Matrix) Height() int  { return len(m.rows) }
func (m *Matrix) MaxIter() int { return m.maxIter }

// At returns the count at column x, row y.
func (m *Matrix) At(x, y int) int { return m.rows[y][x] }

// Row returns a copy of row y.
func (m *Matrix) Row(y int) []int { return slices.Clone(m.rows[y]) }

// Equal reports whether both matrices have identical shape, cap and counts.
func (m *Matrix) Equal(o *Matrix) bool {
	if m == nil || o == nil {
		return m == o
	}
	if m.maxIter != o.maxIter || m.width != o.width || len(m.rows) != len(o.rows) {
		return false
	}
	for y := range m.rows {
		if !slices.Equal(m.rows[y], o.rows[y]) {
			return false
		}
	}
	return true
}
