package certificate

import "context"

// RawGrid is one detected table region: text cells by row, no type information.
type RawGrid [][]string

// Rows returns the number of rows
func (g RawGrid) Rows() int {
	return len(g)
}

// Cols returns the number of columns in the first row
func (g RawGrid) Cols() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

// Cell returns the cell text, or "" when out of range
func (g RawGrid) Cell(row, col int) string {
	if row < 0 || row >= len(g) || col < 0 || col >= len(g[row]) {
		return ""
	}
	return g[row][col]
}

// FirstRow returns a copy of the first row, used in diagnostics
func (g RawGrid) FirstRow() []string {
	if len(g) == 0 {
		return nil
	}
	return append([]string(nil), g[0]...)
}

// GridSource produces raw grids for the given 1-indexed pages of a document.
type GridSource interface {
	Grids(ctx context.Context, path string, pages []int) ([]RawGrid, error)
}
