package pdfgrid

import (
	"math"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/yegors/zendmap/internal/certificate"
)

// Glyph is a run of text placed on the page. Y is the baseline, in PDF user space (y up).
type Glyph struct {
	X    float64
	Y    float64
	W    float64
	Size float64
	S    string
}

// Rule is a filled or stroked rectangle from the page content stream.
type Rule struct {
	X0, Y0, X1, Y1 float64
}

// Settings tune the lattice detection.
type Settings struct {
	// SnapTolerance merges edge coordinates closer than this
	SnapTolerance float64
	// EdgeMinLength drops ruling shorter than this
	EdgeMinLength float64
	// LineThickness is the widest rectangle still treated as a single ruling line
	LineThickness float64
	// WordGap is the gap, as a fraction of the font size, that separates two words
	WordGap float64
}

// DefaultSettings returns settings that work for the regulator's certificate forms.
func DefaultSettings() Settings {
	return Settings{
		SnapTolerance: 3.0,
		EdgeMinLength: 3.0,
		LineThickness: 2.0,
		WordGap:       0.2,
	}
}

type orientation int

const (
	horizontal orientation = iota
	vertical
)

// edge is a ruling segment. For horizontal edges pos is y and lo/hi span x; for vertical
// edges pos is x and lo/hi span y.
type edge struct {
	orient orientation
	pos    float64
	lo, hi float64
}

// Build detects ruled tables among rules and fills their cells with the glyphs that fall
// inside. Grids are returned top of page first.
func Build(glyphs []Glyph, rules []Rule, s Settings) []certificate.RawGrid {
	edges := edgesFromRules(rules, s)

	var tables []*lattice
	for _, component := range connect(edges, s.SnapTolerance) {
		if l := newLattice(component, s); l != nil {
			tables = append(tables, l)
		}
	}
	sort.SliceStable(tables, func(i, j int) bool {
		return tables[i].rows[0] > tables[j].rows[0]
	})

	grids := make([]certificate.RawGrid, 0, len(tables))
	for _, l := range tables {
		grids = append(grids, l.fill(glyphs, s))
	}
	return grids
}

func edgesFromRules(rules []Rule, s Settings) []edge {
	var edges []edge
	add := func(e edge) {
		if e.hi-e.lo >= s.EdgeMinLength {
			edges = append(edges, e)
		}
	}

	for _, r := range rules {
		x0, x1 := math.Min(r.X0, r.X1), math.Max(r.X0, r.X1)
		y0, y1 := math.Min(r.Y0, r.Y1), math.Max(r.Y0, r.Y1)
		w, h := x1-x0, y1-y0

		switch {
		case h <= s.LineThickness && w > h:
			add(edge{orient: horizontal, pos: (y0 + y1) / 2, lo: x0, hi: x1})
		case w <= s.LineThickness && h > w:
			add(edge{orient: vertical, pos: (x0 + x1) / 2, lo: y0, hi: y1})
		case w > s.LineThickness && h > s.LineThickness:
			// cell outline: all four sides are ruling
			add(edge{orient: horizontal, pos: y0, lo: x0, hi: x1})
			add(edge{orient: horizontal, pos: y1, lo: x0, hi: x1})
			add(edge{orient: vertical, pos: x0, lo: y0, hi: y1})
			add(edge{orient: vertical, pos: x1, lo: y0, hi: y1})
		}
	}
	return edges
}

func touches(a, b edge, tol float64) bool {
	if a.orient == b.orient {
		return math.Abs(a.pos-b.pos) <= tol && a.lo <= b.hi+tol && b.lo <= a.hi+tol
	}
	return b.pos >= a.lo-tol && b.pos <= a.hi+tol && a.pos >= b.lo-tol && a.pos <= b.hi+tol
}

// connect groups edges into connected components of touching segments.
func connect(edges []edge, tol float64) [][]edge {
	parent := make([]int, len(edges))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}

	for i := range edges {
		for j := i + 1; j < len(edges); j++ {
			if touches(edges[i], edges[j], tol) {
				parent[find(i)] = find(j)
			}
		}
	}

	groups := make(map[int][]edge)
	var order []int
	for i, e := range edges {
		root := find(i)
		if _, ok := groups[root]; !ok {
			order = append(order, root)
		}
		groups[root] = append(groups[root], e)
	}

	components := make([][]edge, 0, len(order))
	for _, root := range order {
		components = append(components, groups[root])
	}
	return components
}

// snap chains coordinates that lie within tol of their neighbour and returns the mean of
// each chain, ascending.
func snap(values []float64, tol float64) []float64 {
	if len(values) == 0 {
		return nil
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var out []float64
	sum, n := sorted[0], 1
	for i := 1; i < len(sorted); i++ {
		if sorted[i]-sorted[i-1] > tol {
			out = append(out, sum/float64(n))
			sum, n = 0, 0
		}
		sum += sorted[i]
		n++
	}
	return append(out, sum/float64(n))
}

type lattice struct {
	edges []edge
	rows  []float64 // row boundaries, top first
	cols  []float64 // column boundaries, left first
	tol   float64
}

func newLattice(edges []edge, s Settings) *lattice {
	var ys, xs []float64
	for _, e := range edges {
		if e.orient == horizontal {
			ys = append(ys, e.pos)
		} else {
			xs = append(xs, e.pos)
		}
	}
	rows := snap(ys, s.SnapTolerance)
	cols := snap(xs, s.SnapTolerance)
	if len(rows) < 2 || len(cols) < 2 {
		return nil
	}
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return &lattice{edges: edges, rows: rows, cols: cols, tol: s.SnapTolerance}
}

// ruled reports whether a segment of the given orientation lies at pos and covers at.
func (l *lattice) ruled(orient orientation, pos, at float64) bool {
	for _, e := range l.edges {
		if e.orient == orient && math.Abs(e.pos-pos) <= l.tol && at >= e.lo-l.tol && at <= e.hi+l.tol {
			return true
		}
	}
	return false
}

// locate returns the cell holding point (x, y), moved to the top-left cell of a span
// when the separating ruling is missing. ok is false outside the table.
func (l *lattice) locate(x, y float64) (row, col int, ok bool) {
	row, col = -1, -1
	for i := 0; i+1 < len(l.rows); i++ {
		if y <= l.rows[i] && y > l.rows[i+1] {
			row = i
			break
		}
	}
	for i := 0; i+1 < len(l.cols); i++ {
		if x >= l.cols[i] && x < l.cols[i+1] {
			col = i
			break
		}
	}
	if row < 0 || col < 0 {
		return 0, 0, false
	}

	rowMid := (l.rows[row] + l.rows[row+1]) / 2
	for col > 0 && !l.ruled(vertical, l.cols[col], rowMid) {
		col--
	}
	colMid := (l.cols[col] + l.cols[col+1]) / 2
	for row > 0 && !l.ruled(horizontal, l.rows[row], colMid) {
		row--
	}
	return row, col, true
}

func (l *lattice) fill(glyphs []Glyph, s Settings) certificate.RawGrid {
	nRows, nCols := len(l.rows)-1, len(l.cols)-1
	cells := make([][][]Glyph, nRows)
	for i := range cells {
		cells[i] = make([][]Glyph, nCols)
	}

	for _, g := range glyphs {
		cx := g.X + g.W/2
		cy := g.Y + g.Size*0.3
		row, col, ok := l.locate(cx, cy)
		if !ok {
			continue
		}
		cells[row][col] = append(cells[row][col], g)
	}

	grid := make(certificate.RawGrid, nRows)
	for r := range cells {
		grid[r] = make([]string, nCols)
		for c := range cells[r] {
			grid[r][c] = cellText(cells[r][c], s.WordGap)
		}
	}
	return grid
}

// cellText joins glyphs in reading order, separating words and lines with one space.
func cellText(glyphs []Glyph, wordGap float64) string {
	if len(glyphs) == 0 {
		return ""
	}
	sorted := append([]Glyph(nil), glyphs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if math.Abs(a.Y-b.Y) > math.Max(a.Size, b.Size)/2 {
			return a.Y > b.Y
		}
		return a.X < b.X
	})

	var b strings.Builder
	prev := sorted[0]
	b.WriteString(prev.S)
	for _, g := range sorted[1:] {
		sameLine := math.Abs(g.Y-prev.Y) <= math.Max(g.Size, prev.Size)/2
		if !sameLine || g.X-(prev.X+prev.W) > wordGap*math.Max(g.Size, 1) {
			b.WriteByte(' ')
		}
		b.WriteString(g.S)
		prev = g
	}

	return strings.Join(strings.Fields(norm.NFC.String(b.String())), " ")
}
