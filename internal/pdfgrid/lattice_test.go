package pdfgrid

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yegors/zendmap/internal/certificate"
	"github.com/yegors/zendmap/pkg/logger"
)

// word lays out s one glyph per rune, 5pt wide, 10pt font, starting at x on baseline y.
func word(x, y float64, s string) []Glyph {
	var out []Glyph
	for _, r := range s {
		out = append(out, Glyph{X: x, Y: y, W: 5, Size: 10, S: string(r)})
		x += 5
	}
	return out
}

// ruling draws full-length lines through every x and y boundary.
func ruling(xs, ys []float64) []Rule {
	var rules []Rule
	for _, y := range ys {
		rules = append(rules, Rule{X0: xs[0], Y0: y - 0.25, X1: xs[len(xs)-1], Y1: y + 0.25})
	}
	for _, x := range xs {
		rules = append(rules, Rule{X0: x - 0.25, Y0: ys[len(ys)-1], X1: x + 0.25, Y1: ys[0]})
	}
	return rules
}

func glyphs(words ...[]Glyph) []Glyph {
	var out []Glyph
	for _, w := range words {
		out = append(out, w...)
	}
	return out
}

func TestBuild_SimpleTable(t *testing.T) {
	rules := ruling([]float64{0, 50, 100, 150}, []float64{100, 80, 60})
	text := glyphs(
		word(5, 86, "NR"), word(55, 86, "Azimut"), word(105, 86, "Freq."),
		word(5, 66, "1"), word(55, 66, "120"), word(105, 66, "2,6"),
	)

	grids := Build(text, rules, DefaultSettings())

	require.Len(t, grids, 1)
	assert.Equal(t, certificate.RawGrid{
		{"NR", "Azimut", "Freq."},
		{"1", "120", "2,6"},
	}, grids[0])
}

func TestBuild_SpannedHeaderGoesToFirstCell(t *testing.T) {
	rules := []Rule{
		{X0: 0, Y0: 99.75, X1: 100, Y1: 100.25},
		{X0: 0, Y0: 79.75, X1: 100, Y1: 80.25},
		{X0: 0, Y0: 59.75, X1: 100, Y1: 60.25},
		{X0: -0.25, Y0: 60, X1: 0.25, Y1: 100},
		{X0: 99.75, Y0: 60, X1: 100.25, Y1: 100},
		// the middle column line stops below the title row
		{X0: 49.75, Y0: 60, X1: 50.25, Y1: 80},
	}
	text := glyphs(word(5, 86, "Zendantennes"), word(5, 66, "1"), word(55, 66, "L8"))

	grids := Build(text, rules, DefaultSettings())

	require.Len(t, grids, 1)
	assert.Equal(t, certificate.RawGrid{
		{"Zendantennes", ""},
		{"1", "L8"},
	}, grids[0])
}

func TestBuild_TablesTopFirst(t *testing.T) {
	bottom := ruling([]float64{0, 100}, []float64{100, 80})
	top := ruling([]float64{0, 100}, []float64{300, 280})
	text := glyphs(word(5, 86, "Bottom"), word(5, 286, "Top"))

	grids := Build(text, append(bottom, top...), DefaultSettings())

	require.Len(t, grids, 2)
	assert.Equal(t, certificate.RawGrid{{"Top"}}, grids[0])
	assert.Equal(t, certificate.RawGrid{{"Bottom"}}, grids[1])
}

func TestBuild_CellOutlines(t *testing.T) {
	rules := []Rule{
		{X0: 0, Y0: 60, X1: 50, Y1: 80},
		{X0: 50, Y0: 60, X1: 100, Y1: 80},
	}
	text := glyphs(word(10, 66, "a"), word(60, 66, "b"))

	grids := Build(text, rules, DefaultSettings())

	require.Len(t, grids, 1)
	assert.Equal(t, certificate.RawGrid{{"a", "b"}}, grids[0])
}

func TestBuild_IgnoresLooseRulingAndText(t *testing.T) {
	rules := []Rule{{X0: 0, Y0: 500, X1: 400, Y1: 500.5}}
	text := glyphs(word(5, 510, "Conformiteitsattest"))

	assert.Empty(t, Build(text, rules, DefaultSettings()))
}

func TestCellText(t *testing.T) {
	tests := []struct {
		name   string
		glyphs []Glyph
		want   string
	}{
		{
			name:   "empty",
			glyphs: nil,
			want:   "",
		},
		{
			name:   "word gap becomes a space",
			glyphs: glyphs(word(0, 10, "Hoogte"), word(33, 10, "t.o.v.")),
			want:   "Hoogte t.o.v.",
		},
		{
			name:   "lines are joined top first",
			glyphs: glyphs(word(0, 0, "maaiveld"), word(0, 12, "Hoogte")),
			want:   "Hoogte maaiveld",
		},
		{
			name: "composed to NFC",
			glyphs: []Glyph{
				{X: 0, Y: 0, W: 5, Size: 10, S: "e"},
				{X: 5, Y: 0, W: 0, Size: 10, S: "\u0301"},
			},
			want: "\u00e9",
		},
		{
			name:   "no-break space collapses",
			glyphs: []Glyph{{X: 0, Y: 0, W: 20, Size: 10, S: "17\u00a0dBi\u00a0"}},
			want:   "17 dBi",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cellText(tt.glyphs, DefaultSettings().WordGap))
		})
	}
}

func TestSnap(t *testing.T) {
	assert.Equal(t, []float64{0, 50.5, 100}, snap([]float64{100, 50, 51, 0}, 3))
	assert.Nil(t, snap(nil, 3))
}

func TestSource_RejectsNonPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attest.pdf")
	require.NoError(t, os.WriteFile(path, []byte("<html>maintenance</html>"), 0o644))

	source := NewSource(DefaultSettings(), logger.Nop())

	_, err := source.Grids(context.Background(), path, []int{2, 3})
	assert.Error(t, err)

	_, err = source.Grids(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"), []int{2})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSource_WarnsWhenPagesYieldNoTable(t *testing.T) {
	var buf bytes.Buffer
	log, err := logger.New(logger.Config{Level: "warn", Format: "json", Output: &buf})
	require.NoError(t, err)
	source := NewSource(DefaultSettings(), log)

	source.reportEmpty("attest.pdf", []int{2, 3}, 2, 340, 1)
	source.reportEmpty("short.pdf", []int{2, 3}, 0, 0, 0)
	assert.Empty(t, buf.String(), "a table was found, or no page was read")

	source.reportEmpty("stroked.pdf", []int{2, 3}, 2, 340, 0)
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), "No ruled table on the requested pages")
	assert.Contains(t, buf.String(), `"path":"stroked.pdf"`)
	assert.Contains(t, buf.String(), `"glyphs":340`)
}
