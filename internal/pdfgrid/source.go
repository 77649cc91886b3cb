package pdfgrid

import (
	"context"
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"

	"github.com/yegors/zendmap/internal/certificate"
	"github.com/yegors/zendmap/pkg/logger"
)

// Source reads ruled tables from PDF pages. It implements certificate.GridSource.
type Source struct {
	settings Settings
	logger   *logger.Logger
}

// NewSource creates a new PDF grid source
func NewSource(settings Settings, logger *logger.Logger) *Source {
	return &Source{
		settings: settings,
		logger:   logger.Named("pdf-grids"),
	}
}

// Grids returns the tables found on the given 1-indexed pages, in page order. Pages past
// the end of the document are ignored.
func (s *Source) Grids(ctx context.Context, path string, pages []int) ([]certificate.RawGrid, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}

	reader, err := pdf.NewReader(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF reader: %w", err)
	}

	var grids []certificate.RawGrid
	pagesRead, glyphsRead := 0, 0
	for _, n := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if n < 1 || n > reader.NumPage() {
			s.logger.Debug("Page not in document",
				logger.String("path", path),
				logger.Int("page", n),
				logger.Int("pages", reader.NumPage()))
			continue
		}

		page := reader.Page(n)
		if page.V.IsNull() {
			continue
		}

		glyphs, rules, err := pageContent(page)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", n, err)
		}

		pagesRead++
		glyphsRead += len(glyphs)

		found := Build(glyphs, rules, s.settings)
		s.logger.Debug("Detected tables",
			logger.String("path", path),
			logger.Int("page", n),
			logger.Int("glyphs", len(glyphs)),
			logger.Int("rules", len(rules)),
			logger.Int("tables", len(found)))
		grids = append(grids, found...)
	}

	s.reportEmpty(path, pages, pagesRead, glyphsRead, len(grids))
	return grids, nil
}

// reportEmpty warns when the requested pages were read but no ruled table came out of
// them, as happens for tables drawn with stroked paths instead of rectangles.
func (s *Source) reportEmpty(path string, pages []int, pagesRead, glyphs, grids int) {
	if grids > 0 || pagesRead == 0 {
		return
	}
	s.logger.Warn("No ruled table on the requested pages",
		logger.String("path", path),
		logger.Any("pages", pages),
		logger.Int("pages_read", pagesRead),
		logger.Int("glyphs", glyphs))
}

// pageContent decodes the page content stream. The reader panics on malformed streams,
// which is reported as an error for this document only.
func pageContent(page pdf.Page) (glyphs []Glyph, rules []Rule, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed content stream: %v", r)
		}
	}()

	content := page.Content()
	glyphs = make([]Glyph, 0, len(content.Text))
	for _, t := range content.Text {
		glyphs = append(glyphs, Glyph{X: t.X, Y: t.Y, W: t.W, Size: t.FontSize, S: t.S})
	}
	rules = make([]Rule, 0, len(content.Rect))
	for _, r := range content.Rect {
		rules = append(rules, Rule{X0: r.Min.X, Y0: r.Min.Y, X1: r.Max.X, Y1: r.Max.Y})
	}
	return glyphs, rules, nil
}
