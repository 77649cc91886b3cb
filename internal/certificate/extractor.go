package certificate

import (
	"context"
	"fmt"

	"github.com/yegors/zendmap/pkg/logger"
)

// DefaultPages are the certificate pages that carry the sector tables.
var DefaultPages = []int{2, 3}

// Extractor turns a certificate document into its canonical sector table.
type Extractor struct {
	source GridSource
	pages  []int
	logger *logger.Logger
}

// NewExtractor creates an extractor reading the given pages (DefaultPages when empty)
func NewExtractor(source GridSource, pages []int, logger *logger.Logger) *Extractor {
	if len(pages) == 0 {
		pages = DefaultPages
	}
	return &Extractor{
		source: source,
		pages:  pages,
		logger: logger.Named("certificate-extractor"),
	}
}

// Extract returns the cached table when a sidecar exists, otherwise parses the document
// and writes the sidecar.
func (e *Extractor) Extract(ctx context.Context, path string) (Table, error) {
	table, cached, err := ReadSidecar(path)
	if err != nil {
		return nil, err
	}
	if cached {
		e.logger.Debug("Loaded certificate table from cache",
			logger.String("path", path),
			logger.Int("sectors", len(table)))
		return table, nil
	}

	table, err = e.Parse(ctx, path)
	if err != nil {
		return nil, err
	}

	if err := WriteSidecar(path, table); err != nil {
		return nil, err
	}
	e.logger.Debug("Saved certificate table",
		logger.String("path", SidecarPath(path)),
		logger.Int("sectors", len(table)))

	return table, nil
}

// Parse extracts the table from the document, ignoring any sidecar. The first grid that
// cannot be mapped aborts the document.
func (e *Extractor) Parse(ctx context.Context, path string) (Table, error) {
	grids, err := e.source.Grids(ctx, path, e.pages)
	if err != nil {
		return nil, fmt.Errorf("failed to read tables from %s: %w", path, err)
	}

	table := Table{}
	for i, g := range grids {
		template, part, err := Normalize(g)
		if err != nil {
			return nil, fmt.Errorf("%s grid %d: %w", path, i, err)
		}
		e.logger.Debug("Normalized grid",
			logger.String("path", path),
			logger.Int("grid", i),
			logger.String("template", template.String()),
			logger.Int("rows", g.Rows()),
			logger.Int("cols", g.Cols()),
			logger.Int("sectors", len(part)))
		table = append(table, part...)
	}

	table.SortByFrequency()
	return table, nil
}
