package pipeline

import (
	"context"

	"github.com/yegors/zendmap/internal/attest"
	"github.com/yegors/zendmap/internal/certificate"
	"github.com/yegors/zendmap/internal/config"
	"github.com/yegors/zendmap/internal/geo"
	"github.com/yegors/zendmap/internal/pdfgrid"
	"github.com/yegors/zendmap/internal/registry"
	"github.com/yegors/zendmap/internal/stations"
	"github.com/yegors/zendmap/internal/storage/sqlite"
	"github.com/yegors/zendmap/internal/wfs"
	"github.com/yegors/zendmap/pkg/logger"
)

// SiteSource yields the operational registry sites inside a bounding box.
type SiteSource interface {
	FetchOperational(ctx context.Context, bbox geo.BBox) ([]registry.Site, error)
}

// FeatureSource yields the permitted antenna installations inside a bounding box.
type FeatureSource interface {
	Features(ctx context.Context, bbox geo.BBox) ([]wfs.Feature, error)
}

// Fetcher brings certificate documents on disk, one result per feature.
type Fetcher interface {
	FetchAll(ctx context.Context, features []wfs.Feature, workers int) []attest.Result
}

// TableExtractor reads the sector table of a certificate document.
type TableExtractor interface {
	Extract(ctx context.Context, path string) (certificate.Table, error)
}

// Catalog records runs and their base stations.
type Catalog interface {
	StoreRun(run *sqlite.RunRecord) error
	StoreStations(runID, operator string, list []stations.BaseStation) error
}

// Deps are the collaborators of a Pipeline. Catalog may be nil.
type Deps struct {
	Sites      SiteSource
	Features   FeatureSource
	NewFetcher func(op config.OperatorConfig) Fetcher
	Extractor  TableExtractor
	Catalog    Catalog
}

// DefaultDeps wires the network clients, the certificate cache and the PDF reader from cfg.
func DefaultDeps(cfg *config.Config, catalog Catalog, log *logger.Logger) Deps {
	var sites SiteSource
	if cfg.Registry.SitesFile != "" {
		sites = &fileSites{path: cfg.Registry.SitesFile}
	} else {
		sites = registry.NewClient(cfg.Registry.URL, cfg.Registry.Language,
			config.Seconds(cfg.Registry.RequestTimeoutSeconds), log)
	}

	return Deps{
		Sites: sites,
		Features: wfs.NewSource(cfg.WFS.URL, cfg.WFSCachePath(),
			config.Seconds(cfg.WFS.RequestTimeoutSeconds), log),
		NewFetcher: func(op config.OperatorConfig) Fetcher {
			return attest.NewDownloader(attest.Options{
				Dir:        cfg.AttestDir(op.Short),
				Delay:      cfg.AttestDelay(),
				Timeout:    config.Seconds(cfg.Attest.RequestTimeoutSeconds),
				MaxRetries: cfg.Attest.MaxRetries,
			}, log)
		},
		Extractor: certificate.NewExtractor(pdfgrid.NewSource(pdfgrid.DefaultSettings(), log), cfg.Attest.Pages, log),
		Catalog:   catalog,
	}
}

// fileSites reads a saved registry response instead of querying the registry.
type fileSites struct {
	path string
}

func (f *fileSites) FetchOperational(ctx context.Context, bbox geo.BBox) ([]registry.Site, error) {
	sites, err := registry.LoadFile(f.path)
	if err != nil {
		return nil, err
	}

	var inside []registry.Site
	for _, s := range registry.Operational(sites) {
		if bbox.Contains(s.Point()) {
			inside = append(inside, s)
		}
	}
	return inside, nil
}
