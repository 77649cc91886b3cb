package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/yegors/zendmap/internal/attest"
	"github.com/yegors/zendmap/internal/certificate"
	"github.com/yegors/zendmap/internal/config"
	"github.com/yegors/zendmap/internal/export"
	"github.com/yegors/zendmap/internal/geo"
	"github.com/yegors/zendmap/internal/matcher"
	"github.com/yegors/zendmap/internal/registry"
	"github.com/yegors/zendmap/internal/stations"
	"github.com/yegors/zendmap/internal/storage/sqlite"
	"github.com/yegors/zendmap/internal/wfs"
	"github.com/yegors/zendmap/pkg/logger"
)

// Pipeline turns registry sites into per-operator base station files.
type Pipeline struct {
	cfg     *config.Config
	deps    Deps
	matcher *matcher.Matcher
	logger  *logger.Logger
}

// New creates a pipeline
func New(cfg *config.Config, deps Deps, log *logger.Logger) *Pipeline {
	return &Pipeline{
		cfg:     cfg,
		deps:    deps,
		matcher: matcher.NewMatcher(cfg.Matching.RadiusMeters, log),
		logger:  log.Named("pipeline"),
	}
}

// Run processes every configured operator inside bbox and writes the results to outDir.
// Per-site failures are counted in the report; only failures that affect a whole run or a
// whole operator are returned.
func (p *Pipeline) Run(ctx context.Context, bbox geo.BBox, outDir string) (*Report, error) {
	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		BBox:      bbox.String(),
	}
	p.logger.Info("Starting run",
		logger.String("run_id", report.RunID),
		logger.String("bbox", report.BBox),
		logger.String("output", outDir))

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	sites, err := p.deps.Sites.FetchOperational(ctx, bbox)
	if err != nil {
		return nil, fmt.Errorf("failed to load registry sites: %w", err)
	}
	report.Statistics = registry.ComputeStatistics(sites, p.owners())
	p.logStatistics(report.Statistics)

	features, err := p.deps.Features.Features(ctx, bbox)
	if err != nil {
		return nil, fmt.Errorf("failed to load antenna features: %w", err)
	}

	results := make(map[string][]stations.BaseStation, len(p.cfg.Operators))
	sheets := make([]export.Sheet, 0, len(p.cfg.Operators))
	for _, op := range p.cfg.Operators {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		list, summary, err := p.runOperator(ctx, op, sites, features, outDir)
		if err != nil {
			return nil, fmt.Errorf("operator %s: %w", op.Short, err)
		}
		results[op.Short] = list
		report.Operators = append(report.Operators, summary)
		sheets = append(sheets, export.Sheet{Name: op.Short, Rows: export.Rows(op.Short, list)})
	}

	if err := export.WriteWorkbook(filepath.Join(outDir, "basestations.xlsx"), sheets); err != nil {
		return nil, err
	}

	report.FinishedAt = time.Now()
	if err := p.store(report, results); err != nil {
		return nil, err
	}

	p.logger.Info("Run finished",
		logger.String("run_id", report.RunID),
		logger.Int("emitted", report.Emitted()),
		logger.Duration("duration", report.FinishedAt.Sub(report.StartedAt)))
	return report, nil
}

func (p *Pipeline) runOperator(ctx context.Context, op config.OperatorConfig, sites []registry.Site, features []wfs.Feature, outDir string) ([]stations.BaseStation, Summary, error) {
	log := p.logger.With(logger.String("operator", op.Short))
	summary := Summary{Operator: op.Short}

	opFeatures := wfs.ByOperator(features, op.FeatureName)
	summary.Features = len(opFeatures)
	if err := wfs.WriteGeoJSON(filepath.Join(outDir, "antennes_"+op.Short+".geojson"), opFeatures); err != nil {
		return nil, summary, err
	}

	opSites := registry.OwnedBy(sites, op.OwnerMatch)
	summary.Sites = len(opSites)

	matches, skipped := p.matcher.MatchAll(opSites, opFeatures)
	summary.Matched = len(matches)
	summary.Skipped = len(skipped)

	distances := make([]float64, len(matches))
	matched := make([]wfs.Feature, len(matches))
	for i, m := range matches {
		matched[i] = m.Feature
		distances[i] = m.Distance
	}
	summary.distanceStats(distances)

	fetched := p.deps.NewFetcher(op).FetchAll(ctx, matched, p.cfg.App.Workers)
	tables := p.extractAll(ctx, fetched)

	list := []stations.BaseStation{}
	for i, m := range matches {
		siteLog := log.WithSite(m.BIPTID()).WithDossier(m.Feature.Dossier)

		if err := fetched[i].Err; err != nil {
			summary.Failed++
			var missing *attest.MissingAttestError
			if errors.As(err, &missing) {
				siteLog.Error("Site has no conformity certificate", logger.String("feature", missing.FeatureID))
			} else {
				siteLog.Error("Failed to fetch certificate", logger.Error(err))
			}
			continue
		}
		if err := tables[i].err; err != nil {
			summary.Failed++
			var unsupported *certificate.UnsupportedTemplateError
			if errors.As(err, &unsupported) {
				siteLog.Error("Unsupported certificate layout",
					logger.String("path", fetched[i].Path),
					logger.Int("rows", unsupported.Rows),
					logger.Int("cols", unsupported.Cols),
					logger.Error(err))
			} else {
				siteLog.Error("Failed to read certificate", logger.String("path", fetched[i].Path), logger.Error(err))
			}
			continue
		}

		station, ok := stations.Build(m, tables[i].table, p.cfg.Band)
		if !ok {
			summary.NoSectors++
			siteLog.Info("No relevant sectors", logger.Int("sectors", len(tables[i].table)))
			continue
		}
		list = append(list, station)
	}
	summary.Emitted = len(list)

	jsonPath := filepath.Join(outDir, "basestations_"+op.Short+".json")
	p.compareWithPrevious(log, jsonPath, list, &summary)

	if err := stations.WriteJSON(jsonPath, list); err != nil {
		return nil, summary, err
	}
	if err := export.WriteCSV(filepath.Join(outDir, "basestations_"+op.Short+".csv"), export.Rows(op.Short, list)); err != nil {
		return nil, summary, err
	}

	log.Info("Operator done",
		logger.Int("sites", summary.Sites),
		logger.Int("features", summary.Features),
		logger.Int("matched", summary.Matched),
		logger.Int("skipped", summary.Skipped),
		logger.Int("failed", summary.Failed),
		logger.Int("no_sectors", summary.NoSectors),
		logger.Int("emitted", summary.Emitted),
		logger.Int("added", summary.Added),
		logger.Int("updated", summary.Updated),
		logger.Int("removed", summary.Removed),
		logger.Float64("median_distance_m", summary.MedianDistance),
		logger.Float64("max_distance_m", summary.MaxDistance))
	return list, summary, nil
}

// compareWithPrevious counts the differences with the file a previous run left in outDir
func (p *Pipeline) compareWithPrevious(log *logger.Logger, path string, list []stations.BaseStation, summary *Summary) {
	previous, err := stations.ReadJSON(path)
	if err != nil {
		log.Warn("Ignoring previous output", logger.Error(err))
	}

	for _, c := range stations.DetectChanges(previous, list) {
		switch c.Type {
		case stations.Added:
			summary.Added++
		case stations.Updated:
			summary.Updated++
		case stations.Removed:
			summary.Removed++
		}
		log.WithSite(c.BIPTID).Debug("Station changed since previous run", logger.String("change", string(c.Type)))
	}
}

type extraction struct {
	table certificate.Table
	err   error
}

// extractAll reads the tables of every fetched document; slots whose fetch failed stay empty.
func (p *Pipeline) extractAll(ctx context.Context, fetched []attest.Result) []extraction {
	out := make([]extraction, len(fetched))
	attest.ForEach(ctx, len(fetched), p.cfg.App.Workers, func(ctx context.Context, i int) {
		if fetched[i].Err != nil {
			return
		}
		table, err := p.deps.Extractor.Extract(ctx, fetched[i].Path)
		out[i] = extraction{table: table, err: err}
	})

	for i := range out {
		if fetched[i].Err == nil && out[i].table == nil && out[i].err == nil {
			out[i].err = ctx.Err()
			if out[i].err == nil {
				out[i].table = certificate.Table{}
			}
		}
	}
	return out
}

func (p *Pipeline) store(report *Report, results map[string][]stations.BaseStation) error {
	if p.deps.Catalog == nil {
		return nil
	}

	summary, err := json.Marshal(report.Operators)
	if err != nil {
		return fmt.Errorf("failed to encode run summary: %w", err)
	}
	if err := p.deps.Catalog.StoreRun(&sqlite.RunRecord{
		ID:         report.RunID,
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		BBox:       report.BBox,
		Summary:    summary,
	}); err != nil {
		return err
	}

	for _, op := range p.cfg.Operators {
		if err := p.deps.Catalog.StoreStations(report.RunID, op.Short, results[op.Short]); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) owners() []registry.Owner {
	owners := make([]registry.Owner, len(p.cfg.Operators))
	for i, op := range p.cfg.Operators {
		owners[i] = registry.Owner{Short: op.Short, Match: op.OwnerMatch}
	}
	return owners
}

func (p *Pipeline) logStatistics(s registry.Statistics) {
	p.logger.Info("Registry sites loaded",
		logger.Int("total", s.Total),
		logger.Int("all_operators", s.AllOperators),
		logger.Int("colocated", s.Colocated))
	for _, op := range p.cfg.Operators {
		st := s.Operators[op.Short]
		p.logger.Info("Operator sites",
			logger.String("operator", op.Short),
			logger.Int("sites", st.Sites),
			logger.Any("shared_with", st.SharedWith))
	}
}
