package wfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/paulmach/orb/geojson"

	"github.com/yegors/zendmap/internal/geo"
	"github.com/yegors/zendmap/pkg/logger"
)

// Source provides the antenna layer. The full layer is downloaded once and kept on disk;
// later runs read the cached copy.
type Source struct {
	httpClient *http.Client
	url        string
	cachePath  string
	logger     *logger.Logger
}

// NewSource creates a new feature source
func NewSource(url, cachePath string, timeout time.Duration, logger *logger.Logger) *Source {
	return &Source{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		url:       url,
		cachePath: cachePath,
		logger:    logger.Named("wfs-source"),
	}
}

// Features returns the installations inside bbox.
func (s *Source) Features(ctx context.Context, bbox geo.BBox) ([]Feature, error) {
	data, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	features, err := Parse(data)
	if err != nil {
		return nil, err
	}

	clipped := Clip(features, bbox)
	s.logger.Info("Loaded antenna features",
		logger.Int("total", len(features)),
		logger.Int("in_bbox", len(clipped)),
		logger.String("bbox", bbox.String()))
	return clipped, nil
}

func (s *Source) load(ctx context.Context) ([]byte, error) {
	info, err := os.Stat(s.cachePath)
	switch {
	case err == nil:
		s.logger.Info("Using cached antenna layer",
			logger.String("path", s.cachePath),
			logger.Time("last_updated", info.ModTime()))
		data, err := os.ReadFile(s.cachePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read antenna layer: %w", err)
		}
		return data, nil
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("failed to stat antenna layer: %w", err)
	}

	s.logger.Info("Antenna layer not cached, downloading",
		logger.String("path", s.cachePath),
		logger.String("url", s.url))

	data, err := s.download(ctx)
	if err != nil {
		return nil, err
	}
	if err := writeAtomic(s.cachePath, data); err != nil {
		return nil, err
	}
	return data, nil
}

func (s *Source) download(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	// validate before caching, the server answers errors as XML with status 200
	if _, err := geojson.UnmarshalFeatureCollection(body); err != nil {
		return nil, fmt.Errorf("antenna layer is not GeoJSON: %w", err)
	}
	return body, nil
}

// Parse decodes a feature collection. Features without a point geometry are skipped.
func Parse(data []byte) ([]Feature, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse antenna layer: %w", err)
	}

	features := make([]Feature, 0, len(fc.Features))
	for _, gf := range fc.Features {
		if f, ok := fromGeoJSON(gf); ok {
			features = append(features, f)
		}
	}
	return features, nil
}

// Clip keeps the features inside bbox.
func Clip(features []Feature, bbox geo.BBox) []Feature {
	var out []Feature
	for _, f := range features {
		if bbox.Contains(f.Location) {
			out = append(out, f)
		}
	}
	return out
}

// ByOperator keeps the features whose operator name equals name exactly.
func ByOperator(features []Feature, name string) []Feature {
	var out []Feature
	for _, f := range features {
		if f.Operator == name {
			out = append(out, f)
		}
	}
	return out
}

// WriteGeoJSON writes the features as a feature collection.
func WriteGeoJSON(path string, features []Feature) error {
	fc := geojson.NewFeatureCollection()
	for _, f := range features {
		fc.Append(f.GeoJSON())
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to encode features: %w", err)
	}
	return writeAtomic(path, data)
}

func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}
	return nil
}
