package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/yegors/zendmap/internal/geo"
	"github.com/yegors/zendmap/internal/registry"
	"github.com/yegors/zendmap/internal/stations"
	"github.com/yegors/zendmap/internal/wfs"
)

// Config is the complete application configuration
type Config struct {
	App       AppConfig        `toml:"app"`
	Logging   LoggingConfig    `toml:"logging"`
	Registry  RegistryConfig   `toml:"registry"`
	WFS       WFSConfig        `toml:"wfs"`
	Attest    AttestConfig     `toml:"attest"`
	Matching  MatchingConfig   `toml:"matching"`
	Band      stations.Band    `toml:"band"`
	Storage   StorageConfig    `toml:"storage"`
	Server    ServerConfig     `toml:"server"`
	Operators []OperatorConfig `toml:"operators"`
}

// AppConfig holds the run-wide settings
type AppConfig struct {
	DataDir   string   `toml:"data_dir"`
	OutputDir string   `toml:"output_dir"`
	BBox      geo.BBox `toml:"bbox"`
	Workers   int      `toml:"workers"` // 0 means one per CPU
}

// LoggingConfig configures pkg/logger
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// RegistryConfig configures the site registry client
type RegistryConfig struct {
	URL                   string `toml:"url"`
	Language              string `toml:"language"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
	SitesFile             string `toml:"sites_file"` // read sites from disk instead of querying
}

// WFSConfig configures the antenna layer source
type WFSConfig struct {
	URL                   string `toml:"url"`
	CacheFile             string `toml:"cache_file"` // defaults to <data_dir>/zendantennes.geojson
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// AttestConfig configures certificate download and extraction
type AttestConfig struct {
	DelayMillis           int   `toml:"delay_ms"`
	RequestTimeoutSeconds int   `toml:"request_timeout_seconds"`
	MaxRetries            int   `toml:"max_retries"`
	Pages                 []int `toml:"pages"`
}

// MatchingConfig configures the site to permit matching
type MatchingConfig struct {
	RadiusMeters float64 `toml:"radius_m"`
}

// StorageConfig configures the station catalog
type StorageConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// ServerConfig configures the catalog API
type ServerConfig struct {
	Host        string   `toml:"host"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// OperatorConfig describes one mobile operator
type OperatorConfig struct {
	Name        string `toml:"name" json:"name"`
	Short       string `toml:"short" json:"short"`
	OwnerMatch  string `toml:"owner_match" json:"owner_match"`   // substring of the registry owner fields
	FeatureName string `toml:"feature_name" json:"feature_name"` // exact operatornaam on the antenna layer
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		App: AppConfig{
			DataDir:   "./data",
			OutputDir: "./gent",
			BBox:      geo.DefaultBBox,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Registry: RegistryConfig{
			URL:                   registry.DefaultURL,
			Language:              "sitesnl",
			RequestTimeoutSeconds: 60,
		},
		WFS: WFSConfig{
			URL:                   wfs.DefaultURL,
			RequestTimeoutSeconds: 300,
		},
		Attest: AttestConfig{
			DelayMillis:           1000,
			RequestTimeoutSeconds: 60,
			MaxRetries:            3,
			Pages:                 []int{2, 3},
		},
		Matching: MatchingConfig{
			RadiusMeters: 55,
		},
		Band: stations.DefaultBand,
		Storage: StorageConfig{
			Enabled: true,
			Path:    "./data/zendmap.db",
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Operators: []OperatorConfig{
			{Name: "Proximus", Short: "pxs", OwnerMatch: "Proximus", FeatureName: "Proximus NV"},
			{Name: "Telenet", Short: "tnt", OwnerMatch: "Telenet", FeatureName: "Telenet Group BVBA"},
			{Name: "Orange", Short: "org", OwnerMatch: "Orange", FeatureName: "Orange Belgium NV"},
		},
	}
}

// Load builds the configuration: defaults, then the TOML file at path (a missing file is
// not an error), then .env and ZENDMAP_* environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	defaultOperators := cfg.Operators
	cfg.Operators = nil

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load config %s: %w", path, err)
		}
	}
	if len(cfg.Operators) == 0 {
		cfg.Operators = defaultOperators
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the settings the pipeline cannot run without.
func (c *Config) Validate() error {
	if c.App.DataDir == "" {
		return errors.New("app.data_dir is required")
	}
	if c.App.OutputDir == "" {
		return errors.New("app.output_dir is required")
	}
	if err := c.App.BBox.Validate(); err != nil {
		return err
	}
	if c.Matching.RadiusMeters <= 0 {
		return errors.New("matching.radius_m must be positive")
	}
	if c.Band.ToleranceMHz < 0 {
		return errors.New("band.tolerance_mhz must not be negative")
	}
	if c.Storage.Enabled && c.Storage.Path == "" {
		return errors.New("storage.path is required when storage is enabled")
	}

	seen := make(map[string]bool)
	for i, op := range c.Operators {
		if op.Short == "" || op.OwnerMatch == "" || op.FeatureName == "" {
			return fmt.Errorf("operators[%d]: short, owner_match and feature_name are required", i)
		}
		if seen[op.Short] {
			return fmt.Errorf("operators[%d]: duplicate short name %q", i, op.Short)
		}
		seen[op.Short] = true
	}
	return nil
}

// WFSCachePath is where the antenna layer is kept between runs.
func (c *Config) WFSCachePath() string {
	if c.WFS.CacheFile != "" {
		return c.WFS.CacheFile
	}
	return filepath.Join(c.App.DataDir, "zendantennes.geojson")
}

// AttestDir is the certificate cache of one operator.
func (c *Config) AttestDir(short string) string {
	return filepath.Join(c.App.DataDir, "attesten_"+short)
}

// AttestDelay is the pause after each certificate download.
func (c *Config) AttestDelay() time.Duration {
	return time.Duration(c.Attest.DelayMillis) * time.Millisecond
}

// Seconds converts a *_timeout_seconds setting.
func Seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
