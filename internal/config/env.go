package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/yegors/zendmap/internal/geo"
)

const envPrefix = "ZENDMAP_"

func applyEnv(cfg *Config) error {
	cfg.App.DataDir = getEnvOrDefault("DATA_DIR", cfg.App.DataDir)
	cfg.App.OutputDir = getEnvOrDefault("OUTPUT_DIR", cfg.App.OutputDir)
	cfg.App.Workers = getEnvIntOrDefault("WORKERS", cfg.App.Workers)

	if value := os.Getenv(envPrefix + "BBOX"); value != "" {
		bbox, err := geo.ParseBBox(value)
		if err != nil {
			return fmt.Errorf("%sBBOX: %w", envPrefix, err)
		}
		cfg.App.BBox = bbox
	}

	cfg.Logging.Level = getEnvOrDefault("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = getEnvOrDefault("LOG_FORMAT", cfg.Logging.Format)

	cfg.Registry.URL = getEnvOrDefault("REGISTRY_URL", cfg.Registry.URL)
	cfg.Registry.SitesFile = getEnvOrDefault("SITES_FILE", cfg.Registry.SitesFile)
	cfg.WFS.URL = getEnvOrDefault("WFS_URL", cfg.WFS.URL)

	cfg.Attest.DelayMillis = getEnvIntOrDefault("ATTEST_DELAY_MS", cfg.Attest.DelayMillis)
	cfg.Matching.RadiusMeters = getEnvFloatOrDefault("SEARCH_RADIUS_M", cfg.Matching.RadiusMeters)

	cfg.Storage.Enabled = getEnvBoolOrDefault("STORAGE_ENABLED", cfg.Storage.Enabled)
	cfg.Storage.Path = getEnvOrDefault("DB_PATH", cfg.Storage.Path)

	cfg.Server.Host = getEnvOrDefault("SERVER_HOST", cfg.Server.Host)
	cfg.Server.Port = getEnvIntOrDefault("SERVER_PORT", cfg.Server.Port)
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(envPrefix + key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(envPrefix + key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(envPrefix + key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(envPrefix + key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
