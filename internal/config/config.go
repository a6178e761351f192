// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for the results database and snapshots
	Port     int
	LogLevel string
	DevMode  bool

	// Returns data source. When DataPath is empty the synthetic source is
	// used, which keeps the server usable without any market data on disk.
	DataPath    string // CSV file with period labels + per-asset return ratios
	LabelColumn string // Name of the period-label column in the CSV

	// Default sweep parameters, overridable per request.
	MuMin     float64
	MuMax     float64
	MuPoints  int
	MuSpacing string // "log" or "linear"
	Workers   int    // Parallel solves per sweep; 0 = sequential

	// Cron expression for the periodic refresh job. Empty disables it.
	RefreshSchedule string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("MADFOLIO_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	// Always resolve to absolute path
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	// Ensure directory exists
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:         absDataDir,
		Port:            getEnvAsInt("MADFOLIO_PORT", 8010),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		DevMode:         getEnvAsBool("DEV_MODE", false),
		DataPath:        getEnv("MADFOLIO_DATA_PATH", ""),
		LabelColumn:     getEnv("MADFOLIO_LABEL_COLUMN", "Year-Month"),
		MuMin:           getEnvAsFloat("MADFOLIO_MU_MIN", 0.1),
		MuMax:           getEnvAsFloat("MADFOLIO_MU_MAX", 31.622776601683793), // 10^1.5
		MuPoints:        getEnvAsInt("MADFOLIO_MU_POINTS", 100),
		MuSpacing:       getEnv("MADFOLIO_MU_SPACING", "log"),
		Workers:         getEnvAsInt("MADFOLIO_WORKERS", 4),
		RefreshSchedule: getEnv("MADFOLIO_REFRESH_SCHEDULE", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present and coherent
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.MuSpacing != "log" && c.MuSpacing != "linear" {
		return fmt.Errorf("invalid mu spacing %q (expected log or linear)", c.MuSpacing)
	}
	if c.MuPoints < 1 {
		return fmt.Errorf("mu points must be >= 1, got %d", c.MuPoints)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	return nil
}

// DatabasePath returns the path of the results database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "madfolio.db")
}

// SnapshotPath returns the path of the latest-frontier snapshot file.
func (c *Config) SnapshotPath() string {
	return filepath.Join(c.DataDir, "frontier.snapshot")
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
