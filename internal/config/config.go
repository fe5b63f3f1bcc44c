// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config holds application configuration
type Config struct {
	DataDir           string // Base directory for the database and backups (always absolute)
	Port              int
	LogLevel          string
	DevMode           bool
	AllocationBandPct float64 // Tolerance around the equal-weight target, in percent
	Quotes            QuoteConfig
	Backup            BackupConfig
	CleanupSchedule   string
	BackupSchedule    string
}

// QuoteConfig holds the live quote collaborator settings
type QuoteConfig struct {
	APIKey    string
	BaseURL   string
	RateLimit int // Requests per minute
	CacheTTL  time.Duration
}

// BackupConfig holds snapshot and upload settings.
// Upload is enabled when Bucket is set.
type BackupConfig struct {
	Dir             string
	Retention       int
	Bucket          string
	Prefix          string
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// UploadEnabled reports whether snapshots are shipped to object storage
func (b BackupConfig) UploadEnabled() bool {
	return b.Bucket != ""
}

// DatabasePath returns the location of the main database file
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "portwatch.db")
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("PORTWATCH_DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:           absDataDir,
		Port:              getEnvAsInt("GO_PORT", 8001),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		DevMode:           getEnvAsBool("DEV_MODE", false),
		AllocationBandPct: getEnvAsFloat("ALLOCATION_BAND_PCT", 10),
		Quotes: QuoteConfig{
			APIKey:    getEnv("QUOTE_API_KEY", ""),
			BaseURL:   getEnv("QUOTE_API_URL", "https://finnhub.io/api/v1"),
			RateLimit: getEnvAsInt("QUOTE_RATE_LIMIT", 60),
			CacheTTL:  time.Duration(getEnvAsInt("QUOTE_CACHE_TTL_MINUTES", 15)) * time.Minute,
		},
		Backup: BackupConfig{
			Dir:             getEnv("BACKUP_DIR", filepath.Join(absDataDir, "backups")),
			Retention:       getEnvAsInt("BACKUP_RETENTION", 7),
			Bucket:          getEnv("BACKUP_BUCKET", ""),
			Prefix:          getEnv("BACKUP_PREFIX", "portwatch"),
			Endpoint:        getEnv("BACKUP_ENDPOINT", ""),
			Region:          getEnv("BACKUP_REGION", ""),
			AccessKeyID:     getEnv("BACKUP_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("BACKUP_SECRET_ACCESS_KEY", ""),
		},
		CleanupSchedule: getEnv("CLEANUP_SCHEDULE", "30 3 * * *"),
		BackupSchedule:  getEnv("BACKUP_SCHEDULE", "0 3 * * *"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects values the services cannot work with
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("GO_PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.AllocationBandPct <= 0 || c.AllocationBandPct >= 100 {
		return fmt.Errorf("ALLOCATION_BAND_PCT must be in (0, 100), got %g", c.AllocationBandPct)
	}
	if c.Quotes.RateLimit <= 0 {
		return fmt.Errorf("QUOTE_RATE_LIMIT must be positive, got %d", c.Quotes.RateLimit)
	}
	if c.Quotes.CacheTTL <= 0 {
		return fmt.Errorf("QUOTE_CACHE_TTL_MINUTES must be positive")
	}
	if c.Backup.Retention < 0 {
		return fmt.Errorf("BACKUP_RETENTION must not be negative, got %d", c.Backup.Retention)
	}
	if (c.Backup.AccessKeyID == "") != (c.Backup.SecretAccessKey == "") {
		return fmt.Errorf("BACKUP_ACCESS_KEY_ID and BACKUP_SECRET_ACCESS_KEY must be set together")
	}
	for name, spec := range map[string]string{
		"CLEANUP_SCHEDULE": c.CleanupSchedule,
		"BACKUP_SCHEDULE":  c.BackupSchedule,
	} {
		if spec == "" {
			continue
		}
		if _, err := cron.ParseStandard(spec); err != nil {
			return fmt.Errorf("%s is not a valid cron schedule: %w", name, err)
		}
	}
	return nil
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
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
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
