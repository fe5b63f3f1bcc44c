package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PORTWATCH_DATA_DIR", dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, 8001, cfg.Port)
	assert.Equal(t, 10.0, cfg.AllocationBandPct)
	assert.Equal(t, 60, cfg.Quotes.RateLimit)
	assert.Equal(t, 15*time.Minute, cfg.Quotes.CacheTTL)
	assert.Equal(t, filepath.Join(dir, "backups"), cfg.Backup.Dir)
	assert.False(t, cfg.Backup.UploadEnabled())
	assert.Equal(t, filepath.Join(dir, "portwatch.db"), cfg.DatabasePath())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORTWATCH_DATA_DIR", t.TempDir())
	t.Setenv("GO_PORT", "9090")
	t.Setenv("ALLOCATION_BAND_PCT", "5.5")
	t.Setenv("QUOTE_CACHE_TTL_MINUTES", "2")
	t.Setenv("BACKUP_BUCKET", "snapshots")
	t.Setenv("DEV_MODE", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 5.5, cfg.AllocationBandPct)
	assert.Equal(t, 2*time.Minute, cfg.Quotes.CacheTTL)
	assert.True(t, cfg.Backup.UploadEnabled())
	assert.True(t, cfg.DevMode)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Port:              8001,
			AllocationBandPct: 10,
			Quotes:            QuoteConfig{RateLimit: 60, CacheTTL: time.Minute},
			CleanupSchedule:   "30 3 * * *",
			BackupSchedule:    "@daily",
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"port", func(c *Config) { c.Port = 0 }, "GO_PORT"},
		{"band", func(c *Config) { c.AllocationBandPct = 150 }, "ALLOCATION_BAND_PCT"},
		{"rate limit", func(c *Config) { c.Quotes.RateLimit = 0 }, "QUOTE_RATE_LIMIT"},
		{"ttl", func(c *Config) { c.Quotes.CacheTTL = 0 }, "QUOTE_CACHE_TTL_MINUTES"},
		{"retention", func(c *Config) { c.Backup.Retention = -1 }, "BACKUP_RETENTION"},
		{"half keys", func(c *Config) { c.Backup.AccessKeyID = "AKIA" }, "must be set together"},
		{"schedule", func(c *Config) { c.BackupSchedule = "nightly" }, "BACKUP_SCHEDULE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}
