package di

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/aristath/portwatch/internal/config"
	"github.com/aristath/portwatch/internal/scheduler"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		DataDir:           dir,
		Port:              8001,
		AllocationBandPct: 10,
		Quotes:            config.QuoteConfig{RateLimit: 60, CacheTTL: time.Minute},
		Backup:            config.BackupConfig{Dir: filepath.Join(dir, "backups"), Retention: 2},
		CleanupSchedule:   "30 3 * * *",
		BackupSchedule:    "0 3 * * *",
	}
}

func TestWire(t *testing.T) {
	cfg := testConfig(t)

	container, jobs, err := Wire(cfg, scheduler.New(zerolog.Nop()), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { container.Close() })

	assert.NotNil(t, container.DB)
	assert.NotNil(t, container.ImportService)
	assert.NotNil(t, container.SummaryService)
	assert.NotNil(t, container.LinkManager)
	assert.NotNil(t, container.TransactionRepo)
	assert.NotNil(t, container.QuoteClient)
	assert.NotNil(t, container.BackupService)

	assert.Equal(t, "orphan_symbol_cleanup", jobs.OrphanCleanup.Name())
	assert.Equal(t, "database_backup", jobs.Backup.Name())

	version, err := container.DB.SchemaVersion()
	require.NoError(t, err)
	assert.Positive(t, version)
	assert.Equal(t, cfg.DatabasePath(), container.DB.Path())
}

func TestWire_InvalidSchedule(t *testing.T) {
	cfg := testConfig(t)
	cfg.BackupSchedule = "whenever"

	_, _, err := Wire(cfg, scheduler.New(zerolog.Nop()), zerolog.Nop())
	assert.ErrorContains(t, err, "failed to register database_backup")
}

func TestWire_WithoutScheduler(t *testing.T) {
	container, jobs, err := Wire(testConfig(t), nil, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { container.Close() })
	require.NoError(t, jobs.OrphanCleanup.Run())
}
