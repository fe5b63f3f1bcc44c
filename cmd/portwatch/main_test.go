package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/aristath/portwatch/internal/domain"
	"github.com/aristath/portwatch/internal/modules/imports"
	"github.com/google/subcommands"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const schwabExport = `"Positions for account Individual ...123 as of 09:15 AM ET, 2024/01/15"

"Symbol","Description","Qty (Quantity)","Cost Basis"
"AAPL","APPLE INC","10","$1,200.00"
"MSFT","MICROSOFT CORP","5","$1,500.00"
"Account Total","--","--","$2,700.00"
`

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("PORTWATCH_DATA_DIR", dir)
	t.Setenv("LOG_LEVEL", "error")
	return dir
}

func run(t *testing.T, cmd subcommands.Command, args ...string) (subcommands.ExitStatus, []byte) {
	t.Helper()
	var buf bytes.Buffer
	stdout = &buf
	t.Cleanup(func() { stdout = os.Stdout })

	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	cmd.SetFlags(fs)
	require.NoError(t, fs.Parse(args))
	return cmd.Execute(context.Background(), fs), buf.Bytes()
}

func TestImportSchwab(t *testing.T) {
	dir := setupEnv(t)
	file := filepath.Join(dir, "schwab.csv")
	require.NoError(t, os.WriteFile(file, []byte(schwabExport), 0o644))

	status, out := run(t, &importSchwabCmd{}, file)
	require.Equal(t, subcommands.ExitSuccess, status)

	var result imports.Result
	require.NoError(t, json.Unmarshal(out, &result))
	assert.True(t, result.Success)
	require.NotNil(t, result.Positions)
	assert.Equal(t, 2, result.Positions.Added)
}

func TestImportSchwab_Usage(t *testing.T) {
	setupEnv(t)
	status, _ := run(t, &importSchwabCmd{})
	assert.Equal(t, subcommands.ExitUsageError, status)
}

func TestImportMotleyFool_RequiresWatchlist(t *testing.T) {
	setupEnv(t)
	status, _ := run(t, &importMotleyFoolCmd{}, "scorecard.csv")
	assert.Equal(t, subcommands.ExitUsageError, status)
}

func TestWatchlistsCreateAndList(t *testing.T) {
	setupEnv(t)

	status, out := run(t, &watchlistsCmd{}, "-create", "Stock Advisor", "-source", "motley_fool", "-allocation", "10000")
	require.Equal(t, subcommands.ExitSuccess, status)
	var created domain.Watchlist
	require.NoError(t, json.Unmarshal(out, &created))
	assert.Equal(t, "Stock Advisor", created.Name)

	status, out = run(t, &watchlistsCmd{})
	require.Equal(t, subcommands.ExitSuccess, status)
	var list []domain.Watchlist
	require.NoError(t, json.Unmarshal(out, &list))
	assert.Len(t, list, 1)

	status, _ = run(t, &watchlistsCmd{}, "-create", "Bad", "-source", "zacks")
	assert.Equal(t, subcommands.ExitFailure, status)
}

func TestAttention_Empty(t *testing.T) {
	setupEnv(t)
	status, out := run(t, &attentionCmd{})
	require.Equal(t, subcommands.ExitSuccess, status)
	assert.JSONEq(t, `{"dropped_links":[],"off_target":[]}`, string(out))
}

func TestRunJob(t *testing.T) {
	setupEnv(t)

	status, out := run(t, &runJobCmd{}, "orphan_symbol_cleanup")
	require.Equal(t, subcommands.ExitSuccess, status)
	assert.Contains(t, string(out), `"status": "success"`)

	status, _ = run(t, &runJobCmd{}, "nope")
	assert.Equal(t, subcommands.ExitFailure, status)
}

func TestCleanupAndBackup(t *testing.T) {
	dir := setupEnv(t)

	status, out := run(t, &cleanupCmd{})
	require.Equal(t, subcommands.ExitSuccess, status)
	assert.JSONEq(t, `{"orphan_symbols":[],"expired_quotes":0}`, string(out))

	status, out = run(t, &backupCmd{})
	require.Equal(t, subcommands.ExitSuccess, status)
	assert.Contains(t, string(out), "portwatch-backup-")

	entries, err := os.ReadDir(filepath.Join(dir, "backups"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
