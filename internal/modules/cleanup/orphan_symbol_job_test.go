package cleanup

import (
	"errors"
	"testing"

	"github.com/aristath/portwatch/internal/modules/universe"
	testingpkg "github.com/aristath/portwatch/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrphanSymbolJob(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t)
	defer cleanup()
	conn := db.Conn()

	accountID := testingpkg.SeedAccount(t, conn, "Individual")
	testingpkg.SeedSymbol(t, conn, "AAPL", "Apple Inc.")
	testingpkg.SeedPosition(t, conn, accountID, "AAPL", 10)

	watchlistID := testingpkg.SeedWatchlist(t, conn, "Quant Picks", "seeking_alpha", 0)
	testingpkg.SeedSymbol(t, conn, "MSFT", "Microsoft")
	testingpkg.SeedMember(t, conn, watchlistID, "MSFT")

	testingpkg.SeedSymbol(t, conn, "GONE", "Delisted Corp")
	testingpkg.SeedSymbol(t, conn, "ZZZ", "")

	job := NewOrphanSymbolJob(universe.NewSymbolRepository(conn, zerolog.Nop()), zerolog.Nop())
	assert.Equal(t, "orphan_symbol_cleanup", job.Name())

	removed, err := job.Cleanup()
	require.NoError(t, err)
	assert.Equal(t, []string{"GONE", "ZZZ"}, removed)
	assert.Equal(t, 2, testingpkg.CountRows(t, conn, "symbols"))

	require.NoError(t, job.Run(), "second run finds nothing")
}

type failingStore struct{}

func (failingStore) ListOrphans() ([]string, error) { return nil, errors.New("disk I/O error") }
func (failingStore) DeleteOrphans() (int64, error)  { return 0, nil }

func TestOrphanSymbolJob_Error(t *testing.T) {
	job := NewOrphanSymbolJob(failingStore{}, zerolog.Nop())
	assert.ErrorContains(t, job.Run(), "disk I/O error")
}
