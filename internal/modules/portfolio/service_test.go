package portfolio

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/aristath/portwatch/internal/modules/links"
	"github.com/aristath/portwatch/internal/modules/universe"
	"github.com/aristath/portwatch/internal/modules/watchlists"
	testingpkg "github.com/aristath/portwatch/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSummaryService(t *testing.T, bandPct float64) (*SummaryService, *sql.DB, *testingpkg.MockQuoteProvider, func()) {
	db, cleanup := testingpkg.NewTestDB(t)
	conn := db.Conn()
	log := zerolog.Nop()
	quotes := testingpkg.NewMockQuoteProvider()
	service := NewSummaryService(
		NewPositionRepository(conn, log),
		universe.NewSymbolRepository(conn, log),
		watchlists.NewRepository(conn, log),
		watchlists.NewMemberRepository(conn, log),
		links.NewManager(conn, nil, log),
		quotes,
		bandPct,
		log,
	)
	return service, conn, quotes, cleanup
}

func TestSymbolTotals(t *testing.T) {
	service, conn, quotes, cleanup := newSummaryService(t, 0)
	defer cleanup()

	a1 := testingpkg.SeedAccount(t, conn, "Individual")
	a2 := testingpkg.SeedAccount(t, conn, "Roth IRA")
	testingpkg.SeedPosition(t, conn, a1, "AAPL", 10)
	testingpkg.SeedPosition(t, conn, a2, "AAPL", 5)
	testingpkg.SeedPosition(t, conn, a2, "MSFT", 2)
	testingpkg.SeedPosition(t, conn, a1, "INTC", 0)
	_, err := conn.Exec(`UPDATE positions SET cost_basis = 1000 WHERE account_id = ? AND symbol = 'AAPL'`, a1)
	require.NoError(t, err)
	_, err = conn.Exec(`UPDATE symbols SET company_name = 'Apple Inc.' WHERE symbol = 'AAPL'`)
	require.NoError(t, err)

	w := testingpkg.SeedWatchlist(t, conn, "Alpha Picks", "seeking_alpha", 0)
	testingpkg.SeedMember(t, conn, w, "AAPL")

	quotes.SetPrice("AAPL", 200)

	totals, err := service.SymbolTotals(context.Background())
	require.NoError(t, err)
	require.Len(t, totals, 2, "zero-share positions are ignored")

	aapl := totals[0]
	assert.Equal(t, "AAPL", aapl.Symbol)
	assert.Equal(t, "Apple Inc.", *aapl.CompanyName)
	assert.Equal(t, "15", aapl.TotalShares.String())
	assert.Equal(t, 2, aapl.AccountCount)
	require.NotNil(t, aapl.TotalCostBasis)
	assert.Equal(t, "1000", aapl.TotalCostBasis.String(), "sum of known cost bases")
	assert.Equal(t, []string{"Alpha Picks"}, aapl.Watchlists)
	require.NotNil(t, aapl.MarketValue)
	assert.Equal(t, "3000", aapl.MarketValue.String())

	msft := totals[1]
	assert.Nil(t, msft.TotalCostBasis)
	assert.Nil(t, msft.LivePrice, "quote failure means no live price")
	assert.Empty(t, msft.Watchlists)
}

func TestWatchlistAllocation_Statuses(t *testing.T) {
	service, conn, quotes, cleanup := newSummaryService(t, 10)
	defer cleanup()

	accountID := testingpkg.SeedAccount(t, conn, "Individual")
	w := testingpkg.SeedWatchlist(t, conn, "Alpha Picks", "seeking_alpha", 10000)
	for _, s := range []string{"AAPL", "MSFT", "NVDA", "AMD", "TSLA"} {
		testingpkg.SeedMember(t, conn, w, s)
	}
	// Target is 10000 / 5 = 2000 per member
	testingpkg.SeedPosition(t, conn, accountID, "AAPL", 10) // 10 * 200 = 2000, on target
	testingpkg.SeedPosition(t, conn, accountID, "MSFT", 5)  // 5 * 300 = 1500, -25%
	testingpkg.SeedPosition(t, conn, accountID, "NVDA", 3)  // 3 * 1000 = 3000, +50%
	testingpkg.SeedPosition(t, conn, accountID, "TSLA", 4)  // no quote
	quotes.SetPrice("AAPL", 200)
	quotes.SetPrice("MSFT", 300)
	quotes.SetPrice("NVDA", 1000)

	view, err := service.WatchlistAllocation(context.Background(), w)
	require.NoError(t, err)
	require.NotNil(t, view)
	assert.Equal(t, 5, view.ActiveMembers)
	assert.Equal(t, "2000", view.Target.String())

	statuses := make(map[string]string)
	for _, item := range view.Items {
		statuses[item.Symbol] = item.Status
	}
	assert.Equal(t, map[string]string{
		"AAPL": StatusOnTarget,
		"MSFT": StatusUnderweight,
		"NVDA": StatusOverweight,
		"AMD":  StatusNotHeld,
		"TSLA": StatusUnknown,
	}, statuses)

	require.NotNil(t, view.Dispersion)
	assert.Equal(t, 3, view.Dispersion.Count)
	assert.InDelta(t, 25.0/3, view.Dispersion.MeanVariancePct, 1e-9)
	assert.Greater(t, view.Dispersion.StdDevVariancePct, 0.0)
}

func TestWatchlistAllocation_BandIsConfigurable(t *testing.T) {
	service, conn, quotes, cleanup := newSummaryService(t, 30)
	defer cleanup()

	accountID := testingpkg.SeedAccount(t, conn, "Individual")
	w := testingpkg.SeedWatchlist(t, conn, "Alpha Picks", "seeking_alpha", 2000)
	testingpkg.SeedMember(t, conn, w, "MSFT")
	testingpkg.SeedPosition(t, conn, accountID, "MSFT", 5)
	quotes.SetPrice("MSFT", 300)

	view, err := service.WatchlistAllocation(context.Background(), w)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "-25", view.Items[0].VariancePct.String())
	assert.Equal(t, StatusOnTarget, view.Items[0].Status)
}

func TestWatchlistAllocation_NoAllocationOrMissing(t *testing.T) {
	service, conn, quotes, cleanup := newSummaryService(t, 0)
	defer cleanup()

	accountID := testingpkg.SeedAccount(t, conn, "Individual")
	w := testingpkg.SeedWatchlist(t, conn, "Stock Advisor", "motley_fool", 0)
	testingpkg.SeedMember(t, conn, w, "AAPL")
	testingpkg.SeedPosition(t, conn, accountID, "AAPL", 1)
	quotes.SetPrice("AAPL", 100)

	view, err := service.WatchlistAllocation(context.Background(), w)
	require.NoError(t, err)
	assert.Nil(t, view.Target)
	assert.Equal(t, StatusUnknown, view.Items[0].Status)
	assert.Nil(t, view.Dispersion)

	missing, err := service.WatchlistAllocation(context.Background(), 999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestNeedsAttention(t *testing.T) {
	service, conn, quotes, cleanup := newSummaryService(t, 10)
	defer cleanup()

	accountID := testingpkg.SeedAccount(t, conn, "Individual")
	intc := testingpkg.SeedPosition(t, conn, accountID, "INTC", 7)
	testingpkg.SeedPosition(t, conn, accountID, "NVDA", 3)

	w := testingpkg.SeedWatchlist(t, conn, "Alpha Picks", "seeking_alpha", 1000)
	testingpkg.SeedMember(t, conn, w, "NVDA")
	testingpkg.SeedLink(t, conn, intc, w, "dropped")
	quotes.SetPrice("NVDA", 1000)

	attention, err := service.NeedsAttention(context.Background())
	require.NoError(t, err)
	require.Len(t, attention.DroppedLinks, 1)
	assert.Equal(t, "INTC", attention.DroppedLinks[0].Symbol)
	require.Len(t, attention.OffTarget, 1)
	assert.Equal(t, "NVDA", attention.OffTarget[0].Symbol)
	assert.Equal(t, "Alpha Picks", attention.OffTarget[0].WatchlistName)
	assert.Equal(t, StatusOverweight, attention.OffTarget[0].Status)
}

func TestNeedsAttention_QuoteOutageIsNotAnError(t *testing.T) {
	service, conn, quotes, cleanup := newSummaryService(t, 10)
	defer cleanup()

	accountID := testingpkg.SeedAccount(t, conn, "Individual")
	testingpkg.SeedPosition(t, conn, accountID, "NVDA", 3)
	w := testingpkg.SeedWatchlist(t, conn, "Alpha Picks", "seeking_alpha", 1000)
	testingpkg.SeedMember(t, conn, w, "NVDA")
	quotes.SetError(errors.New("provider down"))

	attention, err := service.NeedsAttention(context.Background())
	require.NoError(t, err)
	assert.Empty(t, attention.DroppedLinks)
	assert.Empty(t, attention.OffTarget)
}
