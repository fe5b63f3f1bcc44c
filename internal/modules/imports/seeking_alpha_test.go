package imports

import (
	"context"
	"testing"

	"github.com/aristath/portwatch/internal/domain"
	testingpkg "github.com/aristath/portwatch/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var saHeader = []interface{}{"Symbol", "Quant", "SA Analyst", "Wall St", "Valuation", "Growth", "Profitability", "Momentum", "EPS Rev."}

// buildWorkbook returns an xlsx file whose first sheet is named sheet
func buildWorkbook(t *testing.T, sheet string, rows ...[]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName("Sheet1", sheet))
	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow(sheet, cellRef, &r))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestSeekingAlphaImport_Scenario(t *testing.T) {
	h, cleanup := newHarness(t)
	defer cleanup()
	w := testingpkg.SeedWatchlist(t, h.conn, "Alpha Picks", "seeking_alpha", 0)

	data := buildWorkbook(t, "Ratings",
		saHeader,
		[]interface{}{"AAPL", 4.5, 4.2, 3.8, "B+", "A-", "B", "A", "-"},
		[]interface{}{"--", 1.0, 1.0, 1.0, "A", "A", "A", "A", "A"},
	)

	result, err := h.seekingAlpha.Import(context.Background(), data, w)
	require.NoError(t, err)
	require.True(t, result.Success, result.Message)
	assert.Equal(t, 1, result.Symbols.Added)
	assert.Equal(t, 0, result.Symbols.Updated)
	assert.Empty(t, result.Errors, "blank symbol rows are skipped silently")
	assert.Equal(t, "Alpha Picks", result.Watchlist.Name)

	rating, err := h.saRatings.Get("AAPL", w)
	require.NoError(t, err)
	require.NotNil(t, rating)
	assert.Equal(t, "4.5", rating.QuantScore.String())
	assert.Equal(t, "4.2", rating.SAAnalystScore.String())
	assert.Equal(t, "3.8", rating.WallStScore.String())
	assert.Equal(t, "B+", *rating.ValuationGrade)
	assert.Equal(t, "A-", *rating.GrowthGrade)
	assert.Equal(t, "B", *rating.ProfitabilityGrade)
	assert.Equal(t, "A", *rating.MomentumGrade)
	assert.Nil(t, rating.EPSRevisionGrade)

	active, err := h.members.ActiveSymbols(w)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL"}, active)
	assert.Equal(t, 1, testingpkg.CountRows(t, h.conn, "seeking_alpha_ratings"))
}

func TestSeekingAlphaImport_ReimportOverwrites(t *testing.T) {
	h, cleanup := newHarness(t)
	defer cleanup()
	w := testingpkg.SeedWatchlist(t, h.conn, "Alpha Picks", "seeking_alpha", 0)

	first := buildWorkbook(t, "Ratings", saHeader,
		[]interface{}{"AAPL", 4.5, 4.2, 3.8, "B+", "A-", "B", "A", "C"})
	second := buildWorkbook(t, "Ratings", saHeader,
		[]interface{}{"aapl", 3.1, "-", "", "c", "-", "--", "Z", "D+"})

	_, err := h.seekingAlpha.Import(context.Background(), first, w)
	require.NoError(t, err)
	result, err := h.seekingAlpha.Import(context.Background(), second, w)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Symbols.Added)
	assert.Equal(t, 1, result.Symbols.Updated)

	assert.Equal(t, 1, testingpkg.CountRows(t, h.conn, "seeking_alpha_ratings"))
	assert.Equal(t, 1, testingpkg.CountRows(t, h.conn, "watchlist_members"), "membership is never duplicated")

	rating, err := h.saRatings.Get("AAPL", w)
	require.NoError(t, err)
	assert.Equal(t, "3.1", rating.QuantScore.String())
	assert.Nil(t, rating.SAAnalystScore)
	assert.Nil(t, rating.WallStScore)
	assert.Equal(t, "C", *rating.ValuationGrade)
	assert.Nil(t, rating.GrowthGrade)
	assert.Nil(t, rating.MomentumGrade, "unknown grades are unset")
	assert.Equal(t, "D+", *rating.EPSRevisionGrade)
}

func TestSeekingAlphaImport_RowErrors(t *testing.T) {
	h, cleanup := newHarness(t)
	defer cleanup()
	w := testingpkg.SeedWatchlist(t, h.conn, "Alpha Picks", "seeking_alpha", 0)

	data := buildWorkbook(t, "Ratings", saHeader,
		[]interface{}{"AAPL", "high", 4.2},
		[]interface{}{"MSFT", 4.0},
	)
	result, err := h.seekingAlpha.Import(context.Background(), data, w)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.Symbols.Added)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "row 1 (AAPL): quant score")
}

func TestSeekingAlphaImport_SheetLookup(t *testing.T) {
	h, cleanup := newHarness(t)
	defer cleanup()
	w := testingpkg.SeedWatchlist(t, h.conn, "Alpha Picks", "seeking_alpha", 0)

	lower := buildWorkbook(t, "ratings", saHeader, []interface{}{"NVDA", 5.0})
	result, err := h.seekingAlpha.Import(context.Background(), lower, w)
	require.NoError(t, err)
	assert.True(t, result.Success, "sheet names match case-insensitively")

	wrong := buildWorkbook(t, "Summary", saHeader, []interface{}{"NVDA", 5.0})
	result, err = h.seekingAlpha.Import(context.Background(), wrong, w)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "Summary")

	result, err = h.seekingAlpha.Import(context.Background(), []byte("not a workbook"), w)
	require.NoError(t, err)
	assert.False(t, result.Success)
}

func TestSeekingAlphaImport_ReferentialChecks(t *testing.T) {
	h, cleanup := newHarness(t)
	defer cleanup()
	mf := testingpkg.SeedWatchlist(t, h.conn, "Stock Advisor", "motley_fool", 0)
	data := buildWorkbook(t, "Ratings", saHeader, []interface{}{"AAPL", 4.5})

	result, err := h.seekingAlpha.Import(context.Background(), data, mf)
	require.NoError(t, err)
	assert.False(t, result.Success)

	result, err = h.seekingAlpha.Import(context.Background(), data, 4242)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "4242")

	assert.Equal(t, 0, testingpkg.CountRows(t, h.conn, "symbols"))
	assert.Equal(t, 0, testingpkg.CountRows(t, h.conn, "seeking_alpha_ratings"))
}

func TestSeekingAlphaImport_DropsLapsedMembers(t *testing.T) {
	h, cleanup := newHarness(t)
	defer cleanup()
	w := testingpkg.SeedWatchlist(t, h.conn, "Alpha Picks", "seeking_alpha", 0)
	accountID := testingpkg.SeedAccount(t, h.conn, "Individual")
	intc := testingpkg.SeedPosition(t, h.conn, accountID, "INTC", 7)

	first := buildWorkbook(t, "Ratings", saHeader,
		[]interface{}{"AAPL", 4.5}, []interface{}{"INTC", 3.0})
	result, err := h.seekingAlpha.Import(context.Background(), first, w)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Symbols.Added)

	link, err := h.links.Get(intc, w)
	require.NoError(t, err)
	require.NotNil(t, link, "held symbols get linked on import")
	assert.Equal(t, domain.LinkActive, link.Status)

	second := buildWorkbook(t, "Ratings", saHeader, []interface{}{"AAPL", 4.6})
	result, err = h.seekingAlpha.Import(context.Background(), second, w)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Dropped)

	link, err = h.links.Get(intc, w)
	require.NoError(t, err)
	assert.Equal(t, domain.LinkDropped, link.Status)

	active, err := h.members.ActiveSymbols(w)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL"}, active)

	third := buildWorkbook(t, "Ratings", saHeader,
		[]interface{}{"AAPL", 4.6}, []interface{}{"INTC", 3.2})
	result, err = h.seekingAlpha.Import(context.Background(), third, w)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Reinstated)

	link, err = h.links.Get(intc, w)
	require.NoError(t, err)
	assert.Equal(t, domain.LinkActive, link.Status)

	history, err := h.members.History(w, "INTC")
	require.NoError(t, err)
	assert.Len(t, history, 2, "a re-add appends a new membership interval")
}

func TestSeekingAlphaImport_EmptyExportKeepsMembership(t *testing.T) {
	h, cleanup := newHarness(t)
	defer cleanup()
	w := testingpkg.SeedWatchlist(t, h.conn, "Alpha Picks", "seeking_alpha", 0)
	testingpkg.SeedMember(t, h.conn, w, "AAPL")

	data := buildWorkbook(t, "Ratings", saHeader)
	result, err := h.seekingAlpha.Import(context.Background(), data, w)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, int64(0), result.Dropped)

	active, err := h.members.ActiveSymbols(w)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL"}, active)
}

func TestSeekingAlphaImport_RejectedRowsDoNotLink(t *testing.T) {
	h, cleanup := newHarness(t)
	defer cleanup()
	w := testingpkg.SeedWatchlist(t, h.conn, "Alpha Picks", "seeking_alpha", 0)
	accountID := testingpkg.SeedAccount(t, h.conn, "Individual")
	msft := testingpkg.SeedPosition(t, h.conn, accountID, "MSFT", 10)
	intc := testingpkg.SeedPosition(t, h.conn, accountID, "INTC", 7)
	testingpkg.SeedLink(t, h.conn, intc, w, "dropped")

	data := buildWorkbook(t, "Ratings", saHeader,
		[]interface{}{"AAPL", 4.5},
		[]interface{}{"MSFT", "abc"},
		[]interface{}{"INTC", "abc"},
	)
	result, err := h.seekingAlpha.Import(context.Background(), data, w)
	require.NoError(t, err)
	assert.True(t, result.Success)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "row 2 (MSFT): quant score")
	assert.Equal(t, int64(0), result.Reinstated)

	active, err := h.members.ActiveSymbols(w)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL"}, active)

	link, err := h.links.Get(msft, w)
	require.NoError(t, err)
	assert.Nil(t, link, "a rejected row never links the holding")

	link, err = h.links.Get(intc, w)
	require.NoError(t, err)
	require.NotNil(t, link)
	assert.Equal(t, domain.LinkDropped, link.Status)
	assert.NotNil(t, link.DroppedAt)
}

func TestSeekingAlphaImport_RejectedRowKeepsExistingMember(t *testing.T) {
	h, cleanup := newHarness(t)
	defer cleanup()
	w := testingpkg.SeedWatchlist(t, h.conn, "Alpha Picks", "seeking_alpha", 0)
	testingpkg.SeedMember(t, h.conn, w, "MSFT")

	data := buildWorkbook(t, "Ratings", saHeader,
		[]interface{}{"AAPL", 4.5},
		[]interface{}{"MSFT", "abc"},
	)
	result, err := h.seekingAlpha.Import(context.Background(), data, w)
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)

	active, err := h.members.ActiveSymbols(w)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, active)
}
