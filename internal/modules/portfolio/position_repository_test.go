package portfolio

import (
	"testing"

	"github.com/aristath/portwatch/internal/domain"
	testingpkg "github.com/aristath/portwatch/internal/testing"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestPositionUpsert_SharesReplaceCostBasisPreserved(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t)
	defer cleanup()
	conn := db.Conn()
	repo := NewPositionRepository(conn, zerolog.Nop())

	accountID := testingpkg.SeedAccount(t, conn, "Individual")
	testingpkg.SeedSymbol(t, conn, "AAPL", "Apple Inc.")

	pos, created, err := repo.Upsert(domain.PositionUpdate{AccountID: accountID, Symbol: "AAPL", Shares: dec("10"), CostBasis: decPtr("1500")})
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotZero(t, pos.ID)

	// Re-import without cost basis
	again, created, err := repo.Upsert(domain.PositionUpdate{AccountID: accountID, Symbol: "aapl", Shares: dec("12.5")})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, pos.ID, again.ID)

	stored, err := repo.Get(accountID, "AAPL")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, stored.Shares.Equal(dec("12.5")))
	require.NotNil(t, stored.CostBasis)
	assert.True(t, stored.CostBasis.Equal(dec("1500")))

	_, _, err = repo.Upsert(domain.PositionUpdate{AccountID: accountID, Symbol: "AAPL", Shares: dec("12.5"), CostBasis: decPtr("1900.25")})
	require.NoError(t, err)
	stored, err = repo.GetByID(pos.ID)
	require.NoError(t, err)
	assert.True(t, stored.CostBasis.Equal(dec("1900.25")))

	assert.Equal(t, 1, testingpkg.CountRows(t, conn, "positions"))
}

func TestPositionUpsert_RejectsNegativeShares(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t)
	defer cleanup()
	repo := NewPositionRepository(db.Conn(), zerolog.Nop())

	_, _, err := repo.Upsert(domain.PositionUpdate{AccountID: 1, Symbol: "AAPL", Shares: dec("-1")})
	assert.Error(t, err)
}

func TestPositionQueries(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t)
	defer cleanup()
	conn := db.Conn()
	repo := NewPositionRepository(conn, zerolog.Nop())

	a1 := testingpkg.SeedAccount(t, conn, "Individual")
	a2 := testingpkg.SeedAccount(t, conn, "Roth IRA")
	testingpkg.SeedPosition(t, conn, a1, "AAPL", 10)
	testingpkg.SeedPosition(t, conn, a2, "AAPL", 5)
	testingpkg.SeedPosition(t, conn, a2, "MSFT", 3)

	bySymbol, err := repo.ListBySymbol("aapl")
	require.NoError(t, err)
	assert.Len(t, bySymbol, 2)

	byAccount, err := repo.ListByAccount(a2)
	require.NoError(t, err)
	require.Len(t, byAccount, 2)
	assert.Equal(t, "AAPL", byAccount[0].Symbol)

	all, err := repo.List()
	require.NoError(t, err)
	assert.Len(t, all, 3)

	missing, err := repo.Get(a1, "MSFT")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUpdateSharesAndDelete(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t)
	defer cleanup()
	conn := db.Conn()
	repo := NewPositionRepository(conn, zerolog.Nop())

	accountID := testingpkg.SeedAccount(t, conn, "Individual")
	id := testingpkg.SeedPosition(t, conn, accountID, "AAPL", 10)

	found, err := repo.UpdateShares(id, decimal.Zero)
	require.NoError(t, err)
	assert.True(t, found)
	pos, err := repo.GetByID(id)
	require.NoError(t, err)
	assert.True(t, pos.Shares.IsZero(), "sold-out positions are recorded with zero shares")

	_, err = repo.UpdateShares(id, dec("-2"))
	assert.Error(t, err)

	found, err = repo.UpdateShares(9999, dec("1"))
	require.NoError(t, err)
	assert.False(t, found)

	found, err = repo.Delete(id)
	require.NoError(t, err)
	assert.True(t, found)
	pos, err = repo.GetByID(id)
	require.NoError(t, err)
	assert.Nil(t, pos)
}
