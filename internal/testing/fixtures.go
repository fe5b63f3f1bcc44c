package testing

import (
	"database/sql"
	"testing"
	"time"
)

// Fixture helpers insert rows with raw SQL so any repository package can use
// them in its own tests without an import cycle.

// SeedSymbol inserts a symbol with an optional company name
func SeedSymbol(t *testing.T, conn *sql.DB, symbol string, companyName string) {
	t.Helper()
	now := time.Now().Unix()
	var name sql.NullString
	if companyName != "" {
		name = sql.NullString{String: companyName, Valid: true}
	}
	if _, err := conn.Exec(`INSERT INTO symbols (symbol, company_name, created_at, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(symbol) DO NOTHING`, symbol, name, now, now); err != nil {
		t.Fatalf("Failed to seed symbol %s: %v", symbol, err)
	}
}

// SeedAccount inserts an account and returns its ID
func SeedAccount(t *testing.T, conn *sql.DB, name string) int64 {
	t.Helper()
	res, err := conn.Exec(`INSERT INTO accounts (name, broker, created_at) VALUES (?, 'Schwab', ?)`, name, time.Now().Unix())
	if err != nil {
		t.Fatalf("Failed to seed account %s: %v", name, err)
	}
	id, _ := res.LastInsertId()
	return id
}

// SeedPosition inserts a position (and its symbol) and returns the position ID
func SeedPosition(t *testing.T, conn *sql.DB, accountID int64, symbol string, shares float64) int64 {
	t.Helper()
	SeedSymbol(t, conn, symbol, "")
	res, err := conn.Exec(`INSERT INTO positions (account_id, symbol, shares, updated_at) VALUES (?, ?, ?, ?)`,
		accountID, symbol, shares, time.Now().Unix())
	if err != nil {
		t.Fatalf("Failed to seed position %s: %v", symbol, err)
	}
	id, _ := res.LastInsertId()
	return id
}

// SeedWatchlist inserts a watchlist and returns its ID. allocation <= 0 leaves it unset.
func SeedWatchlist(t *testing.T, conn *sql.DB, name, source string, allocation float64) int64 {
	t.Helper()
	var alloc sql.NullFloat64
	if allocation > 0 {
		alloc = sql.NullFloat64{Float64: allocation, Valid: true}
	}
	res, err := conn.Exec(`INSERT INTO watchlists (name, source, allocation, created_at) VALUES (?, ?, ?, ?)`,
		name, source, alloc, time.Now().Unix())
	if err != nil {
		t.Fatalf("Failed to seed watchlist %s: %v", name, err)
	}
	id, _ := res.LastInsertId()
	return id
}

// SeedMember inserts an active watchlist membership (and its symbol)
func SeedMember(t *testing.T, conn *sql.DB, watchlistID int64, symbol string) {
	t.Helper()
	SeedSymbol(t, conn, symbol, "")
	if _, err := conn.Exec(`INSERT INTO watchlist_members (watchlist_id, symbol, added_at) VALUES (?, ?, ?)`,
		watchlistID, symbol, time.Now().Unix()); err != nil {
		t.Fatalf("Failed to seed member %s: %v", symbol, err)
	}
}

// SeedLink inserts a position/watchlist link with the given status
func SeedLink(t *testing.T, conn *sql.DB, positionID, watchlistID int64, status string) {
	t.Helper()
	now := time.Now().Unix()
	var dropped sql.NullInt64
	if status == "dropped" {
		dropped = sql.NullInt64{Int64: now, Valid: true}
	}
	if _, err := conn.Exec(`INSERT INTO position_watchlist_links (position_id, watchlist_id, status, linked_at, dropped_at)
		VALUES (?, ?, ?, ?, ?)`, positionID, watchlistID, status, now, dropped); err != nil {
		t.Fatalf("Failed to seed link: %v", err)
	}
}

// CountRows returns the number of rows in table
func CountRows(t *testing.T, conn *sql.DB, table string) int {
	t.Helper()
	var n int
	if err := conn.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("Failed to count %s: %v", table, err)
	}
	return n
}
