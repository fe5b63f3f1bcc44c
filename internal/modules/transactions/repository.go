// Package transactions keeps the manually entered trade log.
package transactions

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aristath/portwatch/internal/database"
	"github.com/aristath/portwatch/internal/domain"
	"github.com/aristath/portwatch/internal/symbols"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// SymbolEnsurer creates a symbol row on first reference
type SymbolEnsurer interface {
	Ensure(symbol string) (*domain.Symbol, error)
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	AccountID   int64
	Symbol      string
	WatchlistID int64
}

// Repository handles transaction database operations.
// Transactions are immutable once written; they can only be deleted.
type Repository struct {
	db      *sql.DB
	symbols SymbolEnsurer
	now     func() time.Time
	log     zerolog.Logger
}

// NewRepository creates a new transaction repository
func NewRepository(db *sql.DB, symbols SymbolEnsurer, log zerolog.Logger) *Repository {
	return &Repository{
		db:      db,
		symbols: symbols,
		now:     time.Now,
		log:     log.With().Str("repo", "transaction").Logger(),
	}
}

const transactionSelect = `SELECT id, account_id, symbol, type, shares, price_per_share, total_amount,
	reason, watchlist_id, notes, executed_at, created_at FROM transactions`

// Create validates and stores a transaction. Positions are not touched.
func (r *Repository) Create(t domain.Transaction) (*domain.Transaction, error) {
	t.Symbol = symbols.Normalize(t.Symbol)
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if _, err := r.symbols.Ensure(t.Symbol); err != nil {
		return nil, fmt.Errorf("failed to ensure symbol %s: %w", t.Symbol, err)
	}

	now := r.now()
	if t.ExecutedAt.IsZero() {
		t.ExecutedAt = now
	}
	t.ExecutedAt = database.UnixTime(t.ExecutedAt.Unix())
	t.CreatedAt = database.UnixTime(now.Unix())

	var reason sql.NullString
	if t.Reason != nil {
		reason = sql.NullString{String: string(*t.Reason), Valid: true}
	}
	var watchlistID sql.NullInt64
	if t.WatchlistID != nil {
		watchlistID = sql.NullInt64{Int64: *t.WatchlistID, Valid: true}
	}

	res, err := r.db.Exec(`INSERT INTO transactions
		(account_id, symbol, type, shares, price_per_share, total_amount, reason, watchlist_id, notes, executed_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.AccountID, t.Symbol, string(t.Type), t.Shares.InexactFloat64(), t.PricePerShare.InexactFloat64(),
		t.TotalAmount.InexactFloat64(), reason, watchlistID, database.NullString(t.Notes),
		t.ExecutedAt.Unix(), t.CreatedAt.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to insert transaction: %w", err)
	}
	if t.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("failed to read transaction id: %w", err)
	}

	r.log.Info().
		Int64("transaction_id", t.ID).
		Str("symbol", t.Symbol).
		Str("type", string(t.Type)).
		Str("shares", t.Shares.String()).
		Msg("Transaction recorded")
	return &t, nil
}

// GetByID returns a transaction, or nil if it does not exist
func (r *Repository) GetByID(id int64) (*domain.Transaction, error) {
	return scanTransaction(r.db.QueryRow(transactionSelect+` WHERE id = ?`, id))
}

// List returns transactions matching the filter, most recent first
func (r *Repository) List(f Filter) ([]domain.Transaction, error) {
	var (
		where []string
		args  []any
	)
	if f.AccountID > 0 {
		where = append(where, "account_id = ?")
		args = append(args, f.AccountID)
	}
	if s := symbols.Normalize(f.Symbol); s != "" {
		where = append(where, "symbol = ?")
		args = append(args, s)
	}
	if f.WatchlistID > 0 {
		where = append(where, "watchlist_id = ?")
		args = append(args, f.WatchlistID)
	}

	query := transactionSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY executed_at DESC, id DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *t)
	}
	return result, rows.Err()
}

// Delete removes a transaction. Returns false if it did not exist.
func (r *Repository) Delete(id int64) (bool, error) {
	res, err := r.db.Exec(`DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete transaction %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n > 0 {
		r.log.Info().Int64("transaction_id", id).Msg("Transaction deleted")
	}
	return n > 0, nil
}

func scanTransaction(row database.Scanner) (*domain.Transaction, error) {
	var (
		t                     domain.Transaction
		txType                string
		shares, price, total  float64
		reason, notes         sql.NullString
		watchlistID           sql.NullInt64
		executedAt, createdAt int64
	)
	err := row.Scan(&t.ID, &t.AccountID, &t.Symbol, &txType, &shares, &price, &total,
		&reason, &watchlistID, &notes, &executedAt, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}

	t.Type = domain.TransactionType(txType)
	t.Shares = decimal.NewFromFloat(shares)
	t.PricePerShare = decimal.NewFromFloat(price)
	t.TotalAmount = decimal.NewFromFloat(total)
	if reason.Valid {
		rs := domain.TransactionReason(reason.String)
		t.Reason = &rs
	}
	if watchlistID.Valid {
		id := watchlistID.Int64
		t.WatchlistID = &id
	}
	t.Notes = database.StringPtr(notes)
	t.ExecutedAt = database.UnixTime(executedAt)
	t.CreatedAt = database.UnixTime(createdAt)
	return &t, nil
}
