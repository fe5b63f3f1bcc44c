// Package watchlists manages rating-service watchlists and their membership history.
package watchlists

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aristath/portwatch/internal/database"
	"github.com/aristath/portwatch/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Repository handles watchlist database operations
type Repository struct {
	db  *sql.DB
	now func() time.Time
	log zerolog.Logger
}

// NewRepository creates a new watchlist repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		now: time.Now,
		log: log.With().Str("repo", "watchlist").Logger(),
	}
}

// Create inserts a watchlist. Watchlists are only ever created explicitly.
func (r *Repository) Create(name string, source domain.WatchlistSource, allocation *decimal.Decimal) (*domain.Watchlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidWatchlist)
	}
	if !source.Valid() {
		return nil, fmt.Errorf("%w: unknown source %q", domain.ErrInvalidWatchlist, source)
	}
	if allocation != nil && allocation.IsNegative() {
		return nil, fmt.Errorf("%w: allocation must not be negative", domain.ErrInvalidWatchlist)
	}

	now := r.now().Unix()
	res, err := r.db.Exec(`INSERT INTO watchlists (name, source, allocation, created_at) VALUES (?, ?, ?, ?)`,
		name, string(source), database.NullDecimal(allocation), now)
	if err != nil {
		return nil, fmt.Errorf("failed to create watchlist %s: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read watchlist id: %w", err)
	}

	r.log.Info().Int64("watchlist_id", id).Str("name", name).Str("source", string(source)).Msg("Watchlist created")
	return &domain.Watchlist{
		ID:         id,
		Name:       name,
		Source:     source,
		Allocation: allocation,
		CreatedAt:  database.UnixTime(now),
	}, nil
}

// GetByID returns a watchlist, or nil if it does not exist
func (r *Repository) GetByID(id int64) (*domain.Watchlist, error) {
	return scanWatchlist(r.db.QueryRow(watchlistSelect+` WHERE id = ?`, id))
}

// GetByName returns a watchlist by exact name, or nil if it does not exist
func (r *Repository) GetByName(name string) (*domain.Watchlist, error) {
	return scanWatchlist(r.db.QueryRow(watchlistSelect+` WHERE name = ?`, strings.TrimSpace(name)))
}

// Require returns the watchlist if it exists and belongs to source
func (r *Repository) Require(id int64, source domain.WatchlistSource) (*domain.Watchlist, error) {
	w, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, fmt.Errorf("%w: %d", domain.ErrWatchlistNotFound, id)
	}
	if w.Source != source {
		return nil, fmt.Errorf("%w: watchlist %q is %s, not %s", domain.ErrWrongSource, w.Name, w.Source, source)
	}
	return w, nil
}

// List returns every watchlist ordered by name
func (r *Repository) List() ([]domain.Watchlist, error) {
	rows, err := r.db.Query(watchlistSelect + ` ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query watchlists: %w", err)
	}
	defer rows.Close()

	var result []domain.Watchlist
	for rows.Next() {
		w, err := scanWatchlist(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating watchlists: %w", err)
	}
	return result, nil
}

// SetAllocation sets or clears the dollar allocation. Returns false if the watchlist does not exist.
func (r *Repository) SetAllocation(id int64, allocation *decimal.Decimal) (bool, error) {
	if allocation != nil && allocation.IsNegative() {
		return false, fmt.Errorf("%w: allocation must not be negative", domain.ErrInvalidWatchlist)
	}
	res, err := r.db.Exec(`UPDATE watchlists SET allocation = ? WHERE id = ?`, database.NullDecimal(allocation), id)
	if err != nil {
		return false, fmt.Errorf("failed to set allocation for watchlist %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

const watchlistSelect = `SELECT id, name, source, allocation, created_at FROM watchlists`

func scanWatchlist(row database.Scanner) (*domain.Watchlist, error) {
	var (
		w          domain.Watchlist
		source     string
		allocation sql.NullFloat64
		createdAt  int64
	)
	err := row.Scan(&w.ID, &w.Name, &source, &allocation, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan watchlist: %w", err)
	}
	w.Source = domain.WatchlistSource(source)
	w.Allocation = database.DecimalPtr(allocation)
	w.CreatedAt = database.UnixTime(createdAt)
	return &w, nil
}
