package watchlists

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aristath/portwatch/internal/database"
	"github.com/aristath/portwatch/internal/domain"
	"github.com/aristath/portwatch/internal/symbols"
	"github.com/rs/zerolog"
)

// MemberRepository handles the append-only membership log.
// A symbol is an active member while its latest row has removed_at NULL.
type MemberRepository struct {
	db  *sql.DB
	now func() time.Time
	log zerolog.Logger
}

// NewMemberRepository creates a new membership repository
func NewMemberRepository(db *sql.DB, log zerolog.Logger) *MemberRepository {
	return &MemberRepository{
		db:  db,
		now: time.Now,
		log: log.With().Str("repo", "watchlist_member").Logger(),
	}
}

// WithClock replaces the time source
func (r *MemberRepository) WithClock(now func() time.Time) *MemberRepository {
	r.now = now
	return r
}

// EnsureActive inserts a membership row unless one is already active.
// Returns true when a new row was appended.
func (r *MemberRepository) EnsureActive(watchlistID int64, symbol string) (bool, error) {
	symbol = symbols.Normalize(symbol)

	var added bool
	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		var active int
		if err := tx.QueryRow(`SELECT COUNT(*) FROM watchlist_members
			WHERE watchlist_id = ? AND symbol = ? AND removed_at IS NULL`, watchlistID, symbol).Scan(&active); err != nil {
			return fmt.Errorf("failed to check membership: %w", err)
		}
		if active > 0 {
			return nil
		}

		// added_at is unique per (watchlist, symbol); keep it strictly increasing
		// when a symbol is re-added within the same second it was removed.
		addedAt := r.now().Unix()
		var last sql.NullInt64
		if err := tx.QueryRow(`SELECT MAX(added_at) FROM watchlist_members
			WHERE watchlist_id = ? AND symbol = ?`, watchlistID, symbol).Scan(&last); err != nil {
			return fmt.Errorf("failed to read membership history: %w", err)
		}
		if last.Valid && last.Int64 >= addedAt {
			addedAt = last.Int64 + 1
		}

		if _, err := tx.Exec(`INSERT INTO watchlist_members (watchlist_id, symbol, added_at) VALUES (?, ?, ?)`,
			watchlistID, symbol, addedAt); err != nil {
			return fmt.Errorf("failed to add member %s: %w", symbol, err)
		}
		added = true
		return nil
	})
	return added, err
}

// Remove soft-removes the active membership. Returns false if the symbol was not active.
func (r *MemberRepository) Remove(watchlistID int64, symbol string) (bool, error) {
	res, err := r.db.Exec(`UPDATE watchlist_members SET removed_at = ?
		WHERE watchlist_id = ? AND symbol = ? AND removed_at IS NULL`,
		r.now().Unix(), watchlistID, symbols.Normalize(symbol))
	if err != nil {
		return false, fmt.Errorf("failed to remove member %s: %w", symbol, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n > 0 {
		r.log.Debug().Int64("watchlist_id", watchlistID).Str("symbol", symbol).Msg("Membership removed")
	}
	return n > 0, nil
}

// ActiveSymbols returns the symbols currently in the watchlist
func (r *MemberRepository) ActiveSymbols(watchlistID int64) ([]string, error) {
	rows, err := r.db.Query(`SELECT symbol FROM watchlist_members
		WHERE watchlist_id = ? AND removed_at IS NULL ORDER BY symbol`, watchlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to query active members: %w", err)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// ActiveMembers returns the current membership rows of a watchlist
func (r *MemberRepository) ActiveMembers(watchlistID int64) ([]domain.WatchlistMember, error) {
	return r.queryMembers(memberSelect+` WHERE watchlist_id = ? AND removed_at IS NULL ORDER BY symbol`, watchlistID)
}

// History returns every membership interval of symbol in the watchlist, oldest first
func (r *MemberRepository) History(watchlistID int64, symbol string) ([]domain.WatchlistMember, error) {
	return r.queryMembers(memberSelect+` WHERE watchlist_id = ? AND symbol = ? ORDER BY added_at`,
		watchlistID, symbols.Normalize(symbol))
}

// ActiveWatchlistsForSymbol returns the watchlists in which symbol is an active member
func (r *MemberRepository) ActiveWatchlistsForSymbol(symbol string) ([]domain.Watchlist, error) {
	rows, err := r.db.Query(`SELECT w.id, w.name, w.source, w.allocation, w.created_at
		FROM watchlists w
		JOIN watchlist_members m ON m.watchlist_id = w.id
		WHERE m.symbol = ? AND m.removed_at IS NULL
		ORDER BY w.name`, symbols.Normalize(symbol))
	if err != nil {
		return nil, fmt.Errorf("failed to query watchlists for symbol: %w", err)
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
	return result, rows.Err()
}

// CountActive returns the number of active members of a watchlist
func (r *MemberRepository) CountActive(watchlistID int64) (int, error) {
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM watchlist_members
		WHERE watchlist_id = ? AND removed_at IS NULL`, watchlistID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count active members: %w", err)
	}
	return n, nil
}

const memberSelect = `SELECT id, watchlist_id, symbol, added_at, removed_at FROM watchlist_members`

func (r *MemberRepository) queryMembers(query string, args ...any) ([]domain.WatchlistMember, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	var result []domain.WatchlistMember
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating members: %w", err)
	}
	return result, nil
}

func scanMember(row database.Scanner) (*domain.WatchlistMember, error) {
	var (
		m         domain.WatchlistMember
		addedAt   int64
		removedAt sql.NullInt64
	)
	err := row.Scan(&m.ID, &m.WatchlistID, &m.Symbol, &addedAt, &removedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan member: %w", err)
	}
	m.AddedAt = database.UnixTime(addedAt)
	m.RemovedAt = database.TimePtr(removedAt)
	return &m, nil
}
