// Package links tracks whether the watchlists that recommended a held position
// still recommend it. A link moves active -> dropped -> active as membership changes.
package links

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aristath/portwatch/internal/database"
	"github.com/aristath/portwatch/internal/domain"
	"github.com/aristath/portwatch/internal/symbols"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Manager handles position/watchlist link transitions
type Manager struct {
	db  *sql.DB
	now func() time.Time
	log zerolog.Logger
}

// NewManager creates a link manager reading time from now
func NewManager(db *sql.DB, now func() time.Time, log zerolog.Logger) *Manager {
	if now == nil {
		now = time.Now
	}
	return &Manager{
		db:  db,
		now: now,
		log: log.With().Str("service", "links").Logger(),
	}
}

// CreateLink links a position to a watchlist. An existing link is forced back to
// active with dropped_at cleared.
func (m *Manager) CreateLink(positionID, watchlistID int64) (*domain.Link, error) {
	now := m.now().Unix()
	_, err := m.db.Exec(`INSERT INTO position_watchlist_links (position_id, watchlist_id, status, linked_at)
		VALUES (?, ?, 'active', ?)
		ON CONFLICT(position_id, watchlist_id) DO UPDATE SET status = 'active', dropped_at = NULL`,
		positionID, watchlistID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to link position %d to watchlist %d: %w", positionID, watchlistID, err)
	}
	return m.get(positionID, watchlistID)
}

// MarkDropped moves an active link to dropped. Returns nil if no active link exists.
func (m *Manager) MarkDropped(positionID, watchlistID int64) (*domain.Link, error) {
	res, err := m.db.Exec(`UPDATE position_watchlist_links SET status = 'dropped', dropped_at = ?
		WHERE position_id = ? AND watchlist_id = ? AND status = 'active'`,
		m.now().Unix(), positionID, watchlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to drop link: %w", err)
	}
	return m.afterTransition(res, positionID, watchlistID)
}

// Reactivate moves a dropped link back to active. Returns nil if no dropped link exists.
func (m *Manager) Reactivate(positionID, watchlistID int64) (*domain.Link, error) {
	res, err := m.db.Exec(`UPDATE position_watchlist_links SET status = 'active', dropped_at = NULL
		WHERE position_id = ? AND watchlist_id = ? AND status = 'dropped'`,
		positionID, watchlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to reactivate link: %w", err)
	}
	return m.afterTransition(res, positionID, watchlistID)
}

// MarkDroppedBySymbol drops every active link between the watchlist and any
// position on symbol. Returns the number of links dropped.
func (m *Manager) MarkDroppedBySymbol(symbol string, watchlistID int64) (int64, error) {
	res, err := m.db.Exec(`UPDATE position_watchlist_links SET status = 'dropped', dropped_at = ?
		WHERE watchlist_id = ? AND status = 'active'
		AND position_id IN (SELECT id FROM positions WHERE symbol = ?)`,
		m.now().Unix(), watchlistID, symbols.Normalize(symbol))
	if err != nil {
		return 0, fmt.Errorf("failed to drop links for %s: %w", symbol, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		m.log.Info().Str("symbol", symbol).Int64("watchlist_id", watchlistID).Int64("count", n).Msg("Links dropped")
	}
	return n, nil
}

// ReactivateBySymbol reactivates every dropped link between the watchlist and any
// position on symbol. Returns the number of links reactivated.
func (m *Manager) ReactivateBySymbol(symbol string, watchlistID int64) (int64, error) {
	res, err := m.db.Exec(`UPDATE position_watchlist_links SET status = 'active', dropped_at = NULL
		WHERE watchlist_id = ? AND status = 'dropped'
		AND position_id IN (SELECT id FROM positions WHERE symbol = ?)`,
		watchlistID, symbols.Normalize(symbol))
	if err != nil {
		return 0, fmt.Errorf("failed to reactivate links for %s: %w", symbol, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		m.log.Info().Str("symbol", symbol).Int64("watchlist_id", watchlistID).Int64("count", n).Msg("Links reactivated")
	}
	return n, nil
}

// DeleteLink hard-deletes a link. Returns false if it did not exist.
func (m *Manager) DeleteLink(positionID, watchlistID int64) (bool, error) {
	res, err := m.db.Exec(`DELETE FROM position_watchlist_links WHERE position_id = ? AND watchlist_id = ?`,
		positionID, watchlistID)
	if err != nil {
		return false, fmt.Errorf("failed to delete link: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Get returns a link, or nil if it does not exist
func (m *Manager) Get(positionID, watchlistID int64) (*domain.Link, error) {
	return m.get(positionID, watchlistID)
}

// GetByPosition returns every link of a position
func (m *Manager) GetByPosition(positionID int64) ([]domain.Link, error) {
	return m.query(linkSelect+` WHERE position_id = ? ORDER BY watchlist_id`, positionID)
}

// GetByWatchlist returns every link of a watchlist
func (m *Manager) GetByWatchlist(watchlistID int64) ([]domain.Link, error) {
	return m.query(linkSelect+` WHERE watchlist_id = ? ORDER BY position_id`, watchlistID)
}

// GetDroppedLinksWithDetails returns dropped links of positions that still hold shares
func (m *Manager) GetDroppedLinksWithDetails() ([]domain.LinkDetail, error) {
	rows, err := m.db.Query(`SELECT l.id, l.position_id, l.watchlist_id, l.status, l.linked_at, l.dropped_at,
			w.name, p.symbol, s.company_name, p.shares, a.name
		FROM position_watchlist_links l
		JOIN positions p ON p.id = l.position_id
		JOIN accounts a ON a.id = p.account_id
		JOIN symbols s ON s.symbol = p.symbol
		JOIN watchlists w ON w.id = l.watchlist_id
		WHERE l.status = 'dropped' AND p.shares > 0
		ORDER BY l.dropped_at DESC, p.symbol`)
	if err != nil {
		return nil, fmt.Errorf("failed to query dropped links: %w", err)
	}
	defer rows.Close()

	var result []domain.LinkDetail
	for rows.Next() {
		var (
			d           domain.LinkDetail
			status      string
			linkedAt    int64
			droppedAt   sql.NullInt64
			companyName sql.NullString
			shares      float64
		)
		if err := rows.Scan(&d.ID, &d.PositionID, &d.WatchlistID, &status, &linkedAt, &droppedAt,
			&d.WatchlistName, &d.Symbol, &companyName, &shares, &d.AccountName); err != nil {
			return nil, fmt.Errorf("failed to scan dropped link: %w", err)
		}
		d.Status = domain.LinkStatus(status)
		d.LinkedAt = database.UnixTime(linkedAt)
		d.DroppedAt = database.TimePtr(droppedAt)
		d.CompanyName = database.StringPtr(companyName)
		d.Shares = decimal.NewFromFloat(shares)
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dropped links: %w", err)
	}
	return result, nil
}

func (m *Manager) afterTransition(res sql.Result, positionID, watchlistID int64) (*domain.Link, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	return m.get(positionID, watchlistID)
}

const linkSelect = `SELECT id, position_id, watchlist_id, status, linked_at, dropped_at FROM position_watchlist_links`

func (m *Manager) get(positionID, watchlistID int64) (*domain.Link, error) {
	return scanLink(m.db.QueryRow(linkSelect+` WHERE position_id = ? AND watchlist_id = ?`, positionID, watchlistID))
}

func (m *Manager) query(query string, args ...any) ([]domain.Link, error) {
	rows, err := m.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query links: %w", err)
	}
	defer rows.Close()

	var result []domain.Link
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating links: %w", err)
	}
	return result, nil
}

func scanLink(row database.Scanner) (*domain.Link, error) {
	var (
		l         domain.Link
		status    string
		linkedAt  int64
		droppedAt sql.NullInt64
	)
	err := row.Scan(&l.ID, &l.PositionID, &l.WatchlistID, &status, &linkedAt, &droppedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan link: %w", err)
	}
	l.Status = domain.LinkStatus(status)
	l.LinkedAt = database.UnixTime(linkedAt)
	l.DroppedAt = database.TimePtr(droppedAt)
	return &l, nil
}
