// Package universe owns the canonical symbol table shared by every other module.
package universe

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

// SymbolRepository handles symbol database operations
type SymbolRepository struct {
	db  *sql.DB
	now func() time.Time
	log zerolog.Logger
}

// NewSymbolRepository creates a new symbol repository
func NewSymbolRepository(db *sql.DB, log zerolog.Logger) *SymbolRepository {
	return &SymbolRepository{
		db:  db,
		now: time.Now,
		log: log.With().Str("repo", "symbol").Logger(),
	}
}

// Upsert creates the symbol or merges u into the stored row (preserve-if-absent).
// Returns the stored symbol and whether it was created.
func (r *SymbolRepository) Upsert(u domain.SymbolUpdate) (*domain.Symbol, bool, error) {
	u.Symbol = symbols.Normalize(u.Symbol)
	if u.Symbol == "" {
		return nil, false, fmt.Errorf("symbol is required")
	}

	var (
		result  domain.Symbol
		created bool
	)
	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		existing, err := r.scanSymbol(tx.QueryRow(symbolSelect+` WHERE symbol = ?`, u.Symbol))
		if err != nil {
			return err
		}

		now := r.now()
		merged := domain.MergeSymbol(existing, u)
		if existing == nil {
			created = true
			merged.CreatedAt = database.UnixTime(now.Unix())
			merged.UpdatedAt = merged.CreatedAt
			_, err = tx.Exec(`INSERT INTO symbols (symbol, company_name, sector, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?)`,
				merged.Symbol, database.NullString(merged.CompanyName), database.NullString(merged.Sector),
				now.Unix(), now.Unix())
			if err != nil {
				return fmt.Errorf("failed to insert symbol %s: %w", merged.Symbol, err)
			}
		} else if domain.SymbolChanged(*existing, u) {
			merged.UpdatedAt = database.UnixTime(now.Unix())
			_, err = tx.Exec(`UPDATE symbols SET company_name = ?, sector = ?, updated_at = ? WHERE symbol = ?`,
				database.NullString(merged.CompanyName), database.NullString(merged.Sector), now.Unix(), merged.Symbol)
			if err != nil {
				return fmt.Errorf("failed to update symbol %s: %w", merged.Symbol, err)
			}
		}
		result = merged
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		r.log.Debug().Str("symbol", result.Symbol).Msg("Symbol created")
	}
	return &result, created, nil
}

// Ensure makes sure the symbol exists without touching its name or sector
func (r *SymbolRepository) Ensure(symbol string) (*domain.Symbol, error) {
	s, _, err := r.Upsert(domain.SymbolUpdate{Symbol: symbol})
	return s, err
}

// Get returns a symbol, or nil if it does not exist
func (r *SymbolRepository) Get(symbol string) (*domain.Symbol, error) {
	s, err := r.scanSymbol(r.db.QueryRow(symbolSelect+` WHERE symbol = ?`, symbols.Normalize(symbol)))
	if err != nil {
		return nil, fmt.Errorf("failed to get symbol: %w", err)
	}
	return s, nil
}

// List returns every symbol ordered alphabetically
func (r *SymbolRepository) List() ([]domain.Symbol, error) {
	rows, err := r.db.Query(symbolSelect + ` ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("failed to query symbols: %w", err)
	}
	defer rows.Close()

	var result []domain.Symbol
	for rows.Next() {
		s, err := r.scanSymbol(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating symbols: %w", err)
	}
	return result, nil
}

// orphanFilter selects symbols nothing references any more
const orphanFilter = `
	NOT EXISTS (SELECT 1 FROM positions p WHERE p.symbol = s.symbol)
	AND NOT EXISTS (SELECT 1 FROM watchlist_members m WHERE m.symbol = s.symbol AND m.removed_at IS NULL)
	AND NOT EXISTS (SELECT 1 FROM seeking_alpha_ratings sa WHERE sa.symbol = s.symbol)
	AND NOT EXISTS (SELECT 1 FROM motley_fool_ratings mf WHERE mf.symbol = s.symbol)
	AND NOT EXISTS (SELECT 1 FROM transactions t WHERE t.symbol = s.symbol)`

// ListOrphans returns symbols with no positions, active memberships, ratings or transactions
func (r *SymbolRepository) ListOrphans() ([]string, error) {
	rows, err := r.db.Query(`SELECT s.symbol FROM symbols s WHERE` + orphanFilter + ` ORDER BY s.symbol`)
	if err != nil {
		return nil, fmt.Errorf("failed to query orphan symbols: %w", err)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan orphan symbol: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// DeleteOrphans removes orphan symbols together with their membership history.
// Returns the number of symbols deleted.
func (r *SymbolRepository) DeleteOrphans() (int64, error) {
	var deleted int64
	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		// Removed memberships still reference the symbol
		if _, err := tx.Exec(`DELETE FROM watchlist_members WHERE symbol IN
			(SELECT s.symbol FROM symbols s WHERE` + orphanFilter + `)`); err != nil {
			return fmt.Errorf("failed to delete orphan membership history: %w", err)
		}
		res, err := tx.Exec(`DELETE FROM symbols AS s WHERE` + orphanFilter)
		if err != nil {
			return fmt.Errorf("failed to delete orphan symbols: %w", err)
		}
		deleted, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		r.log.Info().Int64("deleted", deleted).Msg("Deleted orphan symbols")
	}
	return deleted, nil
}

const symbolSelect = `SELECT symbol, company_name, sector, created_at, updated_at FROM symbols`

// scanSymbol returns nil, nil when the row does not exist
func (r *SymbolRepository) scanSymbol(row database.Scanner) (*domain.Symbol, error) {
	var (
		s                  domain.Symbol
		name, sector       sql.NullString
		createdAt, updated int64
	)
	err := row.Scan(&s.Symbol, &name, &sector, &createdAt, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan symbol: %w", err)
	}
	s.CompanyName = database.StringPtr(name)
	s.Sector = database.StringPtr(sector)
	s.CreatedAt = database.UnixTime(createdAt)
	s.UpdatedAt = database.UnixTime(updated)
	return &s, nil
}
