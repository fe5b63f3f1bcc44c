// Package portfolio holds positions and the reconciliation views built on them.
package portfolio

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

// PositionRepository handles position database operations
type PositionRepository struct {
	db  *sql.DB
	now func() time.Time
	log zerolog.Logger
}

// NewPositionRepository creates a new position repository
func NewPositionRepository(db *sql.DB, log zerolog.Logger) *PositionRepository {
	return &PositionRepository{
		db:  db,
		now: time.Now,
		log: log.With().Str("repo", "position").Logger(),
	}
}

// Upsert creates or updates the position for (account, symbol).
// Shares always replace, cost basis is preserved when absent. The symbol must exist.
// Returns the stored position and whether it was created.
func (r *PositionRepository) Upsert(u domain.PositionUpdate) (*domain.Position, bool, error) {
	u.Symbol = symbols.Normalize(u.Symbol)
	if u.Shares.IsNegative() {
		return nil, false, fmt.Errorf("shares must not be negative for %s", u.Symbol)
	}

	var (
		result  domain.Position
		created bool
	)
	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		existing, err := scanPosition(tx.QueryRow(positionSelect+` WHERE account_id = ? AND symbol = ?`, u.AccountID, u.Symbol))
		if err != nil {
			return err
		}

		merged := domain.MergePosition(existing, u)
		now := r.now().Unix()
		merged.UpdatedAt = database.UnixTime(now)

		if existing == nil {
			created = true
			res, err := tx.Exec(`INSERT INTO positions (account_id, symbol, shares, cost_basis, updated_at)
				VALUES (?, ?, ?, ?, ?)`,
				merged.AccountID, merged.Symbol, merged.Shares.InexactFloat64(), database.NullDecimal(merged.CostBasis), now)
			if err != nil {
				return fmt.Errorf("failed to insert position %s: %w", merged.Symbol, err)
			}
			if merged.ID, err = res.LastInsertId(); err != nil {
				return fmt.Errorf("failed to read position id: %w", err)
			}
		} else {
			_, err := tx.Exec(`UPDATE positions SET shares = ?, cost_basis = ?, updated_at = ? WHERE id = ?`,
				merged.Shares.InexactFloat64(), database.NullDecimal(merged.CostBasis), now, merged.ID)
			if err != nil {
				return fmt.Errorf("failed to update position %s: %w", merged.Symbol, err)
			}
		}
		result = merged
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &result, created, nil
}

// GetByID returns a position, or nil if it does not exist
func (r *PositionRepository) GetByID(id int64) (*domain.Position, error) {
	return scanPosition(r.db.QueryRow(positionSelect+` WHERE id = ?`, id))
}

// Get returns the position for (account, symbol), or nil if it does not exist
func (r *PositionRepository) Get(accountID int64, symbol string) (*domain.Position, error) {
	return scanPosition(r.db.QueryRow(positionSelect+` WHERE account_id = ? AND symbol = ?`, accountID, symbols.Normalize(symbol)))
}

// List returns every position ordered by symbol then account
func (r *PositionRepository) List() ([]domain.Position, error) {
	return r.query(positionSelect + ` ORDER BY symbol, account_id`)
}

// ListBySymbol returns the positions on symbol across all accounts
func (r *PositionRepository) ListBySymbol(symbol string) ([]domain.Position, error) {
	return r.query(positionSelect+` WHERE symbol = ? ORDER BY account_id`, symbols.Normalize(symbol))
}

// ListByAccount returns the positions held in one account
func (r *PositionRepository) ListByAccount(accountID int64) ([]domain.Position, error) {
	return r.query(positionSelect+` WHERE account_id = ? ORDER BY symbol`, accountID)
}

// UpdateShares sets the share count explicitly. Zero is allowed and records a
// sold-out position. Returns false if the position does not exist.
func (r *PositionRepository) UpdateShares(id int64, shares decimal.Decimal) (bool, error) {
	if shares.IsNegative() {
		return false, fmt.Errorf("shares must not be negative")
	}
	res, err := r.db.Exec(`UPDATE positions SET shares = ?, updated_at = ? WHERE id = ?`,
		shares.InexactFloat64(), r.now().Unix(), id)
	if err != nil {
		return false, fmt.Errorf("failed to update shares for position %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Delete removes a position and, by cascade, its links
func (r *PositionRepository) Delete(id int64) (bool, error) {
	res, err := r.db.Exec(`DELETE FROM positions WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete position %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *PositionRepository) query(query string, args ...any) ([]domain.Position, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	var positions []domain.Position
	for rows.Next() {
		pos, err := scanPosition(rows)
		if err != nil {
			return nil, err
		}
		positions = append(positions, *pos)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating positions: %w", err)
	}
	return positions, nil
}

const positionSelect = `SELECT id, account_id, symbol, shares, cost_basis, updated_at FROM positions`

func scanPosition(row database.Scanner) (*domain.Position, error) {
	var (
		p         domain.Position
		shares    float64
		costBasis sql.NullFloat64
		updatedAt int64
	)
	err := row.Scan(&p.ID, &p.AccountID, &p.Symbol, &shares, &costBasis, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan position: %w", err)
	}
	p.Shares = decimal.NewFromFloat(shares)
	p.CostBasis = database.DecimalPtr(costBasis)
	p.UpdatedAt = database.UnixTime(updatedAt)
	return &p, nil
}
