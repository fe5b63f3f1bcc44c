// Package ratings stores per-watchlist ratings from the subscription services.
// Both rating tables use full-replace upserts keyed by (symbol, watchlist).
package ratings

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

// SeekingAlphaRepository handles Seeking Alpha rating database operations
type SeekingAlphaRepository struct {
	db  *sql.DB
	now func() time.Time
	log zerolog.Logger
}

// NewSeekingAlphaRepository creates a new Seeking Alpha rating repository
func NewSeekingAlphaRepository(db *sql.DB, log zerolog.Logger) *SeekingAlphaRepository {
	return &SeekingAlphaRepository{
		db:  db,
		now: time.Now,
		log: log.With().Str("repo", "seeking_alpha_rating").Logger(),
	}
}

// Upsert writes every field of rating, overwriting the stored row if any.
// Returns true when a new row was created.
func (r *SeekingAlphaRepository) Upsert(rating domain.SeekingAlphaRating) (bool, error) {
	rating.Symbol = symbols.Normalize(rating.Symbol)

	var created bool
	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		existing, err := scanSeekingAlpha(tx.QueryRow(seekingAlphaSelect+` WHERE symbol = ? AND watchlist_id = ?`,
			rating.Symbol, rating.WatchlistID))
		if err != nil {
			return err
		}

		row := domain.ReplaceSeekingAlphaRating(existing, rating)
		now := r.now().Unix()
		args := []any{
			database.NullDecimal(row.QuantScore), database.NullDecimal(row.SAAnalystScore), database.NullDecimal(row.WallStScore),
			database.NullString(row.ValuationGrade), database.NullString(row.GrowthGrade), database.NullString(row.ProfitabilityGrade),
			database.NullString(row.MomentumGrade), database.NullString(row.EPSRevisionGrade), now,
		}

		if existing == nil {
			created = true
			_, err = tx.Exec(`INSERT INTO seeking_alpha_ratings
				(quant_score, sa_analyst_score, wall_st_score, valuation_grade, growth_grade,
				 profitability_grade, momentum_grade, eps_revision_grade, updated_at, symbol, watchlist_id)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, append(args, row.Symbol, row.WatchlistID)...)
		} else {
			_, err = tx.Exec(`UPDATE seeking_alpha_ratings SET
				quant_score = ?, sa_analyst_score = ?, wall_st_score = ?, valuation_grade = ?, growth_grade = ?,
				profitability_grade = ?, momentum_grade = ?, eps_revision_grade = ?, updated_at = ?
				WHERE id = ?`, append(args, row.ID)...)
		}
		if err != nil {
			return fmt.Errorf("failed to upsert Seeking Alpha rating for %s: %w", row.Symbol, err)
		}
		return nil
	})
	return created, err
}

// Get returns the rating of symbol in a watchlist, or nil if none exists
func (r *SeekingAlphaRepository) Get(symbol string, watchlistID int64) (*domain.SeekingAlphaRating, error) {
	return scanSeekingAlpha(r.db.QueryRow(seekingAlphaSelect+` WHERE symbol = ? AND watchlist_id = ?`,
		symbols.Normalize(symbol), watchlistID))
}

// ListByWatchlist returns every rating stored for a watchlist
func (r *SeekingAlphaRepository) ListByWatchlist(watchlistID int64) ([]domain.SeekingAlphaRating, error) {
	rows, err := r.db.Query(seekingAlphaSelect+` WHERE watchlist_id = ? ORDER BY symbol`, watchlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to query Seeking Alpha ratings: %w", err)
	}
	defer rows.Close()

	var result []domain.SeekingAlphaRating
	for rows.Next() {
		rating, err := scanSeekingAlpha(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *rating)
	}
	return result, rows.Err()
}

const seekingAlphaSelect = `SELECT id, symbol, watchlist_id, quant_score, sa_analyst_score, wall_st_score,
	valuation_grade, growth_grade, profitability_grade, momentum_grade, eps_revision_grade, updated_at
	FROM seeking_alpha_ratings`

func scanSeekingAlpha(row database.Scanner) (*domain.SeekingAlphaRating, error) {
	var (
		r                                                       domain.SeekingAlphaRating
		quant, analyst, wallSt                                  sql.NullFloat64
		valuation, growth, profitability, momentum, epsRevision sql.NullString
		updatedAt                                               int64
	)
	err := row.Scan(&r.ID, &r.Symbol, &r.WatchlistID, &quant, &analyst, &wallSt,
		&valuation, &growth, &profitability, &momentum, &epsRevision, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan Seeking Alpha rating: %w", err)
	}
	r.QuantScore = database.DecimalPtr(quant)
	r.SAAnalystScore = database.DecimalPtr(analyst)
	r.WallStScore = database.DecimalPtr(wallSt)
	r.ValuationGrade = database.StringPtr(valuation)
	r.GrowthGrade = database.StringPtr(growth)
	r.ProfitabilityGrade = database.StringPtr(profitability)
	r.MomentumGrade = database.StringPtr(momentum)
	r.EPSRevisionGrade = database.StringPtr(epsRevision)
	r.UpdatedAt = database.UnixTime(updatedAt)
	return &r, nil
}
