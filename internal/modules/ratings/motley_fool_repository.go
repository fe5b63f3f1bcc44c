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

// MotleyFoolRepository handles Motley Fool rating database operations
type MotleyFoolRepository struct {
	db  *sql.DB
	now func() time.Time
	log zerolog.Logger
}

// NewMotleyFoolRepository creates a new Motley Fool rating repository
func NewMotleyFoolRepository(db *sql.DB, log zerolog.Logger) *MotleyFoolRepository {
	return &MotleyFoolRepository{
		db:  db,
		now: time.Now,
		log: log.With().Str("repo", "motley_fool_rating").Logger(),
	}
}

// Upsert writes every field of rating, overwriting the stored row if any.
// Returns true when a new row was created.
func (r *MotleyFoolRepository) Upsert(rating domain.MotleyFoolRating) (bool, error) {
	rating.Symbol = symbols.Normalize(rating.Symbol)

	var created bool
	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		existing, err := scanMotleyFool(tx.QueryRow(motleyFoolSelect+` WHERE symbol = ? AND watchlist_id = ?`,
			rating.Symbol, rating.WatchlistID))
		if err != nil {
			return err
		}

		row := domain.ReplaceMotleyFoolRating(existing, rating)
		var riskTag sql.NullString
		if row.RiskTag != nil {
			riskTag = sql.NullString{String: string(*row.RiskTag), Valid: true}
		}
		args := []any{
			database.NullTime(row.RecDate), database.NullDecimal(row.CostBasis), database.NullDecimal(row.Quant5Y),
			database.NullDecimal(row.Allocation), database.NullDecimal(row.EstLowReturn), database.NullDecimal(row.EstHighReturn),
			database.NullDecimal(row.EstMaxDrawdown), riskTag, database.NullInt64(row.TimesRecommended),
			database.NullDecimal(row.FCFGrowth1Y), database.NullDecimal(row.GrossMargin), r.now().Unix(),
		}

		if existing == nil {
			created = true
			_, err = tx.Exec(`INSERT INTO motley_fool_ratings
				(rec_date, cost_basis, quant_5y, allocation, est_low_return, est_high_return, est_max_drawdown,
				 risk_tag, times_recommended, fcf_growth_1y, gross_margin, updated_at, symbol, watchlist_id)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, append(args, row.Symbol, row.WatchlistID)...)
		} else {
			_, err = tx.Exec(`UPDATE motley_fool_ratings SET
				rec_date = ?, cost_basis = ?, quant_5y = ?, allocation = ?, est_low_return = ?, est_high_return = ?,
				est_max_drawdown = ?, risk_tag = ?, times_recommended = ?, fcf_growth_1y = ?, gross_margin = ?, updated_at = ?
				WHERE id = ?`, append(args, row.ID)...)
		}
		if err != nil {
			return fmt.Errorf("failed to upsert Motley Fool rating for %s: %w", row.Symbol, err)
		}
		return nil
	})
	return created, err
}

// Get returns the rating of symbol in a watchlist, or nil if none exists
func (r *MotleyFoolRepository) Get(symbol string, watchlistID int64) (*domain.MotleyFoolRating, error) {
	return scanMotleyFool(r.db.QueryRow(motleyFoolSelect+` WHERE symbol = ? AND watchlist_id = ?`,
		symbols.Normalize(symbol), watchlistID))
}

// ListByWatchlist returns every rating stored for a watchlist
func (r *MotleyFoolRepository) ListByWatchlist(watchlistID int64) ([]domain.MotleyFoolRating, error) {
	rows, err := r.db.Query(motleyFoolSelect+` WHERE watchlist_id = ? ORDER BY symbol`, watchlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to query Motley Fool ratings: %w", err)
	}
	defer rows.Close()

	var result []domain.MotleyFoolRating
	for rows.Next() {
		rating, err := scanMotleyFool(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *rating)
	}
	return result, rows.Err()
}

const motleyFoolSelect = `SELECT id, symbol, watchlist_id, rec_date, cost_basis, quant_5y, allocation,
	est_low_return, est_high_return, est_max_drawdown, risk_tag, times_recommended, fcf_growth_1y,
	gross_margin, updated_at
	FROM motley_fool_ratings`

func scanMotleyFool(row database.Scanner) (*domain.MotleyFoolRating, error) {
	var (
		r                               domain.MotleyFoolRating
		recDate, timesRecommended       sql.NullInt64
		costBasis, quant5Y, allocation  sql.NullFloat64
		lowReturn, highReturn, drawdown sql.NullFloat64
		fcfGrowth, grossMargin          sql.NullFloat64
		riskTag                         sql.NullString
		updatedAt                       int64
	)
	err := row.Scan(&r.ID, &r.Symbol, &r.WatchlistID, &recDate, &costBasis, &quant5Y, &allocation,
		&lowReturn, &highReturn, &drawdown, &riskTag, &timesRecommended, &fcfGrowth, &grossMargin, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan Motley Fool rating: %w", err)
	}
	r.RecDate = database.TimePtr(recDate)
	r.CostBasis = database.DecimalPtr(costBasis)
	r.Quant5Y = database.DecimalPtr(quant5Y)
	r.Allocation = database.DecimalPtr(allocation)
	r.EstLowReturn = database.DecimalPtr(lowReturn)
	r.EstHighReturn = database.DecimalPtr(highReturn)
	r.EstMaxDrawdown = database.DecimalPtr(drawdown)
	if riskTag.Valid {
		tag := domain.RiskTag(riskTag.String)
		r.RiskTag = &tag
	}
	r.TimesRecommended = database.Int64Ptr(timesRecommended)
	r.FCFGrowth1Y = database.DecimalPtr(fcfGrowth)
	r.GrossMargin = database.DecimalPtr(grossMargin)
	r.UpdatedAt = database.UnixTime(updatedAt)
	return &r, nil
}
