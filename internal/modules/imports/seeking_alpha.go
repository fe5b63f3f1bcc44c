package imports

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aristath/portwatch/internal/domain"
	"github.com/aristath/portwatch/internal/modules/links"
	"github.com/aristath/portwatch/internal/modules/ratings"
	"github.com/aristath/portwatch/internal/modules/universe"
	"github.com/aristath/portwatch/internal/modules/watchlists"
	"github.com/aristath/portwatch/internal/symbols"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// RatingsSheet is the worksheet holding Seeking Alpha ratings
const RatingsSheet = "Ratings"

// Seeking Alpha columns are addressed by position
const (
	saColSymbol = iota
	saColQuant
	saColAnalyst
	saColWallSt
	saColValuation
	saColGrowth
	saColProfitability
	saColMomentum
	saColEPSRevision
)

// SeekingAlphaImporter imports a Seeking Alpha ratings workbook into a watchlist
type SeekingAlphaImporter struct {
	watchlistImport
	ratings *ratings.SeekingAlphaRepository
}

// NewSeekingAlphaImporter creates a Seeking Alpha ratings importer
func NewSeekingAlphaImporter(
	watchlistRepo *watchlists.Repository,
	memberRepo *watchlists.MemberRepository,
	symbolRepo *universe.SymbolRepository,
	ratingRepo *ratings.SeekingAlphaRepository,
	reconciler *links.Reconciler,
	log zerolog.Logger,
) *SeekingAlphaImporter {
	return &SeekingAlphaImporter{
		watchlistImport: watchlistImport{
			watchlists: watchlistRepo,
			members:    memberRepo,
			symbols:    symbolRepo,
			reconciler: reconciler,
			log:        log.With().Str("importer", SourceSeekingAlpha).Logger(),
		},
		ratings: ratingRepo,
	}
}

// Import parses the workbook and upserts one rating per row
func (i *SeekingAlphaImporter) Import(ctx context.Context, data []byte, watchlistID int64) (*Result, error) {
	list, rejected, err := i.resolve(watchlistID, domain.SourceSeekingAlpha)
	if err != nil || rejected != nil {
		return rejected, err
	}

	book, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return failed("Invalid Seeking Alpha export: not a readable spreadsheet: %v", err), nil
	}
	defer book.Close()

	sheet := ""
	available := book.GetSheetList()
	for _, name := range available {
		if strings.EqualFold(strings.TrimSpace(name), RatingsSheet) {
			sheet = name
			break
		}
	}
	if sheet == "" {
		return failed("Invalid Seeking Alpha export: no %q sheet (available: %s)", RatingsSheet, strings.Join(available, ", ")), nil
	}

	rows, err := book.GetRows(sheet)
	if err != nil {
		return failed("Invalid Seeking Alpha export: cannot read %q sheet: %v", sheet, err), nil
	}

	result := newRatingsResult(list)
	var admitted, retained []string
	for n, row := range rows {
		if n == 0 {
			continue // header
		}
		rawSymbol := column(row, saColSymbol)
		if symbols.IsBlank(rawSymbol) {
			continue
		}
		symbol := symbols.Normalize(rawSymbol)
		retained = append(retained, symbol)

		rating, err := parseSeekingAlphaRow(row)
		if err != nil {
			result.rowError(n, symbol, "%v", err)
			continue
		}
		rating.Symbol = symbol
		rating.WatchlistID = list.ID

		if err := i.admit(list.ID, domain.SymbolUpdate{Symbol: symbol}); err != nil {
			result.rowError(n, symbol, "%v", err)
			continue
		}
		created, err := i.ratings.Upsert(rating)
		if err != nil {
			result.rowError(n, symbol, "%v", err)
			continue
		}
		admitted = append(admitted, symbol)
		if created {
			result.Symbols.Added++
		} else {
			result.Symbols.Updated++
		}
	}

	i.finish(list, admitted, retained, result)
	return result, nil
}

func parseSeekingAlphaRow(row []string) (domain.SeekingAlphaRating, error) {
	var (
		r   domain.SeekingAlphaRating
		err error
	)
	if r.QuantScore, err = parseDecimal(column(row, saColQuant)); err != nil {
		return r, fmt.Errorf("quant score: %v", err)
	}
	if r.SAAnalystScore, err = parseDecimal(column(row, saColAnalyst)); err != nil {
		return r, fmt.Errorf("SA analyst score: %v", err)
	}
	if r.WallStScore, err = parseDecimal(column(row, saColWallSt)); err != nil {
		return r, fmt.Errorf("Wall St score: %v", err)
	}
	r.ValuationGrade = parseGrade(column(row, saColValuation))
	r.GrowthGrade = parseGrade(column(row, saColGrowth))
	r.ProfitabilityGrade = parseGrade(column(row, saColProfitability))
	r.MomentumGrade = parseGrade(column(row, saColMomentum))
	r.EPSRevisionGrade = parseGrade(column(row, saColEPSRevision))
	return r, nil
}

// column returns the trimmed cell at i, or "" when the row is short
func column(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
