package imports

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aristath/portwatch/internal/domain"
	"github.com/aristath/portwatch/internal/modules/links"
	"github.com/aristath/portwatch/internal/modules/ratings"
	"github.com/aristath/portwatch/internal/modules/universe"
	"github.com/aristath/portwatch/internal/modules/watchlists"
	"github.com/aristath/portwatch/internal/symbols"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Normalized Motley Fool column names
const (
	mfSymbol           = "symbol"
	mfCompany          = "company"
	mfSector           = "sector"
	mfRecDate          = "recdate"
	mfCostBasis        = "costbasis"
	mfQuant5Y          = "quant5y"
	mfAllocation       = "allocation"
	mfEstLowReturn     = "estlowreturn"
	mfEstHighReturn    = "esthighreturn"
	mfEstMaxDrawdown   = "estmaxdrawdown"
	mfRiskTag          = "risktag"
	mfTimesRecommended = "timesrecommended"
	mfFCFGrowth1Y      = "1yfcfgrowth"
	mfGrossMargin      = "grossmargin"
)

// MotleyFoolImporter imports a Motley Fool scorecard CSV into a watchlist
type MotleyFoolImporter struct {
	watchlistImport
	ratings *ratings.MotleyFoolRepository
}

// NewMotleyFoolImporter creates a Motley Fool ratings importer
func NewMotleyFoolImporter(
	watchlistRepo *watchlists.Repository,
	memberRepo *watchlists.MemberRepository,
	symbolRepo *universe.SymbolRepository,
	ratingRepo *ratings.MotleyFoolRepository,
	reconciler *links.Reconciler,
	log zerolog.Logger,
) *MotleyFoolImporter {
	return &MotleyFoolImporter{
		watchlistImport: watchlistImport{
			watchlists: watchlistRepo,
			members:    memberRepo,
			symbols:    symbolRepo,
			reconciler: reconciler,
			log:        log.With().Str("importer", SourceMotleyFool).Logger(),
		},
		ratings: ratingRepo,
	}
}

// Import parses the CSV and upserts one rating per row
func (i *MotleyFoolImporter) Import(ctx context.Context, content string, watchlistID int64) (*Result, error) {
	list, rejected, err := i.resolve(watchlistID, domain.SourceMotleyFool)
	if err != nil || rejected != nil {
		return rejected, err
	}

	reader := csv.NewReader(strings.NewReader(strings.TrimPrefix(content, bom)))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return failed("Invalid Motley Fool export: missing header row"), nil
	}
	idx := headerIndex(header)
	if !has(idx, mfSymbol) {
		return failed("Invalid Motley Fool export: missing Symbol column"), nil
	}

	result := newRatingsResult(list)
	var admitted, retained []string
	row := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		if err != nil {
			result.rowError(row, "", "malformed CSV: %v", err)
			continue
		}

		rawSymbol := cell(record, idx, mfSymbol)
		if symbols.IsBlank(rawSymbol) {
			continue
		}
		symbol := symbols.Normalize(rawSymbol)
		retained = append(retained, symbol)

		rating, err := parseMotleyFoolRecord(record, idx)
		if err != nil {
			result.rowError(row, symbol, "%v", err)
			continue
		}
		rating.Symbol = symbol
		rating.WatchlistID = list.ID

		update := domain.SymbolUpdate{
			Symbol:      symbol,
			CompanyName: optionalText(cell(record, idx, mfCompany)),
			Sector:      optionalText(cell(record, idx, mfSector)),
		}
		if err := i.admit(list.ID, update); err != nil {
			result.rowError(row, symbol, "%v", err)
			continue
		}
		created, err := i.ratings.Upsert(rating)
		if err != nil {
			result.rowError(row, symbol, "%v", err)
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

func parseMotleyFoolRecord(record []string, idx map[string]int) (domain.MotleyFoolRating, error) {
	var (
		r   domain.MotleyFoolRating
		err error
	)

	if r.RecDate, err = parseDate(cell(record, idx, mfRecDate)); err != nil {
		return r, fmt.Errorf("rec date: %v", err)
	}

	decimals := []struct {
		column string
		label  string
		dst    **decimal.Decimal
	}{
		{mfCostBasis, "cost basis", &r.CostBasis},
		{mfQuant5Y, "quant 5Y", &r.Quant5Y},
		{mfAllocation, "allocation", &r.Allocation},
		{mfEstLowReturn, "est. low return", &r.EstLowReturn},
		{mfEstHighReturn, "est. high return", &r.EstHighReturn},
		{mfEstMaxDrawdown, "est. max drawdown", &r.EstMaxDrawdown},
		{mfFCFGrowth1Y, "1Y FCF growth", &r.FCFGrowth1Y},
		{mfGrossMargin, "gross margin", &r.GrossMargin},
	}
	for _, d := range decimals {
		if *d.dst, err = parseDecimal(cell(record, idx, d.column)); err != nil {
			return r, fmt.Errorf("%s: %v", d.label, err)
		}
	}

	if r.TimesRecommended, err = parseInt(cell(record, idx, mfTimesRecommended)); err != nil {
		return r, fmt.Errorf("times recommended: %v", err)
	}
	r.RiskTag = parseRiskTag(cell(record, idx, mfRiskTag))
	return r, nil
}
