package portfolio

import (
	"context"
	"fmt"
	"sort"

	"github.com/aristath/portwatch/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"
)

// Allocation statuses relative to the equal-weight target
const (
	StatusUnderweight = "underweight"
	StatusOnTarget    = "on_target"
	StatusOverweight  = "overweight"
	StatusNotHeld     = "not_held"
	StatusUnknown     = "unknown"
)

// DefaultBandPct is the allocation tolerance band around the equal-weight target
const DefaultBandPct = 10.0

// SymbolReader looks up symbol metadata
type SymbolReader interface {
	Get(symbol string) (*domain.Symbol, error)
}

// WatchlistReader looks up watchlists
type WatchlistReader interface {
	GetByID(id int64) (*domain.Watchlist, error)
	List() ([]domain.Watchlist, error)
}

// MembershipReader reads current watchlist membership
type MembershipReader interface {
	ActiveSymbols(watchlistID int64) ([]string, error)
	ActiveWatchlistsForSymbol(symbol string) ([]domain.Watchlist, error)
}

// DroppedLinkReader lists dropped links that still need a decision
type DroppedLinkReader interface {
	GetDroppedLinksWithDetails() ([]domain.LinkDetail, error)
}

// SymbolTotal aggregates one canonical symbol across accounts
type SymbolTotal struct {
	Symbol         string           `json:"symbol"`
	CompanyName    *string          `json:"company_name"`
	TotalShares    decimal.Decimal  `json:"total_shares"`
	TotalCostBasis *decimal.Decimal `json:"total_cost_basis"`
	AccountCount   int              `json:"account_count"`
	Watchlists     []string         `json:"watchlists"`
	LivePrice      *decimal.Decimal `json:"live_price"`
	MarketValue    *decimal.Decimal `json:"market_value"`
}

// AllocationItem compares one active member against its equal-weight target
type AllocationItem struct {
	Symbol      string           `json:"symbol"`
	TargetValue *decimal.Decimal `json:"target_value"`
	HeldShares  decimal.Decimal  `json:"held_shares"`
	LivePrice   *decimal.Decimal `json:"live_price"`
	ActualValue *decimal.Decimal `json:"actual_value"`
	VariancePct *decimal.Decimal `json:"variance_pct"`
	Status      string           `json:"status"`
}

// Dispersion summarizes the spread of variances across a watchlist
type Dispersion struct {
	Count             int     `json:"count"`
	MeanVariancePct   float64 `json:"mean_variance_pct"`
	StdDevVariancePct float64 `json:"stddev_variance_pct"`
}

// WatchlistAllocation is the equal-weight view of one watchlist
type WatchlistAllocation struct {
	Watchlist     domain.Watchlist `json:"watchlist"`
	ActiveMembers int              `json:"active_members"`
	Target        *decimal.Decimal `json:"target_per_member"`
	BandPct       float64          `json:"band_pct"`
	Items         []AllocationItem `json:"items"`
	Dispersion    *Dispersion      `json:"dispersion"`
}

// OffTargetItem is an allocation item outside the band, tagged with its watchlist
type OffTargetItem struct {
	WatchlistID   int64  `json:"watchlist_id"`
	WatchlistName string `json:"watchlist_name"`
	AllocationItem
}

// Attention lists everything the operator should act on
type Attention struct {
	DroppedLinks []domain.LinkDetail `json:"dropped_links"`
	OffTarget    []OffTargetItem     `json:"off_target"`
}

// SummaryService builds the reconciliation views.
//
// Responsibilities:
//   - Aggregate positions per canonical symbol across accounts
//   - Compare watchlist members against their equal-weight targets
//   - Collect dropped links and off-target holdings that need attention
//
// Live prices come from an optional quote provider. Any quote error means the
// price is unknown; it never fails a view.
type SummaryService struct {
	positions  *PositionRepository
	symbols    SymbolReader
	watchlists WatchlistReader
	members    MembershipReader
	links      DroppedLinkReader
	quotes     domain.QuoteProvider
	bandPct    float64
	log        zerolog.Logger
}

// NewSummaryService creates a summary service. quotes may be nil.
func NewSummaryService(
	positions *PositionRepository,
	symbols SymbolReader,
	watchlists WatchlistReader,
	members MembershipReader,
	links DroppedLinkReader,
	quotes domain.QuoteProvider,
	bandPct float64,
	log zerolog.Logger,
) *SummaryService {
	if bandPct <= 0 {
		bandPct = DefaultBandPct
	}
	return &SummaryService{
		positions:  positions,
		symbols:    symbols,
		watchlists: watchlists,
		members:    members,
		links:      links,
		quotes:     quotes,
		bandPct:    bandPct,
		log:        log.With().Str("service", "summary").Logger(),
	}
}

// SymbolTotals aggregates every held symbol. Zero-share positions are ignored.
func (s *SummaryService) SymbolTotals(ctx context.Context) ([]SymbolTotal, error) {
	positions, err := s.positions.List()
	if err != nil {
		return nil, err
	}

	bySymbol := make(map[string]*SymbolTotal)
	var order []string
	for _, p := range positions {
		if !p.Shares.IsPositive() {
			continue
		}
		total, ok := bySymbol[p.Symbol]
		if !ok {
			total = &SymbolTotal{Symbol: p.Symbol, Watchlists: []string{}}
			bySymbol[p.Symbol] = total
			order = append(order, p.Symbol)
		}
		total.TotalShares = total.TotalShares.Add(p.Shares)
		total.AccountCount++
		if p.CostBasis != nil {
			sum := p.CostBasis.Copy()
			if total.TotalCostBasis != nil {
				sum = total.TotalCostBasis.Add(*p.CostBasis)
			}
			total.TotalCostBasis = &sum
		}
	}
	sort.Strings(order)

	result := make([]SymbolTotal, 0, len(order))
	for _, symbol := range order {
		total := bySymbol[symbol]

		info, err := s.symbols.Get(symbol)
		if err != nil {
			return nil, err
		}
		if info != nil {
			total.CompanyName = info.CompanyName
		}

		lists, err := s.members.ActiveWatchlistsForSymbol(symbol)
		if err != nil {
			return nil, err
		}
		for _, w := range lists {
			total.Watchlists = append(total.Watchlists, w.Name)
		}

		if price := s.livePrice(ctx, symbol); price != nil {
			value := total.TotalShares.Mul(*price).Round(2)
			total.LivePrice = price
			total.MarketValue = &value
		}
		result = append(result, *total)
	}
	return result, nil
}

// WatchlistAllocation compares each active member of a watchlist with its
// equal-weight target. Returns nil if the watchlist does not exist.
func (s *SummaryService) WatchlistAllocation(ctx context.Context, watchlistID int64) (*WatchlistAllocation, error) {
	w, err := s.watchlists.GetByID(watchlistID)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, nil
	}

	active, err := s.members.ActiveSymbols(watchlistID)
	if err != nil {
		return nil, err
	}

	view := &WatchlistAllocation{
		Watchlist:     *w,
		ActiveMembers: len(active),
		Target:        w.EqualWeightTarget(len(active)),
		BandPct:       s.bandPct,
		Items:         make([]AllocationItem, 0, len(active)),
	}

	var variances []float64
	for _, symbol := range active {
		item, err := s.allocationItem(ctx, symbol, view.Target)
		if err != nil {
			return nil, err
		}
		if item.VariancePct != nil {
			variances = append(variances, item.VariancePct.InexactFloat64())
		}
		view.Items = append(view.Items, item)
	}
	view.Dispersion = dispersion(variances)
	return view, nil
}

// NeedsAttention returns dropped links still held and allocation items outside the band
func (s *SummaryService) NeedsAttention(ctx context.Context) (*Attention, error) {
	dropped, err := s.links.GetDroppedLinksWithDetails()
	if err != nil {
		return nil, err
	}
	if dropped == nil {
		dropped = []domain.LinkDetail{}
	}

	lists, err := s.watchlists.List()
	if err != nil {
		return nil, err
	}

	attention := &Attention{DroppedLinks: dropped, OffTarget: []OffTargetItem{}}
	for _, w := range lists {
		if w.Allocation == nil {
			continue
		}
		view, err := s.WatchlistAllocation(ctx, w.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to build allocation for watchlist %s: %w", w.Name, err)
		}
		for _, item := range view.Items {
			if item.Status == StatusUnderweight || item.Status == StatusOverweight {
				attention.OffTarget = append(attention.OffTarget, OffTargetItem{
					WatchlistID:    w.ID,
					WatchlistName:  w.Name,
					AllocationItem: item,
				})
			}
		}
	}
	return attention, nil
}

func (s *SummaryService) allocationItem(ctx context.Context, symbol string, target *decimal.Decimal) (AllocationItem, error) {
	item := AllocationItem{Symbol: symbol, TargetValue: target, Status: StatusUnknown}

	positions, err := s.positions.ListBySymbol(symbol)
	if err != nil {
		return item, err
	}
	for _, p := range positions {
		item.HeldShares = item.HeldShares.Add(p.Shares)
	}
	if !item.HeldShares.IsPositive() {
		item.Status = StatusNotHeld
		return item, nil
	}

	item.LivePrice = s.livePrice(ctx, symbol)
	if item.LivePrice == nil {
		return item, nil
	}
	actual := item.HeldShares.Mul(*item.LivePrice).Round(2)
	item.ActualValue = &actual

	if target == nil || !target.IsPositive() {
		return item, nil
	}
	variance := actual.Sub(*target).Div(*target).Mul(decimal.NewFromInt(100)).Round(2)
	item.VariancePct = &variance
	item.Status = classify(variance, s.bandPct)
	return item, nil
}

func (s *SummaryService) livePrice(ctx context.Context, symbol string) *decimal.Decimal {
	if s.quotes == nil {
		return nil
	}
	q, err := s.quotes.Quote(ctx, symbol)
	if err != nil || q == nil || !q.Price.IsPositive() {
		if err != nil {
			s.log.Debug().Err(err).Str("symbol", symbol).Msg("No live price")
		}
		return nil
	}
	price := q.Price
	return &price
}

func classify(variancePct decimal.Decimal, bandPct float64) string {
	band := decimal.NewFromFloat(bandPct)
	switch {
	case variancePct.LessThan(band.Neg()):
		return StatusUnderweight
	case variancePct.GreaterThan(band):
		return StatusOverweight
	default:
		return StatusOnTarget
	}
}

func dispersion(variances []float64) *Dispersion {
	if len(variances) == 0 {
		return nil
	}
	if len(variances) == 1 {
		return &Dispersion{Count: 1, MeanVariancePct: variances[0]}
	}
	mean, std := stat.MeanStdDev(variances, nil)
	return &Dispersion{Count: len(variances), MeanVariancePct: mean, StdDevVariancePct: std}
}
