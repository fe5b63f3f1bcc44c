// Package domain provides the core portfolio, watchlist and rating models
// together with the per-entity merge rules applied by every upsert.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// WatchlistSource is the rating service a watchlist is sourced from
type WatchlistSource string

const (
	SourceSeekingAlpha WatchlistSource = "seeking_alpha"
	SourceMotleyFool   WatchlistSource = "motley_fool"
)

// Valid reports whether s is a supported rating service
func (s WatchlistSource) Valid() bool {
	return s == SourceSeekingAlpha || s == SourceMotleyFool
}

// LinkStatus is the state of a position/watchlist link
type LinkStatus string

const (
	LinkActive  LinkStatus = "active"
	LinkDropped LinkStatus = "dropped"
)

// Symbol is a canonical ticker with optional enrichment data
type Symbol struct {
	Symbol      string    `json:"symbol"`
	CompanyName *string   `json:"company_name"`
	Sector      *string   `json:"sector"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Account is a brokerage account identified by its unique name
type Account struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Broker        string    `json:"broker"`
	AccountNumber *string   `json:"account_number"` // masked, e.g. "...1234"
	CreatedAt     time.Time `json:"created_at"`
}

// Position is the holding of one symbol in one account
type Position struct {
	ID        int64            `json:"id"`
	AccountID int64            `json:"account_id"`
	Symbol    string           `json:"symbol"`
	Shares    decimal.Decimal  `json:"shares"`
	CostBasis *decimal.Decimal `json:"cost_basis"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Watchlist is a named collection of recommendations from one rating service
type Watchlist struct {
	ID         int64            `json:"id"`
	Name       string           `json:"name"`
	Source     WatchlistSource  `json:"source"`
	Allocation *decimal.Decimal `json:"allocation"`
	CreatedAt  time.Time        `json:"created_at"`
}

// EqualWeightTarget returns allocation / activeMembers, or nil when the
// watchlist has no allocation or no active members.
func (w Watchlist) EqualWeightTarget(activeMembers int) *decimal.Decimal {
	if w.Allocation == nil || activeMembers <= 0 {
		return nil
	}
	target := w.Allocation.Div(decimal.NewFromInt(int64(activeMembers))).Round(2)
	return &target
}

// WatchlistMember is one membership interval of a symbol in a watchlist.
// Rows are never updated except to set RemovedAt; a re-add appends a new row.
type WatchlistMember struct {
	ID          int64      `json:"id"`
	WatchlistID int64      `json:"watchlist_id"`
	Symbol      string     `json:"symbol"`
	AddedAt     time.Time  `json:"added_at"`
	RemovedAt   *time.Time `json:"removed_at"`
}

// Active reports whether the membership is current
func (m WatchlistMember) Active() bool {
	return m.RemovedAt == nil
}

// SeekingAlphaRating holds the Seeking Alpha scores for a symbol in a watchlist
type SeekingAlphaRating struct {
	ID                 int64            `json:"id"`
	Symbol             string           `json:"symbol"`
	WatchlistID        int64            `json:"watchlist_id"`
	QuantScore         *decimal.Decimal `json:"quant_score"`
	SAAnalystScore     *decimal.Decimal `json:"sa_analyst_score"`
	WallStScore        *decimal.Decimal `json:"wall_st_score"`
	ValuationGrade     *string          `json:"valuation_grade"`
	GrowthGrade        *string          `json:"growth_grade"`
	ProfitabilityGrade *string          `json:"profitability_grade"`
	MomentumGrade      *string          `json:"momentum_grade"`
	EPSRevisionGrade   *string          `json:"eps_revision_grade"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// RiskTag is the Motley Fool risk classification
type RiskTag string

const (
	RiskAggressive RiskTag = "Aggressive"
	RiskModerate   RiskTag = "Moderate"
	RiskCautious   RiskTag = "Cautious"
)

// MotleyFoolRating holds the Motley Fool scorecard for a symbol in a watchlist
type MotleyFoolRating struct {
	ID               int64            `json:"id"`
	Symbol           string           `json:"symbol"`
	WatchlistID      int64            `json:"watchlist_id"`
	RecDate          *time.Time       `json:"rec_date"`
	CostBasis        *decimal.Decimal `json:"cost_basis"`
	Quant5Y          *decimal.Decimal `json:"quant_5y"`
	Allocation       *decimal.Decimal `json:"allocation"`
	EstLowReturn     *decimal.Decimal `json:"est_low_return"`
	EstHighReturn    *decimal.Decimal `json:"est_high_return"`
	EstMaxDrawdown   *decimal.Decimal `json:"est_max_drawdown"`
	RiskTag          *RiskTag         `json:"risk_tag"`
	TimesRecommended *int64           `json:"times_recommended"`
	FCFGrowth1Y      *decimal.Decimal `json:"fcf_growth_1y"`
	GrossMargin      *decimal.Decimal `json:"gross_margin"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// Link tracks whether a watchlist still recommends the symbol of a held position
type Link struct {
	ID          int64      `json:"-"`
	PositionID  int64      `json:"position_id"`
	WatchlistID int64      `json:"watchlist_id"`
	Status      LinkStatus `json:"status"`
	LinkedAt    time.Time  `json:"linked_at"`
	DroppedAt   *time.Time `json:"dropped_at"`
}

// LinkDetail is a link joined to its position, symbol and watchlist
type LinkDetail struct {
	Link
	WatchlistName string          `json:"watchlist_name"`
	Symbol        string          `json:"symbol"`
	CompanyName   *string         `json:"company_name"`
	Shares        decimal.Decimal `json:"shares"`
	AccountName   string          `json:"account_name"`
}
