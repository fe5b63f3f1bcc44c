// Package imports parses third-party exports into positions, ratings and
// watchlist membership. Row errors are collected and never abort an import.
package imports

import "fmt"

// Source labels used for import runs
const (
	SourceSchwab       = "schwab"
	SourceSeekingAlpha = "seeking_alpha"
	SourceMotleyFool   = "motley_fool"
)

// Counts are added/updated totals for one import
type Counts struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
}

// AccountRef identifies the account a Schwab import wrote to
type AccountRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// WatchlistRef identifies the watchlist a ratings import wrote to
type WatchlistRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Result is the outcome of one import. Success is false only for structural or
// referential failures, in which case nothing was written.
type Result struct {
	Success    bool          `json:"success"`
	Message    string        `json:"message"`
	Errors     []string      `json:"errors,omitempty"`
	Positions  *Counts       `json:"positions,omitempty"`
	Symbols    *Counts       `json:"symbols,omitempty"`
	Account    *AccountRef   `json:"account,omitempty"`
	Watchlist  *WatchlistRef `json:"watchlist,omitempty"`
	Dropped    int64         `json:"dropped"`
	Reinstated int64         `json:"reinstated"`
	RunID      string        `json:"run_id,omitempty"`
}

func failed(format string, args ...any) *Result {
	return &Result{Success: false, Message: fmt.Sprintf(format, args...)}
}

// rowError records a skipped row. Row numbers are 1-based data rows.
func (r *Result) rowError(row int, symbol, format string, args ...any) {
	reason := fmt.Sprintf(format, args...)
	if symbol == "" {
		r.Errors = append(r.Errors, fmt.Sprintf("row %d: %s", row, reason))
		return
	}
	r.Errors = append(r.Errors, fmt.Sprintf("row %d (%s): %s", row, symbol, reason))
}
