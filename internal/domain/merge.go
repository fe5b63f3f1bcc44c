package domain

import "github.com/shopspring/decimal"

// Merge rules. Each upsert in the repositories reads the stored row and applies
// exactly one of these before writing it back:
//
//   - Symbol: preserve-if-absent. A supplied name or sector replaces the stored
//     one, an absent one never clears it.
//   - Position: shares always replace, cost basis preserve-if-absent.
//   - Ratings: full replace. The incoming row overwrites every field, unset
//     fields included.

// SymbolUpdate is a partial update of a Symbol. Nil or empty fields are absent.
type SymbolUpdate struct {
	Symbol      string
	CompanyName *string
	Sector      *string
}

// MergeSymbol applies u to existing (which may be nil for a new symbol)
func MergeSymbol(existing *Symbol, u SymbolUpdate) Symbol {
	merged := Symbol{Symbol: u.Symbol}
	if existing != nil {
		merged = *existing
	}
	if present(u.CompanyName) {
		merged.CompanyName = u.CompanyName
	}
	if present(u.Sector) {
		merged.Sector = u.Sector
	}
	return merged
}

// SymbolChanged reports whether merging u into existing would change it
func SymbolChanged(existing Symbol, u SymbolUpdate) bool {
	merged := MergeSymbol(&existing, u)
	return !equalStringPtr(merged.CompanyName, existing.CompanyName) ||
		!equalStringPtr(merged.Sector, existing.Sector)
}

// PositionUpdate is an import-side update of a Position
type PositionUpdate struct {
	AccountID int64
	Symbol    string
	Shares    decimal.Decimal
	CostBasis *decimal.Decimal
}

// MergePosition applies u to existing (which may be nil for a new position)
func MergePosition(existing *Position, u PositionUpdate) Position {
	merged := Position{AccountID: u.AccountID, Symbol: u.Symbol}
	if existing != nil {
		merged = *existing
	}
	merged.Shares = u.Shares
	if u.CostBasis != nil {
		cb := *u.CostBasis
		merged.CostBasis = &cb
	}
	return merged
}

// ReplaceSeekingAlphaRating returns incoming carrying the identity of existing
func ReplaceSeekingAlphaRating(existing *SeekingAlphaRating, incoming SeekingAlphaRating) SeekingAlphaRating {
	if existing != nil {
		incoming.ID = existing.ID
	}
	return incoming
}

// ReplaceMotleyFoolRating returns incoming carrying the identity of existing
func ReplaceMotleyFoolRating(existing *MotleyFoolRating, incoming MotleyFoolRating) MotleyFoolRating {
	if existing != nil {
		incoming.ID = existing.ID
	}
	return incoming
}

func present(s *string) bool {
	return s != nil && *s != ""
}

func equalStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
