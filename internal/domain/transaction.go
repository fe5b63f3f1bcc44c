package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the side of a recorded trade
type TransactionType string

const (
	TransactionBuy  TransactionType = "buy"
	TransactionSell TransactionType = "sell"
)

// TransactionReason records why a trade was made
type TransactionReason string

const (
	ReasonWatchlistAdd  TransactionReason = "watchlist_add"
	ReasonWatchlistDrop TransactionReason = "watchlist_drop"
	ReasonRebalance     TransactionReason = "rebalance"
	ReasonOther         TransactionReason = "other"
)

// Transaction is an immutable record of a manually entered trade
type Transaction struct {
	ID            int64              `json:"id"`
	AccountID     int64              `json:"account_id"`
	Symbol        string             `json:"symbol"`
	Type          TransactionType    `json:"type"`
	Shares        decimal.Decimal    `json:"shares"`
	PricePerShare decimal.Decimal    `json:"price_per_share"`
	TotalAmount   decimal.Decimal    `json:"total_amount"`
	Reason        *TransactionReason `json:"reason"`
	WatchlistID   *int64             `json:"watchlist_id"`
	Notes         *string            `json:"notes"`
	ExecutedAt    time.Time          `json:"executed_at"`
	CreatedAt     time.Time          `json:"created_at"`
}

// Validate checks the trade fields and fills TotalAmount when it is zero
func (t *Transaction) Validate() error {
	if t.AccountID <= 0 {
		return fmt.Errorf("%w: account_id is required", ErrInvalidTransaction)
	}
	if t.Symbol == "" {
		return fmt.Errorf("%w: symbol is required", ErrInvalidTransaction)
	}
	if t.Type != TransactionBuy && t.Type != TransactionSell {
		return fmt.Errorf("%w: type must be buy or sell, got %q", ErrInvalidTransaction, t.Type)
	}
	if !t.Shares.IsPositive() {
		return fmt.Errorf("%w: shares must be positive", ErrInvalidTransaction)
	}
	if t.PricePerShare.IsNegative() {
		return fmt.Errorf("%w: price_per_share must not be negative", ErrInvalidTransaction)
	}
	if t.Reason != nil {
		switch *t.Reason {
		case ReasonWatchlistAdd, ReasonWatchlistDrop, ReasonRebalance, ReasonOther:
		default:
			return fmt.Errorf("%w: unknown reason %q", ErrInvalidTransaction, *t.Reason)
		}
	}
	if t.TotalAmount.IsZero() {
		t.TotalAmount = t.Shares.Mul(t.PricePerShare)
	}
	return nil
}
