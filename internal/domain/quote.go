package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Quote is a point-in-time market price for a symbol
type Quote struct {
	Symbol        string          `json:"symbol"`
	Price         decimal.Decimal `json:"price"`
	PreviousClose decimal.Decimal `json:"previous_close"`
	FetchedAt     time.Time       `json:"fetched_at"`
}

// QuoteProvider supplies live prices. Callers treat any error as "no live price".
type QuoteProvider interface {
	Quote(ctx context.Context, symbol string) (*Quote, error)
}
