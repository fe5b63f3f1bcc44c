// Package clientdata provides persistent caching for external API client responses.
// Entries are msgpack blobs with expiration timestamps for cache-first behavior.
package clientdata

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aristath/portwatch/internal/database"
	"github.com/aristath/portwatch/internal/domain"
	"github.com/aristath/portwatch/internal/symbols"
	"github.com/shopspring/decimal"
	"github.com/vmihailenco/msgpack/v5"
)

// DefaultQuoteTTL is how long a fetched quote counts as fresh
const DefaultQuoteTTL = 15 * time.Minute

// cachedQuote is the msgpack payload. Decimals travel as strings so no precision is lost.
type cachedQuote struct {
	Symbol        string `msgpack:"s"`
	Price         string `msgpack:"p"`
	PreviousClose string `msgpack:"pc"`
	FetchedAt     int64  `msgpack:"t"`
}

// QuoteCache stores the last fetched quote per symbol
type QuoteCache struct {
	db  *sql.DB
	now func() time.Time
}

// NewQuoteCache creates a new quote cache
func NewQuoteCache(db *sql.DB) *QuoteCache {
	return &QuoteCache{db: db, now: time.Now}
}

// WithClock replaces the cache clock. Used by tests.
func (c *QuoteCache) WithClock(now func() time.Time) *QuoteCache {
	c.now = now
	return c
}

// Store saves the quote with expiration = now + ttl.
// Uses INSERT OR REPLACE to upsert.
func (c *QuoteCache) Store(q domain.Quote, ttl time.Duration) error {
	q.Symbol = symbols.Normalize(q.Symbol)
	if q.Symbol == "" {
		return fmt.Errorf("quote symbol is required")
	}

	now := c.now()
	fetchedAt := q.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = now
	}

	data, err := msgpack.Marshal(&cachedQuote{
		Symbol:        q.Symbol,
		Price:         q.Price.String(),
		PreviousClose: q.PreviousClose.String(),
		FetchedAt:     fetchedAt.Unix(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal quote: %w", err)
	}

	_, err = c.db.Exec(`INSERT OR REPLACE INTO quote_cache (symbol, data, fetched_at, expires_at) VALUES (?, ?, ?, ?)`,
		q.Symbol, data, fetchedAt.Unix(), now.Add(ttl).Unix())
	if err != nil {
		return fmt.Errorf("failed to store quote for %s: %w", q.Symbol, err)
	}
	return nil
}

// GetIfFresh returns the quote only if it has not expired.
// Returns nil, nil if the symbol is not cached or the entry is stale.
func (c *QuoteCache) GetIfFresh(symbol string) (*domain.Quote, error) {
	return c.get(`SELECT data FROM quote_cache WHERE symbol = ? AND expires_at > ?`,
		symbols.Normalize(symbol), c.now().Unix())
}

// Get returns the quote regardless of expiration.
// Use this as a fallback when the API call fails; stale data is better than no data.
func (c *QuoteCache) Get(symbol string) (*domain.Quote, error) {
	return c.get(`SELECT data FROM quote_cache WHERE symbol = ?`, symbols.Normalize(symbol))
}

func (c *QuoteCache) get(query string, args ...any) (*domain.Quote, error) {
	var data []byte
	err := c.db.QueryRow(query, args...).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read quote cache: %w", err)
	}

	var cq cachedQuote
	if err := msgpack.Unmarshal(data, &cq); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached quote: %w", err)
	}
	price, err := decimal.NewFromString(cq.Price)
	if err != nil {
		return nil, fmt.Errorf("invalid cached price for %s: %w", cq.Symbol, err)
	}
	prevClose, err := decimal.NewFromString(cq.PreviousClose)
	if err != nil {
		return nil, fmt.Errorf("invalid cached previous close for %s: %w", cq.Symbol, err)
	}
	return &domain.Quote{
		Symbol:        cq.Symbol,
		Price:         price,
		PreviousClose: prevClose,
		FetchedAt:     database.UnixTime(cq.FetchedAt),
	}, nil
}

// DeleteExpired removes all entries where expires_at < now.
// Returns the number of rows deleted.
func (c *QuoteCache) DeleteExpired() (int64, error) {
	result, err := c.db.Exec(`DELETE FROM quote_cache WHERE expires_at < ?`, c.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired quotes: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return deleted, nil
}
