// Package quotes provides a client for a Finnhub-style quote API.
// Live prices are optional everywhere they are used: callers treat any error as "no live price".
package quotes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/aristath/portwatch/internal/clientdata"
	"github.com/aristath/portwatch/internal/domain"
	"github.com/aristath/portwatch/internal/ratelimit"
	"github.com/aristath/portwatch/internal/symbols"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// DefaultBaseURL is the public Finnhub endpoint
const DefaultBaseURL = "https://finnhub.io/api/v1"

var (
	// ErrNoAPIKey is returned when no key is configured and nothing is cached
	ErrNoAPIKey = errors.New("quote API key not configured")
	// ErrRateLimited is returned when the local request budget is spent and nothing is cached
	ErrRateLimited = errors.New("quote API rate limit reached")
	// ErrUnknownSymbol is returned when the API has no price for the symbol
	ErrUnknownSymbol = errors.New("no quote for symbol")
)

// Config holds client settings
type Config struct {
	BaseURL  string
	APIKey   string
	CacheTTL time.Duration
}

// quoteResponse is the /quote payload
type quoteResponse struct {
	Current       decimal.Decimal `json:"c"`
	PreviousClose decimal.Decimal `json:"pc"`
	Timestamp     int64           `json:"t"`
}

// Client fetches quotes cache-first and falls back to stale cache on failure
type Client struct {
	baseURL    string
	apiKey     string
	ttl        time.Duration
	httpClient *http.Client
	cache      *clientdata.QuoteCache
	limiter    *ratelimit.SlidingWindow
	log        zerolog.Logger
}

// NewClient creates a new quote client.
// cache and limiter are optional; nil disables them.
func NewClient(cfg Config, cache *clientdata.QuoteCache, limiter *ratelimit.SlidingWindow, log zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = clientdata.DefaultQuoteTTL
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		ttl:     cfg.CacheTTL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		cache:   cache,
		limiter: limiter,
		log:     log.With().Str("component", "quotes").Logger(),
	}
}

var _ domain.QuoteProvider = (*Client)(nil)

// Quote returns the latest price for symbol.
// If the API cannot be used, returns stale cached data if available (stale data > no data).
func (c *Client) Quote(ctx context.Context, symbol string) (*domain.Quote, error) {
	symbol = symbols.Normalize(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}

	if q := c.fromCache(symbol, true); q != nil {
		c.log.Debug().Str("symbol", symbol).Msg("Quote cache hit")
		return q, nil
	}

	var err error
	switch {
	case c.apiKey == "":
		err = ErrNoAPIKey
	case c.limiter != nil && !c.limiter.Allow():
		err = ErrRateLimited
	default:
		var q *domain.Quote
		if q, err = c.fetch(ctx, symbol); err == nil {
			c.store(*q)
			return q, nil
		}
	}

	if stale := c.fromCache(symbol, false); stale != nil {
		c.log.Warn().Err(err).Str("symbol", symbol).Msg("Quote API unavailable, using stale cached quote")
		return stale, nil
	}
	return nil, err
}

func (c *Client) fetch(ctx context.Context, symbol string) (*domain.Quote, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("token", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/quote?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("quote API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var payload quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode quote response: %w", err)
	}
	// Unknown symbols come back as all zeros
	if payload.Current.IsZero() && payload.Timestamp == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}

	fetchedAt := time.Now().UTC()
	if payload.Timestamp > 0 {
		fetchedAt = time.Unix(payload.Timestamp, 0).UTC()
	}
	return &domain.Quote{
		Symbol:        symbol,
		Price:         payload.Current,
		PreviousClose: payload.PreviousClose,
		FetchedAt:     fetchedAt,
	}, nil
}

func (c *Client) fromCache(symbol string, freshOnly bool) *domain.Quote {
	if c.cache == nil {
		return nil
	}

	var (
		q   *domain.Quote
		err error
	)
	if freshOnly {
		q, err = c.cache.GetIfFresh(symbol)
	} else {
		q, err = c.cache.Get(symbol)
	}
	if err != nil {
		c.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to read quote cache")
		return nil
	}
	return q
}

func (c *Client) store(q domain.Quote) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Store(q, c.ttl); err != nil {
		c.log.Warn().Err(err).Str("symbol", q.Symbol).Msg("Failed to cache quote")
	}
}
