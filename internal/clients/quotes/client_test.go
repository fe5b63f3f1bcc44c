package quotes

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aristath/portwatch/internal/clientdata"
	"github.com/aristath/portwatch/internal/domain"
	"github.com/aristath/portwatch/internal/ratelimit"
	testingpkg "github.com/aristath/portwatch/internal/testing"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, status int, body string) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/quote", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("token"))
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newCache(t *testing.T) *clientdata.QuoteCache {
	t.Helper()
	db, cleanup := testingpkg.NewTestDB(t)
	t.Cleanup(cleanup)
	return clientdata.NewQuoteCache(db.Conn())
}

func TestQuote_FetchesThenServesFromCache(t *testing.T) {
	srv, calls := newServer(t, http.StatusOK, `{"c":187.43,"pc":185.1,"t":1714572000}`)
	client := NewClient(Config{BaseURL: srv.URL, APIKey: "test-key"}, newCache(t), nil, zerolog.Nop())

	q, err := client.Quote(context.Background(), "aapl")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", q.Symbol)
	assert.Equal(t, "187.43", q.Price.String())
	assert.Equal(t, "185.1", q.PreviousClose.String())
	assert.Equal(t, int64(1714572000), q.FetchedAt.Unix())

	again, err := client.Quote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.True(t, q.Price.Equal(again.Price))
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestQuote_NoAPIKey(t *testing.T) {
	client := NewClient(Config{}, nil, nil, zerolog.Nop())
	_, err := client.Quote(context.Background(), "AAPL")
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestQuote_RateLimited(t *testing.T) {
	srv, calls := newServer(t, http.StatusOK, `{"c":10,"pc":9,"t":1714572000}`)
	limiter := ratelimit.NewSlidingWindow(1, time.Minute, nil)
	client := NewClient(Config{BaseURL: srv.URL, APIKey: "test-key"}, nil, limiter, zerolog.Nop())

	_, err := client.Quote(context.Background(), "AAPL")
	require.NoError(t, err)

	_, err = client.Quote(context.Background(), "MSFT")
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestQuote_StaleFallbackOnFailure(t *testing.T) {
	srv, _ := newServer(t, http.StatusInternalServerError, `boom`)
	cache := newCache(t)
	require.NoError(t, cache.Store(domain.Quote{Symbol: "AAPL", Price: decimal.NewFromInt(150)}, -time.Minute))

	client := NewClient(Config{BaseURL: srv.URL, APIKey: "test-key"}, cache, nil, zerolog.Nop())

	q, err := client.Quote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "150", q.Price.String())

	_, err = client.Quote(context.Background(), "MSFT")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestQuote_UnknownSymbol(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `{"c":0,"d":null,"dp":null,"h":0,"l":0,"o":0,"pc":0,"t":0}`)
	client := NewClient(Config{BaseURL: srv.URL, APIKey: "test-key"}, nil, nil, zerolog.Nop())

	_, err := client.Quote(context.Background(), "NOPE")
	assert.ErrorIs(t, err, ErrUnknownSymbol)
}

func TestQuote_TooManyRequests(t *testing.T) {
	srv, _ := newServer(t, http.StatusTooManyRequests, `{"error":"API limit reached"}`)
	client := NewClient(Config{BaseURL: srv.URL, APIKey: "test-key"}, nil, nil, zerolog.Nop())

	_, err := client.Quote(context.Background(), "AAPL")
	assert.ErrorIs(t, err, ErrRateLimited)
}
