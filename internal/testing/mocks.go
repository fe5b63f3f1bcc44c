package testing

import (
	"context"
	"errors"
	"sync"

	"github.com/aristath/portwatch/internal/domain"
	"github.com/shopspring/decimal"
)

// ErrNoQuote is returned by MockQuoteProvider for symbols without a price
var ErrNoQuote = errors.New("no quote")

// MockQuoteProvider is a mock implementation of domain.QuoteProvider for testing
type MockQuoteProvider struct {
	mu     sync.RWMutex
	prices map[string]decimal.Decimal
	err    error
	calls  int
}

// NewMockQuoteProvider creates a new mock quote provider
func NewMockQuoteProvider() *MockQuoteProvider {
	return &MockQuoteProvider{prices: make(map[string]decimal.Decimal)}
}

// SetPrice sets the price returned for symbol
func (m *MockQuoteProvider) SetPrice(symbol string, price float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prices[symbol] = decimal.NewFromFloat(price)
}

// SetError sets the error to return for every symbol
func (m *MockQuoteProvider) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many quotes were requested
func (m *MockQuoteProvider) Calls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls
}

// Quote returns the configured price for symbol
func (m *MockQuoteProvider) Quote(_ context.Context, symbol string) (*domain.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	price, ok := m.prices[symbol]
	if !ok {
		return nil, ErrNoQuote
	}
	return &domain.Quote{Symbol: symbol, Price: price}, nil
}
