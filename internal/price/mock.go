package price

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/abhinavkasana1/Crypto-Crash-Game/internal/model"
)

// MockOracle returns controllable fixed prices for development and testing.
// Like every Oracle it is safe for concurrent use; handlers and the engine
// share one instance when the mock source is configured.
type MockOracle struct {
	mu     sync.Mutex
	prices map[model.Currency]decimal.Decimal
	err    error
	calls  int
}

// NewMockOracle returns a mock with plausible demo prices.
func NewMockOracle() *MockOracle {
	return &MockOracle{
		prices: map[model.Currency]decimal.Decimal{
			model.BTC: decimal.NewFromInt(50000),
			model.ETH: decimal.NewFromInt(3000),
		},
	}
}

func (m *MockOracle) Name() string { return "mock" }

func (m *MockOracle) Price(_ context.Context, currency model.Currency) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return decimal.Zero, m.err
	}
	p, ok := m.prices[currency]
	if !ok {
		return decimal.Zero, ErrPriceUnavailable
	}
	return p, nil
}

// SetPrice replaces the quote for one currency.
func (m *MockOracle) SetPrice(currency model.Currency, p decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prices[currency] = p
}

// SetErr makes every subsequent Price call fail with err; nil clears it.
func (m *MockOracle) SetErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// CallCount reports how many Price calls have been served.
func (m *MockOracle) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
