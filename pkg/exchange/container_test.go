package exchange

import (
	"context"
	"iter"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tukar/pkg/core"
)

type mockExchange struct {
	name string
}

func (m *mockExchange) Name() string { return m.name }
func (m *mockExchange) LoadMarkets(ctx context.Context) (map[string]*core.Market, error) {
	return nil, nil
}
func (m *mockExchange) FetchMarkets(ctx context.Context, opts ...Option) ([]core.Market, error) {
	return nil, nil
}
func (m *mockExchange) FetchTime(ctx context.Context) (time.Time, error) {
	return time.Time{}, nil
}
func (m *mockExchange) FetchTicker(ctx context.Context, s string, opts ...Option) (*core.Ticker, error) {
	return nil, nil
}
func (m *mockExchange) FetchOrderBook(ctx context.Context, s string, opts ...Option) (*core.OrderBook, error) {
	return nil, nil
}
func (m *mockExchange) FetchTrades(ctx context.Context, s string, opts ...Option) iter.Seq2[*core.Trade, error] {
	return nil
}
func (m *mockExchange) FetchOHLCV(ctx context.Context, s, tf string, opts ...Option) ([]core.Candle, error) {
	return nil, nil
}
func (m *mockExchange) FetchBalance(ctx context.Context, opts ...Option) (*core.Balances, error) {
	return nil, nil
}
func (m *mockExchange) FetchMyTrades(ctx context.Context, s string, opts ...Option) iter.Seq2[*core.Trade, error] {
	return nil
}
func (m *mockExchange) CreateOrder(ctx context.Context, req *OrderRequest, opts ...Option) (*core.Order, error) {
	return nil, nil
}
func (m *mockExchange) CancelOrder(ctx context.Context, id string, opts ...Option) error {
	return nil
}
func (m *mockExchange) CancelAllOrders(ctx context.Context, s string, opts ...Option) ([]string, error) {
	return nil, nil
}
func (m *mockExchange) FetchOrder(ctx context.Context, id string, opts ...Option) (*core.Order, error) {
	return nil, nil
}
func (m *mockExchange) FetchOrders(ctx context.Context, s string, opts ...Option) ([]core.Order, error) {
	return nil, nil
}
func (m *mockExchange) FetchOpenOrders(ctx context.Context, s string, opts ...Option) ([]core.Order, error) {
	return nil, nil
}
func (m *mockExchange) FetchClosedOrders(ctx context.Context, s string, opts ...Option) ([]core.Order, error) {
	return nil, nil
}
func (m *mockExchange) Deposit(ctx context.Context, req *FundingRequest, opts ...Option) (*core.Transaction, error) {
	return nil, nil
}
func (m *mockExchange) Withdraw(ctx context.Context, req *FundingRequest, opts ...Option) (*core.Transaction, error) {
	return nil, nil
}

func TestContainer_NewContainer(t *testing.T) {
	c := NewContainer()
	assert.NotNil(t, c)
	assert.NotNil(t, c.exchanges)
}

func TestContainer_Register(t *testing.T) {
	c := NewContainer()
	ex := &mockExchange{name: "coinbase"}

	c.Register("coinbase", ex)

	assert.True(t, c.Exists("coinbase"))
}

func TestContainer_Get(t *testing.T) {
	c := NewContainer()
	ex := &mockExchange{name: "coinbase"}
	c.Register("coinbase", ex)

	got, err := c.Get("coinbase")
	require.NoError(t, err)
	assert.Equal(t, "coinbase", got.Name())

	_, err = c.Get("notfound")
	assert.Error(t, err)
}

func TestContainer_Names(t *testing.T) {
	c := NewContainer()
	c.Register("coinbase", &mockExchange{name: "coinbase"})
	c.Register("coinbase-sandbox", &mockExchange{name: "coinbase-sandbox"})

	names := c.Names()
	assert.Len(t, names, 2)
	assert.Contains(t, names, "coinbase")
	assert.Contains(t, names, "coinbase-sandbox")
}

func TestContainer_All(t *testing.T) {
	c := NewContainer()
	c.Register("a", &mockExchange{name: "a"})
	c.Register("b", &mockExchange{name: "b"})

	seen := make(map[string]string)
	for name, ex := range c.All() {
		seen[name] = ex.Name()
	}

	assert.Equal(t, map[string]string{"a": "a", "b": "b"}, seen)
}

func TestContainer_Unregister(t *testing.T) {
	c := NewContainer()
	c.Register("coinbase", &mockExchange{name: "coinbase"})

	c.Unregister("coinbase")

	assert.False(t, c.Exists("coinbase"))
}

func TestApplyOptions(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		opts := ApplyOptions()
		assert.Equal(t, 0, opts.Limit)
		assert.True(t, opts.Since.IsZero())
		assert.Nil(t, opts.Params)
	})

	t.Run("with all options", func(t *testing.T) {
		since := time.Date(2018, 3, 1, 0, 0, 0, 0, time.UTC)
		opts := ApplyOptions(
			WithLimit(100),
			WithSince(since),
			WithParams(core.Params{"level": 3}),
		)
		assert.Equal(t, 100, opts.Limit)
		assert.Equal(t, since, opts.Since)
		assert.Equal(t, core.Params{"level": 3}, opts.Params)
	})

	t.Run("params accumulate", func(t *testing.T) {
		opts := ApplyOptions(
			WithParams(core.Params{"a": 1, "b": 1}),
			WithParams(core.Params{"b": 2}),
		)
		assert.Equal(t, core.Params{"a": 1, "b": 2}, opts.Params)
	})
}
