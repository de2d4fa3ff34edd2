package exchange

import (
	"context"
	"iter"
	"time"

	"github.com/cockroachdb/apd/v3"

	"tukar/pkg/core"
)

// Exchange defines the unified interface for interacting with
// cryptocurrency exchange REST APIs. All implementations provide market
// data retrieval, account management, order execution, and funding
// transfers, normalized to the canonical types in pkg/core.
//
// Operations that resolve a trading symbol require LoadMarkets to have
// been called first; implementations never refresh the market table on
// their own.
type Exchange interface {
	Name() string

	LoadMarkets(ctx context.Context) (map[string]*core.Market, error)
	FetchMarkets(ctx context.Context, opts ...Option) ([]core.Market, error)
	FetchTime(ctx context.Context) (time.Time, error)

	FetchTicker(ctx context.Context, symbol string, opts ...Option) (*core.Ticker, error)
	FetchOrderBook(ctx context.Context, symbol string, opts ...Option) (*core.OrderBook, error)
	FetchTrades(ctx context.Context, symbol string, opts ...Option) iter.Seq2[*core.Trade, error]
	FetchOHLCV(ctx context.Context, symbol, timeframe string, opts ...Option) ([]core.Candle, error)

	FetchBalance(ctx context.Context, opts ...Option) (*core.Balances, error)
	FetchMyTrades(ctx context.Context, symbol string, opts ...Option) iter.Seq2[*core.Trade, error]

	CreateOrder(ctx context.Context, req *OrderRequest, opts ...Option) (*core.Order, error)
	CancelOrder(ctx context.Context, id string, opts ...Option) error
	CancelAllOrders(ctx context.Context, symbol string, opts ...Option) ([]string, error)
	FetchOrder(ctx context.Context, id string, opts ...Option) (*core.Order, error)
	FetchOrders(ctx context.Context, symbol string, opts ...Option) ([]core.Order, error)
	FetchOpenOrders(ctx context.Context, symbol string, opts ...Option) ([]core.Order, error)
	FetchClosedOrders(ctx context.Context, symbol string, opts ...Option) ([]core.Order, error)

	Deposit(ctx context.Context, req *FundingRequest, opts ...Option) (*core.Transaction, error)
	Withdraw(ctx context.Context, req *FundingRequest, opts ...Option) (*core.Transaction, error)
}

// OrderRequest contains the parameters required to place a new order.
type OrderRequest struct {
	// Symbol is the unified pair notation (e.g. "BTC/USD").
	Symbol string
	// Side is the order direction.
	Side core.Side
	// Type selects limit or market execution.
	Type core.OrderType
	// Amount is the order size in base currency.
	Amount apd.Decimal
	// Price is the limit price. Required for limit orders, ignored for
	// market orders.
	Price *apd.Decimal
}

// FundingRequest contains the parameters for a deposit or withdrawal.
// Routing between the exchange's funding channels is driven by the
// extra parameters passed via WithParams; see the adapter documentation.
type FundingRequest struct {
	// Currency is the currency code to transfer (e.g. "BTC").
	Currency string
	// Amount is the quantity to transfer.
	Amount apd.Decimal
	// Address is the destination for crypto withdrawals.
	Address string
}
