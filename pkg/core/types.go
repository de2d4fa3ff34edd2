package core

import (
	"encoding/json"
	"time"

	"github.com/cockroachdb/apd/v3"
)

// Side represents the direction of an order or trade (buy or sell).
// It is a string type so values decode and encode without translation tables.
type Side string

// Side constants define the direction of a trade.
const (
	// SideBuy indicates an order to purchase the base asset.
	SideBuy Side = "buy"
	// SideSell indicates an order to sell the base asset.
	SideSell Side = "sell"
)

// Opposite returns the inverse direction. Values other than buy or sell
// are returned unchanged.
func (s Side) Opposite() Side {
	switch s {
	case SideBuy:
		return SideSell
	case SideSell:
		return SideBuy
	}
	return s
}

// OrderType represents how an order executes on the exchange.
type OrderType string

// Order type constants define execution behavior.
const (
	// TypeLimit executes at a specified price or better.
	TypeLimit OrderType = "limit"
	// TypeMarket executes immediately at the best available price.
	TypeMarket OrderType = "market"
)

// OrderStatus represents the lifecycle state of an order.
//
// The canonical states are open, closed and canceled. Upstream statuses
// with no canonical mapping are carried through verbatim rather than
// collapsed, so callers never lose information the exchange reported.
type OrderStatus string

// Order status constants define the canonical lifecycle states.
const (
	// StatusOpen indicates the order is live on the book or pending activation.
	StatusOpen OrderStatus = "open"
	// StatusClosed indicates the order finished executing.
	StatusClosed OrderStatus = "closed"
	// StatusCanceled indicates the order was withdrawn before completion.
	StatusCanceled OrderStatus = "canceled"
)

// IsTerminal returns true if the order can no longer change state.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusClosed || s == StatusCanceled
}

// Liquidity identifies the role a fill played against the order book.
type Liquidity string

// Liquidity constants define fill roles.
const (
	// LiquidityMaker indicates the fill rested on the book before matching.
	LiquidityMaker Liquidity = "maker"
	// LiquidityTaker indicates the fill crossed the book immediately.
	LiquidityTaker Liquidity = "taker"
)

// Precision describes how many decimal places the exchange accepts for
// order amounts and prices on a market.
type Precision struct {
	// Amount is the number of decimal places allowed in order sizes.
	Amount int `json:"amount"`
	// Price is the number of decimal places allowed in order prices.
	Price int `json:"price"`
}

// MinMax bounds an order attribute. Either side may be nil when the
// exchange does not publish a bound.
type MinMax struct {
	Min *apd.Decimal `json:"min,omitempty"`
	Max *apd.Decimal `json:"max,omitempty"`
}

// Limits collects the order bounds the exchange enforces on a market.
type Limits struct {
	// Amount bounds the order size in base currency.
	Amount MinMax `json:"amount"`
	// Price bounds the order price in quote currency.
	Price MinMax `json:"price"`
	// Cost bounds the order value (price times amount) in quote currency.
	Cost MinMax `json:"cost"`
}

// Market describes one tradable pair in exchange-neutral form.
type Market struct {
	// ID is the exchange-native product identifier (e.g. "BTC-USD").
	ID string `json:"id"`
	// Symbol is the unified pair notation (e.g. "BTC/USD").
	Symbol string `json:"symbol"`
	// Base is the base currency code.
	Base string `json:"base"`
	// Quote is the quote currency code.
	Quote string `json:"quote"`
	// Active reports whether the pair currently accepts orders.
	Active bool `json:"active"`
	// Precision holds the decimal place rules for this pair.
	Precision Precision `json:"precision"`
	// Limits holds the order bounds for this pair.
	Limits Limits `json:"limits"`
	// Maker is the maker fee rate as a fraction (0.0025 means 25 bps).
	Maker apd.Decimal `json:"maker"`
	// Taker is the taker fee rate as a fraction.
	Taker apd.Decimal `json:"taker"`
	// Info is the verbatim upstream payload this record was built from.
	Info json.RawMessage `json:"info,omitempty"`
}

// Ticker is a point-in-time price summary for one market.
// Fields the exchange did not report are nil rather than zero, so a
// missing quote is never mistaken for a zero price. Not every exchange
// publishes the full set; fields absent from the venue's snapshot stay
// nil on every ticker it produces.
type Ticker struct {
	// Symbol is the unified pair notation.
	Symbol string `json:"symbol"`
	// Timestamp is when the exchange generated the snapshot.
	Timestamp time.Time `json:"timestamp"`
	// Bid is the best buy price, if reported.
	Bid *apd.Decimal `json:"bid,omitempty"`
	// Ask is the best sell price, if reported.
	Ask *apd.Decimal `json:"ask,omitempty"`
	// Last is the most recent trade price, if reported.
	Last *apd.Decimal `json:"last,omitempty"`
	// High is the highest trade price of the period, if reported.
	High *apd.Decimal `json:"high,omitempty"`
	// Low is the lowest trade price of the period, if reported.
	Low *apd.Decimal `json:"low,omitempty"`
	// Open is the first trade price of the period, if reported.
	Open *apd.Decimal `json:"open,omitempty"`
	// Close is the last trade price of the period, if reported.
	Close *apd.Decimal `json:"close,omitempty"`
	// VWAP is the volume-weighted average price, if reported.
	VWAP *apd.Decimal `json:"vwap,omitempty"`
	// Change is the absolute price change over the period, if reported.
	Change *apd.Decimal `json:"change,omitempty"`
	// Percentage is the relative price change over the period, if reported.
	Percentage *apd.Decimal `json:"percentage,omitempty"`
	// Average is the average price over the period, if reported.
	Average *apd.Decimal `json:"average,omitempty"`
	// BaseVolume is the rolling volume in base currency, if reported.
	BaseVolume *apd.Decimal `json:"base_volume,omitempty"`
	// QuoteVolume is the rolling volume in quote currency, if reported.
	QuoteVolume *apd.Decimal `json:"quote_volume,omitempty"`
	// Info is the verbatim upstream payload.
	Info json.RawMessage `json:"info,omitempty"`
}

// Fee describes the cost charged for a fill.
type Fee struct {
	// Cost is the fee amount.
	Cost *apd.Decimal `json:"cost,omitempty"`
	// Currency is the currency the fee was charged in.
	Currency string `json:"currency,omitempty"`
	// Rate is the fee rate as a fraction, when known.
	Rate *apd.Decimal `json:"rate,omitempty"`
}

// Trade represents a single execution, either from the public tape or
// from the account's own fill history.
type Trade struct {
	// ID is the exchange-assigned trade identifier.
	ID string `json:"id"`
	// OrderID links the trade to its parent order, when known.
	OrderID string `json:"order_id,omitempty"`
	// Symbol is the unified pair notation, empty if unresolvable.
	Symbol string `json:"symbol,omitempty"`
	// Side is the taker-perspective direction of the execution.
	Side Side `json:"side"`
	// TakerOrMaker is the account's role in the fill, when known.
	TakerOrMaker Liquidity `json:"taker_or_maker,omitempty"`
	// Price is the execution price.
	Price *apd.Decimal `json:"price,omitempty"`
	// Amount is the executed quantity in base currency.
	Amount *apd.Decimal `json:"amount,omitempty"`
	// Fee is the charge for this fill. Nil when the payload carried none.
	Fee *Fee `json:"fee,omitempty"`
	// Timestamp is when the trade executed.
	Timestamp time.Time `json:"timestamp"`
	// Info is the verbatim upstream payload.
	Info json.RawMessage `json:"info,omitempty"`
}

// Order represents an exchange order in exchange-neutral form.
type Order struct {
	// ID is the exchange-assigned order identifier.
	ID string `json:"id"`
	// Symbol is the unified pair notation, empty if unresolvable.
	Symbol string `json:"symbol,omitempty"`
	// Type defines how the order executes.
	Type OrderType `json:"type,omitempty"`
	// Side indicates whether this is a buy or sell order.
	Side Side `json:"side"`
	// Status is the canonical lifecycle state, or the verbatim upstream
	// status when no canonical mapping exists.
	Status OrderStatus `json:"status"`
	// Price is the limit price. Nil for market orders.
	Price *apd.Decimal `json:"price,omitempty"`
	// Amount is the ordered quantity. Nil when the exchange reported the
	// order only in quote-currency funds that cannot be restated.
	Amount *apd.Decimal `json:"amount,omitempty"`
	// Filled is the executed quantity so far.
	Filled *apd.Decimal `json:"filled,omitempty"`
	// Remaining is Amount minus Filled, when both are known.
	Remaining *apd.Decimal `json:"remaining,omitempty"`
	// Cost is the executed value in quote currency.
	Cost *apd.Decimal `json:"cost,omitempty"`
	// Fee is the accumulated fee for the order's fills.
	Fee *Fee `json:"fee,omitempty"`
	// Timestamp is when the order was created or last observed.
	Timestamp time.Time `json:"timestamp"`
	// Info is the verbatim upstream payload.
	Info json.RawMessage `json:"info,omitempty"`
}

// Candle is one OHLCV bucket.
type Candle struct {
	// Timestamp is the bucket start in Unix milliseconds.
	Timestamp int64 `json:"timestamp"`
	// Open is the first trade price in the bucket.
	Open apd.Decimal `json:"open"`
	// High is the highest trade price in the bucket.
	High apd.Decimal `json:"high"`
	// Low is the lowest trade price in the bucket.
	Low apd.Decimal `json:"low"`
	// Close is the last trade price in the bucket.
	Close apd.Decimal `json:"close"`
	// Volume is the traded base currency volume in the bucket.
	Volume apd.Decimal `json:"volume"`
	// Info is the verbatim upstream row.
	Info json.RawMessage `json:"info,omitempty"`
}

// Balance holds the funds for a single currency.
// Totals are carried as reported, never recomputed from the parts.
type Balance struct {
	// Free is the balance available for new orders.
	Free *apd.Decimal `json:"free,omitempty"`
	// Used is the balance held for open orders or pending transfers.
	Used *apd.Decimal `json:"used,omitempty"`
	// Total is the overall balance as reported by the exchange.
	Total *apd.Decimal `json:"total,omitempty"`
}

// Balances maps currency codes to their balances for one account.
type Balances struct {
	// Currencies indexes balances by currency code (e.g. "BTC").
	Currencies map[string]Balance `json:"currencies"`
	// Info is the verbatim upstream payload.
	Info json.RawMessage `json:"info,omitempty"`
}

// Get returns the balance for a currency code and whether it exists.
func (b *Balances) Get(code string) (Balance, bool) {
	bal, ok := b.Currencies[code]
	return bal, ok
}

// PriceLevel is a single aggregated level in an order book.
type PriceLevel struct {
	// Price is the limit price of the level.
	Price apd.Decimal `json:"price"`
	// Amount is the total quantity resting at the price.
	Amount apd.Decimal `json:"amount"`
}

// OrderBook is a depth snapshot for one market.
type OrderBook struct {
	// Symbol is the unified pair notation.
	Symbol string `json:"symbol"`
	// Bids are buy levels sorted by price descending.
	Bids []PriceLevel `json:"bids"`
	// Asks are sell levels sorted by price ascending.
	Asks []PriceLevel `json:"asks"`
	// Timestamp is when the snapshot was taken.
	Timestamp time.Time `json:"timestamp"`
	// Info is the verbatim upstream payload.
	Info json.RawMessage `json:"info,omitempty"`
}

// Transaction acknowledges a deposit or withdrawal request.
type Transaction struct {
	// ID is the exchange-assigned transfer identifier.
	ID string `json:"id"`
	// Info is the verbatim upstream payload.
	Info json.RawMessage `json:"info,omitempty"`
}
