package core

// Operation represents a type of action that can be performed on an exchange.
type Operation int

// Operation constants define all supported exchange operations.
const (
	// OpFetchMarkets retrieves the tradable pairs and their rules.
	OpFetchMarkets Operation = iota
	// OpFetchTime retrieves the exchange server time.
	OpFetchTime
	// OpFetchTicker retrieves the current price summary for a market.
	OpFetchTicker
	// OpFetchOrderBook retrieves a depth snapshot for a market.
	OpFetchOrderBook
	// OpFetchTrades retrieves the public trade tape for a market.
	OpFetchTrades
	// OpFetchOHLCV retrieves candlestick history for a market.
	OpFetchOHLCV
	// OpFetchBalance retrieves account balances.
	OpFetchBalance
	// OpFetchMyTrades retrieves the account's own fill history.
	OpFetchMyTrades
	// OpFetchOrder retrieves a single order by identifier.
	OpFetchOrder
	// OpFetchOrders retrieves orders, optionally filtered by status.
	OpFetchOrders
	// OpCreateOrder submits a new order.
	OpCreateOrder
	// OpCancelOrder cancels a single order by identifier.
	OpCancelOrder
	// OpCancelAllOrders cancels every open order, optionally per market.
	OpCancelAllOrders
	// OpFetchPaymentMethods retrieves the account's linked payment methods.
	OpFetchPaymentMethods
	// OpDeposit moves funds into the exchange account.
	OpDeposit
	// OpWithdraw moves funds out of the exchange account.
	OpWithdraw
)

// String returns the string representation of the operation.
func (o Operation) String() string {
	return [...]string{
		"FETCH_MARKETS",
		"FETCH_TIME",
		"FETCH_TICKER",
		"FETCH_ORDER_BOOK",
		"FETCH_TRADES",
		"FETCH_OHLCV",
		"FETCH_BALANCE",
		"FETCH_MY_TRADES",
		"FETCH_ORDER",
		"FETCH_ORDERS",
		"CREATE_ORDER",
		"CANCEL_ORDER",
		"CANCEL_ALL_ORDERS",
		"FETCH_PAYMENT_METHODS",
		"DEPOSIT",
		"WITHDRAW",
	}[o]
}
