package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOperation_String(t *testing.T) {
	tests := []struct {
		name string
		op   Operation
		want string
	}{
		{"fetch_markets", OpFetchMarkets, "FETCH_MARKETS"},
		{"fetch_time", OpFetchTime, "FETCH_TIME"},
		{"fetch_ticker", OpFetchTicker, "FETCH_TICKER"},
		{"fetch_order_book", OpFetchOrderBook, "FETCH_ORDER_BOOK"},
		{"fetch_trades", OpFetchTrades, "FETCH_TRADES"},
		{"fetch_ohlcv", OpFetchOHLCV, "FETCH_OHLCV"},
		{"fetch_balance", OpFetchBalance, "FETCH_BALANCE"},
		{"fetch_my_trades", OpFetchMyTrades, "FETCH_MY_TRADES"},
		{"fetch_order", OpFetchOrder, "FETCH_ORDER"},
		{"fetch_orders", OpFetchOrders, "FETCH_ORDERS"},
		{"create_order", OpCreateOrder, "CREATE_ORDER"},
		{"cancel_order", OpCancelOrder, "CANCEL_ORDER"},
		{"cancel_all_orders", OpCancelAllOrders, "CANCEL_ALL_ORDERS"},
		{"fetch_payment_methods", OpFetchPaymentMethods, "FETCH_PAYMENT_METHODS"},
		{"deposit", OpDeposit, "DEPOSIT"},
		{"withdraw", OpWithdraw, "WITHDRAW"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.op.String())
		})
	}
}
