package core

import (
	"testing"

	"github.com/cockroachdb/apd/v3"
	"github.com/stretchr/testify/assert"
)

func TestSide_Opposite(t *testing.T) {
	tests := []struct {
		name string
		side Side
		want Side
	}{
		{"buy", SideBuy, SideSell},
		{"sell", SideSell, SideBuy},
		{"unknown passes through", Side("settle"), Side("settle")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.side.Opposite())
		})
	}
}

func TestOrderStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		name     string
		status   OrderStatus
		expected bool
	}{
		{"open", StatusOpen, false},
		{"closed", StatusClosed, true},
		{"canceled", StatusCanceled, true},
		{"upstream passthrough", OrderStatus("rejected"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.status.IsTerminal())
		})
	}
}

func TestBalances_Get(t *testing.T) {
	var free, used apd.Decimal
	free.SetString("1.5")
	used.SetString("0.5")

	balances := &Balances{
		Currencies: map[string]Balance{
			"BTC": {Free: &free, Used: &used},
		},
	}

	btc, ok := balances.Get("BTC")
	assert.True(t, ok)
	assert.Equal(t, "1.5", btc.Free.String())
	assert.Equal(t, "0.5", btc.Used.String())
	assert.Nil(t, btc.Total)

	_, ok = balances.Get("ETH")
	assert.False(t, ok)
}

func TestTicker_OptionalFields(t *testing.T) {
	var bid apd.Decimal
	bid.SetString("50000.00")

	ticker := &Ticker{
		Symbol: "BTC/USD",
		Bid:    &bid,
	}

	assert.Equal(t, "BTC/USD", ticker.Symbol)
	assert.NotNil(t, ticker.Bid)
	assert.Nil(t, ticker.Ask)
	assert.Nil(t, ticker.Last)
}

func TestOrderBook(t *testing.T) {
	var price1, qty1, price2, qty2 apd.Decimal
	price1.SetString("50000.00")
	qty1.SetString("1.0")
	price2.SetString("50001.00")
	qty2.SetString("2.0")

	ob := &OrderBook{
		Symbol: "BTC/USD",
		Bids:   []PriceLevel{{Price: price1, Amount: qty1}},
		Asks:   []PriceLevel{{Price: price2, Amount: qty2}},
	}

	assert.Equal(t, "BTC/USD", ob.Symbol)
	assert.Len(t, ob.Bids, 1)
	assert.Len(t, ob.Asks, 1)
}
