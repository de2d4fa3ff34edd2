// Package coinbase implements the Exchange interface for the Coinbase
// Pro cryptocurrency exchange (formerly GDAX). It covers spot market
// data, trading, and funding transfers over the REST API.
//
// Coinbase Pro API documentation: https://docs.pro.coinbase.com
package coinbase
