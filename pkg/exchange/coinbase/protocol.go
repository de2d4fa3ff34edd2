package coinbase

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"

	"github.com/bytedance/sonic"

	"tukar/internal/nonce"
	"tukar/pkg/core"
)

const exchangeName = "coinbase"

const (
	// ProductionURL is the live REST endpoint.
	ProductionURL = "https://api.pro.coinbase.com"
	// SandboxURL is the public sandbox REST endpoint.
	SandboxURL = "https://api-public.sandbox.pro.coinbase.com"
)

// apiClass separates unauthenticated market data endpoints from signed
// account endpoints.
type apiClass int

const (
	apiPublic apiClass = iota
	apiPrivate
)

// endpoint describes one REST operation: HTTP method, path template
// with {param} placeholders, and which API class it belongs to.
type endpoint struct {
	method string
	path   string
	class  apiClass
}

// endpoints maps operations to their REST endpoints. Deposits and
// withdrawals are absent: their path depends on the funding route, so
// they go through BuildFundingRequest instead.
var endpoints = map[core.Operation]endpoint{
	core.OpFetchMarkets:        {http.MethodGet, "/products", apiPublic},
	core.OpFetchTime:           {http.MethodGet, "/time", apiPublic},
	core.OpFetchTicker:         {http.MethodGet, "/products/{id}/ticker", apiPublic},
	core.OpFetchOrderBook:      {http.MethodGet, "/products/{id}/book", apiPublic},
	core.OpFetchTrades:         {http.MethodGet, "/products/{id}/trades", apiPublic},
	core.OpFetchOHLCV:          {http.MethodGet, "/products/{id}/candles", apiPublic},
	core.OpFetchBalance:        {http.MethodGet, "/accounts", apiPrivate},
	core.OpFetchMyTrades:       {http.MethodGet, "/fills", apiPrivate},
	core.OpFetchOrder:          {http.MethodGet, "/orders/{id}", apiPrivate},
	core.OpFetchOrders:         {http.MethodGet, "/orders", apiPrivate},
	core.OpCreateOrder:         {http.MethodPost, "/orders", apiPrivate},
	core.OpCancelOrder:         {http.MethodDelete, "/orders/{id}", apiPrivate},
	core.OpCancelAllOrders:     {http.MethodDelete, "/orders", apiPrivate},
	core.OpFetchPaymentMethods: {http.MethodGet, "/payment-methods", apiPrivate},
}

// fundingRoute selects which funding channel a deposit or withdrawal
// uses, driven by which optional parameter the caller supplied.
type fundingRoute int

const (
	routePaymentMethod fundingRoute = iota
	routeCoinbaseAccount
	routeCryptoAddress
)

var depositPaths = map[fundingRoute]string{
	routePaymentMethod:   "/deposits/payment-method",
	routeCoinbaseAccount: "/deposits/coinbase-account",
}

var withdrawPaths = map[fundingRoute]string{
	routePaymentMethod:   "/withdrawals/payment-method",
	routeCoinbaseAccount: "/withdrawals/coinbase-account",
	routeCryptoAddress:   "/withdrawals/crypto",
}

// granularities maps timeframe notation to the candle bucket size in
// seconds accepted by the exchange.
var granularities = map[string]int64{
	"1m":  60,
	"5m":  300,
	"15m": 900,
	"30m": 1800,
	"1h":  3600,
	"2h":  7200,
	"4h":  14400,
	"12h": 43200,
	"1d":  86400,
	"1w":  604800,
	"1M":  2592000,
	"1y":  31536000,
}

// Protocol builds and signs HTTP requests for the exchange REST API.
// It has no per-request state; the nonce source is its only shared
// mutable collaborator and guarantees strictly increasing timestamps
// across concurrent signed requests.
type Protocol struct {
	credentials *core.Credentials
	nonce       *nonce.Source
}

// NewProtocol creates a Protocol. Credentials may be nil when only
// public endpoints will be used. A nil nonce source gets a fresh
// wall-clock-seeded one.
func NewProtocol(creds *core.Credentials, src *nonce.Source) *Protocol {
	if src == nil {
		src = nonce.New()
	}
	return &Protocol{credentials: creds, nonce: src}
}

// BuildRequest assembles the request descriptor for an operation.
// Parameters feed path placeholders first; for GET the leftovers become
// the query string and for other methods the JSON body. Private
// endpoints are signed before the descriptor is returned.
func (p *Protocol) BuildRequest(op core.Operation, params core.Params) (*core.Request, error) {
	ep, ok := endpoints[op]
	if !ok {
		return nil, fmt.Errorf("unsupported operation: %s", op)
	}
	return p.assemble(ep, params)
}

// BuildFundingRequest assembles a deposit or withdrawal request,
// picking the funding channel from the supplied parameters.
func (p *Protocol) BuildFundingRequest(op core.Operation, params core.Params) (*core.Request, error) {
	var path string
	switch op {
	case core.OpDeposit:
		route, err := depositRoute(params)
		if err != nil {
			return nil, err
		}
		path = depositPaths[route]
	case core.OpWithdraw:
		path = withdrawPaths[withdrawRoute(params)]
	default:
		return nil, fmt.Errorf("not a funding operation: %s", op)
	}
	return p.assemble(endpoint{method: http.MethodPost, path: path, class: apiPrivate}, params)
}

func (p *Protocol) assemble(ep endpoint, params core.Params) (*core.Request, error) {
	path, query := core.ExpandPath(ep.path, params)
	req := core.NewRequest(ep.method, path)

	if ep.method == http.MethodGet {
		if encoded := query.Encode(); encoded != "" {
			req.Path = path + "?" + encoded
		}
	} else if len(query) > 0 {
		body, err := sonic.Marshal(query)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		req.SetBody(body)
	}

	if ep.class == apiPrivate {
		if err := p.sign(req); err != nil {
			return nil, err
		}
	}

	return req, nil
}

// sign authenticates a request in place. The signature covers the
// nonce, the method, the path including its query string, and the
// exact body bytes the transport will send.
func (p *Protocol) sign(req *core.Request) error {
	if !p.credentials.Complete() {
		return core.NewExchangeError(exchangeName, core.ErrorTypeAuthentication, 0,
			"private endpoint requires api key, secret and passphrase")
	}

	secret, err := base64.StdEncoding.DecodeString(p.credentials.Secret)
	if err != nil {
		return core.NewExchangeError(exchangeName, core.ErrorTypeAuthentication, 0,
			"api secret is not valid base64")
	}

	timestamp := strconv.FormatInt(p.nonce.Next(), 10)
	signature := computeSignature(secret, signPayload(timestamp, req.Method, req.Path, req.Body))

	req.SetHeader("CB-ACCESS-KEY", p.credentials.APIKey)
	req.SetHeader("CB-ACCESS-SIGN", signature)
	req.SetHeader("CB-ACCESS-TIMESTAMP", timestamp)
	req.SetHeader("CB-ACCESS-PASSPHRASE", p.credentials.Passphrase)
	if len(req.Body) > 0 {
		req.SetHeader("Content-Type", "application/json")
	}
	req.SetAuth(true)

	return nil
}

// signPayload concatenates the fields the server verifies. The body is
// appended as raw bytes and contributes nothing when absent.
func signPayload(timestamp, method, requestPath string, body []byte) []byte {
	payload := make([]byte, 0, len(timestamp)+len(method)+len(requestPath)+len(body))
	payload = append(payload, timestamp...)
	payload = append(payload, method...)
	payload = append(payload, requestPath...)
	payload = append(payload, body...)
	return payload
}

// computeSignature returns the base64 HMAC-SHA256 digest of payload
// keyed with the base64-decoded secret.
func computeSignature(secret, payload []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// depositRoute picks the deposit channel from the caller's parameters.
// The exchange has no default deposit channel, so supplying neither key
// is a configuration error rather than a silent fallback.
func depositRoute(params core.Params) (fundingRoute, error) {
	if _, ok := params["payment_method_id"]; ok {
		return routePaymentMethod, nil
	}
	if _, ok := params["coinbase_account_id"]; ok {
		return routeCoinbaseAccount, nil
	}
	return 0, core.NewExchangeError(exchangeName, core.ErrorTypeNotSupported, 0,
		"deposit requires a payment_method_id or coinbase_account_id parameter")
}

// withdrawRoute picks the withdrawal channel. Unlike deposits,
// withdrawals without a funding key fall back to the crypto-address
// channel.
func withdrawRoute(params core.Params) fundingRoute {
	if _, ok := params["payment_method_id"]; ok {
		return routePaymentMethod
	}
	if _, ok := params["coinbase_account_id"]; ok {
		return routeCoinbaseAccount
	}
	return routeCryptoAddress
}
