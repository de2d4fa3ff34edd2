package coinbase

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"

	"tukar/internal/circuitbreaker"
	"tukar/internal/nonce"
	"tukar/internal/ratelimit"
	"tukar/internal/transport"
	"tukar/pkg/core"
	"tukar/pkg/exchange"
)

// defaultOHLCVLimit is the number of candle buckets requested when the
// caller gives a window start without a limit.
const defaultOHLCVLimit = 350

// CoinbaseExchange implements the Exchange interface for Coinbase Pro
// spot markets. Requests flow through a rate-limited, circuit-broken
// transport; responses flow back through the error classifier and the
// normalizer.
type CoinbaseExchange struct {
	config     *core.Config
	transport  *transport.Client
	protocol   *Protocol
	normalizer *Normalizer
	registry   *marketRegistry
	logger     zerolog.Logger
}

// Option is a functional option for configuring the CoinbaseExchange.
type Option func(*Options)

// Options holds configuration options for the CoinbaseExchange.
type Options struct {
	Logger     zerolog.Logger
	BaseURL    string
	Normalizer NormalizerConfig
}

// WithLogger returns an option that sets the logger for the exchange.
func WithLogger(l zerolog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithBaseURL returns an option that overrides the REST endpoint,
// taking precedence over the production and sandbox URLs.
func WithBaseURL(url string) Option {
	return func(o *Options) {
		o.BaseURL = url
	}
}

// WithNormalizerConfig returns an option that replaces the default fee
// and precision configuration.
func WithNormalizerConfig(cfg NormalizerConfig) Option {
	return func(o *Options) {
		o.Normalizer = cfg
	}
}

// New creates a CoinbaseExchange with the given configuration and
// options. It wires the transport with the configured rate limit tiers
// and, when enabled, a circuit breaker.
func New(config *core.Config, opts ...Option) (*CoinbaseExchange, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	options := &Options{
		Logger:     zerolog.Nop(),
		Normalizer: DefaultNormalizerConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	client := transport.NewClient(config, options.Logger)
	client.SetBaseURL(baseURL(config, options))

	limiter := ratelimit.New()
	limiter.SetTier(transport.TierPublic, config.PublicRateLimit.PerSecond, config.PublicRateLimit.Burst)
	limiter.SetTier(transport.TierPrivate, config.PrivateRateLimit.PerSecond, config.PrivateRateLimit.Burst)
	client.SetLimiter(limiter)

	if config.CircuitBreakerEnabled {
		client.SetBreaker(circuitbreaker.New(circuitbreaker.Config{
			FailThreshold:    config.CircuitBreakerFailThreshold,
			SuccessThreshold: config.CircuitBreakerSuccessThreshold,
			Timeout:          config.CircuitBreakerTimeout,
		}))
	}

	registry := newMarketRegistry()

	ex := &CoinbaseExchange{
		config:    config,
		transport: client,
		protocol:  NewProtocol(config.Credentials, nonce.New()),
		registry:  registry,
		logger:    options.Logger,
	}
	ex.normalizer = NewNormalizer(options.Normalizer, registry)

	return ex, nil
}

func baseURL(config *core.Config, options *Options) string {
	if options.BaseURL != "" {
		return options.BaseURL
	}
	if config.Sandbox {
		return SandboxURL
	}
	return ProductionURL
}

// Name returns the exchange identifier "coinbase".
func (e *CoinbaseExchange) Name() string {
	return exchangeName
}

// Close releases the underlying HTTP resources.
func (e *CoinbaseExchange) Close() error {
	return e.transport.Close()
}

// LoadMarkets fetches the product table and rebuilds the symbol and
// product-id indexes. Operations that resolve a symbol require a prior
// successful call; the table is never refreshed implicitly.
func (e *CoinbaseExchange) LoadMarkets(ctx context.Context) (map[string]*core.Market, error) {
	markets, err := e.FetchMarkets(ctx)
	if err != nil {
		return nil, err
	}
	e.registry.replace(markets)
	return e.registry.snapshot(), nil
}

// FetchMarkets retrieves the tradable products without touching the
// market table.
func (e *CoinbaseExchange) FetchMarkets(ctx context.Context, opts ...exchange.Option) ([]core.Market, error) {
	options := exchange.ApplyOptions(opts...)

	body, err := e.call(ctx, core.OpFetchMarkets, core.MergeParams(nil, options.Params))
	if err != nil {
		return nil, err
	}

	markets, err := e.normalizer.Markets(body)
	if err != nil {
		return nil, fmt.Errorf("normalize markets: %w", err)
	}
	return markets, nil
}

// FetchTime retrieves the exchange server time.
func (e *CoinbaseExchange) FetchTime(ctx context.Context) (time.Time, error) {
	body, err := e.call(ctx, core.OpFetchTime, nil)
	if err != nil {
		return time.Time{}, err
	}

	var data struct {
		ISO string `json:"iso"`
	}
	if err := sonic.Unmarshal(body, &data); err != nil {
		return time.Time{}, fmt.Errorf("unmarshal server time: %w", err)
	}

	ts, err := parseTime(data.ISO)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse server time: %w", err)
	}
	return ts, nil
}

// FetchTicker retrieves the current price summary for a symbol.
func (e *CoinbaseExchange) FetchTicker(ctx context.Context, symbol string, opts ...exchange.Option) (*core.Ticker, error) {
	options := exchange.ApplyOptions(opts...)

	market, err := e.registry.market(symbol)
	if err != nil {
		return nil, err
	}

	body, err := e.call(ctx, core.OpFetchTicker, core.MergeParams(core.Params{"id": market.ID}, options.Params))
	if err != nil {
		return nil, err
	}

	ticker, err := e.normalizer.Ticker(body, market)
	if err != nil {
		return nil, fmt.Errorf("normalize ticker: %w", err)
	}
	return ticker, nil
}

// FetchOrderBook retrieves a depth snapshot for a symbol. It requests
// aggregated level 2 depth unless the caller overrides the level
// parameter.
func (e *CoinbaseExchange) FetchOrderBook(ctx context.Context, symbol string, opts ...exchange.Option) (*core.OrderBook, error) {
	options := exchange.ApplyOptions(opts...)

	market, err := e.registry.market(symbol)
	if err != nil {
		return nil, err
	}

	params := core.MergeParams(core.Params{"id": market.ID}, options.Params)
	if _, ok := params["level"]; !ok {
		params["level"] = 2
	}

	body, err := e.call(ctx, core.OpFetchOrderBook, params)
	if err != nil {
		return nil, err
	}

	book, err := e.normalizer.OrderBook(body, market)
	if err != nil {
		return nil, fmt.Errorf("normalize order book: %w", err)
	}
	return book, nil
}

// FetchTrades streams the public trade history for a symbol. Sides come
// out in taker perspective, the inverse of the upstream labeling.
func (e *CoinbaseExchange) FetchTrades(ctx context.Context, symbol string, opts ...exchange.Option) iter.Seq2[*core.Trade, error] {
	return func(yield func(*core.Trade, error) bool) {
		options := exchange.ApplyOptions(opts...)

		market, err := e.registry.market(symbol)
		if err != nil {
			yield(nil, err)
			return
		}

		params := core.MergeParams(core.Params{"id": market.ID}, options.Params)
		if options.Limit > 0 {
			params["limit"] = options.Limit
		}

		body, err := e.call(ctx, core.OpFetchTrades, params)
		if err != nil {
			yield(nil, err)
			return
		}

		trades, err := e.normalizer.Trades(body, market)
		if err != nil {
			yield(nil, fmt.Errorf("normalize trades: %w", err))
			return
		}

		for i := range trades {
			if !yield(&trades[i], nil) {
				return
			}
		}
	}
}

// FetchMyTrades streams the account's fill history for a symbol.
func (e *CoinbaseExchange) FetchMyTrades(ctx context.Context, symbol string, opts ...exchange.Option) iter.Seq2[*core.Trade, error] {
	return func(yield func(*core.Trade, error) bool) {
		options := exchange.ApplyOptions(opts...)

		market, err := e.registry.market(symbol)
		if err != nil {
			yield(nil, err)
			return
		}

		params := core.MergeParams(core.Params{"product_id": market.ID}, options.Params)
		if options.Limit > 0 {
			params["limit"] = options.Limit
		}

		body, err := e.call(ctx, core.OpFetchMyTrades, params)
		if err != nil {
			yield(nil, err)
			return
		}

		trades, err := e.normalizer.Trades(body, market)
		if err != nil {
			yield(nil, fmt.Errorf("normalize fills: %w", err))
			return
		}

		for i := range trades {
			if !yield(&trades[i], nil) {
				return
			}
		}
	}
}

// FetchOHLCV retrieves candle history for a symbol. The timeframe must
// be one of the granularities the exchange accepts. When Since is set,
// the requested window spans Limit buckets (default 350) from that time.
func (e *CoinbaseExchange) FetchOHLCV(ctx context.Context, symbol, timeframe string, opts ...exchange.Option) ([]core.Candle, error) {
	options := exchange.ApplyOptions(opts...)

	market, err := e.registry.market(symbol)
	if err != nil {
		return nil, err
	}

	granularity, ok := granularities[timeframe]
	if !ok {
		return nil, core.NewExchangeError(exchangeName, core.ErrorTypeNotSupported, 0,
			fmt.Sprintf("timeframe %s is not supported", timeframe))
	}

	params := core.MergeParams(core.Params{
		"id":          market.ID,
		"granularity": granularity,
	}, options.Params)

	if !options.Since.IsZero() {
		limit := options.Limit
		if limit <= 0 {
			limit = defaultOHLCVLimit
		}
		start := options.Since.UTC()
		// limit*granularity can reach centuries; time.Duration cannot,
		// so the window end is computed in whole seconds.
		end := time.Unix(start.Unix()+granularity*int64(limit), 0).UTC()
		params["start"] = start.Format(time.RFC3339)
		params["end"] = end.Format(time.RFC3339)
	}

	body, err := e.call(ctx, core.OpFetchOHLCV, params)
	if err != nil {
		return nil, err
	}

	candles, err := e.normalizer.Candles(body)
	if err != nil {
		return nil, fmt.Errorf("normalize candles: %w", err)
	}
	return candles, nil
}

// FetchBalance retrieves the account balances for every currency.
func (e *CoinbaseExchange) FetchBalance(ctx context.Context, opts ...exchange.Option) (*core.Balances, error) {
	options := exchange.ApplyOptions(opts...)

	body, err := e.call(ctx, core.OpFetchBalance, core.MergeParams(nil, options.Params))
	if err != nil {
		return nil, err
	}

	balances, err := e.normalizer.Balances(body)
	if err != nil {
		return nil, fmt.Errorf("normalize balances: %w", err)
	}
	return balances, nil
}

// CreateOrder submits a new order and returns the normalized record the
// exchange acknowledged it with.
func (e *CoinbaseExchange) CreateOrder(ctx context.Context, req *exchange.OrderRequest, opts ...exchange.Option) (*core.Order, error) {
	options := exchange.ApplyOptions(opts...)

	market, err := e.registry.market(req.Symbol)
	if err != nil {
		return nil, err
	}

	required := core.Params{
		"product_id": market.ID,
		"side":       string(req.Side),
		"type":       string(req.Type),
		"size":       req.Amount.String(),
	}
	if req.Type == core.TypeLimit {
		if req.Price == nil {
			return nil, core.NewExchangeError(exchangeName, core.ErrorTypeInvalidOrder, 0,
				"limit orders require a price")
		}
		required["price"] = req.Price.String()
	}

	body, err := e.call(ctx, core.OpCreateOrder, core.MergeParams(required, options.Params))
	if err != nil {
		return nil, err
	}

	order, err := e.normalizer.Order(body)
	if err != nil {
		return nil, fmt.Errorf("normalize order: %w", err)
	}
	return order, nil
}

// CancelOrder cancels one order by id. The exchange acknowledges with
// the bare order id, so there is no record to return.
func (e *CoinbaseExchange) CancelOrder(ctx context.Context, id string, opts ...exchange.Option) error {
	options := exchange.ApplyOptions(opts...)

	_, err := e.call(ctx, core.OpCancelOrder, core.MergeParams(core.Params{"id": id}, options.Params))
	return err
}

// CancelAllOrders cancels every open order, restricted to one product
// when a symbol is given, and returns the canceled order ids.
func (e *CoinbaseExchange) CancelAllOrders(ctx context.Context, symbol string, opts ...exchange.Option) ([]string, error) {
	options := exchange.ApplyOptions(opts...)

	required := core.Params{}
	if symbol != "" {
		market, err := e.registry.market(symbol)
		if err != nil {
			return nil, err
		}
		required["product_id"] = market.ID
	}

	body, err := e.call(ctx, core.OpCancelAllOrders, core.MergeParams(required, options.Params))
	if err != nil {
		return nil, err
	}

	var ids []string
	if err := sonic.Unmarshal(body, &ids); err != nil {
		return nil, fmt.Errorf("unmarshal canceled ids: %w", err)
	}
	return ids, nil
}

// FetchOrder retrieves one order by id.
func (e *CoinbaseExchange) FetchOrder(ctx context.Context, id string, opts ...exchange.Option) (*core.Order, error) {
	options := exchange.ApplyOptions(opts...)

	body, err := e.call(ctx, core.OpFetchOrder, core.MergeParams(core.Params{"id": id}, options.Params))
	if err != nil {
		return nil, err
	}

	order, err := e.normalizer.Order(body)
	if err != nil {
		return nil, fmt.Errorf("normalize order: %w", err)
	}
	return order, nil
}

// FetchOrders retrieves orders in every state, restricted to one
// product when a symbol is given.
func (e *CoinbaseExchange) FetchOrders(ctx context.Context, symbol string, opts ...exchange.Option) ([]core.Order, error) {
	return e.fetchOrdersWithStatus(ctx, symbol, "all", opts...)
}

// FetchOpenOrders retrieves orders still working on the book.
func (e *CoinbaseExchange) FetchOpenOrders(ctx context.Context, symbol string, opts ...exchange.Option) ([]core.Order, error) {
	return e.fetchOrdersWithStatus(ctx, symbol, "", opts...)
}

// FetchClosedOrders retrieves orders that finished executing.
func (e *CoinbaseExchange) FetchClosedOrders(ctx context.Context, symbol string, opts ...exchange.Option) ([]core.Order, error) {
	return e.fetchOrdersWithStatus(ctx, symbol, "done", opts...)
}

func (e *CoinbaseExchange) fetchOrdersWithStatus(ctx context.Context, symbol, status string, opts ...exchange.Option) ([]core.Order, error) {
	options := exchange.ApplyOptions(opts...)

	required := core.Params{}
	if status != "" {
		required["status"] = status
	}
	if symbol != "" {
		market, err := e.registry.market(symbol)
		if err != nil {
			return nil, err
		}
		required["product_id"] = market.ID
	}
	if options.Limit > 0 {
		required["limit"] = options.Limit
	}

	body, err := e.call(ctx, core.OpFetchOrders, core.MergeParams(required, options.Params))
	if err != nil {
		return nil, err
	}

	orders, err := e.normalizer.Orders(body)
	if err != nil {
		return nil, fmt.Errorf("normalize orders: %w", err)
	}
	return orders, nil
}

// FetchPaymentMethods retrieves the funding sources linked to the
// account. Their ids feed the deposit and withdrawal routing
// parameters.
func (e *CoinbaseExchange) FetchPaymentMethods(ctx context.Context, opts ...exchange.Option) ([]PaymentMethod, error) {
	options := exchange.ApplyOptions(opts...)

	body, err := e.call(ctx, core.OpFetchPaymentMethods, core.MergeParams(nil, options.Params))
	if err != nil {
		return nil, err
	}

	methods, err := e.normalizer.PaymentMethods(body)
	if err != nil {
		return nil, fmt.Errorf("normalize payment methods: %w", err)
	}
	return methods, nil
}

// Deposit moves funds into the account from a linked funding source.
// The caller selects the source by passing payment_method_id or
// coinbase_account_id through WithParams; there is no default channel.
func (e *CoinbaseExchange) Deposit(ctx context.Context, req *exchange.FundingRequest, opts ...exchange.Option) (*core.Transaction, error) {
	return e.fund(ctx, core.OpDeposit, req, opts...)
}

// Withdraw moves funds out of the account. Without a funding source
// parameter it uses the crypto-address channel, which requires a
// destination address on the request.
func (e *CoinbaseExchange) Withdraw(ctx context.Context, req *exchange.FundingRequest, opts ...exchange.Option) (*core.Transaction, error) {
	return e.fund(ctx, core.OpWithdraw, req, opts...)
}

func (e *CoinbaseExchange) fund(ctx context.Context, op core.Operation, req *exchange.FundingRequest, opts ...exchange.Option) (*core.Transaction, error) {
	options := exchange.ApplyOptions(opts...)

	required := core.Params{
		"currency": strings.ToUpper(req.Currency),
		"amount":   req.Amount.String(),
	}
	if op == core.OpWithdraw && withdrawRoute(options.Params) == routeCryptoAddress {
		if req.Address == "" {
			return nil, core.NewExchangeError(exchangeName, core.ErrorTypeBadRequest, 0,
				"crypto withdrawals require a destination address")
		}
		required["crypto_address"] = req.Address
	}

	protoReq, err := e.protocol.BuildFundingRequest(op, core.MergeParams(required, options.Params))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	body, err := e.send(ctx, protoReq)
	if err != nil {
		return nil, err
	}

	var data struct {
		ID string `json:"id"`
	}
	if err := sonic.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("unmarshal transfer: %w", err)
	}
	return &core.Transaction{ID: data.ID, Info: body}, nil
}

func (e *CoinbaseExchange) call(ctx context.Context, op core.Operation, params core.Params) (json.RawMessage, error) {
	req, err := e.protocol.BuildRequest(op, params)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	return e.send(ctx, req)
}

func (e *CoinbaseExchange) send(ctx context.Context, req *core.Request) (json.RawMessage, error) {
	resp, err := e.transport.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := checkResponse(resp); err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// Register creates a CoinbaseExchange and registers it with the
// container. This is a convenience function for dependency injection
// setup.
func Register(container *exchange.Container, config *core.Config, opts ...Option) error {
	ex, err := New(config, opts...)
	if err != nil {
		return fmt.Errorf("create coinbase exchange: %w", err)
	}
	container.Register(exchangeName, ex)
	return nil
}
