package coinbase

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/apd/v3"

	"tukar/pkg/core"
)

// coinbaseProduct represents one tradable product from the /products endpoint.
type coinbaseProduct struct {
	ID             string `json:"id"`
	BaseCurrency   string `json:"base_currency"`
	QuoteCurrency  string `json:"quote_currency"`
	BaseMinSize    string `json:"base_min_size"`
	BaseMaxSize    string `json:"base_max_size"`
	QuoteIncrement string `json:"quote_increment"`
	MinMarketFunds string `json:"min_market_funds"`
	MaxMarketFunds string `json:"max_market_funds"`
	Status         string `json:"status"`
}

// coinbaseTicker represents the raw ticker response. The endpoint only
// reports best bid/ask, last trade price/size, and rolling volume.
type coinbaseTicker struct {
	TradeID int64  `json:"trade_id"`
	Price   string `json:"price"`
	Size    string `json:"size"`
	Bid     string `json:"bid"`
	Ask     string `json:"ask"`
	Volume  string `json:"volume"`
	Time    string `json:"time"`
}

// coinbaseTrade covers both public trade history rows and private fill
// rows. Public rows carry "time"; fills carry "created_at", order and
// product ids, the liquidity flag, and the fee.
type coinbaseTrade struct {
	TradeID   int64  `json:"trade_id"`
	OrderID   string `json:"order_id"`
	ProductID string `json:"product_id"`
	Time      string `json:"time"`
	CreatedAt string `json:"created_at"`
	Price     string `json:"price"`
	Size      string `json:"size"`
	Side      string `json:"side"`
	Liquidity string `json:"liquidity"`
	FillFees  string `json:"fill_fees"`
	Fee       string `json:"fee"`
}

// coinbaseOrder represents the raw order record. The exchange reports
// the ordered quantity in whichever of size, funds or specified_funds
// applies to the order type.
type coinbaseOrder struct {
	ID             string `json:"id"`
	ProductID      string `json:"product_id"`
	Side           string `json:"side"`
	Type           string `json:"type"`
	Status         string `json:"status"`
	Price          string `json:"price"`
	Size           string `json:"size"`
	Funds          string `json:"funds"`
	SpecifiedFunds string `json:"specified_funds"`
	FilledSize     string `json:"filled_size"`
	ExecutedValue  string `json:"executed_value"`
	FillFees       string `json:"fill_fees"`
	CreatedAt      string `json:"created_at"`
}

// coinbaseAccount represents one currency account from /accounts.
type coinbaseAccount struct {
	ID        string `json:"id"`
	Currency  string `json:"currency"`
	Balance   string `json:"balance"`
	Available string `json:"available"`
	Hold      string `json:"hold"`
}

// coinbaseBook represents the raw order book. Levels arrive as
// [price, size, ...] arrays whose trailing element differs by depth
// level, so rows decode lazily.
type coinbaseBook struct {
	Sequence int64               `json:"sequence"`
	Bids     [][]json.RawMessage `json:"bids"`
	Asks     [][]json.RawMessage `json:"asks"`
}

// PaymentMethod describes a funding source linked to the account. Its
// ID feeds the payment_method_id parameter of deposits and withdrawals.
type PaymentMethod struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	Name     string          `json:"name"`
	Currency string          `json:"currency"`
	Info     json.RawMessage `json:"info,omitempty"`
}

// MarketIndex resolves exchange-native product ids to markets. The
// market registry implements it; normalization consults it when the
// caller cannot supply a resolved market.
type MarketIndex interface {
	MarketByID(id string) (*core.Market, bool)
}

// NormalizerConfig carries the fee schedule and precision defaults
// applied while normalizing markets. It replaces any notion of global
// mutable defaults: every Normalizer gets its own explicit copy.
type NormalizerConfig struct {
	// MakerFee is the default maker fee rate.
	MakerFee apd.Decimal
	// TakerFee is the default taker fee rate.
	TakerFee apd.Decimal
	// AmountPrecision is the decimal places applied to order sizes.
	AmountPrecision int
}

// DefaultNormalizerConfig returns the exchange's published defaults:
// 0.25% taker, zero maker, order sizes to 8 decimal places.
func DefaultNormalizerConfig() NormalizerConfig {
	return NormalizerConfig{
		TakerFee:        *apd.New(25, -4),
		AmountPrecision: 8,
	}
}

// Normalizer converts raw Coinbase Pro payloads to canonical core
// types. It is pure apart from reads of the market index and carries
// the original payload through on every record's Info field.
type Normalizer struct {
	config NormalizerConfig
	index  MarketIndex
}

// NewNormalizer creates a Normalizer with the given fee configuration
// and market index. The index may be nil when id resolution is not
// needed.
func NewNormalizer(config NormalizerConfig, index MarketIndex) *Normalizer {
	return &Normalizer{config: config, index: index}
}

// Market converts one raw product to a canonical Market. The price
// precision derives from the quote increment string, and the taker fee
// for ETH and LTC products is pinned above the configured default, a
// quirk of this exchange's fee schedule.
func (n *Normalizer) Market(raw json.RawMessage) (*core.Market, error) {
	var data coinbaseProduct
	if err := sonic.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("unmarshal product: %w", err)
	}

	market := &core.Market{
		ID:     data.ID,
		Symbol: data.BaseCurrency + "/" + data.QuoteCurrency,
		Base:   data.BaseCurrency,
		Quote:  data.QuoteCurrency,
		Active: data.Status == "online",
		Precision: core.Precision{
			Amount: n.config.AmountPrecision,
			Price:  decimalPlaces(data.QuoteIncrement),
		},
		Maker: n.config.MakerFee,
		Taker: n.takerFee(data.BaseCurrency),
		Info:  raw,
	}

	market.Limits.Amount.Min = parseOptDecimal(data.BaseMinSize)
	market.Limits.Amount.Max = parseOptDecimal(data.BaseMaxSize)
	market.Limits.Price.Min = parseOptDecimal(data.QuoteIncrement)
	market.Limits.Cost.Min = parseOptDecimal(data.MinMarketFunds)
	market.Limits.Cost.Max = parseOptDecimal(data.MaxMarketFunds)

	return market, nil
}

// Markets converts the full product listing.
func (n *Normalizer) Markets(raw json.RawMessage) ([]core.Market, error) {
	var items []json.RawMessage
	if err := sonic.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("unmarshal products: %w", err)
	}

	markets := make([]core.Market, 0, len(items))
	for _, item := range items {
		market, err := n.Market(item)
		if err != nil {
			return nil, fmt.Errorf("normalize market: %w", err)
		}
		markets = append(markets, *market)
	}
	return markets, nil
}

func (n *Normalizer) takerFee(base string) apd.Decimal {
	switch base {
	case "ETH", "LTC":
		return *apd.New(3, -3)
	}
	return n.config.TakerFee
}

// Ticker converts a raw ticker to a canonical Ticker. Fields the
// endpoint does not report stay nil; absence is an expected state.
func (n *Normalizer) Ticker(raw json.RawMessage, market *core.Market) (*core.Ticker, error) {
	var data coinbaseTicker
	if err := sonic.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("unmarshal ticker: %w", err)
	}

	ticker := &core.Ticker{
		Bid:        parseOptDecimal(data.Bid),
		Ask:        parseOptDecimal(data.Ask),
		Last:       parseOptDecimal(data.Price),
		BaseVolume: parseOptDecimal(data.Volume),
		Info:       raw,
	}
	if market != nil {
		ticker.Symbol = market.Symbol
	}

	if data.Time != "" {
		if ts, err := parseTime(data.Time); err == nil {
			ticker.Timestamp = ts
		}
	}

	return ticker, nil
}

// Trade converts one raw trade or fill to a canonical Trade.
//
// The reported side is inverted: the endpoint labels rows from the
// maker's perspective while the canonical side is the taker's. With a
// nil market the product id is resolved through the index; an
// unresolvable product leaves the symbol empty rather than failing.
func (n *Normalizer) Trade(raw json.RawMessage, market *core.Market) (*core.Trade, error) {
	var data coinbaseTrade
	if err := sonic.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("unmarshal trade: %w", err)
	}

	if market == nil && data.ProductID != "" && n.index != nil {
		if m, ok := n.index.MarketByID(data.ProductID); ok {
			market = m
		}
	}

	trade := &core.Trade{
		ID:           formatTradeID(data.TradeID),
		OrderID:      data.OrderID,
		Side:         core.Side(data.Side).Opposite(),
		TakerOrMaker: parseLiquidity(data.Liquidity),
		Price:        parseOptDecimal(data.Price),
		Amount:       parseOptDecimal(data.Size),
		Info:         raw,
	}
	if market != nil {
		trade.Symbol = market.Symbol
	}

	// Public history reports "time", private fills "created_at".
	when := data.Time
	if when == "" {
		when = data.CreatedAt
	}
	if when != "" {
		if ts, err := parseTime(when); err == nil {
			trade.Timestamp = ts
		}
	}

	feeRaw := data.FillFees
	if feeRaw == "" {
		feeRaw = data.Fee
	}
	if feeRaw != "" {
		fee := &core.Fee{Cost: parseOptDecimal(feeRaw)}
		if market != nil {
			fee.Currency = market.Quote
		}
		trade.Fee = fee
	}

	return trade, nil
}

// Trades converts a list of raw trades or fills.
func (n *Normalizer) Trades(raw json.RawMessage, market *core.Market) ([]core.Trade, error) {
	var items []json.RawMessage
	if err := sonic.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("unmarshal trades: %w", err)
	}

	trades := make([]core.Trade, 0, len(items))
	for _, item := range items {
		trade, err := n.Trade(item, market)
		if err != nil {
			return nil, fmt.Errorf("normalize trade: %w", err)
		}
		trades = append(trades, *trade)
	}
	return trades, nil
}

// Order converts one raw order to a canonical Order. The amount falls
// back through size, funds and specified_funds in that order; remaining
// is always computed from amount and filled, never sourced. Unknown
// upstream statuses pass through verbatim.
func (n *Normalizer) Order(raw json.RawMessage) (*core.Order, error) {
	var data coinbaseOrder
	if err := sonic.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}

	var market *core.Market
	if data.ProductID != "" && n.index != nil {
		if m, ok := n.index.MarketByID(data.ProductID); ok {
			market = m
		}
	}

	order := &core.Order{
		ID:     data.ID,
		Type:   core.OrderType(data.Type),
		Side:   core.Side(data.Side),
		Status: parseOrderStatus(data.Status),
		Price:  parseOptDecimal(data.Price),
		Filled: parseOptDecimal(data.FilledSize),
		Cost:   parseOptDecimal(data.ExecutedValue),
		Info:   raw,
	}
	if market != nil {
		order.Symbol = market.Symbol
	}

	for _, amount := range []string{data.Size, data.Funds, data.SpecifiedFunds} {
		if amount != "" {
			order.Amount = parseOptDecimal(amount)
			break
		}
	}

	if order.Amount != nil && order.Filled != nil {
		var remaining apd.Decimal
		if _, err := apd.BaseContext.Sub(&remaining, order.Amount, order.Filled); err != nil {
			return nil, fmt.Errorf("calculate remaining: %w", err)
		}
		order.Remaining = &remaining
	}

	if data.FillFees != "" {
		fee := &core.Fee{Cost: parseOptDecimal(data.FillFees)}
		if market != nil {
			fee.Currency = market.Quote
		}
		order.Fee = fee
	}

	if data.CreatedAt != "" {
		if ts, err := parseTime(data.CreatedAt); err == nil {
			order.Timestamp = ts
		}
	}

	return order, nil
}

// Orders converts a list of raw orders.
func (n *Normalizer) Orders(raw json.RawMessage) ([]core.Order, error) {
	var items []json.RawMessage
	if err := sonic.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("unmarshal orders: %w", err)
	}

	orders := make([]core.Order, 0, len(items))
	for _, item := range items {
		order, err := n.Order(item)
		if err != nil {
			return nil, fmt.Errorf("normalize order: %w", err)
		}
		orders = append(orders, *order)
	}
	return orders, nil
}

// Candle reshapes one upstream [time, low, high, open, close, volume]
// row into a canonical Candle. Bucket starts arrive in seconds and are
// converted to milliseconds.
func (n *Normalizer) Candle(raw json.RawMessage) (*core.Candle, error) {
	var row []json.Number
	if err := sonic.Unmarshal(raw, &row); err != nil {
		return nil, fmt.Errorf("unmarshal candle row: %w", err)
	}
	if len(row) < 6 {
		return nil, fmt.Errorf("candle row has %d fields, want 6", len(row))
	}

	sec, err := row[0].Int64()
	if err != nil {
		f, ferr := row[0].Float64()
		if ferr != nil {
			return nil, fmt.Errorf("parse candle time: %w", err)
		}
		sec = int64(f)
	}

	candle := &core.Candle{
		Timestamp: sec * 1000,
		Info:      raw,
	}

	if err := parseDecimal(&candle.Open, row[3].String()); err != nil {
		return nil, fmt.Errorf("parse open: %w", err)
	}
	if err := parseDecimal(&candle.High, row[2].String()); err != nil {
		return nil, fmt.Errorf("parse high: %w", err)
	}
	if err := parseDecimal(&candle.Low, row[1].String()); err != nil {
		return nil, fmt.Errorf("parse low: %w", err)
	}
	if err := parseDecimal(&candle.Close, row[4].String()); err != nil {
		return nil, fmt.Errorf("parse close: %w", err)
	}
	if err := parseDecimal(&candle.Volume, row[5].String()); err != nil {
		return nil, fmt.Errorf("parse volume: %w", err)
	}

	return candle, nil
}

// Candles reshapes the full candle response.
func (n *Normalizer) Candles(raw json.RawMessage) ([]core.Candle, error) {
	var rows []json.RawMessage
	if err := sonic.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("unmarshal candles: %w", err)
	}

	candles := make([]core.Candle, 0, len(rows))
	for _, row := range rows {
		candle, err := n.Candle(row)
		if err != nil {
			return nil, fmt.Errorf("normalize candle: %w", err)
		}
		candles = append(candles, *candle)
	}
	return candles, nil
}

// OrderBook converts a raw depth snapshot to a canonical OrderBook.
// The endpoint carries no timestamp, so the snapshot is stamped with
// the local receive time.
func (n *Normalizer) OrderBook(raw json.RawMessage, market *core.Market) (*core.OrderBook, error) {
	var data coinbaseBook
	if err := sonic.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("unmarshal order book: %w", err)
	}

	book := &core.OrderBook{
		Timestamp: time.Now(),
		Info:      raw,
	}
	if market != nil {
		book.Symbol = market.Symbol
	}

	bids, err := parseBookLevels(data.Bids)
	if err != nil {
		return nil, fmt.Errorf("parse bids: %w", err)
	}
	book.Bids = bids

	asks, err := parseBookLevels(data.Asks)
	if err != nil {
		return nil, fmt.Errorf("parse asks: %w", err)
	}
	book.Asks = asks

	return book, nil
}

// Balances converts the /accounts listing to canonical Balances. The
// reported total is carried as-is even when it disagrees with
// available plus hold.
func (n *Normalizer) Balances(raw json.RawMessage) (*core.Balances, error) {
	var accounts []coinbaseAccount
	if err := sonic.Unmarshal(raw, &accounts); err != nil {
		return nil, fmt.Errorf("unmarshal accounts: %w", err)
	}

	balances := &core.Balances{
		Currencies: make(map[string]core.Balance, len(accounts)),
		Info:       raw,
	}
	for _, acct := range accounts {
		balances.Currencies[acct.Currency] = core.Balance{
			Free:  parseOptDecimal(acct.Available),
			Used:  parseOptDecimal(acct.Hold),
			Total: parseOptDecimal(acct.Balance),
		}
	}
	return balances, nil
}

// PaymentMethods converts the /payment-methods listing.
func (n *Normalizer) PaymentMethods(raw json.RawMessage) ([]PaymentMethod, error) {
	var items []json.RawMessage
	if err := sonic.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("unmarshal payment methods: %w", err)
	}

	methods := make([]PaymentMethod, 0, len(items))
	for _, item := range items {
		var method PaymentMethod
		if err := sonic.Unmarshal(item, &method); err != nil {
			return nil, fmt.Errorf("unmarshal payment method: %w", err)
		}
		method.Info = item
		methods = append(methods, method)
	}
	return methods, nil
}

func parseBookLevels(levels [][]json.RawMessage) ([]core.PriceLevel, error) {
	result := make([]core.PriceLevel, 0, len(levels))

	for _, level := range levels {
		if len(level) < 2 {
			continue
		}

		var price, size string
		if err := sonic.Unmarshal(level[0], &price); err != nil {
			return nil, fmt.Errorf("decode level price: %w", err)
		}
		if err := sonic.Unmarshal(level[1], &size); err != nil {
			return nil, fmt.Errorf("decode level size: %w", err)
		}

		var pl core.PriceLevel
		if err := parseDecimal(&pl.Price, price); err != nil {
			return nil, fmt.Errorf("parse level price: %w", err)
		}
		if err := parseDecimal(&pl.Amount, size); err != nil {
			return nil, fmt.Errorf("parse level size: %w", err)
		}

		result = append(result, pl)
	}

	return result, nil
}

func parseDecimal(dest *apd.Decimal, s string) error {
	if s == "" {
		*dest = apd.Decimal{}
		return nil
	}

	_, _, err := apd.BaseContext.SetString(dest, s)
	if err != nil {
		return fmt.Errorf("set decimal from string: %w", err)
	}

	return nil
}

// parseOptDecimal parses an optional decimal field. Empty and
// malformed values normalize to nil, keeping partial payloads usable.
func parseOptDecimal(s string) *apd.Decimal {
	if s == "" {
		return nil
	}

	var dest apd.Decimal
	if _, _, err := apd.BaseContext.SetString(&dest, s); err != nil {
		return nil
	}
	return &dest
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty time string")
	}

	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time: %w", err)
	}

	return ts.UTC(), nil
}

// decimalPlaces counts the significant digits after the decimal point
// of an increment string: "0.01" yields 2, "1" and "10" yield 0.
// Trailing zeros do not count.
func decimalPlaces(s string) int {
	s = strings.TrimRight(s, "0")
	dot := strings.IndexByte(s, '.')
	if dot < 0 {
		return 0
	}
	return len(s) - dot - 1
}

func formatTradeID(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

func parseOrderStatus(s string) core.OrderStatus {
	switch s {
	case "pending", "active", "open":
		return core.StatusOpen
	case "done":
		return core.StatusClosed
	case "canceled":
		return core.StatusCanceled
	default:
		return core.OrderStatus(s)
	}
}

// parseLiquidity maps the exchange's one-letter fill flag: "T" marks
// the taker side, any other non-empty value the maker side.
func parseLiquidity(s string) core.Liquidity {
	switch s {
	case "":
		return ""
	case "T":
		return core.LiquidityTaker
	}
	return core.LiquidityMaker
}
