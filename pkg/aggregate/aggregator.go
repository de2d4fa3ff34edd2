// Package aggregate sweeps market quotes across a list of products on
// one exchange and reduces them to comparable top-of-book views.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/rs/zerolog"

	"tukar/pkg/core"
	"tukar/pkg/exchange"
)

// decimalCtx performs the divisions behind relative spreads. Division
// needs an explicit precision; exact arithmetic cannot represent
// quotients like 1/3.
var decimalCtx = apd.Context{
	Precision:   34,
	MaxExponent: apd.MaxExponent,
	MinExponent: apd.MinExponent,
	Rounding:    apd.RoundHalfUp,
}

// Aggregator fans ticker requests out over a product list and screens
// the answers. It holds no state beyond the exchange it sweeps, so one
// value is safe for concurrent use.
type Aggregator struct {
	ex     exchange.Exchange
	logger zerolog.Logger
}

// New creates an Aggregator sweeping quotes from ex.
func New(ex exchange.Exchange) *Aggregator {
	return NewWithLogger(ex, zerolog.Nop())
}

// NewWithLogger creates an Aggregator with a custom logger.
func NewWithLogger(ex exchange.Exchange, logger zerolog.Logger) *Aggregator {
	return &Aggregator{ex: ex, logger: logger}
}

// TickerResult pairs one product with the ticker fetched for it, or
// with the error the fetch produced.
type TickerResult struct {
	Symbol string       `json:"symbol"`
	Ticker *core.Ticker `json:"ticker,omitempty"`
	Error  error        `json:"-"`
}

// GetTickers fetches a ticker for every product concurrently. Each
// product reports independently: a failed fetch occupies its slot in
// the result instead of aborting the sweep. Results are sorted by
// symbol.
func (a *Aggregator) GetTickers(ctx context.Context, symbols []string) []TickerResult {
	results := make(chan TickerResult, len(symbols))

	var wg sync.WaitGroup
	for _, symbol := range symbols {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				results <- TickerResult{Symbol: symbol, Error: ctx.Err()}
				return
			default:
			}

			ticker, err := a.ex.FetchTicker(ctx, symbol)
			if err != nil {
				a.logger.Debug().Err(err).
					Str("exchange", a.ex.Name()).
					Str("symbol", symbol).
					Msg("ticker sweep failure")
			}
			results <- TickerResult{Symbol: symbol, Ticker: ticker, Error: err}
		}(symbol)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	collected := make([]TickerResult, 0, len(symbols))
	for result := range results {
		collected = append(collected, result)
	}

	sort.Slice(collected, func(i, j int) bool {
		return collected[i].Symbol < collected[j].Symbol
	})
	return collected
}

// QuoteSummary is the top of book for one product.
type QuoteSummary struct {
	Symbol        string      `json:"symbol"`
	Bid           apd.Decimal `json:"bid"`
	Ask           apd.Decimal `json:"ask"`
	Spread        apd.Decimal `json:"spread"`
	SpreadPercent apd.Decimal `json:"spread_percent"`
	Timestamp     time.Time   `json:"timestamp"`
}

// Summarize sweeps the products and reduces every usable quote to its
// spread. Products whose fetch failed or whose ticker lacks a bid or
// ask are skipped; an error is returned only when no product yields a
// usable quote. Results are sorted by symbol.
func (a *Aggregator) Summarize(ctx context.Context, symbols []string) ([]QuoteSummary, error) {
	if len(symbols) == 0 {
		return nil, errors.New("no products to sweep")
	}

	results := a.GetTickers(ctx, symbols)

	summaries := make([]QuoteSummary, 0, len(results))
	for _, result := range results {
		ticker, ok := quotable(result)
		if !ok {
			continue
		}

		summary, err := summarize(result.Symbol, ticker)
		if err != nil {
			a.logger.Debug().Err(err).
				Str("symbol", result.Symbol).
				Msg("spread computation failed")
			continue
		}
		summaries = append(summaries, summary)
	}

	if len(summaries) == 0 {
		return nil, fmt.Errorf("no usable quotes from %d products", len(symbols))
	}
	return summaries, nil
}

// FindWideSpreads returns the products whose relative spread is at
// least minSpreadPercent, widest first. Illiquid books surface here;
// tightly quoted majors drop out.
func (a *Aggregator) FindWideSpreads(ctx context.Context, symbols []string, minSpreadPercent *apd.Decimal) ([]QuoteSummary, error) {
	summaries, err := a.Summarize(ctx, symbols)
	if err != nil {
		return nil, err
	}

	wide := make([]QuoteSummary, 0, len(summaries))
	for _, summary := range summaries {
		if summary.SpreadPercent.Cmp(minSpreadPercent) >= 0 {
			wide = append(wide, summary)
		}
	}

	sort.Slice(wide, func(i, j int) bool {
		return wide[i].SpreadPercent.Cmp(&wide[j].SpreadPercent) > 0
	})
	return wide, nil
}

// summarize reduces a two-sided ticker to its spread. The percentage
// stays zero when the bid is zero.
func summarize(symbol string, ticker *core.Ticker) (QuoteSummary, error) {
	summary := QuoteSummary{Symbol: symbol, Timestamp: ticker.Timestamp}
	summary.Bid.Set(ticker.Bid)
	summary.Ask.Set(ticker.Ask)

	if _, err := apd.BaseContext.Sub(&summary.Spread, &summary.Ask, &summary.Bid); err != nil {
		return QuoteSummary{}, err
	}
	if !summary.Bid.IsZero() {
		if err := percentOf(&summary.SpreadPercent, &summary.Spread, &summary.Bid); err != nil {
			return QuoteSummary{}, err
		}
	}
	return summary, nil
}

// quotable reports whether a sweep result carries a two-sided quote.
func quotable(result TickerResult) (*core.Ticker, bool) {
	if result.Error != nil || result.Ticker == nil {
		return nil, false
	}
	if result.Ticker.Bid == nil || result.Ticker.Ask == nil {
		return nil, false
	}
	return result.Ticker, true
}

// percentOf sets dest to part/whole expressed as a percentage.
func percentOf(dest, part, whole *apd.Decimal) error {
	var scaled apd.Decimal
	if _, err := decimalCtx.Mul(&scaled, part, apd.New(100, 0)); err != nil {
		return err
	}
	if _, err := decimalCtx.Quo(dest, &scaled, whole); err != nil {
		return err
	}
	return nil
}
