package coinbase

import (
	"fmt"
	"maps"
	"sync"

	"tukar/pkg/core"
)

// marketRegistry is the in-process market table, indexed both by
// canonical symbol and by exchange-native product id. LoadMarkets
// replaces the whole table atomically; lookups never trigger a refresh.
type marketRegistry struct {
	mu       sync.RWMutex
	bySymbol map[string]*core.Market
	byID     map[string]*core.Market
}

func newMarketRegistry() *marketRegistry {
	return &marketRegistry{}
}

func (r *marketRegistry) replace(markets []core.Market) {
	bySymbol := make(map[string]*core.Market, len(markets))
	byID := make(map[string]*core.Market, len(markets))
	for i := range markets {
		m := &markets[i]
		bySymbol[m.Symbol] = m
		byID[m.ID] = m
	}

	r.mu.Lock()
	r.bySymbol = bySymbol
	r.byID = byID
	r.mu.Unlock()
}

// market resolves a canonical symbol. It fails with ErrMarketsNotLoaded
// before the first successful LoadMarkets and with a NotFound error for
// symbols the exchange does not list.
func (r *marketRegistry) market(symbol string) (*core.Market, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.bySymbol == nil {
		return nil, fmt.Errorf("resolve %s: %w", symbol, core.ErrMarketsNotLoaded)
	}
	m, ok := r.bySymbol[symbol]
	if !ok {
		return nil, core.NewExchangeError(exchangeName, core.ErrorTypeNotFound, 0,
			fmt.Sprintf("unknown symbol %s", symbol))
	}
	return m, nil
}

// MarketByID resolves an exchange-native product id. It implements
// MarketIndex for the normalizer.
func (r *marketRegistry) MarketByID(id string) (*core.Market, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.byID[id]
	return m, ok
}

func (r *marketRegistry) snapshot() map[string]*core.Market {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]*core.Market, len(r.bySymbol))
	maps.Copy(out, r.bySymbol)
	return out
}
