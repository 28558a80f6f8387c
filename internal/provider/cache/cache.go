package cache

import (
	"context"
	"sync"
	"time"

	"lubixbot/internal/aggregate"
	"lubixbot/internal/provider"
	"lubixbot/internal/quote"
)

// entry stores a cached quote for a single symbol with expiry.
type entry struct {
	expiresAt time.Time
	quote     quote.CryptoQuote
}

// Source caches results per symbol for a TTL.
// It requests only missing symbols from the underlying source and
// combines cached + fresh results.
type Source struct {
	P        provider.CryptoSource
	TTL      time.Duration
	MaxItems int

	mu    sync.RWMutex
	items map[string]entry // key: symbol
}

func (c *Source) Name() string { return c.P.Name() }

// Fetch returns quotes for requested symbols using cache when valid.
// A live context always goes to the upstream; its fresh answers still
// refresh the cache.
func (c *Source) Fetch(ctx context.Context, symbols []string) ([]quote.CryptoQuote, error) {
	if c.TTL <= 0 {
		return c.P.Fetch(ctx, symbols)
	}
	live := provider.IsLive(ctx)

	now := time.Now()
	symbols = aggregate.NormalizeSymbols(symbols)

	cached := make(map[string]quote.CryptoQuote, len(symbols))
	missing := make([]string, 0, len(symbols))

	c.mu.RLock()
	for _, s := range symbols {
		if e, ok := c.items[s]; ok && !live && now.Before(e.expiresAt) {
			cached[s] = e.quote
			continue
		}
		missing = append(missing, s)
	}
	c.mu.RUnlock()

	if len(missing) == 0 {
		return merge(symbols, cached, nil), nil
	}

	fresh, err := c.P.Fetch(ctx, missing)
	if err != nil {
		// partial cached data beats a hard failure
		if len(cached) > 0 {
			return merge(symbols, cached, nil), nil
		}
		return nil, err
	}

	bySymbol := make(map[string]quote.CryptoQuote, len(fresh))
	for _, q := range fresh {
		bySymbol[aggregate.NormalizeSymbol(q.Symbol)] = q
	}

	expiry := now.Add(c.TTL)
	c.mu.Lock()
	if c.items == nil {
		c.items = make(map[string]entry, len(bySymbol))
	}
	for sym, q := range bySymbol {
		c.items[sym] = entry{expiresAt: expiry, quote: q}
	}
	// best-effort cap: drop expired first, then arbitrary keys
	if c.MaxItems > 0 && len(c.items) > c.MaxItems {
		for k, v := range c.items {
			if now.After(v.expiresAt) {
				delete(c.items, k)
			}
			if len(c.items) <= c.MaxItems {
				break
			}
		}
		for k := range c.items {
			if len(c.items) <= c.MaxItems {
				break
			}
			delete(c.items, k)
		}
	}
	c.mu.Unlock()

	return merge(symbols, cached, bySymbol), nil
}

// merge returns quotes in request order, fresh data winning over cached.
// symbols must already be normalized and unique.
func merge(symbols []string, cached, fresh map[string]quote.CryptoQuote) []quote.CryptoQuote {
	out := make([]quote.CryptoQuote, 0, len(symbols))
	for _, s := range symbols {
		if q, ok := fresh[s]; ok {
			out = append(out, q)
		} else if q, ok := cached[s]; ok {
			out = append(out, q)
		}
	}
	return out
}
