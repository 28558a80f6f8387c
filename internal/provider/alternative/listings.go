package alternative

import (
	"context"
	"strings"
	"time"
)

type listingsResponse struct {
	Data []listing `json:"data"`
}

type listing struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	Slug   string `json:"website_slug"`
}

// resolve maps a ticker or coin name to a ticker slug. With listings enabled
// the cached /v2/listings/ catalogue is consulted first; any failure there
// falls back to the static table so a lookup never fails on the catalogue.
func (c *Client) resolve(ctx context.Context, query string) string {
	if c.listingsTTL > 0 {
		if bySymbol, err := c.listings(ctx); err == nil {
			if slug, ok := bySymbol[strings.ToUpper(strings.TrimSpace(query))]; ok {
				return slug
			}
		}
	}
	return Slug(query)
}

// listings returns the symbol to slug catalogue, refreshing it once per TTL.
// Concurrent refreshes collapse into one request.
func (c *Client) listings(ctx context.Context) (map[string]string, error) {
	now := time.Now()
	c.mu.RLock()
	if c.bySymbol != nil && now.Before(c.expires) {
		m := c.bySymbol
		c.mu.RUnlock()
		return m, nil
	}
	c.mu.RUnlock()

	v, err, _ := c.sf.Do("listings", func() (any, error) {
		// double-check after winning the flight
		c.mu.RLock()
		if c.bySymbol != nil && time.Now().Before(c.expires) {
			m := c.bySymbol
			c.mu.RUnlock()
			return m, nil
		}
		c.mu.RUnlock()

		var body listingsResponse
		if err := c.getJSON(ctx, "/v2/listings/", "listings", &body); err != nil {
			return nil, err
		}
		m := make(map[string]string, len(body.Data))
		for _, l := range body.Data {
			sym := strings.ToUpper(strings.TrimSpace(l.Symbol))
			if sym == "" || l.Slug == "" {
				continue
			}
			// first listing wins; the catalogue is ordered by rank
			if _, dup := m[sym]; !dup {
				m[sym] = l.Slug
			}
		}
		c.mu.Lock()
		c.bySymbol = m
		c.expires = time.Now().Add(c.listingsTTL)
		c.mu.Unlock()
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]string), nil
}
