package alternative

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"lubixbot/internal/quote"
)

type tickerResponse struct {
	Data map[string]tickerData `json:"data"`
}

type tickerData struct {
	Name        string                 `json:"name"`
	Symbol      string                 `json:"symbol"`
	LastUpdated int64                  `json:"last_updated"`
	Quotes      map[string]tickerQuote `json:"quotes"`
}

type tickerQuote struct {
	Price     *float64 `json:"price"`
	Volume24h *float64 `json:"volume_24h"`
	MarketCap *float64 `json:"market_cap"`
	Change1h  *float64 `json:"percentage_change_1h"`
	Change24h *float64 `json:"percentage_change_24h"`
	Change7d  *float64 `json:"percentage_change_7d"`
}

// ticker loads the single coin entry for query from /v2/ticker/{slug}/.
func (c *Client) ticker(ctx context.Context, query string) (tickerData, error) {
	slug := c.resolve(ctx, query)
	if slug == "" {
		return tickerData{}, quote.NotFound(Name, query)
	}
	var body tickerResponse
	if err := c.getJSON(ctx, "/v2/ticker/"+url.PathEscape(slug)+"/", query, &body); err != nil {
		return tickerData{}, err
	}
	if len(body.Data) == 0 {
		return tickerData{}, quote.NotFound(Name, query)
	}
	// the endpoint keys by numeric id; take the lowest one for a stable pick
	ids := make([]string, 0, len(body.Data))
	for id := range body.Data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return body.Data[ids[0]], nil
}

// Momentum returns 1h/24h/7d percent changes for one coin.
func (c *Client) Momentum(ctx context.Context, query string) (quote.MomentumReading, error) {
	d, err := c.ticker(ctx, query)
	if err != nil {
		return quote.MomentumReading{}, err
	}
	usd, ok := d.Quotes["USD"]
	if !ok {
		return quote.MomentumReading{}, quote.Malformed(Name, query, errors.New("no USD quote"))
	}
	return quote.MomentumReading{
		Symbol:    strings.ToUpper(d.Symbol),
		Name:      d.Name,
		Change1h:  quote.FromPtr(usd.Change1h),
		Change24h: quote.FromPtr(usd.Change24h),
		Change7d:  quote.FromPtr(usd.Change7d),
	}, nil
}

// Fetch implements provider.CryptoSource with one ticker call per symbol,
// at most c.concurrency in flight. Unknown symbols are omitted; the call
// fails only when every symbol failed for a reason other than not found.
func (c *Client) Fetch(ctx context.Context, symbols []string) ([]quote.CryptoQuote, error) {
	if len(symbols) == 0 {
		return nil, nil
	}

	results := make([]*quote.CryptoQuote, len(symbols))
	errs := make([]error, len(symbols))
	sem := make(chan struct{}, c.concurrency)
	var wg sync.WaitGroup
	for i, sym := range symbols {
		wg.Add(1)
		go func(i int, sym string) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				errs[i] = quote.Transport(Name, sym, ctx.Err())
				return
			}
			q, err := c.cryptoQuote(ctx, sym)
			if err != nil {
				errs[i] = err
				return
			}
			results[i] = &q
		}(i, sym)
	}
	wg.Wait()

	out := make([]quote.CryptoQuote, 0, len(symbols))
	var hardErr error
	for i, r := range results {
		if r != nil {
			out = append(out, *r)
			continue
		}
		if errs[i] != nil && !errors.Is(errs[i], quote.ErrNotFound) && hardErr == nil {
			hardErr = errs[i]
		}
	}
	if len(out) == 0 && hardErr != nil {
		return nil, fmt.Errorf("alternative fetch: %w", hardErr)
	}
	return out, nil
}

func (c *Client) cryptoQuote(ctx context.Context, sym string) (quote.CryptoQuote, error) {
	d, err := c.ticker(ctx, sym)
	if err != nil {
		return quote.CryptoQuote{}, err
	}
	usd, ok := d.Quotes["USD"]
	if !ok || usd.Price == nil || *usd.Price <= 0 {
		return quote.CryptoQuote{}, quote.NotFound(Name, sym)
	}
	received := time.Now()
	if d.LastUpdated > 0 {
		received = time.Unix(d.LastUpdated, 0)
	}
	return quote.CryptoQuote{
		Symbol:     strings.ToUpper(d.Symbol),
		Name:       d.Name,
		PriceUSD:   *usd.Price,
		Change1h:   quote.FromPtr(usd.Change1h),
		Change24h:  quote.FromPtr(usd.Change24h),
		Change7d:   quote.FromPtr(usd.Change7d),
		MarketCap:  quote.FromPtr(usd.MarketCap),
		Volume24h:  quote.FromPtr(usd.Volume24h),
		Source:     Name,
		ReceivedAt: received,
	}, nil
}
