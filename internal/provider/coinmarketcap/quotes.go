package coinmarketcap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"strings"
	"sync"
	"time"

	"lubixbot/internal/aggregate"
	"lubixbot/internal/httpx"
	"lubixbot/internal/quote"
)

type quotesResponse struct {
	Status struct {
		ErrorCode    int    `json:"error_code"`
		ErrorMessage string `json:"error_message"`
	} `json:"status"`
	Data map[string]coin `json:"data"`
}

type coin struct {
	Name        string               `json:"name"`
	Symbol      string               `json:"symbol"`
	LastUpdated string               `json:"last_updated"`
	Quote       map[string]fiatQuote `json:"quote"`
}

type fiatQuote struct {
	Price            *float64 `json:"price"`
	Volume24h        *float64 `json:"volume_24h"`
	PercentChange1h  *float64 `json:"percent_change_1h"`
	PercentChange24h *float64 `json:"percent_change_24h"`
	PercentChange7d  *float64 `json:"percent_change_7d"`
	MarketCap        *float64 `json:"market_cap"`
	LastUpdated      string   `json:"last_updated"`
}

// Fetch implements provider.CryptoSource on top of QuotesLatest. Symbols are
// de-duplicated and, when batching is configured, split across concurrent
// requests. A failed batch only fails the call when no batch succeeded.
func (c *Client) Fetch(ctx context.Context, symbols []string) ([]quote.CryptoQuote, error) {
	uniq := aggregate.NormalizeSymbols(symbols)
	batchSize := c.maxPerRequest
	if batchSize <= 0 || len(uniq) <= batchSize {
		return c.QuotesLatest(ctx, uniq)
	}

	maxConc := max(1, c.maxConcurrency)
	sem := make(chan struct{}, maxConc)
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		out      []quote.CryptoQuote
		firstErr error
	)
	for _, b := range chunk(uniq, batchSize) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}
			qs, err := c.QuotesLatest(ctx, b)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			out = append(out, qs...)
		}()
	}
	wg.Wait()

	if len(out) == 0 {
		if firstErr != nil {
			return nil, firstErr
		}
		if err := ctx.Err(); err != nil {
			return nil, quote.Transport(Name, strings.Join(uniq, ","), err)
		}
	}
	return out, nil
}

func chunk(in []string, size int) [][]string {
	out := make([][]string, 0, (len(in)+size-1)/size)
	for i := 0; i < len(in); i += size {
		out = append(out, in[i:min(i+size, len(in))])
	}
	return out
}

// QuotesLatest retrieves the latest USD quotes for symbols in one request.
// Unknown symbols are skipped by the upstream and absent from the result.
func (c *Client) QuotesLatest(ctx context.Context, symbols []string) ([]quote.CryptoQuote, error) {
	if len(symbols) == 0 {
		return nil, nil
	}
	joined := strings.ToUpper(strings.Join(symbols, ","))

	query := maps.Clone(c.query)
	query.Set("symbol", joined)
	query.Set("convert", c.convert)
	query.Set("skip_invalid", "true")

	url := fmt.Sprintf("%s/v1/cryptocurrency/quotes/latest?%s", c.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, quote.Transport(Name, joined, fmt.Errorf("creating request: %w", err))
	}
	req.Header = c.header.Clone()

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, quote.Transport(Name, joined, fmt.Errorf("performing request: %w", err))
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		break

	case http.StatusBadRequest:
		// every requested symbol was invalid
		return nil, nil

	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, quote.Transport(Name, joined, errors.New("unauthorized"))

	case http.StatusTooManyRequests:
		return nil, quote.Transport(Name, joined, errors.New("rate limited"))

	default:
		return nil, quote.Transport(Name, joined, fmt.Errorf("unexpected status code: %d: %s", res.StatusCode, httpx.Snippet(res.Body)))
	}

	var body quotesResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, quote.Malformed(Name, joined, fmt.Errorf("decoding quotes response: %w", err))
	}
	if body.Status.ErrorCode != 0 && len(body.Data) == 0 {
		return nil, quote.Transport(Name, joined, fmt.Errorf("provider error: code=%d msg=%q", body.Status.ErrorCode, body.Status.ErrorMessage))
	}

	now := time.Now().UTC()
	out := make([]quote.CryptoQuote, 0, len(body.Data))
	for key, raw := range body.Data {
		q, ok := normalize(key, raw, c.convert, now)
		if !ok {
			continue
		}
		out = append(out, q)
	}
	return out, nil
}

// normalize maps one CoinMarketCap coin to a CryptoQuote. A coin without a
// usable price in the convert currency is dropped.
func normalize(key string, raw coin, convert string, now time.Time) (quote.CryptoQuote, bool) {
	fq, ok := raw.Quote[convert]
	if !ok || fq.Price == nil {
		return quote.CryptoQuote{}, false
	}
	price := quote.FromPtr(fq.Price)
	if !price.Set || price.Value <= 0 {
		return quote.CryptoQuote{}, false
	}
	symbol := raw.Symbol
	if symbol == "" {
		symbol = key
	}
	ts := parseTime(fq.LastUpdated)
	if ts.IsZero() {
		ts = parseTime(raw.LastUpdated)
	}
	if ts.IsZero() {
		ts = now
	}
	return quote.CryptoQuote{
		Symbol:     strings.ToUpper(symbol),
		Name:       raw.Name,
		PriceUSD:   price.Value,
		Change1h:   quote.FromPtr(fq.PercentChange1h),
		Change24h:  quote.FromPtr(fq.PercentChange24h),
		Change7d:   quote.FromPtr(fq.PercentChange7d),
		MarketCap:  quote.FromPtr(fq.MarketCap),
		Volume24h:  quote.FromPtr(fq.Volume24h),
		Source:     Name,
		ReceivedAt: ts,
	}, true
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
