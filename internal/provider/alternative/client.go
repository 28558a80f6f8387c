// Package alternative talks to the alternative.me public API: the crypto
// fear and greed index and the v2 ticker used for momentum and as a
// secondary price source.
package alternative

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"lubixbot/internal/httpx"
	"lubixbot/internal/quote"
)

const (
	baseURL = "https://api.alternative.me"
	// Name identifies this upstream in errors and quotes.
	Name = "alternative"
	// defaultConcurrency bounds per-symbol ticker calls made by Fetch.
	defaultConcurrency = 4
)

// Client is a client for the alternative.me API.
type Client struct {
	baseURL     string
	httpClient  httpx.Doer
	concurrency int

	listingsTTL time.Duration
	mu          sync.RWMutex
	bySymbol    map[string]string
	expires     time.Time
	sf          singleflight.Group
}

// Option is a configuration option for the client.
type Option func(*Client)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(httpClient httpx.Doer) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithConcurrency bounds how many ticker requests Fetch runs at once.
func WithConcurrency(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithListings resolves symbols through the /v2/listings/ catalogue, cached
// for ttl. Zero keeps to the built-in slug table.
func WithListings(ttl time.Duration) Option {
	return func(c *Client) { c.listingsTTL = ttl }
}

// NewClient creates a new alternative.me client.
func NewClient(options ...Option) *Client {
	c := &Client{baseURL: baseURL, httpClient: http.DefaultClient, concurrency: defaultConcurrency}
	for _, option := range options {
		option(c)
	}
	return c
}

// Name implements the provider source interfaces.
func (c *Client) Name() string { return Name }

// slugs maps tickers to the slugs the v2 ticker endpoint expects.
var slugs = map[string]string{
	"BTC": "bitcoin",
	"ETH": "ethereum",
	"SOL": "solana",
	"BNB": "binance-coin",
}

// Slug returns the ticker slug for a symbol or coin name.
func Slug(s string) string {
	s = strings.TrimSpace(s)
	if slug, ok := slugs[strings.ToUpper(s)]; ok {
		return slug
	}
	return strings.ToLower(s)
}

// getJSON performs a GET against path and decodes the body into out.
// A 404 is reported as not found.
func (c *Client) getJSON(ctx context.Context, path, query string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return quote.Transport(Name, query, fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return quote.Transport(Name, query, fmt.Errorf("performing request: %w", err))
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound:
		return quote.NotFound(Name, query)
	case res.StatusCode < 200 || res.StatusCode >= 300:
		return quote.Transport(Name, query, fmt.Errorf("unexpected status code: %d: %s", res.StatusCode, httpx.Snippet(res.Body)))
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return quote.Malformed(Name, query, fmt.Errorf("decoding response: %w", err))
	}
	return nil
}
