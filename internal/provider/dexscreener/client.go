// Package dexscreener resolves on-chain tokens by symbol, name or contract
// address through the DexScreener public API.
package dexscreener

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"lubixbot/internal/httpx"
	"lubixbot/internal/quote"
)

const (
	baseURL = "https://api.dexscreener.com"
	// Name identifies this upstream in errors.
	Name = "dexscreener"
	// addressMinLen is the query length from which the query is treated as a
	// contract address instead of a search term.
	addressMinLen = 31
)

// Client is a client for the DexScreener API.
type Client struct {
	baseURL    string
	httpClient httpx.Doer
	chain      string
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

// WithChain restricts candidates to pairs on one chain id (e.g. "solana").
func WithChain(chain string) Option {
	return func(c *Client) { c.chain = strings.ToLower(strings.TrimSpace(chain)) }
}

// NewClient creates a new DexScreener client.
func NewClient(options ...Option) *Client {
	c := &Client{baseURL: baseURL, httpClient: http.DefaultClient}
	for _, option := range options {
		option(c)
	}
	return c
}

// Name implements provider.TokenSource.
func (c *Client) Name() string { return Name }

type searchResponse struct {
	Pairs []pair `json:"pairs"`
}

type pair struct {
	ChainID     string `json:"chainId"`
	URL         string `json:"url"`
	BaseToken   token  `json:"baseToken"`
	PriceUSD    string `json:"priceUsd"`
	PriceChange *struct {
		H1  *float64 `json:"h1"`
		H24 *float64 `json:"h24"`
	} `json:"priceChange"`
	Liquidity *struct {
		USD *float64 `json:"usd"`
	} `json:"liquidity"`
	Volume *struct {
		H24 *float64 `json:"h24"`
	} `json:"volume"`
}

type token struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

// Token resolves query to the first matching pair's base token.
func (c *Client) Token(ctx context.Context, query string) (quote.OnChainTokenQuote, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return quote.OnChainTokenQuote{}, quote.NotFound(Name, query)
	}

	var endpoint string
	if len(query) >= addressMinLen {
		endpoint = fmt.Sprintf("%s/latest/dex/tokens/%s", c.baseURL, url.PathEscape(query))
	} else {
		endpoint = fmt.Sprintf("%s/latest/dex/search?q=%s", c.baseURL, url.QueryEscape(query))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return quote.OnChainTokenQuote{}, quote.Transport(Name, query, fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return quote.OnChainTokenQuote{}, quote.Transport(Name, query, fmt.Errorf("performing request: %w", err))
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound:
		return quote.OnChainTokenQuote{}, quote.NotFound(Name, query)
	case res.StatusCode < 200 || res.StatusCode >= 300:
		return quote.OnChainTokenQuote{}, quote.Transport(Name, query, fmt.Errorf("unexpected status code: %d: %s", res.StatusCode, httpx.Snippet(res.Body)))
	}

	var body searchResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return quote.OnChainTokenQuote{}, quote.Malformed(Name, query, fmt.Errorf("decoding pairs: %w", err))
	}

	p, ok := selectPair(body.Pairs, query, c.chain)
	if !ok {
		return quote.OnChainTokenQuote{}, quote.NotFound(Name, query)
	}
	return normalize(p), nil
}

// selectPair returns the first candidate whose base token symbol or address
// contains query, compared case-insensitively.
func selectPair(pairs []pair, query, chain string) (pair, bool) {
	q := strings.ToUpper(query)
	for _, p := range pairs {
		if chain != "" && !strings.EqualFold(p.ChainID, chain) {
			continue
		}
		if strings.Contains(strings.ToUpper(p.BaseToken.Symbol), q) ||
			strings.Contains(strings.ToUpper(p.BaseToken.Address), q) {
			return p, true
		}
	}
	return pair{}, false
}

func normalize(p pair) quote.OnChainTokenQuote {
	q := quote.OnChainTokenQuote{
		Symbol:          strings.ToUpper(p.BaseToken.Symbol),
		Name:            p.BaseToken.Name,
		ContractAddress: p.BaseToken.Address,
		Chain:           p.ChainID,
		PriceUSD:        quote.FromString(p.PriceUSD),
		URL:             p.URL,
	}
	if p.PriceChange != nil {
		q.Change1h = quote.FromPtr(p.PriceChange.H1)
		q.Change24h = quote.FromPtr(p.PriceChange.H24)
	}
	if p.Liquidity != nil {
		q.LiquidityUSD = quote.FromPtr(p.Liquidity.USD)
	}
	if p.Volume != nil {
		q.Volume24h = quote.FromPtr(p.Volume.H24)
	}
	return q
}
