// Package syariahsaham reads IDX listed companies and their sharia
// screening indicators from the SyariahSaham API.
package syariahsaham

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"lubixbot/internal/httpx"
	"lubixbot/internal/quote"
)

const (
	baseURL = "https://syariahsaham-api.fly.dev"
	// Name identifies this upstream in errors.
	Name = "syariahsaham"
)

// Client is a client for the SyariahSaham API.
type Client struct {
	baseURL    string
	httpClient httpx.Doer
}

// Option is a configuration option for the client.
type Option func(*Client)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(httpClient httpx.Doer) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a new SyariahSaham client.
func NewClient(options ...Option) *Client {
	c := &Client{baseURL: baseURL, httpClient: http.DefaultClient}
	for _, option := range options {
		option(c)
	}
	return c
}

// Name implements provider.EquitySource.
func (c *Client) Name() string { return Name }

type emiten struct {
	Code             string     `json:"code"`
	Name             string     `json:"name"`
	Sector           *string    `json:"sector"`
	Industry         *string    `json:"industry"`
	Papan            *string    `json:"papan"`
	Index            *string    `json:"index"`
	MarketCap        *float64   `json:"marketCap"`
	Shares           *float64   `json:"shares"`
	ISSI             *bool      `json:"issi"`
	SyariahIndicator *indicator `json:"syariahIndicator"`
	Harga            *harga     `json:"harga"`
}

type indicator struct {
	HutangBunga any   `json:"hutangBunga"`
	NonHalal    any   `json:"nonHalal"`
	Business    *bool `json:"business"`
}

type harga struct {
	Now        *float64 `json:"now"`
	DeltaPrice *float64 `json:"deltaPrice"`
}

// Equity fetches one company by its four letter IDX code.
func (c *Client) Equity(ctx context.Context, code string) (quote.EquityQuote, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return quote.EquityQuote{}, quote.NotFound(Name, code)
	}

	endpoint := fmt.Sprintf("%s/emiten/%s", c.baseURL, url.PathEscape(code))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return quote.EquityQuote{}, quote.Transport(Name, code, fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return quote.EquityQuote{}, quote.Transport(Name, code, fmt.Errorf("performing request: %w", err))
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound, res.StatusCode == http.StatusBadRequest:
		return quote.EquityQuote{}, quote.NotFound(Name, code)
	case res.StatusCode < 200 || res.StatusCode >= 300:
		return quote.EquityQuote{}, quote.Transport(Name, code, fmt.Errorf("unexpected status code: %d: %s", res.StatusCode, httpx.Snippet(res.Body)))
	}

	var raw emiten
	if err := json.NewDecoder(res.Body).Decode(&raw); err != nil {
		return quote.EquityQuote{}, quote.Malformed(Name, code, fmt.Errorf("decoding emiten: %w", err))
	}
	if strings.TrimSpace(raw.Code) == "" {
		return quote.EquityQuote{}, quote.NotFound(Name, code)
	}
	return normalize(raw)
}

func normalize(raw emiten) (quote.EquityQuote, error) {
	q := quote.EquityQuote{
		Code:            strings.ToUpper(raw.Code),
		Name:            raw.Name,
		Sector:          deref(raw.Sector),
		Board:           deref(raw.Papan),
		Index:           deref(raw.Index),
		MarketCap:       quote.FromPtr(raw.MarketCap),
		ShariaCompliant: raw.ISSI != nil && *raw.ISSI,
	}
	if raw.Harga != nil {
		q.Price = quote.FromPtr(raw.Harga.Now)
		q.PriceChange = quote.FromPtr(raw.Harga.DeltaPrice)
	}
	if raw.SyariahIndicator != nil {
		var err error
		if q.DebtRatio, err = ratio(raw.SyariahIndicator.HutangBunga); err != nil {
			return quote.EquityQuote{}, quote.Malformed(Name, raw.Code, fmt.Errorf("hutangBunga: %w", err))
		}
		if q.NonHalalRevenueRatio, err = ratio(raw.SyariahIndicator.NonHalal); err != nil {
			return quote.EquityQuote{}, quote.Malformed(Name, raw.Code, fmt.Errorf("nonHalal: %w", err))
		}
	}
	return q, nil
}

// ratio accepts the loosely typed indicator fields: a number, a numeric
// string, or a placeholder string / null meaning "not yet available".
func ratio(v any) (quote.Optional, error) {
	switch x := v.(type) {
	case nil:
		return quote.Unavailable, nil
	case float64:
		return quote.Some(x), nil
	case string:
		return quote.FromString(strings.TrimSuffix(strings.TrimSpace(x), "%")), nil
	case bool, map[string]any, []any:
		return quote.Unavailable, errors.New("unexpected type")
	default:
		return quote.Unavailable, fmt.Errorf("unexpected type: %T", v)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
