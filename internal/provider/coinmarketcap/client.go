package coinmarketcap

import (
	"net/http"
	"net/url"

	"lubixbot/internal/httpx"
)

const (
	baseURL = "https://pro-api.coinmarketcap.com"
	// Name identifies this upstream in quotes and errors.
	Name = "coinmarketcap"
)

// Client is a client for the CoinMarketCap API.
type Client struct {
	// baseURL is the base URL for the API.
	baseURL string
	// httpClient is the HTTP client.
	httpClient httpx.Doer
	// header contains additional headers to be sent with each request.
	header http.Header
	// query contains additional query parameters to be sent with each request.
	query url.Values
	// convert is the fiat currency quotes are requested in.
	convert string
	// maxPerRequest splits large symbol lists into several requests; 0 means one request.
	maxPerRequest int
	// maxConcurrency limits concurrent requests when splitting.
	maxConcurrency int
}

// Option is a configuration option for the CoinMarketCap client.
type Option func(*Client)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(httpClient httpx.Doer) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithHeader sets additional headers to be sent with each request.
func WithHeader(header http.Header) Option {
	return func(c *Client) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

// WithBatching splits Fetch into requests of at most size symbols, running
// at most concurrency of them at once.
func WithBatching(size, concurrency int) Option {
	return func(c *Client) {
		c.maxPerRequest = size
		c.maxConcurrency = concurrency
	}
}

// NewClient creates a new CoinMarketCap client.
func NewClient(key string, options ...Option) (*Client, error) {
	var client = &Client{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
		header:     http.Header{},
		query:      url.Values{},
		convert:    "USD",
	}
	client.header.Set("Accept", "application/json")
	if key != "" {
		// https://coinmarketcap.com/api/documentation/v1/#section/Authentication
		client.header.Set("X-CMC_PRO_API_KEY", key)
	}
	for _, option := range options {
		option(client)
	}
	return client, nil
}

// Name implements provider.CryptoSource.
func (c *Client) Name() string { return Name }
