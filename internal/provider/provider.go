package provider

import (
	"context"

	"lubixbot/internal/quote"
)

type liveKey struct{}

// Live marks ctx as needing prices straight from the upstream. Caching
// decorators neither read nor fall back to cached entries for it.
func Live(ctx context.Context) context.Context {
	return context.WithValue(ctx, liveKey{}, true)
}

// IsLive reports whether ctx was marked by Live.
func IsLive(ctx context.Context) bool {
	v, _ := ctx.Value(liveKey{}).(bool)
	return v
}

// CryptoSource returns quotes for a batch of symbols. Symbols the upstream
// does not know are omitted from the result; an error means the whole call failed.
type CryptoSource interface {
	Name() string
	Fetch(ctx context.Context, symbols []string) ([]quote.CryptoQuote, error)
}

// EquitySource looks up one listed company by its exchange code.
type EquitySource interface {
	Name() string
	Equity(ctx context.Context, code string) (quote.EquityQuote, error)
}

// TokenSource resolves a symbol, name or contract address to one on-chain token.
type TokenSource interface {
	Name() string
	Token(ctx context.Context, query string) (quote.OnChainTokenQuote, error)
}

// SentimentSource reads the market-wide sentiment index.
type SentimentSource interface {
	Name() string
	Sentiment(ctx context.Context) (quote.SentimentReading, error)
}

// MomentumSource reads short-horizon momentum for one coin.
type MomentumSource interface {
	Name() string
	Momentum(ctx context.Context, query string) (quote.MomentumReading, error)
}
