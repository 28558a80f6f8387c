package provider

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"lubixbot/internal/aggregate"
	"lubixbot/internal/quote"
)

// DefaultTimeout bounds every upstream lookup made through a Gateway.
const DefaultTimeout = 10 * time.Second

// Gateway is the single entry point for market data. Each lookup trims its
// input, is bounded by Timeout and resolves to a normalized record or a
// *quote.LookupError. Identical concurrent lookups share one upstream call.
type Gateway struct {
	// Crypto sources in priority order; the first wins a timestamp tie.
	Crypto    []CryptoSource
	Equity    EquitySource
	Token     TokenSource
	Sentiment SentimentSource
	Momentum  MomentumSource

	Timeout time.Duration
	Logger  *zap.Logger

	sf singleflight.Group
}

func (g *Gateway) timeout() time.Duration {
	if g.Timeout <= 0 {
		return DefaultTimeout
	}
	return g.Timeout
}

func (g *Gateway) logger() *zap.Logger {
	if g.Logger == nil {
		return zap.NewNop()
	}
	return g.Logger
}

// do runs fn once per key across concurrent callers. The upstream call is
// detached from any single caller's cancellation and bounded by the gateway
// timeout; a caller whose ctx ends early gets a transport error.
func (g *Gateway) do(ctx context.Context, source, key, query string, fn func(ctx context.Context) (any, error)) (any, error) {
	ch := g.sf.DoChan(key, func() (any, error) {
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.timeout())
		defer cancel()
		start := time.Now()
		v, err := fn(cctx)
		if err != nil {
			g.logger().Warn("lookup failed",
				zap.String("source", source),
				zap.String("query", query),
				zap.Duration("took", time.Since(start)),
				zap.Error(err),
			)
			return nil, quote.AsLookupError(source, query, err)
		}
		g.logger().Debug("lookup ok",
			zap.String("source", source),
			zap.String("query", query),
			zap.Duration("took", time.Since(start)),
		)
		return v, nil
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, quote.Transport(source, query, ctx.Err())
	}
}

// FetchCrypto returns the freshest quote for one coin across all crypto sources.
// Pass a ctx from Live to bypass cached quotes.
func (g *Gateway) FetchCrypto(ctx context.Context, symbol string) (quote.CryptoQuote, error) {
	sym := aggregate.NormalizeSymbol(symbol)
	if sym == "" {
		return quote.CryptoQuote{}, quote.NotFound("crypto", symbol)
	}
	snap, err := g.FetchMultiCryptoSnapshot(ctx, []string{sym})
	if err != nil {
		return quote.CryptoQuote{}, err
	}
	q, ok := snap[sym]
	if !ok {
		return quote.CryptoQuote{}, quote.NotFound("crypto", sym)
	}
	return q, nil
}

// FetchMultiCryptoSnapshot queries every crypto source in parallel and
// collapses the answers per symbol. Symbols nobody knows are absent from the
// map. It fails only when every source failed.
func (g *Gateway) FetchMultiCryptoSnapshot(ctx context.Context, symbols []string) (map[string]quote.CryptoQuote, error) {
	syms := aggregate.NormalizeSymbols(symbols)
	if len(syms) == 0 {
		return map[string]quote.CryptoQuote{}, nil
	}
	query := strings.Join(syms, ",")
	if len(g.Crypto) == 0 {
		return nil, quote.Transport("crypto", query, errors.New("no crypto source configured"))
	}

	key := "crypto:" + query
	if IsLive(ctx) {
		key = "live:" + query
	}
	v, err := g.do(ctx, "crypto", key, query, func(ctx context.Context) (any, error) {
		batches := make([][]quote.CryptoQuote, len(g.Crypto))
		errs := make([]error, len(g.Crypto))
		var eg errgroup.Group
		for i, src := range g.Crypto {
			eg.Go(func() error {
				out, err := src.Fetch(ctx, syms)
				if err != nil {
					errs[i] = fmt.Errorf("%s: %w", src.Name(), err)
					return nil
				}
				batches[i] = out
				return nil
			})
		}
		_ = eg.Wait()

		failed := 0
		for i, err := range errs {
			if err != nil {
				failed++
				g.logger().Warn("crypto source failed", zap.String("source", g.Crypto[i].Name()), zap.Error(err))
			}
		}
		if failed == len(g.Crypto) {
			return nil, errors.Join(errs...)
		}
		return aggregate.LatestBySymbol(batches...), nil
	})
	if err != nil {
		return nil, err
	}
	// callers may share one result; hand each its own map
	return maps.Clone(v.(map[string]quote.CryptoQuote)), nil
}

// FetchEquity looks up one listed company by exchange code.
func (g *Gateway) FetchEquity(ctx context.Context, code string) (quote.EquityQuote, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if g.Equity == nil {
		return quote.EquityQuote{}, quote.Transport("equity", code, errors.New("no equity source configured"))
	}
	if code == "" {
		return quote.EquityQuote{}, quote.NotFound(g.Equity.Name(), code)
	}
	v, err := g.do(ctx, g.Equity.Name(), "equity:"+code, code, func(ctx context.Context) (any, error) {
		return g.Equity.Equity(ctx, code)
	})
	if err != nil {
		return quote.EquityQuote{}, err
	}
	return v.(quote.EquityQuote), nil
}

// FetchOnChainToken resolves a symbol, name or contract address.
func (g *Gateway) FetchOnChainToken(ctx context.Context, query string) (quote.OnChainTokenQuote, error) {
	query = strings.TrimSpace(query)
	if g.Token == nil {
		return quote.OnChainTokenQuote{}, quote.Transport("token", query, errors.New("no token source configured"))
	}
	if query == "" {
		return quote.OnChainTokenQuote{}, quote.NotFound(g.Token.Name(), query)
	}
	v, err := g.do(ctx, g.Token.Name(), "token:"+strings.ToLower(query), query, func(ctx context.Context) (any, error) {
		return g.Token.Token(ctx, query)
	})
	if err != nil {
		return quote.OnChainTokenQuote{}, err
	}
	return v.(quote.OnChainTokenQuote), nil
}

// FetchSentiment reads the fear and greed index.
func (g *Gateway) FetchSentiment(ctx context.Context) (quote.SentimentReading, error) {
	if g.Sentiment == nil {
		return quote.SentimentReading{}, quote.Transport("sentiment", "", errors.New("no sentiment source configured"))
	}
	v, err := g.do(ctx, g.Sentiment.Name(), "sentiment", "", func(ctx context.Context) (any, error) {
		return g.Sentiment.Sentiment(ctx)
	})
	if err != nil {
		return quote.SentimentReading{}, err
	}
	return v.(quote.SentimentReading), nil
}

// FetchMomentum reads short-horizon momentum for one coin.
func (g *Gateway) FetchMomentum(ctx context.Context, query string) (quote.MomentumReading, error) {
	query = strings.TrimSpace(query)
	if g.Momentum == nil {
		return quote.MomentumReading{}, quote.Transport("momentum", query, errors.New("no momentum source configured"))
	}
	if query == "" {
		return quote.MomentumReading{}, quote.NotFound(g.Momentum.Name(), query)
	}
	v, err := g.do(ctx, g.Momentum.Name(), "momentum:"+strings.ToLower(query), query, func(ctx context.Context) (any, error) {
		return g.Momentum.Momentum(ctx, query)
	})
	if err != nil {
		return quote.MomentumReading{}, err
	}
	return v.(quote.MomentumReading), nil
}
