// Package bootstrap assembles the provider gateway from configuration.
package bootstrap

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"lubixbot/internal/config"
	"lubixbot/internal/httpx"
	"lubixbot/internal/provider"
	"lubixbot/internal/provider/alternative"
	"lubixbot/internal/provider/cache"
	"lubixbot/internal/provider/coinmarketcap"
	"lubixbot/internal/provider/dexscreener"
	"lubixbot/internal/provider/ratelimit"
	"lubixbot/internal/provider/syariahsaham"
)

// Gateway builds every enabled upstream client over one shared HTTP client.
// Crypto sources are decorated with a rate limiter and a per-symbol cache
// when the config asks for them; CoinMarketCap comes first so it wins
// timestamp ties.
func Gateway(cfg config.Config, log *zap.Logger) (*provider.Gateway, error) {
	if log == nil {
		log = zap.NewNop()
	}
	timeout := time.Duration(cfg.Bot.RequestTimeoutSec) * time.Second
	hc := httpx.New(timeout)

	gw := &provider.Gateway{Timeout: timeout, Logger: log.Named("gateway")}

	if cfg.CoinMarketCap.Enabled {
		if cfg.CoinMarketCap.APIKey == "" {
			log.Warn("coinmarketcap.enabled=true but CMC_API_KEY not set; skipping")
		} else {
			opts := []coinmarketcap.Option{
				coinmarketcap.WithHTTPClient(hc),
				coinmarketcap.WithBatching(cfg.CoinMarketCap.MaxItemsPerRequest, cfg.CoinMarketCap.MaxConcurrency),
			}
			if cfg.CoinMarketCap.Endpoint != "" {
				opts = append(opts, coinmarketcap.WithBaseURL(cfg.CoinMarketCap.Endpoint))
			}
			cmc, err := coinmarketcap.NewClient(cfg.CoinMarketCap.APIKey, opts...)
			if err != nil {
				return nil, fmt.Errorf("coinmarketcap client: %w", err)
			}
			c := cfg.CoinMarketCap
			var src provider.CryptoSource = cmc
			src = ratelimit.Wrap(src, c.MaxRequestsPerMinute, c.Burst, time.Duration(c.MinRequestIntervalSec)*time.Second)
			src = withCache(src, c.CacheTTLSeconds, c.CacheMaxItems)
			gw.Crypto = append(gw.Crypto, src)
		}
	}

	if cfg.Alternative.Enabled {
		opts := []alternative.Option{
			alternative.WithHTTPClient(hc),
			alternative.WithConcurrency(cfg.Alternative.MaxConcurrency),
			alternative.WithListings(time.Duration(cfg.Alternative.ListingsTTLSeconds) * time.Second),
		}
		if cfg.Alternative.Endpoint != "" {
			opts = append(opts, alternative.WithBaseURL(cfg.Alternative.Endpoint))
		}
		alt := alternative.NewClient(opts...)
		gw.Crypto = append(gw.Crypto, withCache(alt, cfg.Alternative.CacheTTLSeconds, cfg.Alternative.CacheMaxItems))
		gw.Sentiment = alt
		gw.Momentum = alt
	}

	if cfg.SyariahSaham.Enabled {
		opts := []syariahsaham.Option{syariahsaham.WithHTTPClient(hc)}
		if cfg.SyariahSaham.Endpoint != "" {
			opts = append(opts, syariahsaham.WithBaseURL(cfg.SyariahSaham.Endpoint))
		}
		gw.Equity = syariahsaham.NewClient(opts...)
	}

	if cfg.DexScreener.Enabled {
		opts := []dexscreener.Option{
			dexscreener.WithHTTPClient(hc),
			dexscreener.WithChain(cfg.DexScreener.Chain),
		}
		if cfg.DexScreener.Endpoint != "" {
			opts = append(opts, dexscreener.WithBaseURL(cfg.DexScreener.Endpoint))
		}
		gw.Token = dexscreener.NewClient(opts...)
	}

	if len(gw.Crypto) == 0 {
		log.Warn("no crypto sources enabled; crypto lookups will fail")
	}
	return gw, nil
}

func withCache(src provider.CryptoSource, ttlSec, maxItems int) provider.CryptoSource {
	if ttlSec <= 0 {
		return src
	}
	return &cache.Source{P: src, TTL: time.Duration(ttlSec) * time.Second, MaxItems: maxItems}
}
