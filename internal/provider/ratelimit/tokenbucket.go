package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"lubixbot/internal/provider"
	"lubixbot/internal/quote"
)

// TokenBucket is a reservation-based token bucket. Each Wait takes a token
// immediately, letting the balance go negative, and sleeps until that token
// would have been earned. A caller that gives up returns its token.
type TokenBucket struct {
	rate     float64 // tokens per second
	capacity float64 // burst

	mu     sync.Mutex
	tokens float64
	last   time.Time
	now    func() time.Time
}

func NewTokenBucket(tokensPerSecond float64, burst int) *TokenBucket {
	if tokensPerSecond <= 0 {
		tokensPerSecond = 1e-7
	}
	burst = max(burst, 1)
	return &TokenBucket{
		rate:     tokensPerSecond,
		capacity: float64(burst),
		tokens:   float64(burst),
		last:     time.Now(),
		now:      time.Now,
	}
}

// reserve takes one token and reports how long the caller must wait for it.
func (tb *TokenBucket) reserve() time.Duration {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	now := tb.now()
	if elapsed := now.Sub(tb.last).Seconds(); elapsed > 0 {
		tb.tokens = min(tb.capacity, tb.tokens+elapsed*tb.rate)
		tb.last = now
	}
	tb.tokens--
	if tb.tokens >= 0 {
		return 0
	}
	return time.Duration(-tb.tokens / tb.rate * float64(time.Second))
}

func (tb *TokenBucket) cancel() {
	tb.mu.Lock()
	tb.tokens = min(tb.capacity, tb.tokens+1)
	tb.mu.Unlock()
}

// Wait blocks until the caller's token is due or ctx ends.
func (tb *TokenBucket) Wait(ctx context.Context) error {
	d := tb.reserve()
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		tb.cancel()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// TokenBucketSource gates a crypto source with a token bucket. A caller whose
// context ends while throttled gets a transport error and the upstream is
// never called.
type TokenBucketSource struct {
	P  provider.CryptoSource
	TB *TokenBucket
}

func (t *TokenBucketSource) Name() string { return t.P.Name() }

func (t *TokenBucketSource) Fetch(ctx context.Context, symbols []string) ([]quote.CryptoQuote, error) {
	if t.TB != nil {
		if err := t.TB.Wait(ctx); err != nil {
			return nil, quote.Transport(t.P.Name(), strings.Join(symbols, ","), fmt.Errorf("rate limited: %w", err))
		}
	}
	return t.P.Fetch(ctx, symbols)
}
