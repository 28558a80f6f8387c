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

// MinInterval spaces calls to a crypto source at least Interval apart.
// Each caller reserves the next free slot under the lock, so concurrent
// callers queue up instead of firing together.
type MinInterval struct {
	P        provider.CryptoSource
	Interval time.Duration
	mu       sync.Mutex
	next     time.Time
}

func (m *MinInterval) Name() string { return m.P.Name() }

func (m *MinInterval) Fetch(ctx context.Context, symbols []string) ([]quote.CryptoQuote, error) {
	if m.Interval > 0 {
		m.mu.Lock()
		now := time.Now()
		slot := m.next
		if slot.Before(now) {
			slot = now
		}
		m.next = slot.Add(m.Interval)
		m.mu.Unlock()

		if wait := time.Until(slot); wait > 0 {
			t := time.NewTimer(wait)
			defer t.Stop()
			select {
			case <-ctx.Done():
				return nil, quote.Transport(m.P.Name(), strings.Join(symbols, ","), fmt.Errorf("rate limited: %w", ctx.Err()))
			case <-t.C:
			}
		}
	}
	return m.P.Fetch(ctx, symbols)
}

// Wrap applies the limiter the config asks for: a token bucket when a
// per-minute budget is set, otherwise a minimum interval, otherwise nothing.
func Wrap(p provider.CryptoSource, maxPerMinute, burst int, minInterval time.Duration) provider.CryptoSource {
	switch {
	case maxPerMinute > 0:
		if burst <= 0 {
			burst = 1
		}
		return &TokenBucketSource{P: p, TB: NewTokenBucket(float64(maxPerMinute)/60.0, burst)}
	case minInterval > 0:
		return &MinInterval{P: p, Interval: minInterval}
	default:
		return p
	}
}
