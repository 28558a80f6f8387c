package aggregate

import (
	"sort"
	"strings"

	"lubixbot/internal/quote"
)

// aliasMap normalizes coin names people type instead of tickers.
var aliasMap = map[string]string{
	"bitcoin":  "BTC",
	"xbt":      "BTC",
	"ethereum": "ETH",
	"ether":    "ETH",
	"solana":   "SOL",
	"binance":  "BNB",
	"bnb":      "BNB",
	"ripple":   "XRP",
	"tether":   "USDT",
	"dogecoin": "DOGE",
}

// NormalizeSymbol trims, resolves aliases and upper-cases a user supplied ticker.
func NormalizeSymbol(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	if norm, ok := aliasMap[strings.ToLower(s)]; ok {
		return norm
	}
	return strings.ToUpper(s)
}

// NormalizeSymbols applies NormalizeSymbol, dropping empties and duplicates
// while keeping the first-seen order.
func NormalizeSymbols(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		n := NormalizeSymbol(s)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// LatestBySymbol collapses quotes coming from several sources into one quote
// per symbol. batches are ordered by source priority.
// Rules:
//   - the newest ReceivedAt wins
//   - on equal timestamps the higher priority batch wins
//   - a zero timestamp loses against any set timestamp
//   - quotes without a positive price are ignored
func LatestBySymbol(batches ...[]quote.CryptoQuote) map[string]quote.CryptoQuote {
	latest := make(map[string]quote.CryptoQuote)
	for _, batch := range batches {
		for _, q := range batch {
			if q.PriceUSD <= 0 {
				continue
			}
			sym := NormalizeSymbol(q.Symbol)
			q.Symbol = sym
			cur, ok := latest[sym]
			if !ok || q.ReceivedAt.After(cur.ReceivedAt) {
				latest[sym] = q
			}
		}
	}
	return latest
}

// Ordered returns the snapshot entries following order, skipping absent symbols.
// Symbols not named in order are appended alphabetically.
func Ordered(snapshot map[string]quote.CryptoQuote, order []string) []quote.CryptoQuote {
	out := make([]quote.CryptoQuote, 0, len(snapshot))
	used := make(map[string]struct{}, len(order))
	for _, s := range order {
		sym := NormalizeSymbol(s)
		if q, ok := snapshot[sym]; ok {
			if _, dup := used[sym]; dup {
				continue
			}
			used[sym] = struct{}{}
			out = append(out, q)
		}
	}
	rest := make([]quote.CryptoQuote, 0, len(snapshot)-len(out))
	for sym, q := range snapshot {
		if _, ok := used[sym]; !ok {
			rest = append(rest, q)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i].Symbol < rest[j].Symbol })
	return append(out, rest...)
}
