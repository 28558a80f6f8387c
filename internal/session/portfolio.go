package session

import (
	"maps"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// Holding is an open simulated position. A position with zero quantity is
// never stored; it is removed from Portfolio.Holdings instead.
type Holding struct {
	Symbol   string
	Quantity decimal.Decimal
	AvgCost  decimal.Decimal
}

// CostBasis is Quantity × AvgCost.
func (h Holding) CostBasis() decimal.Decimal {
	return h.Quantity.Mul(h.AvgCost)
}

// Portfolio is one chat's simulated account.
type Portfolio struct {
	Cash     decimal.Decimal
	Holdings map[string]Holding
}

func newPortfolio(cash decimal.Decimal) *Portfolio {
	return &Portfolio{Cash: cash, Holdings: make(map[string]Holding)}
}

// Clone returns a deep copy.
func (p *Portfolio) Clone() Portfolio {
	return Portfolio{Cash: p.Cash, Holdings: maps.Clone(p.Holdings)}
}

// Symbols returns held symbols sorted alphabetically.
func (p *Portfolio) Symbols() []string {
	return slices.Sorted(maps.Keys(p.Holdings))
}

// Watchlist is an ordered, duplicate-permitting list of tickers.
type Watchlist []string

// Add upper-cases ticker and appends it.
func (w *Watchlist) Add(ticker string) string {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	*w = append(*w, t)
	return t
}
