// Package simulator runs paper trades against session portfolios at live
// prices. Prices are fetched before a portfolio is locked.
package simulator

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"lubixbot/internal/aggregate"
	"lubixbot/internal/provider"
	"lubixbot/internal/quote"
	"lubixbot/internal/session"
)

// DefaultOrderNotional is the cash spent by every buy.
var DefaultOrderNotional = decimal.NewFromInt(1000)

// Pricer is the slice of the provider gateway the simulator needs.
type Pricer interface {
	FetchCrypto(ctx context.Context, symbol string) (quote.CryptoQuote, error)
	FetchMultiCryptoSnapshot(ctx context.Context, symbols []string) (map[string]quote.CryptoQuote, error)
}

type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// TradeReceipt describes one executed trade.
type TradeReceipt struct {
	ID       string
	Side     Side
	Symbol   string
	Price    decimal.Decimal
	Quantity decimal.Decimal
	// Notional is cash spent on a buy or proceeds of a sell.
	Notional    decimal.Decimal
	AvgCost     decimal.Decimal
	RealizedPnL decimal.Decimal // sells only
	CashAfter   decimal.Decimal
	At          time.Time
}

type Simulator struct {
	Store    *session.Store
	Prices   Pricer
	Notional decimal.Decimal
	Logger   *zap.Logger
	Now      func() time.Time
}

func New(store *session.Store, prices Pricer, logger *zap.Logger) *Simulator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Simulator{Store: store, Prices: prices, Notional: DefaultOrderNotional, Logger: logger, Now: time.Now}
}

func (s *Simulator) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *Simulator) notional() decimal.Decimal {
	if s.Notional.IsPositive() {
		return s.Notional
	}
	return DefaultOrderNotional
}

func (s *Simulator) price(ctx context.Context, sym string) (decimal.Decimal, error) {
	q, err := s.Prices.FetchCrypto(provider.Live(ctx), sym)
	if err != nil {
		return decimal.Zero, &TradeError{Kind: KindQuoteUnavailable, Symbol: sym, Err: err}
	}
	p := decimal.NewFromFloat(q.PriceUSD)
	if !p.IsPositive() {
		return decimal.Zero, &TradeError{Kind: KindQuoteUnavailable, Symbol: sym}
	}
	return p, nil
}

// Buy spends the order notional on symbol at its live price. The portfolio
// is unchanged when the quote is unavailable or cash is short.
func (s *Simulator) Buy(ctx context.Context, chatID int64, symbol string) (TradeReceipt, error) {
	sym := aggregate.NormalizeSymbol(symbol)
	if sym == "" {
		return TradeReceipt{}, &TradeError{Kind: KindQuoteUnavailable, Symbol: sym, Err: quote.NotFound("simulator", symbol)}
	}
	price, err := s.price(ctx, sym)
	if err != nil {
		return TradeReceipt{}, err
	}

	notional := s.notional()
	qty := notional.Div(price)
	r := TradeReceipt{ID: uuid.NewString(), Side: Buy, Symbol: sym, Price: price, Quantity: qty, Notional: notional}

	err = s.Store.WithPortfolio(chatID, func(p *session.Portfolio) error {
		if p.Cash.LessThan(notional) {
			return &TradeError{Kind: KindInsufficientFunds, Symbol: sym}
		}
		h := p.Holdings[sym]
		newQty := h.Quantity.Add(qty)
		h = session.Holding{
			Symbol:   sym,
			Quantity: newQty,
			AvgCost:  h.CostBasis().Add(notional).Div(newQty),
		}
		p.Holdings[sym] = h
		p.Cash = p.Cash.Sub(notional)
		r.AvgCost = h.AvgCost
		r.CashAfter = p.Cash
		return nil
	})
	if err != nil {
		return TradeReceipt{}, err
	}
	r.At = s.now()
	s.Logger.Info("simulated buy",
		zap.Int64("chat_id", chatID),
		zap.String("symbol", sym),
		zap.String("price", price.String()),
		zap.String("quantity", qty.String()),
		zap.String("trade_id", r.ID),
	)
	return r, nil
}

// Sell closes the whole position in symbol at its live price.
func (s *Simulator) Sell(ctx context.Context, chatID int64, symbol string) (TradeReceipt, error) {
	sym := aggregate.NormalizeSymbol(symbol)
	if _, ok := s.Store.Portfolio(chatID).Holdings[sym]; !ok || sym == "" {
		return TradeReceipt{}, &TradeError{Kind: KindNoPosition, Symbol: sym}
	}
	price, err := s.price(ctx, sym)
	if err != nil {
		return TradeReceipt{}, err
	}

	r := TradeReceipt{ID: uuid.NewString(), Side: Sell, Symbol: sym, Price: price}
	err = s.Store.WithPortfolio(chatID, func(p *session.Portfolio) error {
		// a concurrent sell may have closed it while we were pricing
		h, ok := p.Holdings[sym]
		if !ok {
			return &TradeError{Kind: KindNoPosition, Symbol: sym}
		}
		proceeds := h.Quantity.Mul(price)
		r.Quantity = h.Quantity
		r.Notional = proceeds
		r.AvgCost = h.AvgCost
		r.RealizedPnL = proceeds.Sub(h.CostBasis())
		p.Cash = p.Cash.Add(proceeds)
		delete(p.Holdings, sym)
		r.CashAfter = p.Cash
		return nil
	})
	if err != nil {
		return TradeReceipt{}, err
	}
	r.At = s.now()
	s.Logger.Info("simulated sell",
		zap.Int64("chat_id", chatID),
		zap.String("symbol", sym),
		zap.String("price", price.String()),
		zap.String("pnl", r.RealizedPnL.String()),
		zap.String("trade_id", r.ID),
	)
	return r, nil
}

// Position is one holding valued at the current price.
type Position struct {
	session.Holding
	// Priced is false when no live price was available; the position is
	// then valued at cost basis.
	Priced        bool
	Price         decimal.Decimal
	MarketValue   decimal.Decimal
	UnrealizedPnL decimal.Decimal
}

// Snapshot is a point-in-time valuation of one portfolio.
type Snapshot struct {
	Cash      decimal.Decimal
	Positions []Position
	Total     decimal.Decimal
}

// Valuation prices every holding with one snapshot lookup. A failed or
// partial lookup never fails the report.
func (s *Simulator) Valuation(ctx context.Context, chatID int64) Snapshot {
	p := s.Store.Portfolio(chatID)
	symbols := p.Symbols()

	var prices map[string]quote.CryptoQuote
	if len(symbols) > 0 {
		var err error
		prices, err = s.Prices.FetchMultiCryptoSnapshot(ctx, symbols)
		if err != nil {
			s.Logger.Warn("valuation prices unavailable", zap.Int64("chat_id", chatID), zap.Error(err))
		}
	}

	snap := Snapshot{Cash: p.Cash, Total: p.Cash}
	for _, sym := range symbols {
		h := p.Holdings[sym]
		pos := Position{Holding: h, MarketValue: h.CostBasis()}
		if q, ok := prices[sym]; ok && q.PriceUSD > 0 {
			pos.Priced = true
			pos.Price = decimal.NewFromFloat(q.PriceUSD)
			pos.MarketValue = h.Quantity.Mul(pos.Price)
		}
		pos.UnrealizedPnL = pos.MarketValue.Sub(h.CostBasis())
		snap.Positions = append(snap.Positions, pos)
		snap.Total = snap.Total.Add(pos.MarketValue)
	}
	return snap
}
