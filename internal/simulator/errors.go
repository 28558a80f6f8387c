package simulator

import (
	"errors"
	"fmt"
)

// Kind classifies a failed trade.
type Kind int

const (
	KindInsufficientFunds Kind = iota + 1
	KindNoPosition
	KindQuoteUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindInsufficientFunds:
		return "insufficient funds"
	case KindNoPosition:
		return "no position"
	case KindQuoteUnavailable:
		return "quote unavailable"
	default:
		return "unknown"
	}
}

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNoPosition        = errors.New("no position")
	ErrQuoteUnavailable  = errors.New("quote unavailable")
)

// TradeError is returned by Buy and Sell. It matches the Err* sentinels
// with errors.Is and unwraps to the lookup failure when there is one.
type TradeError struct {
	Kind   Kind
	Symbol string
	Err    error
}

func (e *TradeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("trade %s: %s: %v", e.Symbol, e.Kind, e.Err)
	}
	return fmt.Sprintf("trade %s: %s", e.Symbol, e.Kind)
}

func (e *TradeError) Unwrap() error { return e.Err }

func (e *TradeError) Is(target error) bool {
	switch target {
	case ErrInsufficientFunds:
		return e.Kind == KindInsufficientFunds
	case ErrNoPosition:
		return e.Kind == KindNoPosition
	case ErrQuoteUnavailable:
		return e.Kind == KindQuoteUnavailable
	}
	return false
}
