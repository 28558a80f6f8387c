// Package quote holds the provider-agnostic records every upstream payload
// is normalized into before the conversation engine sees it.
package quote

import (
	"math"
	"strconv"
	"time"
)

var null = []byte("null")

// Optional is a numeric field an upstream may omit. The zero value is
// unavailable, so a missing field is never shown as a real zero.
type Optional struct {
	Value float64
	Set   bool
}

// Unavailable is the marker for a field the upstream did not provide.
var Unavailable = Optional{}

// Some returns a set Optional, or Unavailable when v is not finite.
func Some(v float64) Optional {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Unavailable
	}
	return Optional{Value: v, Set: true}
}

// FromPtr maps a nullable decoded field to an Optional.
func FromPtr(v *float64) Optional {
	if v == nil {
		return Unavailable
	}
	return Some(*v)
}

// FromString parses a decimal string such as DexScreener's "priceUsd".
func FromString(s string) Optional {
	if s == "" {
		return Unavailable
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Unavailable
	}
	return Some(v)
}

// Or returns the value when set, otherwise def.
func (o Optional) Or(def float64) float64 {
	if !o.Set {
		return def
	}
	return o.Value
}

// MarshalJSON writes an unavailable field as null.
func (o Optional) MarshalJSON() ([]byte, error) {
	if !o.Set {
		return null, nil
	}
	return strconv.AppendFloat(nil, o.Value, 'f', -1, 64), nil
}

// EquityQuote is an IDX listed company with its sharia screening data.
type EquityQuote struct {
	Code                 string
	Name                 string
	Sector               string
	Board                string
	Index                string
	Price                Optional // IDR
	PriceChange          Optional // IDR, signed
	MarketCap            Optional // IDR
	ShariaCompliant      bool
	DebtRatio            Optional // percent
	NonHalalRevenueRatio Optional // percent
}

// CryptoQuote is a centralized-market coin quote in USD.
// Percent changes are signed percentages, not fractions.
type CryptoQuote struct {
	Symbol     string
	Name       string
	PriceUSD   float64
	Change1h   Optional
	Change24h  Optional
	Change7d   Optional
	MarketCap  Optional
	Volume24h  Optional
	Source     string
	ReceivedAt time.Time
}

// OnChainTokenQuote is a DEX-traded token located by symbol or contract address.
type OnChainTokenQuote struct {
	Symbol          string
	Name            string
	ContractAddress string
	Chain           string
	PriceUSD        Optional
	Change1h        Optional
	Change24h       Optional
	LiquidityUSD    Optional
	Volume24h       Optional
	URL             string
}

// SentimentReading is the market-wide fear and greed index.
type SentimentReading struct {
	Score          int // 0..100
	Classification string
}

// MomentumReading is the short-horizon price momentum of one coin.
type MomentumReading struct {
	Symbol    string
	Name      string
	Change1h  Optional
	Change24h Optional
	Change7d  Optional
}
