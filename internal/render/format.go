package render

import (
	"math"
	"strconv"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"lubixbot/internal/quote"
)

const notAvailable = "Data belum tersedia"

// thousands groups whole numbers with dots, 1234567 -> 1.234.567.
var thousands = money.NewFormatter(0, ",", ".", "", "1")

// Thousands rounds n to a whole number and groups digits in threes from the right.
func Thousands(n float64) string {
	return thousands.Format(int64(math.Round(n)))
}

// IDR converts a USD amount at rate and formats it as rupiah.
func IDR(usd, rate float64) string {
	return "Rp " + Thousands(usd*rate)
}

// USD formats dollar amounts. Sub-dollar prices keep up to eight significant
// decimals so micro-cap tokens do not collapse to $0.00.
func USD(v float64) string {
	if math.Abs(v) >= 1 || v == 0 {
		return money.New(int64(math.Round(v*100)), money.USD).Display()
	}
	s := strconv.FormatFloat(v, 'g', 8, 64)
	if strings.ContainsAny(s, "eE") {
		s = strconv.FormatFloat(v, 'f', 10, 64)
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}
	if strings.HasPrefix(s, "-") {
		return "-$" + s[1:]
	}
	return "$" + s
}

// USDDec is USD for decimal amounts.
func USDDec(d decimal.Decimal) string {
	f, _ := d.Float64()
	return USD(f)
}

// Percent renders a signed percentage with two decimals.
func Percent(o quote.Optional) string {
	if !o.Set {
		return notAvailable
	}
	return signed(o.Value) + "%"
}

func signed(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	if v > 0 {
		return "+" + s
	}
	return s
}

// Ratio renders a screening ratio or the unavailable marker.
func Ratio(o quote.Optional) string {
	if !o.Set {
		return notAvailable
	}
	return strconv.FormatFloat(o.Value, 'f', 2, 64) + "%"
}

// Gauge draws a 20 cell bar for a 0..100 score.
func Gauge(score int) string {
	score = max(0, min(100, score))
	filled := score / 5
	return strings.Repeat("█", filled) + strings.Repeat("░", 20-filled)
}

func moodEmoji(score int) string {
	switch {
	case score <= 25:
		return "😱"
	case score <= 45:
		return "😨"
	case score <= 55:
		return "😐"
	case score <= 75:
		return "😏"
	default:
		return "🤑"
	}
}

func trendEmoji(o quote.Optional) string {
	switch {
	case !o.Set:
		return "▫️"
	case o.Value > 0:
		return "🟢"
	case o.Value < 0:
		return "🔴"
	default:
		return "⚪️"
	}
}
