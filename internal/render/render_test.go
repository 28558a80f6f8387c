package render

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"lubixbot/internal/engine"
	"lubixbot/internal/quote"
	"lubixbot/internal/session"
	"lubixbot/internal/simulator"
)

func TestThousands(t *testing.T) {
	cases := map[float64]string{
		0:          "0",
		7:          "7",
		999:        "999",
		1000:       "1.000",
		1234567:    "1.234.567",
		800000000:  "800.000.000",
		1234567.6:  "1.234.568",
		16000 * 50: "800.000",
	}
	for in, want := range cases {
		require.Equalf(t, want, Thousands(in), "Thousands(%v)", in)
	}
}

func TestIDRAndUSD(t *testing.T) {
	require.Equal(t, "Rp 800.000.000", IDR(50000, 16000))
	require.Equal(t, "$50,000.00", USD(50000))
	require.Equal(t, "$0.00", USD(0))
	require.Equal(t, "$0.00002134", USD(0.00002134))
	require.Equal(t, "$0.5", USD(0.5))
	require.Equal(t, "-$12.50", USD(-12.5))
}

func TestPercentAndRatio(t *testing.T) {
	require.Equal(t, "+2.50%", Percent(quote.Some(2.5)))
	require.Equal(t, "-0.25%", Percent(quote.Some(-0.25)))
	require.Equal(t, notAvailable, Percent(quote.Unavailable))
	require.Equal(t, notAvailable, Ratio(quote.Unavailable))
	require.Equal(t, "12.30%", Ratio(quote.Some(12.3)))
}

func TestGauge(t *testing.T) {
	require.Equal(t, strings.Repeat("░", 20), Gauge(0))
	require.Equal(t, strings.Repeat("█", 20), Gauge(100))
	require.Equal(t, strings.Repeat("█", 10)+strings.Repeat("░", 10), Gauge(50))
	require.Equal(t, Gauge(100), Gauge(140))

	// partial cells are not drawn
	nine := strings.Repeat("█", 9) + strings.Repeat("░", 11)
	require.Equal(t, nine, Gauge(48))
	require.Equal(t, nine, Gauge(49))
	require.Equal(t, strings.Repeat("█", 19)+"░", Gauge(99))
}

func TestMoodEmoji_Bounds(t *testing.T) {
	cases := map[int]string{
		0:   "😱",
		25:  "😱",
		26:  "😨",
		45:  "😨",
		46:  "😐",
		55:  "😐",
		56:  "😏",
		75:  "😏",
		76:  "🤑",
		100: "🤑",
	}
	for score, want := range cases {
		require.Equal(t, want, moodEmoji(score), "score %d", score)
	}
}

func TestRender_Crypto(t *testing.T) {
	r := New(0, "")
	msg := r.Render(engine.ShowCrypto{Quote: quote.CryptoQuote{
		Symbol: "BTC", Name: "Bitcoin", PriceUSD: 50000,
		Change24h: quote.Some(2.5),
	}})

	require.Contains(t, msg.Text, "Bitcoin ($BTC)")
	require.Contains(t, msg.Text, "USD: $50,000.00")
	require.Contains(t, msg.Text, "IDR: Rp 800.000.000")
	require.Contains(t, msg.Text, "24H: <code>+2.50%</code>")
	require.Contains(t, msg.Text, "1H: <code>"+notAvailable+"</code>")
	require.NotContains(t, msg.Text, "Market Cap")
	require.Equal(t, "add_watchlist", msg.Keyboard[0][1].Data)
}

func TestRender_EquityShowsUnavailableFields(t *testing.T) {
	msg := New(16000, "").Render(engine.ShowEquity{Quote: quote.EquityQuote{
		Code: "BBRI", Name: "Bank Rakyat <Indonesia>", Price: quote.Some(4520), PriceChange: quote.Some(-30),
		ShariaCompliant: false,
	}})

	require.Contains(t, msg.Text, "BANK RAKYAT &lt;INDONESIA&gt;")
	require.Contains(t, msg.Text, "Rp 4.520 (-30)")
	require.Contains(t, msg.Text, "❌ Non-Syariah")
	require.Contains(t, msg.Text, "Debt: <code>"+notAvailable+"</code>")
	require.Contains(t, msg.Text, "Market Cap: "+notAvailable)
}

func TestRender_Errors(t *testing.T) {
	r := New(0, "")
	cases := []struct {
		in   engine.ShowError
		want string
	}{
		{engine.ShowError{Module: engine.ModuleCrypto, Err: quote.NotFound("cmc", "X")}, "Koin tidak ditemukan"},
		{engine.ShowError{Module: engine.ModuleStock, Err: quote.NotFound("s", "X")}, "Emiten tidak ditemukan"},
		{engine.ShowError{Module: engine.ModuleSolana, Err: quote.Transport("d", "X", errors.New("x"))}, "tidak dapat dihubungi"},
		{engine.ShowError{Module: engine.ModulePulse, Err: quote.Malformed("a", "X", errors.New("x"))}, "tidak valid"},
		{engine.ShowError{Module: engine.ModuleBuy, Err: &simulator.TradeError{Kind: simulator.KindInsufficientFunds}}, "Saldo kurang"},
		{engine.ShowError{Module: engine.ModuleSell, Err: &simulator.TradeError{Kind: simulator.KindNoPosition, Symbol: "SOL"}}, "posisi <b>SOL</b>"},
	}
	for _, tc := range cases {
		require.Contains(t, r.Render(tc.in).Text, tc.want)
	}
}

func TestRender_TradeAndPortfolio(t *testing.T) {
	r := New(0, "")
	sell := r.Render(engine.ShowTrade{Receipt: simulator.TradeReceipt{
		ID: "abc", Side: simulator.Sell, Symbol: "BTC",
		Price: decimal.NewFromInt(55000), Quantity: decimal.RequireFromString("0.02"),
		Notional: decimal.NewFromInt(1100), RealizedPnL: decimal.NewFromInt(100), CashAfter: decimal.NewFromInt(10100),
	}})
	require.Contains(t, sell.Text, "SELL BTC")
	require.Contains(t, sell.Text, "+$100.00")
	require.Contains(t, sell.Text, "Cash: $10,100.00")

	pf := r.Render(engine.ShowPortfolio{Snapshot: simulator.Snapshot{
		Cash: decimal.NewFromInt(9000),
		Positions: []simulator.Position{{
			Holding: session.Holding{Symbol: "ETH", Quantity: decimal.NewFromInt(1), AvgCost: decimal.NewFromInt(1000)},
		}},
		Total: decimal.NewFromInt(10000),
	}})
	require.Contains(t, pf.Text, "ETH: 1.0000 (Avg $1,000.00)")
	require.Contains(t, pf.Text, "harga live tidak tersedia")
	require.Contains(t, pf.Text, "Total:</b> $10,000.00")
}

func TestRender_WelcomeAdminKeyboard(t *testing.T) {
	r := New(0, "@lubix_admin")
	user := r.Render(engine.ShowWelcome{FirstName: "Ana"})
	admin := r.Render(engine.ShowWelcome{FirstName: "Root", Admin: true, Premium: true})

	require.Contains(t, user.Text, "Selamat datang, <b>Ana</b>")
	require.Len(t, admin.Keyboard, len(user.Keyboard)+1)
	require.Contains(t, admin.Text, "PREMIUM")
	require.Contains(t, r.Render(engine.ShowHelp{}).Text, "@lubix_admin")
}

func TestRender_EveryButtonIsKnownToTheEngine(t *testing.T) {
	known := map[string]bool{}
	for _, kb := range [][][]Button{mainMenu(true), resultFooter(), sentimentMenu(), simMenu(), homeOnly(), adminMenu()} {
		for _, row := range kb {
			for _, b := range row {
				require.NotEmpty(t, b.Data)
				require.LessOrEqual(t, len(b.Data), 64, "telegram callback data limit")
				known[b.Data] = true
			}
		}
	}
	require.True(t, known["menu_fng"])
	require.True(t, known["admin_delgroup"])
}

func TestRender_WatchlistAndAdmin(t *testing.T) {
	r := New(0, "")
	wl := r.Render(engine.ShowWatchlist{
		Tickers: []string{"BTC", "DOGE"},
		Prices:  map[string]quote.CryptoQuote{"BTC": {Symbol: "BTC", PriceUSD: 50000, Change24h: quote.Some(1)}},
	})
	require.Contains(t, wl.Text, "1. <b>BTC</b> $50,000.00 (+1.00%)")
	require.Contains(t, wl.Text, "2. <b>DOGE</b> "+notAvailable)

	res := r.Render(engine.ShowAdminResult{State: session.AwaitingAdminBroadcast, Report: &engine.BroadcastReport{Recipients: 3, Sent: 2, Failed: 1}})
	require.Contains(t, res.Text, "<b>2</b> terkirim")
	require.Equal(t, Message{}, r.Render(nil))
}
