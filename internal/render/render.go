// Package render turns engine intents into HTML chat messages with inline
// keyboards.
package render

import (
	"errors"
	"fmt"
	"html"
	"strings"

	"lubixbot/internal/engine"
	"lubixbot/internal/quote"
	"lubixbot/internal/session"
	"lubixbot/internal/simulator"
)

const (
	// DefaultIDRRate is the fixed USD to IDR rate used for display.
	DefaultIDRRate = 16000.0
	rule           = "━━━━━━━━━━━━━━━━━━━━━"
)

// Message is a rendered reply.
type Message struct {
	Text     string
	Keyboard [][]Button
}

type Renderer struct {
	IDRRate      float64
	AdminContact string
}

func New(idrRate float64, adminContact string) *Renderer {
	if idrRate <= 0 {
		idrRate = DefaultIDRRate
	}
	return &Renderer{IDRRate: idrRate, AdminContact: adminContact}
}

// Render formats one intent. A nil intent renders as an empty message.
func (r *Renderer) Render(in engine.Intent) Message {
	switch v := in.(type) {
	case engine.ShowWelcome:
		return Message{Text: r.welcome(v), Keyboard: mainMenu(v.Admin)}
	case engine.ShowHelp:
		return Message{Text: r.help(), Keyboard: mainMenu(false)}
	case engine.ShowHint:
		return Message{Text: "💡 Ketik /start untuk membuka menu, atau pilih modul lewat tombol.", Keyboard: mainMenu(false)}
	case engine.ShowModuleIntro:
		return r.intro(v.Module)
	case engine.ShowCrypto:
		return Message{Text: r.crypto(v.Quote), Keyboard: resultFooter()}
	case engine.ShowEquity:
		return Message{Text: equity(v.Quote), Keyboard: resultFooter()}
	case engine.ShowToken:
		return Message{Text: r.token(v.Quote), Keyboard: resultFooter()}
	case engine.ShowSentiment:
		return Message{Text: sentiment(v.Reading), Keyboard: resultFooter()}
	case engine.ShowMomentum:
		return Message{Text: momentum(v.Reading), Keyboard: resultFooter()}
	case engine.ShowMarket:
		return Message{Text: r.market(v.Quotes), Keyboard: resultFooter()}
	case engine.ShowTrade:
		return Message{Text: trade(v.Receipt), Keyboard: simMenu()}
	case engine.ShowPortfolio:
		return Message{Text: portfolio(v.Snapshot), Keyboard: simMenu()}
	case engine.ShowWatchlist:
		return Message{Text: watchlist(v), Keyboard: mainMenu(false)}
	case engine.ShowWatchlistAdded:
		return Message{Text: fmt.Sprintf("✅ <b>%s</b> ditambahkan ke Watchlist! (%d item)", html.EscapeString(v.Ticker), v.Count), Keyboard: resultFooter()}
	case engine.ShowError:
		return Message{Text: failure(v), Keyboard: homeOnly()}
	case engine.ShowDenied:
		return Message{Text: denied(v.Reason), Keyboard: homeOnly()}
	case engine.ShowAdminPanel:
		return Message{Text: adminPanel(v.Stats), Keyboard: adminMenu()}
	case engine.ShowAdminPrompt:
		return Message{Text: adminPrompt(v.State), Keyboard: homeOnly()}
	case engine.ShowAdminResult:
		return Message{Text: adminResult(v), Keyboard: adminMenu()}
	default:
		return Message{}
	}
}

func (r *Renderer) welcome(v engine.ShowWelcome) string {
	name := v.FirstName
	if name == "" {
		name = "Trader"
	}
	tier := "FREE"
	if v.Premium {
		tier = "PREMIUM 👑"
	}
	var b strings.Builder
	b.WriteString("💎 <b>LUBIX TERMINAL v3.7</b> 💎\n<i>Professional Financial Co-Pilot</i>\n" + rule + "\n\n")
	fmt.Fprintf(&b, "Selamat datang, <b>%s</b>.\n", html.EscapeString(name))
	b.WriteString("LubixBot adalah sistem integrasi data pasar modal dan crypto untuk memberikan wawasan investasi yang cerdas.\n\n")
	b.WriteString("🚀 <b>SYSTEM STATUS:</b>\n")
	b.WriteString("• 🛰 <b>Network:</b> <code>CONNECTED</code>\n")
	b.WriteString("• 📈 <b>Market:</b> <code>OPEN (Real-time Mode)</code>\n")
	b.WriteString("• 🕌 <b>Syariah Data:</b> <code>SYNCED</code>\n")
	fmt.Fprintf(&b, "• 🎫 <b>Akun:</b> <code>%s</code>\n\n", tier)
	b.WriteString(rule + "\n<i>Gunakan tombol di bawah atau ketik / untuk navigasi:</i>")
	return b.String()
}

func (r *Renderer) help() string {
	var b strings.Builder
	b.WriteString("❓ <b>LUBIX HELP &amp; DOCUMENTATION</b>\n<i>Panduan Lengkap Penggunaan Terminal</i>\n" + rule + "\n\n")
	b.WriteString("📖 <b>DAFTAR PERINTAH:</b>\n")
	b.WriteString("• /start - Reset &amp; Dashboard Utama\n")
	b.WriteString("• /kripto - Modul Harga Crypto Global\n")
	b.WriteString("• /saham - Modul Sharia Stock Indonesia\n")
	b.WriteString("• /solana - Modul Token On-Chain\n")
	b.WriteString("• /sim - Simulasi Trading Virtual\n")
	b.WriteString("• /realbuy - Info Eksekusi Nyata (Premium)\n")
	b.WriteString("• /help - Pusat Bantuan &amp; Info Teknis\n\n")
	if r.AdminContact != "" {
		fmt.Fprintf(&b, "📬 <b>KONTAK ADMIN:</b> Hubungi %s\n", html.EscapeString(r.AdminContact))
	}
	b.WriteString(rule)
	return b.String()
}

func (r *Renderer) intro(m engine.Module) Message {
	switch m {
	case engine.ModuleCrypto:
		return Message{Text: "🪙 <b>MODUL CRYPTOCURRENCY ENGINE</b>\n\n" +
			"Akses data harga real-time dari <b>CoinMarketCap</b> dan <b>Alternative.me</b>.\n\n" +
			"🛠 <b>INFO MODUL:</b>\n" +
			fmt.Sprintf("• Konversi Otomatis ke <b>IDR</b> (Rp %s)\n", Thousands(r.IDRRate)) +
			"• Format Output: <code>Ticker Prefix ($)</code>\n\n" +
			"📖 <b>PETUNJUK PENGGUNAAN:</b>\nKetik Ticker koin yang ingin dicari tanpa tanda baca.\n\n" +
			"<b>Contoh:</b> <code>BTC</code> atau <code>SOL</code>"}
	case engine.ModuleStock:
		return Message{Text: "🕌 <b>MODUL SHARIA SCREENER IDX</b>\n\n" +
			"Screening otomatis ke database <b>SyariahSaham</b> berdasarkan kriteria <b>ISSI (Indeks Saham Syariah Indonesia)</b>.\n\n" +
			"🛠 <b>INFO MODUL:</b>\n• Analisis: <code>Debt Ratio &amp; Non-Halal Rev</code>\n• Cakupan: <code>Seluruh Emiten BEI (IDX)</code>\n\n" +
			"📖 <b>PETUNJUK PENGGUNAAN:</b>\nKetik Kode Emiten (4 huruf).\n\n" +
			"<b>Contoh:</b> <code>BBRI</code> atau <code>MERI</code>"}
	case engine.ModuleSolana:
		return Message{Text: "🪐 <b>MODUL ON-CHAIN TOKEN SCANNER</b>\n\n" +
			"Pencarian token on-chain lewat <b>DexScreener</b>.\n\n" +
			"📖 <b>PETUNJUK:</b>\nKetik simbol, nama, atau contract address token.\n\n" +
			"<b>Contoh:</b> <code>BONK</code> atau <code>JUP</code>"}
	case engine.ModuleSentiment:
		return Message{Text: "🌡 <b>MODUL SENTIMENT ENGINE</b>\n\n" +
			"Menganalisis psikologi market melalui momentum harga dan index emosi market global.\n\n" +
			"🛠 <b>INFO MODUL:</b>\n• Source: <b>Alternative.me</b>\n• Feature: <b>Fear &amp; Greed Index &amp; Pulse Momentum</b>\n\n" +
			"📖 <b>PETUNJUK:</b>\nPilih <b>F&amp;G Index</b> untuk emosi global atau <b>PULSE</b> untuk momentum spesifik koin.",
			Keyboard: sentimentMenu()}
	case engine.ModulePulse:
		return Message{Text: "📈 <b>Masukkan Ticker/Nama Koin:</b>\n(Contoh: BTC atau bitcoin)"}
	case engine.ModuleSimulator:
		return Message{Text: "🎮 <b>LUBIX VIRTUAL BROKER</b>\n\n" +
			"Simulasi trading menggunakan saldo virtual tanpa risiko finansial.\n\n" +
			"🛠 <b>INFO TRADING:</b>\n• Saldo Awal: <b>$10,000 (Virtual)</b>\n• Order Size: <b>Fixed $1,000 per Trade</b>\n• Sell: <b>Tutup seluruh posisi</b>",
			Keyboard: simMenu()}
	case engine.ModuleBuy:
		return Message{Text: "📈 <b>LUBIX VIRTUAL BROKER (BUY)</b>\n\n" +
			"🛠 <b>INFO TRADING:</b>\n• Order Size: <b>Fixed $1,000 per Trade</b>\n• Harga: <b>Live saat eksekusi</b>\n\n" +
			"📖 <b>PETUNJUK:</b> Masukkan ticker koin yang ingin dibeli."}
	case engine.ModuleSell:
		return Message{Text: "📉 <b>LUBIX VIRTUAL BROKER (SELL)</b>\n\n📖 <b>PETUNJUK:</b> Masukkan ticker koin yang ingin dijual. Seluruh posisi akan ditutup."}
	case engine.ModuleAddWatchlist:
		return Message{Text: "⭐ <b>Masukkan ticker untuk Watchlist:</b>"}
	case engine.ModuleRealBuy:
		return Message{Text: "👑 <b>REAL EXECUTION (PREMIUM)</b>\n\n" +
			"Eksekusi nyata belum tersedia di terminal ini. Gunakan /sim untuk latihan dan hubungi admin untuk akses broker.",
			Keyboard: homeOnly()}
	default:
		return Message{Text: "💡 Modul tidak dikenal.", Keyboard: mainMenu(false)}
	}
}

func (r *Renderer) crypto(q quote.CryptoQuote) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🪙 <b>%s ($%s)</b>\n%s\n", html.EscapeString(q.Name), html.EscapeString(q.Symbol), rule)
	fmt.Fprintf(&b, "💵 USD: %s\n", USD(q.PriceUSD))
	fmt.Fprintf(&b, "🇮🇩 IDR: %s\n", IDR(q.PriceUSD, r.IDRRate))
	fmt.Fprintf(&b, "%s 1H: <code>%s</code>\n", trendEmoji(q.Change1h), Percent(q.Change1h))
	fmt.Fprintf(&b, "%s 24H: <code>%s</code>\n", trendEmoji(q.Change24h), Percent(q.Change24h))
	fmt.Fprintf(&b, "%s 7D: <code>%s</code>\n", trendEmoji(q.Change7d), Percent(q.Change7d))
	if q.MarketCap.Set {
		fmt.Fprintf(&b, "🏦 Market Cap: %s\n", USD(q.MarketCap.Value))
	}
	if q.Volume24h.Set {
		fmt.Fprintf(&b, "🔁 Volume 24H: %s\n", USD(q.Volume24h.Value))
	}
	b.WriteString(rule)
	return b.String()
}

func rupiah(o quote.Optional) string {
	if !o.Set {
		return notAvailable
	}
	return "Rp " + Thousands(o.Value)
}

func equity(e quote.EquityQuote) string {
	status := "❌ Non-Syariah"
	if e.ShariaCompliant {
		status = "✅ Syariah"
	}
	change := notAvailable
	if e.PriceChange.Set {
		change = Thousands(e.PriceChange.Value)
		if e.PriceChange.Value > 0 {
			change = "+" + change
		}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🏢 <b>%s</b>\n🔖 Ticker: <code>%s</code>\n%s\n\n", html.EscapeString(strings.ToUpper(e.Name)), html.EscapeString(e.Code), rule)
	fmt.Fprintf(&b, "💰 <b>PRICE:</b> %s (%s)\n", rupiah(e.Price), change)
	fmt.Fprintf(&b, "• Papan: <code>%s</code>\n• Index: <code>%s</code>\n\n", orNA(e.Board), orNA(e.Index))
	fmt.Fprintf(&b, "🕌 <b>SHARIA:</b>\n• Status: <b>%s</b>\n• Debt: <code>%s</code>\n• Non-Halal: <code>%s</code>\n\n", status, Ratio(e.DebtRatio), Ratio(e.NonHalalRevenueRatio))
	fmt.Fprintf(&b, "📊 <b>DATA:</b>\n• Market Cap: %s\n• Sektor: %s\n%s", rupiah(e.MarketCap), orNA(e.Sector), rule)
	return b.String()
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return notAvailable
	}
	return html.EscapeString(s)
}

func (r *Renderer) token(t quote.OnChainTokenQuote) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🪐 <b>%s (%s)</b>\n%s\n", html.EscapeString(t.Name), html.EscapeString(t.Symbol), rule)
	fmt.Fprintf(&b, "🔗 Chain: <code>%s</code>\n", orNA(t.Chain))
	fmt.Fprintf(&b, "📜 CA: <code>%s</code>\n", orNA(t.ContractAddress))
	if t.PriceUSD.Set {
		fmt.Fprintf(&b, "💵 Price: %s\n🇮🇩 IDR: %s\n", USD(t.PriceUSD.Value), IDR(t.PriceUSD.Value, r.IDRRate))
	} else {
		fmt.Fprintf(&b, "💵 Price: %s\n", notAvailable)
	}
	fmt.Fprintf(&b, "%s 1H: <code>%s</code>\n", trendEmoji(t.Change1h), Percent(t.Change1h))
	fmt.Fprintf(&b, "%s 24H: <code>%s</code>\n", trendEmoji(t.Change24h), Percent(t.Change24h))
	fmt.Fprintf(&b, "💧 Liquidity: %s\n", usdOpt(t.LiquidityUSD))
	fmt.Fprintf(&b, "🔁 Volume 24H: %s\n", usdOpt(t.Volume24h))
	if t.URL != "" {
		fmt.Fprintf(&b, "🌐 <a href=\"%s\">DexScreener</a>\n", html.EscapeString(t.URL))
	}
	b.WriteString(rule)
	return b.String()
}

func usdOpt(o quote.Optional) string {
	if !o.Set {
		return notAvailable
	}
	return USD(o.Value)
}

func sentiment(s quote.SentimentReading) string {
	return fmt.Sprintf("🎭 <b>F&amp;G INDEX: %d (%s)</b> %s\n<code>%s</code>\n<i>0 = Extreme Fear · 100 = Extreme Greed</i>",
		s.Score, html.EscapeString(s.Classification), moodEmoji(s.Score), Gauge(s.Score))
}

func momentum(m quote.MomentumReading) string {
	return fmt.Sprintf("📈 <b>Momentum %s (%s)</b>\n%s\n1H: <code>%s</code>\n24H: <code>%s</code>\n7D: <code>%s</code>\n%s",
		html.EscapeString(m.Name), html.EscapeString(m.Symbol), rule,
		Percent(m.Change1h), Percent(m.Change24h), Percent(m.Change7d), rule)
}

func (r *Renderer) market(qs []quote.CryptoQuote) string {
	var b strings.Builder
	b.WriteString("📊 <b>MARKET OVERVIEW</b>\n" + rule + "\n")
	if len(qs) == 0 {
		b.WriteString(notAvailable + "\n")
	}
	for _, q := range qs {
		fmt.Fprintf(&b, "%s <b>%s</b> %s (<code>%s</code>)\n", trendEmoji(q.Change24h), html.EscapeString(q.Symbol), USD(q.PriceUSD), Percent(q.Change24h))
	}
	b.WriteString(rule)
	return b.String()
}

func trade(t simulator.TradeReceipt) string {
	var b strings.Builder
	if t.Side == simulator.Buy {
		fmt.Fprintf(&b, "✅ <b>BUY %s</b> senilai %s Berhasil!\n%s\n", html.EscapeString(t.Symbol), USDDec(t.Notional), rule)
		fmt.Fprintf(&b, "• Harga: %s\n• Qty: <code>%s</code>\n• Avg Cost: %s\n", USDDec(t.Price), t.Quantity.StringFixed(6), USDDec(t.AvgCost))
	} else {
		fmt.Fprintf(&b, "✅ <b>SELL %s</b> Berhasil!\n%s\n", html.EscapeString(t.Symbol), rule)
		fmt.Fprintf(&b, "• Harga: %s\n• Qty: <code>%s</code>\n• Hasil: %s\n", USDDec(t.Price), t.Quantity.StringFixed(6), USDDec(t.Notional))
		fmt.Fprintf(&b, "• P&amp;L: <b>%s</b>\n", pnl(t.RealizedPnL.InexactFloat64()))
	}
	fmt.Fprintf(&b, "💵 Cash: %s\n🧾 <code>%s</code>\n%s", USDDec(t.CashAfter), t.ID, rule)
	return b.String()
}

func pnl(v float64) string {
	if v > 0 {
		return "+" + USD(v)
	}
	return USD(v)
}

func portfolio(s simulator.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "💼 <b>PORTFOLIO ENGINE</b>\n%s\n💵 <b>Cash:</b> %s\n\nAssets:\n", rule, USDDec(s.Cash))
	if len(s.Positions) == 0 {
		b.WriteString("• (kosong)\n")
	}
	for _, p := range s.Positions {
		fmt.Fprintf(&b, "• %s: %s (Avg %s)", html.EscapeString(p.Symbol), p.Quantity.StringFixed(4), USDDec(p.AvgCost))
		if p.Priced {
			fmt.Fprintf(&b, " → %s [%s]\n", USDDec(p.MarketValue), pnl(p.UnrealizedPnL.InexactFloat64()))
		} else {
			b.WriteString(" → harga live tidak tersedia\n")
		}
	}
	fmt.Fprintf(&b, "\n📊 <b>Total:</b> %s\n%s", USDDec(s.Total), rule)
	return b.String()
}

func watchlist(v engine.ShowWatchlist) string {
	if len(v.Tickers) == 0 {
		return "⭐ <b>WATCHLIST ANDA:</b>\nMasih kosong. Tekan ➕ ⭐ setelah melihat harga untuk menambahkan."
	}
	var b strings.Builder
	b.WriteString("⭐ <b>WATCHLIST ANDA:</b>\n" + rule + "\n")
	for i, t := range v.Tickers {
		line := notAvailable
		if q, ok := v.Prices[t]; ok {
			line = fmt.Sprintf("%s (%s)", USD(q.PriceUSD), Percent(q.Change24h))
		}
		fmt.Fprintf(&b, "%d. <b>%s</b> %s\n", i+1, html.EscapeString(t), line)
	}
	b.WriteString(rule)
	return b.String()
}

func failure(v engine.ShowError) string {
	var te *simulator.TradeError
	if errors.As(v.Err, &te) {
		sym := html.EscapeString(te.Symbol)
		switch te.Kind {
		case simulator.KindInsufficientFunds:
			return "❌ Saldo kurang."
		case simulator.KindNoPosition:
			return fmt.Sprintf("❌ Anda tidak memiliki posisi <b>%s</b>.", sym)
		case simulator.KindQuoteUnavailable:
			return fmt.Sprintf("❌ Harga <b>%s</b> tidak tersedia saat ini.", sym)
		}
	}
	switch {
	case errors.Is(v.Err, quote.ErrNotFound):
		return notFound(v.Module)
	case errors.Is(v.Err, quote.ErrMalformed):
		return "⚠️ Respons data dari penyedia tidak valid. Coba lagi nanti."
	default:
		return "⚠️ Layanan data sedang tidak dapat dihubungi. Coba lagi nanti."
	}
}

func notFound(m engine.Module) string {
	switch m {
	case engine.ModuleStock:
		return "❌ Emiten tidak ditemukan."
	case engine.ModuleSolana:
		return "❌ Token tidak ditemukan."
	case engine.ModulePulse:
		return "❌ Data Pulse tidak ditemukan."
	case engine.ModuleSentiment:
		return "❌ Data sentimen tidak tersedia."
	default:
		return "❌ Koin tidak ditemukan."
	}
}

func denied(reason engine.DenyReason) string {
	switch reason {
	case engine.DenyNotAdmin:
		return "⛔ Akses ditolak. Fitur ini khusus admin."
	case engine.DenyPremiumRequired:
		return "👑 Fitur ini khusus pengguna <b>Premium</b>. Hubungi admin untuk upgrade."
	default:
		return "⚠️ Format input tidak valid."
	}
}

func adminPanel(s session.Stats) string {
	return fmt.Sprintf("🛡 <b>ADMIN PANEL</b>\n%s\n👥 Users: <code>%d</code>\n🚫 Banned: <code>%d</code>\n👑 Premium: <code>%d</code> user, <code>%d</code> grup\n💼 Portfolio aktif: <code>%d</code>\n⏳ Sesi menunggu input: <code>%d</code>\n%s",
		rule, s.Users, s.Banned, s.PremiumUsers, s.PremiumGroups, s.Portfolios, s.ActiveStates, rule)
}

func adminPrompt(st session.State) string {
	switch st {
	case session.AwaitingAdminBroadcast:
		return "📣 Kirim teks broadcast untuk semua user:"
	case session.AwaitingAdminBan:
		return "🚫 Kirim chat id yang akan di-ban:"
	case session.AwaitingAdminUnban:
		return "✅ Kirim chat id yang akan di-unban:"
	case session.AwaitingAdminGift:
		return "🎁 Kirim <code>chat_id jumlah</code>, contoh: <code>12345 500</code>"
	case session.AwaitingAdminPremium:
		return "👑 Kirim chat id (user atau grup) untuk Premium:"
	case session.AwaitingAdminDirectMessage:
		return "✉️ Kirim <code>chat_id|pesan</code>, contoh: <code>12345|Halo!</code>"
	case session.AwaitingAdminAddGroup:
		return "➕ Kirim id grup yang diizinkan:"
	case session.AwaitingAdminRemoveGroup:
		return "➖ Kirim id grup yang dicabut:"
	default:
		return "🛡 Pilih aksi admin."
	}
}

func adminResult(v engine.ShowAdminResult) string {
	switch v.State {
	case session.AwaitingAdminBroadcast:
		if v.Report == nil {
			return "⚠️ Broadcast gagal: " + html.EscapeString(v.Detail)
		}
		return fmt.Sprintf("📣 Broadcast selesai: <b>%d</b> terkirim, <b>%d</b> gagal, <b>%d</b> dilewati dari %d user.",
			v.Report.Sent, v.Report.Failed, v.Report.Skipped, v.Report.Recipients)
	case session.AwaitingAdminBan:
		return fmt.Sprintf("🚫 <code>%d</code> telah di-ban.", v.Target)
	case session.AwaitingAdminUnban:
		return fmt.Sprintf("✅ <code>%d</code> telah di-unban.", v.Target)
	case session.AwaitingAdminGift:
		return fmt.Sprintf("🎁 Saldo <code>%d</code> sekarang <b>$%s</b>.", v.Target, html.EscapeString(v.Detail))
	case session.AwaitingAdminPremium:
		return fmt.Sprintf("👑 <code>%d</code> sekarang Premium.", v.Target)
	case session.AwaitingAdminDirectMessage:
		return fmt.Sprintf("✉️ Pesan ke <code>%d</code>: %s", v.Target, html.EscapeString(v.Detail))
	case session.AwaitingAdminAddGroup:
		return fmt.Sprintf("➕ Grup <code>%d</code> diizinkan.", v.Target)
	case session.AwaitingAdminRemoveGroup:
		return fmt.Sprintf("➖ Grup <code>%d</code> dicabut.", v.Target)
	default:
		return "🛡 Selesai."
	}
}
