package render

// Button is one inline keyboard button carrying a callback token.
type Button struct {
	Text string
	Data string
}

func row(b ...Button) []Button { return b }

func mainMenu(admin bool) [][]Button {
	kb := [][]Button{
		row(Button{"💰 CRYPTO", "menu_crypto"}, Button{"🕌 SAHAM", "menu_sharia"}),
		row(Button{"🪐 SOLANA", "menu_solana"}, Button{"🌡 SENTIMENT", "menu_sentiment_info"}),
		row(Button{"📊 MARKET", "menu_market"}, Button{"⭐ WATCHLIST", "menu_watchlist"}),
		row(Button{"📈 BUY", "menu_buy"}, Button{"💼 PORTFOLIO", "menu_portfolio"}),
		row(Button{"❓ HELP", "menu_help"}, Button{"🏠 HOME", "back_to_main"}),
	}
	if admin {
		kb = append(kb, row(Button{"🛡 ADMIN PANEL", "admin_panel"}))
	}
	return kb
}

func resultFooter() [][]Button {
	return [][]Button{
		row(Button{"🏠 HOME", "back_to_main"}, Button{"➕ ⭐", "add_watchlist"}, Button{"📉 SELL", "menu_sell"}),
	}
}

func sentimentMenu() [][]Button {
	return [][]Button{
		row(Button{"🎭 F&G INDEX", "menu_fng"}, Button{"📈 PULSE", "menu_pulse"}),
		row(Button{"🏠 HOME", "back_to_main"}),
	}
}

func simMenu() [][]Button {
	return [][]Button{
		row(Button{"📈 BUY", "menu_buy"}, Button{"📉 SELL", "menu_sell"}),
		row(Button{"💼 PORTFOLIO", "menu_portfolio"}, Button{"🏠 HOME", "back_to_main"}),
	}
}

func homeOnly() [][]Button {
	return [][]Button{row(Button{"🏠 HOME", "back_to_main"})}
}

func adminMenu() [][]Button {
	return [][]Button{
		row(Button{"📣 BROADCAST", "admin_broadcast"}, Button{"✉️ DM", "admin_dm"}),
		row(Button{"🚫 BAN", "admin_ban"}, Button{"✅ UNBAN", "admin_unban"}),
		row(Button{"🎁 GIFT", "admin_gift"}, Button{"👑 PREMIUM", "admin_premium"}),
		row(Button{"➕ GROUP", "admin_addgroup"}, Button{"➖ GROUP", "admin_delgroup"}),
		row(Button{"📊 STATS", "admin_stats"}, Button{"🏠 HOME", "back_to_main"}),
	}
}
