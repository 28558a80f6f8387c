package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap/zaptest"

	"lubixbot/internal/quote"
	"lubixbot/internal/session"
	"lubixbot/internal/simulator"
)

const adminID = 999

type harness struct {
	eng      *Engine
	store    *session.Store
	gw       *MockGateway
	notifier *MockNotifier
}

func newHarness(t *testing.T, cfg Config) harness {
	t.Helper()
	ctrl := gomock.NewController(t)
	store := session.NewStore()
	gw := NewMockGateway(ctrl)
	notifier := NewMockNotifier(ctrl)
	sim := simulator.New(store, gw, zaptest.NewLogger(t))
	if cfg.AdminID == 0 {
		cfg.AdminID = adminID
	}
	return harness{
		eng:      New(store, gw, sim, notifier, cfg, zaptest.NewLogger(t)),
		store:    store,
		gw:       gw,
		notifier: notifier,
	}
}

func text(chat int64, s string) Event { return Event{ChatID: chat, UserID: chat, Text: s} }

func button(chat int64, data string) Event { return Event{ChatID: chat, UserID: chat, Callback: data} }

func key(chat int64) session.Key { return session.Key{ChatID: chat, UserID: chat} }

func TestHandle_CryptoLookupScenario(t *testing.T) {
	t.Parallel()

	// Arrange
	h := newHarness(t, Config{})
	btc := quote.CryptoQuote{Symbol: "BTC", Name: "Bitcoin", PriceUSD: 50000}
	h.gw.EXPECT().FetchCrypto(gomock.Any(), "btc").Return(btc, nil).Times(1)

	// Act: /kripto then the ticker
	intro := h.eng.Handle(t.Context(), text(1, "/kripto"))
	require.Equal(t, ShowModuleIntro{Module: ModuleCrypto}, intro)
	require.Equal(t, session.AwaitingCrypto, h.store.State(key(1)))

	got := h.eng.Handle(t.Context(), text(1, "btc"))

	// Assert
	require.Equal(t, ShowCrypto{Quote: btc}, got)
	require.Equal(t, session.Idle, h.store.State(key(1)))
}

func TestHandle_FailedLookupStillResetsToIdle(t *testing.T) {
	t.Parallel()

	h := newHarness(t, Config{})
	h.gw.EXPECT().FetchEquity(gomock.Any(), "ZZZZ").Return(quote.EquityQuote{}, quote.NotFound("syariahsaham", "ZZZZ"))
	h.gw.EXPECT().FetchOnChainToken(gomock.Any(), "bonk").Return(quote.OnChainTokenQuote{}, quote.Transport("dexscreener", "bonk", errors.New("timeout")))

	h.eng.Handle(t.Context(), text(1, "/saham"))
	got := h.eng.Handle(t.Context(), text(1, "ZZZZ"))
	showErr, ok := got.(ShowError)
	require.True(t, ok)
	require.Equal(t, ModuleStock, showErr.Module)
	require.ErrorIs(t, showErr.Err, quote.ErrNotFound)
	require.Equal(t, session.Idle, h.store.State(key(1)))

	h.eng.Handle(t.Context(), button(1, "menu_solana"))
	got = h.eng.Handle(t.Context(), text(1, "bonk"))
	require.ErrorIs(t, got.(ShowError).Err, quote.ErrTransport)
	require.Equal(t, session.Idle, h.store.State(key(1)))
}

func TestHandle_BannedChatIsDroppedBeforeDispatch(t *testing.T) {
	t.Parallel()

	// Arrange: no gateway expectations, any call fails the test
	h := newHarness(t, Config{})
	h.eng.Handle(t.Context(), text(7, "/kripto"))
	h.store.Ban(7)

	// Act
	got := h.eng.Handle(t.Context(), text(7, "btc"))

	// Assert
	require.Nil(t, got)
	require.Equal(t, session.AwaitingCrypto, h.store.State(key(7)))
	require.Nil(t, h.eng.Handle(t.Context(), button(7, "menu_fng")))
}

func TestHandle_PanelDeniedForNonAdmin(t *testing.T) {
	t.Parallel()

	h := newHarness(t, Config{})

	require.Equal(t, ShowDenied{Reason: DenyNotAdmin}, h.eng.Handle(t.Context(), text(5, "/panel")))
	require.Equal(t, ShowDenied{Reason: DenyNotAdmin}, h.eng.Handle(t.Context(), button(5, "admin_ban")))
	require.Equal(t, session.Idle, h.store.State(key(5)))
}

func TestHandle_AdminBanScenario(t *testing.T) {
	t.Parallel()

	// Arrange
	h := newHarness(t, Config{})

	// Act: /panel, ban button, id
	panel := h.eng.Handle(t.Context(), text(adminID, "/panel"))
	require.IsType(t, ShowAdminPanel{}, panel)
	prompt := h.eng.Handle(t.Context(), button(adminID, "admin_ban"))
	require.Equal(t, ShowAdminPrompt{State: session.AwaitingAdminBan}, prompt)
	res := h.eng.Handle(t.Context(), text(adminID, "12345"))

	// Assert
	require.Equal(t, ShowAdminResult{State: session.AwaitingAdminBan, Target: 12345}, res)
	require.True(t, h.store.IsBanned(12345))
	require.Equal(t, session.Idle, h.store.State(key(adminID)))
	require.Nil(t, h.eng.Handle(t.Context(), text(12345, "/start")))

	// unban restores access
	h.eng.Handle(t.Context(), button(adminID, "admin_unban"))
	h.eng.Handle(t.Context(), text(adminID, "12345"))
	require.IsType(t, ShowWelcome{}, h.eng.Handle(t.Context(), text(12345, "/start")))
}

func TestHandle_NonAdminInAdminStateCannotMutate(t *testing.T) {
	t.Parallel()

	h := newHarness(t, Config{})
	h.store.SetState(key(5), session.AwaitingAdminBan)

	got := h.eng.Handle(t.Context(), text(5, "12345"))

	require.Equal(t, ShowDenied{Reason: DenyNotAdmin}, got)
	require.False(t, h.store.IsBanned(12345))
	require.Equal(t, session.Idle, h.store.State(key(5)))
}

func TestHandle_AdminInvalidPayloadIsDenied(t *testing.T) {
	t.Parallel()

	h := newHarness(t, Config{})
	for _, tc := range []struct {
		button, payload string
	}{
		{"admin_ban", "abc"},
		{"admin_gift", "12"},
		{"admin_gift", "12 lots"},
		{"admin_gift", "12 -5"},
		{"admin_dm", "12 hello"},
		{"admin_dm", "12|  "},
	} {
		h.eng.Handle(t.Context(), button(adminID, tc.button))
		got := h.eng.Handle(t.Context(), text(adminID, tc.payload))
		require.Equalf(t, ShowDenied{Reason: DenyInvalidInput}, got, "%s %q", tc.button, tc.payload)
		require.Equal(t, session.Idle, h.store.State(key(adminID)))
	}
	require.Zero(t, h.store.Stats().Banned)
}

func TestHandle_AdminGiftPremiumGroupsAndDM(t *testing.T) {
	t.Parallel()

	h := newHarness(t, Config{})
	h.notifier.EXPECT().Notify(gomock.Any(), int64(77), "halo trader").Return(nil)

	h.eng.Handle(t.Context(), button(adminID, "admin_gift"))
	res := h.eng.Handle(t.Context(), text(adminID, "77 250.5"))
	require.Equal(t, ShowAdminResult{State: session.AwaitingAdminGift, Target: 77, Detail: "10250.50"}, res)

	h.eng.Handle(t.Context(), button(adminID, "admin_premium"))
	h.eng.Handle(t.Context(), text(adminID, "77"))
	require.True(t, h.store.IsPremium(key(77)))

	h.eng.Handle(t.Context(), button(adminID, "admin_addgroup"))
	h.eng.Handle(t.Context(), text(adminID, "-100123"))
	require.True(t, h.store.IsGroupAllowed(-100123))
	h.eng.Handle(t.Context(), button(adminID, "admin_delgroup"))
	h.eng.Handle(t.Context(), text(adminID, "-100123"))
	require.False(t, h.store.IsGroupAllowed(-100123))

	h.eng.Handle(t.Context(), button(adminID, "admin_dm"))
	res = h.eng.Handle(t.Context(), text(adminID, "77|halo trader"))
	require.Equal(t, ShowAdminResult{State: session.AwaitingAdminDirectMessage, Target: 77, Detail: "sent"}, res)
}

func TestHandle_CommandOverridesPendingState(t *testing.T) {
	t.Parallel()

	h := newHarness(t, Config{})
	h.eng.Handle(t.Context(), text(1, "/kripto"))
	h.eng.Handle(t.Context(), text(1, "/saham@LubixBot"))
	require.Equal(t, session.AwaitingStock, h.store.State(key(1)))

	require.Equal(t, ShowHint{}, h.eng.Handle(t.Context(), text(1, "/unknown")))
	require.Equal(t, session.Idle, h.store.State(key(1)))

	h.eng.Handle(t.Context(), text(1, "/solana"))
	require.Equal(t, ShowHelp{}, h.eng.Handle(t.Context(), text(1, "/help")))
	require.Equal(t, session.Idle, h.store.State(key(1)), "info commands land in Idle")
}

func TestHandle_IdleFreeTextGetsHint(t *testing.T) {
	t.Parallel()

	h := newHarness(t, Config{})
	require.Equal(t, ShowHint{}, h.eng.Handle(t.Context(), text(1, "halo")))
	require.Equal(t, ShowHint{}, h.eng.Handle(t.Context(), button(1, "no_such_button")))
	require.Nil(t, h.eng.Handle(t.Context(), text(1, "   ")))
}

func TestHandle_StateIsPerUserInGroups(t *testing.T) {
	t.Parallel()

	h := newHarness(t, Config{})
	h.gw.EXPECT().FetchCrypto(gomock.Any(), gomock.Any()).Times(0)

	h.eng.Handle(t.Context(), Event{ChatID: -50, UserID: 1, Text: "/kripto"})
	got := h.eng.Handle(t.Context(), Event{ChatID: -50, UserID: 2, Text: "btc"})

	require.Equal(t, ShowHint{}, got)
	require.Equal(t, session.AwaitingCrypto, h.store.State(session.Key{ChatID: -50, UserID: 1}))
}

func TestHandle_RestrictGroups(t *testing.T) {
	t.Parallel()

	h := newHarness(t, Config{RestrictGroups: true})
	require.Nil(t, h.eng.Handle(t.Context(), Event{ChatID: -42, UserID: 1, Text: "/start"}))

	h.store.AddGroup(-42)
	require.IsType(t, ShowWelcome{}, h.eng.Handle(t.Context(), Event{ChatID: -42, UserID: 1, Text: "/start"}))
	require.IsType(t, ShowWelcome{}, h.eng.Handle(t.Context(), text(1, "/start")), "private chats are not gated")
}

func TestHandle_BuySellFlow(t *testing.T) {
	t.Parallel()

	// Arrange
	h := newHarness(t, Config{})
	gomock.InOrder(
		h.gw.EXPECT().FetchCrypto(gomock.Any(), "BTC").Return(quote.CryptoQuote{Symbol: "BTC", PriceUSD: 50000}, nil),
		h.gw.EXPECT().FetchCrypto(gomock.Any(), "BTC").Return(quote.CryptoQuote{Symbol: "BTC", PriceUSD: 55000}, nil),
	)

	// Act: buy
	require.Equal(t, ShowModuleIntro{Module: ModuleBuy}, h.eng.Handle(t.Context(), button(1, "menu_buy")))
	got := h.eng.Handle(t.Context(), text(1, "btc"))

	// Assert
	trade, ok := got.(ShowTrade)
	require.True(t, ok, "got %#v", got)
	require.Equal(t, simulator.Buy, trade.Receipt.Side)
	require.Equal(t, "9000", h.store.Portfolio(1).Cash.String())

	// Act: sell
	h.eng.Handle(t.Context(), button(1, "menu_sell"))
	got = h.eng.Handle(t.Context(), text(1, "BTC"))
	trade = got.(ShowTrade)
	require.Equal(t, "100", trade.Receipt.RealizedPnL.String())
	require.Equal(t, "10100", h.store.Portfolio(1).Cash.String())

	// Act: sell again
	h.eng.Handle(t.Context(), button(1, "menu_sell"))
	got = h.eng.Handle(t.Context(), text(1, "BTC"))
	require.ErrorIs(t, got.(ShowError).Err, simulator.ErrNoPosition)
	require.Equal(t, session.Idle, h.store.State(key(1)))
}

func TestHandle_WatchlistAndPortfolio(t *testing.T) {
	t.Parallel()

	h := newHarness(t, Config{})
	h.gw.EXPECT().
		FetchMultiCryptoSnapshot(gomock.Any(), []string{"BTC", "ETH"}).
		Return(map[string]quote.CryptoQuote{"BTC": {Symbol: "BTC", PriceUSD: 1}}, nil)

	require.Equal(t, ShowWatchlist{}, h.eng.Handle(t.Context(), button(1, "menu_watchlist")))

	h.eng.Handle(t.Context(), button(1, "add_watchlist"))
	require.Equal(t, ShowWatchlistAdded{Ticker: "BTC", Count: 1}, h.eng.Handle(t.Context(), text(1, "btc")))
	h.eng.Handle(t.Context(), button(1, "add_watchlist"))
	require.Equal(t, ShowWatchlistAdded{Ticker: "ETH", Count: 2}, h.eng.Handle(t.Context(), text(1, "eth")))

	wl := h.eng.Handle(t.Context(), button(1, "menu_watchlist")).(ShowWatchlist)
	require.Equal(t, []string{"BTC", "ETH"}, wl.Tickers)
	require.Contains(t, wl.Prices, "BTC")

	pf := h.eng.Handle(t.Context(), button(1, "menu_portfolio")).(ShowPortfolio)
	require.Equal(t, "10000", pf.Snapshot.Total.String())
}

func TestHandle_MarketKeepsDisplayOrder(t *testing.T) {
	t.Parallel()

	h := newHarness(t, Config{MarketSymbols: []string{"BTC", "ETH", "SOL"}})
	h.gw.EXPECT().
		FetchMultiCryptoSnapshot(gomock.Any(), []string{"BTC", "ETH", "SOL"}).
		Return(map[string]quote.CryptoQuote{
			"SOL": {Symbol: "SOL", PriceUSD: 150},
			"BTC": {Symbol: "BTC", PriceUSD: 50000},
		}, nil)

	got := h.eng.Handle(t.Context(), button(1, "menu_market")).(ShowMarket)
	require.Len(t, got.Quotes, 2)
	require.Equal(t, "BTC", got.Quotes[0].Symbol)
	require.Equal(t, "SOL", got.Quotes[1].Symbol)
}

func TestHandle_SentimentAndPulse(t *testing.T) {
	t.Parallel()

	h := newHarness(t, Config{})
	h.gw.EXPECT().FetchSentiment(gomock.Any()).Return(quote.SentimentReading{Score: 72, Classification: "Greed"}, nil)
	h.gw.EXPECT().FetchMomentum(gomock.Any(), "bitcoin").Return(quote.MomentumReading{Symbol: "BTC"}, nil)

	require.Equal(t, ShowModuleIntro{Module: ModuleSentiment}, h.eng.Handle(t.Context(), button(1, "menu_sentiment_info")))
	require.Equal(t, ShowSentiment{Reading: quote.SentimentReading{Score: 72, Classification: "Greed"}}, h.eng.Handle(t.Context(), button(1, "menu_fng")))

	h.eng.Handle(t.Context(), button(1, "menu_pulse"))
	require.Equal(t, ShowMomentum{Reading: quote.MomentumReading{Symbol: "BTC"}}, h.eng.Handle(t.Context(), text(1, "bitcoin")))
}

func TestHandle_RealBuyNeedsPremium(t *testing.T) {
	t.Parallel()

	h := newHarness(t, Config{})
	require.Equal(t, ShowDenied{Reason: DenyPremiumRequired}, h.eng.Handle(t.Context(), text(3, "/realbuy")))

	h.store.GrantPremium(3)
	require.Equal(t, ShowModuleIntro{Module: ModuleRealBuy}, h.eng.Handle(t.Context(), text(3, "/realbuy")))
	require.Equal(t, ShowWelcome{Premium: true}, h.eng.Handle(t.Context(), text(3, "/start")))
}

func TestHandle_RegistersUsers(t *testing.T) {
	t.Parallel()

	h := newHarness(t, Config{})
	h.eng.Handle(t.Context(), text(1, "/start"))
	h.eng.Handle(t.Context(), text(2, "hi"))
	h.eng.Handle(t.Context(), text(1, "/help"))

	require.Equal(t, []int64{1, 2}, h.store.AllUserIDs())
}

func TestHandle_AddedGroupUnlocksPremium(t *testing.T) {
	t.Parallel()

	// Arrange
	h := newHarness(t, Config{RestrictGroups: true})
	member := Event{ChatID: -100555, UserID: 42, Text: "/realbuy"}
	require.Nil(t, h.eng.Handle(t.Context(), member), "unknown group is dropped")

	// Act
	h.eng.Handle(t.Context(), button(adminID, "admin_addgroup"))
	h.eng.Handle(t.Context(), text(adminID, "-100555"))
	got := h.eng.Handle(t.Context(), member)

	// Assert
	require.Equal(t, ShowModuleIntro{Module: ModuleRealBuy}, got)
	require.Equal(t, 1, h.store.Stats().PremiumGroups)

	h.eng.Handle(t.Context(), button(adminID, "admin_delgroup"))
	h.eng.Handle(t.Context(), text(adminID, "-100555"))
	require.Nil(t, h.eng.Handle(t.Context(), member))
}
