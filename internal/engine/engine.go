// Package engine is the conversation state machine. Every inbound event is
// resolved through one of three tables (commands, buttons, pending-state
// replies) into session mutations and a single Intent for the renderer.
package engine

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"lubixbot/internal/quote"
	"lubixbot/internal/session"
	"lubixbot/internal/simulator"
)

// DefaultMarketSymbols are the majors shown by the market overview.
var DefaultMarketSymbols = []string{"BTC", "ETH", "SOL", "BNB", "XRP"}

// Gateway is the market data the engine reads.
//
//go:generate mockgen -package=engine -destination=mock_engine_test.go -source=engine.go Gateway Notifier
type Gateway interface {
	FetchCrypto(ctx context.Context, symbol string) (quote.CryptoQuote, error)
	FetchMultiCryptoSnapshot(ctx context.Context, symbols []string) (map[string]quote.CryptoQuote, error)
	FetchEquity(ctx context.Context, code string) (quote.EquityQuote, error)
	FetchOnChainToken(ctx context.Context, query string) (quote.OnChainTokenQuote, error)
	FetchSentiment(ctx context.Context) (quote.SentimentReading, error)
	FetchMomentum(ctx context.Context, query string) (quote.MomentumReading, error)
}

// Trader executes simulated trades.
type Trader interface {
	Buy(ctx context.Context, chatID int64, symbol string) (simulator.TradeReceipt, error)
	Sell(ctx context.Context, chatID int64, symbol string) (simulator.TradeReceipt, error)
	Valuation(ctx context.Context, chatID int64) simulator.Snapshot
}

// Notifier delivers an out-of-band message to a chat.
type Notifier interface {
	Notify(ctx context.Context, chatID int64, text string) error
}

// Event is one inbound user interaction. Exactly one of Text and Callback is set.
type Event struct {
	ChatID    int64
	UserID    int64
	FirstName string
	Text      string
	Callback  string
}

func (ev Event) key() session.Key {
	return session.Key{ChatID: ev.ChatID, UserID: ev.UserID}
}

type Config struct {
	// AdminID is the one user id allowed into admin states. Zero disables admin.
	AdminID int64
	// RestrictGroups drops events from group chats that are not allow-listed.
	RestrictGroups       bool
	BroadcastConcurrency int
	// BroadcastTimeout bounds a broadcast started from the admin panel.
	// It runs detached from the update deadline.
	BroadcastTimeout time.Duration
	MarketSymbols    []string
}

type handlerFunc func(ctx context.Context, ev Event) Intent

type replyFunc func(ctx context.Context, ev Event, text string) Intent

type Engine struct {
	store    *session.Store
	gw       Gateway
	trader   Trader
	notifier Notifier
	cfg      Config
	log      *zap.Logger
	shutdown context.Context

	commands map[string]handlerFunc
	buttons  map[string]handlerFunc
	replies  map[session.State]replyFunc
}

func New(store *session.Store, gw Gateway, trader Trader, notifier Notifier, cfg Config, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.BroadcastConcurrency <= 0 {
		cfg.BroadcastConcurrency = 8
	}
	if cfg.BroadcastTimeout <= 0 {
		cfg.BroadcastTimeout = 10 * time.Minute
	}
	if len(cfg.MarketSymbols) == 0 {
		cfg.MarketSymbols = DefaultMarketSymbols
	}
	e := &Engine{store: store, gw: gw, trader: trader, notifier: notifier, cfg: cfg, log: log}

	e.commands = map[string]handlerFunc{
		"start":   e.welcome,
		"help":    e.help,
		"kripto":  e.enter(session.AwaitingCrypto, ModuleCrypto),
		"saham":   e.enter(session.AwaitingStock, ModuleStock),
		"solana":  e.enter(session.AwaitingSolana, ModuleSolana),
		"sim":     e.intro(ModuleSimulator),
		"panel":   e.panel,
		"realbuy": e.realBuy,
	}

	e.buttons = map[string]handlerFunc{
		"menu_crypto":         e.commands["kripto"],
		"menu_sharia":         e.commands["saham"],
		"menu_solana":         e.commands["solana"],
		"menu_sentiment_info": e.intro(ModuleSentiment),
		"menu_fng":            e.sentiment,
		"menu_pulse":          e.enter(session.AwaitingPulse, ModulePulse),
		"menu_market":         e.market,
		"menu_watchlist":      e.watchlist,
		"add_watchlist":       e.enter(session.AwaitingAddWatchlist, ModuleAddWatchlist),
		"menu_buy":            e.enter(session.AwaitingBuyTicker, ModuleBuy),
		"menu_sell":           e.enter(session.AwaitingSellTicker, ModuleSell),
		"menu_portfolio":      e.portfolio,
		"menu_sim":            e.commands["sim"],
		"menu_help":           e.help,
		"back_to_main":        e.welcome,

		"admin_panel":     e.panel,
		"admin_stats":     e.panel,
		"admin_broadcast": e.adminEnter(session.AwaitingAdminBroadcast),
		"admin_ban":       e.adminEnter(session.AwaitingAdminBan),
		"admin_unban":     e.adminEnter(session.AwaitingAdminUnban),
		"admin_gift":      e.adminEnter(session.AwaitingAdminGift),
		"admin_premium":   e.adminEnter(session.AwaitingAdminPremium),
		"admin_dm":        e.adminEnter(session.AwaitingAdminDirectMessage),
		"admin_addgroup":  e.adminEnter(session.AwaitingAdminAddGroup),
		"admin_delgroup":  e.adminEnter(session.AwaitingAdminRemoveGroup),
	}

	e.replies = map[session.State]replyFunc{
		session.AwaitingCrypto:       e.replyCrypto,
		session.AwaitingStock:        e.replyStock,
		session.AwaitingSolana:       e.replyToken,
		session.AwaitingPulse:        e.replyPulse,
		session.AwaitingBuyTicker:    e.replyBuy,
		session.AwaitingSellTicker:   e.replySell,
		session.AwaitingAddWatchlist: e.replyAddWatchlist,

		session.AwaitingAdminBroadcast:     e.replyBroadcast,
		session.AwaitingAdminBan:           e.idReply(session.AwaitingAdminBan, store.Ban),
		session.AwaitingAdminUnban:         e.idReply(session.AwaitingAdminUnban, store.Unban),
		session.AwaitingAdminGift:          e.replyGift,
		session.AwaitingAdminPremium:       e.idReply(session.AwaitingAdminPremium, store.GrantPremium),
		session.AwaitingAdminDirectMessage: e.replyDirectMessage,
		session.AwaitingAdminAddGroup:      e.idReply(session.AwaitingAdminAddGroup, store.AddGroup),
		session.AwaitingAdminRemoveGroup:   e.idReply(session.AwaitingAdminRemoveGroup, store.RemoveGroup),
	}
	return e
}

// Commands lists the slash commands the engine understands.
func (e *Engine) Commands() []string {
	return []string{"start", "help", "kripto", "saham", "solana", "sim", "panel", "realbuy"}
}

func (e *Engine) isAdmin(ev Event) bool {
	return e.cfg.AdminID != 0 && ev.UserID == e.cfg.AdminID
}

// Handle processes one event and returns the intent to render, or nil when
// the event is dropped (banned sender, disallowed group, empty message).
func (e *Engine) Handle(ctx context.Context, ev Event) Intent {
	admin := e.isAdmin(ev)
	if !admin && (e.store.IsBanned(ev.ChatID) || e.store.IsBanned(ev.UserID)) {
		e.log.Debug("dropped event from banned chat", zap.Int64("chat_id", ev.ChatID), zap.Int64("user_id", ev.UserID))
		return nil
	}
	if e.cfg.RestrictGroups && ev.ChatID < 0 && !admin && !e.store.IsGroupAllowed(ev.ChatID) {
		e.log.Debug("dropped event from unlisted group", zap.Int64("chat_id", ev.ChatID))
		return nil
	}
	e.store.RegisterUser(ev.ChatID)

	if ev.Callback != "" {
		h, ok := e.buttons[ev.Callback]
		if !ok {
			e.log.Debug("unknown callback", zap.String("data", ev.Callback))
			return ShowHint{}
		}
		return h(ctx, ev)
	}

	text := strings.TrimSpace(ev.Text)
	if text == "" {
		return nil
	}
	if strings.HasPrefix(text, "/") {
		return e.command(ctx, ev, text)
	}

	key := ev.key()
	st := e.store.State(key)
	reply, ok := e.replies[st]
	if !ok {
		return ShowHint{}
	}
	// success or failure, the pending step is consumed
	e.store.SetState(key, session.Idle)
	if st.IsAdmin() && !admin {
		e.log.Warn("non-admin reply in admin state", zap.Int64("user_id", ev.UserID), zap.Stringer("state", st))
		return ShowDenied{Reason: DenyNotAdmin}
	}
	return reply(ctx, ev, text)
}

// command resolves "/name@bot args" and always overrides any pending state.
func (e *Engine) command(ctx context.Context, ev Event, text string) Intent {
	name := strings.TrimPrefix(strings.Fields(text)[0], "/")
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	e.store.SetState(ev.key(), session.Idle)
	h, ok := e.commands[strings.ToLower(name)]
	if !ok {
		return ShowHint{}
	}
	return h(ctx, ev)
}

func (e *Engine) welcome(_ context.Context, ev Event) Intent {
	e.store.SetState(ev.key(), session.Idle)
	return ShowWelcome{FirstName: ev.FirstName, Premium: e.store.IsPremium(ev.key()), Admin: e.isAdmin(ev)}
}

func (e *Engine) help(context.Context, Event) Intent { return ShowHelp{} }

// enter moves the session into st and shows the module entry screen.
func (e *Engine) enter(st session.State, m Module) handlerFunc {
	return func(_ context.Context, ev Event) Intent {
		e.store.SetState(ev.key(), st)
		return ShowModuleIntro{Module: m}
	}
}

func (e *Engine) intro(m Module) handlerFunc {
	return func(_ context.Context, ev Event) Intent {
		e.store.SetState(ev.key(), session.Idle)
		return ShowModuleIntro{Module: m}
	}
}

func (e *Engine) realBuy(_ context.Context, ev Event) Intent {
	e.store.SetState(ev.key(), session.Idle)
	if !e.isAdmin(ev) && !e.store.IsPremium(ev.key()) {
		return ShowDenied{Reason: DenyPremiumRequired}
	}
	return ShowModuleIntro{Module: ModuleRealBuy}
}

func (e *Engine) sentiment(ctx context.Context, _ Event) Intent {
	r, err := e.gw.FetchSentiment(ctx)
	if err != nil {
		return ShowError{Module: ModuleSentiment, Err: err}
	}
	return ShowSentiment{Reading: r}
}

func (e *Engine) market(ctx context.Context, _ Event) Intent {
	snap, err := e.gw.FetchMultiCryptoSnapshot(ctx, e.cfg.MarketSymbols)
	if err != nil {
		return ShowError{Module: ModuleCrypto, Query: strings.Join(e.cfg.MarketSymbols, ","), Err: err}
	}
	out := make([]quote.CryptoQuote, 0, len(e.cfg.MarketSymbols))
	for _, s := range e.cfg.MarketSymbols {
		if q, ok := snap[s]; ok {
			out = append(out, q)
		}
	}
	return ShowMarket{Quotes: out}
}

func (e *Engine) watchlist(ctx context.Context, ev Event) Intent {
	tickers := e.store.Watchlist(ev.ChatID)
	if len(tickers) == 0 {
		return ShowWatchlist{}
	}
	prices, err := e.gw.FetchMultiCryptoSnapshot(ctx, tickers)
	if err != nil {
		e.log.Warn("watchlist prices unavailable", zap.Int64("chat_id", ev.ChatID), zap.Error(err))
	}
	return ShowWatchlist{Tickers: tickers, Prices: prices}
}

func (e *Engine) portfolio(ctx context.Context, ev Event) Intent {
	return ShowPortfolio{Snapshot: e.trader.Valuation(ctx, ev.ChatID)}
}

func (e *Engine) replyCrypto(ctx context.Context, _ Event, text string) Intent {
	q, err := e.gw.FetchCrypto(ctx, text)
	if err != nil {
		return ShowError{Module: ModuleCrypto, Query: text, Err: err}
	}
	return ShowCrypto{Quote: q}
}

func (e *Engine) replyStock(ctx context.Context, _ Event, text string) Intent {
	q, err := e.gw.FetchEquity(ctx, text)
	if err != nil {
		return ShowError{Module: ModuleStock, Query: text, Err: err}
	}
	return ShowEquity{Quote: q}
}

func (e *Engine) replyToken(ctx context.Context, _ Event, text string) Intent {
	q, err := e.gw.FetchOnChainToken(ctx, text)
	if err != nil {
		return ShowError{Module: ModuleSolana, Query: text, Err: err}
	}
	return ShowToken{Quote: q}
}

func (e *Engine) replyPulse(ctx context.Context, _ Event, text string) Intent {
	r, err := e.gw.FetchMomentum(ctx, text)
	if err != nil {
		return ShowError{Module: ModulePulse, Query: text, Err: err}
	}
	return ShowMomentum{Reading: r}
}

func (e *Engine) replyBuy(ctx context.Context, ev Event, text string) Intent {
	r, err := e.trader.Buy(ctx, ev.ChatID, text)
	if err != nil {
		return ShowError{Module: ModuleBuy, Query: text, Err: err}
	}
	return ShowTrade{Receipt: r}
}

func (e *Engine) replySell(ctx context.Context, ev Event, text string) Intent {
	r, err := e.trader.Sell(ctx, ev.ChatID, text)
	if err != nil {
		return ShowError{Module: ModuleSell, Query: text, Err: err}
	}
	return ShowTrade{Receipt: r}
}

func (e *Engine) replyAddWatchlist(_ context.Context, ev Event, text string) Intent {
	var added string
	var n int
	_ = e.store.WithWatchlist(ev.ChatID, func(w *session.Watchlist) error {
		added = w.Add(text)
		n = len(*w)
		return nil
	})
	return ShowWatchlistAdded{Ticker: added, Count: n}
}
