// Package telegram connects the engine to the Telegram Bot API.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"lubixbot/internal/engine"
	"lubixbot/internal/render"
)

// Sender is the part of *bot.Bot the adapter calls.
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
}

// Handler resolves an event to an intent; *engine.Engine implements it.
type Handler interface {
	Handle(ctx context.Context, ev engine.Event) engine.Intent
}

// Renderer formats an intent; *render.Renderer implements it.
type Renderer interface {
	Render(in engine.Intent) render.Message
}

var commandDescriptions = []models.BotCommand{
	{Command: "start", Description: "🏠 Dashboard"},
	{Command: "kripto", Description: "🪙 Crypto"},
	{Command: "saham", Description: "🕌 Saham Syariah"},
	{Command: "solana", Description: "🪐 Token On-Chain"},
	{Command: "sim", Description: "🎮 Simulasi Trading"},
	{Command: "realbuy", Description: "👑 Real Buy (Premium)"},
	{Command: "panel", Description: "🛡 Admin Panel"},
	{Command: "help", Description: "❓ Help"},
}

// Bot owns the long-polling loop. Every update is handled on its own
// goroutine, with at most MaxInFlight running at once.
type Bot struct {
	api Sender
	raw *bot.Bot
	log *zap.Logger

	handler  Handler
	renderer Renderer

	// HandleTimeout bounds the processing of one update.
	HandleTimeout time.Duration
	MaxInFlight   int

	sem     chan struct{}
	once    sync.Once
	pending sync.WaitGroup
}

// New creates the Telegram client. Attach must be called before Start.
func New(token string, log *zap.Logger, opts ...bot.Option) (*Bot, error) {
	if log == nil {
		log = zap.NewNop()
	}
	t := &Bot{log: log, HandleTimeout: 30 * time.Second, MaxInFlight: 64}
	opts = append(opts, bot.WithDefaultHandler(func(ctx context.Context, _ *bot.Bot, update *models.Update) {
		t.dispatch(ctx, update)
	}))
	b, err := bot.New(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating telegram bot: %w", err)
	}
	t.raw = b
	t.api = b
	return t, nil
}

// NewWithSender builds an adapter around any Sender, without polling.
func NewWithSender(api Sender, log *zap.Logger) *Bot {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bot{api: api, log: log, HandleTimeout: 30 * time.Second, MaxInFlight: 64}
}

// Attach wires the engine and renderer. The engine needs the Bot as its
// Notifier, so both sides are built first and joined here.
func (t *Bot) Attach(h Handler, r Renderer) {
	t.handler = h
	t.renderer = r
}

// Start registers the command list and polls until ctx is done, then waits
// for in-flight updates.
func (t *Bot) Start(ctx context.Context) error {
	if t.raw == nil {
		return errors.New("telegram: no bot client")
	}
	if t.handler == nil || t.renderer == nil {
		return errors.New("telegram: Attach was not called")
	}
	if _, err := t.raw.SetMyCommands(ctx, &bot.SetMyCommandsParams{Commands: commandDescriptions}); err != nil {
		t.log.Warn("set commands failed", zap.Error(err))
	}
	t.log.Info("telegram polling started")
	t.raw.Start(ctx)
	t.pending.Wait()
	t.log.Info("telegram polling stopped")
	return nil
}

// Notify implements engine.Notifier. text goes out as plain text.
func (t *Bot) Notify(ctx context.Context, chatID int64, text string) error {
	_, err := t.api.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		return fmt.Errorf("sending to %d: %w", chatID, err)
	}
	return nil
}

func (t *Bot) dispatch(ctx context.Context, update *models.Update) {
	t.once.Do(func() { t.sem = make(chan struct{}, max(1, t.MaxInFlight)) })
	select {
	case t.sem <- struct{}{}:
	case <-ctx.Done():
		return
	}
	t.pending.Add(1)
	go func() {
		defer t.pending.Done()
		defer func() { <-t.sem }()
		t.HandleUpdate(ctx, update)
	}()
}

// HandleUpdate processes one update synchronously.
func (t *Bot) HandleUpdate(ctx context.Context, update *models.Update) {
	ev, ok := toEvent(update)
	if !ok {
		return
	}
	if t.HandleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.HandleTimeout)
		defer cancel()
	}

	if update.CallbackQuery != nil {
		if _, err := t.api.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: update.CallbackQuery.ID}); err != nil {
			t.log.Debug("answer callback failed", zap.Int64("chat_id", ev.ChatID), zap.Error(err))
		}
	}

	intent := t.handler.Handle(ctx, ev)
	if intent == nil {
		return
	}
	msg := t.renderer.Render(intent)
	if msg.Text == "" {
		return
	}
	params := &bot.SendMessageParams{
		ChatID:    ev.ChatID,
		Text:      msg.Text,
		ParseMode: models.ParseModeHTML,
	}
	if kb := keyboard(msg.Keyboard); kb != nil {
		params.ReplyMarkup = kb
	}
	if _, err := t.api.SendMessage(ctx, params); err != nil {
		t.log.Warn("send reply failed", zap.Int64("chat_id", ev.ChatID), zap.Error(err))
	}
}

func toEvent(update *models.Update) (engine.Event, bool) {
	switch {
	case update == nil:
		return engine.Event{}, false
	case update.Message != nil:
		m := update.Message
		ev := engine.Event{ChatID: m.Chat.ID, UserID: m.Chat.ID, Text: m.Text}
		if m.From != nil {
			ev.UserID = m.From.ID
			ev.FirstName = m.From.FirstName
		}
		return ev, true
	case update.CallbackQuery != nil:
		q := update.CallbackQuery
		ev := engine.Event{ChatID: q.From.ID, UserID: q.From.ID, FirstName: q.From.FirstName, Callback: q.Data}
		if q.Message.Message != nil {
			ev.ChatID = q.Message.Message.Chat.ID
		}
		return ev, q.Data != ""
	default:
		return engine.Event{}, false
	}
}

func keyboard(rows [][]render.Button) *models.InlineKeyboardMarkup {
	if len(rows) == 0 {
		return nil
	}
	kb := make([][]models.InlineKeyboardButton, 0, len(rows))
	for _, r := range rows {
		row := make([]models.InlineKeyboardButton, 0, len(r))
		for _, b := range r {
			row = append(row, models.InlineKeyboardButton{Text: b.Text, CallbackData: b.Data})
		}
		kb = append(kb, row)
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: kb}
}
