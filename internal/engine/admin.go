package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"lubixbot/internal/session"
)

func (e *Engine) panel(_ context.Context, ev Event) Intent {
	e.store.SetState(ev.key(), session.Idle)
	if !e.isAdmin(ev) {
		return ShowDenied{Reason: DenyNotAdmin}
	}
	return ShowAdminPanel{Stats: e.store.Stats()}
}

func (e *Engine) adminEnter(st session.State) handlerFunc {
	return func(_ context.Context, ev Event) Intent {
		if !e.isAdmin(ev) {
			e.store.SetState(ev.key(), session.Idle)
			return ShowDenied{Reason: DenyNotAdmin}
		}
		e.store.SetState(ev.key(), st)
		return ShowAdminPrompt{State: st}
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid chat id %q", s)
	}
	return id, nil
}

// idReply builds a reply for admin states whose payload is a single chat id.
func (e *Engine) idReply(st session.State, apply func(id int64)) replyFunc {
	return func(_ context.Context, ev Event, text string) Intent {
		id, err := parseID(text)
		if err != nil {
			return ShowDenied{Reason: DenyInvalidInput}
		}
		apply(id)
		e.log.Info("admin action", zap.Stringer("state", st), zap.Int64("target", id))
		return ShowAdminResult{State: st, Target: id}
	}
}

// replyGift expects "<chat id> <amount>".
func (e *Engine) replyGift(_ context.Context, _ Event, text string) Intent {
	fields := strings.Fields(text)
	if len(fields) != 2 {
		return ShowDenied{Reason: DenyInvalidInput}
	}
	id, err := parseID(fields[0])
	if err != nil {
		return ShowDenied{Reason: DenyInvalidInput}
	}
	amount, err := decimal.NewFromString(fields[1])
	if err != nil {
		return ShowDenied{Reason: DenyInvalidInput}
	}
	bal, err := e.store.CreditCash(id, amount)
	if err != nil {
		return ShowDenied{Reason: DenyInvalidInput}
	}
	e.log.Info("admin gift", zap.Int64("target", id), zap.String("amount", amount.String()))
	return ShowAdminResult{State: session.AwaitingAdminGift, Target: id, Detail: bal.StringFixed(2)}
}

// replyDirectMessage expects "<chat id>|<message>".
func (e *Engine) replyDirectMessage(ctx context.Context, _ Event, text string) Intent {
	rawID, msg, ok := strings.Cut(text, "|")
	msg = strings.TrimSpace(msg)
	if !ok || msg == "" {
		return ShowDenied{Reason: DenyInvalidInput}
	}
	id, err := parseID(rawID)
	if err != nil {
		return ShowDenied{Reason: DenyInvalidInput}
	}
	if e.notifier == nil {
		return ShowAdminResult{State: session.AwaitingAdminDirectMessage, Target: id, Detail: "no notifier"}
	}
	if err := e.notifier.Notify(ctx, id, msg); err != nil {
		e.log.Warn("direct message failed", zap.Int64("target", id), zap.Error(err))
		return ShowAdminResult{State: session.AwaitingAdminDirectMessage, Target: id, Detail: err.Error()}
	}
	return ShowAdminResult{State: session.AwaitingAdminDirectMessage, Target: id, Detail: "sent"}
}

// StopBroadcastsOn cancels panel broadcasts still running when ctx is done.
// Call it before the first update is handled.
func (e *Engine) StopBroadcastsOn(ctx context.Context) {
	e.shutdown = ctx
}

// broadcastContext keeps ctx values but replaces the update deadline with
// cfg.BroadcastTimeout and the shutdown signal.
func (e *Engine) broadcastContext(ctx context.Context) (context.Context, context.CancelFunc) {
	bctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.cfg.BroadcastTimeout)
	if e.shutdown == nil {
		return bctx, cancel
	}
	stop := context.AfterFunc(e.shutdown, cancel)
	return bctx, func() {
		stop()
		cancel()
	}
}

func (e *Engine) replyBroadcast(ctx context.Context, _ Event, text string) Intent {
	bctx, cancel := e.broadcastContext(ctx)
	defer cancel()
	rep, err := e.Broadcast(bctx, text)
	if err != nil {
		return ShowAdminResult{State: session.AwaitingAdminBroadcast, Detail: err.Error()}
	}
	return ShowAdminResult{State: session.AwaitingAdminBroadcast, Report: &rep}
}

// BroadcastReport counts the outcome of one broadcast.
type BroadcastReport struct {
	Recipients int
	Sent       int
	Failed     int
	Skipped    int // banned at send time
}

// ErrNoNotifier is returned by Broadcast when the engine cannot send.
var ErrNoNotifier = errors.New("engine: no notifier configured")

// Broadcast sends text to a snapshot of every registered chat with bounded
// concurrency. A failed recipient is counted and never stops the others.
func (e *Engine) Broadcast(ctx context.Context, text string) (BroadcastReport, error) {
	if e.notifier == nil {
		return BroadcastReport{}, ErrNoNotifier
	}
	ids := e.store.AllUserIDs()
	var sent, failed, skipped atomic.Int64

	var g errgroup.Group
	g.SetLimit(e.cfg.BroadcastConcurrency)
	for _, id := range ids {
		if e.store.IsBanned(id) {
			skipped.Add(1)
			continue
		}
		g.Go(func() error {
			if err := e.notifier.Notify(ctx, id, text); err != nil {
				failed.Add(1)
				e.log.Debug("broadcast recipient failed", zap.Int64("chat_id", id), zap.Error(err))
				return nil
			}
			sent.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	rep := BroadcastReport{
		Recipients: len(ids),
		Sent:       int(sent.Load()),
		Failed:     int(failed.Load()),
		Skipped:    int(skipped.Load()),
	}
	e.log.Info("broadcast finished",
		zap.Int("recipients", rep.Recipients),
		zap.Int("sent", rep.Sent),
		zap.Int("failed", rep.Failed),
	)
	return rep, nil
}
