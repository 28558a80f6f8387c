package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"

	"lubixbot/internal/session"
)

type recordingNotifier struct {
	mu       sync.Mutex
	got      map[int64]string
	failFor  map[int64]bool
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (n *recordingNotifier) Notify(_ context.Context, chatID int64, text string) error {
	cur := n.inFlight.Add(1)
	defer n.inFlight.Add(-1)
	for {
		p := n.peak.Load()
		if cur <= p || n.peak.CompareAndSwap(p, cur) {
			break
		}
	}
	time.Sleep(2 * time.Millisecond)
	if n.failFor[chatID] {
		return errors.New("bot was blocked by the user")
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.got[chatID] = text
	return nil
}

func TestBroadcast_IsolatesFailuresAndBoundsConcurrency(t *testing.T) {
	defer goleak.VerifyNone(t)

	// Arrange
	store := session.NewStore()
	for id := int64(1); id <= 20; id++ {
		store.RegisterUser(id)
	}
	store.Ban(20)
	n := &recordingNotifier{got: map[int64]string{}, failFor: map[int64]bool{3: true, 7: true}}
	eng := New(store, nil, nil, n, Config{AdminID: adminID, BroadcastConcurrency: 3}, nil)

	// Act
	rep, err := eng.Broadcast(t.Context(), "maintenance tonight")

	// Assert
	require.NoError(t, err)
	require.Equal(t, BroadcastReport{Recipients: 20, Sent: 17, Failed: 2, Skipped: 1}, rep)
	require.Len(t, n.got, 17)
	require.Equal(t, "maintenance tonight", n.got[1])
	require.NotContains(t, n.got, int64(3))
	require.LessOrEqual(t, n.peak.Load(), int32(3))
}

func TestBroadcast_ThroughAdminFlow(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctrl := gomock.NewController(t)
	store := session.NewStore()
	notifier := NewMockNotifier(ctrl)
	eng := New(store, nil, nil, notifier, Config{AdminID: adminID}, nil)

	eng.Handle(t.Context(), text(10, "/start"))
	notifier.EXPECT().Notify(gomock.Any(), int64(10), "hello all").Return(nil)
	notifier.EXPECT().Notify(gomock.Any(), int64(adminID), "hello all").Return(errors.New("chat not found"))

	eng.Handle(t.Context(), button(adminID, "admin_broadcast"))
	got := eng.Handle(t.Context(), text(adminID, "hello all"))

	res, ok := got.(ShowAdminResult)
	require.True(t, ok)
	require.Equal(t, session.AwaitingAdminBroadcast, res.State)
	require.Equal(t, &BroadcastReport{Recipients: 2, Sent: 1, Failed: 1}, res.Report)
}

func TestBroadcast_NoNotifier(t *testing.T) {
	eng := New(session.NewStore(), nil, nil, nil, Config{}, nil)
	_, err := eng.Broadcast(t.Context(), "x")
	require.ErrorIs(t, err, ErrNoNotifier)
}

// pacedNotifier takes delay per message and gives up when ctx ends first.
type pacedNotifier struct {
	delay time.Duration
	sent  atomic.Int32
}

func (n *pacedNotifier) Notify(ctx context.Context, _ int64, _ string) error {
	select {
	case <-time.After(n.delay):
		n.sent.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestBroadcast_OutlivesUpdateDeadline(t *testing.T) {
	defer goleak.VerifyNone(t)

	// Arrange: 19 users plus the admin, sent one at a time, 20ms each
	store := session.NewStore()
	for id := int64(1); id <= 19; id++ {
		store.RegisterUser(id)
	}
	n := &pacedNotifier{delay: 20 * time.Millisecond}
	eng := New(store, nil, nil, n, Config{AdminID: adminID, BroadcastConcurrency: 1}, nil)
	eng.Handle(t.Context(), button(adminID, "admin_broadcast"))

	// Act: the update itself only has 100ms
	ctx, cancel := context.WithTimeout(t.Context(), 100*time.Millisecond)
	defer cancel()
	got := eng.Handle(ctx, text(adminID, "scheduled maintenance"))

	// Assert
	res, ok := got.(ShowAdminResult)
	require.True(t, ok)
	require.Equal(t, &BroadcastReport{Recipients: 20, Sent: 20}, res.Report)
	require.Equal(t, int32(20), n.sent.Load())
}

func TestBroadcast_StopsOnShutdown(t *testing.T) {
	defer goleak.VerifyNone(t)

	// Arrange: shutdown already requested
	store := session.NewStore()
	for id := int64(1); id <= 4; id++ {
		store.RegisterUser(id)
	}
	n := &pacedNotifier{delay: time.Second}
	eng := New(store, nil, nil, n, Config{AdminID: adminID, BroadcastConcurrency: 1}, nil)
	shutdown, stop := context.WithCancel(t.Context())
	stop()
	eng.StopBroadcastsOn(shutdown)
	eng.Handle(t.Context(), button(adminID, "admin_broadcast"))

	// Act
	got := eng.Handle(t.Context(), text(adminID, "going down"))

	// Assert: every send saw the cancelled context
	res, ok := got.(ShowAdminResult)
	require.True(t, ok)
	require.Equal(t, &BroadcastReport{Recipients: 5, Failed: 5}, res.Report)
	require.Zero(t, n.sent.Load())
}

func TestBroadcast_OwnTimeout(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := session.NewStore()
	store.RegisterUser(1)
	n := &pacedNotifier{delay: time.Second}
	eng := New(store, nil, nil, n, Config{AdminID: adminID, BroadcastTimeout: 20 * time.Millisecond}, nil)
	eng.Handle(t.Context(), button(adminID, "admin_broadcast"))

	got := eng.Handle(t.Context(), text(adminID, "slow"))

	res, ok := got.(ShowAdminResult)
	require.True(t, ok)
	require.Equal(t, &BroadcastReport{Recipients: 2, Failed: 2}, res.Report)
}
