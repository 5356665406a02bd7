package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cerrors "github.com/unabstore/shop/internal/catalog/errors"
	"github.com/unabstore/shop/internal/catalog/feed"
	"github.com/unabstore/shop/pkg/messaging/events"
)

const waitFor = 2 * time.Second

// next returns the next snapshot or fails the test.
func next(t *testing.T, sub *Subscription) Snapshot {
	t.Helper()
	select {
	case snap, ok := <-sub.Updates():
		require.True(t, ok, "subscription closed unexpectedly")
		return snap
	case <-time.After(waitFor):
		t.Fatal("no snapshot received")
		return Snapshot{}
	}
}

// until reads snapshots until cond holds for one of them.
func until(t *testing.T, sub *Subscription, cond func(Snapshot) bool) Snapshot {
	t.Helper()
	deadline := time.After(waitFor)
	for {
		select {
		case snap, ok := <-sub.Updates():
			require.True(t, ok, "subscription closed unexpectedly")
			if cond(snap) {
				return snap
			}
		case <-deadline:
			t.Fatal("condition not reached")
			return Snapshot{}
		}
	}
}

func ids(products []ProductDto) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func TestService_Observe_InitialSnapshot(t *testing.T) {
	// given
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, ProductCreateDto{Name: "Cuaderno", Price: "5000"})
	require.NoError(t, err)
	list, err := svc.List(ctx)
	require.NoError(t, err)

	// when
	sub, err := svc.Observe(ctx)
	require.NoError(t, err)
	defer sub.Cancel()

	// then
	snap := next(t, sub)
	require.NoError(t, snap.Err)
	assert.Equal(t, ids(list), ids(snap.Products))
}

func TestService_Observe_FollowsChanges(t *testing.T) {
	// given
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	sub, err := svc.Observe(ctx)
	require.NoError(t, err)
	defer sub.Cancel()
	assert.Empty(t, next(t, sub).Products)

	// when
	res, err := svc.Create(ctx, ProductCreateDto{Name: "Cuaderno", Price: "5000"})
	require.NoError(t, err)

	// then
	snap := until(t, sub, func(s Snapshot) bool { return len(s.Products) == 1 })
	assert.Equal(t, res.Product.ID, snap.Products[0].ID)

	// when
	require.NoError(t, svc.Delete(ctx, res.Product.ID))

	// then
	until(t, sub, func(s Snapshot) bool { return len(s.Products) == 0 })
}

func TestService_Observe_ConvergesToList(t *testing.T) {
	// given
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	sub, err := svc.Observe(ctx)
	require.NoError(t, err)
	defer sub.Cancel()

	// when: several writes without reading in between
	for _, name := range []string{"a", "b", "c", "d"} {
		_, err := svc.Create(ctx, ProductCreateDto{Name: name, Price: "1"})
		require.NoError(t, err)
	}

	// then
	list, err := svc.List(ctx)
	require.NoError(t, err)
	until(t, sub, func(s Snapshot) bool {
		return assert.ObjectsAreEqual(ids(list), ids(s.Products))
	})
}

func TestService_Observe_ReadFailure(t *testing.T) {
	// given
	svc, col, _ := newTestService(t)
	col.FailWith(errors.New("unavailable"))

	// when
	sub, err := svc.Observe(context.Background())
	require.NoError(t, err)
	defer sub.Cancel()

	// then
	snap := next(t, sub)
	assert.NotNil(t, snap.Products)
	assert.Empty(t, snap.Products)
	assert.ErrorIs(t, snap.Err, cerrors.ErrListProducts)
}

func TestSubscription_Cancel(t *testing.T) {
	// given
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	sub, err := svc.Observe(ctx)
	require.NoError(t, err)

	// when
	sub.Cancel()
	sub.Cancel()
	_, err = svc.Create(ctx, ProductCreateDto{Name: "Cuaderno", Price: "5000"})
	require.NoError(t, err)

	// then
	_, ok := <-sub.Updates()
	assert.False(t, ok, "channel must be closed and drained after Cancel")
	svc.mu.Lock()
	assert.Empty(t, svc.subs)
	svc.mu.Unlock()
}

func TestService_Observe_ContextCancel(t *testing.T) {
	// given
	svc, _, _ := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	sub, err := svc.Observe(ctx)
	require.NoError(t, err)
	next(t, sub)

	// when
	cancel()

	// then
	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-sub.Updates():
			return !ok
		default:
			return false
		}
	}, waitFor, 10*time.Millisecond)
}

func TestService_Close(t *testing.T) {
	// given
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	first, err := svc.Observe(ctx)
	require.NoError(t, err)
	second, err := svc.Observe(ctx)
	require.NoError(t, err)

	// when
	svc.Close()

	// then
	for _, sub := range []*Subscription{first, second} {
		_, ok := <-sub.Updates()
		assert.False(t, ok)
	}
	_, err = svc.Observe(ctx)
	assert.ErrorIs(t, err, cerrors.ErrServiceClosed)
}

func TestService_Observe_AfterCloseStaysDetached(t *testing.T) {
	// given
	svc, _, f := newTestService(t)
	svc.Close()

	// when
	_, err := svc.Observe(context.Background())

	// then
	assert.ErrorIs(t, err, cerrors.ErrServiceClosed)
	assert.Zero(t, f.subscriptions())
}

func TestService_deliverLocked(t *testing.T) {
	// given
	svc, _, _ := newTestService(t)
	sub := &Subscription{svc: svc, ch: make(chan Snapshot, 1)}
	newer := Snapshot{Products: []ProductDto{{ID: "new"}}, seq: 5}
	older := Snapshot{Products: []ProductDto{{ID: "old"}}, seq: 3}

	// when
	svc.mu.Lock()
	svc.deliverLocked(sub, newer)
	svc.deliverLocked(sub, older)
	svc.mu.Unlock()

	// then
	snap := <-sub.ch
	assert.Equal(t, "new", snap.Products[0].ID, "an older read must not overwrite a newer one")
	assert.Equal(t, uint64(5), sub.lastSeq)
}

func TestService_deliverLocked_LatestWins(t *testing.T) {
	// given
	svc, _, _ := newTestService(t)
	sub := &Subscription{svc: svc, ch: make(chan Snapshot, 1)}

	// when
	svc.mu.Lock()
	for seq := uint64(1); seq <= 3; seq++ {
		svc.deliverLocked(sub, Snapshot{seq: seq})
	}
	svc.mu.Unlock()

	// then
	require.Len(t, sub.ch, 1)
	assert.Equal(t, uint64(3), (<-sub.ch).seq)
}

func TestService_onChange_IgnoresOtherCollections(t *testing.T) {
	// given
	svc, col, _ := newTestService(t)
	sub, err := svc.Observe(context.Background())
	require.NoError(t, err)
	defer sub.Cancel()
	next(t, sub)
	calls := col.Calls()

	// when
	svc.onChange(feed.Change{Kind: events.ProductCreated, Collection: "otra"})

	// then
	assert.Equal(t, calls, col.Calls())
	assert.Len(t, sub.Updates(), 0)
}
