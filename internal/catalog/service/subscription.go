package service

import (
	"context"

	cerrors "github.com/unabstore/shop/internal/catalog/errors"
	"github.com/unabstore/shop/internal/catalog/feed"
)

// Snapshot is the full content of the collection at some point.
// On a read failure Products is empty and Err is set.
// Products is shared between subscribers and must not be modified.
type Snapshot struct {
	Products []ProductDto
	Err      error
	seq      uint64
}

// Subscription receives snapshots until it is cancelled.
type Subscription struct {
	svc     *Service
	id      uint64
	ch      chan Snapshot
	lastSeq uint64
	closed  bool
}

// Updates returns the snapshot channel. It holds at most one pending snapshot:
// a slow reader skips stale snapshots and always ends with the newest one.
// The channel is closed by Cancel.
func (sub *Subscription) Updates() <-chan Snapshot {
	return sub.ch
}

// Cancel ends the subscription. No snapshot is delivered once it returns.
// Calling it more than once is safe.
func (sub *Subscription) Cancel() {
	s := sub.svc
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked(sub)
}

func (s *Service) cancelLocked(sub *Subscription) {
	if sub.closed {
		return
	}
	sub.closed = true
	delete(s.subs, sub.id)
	select {
	case <-sub.ch:
	default:
	}
	close(sub.ch)
}

// Observe registers a subscriber and delivers the current snapshot before returning.
// Cancelling ctx cancels the subscription.
func (s *Service) Observe(ctx context.Context) (*Subscription, error) {
	if err := s.attachFeed(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, cerrors.ErrServiceClosed
	}
	sub := &Subscription{
		svc: s,
		id:  s.nextID,
		ch:  make(chan Snapshot, 1),
	}
	s.nextID++
	s.subs[sub.id] = sub
	seq := s.nextSeqLocked()
	s.mu.Unlock()

	context.AfterFunc(ctx, sub.Cancel)

	readCtx, cancel := context.WithTimeout(ctx, s.refreshTimeout)
	defer cancel()
	snap := s.read(readCtx, seq)

	s.mu.Lock()
	s.deliverLocked(sub, snap)
	s.mu.Unlock()
	return sub, nil
}

// Close cancels every subscription and detaches from the feed.
func (s *Service) Close() {
	s.mu.Lock()
	s.closed = true
	for _, sub := range s.subs {
		s.cancelLocked(sub)
	}
	s.mu.Unlock()

	s.feedMu.Lock()
	defer s.feedMu.Unlock()
	if s.unsubscribeFeed != nil {
		s.unsubscribeFeed()
		s.unsubscribeFeed = nil
	}
}

// attachFeed subscribes to the change feed once. A closed service stays detached.
func (s *Service) attachFeed() error {
	s.feedMu.Lock()
	defer s.feedMu.Unlock()
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return cerrors.ErrServiceClosed
	}
	if s.unsubscribeFeed != nil {
		return nil
	}
	unsubscribe, err := s.feed.Subscribe(context.Background(), s.onChange)
	if err != nil {
		return err
	}
	s.unsubscribeFeed = unsubscribe
	return nil
}

// onChange re-reads the collection and pushes the result to every subscriber.
func (s *Service) onChange(change feed.Change) {
	if change.Collection != "" && change.Collection != s.collection.Name() {
		return
	}
	s.mu.Lock()
	if s.closed || len(s.subs) == 0 {
		s.mu.Unlock()
		return
	}
	seq := s.nextSeqLocked()
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.refreshTimeout)
	defer cancel()
	snap := s.read(ctx, seq)
	if snap.Err != nil {
		s.logger.Warn("refresh after change failed", "kind", change.Kind, "error", snap.Err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		s.deliverLocked(sub, snap)
	}
}

func (s *Service) nextSeqLocked() uint64 {
	s.seq++
	return s.seq
}

func (s *Service) read(ctx context.Context, seq uint64) Snapshot {
	products, err := s.List(ctx)
	return Snapshot{Products: products, Err: err, seq: seq}
}

// deliverLocked replaces the pending snapshot of sub with snap unless snap is older
// than what sub has already been given.
func (s *Service) deliverLocked(sub *Subscription, snap Snapshot) {
	if sub.closed || snap.seq <= sub.lastSeq {
		return
	}
	select {
	case <-sub.ch:
	default:
	}
	sub.ch <- snap
	sub.lastSeq = snap.seq
}
