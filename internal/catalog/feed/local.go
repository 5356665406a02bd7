package feed

import (
	"context"
	"sync"
)

// localQueueSize bounds the pending changes per listener.
// A full queue drops the change: a refresh is already pending for that listener.
const localQueueSize = 64

// Local is an in-process Feed.
type Local struct {
	mu        sync.Mutex
	listeners map[uint64]*listener
	nextID    uint64
}

type listener struct {
	queue chan Change
	done  chan struct{}
	once  sync.Once
}

// NewLocal creates an in-process feed.
func NewLocal() *Local {
	return &Local{listeners: make(map[uint64]*listener)}
}

// Publish enqueues the change for every listener without blocking.
func (l *Local) Publish(ctx context.Context, change Change) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, lis := range l.listeners {
		select {
		case lis.queue <- change:
		default:
		}
	}
	return nil
}

func (l *Local) Subscribe(ctx context.Context, fn func(Change)) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lis := &listener{
		queue: make(chan Change, localQueueSize),
		done:  make(chan struct{}),
	}

	l.mu.Lock()
	id := l.nextID
	l.nextID++
	l.listeners[id] = lis
	l.mu.Unlock()

	go func() {
		for {
			select {
			case <-lis.done:
				return
			case change := <-lis.queue:
				fn(change)
			}
		}
	}()

	unsubscribe := func() {
		lis.once.Do(func() {
			l.mu.Lock()
			delete(l.listeners, id)
			l.mu.Unlock()
			close(lis.done)
		})
	}
	context.AfterFunc(ctx, unsubscribe)
	return unsubscribe, nil
}
