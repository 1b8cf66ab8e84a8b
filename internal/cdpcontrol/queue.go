package cdpcontrol

import (
	"context"
	"sync"
)

// eventQueue is an unbounded FIFO that lets the read loop hand off events
// without ever blocking on a slow consumer.
type eventQueue[T any] struct {
	mu     sync.Mutex
	items  []T
	signal chan struct{}
}

func newEventQueue[T any]() *eventQueue[T] {
	return &eventQueue[T]{signal: make(chan struct{}, 1)}
}

func (q *eventQueue[T]) push(v T) {
	q.mu.Lock()
	q.items = append(q.items, v)
	q.mu.Unlock()
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

func (q *eventQueue[T]) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// drain calls fn for every queued item in order until ctx is done.
func (q *eventQueue[T]) drain(ctx context.Context, fn func(T)) {
	for {
		q.mu.Lock()
		items := q.items
		q.items = nil
		q.mu.Unlock()

		for _, it := range items {
			fn(it)
		}

		select {
		case <-q.signal:
		case <-ctx.Done():
			return
		}
	}
}
