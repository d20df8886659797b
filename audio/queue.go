package audio

import (
	"context"
	"sync"
)

// queue is an unbounded FIFO. Push never blocks.
type queue[T any] struct {
	mu    sync.Mutex
	items []T
	ready chan struct{}
}

func newQueue[T any]() *queue[T] {
	return &queue[T]{ready: make(chan struct{}, 1)}
}

func (q *queue[T]) Push(item T) {
	q.mu.Lock()
	q.items = append(q.items, item)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// Drain removes and returns all queued items in arrival order.
func (q *queue[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	items := q.items
	q.items = nil

	return items
}

// Ready receives a value after Push, coalescing bursts.
func (q *queue[T]) Ready() <-chan struct{} {
	return q.ready
}

// relay forwards queued items to out until ctx is done.
func (q *queue[T]) relay(ctx context.Context, out chan<- T) {
	for {
		for _, item := range q.Drain() {
			select {
			case out <- item:
			case <-ctx.Done():
				return
			}
		}

		select {
		case <-q.ready:
		case <-ctx.Done():
			return
		}
	}
}
