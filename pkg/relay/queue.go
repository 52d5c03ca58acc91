package relay

import (
	"context"
	"errors"
	"sync"
)

// errStopped is returned by Queue.Wait when the stop channel closed first.
var errStopped = errors.New("queue wait stopped")

// Queue is an unbounded, goroutine-safe FIFO. Push never blocks.
type Queue[T any] struct {
	mu    sync.Mutex
	items []T

	// ready holds at most one pending wake-up for Wait.
	ready chan struct{}
}

// NewQueue creates an empty queue.
func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{
		ready: make(chan struct{}, 1),
	}
}

// Push appends v to the tail of the queue.
func (q *Queue[T]) Push(v T) {
	q.mu.Lock()
	q.items = append(q.items, v)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// Pop removes and returns the head of the queue, or false if it is empty.
func (q *Queue[T]) Pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T
	if len(q.items) == 0 {
		return zero, false
	}
	v := q.items[0]
	q.items[0] = zero // release the reference for the GC
	q.items = q.items[1:]
	if len(q.items) == 0 {
		q.items = nil
	}
	return v, true
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Wait blocks until an item can be popped, stop is closed or ctx is done.
// Items already queued are returned even if stop is closed.
func (q *Queue[T]) Wait(ctx context.Context, stop <-chan struct{}) (T, error) {
	var zero T
	for {
		if v, ok := q.Pop(); ok {
			return v, nil
		}
		select {
		case <-q.ready:
			// A wake-up can be stale (the item was popped already); loop and re-check.
		case <-stop:
			if v, ok := q.Pop(); ok {
				return v, nil
			}
			return zero, errStopped
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}
