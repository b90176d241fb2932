// Package buffer provides the unbounded FIFO used to stream bus events to
// slow consumers without blocking publishers.
package buffer

import "sync"

// Queue is a FIFO with non-blocking Push and a channel-based consumer side.
//
// A background goroutine moves pushed items onto the Out channel in order.
// After Close, pending items are still delivered, then Out is closed, so a
// consumer that calls Close must keep reading until Out closes. Discard
// drops pending items instead and closes Out without waiting for a reader.
//
//	q := buffer.NewQueue[vigil.Event]()
//	go func() {
//	    for e := range q.Out() {
//	        fmt.Println(e.EventName())
//	    }
//	}()
//	q.Push(e) // never blocks
//	q.Close()
type Queue[T any] struct {
	mu      sync.Mutex
	ready   *sync.Cond
	pending []T
	closed  bool
	out     chan T

	done        chan struct{}
	discardOnce sync.Once
}

// NewQueue creates a Queue and starts its delivery goroutine.
func NewQueue[T any]() *Queue[T] {
	q := &Queue[T]{
		pending: make([]T, 0, 32),
		out:     make(chan T),
		done:    make(chan struct{}),
	}
	q.ready = sync.NewCond(&q.mu)
	go q.pump()
	return q
}

func (q *Queue[T]) pump() {
	defer close(q.out)
	for {
		q.mu.Lock()
		for len(q.pending) == 0 && !q.closed {
			q.ready.Wait()
		}
		if len(q.pending) == 0 {
			q.mu.Unlock()
			return
		}
		next := q.pending[0]
		var zero T
		q.pending[0] = zero
		q.pending = q.pending[1:]
		q.mu.Unlock()

		select {
		case q.out <- next:
		case <-q.done:
			return
		}
	}
}

// Push appends item. It never blocks. Items pushed after Close are dropped.
func (q *Queue[T]) Push(item T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.pending = append(q.pending, item)
	q.ready.Signal()
}

// Out returns the channel items are delivered on. It is closed once the
// queue is closed and drained.
func (q *Queue[T]) Out() <-chan T {
	return q.out
}

// Close stops accepting items. Safe to call more than once.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.ready.Signal()
}

// Discard closes the queue and drops every pending item. Out closes even if
// nobody is reading. Safe to call more than once and after Close.
func (q *Queue[T]) Discard() {
	q.mu.Lock()
	q.closed = true
	q.pending = nil
	q.ready.Signal()
	q.mu.Unlock()

	q.discardOnce.Do(func() { close(q.done) })
}

// Len returns the number of items not yet handed to Out.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
