package player

import (
	"sync"
	"time"

	pipelineerrors "github.com/vireo-player/core/internal/errors"
)

// itemQueue is a bounded FIFO shared by PacketQueue and FrameQueue. It is
// generic over the item type rather than duplicated per item kind, which
// both avoids copy-pasting the mutex/condvar dance twice and lets
// PacketQueue/FrameQueue stay typed wrappers with domain-specific names.
//
// A plain mutex plus two condition variables is used rather than buffered
// channels: channels don't expose the atomic clear()+finished semantics
// the queue contract requires (a clear() must never race a concurrent
// set_finished(), and a blocked producer must wake on either).
type itemQueue[T any] struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond

	items    []T
	capacity int
	finished bool
}

func newItemQueue[T any](capacity int) *itemQueue[T] {
	q := &itemQueue[T]{
		items:    make([]T, 0, capacity),
		capacity: capacity,
	}
	q.notEmpty = sync.NewCond(&q.mu)
	q.notFull = sync.NewCond(&q.mu)
	return q
}

// enqueue blocks while the queue is full and not finished. Once finished,
// it returns a QueueClosedError immediately and the item is dropped
// (released, in Go terms: simply never stored).
func (q *itemQueue[T]) enqueue(item T) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == q.capacity && !q.finished {
		q.notFull.Wait()
	}
	if q.finished {
		return &pipelineerrors.QueueClosedError{}
	}

	q.items = append(q.items, item)
	q.notEmpty.Signal()
	return nil
}

// dequeue blocks while the queue is empty and not finished, up to timeout.
// Returns (item, true, nil) on success, (zero, false, nil) on timeout, or
// (zero, false, QueueClosedError) when empty and finished.
func (q *itemQueue[T]) dequeue(timeout time.Duration) (T, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	deadline := time.Now().Add(timeout)
	for len(q.items) == 0 && !q.finished {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			var zero T
			return zero, false, nil
		}
		// sync.Cond has no timed wait; a timer wakes the waiter by
		// broadcasting after `remaining` elapses.
		timer := time.AfterFunc(remaining, func() {
			q.mu.Lock()
			q.notEmpty.Broadcast()
			q.mu.Unlock()
		})
		q.notEmpty.Wait()
		timer.Stop()
	}

	if len(q.items) == 0 {
		var zero T
		return zero, false, &pipelineerrors.QueueClosedError{}
	}

	item := q.items[0]
	q.items = q.items[1:]
	q.notFull.Signal()
	return item, true, nil
}

// tryDequeue is the non-blocking variant of dequeue.
func (q *itemQueue[T]) tryDequeue() (T, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		var zero T
		if q.finished {
			return zero, false, &pipelineerrors.QueueClosedError{}
		}
		return zero, false, nil
	}

	item := q.items[0]
	q.items = q.items[1:]
	q.notFull.Signal()
	return item, true, nil
}

// peek returns the head item without removing it.
func (q *itemQueue[T]) peek() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		var zero T
		return zero, false
	}
	return q.items[0], true
}

// removeHead removes and returns the head item, if any, without blocking.
// Used after peek() once the caller has decided whether to drop or
// present the frame.
func (q *itemQueue[T]) removeHead() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		var zero T
		return zero, false
	}
	item := q.items[0]
	q.items = q.items[1:]
	q.notFull.Signal()
	return item, true
}

// clear atomically removes and releases every item. Does not change
// finished.
func (q *itemQueue[T]) clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = q.items[:0]
	q.notFull.Broadcast()
}

// setFinished sets the finished flag and wakes every waiter.
func (q *itemQueue[T]) setFinished() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.finished = true
	q.notEmpty.Broadcast()
	q.notFull.Broadcast()
}

func (q *itemQueue[T]) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *itemQueue[T]) isEmpty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) == 0
}

func (q *itemQueue[T]) isFull() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) == q.capacity
}

func (q *itemQueue[T]) isFinished() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.finished
}
