package queue

import (
	"sync"
	"time"
)

// Queue is a FIFO of pending items shared by any number of producers and a
// single consumer. The buffer is guarded by one mutex which is only held for
// slice appends and swaps, never across item processing.
type Queue[T any] struct {
	mu    sync.Mutex
	items []T
	spare []T // recycled backing array for the next drain

	// ready carries at most one pending wake-up for the consumer.
	ready chan struct{}

	stats Stats
}

// Stats tracks queue throughput.
type Stats struct {
	TotalEnqueued int64
	TotalDrained  int64
	Drains        int64
	CurrentSize   int
	PeakSize      int
	LastEnqueue   time.Time
	LastDrain     time.Time
}

// New creates a queue whose buffer starts with room for capacity items.
func New[T any](capacity int) *Queue[T] {
	if capacity < 0 {
		capacity = 0
	}
	return &Queue[T]{
		items: make([]T, 0, capacity),
		ready: make(chan struct{}, 1),
	}
}

// Push appends item to the tail. It never blocks on the consumer.
func (q *Queue[T]) Push(item T) {
	q.mu.Lock()
	q.items = append(q.items, item)
	q.stats.TotalEnqueued++
	q.stats.LastEnqueue = time.Now()
	if n := len(q.items); n > q.stats.PeakSize {
		q.stats.PeakSize = n
	}
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
		// a wake-up is already pending
	}
}

// DrainAll detaches the entire contents of the queue and returns them in
// insertion order, leaving the queue empty. Draining an empty queue returns
// nil. The caller owns the returned slice until it hands it back through
// Recycle.
func (q *Queue[T]) DrainAll() []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil
	}

	batch := q.items
	q.items = q.spare[:0]
	q.spare = nil

	q.stats.TotalDrained += int64(len(batch))
	q.stats.Drains++
	q.stats.LastDrain = time.Now()

	return batch
}

// Recycle returns a processed batch so its backing array can take new
// pushes after the next drain. The batch must not be used afterwards.
func (q *Queue[T]) Recycle(batch []T) {
	if cap(batch) == 0 {
		return
	}
	clear(batch)

	q.mu.Lock()
	switch {
	case len(q.items) == 0 && cap(q.items) < cap(batch):
		q.items = batch[:0]
	case q.spare == nil:
		q.spare = batch[:0]
	}
	q.mu.Unlock()
}

// Ready returns a channel that receives a value after Push. A receive does
// not guarantee the queue is non-empty; callers re-check with Empty or
// DrainAll.
func (q *Queue[T]) Ready() <-chan struct{} {
	return q.ready
}

// Empty reports whether the queue currently holds no items. The answer is
// advisory: producers may push right after it returns.
func (q *Queue[T]) Empty() bool {
	return q.Len() == 0
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Stats returns a snapshot of the queue statistics.
func (q *Queue[T]) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()

	stats := q.stats
	stats.CurrentSize = len(q.items)
	return stats
}
