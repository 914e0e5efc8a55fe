package midi

import (
	"slices"
	"sync"
	"sync/atomic"
)

// EventQueue hands live events from control goroutines to the audio thread.
// Producers block briefly on a mutex; the audio thread only ever tries the
// lock and leaves events for the next block when it is contended.
type EventQueue struct {
	mu      sync.Mutex
	events  []Event
	dropped atomic.Uint64
}

// NewEventQueue creates a queue holding at most capacity pending events.
func NewEventQueue(capacity int) *EventQueue {
	return &EventQueue{
		events: make([]Event, 0, max(capacity, 1)),
	}
}

// Add queues an event. It reports false and counts a drop when the queue
// is full.
func (q *EventQueue) Add(event Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == cap(q.events) {
		q.dropped.Add(1)
		return false
	}
	q.events = append(q.events, event)
	return true
}

// Drain appends pending events to dst in offset order and empties the
// queue. It never blocks and does not allocate while dst has room for
// Capacity() events.
func (q *EventQueue) Drain(dst []Event) []Event {
	if !q.mu.TryLock() {
		return dst
	}
	defer q.mu.Unlock()

	start := len(dst)
	n := min(len(q.events), cap(dst)-len(dst))
	dst = append(dst, q.events[:n]...)
	rest := copy(q.events, q.events[n:])
	clear(q.events[rest:])
	q.events = q.events[:rest]

	sortEvents(dst[start:])
	return dst
}

// Size returns the number of pending events.
func (q *EventQueue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

func (q *EventQueue) IsEmpty() bool {
	return q.Size() == 0
}

// Capacity returns the maximum number of pending events.
func (q *EventQueue) Capacity() int {
	return cap(q.events)
}

// Dropped returns how many events were rejected because the queue was full.
func (q *EventQueue) Dropped() uint64 {
	return q.dropped.Load()
}

func (q *EventQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()

	clear(q.events)
	q.events = q.events[:0]
}

// sortEvents orders events by sample offset, keeping arrival order for
// equal offsets.
func sortEvents(events []Event) {
	slices.SortStableFunc(events, func(a, b Event) int {
		return int(a.SampleOffset()) - int(b.SampleOffset())
	})
}
