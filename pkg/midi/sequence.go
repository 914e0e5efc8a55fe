package midi

import (
	"slices"
)

// TimedEvent is an event at an absolute position in samples.
type TimedEvent struct {
	At    int64
	Event Event
}

// Sequence is an ordered list of events on an absolute sample timeline,
// cut into per-block slices for offline rendering.
type Sequence struct {
	events []TimedEvent
	cursor int
}

// NewSequence sorts events by time, keeping insertion order for ties.
func NewSequence(events []TimedEvent) *Sequence {
	sorted := slices.Clone(events)
	slices.SortStableFunc(sorted, func(a, b TimedEvent) int {
		switch {
		case a.At < b.At:
			return -1
		case a.At > b.At:
			return 1
		}
		return 0
	})
	return &Sequence{events: sorted}
}

// Len returns the number of events.
func (s *Sequence) Len() int {
	return len(s.events)
}

// Events returns the sorted events.
func (s *Sequence) Events() []TimedEvent {
	return s.events
}

// End returns the time of the last event, or 0 for an empty sequence.
func (s *Sequence) End() int64 {
	if len(s.events) == 0 {
		return 0
	}
	return s.events[len(s.events)-1].At
}

// Done reports whether every event has been returned by Block.
func (s *Sequence) Done() bool {
	return s.cursor >= len(s.events)
}

// Rewind restarts Block from the beginning.
func (s *Sequence) Rewind() {
	s.cursor = 0
}

// Block appends to dst the events in [start, start+frames) with offsets
// relative to start. Blocks must be requested in increasing order; events
// before start that were never requested are delivered at offset 0.
func (s *Sequence) Block(dst []Event, start int64, frames int) []Event {
	end := start + int64(frames)
	for s.cursor < len(s.events) {
		te := s.events[s.cursor]
		if te.At >= end {
			break
		}
		offset := max(te.At-start, 0)
		dst = append(dst, WithOffset(te.Event, int32(offset)))
		s.cursor++
	}
	return dst
}
