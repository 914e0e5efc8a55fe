package midi

import (
	"sync"
	"testing"
)

func TestEventQueue(t *testing.T) {
	q := NewEventQueue(8)

	if !q.IsEmpty() {
		t.Error("Expected queue to be empty")
	}

	q.Add(NoteOnEvent{BaseEvent: BaseEvent{Offset: 100}, NoteNumber: 60, Velocity: 100})
	q.Add(NoteOffEvent{BaseEvent: BaseEvent{Offset: 200}, NoteNumber: 60, Velocity: 0})
	q.Add(ControlChangeEvent{BaseEvent: BaseEvent{Offset: 50}, Controller: CCSustain, Value: 127})

	if q.Size() != 3 {
		t.Errorf("Expected size 3, got %d", q.Size())
	}

	dst := make([]Event, 0, q.Capacity())
	dst = q.Drain(dst)
	if len(dst) != 3 {
		t.Fatalf("Drain returned %d events, want 3", len(dst))
	}

	offsets := []int32{50, 100, 200}
	for i, e := range dst {
		if e.SampleOffset() != offsets[i] {
			t.Errorf("event %d: offset %d, want %d", i, e.SampleOffset(), offsets[i])
		}
	}
	if !q.IsEmpty() {
		t.Error("queue should be empty after Drain")
	}
}

func TestEventQueueKeepsArrivalOrderForTies(t *testing.T) {
	q := NewEventQueue(4)
	q.Add(NoteOffEvent{NoteNumber: 60})
	q.Add(NoteOnEvent{NoteNumber: 60, Velocity: 90})

	dst := q.Drain(make([]Event, 0, 4))
	if len(dst) != 2 {
		t.Fatalf("got %d events, want 2", len(dst))
	}
	if dst[0].Type() != EventTypeNoteOff || dst[1].Type() != EventTypeNoteOn {
		t.Errorf("order = %v, %v; want NoteOff, NoteOn", dst[0].Type(), dst[1].Type())
	}
}

func TestEventQueueFull(t *testing.T) {
	q := NewEventQueue(2)
	for i := 0; i < 3; i++ {
		q.Add(NoteOnEvent{NoteNumber: uint8(60 + i)})
	}
	if q.Size() != 2 {
		t.Errorf("size = %d, want 2", q.Size())
	}
	if q.Dropped() != 1 {
		t.Errorf("dropped = %d, want 1", q.Dropped())
	}
}

func TestEventQueueDrainRespectsRoom(t *testing.T) {
	q := NewEventQueue(4)
	for i := 0; i < 4; i++ {
		q.Add(NoteOnEvent{NoteNumber: uint8(60 + i)})
	}

	dst := q.Drain(make([]Event, 0, 3))
	if len(dst) != 3 {
		t.Fatalf("first drain = %d events, want 3", len(dst))
	}
	if q.Size() != 1 {
		t.Fatalf("left %d events, want 1", q.Size())
	}
	dst = q.Drain(dst[:0])
	if len(dst) != 1 || dst[0].(NoteOnEvent).NoteNumber != 63 {
		t.Errorf("second drain = %v, want the fourth note", dst)
	}
}

func TestEventQueueDrainWhileLocked(t *testing.T) {
	q := NewEventQueue(4)
	q.Add(NoteOnEvent{NoteNumber: 60})

	q.mu.Lock()
	dst := q.Drain(make([]Event, 0, 4))
	q.mu.Unlock()

	if len(dst) != 0 {
		t.Errorf("contended drain returned %d events, want 0", len(dst))
	}
	if q.Size() != 1 {
		t.Error("event should stay queued for the next drain")
	}
}

func TestEventQueueConcurrent(t *testing.T) {
	q := NewEventQueue(1024)
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				q.Add(NoteOnEvent{NoteNumber: uint8(i)})
			}
		}()
	}

	total := 0
	dst := make([]Event, 0, q.Capacity())
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	for finished := false; !finished; {
		select {
		case <-done:
			finished = true
		default:
		}
		dst = q.Drain(dst[:0])
		total += len(dst)
	}
	for !q.IsEmpty() {
		dst = q.Drain(dst[:0])
		total += len(dst)
	}

	if total != 400 {
		t.Errorf("drained %d events, want 400", total)
	}
}

func BenchmarkEventQueueDrain(b *testing.B) {
	q := NewEventQueue(64)
	dst := make([]Event, 0, 64)
	ev := NoteOnEvent{NoteNumber: 60, Velocity: 100}
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		q.Add(ev)
		dst = q.Drain(dst[:0])
	}
}
