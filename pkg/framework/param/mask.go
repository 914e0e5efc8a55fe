package param

import "sync/atomic"

// ChangeMask is a shared bitmask with one bit per consumer. Writers mark
// every bit; each consumer tests and clears its own bit when it next runs.
type ChangeMask struct {
	bits atomic.Uint32
}

// MaxMaskBits is the number of consumers a mask can track
const MaxMaskBits = 32

// NewChangeMask returns a mask with all bits set so consumers pick up the
// initial values on their first run.
func NewChangeMask() *ChangeMask {
	m := &ChangeMask{}
	m.MarkAll()
	return m
}

// MarkAll flags every consumer
func (m *ChangeMask) MarkAll() {
	m.bits.Store(^uint32(0))
}

// Mark flags a single consumer
func (m *ChangeMask) Mark(bit int) {
	m.bits.Or(1 << uint(bit))
}

// IsSet reports whether a consumer's bit is set without clearing it
func (m *ChangeMask) IsSet(bit int) bool {
	return m.bits.Load()&(1<<uint(bit)) != 0
}

// TestAndClear clears a consumer's bit and reports whether it was set
func (m *ChangeMask) TestAndClear(bit int) bool {
	b := uint32(1) << uint(bit)
	return m.bits.And(^b)&b != 0
}
