package midi

import (
	"fmt"
)

type EventType uint8

const (
	EventTypeNoteOff EventType = iota
	EventTypeNoteOn
	EventTypeControlChange
	EventTypePitchBend
)

func (t EventType) String() string {
	switch t {
	case EventTypeNoteOff:
		return "NoteOff"
	case EventTypeNoteOn:
		return "NoteOn"
	case EventTypeControlChange:
		return "ControlChange"
	case EventTypePitchBend:
		return "PitchBend"
	default:
		return fmt.Sprintf("EventType(%d)", uint8(t))
	}
}

// Event is a channel message scheduled at a sample offset within a block.
type Event interface {
	Type() EventType
	Channel() uint8
	SampleOffset() int32
	String() string
}

type BaseEvent struct {
	EventChannel uint8
	Offset       int32
}

func (e BaseEvent) Channel() uint8 {
	return e.EventChannel
}

func (e BaseEvent) SampleOffset() int32 {
	return e.Offset
}

type NoteOnEvent struct {
	BaseEvent
	NoteNumber uint8
	Velocity   uint8
}

func (e NoteOnEvent) Type() EventType {
	return EventTypeNoteOn
}

func (e NoteOnEvent) String() string {
	return fmt.Sprintf("NoteOn{ch:%d, note:%d, vel:%d, offset:%d}",
		e.EventChannel, e.NoteNumber, e.Velocity, e.Offset)
}

type NoteOffEvent struct {
	BaseEvent
	NoteNumber uint8
	Velocity   uint8
}

func (e NoteOffEvent) Type() EventType {
	return EventTypeNoteOff
}

func (e NoteOffEvent) String() string {
	return fmt.Sprintf("NoteOff{ch:%d, note:%d, vel:%d, offset:%d}",
		e.EventChannel, e.NoteNumber, e.Velocity, e.Offset)
}

type ControlChangeEvent struct {
	BaseEvent
	Controller uint8
	Value      uint8
}

func (e ControlChangeEvent) Type() EventType {
	return EventTypeControlChange
}

func (e ControlChangeEvent) String() string {
	return fmt.Sprintf("CC{ch:%d, ctrl:%d, val:%d, offset:%d}",
		e.EventChannel, e.Controller, e.Value, e.Offset)
}

const (
	CCModWheel    uint8 = 1
	CCVolume      uint8 = 7
	CCSustain     uint8 = 64
	CCAllSoundOff uint8 = 120
	CCResetAll    uint8 = 121
	CCAllNotesOff uint8 = 123
	CCMonoModeOn  uint8 = 126
	CCPolyModeOn  uint8 = 127
)

// PitchBendCenter is the raw 14-bit wheel position that means no bend.
const PitchBendCenter = 8192

type PitchBendEvent struct {
	BaseEvent
	Value int16 // -8192 to 8191, 0 is center
}

// NewPitchBend builds a bend event from a raw 14-bit wheel value (0-16383).
func NewPitchBend(raw uint16, offset int32) PitchBendEvent {
	raw = min(raw, 16383)
	return PitchBendEvent{
		BaseEvent: BaseEvent{Offset: offset},
		Value:     int16(int(raw) - PitchBendCenter),
	}
}

func (e PitchBendEvent) Type() EventType {
	return EventTypePitchBend
}

func (e PitchBendEvent) String() string {
	return fmt.Sprintf("PitchBend{ch:%d, val:%d, offset:%d}",
		e.EventChannel, e.Value, e.Offset)
}

func (e PitchBendEvent) NormalizedValue() float64 {
	return float64(e.Value) / 8192.0
}

// Semitones scales the bend by a wheel range given in semitones.
func (e PitchBendEvent) Semitones(bendRange float64) float64 {
	return e.NormalizedValue() * bendRange
}

// WithOffset returns a copy of e scheduled at a different sample offset.
func WithOffset(e Event, offset int32) Event {
	switch ev := e.(type) {
	case NoteOnEvent:
		ev.Offset = offset
		return ev
	case NoteOffEvent:
		ev.Offset = offset
		return ev
	case ControlChangeEvent:
		ev.Offset = offset
		return ev
	case PitchBendEvent:
		ev.Offset = offset
		return ev
	}
	return e
}
