// Package state saves and loads synth patches as versioned JSON banks.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/justyntemme/synja/pkg/framework/debug"
	"github.com/justyntemme/synja/pkg/framework/param"
)

// FormatVersion is the newest bank format this package reads and writes
const FormatVersion = 1

var (
	// ErrNewerVersion is returned when a bank was written by a newer format
	ErrNewerVersion = errors.New("bank format is newer than supported")
	// ErrPresetNotFound is returned when a named preset is not in a bank
	ErrPresetNotFound = errors.New("preset not found")
)

// Value is one parameter setting, encoded as a ["Name", value] pair
type Value struct {
	Name  string
	Value float64
}

// MarshalJSON encodes the value as a two element array
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{v.Name, v.Value})
}

// UnmarshalJSON decodes a two element ["Name", value] array
func (v *Value) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("parameter value: want [name, value], got %d elements", len(pair))
	}
	if err := json.Unmarshal(pair[0], &v.Name); err != nil {
		return fmt.Errorf("parameter name: %w", err)
	}
	if err := json.Unmarshal(pair[1], &v.Value); err != nil {
		return fmt.Errorf("parameter %s: %w", v.Name, err)
	}
	return nil
}

// Preset is a named set of plain parameter values
type Preset struct {
	Name   string  `json:"name"`
	Params []Value `json:"params"`
}

// Bank is the on-disk document holding several presets
type Bank struct {
	Version int      `json:"version"`
	Presets []Preset `json:"presets"`
}

// Find returns the preset with the given name
func (b *Bank) Find(name string) (*Preset, error) {
	for i := range b.Presets {
		if b.Presets[i].Name == name {
			return &b.Presets[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrPresetNotFound, name)
}

// Manager converts between a parameter registry and preset documents
type Manager struct {
	registry *param.Registry
}

// NewManager creates a new state manager
func NewManager(registry *param.Registry) *Manager {
	return &Manager{registry: registry}
}

// Capture snapshots the registry's current plain values as a preset
func (m *Manager) Capture(name string) Preset {
	params := m.registry.All()
	p := Preset{Name: name, Params: make([]Value, 0, len(params))}
	for _, prm := range params {
		p.Params = append(p.Params, Value{Name: prm.Name, Value: prm.GetPlainValue()})
	}
	return p
}

// Apply writes a preset's values into the registry. Parameters missing from
// the preset are reset to their defaults; unknown names are skipped.
func (m *Manager) Apply(p Preset) {
	m.registry.ResetAll()
	for _, v := range p.Params {
		if err := m.registry.SetPlain(v.Name, v.Value); err != nil {
			debug.Warn("preset %q: %v", p.Name, err)
		}
	}
}

// Save writes the registry's current state as a single-preset bank
func (m *Manager) Save(w io.Writer, name string) error {
	return SaveBank(w, &Bank{Presets: []Preset{m.Capture(name)}})
}

// Load reads a bank and applies its first preset
func (m *Manager) Load(r io.Reader) error {
	bank, err := LoadBank(r)
	if err != nil {
		return err
	}
	if len(bank.Presets) == 0 {
		return fmt.Errorf("%w: bank is empty", ErrPresetNotFound)
	}
	m.Apply(bank.Presets[0])
	return nil
}

// SaveBank writes a bank as indented JSON at the current format version
func SaveBank(w io.Writer, b *Bank) error {
	b.Version = FormatVersion
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b); err != nil {
		return fmt.Errorf("encode bank: %w", err)
	}
	return nil
}

// LoadBank reads a bank, rejecting documents from a newer format version
func LoadBank(r io.Reader) (*Bank, error) {
	var b Bank
	if err := json.NewDecoder(r).Decode(&b); err != nil {
		return nil, fmt.Errorf("decode bank: %w", err)
	}
	if b.Version > FormatVersion {
		return nil, fmt.Errorf("%w: version %d, supported %d", ErrNewerVersion, b.Version, FormatVersion)
	}
	return &b, nil
}
