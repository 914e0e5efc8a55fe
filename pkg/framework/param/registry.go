package param

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	// ErrUnknownParameter is returned for lookups of unregistered names or IDs
	ErrUnknownParameter = errors.New("unknown parameter")
	// ErrDuplicateParameter is returned when an ID or name is registered twice
	ErrDuplicateParameter = errors.New("duplicate parameter")
)

// Registry manages parameters by ID and name. Lookups are safe from any
// goroutine; values themselves are read and written atomically.
type Registry struct {
	params map[uint32]*Parameter
	names  map[string]*Parameter
	order  []uint32 // Maintain order for indexed access
	mu     sync.RWMutex
}

// NewRegistry creates a new parameter registry
func NewRegistry() *Registry {
	return &Registry{
		params: make(map[uint32]*Parameter),
		names:  make(map[string]*Parameter),
		order:  make([]uint32, 0),
	}
}

// Add registers parameters. It fails on the first duplicate ID or name.
func (r *Registry) Add(params ...*Parameter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range params {
		if _, exists := r.params[p.ID]; exists {
			return fmt.Errorf("%w: id %d", ErrDuplicateParameter, p.ID)
		}
		key := strings.ToLower(p.Name)
		if _, exists := r.names[key]; exists {
			return fmt.Errorf("%w: %q", ErrDuplicateParameter, p.Name)
		}
		r.params[p.ID] = p
		r.names[key] = p
		r.order = append(r.order, p.ID)
	}

	return nil
}

// Get retrieves a parameter by ID, or nil
func (r *Registry) Get(id uint32) *Parameter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.params[id]
}

// Lookup retrieves a parameter by case-insensitive name
func (r *Registry) Lookup(name string) (*Parameter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.names[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownParameter, name)
	}
	return p, nil
}

// GetByIndex retrieves a parameter by registration index
func (r *Registry) GetByIndex(index int32) *Parameter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if index < 0 || index >= int32(len(r.order)) {
		return nil
	}

	id := r.order[index]
	return r.params[id]
}

// Count returns the number of parameters
func (r *Registry) Count() int32 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int32(len(r.order))
}

// All returns all parameters in registration order
func (r *Registry) All() []*Parameter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Parameter, len(r.order))
	for i, id := range r.order {
		result[i] = r.params[id]
	}

	return result
}

// SetPlain sets a parameter by name from a plain value
func (r *Registry) SetPlain(name string, value float64) error {
	p, err := r.Lookup(name)
	if err != nil {
		return err
	}
	p.SetPlainValue(value)
	return nil
}

// SetText sets a parameter by name from formatted text such as "2.5 kHz"
func (r *Registry) SetText(name, text string) error {
	p, err := r.Lookup(name)
	if err != nil {
		return err
	}
	normalized, err := p.ParseValue(text)
	if err != nil {
		return fmt.Errorf("parameter %s: %w", p.Name, err)
	}
	p.SetValue(normalized)
	return nil
}

// ResetAll restores every parameter to its default
func (r *Registry) ResetAll() {
	for _, p := range r.All() {
		p.Reset()
	}
}
