package control

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/justyntemme/synja/pkg/dsp/pitch"
	"github.com/justyntemme/synja/pkg/framework/param"
	"github.com/justyntemme/synja/pkg/framework/state"
	"github.com/justyntemme/synja/pkg/midi"
)

const maxBodySize = 1 << 20

// ParamInfo describes one parameter in API responses
type ParamInfo struct {
	ID      uint32  `json:"id"`
	Name    string  `json:"name"`
	Short   string  `json:"short,omitempty"`
	Unit    string  `json:"unit,omitempty"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Default float64 `json:"default"`
	Value   float64 `json:"value"`
	Text    string  `json:"text"`
}

func describe(p *param.Parameter) ParamInfo {
	return ParamInfo{
		ID:      p.ID,
		Name:    p.Name,
		Short:   p.ShortName,
		Unit:    p.Unit,
		Min:     p.Min,
		Max:     p.Max,
		Default: p.DefaultValue,
		Value:   p.GetPlainValue(),
		Text:    p.String(),
	}
}

// ParamUpdate is the body of PUT /params/{name}. Exactly one of Value or
// Text must be set.
type ParamUpdate struct {
	Value *float64 `json:"value,omitempty"`
	Text  *string  `json:"text,omitempty"`
}

// BendRequest is the body of POST /bend, Amount in -1..1
type BendRequest struct {
	Amount float64 `json:"amount"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty request body")
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// handleHealth reports liveness and dropped live events
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"dropped": s.synth.Queue().Dropped(),
	})
}

func (s *Server) handleListParams(w http.ResponseWriter, r *http.Request) {
	all := s.synth.Params().All()
	out := make([]ParamInfo, 0, len(all))
	for _, p := range all {
		out = append(out, describe(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*param.Parameter, bool) {
	p, err := s.synth.Params().Lookup(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return nil, false
	}
	return p, true
}

func (s *Server) handleGetParam(w http.ResponseWriter, r *http.Request) {
	if p, ok := s.lookup(w, r); ok {
		writeJSON(w, http.StatusOK, describe(p))
	}
}

func (s *Server) handleSetParam(w http.ResponseWriter, r *http.Request) {
	p, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req ParamUpdate
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	switch {
	case req.Value != nil && req.Text == nil:
		if math.IsNaN(*req.Value) || math.IsInf(*req.Value, 0) {
			writeError(w, http.StatusBadRequest, errors.New("value must be finite"))
			return
		}
		p.SetPlainValue(*req.Value)
	case req.Text != nil && req.Value == nil:
		normalized, err := p.ParseValue(*req.Text)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("parameter %s: %w", p.Name, err))
			return
		}
		p.SetValue(normalized)
	default:
		writeError(w, http.StatusBadRequest, errors.New("set exactly one of value or text"))
		return
	}
	writeJSON(w, http.StatusOK, describe(p))
}

func (s *Server) handleGetPatch(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "Live"
	}
	w.Header().Set("Content-Type", "application/json")
	if err := s.patches.Save(w, name); err != nil {
		writeError(w, http.StatusInternalServerError, err)
	}
}

func (s *Server) handlePutPatch(w http.ResponseWriter, r *http.Request) {
	bank, err := state.LoadBank(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, state.ErrNewerVersion) {
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, err)
		return
	}

	var preset *state.Preset
	switch name := r.URL.Query().Get("preset"); {
	case name != "":
		preset, err = bank.Find(name)
	case len(bank.Presets) == 0:
		err = fmt.Errorf("%w: bank is empty", state.ErrPresetNotFound)
	default:
		preset = &bank.Presets[0]
	}
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	s.patches.Apply(*preset)
	writeJSON(w, http.StatusOK, map[string]string{"applied": preset.Name})
}

// parseNote accepts a MIDI note number or a name such as C#4
func parseNote(s string) (uint8, error) {
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n > 127 {
			return 0, fmt.Errorf("note %d out of range 0..127", n)
		}
		return uint8(n), nil
	}
	return pitch.ParseNoteName(s)
}

func (s *Server) queue(w http.ResponseWriter, e midi.Event) {
	if !s.synth.Queue().Add(e) {
		writeError(w, http.StatusServiceUnavailable, errors.New("event queue full"))
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"queued": e.Type().String()})
}

func (s *Server) handleNoteOn(w http.ResponseWriter, r *http.Request) {
	note, err := parseNote(chi.URLParam(r, "note"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	velocity := 100
	if v := r.URL.Query().Get("velocity"); v != "" {
		velocity, err = strconv.Atoi(v)
		if err != nil || velocity < 1 || velocity > 127 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("velocity %q: want 1..127", v))
			return
		}
	}
	s.queue(w, midi.NoteOnEvent{NoteNumber: note, Velocity: uint8(velocity)})
}

func (s *Server) handleNoteOff(w http.ResponseWriter, r *http.Request) {
	note, err := parseNote(chi.URLParam(r, "note"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.queue(w, midi.NoteOffEvent{NoteNumber: note})
}

func (s *Server) handleBend(w http.ResponseWriter, r *http.Request) {
	var req BendRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Amount < -1 || req.Amount > 1 || math.IsNaN(req.Amount) {
		writeError(w, http.StatusBadRequest, errors.New("amount must be in -1..1"))
		return
	}
	raw := math.Round((req.Amount + 1) * midi.PitchBendCenter)
	s.queue(w, midi.NewPitchBend(uint16(min(raw, 16383)), 0))
}

func (s *Server) handlePanic(w http.ResponseWriter, r *http.Request) {
	s.queue(w, midi.ControlChangeEvent{Controller: midi.CCAllNotesOff})
}
