package debug

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Profiler records wall-clock timings of named sections.
type Profiler struct {
	mu           sync.RWMutex
	measurements map[string]*Measurement
	enabled      atomic.Bool
	maxSamples   int
}

// Measurement holds timing statistics for a profiled section.
type Measurement struct {
	name        string
	count       uint64
	totalTime   time.Duration
	minTime     time.Duration
	maxTime     time.Duration
	lastTime    time.Duration
	samples     []time.Duration
	sampleIndex int
}

// NewProfiler creates a profiler keeping the last maxSamples timings per
// section for percentiles.
func NewProfiler(maxSamples int) *Profiler {
	if maxSamples < 1 {
		maxSamples = 1
	}
	p := &Profiler{
		measurements: make(map[string]*Measurement),
		maxSamples:   maxSamples,
	}
	p.enabled.Store(true)
	return p
}

// SetEnabled enables or disables profiling.
func (p *Profiler) SetEnabled(enabled bool) {
	p.enabled.Store(enabled)
}

// IsEnabled returns whether profiling is enabled.
func (p *Profiler) IsEnabled() bool {
	return p.enabled.Load()
}

// Start begins timing a named section and returns the function that ends it.
func (p *Profiler) Start(name string) func() {
	if !p.enabled.Load() {
		return func() {}
	}

	start := time.Now()
	return func() {
		p.Record(name, time.Since(start))
	}
}

// Time measures the execution time of a function.
func (p *Profiler) Time(name string, fn func()) {
	stop := p.Start(name)
	defer stop()
	fn()
}

// Record stores a timing measurement.
func (p *Profiler) Record(name string, elapsed time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	m, exists := p.measurements[name]
	if !exists {
		m = &Measurement{
			name:    name,
			minTime: elapsed,
			maxTime: elapsed,
			samples: make([]time.Duration, 0, p.maxSamples),
		}
		p.measurements[name] = m
	}

	m.count++
	m.totalTime += elapsed
	m.lastTime = elapsed
	m.minTime = min(m.minTime, elapsed)
	m.maxTime = max(m.maxTime, elapsed)

	if len(m.samples) < p.maxSamples {
		m.samples = append(m.samples, elapsed)
	} else {
		m.samples[m.sampleIndex] = elapsed
	}
	m.sampleIndex = (m.sampleIndex + 1) % p.maxSamples
}

// GetMeasurement returns a copy of the measurement for a named section.
func (p *Profiler) GetMeasurement(name string) (*Measurement, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	m, exists := p.measurements[name]
	if !exists {
		return nil, false
	}
	return m.clone(), true
}

// Names returns the recorded section names in sorted order.
func (p *Profiler) Names() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := make([]string, 0, len(p.measurements))
	for name := range p.measurements {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Reset clears all measurements.
func (p *Profiler) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.measurements = make(map[string]*Measurement)
}

// Report generates a performance report.
func (p *Profiler) Report() string {
	names := p.Names()
	if len(names) == 0 {
		return "No measurements recorded\n"
	}

	var sb strings.Builder
	sb.WriteString("Performance Report:\n")
	sb.WriteString("==================\n\n")

	for _, name := range names {
		m, _ := p.GetMeasurement(name)
		fmt.Fprintf(&sb, "%s:\n", name)
		fmt.Fprintf(&sb, "  Count:   %d\n", m.count)
		fmt.Fprintf(&sb, "  Total:   %v\n", m.totalTime)
		fmt.Fprintf(&sb, "  Average: %v\n", m.Average())
		fmt.Fprintf(&sb, "  Min:     %v\n", m.minTime)
		fmt.Fprintf(&sb, "  p99:     %v\n", m.Percentile(99))
		fmt.Fprintf(&sb, "  Max:     %v\n", m.maxTime)
		sb.WriteString("\n")
	}

	return sb.String()
}

func (m *Measurement) clone() *Measurement {
	c := *m
	c.samples = slices.Clone(m.samples)
	return &c
}

// Count returns how many timings were recorded.
func (m *Measurement) Count() uint64 {
	return m.count
}

// Min returns the shortest recorded timing.
func (m *Measurement) Min() time.Duration {
	return m.minTime
}

// Max returns the longest recorded timing.
func (m *Measurement) Max() time.Duration {
	return m.maxTime
}

// Average returns the average time for this measurement.
func (m *Measurement) Average() time.Duration {
	if m.count == 0 {
		return 0
	}
	return m.totalTime / time.Duration(m.count)
}

// Percentile returns the p-th percentile (0-100) of the retained samples.
func (m *Measurement) Percentile(p float64) time.Duration {
	if len(m.samples) == 0 {
		return 0
	}
	sorted := slices.Clone(m.samples)
	slices.Sort(sorted)

	p = max(0, min(100, p))
	index := int(float64(len(sorted)-1) * p / 100.0)
	return sorted[index]
}

// RenderProfiler times audio render calls against their real-time budget.
type RenderProfiler struct {
	*Profiler
	sampleRate float64
}

// RenderSection is the section name used for render call timings.
const RenderSection = "Render"

// NewRenderProfiler creates a profiler for render calls at sampleRate.
func NewRenderProfiler(sampleRate float64) *RenderProfiler {
	return &RenderProfiler{
		Profiler:   NewProfiler(4096),
		sampleRate: sampleRate,
	}
}

// TimeRender times one render call that produces frames samples.
func (r *RenderProfiler) TimeRender(frames int, fn func()) {
	start := time.Now()
	fn()
	r.Record(RenderSection, time.Since(start))
	r.Record(fmt.Sprintf("%s/%d", RenderSection, frames), time.Since(start))
}

// Load returns the average render time as a fraction of the audio duration
// of a block of frames samples. Values above 1 cannot keep up in real time.
func (r *RenderProfiler) Load(frames int) float64 {
	m, ok := r.GetMeasurement(fmt.Sprintf("%s/%d", RenderSection, frames))
	if !ok || m.count == 0 || frames <= 0 {
		return 0
	}
	budget := time.Duration(float64(frames) / r.sampleRate * float64(time.Second))
	return float64(m.Average()) / float64(budget)
}

// RenderReport appends CPU load figures for the given block size.
func (r *RenderProfiler) RenderReport(frames int) string {
	var sb strings.Builder
	sb.WriteString(r.Report())
	sb.WriteString("Render Stats:\n")
	fmt.Fprintf(&sb, "  Sample Rate: %.0f Hz\n", r.sampleRate)
	fmt.Fprintf(&sb, "  Block Size:  %d samples\n", frames)
	fmt.Fprintf(&sb, "  CPU Load:    %.2f%%\n", r.Load(frames)*100)
	return sb.String()
}
