package testkit

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"

	"martisim/domain/trial"
	"martisim/ports"
)

// Samples that win or lose for every win probability strictly inside (0,1)
var (
	WinSample  = math.Nextafter(1, 0)
	LossSample = 0.0
)

// Script is a UniformSource that replays a fixed list of samples.
// It panics when exhausted so a test cannot silently run past its script.
type Script struct {
	values []float64
	pos    int
}

// NewScript creates a source returning values in order
func NewScript(values ...float64) *Script {
	return &Script{values: values}
}

// Pattern builds a script from a string of W (win) and L (loss) runes.
// Other runes are ignored, so "WWL LLL" is valid.
func Pattern(p string) *Script {
	values := make([]float64, 0, len(p))
	for _, r := range strings.ToUpper(p) {
		switch r {
		case 'W':
			values = append(values, WinSample)
		case 'L':
			values = append(values, LossSample)
		}
	}
	return NewScript(values...)
}

// Losses returns a script of n losing samples
func Losses(n int) *Script {
	return Pattern(strings.Repeat("L", n))
}

// Float64 returns the next scripted sample
func (s *Script) Float64() float64 {
	if s.pos >= len(s.values) {
		panic(fmt.Sprintf("testkit: script exhausted after %d samples", len(s.values)))
	}
	v := s.values[s.pos]
	s.pos++
	return v
}

// Consumed reports how many samples have been drawn
func (s *Script) Consumed() int {
	return s.pos
}

// ConstantSource always returns the same sample
type ConstantSource float64

func (c ConstantSource) Float64() float64 { return float64(c) }

// RNGAdapter implements ports.RNGPort for tests. Streams come from a factory
// keyed by trial index; calls are recorded for assertions.
type RNGAdapter struct {
	mu      sync.Mutex
	factory func(modeName string, trialIndex int) ports.UniformSource
	calls   map[string]int
}

// NewRNGAdapter creates a test RNG port from a stream factory
func NewRNGAdapter(factory func(modeName string, trialIndex int) ports.UniformSource) *RNGAdapter {
	return &RNGAdapter{factory: factory, calls: make(map[string]int)}
}

// NewSeededRNGAdapter returns a test port handing out math/rand streams seeded by trial index
func NewSeededRNGAdapter(seed int64) *RNGAdapter {
	return NewRNGAdapter(func(_ string, trialIndex int) ports.UniformSource {
		return rand.New(rand.NewSource(seed + int64(trialIndex)))
	})
}

// SeededStream creates a deterministic random number generator for a named operation
func (r *RNGAdapter) SeededStream(ctx context.Context, name string, seed int64) (ports.UniformSource, error) {
	return rand.New(rand.NewSource(seed)), nil
}

// TrialStream returns the factory's stream for a trial
func (r *RNGAdapter) TrialStream(ctx context.Context, modeName string, trialIndex int) (ports.UniformSource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.calls[modeName]++
	r.mu.Unlock()
	return r.factory(modeName, trialIndex), nil
}

// Seed reports a reproducible port
func (r *RNGAdapter) Seed() (int64, bool) {
	return 0, true
}

// Calls returns how many streams were handed out for a mode
func (r *RNGAdapter) Calls(modeName string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[modeName]
}

// EventRecorder is a ports.EventSink that keeps every event
type EventRecorder struct {
	mu     sync.Mutex
	events []ports.RunEvent
}

// Publish records an event
func (r *EventRecorder) Publish(event ports.RunEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Events returns a copy of the recorded events in publish order
func (r *EventRecorder) Events() []ports.RunEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ports.RunEvent(nil), r.events...)
}

// Types returns the recorded event types, skipping progress events
func (r *EventRecorder) Types() []string {
	var out []string
	for _, e := range r.Events() {
		if e.EventType != ports.EventProgress {
			out = append(out, e.EventType)
		}
	}
	return out
}

// OutcomesWithFinal builds one outcome per final balance, each with a
// single-element balance series.
func OutcomesWithFinal(finals ...float64) []trial.Outcome {
	out := make([]trial.Outcome, len(finals))
	for i, f := range finals {
		out[i] = trial.Outcome{
			BalanceSeries:  []float64{f},
			RoundsPlayed:   1,
			AbortReason:    trial.AbortNone,
			InitialBalance: trial.DefaultInitialBalance,
		}
	}
	return out
}
