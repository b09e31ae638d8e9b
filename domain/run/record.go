package run

import (
	"time"

	"martisim/domain/core"
	"martisim/domain/mode"
)

// Report is everything a completed run produced
type Report struct {
	Manifest *RunManifest  `json:"manifest"`
	Results  []mode.Result `json:"results"`
	Duration time.Duration `json:"duration"`
}

// State is the lifecycle state of a submitted run
type State string

const (
	StatePending  State = "pending"
	StateRunning  State = "running"
	StateComplete State = "complete"
	StateError    State = "error"
)

// Record tracks a run submitted for asynchronous execution
type Record struct {
	ID          core.RunID  `json:"id"`
	State       State       `json:"state"`
	Progress    float64     `json:"progress"` // 0.0 - 100.0
	CurrentMode string      `json:"current_mode,omitempty"`
	Modes       []mode.Mode `json:"modes"`
	StartedAt   time.Time   `json:"started_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
	Error       string      `json:"error,omitempty"`
	Report      *Report     `json:"report,omitempty"`
}

// NewRecord creates a pending record for modes
func NewRecord(id core.RunID, modes []mode.Mode) *Record {
	return &Record{
		ID:        id,
		State:     StatePending,
		Modes:     modes,
		StartedAt: time.Now(),
	}
}

// UpdateProgress sets progress and the mode currently running
func (r *Record) UpdateProgress(progress float64, currentMode string) {
	r.State = StateRunning
	r.Progress = progress
	r.CurrentMode = currentMode
}

// Complete stores the report and marks the run complete
func (r *Record) Complete(report *Report) {
	now := time.Now()
	r.State = StateComplete
	r.Progress = 100
	r.CurrentMode = ""
	r.Report = report
	r.CompletedAt = &now
}

// Fail marks the run failed with err's message
func (r *Record) Fail(err error) {
	now := time.Now()
	r.State = StateError
	r.Error = err.Error()
	r.CompletedAt = &now
}

// Done reports whether the run reached a terminal state
func (r *Record) Done() bool {
	return r.State == StateComplete || r.State == StateError
}

// Clone returns a copy safe to hand out while the original keeps changing.
// The report is shared; it is never mutated once stored.
func (r *Record) Clone() *Record {
	c := *r
	c.Modes = append([]mode.Mode(nil), r.Modes...)
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}
