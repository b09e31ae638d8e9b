package mode

import (
	"fmt"
	"strings"
	"time"

	"martisim/domain/core"
	"martisim/domain/stats"
	"martisim/domain/trial"
	apperrors "martisim/internal/errors"
)

const (
	// DefaultTrials is the number of simulated players per mode
	DefaultTrials = 1000
	// DefaultSampleSize is the number of balance series kept for plotting
	DefaultSampleSize = 100
	// DefaultMaxRounds is the round limit of the built-in modes
	DefaultMaxRounds = 100000
)

// Mode is a named strategy parameterisation under comparison
type Mode struct {
	Name       string       `json:"name" yaml:"name"`
	Config     trial.Config `json:"config" yaml:",inline"`
	Trials     int          `json:"trials" yaml:"trials"`
	SampleSize int          `json:"sample_size" yaml:"sample_size"`
}

// New creates a mode with default trial count and sample size
func New(name string, cfg trial.Config) Mode {
	return Mode{
		Name:       name,
		Config:     cfg,
		Trials:     DefaultTrials,
		SampleSize: DefaultSampleSize,
	}
}

// Defaults returns the four built-in modes
func Defaults() []Mode {
	return []Mode{
		New("Mode 1", trial.NewConfig(0.05, 15, DefaultMaxRounds)),
		New("Mode 2", trial.NewConfig(0.1, 12, DefaultMaxRounds)),
		New("Mode 3", trial.NewConfig(0.5, 99, DefaultMaxRounds)),
		New("Mode 4", trial.NewConfig(0.1, 5, DefaultMaxRounds)),
	}
}

// Normalize fills unset fields: names become "Mode N" (1-based position) and
// zero trials and sample sizes take the package defaults. The trial config is
// left as given. A negative sample size is left for Validate.
func Normalize(modes []Mode) []Mode {
	out := make([]Mode, len(modes))
	for i, m := range modes {
		if strings.TrimSpace(m.Name) == "" {
			m.Name = fmt.Sprintf("Mode %d", i+1)
		}
		if m.Trials == 0 {
			m.Trials = DefaultTrials
		}
		if m.SampleSize == 0 {
			m.SampleSize = DefaultSampleSize
		}
		out[i] = m
	}
	return out
}

// Validate checks the mode and its trial config
func (m Mode) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return core.NewModeError(m.Name, "name cannot be empty")
	}
	if m.Trials <= 0 {
		return core.NewModeError(m.Name, fmt.Sprintf("trials must be positive, got %d", m.Trials))
	}
	if m.SampleSize < 0 {
		return core.NewModeError(m.Name, fmt.Sprintf("sample_size cannot be negative, got %d", m.SampleSize))
	}
	if err := m.Config.Validate(); err != nil {
		return apperrors.Wrapf(err, "mode %q", m.Name)
	}
	return nil
}

// ValidateAll validates every mode and rejects empty lists and duplicate names
func ValidateAll(modes []Mode) error {
	if len(modes) == 0 {
		return core.NewEmptyModeListError()
	}
	seen := make(map[string]bool, len(modes))
	for _, m := range modes {
		if err := m.Validate(); err != nil {
			return err
		}
		if seen[m.Name] {
			return core.NewModeError(m.Name, "duplicate name")
		}
		seen[m.Name] = true
	}
	return nil
}

// Find returns the mode with the given name (case-insensitive)
func Find(modes []Mode, name string) (Mode, error) {
	for _, m := range modes {
		if strings.EqualFold(m.Name, strings.TrimSpace(name)) {
			return m, nil
		}
	}
	return Mode{}, core.NewModeNotFoundError(name)
}

// Result is everything produced for one mode
type Result struct {
	Mode         Mode                  `json:"mode"`
	Stats        stats.BatchStatistics `json:"stats"`
	Distribution stats.Distribution    `json:"distribution"`
	Streaks      stats.StreakSummary   `json:"streaks"`
	// Samples holds the balance series of the first SampleSize trials, in trial order
	Samples  [][]float64   `json:"samples,omitempty"`
	Duration time.Duration `json:"duration"`
}
