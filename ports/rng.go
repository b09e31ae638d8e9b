package ports

import (
	"context"

	"martisim/domain/trial"
)

// UniformSource yields uniform samples in [0, 1)
type UniformSource = trial.UniformSource

// RNGPort provides random sources for trials
type RNGPort interface {
	// SeededStream creates a deterministic source for a named operation
	SeededStream(ctx context.Context, name string, seed int64) (UniformSource, error)

	// TrialStream returns an independent source for one trial of a mode.
	// On a reproducible port, identical (modeName, trialIndex) pairs yield identical sequences.
	TrialStream(ctx context.Context, modeName string, trialIndex int) (UniformSource, error)

	// Seed returns the base seed and whether streams are reproducible
	Seed() (int64, bool)
}
