package rng

import (
	"context"
	"hash/fnv"
	"math/rand"

	"martisim/ports"
)

// trialStride spreads consecutive trial indexes across the seed space
const trialStride int64 = 0x9E3779B9

// SeededAdapter implements ports.RNGPort with reproducible per-trial streams.
//
// Seed policy: seed(mode, i) = baseSeed + fnv1a(mode) + i*0x9E3779B9.
// Every trial owns its own *rand.Rand, so results do not depend on the order
// or the goroutine that runs a trial.
type SeededAdapter struct {
	baseSeed int64
}

// NewSeededAdapter creates a reproducible RNG port
func NewSeededAdapter(baseSeed int64) *SeededAdapter {
	return &SeededAdapter{baseSeed: baseSeed}
}

// SeededStream creates a deterministic random number generator for a named operation
func (a *SeededAdapter) SeededStream(ctx context.Context, name string, seed int64) (ports.UniformSource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return rand.New(rand.NewSource(seed + int64(hashString(name)))), nil
}

// TrialStream creates the stream for one trial of a mode
func (a *SeededAdapter) TrialStream(ctx context.Context, modeName string, trialIndex int) (ports.UniformSource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return rand.New(rand.NewSource(TrialSeed(a.baseSeed, modeName, trialIndex))), nil
}

// Seed returns the base seed
func (a *SeededAdapter) Seed() (int64, bool) {
	return a.baseSeed, true
}

// TrialSeed derives the seed of one trial from the base seed
func TrialSeed(baseSeed int64, modeName string, trialIndex int) int64 {
	return baseSeed + int64(hashString(modeName)) + int64(trialIndex)*trialStride
}

func hashString(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}
