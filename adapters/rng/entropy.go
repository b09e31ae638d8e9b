package rng

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"time"

	"martisim/ports"
)

// EntropyAdapter implements ports.RNGPort with streams seeded from crypto/rand.
// Batches are not reproducible.
type EntropyAdapter struct{}

// NewEntropyAdapter creates a non-reproducible RNG port
func NewEntropyAdapter() *EntropyAdapter {
	return &EntropyAdapter{}
}

// SeededStream ignores the ambient entropy and honours the explicit seed
func (a *EntropyAdapter) SeededStream(ctx context.Context, name string, seed int64) (ports.UniformSource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return rand.New(rand.NewSource(seed + int64(hashString(name)))), nil
}

// TrialStream returns a freshly seeded stream
func (a *EntropyAdapter) TrialStream(ctx context.Context, modeName string, trialIndex int) (ports.UniformSource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return rand.New(rand.NewSource(entropySeed())), nil
}

// Seed reports that streams are not reproducible
func (a *EntropyAdapter) Seed() (int64, bool) {
	return 0, false
}

func entropySeed() int64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return time.Now().UnixNano()
	}
	return int64(binary.LittleEndian.Uint64(b[:]))
}
