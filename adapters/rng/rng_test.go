package rng

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"martisim/ports"
)

func draw(t *testing.T, src ports.UniformSource, n int) []float64 {
	t.Helper()
	out := make([]float64, n)
	for i := range out {
		out[i] = src.Float64()
		require.GreaterOrEqual(t, out[i], 0.0)
		require.Less(t, out[i], 1.0)
	}
	return out
}

func TestSeededAdapter_TrialStreamRepeatable(t *testing.T) {
	ctx := context.Background()
	a := NewSeededAdapter(42)
	b := NewSeededAdapter(42)

	s1, err := a.TrialStream(ctx, "Mode 1", 7)
	require.NoError(t, err)
	s2, err := b.TrialStream(ctx, "Mode 1", 7)
	require.NoError(t, err)

	assert.Equal(t, draw(t, s1, 50), draw(t, s2, 50))

	seed, ok := a.Seed()
	assert.True(t, ok)
	assert.Equal(t, int64(42), seed)
}

func TestSeededAdapter_StreamsAreIndependent(t *testing.T) {
	ctx := context.Background()
	a := NewSeededAdapter(42)

	s1, _ := a.TrialStream(ctx, "Mode 1", 0)
	s2, _ := a.TrialStream(ctx, "Mode 1", 1)
	s3, _ := a.TrialStream(ctx, "Mode 2", 0)

	first := draw(t, s1, 20)
	assert.NotEqual(t, first, draw(t, s2, 20))
	assert.NotEqual(t, first, draw(t, s3, 20))
}

func TestTrialSeed(t *testing.T) {
	assert.Equal(t, TrialSeed(1, "m", 3), TrialSeed(1, "m", 3))
	assert.NotEqual(t, TrialSeed(1, "m", 3), TrialSeed(1, "m", 4))
	assert.NotEqual(t, TrialSeed(1, "m", 3), TrialSeed(2, "m", 3))
}

func TestEntropyAdapter(t *testing.T) {
	ctx := context.Background()
	a := NewEntropyAdapter()

	_, ok := a.Seed()
	assert.False(t, ok)

	s1, err := a.TrialStream(ctx, "Mode 1", 0)
	require.NoError(t, err)
	s2, err := a.TrialStream(ctx, "Mode 1", 0)
	require.NoError(t, err)
	assert.NotEqual(t, draw(t, s1, 20), draw(t, s2, 20))
}

func TestTrialStream_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSeededAdapter(1).TrialStream(ctx, "m", 0)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = NewEntropyAdapter().TrialStream(ctx, "m", 0)
	assert.ErrorIs(t, err, context.Canceled)
}
