package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeFingerprint_Deterministic(t *testing.T) {
	a := ComputeFingerprint("Mode 1", 0.05, 15, int64(42))
	b := ComputeFingerprint("Mode 1", 0.05, 15, int64(42))
	assert.Equal(t, a, b)
	assert.Len(t, a.String(), 64)
	assert.Len(t, a.Short(), 12)
}

func TestComputeFingerprint_OrderSensitive(t *testing.T) {
	assert.NotEqual(t, ComputeFingerprint("a", "b"), ComputeFingerprint("b", "a"))
	assert.NotEqual(t, ComputeFingerprint("ab"), ComputeFingerprint("a", "b"))
}
