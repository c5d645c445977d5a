package lpc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromDataPredictsAR1Process(t *testing.T) {
	// Generate a first-order AR process x[n] = 0.7*x[n-1] + small noise,
	// which a sufficiently high LPC order should recover the dominant
	// pole of.
	n := 2048
	data := make([]float64, n)
	state := uint32(7)
	data[0] = 1
	for i := 1; i < n; i++ {
		state ^= state << 13
		state ^= state >> 17
		state ^= state << 5
		noise := (float64(int32(state)) / float64(math.MaxInt32)) * 0.01
		data[i] = 0.7*data[i-1] + noise
	}

	coeffs := FromData(data, n, 12)
	assert.Len(t, coeffs, 12)
	// The first reflection-derived coefficient should be close to 0.7
	// for a pure AR(1) source.
	assert.InDelta(t, 0.7, coeffs[0], 0.05)
}

func TestFromDataOnSilenceReturnsZero(t *testing.T) {
	data := make([]float64, 256)
	coeffs := FromData(data, len(data), 12)
	for _, c := range coeffs {
		assert.Equal(t, 0.0, c)
	}
}

func TestFromDataNeverProducesNaN(t *testing.T) {
	data := make([]float64, 1)
	data[0] = 1
	coeffs := FromData(data, len(data), 12)
	for _, c := range coeffs {
		assert.False(t, math.IsNaN(c))
		assert.False(t, math.IsInf(c, 0))
	}
}
