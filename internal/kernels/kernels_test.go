package kernels

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestSanitizeIsIdentityOnFinite(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		x := rapid.Float64Range(-1e6, 1e6).Draw(t, "x")
		assert.Equal(t, x, Sanitize(x))
	})
}

func TestSanitizeZeroesNaNAndInf(t *testing.T) {
	assert.Equal(t, 0.0, Sanitize(math.NaN()))
	assert.Equal(t, 0.0, Sanitize(math.Inf(1)))
	assert.Equal(t, 0.0, Sanitize(math.Inf(-1)))
}

func TestMagnitudeNonNegative(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.SampledFrom([]int{8, 16, 32, 64}).Draw(t, "n")
		f := make([]float64, n)
		for i := range f {
			f[i] = rapid.Float64Range(-10, 10).Draw(t, "f")
		}
		mag := make([]float64, n/2+1)
		Magnitude(f, n, mag)
		for _, m := range mag {
			assert.GreaterOrEqual(t, m, 0.0)
		}
	})
}

func TestReconstructInvertsMagnitudePhase(t *testing.T) {
	n := 16
	f := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, -8, -7, -6, -5, -4, -3, -2}
	mag := make([]float64, n/2+1)
	phase := make([]float64, n/2+1)
	Magnitude(f, n, mag)
	Phase(f, n, phase)

	out := make([]float64, n)
	Reconstruct(mag, phase, n, out)

	for k := 0; k <= n/2; k++ {
		assert.InDelta(t, f[k], out[k], 1e-9)
	}
	for k := n/2 + 1; k < n; k++ {
		assert.InDelta(t, f[k], out[k], 1e-9)
	}
}

func TestMultiplyGainAppliesSymmetrically(t *testing.T) {
	n := 8
	f := []float64{1, 2, 3, 4, 5, -3, -2, -1}
	g := []float64{2, 2, 2, 2, 2}
	MultiplyGain(f, n, g)
	assert.Equal(t, []float64{2, 4, 6, 8, 10, -6, -4, -2}, f)
}

func TestBesselI0AtZeroIsOne(t *testing.T) {
	assert.InDelta(t, 1.0, BesselI0(0), 1e-9)
}

func TestBesselI1AtZeroIsZero(t *testing.T) {
	assert.InDelta(t, 0.0, BesselI1(0), 1e-9)
}

func TestBesselI1IsOdd(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		x := rapid.Float64Range(0.01, 20).Draw(t, "x")
		assert.InDelta(t, -BesselI1(x), BesselI1(-x), 1e-9)
	})
}

func TestMultiplyArraysElementWise(t *testing.T) {
	a := []float64{1, 2, 3}
	b := []float64{4, 5, 6}
	dst := make([]float64, 3)
	MultiplyArrays(dst, a, b)
	assert.Equal(t, []float64{4, 10, 18}, dst)
}
