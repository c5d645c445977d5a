package transform

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestRoundTripRecoversFrameWithinTolerance(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.SampledFrom([]int{8, 16, 32, 64, 128}).Draw(t, "n")
		f := NewFrame(n)
		for i := range f {
			f[i] = rapid.Float64Range(-5, 5).Draw(t, "sample")
		}
		original := append(Frame(nil), f...)

		plan := NewPlan(n)
		plan.Forward(f)
		plan.Backward(f)

		for i := range f {
			got := f[i] / float64(n)
			assert.InDelta(t, original[i], got, 1e-9)
		}
	})
}

func TestForwardDCBinIsSumOfSamples(t *testing.T) {
	n := 8
	f := NewFrame(n)
	for i := range f {
		f[i] = float64(i + 1)
	}
	var want float64
	for _, v := range f {
		want += v
	}

	plan := NewPlan(n)
	plan.Forward(f)

	assert.True(t, math.Abs(f[0]-want) < 1e-9)
}
