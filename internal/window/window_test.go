package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

var allKinds = []Kind{Hamming, Hann, Blackman, Bartlett, Triangular, Rectangular, Nuttall}

func TestCoefficientsNonNegativeAndPositiveSum(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		k := rapid.SampledFrom(allKinds).Draw(t, "kind")
		n := rapid.SampledFrom([]int{2, 4, 8, 16, 32, 64, 128}).Draw(t, "n")

		w, gain := Coefficients(k, n)
		assert.Len(t, w, n)
		assert.Greater(t, gain, 0.0)
		for _, v := range w {
			assert.GreaterOrEqual(t, v, -1e-12)
		}
	})
}

func TestSymmetricWindowsAreSymmetric(t *testing.T) {
	symmetric := []Kind{Hamming, Blackman, Bartlett, Triangular, Rectangular, Nuttall}

	rapid.Check(t, func(t *rapid.T) {
		k := rapid.SampledFrom(symmetric).Draw(t, "kind")
		n := rapid.SampledFrom([]int{2, 4, 8, 16, 32, 64, 128}).Draw(t, "n")

		w, _ := Coefficients(k, n)
		for i := 0; i < n; i++ {
			assert.InDelta(t, w[i], w[n-1-i], 1e-9)
		}
	})
}

func TestParseUnknownDefaultsToHamming(t *testing.T) {
	assert.Equal(t, Hamming, Parse("bogus"))
	assert.Equal(t, Hamming, Parse(""))
}

func TestParseKnownNames(t *testing.T) {
	assert.Equal(t, Hann, Parse("hann"))
	assert.Equal(t, Blackman, Parse("blackman"))
	assert.Equal(t, Bartlett, Parse("bartlett"))
	assert.Equal(t, Triangular, Parse("triangular"))
	assert.Equal(t, Rectangular, Parse("rectangular"))
	assert.Equal(t, Nuttall, Parse("nuttall"))
}
