// Package kernels provides the leaf numeric routines shared by every noise
// estimator and suppressor: magnitude/phase/power extraction from a
// half-complex spectrum, NaN/Inf sanitization, and the modified Bessel
// functions the MMSE-STSA estimator needs.
package kernels

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Sanitize returns 0 when x is NaN or infinite, otherwise x unchanged.
func Sanitize(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return x
}

// Magnitude fills mag[0..fftSize/2] with the magnitude spectrum of the
// half-complex buffer f (see the transform package for the packing layout).
func Magnitude(f []float64, fftSize int, mag []float64) {
	half := fftSize / 2
	mag[0] = math.Abs(f[0])
	even := fftSize%2 == 0
	if even {
		mag[half] = math.Abs(f[half])
	}
	upper := half
	if even {
		upper = half - 1
	}
	for k := 1; k <= upper; k++ {
		mag[k] = math.Hypot(f[k], f[fftSize-k])
	}
}

// Phase fills phase[0..fftSize/2] with the phase spectrum of the
// half-complex buffer f, using the standard quadrant-aware arctangent.
func Phase(f []float64, fftSize int, phase []float64) {
	half := fftSize / 2
	phase[0] = Argument(f[0], 0)
	even := fftSize%2 == 0
	if even {
		phase[half] = Argument(f[half], 0)
	}
	upper := half
	if even {
		upper = half - 1
	}
	for k := 1; k <= upper; k++ {
		phase[k] = Argument(f[k], f[fftSize-k])
	}
}

// Argument returns the angle of the complex number (re, im) in (-pi, pi],
// matching the standard quadrant rules of atan2.
func Argument(re, im float64) float64 {
	return math.Atan2(im, re)
}

// PowerSpectrum squares mag in place over k in [0, fftSize/2] and returns
// the sum of the resulting power spectrum.
func PowerSpectrum(mag []float64, fftSize int) float64 {
	half := fftSize / 2
	var sum float64
	for k := 0; k <= half; k++ {
		mag[k] *= mag[k]
		sum += mag[k]
	}
	return sum
}

// Reconstruct writes a half-complex buffer f from a magnitude and phase
// spectrum. It inverts Magnitude+Phase for bins 1..fftSize/2-1; the DC bin
// (and the Nyquist bin when fftSize is even) is written as its magnitude, so
// a negative DC or Nyquist value comes back positive.
func Reconstruct(mag, phase []float64, fftSize int, f []float64) {
	half := fftSize / 2
	f[0] = mag[0]
	even := fftSize%2 == 0
	if even {
		f[half] = mag[half]
	}
	upper := half
	if even {
		upper = half - 1
	}
	for k := 1; k <= upper; k++ {
		f[k] = mag[k] * math.Cos(phase[k])
		f[fftSize-k] = mag[k] * math.Sin(phase[k])
	}
}

// MultiplyGain scales a half-complex buffer f in place by a real gain
// vector g[0..fftSize/2], applying g[k] to both mirrored entries.
func MultiplyGain(f []float64, fftSize int, g []float64) {
	half := fftSize / 2
	f[0] *= g[0]
	even := fftSize%2 == 0
	if even {
		f[half] *= g[half]
	}
	upper := half
	if even {
		upper = half - 1
	}
	for k := 1; k <= upper; k++ {
		f[k] *= g[k]
		f[fftSize-k] *= g[k]
	}
}

// MultiplyArrays is the element-wise array-multiply math kernel, used to
// apply an analysis window to a time-domain frame.
func MultiplyArrays(dst, a, b []float64) {
	copy(dst, a)
	floats.Mul(dst, b)
}

// BesselI0 and BesselI1 use the Abramowitz & Stegun 9.8.1-9.8.4
// polynomial approximations for the modified Bessel functions of the first
// kind, order 0 and 1, with the coefficients written inline. The original toolkit's tbessi.c implementation did
// not survive distillation (only its prototype, tbessi.h, did); these are
// the standard polynomial approximations it would have implemented.

// BesselI0 evaluates the modified Bessel function of the first kind, order 0.
func BesselI0(x float64) float64 {
	ax := math.Abs(x)
	if ax < 3.75 {
		t := x / 3.75
		t2 := t * t
		return 1.0 + t2*(3.5156229+t2*(3.0899424+t2*(1.2067492+
			t2*(0.2659732+t2*(0.0360768+t2*0.0045813)))))
	}
	t := 3.75 / ax
	return (math.Exp(ax) / math.Sqrt(ax)) * (0.39894228 + t*(0.01328592+
		t*(0.00225319+t*(-0.00157565+t*(0.00916281+
			t*(-0.02057706+t*(0.02635537+t*(-0.01647633+t*0.00392377))))))))
}

// BesselI1 evaluates the modified Bessel function of the first kind, order 1.
func BesselI1(x float64) float64 {
	ax := math.Abs(x)
	var result float64
	if ax < 3.75 {
		t := x / 3.75
		t2 := t * t
		result = ax * (0.5 + t2*(0.87890594+t2*(0.51498869+t2*(0.15084934+
			t2*(0.02658733+t2*(0.00301532+t2*0.00032411))))))
	} else {
		t := 3.75 / ax
		poly := 0.39894228 + t*(-0.03988024+t*(-0.00362018+t*(0.00163801+
			t*(-0.01031555+t*(0.02282967+t*(-0.02895312+t*(0.01787654+t*-0.00420059)))))))
		result = (math.Exp(ax) / math.Sqrt(ax)) * poly
	}
	if x < 0 {
		return -result
	}
	return result
}
