// Package transform binds the half-complex Frame layout spec.md §4.1
// describes to gonum's real-input FFT, so every other package in this
// module only ever sees the packed real array, not a complex128 type.
package transform

import "gonum.org/v1/gonum/dsp/fourier"

// Frame is fftSize reals holding a signal in either the time domain or, in
// place, the half-complex frequency domain:
//
//	index 0            -> DC real part
//	indices 1..N/2      -> real parts
//	index N/2 (if even) -> Nyquist real part
//	indices N/2+1..N-1  -> imaginary parts, mirrored: index k <-> index N-k
type Frame []float64

// NewFrame allocates a zeroed Frame of length fftSize.
func NewFrame(fftSize int) Frame {
	return make(Frame, fftSize)
}

// Plan holds the forward/backward FFT machinery for one fftSize, shared
// read-only across all frames and channels (spec §5).
type Plan struct {
	fftSize int
	fft     *fourier.FFT
	coeffs  []complex128
}

// NewPlan constructs the FFT machinery for fftSize, which must be the size
// every Frame processed through this Plan will have.
func NewPlan(fftSize int) *Plan {
	return &Plan{
		fftSize: fftSize,
		fft:     fourier.NewFFT(fftSize),
		coeffs:  make([]complex128, fftSize/2+1),
	}
}

// Size reports the fftSize this plan was built for.
func (p *Plan) Size() int { return p.fftSize }

// Forward transforms f in place from the time domain to the half-complex
// frequency domain. The transform is unnormalized.
func (p *Plan) Forward(f Frame) {
	p.fft.Coefficients(p.coeffs, []float64(f))
	packHalfComplex(f, p.coeffs, p.fftSize)
}

// Backward transforms f in place from the half-complex frequency domain
// back to the time domain. fft.Sequence is itself the unnormalized
// inverse (a Coefficients/Sequence round trip multiplies the input by
// fftSize), which is the single factor-of-fftSize overscaling spec §4.6
// describes; callers divide that factor out during overlap-add.
func (p *Plan) Backward(f Frame) {
	unpackHalfComplex(f, p.coeffs, p.fftSize)
	out := p.fft.Sequence(nil, p.coeffs)
	copy(f, out)
}

// packHalfComplex converts gonum's []complex128 coefficients (length
// fftSize/2+1) into the packed half-complex real layout Frame uses.
func packHalfComplex(f Frame, coeffs []complex128, fftSize int) {
	half := fftSize / 2
	f[0] = real(coeffs[0])
	even := fftSize%2 == 0
	if even {
		f[half] = real(coeffs[half])
	}
	upper := half
	if even {
		upper = half - 1
	}
	for k := 1; k <= upper; k++ {
		f[k] = real(coeffs[k])
		f[fftSize-k] = imag(coeffs[k])
	}
}

// unpackHalfComplex is the inverse of packHalfComplex: it reconstructs the
// gonum coefficient slice from the packed real layout so Plan.Backward can
// hand it to fourier.FFT.Sequence.
func unpackHalfComplex(f Frame, coeffs []complex128, fftSize int) {
	half := fftSize / 2
	coeffs[0] = complex(f[0], 0)
	even := fftSize%2 == 0
	if even {
		coeffs[half] = complex(f[half], 0)
	}
	upper := half
	if even {
		upper = half - 1
	}
	for k := 1; k <= upper; k++ {
		coeffs[k] = complex(f[k], f[fftSize-k])
	}
}
