// Package enhance implements the five spectral-domain suppression
// algorithms the STFT driver can select: spectral subtraction, MMSE-STSA
// with speech-presence uncertainty, decision-directed a priori Wiener,
// iterative LPC-based Wiener, and a residual-noise diagnostic mode.
//
// Every Enhancer holds its own cross-frame memory; the driver constructs
// one instance per channel (spec §9 — the original toolkit's function-local
// statics conflated channel state, which this module's per-instance fields
// deliberately avoid).
package enhance

import (
	"math"

	"github.com/vzahradnik/sndenhance/internal/kernels"
	"github.com/vzahradnik/sndenhance/internal/lpc"
	"github.com/vzahradnik/sndenhance/internal/noiseest"
	"github.com/vzahradnik/sndenhance/internal/transform"
)

// Kind identifies one of the supported suppression algorithms.
type Kind int

const (
	SpecSub Kind = iota
	MMSE
	WienerAS
	WienerIter
	Residual
)

// Parse maps a CLI/config enhancer name to a Kind, defaulting to SpecSub.
func Parse(name string) Kind {
	switch name {
	case "specsub":
		return SpecSub
	case "mmse":
		return MMSE
	case "wiener-as":
		return WienerAS
	case "wiener-iter":
		return WienerIter
	case "residual":
		return Residual
	default:
		return SpecSub
	}
}

func (k Kind) Name() string {
	switch k {
	case SpecSub:
		return "Spectral subtraction algorithm (default)"
	case MMSE:
		return "Minimum Mean Square Error [MMSE]"
	case WienerAS:
		return "Wiener filter with a priori SNR estimation"
	case WienerIter:
		return "Iterative Wiener filter"
	case Residual:
		return "Residual noise output"
	default:
		return "Spectral subtraction algorithm (default)"
	}
}

// Enhancer is the per-frame contract every suppressor implements: an
// in-place time-domain-in, time-domain-out transform of frame, driven by
// the shared Plan and the channel's own NoiseEstimator. It returns the
// frame's segmental SNR in dB (spec §4.5 step 5) so the driver can report
// it upstream.
type Enhancer interface {
	Enhance(frame transform.Frame, plan *transform.Plan, est noiseest.Estimator, datalen, sampleRate int) float64
}

// New constructs a fresh, zero-state Enhancer of the given kind.
func New(k Kind) Enhancer {
	switch k {
	case MMSE:
		return &mmseEnhancer{}
	case WienerAS:
		return &wienerASEnhancer{}
	case WienerIter:
		return &wienerIterEnhancer{}
	case Residual:
		return &residualEnhancer{}
	default:
		return &specSubEnhancer{}
	}
}

// snrSeg computes the segmental SNR in dB from the signal and noise power
// sums (spec §4.5 step 5).
func snrSeg(normSignal, normNoise float64) float64 {
	return 10 * math.Log10(kernels.Sanitize(normSignal/normNoise))
}

// analyze runs the shared prefix of the per-frame contract (steps 1-5):
// forward FFT, magnitude/phase extraction, power spectrum, and noise
// estimation. It returns the power spectrum (renamed "mag" becomes the
// power spectrum in place, per spec §4.5 step 3) and phase, the noise
// power spectrum and its sum, and the resulting segmental SNR.
func analyze(frame transform.Frame, plan *transform.Plan, est noiseest.Estimator, prevSNRSeg float64, sampleRate int) (power, phase, noisePS []float64, noiseSum, snr float64) {
	fftSize := plan.Size()
	half := fftSize/2 + 1

	plan.Forward(frame)

	power = make([]float64, half)
	phase = make([]float64, half)
	kernels.Magnitude(frame, fftSize, power)
	kernels.Phase(frame, fftSize, phase)
	normPS := kernels.PowerSpectrum(power, fftSize)

	noisePS, noiseSum = est.Estimate(power, fftSize, prevSNRSeg, sampleRate)
	snr = snrSeg(normPS, noiseSum)
	return
}

// --- Spectral subtraction -------------------------------------------------

const specSubFloor = 0.002

type specSubEnhancer struct {
	prevSNRSeg float64
}

func berouti(snr float64) float64 {
	switch {
	case snr < -5:
		return 5.0
	case snr > 20:
		return 1.0
	default:
		return 4 - snr*3/20
	}
}

func (e *specSubEnhancer) Enhance(frame transform.Frame, plan *transform.Plan, est noiseest.Estimator, datalen, sampleRate int) float64 {
	power, phase, noisePS, _, snr := analyze(frame, plan, est, e.prevSNRSeg, sampleRate)
	e.prevSNRSeg = snr

	beta := berouti(snr)
	for k := range power {
		p := power[k] - beta*noisePS[k]
		if p-specSubFloor*noisePS[k] < 0 {
			p = specSubFloor * noisePS[k]
		}
		power[k] = math.Sqrt(p)
	}

	kernels.Reconstruct(power, phase, plan.Size(), frame)
	plan.Backward(frame)
	return snr
}

// --- MMSE-STSA -------------------------------------------------------------

const (
	mmseAA     = 0.98
	mmseQk     = 0.3
	mmseKsiMin = 0.00316227766016838 // 10^-2.5
)

type mmseEnhancer struct {
	prevSNRSeg float64
	xkPrev     []float64
	calls      int
}

func (e *mmseEnhancer) Enhance(frame transform.Frame, plan *transform.Plan, est noiseest.Estimator, datalen, sampleRate int) float64 {
	power, phase, noisePS, _, snr := analyze(frame, plan, est, e.prevSNRSeg, sampleRate)
	e.prevSNRSeg = snr

	qkr := (1 - mmseQk) / mmseQk
	sqrtPiOver2 := math.Sqrt(math.Pi) / 2

	if len(e.xkPrev) != len(power) {
		e.xkPrev = make([]float64, len(power))
	}

	for k := range power {
		gammaK := kernels.Sanitize(power[k] / noisePS[k])
		if gammaK > 40 {
			gammaK = 40
		}
		m := math.Max(gammaK-1, 0)

		var ksi float64
		if e.calls == 0 {
			ksi = mmseAA + (1-mmseAA)*m
		} else {
			ksi = kernels.Sanitize(mmseAA*e.xkPrev[k]/noisePS[k]) + (1-mmseAA)*m
			if ksi < mmseKsiMin {
				ksi = mmseKsiMin
			}
		}

		v := ksi * gammaK / (1 + ksi)
		i0 := kernels.BesselI0(v / 2)
		i1 := kernels.BesselI1(v / 2)

		hw := ((sqrtPiOver2 * math.Sqrt(v) * math.Exp(-v/2)) / gammaK) * ((1+v)*i0 + v*i1)

		lambda := qkr * math.Exp(v) / (1 + ksi)
		pSAP := lambda / (1 + lambda)

		mag := math.Sqrt(power[k]) * hw * pSAP
		power[k] = mag
		e.xkPrev[k] = mag * mag
	}
	e.calls++

	kernels.Reconstruct(power, phase, plan.Size(), frame)
	plan.Backward(frame)
	return snr
}

// --- Decision-directed a priori Wiener ------------------------------------

const wienerASDD = 0.98

type wienerASEnhancer struct {
	prevSNRSeg  float64
	gPrev       []float64
	posteriPrev []float64
	calls       int
}

func (e *wienerASEnhancer) Enhance(frame transform.Frame, plan *transform.Plan, est noiseest.Estimator, datalen, sampleRate int) float64 {
	power, _, noisePS, _, snr := analyze(frame, plan, est, e.prevSNRSeg, sampleRate)
	e.prevSNRSeg = snr

	if len(e.gPrev) != len(power) {
		e.gPrev = make([]float64, len(power))
		e.posteriPrev = make([]float64, len(power))
	}

	gain := make([]float64, len(power))
	posteri := make([]float64, len(power))

	for k := range power {
		posteri[k] = kernels.Sanitize(power[k] / noisePS[k])
		posterPrime := math.Max(posteri[k]-1, 0)

		var priori float64
		if e.calls == 0 {
			priori = wienerASDD + (1-wienerASDD)*posterPrime
		} else {
			priori = wienerASDD*e.gPrev[k]*e.gPrev[k]*e.posteriPrev[k] + (1-wienerASDD)*posterPrime
		}

		gain[k] = math.Sqrt(priori / (1 + priori))
	}

	kernels.MultiplyGain(frame, plan.Size(), gain)
	plan.Backward(frame)

	copy(e.gPrev, gain)
	copy(e.posteriPrev, posteri)
	e.calls++
	return snr
}

// --- Iterative LPC-based Wiener -------------------------------------------

const (
	wienerIterOrder  = 12
	wienerIterRounds = 3
	wienerIterMinE   = 1e-16
)

type wienerIterEnhancer struct {
	prevSNRSeg float64
}

func (e *wienerIterEnhancer) Enhance(frame transform.Frame, plan *transform.Plan, est noiseest.Estimator, datalen, sampleRate int) float64 {
	fftSize := plan.Size()
	half := fftSize/2 + 1

	coeffs := lpc.FromData(frame, datalen, wienerIterOrder)

	power, _, noisePS, _, snr := analyze(frame, plan, est, e.prevSNRSeg, sampleRate)
	e.prevSNRSeg = snr

	xx := make([]float64, half)
	h := make([]float64, half)

	for round := 0; round < wienerIterRounds; round++ {
		var lpcEnergy, meanTmp float64
		for i := 0; i < half; i++ {
			reAcc, imAcc := 1.0, 0.0
			for j := 1; j <= wienerIterOrder; j++ {
				theta := float64(j) * float64(i) * 2 * math.Pi / float64(fftSize)
				reAcc += math.Cos(theta) * coeffs[j-1]
				imAcc += math.Sin(theta) * coeffs[j-1]
			}
			mag := math.Hypot(reAcc, imAcc)
			xx[i] = 1.0 / (mag * mag)
			lpcEnergy += xx[i]
			meanTmp += power[i] - noisePS[i]
		}

		g := kernels.Sanitize(meanTmp / lpcEnergy)
		if g < wienerIterMinE {
			g = wienerIterMinE
		}

		for i := 0; i < half; i++ {
			h[i] = (g * xx[i]) / (g*xx[i] + noisePS[i])
		}

		kernels.MultiplyGain(frame, fftSize, h)
		plan.Backward(frame)

		if round < wienerIterRounds-1 {
			for i := 0; i < fftSize; i++ {
				if i < datalen {
					frame[i] /= float64(fftSize)
				} else {
					frame[i] = 0
				}
			}
			coeffs = lpc.FromData(frame, fftSize, wienerIterOrder)
			plan.Forward(frame)
			kernels.Magnitude(frame, fftSize, power)
			kernels.PowerSpectrum(power, fftSize)
		}
	}
	return snr
}

// --- Residual noise output -------------------------------------------------

type residualEnhancer struct {
	prevSNRSeg float64
}

func (e *residualEnhancer) Enhance(frame transform.Frame, plan *transform.Plan, est noiseest.Estimator, datalen, sampleRate int) float64 {
	_, phase, noisePS, _, snr := analyze(frame, plan, est, e.prevSNRSeg, sampleRate)
	e.prevSNRSeg = snr

	mag := make([]float64, len(noisePS))
	for k, v := range noisePS {
		mag[k] = math.Sqrt(v)
	}

	kernels.Reconstruct(mag, phase, plan.Size(), frame)
	plan.Backward(frame)
	return snr
}
