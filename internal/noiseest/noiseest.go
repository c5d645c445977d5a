// Package noiseest implements the five noise-power-spectrum estimators the
// STFT driver can pair with a suppressor. Each estimator owns its own
// per-stream state (see spec §9: the original toolkit conflated channel
// state through file-scope statics; this module gives each channel its own
// instance instead).
package noiseest

import "github.com/vzahradnik/sndenhance/internal/kernels"

// Kind identifies one of the supported noise estimators.
type Kind int

const (
	VAD Kind = iota
	Hirsch
	Doblinger
	MCRA
	MCRA2
)

// Parse maps a CLI/config estimator name to a Kind, defaulting to VAD.
func Parse(name string) Kind {
	switch name {
	case "vad":
		return VAD
	case "hirsch":
		return Hirsch
	case "doblinger":
		return Doblinger
	case "mcra":
		return MCRA
	case "mcra2":
		return MCRA2
	default:
		return VAD
	}
}

func (k Kind) Name() string {
	switch k {
	case VAD:
		return "Simple VAD noise estimation (default)"
	case Hirsch:
		return "Hirsch noise estimation"
	case Doblinger:
		return "Doblinger noise estimation"
	case MCRA:
		return "Minimum Controlled Recursive Averaging [MCRA]"
	case MCRA2:
		return "Minimum Controlled Recursive Averaging 2 [MCRA2]"
	default:
		return "Simple VAD noise estimation (default)"
	}
}

// Estimator is the per-frame contract every noise estimator implements. It
// carries its own cross-frame state; callers must construct one instance
// per channel.
type Estimator interface {
	// Estimate consumes the current frame's signal power spectrum
	// (length fftSize/2+1) and the previous frame's segmental SNR in dB,
	// and returns the estimator's current noise power spectrum plus its
	// sum.
	Estimate(signalPower []float64, fftSize int, prevSNRSeg float64, sampleRate int) (noisePS []float64, sum float64)
}

// New constructs a fresh, zero-state Estimator of the given kind.
func New(k Kind) Estimator {
	switch k {
	case Hirsch:
		return &hirschEstimator{}
	case Doblinger:
		return &doblingerEstimator{}
	case MCRA:
		return &mcraEstimator{}
	case MCRA2:
		return &mcra2Estimator{}
	default:
		return &vadEstimator{}
	}
}

func sumOf(x []float64) float64 {
	var s float64
	for _, v := range x {
		s += v
	}
	return s
}

func ensureLen(s *[]float64, n int) {
	if len(*s) != n {
		*s = make([]float64, n)
	}
}

// --- VAD ---------------------------------------------------------------

const (
	vadNFAbs = 6
	vadThres = 3.0
	vadGain  = 0.9
)

type vadEstimator struct {
	noisePS []float64
	frame   int
}

func (e *vadEstimator) Estimate(signalPower []float64, fftSize int, prevSNRSeg float64, sampleRate int) ([]float64, float64) {
	half := fftSize/2 + 1
	ensureLen(&e.noisePS, half)

	if e.frame < vadNFAbs {
		for k := 0; k < half; k++ {
			e.noisePS[k] += signalPower[k] / vadNFAbs
		}
	} else if prevSNRSeg < vadThres {
		for k := 0; k < half; k++ {
			e.noisePS[k] = vadGain*e.noisePS[k] + (1-vadGain)*signalPower[k]
		}
	}
	e.frame++

	out := append([]float64(nil), e.noisePS...)
	return out, sumOf(out)
}

// --- Hirsch --------------------------------------------------------------

const (
	hirschAlphaS = 0.85
	hirschBeta   = 1.5
)

type hirschEstimator struct {
	p           []float64
	noisePS     []float64
	initialized bool
}

func (e *hirschEstimator) Estimate(signalPower []float64, fftSize int, prevSNRSeg float64, sampleRate int) ([]float64, float64) {
	half := fftSize/2 + 1
	ensureLen(&e.p, half)
	ensureLen(&e.noisePS, half)

	if !e.initialized {
		copy(e.p, signalPower)
		copy(e.noisePS, signalPower)
		e.initialized = true
	} else {
		for k := 0; k < half; k++ {
			e.p[k] = hirschAlphaS*e.p[k] + (1-hirschAlphaS)*signalPower[k]
			if e.p[k] < hirschBeta*e.noisePS[k] {
				e.noisePS[k] = hirschAlphaS*e.noisePS[k] + (1-hirschAlphaS)*e.p[k]
			}
		}
	}

	out := append([]float64(nil), e.noisePS...)
	return out, sumOf(out)
}

// --- Doblinger -----------------------------------------------------------

const (
	doblingerAlpha = 0.7
	doblingerBeta  = 0.96
	doblingerGamma = 0.998
)

type doblingerEstimator struct {
	pxk         []float64
	pnk         []float64
	initialized bool
}

func (e *doblingerEstimator) Estimate(signalPower []float64, fftSize int, prevSNRSeg float64, sampleRate int) ([]float64, float64) {
	half := fftSize/2 + 1
	ensureLen(&e.pxk, half)
	ensureLen(&e.pnk, half)

	if !e.initialized {
		copy(e.pxk, signalPower)
		copy(e.pnk, signalPower)
		e.initialized = true
	} else {
		prevPxk := append([]float64(nil), e.pxk...)
		for k := 0; k < half; k++ {
			e.pxk[k] = doblingerAlpha*e.pxk[k] + (1-doblingerAlpha)*signalPower[k]
			if e.pnk[k] <= e.pxk[k] {
				e.pnk[k] = doblingerGamma*e.pnk[k] +
					((1-doblingerGamma)/(1-doblingerBeta))*(e.pxk[k]-doblingerBeta*prevPxk[k])
			} else {
				e.pnk[k] = e.pxk[k]
			}
		}
	}

	out := append([]float64(nil), e.pnk...)
	return out, sumOf(out)
}

// --- MCRA ------------------------------------------------------------

const (
	mcraAlphaD = 0.95
	mcraAlphaS = 0.8
	mcraAlphaP = 0.2
	mcraL      = 100
	mcraDelta  = 5.0
)

type mcraEstimator struct {
	p           []float64 // smoothed periodogram
	pMin        []float64
	pTmp        []float64
	prob        []float64 // per-bin speech-presence probability
	noisePS     []float64
	frame       int
	initialized bool
}

func (e *mcraEstimator) Estimate(signalPower []float64, fftSize int, prevSNRSeg float64, sampleRate int) ([]float64, float64) {
	half := fftSize/2 + 1
	ensureLen(&e.p, half)
	ensureLen(&e.pMin, half)
	ensureLen(&e.pTmp, half)
	ensureLen(&e.prob, half)
	ensureLen(&e.noisePS, half)

	if !e.initialized {
		copy(e.p, signalPower)
		copy(e.pMin, signalPower)
		copy(e.pTmp, signalPower)
		copy(e.noisePS, signalPower)
		e.initialized = true
	} else {
		for k := 0; k < half; k++ {
			e.p[k] = mcraAlphaS*e.p[k] + (1-mcraAlphaS)*signalPower[k]
		}

		rotate := e.frame%mcraL == 0
		for k := 0; k < half; k++ {
			if rotate {
				e.pMin[k] = min(e.pTmp[k], e.p[k])
				e.pTmp[k] = e.p[k]
			} else {
				e.pMin[k] = min(e.pMin[k], e.p[k])
				e.pTmp[k] = min(e.pTmp[k], e.p[k])
			}

			sr := kernels.Sanitize(e.p[k] / e.pMin[k])
			indicator := 0.0
			if sr > mcraDelta {
				indicator = 1.0
			}
			e.prob[k] = mcraAlphaP*e.prob[k] + (1-mcraAlphaP)*indicator

			alphaTilde := mcraAlphaD + (1-mcraAlphaD)*e.prob[k]
			e.noisePS[k] = alphaTilde*e.noisePS[k] + (1-alphaTilde)*signalPower[k]
		}
	}
	e.frame++

	out := append([]float64(nil), e.noisePS...)
	return out, sumOf(out)
}

// --- MCRA2 -----------------------------------------------------------

const (
	mcra2AlphaD = 0.95
	mcra2AlphaP = 0.2
	mcra2Alpha  = 0.7
	mcra2Beta   = 0.8
	mcra2Gamma  = 0.998
)

type mcra2Estimator struct {
	s           []float64 // smoothed periodogram
	sMin        []float64
	prob        []float64
	noisePS     []float64
	initialized bool
}

// binIndex converts a frequency in Hz to an fftSize bin index, computed as
// floor(freqHz*fftSize/sampleRate) rather than the original's
// (sampleRate/fftSize)-then-divide formulation, which integer-truncates to
// zero whenever fftSize exceeds sampleRate (spec §9 open question).
func binIndex(freqHz float64, fftSize, sampleRate int) int {
	if sampleRate <= 0 {
		return 0
	}
	return int(freqHz * float64(fftSize) / float64(sampleRate))
}

func mcra2Delta(bin, bin1kHz, bin3kHz int) float64 {
	switch {
	case bin < bin1kHz:
		return 2.0
	case bin < bin3kHz:
		return 2.0
	default:
		return 5.0
	}
}

func (e *mcra2Estimator) Estimate(signalPower []float64, fftSize int, prevSNRSeg float64, sampleRate int) ([]float64, float64) {
	half := fftSize/2 + 1
	ensureLen(&e.s, half)
	ensureLen(&e.sMin, half)
	ensureLen(&e.prob, half)
	ensureLen(&e.noisePS, half)

	bin1kHz := binIndex(1000, fftSize, sampleRate)
	bin3kHz := binIndex(3000, fftSize, sampleRate)

	if !e.initialized {
		copy(e.s, signalPower)
		copy(e.sMin, signalPower)
		copy(e.noisePS, signalPower)
		e.initialized = true
	} else {
		prevS := append([]float64(nil), e.s...)
		for k := 0; k < half; k++ {
			e.s[k] = mcra2Alpha*e.s[k] + (1-mcra2Alpha)*signalPower[k]
			if e.sMin[k] <= e.s[k] {
				e.sMin[k] = mcra2Gamma*e.sMin[k] +
					((1-mcra2Gamma)/(1-mcra2Beta))*(e.s[k]-mcra2Beta*prevS[k])
			} else {
				e.sMin[k] = e.s[k]
			}

			sr := kernels.Sanitize(e.s[k] / e.sMin[k])
			indicator := 0.0
			if sr > mcra2Delta(k, bin1kHz, bin3kHz) {
				indicator = 1.0
			}
			e.prob[k] = mcra2AlphaP*e.prob[k] + (1-mcra2AlphaP)*indicator

			alphaTilde := mcra2AlphaD + (1-mcra2AlphaD)*e.prob[k]
			e.noisePS[k] = alphaTilde*e.noisePS[k] + (1-alphaTilde)*signalPower[k]
		}
	}

	out := append([]float64(nil), e.noisePS...)
	return out, sumOf(out)
}
