// Package stft implements the analysis/resynthesis driver: it derives
// streaming parameters from an EngineConfig and an audio source, allocates
// per-channel state, and runs the windowed overlap-add loop that dispatches
// each frame to a chosen Enhancer/NoiseEstimator pair.
package stft

import (
	"fmt"
	"math/bits"
	"strconv"

	"github.com/vzahradnik/sndenhance/internal/enhance"
	"github.com/vzahradnik/sndenhance/internal/kernels"
	"github.com/vzahradnik/sndenhance/internal/metrics"
	"github.com/vzahradnik/sndenhance/internal/noiseest"
	"github.com/vzahradnik/sndenhance/internal/sndenhance"
	"github.com/vzahradnik/sndenhance/internal/transform"
	"github.com/vzahradnik/sndenhance/internal/window"
)

const maxFFTSize = 2048

// EngineConfig is the user-facing, pre-validated configuration that drives
// one enhancement run. It is constructed once, before streaming begins.
type EngineConfig struct {
	FrameDurationMS int
	FFTSize         int // 0 means auto-derive (spec §4.6)
	OverlapPct      int
	Downmix         bool
	Window          window.Kind
	NoiseEst        noiseest.Kind
	Enhancer        enhance.Kind
	Verbose         bool
}

// Validate applies the InvalidConfig rules of spec §7.
func (c EngineConfig) Validate() error {
	if c.FrameDurationMS < 10 || c.FrameDurationMS > 30 {
		return fmt.Errorf("%w: frame duration %dms out of range [10,30]", sndenhance.ErrInvalidConfig, c.FrameDurationMS)
	}
	if c.FFTSize < 0 || c.FFTSize > maxFFTSize {
		return fmt.Errorf("%w: fft size %d out of range [0,2048]", sndenhance.ErrInvalidConfig, c.FFTSize)
	}
	if c.OverlapPct < 0 || c.OverlapPct > 99 {
		return fmt.Errorf("%w: overlap %d%% out of range [0,99]", sndenhance.ErrInvalidConfig, c.OverlapPct)
	}
	return nil
}

// StreamParams are the derived quantities that depend on both the
// EngineConfig and the audio container's sample rate.
type StreamParams struct {
	SampleRate   int
	ChannelCount int
	WindowSize   int
	FFTSize      int
	NOverlap     int
	NSlide       int
}

// DeriveStreamParams runs the parameter-derivation loop of spec §4.6: the
// window size follows directly from frame duration and sample rate, forced
// even; the fft size is the next power of two at least twice the window
// size, shrinking the frame duration by 1ms and retrying if that would
// exceed maxFFTSize.
func DeriveStreamParams(cfg EngineConfig, sampleRate, channelCount int) (StreamParams, error) {
	frameDur := cfg.FrameDurationMS
	for {
		windowSize := frameDur * sampleRate / 1000
		if windowSize%2 != 0 {
			windowSize++
		}

		fftSize := cfg.FFTSize
		if fftSize == 0 || fftSize > maxFFTSize {
			fftSize = nextPowerOfTwo(2 * windowSize)
		}

		if fftSize <= maxFFTSize {
			if windowSize > fftSize {
				return StreamParams{}, fmt.Errorf("%w: window size %d exceeds fft size %d", sndenhance.ErrInvalidConfig, windowSize, fftSize)
			}
			noverlap := windowSize * cfg.OverlapPct / 100
			return StreamParams{
				SampleRate:   sampleRate,
				ChannelCount: channelCount,
				WindowSize:   windowSize,
				FFTSize:      fftSize,
				NOverlap:     noverlap,
				NSlide:       windowSize - noverlap,
			}, nil
		}

		frameDur--
		if frameDur < 1 {
			return StreamParams{}, fmt.Errorf("%w: no frame duration yields fft size <= %d", sndenhance.ErrInvalidConfig, maxFFTSize)
		}
	}
}

func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

// Source is the minimal streaming contract the driver needs from an audio
// container: read a block of interleaved multi-channel samples, and write
// one back out. Implementations live in package audio.
type Source interface {
	SampleRate() int
	Channels() int
	// ReadInterleaved reads up to len(buf)/Channels() frames of interleaved
	// samples into buf, returning the number of frames actually read. A
	// return of 0 signals end of stream.
	ReadInterleaved(buf []float64) (framesRead int, err error)
}

// Sink is the output half of the streaming contract.
type Sink interface {
	WriteInterleaved(buf []float64, frames int) error
}

// channelState bundles the per-channel memory the driver must never share
// across channels (spec §9).
type channelState struct {
	estimator  noiseest.Estimator
	enhancer   enhance.Enhancer
	overlapBuf []float64
}

// Engine owns the shared, read-only-across-frames machinery (FFT plans,
// window coefficients) plus the per-channel state slice.
type Engine struct {
	params     StreamParams
	winCoeffs  []float64
	winGain    float64
	plan       *transform.Plan
	channels   []channelState
	enhKind    enhance.Kind
	noiseKind  noiseest.Kind

	FramesProcessed int

	// Metrics is an optional Prometheus sink; a nil Metrics is a safe
	// no-op, so callers that don't need metrics (the batch CLI) can
	// leave it unset.
	Metrics *metrics.Metrics
}

// NewEngine builds the window coefficients, the FFT plan and each channel's
// estimator, enhancer and overlap buffer; Run allocates its own read, write
// and frame buffers.
func NewEngine(cfg EngineConfig, params StreamParams) (*Engine, error) {
	coeffs, gain := window.Coefficients(cfg.Window, params.WindowSize)
	if gain <= 0 {
		return nil, fmt.Errorf("%w: window gain must be positive", sndenhance.ErrAllocFailure)
	}

	channels := make([]channelState, params.ChannelCount)
	for c := range channels {
		channels[c] = channelState{
			estimator:  noiseest.New(cfg.NoiseEst),
			enhancer:   enhance.New(cfg.Enhancer),
			overlapBuf: make([]float64, params.NSlide),
		}
	}

	return &Engine{
		params:    params,
		winCoeffs: coeffs,
		winGain:   gain,
		plan:      transform.NewPlan(params.FFTSize),
		channels:  channels,
		enhKind:   cfg.Enhancer,
		noiseKind: cfg.NoiseEst,
	}, nil
}

// Run executes the full overlap-add loop of spec §4.6 against src, writing
// enhanced frames to dst, until src signals end of stream.
func (e *Engine) Run(src Source, dst Sink) error {
	ch := e.params.ChannelCount
	ws := e.params.WindowSize
	no := e.params.NOverlap
	ns := e.params.NSlide

	multi := make([]float64, ws*ch)
	prevMulti := make([]float64, no*ch)
	out := make([]float64, ns*ch)
	frame := transform.NewFrame(e.params.FFTSize)

	first := true
	for {
		var framesRead int
		var err error

		if first {
			framesRead, err = src.ReadInterleaved(multi)
			if err != nil {
				return fmt.Errorf("%w: %v", sndenhance.ErrIoRead, err)
			}
			if framesRead == 0 {
				return fmt.Errorf("%w", sndenhance.ErrEmptyStream)
			}
			if framesRead < ws {
				zeroTail(multi, framesRead*ch)
			}
		} else {
			copy(multi[:no*ch], prevMulti)
			framesRead, err = src.ReadInterleaved(multi[no*ch:])
			if err != nil {
				return fmt.Errorf("%w: %v", sndenhance.ErrIoRead, err)
			}
			if framesRead == 0 {
				return nil
			}
			if framesRead < ns {
				zeroTail(multi[no*ch:], framesRead*ch)
			}
		}

		copy(prevMulti, multi[len(multi)-no*ch:])

		for c := 0; c < ch; c++ {
			extractChannel(multi, frame, c, ch, ws)
			kernels.MultiplyArrays(frame[:ws], frame[:ws], e.winCoeffs)
			zeroFromTo(frame, ws, e.params.FFTSize)

			st := &e.channels[c]
			snr := st.enhancer.Enhance(frame, e.plan, st.estimator, ws, e.params.SampleRate)
			e.Metrics.RecordSegmentalSNR(strconv.Itoa(c), snr)

			winGainNorm := float64(ns) / e.winGain
			fftSize := float64(e.params.FFTSize)
			for i := 0; i < ns; i++ {
				out[i*ch+c] = winGainNorm * (frame[i]/fftSize + st.overlapBuf[i])
			}
			for i := 0; i < ns; i++ {
				st.overlapBuf[i] = frame[i+no] / fftSize
			}
		}

		if err := dst.WriteInterleaved(out, ns); err != nil {
			return fmt.Errorf("%w: %v", sndenhance.ErrIoWrite, err)
		}

		e.FramesProcessed++
		first = false
	}
}

func zeroTail(buf []float64, from int) {
	for i := from; i < len(buf); i++ {
		buf[i] = 0
	}
}

func zeroFromTo(f transform.Frame, from, to int) {
	for i := from; i < to; i++ {
		f[i] = 0
	}
}

func extractChannel(multi []float64, frame transform.Frame, c, channels, windowSize int) {
	for i := 0; i < windowSize; i++ {
		frame[i] = multi[i*channels+c]
	}
}

// Downmix averages an interleaved multi-channel buffer down to mono,
// returning a newly allocated mono buffer; multi is left unchanged.
func Downmix(multi []float64, channels int) []float64 {
	frames := len(multi) / channels
	mono := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += multi[i*channels+c]
		}
		mono[i] = kernels.Sanitize(sum / float64(channels))
	}
	return mono
}
