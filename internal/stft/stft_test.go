package stft

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vzahradnik/sndenhance/internal/enhance"
	"github.com/vzahradnik/sndenhance/internal/noiseest"
	"github.com/vzahradnik/sndenhance/internal/window"
)

func baseConfig() EngineConfig {
	return EngineConfig{
		FrameDurationMS: 20,
		FFTSize:         0,
		OverlapPct:      50,
		Window:          window.Hamming,
		NoiseEst:        noiseest.VAD,
		Enhancer:        enhance.SpecSub,
	}
}

func TestDeriveStreamParamsEvenWindowAndBoundedFFT(t *testing.T) {
	params, err := DeriveStreamParams(baseConfig(), 48000, 1)
	assert.NoError(t, err)
	assert.Equal(t, 0, params.WindowSize%2)
	assert.True(t, params.FFTSize <= maxFFTSize)
	assert.True(t, params.WindowSize <= params.FFTSize)
	assert.Equal(t, params.WindowSize-params.NOverlap, params.NSlide)
}

func TestDeriveStreamParamsShrinksFrameDurationWhenFFTTooLarge(t *testing.T) {
	cfg := baseConfig()
	cfg.FrameDurationMS = 30
	params, err := DeriveStreamParams(cfg, 96000, 1)
	assert.NoError(t, err)
	assert.True(t, params.FFTSize <= maxFFTSize)
}

func TestValidateRejectsOutOfRangeFrameDuration(t *testing.T) {
	cfg := baseConfig()
	cfg.FrameDurationMS = 5
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsOutOfRangeOverlap(t *testing.T) {
	cfg := baseConfig()
	cfg.OverlapPct = 100
	assert.Error(t, cfg.Validate())
}

// memorySource/memorySink let the driver tests run without a real audio
// container, exercising only the overlap-add bookkeeping.
type memorySource struct {
	sampleRate int
	channels   int
	data       []float64
	pos        int
}

func (s *memorySource) SampleRate() int { return s.sampleRate }
func (s *memorySource) Channels() int   { return s.channels }

func (s *memorySource) ReadInterleaved(buf []float64) (int, error) {
	want := len(buf) / s.channels
	avail := (len(s.data) - s.pos) / s.channels
	if avail <= 0 {
		return 0, nil
	}
	n := want
	if n > avail {
		n = avail
	}
	copy(buf, s.data[s.pos:s.pos+n*s.channels])
	s.pos += n * s.channels
	return n, nil
}

type memorySink struct {
	channels int
	out      []float64
}

func (s *memorySink) WriteInterleaved(buf []float64, frames int) error {
	s.out = append(s.out, buf[:frames*s.channels]...)
	return nil
}

func TestRunOnSilentStreamProducesSilentOutput(t *testing.T) {
	cfg := baseConfig()
	params, err := DeriveStreamParams(cfg, 16000, 1)
	assert.NoError(t, err)

	eng, err := NewEngine(cfg, params)
	assert.NoError(t, err)

	src := &memorySource{sampleRate: 16000, channels: 1, data: make([]float64, params.WindowSize*20)}
	sink := &memorySink{channels: 1}

	err = eng.Run(src, sink)
	assert.NoError(t, err)

	for _, v := range sink.out {
		assert.InDelta(t, 0.0, v, 1e-9)
	}
}

func TestRunOnEmptyStreamReturnsEmptyStreamError(t *testing.T) {
	cfg := baseConfig()
	params, err := DeriveStreamParams(cfg, 16000, 1)
	assert.NoError(t, err)

	eng, err := NewEngine(cfg, params)
	assert.NoError(t, err)

	src := &memorySource{sampleRate: 16000, channels: 1, data: nil}
	sink := &memorySink{channels: 1}

	err = eng.Run(src, sink)
	assert.Error(t, err)
}

func TestDownmixAveragesChannels(t *testing.T) {
	stereo := []float64{1, 3, 2, 4}
	mono := Downmix(stereo, 2)
	assert.Equal(t, []float64{2, 3}, mono)
}
