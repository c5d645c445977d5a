package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vzahradnik/sndenhance/internal/audio"
)

func writeTestWAV(t *testing.T, path string, sampleRate, channels, frames int) {
	t.Helper()
	w, err := audio.Create(path, sampleRate, channels, audio.Tags{})
	assert.NoError(t, err)

	samples := make([]float64, frames*channels)
	for i := range samples {
		samples[i] = 0.1
	}
	assert.NoError(t, w.WriteInterleaved(samples, frames))
	assert.NoError(t, w.Close())
}

func TestRunEnhancesAFileEndToEnd(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.wav")
	out := filepath.Join(dir, "out.wav")
	writeTestWAV(t, in, 16000, 1, 16000)

	code := run([]string{"--input", in, "--output", out, "--snd-enhance", "specsub", "--noise-est", "vad"})
	assert.Equal(t, 0, code)

	f, err := audio.Open(out)
	assert.NoError(t, err)
	assert.Equal(t, 16000, f.SampleRate)
	assert.NotEmpty(t, f.Samples)
}

func TestRunRejectsMissingInput(t *testing.T) {
	code := run([]string{})
	assert.Equal(t, 1, code)
}

func TestRunRejectsEqualInputOutput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "same.wav")
	writeTestWAV(t, in, 8000, 1, 8000)

	code := run([]string{"--input", in, "--output", in})
	assert.Equal(t, 1, code)
}

func TestRunHonorsConfigFileOverriddenByFlag(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.wav")
	out := filepath.Join(dir, "out.wav")
	writeTestWAV(t, in, 16000, 1, 16000)

	cfgPath := filepath.Join(dir, "sndenhance.conf")
	assert.NoError(t, os.WriteFile(cfgPath, []byte("window blackman\n"), 0o644))

	code := run([]string{"--config", cfgPath, "--input", in, "--output", out, "--window", "hamming"})
	assert.Equal(t, 0, code)
}
