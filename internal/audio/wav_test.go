package audio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriteThenOpenRoundTripsSamples(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.wav")

	w, err := Create(path, 44100, 2, Tags{Title: "out.wav", Comment: "Enhanced audio signal", Software: "sndenhance"})
	assert.NoError(t, err)

	samples := []float64{0.5, -0.5, 0.25, -0.25, 0, 0}
	assert.NoError(t, w.WriteInterleaved(samples, 3))
	assert.NoError(t, w.Close())

	f, err := Open(path)
	assert.NoError(t, err)
	assert.Equal(t, 44100, f.SampleRate)
	assert.Equal(t, 2, f.Channels)
	assert.Len(t, f.Samples, 6)
	for i, want := range samples {
		assert.InDelta(t, want, f.Samples[i], 1.0/pcmScale)
	}
}

func TestOpenRejectsNonRIFF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.wav")
	assert.NoError(t, os.WriteFile(path, []byte("not a wav file at all"), 0o644))

	_, err := Open(path)
	assert.Error(t, err)
}

func TestDownmixAveragesAllChannels(t *testing.T) {
	f := &File{SampleRate: 8000, Channels: 2, Samples: []float64{1, 3, 2, 4}}
	f.Downmix()
	assert.Equal(t, 1, f.Channels)
	assert.Equal(t, []float64{2, 3}, f.Samples)
}

func TestReaderStopsAtEndOfStream(t *testing.T) {
	f := &File{SampleRate: 8000, Channels: 1, Samples: []float64{1, 2, 3}}
	r := NewReader(f)

	buf := make([]float64, 2)
	n, err := r.ReadInterleaved(buf)
	assert.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = r.ReadInterleaved(buf)
	assert.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = r.ReadInterleaved(buf)
	assert.NoError(t, err)
	assert.Equal(t, 0, n)
}
