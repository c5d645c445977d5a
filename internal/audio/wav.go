// Package audio implements the sound-file container boundary: reading and
// writing PCM WAV files as interleaved float64 samples, generalized from
// the teacher's mono/stereo-only reader to arbitrary channel counts, and
// tagging output files with the LIST/INFO metadata spec §6 requires.
package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/vzahradnik/sndenhance/internal/sndenhance"
)

const (
	bitsPerSample = 16
	pcmScale      = 32767.0
)

// Tags are the LIST/INFO fields spec §6 requires on the output container.
type Tags struct {
	Title    string
	Comment  string
	Software string
}

// File is a fully-decoded PCM WAV file: sample rate, channel count, and
// interleaved float64 samples in [-1, 1].
type File struct {
	SampleRate int
	Channels   int
	Samples    []float64 // interleaved, len = frameCount*Channels
}

// Open reads path as 16-bit PCM WAV, returning every sample as float64.
func Open(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sndenhance.ErrIoOpen, err)
	}
	return parseWAV(raw)
}

func parseWAV(raw []byte) (*File, error) {
	if len(raw) < 12 || string(raw[0:4]) != "RIFF" || string(raw[8:12]) != "WAVE" {
		return nil, fmt.Errorf("%w: not a RIFF/WAVE file", sndenhance.ErrIoRead)
	}

	var (
		sampleRate    int
		channels      int
		bits          int
		data          []byte
		sawFmt        bool
		sawData       bool
	)

	pos := 12
	for pos+8 <= len(raw) {
		id := string(raw[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(raw[pos+4 : pos+8]))
		body := pos + 8
		if body+size > len(raw) {
			size = len(raw) - body
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, fmt.Errorf("%w: truncated fmt chunk", sndenhance.ErrIoRead)
			}
			channels = int(binary.LittleEndian.Uint16(raw[body+2 : body+4]))
			sampleRate = int(binary.LittleEndian.Uint32(raw[body+4 : body+8]))
			bits = int(binary.LittleEndian.Uint16(raw[body+14 : body+16]))
			sawFmt = true
		case "data":
			data = raw[body : body+size]
			sawData = true
		}

		pos = body + size
		if size%2 == 1 {
			pos++
		}
	}

	if !sawFmt || !sawData {
		return nil, fmt.Errorf("%w: missing fmt or data chunk", sndenhance.ErrIoRead)
	}
	if bits != bitsPerSample {
		return nil, fmt.Errorf("%w: unsupported bit depth %d", sndenhance.ErrIoRead, bits)
	}
	if channels < 1 {
		return nil, fmt.Errorf("%w: invalid channel count %d", sndenhance.ErrIoRead, channels)
	}

	n := len(data) / 2
	samples := make([]float64, n)
	for i := 0; i < n; i++ {
		v := int16(binary.LittleEndian.Uint16(data[i*2 : i*2+2]))
		samples[i] = float64(v) / (pcmScale + 1)
	}

	return &File{SampleRate: sampleRate, Channels: channels, Samples: samples}, nil
}

// Downmix averages every channel of f down to mono in place.
func (f *File) Downmix() {
	if f.Channels == 1 {
		return
	}
	frames := len(f.Samples) / f.Channels
	mono := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < f.Channels; c++ {
			sum += f.Samples[i*f.Channels+c]
		}
		mono[i] = sum / float64(f.Channels)
	}
	f.Samples = mono
	f.Channels = 1
}

// Reader adapts a File to the stft.Source streaming contract.
type Reader struct {
	file *File
	pos  int
}

// NewReader wraps f for streaming reads.
func NewReader(f *File) *Reader { return &Reader{file: f} }

func (r *Reader) SampleRate() int { return r.file.SampleRate }
func (r *Reader) Channels() int   { return r.file.Channels }

// ReadInterleaved implements stft.Source.
func (r *Reader) ReadInterleaved(buf []float64) (int, error) {
	ch := r.file.Channels
	want := len(buf) / ch
	avail := (len(r.file.Samples) - r.pos) / ch
	if avail <= 0 {
		return 0, nil
	}
	n := want
	if n > avail {
		n = avail
	}
	copy(buf, r.file.Samples[r.pos:r.pos+n*ch])
	r.pos += n * ch
	return n, nil
}

// Writer adapts an in-memory sample buffer to the stft.Sink streaming
// contract, flushing a tagged WAV file on Close.
type Writer struct {
	path       string
	sampleRate int
	channels   int
	tags       Tags
	samples    []float64
}

// Create opens path for writing channels-channel PCM audio at sampleRate,
// tagged with tags.
func Create(path string, sampleRate, channels int, tags Tags) (*Writer, error) {
	if channels < 1 {
		return nil, fmt.Errorf("%w: invalid channel count %d", sndenhance.ErrInvalidConfig, channels)
	}
	return &Writer{path: path, sampleRate: sampleRate, channels: channels, tags: tags}, nil
}

// WriteInterleaved implements stft.Sink.
func (w *Writer) WriteInterleaved(buf []float64, frames int) error {
	w.samples = append(w.samples, buf[:frames*w.channels]...)
	return nil
}

// Close serializes the buffered samples to a RIFF/WAVE file with a
// LIST/INFO chunk carrying the writer's tags, per spec §6.
func (w *Writer) Close() error {
	var body bytes.Buffer

	body.WriteString("WAVE")

	writeFmtChunk(&body, w.sampleRate, w.channels)
	writeDataChunk(&body, w.samples)
	writeInfoChunk(&body, w.tags)

	var out bytes.Buffer
	out.WriteString("RIFF")
	writeUint32(&out, uint32(body.Len()))
	out.Write(body.Bytes())

	if err := os.WriteFile(w.path, out.Bytes(), 0o644); err != nil {
		return fmt.Errorf("%w: %v", sndenhance.ErrIoWrite, err)
	}
	return nil
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeUint16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func writeFmtChunk(buf *bytes.Buffer, sampleRate, channels int) {
	blockAlign := channels * bitsPerSample / 8
	byteRate := sampleRate * blockAlign

	buf.WriteString("fmt ")
	writeUint32(buf, 16)
	writeUint16(buf, 1) // PCM
	writeUint16(buf, uint16(channels))
	writeUint32(buf, uint32(sampleRate))
	writeUint32(buf, uint32(byteRate))
	writeUint16(buf, uint16(blockAlign))
	writeUint16(buf, uint16(bitsPerSample))
}

func writeDataChunk(buf *bytes.Buffer, samples []float64) {
	buf.WriteString("data")
	writeUint32(buf, uint32(len(samples)*2))
	for _, s := range samples {
		v := s * pcmScale
		if v > pcmScale {
			v = pcmScale
		}
		if v < -pcmScale-1 {
			v = -pcmScale - 1
		}
		writeUint16(buf, uint16(int16(v)))
	}
}

// writeInfoChunk appends a LIST chunk of type INFO holding the title
// (INAM), comment (ICMT), and software (ISFT) sub-chunks.
func writeInfoChunk(buf *bytes.Buffer, tags Tags) {
	var info bytes.Buffer
	info.WriteString("INFO")
	writeInfoField(&info, "INAM", tags.Title)
	writeInfoField(&info, "ICMT", tags.Comment)
	writeInfoField(&info, "ISFT", tags.Software)

	buf.WriteString("LIST")
	writeUint32(buf, uint32(info.Len()))
	buf.Write(info.Bytes())
}

func writeInfoField(buf *bytes.Buffer, id, value string) {
	if value == "" {
		return
	}
	data := append([]byte(value), 0)
	buf.WriteString(id)
	writeUint32(buf, uint32(len(data)))
	buf.Write(data)
	if len(data)%2 == 1 {
		buf.WriteByte(0)
	}
}
