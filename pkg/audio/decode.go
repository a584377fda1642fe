package audio

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
)

// IngestConfig holds configuration for the audio ingestor.
type IngestConfig struct {
	// TargetSampleRate is the rate every ingested waveform is normalized to.
	TargetSampleRate int
}

// DefaultIngestConfig returns the default configuration: 16 kHz, the rate
// the feature extractor and classifier are pinned to.
func DefaultIngestConfig() IngestConfig {
	return IngestConfig{TargetSampleRate: 16000}
}

// IsValid validates the ingest configuration.
func (c IngestConfig) IsValid() error {
	if c.TargetSampleRate <= 0 {
		return fmt.Errorf("invalid TargetSampleRate: %d", c.TargetSampleRate)
	}
	return nil
}

// Ingestor decodes raw audio bytes into normalized waveforms (mono,
// fixed sample rate, float32 samples in [-1, 1]).
type Ingestor struct {
	cfg IngestConfig
}

// NewIngestor creates an ingestor with the given configuration.
func NewIngestor(cfg IngestConfig) (*Ingestor, error) {
	if err := cfg.IsValid(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Ingestor{cfg: cfg}, nil
}

// TargetSampleRate returns the rate ingested waveforms are normalized to.
func (g *Ingestor) TargetSampleRate() int {
	return g.cfg.TargetSampleRate
}

// Ingest decodes raw bytes in the declared source format and returns a
// normalized waveform. It fails with ErrUnsupportedFormat for unknown
// formats, ErrDecode for corrupt input, and ErrEmptyAudio when the input
// holds no samples. Clipped or silent audio passes through unchanged.
func (g *Ingestor) Ingest(data []byte, format string) (*Waveform, error) {
	if len(data) == 0 {
		return nil, ErrEmptyAudio
	}

	var (
		w   *Waveform
		err error
	)
	switch f := NormalizeFormat(format); f {
	case "wav":
		w, err = decodeWAV(data)
	case "mp3":
		w, err = decodeMP3(data)
	case "flac":
		w, err = decodeFLAC(data)
	case "ogg":
		w, err = decodeOGG(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, NormalizeFormat(format), err)
	}
	if len(w.Samples) == 0 {
		return nil, ErrEmptyAudio
	}

	return g.Normalize(w)
}

// Normalize downmixes a decoded waveform to mono and resamples it to the
// target rate. Waveforms that already satisfy both invariants are
// returned as-is.
func (g *Ingestor) Normalize(w *Waveform) (*Waveform, error) {
	if len(w.Samples) == 0 {
		return nil, ErrEmptyAudio
	}
	w = ToMono(w)
	w, err := Resample(w, g.cfg.TargetSampleRate)
	if err != nil {
		return nil, fmt.Errorf("resample to %d Hz: %w", g.cfg.TargetSampleRate, err)
	}
	if len(w.Samples) == 0 {
		return nil, ErrEmptyAudio
	}
	return w, nil
}

// NormalizeFormat canonicalizes a user-supplied format name: file
// extensions (".WAV"), MIME types ("audio/x-wav") and common aliases all
// map onto the decoder keys.
func NormalizeFormat(format string) string {
	f := strings.ToLower(strings.TrimSpace(format))
	f = strings.TrimPrefix(f, ".")
	if i := strings.LastIndexByte(f, '/'); i >= 0 {
		f = f[i+1:]
	}
	if i := strings.IndexByte(f, ';'); i >= 0 {
		f = f[:i]
	}
	f = strings.TrimPrefix(f, "x-")
	switch f {
	case "wave", "wav":
		return "wav"
	case "mpeg", "mp3":
		return "mp3"
	case "flac":
		return "flac"
	case "ogg", "oga", "vorbis":
		return "ogg"
	}
	return f
}

func decodeWAV(data []byte) (*Waveform, error) {
	d := wav.NewDecoder(bytes.NewReader(data))
	d.ReadInfo()
	if !d.IsValidFile() {
		return nil, fmt.Errorf("not a RIFF/WAVE stream")
	}

	var buf *gaudio.IntBuffer
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("reading PCM data: %v", err)
	}
	if d.BitDepth == 0 || d.NumChans == 0 || d.SampleRate == 0 {
		return nil, fmt.Errorf("malformed fmt chunk")
	}

	scale := float32(int64(1) << (d.BitDepth - 1))
	samples := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = float32(v) / scale
	}
	return &Waveform{
		Samples:    samples,
		SampleRate: int(d.SampleRate),
		Channels:   int(d.NumChans),
	}, nil
}

func decodeMP3(data []byte) (*Waveform, error) {
	d, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing stream: %v", err)
	}

	// go-mp3 always emits 16-bit little-endian stereo.
	pcm, err := io.ReadAll(d)
	if err != nil {
		return nil, fmt.Errorf("decoding frames: %v", err)
	}
	w := FromPCM16(pcm, d.SampleRate(), 2)
	return w, nil
}

func decodeFLAC(data []byte) (*Waveform, error) {
	stream, err := flac.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing stream: %v", err)
	}

	ch := int(stream.Info.NChannels)
	if ch == 0 {
		return nil, fmt.Errorf("zero channel count")
	}
	scale := float32(int64(1) << (stream.Info.BitsPerSample - 1))

	var samples []float32
	for {
		frame, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decoding frame: %v", err)
		}
		n := len(frame.Subframes[0].Samples)
		for i := 0; i < n; i++ {
			for c := 0; c < ch; c++ {
				samples = append(samples, float32(frame.Subframes[c].Samples[i])/scale)
			}
		}
	}
	return &Waveform{
		Samples:    samples,
		SampleRate: int(stream.Info.SampleRate),
		Channels:   ch,
	}, nil
}

func decodeOGG(data []byte) (*Waveform, error) {
	samples, format, err := oggvorbis.ReadAll(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding stream: %v", err)
	}
	return &Waveform{
		Samples:    samples,
		SampleRate: format.SampleRate,
		Channels:   format.Channels,
	}, nil
}
