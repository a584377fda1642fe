// Package audio handles ingestion of raw audio bytes into normalized
// waveforms: decoding (WAV/MP3/FLAC/OGG), downmixing to mono, resampling
// to the pipeline's fixed sample rate, and lightweight signal metadata.
package audio

import (
	"encoding/binary"
	"errors"
	"time"
)

// Sentinel errors for the ingestion boundary. Callers are expected to
// match them with errors.Is.
var (
	// ErrDecode indicates the input bytes could not be decoded under the
	// declared container/codec.
	ErrDecode = errors.New("audio: undecodable input")

	// ErrEmptyAudio indicates the input decoded to zero samples (or was a
	// zero-length byte buffer).
	ErrEmptyAudio = errors.New("audio: empty audio")

	// ErrUnsupportedFormat indicates the declared source format is not one
	// of the supported containers.
	ErrUnsupportedFormat = errors.New("audio: unsupported format")
)

// Waveform is a decoded audio signal: float32 samples in [-1, 1], tagged
// with sample rate and channel count. Multi-channel data is interleaved.
// A Waveform is treated as immutable once produced.
type Waveform struct {
	Samples    []float32
	SampleRate int
	Channels   int
}

// NumFrames returns the number of sample frames (samples per channel).
func (w *Waveform) NumFrames() int {
	if w.Channels <= 0 {
		return 0
	}
	return len(w.Samples) / w.Channels
}

// Duration returns the playback duration of the waveform.
func (w *Waveform) Duration() time.Duration {
	if w.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(w.NumFrames()) / float64(w.SampleRate) * float64(time.Second))
}

// FromPCM16 builds a waveform from raw PCM16 signed little-endian bytes,
// the wire format used by the browser recorder and local capture devices.
// A trailing odd byte is ignored.
func FromPCM16(data []byte, sampleRate, channels int) *Waveform {
	n := len(data) / 2
	samples := make([]float32, n)
	for i := 0; i < n; i++ {
		s := int16(binary.LittleEndian.Uint16(data[i*2 : i*2+2]))
		samples[i] = float32(s) / 32768.0
	}
	return &Waveform{Samples: samples, SampleRate: sampleRate, Channels: channels}
}

// ToMono downmixes an interleaved multi-channel waveform to mono by
// averaging channels. Mono input is returned unchanged.
func ToMono(w *Waveform) *Waveform {
	if w.Channels <= 1 {
		return w
	}
	frames := w.NumFrames()
	mono := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for c := 0; c < w.Channels; c++ {
			sum += w.Samples[i*w.Channels+c]
		}
		mono[i] = sum / float32(w.Channels)
	}
	return &Waveform{Samples: mono, SampleRate: w.SampleRate, Channels: 1}
}
