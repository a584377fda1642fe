// Package features turns normalized waveforms into the fixed-length
// feature vectors the spoof classifier consumes.
//
// The representation is pinned: 64-band log mel filterbank energies over
// 25 ms Hamming frames with a 10 ms shift, pooled over time by per-band
// mean and standard deviation into a 128-dimensional vector. Pooling is
// what decouples arbitrary clip durations from the classifier's fixed
// input shape: a 1-second and a 10-minute clip yield vectors of the same
// length.
package features

import (
	"errors"
	"fmt"
	"math"

	"github.com/voiceguard-ai/voiceguard/pkg/audio"
)

var (
	// ErrInvalidWaveform indicates the waveform violates the mono/sample
	// rate invariant the ingestor is responsible for. The extractor never
	// resamples on its own.
	ErrInvalidWaveform = errors.New("features: waveform violates sample rate or channel invariant")

	// ErrInsufficientAudio indicates the clip is shorter than the minimum
	// analysis window and would produce degenerate features.
	ErrInsufficientAudio = errors.New("features: audio shorter than minimum analysis window")
)

// Config holds the feature extraction parameters. All values are part of
// the model contract: changing any of them invalidates trained artifacts.
type Config struct {
	SampleRate  int     // Expected input sample rate in Hz
	NumMels     int     // Number of mel filterbank channels
	FrameLength int     // Frame length in samples
	FrameShift  int     // Frame shift in samples
	PreEmphasis float64 // Pre-emphasis coefficient
	EnergyFloor float64 // Floor for log energies
	MinDuration int     // Minimum clip duration in milliseconds
}

// DefaultConfig returns the pinned configuration for 16 kHz audio.
func DefaultConfig() Config {
	return Config{
		SampleRate:  16000,
		NumMels:     64,
		FrameLength: 400, // 25ms @ 16kHz
		FrameShift:  160, // 10ms @ 16kHz
		PreEmphasis: 0.97,
		EnergyFloor: 1e-10,
		MinDuration: 1000,
	}
}

// IsValid validates the extraction configuration.
func (c Config) IsValid() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("invalid SampleRate: %d", c.SampleRate)
	}
	if c.NumMels <= 0 {
		return fmt.Errorf("invalid NumMels: %d", c.NumMels)
	}
	if c.FrameLength <= 0 || c.FrameShift <= 0 {
		return fmt.Errorf("invalid frame geometry: length=%d shift=%d", c.FrameLength, c.FrameShift)
	}
	if c.MinDuration <= 0 {
		return fmt.Errorf("invalid MinDuration: %d", c.MinDuration)
	}
	if minSamples := c.SampleRate * c.MinDuration / 1000; minSamples < c.FrameLength {
		return fmt.Errorf("MinDuration %dms shorter than one frame", c.MinDuration)
	}
	return nil
}

// Extractor computes fixed-length feature vectors from waveforms. It is
// a pure function of its configuration: identical waveforms always yield
// identical vectors. Safe for concurrent use.
type Extractor struct {
	cfg Config
	fb  *fbank
}

// NewExtractor creates an extractor with the given configuration.
func NewExtractor(cfg Config) (*Extractor, error) {
	if err := cfg.IsValid(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Extractor{cfg: cfg, fb: newFbank(cfg)}, nil
}

// Dimension returns the length of vectors produced by Extract.
func (e *Extractor) Dimension() int {
	return 2 * e.cfg.NumMels
}

// Extract computes the feature vector for a normalized waveform.
func (e *Extractor) Extract(w *audio.Waveform) ([]float32, error) {
	if w == nil || w.Channels != 1 || w.SampleRate != e.cfg.SampleRate {
		if w == nil {
			return nil, fmt.Errorf("%w: nil waveform", ErrInvalidWaveform)
		}
		return nil, fmt.Errorf("%w: got %d Hz / %d ch, want %d Hz mono",
			ErrInvalidWaveform, w.SampleRate, w.Channels, e.cfg.SampleRate)
	}

	minSamples := e.cfg.SampleRate * e.cfg.MinDuration / 1000
	if len(w.Samples) < minSamples {
		return nil, fmt.Errorf("%w: %d samples, need %d", ErrInsufficientAudio, len(w.Samples), minSamples)
	}

	frames := e.fb.compute(w.Samples)
	if len(frames) == 0 {
		return nil, fmt.Errorf("%w: no complete analysis frame", ErrInsufficientAudio)
	}

	return pool(frames, e.cfg.NumMels), nil
}

// pool aggregates per-frame mel energies into a fixed vector: mean of
// each band followed by standard deviation of each band.
func pool(frames [][]float32, numMels int) []float32 {
	n := float64(len(frames))

	mean := make([]float64, numMels)
	for _, frame := range frames {
		for m, v := range frame {
			mean[m] += float64(v)
		}
	}
	for m := range mean {
		mean[m] /= n
	}

	variance := make([]float64, numMels)
	for _, frame := range frames {
		for m, v := range frame {
			d := float64(v) - mean[m]
			variance[m] += d * d
		}
	}

	vec := make([]float32, 2*numMels)
	for m := 0; m < numMels; m++ {
		vec[m] = float32(mean[m])
		vec[numMels+m] = float32(math.Sqrt(variance[m] / n))
	}
	return vec
}
