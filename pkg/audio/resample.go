package audio

import (
	"fmt"
	"math"

	resampling "github.com/tphakala/go-audio-resampling"
)

// Resample converts a waveform to the given sample rate using a pure Go
// band-limited resampler (no CGO/FFI dependencies). Waveforms already at
// the target rate are returned unchanged.
func Resample(w *Waveform, rate int) (*Waveform, error) {
	if rate <= 0 {
		return nil, fmt.Errorf("invalid target sample rate: %d", rate)
	}
	if w.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid source sample rate: %d", w.SampleRate)
	}
	if w.SampleRate == rate {
		return w, nil
	}

	config := &resampling.Config{
		InputRate:  float64(w.SampleRate),
		OutputRate: float64(rate),
		Channels:   w.Channels,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	}
	rs, err := resampling.New(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create resampler: %w", err)
	}

	input := make([]float64, len(w.Samples))
	for i, s := range w.Samples {
		input[i] = float64(s)
	}

	output, err := rs.Process(input)
	if err != nil {
		return nil, fmt.Errorf("resample error: %w", err)
	}
	// Drain the filter's buffered tail; Process alone holds back the last
	// ~latency samples of the clip.
	tail, err := rs.Flush()
	if err != nil {
		return nil, fmt.Errorf("resample flush error: %w", err)
	}
	output = append(output, tail...)

	// Normalize to the rate-scaled length so duration is preserved
	// exactly: a 1 s clip in is a 1 s clip out, independent of filter
	// latency rounding.
	expected := int(math.Round(float64(w.NumFrames()) * float64(rate) / float64(w.SampleRate) * float64(w.Channels)))
	if len(output) > expected {
		output = output[:expected]
	}
	for len(output) < expected {
		output = append(output, 0)
	}

	samples := make([]float32, len(output))
	for i, s := range output {
		// Clamp: the filter can overshoot slightly near full-scale input.
		if s > 1.0 {
			s = 1.0
		} else if s < -1.0 {
			s = -1.0
		}
		samples[i] = float32(s)
	}
	return &Waveform{Samples: samples, SampleRate: rate, Channels: w.Channels}, nil
}
