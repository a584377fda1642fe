// Package speech estimates how much of a clip actually contains speech,
// using the Silero VAD model. The ratio is attached to detection results
// as advisory metadata so the UI can warn about non-speech input; it
// never alters the spoof verdict.
//
// The Silero-backed implementation is compiled behind the 'onnx' build
// tag; untagged builds get a stub constructor.
package speech

import (
	"fmt"

	"github.com/voiceguard-ai/voiceguard/pkg/audio"
)

// Gate measures the speech content of a waveform.
type Gate interface {
	// SpeechRatio returns the fraction of the waveform covered by
	// detected speech, in [0, 1]. The waveform must be mono at the
	// configured sample rate.
	SpeechRatio(w *audio.Waveform) (float64, error)

	// Close releases resources held by the gate.
	Close() error
}

// GateConfig holds configuration for the Silero VAD gate.
type GateConfig struct {
	// ModelPath is the path to the silero_vad.onnx artifact.
	ModelPath string
	// SampleRate of the waveforms fed to the gate. Silero supports 8000
	// and 16000.
	SampleRate int
	// Threshold is the speech probability above which a frame counts as
	// speech.
	Threshold float32
}

// DefaultGateConfig returns the default configuration for 16 kHz audio.
func DefaultGateConfig(modelPath string) GateConfig {
	return GateConfig{
		ModelPath:  modelPath,
		SampleRate: 16000,
		Threshold:  0.5,
	}
}

// IsValid validates the gate configuration.
func (c GateConfig) IsValid() error {
	if c.ModelPath == "" {
		return fmt.Errorf("invalid ModelPath: should not be empty")
	}
	if c.SampleRate != 8000 && c.SampleRate != 16000 {
		return fmt.Errorf("invalid SampleRate: valid values are 8000 and 16000")
	}
	if c.Threshold < 0 || c.Threshold > 1 {
		return fmt.Errorf("invalid Threshold: %f", c.Threshold)
	}
	return nil
}
