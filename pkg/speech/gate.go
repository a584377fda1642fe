//go:build onnx

package speech

import (
	"fmt"
	"sync"

	silero "github.com/streamer45/silero-vad-go/speech"

	"github.com/voiceguard-ai/voiceguard/pkg/audio"
)

// sileroGate runs the Silero VAD model over a whole clip and sums the
// detected speech segments. The underlying detector is stateful, so
// calls are serialized and the state is reset per clip.
type sileroGate struct {
	cfg      GateConfig
	detector *silero.Detector

	mu sync.Mutex
}

// NewGate creates a Silero-backed speech gate.
func NewGate(cfg GateConfig) (Gate, error) {
	if err := cfg.IsValid(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	detector, err := silero.NewDetector(silero.DetectorConfig{
		ModelPath:            cfg.ModelPath,
		SampleRate:           cfg.SampleRate,
		Threshold:            cfg.Threshold,
		MinSilenceDurationMs: 100,
		SpeechPadMs:          30,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create VAD detector: %w", err)
	}

	return &sileroGate{cfg: cfg, detector: detector}, nil
}

// SpeechRatio implements Gate.
func (g *sileroGate) SpeechRatio(w *audio.Waveform) (float64, error) {
	if w == nil || len(w.Samples) == 0 {
		return 0, fmt.Errorf("empty waveform")
	}
	if w.Channels != 1 || w.SampleRate != g.cfg.SampleRate {
		return 0, fmt.Errorf("expected %d Hz mono, got %d Hz / %d ch",
			g.cfg.SampleRate, w.SampleRate, w.Channels)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.detector.Reset(); err != nil {
		return 0, fmt.Errorf("failed to reset detector: %w", err)
	}

	segments, err := g.detector.Detect(w.Samples)
	if err != nil {
		return 0, fmt.Errorf("VAD detection failed: %w", err)
	}

	total := float64(len(w.Samples)) / float64(w.SampleRate)
	var spoken float64
	for _, seg := range segments {
		end := seg.SpeechEndAt
		if end <= 0 {
			// Open segment: speech ran to the end of the clip.
			end = total
		}
		if end > seg.SpeechStartAt {
			spoken += end - seg.SpeechStartAt
		}
	}

	ratio := spoken / total
	if ratio > 1 {
		ratio = 1
	}
	return ratio, nil
}

// Close implements Gate.
func (g *sileroGate) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.detector != nil {
		if err := g.detector.Destroy(); err != nil {
			return fmt.Errorf("failed to destroy detector: %w", err)
		}
		g.detector = nil
	}
	return nil
}

var _ Gate = (*sileroGate)(nil)
