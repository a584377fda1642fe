package audio

import (
	"testing"
	"time"
)

func TestToMonoAveragesChannels(t *testing.T) {
	w := &Waveform{
		// Interleaved stereo: L=0.8, R=0.2 for every frame.
		Samples:    []float32{0.8, 0.2, 0.8, 0.2, 0.8, 0.2},
		SampleRate: 16000,
		Channels:   2,
	}

	mono := ToMono(w)
	if mono.Channels != 1 {
		t.Fatalf("expected 1 channel, got %d", mono.Channels)
	}
	if len(mono.Samples) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(mono.Samples))
	}
	for i, s := range mono.Samples {
		if s < 0.499 || s > 0.501 {
			t.Errorf("sample %d = %f, want 0.5", i, s)
		}
	}
}

func TestToMonoPassthrough(t *testing.T) {
	w := &Waveform{Samples: []float32{0.1, 0.2}, SampleRate: 16000, Channels: 1}
	if got := ToMono(w); got != w {
		t.Error("mono input should be returned unchanged")
	}
}

func TestWaveformDuration(t *testing.T) {
	w := &Waveform{Samples: make([]float32, 8000), SampleRate: 16000, Channels: 1}
	if got := w.Duration(); got != 500*time.Millisecond {
		t.Errorf("Duration() = %v, want 500ms", got)
	}
}

func TestFromPCM16(t *testing.T) {
	// 0x7FFF ≈ +1.0, 0x8000 = -1.0, 0x0000 = 0.
	data := []byte{0xFF, 0x7F, 0x00, 0x80, 0x00, 0x00}
	w := FromPCM16(data, 16000, 1)

	if len(w.Samples) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(w.Samples))
	}
	if w.Samples[0] < 0.999 {
		t.Errorf("max sample = %f, want ~1.0", w.Samples[0])
	}
	if w.Samples[1] != -1.0 {
		t.Errorf("min sample = %f, want -1.0", w.Samples[1])
	}
	if w.Samples[2] != 0 {
		t.Errorf("zero sample = %f, want 0", w.Samples[2])
	}
}

func TestFromPCM16IgnoresTrailingByte(t *testing.T) {
	w := FromPCM16([]byte{0x00, 0x00, 0x7F}, 16000, 1)
	if len(w.Samples) != 1 {
		t.Errorf("expected 1 sample, got %d", len(w.Samples))
	}
}
