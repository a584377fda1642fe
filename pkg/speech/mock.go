package speech

import (
	"sync"

	"github.com/voiceguard-ai/voiceguard/pkg/audio"
)

// MockGate is a mock implementation of Gate for testing.
type MockGate struct {
	// RatioFunc is called when SpeechRatio is invoked. If nil, a fixed
	// ratio of 1.0 (all speech) is returned.
	RatioFunc func(w *audio.Waveform) (float64, error)

	// Calls counts SpeechRatio invocations.
	Calls int

	// CloseCalled tracks if Close was called.
	CloseCalled bool

	mu sync.Mutex
}

// SpeechRatio implements Gate.
func (m *MockGate) SpeechRatio(w *audio.Waveform) (float64, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()

	if m.RatioFunc != nil {
		return m.RatioFunc(w)
	}
	return 1.0, nil
}

// Close implements Gate.
func (m *MockGate) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CloseCalled = true
	return nil
}

var _ Gate = (*MockGate)(nil)
