package classifier

import (
	"fmt"
	"sync"
)

// MockModel is a mock implementation of Model for testing. Behavior is
// customized through the ScoreFunc field.
type MockModel struct {
	// ScoreFunc is called when Score is invoked with a correctly sized
	// vector. If nil, Score returns 0.0 (confidently genuine).
	ScoreFunc func(features []float32) (float32, error)

	// ScoreCalls records all calls to Score for verification.
	ScoreCalls [][]float32

	// CloseCalled tracks if Close was called.
	CloseCalled bool

	dim int
	mu  sync.Mutex
}

// NewMockModel creates a MockModel expecting vectors of the given length.
func NewMockModel(dim int) *MockModel {
	return &MockModel{dim: dim, ScoreCalls: make([][]float32, 0)}
}

// NewMockModelWithScore creates a MockModel that returns a fixed spoof
// probability.
func NewMockModelWithScore(dim int, score float32) *MockModel {
	m := NewMockModel(dim)
	m.ScoreFunc = func(features []float32) (float32, error) {
		return score, nil
	}
	return m
}

// Score implements Model. It enforces the same shape contract as the
// ONNX implementation.
func (m *MockModel) Score(features []float32) (float32, error) {
	if len(features) != m.dim {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrShapeMismatch, len(features), m.dim)
	}

	m.mu.Lock()
	featuresCopy := make([]float32, len(features))
	copy(featuresCopy, features)
	m.ScoreCalls = append(m.ScoreCalls, featuresCopy)
	m.mu.Unlock()

	if m.ScoreFunc != nil {
		return m.ScoreFunc(features)
	}
	return 0.0, nil
}

// Dimension implements Model.
func (m *MockModel) Dimension() int {
	return m.dim
}

// Close implements Model.
func (m *MockModel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CloseCalled = true
	return nil
}

// ScoreCallCount returns the number of times Score was called.
func (m *MockModel) ScoreCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ScoreCalls)
}

var _ Model = (*MockModel)(nil)
