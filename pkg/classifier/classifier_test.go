package classifier

import (
	"errors"
	"testing"
)

func TestConfigIsValid(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name:    "valid config",
			cfg:     Config{ModelPath: "/path/to/model.onnx", InputDim: 128},
			wantErr: false,
		},
		{
			name:    "empty model path",
			cfg:     Config{ModelPath: "", InputDim: 128},
			wantErr: true,
		},
		{
			name:    "zero input dim",
			cfg:     Config{ModelPath: "/path/to/model.onnx", InputDim: 0},
			wantErr: true,
		},
		{
			name:    "negative input dim",
			cfg:     Config{ModelPath: "/path/to/model.onnx", InputDim: -1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.IsValid()
			if (err != nil) != tt.wantErr {
				t.Errorf("IsValid() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigWithDefaults(t *testing.T) {
	cfg := Config{ModelPath: "m.onnx", InputDim: 128}.withDefaults()
	if cfg.InputName != DefaultInputName {
		t.Errorf("InputName = %q, want %q", cfg.InputName, DefaultInputName)
	}
	if cfg.OutputName != DefaultOutputName {
		t.Errorf("OutputName = %q, want %q", cfg.OutputName, DefaultOutputName)
	}

	cfg = Config{ModelPath: "m.onnx", InputDim: 128, InputName: "x", OutputName: "y"}.withDefaults()
	if cfg.InputName != "x" || cfg.OutputName != "y" {
		t.Error("explicit tensor names should not be overridden")
	}

	cfg = Config{ModelPath: "m.onnx"}.withDefaults()
	if cfg.InputDim != DefaultInputDim {
		t.Errorf("InputDim = %d, want %d", cfg.InputDim, DefaultInputDim)
	}
}

func TestMockModelFixedScore(t *testing.T) {
	m := NewMockModelWithScore(4, 0.87)

	prob, err := m.Score([]float32{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if prob != 0.87 {
		t.Errorf("Score() = %f, want 0.87", prob)
	}
	if m.ScoreCallCount() != 1 {
		t.Errorf("ScoreCallCount() = %d, want 1", m.ScoreCallCount())
	}
}

func TestMockModelShapeMismatch(t *testing.T) {
	m := NewMockModel(128)

	_, err := m.Score([]float32{1, 2, 3})
	if !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("expected ErrShapeMismatch, got %v", err)
	}
	if m.ScoreCallCount() != 0 {
		t.Error("mismatched call should not be recorded")
	}
}

func TestMockModelDefaultScore(t *testing.T) {
	m := NewMockModel(2)

	prob, err := m.Score([]float32{0, 0})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if prob != 0 {
		t.Errorf("Score() = %f, want 0", prob)
	}
}

func TestMockModelRecordsCopies(t *testing.T) {
	m := NewMockModel(2)
	buf := []float32{1, 2}

	if _, err := m.Score(buf); err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	buf[0] = 99

	if m.ScoreCalls[0][0] != 1 {
		t.Error("recorded call should be a copy, not an alias")
	}
}

func TestMockModelClose(t *testing.T) {
	m := NewMockModel(2)
	if err := m.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !m.CloseCalled {
		t.Error("CloseCalled not set")
	}
}
