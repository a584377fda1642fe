package classifier

import "fmt"

// Defaults for the pinned model artifact.
const (
	DefaultInputName  = "features"
	DefaultOutputName = "probability"

	// DefaultInputDim matches the extractor's pooled log-mel vector.
	DefaultInputDim = 128
)

// Config holds configuration for creating an ONNX-backed model.
type Config struct {
	// ModelPath is the path to the serialized ONNX model artifact.
	ModelPath string
	// InputDim is the feature vector length the artifact was trained on.
	InputDim int
	// InputName and OutputName are the graph tensor names. Empty values
	// fall back to the pinned defaults.
	InputName  string
	OutputName string
}

// IsValid validates the model configuration.
func (c Config) IsValid() error {
	if c.ModelPath == "" {
		return fmt.Errorf("invalid ModelPath: should not be empty")
	}
	if c.InputDim <= 0 {
		return fmt.Errorf("invalid InputDim: %d", c.InputDim)
	}
	return nil
}

// withDefaults fills in unset tensor names and input dimension.
func (c Config) withDefaults() Config {
	if c.InputName == "" {
		c.InputName = DefaultInputName
	}
	if c.OutputName == "" {
		c.OutputName = DefaultOutputName
	}
	if c.InputDim == 0 {
		c.InputDim = DefaultInputDim
	}
	return c
}
