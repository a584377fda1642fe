// Package classifier wraps the pretrained spoof-detection model.
//
// The production implementation runs an ONNX binary classifier through
// onnxruntime_go and is compiled behind the 'onnx' build tag; untagged
// builds get a stub constructor. The Model interface allows mock
// implementations in testing.
package classifier

import "errors"

// ErrShapeMismatch indicates the feature vector length does not match the
// model's expected input shape. This is an integration error between the
// extractor and the model artifact, not a user-facing condition.
var ErrShapeMismatch = errors.New("classifier: feature vector does not match model input shape")

// Model scores feature vectors for spoof likelihood.
type Model interface {
	// Score runs the model forward pass and returns the spoof
	// probability in [0, 1]. Higher values indicate spoofed/synthetic
	// speech. Inference is deterministic: no stochastic layers are
	// active at runtime.
	Score(features []float32) (float32, error)

	// Dimension returns the input vector length the model expects.
	Dimension() int

	// Close releases resources held by the model (e.g., the ONNX
	// session). The model must not be used after Close.
	Close() error
}
