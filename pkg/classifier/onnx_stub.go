//go:build !onnx

package classifier

import "fmt"

// InitRuntime is a no-op when built without the 'onnx' build tag.
func InitRuntime(libraryPath string) error {
	return nil
}

// DestroyRuntime is a no-op when built without the 'onnx' build tag.
func DestroyRuntime() error {
	return nil
}

// NewONNXModel returns an error indicating ONNX support is not built in.
func NewONNXModel(cfg Config) (Model, error) {
	return nil, fmt.Errorf("ONNX support is not enabled. Rebuild with '-tags onnx' and ensure ONNX Runtime is installed")
}
