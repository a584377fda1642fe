//go:build !onnx

package speech

import "fmt"

// NewGate returns an error indicating VAD support is not built in.
func NewGate(cfg GateConfig) (Gate, error) {
	return nil, fmt.Errorf("VAD support is not enabled. Rebuild with '-tags onnx' and ensure ONNX Runtime is installed")
}
