// Package cpu executes specialized kernels on the host with the same
// semantics as the generated WGSL: the elementwise kernel's grid-stride
// index decomposition and the layer-norm kernel's lane-accurate 32-wide
// Welford reduction. It serves as the fallback backend when no GPU is
// available and as the reference oracle the GPU path is tested against.
package cpu

import (
	"github.com/halcyon-ml/autokernel/internal/parallel"
)

// Engine runs kernels on the host.
type Engine struct {
	cfg parallel.Config
}

// New creates an engine with default worker configuration.
func New() *Engine {
	return &Engine{cfg: parallel.DefaultConfig()}
}

// NewWithConfig creates an engine with explicit worker configuration.
// Useful in tests to pin the worker count.
func NewWithConfig(cfg parallel.Config) *Engine {
	return &Engine{cfg: cfg}
}

// Name returns the backend name.
func (e *Engine) Name() string {
	return "CPU"
}
