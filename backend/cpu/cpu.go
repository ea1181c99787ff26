// Package cpu provides the host execution backend. It runs the same
// kernel semantics as the generated WGSL shaders — grid-stride index
// decomposition for elementwise ops, a lane-accurate 32-wide Welford
// reduction for layer norm — and serves both as the fallback when no GPU
// is present and as the reference the GPU backend is validated against.
package cpu

import (
	internalcpu "github.com/halcyon-ml/autokernel/internal/backend/cpu"
)

// Engine runs kernels on the host.
type Engine = internalcpu.Engine

// Op performs the read-compute-write for one logical element.
type Op = internalcpu.Op

// Stock ops matching the kernel package's WGSL counterparts.
var (
	Add  = internalcpu.Add
	Sub  = internalcpu.Sub
	Mul  = internalcpu.Mul
	Div  = internalcpu.Div
	Copy = internalcpu.Copy
	Neg  = internalcpu.Neg
)

// New creates an engine with default worker configuration.
func New() *Engine {
	return internalcpu.New()
}
