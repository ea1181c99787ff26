//go:build windows

// Package webgpu provides the GPU execution backend for specialized
// kernels over WebGPU.
//
// Example:
//
//	gpu, err := webgpu.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer gpu.Release()
//
//	spec := kernel.Contiguous(kernel.Shape{1024}, 3, []int{2})
//	err = gpu.RunElementwise(spec, kernel.Add, [][]float32{a, b, out})
package webgpu

import (
	internalwebgpu "github.com/halcyon-ml/autokernel/internal/backend/webgpu"
)

// Backend dispatches specialized kernels on a WebGPU device, caching
// compiled pipelines by kernel shape signature.
type Backend = internalwebgpu.Backend

// New creates a new WebGPU backend.
//
// Returns an error if WebGPU initialization fails (e.g. no compatible
// GPU). Call Release() when done to free GPU resources.
func New() (*Backend, error) {
	return internalwebgpu.New()
}

// IsAvailable checks if WebGPU is available on the current system. It's
// useful for graceful fallback to the CPU backend:
//
//	if webgpu.IsAvailable() {
//	    gpu, _ := webgpu.New()
//	    // dispatch on gpu
//	} else {
//	    // fall back to cpu.New()
//	}
func IsAvailable() bool {
	return internalwebgpu.IsAvailable()
}
