// Package kernel generates specialized WGSL compute kernels for strided
// tensor operations and fused layer normalization.
//
// Shapes, stride tables and the elementwise operation body are baked into
// the shader source at specialization time, so the compiled kernel carries
// no runtime indirection. The returned Source has a stable Key; backends
// cache compiled pipelines under it, giving a just-in-time kernel cache
// keyed by shape signature.
//
// Example:
//
//	spec := kernel.Contiguous(shape.Shape{4}, 3, []int{2})
//	src, err := spec.Specialize(kernel.Add)
//	// src.WGSL is a complete compute shader with all constants baked in.
package kernel

import (
	internalkernel "github.com/halcyon-ml/autokernel/internal/kernel"
	"github.com/halcyon-ml/autokernel/internal/shape"
)

// Shape represents the dimensions of a tensor iteration space.
type Shape = shape.Shape

// Source is a specialized kernel ready for compilation and dispatch.
type Source = internalkernel.Source

// ElementwiseSpec describes one instantiation of the strided elementwise
// kernel: a logical iteration space plus per-operand stride vectors.
type ElementwiseSpec = internalkernel.ElementwiseSpec

// LayerNormSpec describes one instantiation of the fused layer-norm
// kernel: outer axes, per-operand outer strides, and the normalized
// axis's size and strides.
type LayerNormSpec = internalkernel.LayerNormSpec

// Op is the elementwise operation injected into the strided kernel.
type Op = internalkernel.Op

// Stock elementwise operations.
var (
	Add  = internalkernel.Add
	Sub  = internalkernel.Sub
	Mul  = internalkernel.Mul
	Div  = internalkernel.Div
	Copy = internalkernel.Copy
	Neg  = internalkernel.Neg
	Relu = internalkernel.Relu
)

// Binary builds a three-operand op: buf2 = buf0 <operator> buf1.
func Binary(name, operator string) Op {
	return internalkernel.Binary(name, operator)
}

// Unary builds a two-operand op: buf1 = expr(x) where x is buf0's element.
func Unary(name, expr string) Op {
	return internalkernel.Unary(name, expr)
}

// Contiguous builds an elementwise spec where every operand uses the
// dense row-major layout of the shape.
func Contiguous(s Shape, operands int, outputs []int) *ElementwiseSpec {
	return internalkernel.Contiguous(s, operands, outputs)
}

// ContiguousLayerNorm builds a layer-norm spec over rows of normSize
// contiguous elements, input and output laid out identically.
func ContiguousLayerNorm(rows, normSize int) *LayerNormSpec {
	return internalkernel.ContiguousLayerNorm(rows, normSize)
}

// BroadcastStrides lifts an operand with its own shape and strides to a
// full result shape, assigning stride 0 to broadcast axes.
func BroadcastStrides(full, operand Shape, operandStrides []int) ([]int, error) {
	return shape.BroadcastStrides(full, operand, operandStrides)
}
