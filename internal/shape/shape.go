// Package shape describes tensor geometry: dimension sizes and the stride
// vectors that map logical axis indices to linear element offsets.
//
// Two kinds of strides appear throughout the kernel generator:
//
//   - Dense strides decompose a flat index into axis indices with no gaps
//     (canonical row-major layout). They exist purely for index arithmetic
//     and are independent of how operand memory is laid out.
//   - Operand strides describe actual memory layout. They may be zero along
//     an axis (broadcast: many logical indices map to one offset) or permuted
//     (transposed views), and are never required to be contiguous.
package shape

import "fmt"

// Shape represents the dimensions of a tensor.
type Shape []int

// NumElements returns the total number of elements in the tensor.
func (s Shape) NumElements() int {
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate checks if the shape is valid (all dimensions > 0).
func (s Shape) Validate() error {
	for i, dim := range s {
		if dim <= 0 {
			return fmt.Errorf("invalid dimension at index %d: %d (must be > 0)", i, dim)
		}
	}
	return nil
}

// Equal checks if two shapes are equal.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	clone := make(Shape, len(s))
	copy(clone, s)
	return clone
}

// DenseStrides calculates row-major decomposition strides for the shape:
// stride[i] = product of all dimensions after i. Repeatedly dividing a flat
// index by these strides (most-significant axis first) recovers the axis
// indices with no overlap or gap.
func (s Shape) DenseStrides() []int {
	strides := make([]int, len(s))
	if len(s) == 0 {
		return strides
	}

	strides[len(s)-1] = 1
	for i := len(s) - 2; i >= 0; i-- {
		strides[i] = strides[i+1] * s[i+1]
	}
	return strides
}

// IsContiguous reports whether the given strides are exactly the dense
// row-major strides of the shape, i.e. the memory layout matches the
// logical decomposition and the flat index equals the memory offset.
func (s Shape) IsContiguous(strides []int) bool {
	if len(strides) != len(s) {
		return false
	}
	dense := s.DenseStrides()
	for i := range dense {
		if strides[i] != dense[i] {
			return false
		}
	}
	return true
}

// BroadcastStrides lifts an operand with its own shape and strides to the
// full result shape, following NumPy-style broadcasting: the operand's axes
// align to the rightmost axes of the full shape, size-1 operand axes get
// stride 0, and missing leading axes get stride 0. Returns an error if a
// non-1 operand dimension does not match the full shape.
func BroadcastStrides(full, operand Shape, operandStrides []int) ([]int, error) {
	if len(operandStrides) != len(operand) {
		return nil, fmt.Errorf("operand rank %d does not match stride count %d", len(operand), len(operandStrides))
	}
	if len(operand) > len(full) {
		return nil, fmt.Errorf("operand rank %d exceeds result rank %d", len(operand), len(full))
	}

	result := make([]int, len(full))
	offset := len(full) - len(operand)
	for i := range operand {
		switch {
		case operand[i] == full[offset+i]:
			result[offset+i] = operandStrides[i]
		case operand[i] == 1:
			result[offset+i] = 0
		default:
			return nil, fmt.Errorf("cannot broadcast dimension %d (size %d) to %d", i, operand[i], full[offset+i])
		}
	}
	return result, nil
}
