package cpu

import (
	"fmt"

	"github.com/halcyon-ml/autokernel/internal/fastdiv"
	"github.com/halcyon-ml/autokernel/internal/kernel"
	"github.com/halcyon-ml/autokernel/internal/parallel"
)

// Op performs the read-compute-write for one logical element given every
// operand's buffer and resolved element offset. It is the host-side
// counterpart of kernel.Op's WGSL body and must not retain bufs or
// offsets between calls.
type Op func(bufs [][]float32, offsets []int)

// Stock ops matching the kernel package's WGSL counterparts.
var (
	Add  Op = func(bufs [][]float32, o []int) { bufs[2][o[2]] = bufs[0][o[0]] + bufs[1][o[1]] }
	Sub  Op = func(bufs [][]float32, o []int) { bufs[2][o[2]] = bufs[0][o[0]] - bufs[1][o[1]] }
	Mul  Op = func(bufs [][]float32, o []int) { bufs[2][o[2]] = bufs[0][o[0]] * bufs[1][o[1]] }
	Div  Op = func(bufs [][]float32, o []int) { bufs[2][o[2]] = bufs[0][o[0]] / bufs[1][o[1]] }
	Copy Op = func(bufs [][]float32, o []int) { bufs[1][o[1]] = bufs[0][o[0]] }
	Neg  Op = func(bufs [][]float32, o []int) { bufs[1][o[1]] = -bufs[0][o[0]] }
)

// Elementwise evaluates op over every logical position of the spec's
// iteration space. Workers split the flat index range grid-stride style;
// each index is decomposed into axis indices with the dense strides and
// every operand's offset accumulated in one pass over the axes. Visitation
// order across indices is unspecified. Offsets that fall outside a buffer
// panic (the host analog of a faulting launch); aliasing writes from
// ill-chosen strides are undefined, not detected.
func (e *Engine) Elementwise(spec *kernel.ElementwiseSpec, op Op, bufs [][]float32) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	if len(bufs) != spec.Operands() {
		return fmt.Errorf("cpu: elementwise needs %d operand buffers, got %d", spec.Operands(), len(bufs))
	}

	size := spec.Size()
	rank := spec.Rank()
	operands := spec.Operands()
	dense := spec.Shape.DenseStrides()
	strides := spec.OperandStrides

	parallel.GridStride(size, func(worker, total int) {
		offsets := make([]int, operands)
		for flat := worker; flat < size; flat += total {
			left := flat
			for o := range offsets {
				offsets[o] = 0
			}
			for axis := 0; axis < rank; axis++ {
				index, rem := fastdiv.DivMod(left, dense[axis])
				left = rem
				for o := 0; o < operands; o++ {
					offsets[o] += index * strides[o][axis]
				}
			}
			op(bufs, offsets)
		}
	}, e.cfg)

	return nil
}
