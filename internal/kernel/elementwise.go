package kernel

import (
	"fmt"
	"strings"

	"github.com/halcyon-ml/autokernel/internal/shape"
	"github.com/halcyon-ml/autokernel/internal/wgsl"
)

// ElementwiseSpec describes one instantiation of the strided elementwise
// kernel: a logical iteration space and, for every operand, the stride
// vector mapping axis indices to element offsets. Operand strides may be 0
// along an axis (broadcast) or permuted (transposed views); they are not
// required to be contiguous. Strides that make distinct logical indices
// alias the same output element are a caller contract violation and leave
// the result undefined.
type ElementwiseSpec struct {
	Shape          shape.Shape
	OperandStrides [][]int // [operand][axis], element strides
	Outputs        []int   // operand indices the op writes; read back after dispatch
}

// Contiguous builds a spec where every operand uses the dense row-major
// layout of the shape, so each operand's offset equals the flat index.
func Contiguous(s shape.Shape, operands int, outputs []int) *ElementwiseSpec {
	dense := s.DenseStrides()
	strides := make([][]int, operands)
	for i := range strides {
		strides[i] = dense
	}
	return &ElementwiseSpec{Shape: s, OperandStrides: strides, Outputs: outputs}
}

// Rank returns the number of axes of the iteration space.
func (s *ElementwiseSpec) Rank() int { return len(s.Shape) }

// Size returns the number of logical elements.
func (s *ElementwiseSpec) Size() int { return s.Shape.NumElements() }

// Operands returns the operand count.
func (s *ElementwiseSpec) Operands() int { return len(s.OperandStrides) }

// Validate checks structural consistency. It does not (and cannot) check
// that operand buffers cover the offsets their strides produce; that is
// the caller's responsibility, as is alias-free output addressing.
func (s *ElementwiseSpec) Validate() error {
	if len(s.Shape) == 0 {
		return fmt.Errorf("elementwise: rank must be at least 1")
	}
	if err := s.Shape.Validate(); err != nil {
		return fmt.Errorf("elementwise: %w", err)
	}
	if len(s.OperandStrides) == 0 {
		return fmt.Errorf("elementwise: at least one operand required")
	}
	for i, strides := range s.OperandStrides {
		if len(strides) != len(s.Shape) {
			return fmt.Errorf("elementwise: operand %d has %d strides, want %d", i, len(strides), len(s.Shape))
		}
	}
	for _, o := range s.Outputs {
		if o < 0 || o >= len(s.OperandStrides) {
			return fmt.Errorf("elementwise: output index %d out of range", o)
		}
	}
	return nil
}

// Key returns the cache key for this specialization: compiled pipelines
// are shared between launches with identical shape signature and op.
func (s *ElementwiseSpec) Key(op Op) string {
	return fmt.Sprintf("elementwise|%s|shape=%s|strides=%s|out=%s",
		op.Name, intSig(s.Shape), strideSig(s.OperandStrides), intSig(s.Outputs))
}

// Specialize bakes the spec and op into WGSL source.
func (s *ElementwiseSpec) Specialize(op Op) (*Source, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	var bindings strings.Builder
	for i := range s.OperandStrides {
		fmt.Fprintf(&bindings, "@group(0) @binding(%d) var<storage, read_write> buf%d: array<f32>;\n", i, i)
	}

	name := "elementwise_" + op.Name
	src, err := wgsl.Fill(elementwiseTemplate, []wgsl.Replacement{
		{Key: "$NAME$", Value: name},
		{Key: "$BINDINGS$", Value: bindings.String()},
		{Key: "$RANK$", Value: wgsl.Int(s.Rank())},
		{Key: "$SIZE$", Value: wgsl.Int(s.Size())},
		{Key: "$OPERANDS$", Value: wgsl.Int(s.Operands())},
		{Key: "$DENSE_STRIDES$", Value: wgsl.ArrayLit(s.Shape.DenseStrides())},
		{Key: "$STRIDES$", Value: wgsl.NestedArrayLit(s.OperandStrides)},
		{Key: "$WORKGROUP_SIZE$", Value: wgsl.Int(elementwiseWorkgroupSize)},
		{Key: "$OPERATION$", Value: op.Body},
	})
	if err != nil {
		return nil, fmt.Errorf("elementwise: %w", err)
	}

	return &Source{
		Key:           s.Key(op),
		Name:          name,
		WGSL:          src,
		WorkgroupSize: elementwiseWorkgroupSize,
		Workgroups:    ceilDiv(s.Size(), elementwiseWorkgroupSize),
	}, nil
}

// elementwiseTemplate evaluates the injected operation over SIZE logical
// positions. Each thread owns the flat indices gid, gid+T, gid+2T, ... for
// T total threads (grid-stride loop), so the kernel is correct for any
// dispatch size. Per index, the dense strides decompose it into RANK axis
// indices and every operand accumulates index*stride per axis, yielding
// all operand offsets in one pass over the axes. No bounds checks beyond
// the SIZE guard of the loop.
const elementwiseTemplate = `// $NAME$ (generated; do not edit)
$BINDINGS$
const RANK: i32 = $RANK$;
const SIZE: i32 = $SIZE$;
const OPERANDS: i32 = $OPERANDS$;

const DENSE_STRIDES: array<i32, $RANK$> = $DENSE_STRIDES$;
const STRIDES: array<array<i32, $RANK$>, $OPERANDS$> = $STRIDES$;

fn fast_div(a: i32, b: i32) -> i32 {
    if ((b & (b - 1)) == 0) {
        return a >> u32(firstTrailingBit(b));
    }
    return a / b;
}

fn fast_mod(a: i32, b: i32) -> i32 {
    if ((b & (b - 1)) == 0) {
        return a & (b - 1);
    }
    return a % b;
}

@compute @workgroup_size($WORKGROUP_SIZE$)
fn main(
    @builtin(global_invocation_id) gid: vec3<u32>,
    @builtin(num_workgroups) nwg: vec3<u32>,
) {
    let total = i32(nwg.x) * $WORKGROUP_SIZE$;
    var dense = DENSE_STRIDES;
    var strides = STRIDES;

    for (var flat = i32(gid.x); flat < SIZE; flat = flat + total) {
        var left = flat;
        var offsets = array<i32, $OPERANDS$>();
        for (var axis = 0; axis < RANK; axis = axis + 1) {
            let index = fast_div(left, dense[axis]);
            left = fast_mod(left, dense[axis]);
            for (var operand = 0; operand < OPERANDS; operand = operand + 1) {
                offsets[operand] = offsets[operand] + index * strides[operand][axis];
            }
        }
        $OPERATION$
    }
}
`
