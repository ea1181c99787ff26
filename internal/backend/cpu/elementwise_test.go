package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyon-ml/autokernel/internal/kernel"
	"github.com/halcyon-ml/autokernel/internal/parallel"
	"github.com/halcyon-ml/autokernel/internal/shape"
)

func TestElementwiseAdd(t *testing.T) {
	engine := New()

	a := []float32{1, 2, 3, 4}
	b := []float32{10, 20, 30, 40}
	out := make([]float32, 4)

	spec := kernel.Contiguous(shape.Shape{4}, 3, []int{2})
	require.NoError(t, engine.Elementwise(spec, Add, [][]float32{a, b, out}))

	assert.Equal(t, []float32{11, 22, 33, 44}, out)
}

// With contiguous strides the resolved offset must equal the flat index:
// writing the input offset through a dense output reproduces the identity.
func TestElementwiseContiguousOffsetEqualsFlatIndex(t *testing.T) {
	engine := New()

	for _, s := range []shape.Shape{{7}, {4, 8}, {3, 4, 5}} {
		spec := kernel.Contiguous(s, 2, []int{1})
		out := make([]float32, s.NumElements())
		in := make([]float32, s.NumElements())

		record := func(bufs [][]float32, o []int) {
			bufs[1][o[1]] = float32(o[0])
		}
		require.NoError(t, engine.Elementwise(spec, record, [][]float32{in, out}))

		for flat, v := range out {
			assert.Equal(t, float32(flat), v, "shape %v flat %d", s, flat)
		}
	}
}

func TestElementwiseBroadcast(t *testing.T) {
	engine := New()

	// a is (2, 3); b is a row vector broadcast down both rows.
	a := []float32{1, 2, 3, 4, 5, 6}
	b := []float32{10, 20, 30}
	out := make([]float32, 6)

	bStrides, err := shape.BroadcastStrides(shape.Shape{2, 3}, shape.Shape{3}, []int{1})
	require.NoError(t, err)

	spec := &kernel.ElementwiseSpec{
		Shape:          shape.Shape{2, 3},
		OperandStrides: [][]int{{3, 1}, bStrides, {3, 1}},
		Outputs:        []int{2},
	}
	require.NoError(t, engine.Elementwise(spec, Add, [][]float32{a, b, out}))

	assert.Equal(t, []float32{11, 22, 33, 14, 25, 36}, out)
}

func TestElementwiseTransposedInput(t *testing.T) {
	engine := New()

	// Logical space (2, 3); input stored column-major (strides 1, 2), so a
	// plain copy materializes the transpose into a dense output.
	in := []float32{
		// stored as 3 rows of 2: element (i, j) lives at j*2 + i
		11, 21,
		12, 22,
		13, 23,
	}
	out := make([]float32, 6)

	spec := &kernel.ElementwiseSpec{
		Shape:          shape.Shape{2, 3},
		OperandStrides: [][]int{{1, 2}, {3, 1}},
		Outputs:        []int{1},
	}
	require.NoError(t, engine.Elementwise(spec, Copy, [][]float32{in, out}))

	assert.Equal(t, []float32{11, 12, 13, 21, 22, 23}, out)
}

// The grid-stride partitioning must produce identical results for any
// worker count, including degenerate ones.
func TestElementwiseWorkerCountInvariance(t *testing.T) {
	n := 1000
	a := make([]float32, n)
	b := make([]float32, n)
	for i := range a {
		a[i] = float32(i)
		b[i] = float32(2 * i)
	}
	spec := kernel.Contiguous(shape.Shape{n}, 3, []int{2})

	reference := make([]float32, n)
	seq := NewWithConfig(parallel.Config{Enabled: false})
	require.NoError(t, seq.Elementwise(spec, Add, [][]float32{a, b, reference}))

	for _, workers := range []int{1, 3, 16, 61} {
		engine := NewWithConfig(parallel.Config{Enabled: true, NumWorkers: workers, MinWork: 1})
		out := make([]float32, n)
		require.NoError(t, engine.Elementwise(spec, Add, [][]float32{a, b, out}))
		assert.Equal(t, reference, out, "workers=%d", workers)
	}
}

func TestElementwiseOperandCountMismatch(t *testing.T) {
	engine := New()
	spec := kernel.Contiguous(shape.Shape{4}, 3, []int{2})
	err := engine.Elementwise(spec, Add, [][]float32{make([]float32, 4)})
	assert.Error(t, err)
}

func TestElementwiseInvalidSpec(t *testing.T) {
	engine := New()
	spec := &kernel.ElementwiseSpec{Shape: shape.Shape{4}, OperandStrides: [][]int{{1, 1}}}
	err := engine.Elementwise(spec, Copy, [][]float32{make([]float32, 4)})
	assert.Error(t, err)
}
