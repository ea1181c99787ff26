package cpu

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"

	"github.com/halcyon-ml/autokernel/internal/kernel"
	"github.com/halcyon-ml/autokernel/internal/shape"
)

// twoPassNorm is the straightforward reference: separate mean, variance
// and normalize passes in float64.
func twoPassNorm(row []float32, eps float64) []float64 {
	ref := make([]float64, len(row))
	for i, x := range row {
		ref[i] = float64(x)
	}
	mean := stat.Mean(ref, nil)
	variance := stat.PopVariance(ref, nil)
	out := make([]float64, len(ref))
	for i, x := range ref {
		out[i] = (x - mean) / math.Sqrt(variance+eps)
	}
	return out
}

func TestLayerNormSingleRow(t *testing.T) {
	engine := New()

	input := []float32{1, 2, 3, 4}
	output := make([]float32, 4)

	spec := kernel.ContiguousLayerNorm(1, 4)
	require.NoError(t, engine.LayerNorm(spec, input, output, 0))

	// mean = 2.5, population variance = 1.25
	want := []float32{-1.3416, -0.4472, 0.4472, 1.3416}
	for i := range want {
		assert.InDelta(t, want[i], output[i], 1e-4)
	}
}

// Identical inputs give zero variance; eps must floor the denominator so
// the output is all zeros rather than NaN or Inf.
func TestLayerNormConstantRow(t *testing.T) {
	engine := New()

	input := []float32{5, 5, 5, 5}
	output := make([]float32, 4)

	spec := kernel.ContiguousLayerNorm(1, 4)
	require.NoError(t, engine.LayerNorm(spec, input, output, 1e-8))

	for i, v := range output {
		assert.False(t, math.IsNaN(float64(v)), "NaN at %d", i)
		assert.False(t, math.IsInf(float64(v), 0), "Inf at %d", i)
		assert.InDelta(t, 0, v, 1e-4)
	}
}

// Each output row must have mean ~0 and population variance ~1 when eps
// is negligible. NORM_SIZE deliberately not a multiple of 32 so the tail
// lanes run shorter loops.
func TestLayerNormOutputStatistics(t *testing.T) {
	engine := New()
	rng := rand.New(rand.NewSource(11))

	rows, normSize := 4, 100
	input := make([]float32, rows*normSize)
	for i := range input {
		input[i] = rng.Float32()*6 - 3
	}
	output := make([]float32, len(input))

	spec := kernel.ContiguousLayerNorm(rows, normSize)
	require.NoError(t, engine.LayerNorm(spec, input, output, 1e-10))

	for r := 0; r < rows; r++ {
		row := output[r*normSize : (r+1)*normSize]
		ref := make([]float64, len(row))
		for i, x := range row {
			ref[i] = float64(x)
		}
		assert.InDelta(t, 0, stat.Mean(ref, nil), 1e-5, "row %d mean", r)
		assert.InDelta(t, 1, stat.PopVariance(ref, nil), 1e-3, "row %d variance", r)
	}
}

func TestLayerNormMatchesTwoPassReference(t *testing.T) {
	engine := New()
	rng := rand.New(rand.NewSource(5))

	rows, normSize := 3, 77
	eps := float32(1e-5)
	input := make([]float32, rows*normSize)
	for i := range input {
		input[i] = 100 + rng.Float32() // ill-conditioned: large mean, small spread
	}
	output := make([]float32, len(input))

	spec := kernel.ContiguousLayerNorm(rows, normSize)
	require.NoError(t, engine.LayerNorm(spec, input, output, eps))

	for r := 0; r < rows; r++ {
		want := twoPassNorm(input[r*normSize:(r+1)*normSize], float64(eps))
		for i, w := range want {
			assert.InDelta(t, w, output[r*normSize+i], 1e-3, "row %d elem %d", r, i)
		}
	}
}

// Column-major input (rows interleaved) must normalize identically to the
// same data laid out contiguously.
func TestLayerNormStridedInput(t *testing.T) {
	engine := New()
	rng := rand.New(rand.NewSource(17))

	rows, normSize := 2, 8
	dense := make([]float32, rows*normSize)
	for i := range dense {
		dense[i] = rng.Float32()
	}

	// Interleave: element i of row r lives at i*rows + r.
	interleaved := make([]float32, rows*normSize)
	for r := 0; r < rows; r++ {
		for i := 0; i < normSize; i++ {
			interleaved[i*rows+r] = dense[r*normSize+i]
		}
	}

	wantOut := make([]float32, rows*normSize)
	require.NoError(t, engine.LayerNorm(kernel.ContiguousLayerNorm(rows, normSize), dense, wantOut, 1e-6))

	stridedSpec := &kernel.LayerNormSpec{
		OuterShape:    shape.Shape{rows},
		InputStrides:  []int{1},
		OutputStrides: []int{normSize},
		NormSize:      normSize,
		NormStrideIn:  rows,
		NormStrideOut: 1,
	}
	gotOut := make([]float32, rows*normSize)
	require.NoError(t, engine.LayerNorm(stridedSpec, interleaved, gotOut, 1e-6))

	for i := range wantOut {
		assert.InDelta(t, wantOut[i], gotOut[i], 1e-6, "elem %d", i)
	}
}

func TestLayerNormSingleElementRow(t *testing.T) {
	engine := New()

	input := []float32{42}
	output := make([]float32, 1)

	spec := kernel.ContiguousLayerNorm(1, 1)
	require.NoError(t, engine.LayerNorm(spec, input, output, 1e-6))

	// variance 0, x == mean: output is 0 with no NaN.
	assert.InDelta(t, 0, output[0], 1e-6)
}

func TestLayerNormMultiAxisOuter(t *testing.T) {
	engine := New()
	rng := rand.New(rand.NewSource(23))

	// Outer shape (2, 3): 6 rows of 16, contiguous layout.
	outer := shape.Shape{2, 3}
	normSize := 16
	n := outer.NumElements() * normSize
	input := make([]float32, n)
	for i := range input {
		input[i] = rng.Float32() * 10
	}

	flatSpec := kernel.ContiguousLayerNorm(outer.NumElements(), normSize)
	wantOut := make([]float32, n)
	require.NoError(t, engine.LayerNorm(flatSpec, input, wantOut, 1e-6))

	multiSpec := &kernel.LayerNormSpec{
		OuterShape:    outer,
		InputStrides:  []int{3 * normSize, normSize},
		OutputStrides: []int{3 * normSize, normSize},
		NormSize:      normSize,
		NormStrideIn:  1,
		NormStrideOut: 1,
	}
	gotOut := make([]float32, n)
	require.NoError(t, engine.LayerNorm(multiSpec, input, gotOut, 1e-6))

	assert.Equal(t, wantOut, gotOut)
}

func TestLayerNormInvalidSpec(t *testing.T) {
	engine := New()
	spec := &kernel.LayerNormSpec{OuterShape: shape.Shape{2}, InputStrides: []int{1, 2}, OutputStrides: []int{1}}
	assert.Error(t, engine.LayerNorm(spec, nil, nil, 0))
}
