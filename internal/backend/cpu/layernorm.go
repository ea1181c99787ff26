package cpu

import (
	"math"

	"github.com/halcyon-ml/autokernel/internal/fastdiv"
	"github.com/halcyon-ml/autokernel/internal/kernel"
	"github.com/halcyon-ml/autokernel/internal/parallel"
	"github.com/halcyon-ml/autokernel/internal/warp"
)

// LayerNorm normalizes each row of the input to zero mean and unit
// variance, writing (x - mean) / sqrt(variance + eps) to the output
// offsets. It emulates the device kernel lane for lane: 32 lane-local
// Welford accumulators and value caches per row, a butterfly merge of the
// lane triples, lane 0's statistics broadcast, and a write-back pass that
// reads the caches rather than input memory. Rows run in parallel; lanes
// within a row are sequential, which is observationally identical to the
// lock-step hardware execution.
//
// NormSize == 0 is undefined: the final division is 0/0 and the NaN
// simply has no elements to propagate to.
func (e *Engine) LayerNorm(spec *kernel.LayerNormSpec, input, output []float32, eps float32) error {
	if err := spec.Validate(); err != nil {
		return err
	}

	outerDense := spec.OuterShape.DenseStrides()
	outerRank := spec.OuterRank()
	normSize := spec.NormSize
	cacheSize := spec.CacheSize()

	parallel.For(spec.StaticSize(), func(row int) {
		left := row
		baseIn, baseOut := 0, 0
		for axis := 0; axis < outerRank; axis++ {
			index, rem := fastdiv.DivMod(left, outerDense[axis])
			left = rem
			baseIn += index * spec.InputStrides[axis]
			baseOut += index * spec.OutputStrides[axis]
		}

		var lanes [warp.Width]warp.Accumulator
		caches := make([]float32, warp.Width*cacheSize)

		for lane := 0; lane < warp.Width; lane++ {
			slot := lane * cacheSize
			for i := lane; i < normSize; i += warp.Width {
				x := input[baseIn+i*spec.NormStrideIn]
				caches[slot] = x
				slot++
				lanes[lane].Add(x)
			}
		}

		stats := warp.Reduce(&lanes)
		mean := stats.Mean
		denom := float32(math.Sqrt(float64(stats.Variance() + eps)))

		for lane := 0; lane < warp.Width; lane++ {
			slot := lane * cacheSize
			for i := lane; i < normSize; i += warp.Width {
				output[baseOut+i*spec.NormStrideOut] = (caches[slot] - mean) / denom
				slot++
			}
		}
	}, e.cfg)

	return nil
}
