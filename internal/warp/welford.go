// Package warp models a 32-wide SIMD group ("warp") on the host: the
// streaming mean/variance accumulator each lane maintains, and the
// butterfly reduction that merges the 32 lane-local accumulators into
// exact row statistics. The WGSL layer-norm kernel executes the same
// arithmetic on the device; this package is the lane-accurate reference
// and the engine behind the CPU backend.
package warp

import "math"

// Width is the number of lanes in a group.
const Width = 32

// Accumulator is a streaming (count, mean, m2) triple maintained with
// Welford's online update. m2/count is the population variance of the
// values folded so far; the triple is meaningful only after at least one
// Add.
type Accumulator struct {
	Count float32
	Mean  float32
	M2    float32
}

// Add folds one value into the accumulator. The m2 term uses the updated
// mean; this is what makes the single-pass variance stable against the
// cancellation that sum(x^2) - mean^2 suffers.
func (a *Accumulator) Add(x float32) {
	a.Count++
	delta := x - a.Mean
	a.Mean += delta / a.Count
	a.M2 += delta * (x - a.Mean)
}

// Merge folds another accumulator into this one using the parallel Welford
// combination formula. The factor computation divides by the combined
// count; when both counts are zero that is 0/0, and the NaN is replaced
// with 0 so that merging two empty accumulators is a no-op. This is the
// only guarded numerical edge case in the whole reduction.
func (a *Accumulator) Merge(b Accumulator) {
	delta := b.Mean - a.Mean
	factor := b.Count / (a.Count + b.Count)
	if math.IsNaN(float64(factor)) {
		factor = 0
	}
	a.Mean += delta * factor
	a.M2 += b.M2 + delta*delta*a.Count*factor
	a.Count += b.Count
}

// Variance returns the population variance m2/count. NaN when no values
// have been folded.
func (a Accumulator) Variance() float32 {
	return a.M2 / a.Count
}

// Reduce merges the 32 lane-local accumulators with a log-step butterfly
// at offsets 16, 8, 4, 2, 1: at each step lane l receives lane l+offset's
// pre-step triple. After 5 steps lane 0 holds the exact statistics of
// everything the group folded, which is what Reduce returns. The snapshot
// per step models the lock-step value exchange of a hardware shuffle.
func Reduce(lanes *[Width]Accumulator) Accumulator {
	for offset := Width / 2; offset >= 1; offset /= 2 {
		snapshot := *lanes
		for l := 0; l+offset < Width; l++ {
			lanes[l].Merge(snapshot[l+offset])
		}
	}
	return lanes[0]
}
