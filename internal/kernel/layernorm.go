package kernel

import (
	"fmt"

	"github.com/halcyon-ml/autokernel/internal/shape"
	"github.com/halcyon-ml/autokernel/internal/warp"
	"github.com/halcyon-ml/autokernel/internal/wgsl"
)

// LayerNormSpec describes one instantiation of the fused layer-norm
// kernel: STATIC_SIZE independent rows (the product of the outer axes),
// each normalized over NORM_SIZE elements addressed by a possibly
// non-contiguous stride. The normalized axis is excluded from the outer
// shape and handled through NormStrideIn/NormStrideOut.
//
// A tensor with no outer axes (normalize the whole thing) is described as
// a single row: ContiguousLayerNorm(1, n).
type LayerNormSpec struct {
	OuterShape    shape.Shape
	InputStrides  []int // per outer axis, input element strides
	OutputStrides []int // per outer axis, output element strides
	NormSize      int
	NormStrideIn  int
	NormStrideOut int
}

// ContiguousLayerNorm builds the common case: rows of normSize contiguous
// elements, input and output laid out identically.
func ContiguousLayerNorm(rows, normSize int) *LayerNormSpec {
	return &LayerNormSpec{
		OuterShape:    shape.Shape{rows},
		InputStrides:  []int{normSize},
		OutputStrides: []int{normSize},
		NormSize:      normSize,
		NormStrideIn:  1,
		NormStrideOut: 1,
	}
}

// StaticSize returns the number of independent rows.
func (s *LayerNormSpec) StaticSize() int { return s.OuterShape.NumElements() }

// OuterRank returns the number of outer axes.
func (s *LayerNormSpec) OuterRank() int { return len(s.OuterShape) }

// CacheSize returns the per-lane value cache capacity: each of the 32
// lanes holds every NORM_SIZE/32-th element it loads so the write-back
// pass never re-reads input memory.
func (s *LayerNormSpec) CacheSize() int {
	if s.NormSize < warp.Width {
		return 1
	}
	return ceilDiv(s.NormSize, warp.Width)
}

// Validate checks structural consistency. NormSize == 0 is left alone: the
// reduction then divides 0 by 0 and the NaN propagates to the output,
// matching the device kernel's (undefined) behavior.
func (s *LayerNormSpec) Validate() error {
	if len(s.OuterShape) == 0 {
		return fmt.Errorf("layernorm: outer rank must be at least 1")
	}
	if err := s.OuterShape.Validate(); err != nil {
		return fmt.Errorf("layernorm: %w", err)
	}
	if len(s.InputStrides) != len(s.OuterShape) || len(s.OutputStrides) != len(s.OuterShape) {
		return fmt.Errorf("layernorm: outer rank %d, got %d input and %d output strides",
			len(s.OuterShape), len(s.InputStrides), len(s.OutputStrides))
	}
	if s.NormSize < 0 {
		return fmt.Errorf("layernorm: negative norm size %d", s.NormSize)
	}
	return nil
}

// Key returns the cache key for this specialization.
func (s *LayerNormSpec) Key() string {
	return fmt.Sprintf("layernorm|outer=%s|norm=%d|in=%s,%d|out=%s,%d",
		intSig(s.OuterShape), s.NormSize,
		intSig(s.InputStrides), s.NormStrideIn,
		intSig(s.OutputStrides), s.NormStrideOut)
}

// Specialize bakes the spec into WGSL source. Eps stays a runtime uniform,
// so one compiled kernel serves every eps value for the same shape.
func (s *LayerNormSpec) Specialize() (*Source, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	src, err := wgsl.Fill(layerNormTemplate, []wgsl.Replacement{
		{Key: "$RANK$", Value: wgsl.Int(s.OuterRank())},
		{Key: "$STATIC_SIZE$", Value: wgsl.Int(s.StaticSize())},
		{Key: "$NORM_SIZE$", Value: wgsl.Int(s.NormSize)},
		{Key: "$CACHE_SIZE$", Value: wgsl.Int(s.CacheSize())},
		{Key: "$DENSE_STRIDES$", Value: wgsl.ArrayLit(s.OuterShape.DenseStrides())},
		{Key: "$STRIDES$", Value: wgsl.NestedArrayLit([][]int{s.InputStrides, s.OutputStrides})},
		{Key: "$NORM_STRIDES$", Value: wgsl.ArrayLit([]int{s.NormStrideIn, s.NormStrideOut})},
	})
	if err != nil {
		return nil, fmt.Errorf("layernorm: %w", err)
	}

	return &Source{
		Key:           s.Key(),
		Name:          "layernorm",
		WGSL:          src,
		WorkgroupSize: warp.Width,
		Workgroups:    s.StaticSize(),
	}, nil
}

// layerNormTemplate fuses load+stat, reduce and normalize+store into one
// launch. One 32-wide workgroup is bound to one row. Each lane strides
// through its share of the row folding values into a local Welford triple
// and caching the raw loads; the 32 triples are merged with a 5-step
// butterfly through workgroup memory (the portable stand-in for warp
// shuffles); lane 0's mean and denominator are broadcast back the same
// way; the write-back pass reads the lane caches, never input memory.
// The only numerical guard is the 0/0 -> 0 factor in the merge.
const layerNormTemplate = `// layernorm (generated; do not edit)
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read_write> output: array<f32>;

struct Params {
    eps: f32,
}
@group(0) @binding(2) var<uniform> params: Params;

const RANK: i32 = $RANK$;
const STATIC_SIZE: i32 = $STATIC_SIZE$;
const NORM_SIZE: i32 = $NORM_SIZE$;
const WARP: i32 = 32;

const DENSE_STRIDES: array<i32, $RANK$> = $DENSE_STRIDES$;
const STRIDES: array<array<i32, $RANK$>, 2> = $STRIDES$;
const NORM_STRIDES: array<i32, 2> = $NORM_STRIDES$;

var<workgroup> lane_count: array<f32, 32>;
var<workgroup> lane_mean: array<f32, 32>;
var<workgroup> lane_m2: array<f32, 32>;
var<workgroup> row_mean: f32;
var<workgroup> row_denom: f32;

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

@compute @workgroup_size(32)
fn main(
    @builtin(workgroup_id) wid: vec3<u32>,
    @builtin(local_invocation_id) lid: vec3<u32>,
) {
    let row = i32(wid.x);
    let lane = i32(lid.x);
    if (row >= STATIC_SIZE) {
        return;
    }

    var dense = DENSE_STRIDES;
    var strides = STRIDES;
    var left = row;
    var base = array<i32, 2>();
    for (var axis = 0; axis < RANK; axis = axis + 1) {
        let index = fast_div(left, dense[axis]);
        left = fast_mod(left, dense[axis]);
        base[0] = base[0] + index * strides[0][axis];
        base[1] = base[1] + index * strides[1][axis];
    }

    var cache = array<f32, $CACHE_SIZE$>();
    var count = 0.0;
    var mean = 0.0;
    var m2 = 0.0;
    var slot = 0;
    for (var i = lane; i < NORM_SIZE; i = i + WARP) {
        let x = input[base[0] + i * NORM_STRIDES[0]];
        cache[slot] = x;
        slot = slot + 1;
        count = count + 1.0;
        let delta = x - mean;
        mean = mean + delta / count;
        m2 = m2 + delta * (x - mean);
    }

    for (var offset = 16; offset >= 1; offset = offset / 2) {
        lane_count[lane] = count;
        lane_mean[lane] = mean;
        lane_m2[lane] = m2;
        workgroupBarrier();
        let src = lane + offset;
        if (src < WARP) {
            let count_b = lane_count[src];
            let mean_b = lane_mean[src];
            let m2_b = lane_m2[src];
            let delta = mean_b - mean;
            let total = count + count_b;
            var factor = 0.0;
            if (total > 0.0) {
                factor = count_b / total;
            }
            mean = mean + delta * factor;
            m2 = m2 + m2_b + delta * delta * count * factor;
            count = total;
        }
        workgroupBarrier();
    }

    if (lane == 0) {
        row_mean = mean;
        row_denom = sqrt(m2 / count + params.eps);
    }
    workgroupBarrier();
    let final_mean = row_mean;
    let final_denom = row_denom;

    slot = 0;
    for (var i = lane; i < NORM_SIZE; i = i + WARP) {
        output[base[1] + i * NORM_STRIDES[1]] = (cache[slot] - final_mean) / final_denom;
        slot = slot + 1;
    }
}
`
