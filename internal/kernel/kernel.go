// Package kernel generates specialized WGSL compute kernels for strided
// tensor operations. Shapes, stride tables and the elementwise operation
// body are baked into the shader source as constants at specialization
// time; the resulting Source carries everything a backend needs to compile,
// cache and dispatch the kernel.
//
// Two kernels are produced: a strided elementwise kernel polymorphic over
// an injected operation (ElementwiseSpec), and a fused layer-normalization
// kernel (LayerNormSpec). Both resolve memory offsets the same way: a flat
// logical index is decomposed into axis indices by repeated division with
// dense strides, and each operand's offset is the dot product of the axis
// indices with that operand's stride vector.
package kernel

import (
	"fmt"
	"strings"
)

// Source is a specialized kernel ready for compilation. The entry point of
// the generated shader is always "main"; Name describes the specialization
// for diagnostics, and Key identifies it in compiled-pipeline caches.
type Source struct {
	Key           string
	Name          string
	WGSL          string
	WorkgroupSize int
	Workgroups    int // x-dimension workgroup count covering a full launch
}

// elementwiseWorkgroupSize is the thread count per workgroup for the
// elementwise kernel. The grid-stride loop keeps the kernel correct for
// any dispatch size, so this is a throughput choice, not a correctness one.
const elementwiseWorkgroupSize = 256

func ceilDiv(x, y int) int {
	return (x + y - 1) / y
}

// strideSig renders a stride table compactly for cache keys.
func strideSig(strides [][]int) string {
	var b strings.Builder
	for i, s := range strides {
		if i > 0 {
			b.WriteByte(';')
		}
		for j, v := range s {
			if j > 0 {
				b.WriteByte(',')
			}
			fmt.Fprintf(&b, "%d", v)
		}
	}
	return b.String()
}

func intSig(values []int) string {
	var b strings.Builder
	for i, v := range values {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%d", v)
	}
	return b.String()
}
