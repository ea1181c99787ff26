//go:build windows

package webgpu

import (
	"fmt"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/halcyon-ml/autokernel/internal/kernel"
)

// RunElementwise specializes, compiles (or fetches from cache) and
// dispatches the strided elementwise kernel, then reads the operands
// named in spec.Outputs back into their slices.
func (b *Backend) RunElementwise(spec *kernel.ElementwiseSpec, op kernel.Op, bufs [][]float32) error {
	if len(bufs) != spec.Operands() {
		return fmt.Errorf("webgpu: elementwise needs %d operand buffers, got %d", spec.Operands(), len(bufs))
	}

	src, err := spec.Specialize(op)
	if err != nil {
		return err
	}
	pipeline := b.getOrCreatePipeline(src)

	gpuBufs := make([]*wgpu.Buffer, len(bufs))
	entries := make([]wgpu.BindGroupEntry, len(bufs))
	for i, data := range bufs {
		raw := float32Bytes(data)
		buf := b.createBuffer(raw, wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc|wgpu.BufferUsageCopyDst)
		defer buf.Release()
		gpuBufs[i] = buf
		//nolint:gosec // G115: Safe conversion, buffer length is non-negative
		entries[i] = wgpu.BufferBindingEntry(uint32(i), buf, 0, uint64(len(raw)))
	}

	bindGroupLayout := pipeline.GetBindGroupLayout(0)
	bindGroup := b.device.CreateBindGroupSimple(bindGroupLayout, entries)
	defer bindGroup.Release()

	b.dispatch(pipeline, bindGroup, src.Workgroups)

	for _, o := range spec.Outputs {
		raw, err := b.readBuffer(gpuBufs[o], uint64(len(bufs[o])*4))
		if err != nil {
			return err
		}
		copy(float32Bytes(bufs[o]), raw)
	}

	return nil
}

// RunLayerNorm specializes, compiles (or fetches from cache) and
// dispatches the fused layer-norm kernel. Eps is a runtime uniform, so
// varying it never recompiles.
func (b *Backend) RunLayerNorm(spec *kernel.LayerNormSpec, input, output []float32, eps float32) error {
	src, err := spec.Specialize()
	if err != nil {
		return err
	}
	pipeline := b.getOrCreatePipeline(src)

	inputBuf := b.createBuffer(float32Bytes(input), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer inputBuf.Release()

	outputBuf := b.createBuffer(float32Bytes(output), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc|wgpu.BufferUsageCopyDst)
	defer outputBuf.Release()

	paramsBuf := b.createUniformBuffer(epsParams(eps))
	defer paramsBuf.Release()

	bindGroupLayout := pipeline.GetBindGroupLayout(0)
	bindGroup := b.device.CreateBindGroupSimple(bindGroupLayout, []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, inputBuf, 0, uint64(len(input)*4)),
		wgpu.BufferBindingEntry(1, outputBuf, 0, uint64(len(output)*4)),
		wgpu.BufferBindingEntry(2, paramsBuf, 0, 16),
	})
	defer bindGroup.Release()

	b.dispatch(pipeline, bindGroup, src.Workgroups)

	raw, err := b.readBuffer(outputBuf, uint64(len(output)*4))
	if err != nil {
		return err
	}
	copy(float32Bytes(output), raw)

	return nil
}

// dispatch records and submits a single compute pass.
func (b *Backend) dispatch(pipeline *wgpu.ComputePipeline, bindGroup *wgpu.BindGroup, workgroups int) {
	encoder := b.device.CreateCommandEncoder(nil)
	computePass := encoder.BeginComputePass(nil)

	computePass.SetPipeline(pipeline)
	computePass.SetBindGroup(0, bindGroup, nil)
	//nolint:gosec // G115: Safe conversion, workgroup count is non-negative
	computePass.DispatchWorkgroups(uint32(workgroups), 1, 1)
	computePass.End()

	cmdBuffer := encoder.Finish(nil)
	b.queue.Submit(cmdBuffer)
}
