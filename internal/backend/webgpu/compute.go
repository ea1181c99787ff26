//go:build windows

package webgpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/halcyon-ml/autokernel/internal/kernel"
)

// getOrCreatePipeline compiles a kernel source into a compute pipeline,
// caching both the shader module and the pipeline under the source's key.
func (b *Backend) getOrCreatePipeline(src *kernel.Source) *wgpu.ComputePipeline {
	b.mu.RLock()
	if pipeline, exists := b.pipelines[src.Key]; exists {
		b.mu.RUnlock()
		return pipeline
	}
	b.mu.RUnlock()

	shader := b.device.CreateShaderModuleWGSL(src.WGSL)
	pipeline := b.device.CreateComputePipelineSimple(nil, shader, "main")

	b.mu.Lock()
	b.shaders[src.Key] = shader
	b.pipelines[src.Key] = pipeline
	b.mu.Unlock()

	return pipeline
}

// createBuffer creates a GPU buffer and uploads initial data.
func (b *Backend) createBuffer(data []byte, usage wgpu.BufferUsage) *wgpu.Buffer {
	size := uint64(len(data))

	buffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            usage,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})

	mappedPtr := buffer.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	copy(mappedSlice, data)
	buffer.Unmap()

	return buffer
}

// createUniformBuffer creates a uniform buffer with 16-byte alignment.
func (b *Backend) createUniformBuffer(data []byte) *wgpu.Buffer {
	size := uint64(len(data))
	alignedSize := (size + 15) &^ 15

	buffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		Size:             alignedSize,
		MappedAtCreation: wgpu.True,
	})

	mappedPtr := buffer.GetMappedRange(0, alignedSize)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), alignedSize)
	copy(mappedSlice, data)
	buffer.Unmap()

	return buffer
}

// readBuffer reads data back from a GPU buffer to CPU memory through a
// pooled staging buffer (storage buffers can't be mapped directly).
func (b *Backend) readBuffer(srcBuffer *wgpu.Buffer, size uint64) ([]byte, error) {
	const stagingUsage = wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst
	stagingBuffer := b.stagingPool.Acquire(size, stagingUsage)
	defer b.stagingPool.Release(stagingBuffer, size, stagingUsage)

	encoder := b.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(srcBuffer, 0, stagingBuffer, 0, size)
	cmdBuffer := encoder.Finish(nil)
	b.queue.Submit(cmdBuffer)

	err := stagingBuffer.MapAsync(b.device, wgpu.MapModeRead, 0, size)
	if err != nil {
		return nil, fmt.Errorf("failed to map staging buffer: %w", err)
	}

	mappedPtr := stagingBuffer.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	result := make([]byte, size)
	copy(result, mappedSlice)

	stagingBuffer.Unmap()

	return result, nil
}

// float32Bytes reinterprets a float32 slice as bytes for buffer upload.
func float32Bytes(values []float32) []byte {
	if len(values) == 0 {
		return nil
	}
	//nolint:gosec // unsafe.Slice for zero-copy reinterpretation
	return unsafe.Slice((*byte)(unsafe.Pointer(&values[0])), len(values)*4)
}

// epsParams packs the layer-norm eps uniform with 16-byte alignment.
func epsParams(eps float32) []byte {
	params := make([]byte, 16)
	binary.LittleEndian.PutUint32(params[0:4], math.Float32bits(eps))
	return params
}
