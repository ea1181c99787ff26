//go:build windows

package webgpu

import (
	"sync"

	"github.com/go-webgpu/webgpu/wgpu"
)

const (
	smallThreshold  = 4 * 1024    // 4KB
	mediumThreshold = 1024 * 1024 // 1MB
	maxPoolSize     = 32          // Max buffers per category
)

// pooledBuffer wraps a GPU buffer with metadata.
type pooledBuffer struct {
	buffer *wgpu.Buffer
	size   uint64
	usage  wgpu.BufferUsage
}

// BufferPool reuses GPU buffers across kernel launches to reduce
// allocation overhead, mainly for the staging buffers every readback
// needs. Buffers are categorized by size and matched on usage flags.
type BufferPool struct {
	device *wgpu.Device

	small  []*pooledBuffer
	medium []*pooledBuffer
	large  []*pooledBuffer

	mu sync.Mutex

	hits   uint64
	misses uint64
}

// NewBufferPool creates a new buffer pool for the given device.
func NewBufferPool(device *wgpu.Device) *BufferPool {
	return &BufferPool{device: device}
}

// Acquire gets a buffer from the pool or creates a new one. The returned
// buffer matches or exceeds the requested size and carries at least the
// requested usage flags.
func (p *BufferPool) Acquire(size uint64, usage wgpu.BufferUsage) *wgpu.Buffer {
	p.mu.Lock()
	defer p.mu.Unlock()

	pool := p.pool(size)
	for i, pb := range *pool {
		if pb.size >= size && pb.usage&usage == usage {
			buffer := pb.buffer
			*pool = append((*pool)[:i], (*pool)[i+1:]...)
			p.hits++
			return buffer
		}
	}

	p.misses++
	return p.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: usage,
		Size:  size,
	})
}

// Release returns a buffer to the pool for reuse. If the pool category is
// full, the buffer is released immediately.
func (p *BufferPool) Release(buffer *wgpu.Buffer, size uint64, usage wgpu.BufferUsage) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pool := p.pool(size)
	if len(*pool) >= maxPoolSize {
		buffer.Release()
		return
	}
	*pool = append(*pool, &pooledBuffer{buffer: buffer, size: size, usage: usage})
}

// Clear releases every pooled buffer.
func (p *BufferPool) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, pool := range []*[]*pooledBuffer{&p.small, &p.medium, &p.large} {
		for _, pb := range *pool {
			pb.buffer.Release()
		}
		*pool = nil
	}
}

// Stats returns pool hit/miss counters.
func (p *BufferPool) Stats() (hits, misses uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hits, p.misses
}

func (p *BufferPool) pool(size uint64) *[]*pooledBuffer {
	switch {
	case size < smallThreshold:
		return &p.small
	case size < mediumThreshold:
		return &p.medium
	default:
		return &p.large
	}
}
