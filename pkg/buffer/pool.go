// Package buffer provides the scoped scratch-buffer pool the node graph
// uses to route signal along edges without allocating inside the audio
// callback: an N-buffer bag that's acquired and released once per
// process call, generalized from a fixed pair of work/temp buffers.
package buffer

import "fmt"

// Pool hands out fixed-size float32 buffers for the duration of one
// InstrumentGraph.Process call. All buffers are pre-allocated at
// construction time; Acquire/Release only manipulate a free list, so
// neither allocates.
type Pool struct {
	size     int
	buffers  [][]float32
	free     []int
	acquired map[int]bool
}

// NewPool preallocates count buffers of size samples each. size should be
// the graph's max block size times its edge channel count (2 for stereo
// edges, 1 for mono CV edges use a separate pool instance).
func NewPool(count, size int) *Pool {
	p := &Pool{
		size:     size,
		buffers:  make([][]float32, count),
		free:     make([]int, count),
		acquired: make(map[int]bool, count),
	}
	for i := range p.buffers {
		p.buffers[i] = make([]float32, size)
		p.free[i] = count - 1 - i
	}
	return p
}

// Acquire reserves a zeroed buffer and returns its handle. Panics if the
// pool is exhausted — this is a graph-sizing bug (too many simultaneously
// live edges for the scheduler's topology), not a runtime condition to
// recover from inside the callback.
func (p *Pool) Acquire() int {
	if len(p.free) == 0 {
		panic(fmt.Sprintf("buffer: pool exhausted (capacity %d)", len(p.buffers)))
	}
	idx := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]
	p.acquired[idx] = true
	b := p.buffers[idx]
	for i := range b {
		b[i] = 0
	}
	return idx
}

// Buffer returns the underlying slice for a handle returned by Acquire.
func (p *Pool) Buffer(handle int) []float32 {
	return p.buffers[handle]
}

// Release returns a buffer to the free list.
func (p *Pool) Release(handle int) {
	if !p.acquired[handle] {
		return
	}
	delete(p.acquired, handle)
	p.free = append(p.free, handle)
}

// ReleaseAll returns every outstanding buffer, called once at the end of
// each graph Process so the next block starts from a full free list
// regardless of whether every node along every path released individually.
func (p *Pool) ReleaseAll() {
	for handle := range p.acquired {
		delete(p.acquired, handle)
		p.free = append(p.free, handle)
	}
}

// Outstanding reports how many buffers are currently acquired — used by
// tests asserting the zero-outstanding-after-process invariant.
func (p *Pool) Outstanding() int {
	return len(p.acquired)
}

// Size returns the per-buffer sample count.
func (p *Pool) Size() int { return p.size }
