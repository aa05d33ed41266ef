// SPDX-License-Identifier: MIT
// Package history provides fixed-capacity level histories written by the
// audio callback and read by observers for plotting.
package history

import (
	"math"
	"sync/atomic"
)

// DefaultCapacity is the number of buffers kept per history (~1s at 10ms).
const DefaultCapacity = 100

// Ring is a single-producer circular buffer of float32 samples. Push is
// wait-free; Snapshot may observe a slot being overwritten concurrently,
// which only makes the newest point stale by one buffer.
type Ring struct {
	slots []atomic.Uint32
	count atomic.Uint64 // total pushes; cursor is count % len(slots)
}

// New returns a ring holding the most recent capacity samples. It panics if
// capacity < 1.
func New(capacity int) *Ring {
	if capacity < 1 {
		panic("history: capacity must be positive")
	}
	return &Ring{slots: make([]atomic.Uint32, capacity)}
}

// Cap returns the fixed capacity.
func (r *Ring) Cap() int { return len(r.slots) }

// Count returns the number of values pushed so far.
func (r *Ring) Count() uint64 { return r.count.Load() }

// Cursor returns the slot the next Push will write.
func (r *Ring) Cursor() int {
	return int(r.count.Load() % uint64(len(r.slots)))
}

// Push stores v at the cursor, overwriting the oldest value, and advances
// the cursor. Only one goroutine may push.
func (r *Ring) Push(v float32) {
	n := r.count.Load()
	r.slots[n%uint64(len(r.slots))].Store(math.Float32bits(v))
	r.count.Store(n + 1)
}

// Latest returns the most recently pushed value, or 0 if nothing was pushed.
func (r *Ring) Latest() float32 {
	n := r.count.Load()
	if n == 0 {
		return 0
	}
	return math.Float32frombits(r.slots[(n-1)%uint64(len(r.slots))].Load())
}

// Snapshot appends Cap() values to dst[:0], ordered oldest to newest, and
// returns the slice together with the write cursor. Slots that were never
// written read as 0. Pass a slice with enough capacity to avoid allocating.
func (r *Ring) Snapshot(dst []float32) ([]float32, int) {
	size := uint64(len(r.slots))
	n := r.count.Load()
	cursor := int(n % size)

	dst = dst[:0]
	for i := range len(r.slots) {
		slot := (cursor + i) % len(r.slots)
		dst = append(dst, math.Float32frombits(r.slots[slot].Load()))
	}
	return dst, cursor
}
