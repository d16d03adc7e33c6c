// Package sample implements the fixed-capacity, single-writer sample ring
// that every logical HOTAS signal is recorded into.
//
// The ring's producer/consumer shape is adapted from the teacher's APU
// output ring buffer (head/tail indices into a preallocated slice) and
// generalized to the wait-free, power-of-two, single-writer/multi-reader
// design the corpus's lock-free ring-buffer reference (a cache-line-padded
// atomic write cursor) demonstrates for exactly this producer/consumer
// shape.
package sample

import (
	"math/bits"
	"sync/atomic"
)

// Sample is one (time, value) observation of a signal.
type Sample struct {
	T float64 // seconds since process start, monotonic
	V float32
}

// Ring is a fixed-capacity power-of-two ring of Samples. A single writer
// goroutine calls Push; any number of readers call Snapshot/SnapshotWithBaseline
// concurrently. The writer never blocks and never fails.
//
// Readers accept best-effort tearing: a sample near the tail of a snapshot
// may be overwritten mid-read if the writer wraps through it. This is the
// deliberate (a) choice from the design — consumers are visualizers and
// filters that tolerate an occasional duplicated or skipped edge.
type Ring struct {
	capacity uint64
	mask     uint64
	data     []Sample

	writeIndex atomic.Uint64
}

// NewRing creates a ring with the given capacity, which must be a power of
// two and at least 2.
func NewRing(capacity int) *Ring {
	if capacity < 2 || capacity&(capacity-1) != 0 {
		panic("sample: capacity must be a power of two >= 2")
	}
	return &Ring{
		capacity: uint64(capacity),
		mask:     uint64(capacity - 1),
		data:     make([]Sample, capacity),
	}
}

// Capacity returns the ring's fixed slot count.
func (r *Ring) Capacity() int { return int(r.capacity) }

// Push appends one sample. Single-writer only.
func (r *Ring) Push(t float64, v float32) {
	i := r.writeIndex.Add(1) - 1
	r.data[i&r.mask] = Sample{T: t, V: v}
}

// Len reports the logical number of samples currently held, capped at
// capacity.
func (r *Ring) Len() int {
	end := r.writeIndex.Load()
	if end > r.capacity {
		return int(r.capacity)
	}
	return int(end)
}

// bounds returns the oldest logical index still resident and the write cursor.
func (r *Ring) bounds() (start, end uint64) {
	end = r.writeIndex.Load()
	if end > r.capacity {
		start = end - r.capacity
	}
	return start, end
}

// Snapshot copies all samples with t >= latestTime-windowSeconds, in write
// order, bounded by capacity.
func (r *Ring) Snapshot(latestTime, windowSeconds float64) []Sample {
	start, end := r.bounds()
	cutoff := latestTime - windowSeconds
	out := make([]Sample, 0, end-start)
	for i := start; i < end; i++ {
		s := r.data[i&r.mask]
		if s.T >= cutoff {
			out = append(out, s)
		}
	}
	return out
}

// SnapshotWithBaseline is Snapshot but prepends the most recent sample
// strictly before the cutoff, if one exists. If no sample falls inside the
// window but a baseline exists, it returns just the baseline.
func (r *Ring) SnapshotWithBaseline(latestTime, windowSeconds float64) []Sample {
	start, end := r.bounds()
	cutoff := latestTime - windowSeconds

	var baseline *Sample
	var inWindow []Sample
	for i := start; i < end; i++ {
		s := r.data[i&r.mask]
		if s.T < cutoff {
			cp := s
			baseline = &cp
			continue
		}
		inWindow = append(inWindow, s)
	}

	if len(inWindow) == 0 {
		if baseline != nil {
			return []Sample{*baseline}
		}
		return nil
	}
	if baseline == nil {
		return inWindow
	}
	out := make([]Sample, 0, len(inWindow)+1)
	out = append(out, *baseline)
	out = append(out, inWindow...)
	return out
}

// Clear resets the ring. Not concurrent-safe with the writer; callable only
// while acquisition is paused.
func (r *Ring) Clear() {
	r.writeIndex.Store(0)
}

// isPow2 is a small helper kept for callers that size rings dynamically
// (e.g. control-surface window changes that must round up).
func isPow2(n int) bool {
	if n <= 0 {
		return false
	}
	return bits.OnesCount(uint(n)) == 1
}

// NextPow2 rounds n up to the next power of two, minimum 2.
func NextPow2(n int) int {
	if n < 2 {
		return 2
	}
	if isPow2(n) {
		return n
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
