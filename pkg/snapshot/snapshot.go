// Package snapshot implements the windowed-read consumer API (§4 SnapshotAPI)
// over a registry of per-signal sample rings.
package snapshot

import (
	"sync"

	"github.com/retromux/hotaslink/pkg/sample"
	"github.com/retromux/hotaslink/pkg/sigkey"
)

// Registry holds one Ring per discovered signal. It is created once at
// startup; the acquisition core is the sole writer of each Ring, while any
// number of readers may call the Registry's read methods concurrently.
type Registry struct {
	mu    sync.RWMutex
	rings map[sigkey.Key]*sample.Ring
}

func NewRegistry() *Registry {
	return &Registry{rings: make(map[sigkey.Key]*sample.Ring)}
}

// Register creates (or returns the existing) ring for key with the given
// capacity. Capacity is rounded up to a power of two.
func (r *Registry) Register(key sigkey.Key, capacity int) *sample.Ring {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.rings[key]; ok {
		return existing
	}
	ring := sample.NewRing(sample.NextPow2(capacity))
	r.rings[key] = ring
	return ring
}

// Ring returns the ring for key, or nil if the signal is unknown.
func (r *Registry) Ring(key sigkey.Key) *sample.Ring {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rings[key]
}

// Keys returns all registered signal keys.
func (r *Registry) Keys() []sigkey.Key {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]sigkey.Key, 0, len(r.rings))
	for k := range r.rings {
		out = append(out, k)
	}
	return out
}

// Read performs a windowed read of one signal. ok is false if the signal is
// unknown.
func (r *Registry) Read(key sigkey.Key, latestTime, windowSeconds float64) (samples []sample.Sample, ok bool) {
	ring := r.Ring(key)
	if ring == nil {
		return nil, false
	}
	return ring.Snapshot(latestTime, windowSeconds), true
}

// ReadWithBaseline is Read but includes the pre-window baseline sample used
// to reconstruct digital-signal edges (§4.1, "baseline sample").
func (r *Registry) ReadWithBaseline(key sigkey.Key, latestTime, windowSeconds float64) (samples []sample.Sample, ok bool) {
	ring := r.Ring(key)
	if ring == nil {
		return nil, false
	}
	return ring.SnapshotWithBaseline(latestTime, windowSeconds), true
}
