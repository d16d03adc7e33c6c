// Package devicesource ships Synthetic, a scriptable iface.DeviceSource
// that replays a fixed sequence of raw reports per device instead of
// reading real hardware. cmd/hotasmuxd uses it when no real HID path is
// wired (always, in this sandbox); the end-to-end tests in §8 use it to
// drive literal scenario sequences straight into the pipeline.
package devicesource

import (
	"context"
	"sync"

	"github.com/retromux/hotaslink/pkg/iface"
)

// staleAfterSeconds is the age past which ReadLatest treats the current
// frame as absent (iface.DeviceSource.ReadLatest's staleness rule).
const staleAfterSeconds = 0.5

// Frame is one scripted report: a raw byte report becomes "current" at
// timestamp T until a later frame in the script supersedes it or the
// replay time moves more than staleAfterSeconds past T.
type Frame struct {
	T      float64
	Report []byte
}

type handle struct {
	path string
}

// Synthetic is an in-memory iface.DeviceSource driven by a per-device
// script of Frames, advanced explicitly via AdvanceTo rather than by wall
// clock — so tests can feed literal (t, report) sequences deterministically.
type Synthetic struct {
	mu      sync.Mutex
	devices map[string]iface.DeviceIdentity
	scripts map[string][]Frame
	now     map[string]float64 // current replay time per device path
	open    map[string]bool
}

func NewSynthetic() *Synthetic {
	return &Synthetic{
		devices: make(map[string]iface.DeviceIdentity),
		scripts: make(map[string][]Frame),
		now:     make(map[string]float64),
		open:    make(map[string]bool),
	}
}

// AddDevice registers a device and its full replay script. Frames must be
// sorted by T ascending.
func (s *Synthetic) AddDevice(identity iface.DeviceIdentity, frames []Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.devices[identity.Path] = identity
	s.scripts[identity.Path] = frames
}

// AdvanceTo moves the replay clock for every device forward to t. The
// next ReadLatest call returns the last frame whose T <= t.
func (s *Synthetic) AdvanceTo(t float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for path := range s.devices {
		s.now[path] = t
	}
}

func (s *Synthetic) Enumerate(ctx context.Context) ([]iface.DeviceIdentity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]iface.DeviceIdentity, 0, len(s.devices))
	for _, d := range s.devices {
		out = append(out, d)
	}
	return out, nil
}

func (s *Synthetic) Open(ctx context.Context, path string) (iface.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open[path] = true
	return handle{path: path}, nil
}

func (s *Synthetic) Close(h iface.Handle) error {
	hd := h.(handle)
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.open, hd.path)
	return nil
}

func (s *Synthetic) Connected(h iface.Handle) bool {
	hd := h.(handle)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open[hd.path]
}

// ReadLatest returns the most recent scripted frame for handle's device at
// or before the device's current replay time, per §6's
// DeviceSource.read_latest shape. ok is false if that frame is more than
// staleAfterSeconds older than the replay time.
func (s *Synthetic) ReadLatest(h iface.Handle) (report []byte, timestamp float64, ok bool) {
	hd := h.(handle)
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open[hd.path] {
		return nil, 0, false
	}
	now := s.now[hd.path]
	frames := s.scripts[hd.path]

	var best *Frame
	for i := range frames {
		if frames[i].T <= now {
			best = &frames[i]
		} else {
			break
		}
	}
	if best == nil || now-best.T > staleAfterSeconds {
		return nil, 0, false
	}
	return best.Report, best.T, true
}
