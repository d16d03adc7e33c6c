// Package filter implements the per-signal FilterEngine (§4.5): a
// deterministic state machine selecting between no filtering, analog rate
// limiting, digital gated debounce, and multi-bit discrete gating.
//
// The timer-versus-threshold shape of the digital modes — track how long a
// value has held steady, only let it become visible once a minimum hold has
// elapsed — is adapted from the teacher's APU envelope/sweep timers
// (chSquare.envTmr/sweepTmr counting toward a period before the envelope
// steps), generalized from a fixed per-channel countdown to an arbitrary
// per-signal hold duration measured against the acquisition clock.
package filter

import (
	"sync/atomic"

	"github.com/retromux/hotaslink/pkg/descriptor"
	"github.com/retromux/hotaslink/pkg/sigkey"
)

// rangeConst is the analog rate-limiter's step-size denominator. §4.5 fixes
// this at 2 unconditionally (the body text), overriding the footnote in
// §9's Open Questions about trigger axes once using range 1 — see
// SPEC_FULL.md §9 for the decision record.
const rangeConst = 2.0

// Params are the hot-swappable filter tuning parameters (§3 FilterParams).
type Params struct {
	AnalogRatePct     float64 // [0, 100]
	DigitalMinHoldSec float64 // >= 0
}

// Clamp brings out-of-range values into their accepted range, per §7
// ("Configuration out of range: clamp to accepted range; emit one-shot
// warning"). It returns true if anything was clamped.
func (p *Params) Clamp() bool {
	clamped := false
	if p.AnalogRatePct < 0 {
		p.AnalogRatePct = 0
		clamped = true
	}
	if p.AnalogRatePct > 100 {
		p.AnalogRatePct = 100
		clamped = true
	}
	if p.DigitalMinHoldSec < 0 {
		p.DigitalMinHoldSec = 0
		clamped = true
	}
	return clamped
}

// State is the per-signal filter state (§3 FilterState). The acquisition
// core owns it exclusively; nothing else reads or writes it.
type State struct {
	PrevFiltered float32
	PrevRaw      float32
	RiseTime     *float64
	Pending      float32
	Promoted     float32
	Active       bool
	Initialized  bool
}

// Engine applies FilterEngine semantics across a registered set of signals.
// Modes, force-digital flags and Params are hot-swappable from any
// goroutine; State is mutated only by the single caller of Apply (the
// acquisition thread), matching the ownership split in §3/§5.
type Engine struct {
	params atomic.Pointer[Params]

	modes        map[sigkey.Key]*atomic.Uint32
	forceDigital map[sigkey.Key]*atomic.Bool
	states       map[sigkey.Key]*State
}

// NewEngine creates an Engine with one mode/force-digital slot pre-allocated
// per key (so later SetMode/SetForceDigital calls never race a map write),
// and filter state created lazily on first Apply, per §3's lifecycle note.
func NewEngine(keys []sigkey.Key, initial Params) *Engine {
	initial.Clamp()
	e := &Engine{
		modes:        make(map[sigkey.Key]*atomic.Uint32, len(keys)),
		forceDigital: make(map[sigkey.Key]*atomic.Bool, len(keys)),
		states:       make(map[sigkey.Key]*State, len(keys)),
	}
	e.params.Store(&initial)
	for _, k := range keys {
		e.modes[k] = new(atomic.Uint32)
		e.forceDigital[k] = new(atomic.Bool)
	}
	return e
}

// SetParams installs new filter parameters, clamping out-of-range fields.
func (e *Engine) SetParams(p Params) (clamped bool) {
	clamped = p.Clamp()
	e.params.Store(&p)
	return clamped
}

// Params returns the currently active parameters.
func (e *Engine) Params() Params {
	return *e.params.Load()
}

// SetMode hot-swaps key's filter mode. A no-op if key was never registered.
func (e *Engine) SetMode(key sigkey.Key, mode descriptor.Mode) {
	if m, ok := e.modes[key]; ok {
		m.Store(uint32(mode))
	}
}

// Mode returns key's current filter mode (ModeNone if unregistered).
func (e *Engine) Mode(key sigkey.Key) descriptor.Mode {
	if m, ok := e.modes[key]; ok {
		return descriptor.Mode(m.Load())
	}
	return descriptor.ModeNone
}

// SetForceDigital forces key (expected to be a trigger axis) into
// binary-digital mode, skipping analog rate limiting in favor of a
// >=0.5 threshold ahead of the digital-binary state machine (§4.5).
func (e *Engine) SetForceDigital(key sigkey.Key, forced bool) {
	if f, ok := e.forceDigital[key]; ok {
		f.Store(forced)
	}
}

// ForceDigital reports whether key is currently forced into digital mode.
func (e *Engine) ForceDigital(key sigkey.Key) bool {
	if f, ok := e.forceDigital[key]; ok {
		return f.Load()
	}
	return false
}

func (e *Engine) stateFor(key sigkey.Key) *State {
	st, ok := e.states[key]
	if !ok {
		st = &State{}
		e.states[key] = st
	}
	return st
}

// Apply filters one (t, raw) observation for key and returns the filtered
// value, per the mode currently selected for key. bitCount is the signal's
// descriptor width, used to distinguish binary (bit_count==1) from
// multi-bit discrete digital signals.
func (e *Engine) Apply(key sigkey.Key, t float64, raw float32, bitCount uint8) float32 {
	st := e.stateFor(key)
	params := e.Params()

	if e.ForceDigital(key) {
		bin := float32(0)
		if raw >= 0.5 {
			bin = 1
		}
		return applyDigitalBinary(st, t, bin, params)
	}

	switch e.Mode(key) {
	case descriptor.ModeAnalog:
		return applyAnalogRateLimit(st, raw, params)
	case descriptor.ModeDigital:
		if bitCount <= 1 {
			return applyDigitalBinary(st, t, raw, params)
		}
		return applyMultiBitDiscrete(st, t, raw, params)
	default: // ModeNone
		st.PrevRaw = raw
		st.Initialized = true
		return raw
	}
}

func applyAnalogRateLimit(st *State, cur float32, p Params) float32 {
	if !st.Initialized {
		st.Initialized = true
		st.PrevRaw = cur
		st.PrevFiltered = cur
		return cur
	}

	maxStep := float32(p.AnalogRatePct / 100.0 * rangeConst)
	dv := cur - st.PrevFiltered

	var out float32
	switch {
	case dv > maxStep:
		out = st.PrevFiltered + maxStep
	case dv < -maxStep:
		out = st.PrevFiltered - maxStep
	default:
		out = cur
	}

	st.PrevRaw = cur
	st.PrevFiltered = out
	return out
}

func applyDigitalBinary(st *State, t float64, raw float32, p Params) float32 {
	nowHi := raw > 0.0
	prevHi := st.PrevRaw > 0.0

	switch {
	case nowHi && !prevHi: // rising edge
		rt := t
		st.RiseTime = &rt
		st.Active = false
	case nowHi && prevHi: // held high
		if !st.Active && st.RiseTime != nil && t-*st.RiseTime >= p.DigitalMinHoldSec {
			st.Active = true
		}
	case !nowHi && prevHi: // falling edge
		st.Active = false
		st.RiseTime = nil
	default: // idle low
		st.RiseTime = nil
		st.Active = false
	}

	st.PrevRaw = raw
	st.Initialized = true
	if st.Active {
		st.Promoted = 1
		return 1
	}
	st.Promoted = 0
	return 0
}

func applyMultiBitDiscrete(st *State, t float64, raw float32, p Params) float32 {
	if !st.Initialized {
		st.Initialized = true
		st.PrevRaw = raw
		st.PrevFiltered = raw
		st.Pending = raw
		return raw
	}

	if raw != st.PrevRaw {
		rt := t
		st.RiseTime = &rt
		st.Pending = raw
		st.PrevRaw = raw
		return st.PrevFiltered
	}

	// stable: raw == prev_raw
	if st.RiseTime != nil &&
		t-*st.RiseTime >= p.DigitalMinHoldSec &&
		st.Pending == raw &&
		raw != st.PrevFiltered {
		st.PrevFiltered = raw
		st.RiseTime = nil
	}
	st.PrevRaw = raw
	return st.PrevFiltered
}
