// Package publish implements the Publisher (§4.8): assembling the
// virtual-gamepad PadReport, driving keyboard auto-repeat, dispatching
// mouse events, and running the virtual-output enable state machine. The
// auto-repeat timer shape — press now, re-fire after an initial delay,
// then at a steady interval — is adapted from the teacher's input
// handling in internal/ui (key-held-down polling against ebiten), here
// driven by the acquisition clock instead of a per-frame poll.
package publish

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/retromux/hotaslink/pkg/iface"
	"github.com/retromux/hotaslink/pkg/mapping"
	"github.com/retromux/hotaslink/pkg/resolve"
	"github.com/retromux/hotaslink/pkg/status"
)

// EnableState is the virtual-output lifecycle (§4.8).
type EnableState uint32

const (
	Disabled EnableState = iota
	Enabling
	Enabled
	Disabling
)

func (s EnableState) String() string {
	switch s {
	case Disabled:
		return "disabled"
	case Enabling:
		return "enabling"
	case Enabled:
		return "enabled"
	case Disabling:
		return "disabling"
	default:
		return "unknown"
	}
}

// KeyRepeatState is the per-VK auto-repeat timer (§3).
type KeyRepeatState struct {
	VK         uint32
	Pressed    bool
	PressTime  float64
	NextRepeat float64
}

// KeyCodec translates a virtual-key code into the scan code and
// extended-key flag the host's SyntheticInput expects (§4.8: "keys must
// be emitted with scan codes... extended VKs carry the extended-key
// flag"). The exact table is host/keyboard-layout specific and external
// to the core; DefaultKeyCodec is an identity stand-in for tests and for
// hosts that accept raw VKs as scan codes.
type KeyCodec interface {
	ScanCode(vk uint32) (code uint16, extended bool)
}

// enableCell is a tiny atomic.Uint32 wrapper typed to EnableState.
type enableCell struct{ v atomic.Uint32 }

func (c *enableCell) store(s EnableState) { c.v.Store(uint32(s)) }
func (c *enableCell) load() EnableState   { return EnableState(c.v.Load()) }

type identityCodec struct{}

func (identityCodec) ScanCode(vk uint32) (uint16, bool) { return uint16(vk), false }

// DefaultKeyCodec is the identity codec used when none is configured.
var DefaultKeyCodec KeyCodec = identityCodec{}

// Publisher assembles and emits one tick's outputs to the virtual pad and
// OS input queue.
type Publisher struct {
	pad   iface.VirtualPad
	input iface.SyntheticInput
	codec KeyCodec

	initialDelayMs, intervalMs float64

	mu         sync.Mutex
	keyStates  map[uint32]*KeyRepeatState
	mouseDown  map[string]bool
	motionOps  map[string]bool

	enableState enableCell
	padStatus   status.Cell
}

// NewPublisher constructs a Publisher, querying input's host key-repeat
// timing once at startup (§3: "derived from host keyboard settings at
// first use").
func NewPublisher(pad iface.VirtualPad, input iface.SyntheticInput) *Publisher {
	initialDelayMs, intervalMs := input.QueryKeyRepeat()
	return &Publisher{
		pad:            pad,
		input:          input,
		codec:          DefaultKeyCodec,
		initialDelayMs: initialDelayMs,
		intervalMs:     intervalMs,
		keyStates:      make(map[uint32]*KeyRepeatState),
		mouseDown:      make(map[string]bool),
		motionOps:      make(map[string]bool),
	}
}

// SetKeyCodec overrides the scan-code/extended-flag lookup.
func (p *Publisher) SetKeyCodec(c KeyCodec) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.codec = c
}

// SetMotionOps marks the given mouse-op tokens as motion-type (dispatched
// every tick while desired-down, for continuous delta accumulation)
// rather than click-type (dispatched once, on the rising edge).
func (p *Publisher) SetMotionOps(ops []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, op := range ops {
		p.motionOps[op] = true
	}
}

// State returns the current virtual-output lifecycle state.
func (p *Publisher) State() EnableState { return p.enableState.load() }

// Status returns the publisher/virtual-pad subsystem's current status.
func (p *Publisher) Status() status.Status { return p.padStatus.Get() }

// Enable performs the Disabled -> Enabling -> Enabled transition: a
// re-plug of the virtual target (remove then add) followed by one neutral
// report to force host enumeration (§4.8). On failure it returns to
// Disabled with the error captured.
func (p *Publisher) Enable() error {
	p.enableState.store(Enabling)

	_ = p.pad.UnplugTarget() // best-effort; not yet plugged on first enable

	if err := p.pad.PlugTarget(); err != nil {
		p.enableState.store(Disabled)
		p.padStatus.SetFatal(err.Error())
		return err
	}
	if err := p.pad.Update(iface.PadReport{}); err != nil {
		p.enableState.store(Disabled)
		p.padStatus.SetFatal(err.Error())
		return err
	}

	p.enableState.store(Enabled)
	p.padStatus.SetOk()
	return nil
}

// Disable performs the Enabled -> Disabling -> Disabled transition:
// release every pressed key, neutral the pad, unplug.
func (p *Publisher) Disable() error {
	p.enableState.store(Disabling)
	p.releaseAllKeys()
	_ = p.pad.Update(iface.PadReport{})
	err := p.pad.UnplugTarget()
	p.enableState.store(Disabled)
	return err
}

// Shutdown releases every pressed key, neutrals the pad, and disconnects
// it (§4.8, §5: "Publisher on shutdown: release all pressed keys, set
// virtual-pad to neutral, then disconnect").
func (p *Publisher) Shutdown() {
	p.releaseAllKeys()
	_ = p.pad.Update(iface.PadReport{})
	_ = p.pad.Disconnect()
	p.enableState.store(Disabled)
}

// PublishTick builds and emits one tick's PadReport (when enabled),
// drives keyboard auto-repeat, and dispatches mouse events.
func (p *Publisher) PublishTick(now float64, resolved resolve.Resolved) {
	if p.State() == Enabled {
		report := BuildPadReport(resolved)
		if err := p.pad.Update(report); err != nil {
			// §7: transient update error — capture status, keep running.
			p.padStatus.SetDegraded(err.Error())
		} else {
			p.padStatus.SetOk()
		}
	}

	p.dispatchKeys(now, resolved.Keys)
	p.dispatchMouse(resolved.Mouse)
}

func (p *Publisher) dispatchKeys(now float64, desired map[uint32]bool) {
	p.mu.Lock()
	codec := p.codec
	p.mu.Unlock()

	for vk, down := range desired {
		st, ok := p.keyStates[vk]
		if !ok {
			st = &KeyRepeatState{VK: vk}
			p.keyStates[vk] = st
		}

		code, extended := codec.ScanCode(vk)

		switch {
		case down && !st.Pressed:
			_ = p.input.Key(vk, true, extended, code)
			st.Pressed = true
			st.PressTime = now
			st.NextRepeat = now + p.initialDelayMs/1000.0
		case down && st.Pressed:
			if now >= st.NextRepeat {
				_ = p.input.Key(vk, true, extended, code)
				st.NextRepeat = now + p.intervalMs/1000.0
			}
		case !down && st.Pressed:
			_ = p.input.Key(vk, false, extended, code)
			st.Pressed = false
		}
	}

	// A VK whose mapping disappeared entirely this tick won't appear in
	// desired; still owe it a key-up if it was pressed.
	for vk, st := range p.keyStates {
		if _, present := desired[vk]; !present && st.Pressed {
			code, extended := codec.ScanCode(vk)
			_ = p.input.Key(vk, false, extended, code)
			st.Pressed = false
		}
	}
}

func (p *Publisher) dispatchMouse(desired map[string]resolve.MouseSignal) {
	p.mu.Lock()
	motion := make(map[string]bool, len(p.motionOps))
	for op := range p.motionOps {
		motion[op] = true
	}
	p.mu.Unlock()

	for op, sig := range desired {
		wasDown := p.mouseDown[op]
		switch {
		case motion[op] && sig.Down:
			_ = p.input.Mouse(op, sig.Magnitude)
		case !motion[op] && sig.Down && !wasDown:
			_ = p.input.Mouse(op, sig.Magnitude)
		}
		p.mouseDown[op] = sig.Down
	}
}

func (p *Publisher) releaseAllKeys() {
	codec := p.codec
	for vk, st := range p.keyStates {
		if st.Pressed {
			code, extended := codec.ScanCode(vk)
			_ = p.input.Key(vk, false, extended, code)
			st.Pressed = false
		}
	}
}

// BuildPadReport converts one tick's resolved outputs into the PadReport
// wire shape (§4.8, §6): axis/trigger conversion with clamping, Y-axis
// sign inversion, and the fixed button bit assignment.
func BuildPadReport(resolved resolve.Resolved) iface.PadReport {
	return iface.PadReport{
		Buttons: buildButtonMask(resolved.Buttons),
		LT:      triggerToU8(resolved.Axes[mapping.LT]),
		RT:      triggerToU8(resolved.Axes[mapping.RT]),
		LX:      axisToI16(resolved.Axes[mapping.LX]),
		LY:      axisToI16(-resolved.Axes[mapping.LY]),
		RX:      axisToI16(resolved.Axes[mapping.RX]),
		RY:      axisToI16(-resolved.Axes[mapping.RY]),
	}
}

func axisToI16(v float32) int16 {
	if v > 1 {
		v = 1
	}
	if v < -1 {
		v = -1
	}
	var f float64
	if v >= 0 {
		f = float64(v) * 32767
	} else {
		f = float64(v) * 32768
	}
	if f > 32767 {
		f = 32767
	}
	if f < -32768 {
		f = -32768
	}
	return int16(math.Round(f))
}

func triggerToU8(v float32) uint8 {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	f := math.Round(float64(v) * 255)
	if f > 255 {
		f = 255
	}
	if f < 0 {
		f = 0
	}
	return uint8(f)
}

// buttonBit is the fixed ButtonID -> wire-bit assignment (§6). Bits 10-11
// are reserved and never set.
func buttonBit(id mapping.ButtonID) (uint16, bool) {
	switch id {
	case mapping.DPadUp:
		return 0, true
	case mapping.DPadDown:
		return 1, true
	case mapping.DPadLeft:
		return 2, true
	case mapping.DPadRight:
		return 3, true
	case mapping.ButtonStart:
		return 4, true
	case mapping.ButtonBack:
		return 5, true
	case mapping.ButtonL3:
		return 6, true
	case mapping.ButtonR3:
		return 7, true
	case mapping.ButtonLB:
		return 8, true
	case mapping.ButtonRB:
		return 9, true
	case mapping.ButtonA:
		return 12, true
	case mapping.ButtonB:
		return 13, true
	case mapping.ButtonX:
		return 14, true
	case mapping.ButtonY:
		return 15, true
	default:
		return 0, false
	}
}

func buildButtonMask(buttons map[mapping.ButtonID]bool) uint16 {
	var mask uint16
	for id, down := range buttons {
		if !down {
			continue
		}
		if bit, ok := buttonBit(id); ok {
			mask |= 1 << bit
		}
	}
	return mask
}
