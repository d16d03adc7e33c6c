// Package resolve implements the MapResolver (§4.7): grouping mapping
// entries by their Action target and resolving one output value per group
// from the signal values currently observed by the acquisition core.
package resolve

import (
	"sort"

	"github.com/retromux/hotaslink/pkg/mapping"
	"github.com/retromux/hotaslink/pkg/sigkey"
)

// SignalValues is the read side the resolver needs from the acquisition
// core: the latest filtered value for a signal, if one has been observed.
type SignalValues interface {
	Value(key sigkey.Key) (v float32, ok bool)
}

// MouseSignal is one tick's resolved mouse-op state: whether it is
// currently desired-down, and the largest magnitude among the mappings
// driving it (the publisher needs this for motion-type ops' per-tick
// accumulation; see §4.8).
type MouseSignal struct {
	Down      bool
	Magnitude float32
}

// Resolved is one tick's resolved output set, ready for the Publisher.
type Resolved struct {
	Axes    map[mapping.AxisID]float32
	Buttons map[mapping.ButtonID]bool
	Keys    map[uint32]bool
	Mouse   map[string]MouseSignal
}

func newResolved() Resolved {
	return Resolved{
		Axes:    make(map[mapping.AxisID]float32),
		Buttons: make(map[mapping.ButtonID]bool),
		Keys:    make(map[uint32]bool),
		Mouse:   make(map[string]MouseSignal),
	}
}

const (
	// defaultDeadband is the fallback used only when a mapping leaves
	// Deadband nil (§6's legacy-profile default). An entry with an
	// explicit Deadband of 0.0 is left at 0.0, not promoted to this
	// value — see mapping.Entry.Deadband.
	defaultDeadband  = 0.05
	keyMouseORThresh = 0.01
	buttonThresh     = 0.5
)

// Resolve groups entries by Action target and resolves each group's output
// for this tick.
func Resolve(entries []mapping.Entry, values SignalValues) Resolved {
	out := newResolved()

	axisGroups := make(map[mapping.AxisID][]mapping.Entry)
	buttonGroups := make(map[mapping.ButtonID][]mapping.Entry)
	keyGroups := make(map[uint32][]mapping.Entry)
	mouseGroups := make(map[string][]mapping.Entry)

	for _, e := range entries {
		switch e.Action.Kind {
		case mapping.ActionAxis:
			axisGroups[e.Action.Axis] = append(axisGroups[e.Action.Axis], e)
		case mapping.ActionButton:
			buttonGroups[e.Action.Button] = append(buttonGroups[e.Action.Button], e)
		case mapping.ActionKey:
			keyGroups[e.Action.VK] = append(keyGroups[e.Action.VK], e)
		case mapping.ActionMouse:
			mouseGroups[e.Action.Mouse] = append(mouseGroups[e.Action.Mouse], e)
		}
	}

	for axis, group := range axisGroups {
		out.Axes[axis] = resolveAxis(orderByPriority(group), values)
	}
	for btn, group := range buttonGroups {
		out.Buttons[btn] = resolveButtonOR(group, values)
	}
	for vk, group := range keyGroups {
		out.Keys[vk] = resolveAbsOR(group, values, keyMouseORThresh)
	}
	for op, group := range mouseGroups {
		out.Mouse[op] = resolveMouse(group, values)
	}

	return out
}

// orderByPriority sorts a group by priority descending, ties broken by id
// lexicographic order, for deterministic resolution (§4.7).
func orderByPriority(group []mapping.Entry) []mapping.Entry {
	sorted := make([]mapping.Entry, len(group))
	copy(sorted, group)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Priority != sorted[j].Priority {
			return sorted[i].Priority > sorted[j].Priority
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}

// resolveAxis implements §4.7's axis resolution: the first mapping (in
// priority order) whose value exceeds its own deadband wins outright;
// otherwise the group falls back to the value with the largest magnitude.
func resolveAxis(ordered []mapping.Entry, values SignalValues) float32 {
	var fallback float32
	fallbackSet := false

	for _, e := range ordered {
		v, _ := values.Value(e.SignalKey)
		deadband := float32(defaultDeadband)
		if e.Deadband != nil {
			deadband = *e.Deadband
		}
		if abs32(v) > deadband {
			return v
		}
		if !fallbackSet || abs32(v) > abs32(fallback) {
			fallback = v
			fallbackSet = true
		}
	}
	if !fallbackSet {
		return 0
	}
	return fallback
}

// resolveButtonOR implements Button/DPad resolution: true iff any
// mapping's current signal value exceeds 0.5 (§4.7; priority only affects
// enumeration order, not the result).
func resolveButtonOR(group []mapping.Entry, values SignalValues) bool {
	for _, e := range group {
		v, _ := values.Value(e.SignalKey)
		if v > buttonThresh {
			return true
		}
	}
	return false
}

// resolveAbsOR implements Key/Mouse resolution: logical OR of |v| > thresh
// across every mapping targeting the same virtual-key or mouse-op (§4.7).
func resolveAbsOR(group []mapping.Entry, values SignalValues, thresh float32) bool {
	for _, e := range group {
		v, _ := values.Value(e.SignalKey)
		if abs32(v) > thresh {
			return true
		}
	}
	return false
}

// resolveMouse aggregates a mouse-op group into a desired-down flag (OR of
// |v| > thresh, same as Key resolution) plus the largest observed
// magnitude, for motion-type ops' per-tick accumulation.
func resolveMouse(group []mapping.Entry, values SignalValues) MouseSignal {
	var sig MouseSignal
	for _, e := range group {
		v, _ := values.Value(e.SignalKey)
		if abs32(v) > keyMouseORThresh {
			sig.Down = true
		}
		if abs32(v) > sig.Magnitude {
			sig.Magnitude = abs32(v)
		}
	}
	return sig
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
