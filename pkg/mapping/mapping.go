// Package mapping holds the user-authored HOTAS-signal-to-output table
// (§3 MappingEntry, §4.6 MappingTable): a mutex-protected, upsert-by-id
// collection, mirroring the map-keyed-by-id-with-a-single-mutex shape the
// teacher uses for its cartridge-to-mapper registry (internal/cart), here
// generalized from a static startup-only table to a table mutated live by
// a control surface while the acquisition thread reads it every tick.
package mapping

import (
	"sync"

	"github.com/google/uuid"

	"github.com/retromux/hotaslink/pkg/sigkey"
)

// AxisID names a virtual-gamepad analog output (§3 Action).
type AxisID uint8

const (
	LX AxisID = iota
	LY
	RX
	RY
	LT
	RT
)

func (a AxisID) String() string {
	switch a {
	case LX:
		return "LX"
	case LY:
		return "LY"
	case RX:
		return "RX"
	case RY:
		return "RY"
	case LT:
		return "LT"
	case RT:
		return "RT"
	default:
		return "unknown"
	}
}

// ButtonID names a virtual-gamepad digital output (§3 Action).
type ButtonID uint8

const (
	ButtonA ButtonID = iota
	ButtonB
	ButtonX
	ButtonY
	ButtonLB
	ButtonRB
	ButtonStart
	ButtonBack
	ButtonL3
	ButtonR3
	DPadUp
	DPadDown
	DPadLeft
	DPadRight
)

func (b ButtonID) String() string {
	names := [...]string{
		"A", "B", "X", "Y", "LB", "RB", "Start", "Back", "L3", "R3",
		"DPadUp", "DPadDown", "DPadLeft", "DPadRight",
	}
	if int(b) < len(names) {
		return names[b]
	}
	return "unknown"
}

// ActionKind discriminates Action's tagged-variant payload.
type ActionKind uint8

const (
	ActionAxis ActionKind = iota
	ActionButton
	ActionKey
	ActionMouse
)

// Action is the tagged variant an Entry resolves a signal to (§3 Action).
// Only the field matching Kind is meaningful.
type Action struct {
	Kind   ActionKind
	Axis   AxisID
	Button ButtonID
	VK     uint32 // virtual-key code, valid when Kind == ActionKey
	Mouse  string // opaque mouse-op token, valid when Kind == ActionMouse
}

func NewAxisAction(id AxisID) Action     { return Action{Kind: ActionAxis, Axis: id} }
func NewButtonAction(id ButtonID) Action { return Action{Kind: ActionButton, Button: id} }
func NewKeyAction(vk uint32) Action      { return Action{Kind: ActionKey, VK: vk} }
func NewMouseAction(op string) Action    { return Action{Kind: ActionMouse, Mouse: op} }

// Entry is one user-authored mapping (§3 MappingEntry).
type Entry struct {
	ID        string
	SignalKey sigkey.Key
	Action    Action
	Priority  int32

	// Deadband is the axis-resolution deadband (§4.7), in signal units,
	// or nil if the mapping doesn't author one. nil and an explicit 0.0
	// are distinct: nil falls back to the legacy-profile default deadband
	// (§6) at resolve time, while an explicit 0.0 is a legal value
	// meaning this mapping wins outright on any nonzero signal. Use
	// Deadband(v) to build a non-nil pointer.
	Deadband *float32
}

// Deadband returns a pointer to v, for constructing an Entry with an
// explicit deadband (including an explicit zero).
func Deadband(v float32) *float32 { return &v }

// Table is the live, mutex-protected set of mapping entries (§4.6). Edits
// are rare relative to resolver reads; List returns a copy so MapResolver
// can read the table without holding the lock across a whole tick.
type Table struct {
	mu   sync.Mutex
	byID map[string]Entry
}

func NewTable() *Table {
	return &Table{byID: make(map[string]Entry)}
}

// Add upserts e by id (§7 "Mapping conflict: duplicate id on add — upsert
// semantics"). If e.ID is empty, a fresh id is minted so callers don't have
// to generate one themselves.
func (t *Table) Add(e Entry) Entry {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Deadband != nil && *e.Deadband < 0 {
		e.Deadband = Deadband(0)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byID[e.ID] = e
	return e
}

// Remove deletes the entry with the given id, if present.
func (t *Table) Remove(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.byID, id)
}

// Get returns the entry with the given id, if present.
func (t *Table) Get(id string) (Entry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.byID[id]
	return e, ok
}

// List returns a snapshot copy of every entry, in no particular order.
func (t *Table) List() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Entry, 0, len(t.byID))
	for _, e := range t.byID {
		out = append(out, e)
	}
	return out
}

// Len reports the number of entries currently in the table.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.byID)
}
