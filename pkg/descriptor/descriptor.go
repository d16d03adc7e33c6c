// Package descriptor holds the immutable signal metadata supplied by a
// loaded bit-map (§3 SignalDescriptor). Loading the bit-map itself (CSV
// parsing, file I/O) is out of scope for this core (§1); this package only
// defines the struct and the validation the decoder depends on. A
// malformed descriptor is rejected outright, the way the teacher's
// cartridge header parser rejects a too-small ROM (internal/cart/header.go).
package descriptor

import (
	"fmt"

	"github.com/retromux/hotaslink/pkg/sigkey"
)

// Mode is the per-signal filter mode (§3 SignalMode). Hot-swappable via the
// control surface.
type Mode uint8

const (
	ModeNone Mode = iota
	ModeDigital
	ModeAnalog
)

func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeDigital:
		return "digital"
	case ModeAnalog:
		return "analog"
	default:
		return "unknown"
	}
}

func ParseMode(s string) (Mode, bool) {
	switch s {
	case "none":
		return ModeNone, true
	case "digital":
		return ModeDigital, true
	case "analog":
		return ModeAnalog, true
	default:
		return 0, false
	}
}

// Descriptor is the immutable metadata for one logical signal, as supplied
// by the bit-map (§3).
type Descriptor struct {
	Key         sigkey.Key
	DisplayName string
	BitStart    uint16
	BitCount    uint8 // 1..32
	Analog      bool
}

// Validate enforces the BitCount range invariant (§4.3: bit_count ∈ [1,32]).
// A violating descriptor is rejected at load time rather than silently
// clamped, since a malformed bit-map is an authoring error, not runtime
// drift — unlike the per-tick "out of range config" case in §7 which is
// clamped with a warning.
func (d Descriptor) Validate() error {
	if d.BitCount < 1 || d.BitCount > 32 {
		return fmt.Errorf("descriptor: %s: bit_count %d out of range [1,32]", d.Key, d.BitCount)
	}
	return nil
}

// Set is the immutable, indexed collection of descriptors loaded from a
// bit-map. Built once at startup.
type Set struct {
	byKey map[sigkey.Key]Descriptor
}

// NewSet validates and indexes descs. The first invalid descriptor's error
// is returned; valid descriptors before it are not retained.
func NewSet(descs []Descriptor) (*Set, error) {
	byKey := make(map[sigkey.Key]Descriptor, len(descs))
	for _, d := range descs {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		byKey[d.Key] = d
	}
	return &Set{byKey: byKey}, nil
}

// Lookup returns the descriptor for key, if known.
func (s *Set) Lookup(key sigkey.Key) (Descriptor, bool) {
	d, ok := s.byKey[key]
	return d, ok
}

// Keys returns every descriptor's key.
func (s *Set) Keys() []sigkey.Key {
	out := make([]sigkey.Key, 0, len(s.byKey))
	for k := range s.byKey {
		out = append(out, k)
	}
	return out
}

// Len reports the number of descriptors in the set.
func (s *Set) Len() int { return len(s.byKey) }

// ResolveLegacyID migrates a legacy persisted signal_id without a device
// prefix (§6). If id resolves to a signal on exactly one device, that
// prefixed key is returned with migrated=true. If it matches zero or more
// than one device, migrated is false and the caller should emit a warning
// and leave the record unmigrated.
func (s *Set) ResolveLegacyID(id string) (key sigkey.Key, migrated bool) {
	var match sigkey.Key
	count := 0
	for k := range s.byKey {
		if k.ID == id {
			match = k
			count++
		}
	}
	if count == 1 {
		return match, true
	}
	return sigkey.Key{}, false
}
