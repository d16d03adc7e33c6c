// Package iface defines the external-world contracts the core depends on
// but does not implement (§6): the HID source, the virtual gamepad, and
// OS keyboard/mouse injection. Concrete backends live outside this
// package; this repository ships in-memory test doubles (RecordingPad,
// RecordingInput), the scriptable replay source in internal/devicesource,
// and the local-gamepad DeviceSource in cmd/hotasmon/ebitenpad.
package iface

import "context"

// DeviceIdentity identifies one enumerable HID device.
type DeviceIdentity struct {
	Path string
	Kind string // "stick", "throttle", "gamepad"
}

// DeviceSource is the external HID layer contract (§6).
type DeviceSource interface {
	Enumerate(ctx context.Context) ([]DeviceIdentity, error)
	Open(ctx context.Context, path string) (Handle, error)
	Close(handle Handle) error
	// ReadLatest returns the most recently published raw report for
	// handle and its capture timestamp (acquisition-clock seconds). ok
	// is false if no report has arrived or the freshest one is stale
	// (> 500ms old, per §6).
	ReadLatest(handle Handle) (report []byte, timestamp float64, ok bool)
	Connected(handle Handle) bool
}

// Handle is an opaque open-device token.
type Handle interface{}

// PadReport is the virtual-gamepad wire report (§6, bit-exact where
// compatibility matters).
type PadReport struct {
	Buttons uint16
	LT, RT  uint8
	LX, LY  int16
	RX, RY  int16
}

// VirtualPad is the external virtual-gamepad contract (§6).
type VirtualPad interface {
	Connect() error
	Disconnect() error
	PlugTarget() error
	UnplugTarget() error
	Update(report PadReport) error
	Ready() bool
	LastError() (string, bool)
}

// SyntheticInput is the external OS keyboard/mouse injection contract (§6).
type SyntheticInput interface {
	Key(vk uint32, down bool, extended bool, scanCode uint16) error
	Mouse(op string, magnitude float32) error
	QueryKeyRepeat() (initialDelayMs, intervalMs float64)
}
