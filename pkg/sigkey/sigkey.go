// Package sigkey identifies logical HOTAS signals across devices.
package sigkey

import (
	"fmt"
	"strings"
)

// Device is the HID source a signal was read from.
type Device uint8

const (
	DeviceStick Device = iota
	DeviceThrottle
	DeviceGamepad
)

func (d Device) String() string {
	switch d {
	case DeviceStick:
		return "stick"
	case DeviceThrottle:
		return "throttle"
	case DeviceGamepad:
		return "gamepad"
	default:
		return "unknown"
	}
}

// ParseDevice maps the persisted-record device prefix to a Device.
func ParseDevice(s string) (Device, bool) {
	switch s {
	case "stick":
		return DeviceStick, true
	case "throttle":
		return DeviceThrottle, true
	case "gamepad":
		return DeviceGamepad, true
	default:
		return 0, false
	}
}

// Key identifies a signal uniquely across the device set.
type Key struct {
	Device Device
	ID     string
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%s", k.Device, k.ID)
}

// ParseKey parses the "device:id" form String produces (e.g.
// "stick:joy_x", used by config keys like per_signal_mode). ok is false
// if s has no colon or an unrecognized device prefix.
func ParseKey(s string) (key Key, ok bool) {
	prefix, id, found := strings.Cut(s, ":")
	if !found {
		return Key{}, false
	}
	device, ok := ParseDevice(prefix)
	if !ok {
		return Key{}, false
	}
	return Key{Device: device, ID: id}, true
}
