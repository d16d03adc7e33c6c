package resolve

import (
	"testing"

	"github.com/retromux/hotaslink/pkg/mapping"
	"github.com/retromux/hotaslink/pkg/sigkey"
	"github.com/stretchr/testify/require"
)

type fakeValues map[sigkey.Key]float32

func (f fakeValues) Value(key sigkey.Key) (float32, bool) {
	v, ok := f[key]
	return v, ok
}

func stickKey(id string) sigkey.Key    { return sigkey.Key{Device: sigkey.DeviceStick, ID: id} }
func throttleKey(id string) sigkey.Key { return sigkey.Key{Device: sigkey.DeviceThrottle, ID: id} }

// S4 — Axis priority resolution.
func TestResolveAxisPriorityFirstCase(t *testing.T) {
	entries := []mapping.Entry{
		{ID: "a", SignalKey: stickKey("joy_x"), Action: mapping.NewAxisAction(mapping.LX), Priority: 10, Deadband: mapping.Deadband(0.05)},
		{ID: "b", SignalKey: throttleKey("thumb_joy_x"), Action: mapping.NewAxisAction(mapping.LX), Priority: 5, Deadband: mapping.Deadband(0.05)},
	}
	values := fakeValues{
		stickKey("joy_x"):          0.03,
		throttleKey("thumb_joy_x"): 0.40,
	}
	out := Resolve(entries, values)
	require.InDelta(t, 0.40, out.Axes[mapping.LX], 1e-6)
}

func TestResolveAxisPriorityWinsWhenExceedsDeadband(t *testing.T) {
	entries := []mapping.Entry{
		{ID: "a", SignalKey: stickKey("joy_x"), Action: mapping.NewAxisAction(mapping.LX), Priority: 10, Deadband: mapping.Deadband(0.05)},
		{ID: "b", SignalKey: throttleKey("thumb_joy_x"), Action: mapping.NewAxisAction(mapping.LX), Priority: 5, Deadband: mapping.Deadband(0.05)},
	}
	values := fakeValues{
		stickKey("joy_x"):          0.10,
		throttleKey("thumb_joy_x"): 0.40,
	}
	out := Resolve(entries, values)
	require.InDelta(t, 0.10, out.Axes[mapping.LX], 1e-6)
}

// S5 — Button OR.
func TestResolveButtonOR(t *testing.T) {
	entries := []mapping.Entry{
		{ID: "a", SignalKey: stickKey("trig1"), Action: mapping.NewButtonAction(mapping.ButtonA), Priority: 1},
		{ID: "b", SignalKey: stickKey("trig2"), Action: mapping.NewButtonAction(mapping.ButtonA), Priority: 2},
	}
	values := fakeValues{
		stickKey("trig1"): 0.0,
		stickKey("trig2"): 0.7,
	}
	out := Resolve(entries, values)
	require.True(t, out.Buttons[mapping.ButtonA])
}

func TestResolveAxisFallsBackToMaxMagnitudeWhenNoneExceedDeadband(t *testing.T) {
	entries := []mapping.Entry{
		{ID: "a", SignalKey: stickKey("joy_x"), Action: mapping.NewAxisAction(mapping.LX), Priority: 10, Deadband: mapping.Deadband(0.5)},
		{ID: "b", SignalKey: throttleKey("thumb_joy_x"), Action: mapping.NewAxisAction(mapping.LX), Priority: 5, Deadband: mapping.Deadband(0.5)},
	}
	values := fakeValues{
		stickKey("joy_x"):          0.10,
		throttleKey("thumb_joy_x"): -0.30,
	}
	out := Resolve(entries, values)
	require.InDelta(t, -0.30, out.Axes[mapping.LX], 1e-6)
}

func TestResolveAxisZeroWhenNoMappingsObserved(t *testing.T) {
	entries := []mapping.Entry{
		{ID: "a", SignalKey: stickKey("joy_x"), Action: mapping.NewAxisAction(mapping.LX), Priority: 10, Deadband: mapping.Deadband(0.05)},
	}
	out := Resolve(entries, fakeValues{})
	require.Equal(t, float32(0), out.Axes[mapping.LX])
}

func TestResolveKeyORUsesAbsoluteThreshold(t *testing.T) {
	entries := []mapping.Entry{
		{ID: "a", SignalKey: stickKey("joy_x"), Action: mapping.NewKeyAction(0x20)},
	}
	values := fakeValues{stickKey("joy_x"): -0.5}
	out := Resolve(entries, values)
	require.True(t, out.Keys[0x20])
}

// A higher-priority mapping with a nil Deadband must fall back to the
// §6 default (0.05) and therefore lose to a lower-priority mapping whose
// signal exceeds that default, the same as if it had authored 0.05 itself.
func TestResolveAxisNilDeadbandFallsBackToDefault(t *testing.T) {
	entries := []mapping.Entry{
		{ID: "a", SignalKey: stickKey("joy_x"), Action: mapping.NewAxisAction(mapping.LX), Priority: 10},
		{ID: "b", SignalKey: throttleKey("thumb_joy_x"), Action: mapping.NewAxisAction(mapping.LX), Priority: 5},
	}
	values := fakeValues{
		stickKey("joy_x"):          0.02, // below the 0.05 default deadband
		throttleKey("thumb_joy_x"): 0.90,
	}
	out := Resolve(entries, values)
	require.InDelta(t, 0.90, out.Axes[mapping.LX], 1e-6)
}

// An explicit Deadband of 0.0 must not be silently promoted to the §6
// default: the higher-priority mapping here wins outright on a tiny
// nonzero signal instead of falling through to the lower-priority one.
func TestResolveAxisExplicitZeroDeadbandWinsOnAnyNonzeroSignal(t *testing.T) {
	entries := []mapping.Entry{
		{ID: "a", SignalKey: stickKey("joy_x"), Action: mapping.NewAxisAction(mapping.LX), Priority: 10, Deadband: mapping.Deadband(0)},
		{ID: "b", SignalKey: throttleKey("thumb_joy_x"), Action: mapping.NewAxisAction(mapping.LX), Priority: 5},
	}
	values := fakeValues{
		stickKey("joy_x"):          0.001, // far below the 0.05 default, but this mapping's deadband is explicitly 0
		throttleKey("thumb_joy_x"): 0.90,
	}
	out := Resolve(entries, values)
	require.InDelta(t, 0.001, out.Axes[mapping.LX], 1e-6)
}

func TestResolveMouseTracksMagnitude(t *testing.T) {
	entries := []mapping.Entry{
		{ID: "a", SignalKey: stickKey("joy_x"), Action: mapping.NewMouseAction("mouse:x_delta")},
	}
	values := fakeValues{stickKey("joy_x"): 0.6}
	out := Resolve(entries, values)
	sig := out.Mouse["mouse:x_delta"]
	require.True(t, sig.Down)
	require.InDelta(t, 0.6, sig.Magnitude, 1e-6)
}
