package descriptor

import (
	"testing"

	"github.com/retromux/hotaslink/pkg/sigkey"
	"github.com/stretchr/testify/require"
)

func key(dev sigkey.Device, id string) sigkey.Key { return sigkey.Key{Device: dev, ID: id} }

func TestValidateRejectsOutOfRangeBitCount(t *testing.T) {
	require.Error(t, Descriptor{Key: key(sigkey.DeviceStick, "x"), BitCount: 0}.Validate())
	require.Error(t, Descriptor{Key: key(sigkey.DeviceStick, "x"), BitCount: 33}.Validate())
	require.NoError(t, Descriptor{Key: key(sigkey.DeviceStick, "x"), BitCount: 1}.Validate())
	require.NoError(t, Descriptor{Key: key(sigkey.DeviceStick, "x"), BitCount: 32}.Validate())
}

func TestNewSetRejectsFirstInvalidDescriptor(t *testing.T) {
	descs := []Descriptor{
		{Key: key(sigkey.DeviceStick, "good"), BitCount: 8},
		{Key: key(sigkey.DeviceStick, "bad"), BitCount: 0},
	}
	_, err := NewSet(descs)
	require.Error(t, err)
}

func TestLookupAndKeys(t *testing.T) {
	set, err := NewSet([]Descriptor{
		{Key: key(sigkey.DeviceStick, "joy_x"), BitCount: 10},
		{Key: key(sigkey.DeviceThrottle, "throttle_l"), BitCount: 8},
	})
	require.NoError(t, err)
	require.Equal(t, 2, set.Len())

	d, ok := set.Lookup(key(sigkey.DeviceStick, "joy_x"))
	require.True(t, ok)
	require.EqualValues(t, 10, d.BitCount)

	_, ok = set.Lookup(key(sigkey.DeviceGamepad, "joy_x"))
	require.False(t, ok)
}

func TestResolveLegacyIDUniqueMatch(t *testing.T) {
	set, err := NewSet([]Descriptor{
		{Key: key(sigkey.DeviceStick, "joy_x"), BitCount: 10},
		{Key: key(sigkey.DeviceThrottle, "throttle_l"), BitCount: 8},
	})
	require.NoError(t, err)

	resolved, migrated := set.ResolveLegacyID("joy_x")
	require.True(t, migrated)
	require.Equal(t, sigkey.DeviceStick, resolved.Device)
}

func TestResolveLegacyIDAmbiguousMatch(t *testing.T) {
	set, err := NewSet([]Descriptor{
		{Key: key(sigkey.DeviceStick, "trigger"), BitCount: 1},
		{Key: key(sigkey.DeviceThrottle, "trigger"), BitCount: 1},
	})
	require.NoError(t, err)

	_, migrated := set.ResolveLegacyID("trigger")
	require.False(t, migrated)
}

func TestResolveLegacyIDNoMatch(t *testing.T) {
	set, err := NewSet(nil)
	require.NoError(t, err)
	_, migrated := set.ResolveLegacyID("unknown")
	require.False(t, migrated)
}

func TestModeStringAndParse(t *testing.T) {
	require.Equal(t, "analog", ModeAnalog.String())
	m, ok := ParseMode("digital")
	require.True(t, ok)
	require.Equal(t, ModeDigital, m)
	_, ok = ParseMode("bogus")
	require.False(t, ok)
}
