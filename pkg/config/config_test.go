package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadDecodesKnownFields(t *testing.T) {
	path := writeTemp(t, `
analog_rate_pct = 15.0
digital_min_hold_sec = 0.01
window_seconds = 0.5
trigger_left_digital = true
virtual_output_enabled = true

[per_signal_mode]
"stick:joy_x" = "analog"
`)
	cfg, err := Load(path, nil)
	require.NoError(t, err)
	require.Equal(t, 15.0, cfg.AnalogRatePct)
	require.Equal(t, 0.01, cfg.DigitalMinHoldSec)
	require.True(t, cfg.TriggerLeftDigital)
	require.True(t, cfg.VirtualOutputEnabled)
	require.Equal(t, "analog", cfg.PerSignalMode["stick:joy_x"])
}

func TestLoadClampsOutOfRangeAnalogRate(t *testing.T) {
	path := writeTemp(t, `analog_rate_pct = 250.0`)
	cfg, err := Load(path, nil)
	require.NoError(t, err)
	require.Equal(t, maxAnalogRatePct, cfg.AnalogRatePct)
}

func TestLoadClampsNegativeHold(t *testing.T) {
	path := writeTemp(t, `digital_min_hold_sec = -1.0`)
	cfg, err := Load(path, nil)
	require.NoError(t, err)
	require.Equal(t, minHoldSec, cfg.DigitalMinHoldSec)
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"), nil)
	require.Error(t, err)
}

func TestDefaults(t *testing.T) {
	d := Defaults()
	require.Equal(t, 10.0, d.AnalogRatePct)
	require.Equal(t, 0.005, d.DigitalMinHoldSec)
	require.NotNil(t, d.PerSignalMode)
}
