// Package config loads the core's runtime-tunable settings (§6 "Config
// keys the core consumes") from a TOML file, the ambient configuration
// layer standing in for the teacher's plain struct-plus-Defaults()
// internal/emu.Config / internal/ui.Config pair — TOML decoding replaces
// the teacher's hand-rolled settings file, the struct-and-clamp shape
// stays the same.
package config

import (
	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Config is the typed form of the config keys the core consumes (§6).
type Config struct {
	AnalogRatePct     float64 `toml:"analog_rate_pct"`
	DigitalMinHoldSec float64 `toml:"digital_min_hold_sec"`

	// WindowSeconds is the longest window any SnapshotAPI reader will
	// request (§3's max_window_seconds). acquire.NewCore sizes every
	// signal's ring from this so capacity/target_hz >= WindowSeconds.
	WindowSeconds        float64           `toml:"window_seconds"`
	PerSignalMode        map[string]string `toml:"per_signal_mode"`
	TriggerLeftDigital   bool              `toml:"trigger_left_digital"`
	TriggerRightDigital  bool              `toml:"trigger_right_digital"`
	VirtualOutputEnabled bool              `toml:"virtual_output_enabled"`
}

// Defaults returns the config used when no file is present, in the
// teacher's Defaults()-constructor style.
func Defaults() Config {
	return Config{
		AnalogRatePct:     10,
		DigitalMinHoldSec: 0.005,
		// §3's own example: 1kHz * 60s + headroom.
		WindowSeconds: 60,
		PerSignalMode: map[string]string{},
	}
}

const (
	minAnalogRatePct = 0.0
	maxAnalogRatePct = 100.0
	minHoldSec       = 0.0
	minWindowSeconds = 0.0
)

// Load decodes path as TOML into a Config, clamping any out-of-range
// field and logging a one-shot warning per clamp (§7: "Configuration out
// of range: clamp to accepted range; emit one-shot warning").
func Load(path string, log *zap.SugaredLogger) (Config, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	cfg := Defaults()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "config: decode %s", path)
	}

	cfg.clamp(log)
	return cfg, nil
}

func (c *Config) clamp(log *zap.SugaredLogger) {
	if c.AnalogRatePct < minAnalogRatePct {
		log.Warnw("config: analog_rate_pct below minimum, clamping", "value", c.AnalogRatePct, "min", minAnalogRatePct)
		c.AnalogRatePct = minAnalogRatePct
	}
	if c.AnalogRatePct > maxAnalogRatePct {
		log.Warnw("config: analog_rate_pct above maximum, clamping", "value", c.AnalogRatePct, "max", maxAnalogRatePct)
		c.AnalogRatePct = maxAnalogRatePct
	}
	if c.DigitalMinHoldSec < minHoldSec {
		log.Warnw("config: digital_min_hold_sec negative, clamping", "value", c.DigitalMinHoldSec)
		c.DigitalMinHoldSec = minHoldSec
	}
	if c.WindowSeconds < minWindowSeconds {
		log.Warnw("config: window_seconds negative, clamping", "value", c.WindowSeconds)
		c.WindowSeconds = minWindowSeconds
	}
	if c.PerSignalMode == nil {
		c.PerSignalMode = map[string]string{}
	}
}
