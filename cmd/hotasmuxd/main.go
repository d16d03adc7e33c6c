// Command hotasmuxd runs the acquisition/publish pipeline as a headless
// daemon. In the absence of a real HID backend (always, in this
// sandbox — see internal/devicesource) it drives the pipeline from a
// scripted Synthetic device so the whole stack runs end to end. This is
// the ambient "run the daemon" entry point every core library in this
// corpus ships, the same role cmd/gbemu and cmd/cpurunner play for the
// emulator core.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/retromux/hotaslink/internal/acquire"
	"github.com/retromux/hotaslink/internal/devicesource"
	"github.com/retromux/hotaslink/pkg/clock"
	"github.com/retromux/hotaslink/pkg/config"
	"github.com/retromux/hotaslink/pkg/descriptor"
	"github.com/retromux/hotaslink/pkg/filter"
	"github.com/retromux/hotaslink/pkg/iface"
	"github.com/retromux/hotaslink/pkg/mapping"
	"github.com/retromux/hotaslink/pkg/publish"
	"github.com/retromux/hotaslink/pkg/sigkey"
	"github.com/retromux/hotaslink/pkg/snapshot"
)

type cliFlags struct {
	ConfigPath string
	TargetHz   float64
	StatsEvery time.Duration
	RunFor     time.Duration // 0 = run until signaled
}

func parseFlags() cliFlags {
	var f cliFlags
	flag.StringVar(&f.ConfigPath, "config", "", "path to TOML config (defaults used if empty)")
	flag.Float64Var(&f.TargetHz, "hz", 1000, "acquisition tick rate")
	flag.DurationVar(&f.StatsEvery, "stats-every", 2*time.Second, "how often to log PollStats")
	flag.DurationVar(&f.RunFor, "run-for", 0, "exit after this long (0 = run until SIGINT/SIGTERM)")
	flag.Parse()
	return f
}

func main() {
	f := parseFlags()

	log, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck
	sugar := log.Sugar()

	cfg := config.Defaults()
	if f.ConfigPath != "" {
		loaded, err := config.Load(f.ConfigPath, sugar)
		if err != nil {
			sugar.Fatalw("failed to load config", "path", f.ConfigPath, "error", err)
		}
		cfg = loaded
	}

	stickJoyX := sigkey.Key{Device: sigkey.DeviceStick, ID: "joy_x"}
	stickJoyY := sigkey.Key{Device: sigkey.DeviceStick, ID: "joy_y"}
	throttleL := sigkey.Key{Device: sigkey.DeviceThrottle, ID: "throttle_l"}
	triggerLeft := sigkey.Key{Device: sigkey.DeviceThrottle, ID: "trigger_left"}
	triggerRight := sigkey.Key{Device: sigkey.DeviceThrottle, ID: "trigger_right"}

	keys := []sigkey.Key{stickJoyX, stickJoyY, throttleL, triggerLeft, triggerRight}
	descs, err := descriptor.NewSet([]descriptor.Descriptor{
		{Key: stickJoyX, DisplayName: "Joy X", BitStart: 0, BitCount: 10},
		{Key: stickJoyY, DisplayName: "Joy Y", BitStart: 10, BitCount: 10},
		{Key: throttleL, DisplayName: "Throttle", BitStart: 20, BitCount: 8},
		{Key: triggerLeft, DisplayName: "Trigger Left", BitStart: 28, BitCount: 1},
		{Key: triggerRight, DisplayName: "Trigger Right", BitStart: 29, BitCount: 1},
	})
	if err != nil {
		sugar.Fatalw("invalid descriptor set", "error", err)
	}

	filters := filter.NewEngine(keys, filter.Params{
		AnalogRatePct:     cfg.AnalogRatePct,
		DigitalMinHoldSec: cfg.DigitalMinHoldSec,
	})
	filters.SetMode(stickJoyX, descriptor.ModeAnalog)
	filters.SetMode(stickJoyY, descriptor.ModeAnalog)
	filters.SetMode(throttleL, descriptor.ModeAnalog)
	filters.SetMode(triggerLeft, descriptor.ModeDigital)
	filters.SetMode(triggerRight, descriptor.ModeDigital)
	if cfg.TriggerLeftDigital {
		filters.SetForceDigital(triggerLeft, true)
	}
	if cfg.TriggerRightDigital {
		filters.SetForceDigital(triggerRight, true)
	}

	// §6: per_signal_mode overrides the mode picked above for any signal
	// it names, the Control Surface's config-driven path into
	// filter.Engine.SetMode.
	for rawKey, rawMode := range cfg.PerSignalMode {
		key, ok := sigkey.ParseKey(rawKey)
		if !ok {
			sugar.Warnw("config: per_signal_mode has unparseable key, ignoring", "key", rawKey)
			continue
		}
		if _, ok := descs.Lookup(key); !ok {
			sugar.Warnw("config: per_signal_mode names an unknown signal, ignoring", "key", rawKey)
			continue
		}
		mode, ok := descriptor.ParseMode(rawMode)
		if !ok {
			sugar.Warnw("config: per_signal_mode has unparseable mode, ignoring", "key", rawKey, "mode", rawMode)
			continue
		}
		filters.SetMode(key, mode)
	}

	rings := snapshot.NewRegistry()

	tbl := mapping.NewTable()
	tbl.Add(mapping.Entry{SignalKey: stickJoyX, Action: mapping.NewAxisAction(mapping.LX), Priority: 1, Deadband: mapping.Deadband(0.05)})
	tbl.Add(mapping.Entry{SignalKey: stickJoyY, Action: mapping.NewAxisAction(mapping.LY), Priority: 1, Deadband: mapping.Deadband(0.05)})
	tbl.Add(mapping.Entry{SignalKey: throttleL, Action: mapping.NewAxisAction(mapping.LT), Priority: 1, Deadband: mapping.Deadband(0)})
	tbl.Add(mapping.Entry{SignalKey: triggerLeft, Action: mapping.NewButtonAction(mapping.ButtonB), Priority: 1})
	tbl.Add(mapping.Entry{SignalKey: triggerRight, Action: mapping.NewButtonAction(mapping.ButtonA), Priority: 1})

	pad := iface.NewRecordingPad()
	input := iface.NewRecordingInput(250, 33)
	pub := publish.NewPublisher(pad, input)
	if cfg.VirtualOutputEnabled {
		if err := pub.Enable(); err != nil {
			sugar.Errorw("virtual pad enable failed", "error", err)
		}
	}

	clk := clock.New()
	core := acquire.NewCore(clk, f.TargetHz, cfg.WindowSeconds, descs, filters, rings, tbl, pub, sugar)

	src := devicesource.NewSynthetic()
	identity := iface.DeviceIdentity{Path: "stick0", Kind: "stick"}
	src.AddDevice(identity, []devicesource.Frame{
		{T: 0, Report: make([]byte, 4)},
	})
	handle, err := src.Open(context.Background(), identity.Path)
	if err != nil {
		sugar.Fatalw("open synthetic device failed", "error", err)
	}
	core.AddDevice(src, handle)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if f.RunFor > 0 {
		ctx, cancel = context.WithTimeout(ctx, f.RunFor)
		defer cancel()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	go func() {
		ticker := time.NewTicker(time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				src.AdvanceTo(clk.Now())
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(f.StatsEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				stats := core.Stats()
				sugar.Infow("poll stats",
					"effective_hz", stats.EffectiveHz,
					"avg_loop_us", stats.AvgLoopUs,
					"jitter_p50_us", stats.JitterP50Us,
					"jitter_p99_us", stats.JitterP99Us,
					"jitter_max_us", stats.JitterMaxUs,
					"ticks_overrun", stats.TicksOverrun,
					"status", core.Status().Level.String(),
				)
			}
		}
	}()

	sugar.Infow("hotasmuxd starting", "target_hz", f.TargetHz)
	if err := core.Run(ctx); err != nil && ctx.Err() == nil {
		sugar.Errorw("acquisition core exited with error", "error", err)
	}

	pub.Shutdown()
	sugar.Infow("hotasmuxd stopped")
}
