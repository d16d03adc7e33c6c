// Command hotasmon is a small, optional Ebitengine-based consumer: a
// bar-graph live view over the core's SnapshotAPI, fed by a real local
// gamepad through ebitenpad.GamepadSource. It imports the hotaslink
// packages (including internal/acquire), never the reverse — deleting this
// command entirely does not affect the core's compileability or tests.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"

	"github.com/retromux/hotaslink/cmd/hotasmon/ebitenpad"
	"github.com/retromux/hotaslink/internal/acquire"
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

const (
	screenW, screenH = 420, 220
	barHeight        = 18
	barMaxWidth      = 200
)

var displayKeys = []sigkey.Key{
	{Device: sigkey.DeviceGamepad, ID: "joy_x"},
	{Device: sigkey.DeviceGamepad, ID: "joy_y"},
	{Device: sigkey.DeviceGamepad, ID: "thumb_joy_x"},
	{Device: sigkey.DeviceGamepad, ID: "thumb_joy_y"},
	{Device: sigkey.DeviceGamepad, ID: "throttle_l"},
	{Device: sigkey.DeviceGamepad, ID: "throttle_r"},
}

type app struct {
	clk    *clock.Clock
	rings  *snapshot.Registry
	gp     *ebitenpad.GamepadSource
	cancel context.CancelFunc
}

func (a *app) Update() error {
	a.gp.Poll()
	return nil
}

func (a *app) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{20, 20, 24, 255})
	now := a.clk.Now()

	for i, key := range displayKeys {
		y := 10 + i*(barHeight+6)
		ebitenutil.DebugPrintAt(screen, key.ID, 4, y)

		samples, ok := a.rings.Read(key, now, 0.05)
		var v float32
		if ok && len(samples) > 0 {
			v = samples[len(samples)-1].V
		}

		bar := ebiten.NewImage(barMaxWidth, barHeight)
		width := int((v + 1) / 2 * barMaxWidth)
		if width < 0 {
			width = 0
		}
		if width > barMaxWidth {
			width = barMaxWidth
		}
		if width > 0 {
			fill := bar.SubImage(image.Rect(0, 0, width, barHeight)).(*ebiten.Image)
			fill.Fill(color.RGBA{80, 180, 255, 255})
		}

		opts := &ebiten.DrawImageOptions{}
		opts.GeoM.Translate(110, float64(y))
		screen.DrawImage(bar, opts)
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%.2f", v), 320, y)
	}
}

func (a *app) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenW, screenH
}

func main() {
	hz := flag.Float64("hz", 1000, "acquisition tick rate")
	flag.Parse()

	clk := clock.New()
	keys := displayKeys
	descs := buildDescriptors(keys)

	filters := filter.NewEngine(keys, filter.Params{AnalogRatePct: 20})
	for _, k := range keys {
		filters.SetMode(k, descriptor.ModeAnalog)
	}

	rings := snapshot.NewRegistry()
	tbl := mapping.NewTable() // empty: viewer doesn't drive a virtual pad

	pad := iface.NewRecordingPad()
	input := iface.NewRecordingInput(250, 33)
	pub := publish.NewPublisher(pad, input)

	core := acquire.NewCore(clk, *hz, config.Defaults().WindowSeconds, descs, filters, rings, tbl, pub, nil)

	gp := ebitenpad.NewGamepadSource(clk)
	handle, err := gp.Open(context.Background(), "")
	if err != nil {
		log.Fatal(err)
	}
	core.AddDevice(gp, handle)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := core.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("acquisition core stopped: %v", err)
		}
	}()

	ebiten.SetWindowTitle("hotasmon")
	ebiten.SetWindowSize(screenW, screenH)

	a := &app{clk: clk, rings: rings, gp: gp, cancel: cancel}
	defer a.cancel()
	if err := ebiten.RunGame(a); err != nil {
		log.Fatal(err)
	}
}

// buildDescriptors lays displayKeys out as consecutive 8-bit fields over
// ebitenpad.GamepadSource's raw report, in the same order the adapter
// writes them.
func buildDescriptors(keys []sigkey.Key) *descriptor.Set {
	descs := make([]descriptor.Descriptor, 0, len(keys))
	for i, k := range keys {
		descs = append(descs, descriptor.Descriptor{
			Key:      k,
			BitStart: uint16(i * 8),
			BitCount: 8,
		})
	}
	set, err := descriptor.NewSet(descs)
	if err != nil {
		log.Fatal(err)
	}
	return set
}
