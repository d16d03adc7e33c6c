package acquire

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/retromux/hotaslink/internal/devicesource"
	"github.com/retromux/hotaslink/pkg/clock"
	"github.com/retromux/hotaslink/pkg/descriptor"
	"github.com/retromux/hotaslink/pkg/filter"
	"github.com/retromux/hotaslink/pkg/iface"
	"github.com/retromux/hotaslink/pkg/mapping"
	"github.com/retromux/hotaslink/pkg/publish"
	"github.com/retromux/hotaslink/pkg/sample"
	"github.com/retromux/hotaslink/pkg/sigkey"
	"github.com/retromux/hotaslink/pkg/snapshot"
)

func TestCoreEndToEndResolvesJoystickToAxis(t *testing.T) {
	stickJoyX := sigkey.Key{Device: sigkey.DeviceStick, ID: "joy_x"}

	descs, err := descriptor.NewSet([]descriptor.Descriptor{
		{Key: stickJoyX, BitStart: 0, BitCount: 8},
	})
	require.NoError(t, err)

	filters := filter.NewEngine([]sigkey.Key{stickJoyX}, filter.Params{AnalogRatePct: 100})
	filters.SetMode(stickJoyX, descriptor.ModeAnalog)

	rings := snapshot.NewRegistry()

	tbl := mapping.NewTable()
	tbl.Add(mapping.Entry{
		SignalKey: stickJoyX,
		Action:    mapping.NewAxisAction(mapping.LX),
		Priority:  1,
		Deadband:  mapping.Deadband(0),
	})

	pad := iface.NewRecordingPad()
	input := iface.NewRecordingInput(250, 33)
	pub := publish.NewPublisher(pad, input)
	require.NoError(t, pub.Enable())

	clk := clock.New()
	core := NewCore(clk, 1000, 1, descs, filters, rings, tbl, pub, nil)

	src := devicesource.NewSynthetic()
	identity := iface.DeviceIdentity{Path: "stick0", Kind: "stick"}
	src.AddDevice(identity, []devicesource.Frame{
		{T: 0, Report: []byte{0xFF}}, // max raw -> logical +1.0
	})
	handle, err := src.Open(context.Background(), identity.Path)
	require.NoError(t, err)
	core.AddDevice(src, handle)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ctx.Done():
				close(done)
				return
			default:
				src.AdvanceTo(clk.Now())
				time.Sleep(time.Millisecond)
			}
		}
	}()

	_ = core.Run(ctx)
	<-done

	last, ok := pad.LastReport()
	require.True(t, ok)
	require.Equal(t, int16(32767), last.LX)
}

// §3: ring capacity must satisfy capacity/target_hz >= windowSeconds.
func TestNewCoreSizesRingsFromWindowSeconds(t *testing.T) {
	clk := clock.New()

	core60 := NewCore(clk, 1000, 60, nil, nil, nil, nil, nil, nil)
	require.Equal(t, sample.NextPow2(1000*60), core60.RingCapacity())

	core1 := NewCore(clk, 1000, 1, nil, nil, nil, nil, nil, nil)
	require.Equal(t, sample.NextPow2(1000), core1.RingCapacity())
	require.Less(t, core1.RingCapacity(), core60.RingCapacity())

	// A tiny/zero window must not collapse below the ring's own usable floor.
	coreTiny := NewCore(clk, 1000, 0, nil, nil, nil, nil, nil, nil)
	require.GreaterOrEqual(t, coreTiny.RingCapacity(), minRingCapacity)
}
