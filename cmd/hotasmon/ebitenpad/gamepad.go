// Package ebitenpad adapts a real local gamepad, read through ebiten's
// standard-gamepad API, into an iface.DeviceSource — so cmd/hotasmon can
// drive the core pipeline from actual hardware during manual testing
// without the core itself depending on ebiten. Poll must be called once
// per ebiten Update() tick (the same per-frame-poll shape the teacher's
// own App.Update uses for keyboard state in internal/ui/ebitenapp.go);
// ReadLatest then serves the most recent poll to the acquisition core.
package ebitenpad

import (
	"context"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/retromux/hotaslink/pkg/clock"
	"github.com/retromux/hotaslink/pkg/iface"
)

// Report layout (little-endian, all fields fixed 8-bit except the
// trailing 16-bit button mask):
//
//	byte 0: LX   (axis, full range)
//	byte 1: LY   (axis, full range)
//	byte 2: RX   (axis, full range)
//	byte 3: RY   (axis, full range)
//	byte 4: LT   (throttle rail)
//	byte 5: RT   (throttle rail)
//	byte 6-7: button bitmask, same bit assignment as iface.PadReport.Buttons
//	          (0-3 DPad up/down/left/right, 4 Start, 5 Back, 6 L3, 7 R3,
//	          8 LB, 9 RB, 12 A, 13 B, 14 X, 15 Y)
const ReportLen = 8

// staleAfterSeconds is the age past which ReadLatest treats the last poll
// as absent (iface.DeviceSource.ReadLatest's staleness rule).
const staleAfterSeconds = 0.5

const devicePath = "ebiten:gamepad0"

// GamepadSource is an iface.DeviceSource backed by the first ebiten
// gamepad found connected.
type GamepadSource struct {
	clk *clock.Clock

	mu        sync.Mutex
	connected bool
	id        ebiten.GamepadID
	latest    []byte
	latestT   float64
}

func NewGamepadSource(clk *clock.Clock) *GamepadSource {
	return &GamepadSource{clk: clk}
}

// Poll reads the first connected gamepad's standard axes and buttons
// into a raw report. Call once per ebiten Update() tick.
func (g *GamepadSource) Poll() {
	ids := ebiten.AppendGamepadIDs(nil)
	if len(ids) == 0 {
		g.mu.Lock()
		g.connected = false
		g.mu.Unlock()
		return
	}

	id := ids[0]
	report := make([]byte, ReportLen)
	report[0] = axisByte(ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickHorizontal))
	report[1] = axisByte(ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickVertical))
	report[2] = axisByte(ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisRightStickHorizontal))
	report[3] = axisByte(ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisRightStickVertical))
	report[4] = triggerByte(ebiten.StandardGamepadButtonValue(id, ebiten.StandardGamepadButtonFrontBottomLeft))
	report[5] = triggerByte(ebiten.StandardGamepadButtonValue(id, ebiten.StandardGamepadButtonFrontBottomRight))

	var buttons uint16
	setBit := func(bit uint, pressed bool) {
		if pressed {
			buttons |= 1 << bit
		}
	}
	setBit(0, ebiten.IsStandardGamepadButtonPressed(id, ebiten.StandardGamepadButtonLeftTop))
	setBit(1, ebiten.IsStandardGamepadButtonPressed(id, ebiten.StandardGamepadButtonLeftBottom))
	setBit(2, ebiten.IsStandardGamepadButtonPressed(id, ebiten.StandardGamepadButtonLeftLeft))
	setBit(3, ebiten.IsStandardGamepadButtonPressed(id, ebiten.StandardGamepadButtonLeftRight))
	setBit(4, ebiten.IsStandardGamepadButtonPressed(id, ebiten.StandardGamepadButtonCenterRight))  // Start
	setBit(5, ebiten.IsStandardGamepadButtonPressed(id, ebiten.StandardGamepadButtonCenterLeft))   // Back
	setBit(6, ebiten.IsStandardGamepadButtonPressed(id, ebiten.StandardGamepadButtonLeftStick))    // L3
	setBit(7, ebiten.IsStandardGamepadButtonPressed(id, ebiten.StandardGamepadButtonRightStick))   // R3
	setBit(8, ebiten.IsStandardGamepadButtonPressed(id, ebiten.StandardGamepadButtonFrontTopLeft))  // LB
	setBit(9, ebiten.IsStandardGamepadButtonPressed(id, ebiten.StandardGamepadButtonFrontTopRight)) // RB
	setBit(12, ebiten.IsStandardGamepadButtonPressed(id, ebiten.StandardGamepadButtonRightBottom))  // A
	setBit(13, ebiten.IsStandardGamepadButtonPressed(id, ebiten.StandardGamepadButtonRightRight))   // B
	setBit(14, ebiten.IsStandardGamepadButtonPressed(id, ebiten.StandardGamepadButtonRightLeft))    // X
	setBit(15, ebiten.IsStandardGamepadButtonPressed(id, ebiten.StandardGamepadButtonRightTop))     // Y
	report[6] = byte(buttons)
	report[7] = byte(buttons >> 8)

	g.mu.Lock()
	g.id = id
	g.connected = true
	g.latest = report
	g.latestT = g.clk.Now()
	g.mu.Unlock()
}

func axisByte(v float64) byte {
	if v < -1 {
		v = -1
	}
	if v > 1 {
		v = 1
	}
	return byte((v + 1) / 2 * 255)
}

func triggerByte(v float64) byte {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return byte(v * 255)
}

func (g *GamepadSource) Enumerate(ctx context.Context) ([]iface.DeviceIdentity, error) {
	return []iface.DeviceIdentity{{Path: devicePath, Kind: "gamepad"}}, nil
}

func (g *GamepadSource) Open(ctx context.Context, path string) (iface.Handle, error) {
	return devicePath, nil
}

func (g *GamepadSource) Close(h iface.Handle) error { return nil }

func (g *GamepadSource) Connected(h iface.Handle) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.connected
}

func (g *GamepadSource) ReadLatest(h iface.Handle) ([]byte, float64, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.connected || g.latest == nil {
		return nil, 0, false
	}
	if g.clk.Now()-g.latestT > staleAfterSeconds {
		return nil, 0, false
	}
	return g.latest, g.latestT, true
}
