// Package decode implements the SignalDecoder (§4.4): applying a
// descriptor set to one raw HID report and normalizing each extracted raw
// value into its signal's canonical logical range.
package decode

import (
	"strings"

	"github.com/retromux/hotaslink/pkg/bitx"
	"github.com/retromux/hotaslink/pkg/descriptor"
	"github.com/retromux/hotaslink/pkg/sigkey"
)

// Observation is one decoded (signal_key, logical_value) pair.
type Observation struct {
	Key sigkey.Key
	V   float32
}

// classify buckets a signal id into the normalization rule §4.4 lists. The
// id substrings below are the bit-map authoring convention this decoder
// expects; unmatched ids fall through to the plain digital/raw-integer
// rule.
func classify(id string) axisKind {
	switch id {
	case "joy_x", "joy_y", "joy_z":
		return axisFullRange
	}
	if strings.Contains(id, "thumb_joy") || strings.Contains(id, "c_joy") {
		return axisThumb
	}
	if strings.Contains(id, "throttle") || strings.Contains(id, "slider") {
		return axisThrottleRail
	}
	return axisNone
}

type axisKind uint8

const (
	axisNone axisKind = iota
	axisFullRange
	axisThumb
	axisThrottleRail
)

// Decode applies every descriptor in set to report and returns one
// Observation per descriptor whose bit range fits within report. A
// descriptor whose last bit index is beyond the report's length is skipped
// for this tick (§7 descriptor violation — decoding continues for the
// remaining signals).
func Decode(set *descriptor.Set, report []byte) []Observation {
	keys := set.Keys()
	out := make([]Observation, 0, len(keys))
	for _, k := range keys {
		d, _ := set.Lookup(k)
		lastBit := int(d.BitStart) + int(d.BitCount) - 1
		if lastBit/8 >= len(report) {
			continue
		}
		out = append(out, Observation{Key: k, V: Normalize(d, report)})
	}
	return out
}

// Normalize extracts d's raw field from report and converts it to the
// signal's canonical logical value per §4.4.
func Normalize(d descriptor.Descriptor, report []byte) float32 {
	raw := bitx.Extract(report, d.BitStart, d.BitCount)
	maxRaw := float64(bitx.MaxValue(d.BitCount))

	switch classify(d.Key.ID) {
	case axisFullRange:
		if maxRaw == 0 {
			return -1
		}
		v := float64(raw)/maxRaw*2 - 1
		return float32(v)
	case axisThumb:
		const thumbMax = 255.0
		v := float64(raw)/thumbMax*2 - 1
		return float32(v)
	case axisThrottleRail:
		if maxRaw == 0 {
			return 0
		}
		return float32(float64(raw) / maxRaw)
	}

	if d.Analog {
		return float32(raw)
	}

	// Digital: raw integer as f32; a 1-bit field collapses to 0.0/1.0 by
	// construction since raw is already 0 or 1.
	return float32(raw)
}
