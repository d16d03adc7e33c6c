package bitx

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractLSBFirst(t *testing.T) {
	report := []byte{0b10110000, 0x00}
	// bits 4..7 of byte 0 = 0b1011 = 11
	got := Extract(report, 4, 4)
	require.EqualValues(t, 0b1011, got)
}

func TestExtractSpansBytes(t *testing.T) {
	report := []byte{0xFF, 0x01}
	// bits 4..11 (8 bits): low nibble of byte0 high bits + low bits of byte1
	got := Extract(report, 4, 8)
	require.EqualValues(t, 0x1F, got)
}

func TestExtractOutOfBoundsReturnsZero(t *testing.T) {
	report := []byte{0x01}
	require.EqualValues(t, 0, Extract(report, 8, 8))
}

func TestExtractInvalidBitCount(t *testing.T) {
	report := []byte{0xFF}
	require.EqualValues(t, 0, Extract(report, 0, 0))
	require.EqualValues(t, 0, Extract(report, 0, 33))
}

func TestMaxValue(t *testing.T) {
	require.EqualValues(t, 1, MaxValue(1))
	require.EqualValues(t, 255, MaxValue(8))
	require.EqualValues(t, 65535, MaxValue(16))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	original := []byte{0x5A, 0xC3, 0x0F}
	cases := []struct {
		start uint16
		count uint8
	}{
		{0, 8}, {4, 8}, {0, 12}, {8, 4}, {3, 5},
	}
	for _, c := range cases {
		v := Extract(original, c.start, c.count)
		report := make([]byte, len(original))
		for i := range report {
			report[i] = ^original[i]
		}
		// the inverted fill above is overwritten here: start from an exact
		// copy of original, clear the target field, then encode the
		// extracted value back over it. Any bit Encode touched outside the
		// field would leave report different from original.
		copy(report, original)
		Encode(report, c.start, c.count, 0) // clear the field
		Encode(report, c.start, c.count, v) // restore it
		require.Equal(t, original, report, "bitStart=%d bitCount=%d", c.start, c.count)
	}
}
