package sample

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRingMonotoneOrder(t *testing.T) {
	r := NewRing(8)
	for i := 0; i < 20; i++ {
		r.Push(float64(i)*0.001, float32(i))
	}
	snap := r.Snapshot(0.019, 1.0)
	for i := 1; i < len(snap); i++ {
		require.LessOrEqual(t, snap[i-1].T, snap[i].T)
	}
}

func TestRingLenBoundedByCapacity(t *testing.T) {
	r := NewRing(4)
	for i := 0; i < 100; i++ {
		r.Push(float64(i), float32(i))
	}
	require.Equal(t, 4, r.Len())
	require.LessOrEqual(t, len(r.Snapshot(99, 1e9)), 4)
}

func TestRingSnapshotWindow(t *testing.T) {
	r := NewRing(16)
	for i := 0; i < 10; i++ {
		r.Push(float64(i), float32(i))
	}
	snap := r.Snapshot(9, 3)
	require.Equal(t, []float32{6, 7, 8, 9}, valuesOf(snap))
}

func TestRingSnapshotWithBaselineOutsideWindow(t *testing.T) {
	r := NewRing(16)
	r.Push(0.0, 1)
	r.Push(5.0, 2)
	snap := r.SnapshotWithBaseline(5.0, 1.0)
	require.Equal(t, []float32{1, 2}, valuesOf(snap))
}

func TestRingSnapshotWithBaselineNoneInWindow(t *testing.T) {
	r := NewRing(16)
	r.Push(0.0, 42)
	snap := r.SnapshotWithBaseline(100.0, 1.0)
	require.Equal(t, []float32{42}, valuesOf(snap))
}

func TestRingClear(t *testing.T) {
	r := NewRing(4)
	r.Push(1, 1)
	r.Push(2, 2)
	r.Clear()
	require.Equal(t, 0, r.Len())
}

func TestNextPow2(t *testing.T) {
	require.Equal(t, 2, NextPow2(0))
	require.Equal(t, 2, NextPow2(2))
	require.Equal(t, 8, NextPow2(5))
	require.Equal(t, 16, NextPow2(16))
}

func valuesOf(s []Sample) []float32 {
	out := make([]float32, len(s))
	for i, v := range s {
		out[i] = v.V
	}
	return out
}
