package clock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSchedulerEffectiveHz(t *testing.T) {
	clk := New()
	s := NewScheduler(clk, 1000)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	var ticks int
	s.Run(ctx, func(now float64) {
		ticks++
	})

	require.Greater(t, ticks, 200)
	stats := s.Stats()
	require.InDelta(t, 1000.0, stats.EffectiveHz, 1000.0*0.1)
}
