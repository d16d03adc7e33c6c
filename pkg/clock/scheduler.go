package clock

import (
	"context"
	"math"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

const (
	sleepSlackSeconds = 800e-6 // wake deadlines are approached via coarse sleep, then a short busy-wait tail
	emaAlpha          = 0.05
	statsWindow       = 100 * time.Millisecond

	// HDR histogram range for per-tick scheduler jitter: 1µs floor, 60s
	// ceiling (generously covers a stalled/debugger-paused process), 3
	// significant figures — the same range/precision convention the
	// corpus's latency trackers use for interval+lifetime histograms.
	jitterHistMinUs   = 1
	jitterHistMaxUs   = 60_000_000
	jitterHistSigFigs = 3
)

// PollStats is the read-only snapshot of scheduler health, published once
// per statsWindow (100 ms) for consumers (§4.2).
type PollStats struct {
	EffectiveHz  float64
	AvgLoopUs    float64
	JitterP50Us  float64
	JitterP99Us  float64
	JitterMaxUs  float64
	TicksOverrun uint64 // ticks where the catch-up reset (wake = now + Δ) fired
}

// Scheduler runs a fixed-interval deadline loop at targetHz, per §4.2.
type Scheduler struct {
	clock    *Clock
	period   float64 // seconds
	targetHz float64

	avgLoopUs atomic.Uint64 // bits of float64, EMA of measured work duration

	windowStart  float64
	windowTicks  uint64
	overrunTicks atomic.Uint64

	jitterInterval *hdrhistogram.Histogram

	stats atomic.Pointer[PollStats]
}

// NewScheduler creates a Scheduler targeting targetHz ticks per second.
func NewScheduler(clk *Clock, targetHz float64) *Scheduler {
	s := &Scheduler{
		clock:          clk,
		period:         1.0 / targetHz,
		targetHz:       targetHz,
		jitterInterval: hdrhistogram.New(jitterHistMinUs, jitterHistMaxUs, jitterHistSigFigs),
	}
	s.stats.Store(&PollStats{EffectiveHz: targetHz})
	return s
}

// Stats returns the most recently published PollStats. Safe for concurrent
// callers.
func (s *Scheduler) Stats() PollStats {
	return *s.stats.Load()
}

// Run executes onTick once per period until ctx is cancelled. onTick
// receives the monotonic seconds-since-start time at which the tick began.
func (s *Scheduler) Run(ctx context.Context, onTick func(now float64)) {
	wake := s.clock.Now() + s.period
	s.windowStart = s.clock.Now()

	for ctx.Err() == nil {
		tickStart := s.clock.Now()
		onTick(tickStart)

		workDur := s.clock.Now() - tickStart
		s.recordLoopDuration(workDur)

		sleepTarget := wake - sleepSlackSeconds
		if now := s.clock.Now(); now < sleepTarget {
			time.Sleep(time.Duration((sleepTarget - now) * float64(time.Second)))
		}
		for s.clock.Now() < wake {
			runtime.Gosched()
		}

		now := s.clock.Now()
		s.recordJitter(now - wake)
		s.recordTick(now)

		wake += s.period
		if now > wake+s.period {
			wake = now + s.period
			s.overrunTicks.Add(1)
		}
	}
}

func (s *Scheduler) recordLoopDuration(workDur float64) {
	workUs := workDur * 1e6
	prev := math.Float64frombits(s.avgLoopUs.Load())
	next := prev*(1-emaAlpha) + workUs*emaAlpha
	s.avgLoopUs.Store(math.Float64bits(next))
}

func (s *Scheduler) recordJitter(jitterSeconds float64) {
	if jitterSeconds < 0 {
		jitterSeconds = 0
	}
	us := int64(jitterSeconds * 1e6)
	if us < jitterHistMinUs {
		us = jitterHistMinUs
	}
	if us > jitterHistMaxUs {
		us = jitterHistMaxUs
	}
	_ = s.jitterInterval.RecordValue(us)
}

func (s *Scheduler) recordTick(now float64) {
	s.windowTicks++
	elapsed := now - s.windowStart
	if elapsed < statsWindow.Seconds() {
		return
	}
	effectiveHz := float64(s.windowTicks) / elapsed

	snap := PollStats{
		EffectiveHz:  effectiveHz,
		AvgLoopUs:    math.Float64frombits(s.avgLoopUs.Load()),
		JitterP50Us:  float64(s.jitterInterval.ValueAtQuantile(50)),
		JitterP99Us:  float64(s.jitterInterval.ValueAtQuantile(99)),
		JitterMaxUs:  float64(s.jitterInterval.Max()),
		TicksOverrun: s.overrunTicks.Load(),
	}
	s.stats.Store(&snap)

	s.jitterInterval.Reset()
	s.windowTicks = 0
	s.windowStart = now
}
