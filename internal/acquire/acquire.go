// Package acquire implements the acquisition core: the single 1 kHz loop
// that reads the most recent raw report from each bound device, decodes
// and filters every signal, writes the result into its sample ring, then
// resolves and publishes the current mapping table's outputs. This
// mirrors spec.md §5's reference design — one thread performing
// acquisition -> filter -> ring-write -> mapping -> publish per tick —
// started and stopped via golang.org/x/sync/errgroup, the structured-
// concurrency idiom this pack's service examples use for "N goroutines,
// stop on first error or on context cancellation".
package acquire

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/retromux/hotaslink/pkg/clock"
	"github.com/retromux/hotaslink/pkg/decode"
	"github.com/retromux/hotaslink/pkg/descriptor"
	"github.com/retromux/hotaslink/pkg/filter"
	"github.com/retromux/hotaslink/pkg/iface"
	"github.com/retromux/hotaslink/pkg/mapping"
	"github.com/retromux/hotaslink/pkg/publish"
	"github.com/retromux/hotaslink/pkg/resolve"
	"github.com/retromux/hotaslink/pkg/sample"
	"github.com/retromux/hotaslink/pkg/sigkey"
	"github.com/retromux/hotaslink/pkg/snapshot"
	"github.com/retromux/hotaslink/pkg/status"
)

// minRingCapacity is the floor applied to the config-derived ring
// capacity, so a tiny or zero windowSeconds still leaves every ring
// usable rather than collapsing to sample.NewRing's own panic-on-<2 floor.
const minRingCapacity = 2

// deviceBinding pairs an opened device handle with the source that owns
// it, so the tick loop can poll every bound device uniformly.
type deviceBinding struct {
	source iface.DeviceSource
	handle iface.Handle
}

// signalValues is the acquisition thread's own view of "the current
// value of every signal", fed to resolve.Resolve each tick. It is
// mutated and read only from the tick goroutine; no locking is needed.
type signalValues map[sigkey.Key]float32

func (s signalValues) Value(key sigkey.Key) (float32, bool) {
	v, ok := s[key]
	return v, ok
}

// Core wires the decode -> filter -> ring -> mapping -> publish pipeline
// into one tick function driven by a clock.Scheduler.
type Core struct {
	clk   *clock.Clock
	sched *clock.Scheduler

	devices     []deviceBinding
	descriptors *descriptor.Set
	filters     *filter.Engine
	rings       *snapshot.Registry
	mappings    *mapping.Table
	publisher   *publish.Publisher

	current      signalValues
	ringCapacity int
	acqStatus    status.Cell
	log          *zap.SugaredLogger
}

// NewCore builds a Core. descriptors and filters must already be
// registered with the same set of signal keys (see filter.NewEngine).
//
// windowSeconds is the longest window a SnapshotAPI reader will ever
// request (§3's max_window_seconds); every signal's ring is sized to
// sample.NextPow2(windowSeconds*targetHz) so capacity/targetHz >=
// windowSeconds, per §3's ring-lifecycle requirement.
func NewCore(
	clk *clock.Clock,
	targetHz float64,
	windowSeconds float64,
	descriptors *descriptor.Set,
	filters *filter.Engine,
	rings *snapshot.Registry,
	mappings *mapping.Table,
	publisher *publish.Publisher,
	log *zap.SugaredLogger,
) *Core {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	capacity := sample.NextPow2(int(windowSeconds * targetHz))
	if capacity < minRingCapacity {
		capacity = minRingCapacity
	}
	return &Core{
		clk:          clk,
		sched:        clock.NewScheduler(clk, targetHz),
		descriptors:  descriptors,
		filters:      filters,
		rings:        rings,
		mappings:     mappings,
		publisher:    publisher,
		current:      make(signalValues),
		ringCapacity: capacity,
		log:          log,
	}
}

// AddDevice binds an opened device to the core; every tick, its latest
// report is decoded against the shared descriptor set.
func (c *Core) AddDevice(source iface.DeviceSource, handle iface.Handle) {
	c.devices = append(c.devices, deviceBinding{source: source, handle: handle})
}

// RingCapacity returns the per-signal sample-ring capacity this Core was
// sized with (see NewCore's windowSeconds parameter).
func (c *Core) RingCapacity() int { return c.ringCapacity }

// Stats returns the scheduler's current poll statistics.
func (c *Core) Stats() clock.PollStats { return c.sched.Stats() }

// Status returns the acquisition subsystem's current health.
func (c *Core) Status() status.Status { return c.acqStatus.Get() }

// Run starts the acquisition tick loop and blocks until ctx is canceled
// or the loop returns an error. It is safe to call once per Core.
func (c *Core) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c.sched.Run(ctx, c.tick)
		return ctx.Err()
	})
	return g.Wait()
}

func (c *Core) tick(now float64) {
	for _, d := range c.devices {
		report, _, ok := d.source.ReadLatest(d.handle)
		if !ok {
			// §7 transient I/O: no update this tick, keep going.
			continue
		}
		c.ingest(now, report)
	}

	entries := c.mappings.List()
	resolved := resolve.Resolve(entries, c.current)
	c.publisher.PublishTick(now, resolved)
	c.acqStatus.SetOk()
}

func (c *Core) ingest(now float64, report []byte) {
	for _, obs := range decode.Decode(c.descriptors, report) {
		desc, ok := c.descriptors.Lookup(obs.Key)
		if !ok {
			continue
		}
		filtered := c.filters.Apply(obs.Key, now, obs.V, desc.BitCount)
		c.current[obs.Key] = filtered
		c.rings.Register(obs.Key, c.ringCapacity).Push(now, filtered)
	}
}
