// Package streaming keeps the chunks around an observer loaded, one pool
// step per tick.
package streaming

import (
	"context"
	"errors"
	"log/slog"

	"voxelstream/internal/logging"
	"voxelstream/internal/profiling"
	"voxelstream/internal/world"

	"github.com/go-gl/mathgl/mgl32"
)

// Observer is whatever the world streams around.
type Observer interface {
	Position() mgl32.Vec3
	Enable()
	Enabled() bool
}

// LoadingIndicator is shown while the initial fill runs.
type LoadingIndicator interface {
	SetLoading(loading bool)
}

// Phase is the controller's streaming mode.
type Phase int

const (
	PhaseInitialFill Phase = iota
	PhaseSteady
)

func (p Phase) String() string {
	switch p {
	case PhaseInitialFill:
		return "initial-fill"
	case PhaseSteady:
		return "steady"
	default:
		return "unknown"
	}
}

// Options configures a Controller.
type Options struct {
	// Spawn is the chunk the initial fill is centred on.
	Spawn     world.ChunkCoord
	Radius    int
	Indicator LoadingIndicator
	Logger    *slog.Logger
	Profiler  *profiling.Frame
}

// Controller decides which chunks to load and evict. It is driven from a
// single goroutine through Tick; generation itself runs on the world's pool.
type Controller struct {
	world     *world.World
	observer  Observer
	indicator LoadingIndicator
	log       *slog.Logger
	prof      *profiling.Frame

	radius int
	spawn  world.ChunkCoord
	last   world.ChunkCoord

	phase   Phase
	filling bool
	queue   []world.ChunkCoord // LIFO
	current *world.Chunk       // terrain done, mesh step pending
}

// NewController returns a controller in the initial fill phase.
func NewController(w *world.World, obs Observer, opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Controller{
		world:     w,
		observer:  obs,
		indicator: opts.Indicator,
		log:       logging.For(opts.Logger, "streaming"),
		prof:      opts.Profiler,
		radius:    max(opts.Radius, 0),
		spawn:     opts.Spawn,
		phase:     PhaseInitialFill,
	}
}

// Phase reports the current mode.
func (c *Controller) Phase() Phase { return c.phase }

// Pending lists the coordinates still queued, next one last.
func (c *Controller) Pending() []world.ChunkCoord {
	out := make([]world.ChunkCoord, len(c.queue))
	copy(out, c.queue)
	return out
}

func (c *Controller) exhausted() bool {
	return len(c.queue) == 0 && c.current == nil
}

func (c *Controller) setLoading(v bool) {
	if c.indicator != nil {
		c.indicator.SetLoading(v)
	}
}

// Tick advances streaming by at most one generation step.
func (c *Controller) Tick(ctx context.Context) error {
	defer c.prof.Track("streaming.Tick")()
	defer func() {
		c.world.Metrics().StreamPending.Set(float64(len(c.queue)))
	}()

	switch c.phase {
	case PhaseInitialFill:
		return c.tickInitialFill(ctx)
	default:
		return c.tickSteady(ctx)
	}
}

func (c *Controller) tickInitialFill(ctx context.Context) error {
	if !c.filling {
		c.filling = true
		c.queue = append(c.queue[:0], c.world.FullHeightSet(c.spawn, c.radius)...)
		c.setLoading(true)
		c.log.Info("initial fill started", "spawn", c.spawn, "radius", c.radius, "chunks", len(c.queue))
	}
	if _, err := c.Step(ctx); err != nil {
		return err
	}
	if !c.exhausted() {
		return nil
	}

	c.phase = PhaseSteady
	c.last = c.spawn
	c.observer.Enable()
	c.setLoading(false)
	c.log.Info("initial fill complete", "loaded", c.world.LoadedCount())
	return nil
}

func (c *Controller) tickSteady(ctx context.Context) error {
	if !c.observer.Enabled() {
		return nil
	}
	if !c.exhausted() {
		if _, err := c.Step(ctx); err != nil {
			return err
		}
	}
	if c.exhausted() {
		c.queue = append(c.queue[:0], c.world.DirtyChunks()...)
	}
	c.checkBoundary()
	return nil
}

// Step performs one generation step for the next chunk that needs work and
// reports whether it did. Chunks already meshed are skipped.
func (c *Controller) Step(ctx context.Context) (bool, error) {
	defer c.prof.Track("streaming.Step")()

	for {
		if c.current == nil {
			ch, ok, err := c.next()
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
			c.current = ch
		}

		ch := c.current
		if !ch.Populated() {
			if err := c.world.GenerateTerrain(ctx, ch); err != nil {
				c.current = nil
				return true, err
			}
			return true, nil
		}

		c.current = nil
		if ch.NeedsRemesh() {
			return true, c.world.GenerateMesh(ctx, ch)
		}
	}
}

// next pops coordinates until one names a chunk that still needs work.
func (c *Controller) next() (*world.Chunk, bool, error) {
	for len(c.queue) > 0 {
		coord := c.queue[len(c.queue)-1]
		c.queue = c.queue[:len(c.queue)-1]

		ch, err := c.world.GetOrCreateChunk(coord)
		if errors.Is(err, world.ErrOutOfRange) {
			c.log.Warn("skipping chunk", "chunk", coord, "err", err)
			continue
		}
		if err != nil {
			return nil, false, err
		}
		if ch.Populated() && !ch.NeedsRemesh() {
			continue
		}
		return ch, true, nil
	}
	return nil, false, nil
}

// checkBoundary re-targets the queue when the observer enters a new chunk.
func (c *Controller) checkBoundary() {
	cur := world.ChunkAt(c.observer.Position(), c.world.ChunkSize())
	if cur == c.last {
		return
	}
	defer c.prof.Track("streaming.Boundary")()
	c.last = cur

	required := c.world.RequiredSet(cur, c.radius)
	inSet := make(map[world.ChunkCoord]struct{}, len(required))
	c.queue = c.queue[:0]
	for _, coord := range required {
		inSet[coord] = struct{}{}
		ch := c.world.Chunk(coord)
		if ch == nil || !ch.Populated() || ch.NeedsRemesh() {
			c.queue = append(c.queue, coord)
		}
	}
	if c.current != nil {
		if _, ok := inSet[c.current.Coord()]; !ok {
			c.current = nil
		}
	}

	evicted := c.world.Reconcile(required)
	c.log.Debug("observer crossed chunk boundary",
		"chunk", cur, "queued", len(c.queue), "evicted", len(evicted))
}
