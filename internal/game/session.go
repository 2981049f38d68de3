// Package game wires a world, its streaming controller and an observer into
// a session the host loop ticks.
package game

import (
	"context"
	"fmt"
	"log/slog"

	"voxelstream/internal/config"
	"voxelstream/internal/input"
	"voxelstream/internal/logging"
	"voxelstream/internal/profiling"
	"voxelstream/internal/registry"
	"voxelstream/internal/render"
	"voxelstream/internal/streaming"
	"voxelstream/internal/world"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/prometheus/client_golang/prometheus"
)

// respawnDepth is how far below the lower limit the observer may fall.
const respawnDepth = 10

// SessionOptions overrides the collaborators a Session would otherwise build.
type SessionOptions struct {
	Renderer   render.Renderer
	Registerer prometheus.Registerer
	Logger     *slog.Logger
	Profiler   *profiling.Frame
}

// Session wires a world, an observer and a streaming controller together.
type Session struct {
	World      *world.World
	Controller *streaming.Controller
	Observer   *Observer
	Loading    *LoadingState
	Input      *input.Queue
	Profiler   *profiling.Frame

	cfg     config.Config
	catalog *registry.Catalog
	log     *slog.Logger
	spawned bool
}

// NewSession builds the world and places the observer at the spawn point.
func NewSession(cfg *config.Config, catalog *registry.Catalog, opts SessionOptions) (*Session, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Profiler == nil {
		opts.Profiler = profiling.NewFrame()
	}

	w, err := world.New(cfg, catalog, world.Options{
		Renderer:   opts.Renderer,
		Registerer: opts.Registerer,
		Logger:     opts.Logger,
	})
	if err != nil {
		return nil, err
	}

	// Until the fill completes the observer hovers above the generated
	// surface of the spawn column.
	sx, sz := cfg.Streaming.SpawnX, cfg.Streaming.SpawnZ
	groundY := w.Generator().HeightAt(sx, sz)
	start := mgl32.Vec3{float32(sx) + 0.5, float32(groundY) + 2, float32(sz) + 0.5}
	obs := NewObserver(start)

	log := logging.For(opts.Logger, "session")
	loading := NewLoadingState(log)
	ctl := streaming.NewController(w, obs, streaming.Options{
		Spawn:     world.ChunkAt(start, cfg.World.ChunkSize),
		Radius:    cfg.Streaming.RenderDistance,
		Indicator: loading,
		Logger:    opts.Logger,
		Profiler:  opts.Profiler,
	})

	return &Session{
		World:      w,
		Controller: ctl,
		Observer:   obs,
		Loading:    loading,
		Input:      input.NewQueue(),
		Profiler:   opts.Profiler,
		cfg:        *cfg,
		catalog:    catalog,
		log:        log,
	}, nil
}

// Update advances the session by one tick of dt seconds: queued edits are
// applied, streaming takes one step and the observer moves.
func (s *Session) Update(ctx context.Context, dt float64) error {
	func() {
		defer s.Profiler.Track("input.Apply")()
		s.handleInput()
	}()

	if err := s.Controller.Tick(ctx); err != nil {
		return fmt.Errorf("streaming: %w", err)
	}

	if !s.spawned && s.Controller.Phase() == streaming.PhaseSteady {
		s.spawned = true
		s.Respawn()
	}

	s.Observer.Update(dt)
	if s.Observer.Position().Y() < float32(s.cfg.World.LowerLimit-respawnDepth) {
		s.log.Info("observer fell out of the world, respawning", "pos", s.Observer.Position())
		s.Respawn()
	}
	return nil
}

func (s *Session) handleInput() {
	for _, ev := range s.Input.Drain() {
		changed, err := input.Apply(s.World, s.catalog, ev)
		switch {
		case err != nil:
			s.log.Warn("edit rejected", "kind", ev.Kind, "target", ev.Target, "err", err)
		case !changed:
			s.log.Debug("edit had no effect", "kind", ev.Kind, "target", ev.Target)
		}
	}
}

// Use aims from the observer along dir and queues the resulting edit for the
// next tick. It reports false when nothing solid is in reach.
func (s *Session) Use(kind input.Kind, dir mgl32.Vec3, block string) bool {
	defer s.Profiler.Track("input.Raycast")()
	hit := input.Raycast(s.World, s.Observer.Position(), dir.Normalize(), input.MinReachDistance, input.MaxReachDistance)
	ev, ok := input.Aim(hit, kind, block)
	if ok {
		s.Input.Push(ev)
	}
	return ok
}

// SpawnPoint scans the spawn column from the upper limit down and returns a
// position two blocks above the first solid cell. When the column is empty
// or not loaded the observer spawns at the upper limit.
func (s *Session) SpawnPoint() mgl32.Vec3 {
	sx, sz := s.cfg.Streaming.SpawnX, s.cfg.Streaming.SpawnZ
	y := s.cfg.World.UpperLimit
	for gy := s.cfg.World.UpperLimit - 1; gy >= s.cfg.World.LowerLimit; gy-- {
		if s.World.GetBlock(sx, gy, sz) != registry.Air {
			y = gy + 2
			break
		}
	}
	return mgl32.Vec3{float32(sx) + 0.5, float32(y), float32(sz) + 0.5}
}

// Respawn moves the observer to the spawn point and stops it.
func (s *Session) Respawn() {
	p := s.SpawnPoint()
	s.Observer.SetPosition(p)
	s.Observer.SetVelocity(mgl32.Vec3{})
	s.log.Debug("observer spawned", "pos", p)
}

// Ready reports whether the initial fill has completed.
func (s *Session) Ready() bool {
	return s.spawned
}

// Close shuts down the world's worker pool.
func (s *Session) Close() {
	s.World.Close()
}
