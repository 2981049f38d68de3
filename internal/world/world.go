package world

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"voxelstream/internal/config"
	"voxelstream/internal/logging"
	"voxelstream/internal/metrics"
	"voxelstream/internal/registry"
	"voxelstream/internal/render"
	"voxelstream/internal/worker"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

// ErrOutOfRange is returned for chunk coordinates outside the vertical
// world range.
var ErrOutOfRange = errors.New("chunk outside world range")

// Options carries the collaborators of a World. Zero values are replaced
// by a no-op renderer, a private metrics registry and the default logger.
type Options struct {
	Renderer   render.Renderer
	Registerer prometheus.Registerer
	Logger     *slog.Logger
}

// World owns the loaded chunks, the terrain generator and the worker pool
// that runs generation steps.
type World struct {
	id       uuid.UUID
	cfg      config.Config
	store    *ChunkStore
	gen      *Generator
	catalog  *registry.Catalog
	renderer render.Renderer
	pool     *worker.Pool
	metrics  *metrics.Metrics
	log      *slog.Logger

	minChunkY, maxChunkY int
}

// New validates cfg and builds an empty world with its own worker pool.
func New(cfg *config.Config, catalog *registry.Catalog, opts Options) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("world config: %w", err)
	}
	if opts.Renderer == nil {
		opts.Renderer = &render.Nop{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	id := uuid.New()
	size := cfg.World.ChunkSize
	w := &World{
		id:        id,
		cfg:       *cfg,
		store:     NewChunkStore(size),
		gen:       NewGenerator(cfg.World, ResolvePalette(catalog, cfg.Terrain)),
		catalog:   catalog,
		renderer:  opts.Renderer,
		pool:      worker.NewPool(cfg.Streaming.MaxWorkers),
		metrics:   metrics.New(opts.Registerer, id.String()),
		log:       logging.For(opts.Logger, "world").With("world", id.String()),
		minChunkY: floorDiv(cfg.World.LowerLimit, size),
		maxChunkY: floorDiv(cfg.World.UpperLimit, size),
	}
	w.metrics.WatchPool(w.pool.Waiting, w.pool.Running)
	w.log.Info("world created",
		"seed", cfg.World.Seed,
		"chunk_size", size,
		"chunk_y", fmt.Sprintf("[%d,%d]", w.minChunkY, w.maxChunkY),
		"workers", w.pool.Workers())
	return w, nil
}

// ID identifies this world instance in logs.
func (w *World) ID() uuid.UUID { return w.id }

// ChunkSize is the chunk edge length in blocks.
func (w *World) ChunkSize() int { return w.cfg.World.ChunkSize }

// Config returns a copy of the configuration the world was built with.
func (w *World) Config() config.Config { return w.cfg }

// Catalog is the block catalog used for generation and meshing.
func (w *World) Catalog() *registry.Catalog { return w.catalog }

// Generator is the terrain generator seeded from the config.
func (w *World) Generator() *Generator { return w.gen }

// Metrics holds the world's collectors.
func (w *World) Metrics() *metrics.Metrics { return w.metrics }

// ChunkRangeY is the inclusive range of chunk Y coordinates that exist.
func (w *World) ChunkRangeY() (int, int) { return w.minChunkY, w.maxChunkY }

// GetOrCreateChunk returns the loaded chunk at c, registering an empty one
// if needed.
func (w *World) GetOrCreateChunk(c ChunkCoord) (*Chunk, error) {
	if c.Y < w.minChunkY || c.Y > w.maxChunkY {
		return nil, fmt.Errorf("%w: %v not in y [%d,%d]", ErrOutOfRange, c, w.minChunkY, w.maxChunkY)
	}
	before := w.store.GetModCount()
	ch := w.store.GetChunk(c, true)
	if w.store.GetModCount() != before {
		w.metrics.ChunksLoaded.Set(float64(w.store.Len()))
	}
	return ch, nil
}

// Chunk returns the loaded chunk at c, or nil.
func (w *World) Chunk(c ChunkCoord) *Chunk {
	return w.store.GetChunk(c, false)
}

// LoadedCount is the size of the loaded set.
func (w *World) LoadedCount() int {
	return w.store.Len()
}

// GenerateTerrain runs the terrain step of ch on the pool and waits for it.
func (w *World) GenerateTerrain(ctx context.Context, ch *Chunk) error {
	start := time.Now()
	var ran bool
	err := w.pool.Run(ctx, func() error {
		ran = ch.GenerateTerrain(w.gen)
		return nil
	})
	if err != nil {
		return fmt.Errorf("terrain %v: %w", ch.Coord(), err)
	}
	if ran {
		w.metrics.TerrainSeconds.Observe(time.Since(start).Seconds())
		w.log.Debug("terrain generated", "chunk", ch.Coord())
	}
	return nil
}

// GenerateMesh runs the mesh step of ch on the pool and waits for it.
func (w *World) GenerateMesh(ctx context.Context, ch *Chunk) error {
	start := time.Now()
	var (
		verts int
		ran   bool
	)
	err := w.pool.Run(ctx, func() error {
		verts, ran = ch.GenerateMesh(w.catalog, w.renderer, w.cfg.Assets.Atlas)
		return nil
	})
	if err != nil {
		return fmt.Errorf("mesh %v: %w", ch.Coord(), err)
	}
	if ran {
		w.metrics.MeshSeconds.Observe(time.Since(start).Seconds())
		w.metrics.MeshVertices.Observe(float64(verts))
		w.log.Debug("mesh built", "chunk", ch.Coord(), "vertices", verts)
	}
	return nil
}

// GenerateChunk loads c and runs both steps, terrain first.
func (w *World) GenerateChunk(ctx context.Context, c ChunkCoord) (*Chunk, error) {
	ch, err := w.GetOrCreateChunk(c)
	if err != nil {
		return nil, err
	}
	if err := w.GenerateTerrain(ctx, ch); err != nil {
		return nil, err
	}
	if err := w.GenerateMesh(ctx, ch); err != nil {
		return nil, err
	}
	return ch, nil
}

// GetBlock returns the block at global coordinates. Missing or unpopulated
// chunks read as air; nothing is created.
func (w *World) GetBlock(x, y, z int) registry.ID {
	c, local := BlockToChunk(x, y, z, w.ChunkSize())
	ch := w.store.GetChunk(c, false)
	if ch == nil {
		return registry.Air
	}
	return ch.GetBlock(local[0], local[1], local[2])
}

// SetBlock writes a block at global coordinates and marks the owning chunk
// and its loaded neighbours for remeshing. Edits in missing or unpopulated
// chunks are dropped and report false.
func (w *World) SetBlock(x, y, z int, id registry.ID) bool {
	c, local := BlockToChunk(x, y, z, w.ChunkSize())
	ch := w.store.GetChunk(c, false)
	if ch == nil || !ch.SetBlock(local[0], local[1], local[2], id) {
		w.log.Debug("edit dropped", "x", x, "y", y, "z", z, "chunk", c)
		return false
	}
	for _, n := range c.Neighbors() {
		if nb := w.store.GetChunk(n, false); nb != nil {
			nb.MarkDirty()
		}
	}
	w.metrics.BlockEdits.Inc()
	return true
}

// RequiredSet lists the chunks that must be loaded around center, ordered
// by dx, then dz, then y from the top down. With streaming.vertical set to
// radius only y within ±radius of center is included.
func (w *World) RequiredSet(center ChunkCoord, radius int) []ChunkCoord {
	return w.requiredSet(center, radius, w.cfg.Streaming.Vertical != config.VerticalRadius)
}

// FullHeightSet is RequiredSet spanning the whole vertical world range
// whatever streaming.vertical says. The initial fill loads this set.
func (w *World) FullHeightSet(center ChunkCoord, radius int) []ChunkCoord {
	return w.requiredSet(center, radius, true)
}

func (w *World) requiredSet(center ChunkCoord, radius int, fullHeight bool) []ChunkCoord {
	lo, hi := w.minChunkY, w.maxChunkY
	if !fullHeight {
		lo = max(lo, center.Y-radius)
		hi = min(hi, center.Y+radius)
	}
	side := 2*radius + 1
	out := make([]ChunkCoord, 0, side*side*max(hi-lo+1, 0))
	for dx := -radius; dx <= radius; dx++ {
		for dz := -radius; dz <= radius; dz++ {
			for y := hi; y >= lo; y-- {
				out = append(out, ChunkCoord{X: center.X + dx, Y: y, Z: center.Z + dz})
			}
		}
	}
	return out
}

// Reconcile evicts every loaded chunk not in required and retires it.
// It returns the evicted coordinates.
func (w *World) Reconcile(required []ChunkCoord) []ChunkCoord {
	keep := make(map[ChunkCoord]struct{}, len(required))
	for _, c := range required {
		keep[c] = struct{}{}
	}
	removed := w.store.Evict(keep)
	if len(removed) == 0 {
		return nil
	}

	out := make([]ChunkCoord, len(removed))
	for i, ch := range removed {
		ch.Retire(w.renderer)
		out[i] = ch.Coord()
	}
	w.metrics.ChunksEvicted.Add(float64(len(removed)))
	w.metrics.ChunksLoaded.Set(float64(w.store.Len()))
	w.log.Debug("chunks evicted", "count", len(removed))
	return out
}

// DirtyChunks lists populated chunks waiting for a remesh.
func (w *World) DirtyChunks() []ChunkCoord {
	var out []ChunkCoord
	for _, ch := range w.store.GetAllChunks() {
		if ch.Populated() && ch.NeedsRemesh() {
			out = append(out, ch.Coord())
		}
	}
	return out
}

// Close stops the worker pool, waiting for queued steps.
func (w *World) Close() {
	w.pool.Shutdown()
	w.log.Info("world closed", "loaded", w.store.Len())
}
