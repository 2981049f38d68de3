package world

import (
	"sync"

	"voxelstream/internal/meshing"
	"voxelstream/internal/registry"
	"voxelstream/internal/render"

	"github.com/go-gl/mathgl/mgl32"
)

// Chunk is a size³ cube of blocks. Everything except the coordinates is
// guarded by mu.
type Chunk struct {
	X, Y, Z int
	size    int

	mu          sync.Mutex
	blocks      []registry.ID // nil until terrain is generated
	needsRemesh bool
	mesh        *meshing.Mesh
	visual      render.Handle
	retired     bool
}

// NewChunk returns an empty, unpopulated chunk of the given edge length.
func NewChunk(c ChunkCoord, size int) *Chunk {
	return &Chunk{X: c.X, Y: c.Y, Z: c.Z, size: size}
}

// Coord is the chunk's position in chunk space.
func (c *Chunk) Coord() ChunkCoord {
	return ChunkCoord{X: c.X, Y: c.Y, Z: c.Z}
}

// Size is the edge length in blocks.
func (c *Chunk) Size() int {
	return c.size
}

func (c *Chunk) index(x, y, z int) int {
	return (x*c.size+y)*c.size + z
}

func (c *Chunk) inBounds(x, y, z int) bool {
	return x >= 0 && y >= 0 && z >= 0 && x < c.size && y < c.size && z < c.size
}

// at reads a cell without bounds checks. Caller holds mu and blocks != nil.
func (c *Chunk) at(x, y, z int) registry.ID {
	return c.blocks[c.index(x, y, z)]
}

// GenerateTerrain fills the chunk from g. It returns false when the chunk
// was already populated.
func (c *Chunk) GenerateTerrain(g *Generator) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.blocks != nil {
		return false
	}
	blocks := make([]registry.ID, c.size*c.size*c.size)
	g.fill(blocks, c.Coord(), c.size)
	c.blocks = blocks
	c.needsRemesh = true
	return true
}

// GenerateMesh rebuilds geometry when the chunk is populated and dirty and
// pushes it to r. It returns the vertex count and whether a rebuild ran.
func (c *Chunk) GenerateMesh(uv meshing.UVSource, r render.Renderer, atlas string) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.blocks == nil || !c.needsRemesh || c.retired {
		return 0, false
	}

	m := meshing.Build(chunkVolume{c}, uv)
	c.needsRemesh = false
	if m.Empty() {
		c.mesh = nil
		if c.visual != 0 {
			r.DisableVisual(c.visual)
		}
		return 0, true
	}

	c.mesh = m
	anchor := mgl32.Vec3{float32(c.X * c.size), float32(c.Y * c.size), float32(c.Z * c.size)}
	c.visual = r.UpsertVisual(c.visual, m, anchor, atlas)
	return len(m.Vertices), true
}

// chunkVolume adapts a locked, populated chunk to meshing.Volume.
type chunkVolume struct{ c *Chunk }

func (v chunkVolume) Size() int                  { return v.c.size }
func (v chunkVolume) At(x, y, z int) registry.ID { return v.c.at(x, y, z) }

// GetBlock returns the block at local coordinates, or air when the chunk is
// unpopulated or the position lies outside it.
func (c *Chunk) GetBlock(x, y, z int) registry.ID {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.blocks == nil || !c.inBounds(x, y, z) {
		return registry.Air
	}
	return c.at(x, y, z)
}

// SetBlock writes a cell and marks the chunk for remeshing. It reports false
// when the chunk has no terrain yet or the position is outside it.
func (c *Chunk) SetBlock(x, y, z int, id registry.ID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.blocks == nil || !c.inBounds(x, y, z) {
		return false
	}
	c.blocks[c.index(x, y, z)] = id
	c.needsRemesh = true
	return true
}

// MarkDirty schedules a remesh, e.g. after a neighbour changed.
func (c *Chunk) MarkDirty() {
	c.mu.Lock()
	c.needsRemesh = true
	c.mu.Unlock()
}

// Populated reports whether terrain has been generated.
func (c *Chunk) Populated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.blocks != nil
}

// NeedsRemesh reports whether the mesh is stale or was never built.
func (c *Chunk) NeedsRemesh() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.needsRemesh
}

// Mesh returns the last built mesh, nil when the chunk shows nothing.
func (c *Chunk) Mesh() *meshing.Mesh {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mesh
}

// Visual is the renderer handle, zero when none was issued.
func (c *Chunk) Visual() render.Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visual
}

// Retire hides the chunk's visual and drops its mesh. A retired chunk never
// meshes again.
func (c *Chunk) Retire(r render.Renderer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.retired = true
	c.mesh = nil
	if c.visual != 0 {
		r.DisableVisual(c.visual)
	}
}
