package world

import (
	"testing"

	"voxelstream/internal/config"
	"voxelstream/internal/registry"
	"voxelstream/internal/render"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateTerrainIsIdempotent(t *testing.T) {
	g := NewGenerator(config.Default().World, testPalette())
	ch := NewChunk(ChunkCoord{0, 0, 0}, 16)

	require.True(t, ch.GenerateTerrain(g))
	first := &ch.blocks[0]
	before := hashBlocks(ch.blocks)

	assert.False(t, ch.GenerateTerrain(g))
	assert.Same(t, first, &ch.blocks[0], "second call must not reallocate")
	assert.Equal(t, before, hashBlocks(ch.blocks))
	assert.True(t, ch.NeedsRemesh())
}

func TestUnpopulatedChunkReadsAir(t *testing.T) {
	ch := NewChunk(ChunkCoord{}, 16)
	assert.False(t, ch.Populated())
	assert.Equal(t, registry.Air, ch.GetBlock(1, 1, 1))
	assert.False(t, ch.SetBlock(1, 1, 1, 3))
	assert.False(t, ch.NeedsRemesh())

	verts, ran := ch.GenerateMesh(newTestCatalog(), render.NewRecorder(), "atlas.png")
	assert.Zero(t, verts)
	assert.False(t, ran)
}

func TestChunkBoundsChecked(t *testing.T) {
	g := NewGenerator(config.Default().World, testPalette())
	ch := NewChunk(ChunkCoord{0, -2, 0}, 16) // fully below the surface
	ch.GenerateTerrain(g)

	assert.Equal(t, registry.Air, ch.GetBlock(-1, 0, 0))
	assert.Equal(t, registry.Air, ch.GetBlock(0, 16, 0))
	assert.False(t, ch.SetBlock(0, 0, 16, 1))
	assert.NotEqual(t, registry.Air, ch.GetBlock(15, 15, 15))
}

func TestSolidChunkMeshesOnlyItsBorder(t *testing.T) {
	cat := newTestCatalog()
	wc := config.Default().World
	g := NewGenerator(wc, ResolvePalette(cat, config.Default().Terrain))
	ch := NewChunk(ChunkCoord{0, -2, 0}, 16)
	ch.GenerateTerrain(g)

	rec := render.NewRecorder()
	verts, ran := ch.GenerateMesh(cat, rec, "atlas.png")
	require.True(t, ran)
	// every interior face is culled; each of the six sides keeps 16x16 quads
	assert.Equal(t, 6*16*16, ch.Mesh().FaceCount())
	assert.Equal(t, 4*6*16*16, verts)
	assert.False(t, ch.NeedsRemesh())

	v, ok := rec.Visual(ch.Visual())
	require.True(t, ok)
	assert.True(t, v.Enabled)
	assert.Equal(t, float32(-32), v.Anchor.Y())
	assert.Equal(t, "atlas.png", v.Atlas)
}

func TestEmptiedChunkDisablesVisual(t *testing.T) {
	cat := newTestCatalog()
	g := NewGenerator(config.Default().World, ResolvePalette(cat, config.Default().Terrain))
	ch := NewChunk(ChunkCoord{0, -2, 0}, 16)
	ch.GenerateTerrain(g)

	rec := render.NewRecorder()
	ch.GenerateMesh(cat, rec, "atlas.png")
	h := ch.Visual()
	require.NotZero(t, h)

	for x := 0; x < 16; x++ {
		for y := 0; y < 16; y++ {
			for z := 0; z < 16; z++ {
				ch.SetBlock(x, y, z, registry.Air)
			}
		}
	}
	_, ran := ch.GenerateMesh(cat, rec, "atlas.png")
	require.True(t, ran)
	assert.Nil(t, ch.Mesh())
	assert.Equal(t, h, ch.Visual(), "handle is kept for reuse")

	v, _ := rec.Visual(h)
	assert.False(t, v.Enabled)

	// refilling one cell re-enables the same visual
	ch.SetBlock(0, 0, 0, ResolvePalette(cat, config.Default().Terrain).Deep)
	ch.GenerateMesh(cat, rec, "atlas.png")
	assert.Equal(t, h, ch.Visual())
	v, _ = rec.Visual(h)
	assert.True(t, v.Enabled)
	assert.Equal(t, 6, v.Faces)
}

func TestAirChunkNeverCreatesVisual(t *testing.T) {
	cat := newTestCatalog()
	g := NewGenerator(config.Default().World, ResolvePalette(cat, config.Default().Terrain))
	ch := NewChunk(ChunkCoord{0, 2, 0}, 16) // starts at the upper limit

	ch.GenerateTerrain(g)
	_, ran := ch.GenerateMesh(cat, render.NewRecorder(), "atlas.png")
	assert.True(t, ran)
	assert.Nil(t, ch.Mesh())
	assert.Zero(t, ch.Visual())
	assert.False(t, ch.NeedsRemesh())
}

func TestRetiredChunkStopsMeshing(t *testing.T) {
	cat := newTestCatalog()
	g := NewGenerator(config.Default().World, ResolvePalette(cat, config.Default().Terrain))
	ch := NewChunk(ChunkCoord{0, -2, 0}, 16)
	ch.GenerateTerrain(g)

	rec := render.NewRecorder()
	ch.GenerateMesh(cat, rec, "atlas.png")
	ch.Retire(rec)

	v, _ := rec.Visual(ch.Visual())
	assert.False(t, v.Enabled)
	assert.Nil(t, ch.Mesh())

	ch.MarkDirty()
	_, ran := ch.GenerateMesh(cat, rec, "atlas.png")
	assert.False(t, ran)
}
