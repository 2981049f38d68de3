package world

import (
	"math"

	"voxelstream/internal/config"
	"voxelstream/internal/registry"

	"github.com/aquilax/go-perlin"
)

// Noise parameters for the height field.
const (
	noiseAlpha   = 2.0
	noiseBeta    = 2.0
	noiseOctaves = 4
	noiseScale   = 100.0
)

// Palette is the resolved set of blocks the generator writes.
type Palette struct {
	Surface     registry.ID
	Filler      registry.ID
	Deep        registry.ID
	FillerDepth int
}

// ResolvePalette looks up the terrain blocks once. Names that fail to load
// fall back to air (the catalog logs why).
func ResolvePalette(cat *registry.Catalog, t config.TerrainConfig) Palette {
	return Palette{
		Surface:     cat.Resolve(t.Surface),
		Filler:      cat.Resolve(t.Filler),
		Deep:        cat.Resolve(t.Deep),
		FillerDepth: t.FillerDepth,
	}
}

// Generator produces deterministic terrain from a seed. It is read-only
// after construction and safe for concurrent use.
type Generator struct {
	noise   *perlin.Perlin
	lower   int
	upper   int
	palette Palette
}

// NewGenerator seeds the noise source from wc.Seed.
func NewGenerator(wc config.WorldConfig, palette Palette) *Generator {
	return &Generator{
		noise:   perlin.NewPerlin(noiseAlpha, noiseBeta, noiseOctaves, wc.Seed),
		lower:   wc.LowerLimit,
		upper:   wc.UpperLimit,
		palette: palette,
	}
}

// HeightAt is the number of cells above y=0 a column at (wx, wz) reaches,
// clamped to [0, upper].
func (g *Generator) HeightAt(wx, wz int) int {
	n := g.noise.Noise2D(float64(wx)/noiseScale, float64(wz)/noiseScale)
	h := int(math.Floor((n + 1) * float64(g.upper) / 2))
	if h < 0 {
		return 0
	}
	if h > g.upper {
		return g.upper
	}
	return h
}

// BlockAt is the generated block at global height gy in a column of the
// given height.
func (g *Generator) BlockAt(gy, height int) registry.ID {
	top := min(height, g.upper)
	if gy < g.lower || gy >= top {
		return registry.Air
	}
	switch {
	case gy == height-1:
		return g.palette.Surface
	case gy >= height-1-g.palette.FillerDepth:
		return g.palette.Filler
	default:
		return g.palette.Deep
	}
}

// fill writes the chunk at c into blocks, indexed like Chunk.
func (g *Generator) fill(blocks []registry.ID, c ChunkCoord, size int) {
	ox, oy, oz := c.X*size, c.Y*size, c.Z*size
	for x := 0; x < size; x++ {
		for z := 0; z < size; z++ {
			height := g.HeightAt(ox+x, oz+z)
			for y := 0; y < size; y++ {
				blocks[(x*size+y)*size+z] = g.BlockAt(oy+y, height)
			}
		}
	}
}
