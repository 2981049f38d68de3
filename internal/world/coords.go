package world

import (
	"cmp"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// ChunkCoord addresses a chunk in chunk units (not blocks).
type ChunkCoord struct {
	X, Y, Z int
}

// Add offsets c by the given chunk deltas.
func (c ChunkCoord) Add(dx, dy, dz int) ChunkCoord {
	return ChunkCoord{X: c.X + dx, Y: c.Y + dy, Z: c.Z + dz}
}

// Compare orders coordinates by X, then Y, then Z.
func (c ChunkCoord) Compare(o ChunkCoord) int {
	if r := cmp.Compare(c.X, o.X); r != 0 {
		return r
	}
	if r := cmp.Compare(c.Y, o.Y); r != 0 {
		return r
	}
	return cmp.Compare(c.Z, o.Z)
}

// Neighbors returns the 26 chunks sharing a face, edge or corner with c.
func (c ChunkCoord) Neighbors() []ChunkCoord {
	out := make([]ChunkCoord, 0, 26)
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			for dz := -1; dz <= 1; dz++ {
				if dx == 0 && dy == 0 && dz == 0 {
					continue
				}
				out = append(out, c.Add(dx, dy, dz))
			}
		}
	}
	return out
}

// floorDiv rounds toward negative infinity: floorDiv(-1, 16) == -1.
func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// mod is the non-negative remainder matching floorDiv: mod(-1, 16) == 15.
func mod(a, b int) int {
	m := a % b
	if m != 0 && (m < 0) != (b < 0) {
		m += b
	}
	return m
}

// BlockToChunk splits a global block coordinate into its chunk and the
// local offset inside it.
func BlockToChunk(x, y, z, size int) (ChunkCoord, [3]int) {
	c := ChunkCoord{X: floorDiv(x, size), Y: floorDiv(y, size), Z: floorDiv(z, size)}
	return c, [3]int{mod(x, size), mod(y, size), mod(z, size)}
}

// ChunkAt returns the chunk containing a world-space position.
func ChunkAt(pos mgl32.Vec3, size int) ChunkCoord {
	s := float64(size)
	return ChunkCoord{
		X: int(math.Floor(float64(pos.X()) / s)),
		Y: int(math.Floor(float64(pos.Y()) / s)),
		Z: int(math.Floor(float64(pos.Z()) / s)),
	}
}
