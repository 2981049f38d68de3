package meshing

import (
	"voxelstream/internal/registry"

	"github.com/go-gl/mathgl/mgl32"
)

// Mesh is renderable chunk geometry in chunk-local units.
type Mesh struct {
	Vertices  []mgl32.Vec3
	Triangles []uint32
	UVs       []mgl32.Vec2
}

// FaceCount is the number of quads in the mesh.
func (m *Mesh) FaceCount() int {
	if m == nil {
		return 0
	}
	return len(m.Vertices) / 4
}

// Empty reports whether the mesh has no geometry.
func (m *Mesh) Empty() bool {
	return m == nil || len(m.Vertices) == 0
}

// Volume is a cube of block IDs. At is only called with coordinates in
// [0, Size()).
type Volume interface {
	Size() int
	At(x, y, z int) registry.ID
}

// UVSource supplies atlas rectangles per block face.
type UVSource interface {
	FaceUV(id registry.ID, f registry.Face) registry.UVRect
}

// Direction is one of the six cube faces, in emission order.
type Direction int

const (
	DirFront  Direction = iota // -Z
	DirBack                    // +Z
	DirLeft                    // -X
	DirRight                   // +X
	DirBottom                  // -Y
	DirTop                     // +Y
)

var neighborOffsets = [6][3]int{
	{0, 0, -1},
	{0, 0, 1},
	{-1, 0, 0},
	{1, 0, 0},
	{0, -1, 0},
	{0, 1, 0},
}

// Corner indices into the unit cube, counter-clockwise seen from outside.
// 0..3 are the z face (bottom-left, bottom-right, top-right, top-left), 4..7 the z+1 face.
var faceCorners = [6][4]int{
	{0, 1, 2, 3},
	{5, 4, 7, 6},
	{4, 0, 3, 7},
	{1, 5, 6, 2},
	{4, 5, 1, 0},
	{3, 2, 6, 7},
}

var cubeCorners = [8]mgl32.Vec3{
	{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
	{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1},
}

var quadIndices = [6]uint32{0, 1, 2, 0, 2, 3}

// atlasFace maps a direction to the block's UV rectangle.
func atlasFace(d Direction) registry.Face {
	switch d {
	case DirBottom:
		return registry.FaceBottom
	case DirTop:
		return registry.FaceTop
	default:
		return registry.FaceSide
	}
}

// Build emits one quad for every solid-cell face whose neighbour is empty.
// Neighbours outside the volume count as empty, so chunk borders are always
// closed. Returns nil when nothing is visible.
func Build(v Volume, uv UVSource) *Mesh {
	size := v.Size()
	m := &Mesh{}

	for x := 0; x < size; x++ {
		for y := 0; y < size; y++ {
			for z := 0; z < size; z++ {
				id := v.At(x, y, z)
				if id == registry.Air {
					continue
				}
				for d := DirFront; d <= DirTop; d++ {
					if !faceVisible(v, size, x, y, z, d) {
						continue
					}
					m.appendFace(x, y, z, d, uv.FaceUV(id, atlasFace(d)))
				}
			}
		}
	}

	if m.Empty() {
		return nil
	}
	return m
}

func faceVisible(v Volume, size, x, y, z int, d Direction) bool {
	off := neighborOffsets[d]
	nx, ny, nz := x+off[0], y+off[1], z+off[2]
	if nx < 0 || ny < 0 || nz < 0 || nx >= size || ny >= size || nz >= size {
		return true
	}
	return v.At(nx, ny, nz) == registry.Air
}

func (m *Mesh) appendFace(x, y, z int, d Direction, r registry.UVRect) {
	base := uint32(len(m.Vertices))
	origin := mgl32.Vec3{float32(x), float32(y), float32(z)}
	for _, c := range faceCorners[d] {
		m.Vertices = append(m.Vertices, origin.Add(cubeCorners[c]))
	}
	for _, i := range quadIndices {
		m.Triangles = append(m.Triangles, base+i)
	}
	m.UVs = append(m.UVs,
		mgl32.Vec2{r.U0, r.V0},
		mgl32.Vec2{r.U1, r.V0},
		mgl32.Vec2{r.U1, r.V1},
		mgl32.Vec2{r.U0, r.V1},
	)
}
