package input

import (
	"math"

	"voxelstream/internal/registry"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	MinReachDistance = 0.1
	MaxReachDistance = 5.0

	rayStep = float32(0.02)
)

// RaycastResult stores the result of a raycast operation.
type RaycastResult struct {
	HitPosition      [3]int
	AdjacentPosition [3]int // last empty cell before the hit, where a block would be placed
	Distance         float32
	Hit              bool
}

// Raycast marches from start along direction and reports the first solid
// cell between minDist and maxDist. Cell (x,y,z) spans [x,x+1) on each axis.
func Raycast(w World, start, direction mgl32.Vec3, minDist, maxDist float32) RaycastResult {
	steps := int(maxDist / rayStep)
	cell := floorCell(start)
	lastEmpty := cell

	for i := 0; i <= steps; i++ {
		dist := float32(i) * rayStep
		if dist < minDist {
			continue
		}
		cell = floorCell(start.Add(direction.Mul(dist)))
		if w.GetBlock(cell[0], cell[1], cell[2]) != registry.Air {
			return RaycastResult{
				HitPosition:      cell,
				AdjacentPosition: lastEmpty,
				Distance:         dist,
				Hit:              true,
			}
		}
		lastEmpty = cell
	}
	return RaycastResult{}
}

func floorCell(p mgl32.Vec3) [3]int {
	return [3]int{
		int(math.Floor(float64(p.X()))),
		int(math.Floor(float64(p.Y()))),
		int(math.Floor(float64(p.Z()))),
	}
}

// Aim turns a raycast into an edit: removals target the hit cell, placements
// the empty cell in front of it. ok is false when the ray hit nothing.
func Aim(r RaycastResult, kind Kind, block string) (ev Event, ok bool) {
	if !r.Hit {
		return Event{}, false
	}
	ev = Event{Kind: kind, Target: r.HitPosition, Block: block}
	if kind == PlaceBlock {
		ev.Target = r.AdjacentPosition
	}
	return ev, true
}
