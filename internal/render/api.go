package render

import (
	"sync/atomic"

	"voxelstream/internal/meshing"

	"github.com/go-gl/mathgl/mgl32"
)

// Handle identifies a renderable owned by a Renderer. Zero means none.
type Handle uint64

// Renderer turns chunk meshes into on-screen objects. Chunks call it from
// worker goroutines while holding their own lock, so implementations must be
// safe for concurrent use and must not call back into the world.
type Renderer interface {
	// UpsertVisual creates a visual when h is zero, otherwise replaces the
	// geometry of h and re-enables it. It returns the handle to keep.
	UpsertVisual(h Handle, m *meshing.Mesh, anchor mgl32.Vec3, atlas string) Handle
	// DisableVisual hides h without releasing it.
	DisableVisual(h Handle)
}

// Nop discards geometry. Handles are still issued, one per visual, so chunk
// bookkeeping behaves as with a real renderer. Use it through a pointer.
type Nop struct {
	next atomic.Uint64
}

func (n *Nop) UpsertVisual(h Handle, _ *meshing.Mesh, _ mgl32.Vec3, _ string) Handle {
	if h == 0 {
		return Handle(n.next.Add(1))
	}
	return h
}

func (*Nop) DisableVisual(Handle) {}
