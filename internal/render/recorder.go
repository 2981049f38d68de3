package render

import (
	"sync"

	"voxelstream/internal/meshing"

	"github.com/go-gl/mathgl/mgl32"
)

// Visual is the state a Recorder keeps per handle.
type Visual struct {
	Handle   Handle
	Anchor   mgl32.Vec3
	Atlas    string
	Faces    int
	Enabled  bool
	Uploads  int
	Disables int
}

// Recorder is an in-memory Renderer used by the headless driver and tests.
type Recorder struct {
	mu      sync.Mutex
	next    Handle
	visuals map[Handle]*Visual
	created int
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{visuals: make(map[Handle]*Visual)}
}

func (r *Recorder) UpsertVisual(h Handle, m *meshing.Mesh, anchor mgl32.Vec3, atlas string) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.visuals[h]
	if h == 0 || !ok {
		r.next++
		r.created++
		v = &Visual{Handle: r.next}
		r.visuals[v.Handle] = v
	}
	v.Anchor = anchor
	v.Atlas = atlas
	v.Faces = m.FaceCount()
	v.Enabled = true
	v.Uploads++
	return v.Handle
}

func (r *Recorder) DisableVisual(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.visuals[h]; ok {
		v.Enabled = false
		v.Disables++
	}
}

// Visual returns a copy of the state recorded for h.
func (r *Recorder) Visual(h Handle) (Visual, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.visuals[h]
	if !ok {
		return Visual{}, false
	}
	return *v, true
}

// Stats returns how many visuals were ever created and how many are enabled now.
func (r *Recorder) Stats() (created, enabled int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.visuals {
		if v.Enabled {
			enabled++
		}
	}
	return r.created, enabled
}
