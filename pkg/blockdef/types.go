package blockdef

// Face keys every resolved definition must carry.
const (
	FaceTop    = "top"
	FaceBottom = "bottom"
	FaceSide   = "side"
)

// RequiredFaces lists the UV keys checked by the loader.
var RequiredFaces = []string{FaceTop, FaceBottom, FaceSide}

// Definition is the on-disk shape of a block data file:
//
//	{"texture": "textures/blocks/dirt", "uvs": {"top": [u0, v0, u1, v1], ...}}
//
// A definition may name a parent; missing texture and UV entries are
// inherited from it.
type Definition struct {
	Parent  string               `json:"parent,omitempty" yaml:"parent,omitempty"`
	Texture string               `json:"texture" yaml:"texture"`
	UVs     map[string][]float32 `json:"uvs" yaml:"uvs"`
}

// UV returns the rectangle stored under face as (u0, v0, u1, v1).
// The boolean is false when the face is missing or not four numbers long.
func (d *Definition) UV(face string) ([4]float32, bool) {
	var out [4]float32
	v, ok := d.UVs[face]
	if !ok || len(v) != 4 {
		return out, false
	}
	copy(out[:], v)
	return out, true
}
