package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"voxelstream/pkg/blockdef"
)

// ID indexes a BlockType in a Catalog. Cells store IDs, never pointers.
type ID uint16

// Air is the reserved empty cell. It is never loaded from data files.
const Air ID = 0

const AirName = "air"

var (
	ErrNotFound  = errors.New("block type not found")
	ErrMalformed = errors.New("malformed block type")
	ErrFull      = errors.New("block catalog is full")
)

// Face selects one of the three UV rectangles of a block.
type Face int

const (
	FaceTop Face = iota
	FaceBottom
	FaceSide
)

func (f Face) String() string {
	switch f {
	case FaceTop:
		return blockdef.FaceTop
	case FaceBottom:
		return blockdef.FaceBottom
	case FaceSide:
		return blockdef.FaceSide
	default:
		return "unknown"
	}
}

// UVRect is a texture-atlas rectangle.
type UVRect struct {
	U0, V0, U1, V1 float32
}

// BlockType describes a block kind. Immutable once registered.
type BlockType struct {
	ID      ID
	Name    string
	Texture string
	Solid   bool
	Faces   [3]UVRect
}

// FaceUV returns the rectangle used for face f.
func (b *BlockType) FaceUV(f Face) UVRect {
	if f < FaceTop || f > FaceSide {
		return UVRect{}
	}
	return b.Faces[f]
}

// Source provides block definitions by name.
type Source interface {
	Load(name string) (*blockdef.Definition, error)
}

// Catalog maps block names to IDs and IDs to types. Safe for concurrent use.
type Catalog struct {
	src Source
	log *slog.Logger

	mu     sync.RWMutex
	byName map[string]ID
	types  []*BlockType
}

var airType = &BlockType{ID: Air, Name: AirName, Texture: AirName}

// NewCatalog returns a catalog holding only air that loads other types from src.
func NewCatalog(src Source, log *slog.Logger) *Catalog {
	if log == nil {
		log = slog.Default()
	}
	return &Catalog{
		src:    src,
		log:    log,
		byName: map[string]ID{AirName: Air},
		types:  []*BlockType{airType},
	}
}

// Load returns the block type registered under name, reading its definition
// on first use. Errors wrap ErrNotFound or ErrMalformed.
func (c *Catalog) Load(name string) (*BlockType, error) {
	c.mu.RLock()
	if id, ok := c.byName[name]; ok {
		bt := c.types[id]
		c.mu.RUnlock()
		return bt, nil
	}
	c.mu.RUnlock()

	def, err := c.src.Load(name)
	if err != nil {
		switch {
		case errors.Is(err, blockdef.ErrNotFound):
			return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
		case errors.Is(err, blockdef.ErrMalformed):
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		default:
			return nil, fmt.Errorf("load block %q: %w", name, err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if id, ok := c.byName[name]; ok {
		return c.types[id], nil
	}

	// A definition textured as air is the empty cell under another name.
	if def.Texture == AirName {
		c.byName[name] = Air
		return airType, nil
	}

	if len(c.types) > math.MaxUint16 {
		return nil, ErrFull
	}
	bt := &BlockType{
		ID:      ID(len(c.types)),
		Name:    name,
		Texture: def.Texture,
		Solid:   true,
	}
	for _, f := range []Face{FaceTop, FaceBottom, FaceSide} {
		uv, ok := def.UV(f.String())
		if !ok {
			return nil, fmt.Errorf("%w: %q missing %s uv", ErrMalformed, name, f)
		}
		bt.Faces[f] = UVRect{U0: uv[0], V0: uv[1], U1: uv[2], V1: uv[3]}
	}
	c.types = append(c.types, bt)
	c.byName[name] = bt.ID
	return bt, nil
}

// Resolve is Load for callers that must not fail: the error is logged and
// the empty cell returned instead.
func (c *Catalog) Resolve(name string) ID {
	bt, err := c.Load(name)
	if err != nil {
		c.log.Error("block type unavailable, using air", "block", name, "err", err)
		return Air
	}
	return bt.ID
}

// Get returns the type for id, or air for unknown IDs.
func (c *Catalog) Get(id ID) *BlockType {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if int(id) >= len(c.types) {
		return airType
	}
	return c.types[id]
}

// FaceUV returns the atlas rectangle for face f of block id.
func (c *Catalog) FaceUV(id ID, f Face) UVRect {
	return c.Get(id).FaceUV(f)
}

// IsSolid reports whether id occupies its cell.
func (c *Catalog) IsSolid(id ID) bool {
	return id != Air && c.Get(id).Solid
}

// Len is the number of registered types, air included.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.types)
}
