package blockdef

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

var (
	// ErrNotFound is returned when no data file exists for a block name.
	ErrNotFound = errors.New("block definition not found")
	// ErrMalformed is returned when a data file cannot be decoded or lacks required UVs.
	ErrMalformed = errors.New("malformed block definition")
)

const maxParentDepth = 8

var extensions = []string{".json", ".yaml", ".yml"}

type Loader struct {
	fsys  fs.FS
	mu    sync.Mutex
	cache map[string]*Definition
}

func NewLoader(fsys fs.FS) *Loader {
	return &Loader{
		fsys:  fsys,
		cache: make(map[string]*Definition),
	}
}

// Load returns the fully resolved definition for name. Returned values are
// shared between callers and must not be modified.
func (l *Loader) Load(name string) (*Definition, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load(name, 0)
}

func (l *Loader) load(name string, depth int) (*Definition, error) {
	if def, ok := l.cache[name]; ok {
		return def, nil
	}
	if depth > maxParentDepth {
		return nil, fmt.Errorf("%w: parent chain of %q too deep", ErrMalformed, name)
	}

	def, err := l.read(name)
	if err != nil {
		return nil, err
	}

	if def.Parent != "" {
		parent, err := l.load(def.Parent, depth+1)
		if err != nil {
			return nil, fmt.Errorf("%w: could not load parent %q of %q: %v", ErrMalformed, def.Parent, name, err)
		}
		if def.Texture == "" {
			def.Texture = parent.Texture
		}
		if def.UVs == nil {
			def.UVs = make(map[string][]float32, len(parent.UVs))
		}
		for face, uv := range parent.UVs {
			if _, ok := def.UVs[face]; !ok {
				def.UVs[face] = uv
			}
		}
	}

	for _, face := range RequiredFaces {
		if _, ok := def.UV(face); !ok {
			return nil, fmt.Errorf("%w: %q has no valid %s uv", ErrMalformed, name, face)
		}
	}

	l.cache[name] = def
	return def, nil
}

func (l *Loader) read(name string) (*Definition, error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("%w: invalid name %q", ErrNotFound, name)
	}
	for _, ext := range extensions {
		data, err := fs.ReadFile(l.fsys, name+ext)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("could not read %s%s: %w", name, ext, err)
		}

		var def Definition
		if ext == ".json" {
			err = json.Unmarshal(data, &def)
		} else {
			err = yaml.Unmarshal(data, &def)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s%s: %v", ErrMalformed, name, ext, err)
		}
		return &def, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
}

// Names lists the block names available in the loader's file system.
func (l *Loader) Names() ([]string, error) {
	entries, err := fs.ReadDir(l.fsys, ".")
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := path.Ext(e.Name())
		for _, known := range extensions {
			if ext != known {
				continue
			}
			n := strings.TrimSuffix(e.Name(), ext)
			if _, dup := seen[n]; !dup {
				seen[n] = struct{}{}
				names = append(names, n)
			}
		}
	}
	sort.Strings(names)
	return names, nil
}
