package world

import (
	"context"
	"testing"

	"voxelstream/assets"
	"voxelstream/internal/config"
	"voxelstream/internal/logging"
	"voxelstream/internal/registry"
	"voxelstream/internal/render"
	"voxelstream/pkg/blockdef"

	"github.com/stretchr/testify/require"
)

func newTestCatalog() *registry.Catalog {
	return registry.NewCatalog(blockdef.NewLoader(assets.Blocks()), logging.Discard())
}

// newTestWorld builds a world on the default config, which tweak may adjust.
func newTestWorld(t testing.TB, tweak func(*config.Config)) (*World, *render.Recorder) {
	t.Helper()
	cfg := config.Default()
	if tweak != nil {
		tweak(cfg)
	}
	rec := render.NewRecorder()
	w, err := New(cfg, newTestCatalog(), Options{Renderer: rec, Logger: logging.Discard()})
	require.NoError(t, err, "new world")
	t.Cleanup(w.Close)
	return w, rec
}

func mustGenerate(t testing.TB, w *World, c ChunkCoord) *Chunk {
	t.Helper()
	ch, err := w.GenerateChunk(context.Background(), c)
	require.NoError(t, err, "generate %v", c)
	return ch
}
