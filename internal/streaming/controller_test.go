package streaming

import (
	"context"
	"sync"
	"testing"

	"voxelstream/assets"
	"voxelstream/internal/config"
	"voxelstream/internal/logging"
	"voxelstream/internal/profiling"
	"voxelstream/internal/registry"
	"voxelstream/internal/render"
	"voxelstream/internal/world"
	"voxelstream/pkg/blockdef"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObserver struct {
	mu      sync.Mutex
	pos     mgl32.Vec3
	enabled bool
}

func (o *fakeObserver) Position() mgl32.Vec3 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.pos
}

func (o *fakeObserver) Enable() {
	o.mu.Lock()
	o.enabled = true
	o.mu.Unlock()
}

func (o *fakeObserver) Enabled() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.enabled
}

func (o *fakeObserver) moveTo(p mgl32.Vec3) {
	o.mu.Lock()
	o.pos = p
	o.mu.Unlock()
}

type fakeIndicator struct {
	calls []bool
}

func (i *fakeIndicator) SetLoading(v bool) { i.calls = append(i.calls, v) }

type fixture struct {
	world *world.World
	ctl   *Controller
	obs   *fakeObserver
	ind   *fakeIndicator
}

// newFixture streams radius 2 around chunk (0,1,0) on the default world,
// whose chunk Y range is [-2, 2].
func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWith(t, 2, nil)
}

// newFixtureWith streams the given radius around chunk (0,1,0) on the
// default config adjusted by tweak.
func newFixtureWith(t *testing.T, radius int, tweak func(*config.Config)) *fixture {
	t.Helper()
	cfg := config.Default()
	if tweak != nil {
		tweak(cfg)
	}
	cat := registry.NewCatalog(blockdef.NewLoader(assets.Blocks()), logging.Discard())
	w, err := world.New(cfg, cat, world.Options{Renderer: render.NewRecorder(), Logger: logging.Discard()})
	require.NoError(t, err)
	t.Cleanup(w.Close)

	obs := &fakeObserver{pos: mgl32.Vec3{0.5, 20, 0.5}}
	ind := &fakeIndicator{}
	ctl := NewController(w, obs, Options{
		Spawn:     world.ChunkCoord{X: 0, Y: 1, Z: 0},
		Radius:    radius,
		Indicator: ind,
		Logger:    logging.Discard(),
		Profiler:  profiling.NewFrame(),
	})
	return &fixture{world: w, ctl: ctl, obs: obs, ind: ind}
}

func sampleCount(t *testing.T, h prometheus.Histogram) uint64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, h.Write(&m))
	return m.GetHistogram().GetSampleCount()
}

// poolSteps counts terrain and mesh steps that did work.
func (f *fixture) poolSteps(t *testing.T) uint64 {
	m := f.world.Metrics()
	return sampleCount(t, m.TerrainSeconds) + sampleCount(t, m.MeshSeconds)
}

func (f *fixture) fill(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < 1000 && f.ctl.Phase() == PhaseInitialFill; i++ {
		require.NoError(t, f.ctl.Tick(ctx))
	}
	require.Equal(t, PhaseSteady, f.ctl.Phase())
}

func TestInitialFillLoadsRequiredSet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.ctl.Tick(ctx))
	assert.Equal(t, []bool{true}, f.ind.calls)
	assert.False(t, f.obs.Enabled(), "observer waits for the fill")

	f.fill(t)
	assert.True(t, f.obs.Enabled())
	assert.Equal(t, []bool{true, false}, f.ind.calls)

	required := f.world.RequiredSet(world.ChunkCoord{X: 0, Y: 1, Z: 0}, 2)
	require.Len(t, required, 5*5*5)
	assert.Equal(t, len(required), f.world.LoadedCount())
	for _, c := range required {
		ch := f.world.Chunk(c)
		require.NotNil(t, ch, "chunk %v", c)
		assert.True(t, ch.Populated(), "chunk %v", c)
		assert.False(t, ch.NeedsRemesh(), "chunk %v", c)
	}
	assert.Equal(t, uint64(2*len(required)), f.poolSteps(t))
	assert.Empty(t, f.ctl.Pending())
}

func TestInitialFillSpansFullHeightInRadiusMode(t *testing.T) {
	f := newFixtureWith(t, 1, func(c *config.Config) {
		c.World.UpperLimit = 128
		c.Streaming.Vertical = config.VerticalRadius
	})
	f.fill(t)

	lo, hi := f.world.ChunkRangeY()
	require.Equal(t, -2, lo)
	require.Equal(t, 8, hi)
	assert.Equal(t, 3*3*11, f.world.LoadedCount())
	for y := lo; y <= hi; y++ {
		ch := f.world.Chunk(world.ChunkCoord{X: 0, Y: y, Z: 0})
		require.NotNil(t, ch, "spawn column y=%d", y)
		assert.True(t, ch.Populated(), "spawn column y=%d", y)
		assert.False(t, ch.NeedsRemesh(), "spawn column y=%d", y)
	}

	// after the fill the boundary check narrows to ±radius around the observer
	f.obs.moveTo(mgl32.Vec3{16.5, 20, 0.5}) // chunk (1,1,0)
	require.NoError(t, f.ctl.Tick(context.Background()))
	assert.Equal(t, 2*3*3, f.world.LoadedCount())
	pending := f.ctl.Pending()
	require.Len(t, pending, 3*3)
	for _, c := range pending {
		assert.Equal(t, 2, c.X, "only the new column is queued: %v", c)
		assert.True(t, c.Y >= 0 && c.Y <= 2, "y outside ±radius: %v", c)
	}
}

func TestAtMostOneStepPerTick(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	prev := f.poolSteps(t)
	for i := 0; i < 1000 && f.ctl.Phase() == PhaseInitialFill; i++ {
		require.NoError(t, f.ctl.Tick(ctx))
		cur := f.poolSteps(t)
		require.LessOrEqual(t, cur-prev, uint64(1), "tick %d", i)
		prev = cur
	}
}

func TestStepOnEmptyQueue(t *testing.T) {
	f := newFixture(t)
	did, err := f.ctl.Step(context.Background())
	require.NoError(t, err)
	assert.False(t, did)
}

func TestCrossingBoundaryStreamsTheDifference(t *testing.T) {
	f := newFixture(t)
	f.fill(t)
	ctx := context.Background()

	f.obs.moveTo(mgl32.Vec3{16.5, 20, 0.5}) // chunk (1,1,0)
	require.NoError(t, f.ctl.Tick(ctx))

	pending := f.ctl.Pending()
	require.Len(t, pending, 5*5)
	for _, c := range pending {
		assert.Equal(t, 3, c.X, "only the new column is queued: %v", c)
	}
	assert.Equal(t, 4*5*5, f.world.LoadedCount())
	for z := -2; z <= 2; z++ {
		for y := -2; y <= 2; y++ {
			assert.Nil(t, f.world.Chunk(world.ChunkCoord{X: -2, Y: y, Z: z}))
		}
	}
	assert.Equal(t, float64(25), testutil.ToFloat64(f.world.Metrics().ChunksEvicted))
	assert.Equal(t, float64(25), testutil.ToFloat64(f.world.Metrics().StreamPending))

	for i := 0; i < 200 && len(f.ctl.Pending()) > 0; i++ {
		require.NoError(t, f.ctl.Tick(ctx))
	}
	// drain the last mesh step
	require.NoError(t, f.ctl.Tick(ctx))
	require.NoError(t, f.ctl.Tick(ctx))
	assert.Equal(t, 5*5*5, f.world.LoadedCount())
	for z := -2; z <= 2; z++ {
		ch := f.world.Chunk(world.ChunkCoord{X: 3, Y: 0, Z: z})
		require.NotNil(t, ch)
		assert.True(t, ch.Populated())
		assert.False(t, ch.NeedsRemesh())
	}
}

func TestSameChunkDoesNothing(t *testing.T) {
	f := newFixture(t)
	f.fill(t)
	before := f.poolSteps(t)

	f.obs.moveTo(mgl32.Vec3{15.9, 31, 15.9}) // still chunk (0,1,0)
	for i := 0; i < 5; i++ {
		require.NoError(t, f.ctl.Tick(context.Background()))
	}
	assert.Empty(t, f.ctl.Pending())
	assert.Equal(t, before, f.poolSteps(t))
	assert.Equal(t, 5*5*5, f.world.LoadedCount())
}

func TestEditsAreRemeshedInSteadyState(t *testing.T) {
	f := newFixture(t)
	f.fill(t)
	ctx := context.Background()

	require.True(t, f.world.SetBlock(0, -20, 0, registry.Air))
	require.NotEmpty(t, f.world.DirtyChunks())

	for i := 0; i < 100 && len(f.world.DirtyChunks()) > 0; i++ {
		require.NoError(t, f.ctl.Tick(ctx))
	}
	assert.Empty(t, f.world.DirtyChunks())
	assert.Equal(t, registry.Air, f.world.GetBlock(0, -20, 0))
}

func TestDisabledObserverPausesSteadyState(t *testing.T) {
	f := newFixture(t)
	f.fill(t)
	f.obs.mu.Lock()
	f.obs.enabled = false
	f.obs.mu.Unlock()

	f.obs.moveTo(mgl32.Vec3{40, 20, 0})
	require.NoError(t, f.ctl.Tick(context.Background()))
	assert.Empty(t, f.ctl.Pending())
	assert.Equal(t, 5*5*5, f.world.LoadedCount())
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "initial-fill", PhaseInitialFill.String())
	assert.Equal(t, "steady", PhaseSteady.String())
}
