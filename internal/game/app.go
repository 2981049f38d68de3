package game

import (
	"context"
	"log/slog"
	"time"

	"voxelstream/internal/input"
	"voxelstream/internal/logging"

	"github.com/go-gl/mathgl/mgl32"
)

// slowTick is the processing time above which a tick is reported.
const slowTick = 16 * time.Millisecond

// App drives a Session from a fixed-rate loop and walks the observer along
// +X once the world is ready.
type App struct {
	session *Session
	limiter *TickLimiter
	walk    mgl32.Vec3
	log     *slog.Logger

	// DigEvery removes the block below the observer every n ticks once the
	// world is ready. Zero disables digging.
	DigEvery int

	ticks    int
	lastTime time.Time
}

// NewApp creates the host loop. speed is the walking speed in blocks per
// second; tickRate paces the loop (0 runs unpaced).
func NewApp(s *Session, tickRate int, speed float32, log *slog.Logger) *App {
	if log == nil {
		log = slog.Default()
	}
	return &App{
		session: s,
		limiter: NewTickLimiter(tickRate),
		walk:    mgl32.Vec3{speed, 0, 0},
		log:     logging.For(log, "app"),
	}
}

// Ticks is the number of completed ticks.
func (a *App) Ticks() int { return a.ticks }

// Run ticks until ctx is done, maxTicks ticks have run (0 means no limit)
// or the session fails.
func (a *App) Run(ctx context.Context, maxTicks int) error {
	if a.lastTime.IsZero() {
		a.lastTime = time.Now()
	}
	for maxTicks <= 0 || a.ticks < maxTicks {
		if ctx.Err() != nil {
			return nil
		}
		if err := a.tick(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if a.limiter.Wait(ctx) != nil {
			return nil
		}
	}
	a.log.Info("tick budget reached", "ticks", a.ticks, "loaded", a.session.World.LoadedCount())
	return nil
}

func (a *App) tick(ctx context.Context) error {
	prof := a.session.Profiler
	prof.Reset()
	start := time.Now()
	dt := start.Sub(a.lastTime).Seconds()
	a.lastTime = start

	obs := a.session.Observer
	if a.session.Ready() && obs.Velocity() == (mgl32.Vec3{}) && a.walk != (mgl32.Vec3{}) {
		obs.SetVelocity(a.walk)
	}

	if a.session.Ready() && a.DigEvery > 0 && a.ticks%a.DigEvery == 0 {
		a.session.Use(input.RemoveBlock, mgl32.Vec3{0, -1, 0}, "")
	}

	if err := a.session.Update(ctx, dt); err != nil {
		return err
	}
	prof.Tick()
	a.ticks++

	if d := time.Since(start); d > slowTick {
		a.log.Warn("slow tick", "took", d, "top", prof.TopN(5))
	}
	return nil
}
