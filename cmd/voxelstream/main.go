package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"voxelstream/assets"
	"voxelstream/internal/config"
	"voxelstream/internal/game"
	"voxelstream/internal/logging"
	"voxelstream/internal/metrics"
	"voxelstream/internal/profiling"
	"voxelstream/internal/registry"
	"voxelstream/internal/render"
	"voxelstream/pkg/blockdef"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.Default()

	configPath := flag.String("config", "", "YAML config file (default $"+config.EnvPath+")")
	flag.Int64Var(&cfg.World.Seed, "seed", cfg.World.Seed, "terrain seed")
	flag.IntVar(&cfg.Streaming.RenderDistance, "render-distance", cfg.Streaming.RenderDistance, "streaming radius in chunks")
	flag.IntVar(&cfg.Streaming.MaxWorkers, "workers", cfg.Streaming.MaxWorkers, "generation worker count")
	flag.StringVar(&cfg.Assets.Dir, "assets", cfg.Assets.Dir, "block definition directory (default: embedded)")
	flag.StringVar(&cfg.Metrics.Addr, "metrics-addr", cfg.Metrics.Addr, "serve /metrics on this address")
	flag.StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "debug, info, warn or error")
	ticks := flag.Int("ticks", 0, "stop after this many ticks (0 runs until interrupted)")
	speed := flag.Float64("speed", 4, "observer walking speed in blocks per second")
	digEvery := flag.Int("dig-every", 0, "remove the block below the observer every n ticks (0 disables)")
	flag.Parse()
	cfg.Streaming.RenderDistance = config.ClampRenderDistance(cfg.Streaming.RenderDistance)

	if *configPath != "" || os.Getenv(config.EnvPath) != "" {
		fromFile, err := config.Load(*configPath)
		if err != nil {
			slog.Error("load config", "error", err)
			os.Exit(1)
		}
		explicit := make(map[string]bool)
		flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
		config.Merge(cfg, fromFile, explicit)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	log := logging.New(cfg.Log, os.Stdout)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, *ticks, float32(*speed), *digEvery, log); err != nil {
		log.Error("voxelstream stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, ticks int, speed float32, digEvery int, log *slog.Logger) error {
	var blocks fs.FS = assets.Blocks()
	if cfg.Assets.Dir != "" {
		blocks = os.DirFS(cfg.Assets.Dir)
	}
	catalog := registry.NewCatalog(blockdef.NewLoader(blocks), logging.For(log, "registry"))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	renderer := render.NewRecorder()
	session, err := game.NewSession(cfg, catalog, game.SessionOptions{
		Renderer:   renderer,
		Registerer: reg,
		Logger:     log,
		Profiler:   profiling.NewFrame(),
	})
	if err != nil {
		return err
	}
	defer session.Close()

	app := game.NewApp(session, cfg.Streaming.TickRate, speed, log)
	app.DigEvery = digEvery

	g, gctx := errgroup.WithContext(ctx)
	loopCtx, stop := context.WithCancel(gctx)
	defer stop()

	g.Go(func() error {
		// the metrics server follows the loop down
		defer stop()
		err := app.Run(loopCtx, ticks)
		created, enabled := renderer.Stats()
		log.Info("loop finished",
			"ticks", app.Ticks(),
			"loaded", session.World.LoadedCount(),
			"visuals", created,
			"visible", enabled,
			"pos", session.Observer.Position())
		return err
	})

	if cfg.Metrics.Addr != "" {
		srv := &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           metricsMux(reg),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			log.Info("serving metrics", "addr", cfg.Metrics.Addr)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-loopCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	return g.Wait()
}

func metricsMux(reg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))
	return mux
}
