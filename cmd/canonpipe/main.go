package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/collectionsops/canonpipe/internal/api"
	"github.com/collectionsops/canonpipe/internal/config"
	"github.com/collectionsops/canonpipe/internal/export"
	"github.com/collectionsops/canonpipe/internal/pipeline"
	"github.com/collectionsops/canonpipe/internal/store"
)

func main() {
	cfgPath := flag.String("config", "configs/pipeline.yaml", "Path to pipeline YAML config")
	outDir := flag.String("out", "", "Output directory for report CSVs (overrides config)")
	dbEnabled := flag.Bool("db", false, "Store run results in Postgres (requires CANONPIPE_DB_URL or DATABASE_URL)")
	watch := flag.Bool("watch", false, "Keep running and re-run the pipeline when a feed or the config changes")
	metricsAddr := flag.String("metrics-addr", "", "Optional HTTP listen address for /metrics, health probes, and run status")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// ── Load config ──────────────────────────────────────────────────────────
	loader, err := config.NewLoader(*cfgPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	cfg := loader.Config()
	if err := config.Validate(cfg); err != nil {
		slog.Error("config validation failed", "err", err)
		os.Exit(1)
	}

	var dbURL string
	if *dbEnabled {
		dbURL = config.DatabaseURL()
		if dbURL == "" {
			slog.Error("database URL missing; set CANONPIPE_DB_URL or DATABASE_URL")
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pipe := pipeline.New()

	runOnce := func(cfg *config.PipelineConfig) error {
		res, err := pipe.Run(ctx, cfg)
		if err != nil {
			return err
		}
		dir := cfg.Output.Dir
		if *outDir != "" {
			dir = *outDir
		}
		if err := export.WriteReports(dir, cfg, res); err != nil {
			return err
		}
		slog.Info("reports exported", "dir", dir)
		if *dbEnabled {
			runID, err := store.Store(ctx, dbURL, cfg.Database, res)
			if err != nil {
				return err
			}
			slog.Info("run stored in Postgres", "run_id", runID)
		}
		return nil
	}

	// ── Metrics / status server ──────────────────────────────────────────────
	if *metricsAddr != "" {
		srv := &http.Server{
			Addr:         *metricsAddr,
			Handler:      api.New(pipe, loader),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		go func() {
			slog.Info("metrics server starting", "addr", *metricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server error", "err", err)
			}
		}()
		defer func() {
			shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer shutCancel()
			_ = srv.Shutdown(shutCtx)
		}()
	}

	// ── First run ────────────────────────────────────────────────────────────
	if err := runOnce(cfg); err != nil {
		slog.Error("pipeline run failed", "err", err)
		os.Exit(1)
	}
	if !*watch {
		return
	}

	// ── Watch mode ───────────────────────────────────────────────────────────
	// Canonicalization is not a monotonic aggregate, so any feed change
	// triggers a full recompute rather than an incremental update.
	runs := make(chan struct{}, 1)
	requestRun := func() {
		select {
		case runs <- struct{}{}:
		default:
		}
	}

	loader.OnChange(func(newCfg *config.PipelineConfig) {
		if err := config.Validate(newCfg); err != nil {
			slog.Warn("hot-reload skipped: config invalid", "err", err)
			return
		}
		slog.Info("config hot-reloaded")
		requestRun()
	})
	stopWatch, err := loader.Watch()
	if err != nil {
		slog.Warn("config watcher unavailable (hot-reload disabled)", "err", err)
	} else {
		defer stopWatch()
	}

	feedWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Error("feed watcher unavailable", "err", err)
		os.Exit(1)
	}
	defer feedWatcher.Close()
	for _, path := range []string{cfg.Feeds.Accounts, cfg.Feeds.Activities} {
		if err := feedWatcher.Add(path); err != nil {
			slog.Error("feed watcher add failed", "path", path, "err", err)
			os.Exit(1)
		}
	}
	go func() {
		for {
			select {
			case ev, ok := <-feedWatcher.Events:
				if !ok {
					return
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					slog.Info("feed changed", "path", ev.Name)
					requestRun()
				}
			case <-feedWatcher.Errors:
				// Ignore watcher errors.
			case <-ctx.Done():
				return
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	slog.Info("watching feeds", "accounts", cfg.Feeds.Accounts, "activities", cfg.Feeds.Activities)
	for {
		select {
		case <-runs:
			if err := runOnce(loader.Config()); err != nil {
				// A failed run keeps the previous output in place.
				slog.Error("pipeline run failed", "err", err)
			}
		case <-quit:
			slog.Info("shutting down")
			cancel()
			return
		}
	}
}
