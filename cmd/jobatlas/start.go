package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/amishk599/jobatlas/internal/api"
	"github.com/amishk599/jobatlas/internal/ratelimit"
	"github.com/amishk599/jobatlas/internal/scheduler"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the sync scheduler and HTTP server",
	Long:  "Start the cron scheduler and the admin HTTP server; blocks until SIGINT/SIGTERM.",
	RunE:  runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("config loaded",
		"schedule", cfg.Sync.Schedule,
		"table", cfg.Source.Table,
		"cache", cfg.Cache.Path,
		"addr", cfg.Server.Addr,
		"batch_size", cfg.Sync.BatchSize,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, true, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	sched, err := scheduler.NewScheduler(a.syncer, cfg.Sync.Schedule, cfg.Sync.RunOnStart, logger)
	if err != nil {
		logger.Error("invalid schedule", "error", err)
		os.Exit(1)
	}

	srv := api.New(api.Config{
		Addr:        cfg.Server.Addr,
		Store:       a.store,
		Analytics:   a.reader,
		Syncer:      a.syncer,
		Cooldown:    ratelimit.NewCooldown(cfg.Sync.ManualCooldown),
		BaseContext: ctx,
		Logger:      logger,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sched.Run(gctx)
	})
	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("shutdown with error", "error", err)
		os.Exit(1)
	}

	logger.Info("goodbye")
	return nil
}
