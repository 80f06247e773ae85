package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cuemby/edgefunc/pkg/config"
	"github.com/cuemby/edgefunc/pkg/deploy"
	"github.com/cuemby/edgefunc/pkg/kv"
	"github.com/cuemby/edgefunc/pkg/log"
	"github.com/cuemby/edgefunc/pkg/objectstore"
	"github.com/cuemby/edgefunc/pkg/router"
	"github.com/cuemby/edgefunc/pkg/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Deployment Loader and Request Router",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

// runServe is grounded on the original implementation's main(): dotenv, then
// migrate, then run the Loader and Router concurrently until a termination
// signal arrives.
func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		log.Logger.Fatal().Err(err).Msg("failed to load configuration")
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := log.WithComponent("serve")

	if err := store.RunMigrations(ctx, cfg.DatabaseURL); err != nil {
		logger.Fatal().Err(err).Msg("failed to run database migrations")
		return err
	}

	pg, err := store.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
		return err
	}
	defer pg.Close()

	objects, err := objectstore.New(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize object store client")
		return err
	}

	kvStore := kv.New(pg)

	loader := deploy.NewLoader(deploy.Config{
		Store:               pg,
		Objects:             objects,
		KV:                  kvStore,
		UnpackRoot:          cfg.UnpackRoot,
		ReconcileInterval:   cfg.ReconcileInterval,
		WorkerIdleTimeout:   cfg.WorkerIdleTimeout,
		WorkerQueueCapacity: cfg.WorkerQueueCapacity,
	})
	loader.Start()
	defer loader.Stop()

	r := router.New(loader)
	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      r.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.ListenAddr).Msg("request router listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-serveErr:
		return err
	}
}
