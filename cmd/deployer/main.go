package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"app-deployer/internal/di"
	"app-deployer/internal/infrastructure/config"
	"app-deployer/internal/infrastructure/env"
)

func main() {
	envService := env.NewEnvService()

	cfg, err := config.Load(envService.Get("DEPLOYER_CONFIG"), envService)
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	container, err := di.NewContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Initialization error: %v", err)
	}

	if err := run(ctx, container); err != nil {
		container.Logger.Error("Server stopped with error", "error", err)
		closeContainer(container, cfg.Server.ShutdownTimeout)
		os.Exit(1)
	}
	closeContainer(container, cfg.Server.ShutdownTimeout)
}

func run(ctx context.Context, c *di.Container) error {
	srv := &http.Server{
		Addr:              c.Config.Addr(),
		Handler:           c.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		c.Logger.Info("Server listening", "addr", srv.Addr, "version", di.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		c.Logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), c.Config.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func closeContainer(c *di.Container, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := c.Close(ctx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
