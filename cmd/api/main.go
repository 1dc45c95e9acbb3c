// Command api serves the ingestion debugger: a page that uploads a document
// to the licitaciones API, follows up with the detail fetch and renders the
// record it gets back.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"licitaflow/internal/api"
	"licitaflow/internal/config"
	"licitaflow/internal/controller"
	"licitaflow/internal/logger"
	"licitaflow/internal/metrics"
	"licitaflow/internal/service"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	_ = godotenv.Load(".env")
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.LogLevel, cfg.LogFormat)

	svc, err := service.New(cfg)
	if err != nil {
		slog.Error("failed to build service client", "error", err)
		os.Exit(1)
	}

	opts := []controller.Option{controller.WithRequireLicID(cfg.RequireLicID)}
	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
		opts = append(opts, controller.WithObserver(m))
	}
	ctrl := controller.New(svc, opts...)

	server := &http.Server{
		Addr:              cfg.APIAddr,
		Handler:           api.NewServer(cfg, ctrl, m).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("licitaflow api listening", "addr", server.Addr, "service", cfg.ServiceMode, "base_url", cfg.ServiceBaseURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("api stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("licitaflow api stopped")
}
