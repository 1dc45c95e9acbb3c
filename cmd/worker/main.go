// Command worker runs IngestRunWorkflow and its activities on the configured
// Temporal task queue.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"licitaflow/internal/activities"
	"licitaflow/internal/config"
	"licitaflow/internal/logger"
	"licitaflow/internal/service"
	"licitaflow/internal/workflows"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"
)

func main() {
	_ = godotenv.Load(".env")
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.LogLevel, cfg.LogFormat)

	c, err := client.Dial(client.Options{
		HostPort: cfg.TemporalAddress,
		Logger:   tlog.NewStructuredLogger(logger.WithComponent("temporal")),
	})
	if err != nil {
		slog.Error("failed to dial temporal", "address", cfg.TemporalAddress, "error", err)
		os.Exit(1)
	}
	defer c.Close()

	svc, err := service.New(cfg)
	if err != nil {
		slog.Error("failed to build service client", "error", err)
		os.Exit(1)
	}

	w := worker.New(c, cfg.TemporalTaskQueue, worker.Options{})
	workflows.Register(w)
	activities.Register(w, activities.New(cfg, svc))

	slog.Info("licitaflow worker listening", "address", cfg.TemporalAddress, "queue", cfg.TemporalTaskQueue, "service", cfg.ServiceMode)
	if err := w.Run(worker.InterruptCh()); err != nil {
		slog.Error("worker stopped with error", "error", err)
		os.Exit(1)
	}
}
