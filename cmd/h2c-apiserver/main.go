// Command h2c-apiserver is the façade Kubernetes API server: a long-lived
// HTTPS (or HTTP, absent TLS material) service that projects a compose
// topology as a subset of the Kubernetes API.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/baptisterajaut/h2c-api/internal/apiserver"
	"github.com/baptisterajaut/h2c-api/internal/config"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	cfg := config.Load()

	logger.Info("starting h2c-apiserver",
		slog.String("compose", cfg.ComposePath),
		slog.String("data_dir", cfg.DataDir),
		slog.String("port", cfg.Port),
		slog.String("sa_dir", cfg.SADir),
	)

	srv, err := apiserver.New(cfg, logger)
	if err != nil {
		logger.Error("failed to construct server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		logger.Error("server exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
