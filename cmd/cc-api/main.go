// cc-api serves the analysis runs stored in ClickHouse over HTTP.
package main

import (
	"CCSpectra/internal/api"
	"CCSpectra/internal/chstore"
	"CCSpectra/internal/config"
	"CCSpectra/internal/logging"
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/m-lab/go/rtx"
)

var configPath = flag.String("config", "configs/config.yaml", "YAML configuration file.")

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	rtx.Must(err, "Failed to load configuration")
	rtx.Must(logging.Setup(cfg.Logging.Level, cfg.Logging.Format), "Failed to set up logging")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	querier, err := chstore.NewClickHouseQuerier(ctx, cfg.API.ClickHouse)
	cancel()
	rtx.Must(err, "Failed to create querier")
	defer querier.Close()

	// Start HTTP server
	server := &http.Server{
		Addr:              cfg.API.ListenAddr,
		Handler:           handlers.LoggingHandler(os.Stderr, api.NewHandler(querier).Router()),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logging.Logger.WithField("addr", server.Addr).Info("API server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Logger.WithError(err).Fatalf("could not listen on %s", server.Addr)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logging.Logger.Info("API server shutting down...")

	ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logging.Logger.WithError(err).Error("server forced to shutdown")
		return
	}
	logging.Logger.Info("API server exited.")
}
