package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"fraudlens/adapters/ingest"
	"fraudlens/adapters/stats/engine"
	"fraudlens/internal"
	"fraudlens/internal/config"
	"fraudlens/internal/dashboard"
	"fraudlens/ui"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	level, ok := internal.ParseLevel(appConfig.Log.Level)
	if !ok {
		log.Printf("Unknown LOG_LEVEL %q, using %s", appConfig.Log.Level, level)
	}
	logger := internal.NewLogger(level)
	internal.DefaultLogger.SetLevel(level)

	statsEngine := engine.NewStatsEngine(appConfig.Stats)
	reader := ingest.NewDataReader(appConfig.Columns, appConfig.Ingest.MaxUploadBytes())
	worker := ingest.NewWorker(reader, appConfig.Ingest.Workers, logger)
	defer worker.Close()

	workspace := dashboard.NewWorkspace(statsEngine, appConfig.Chart, logger)
	server := ui.NewServer(appConfig, workspace, worker, logger)

	httpServer := &http.Server{
		Addr:              ":" + appConfig.Server.Port,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting fraud dashboard on port %s", appConfig.Server.Port)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
