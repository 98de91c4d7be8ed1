/*
main.go - HTTP server entry point

PURPOSE:
  Serves the salary cost report over HTTP (see api/handlers.go).
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (file, environment, flags)
  2. Connect to the database (SQLite is created and migrated)
  3. Optionally load the demo dataset
  4. Create API handler, metrics and router
  5. Start the report refresher and the HTTP server

FLAGS:
  --config   Config file (default: db.json)
  --addr     Listen address (default: :8080)
  --demo     Load the demo dataset on startup (SQLite only)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the refresher
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection

EXAMPLES:
  # Demo data in memory
  REPORT_DB_DRIVER=sqlite REPORT_DB_PATH=:memory: ./server --demo

  # Production database from payroll.toml
  ./server --config payroll.toml

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Configuration sources
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/warp/payroll-report/api"
	"github.com/warp/payroll-report/config"
	"github.com/warp/payroll-report/logger"
	"github.com/warp/payroll-report/metrics"
	"github.com/warp/payroll-report/store/sqldb"
)

func main() {
	app := &cli.App{
		Name:  "payroll-report-server",
		Usage: "Serve the quarterly salary cost report over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   config.DefaultFile,
				Usage:   "Config file (.json credentials or .toml)",
				EnvVars: []string{"REPORT_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "addr",
				Usage:   "Listen address",
				EnvVars: []string{"REPORT_SERVER_ADDR"},
			},
			&cli.BoolFlag{
				Name:  "demo",
				Usage: "Load the demo dataset on startup (SQLite only)",
			},
		},
		Action: serve,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func serve(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if c.IsSet("addr") {
		cfg.Server.Addr = c.String("addr")
	}

	logger.Init(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Service: "payroll-report-server"})
	log := logger.Named("server")

	// Initialize store
	store, err := cfg.Database.Open(c.Context)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", cfg.Database.Redacted(), err)
	}
	defer store.Close()

	if c.Bool("demo") {
		if err := store.Replace(c.Context, sqldb.DemoDataset()); err != nil {
			return fmt.Errorf("failed to load demo dataset: %w", err)
		}
		log.Info().Msg("demo dataset loaded")
	}

	// Initialize handler
	handler := api.NewHandler(store, metrics.New())
	handler.Parallelism = cfg.Report.Parallelism

	refresher := api.NewReportRefresher(handler, cfg.Server.RefreshInterval.Duration)
	refresher.Start()
	defer refresher.Stop()

	// Create server
	server := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: api.NewRouter(handler, api.RouterOptions{
			AllowedOrigins: cfg.Server.AllowedOrigins,
			SlowRequest:    5 * time.Second,
		}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", cfg.Server.Addr).
			Str("database", cfg.Database.Redacted()).
			Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	}

	log.Info().Msg("shutting down server")
	refresher.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server stopped")
	return nil
}
