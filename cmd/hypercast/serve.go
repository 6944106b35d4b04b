package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/hypercast-dev/hypercast"
	"github.com/hypercast-dev/hypercast/config"
	"github.com/hypercast-dev/hypercast/internal/preview"
)

const (
	shutdownTimeout = 10 * time.Second

	// clockInterval paces the demo broadcast so a connected client sees
	// traffic immediately.
	clockInterval = 2 * time.Second
)

// newLogger creates a JSON logger for CLI use.
func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// serveCmd starts the hypercast preview server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the preview server",
	Long: `Start the hypercast preview server.

The server will:
  - Load configuration from the specified YAML file
  - Serve built-in demo routes over plain HTTP
  - Expose the event stream at /events and broadcast a clock event
  - Expose Prometheus metrics at /metrics

The server runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  hypercast serve -c hypercast.yaml
  hypercast serve --config /etc/hypercast/hypercast.yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = serveCmd.MarkFlagRequired("config")
}

func runServe(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := newLogger(cfg.Debug)
	logger.Info("config loaded",
		"scheme", cfg.Scheme,
		"stream_scheme", cfg.StreamScheme,
		"port", cfg.Port,
	)

	reg := prometheus.NewRegistry()
	app, err := hypercast.New(
		hypercast.WithScheme(cfg.Scheme),
		hypercast.WithStreamScheme(cfg.StreamScheme),
		hypercast.WithDebug(cfg.Debug),
		hypercast.WithMaxConnections(cfg.MaxConnections),
		hypercast.WithKeepAlive(cfg.KeepAlive.Duration()),
		hypercast.WithLogger(logger),
		hypercast.WithMetrics(reg),
	)
	if err != nil {
		return fmt.Errorf("failed to create app: %w", err)
	}

	registerDemoRoutes(app)

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := preview.NewServer(app, cfg.Port, reg, logger)
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("failed to start preview server: %w", err)
	}
	app.Ready()
	logger.Info("preview available", "url", fmt.Sprintf("http://localhost:%d", cfg.Port))

	// demo clock broadcast so connected streams see traffic
	go func() {
		ticker := time.NewTicker(clockInterval)
		defer ticker.Stop()
		for {
			select {
			case now := <-ticker.C:
				app.Broadcast("clock", now.Format(time.RFC3339))
			case <-ctx.Done():
				return
			}
		}
	}()

	<-ctx.Done()

	// graceful shutdown with timeout
	done := make(chan struct{})
	go func() {
		app.Shutdown()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("shutdown complete")
	case <-time.After(shutdownTimeout):
		logger.Warn("shutdown timed out",
			"timeout", shutdownTimeout.String(),
			"action", "forcing exit",
		)
	}
	return nil
}

// registerDemoRoutes installs the built-in routes served by the preview
// binary.
func registerDemoRoutes(app *hypercast.App) {
	_ = app.Handle("GET", "/", func(r *hypercast.Request) (*hypercast.Response, error) {
		body := fmt.Sprintf(
			"hypercast preview\n\n"+
				"scheme:        %s\n"+
				"stream scheme: %s\n\n"+
				"GET /events   event stream (curl -N to watch broadcasts)\n"+
				"GET /metrics  prometheus metrics\n"+
				"GET /echo/*   echoes the path remainder\n",
			app.Scheme(), app.StreamScheme(),
		)
		return hypercast.TextResponse(200, body), nil
	})

	_ = app.HandlePrefix("GET", "/echo/*", func(r *hypercast.Request) (*hypercast.Response, error) {
		return hypercast.TextResponse(200, r.Rest), nil
	})
}
