// litebridge-worker hosts executors for remote litebridge controllers.
//
// It serves the websocket channel endpoint; each accepted connection gets
// its own executor with isolated connection state. Point a controller at
// it with worker.url in the controller's configuration.
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

	"gopkg.in/yaml.v3"

	"github.com/litebridge/litebridge/internal/logging"
	"github.com/litebridge/litebridge/remote"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0"
var version = "dev"

const (
	defaultConfigPath = "configs/worker.yaml"
	defaultListen     = ":8980"
	shutdownTimeout   = 5 * time.Second
)

// workerConfig is the worker's YAML configuration file.
type workerConfig struct {
	// Listen is the address the HTTP server binds to.
	Listen string `yaml:"listen"`

	// Server configures the channel endpoint.
	Server remote.Config `yaml:"server"`
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting litebridge worker", "version", version)

	cfg, err := loadConfig(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(logging.Config{
		Level:          cfg.Server.Logging.Level,
		Format:         cfg.Server.Logging.Format,
		Output:         cfg.Server.Logging.Output,
		FilterSQLTrace: cfg.Server.Logging.FilterSQLTrace,
	})

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           remote.NewServer(cfg.Server).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.Listen)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	log.Info("litebridge worker stopped")
	return nil
}

// loadConfig reads the worker configuration. A missing file is not an
// error: the worker runs with defaults.
func loadConfig(path string) (*workerConfig, error) {
	cfg := &workerConfig{Listen: defaultListen}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if cfg.Listen == "" {
		cfg.Listen = defaultListen
	}
	return cfg, nil
}

// getConfigPath returns the configuration file path.
// Uses LITEBRIDGE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("LITEBRIDGE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
