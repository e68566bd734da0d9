// graybridge - SQLite command bridge
//
// graybridge exposes SQLite databases to host applications over two
// transports: an HTTP API and an optional MQTT command channel. All
// access to a database file goes through one process-wide serialised
// connection registry, so concurrent callers never trip over SQLite's
// file locking.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nerrad567/graybridge/internal/api"
	"github.com/nerrad567/graybridge/internal/bridge"
	"github.com/nerrad567/graybridge/internal/infrastructure/config"
	"github.com/nerrad567/graybridge/internal/infrastructure/logging"
	"github.com/nerrad567/graybridge/internal/infrastructure/metrics"
	"github.com/nerrad567/graybridge/internal/infrastructure/mqtt"
	"github.com/nerrad567/graybridge/internal/remote"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting graybridge",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration. An explicit GRAYBRIDGE_CONFIG must exist; the
	// default path may be absent, in which case defaults plus environment
	// overrides apply.
	cfg, configPath, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Create the connection registry
	registry := bridge.New(bridge.Settings{
		DataDir:     cfg.Storage.DataDir,
		WALMode:     cfg.Storage.WALMode,
		BusyTimeout: cfg.Storage.BusyTimeout,
	})
	registry.SetLogger(log)
	defer func() {
		log.Info("closing database connections")
		if closeErr := registry.Close(); closeErr != nil {
			log.Error("error closing connections", "error", closeErr)
		}
	}()

	components := make(map[string]api.HealthChecker)

	// Connect to InfluxDB (optional)
	if cfg.Metrics.Enabled {
		metricsClient, err := metrics.Connect(cfg.Metrics)
		if err != nil {
			return fmt.Errorf("connecting to metrics backend: %w", err)
		}
		defer func() {
			log.Info("closing metrics connection")
			if closeErr := metricsClient.Close(); closeErr != nil {
				log.Error("error closing metrics", "error", closeErr)
			}
		}()
		metricsClient.SetOnError(func(err error) {
			log.Error("metrics write error", "error", err)
		})

		registry.SetMetrics(metricsClient)
		components["metrics"] = metricsClient
		log.Info("metrics connected",
			"url", cfg.Metrics.URL,
			"org", cfg.Metrics.Org,
			"bucket", cfg.Metrics.Bucket,
		)
	} else {
		log.Info("metrics disabled")
	}

	// Connect to MQTT broker and start the command dispatcher (optional)
	if cfg.MQTT.Enabled {
		mqttClient, err := mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log)
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})

		dispatcher := remote.NewDispatcher(registry, mqttClient, cfg.MQTT.QoS, log)
		if err := dispatcher.Start(); err != nil {
			return fmt.Errorf("starting command dispatcher: %w", err)
		}

		components["mqtt"] = mqttClient
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	} else {
		log.Info("MQTT disabled")
	}

	// Start the HTTP API
	server, err := api.New(api.Deps{
		Config:     cfg.API,
		Security:   cfg.Security,
		Logger:     log,
		Registry:   registry,
		Version:    version,
		Components: components,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server started", "address", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port))

	// Verify infrastructure connections are healthy
	for name, checker := range components {
		if err := checker.HealthCheck(ctx); err != nil {
			return fmt.Errorf("%s health check: %w", name, err)
		}
	}
	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. API server (drain in-flight requests)
	// 2. MQTT (graceful offline status, if enabled)
	// 3. Metrics (flush, if enabled)
	// 4. Connection registry

	log.Info("graybridge stopped")
	return nil
}

// loadConfig resolves and loads the configuration file.
// GRAYBRIDGE_CONFIG takes precedence and must exist; the default path is
// optional.
func loadConfig() (*config.Config, string, error) {
	if path := os.Getenv("GRAYBRIDGE_CONFIG"); path != "" {
		cfg, err := config.Load(path)
		return cfg, path, err
	}
	cfg, err := config.LoadOrDefault(defaultConfigPath)
	return cfg, defaultConfigPath, err
}
