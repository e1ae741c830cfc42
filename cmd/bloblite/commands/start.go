package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bloblite/bloblite/internal/gc"
	"github.com/bloblite/bloblite/internal/logger"
	"github.com/bloblite/bloblite/internal/telemetry"
	"github.com/bloblite/bloblite/pkg/api"
	"github.com/bloblite/bloblite/pkg/api/handlers"
	"github.com/bloblite/bloblite/pkg/blob"
	"github.com/bloblite/bloblite/pkg/config"
	"github.com/bloblite/bloblite/pkg/metrics"
	"github.com/bloblite/bloblite/pkg/sign"
	"github.com/bloblite/bloblite/pkg/store/extent"
	extentbadger "github.com/bloblite/bloblite/pkg/store/extent/badger"
	extentmem "github.com/bloblite/bloblite/pkg/store/extent/memory"
	"github.com/bloblite/bloblite/pkg/store/metadata"
	metadatamem "github.com/bloblite/bloblite/pkg/store/metadata/memory"
)

var pidFile string

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the BlobLite server",
	Long: `Start the BlobLite blob endpoint with the specified configuration.

The server runs in the foreground until interrupted. Use --config to specify
a custom configuration file, or it will use the default location at
$XDG_CONFIG_HOME/bloblite/config.yaml. Without a config file the server runs
on defaults: 127.0.0.1:10000 with the well-known development account.

Examples:
  # Start with defaults
  bloblite start

  # Start with custom config file
  bloblite start --config /etc/bloblite/config.yaml

  # Start with environment variable overrides
  BLOBLITE_LOGGING_LEVEL=DEBUG bloblite start`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().StringVar(&pidFile, "pid-file", "", "Path to PID file")
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	// Initialize the structured logger
	if err := InitLogger(cfg); err != nil {
		return err
	}

	// Create cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry (if enabled)
	telemetryCfg := telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "bloblite",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	}
	telemetryShutdown, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(ctx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}()

	// Initialize Pyroscope profiling (if enabled)
	profilingCfg := telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "bloblite",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	}
	profilingShutdown, err := telemetry.InitProfiling(profilingCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", "error", err)
		}
	}()

	logger.Info("BlobLite starting", "version", Version)
	logger.Info("Log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	logger.Info("Configuration loaded", "source", getConfigSource(GetConfigFile()))
	if telemetry.IsEnabled() {
		logger.Info("Telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	}
	if telemetry.IsProfilingEnabled() {
		logger.Info("Profiling enabled", "endpoint", cfg.Telemetry.Profiling.Endpoint)
	}

	// Initialize metrics (if enabled)
	var m *metrics.Metrics
	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		m = metrics.New()
		metricsServer = metrics.NewServer(m, cfg.Metrics.Port)
		logger.Info("Metrics enabled", "port", cfg.Metrics.Port)
	} else {
		logger.Info("Metrics collection disabled")
	}

	// Open the stores
	meta := metadatamem.New()
	defer func() { _ = meta.Close() }()

	extents, err := openExtentStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open extent store: %w", err)
	}
	defer func() { _ = extents.Close() }()
	logger.Info("Extent store ready",
		"backend", cfg.Storage.Backend,
		"max_bytes", uint64(cfg.Storage.MaxExtentBytes))

	// Build the authenticator from the configured keychain
	auth := sign.New(cfg.Keychain(), sign.Options{
		Loose:           cfg.Auth.Loose,
		CheckAPIVersion: !cfg.Auth.SkipAPIVersionCheck,
		OAuth: sign.OAuthOptions{
			Enabled: cfg.Auth.OAuth.Enabled,
			Secret:  cfg.Auth.OAuth.Secret,
			Issuer:  cfg.Auth.OAuth.Issuer,
		},
		PublicAccess: publicAccessLookup(meta),
	})
	if cfg.Auth.Loose {
		logger.Warn("Loose authentication enabled, all requests are accepted")
	}

	// Protocol handler and blob endpoint
	handler := handlers.New(meta, extents, auth, m)
	health := api.NewHealthHandler(meta, extents)
	server := api.NewServer(cfg.Server.Config, handler, health)

	// Extent garbage collector
	sweeper := gc.New(meta, extents, m, cfg.Storage.GCInterval)
	sweeper.Start(ctx)
	defer sweeper.Stop(5 * time.Second)

	// Write PID file if specified
	if pidFile != "" {
		if err := os.WriteFile(pidFile, []byte(fmt.Sprintf("%d", os.Getpid())), 0644); err != nil {
			return fmt.Errorf("failed to write PID file: %w", err)
		}
		defer func() { _ = os.Remove(pidFile) }()
	}

	// Start servers in the background
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- server.Start(ctx)
	}()

	if metricsServer != nil {
		go func() {
			if err := metricsServer.Start(ctx); err != nil {
				logger.Error("metrics server error", "error", err)
			}
		}()
	}

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Server is running. Press Ctrl+C to stop.")

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("Shutdown signal received, initiating graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Stop(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if metricsServer != nil {
			_ = metricsServer.Stop(shutdownCtx)
		}
		cancel()

		if err := <-serverDone; err != nil {
			logger.Error("Server shutdown error", "error", err)
			return err
		}
		logger.Info("Server stopped gracefully")

	case err := <-serverDone:
		signal.Stop(sigChan)
		if err != nil {
			logger.Error("Server error", "error", err)
			return err
		}
		logger.Info("Server stopped")
	}

	return nil
}

// openExtentStore opens the extent backend selected in the configuration.
func openExtentStore(cfg *config.Config) (extent.Store, error) {
	switch cfg.Storage.Backend {
	case config.BackendBadger:
		return extentbadger.Open(cfg.Storage.Path, uint64(cfg.Storage.MaxExtentBytes))
	default:
		return extentmem.New(uint64(cfg.Storage.MaxExtentBytes)), nil
	}
}

// publicAccessLookup resolves the public-access level of a container for
// anonymous requests.
func publicAccessLookup(meta metadata.Store) func(account, container string) blob.PublicAccess {
	return func(account, container string) blob.PublicAccess {
		c, err := meta.GetContainer(context.Background(), account, container)
		if err != nil {
			return blob.PublicAccessNone
		}
		return c.Props.PublicAccess
	}
}
