package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fulmenhq/gofulmen/signals"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/coinlens/coinlens/internal/ailink/prompt"
	"github.com/coinlens/coinlens/internal/config"
	errwrap "github.com/coinlens/coinlens/internal/errors"
	"github.com/coinlens/coinlens/internal/estimate"
	"github.com/coinlens/coinlens/internal/metrics"
	"github.com/coinlens/coinlens/internal/observability"
	"github.com/coinlens/coinlens/internal/server"
	"github.com/coinlens/coinlens/internal/server/handlers"
)

var (
	serverPort int
	serverHost string
)

// telemetryHealthChecker ensures telemetry system and exporter are available
type telemetryHealthChecker struct{}

func (telemetryHealthChecker) CheckHealth(ctx context.Context) error {
	if observability.TelemetrySystem == nil || observability.PrometheusExporter == nil {
		return errors.New("telemetry system not initialized")
	}
	return nil
}

// identityHealthChecker validates app identity metadata
type identityHealthChecker struct {
	binaryName string
	envPrefix  string
	configName string
}

func (i identityHealthChecker) CheckHealth(ctx context.Context) error {
	switch {
	case i.binaryName == "":
		return errors.New("app identity missing binary name")
	case i.envPrefix == "":
		return errors.New("app identity missing env prefix")
	case i.configName == "":
		return errors.New("app identity missing config name")
	}
	return nil
}

// promptsHealthCheck confirms both estimation prompts are registered.
func promptsHealthCheck(registry prompt.Registry) handlers.CheckFunc {
	return func(ctx context.Context) error {
		for _, slug := range []string{estimate.AttributesPromptSlug, estimate.ImagePromptSlug} {
			if _, err := registry.Get(slug); err != nil {
				return err
			}
		}
		return nil
	}
}

// providerHealthCheck resolves the estimation provider. It makes no network call.
func providerHealthCheck(cfg *config.Config, registry prompt.Registry) handlers.CheckFunc {
	return func(ctx context.Context) error {
		_, err := checkProviderResolution(cfg, registry)
		return err
	}
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the HTTP server with graceful shutdown support.

Endpoints:
  POST /v1/estimates/attributes   estimate from type, year, condition
  POST /v1/estimates/image        estimate with a photo (JSON data URI or multipart)
  GET  /v1/coins                  coin catalog

Signal Handling:
  • Ctrl+C (SIGINT) or SIGTERM: Graceful shutdown
  • Ctrl+C twice within 2s: Force quit
  • SIGHUP: Re-validate configuration (restart to apply provider changes)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		identity := GetAppIdentity()
		namespace := identity.TelemetryNamespace()

		cfg, err := loadConfig(ctx)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("host") {
			cfg.Server.Host = serverHost
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = serverPort
		}

		// Initialize server logger with namespace
		observability.InitServerLogger(identity.BinaryName, cfg.Logging.Level, namespace)

		metricsPort := cfg.Metrics.Port
		if metricsPort == 0 {
			metricsPort = 9090
		}
		if cfg.Metrics.Enabled {
			if err := observability.InitMetrics(identity.BinaryName, metricsPort, namespace); err != nil {
				observability.ServerLogger.Error("Failed to initialize metrics", zap.Error(err))
				return errwrap.WrapInternal(ctx, err, "metrics initialization failed")
			}
		}
		observability.InitTracing(identity.BinaryName, versionInfo.Version)

		stack, err := buildEstimationStack(cfg, observability.ServerLogger)
		if err != nil {
			return err
		}

		observability.ServerLogger.Info("Initializing server",
			zap.String("service", identity.BinaryName),
			zap.String("namespace", namespace),
			zap.String("version", versionInfo.Version),
			zap.String("host", cfg.Server.Host),
			zap.Int("port", cfg.Server.Port),
			zap.Int("metrics_port", metricsPort),
			zap.Duration("estimate_timeout", cfg.Estimate.Timeout))

		if resolved, err := checkProviderResolution(cfg, stack.Prompts); err != nil {
			observability.ServerLogger.Warn("Estimation provider not ready; estimates will fail until configured", zap.Error(err))
		} else {
			observability.ServerLogger.Info("Estimation provider resolved",
				zap.String("provider", resolved.ProviderID),
				zap.String("model", resolved.Model))
			handlers.SetEstimationInfo(resolved.ProviderID, resolved.Model, prompt.Slugs(stack.Prompts))
		}

		// Initialize health manager
		handlers.InitHealthManager(versionInfo.Version)
		hm := handlers.GetHealthManager()
		if cfg.Metrics.Enabled {
			hm.RegisterChecker("telemetry", telemetryHealthChecker{})
		}
		hm.RegisterChecker("app_identity", identityHealthChecker{
			binaryName: identity.BinaryName,
			envPrefix:  identity.EnvPrefix,
			configName: identity.ConfigName,
		})
		hm.RegisterChecker("prompts", promptsHealthCheck(stack.Prompts))
		hm.RegisterChecker("estimation_provider", providerHealthCheck(cfg, stack.Prompts))

		srv := server.New(cfg.Server, stack.Estimate)
		handlers.SetAppIdentity(identity)

		shutdownTimeout := cfg.Server.ShutdownTimeout
		if shutdownTimeout == 0 {
			shutdownTimeout = 10 * time.Second
		}

		// Register graceful shutdown handlers (LIFO order - last registered, first executed)
		// Handler 1: Flush logger (executed last)
		signals.OnShutdown(func(ctx context.Context) error {
			observability.ServerLogger.Info("Flushing logger...")
			if err := observability.ServerLogger.Sync(); err != nil {
				// Sync errors are often benign (stdout/stderr already closed)
				observability.ServerLogger.Warn("Logger sync returned error (may be benign)",
					zap.Error(err))
			}
			return nil
		})

		// Handler 2: Flush spans
		signals.OnShutdown(func(ctx context.Context) error {
			return observability.ShutdownTracing(ctx)
		})

		// Handler 3: Shutdown HTTP server (executed first)
		signals.OnShutdown(func(ctx context.Context) error {
			observability.ServerLogger.Info("Shutting down HTTP server...")
			shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				return errwrap.WrapInternal(ctx, err, "server shutdown failed")
			}

			observability.ServerLogger.Info("HTTP server stopped gracefully")
			if err := observability.ShutdownMetrics(); err != nil {
				observability.ServerLogger.Warn("Metrics exporter did not stop cleanly", zap.Error(err))
			}
			return nil
		})

		// SIGHUP re-validates config so operators can check an edit before restarting.
		signals.OnReload(func(ctx context.Context) error {
			observability.ServerLogger.Info("Received SIGHUP: validating configuration")
			reloaded, err := loadConfig(ctx)
			if err != nil {
				metrics.RecordOperation(metrics.OperationConfigReload, false)
				metrics.RecordOperationError(metrics.OperationConfigReload, metrics.ErrorTypeInvalidConfig)
				observability.ServerLogger.Error("Configuration invalid", zap.Error(err))
				return err
			}
			metrics.RecordOperation(metrics.OperationConfigReload, true)
			observability.ServerLogger.Info("Configuration valid; restart to apply changes",
				zap.String("default_provider", reloaded.AILink.DefaultProvider),
				zap.Duration("estimate_timeout", reloaded.Estimate.Timeout))
			return nil
		})

		// Enable double-tap force quit (Ctrl+C within 2 seconds)
		if err := signals.EnableDoubleTap(signals.DoubleTapConfig{
			Window:  2 * time.Second,
			Message: "Press Ctrl+C again within 2 seconds to force quit",
		}); err != nil {
			observability.ServerLogger.Warn("Failed to enable double-tap force quit",
				zap.Error(err))
		}

		// Start server in background goroutine
		errChan := make(chan error, 1)
		go func() {
			observability.ServerLogger.Info("Starting HTTP server...",
				zap.String("host", cfg.Server.Host),
				zap.Int("port", cfg.Server.Port))
			if err := srv.Start(); err != nil && err != http.ErrServerClosed {
				errChan <- err
			}
		}()

		// Start signal listener in background
		go func() {
			if err := signals.Listen(ctx); err != nil {
				observability.ServerLogger.Error("Signal handler error", zap.Error(err))
				errChan <- err
			}
		}()

		// Wait for error or shutdown completion
		if err := <-errChan; err != nil {
			return errwrap.WrapInternal(ctx, err, "server error")
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverHost, "host", "localhost", "server host (overrides server.host)")
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "server port (overrides server.port)")
}
