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

	"github.com/bizmatters/graphide-orchestrator/internal/config"
	"github.com/bizmatters/graphide-orchestrator/internal/gateway"
	"github.com/bizmatters/graphide-orchestrator/internal/joern"
	"github.com/bizmatters/graphide-orchestrator/internal/logging"
	"github.com/bizmatters/graphide-orchestrator/internal/metrics"
	"github.com/bizmatters/graphide-orchestrator/internal/orchestration"
	"github.com/bizmatters/graphide-orchestrator/internal/telemetry"
	"github.com/bizmatters/graphide-orchestrator/internal/verify"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	_ "github.com/bizmatters/graphide-orchestrator/docs" // swagger docs
)

// @title GraphIDE Orchestrator API
// @version 1.0
// @description Role routing and resilient dispatch for the GraphIDE vulnerability analysis workflow.
// @description
// @description Stages are routed to specialized analysis roles backed by a remote completion service.
// @description Graph slice queries are delegated to a Joern query server.

// @contact.name API Support
// @contact.email support@bizmatters.dev

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8000
// @BasePath /

const shutdownTimeout = 30 * time.Second

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	v := config.New()
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "graphide-orchestrator",
		Short: "GraphIDE analysis orchestrator API server",
		Long: `Serves the GraphIDE analysis API: routes chat stages to specialized roles,
executes code property graph slice queries and tracks scan sessions.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v, cfgFile)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&cfgFile, "config", "", "config file (yaml)")
	cmd.Flags().String("port", "8000", "HTTP listen port")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	_ = v.BindPFlag("port", cmd.Flags().Lookup("port"))
	_ = v.BindPFlag("log_level", cmd.Flags().Lookup("log-level"))

	return cmd
}

func run(ctx context.Context, cfg *config.Config) error {
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	providers, err := telemetry.Init(telemetry.Options{TraceStdout: cfg.Telemetry.TraceStdout})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	dispatchMetrics, err := metrics.NewDispatchMetrics(otel.Meter("graphide-orchestrator"))
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}

	if cfg.OnDemand.APIKey == "" {
		logger.Warn("ondemand.api_key is not set; completion calls will be rejected upstream and degrade")
	}

	completionClient := orchestration.NewCompletionClient(orchestration.CompletionConfig{
		BaseURL:        cfg.OnDemand.BaseURL,
		APIKey:         cfg.OnDemand.APIKey,
		SessionID:      cfg.OnDemand.SessionID,
		ExternalUserID: cfg.OnDemand.ExternalUserID,
		RequestTimeout: cfg.OnDemand.RequestTimeout,
	}, logger.Named("completion"))

	joernClient := joern.NewClient(joern.Config{
		Address:      cfg.JoernAddress(),
		Username:     cfg.Joern.Username,
		Password:     cfg.Joern.Password,
		QueryTimeout: cfg.Joern.QueryTimeout,
	})

	orchestrator, err := orchestration.NewOrchestrator(orchestration.Options{
		Dispatcher: completionClient,
		Engine:     joernClient,
		Sessions:   orchestration.NewMemorySessionStore(cfg.Session.MaxEntries, cfg.Session.TTL),
		Verifier:   verify.NewVerifier(),
		Metrics:    dispatchMetrics,
		Logger:     logger.Named("orchestrator"),
		Routing: orchestration.Routing{
			DefaultEndpointID: cfg.OnDemand.EndpointID,
			RoleEndpoints:     cfg.OnDemand.RoleEndpoints,
		},
		Parallel: cfg.Dispatch.Parallel,
	})
	if err != nil {
		return err
	}

	if logger.Core().Enabled(zap.DebugLevel) {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gateway.NewRouter(
		gateway.NewHandler(orchestrator, logger.Named("gateway")),
		gateway.NewChatStream(orchestrator, logger.Named("stream")),
		providers.MetricsHandler(),
		logger.Named("http"),
	)

	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// A stage may wait on two role calls plus the graph engine
		WriteTimeout: cfg.OnDemand.RequestTimeout + cfg.Joern.QueryTimeout,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting GraphIDE orchestrator",
			zap.String("port", cfg.Port),
			zap.String("ondemand_url", cfg.OnDemand.BaseURL),
			zap.String("joern", cfg.JoernAddress()),
			zap.Bool("parallel_dispatch", cfg.Dispatch.Parallel),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	case <-ctx.Done():
	}
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		logger.Warn("telemetry shutdown failed", zap.Error(err))
	}

	logger.Info("server exited")
	return nil
}
