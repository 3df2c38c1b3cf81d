package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/taskpilot/internal/config"
	"github.com/teemow/taskpilot/internal/instrumentation"
	"github.com/teemow/taskpilot/internal/server"
	"github.com/teemow/taskpilot/internal/tools/workflow_tools"
)

// MetricsConfig holds configuration for the metrics server
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server (default: true)
	Enabled bool

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string
}

func newServeCmd() *cobra.Command {
	var (
		debugMode      bool
		sortQuery      string
		timeZone       string
		metricsEnabled bool
		metricsAddr    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server to provide the task
workflow to AI assistants over stdio.

The server exposes a run_task tool that routes a request to one of the
task capabilities: send email, sort and label email, schedule a meeting,
transcribe audio, or search the web.

Authorization:
  The stdio transport cannot prompt for OAuth consent. Run a task from the
  CLI once per capability (e.g., 'taskpilot run send an email...') to cache
  tokens; the server refreshes them automatically afterwards.

Metrics:
  A Prometheus endpoint is served on a dedicated port (--metrics-addr) with
  /healthz and /readyz probes alongside it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			cfg.Debug = debugMode
			if sortQuery != "" {
				cfg.SortQuery = sortQuery
			}
			if timeZone != "" {
				cfg.TimeZone = timeZone
			}

			// Load metrics config from environment if not set via flags
			if !cmd.Flags().Changed("metrics-enabled") {
				if os.Getenv("METRICS_ENABLED") == "false" {
					metricsEnabled = false
				}
			}
			if !cmd.Flags().Changed("metrics-addr") {
				if addr := os.Getenv("METRICS_ADDR"); addr != "" {
					metricsAddr = addr
				}
			}

			return runServe(cfg, MetricsConfig{Enabled: metricsEnabled, Addr: metricsAddr})
		},
	}

	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&sortQuery, "sort-query", "", "Gmail search filter applied when listing messages for sorting (default: all mail)")
	cmd.Flags().StringVar(&timeZone, "timezone", "", "IANA time zone for scheduled meetings. Can also use TASKPILOT_TIMEZONE env var. Default: UTC")
	cmd.Flags().BoolVar(&metricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

func runServe(cfg *config.Config, metricsConfig MetricsConfig) error {
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := newLogger(cfg.Debug)

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Error("instrumentation shutdown failed", "error", err)
		}
	}()

	// Stdio has no terminal for the consent prompt; tokens must already be
	// cached by a CLI run.
	engine, err := buildEngine(cfg, logger, provider.Metrics(), nil)
	if err != nil {
		return err
	}

	// Start metrics server if enabled
	var metricsServer *server.MetricsServer
	health := server.NewHealthChecker()
	if metricsConfig.Enabled && provider.Enabled() {
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    metricsConfig.Addr,
			InstrumentationProvider: provider,
			Health:                  health,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}

		go func() {
			if err := metricsServer.Start(); err != nil && err != http.ErrServerClosed {
				log.Printf("metrics server stopped with error: %v", err)
			}
		}()
	}
	defer func() {
		if metricsServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(ctx); err != nil {
				log.Printf("Error during metrics server shutdown: %v", err)
			}
		}
	}()

	// Create MCP server
	mcpSrv := mcpserver.NewMCPServer("taskpilot", version,
		mcpserver.WithToolCapabilities(true),
	)

	if err := workflow_tools.RegisterWorkflowTools(mcpSrv, engine, provider.Metrics()); err != nil {
		return fmt.Errorf("failed to register workflow tools: %w", err)
	}

	return runStdioServer(shutdownCtx, mcpSrv)
}

func runStdioServer(ctx context.Context, mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("server stopped with error: %w", err)
		}
		return nil
	}
}
