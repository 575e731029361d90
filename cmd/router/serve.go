package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Laisky/llm-router/common/client"
	"github.com/Laisky/llm-router/common/logger"
	"github.com/Laisky/llm-router/internal/dependency"
)

var (
	serveConfigPath         string
	serveAddr               string
	servePIDFile            string
	serveDebug              bool
	serveEnablePrometheus   bool
	serveTelemetryEndpoint  string
	serveTelemetryInsecure  bool
	serveBreakerSweepSpec   string
	serveShutdownTimeoutSec int
)

// serveCmd runs the gateway in the foreground, grounded on the
// teacher-pack's gatewayStartCmd (errgroup-supervised background loops,
// signal.NotifyContext graceful shutdown, a PID file for external
// process management) generalized from crystaldolphin's bus/cron/channel
// loops to this gateway's HTTP server, config watcher, and breaker
// janitor.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the llm-router gateway server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", envOrFlagDefault("LLM_ROUTER_CONFIG_PATH", "config.json"), "Path to the runtime config JSON file")
	serveCmd.Flags().StringVar(&serveAddr, "addr", envOrFlagDefault("LLM_ROUTER_ADDR", ":8080"), "Address to listen on")
	serveCmd.Flags().StringVar(&servePIDFile, "pid-file", envOrFlagDefault("LLM_ROUTER_PID_FILE", ""), "Optional PID file path")
	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Enable debug-level logging")
	serveCmd.Flags().BoolVar(&serveEnablePrometheus, "prometheus", false, "Mount a /internal/metrics Prometheus scrape endpoint")
	serveCmd.Flags().StringVar(&serveTelemetryEndpoint, "otel-endpoint", os.Getenv("LLM_ROUTER_OTEL_ENDPOINT"), "OTLP HTTP endpoint for traces/metrics; empty disables OpenTelemetry")
	serveCmd.Flags().BoolVar(&serveTelemetryInsecure, "otel-insecure", false, "Dial the OTLP endpoint without TLS")
	serveCmd.Flags().StringVar(&serveBreakerSweepSpec, "breaker-sweep-cron", "*/1 * * * *", "Cron spec for sweeping expired circuit-breaker entries")
	serveCmd.Flags().IntVar(&serveShutdownTimeoutSec, "shutdown-timeout", 10, "Seconds to wait for in-flight requests to drain on shutdown")
}

func envOrFlagDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func runServe(_ *cobra.Command, _ []string) error {
	logger.Init(serveDebug)
	client.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := dependency.New(ctx, dependency.Options{
		ConfigPath:        serveConfigPath,
		Debug:             serveDebug,
		EnablePrometheus:  serveEnablePrometheus,
		TelemetryEndpoint: serveTelemetryEndpoint,
		TelemetryInsecure: serveTelemetryInsecure,
		BreakerSweepSpec:  serveBreakerSweepSpec,
		ServiceVersion:    version,
	})
	if err != nil {
		return fmt.Errorf("wire gateway: %w", err)
	}
	defer container.Watcher().Close()
	defer container.Janitor().Stop()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = container.Telemetry().Shutdown(shutdownCtx)
	}()

	if servePIDFile != "" {
		if err := writePIDFile(servePIDFile); err != nil {
			return err
		}
		defer removePIDFile(servePIDFile)
	}

	httpServer := &http.Server{
		Addr:    serveAddr,
		Handler: container.Engine(),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.SysLog(fmt.Sprintf("llm-router listening on %s", serveAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(serveShutdownTimeoutSec)*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.SysLog("llm-router shutdown complete")
	return nil
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create pid file dir: %w", err)
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func removePIDFile(path string) {
	_ = os.Remove(path)
}
