// Package commands implements the tnfsd cobra command surface: a single
// root command that loads configuration, wires up logging and metrics,
// and runs the protocol server until an OS signal requests shutdown.
package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/marmos91/tnfsd/internal/logger"
	"github.com/marmos91/tnfsd/internal/protocol/tnfs"
	"github.com/marmos91/tnfsd/pkg/config"
	"github.com/marmos91/tnfsd/pkg/metrics"
	"github.com/marmos91/tnfsd/pkg/metrics/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

// Version, Commit, and Date are set by main from ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var (
	port        int
	verbose     bool
	configFile  string
	idleTimeout time.Duration
	metricsAddr string
	logFormat   string
)

var rootCmd = &cobra.Command{
	Use:   "tnfsd <root-dir>",
	Short: "A network file service for retro and resource-constrained clients",
	Long: `tnfsd serves a directory tree to remote clients over a lightweight
datagram protocol: mount, directory traversal, and file I/O, with
session tracking and path confinement enforced server-side.`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	Version:       Version,
	RunE:          runServe,
}

func init() {
	rootCmd.Flags().IntVarP(&port, "port", "p", 0, "UDP port to listen on (default 16384)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug-level logging")
	rootCmd.Flags().StringVar(&configFile, "config", "", "path to a YAML config file")
	rootCmd.Flags().DurationVar(&idleTimeout, "idle-timeout", 0, "session idle timeout (default 600s)")
	rootCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "address for the Prometheus /metrics endpoint (\"\" disables)")
	rootCmd.Flags().StringVar(&logFormat, "log-format", "", "log output format: text|json (default \"text\")")
}

// Execute runs the command tree.
func Execute() error {
	return rootCmd.Execute()
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadUnvalidated(configFile)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	applyFlagOverrides(cmd, cfg, args[0])

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}

	logger.Info("starting tnfsd",
		logger.Path(cfg.Server.Root),
		"port", cfg.Server.Port,
		"idle_timeout", cfg.Server.IdleTimeout,
		"max_sessions", cfg.Server.MaxSessions,
		"max_handles_per_session", cfg.Server.MaxHandlesPerSession,
		"read_block_max", cfg.Server.ReadBlockMax.String(),
	)

	var m metrics.Metrics
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		registry := metrics.InitRegistry()
		m = prometheus.New()

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		metricsServer = &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server failed", logger.Err(err))
			}
		}()
		logger.Info("metrics enabled", "addr", cfg.Metrics.Addr)
	}

	srv, err := tnfs.NewServer(cfg, m)
	if err != nil {
		return fmt.Errorf("start server: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	serverDone := make(chan error, 1)
	go func() { serverDone <- srv.Run(ctx) }()

	logger.Info("server is running", "addr", srv.Addr().String())

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
		cancel()
		<-serverDone
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	if metricsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}

	logger.Info("server stopped")
	return nil
}

// applyFlagOverrides layers explicitly-set CLI flags on top of the
// loaded configuration, giving flags the highest precedence as required
// by the documented configuration layering.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config, rootDir string) {
	cfg.Server.Root = rootDir

	if cmd.Flags().Changed("port") {
		cfg.Server.Port = port
	}
	if cmd.Flags().Changed("idle-timeout") {
		cfg.Server.IdleTimeout = idleTimeout
	}
	if cmd.Flags().Changed("metrics-addr") {
		cfg.Metrics.Enabled = metricsAddr != ""
		cfg.Metrics.Addr = metricsAddr
	}
	if cmd.Flags().Changed("log-format") {
		cfg.Logging.Format = logFormat
	}
	if verbose {
		cfg.Logging.Level = "DEBUG"
	}

	config.ApplyDefaults(cfg)
}
