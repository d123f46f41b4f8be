package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/handlescope/handlescope/internal/config"
	errwrap "github.com/handlescope/handlescope/internal/errors"
	"github.com/handlescope/handlescope/internal/observability"
	"github.com/handlescope/handlescope/internal/server"
	"github.com/handlescope/handlescope/internal/server/handlers"
)

var (
	serverPort int
	serverHost string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the HTTP server with graceful shutdown support.

Ctrl+C (SIGINT) or SIGTERM triggers a graceful shutdown: the listener stops
accepting requests, in-flight requests drain, pending history writes land,
and logs flush before exit.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverHost, "host", "", "server host (overrides config)")
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 0, "server port (overrides config)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := config.GetConfig()
	if cfg == nil {
		return errors.New("config not loaded")
	}
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = serverHost
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = serverPort
	}

	observability.InitServerLogger("handlescope", cfg.Logging.Level)
	logger := observability.ServerLogger

	logger.Info("Initializing server",
		zap.String("service", "handlescope"),
		zap.String("version", versionInfo.Version),
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port))

	handlers.InitHealthManager(versionInfo.Version)
	handlers.SetVersionInfo(versionInfo.Version, versionInfo.Commit, versionInfo.BuildDate)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st := openStore(ctx, logger)
	if st != nil {
		defer st.Close() // nolint:errcheck // best-effort cleanup
	}

	orch, sink, err := buildOrchestrator(st, logger)
	if err != nil {
		return err
	}

	srv := server.New(cfg.Server, server.Options{
		Engine:         orch,
		Store:          st,
		MetricsEnabled: cfg.Metrics.Enabled,
		HealthEnabled:  cfg.Health.Enabled,
	})

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return errwrap.WrapInternal(ctx, err, "server error")
	case <-ctx.Done():
	}

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errwrap.WrapInternal(shutdownCtx, err, "server shutdown failed")
	}

	if sink != nil {
		logger.Info("Draining pending history writes")
		sink.Wait()
	}

	logger.Info("HTTP server stopped gracefully")
	if err := logger.Sync(); err != nil {
		// Sync errors are often benign (stdout/stderr already closed)
		logger.Warn("Logger sync returned error (may be benign)", zap.Error(err))
	}

	return nil
}
