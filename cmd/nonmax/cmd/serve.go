package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MeKo-Tech/nonmax/internal/server"
	"github.com/spf13/cobra"
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for the suppression API",
	Long: `Start an HTTP server that provides REST and WebSocket endpoints for
non-maximum suppression.

The server provides the following endpoints:
  POST /suppress - Suppress one frame of detections
  GET  /ws       - WebSocket streaming suppression
  GET  /health   - Health check endpoint
  GET  /metrics  - Prometheus metrics

Examples:
  nonmax serve
  nonmax serve --port 8080
  nonmax serve --host 0.0.0.0 --port 3000 --threshold 0.3`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		host := cfg.Server.Host
		if cmd.Flags().Changed("host") {
			host, _ = cmd.Flags().GetString("host")
		}
		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port, _ = cmd.Flags().GetInt("port")
		}
		corsOrigin := cfg.Server.CORSOrigin
		if cmd.Flags().Changed("cors-origin") {
			corsOrigin, _ = cmd.Flags().GetString("cors-origin")
		}
		maxBodyMB := cfg.Server.MaxBodyMB
		if cmd.Flags().Changed("max-body-size") {
			maxBodyMB, _ = cmd.Flags().GetInt64("max-body-size")
		}
		timeout := cfg.Server.TimeoutSec
		if cmd.Flags().Changed("timeout") {
			timeout, _ = cmd.Flags().GetInt("timeout")
		}
		shutdownTimeout := cfg.Server.ShutdownTimeout
		if cmd.Flags().Changed("shutdown-timeout") {
			shutdownTimeout, _ = cmd.Flags().GetInt("shutdown-timeout")
		}
		threshold := cfg.Suppression.Threshold
		if cmd.Flags().Changed("threshold") {
			threshold, _ = cmd.Flags().GetFloat64("threshold")
		}
		coordMode := cfg.Suppression.Coordinates
		if cmd.Flags().Changed("mode") {
			coordMode, _ = cmd.Flags().GetString("mode")
		}
		minScore := cfg.Suppression.MinScore
		if cmd.Flags().Changed("min-score") {
			minScore, _ = cmd.Flags().GetFloat64("min-score")
		}

		if port < 1 || port > 65535 {
			return fmt.Errorf("invalid port number: %d (must be between 1 and 65535)", port)
		}

		opts, err := suppressOptions(threshold, coordMode)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		serverConfig := server.Config{
			Host:       host,
			Port:       port,
			CORSOrigin: corsOrigin,
			MaxBodyMB:  maxBodyMB,
			Options:    opts,
			MinScore:   minScore,
		}

		nmsServer, err := server.NewServer(serverConfig)
		if err != nil {
			return fmt.Errorf("failed to initialize server: %w", err)
		}

		mux := http.NewServeMux()
		nmsServer.SetupRoutes(mux)

		httpServer := &http.Server{
			Addr:              serverConfig.Addr(),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       time.Duration(timeout) * time.Second,
			WriteTimeout:      time.Duration(timeout) * time.Second,
		}

		go func() {
			slog.Info("Starting suppression server",
				"host", host,
				"port", port,
				"threshold", threshold,
				"mode", opts.Mode.String())
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Server error", "error", err)
				cancel()
			}
		}()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

		select {
		case sig := <-sigChan:
			slog.Info("Received shutdown signal", "signal", sig.String())
		case <-ctx.Done():
			slog.Info("Context cancelled, initiating shutdown")
		}

		slog.Info("Starting graceful shutdown", "timeout", fmt.Sprintf("%ds", shutdownTimeout))

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
			time.Duration(shutdownTimeout)*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown error", "error", err)
		} else {
			slog.Info("HTTP server shutdown completed")
		}

		slog.Info("Graceful shutdown completed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("host", "H", "localhost", "server host")
	serveCmd.Flags().IntP("port", "p", 8080, "server port")
	serveCmd.Flags().String("cors-origin", "*", "CORS allowed origins")
	serveCmd.Flags().Int64("max-body-size", 10, "maximum request body size in MB")
	serveCmd.Flags().Int("timeout", 30, "request timeout in seconds")
	serveCmd.Flags().Int("shutdown-timeout", 10, "shutdown timeout in seconds")
	serveCmd.Flags().Float64P("threshold", "t", 0.5, "IoU threshold at or above which boxes are suppressed (0..1)")
	serveCmd.Flags().String("mode", "inclusive", "coordinate semantics: inclusive (pixel) or exclusive (continuous)")
	serveCmd.Flags().Float64("min-score", 0, "drop detections scoring below this before suppression")
}
