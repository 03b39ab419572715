package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/lehigh-university-libraries/inkrhythm/internal/gateway"
	"github.com/lehigh-university-libraries/inkrhythm/internal/handlers"
	"github.com/lehigh-university-libraries/inkrhythm/internal/intake"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		port      string
		maxUpload int64
		idleTTL   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start web server for the appraisal interface",
		Long: `Starts the Ink Rhythm web interface on the specified port.

Each browser tab gets its own session: upload the master copy and your practice
work, run the appraisal, read the report and design stickers from the result.
Sessions live in memory only and are dropped after they sit idle.`,
		Example: `  # Start server on default port 8888
  inkrhythm serve

  # Start server on custom port with Ollama
  APPRAISAL_PROVIDER=ollama inkrhythm serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, err := gateway.New(gateway.ConfigFromEnv())
			if err != nil {
				return fmt.Errorf("failed to configure gateway: %w", err)
			}

			ctx := cmd.Context()
			handler := handlers.New(ctx, gw, handlers.Options{MaxUploadBytes: maxUpload})

			addr := ":" + port
			server := &http.Server{
				Addr:              addr,
				Handler:           handler.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			go pruneSessions(ctx, handler, idleTTL)

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Ink Rhythm interface available", "addr", addr, "url", "http://localhost"+addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-ctx.Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8888", "Port to listen on")
	cmd.Flags().Int64Var(&maxUpload, "max-upload", intake.DefaultMaxBytes, "Maximum size of a single image upload in bytes")
	cmd.Flags().DurationVar(&idleTTL, "session-ttl", 2*time.Hour, "Drop sessions idle for longer than this")

	return cmd
}

func pruneSessions(ctx context.Context, handler *handlers.Handler, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	ticker := time.NewTicker(ttl / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := handler.Store().Prune(ttl); n > 0 {
				slog.Info("Pruned idle sessions", "count", n)
			}
		}
	}
}
