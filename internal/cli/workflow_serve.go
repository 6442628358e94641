package cli

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"workflow_server/internal/bootstrap"
	"workflow_server/pkg/logger"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second // Maximum time to wait for graceful shutdown

func newServeCommand() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Port = port
			}

			ctx, stop := signal.NotifyContext(contextOrBackground(cmd), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app, cleanup, err := bootstrap.NewAPI(ctx, cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			serveErr := make(chan error, 1)
			go func() {
				addr := ":" + cfg.Port
				logger.Info("Starting API server on %s", addr)
				serveErr <- app.Listen(addr)
			}()

			select {
			case err := <-serveErr:
				return err
			case <-ctx.Done():
			}

			logger.Info("Shutting down API server (timeout: %v)...", shutdownTimeout)
			if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
				logger.Error("Error shutting down: %v", err)
				return err
			}
			logger.Info("API server shut down gracefully")
			return nil
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port (overrides PORT)")
	return cmd
}

// contextOrBackground guards commands invoked without ExecuteContext.
func contextOrBackground(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
