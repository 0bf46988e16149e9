package main

import (
	"context"
	"io"
	"os/signal"
	"syscall"

	"github.com/datakyt/inventory/internal/core"
	"github.com/datakyt/inventory/internal/web"
	"github.com/spf13/cobra"
)

func newServeCmd(_, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the import API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, stderr, func(ctx context.Context, a *app) error {
				a.logger.Info("tables registered", "count", core.TableCount())

				ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
				defer stop()

				server := web.NewServer(a.cfg, a.service, a.logger)

				errCh := make(chan error, 1)
				go func() { errCh <- server.Start() }()

				select {
				case err := <-errCh:
					return err
				case <-ctx.Done():
				}

				a.logger.Info("shutting down...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					a.logger.Error("shutdown error", "error", err)
					return err
				}
				return <-errCh
			})
		},
	}
}
