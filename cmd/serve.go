package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/alexmaslar/riff-plugin-editorial/internal/api"
	"github.com/alexmaslar/riff-plugin-editorial/internal/id/uuid"
)

const shutdownTimeout = 10 * time.Second

// newServeCmd creates the 'serve' subcommand, which runs the HTTP API until
// SIGINT or SIGTERM.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Runs the review HTTP API",
		RunE:  runServeCommand,
	}
}

func runServeCommand(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	cfg, err := resolveConfig(cmd.Context())
	if err != nil {
		return err
	}
	logger := appInstance.GetLogger()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	apiServer := api.NewServer(appInstance.GetService(), appInstance, uuid.NewUUIDGenerator(), cfg, logger.Named("api"))
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.Port))
	if err != nil {
		return fmt.Errorf("listen on port %d: %w", cfg.Server.Port, err)
	}
	return serve(ctx, listener, apiServer.Handler(), logger)
}

// serve runs handler on listener until ctx is canceled, then drains in-flight
// requests for up to shutdownTimeout.
func serve(ctx context.Context, listener net.Listener, handler http.Handler, logger *zap.Logger) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server started", zap.String("addr", listener.Addr().String()))
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info("shutdown complete")
	return nil
}
