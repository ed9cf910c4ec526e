package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rcliao/symptom-catalog/internal/server"
	"github.com/rcliao/symptom-catalog/internal/watch"
)

const shutdownTimeout = 10 * time.Second

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Run:   runServe,
	}

	cmd.Flags().String("host", "", "Listen host (overrides server.host)")
	cmd.Flags().Int("port", 0, "Listen port (overrides server.port)")
	cmd.Flags().Bool("watch", false, "Reload the catalog when its file changes (overrides catalog.watch)")

	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, args []string) {
	a := mustOpenApp()
	defer a.Close()

	if cmd.Flags().Changed("host") {
		a.cfg.Server.Host, _ = cmd.Flags().GetString("host")
	}
	if cmd.Flags().Changed("port") {
		a.cfg.Server.Port, _ = cmd.Flags().GetInt("port")
	}
	if cmd.Flags().Changed("watch") {
		a.cfg.Catalog.Watch, _ = cmd.Flags().GetBool("watch")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if a.cfg.Catalog.Watch {
		w, err := startWatcher(ctx, a)
		if err != nil {
			exitErr("watch catalog", err)
		}
		defer w.Stop()
	}

	srv, err := server.NewServer(a.svc, a.logger, &server.Config{
		Host:     a.cfg.Server.Host,
		Port:     a.cfg.Server.Port,
		Metrics:  a.metrics,
		Gatherer: a.registry,
	})
	if err != nil {
		exitErr("create server", err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			exitErr("serve", err)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("shutdown failed", zap.Error(err))
		}
	}
}

func startWatcher(ctx context.Context, a *app) (*watch.Watcher, error) {
	w, err := watch.New(a.catalog.Path(), a.norm, watch.WithLogger(a.logger))
	if err != nil {
		return nil, err
	}
	if err := w.Start(ctx); err != nil {
		return nil, err
	}
	return w, nil
}
