package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"peoplenet/internal/adapters/exports"
	"peoplenet/internal/adapters/httpapi"
	"peoplenet/internal/blob"
	"peoplenet/internal/core"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close(context.Background())
			return serve(cmd.Context(), a, nil)
		},
	}
	cmd.Flags().String("addr", ":8080", "listen address")
	cmd.Flags().String("blob", "fs", "export artifact store: fs, s3 or memory")
	return cmd
}

// serve blocks until ctx is cancelled. ready, when set, receives the bound
// address once the listener is open.
func serve(ctx context.Context, a *app, ready chan<- string) (err error) {
	blobs, err := blob.Open(ctx, a.cfg.BlobSettings())
	if err != nil {
		return fmt.Errorf("open %s blob store: %w", a.cfg.Blob.Driver, err)
	}

	ln, err := net.Listen("tcp", a.cfg.HTTP.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.cfg.HTTP.Addr, err)
	}

	worker := exports.NewWorker(a.svc, blobs,
		exports.WithLogger(core.NewSlogLogger(a.logger)),
		exports.WithQueueSize(a.cfg.Exports.QueueSize),
	)
	worker.Start()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if stopErr := worker.Stop(stopCtx); stopErr != nil && err == nil {
			err = fmt.Errorf("stop export worker: %w", stopErr)
		}
	}()

	handler := httpapi.NewHandler(a.svc,
		httpapi.WithLogger(a.logger),
		httpapi.WithExports(worker),
		httpapi.WithMetricsHandler(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})),
	)
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	a.logger.Info("listening", "addr", ln.Addr().String(), "storage", a.cfg.Storage.Driver, "blob", blobs.Driver())
	if ready != nil {
		ready <- ln.Addr().String()
	}

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
	defer cancel()
	a.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http: %w", err)
	}
	return nil
}
