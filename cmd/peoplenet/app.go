package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"peoplenet/internal/config"
	"peoplenet/internal/core"
	"peoplenet/internal/graphsync"
	"peoplenet/pkg/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// app holds the long-lived dependencies shared by every subcommand.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	store    domain.Store
	mirror   *graphsync.Mirror
	registry *prometheus.Registry
	tracing  *sdktrace.TracerProvider
	svc      *core.Service
}

func newLogger(w io.Writer, cfg config.LoggingConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func loadApp(cmd *cobra.Command) (*app, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		return nil, err
	}
	return newApp(cmd.Context(), cfg, cmd.ErrOrStderr())
}

func newApp(ctx context.Context, cfg config.Config, logOut io.Writer) (_ *app, err error) {
	a := &app{
		cfg:      cfg,
		logger:   newLogger(logOut, cfg.Logging),
		registry: prometheus.NewRegistry(),
	}
	defer func() {
		if err != nil {
			a.Close(context.Background())
		}
	}()

	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := core.NewPrometheusMetricsRecorder(a.registry)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	a.tracing, err = core.InitTracing(ctx, cfg.TracingSettings())
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	opts := []core.Option{
		core.WithLogger(core.NewSlogLogger(a.logger)),
		core.WithMetricsRecorder(metrics),
		core.WithTracer(core.NewOTelTracer(a.tracing)),
	}
	if cfg.Logging.Audit {
		opts = append(opts, core.WithAuditRecorder(core.NewJSONAuditRecorder(logOut)))
	}
	if cfg.Seed.File != "" {
		dataset, err := core.LoadSeedDataset(cfg.Seed.File)
		if err != nil {
			return nil, err
		}
		opts = append(opts, core.WithSeedDataset(dataset))
	}

	a.store, err = core.OpenPersistentStore(ctx, cfg.StorageSettings())
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Storage.Driver, err)
	}

	if cfg.Neo4j.Enabled() {
		a.mirror, err = graphsync.Dial(ctx, graphsync.Config{
			URI:      cfg.Neo4j.URI,
			Username: cfg.Neo4j.Username,
			Password: cfg.Neo4j.Password,
			Database: cfg.Neo4j.Database,
		})
		if err != nil {
			return nil, err
		}
		opts = append(opts, core.WithGraphMirror(a.mirror))
	}

	a.svc = core.NewService(a.store, opts...)
	a.logger.Debug("peoplenet ready", "storage", cfg.Storage.Driver, "graph_mirror", cfg.Neo4j.Enabled(), "tracing", cfg.Tracing.Provider)
	return a, nil
}

// Close flushes pending spans and releases the store and the graph mirror.
func (a *app) Close(ctx context.Context) {
	var errs []error
	if a.tracing != nil {
		errs = append(errs, a.tracing.Shutdown(ctx))
	}
	if a.mirror != nil {
		errs = append(errs, a.mirror.Close(ctx))
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	if err := errors.Join(errs...); err != nil {
		a.logger.Warn("shutdown", "error", err)
	}
}
