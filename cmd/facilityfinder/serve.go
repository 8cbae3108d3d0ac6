package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/vango-dev/facilityfinder/internal/app"
	"github.com/vango-dev/facilityfinder/internal/config"
	"github.com/vango-dev/facilityfinder/internal/errors"
	"github.com/vango-dev/facilityfinder/pkg/middleware"
)

func serveCmd(configDir *string) *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the finder server",
		Long: `Start the finder server.

Every request path is rendered on the server. The page then connects back
over WebSocket and further navigation happens without reloading.

Examples:
  facilityfinder serve
  facilityfinder serve --port 8080
  FINDER_BASE=/finder facilityfinder serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configDir)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("host") {
				cfg.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cmd, cfg)
		},
	}

	cmd.Flags().StringVar(&host, "host", config.DefaultHost, "Host to bind to")
	cmd.Flags().IntVarP(&port, "port", "p", config.DefaultPort, "Port to listen on")

	return cmd
}

func serve(ctx context.Context, cmd *cobra.Command, cfg *config.Config) error {
	logger := newLogger(cmd.ErrOrStderr(), cfg)

	tracer, shutdownTracing, err := setupTracing(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("flush traces", "error", err)
		}
	}()

	manifest, err := loadManifest(cfg)
	if err != nil {
		return err
	}
	src, err := newSource(ctx, cfg, manifest)
	if err != nil {
		return err
	}
	views := newViews(cfg, src, manifest)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r, err := newRouter(cfg, views, logger, reg, tracer)
	if err != nil {
		return err
	}

	opts := app.ShellOptions{
		Logger:      logger,
		Metrics:     middleware.NewMetrics(middleware.WithRegistry(reg)),
		MetricsPath: cfg.Metrics.Path,
		Tracer:      tracer,
	}
	if cfg.Metrics.Enabled {
		opts.Gatherer = reg
	}

	srv := &app.Server{
		Handler:         app.NewShell(r, views, opts),
		ShutdownTimeout: cfg.ShutdownTimeout.Std(),
		Logger:          logger,
	}

	out := cmd.OutOrStdout()
	success(out, "%s listening on %s", cfg.Name, cfg.URL())
	if cfg.Assets.S3.Enabled() {
		info(out, "Assets:  s3://%s/%s", cfg.Assets.S3.Bucket, cfg.Assets.S3.Prefix)
	} else {
		info(out, "Assets:  %s", cfg.AssetsPath())
	}
	if cfg.Metrics.Enabled {
		info(out, "Metrics: http://%s%s", cfg.Address(), cfg.Metrics.Path)
	}
	if tracer == nil {
		warn(out, "Tracing disabled (set tracing.endpoint to export spans)")
	}

	if err := srv.Run(ctx, cfg.Address()); err != nil {
		return errors.New(errors.CodeListen).Wrap(err)
	}
	logger.Info("server stopped")
	return nil
}
