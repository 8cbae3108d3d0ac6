package main

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/facilityfinder/internal/app"
	"github.com/vango-dev/facilityfinder/internal/config"
	"github.com/vango-dev/facilityfinder/internal/errors"
	"github.com/vango-dev/facilityfinder/pkg/assets"
	"github.com/vango-dev/facilityfinder/pkg/router"
)

// loadConfig reads finder.json from dir, or searches from the working
// directory when dir is empty.
func loadConfig(dir string) (*config.Config, error) {
	if dir == "" {
		return config.LoadFromWorkingDir()
	}
	return config.Load(dir)
}

func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	level, _ := cfg.SlogLevel()
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadManifest returns the configured asset manifest, or nil when none is
// configured.
func loadManifest(cfg *config.Config) (*assets.Manifest, error) {
	path := cfg.ManifestPath()
	if path == "" {
		return nil, nil
	}
	m, err := assets.Load(path)
	if err != nil {
		return nil, errors.New(errors.CodeAssetSource).Wrap(err).
			WithDetail("Could not read asset manifest " + path)
	}
	return m, nil
}

// newSource returns the asset source lazy views fetch their templates from.
func newSource(ctx context.Context, cfg *config.Config, m *assets.Manifest) (assets.Source, error) {
	var src assets.Source
	if s3cfg := cfg.Assets.S3; s3cfg.Enabled() {
		client, err := newS3Client(ctx, s3cfg)
		if err != nil {
			return nil, errors.New(errors.CodeAssetSource).Wrap(err).
				WithDetail("Could not configure S3 bucket " + s3cfg.Bucket)
		}
		src = assets.NewS3Source(client, s3cfg.Bucket, s3cfg.Prefix)
	} else {
		dir := cfg.AssetsPath()
		if _, err := os.Stat(dir); err != nil {
			return nil, errors.New(errors.CodeAssetSource).Wrap(err).
				WithDetail("Asset directory " + dir + " is not readable")
		}
		src = assets.NewDirSource(dir)
	}
	return assets.WithManifest(src, m), nil
}

func newS3Client(ctx context.Context, s3cfg config.S3Config) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(s3cfg.Region))
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if s3cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(s3cfg.Endpoint)
		}
		o.UsePathStyle = s3cfg.PathStyle
	}), nil
}

// newViews builds the page views for cfg.
func newViews(cfg *config.Config, src assets.Source, m *assets.Manifest) *app.Views {
	v := &app.Views{
		Name:   cfg.Name,
		Base:   cfg.Base,
		Source: src,
	}
	if m != nil {
		v.Static = assets.NewResolver(m, cfg.Base+"/static/")
	}
	return v
}

// newRouter builds the finder router. A nil registry disables router
// metrics.
func newRouter(cfg *config.Config, v *app.Views, logger *slog.Logger, reg prometheus.Registerer, tracer trace.Tracer) (*router.Router, error) {
	opts := []router.Option{
		router.WithCaseSensitive(cfg.CaseSensitive),
		router.WithLoadTimeout(cfg.LoadTimeout.Std()),
		router.WithLogger(logger.With("component", "router")),
	}
	if reg != nil {
		opts = append(opts, router.WithMetrics(router.NewMetrics(router.WithRegistry(reg))))
	}
	if tracer != nil {
		opts = append(opts, router.WithTracer(tracer))
	}
	return app.NewRouter(v, opts...)
}
