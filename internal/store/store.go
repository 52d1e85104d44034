// Package store opens the payload sinks named in configuration.
package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hfsrb/hfsrb/internal/config"
	"github.com/hfsrb/hfsrb/internal/db"
	"github.com/hfsrb/hfsrb/internal/files/filesystem"
	"github.com/hfsrb/hfsrb/internal/store/file"
	"github.com/hfsrb/hfsrb/internal/store/postgres"
	"github.com/hfsrb/hfsrb/internal/store/s3"
	"github.com/hfsrb/hfsrb/internal/store/sqlite"
	"github.com/hfsrb/hfsrb/pkg/hfsrb"
)

// SinkError reports a payload a sink could not persist.
type SinkError struct {
	Sink string
	Path string
	Err  error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("%s sink: %s: %v", e.Sink, e.Path, e.Err)
}

// Unwrap exposes both ErrSinkFailed and the underlying cause.
func (e *SinkError) Unwrap() []error {
	return []error{hfsrb.ErrSinkFailed, e.Err}
}

// Options carry what sinks need beyond configuration.
type Options struct {
	// Root resolves relative sqlite paths.
	Root   string
	FS     filesystem.FileSystemProvider
	Logger hfsrb.Logger
}

// Open returns one sink per enabled name, in order. On error every sink
// opened so far is closed.
func Open(ctx context.Context, cfg config.SinksConfig, opts Options) ([]hfsrb.PayloadSink, error) {
	var sinks []hfsrb.PayloadSink
	fail := func(err error) ([]hfsrb.PayloadSink, error) {
		_ = CloseAll(sinks)
		return nil, err
	}

	for _, name := range cfg.Enabled {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case config.SinkFile:
			sinks = append(sinks, file.New(opts.FS, cfg.File.FileName))

		case config.SinkSQLite:
			path := cfg.SQLite.Path
			if !filepath.IsAbs(path) {
				path = filepath.Join(opts.Root, path)
			}
			s, err := sqlite.Open(ctx, path, cfg.SQLite.Table)
			if err != nil {
				return fail(err)
			}
			sinks = append(sinks, s)

		case config.SinkPostgres:
			pg := cfg.Postgres
			connector, err := db.NewConnector(db.Options{
				URL:               pg.URL,
				AuthMethod:        pg.AuthMethod,
				AWSRegion:         pg.AWSRegion,
				AzureTenantID:     pg.AzureTenantID,
				AzureClientID:     pg.AzureClientID,
				AzureClientSecret: pg.AzureClientSecret,
				CloudSQLInstance:  pg.CloudSQLInstance,
				MaxConns:          pg.MaxConns,
				MaxAttempts:       pg.MaxAttempts,
			}, opts.Logger)
			if err != nil {
				return fail(err)
			}
			pool, err := connector.Connect(ctx)
			if err != nil {
				_ = connector.Close()
				return fail(err)
			}
			owned := &connectedPool{Pool: pool, connector: connector}
			s, err := postgres.New(owned, pg.Table, pg.MaxAttempts)
			if err != nil {
				owned.Close()
				return fail(err)
			}
			if err := s.EnsureSchema(ctx); err != nil {
				_ = s.Close()
				return fail(err)
			}
			sinks = append(sinks, s)

		case config.SinkS3:
			s, err := s3.New(ctx, s3.Config{
				Bucket:    cfg.S3.Bucket,
				Prefix:    cfg.S3.Prefix,
				Region:    cfg.S3.Region,
				Endpoint:  cfg.S3.Endpoint,
				PathStyle: cfg.S3.PathStyle,
			})
			if err != nil {
				return fail(err)
			}
			sinks = append(sinks, s)

		default:
			return fail(fmt.Errorf("%w: unknown sink %q", hfsrb.ErrInvalidConfig, name))
		}
		opts.Logger.Verbose("opened %s sink", name)
	}
	return sinks, nil
}

// connectedPool closes its connector after the pool.
type connectedPool struct {
	*pgxpool.Pool
	connector *db.PoolConnector
}

func (p *connectedPool) Close() {
	p.Pool.Close()
	_ = p.connector.Close()
}

// CloseAll closes every sink and joins their errors.
func CloseAll(sinks []hfsrb.PayloadSink) error {
	var errs []error
	for _, s := range sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s sink: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}
