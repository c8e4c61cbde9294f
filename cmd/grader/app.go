package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/zoobzio/capitan"
	"github.com/zoobzio/grader"
	"github.com/zoobzio/grader/internal/config"
	"github.com/zoobzio/grader/minio"
	"github.com/zoobzio/grader/s3"
	"github.com/zoobzio/grader/sqlite"
)

type rootFlags struct {
	configPath string
	dbPath     string
	logLevel   string
}

// app holds state shared by every command for a single invocation.
type app struct {
	flags  rootFlags
	cfg    *config.Config
	logger *slog.Logger

	stdout io.Writer
	stderr io.Writer
	getenv func(string) string

	closers []func()
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.flags.configPath, a.getenv)
	if err != nil {
		return err
	}
	if a.flags.dbPath != "" {
		cfg.Database.Path = a.flags.dbPath
	}
	if a.flags.logLevel != "" {
		cfg.Log.Level = a.flags.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return exitError(exitValidation, "%v", err)
	}
	a.cfg = cfg
	a.logger = newLogger(a.stderr, cfg.LogLevel()).With("command", cmd.Name())
	a.watch()
	return nil
}

// newLogger builds the JSON logger used for diagnostics on stderr.
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{
					Key:   "timestamp",
					Value: slog.StringValue(a.Value.Time().Format(time.RFC3339)),
				}
			}
			return a
		},
	})
	return slog.New(handler)
}

// watch logs library lifecycle signals until the app is closed.
func (a *app) watch() {
	hook := func(sig capitan.Signal, level slog.Level, msg string) {
		l := capitan.Hook(sig, func(ctx context.Context, e *capitan.Event) {
			fields := e.Fields()
			attrs := []any{
				"key", grader.FieldKey.ExtractFromFields(fields),
				"duration_ms", grader.FieldDuration.ExtractFromFields(fields).Milliseconds(),
			}
			if g := grader.FieldGroupID.ExtractFromFields(fields); g != "" {
				attrs = append(attrs, "group_id", g)
			}
			if err := grader.FieldError.ExtractFromFields(fields); err != nil {
				attrs = append(attrs, "error", err.Error())
			}
			a.logger.Log(ctx, level, msg, attrs...)
		})
		a.closers = append(a.closers, func() {
			_ = l.Drain(context.Background())
			l.Close()
		})
	}
	hook(grader.ResolveFailed, slog.LevelError, "resolve failed")
	hook(grader.FilterFailed, slog.LevelError, "filter failed")
	hook(grader.FetchFailed, slog.LevelError, "fetch failed")
	hook(grader.FetchMissing, slog.LevelDebug, "supplemental file missing")
	hook(grader.ResolveCompleted, slog.LevelDebug, "vehicle resolved")
	hook(grader.FilterCompleted, slog.LevelDebug, "filter completed")
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// catalog opens the read-only vehicle database.
func (a *app) catalog(ctx context.Context) (*grader.Catalog, error) {
	db, err := sqlite.Open(ctx, a.cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { _ = db.Close() })
	return grader.NewCatalog(db, grader.WithTable(a.cfg.Database.Table))
}

// supplements connects to the configured object store.
func (a *app) supplements(ctx context.Context) (*grader.Supplements, error) {
	if err := a.cfg.ValidateBlob(); err != nil {
		return nil, exitError(exitValidation, "%v", err)
	}
	b := a.cfg.Blob

	var provider grader.BucketProvider
	switch b.Provider {
	case config.ProviderMinIO:
		client, err := minio.NewClient(minio.Config{
			Endpoint:        b.Endpoint,
			AccessKeyID:     b.AccessKeyID,
			SecretAccessKey: b.SecretAccessKey,
			Region:          b.Region,
			Secure:          b.Secure,
		})
		if err != nil {
			return nil, fmt.Errorf("minio: %w", err)
		}
		provider = minio.New(client, b.Bucket)
	default:
		client, err := s3.NewR2Client(ctx, s3.R2Config{
			Endpoint:        b.Endpoint,
			AccessKeyID:     b.AccessKeyID,
			SecretAccessKey: b.SecretAccessKey,
			MaxAttempts:     b.MaxAttempts,
			DialTimeout:     b.DialTimeout,
			Timeout:         b.Timeout,
		})
		if err != nil {
			return nil, err
		}
		provider = s3.New(client, b.Bucket)
	}

	return grader.NewSupplements(provider,
		grader.WithResourcePrefix(a.cfg.Supplements.ResourcePrefix),
		grader.WithFetchConcurrency(a.cfg.Supplements.FetchConcurrency),
	), nil
}

// print writes v to stdout as indented JSON.
func (a *app) print(v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
