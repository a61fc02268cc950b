package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/thewpsquad/fieldkit"
	"github.com/thewpsquad/fieldkit/internal/config"
	"github.com/thewpsquad/fieldkit/internal/platform"
	"github.com/thewpsquad/fieldkit/pkg/adapters/schema"
	"github.com/thewpsquad/fieldkit/pkg/core"
	"github.com/thewpsquad/fieldkit/pkg/metrics"
)

// app bundles what a command needs to serve one request.
type app struct {
	cfg      *config.Config
	store    core.ContentStore
	registry *core.Registry
	closers  []func() error
}

// projectDir resolves --dir, falling back to the nearest project root and then the working directory.
func projectDir() (string, error) {
	if workDir != "" {
		return workDir, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	if root, err := platform.FindRoot(wd); err == nil {
		return root, nil
	}
	return wd, nil
}

// newApp loads the configuration and composes the registry.
func newApp(ctx context.Context, m *metrics.Collector) (*app, error) {
	dir, err := projectDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project directory: %w", err)
	}

	cfg, err := config.Load(dir, configFile)
	if err != nil {
		return nil, err
	}

	logger := slog.Default()
	a := &app{cfg: cfg}

	store, err := fieldkit.Open(ctx, cfg.URI(),
		fieldkit.WithAdapter(cfg.Store.Adapter),
		fieldkit.WithDriver(cfg.Store.Driver),
		fieldkit.WithTablePrefix(cfg.Store.TablePrefix),
		fieldkit.WithSystemDir(cfg.Store.SystemDir),
		fieldkit.WithDefaultPostType(cfg.Store.DefaultPostType),
		fieldkit.WithLogger(logger),
		fieldkit.WithWatcherErrorHandler(func(err error) {
			logger.Error("watcher error", "error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	a.store = store
	if closer, ok := store.(io.Closer); ok {
		a.closers = append(a.closers, closer.Close)
	}

	c, closeCache, err := cfg.OpenCache(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.closers = append(a.closers, closeCache)

	opts := []fieldkit.Option{
		fieldkit.WithStore(store),
		fieldkit.WithCache(c),
		fieldkit.WithRules(cfg.FilterRules()),
		fieldkit.WithPostTypes(cfg.PostTypes...),
		fieldkit.WithFetchLimit(cfg.FetchLimit),
		fieldkit.WithAttachmentBaseURL(cfg.Attachments.BaseURL),
		fieldkit.WithMetrics(m),
		fieldkit.WithLogger(logger),
	}

	if cfg.Structured.Path != "" {
		system, err := schema.Open(cfg.Structured.Path)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("failed to load field schema: %w", err)
		}
		opts = append(opts, fieldkit.WithStructuredSystem(system))
	}

	registry, err := fieldkit.New(ctx, "", opts...)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.registry = registry
	return a, nil
}

// Close flushes the cache backend and releases the store.
func (a *app) Close() error {
	var firstErr error
	for _, fn := range a.closers {
		if err := fn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func parseFieldType(arg string) (core.FieldTypeKey, error) {
	ft := core.FieldTypeKey(arg)
	switch ft {
	case core.FieldTypeNative, core.FieldTypeStructured:
		return ft, nil
	default:
		return "", fmt.Errorf("unknown field type %q (want native or structured)", arg)
	}
}

func parseEntityID(arg string) (core.EntityID, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid entity id %q: %w", arg, err)
	}
	return core.EntityID(id), nil
}
