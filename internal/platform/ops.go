package platform

import (
	"context"
	"fmt"

	"github.com/thewpsquad/fieldkit/pkg/adapters/fs"
	"github.com/thewpsquad/fieldkit/pkg/adapters/sqlstore"
	"github.com/thewpsquad/fieldkit/pkg/core"
)

// Open opens the backing store addressed by uri.
// The uri is adapter-specific: a vault path for "fs", a DSN for "sql".
func Open(ctx context.Context, uri string, opts ...Option) (core.ContentStore, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return openStore(ctx, uri, o)
}

func openStore(ctx context.Context, uri string, o *options) (core.ContentStore, error) {
	if o.store != nil {
		return o.store, nil
	}

	switch o.adapter {
	case "fs":
		return openFS(ctx, uri, o)
	case "sql":
		driver, _ := o.config["driver"].(string)
		prefix, _ := o.config["table_prefix"].(string)
		store, err := sqlstore.Open(ctx, sqlstore.Config{
			Driver:      driver,
			DSN:         uri,
			TablePrefix: prefix,
			Logger:      o.logger,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown adapter: %s", o.adapter)
	}
}

// openFS handles the initialization logic for the filesystem adapter.
func openFS(ctx context.Context, path string, o *options) (*fs.Repository, error) {
	systemDir, _ := o.config["system_dir"].(string)
	defaultPostType, _ := o.config["default_post_type"].(string)
	errorHandler, _ := o.config["watcher_error_handler"].(func(error))

	repo := fs.NewRepository(fs.Config{
		Path:            path,
		SystemDir:       systemDir,
		DefaultPostType: defaultPostType,
		Logger:          o.logger,
		ErrorHandler:    errorHandler,
	})
	if err := repo.Initialize(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}
