package platform

import (
	"context"

	"github.com/thewpsquad/fieldkit/pkg/core"
	"github.com/thewpsquad/fieldkit/pkg/fields"
	"github.com/thewpsquad/fieldkit/pkg/fields/native"
	"github.com/thewpsquad/fieldkit/pkg/fields/structured"
)

// New builds a registry serving the native and structured field types.
//
//	reg, err := fieldkit.New(ctx, "./vault", fieldkit.WithPostTypes("post", "page"))
//
// The uri addresses the backing store (see Open); pass "" with WithStore to inject one.
// An empty uri without a store yields a registry whose field types are not eligible.
func New(ctx context.Context, uri string, opts ...Option) (*core.Registry, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	if o.store == nil && uri != "" {
		store, err := openStore(ctx, uri, o)
		if err != nil {
			return nil, err
		}
		o.store = store
	}

	cfg := processorConfig(o)
	baseURL, _ := o.config["attachment_base_url"].(string)

	structuredOpts := []structured.Option{structured.WithAttachmentBaseURL(baseURL)}
	for fieldType, t := range o.transformers {
		structuredOpts = append(structuredOpts, structured.WithTransformer(fieldType, t))
	}

	registry := core.NewRegistry(o.logger)
	registry.Register(core.FieldTypeNative,
		func() core.Processor { return native.NewProcessor(cfg) },
		func() core.Definition { return native.NewDefinition() },
	)
	registry.Register(core.FieldTypeStructured,
		func() core.Processor { return structured.NewProcessor(cfg, o.system, structuredOpts...) },
		func() core.Definition { return structured.NewDefinition() },
	)

	if o.logger != nil {
		o.logger.Debug("registry ready",
			"adapter", o.adapter,
			"post_types", cfg.PostTypes,
			"fetch_limit", cfg.FetchLimit,
			"structured", o.system != nil && o.system.Available(),
		)
	}
	return registry, nil
}

// processorConfig applies hooks to the rules and the fetch limit once.
func processorConfig(o *options) fields.Config {
	rules := core.DefaultFilterRuleSet()
	if o.rules != nil {
		rules = *o.rules
	}

	return fields.Config{
		Store:      o.store,
		Cache:      o.cache,
		Rules:      rules.Apply(o.hooks),
		PostTypes:  o.postTypes,
		FetchLimit: o.hooks.ResolveFetchLimit(o.fetchLimit),
		Logger:     o.logger,
		Metrics:    o.metrics,
	}.WithDefaults()
}
