// Package fieldkit is the composition root of the custom fields library.
//
// It discovers the custom fields stored next to content entities, filters out
// bookkeeping keys, reads per-entity values through a persistent cache and
// shapes both into schemas for page-builder controls.
//
// Two field types are served:
//
//   - **native**: free-form key/value metadata of an entity.
//   - **structured**: typed fields declared in field groups attached to post types.
//
// Backing stores:
//
//   - **fs**: a directory of Markdown, JSON, YAML and CSV documents (default).
//   - **sql**: posts/postmeta tables through database/sql.
//
// Usage:
//
//	reg, err := fieldkit.New(ctx, "./vault",
//		fieldkit.WithCache(cache.NewMemoryStore()),
//		fieldkit.WithLogger(logger),
//	)
//
//	fields, err := reg.Fields(ctx, fieldkit.Native, 42)
//	schema, err := reg.Definitions(ctx, fieldkit.Native)
package fieldkit
