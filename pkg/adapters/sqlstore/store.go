// Package sqlstore reads entity metadata from posts/postmeta tables.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/introspection"
	"github.com/jmoiron/sqlx"

	"github.com/thewpsquad/fieldkit/pkg/core"
)

// DefaultTablePrefix matches a stock installation.
const DefaultTablePrefix = "wp_"

// Config describes the database to read from.
type Config struct {
	Driver      string // registered database/sql driver, e.g. "sqlite3" or "postgres"
	DSN         string
	TablePrefix string
	Logger      *slog.Logger
}

// Store implements core.ContentStore over SQL.
type Store struct {
	db       *sqlx.DB
	posts    string
	postmeta string
	logger   *slog.Logger
}

// Open connects to the database and verifies the connection.
func Open(ctx context.Context, config Config) (*Store, error) {
	if config.Driver == "" {
		return nil, errors.New("sql driver is required")
	}
	db, err := sqlx.ConnectContext(ctx, config.Driver, config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", config.Driver, err)
	}
	return New(db, config), nil
}

// New wraps an existing connection.
func New(db *sqlx.DB, config Config) *Store {
	prefix := config.TablePrefix
	if prefix == "" {
		prefix = DefaultTablePrefix
	}
	return &Store{
		db:       db,
		posts:    prefix + "posts",
		postmeta: prefix + "postmeta",
		logger:   config.Logger,
	}
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

type metaRow struct {
	Key   string         `db:"meta_key"`
	Value sql.NullString `db:"meta_value"`
}

// Values returns every metadata key of id with all of its values in insertion order.
func (s *Store) Values(ctx context.Context, id core.EntityID) (map[string][]any, error) {
	query := s.db.Rebind(fmt.Sprintf(
		"SELECT meta_key, meta_value FROM %s WHERE post_id = ? ORDER BY meta_id", s.postmeta))

	var rows []metaRow
	if err := s.db.SelectContext(ctx, &rows, query, int64(id)); err != nil {
		return nil, fmt.Errorf("failed to read metadata of %d: %w", id, err)
	}

	out := make(map[string][]any)
	for _, row := range rows {
		out[row.Key] = append(out[row.Key], nullable(row.Value))
	}
	return out, nil
}

// Value returns the first value of key on id.
func (s *Store) Value(ctx context.Context, id core.EntityID, key string) (any, bool, error) {
	query := s.db.Rebind(fmt.Sprintf(
		"SELECT meta_value FROM %s WHERE post_id = ? AND meta_key = ? ORDER BY meta_id LIMIT 1", s.postmeta))

	var value sql.NullString
	err := s.db.GetContext(ctx, &value, query, int64(id), key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s of %d: %w", key, id, err)
	}
	return nullable(value), true, nil
}

// Exists reports whether id has at least one value for key.
func (s *Store) Exists(ctx context.Context, id core.EntityID, key string) (bool, error) {
	query := s.db.Rebind(fmt.Sprintf(
		"SELECT COUNT(*) FROM %s WHERE post_id = ? AND meta_key = ?", s.postmeta))

	var n int
	if err := s.db.GetContext(ctx, &n, query, int64(id), key); err != nil {
		return false, fmt.Errorf("failed to check %s of %d: %w", key, id, err)
	}
	return n > 0, nil
}

// Discover returns up to limit distinct keys used by entities of postType.
func (s *Store) Discover(ctx context.Context, postType string, limit int) ([]string, error) {
	query := s.db.Rebind(fmt.Sprintf(
		"SELECT DISTINCT pm.meta_key FROM %s pm INNER JOIN %s p ON p.ID = pm.post_id "+
			"WHERE p.post_type = ? ORDER BY pm.meta_key LIMIT ?", s.postmeta, s.posts))

	keys := []string{}
	if err := s.db.SelectContext(ctx, &keys, query, postType, limit); err != nil {
		return nil, fmt.Errorf("failed to discover keys of %s: %w", postType, err)
	}
	if s.logger != nil {
		s.logger.Debug("keys discovered", "post_type", postType, "count", len(keys))
	}
	return keys, nil
}

// PostType returns the post type of id, or "" when the entity does not exist.
func (s *Store) PostType(ctx context.Context, id core.EntityID) (string, error) {
	query := s.db.Rebind(fmt.Sprintf("SELECT post_type FROM %s WHERE ID = ?", s.posts))

	var postType string
	err := s.db.GetContext(ctx, &postType, query, int64(id))
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read post type of %d: %w", id, err)
	}
	return postType, nil
}

func nullable(v sql.NullString) any {
	if !v.Valid {
		return nil
	}
	return v.String
}

// StoreState exposes the store configuration for observability.
type StoreState struct {
	Driver   string `json:"driver"`
	Posts    string `json:"posts_table"`
	PostMeta string `json:"postmeta_table"`
	Open     int    `json:"open_connections"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	return StoreState{
		Driver:   s.db.DriverName(),
		Posts:    s.posts,
		PostMeta: s.postmeta,
		Open:     s.db.Stats().OpenConnections,
	}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "sql_store"
}

var (
	_ core.ContentStore            = (*Store)(nil)
	_ introspection.Introspectable = (*Store)(nil)
	_ introspection.Component      = (*Store)(nil)
)
