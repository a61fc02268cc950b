// Package config loads fieldkit settings from fieldkit.yaml and FIELDKIT_* environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/viper"

	"github.com/thewpsquad/fieldkit/pkg/cache"
	"github.com/thewpsquad/fieldkit/pkg/core"
)

// EnvPrefix namespaces environment overrides, e.g. FIELDKIT_STORE_PATH.
const EnvPrefix = "FIELDKIT"

// Cache backends.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheFile   = "file"
	CacheRedis  = "redis"
)

// Config represents the fieldkit configuration.
type Config struct {
	PostTypes   []string          `mapstructure:"post_types"`
	FetchLimit  int               `mapstructure:"fetch_limit"`
	Rules       RulesConfig       `mapstructure:"rules"`
	Store       StoreConfig       `mapstructure:"store"`
	Structured  StructuredConfig  `mapstructure:"structured"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Attachments AttachmentsConfig `mapstructure:"attachments"`
}

// RulesConfig extends the default filter rules.
type RulesConfig struct {
	Blacklist []string            `mapstructure:"blacklist"`
	Prefixes  map[string][]string `mapstructure:"prefixes"`
	Suffixes  []string            `mapstructure:"suffixes"`
}

// StoreConfig selects the backing store.
type StoreConfig struct {
	Adapter         string `mapstructure:"adapter"`
	Path            string `mapstructure:"path"`
	SystemDir       string `mapstructure:"system_dir"`
	DefaultPostType string `mapstructure:"default_post_type"`
	Driver          string `mapstructure:"driver"`
	DSN             string `mapstructure:"dsn"`
	TablePrefix     string `mapstructure:"table_prefix"`
}

// StructuredConfig points at the field group schema.
type StructuredConfig struct {
	Path string `mapstructure:"path"`
}

// CacheConfig selects the persistent cache backend.
type CacheConfig struct {
	Backend       string `mapstructure:"backend"`
	Path          string `mapstructure:"path"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	Prefix        string `mapstructure:"prefix"`
}

// AttachmentsConfig configures rendered image fields.
type AttachmentsConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// Load reads the configuration. An explicit file must exist; without one,
// fieldkit.yaml is looked up in dir and its absence means defaults.
func Load(dir, file string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("fieldkit")
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Store.Path == "" && cfg.Store.Adapter == "fs" {
		cfg.Store.Path = dir
	}
	if cfg.Structured.Path == "" && cfg.Store.Adapter == "fs" {
		cfg.Structured.Path = filepath.Join(cfg.Store.Path, cfg.Store.SystemDir, "fields.yaml")
	}
	if cfg.Cache.Path == "" {
		cfg.Cache.Path = filepath.Join(cfg.Store.Path, cfg.Store.SystemDir, "cache.json")
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("post_types", []string{"post", "page"})
	v.SetDefault("fetch_limit", 0)
	v.SetDefault("store.adapter", "fs")
	v.SetDefault("store.system_dir", ".fieldkit")
	v.SetDefault("store.default_post_type", "post")
	v.SetDefault("store.table_prefix", "wp_")
	v.SetDefault("cache.backend", CacheMemory)
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.prefix", "fieldkit:")
}

func validate(cfg *Config) error {
	switch cfg.Store.Adapter {
	case "fs":
	case "sql":
		if cfg.Store.Driver == "" {
			return fmt.Errorf("store.driver is required for the sql adapter")
		}
		if cfg.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required for the sql adapter")
		}
	default:
		return fmt.Errorf("store.adapter must be fs or sql, got: %s", cfg.Store.Adapter)
	}

	if !slices.Contains([]string{CacheNone, CacheMemory, CacheFile, CacheRedis}, cfg.Cache.Backend) {
		return fmt.Errorf("cache.backend must be one of none, memory, file, redis, got: %s", cfg.Cache.Backend)
	}
	if cfg.FetchLimit < 0 {
		return fmt.Errorf("fetch_limit must not be negative, got: %d", cfg.FetchLimit)
	}
	return nil
}

// URI returns the address of the backing store for its adapter.
func (c *Config) URI() string {
	if c.Store.Adapter == "sql" {
		return c.Store.DSN
	}
	return c.Store.Path
}

// FilterRules returns the default rules extended with the configured keys.
func (c *Config) FilterRules() core.FilterRuleSet {
	return core.DefaultFilterRuleSet().Extend(c.Rules.Blacklist, c.Rules.Prefixes, c.Rules.Suffixes)
}

// OpenCache builds the configured cache backend. The returned close function is never nil.
func (c *Config) OpenCache(ctx context.Context) (cache.Store, func() error, error) {
	noop := func() error { return nil }

	switch c.Cache.Backend {
	case CacheNone:
		return cache.NopStore{}, noop, nil
	case CacheMemory:
		return cache.NewMemoryStore(), noop, nil
	case CacheFile:
		store, err := cache.NewFileStore(c.Cache.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case CacheRedis:
		store, err := cache.NewRedisStore(ctx, cache.RedisConfig{
			Addr:     c.Cache.RedisAddr,
			Password: c.Cache.RedisPassword,
			DB:       c.Cache.RedisDB,
			Prefix:   c.Cache.Prefix,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend: %s", c.Cache.Backend)
	}
}
