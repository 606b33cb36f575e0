package cli

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/untangle/pkg/cache"
	"github.com/matzehuels/untangle/pkg/errors"
)

// Cache backends selectable in the config file.
const (
	cacheBackendNone  = "none"
	cacheBackendFile  = "file"
	cacheBackendRedis = "redis"
)

// Config is the optional TOML configuration, read from --config or
// ~/.config/untangle/config.toml:
//
//	max_cycles = 5000
//	passes = 2
//	priority = ["field", "setter", "constructor", "factory_method"]
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//	ttl = "12h"
type Config struct {
	MaxCycles int      `toml:"max_cycles"`
	Passes    int      `toml:"passes"`
	Priority  []string `toml:"priority"`

	Cache CacheConfig `toml:"cache"`
}

// CacheConfig selects and configures the report cache backend.
type CacheConfig struct {
	Backend   string `toml:"backend"`
	Dir       string `toml:"dir"`
	RedisAddr string `toml:"redis_addr"`
	RedisDB   int    `toml:"redis_db"`
	TTL       string `toml:"ttl"`
}

// loadConfig reads the config file if one exists. A missing default config
// file is not an error; a missing explicit --config path is.
func (c *CLI) loadConfig() (*Config, error) {
	cfg := &Config{
		Cache: CacheConfig{Backend: cacheBackendFile},
	}

	path := c.ConfigPath
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath()
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read config %s", path)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config %s", path)
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = cacheBackendFile
	}
	return cfg, nil
}

// defaultConfigPath returns ~/.config/untangle/config.toml, honoring
// XDG_CONFIG_HOME.
func defaultConfigPath() string {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName, "config.toml")
}

// newCache builds the cache backend the config selects. Backend errors fall
// back to no caching rather than failing the run, except for an explicitly
// configured redis backend that cannot be reached.
func newCache(ctx context.Context, cfg CacheConfig) (cache.Cache, error) {
	switch cfg.Backend {
	case cacheBackendNone:
		return cache.NewNullCache(), nil

	case cacheBackendRedis:
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr: cfg.RedisAddr,
			DB:   cfg.RedisDB,
		})

	case cacheBackendFile, "":
		dir := cfg.Dir
		if dir == "" {
			var err error
			dir, err = cacheDir()
			if err != nil {
				return cache.NewNullCache(), nil
			}
		}
		return cache.NewFileCache(dir)

	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown cache backend %q", cfg.Backend)
	}
}

// reportTTL parses the configured cache TTL, defaulting to the package
// default when unset or unparseable.
func (c CacheConfig) reportTTL() time.Duration {
	if c.TTL == "" {
		return cache.DefaultReportTTL
	}
	d, err := time.ParseDuration(c.TTL)
	if err != nil || d <= 0 {
		return cache.DefaultReportTTL
	}
	return d
}
