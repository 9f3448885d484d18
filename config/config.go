/*
Package config loads runtime settings for the feasibility service.

SOURCES (lowest to highest precedence):
  1. Defaults below
  2. A .env file, when present (loaded into the process environment)
  3. Environment variables prefixed FEASLY_ (FEASLY_PORT, FEASLY_DB_PATH, ...)
  4. Command-line flags, applied by cmd/server on top of Load's result

KEYS:
  port             HTTP port (8080)
  db_path          SQLite path, ":memory:" for an ephemeral store (feasly.db)
  cache_backend    memory | redis | none (memory)
  redis_addr       host:port of the Redis server (localhost:6379)
  cache_ttl        result TTL, Go duration syntax (1h)
  recalc_workers   background recalculation workers (2)
  allowed_origins  comma-separated CORS origins (*)
*/
package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable the service reads.
const EnvPrefix = "FEASLY"

// Config is the resolved service configuration.
type Config struct {
	Port           int
	DBPath         string
	CacheBackend   string
	RedisAddr      string
	CacheTTL       time.Duration
	RecalcWorkers  int
	AllowedOrigins []string
}

// Load resolves the configuration. envFile may be empty; a missing file is
// ignored, an unreadable one is an error.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return nil, errors.Wrapf(err, "config: load %s", envFile)
			}
		} else if !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "config: stat %s", envFile)
		}
	}

	v := viper.New()
	v.SetTypeByDefaultValue(true)
	v.SetDefault("port", 8080)
	v.SetDefault("db_path", "feasly.db")
	v.SetDefault("cache_backend", "memory")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("cache_ttl", time.Hour)
	v.SetDefault("recalc_workers", 2)
	v.SetDefault("allowed_origins", "*")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	cfg := &Config{
		Port:           v.GetInt("port"),
		DBPath:         v.GetString("db_path"),
		CacheBackend:   strings.ToLower(v.GetString("cache_backend")),
		RedisAddr:      v.GetString("redis_addr"),
		CacheTTL:       v.GetDuration("cache_ttl"),
		RecalcWorkers:  v.GetInt("recalc_workers"),
		AllowedOrigins: splitList(v.GetString("allowed_origins")),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return errors.Errorf("config: port %d out of range", c.Port)
	}
	switch c.CacheBackend {
	case "memory", "redis", "none":
	default:
		return errors.Errorf("config: unknown cache_backend %q", c.CacheBackend)
	}
	if c.RecalcWorkers < 1 {
		return errors.Errorf("config: recalc_workers must be at least 1, got %d", c.RecalcWorkers)
	}
	if c.CacheTTL < 0 {
		return errors.Errorf("config: negative cache_ttl %s", c.CacheTTL)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
