package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feasly/feasibility-engine/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "feasly.db", cfg.DBPath)
	assert.Equal(t, "memory", cfg.CacheBackend)
	assert.Equal(t, time.Hour, cfg.CacheTTL)
	assert.Equal(t, 2, cfg.RecalcWorkers)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("FEASLY_PORT", "9090")
	t.Setenv("FEASLY_CACHE_BACKEND", "REDIS")
	t.Setenv("FEASLY_CACHE_TTL", "15m")
	t.Setenv("FEASLY_ALLOWED_ORIGINS", "http://localhost:5173, https://feasly.example")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "redis", cfg.CacheBackend)
	assert.Equal(t, 15*time.Minute, cfg.CacheTTL)
	assert.Equal(t, []string{"http://localhost:5173", "https://feasly.example"}, cfg.AllowedOrigins)
}

func TestLoad_DotEnvFile(t *testing.T) {
	// GIVEN: a .env file setting the worker count
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("FEASLY_RECALC_WORKERS=5\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("FEASLY_RECALC_WORKERS") })

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.RecalcWorkers)
}

func TestLoad_MissingDotEnvIgnored(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}

func TestLoad_RejectsBadValues(t *testing.T) {
	t.Setenv("FEASLY_CACHE_BACKEND", "memcached")
	_, err := config.Load("")
	assert.Error(t, err)

	t.Setenv("FEASLY_CACHE_BACKEND", "none")
	t.Setenv("FEASLY_RECALC_WORKERS", "0")
	_, err = config.Load("")
	assert.Error(t, err)
}
