package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(New())
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.ListenAddr)
	require.True(t, cfg.RateEnabled)
	require.Equal(t, 2*time.Second, cfg.RateCooldown)
	require.Equal(t, StoreMemory, cfg.RateStore)
	require.Equal(t, 100_000, cfg.RateMaxEntries)
	require.Equal(t, time.Minute, cfg.RateIdleTTL)
	require.Equal(t, 100, cfg.ConcurrencyMax)
	require.Equal(t, "secretword", cfg.RedisPrefix)
	require.Equal(t, BucketMinute, cfg.StatsBucket)
	require.Equal(t, 10_000, cfg.StatsMaxKeys)
	require.Equal(t, time.UTC, cfg.Location)
	require.False(t, cfg.NeedsRedis())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9090")
	t.Setenv("RATE_COOLDOWN", "5s")
	t.Setenv("RATE_STORE", "Redis")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_PREFIX", "sw:")
	t.Setenv("TRUST_XFF", "true")
	t.Setenv("CONCURRENCY_MAX", "0")

	cfg, err := Load(New())
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.ListenAddr)
	require.Equal(t, 5*time.Second, cfg.RateCooldown)
	require.Equal(t, StoreRedis, cfg.RateStore)
	require.Equal(t, "sw", cfg.RedisPrefix)
	require.True(t, cfg.TrustXFF)
	require.Equal(t, 0, cfg.ConcurrencyMax)
	require.True(t, cfg.NeedsRedis())
}

func TestLoad_RedisRequiresAddr(t *testing.T) {
	t.Setenv("RATE_STATS_ENABLED", "true")
	t.Setenv("RATE_STATS_BACKEND", "redis")

	_, err := Load(New())
	require.ErrorContains(t, err, "REDIS_ADDR is required")
}

func TestLoad_RedisNotNeededWhenRateDisabled(t *testing.T) {
	t.Setenv("RATE_ENABLED", "false")
	t.Setenv("RATE_STORE", "redis")

	cfg, err := Load(New())
	require.NoError(t, err)
	require.False(t, cfg.NeedsRedis())
}

func TestLoad_Validation(t *testing.T) {
	cases := map[string]map[string]string{
		"cooldown":    {"RATE_COOLDOWN": "0s"},
		"sub-second":  {"RATE_COOLDOWN": "500ms"},
		"cleanup":     {"RATE_CLEANUP_EVERY": "30"},
		"stats ttl":   {"RATE_STATS_TTL": "10ms"},
		"bucket":      {"RATE_STATS_BUCKET": "hour"},
		"max keys":    {"RATE_STATS_MAX_KEYS": "0"},
		"max entries": {"RATE_MAX_ENTRIES": "-1"},
		"store":       {"RATE_STORE": "file"},
		"stats":       {"RATE_STATS_BACKEND": "postgres"},
		"concurrency": {"CONCURRENCY_MAX": "-5"},
		"timezone":    {"TIMEZONE": "Mars/Olympus_Mons"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load(New())
			require.Error(t, err)
		})
	}
}

func TestLoad_CooldownWithoutUnitIsRejected(t *testing.T) {
	t.Setenv("RATE_COOLDOWN", "2")

	_, err := Load(New())
	require.ErrorContains(t, err, "RATE_COOLDOWN must be at least 1s")
}

func TestLoad_StatsOptions(t *testing.T) {
	t.Setenv("RATE_STATS_BUCKET", "None")
	t.Setenv("RATE_STATS_MAX_KEYS", "50")
	t.Setenv("RATE_CLEANUP_EVERY", "0s")

	cfg, err := Load(New())
	require.NoError(t, err)
	require.Equal(t, BucketNone, cfg.StatsBucket)
	require.Equal(t, 50, cfg.StatsMaxKeys)
	require.Zero(t, cfg.RateCleanupEvery)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("SECRETWORD_TEST_VALUE=from-file\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("SECRETWORD_TEST_VALUE") })

	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "missing.env")))
	require.Equal(t, "from-file", os.Getenv("SECRETWORD_TEST_VALUE"))
}
