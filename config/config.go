// Package config lê a configuração do ambiente (.env opcional + variáveis),
// no mesmo formato de chaves MAIÚSCULAS usado pelos binários.
package config

import (
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"

	BucketMinute = "minute"
	BucketNone   = "none"
)

type Config struct {
	ListenAddr string

	RateEnabled      bool
	RateCooldown     time.Duration
	RateStore        string
	RateMaxEntries   int
	RateIdleTTL      time.Duration
	RateCleanupEvery time.Duration
	RateKeyHeader    string
	TrustXFF         bool
	AddHeaders       bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	StatsEnabled   bool
	StatsBackend   string
	StatsTTL       time.Duration
	StatsBucket    string
	StatsTrackKeys bool
	StatsMaxKeys   int

	ConcurrencyMax     int
	ConcurrencyTimeout time.Duration

	Timezone string
	Location *time.Location

	LogLevel  string
	LogFormat string
}

// New cria um viper com os padrões e leitura automática do ambiente.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("LISTEN_ADDR", ":8080")
	v.SetDefault("RATE_ENABLED", true)
	v.SetDefault("RATE_COOLDOWN", "2s")
	v.SetDefault("RATE_STORE", StoreMemory)
	v.SetDefault("RATE_MAX_ENTRIES", 100_000)
	v.SetDefault("RATE_IDLE_TTL", "1m")
	v.SetDefault("RATE_CLEANUP_EVERY", "30s")
	v.SetDefault("RATE_KEY_HEADER", "")
	v.SetDefault("TRUST_XFF", false)
	v.SetDefault("ADD_RATELIMIT_HEADERS", false)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_PREFIX", "secretword")
	v.SetDefault("RATE_STATS_ENABLED", false)
	v.SetDefault("RATE_STATS_BACKEND", StoreMemory)
	v.SetDefault("RATE_STATS_TTL", "24h")
	v.SetDefault("RATE_STATS_BUCKET", BucketMinute)
	v.SetDefault("RATE_STATS_TRACK_KEYS", false)
	v.SetDefault("RATE_STATS_MAX_KEYS", 10_000)
	v.SetDefault("CONCURRENCY_MAX", 100)
	v.SetDefault("CONCURRENCY_TIMEOUT", "0s")
	v.SetDefault("TIMEZONE", "UTC")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.AutomaticEnv()
	return v
}

// LoadDotEnv carrega arquivos .env sem sobrescrever variáveis já definidas.
// Arquivo ausente não é erro.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return errors.Wrapf(err, "load %s", f)
		}
	}
	return nil
}

// Load lê e valida a configuração a partir de v.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		ListenAddr: v.GetString("LISTEN_ADDR"),

		RateEnabled:      v.GetBool("RATE_ENABLED"),
		RateCooldown:     v.GetDuration("RATE_COOLDOWN"),
		RateStore:        strings.ToLower(strings.TrimSpace(v.GetString("RATE_STORE"))),
		RateMaxEntries:   v.GetInt("RATE_MAX_ENTRIES"),
		RateIdleTTL:      v.GetDuration("RATE_IDLE_TTL"),
		RateCleanupEvery: v.GetDuration("RATE_CLEANUP_EVERY"),
		RateKeyHeader:    strings.TrimSpace(v.GetString("RATE_KEY_HEADER")),
		TrustXFF:         v.GetBool("TRUST_XFF"),
		AddHeaders:       v.GetBool("ADD_RATELIMIT_HEADERS"),

		RedisAddr:     strings.TrimSpace(v.GetString("REDIS_ADDR")),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),
		RedisPrefix:   strings.Trim(v.GetString("REDIS_PREFIX"), ":"),

		StatsEnabled:   v.GetBool("RATE_STATS_ENABLED"),
		StatsBackend:   strings.ToLower(strings.TrimSpace(v.GetString("RATE_STATS_BACKEND"))),
		StatsTTL:       v.GetDuration("RATE_STATS_TTL"),
		StatsBucket:    strings.ToLower(strings.TrimSpace(v.GetString("RATE_STATS_BUCKET"))),
		StatsTrackKeys: v.GetBool("RATE_STATS_TRACK_KEYS"),
		StatsMaxKeys:   v.GetInt("RATE_STATS_MAX_KEYS"),

		ConcurrencyMax:     v.GetInt("CONCURRENCY_MAX"),
		ConcurrencyTimeout: v.GetDuration("CONCURRENCY_TIMEOUT"),

		Timezone: strings.TrimSpace(v.GetString("TIMEZONE")),

		LogLevel:  strings.ToLower(strings.TrimSpace(v.GetString("LOG_LEVEL"))),
		LogFormat: strings.ToLower(strings.TrimSpace(v.GetString("LOG_FORMAT"))),
	}

	// durações sem unidade ("2") viram nanossegundos
	if cfg.RateCooldown < time.Second {
		return Config{}, errors.Errorf("RATE_COOLDOWN must be at least 1s (with a unit, e.g. 2s), got %s", cfg.RateCooldown)
	}
	if cfg.RateIdleTTL < 0 {
		return Config{}, errors.New("RATE_IDLE_TTL must be >= 0")
	}
	if cfg.RateCleanupEvery != 0 && cfg.RateCleanupEvery < time.Second {
		return Config{}, errors.Errorf("RATE_CLEANUP_EVERY must be 0 (off) or at least 1s, got %s", cfg.RateCleanupEvery)
	}
	if cfg.StatsTTL != 0 && cfg.StatsTTL < time.Second {
		return Config{}, errors.Errorf("RATE_STATS_TTL must be 0 (no expiry) or at least 1s, got %s", cfg.StatsTTL)
	}
	if cfg.RateMaxEntries <= 0 {
		return Config{}, errors.New("RATE_MAX_ENTRIES must be > 0")
	}
	if cfg.RateStore != StoreMemory && cfg.RateStore != StoreRedis {
		return Config{}, errors.Errorf("RATE_STORE must be %q or %q, got %q", StoreMemory, StoreRedis, cfg.RateStore)
	}
	if cfg.StatsBackend != StoreMemory && cfg.StatsBackend != StoreRedis {
		return Config{}, errors.Errorf("RATE_STATS_BACKEND must be %q or %q, got %q", StoreMemory, StoreRedis, cfg.StatsBackend)
	}
	if cfg.StatsBucket != BucketMinute && cfg.StatsBucket != BucketNone {
		return Config{}, errors.Errorf("RATE_STATS_BUCKET must be %q or %q, got %q", BucketMinute, BucketNone, cfg.StatsBucket)
	}
	if cfg.StatsMaxKeys <= 0 {
		return Config{}, errors.New("RATE_STATS_MAX_KEYS must be > 0")
	}
	if cfg.NeedsRedis() && cfg.RedisAddr == "" {
		return Config{}, errors.New("REDIS_ADDR is required when RATE_STORE or RATE_STATS_BACKEND is redis")
	}
	if cfg.ConcurrencyMax < 0 {
		return Config{}, errors.New("CONCURRENCY_MAX must be >= 0")
	}
	if cfg.RedisPrefix == "" {
		cfg.RedisPrefix = "secretword"
	}

	if cfg.Timezone == "" {
		cfg.Timezone = "UTC"
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return Config{}, errors.Wrapf(err, "invalid TIMEZONE %q", cfg.Timezone)
	}
	cfg.Location = loc

	return cfg, nil
}

// NeedsRedis informa se algum componente habilitado usa Redis.
func (c Config) NeedsRedis() bool {
	return (c.RateEnabled && c.RateStore == StoreRedis) ||
		(c.StatsEnabled && c.StatsBackend == StoreRedis)
}
