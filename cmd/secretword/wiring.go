package main

import (
	"context"
	"time"

	"secretword-api/api"
	"secretword-api/config"
	"secretword-api/middleware/ratelimit/infra"
	"secretword-api/wordclock"

	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// core é o núcleo montado a partir da configuração, igual para os dois adapters.
type core struct {
	deps     api.Deps
	memStore *infra.Store
	rdb      *redis.Client
}

func (c *core) Close() {
	if c.rdb != nil {
		_ = c.rdb.Close()
	}
}

func buildCore(ctx context.Context, cfg config.Config, adapter string) (*core, error) {
	pool, err := wordclock.NewPool(wordclock.DefaultPool().Words())
	if err != nil {
		return nil, errors.WithMessage(err, "word pool")
	}

	c := &core{
		deps: api.Deps{
			Pool:                pool,
			Clock:               clockwork.NewRealClock(),
			Location:            cfg.Location,
			Adapter:             adapter,
			KeyHeader:           cfg.RateKeyHeader,
			TrustXForwardedFor:  cfg.TrustXFF,
			RetryAfter:          cfg.RateCooldown,
			AddRateLimitHeaders: cfg.AddHeaders,
			ConcurrencyMax:      cfg.ConcurrencyMax,
			ConcurrencyTimeout:  cfg.ConcurrencyTimeout,
		},
	}

	if cfg.NeedsRedis() {
		c.rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := c.rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			c.Close()
			return nil, errors.WithMessagef(err, "redis ping %s", cfg.RedisAddr)
		}
	}

	if cfg.RateEnabled {
		switch cfg.RateStore {
		case config.StoreRedis:
			c.deps.Store = infra.NewRedisStore(c.rdb,
				infra.WithRedisPrefix(cfg.RedisPrefix+":cooldown"),
				infra.WithRedisCooldown(cfg.RateCooldown),
			)
		default:
			c.memStore = infra.NewStore(
				infra.WithCooldown(cfg.RateCooldown),
				infra.WithMaxEntries(cfg.RateMaxEntries),
				infra.WithIdleTTL(cfg.RateIdleTTL),
				infra.WithCleanupEvery(cfg.RateCleanupEvery),
			)
			c.deps.Store = c.memStore
		}
	}

	if cfg.StatsEnabled {
		switch cfg.StatsBackend {
		case config.StoreRedis:
			c.deps.Stats = infra.NewRedisStatsStore(c.rdb,
				infra.WithStatsPrefix(cfg.RedisPrefix+":stats"),
				infra.WithStatsTTL(cfg.StatsTTL),
				infra.WithStatsBucket(cfg.StatsBucket),
				infra.WithStatsTrackKeys(cfg.StatsTrackKeys),
			)
		default:
			c.deps.Stats = infra.NewMemoryStatsStore(
				infra.WithTrackKeys(cfg.StatsTrackKeys),
				infra.WithMaxTrackedKeys(cfg.StatsMaxKeys),
			)
		}
	}

	log.Info().
		Str("adapter", adapter).
		Int("word_pool_size", pool.Len()).
		Dur("interval", wordclock.Interval).
		Bool("rate_enabled", cfg.RateEnabled).
		Str("rate_store", cfg.RateStore).
		Dur("rate_cooldown", cfg.RateCooldown).
		Bool("stats_enabled", cfg.StatsEnabled).
		Str("stats_backend", cfg.StatsBackend).
		Str("timezone", cfg.Location.String()).
		Msg("core ready")

	return c, nil
}
