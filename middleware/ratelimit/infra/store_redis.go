package infra

import (
	"context"
	_ "embed"
	"strings"
	"time"

	"secretword-api/middleware/ratelimit/domain"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

//go:embed cooldown.lua
var cooldownScript string

// RedisStore é o cooldown por chave no Redis, compartilhável entre processos
// (ex.: o adapter CGI, que sobe um processo por requisição).
//
// Cada cliente é uma chave <prefix>:<key> com o instante do último aceite em
// milissegundos. O check-and-set roda num script Lua (atômico no servidor) e a
// chave expira sozinha quando o cooldown termina.
type RedisStore struct {
	rdb      redis.UniversalClient
	script   *redis.Script
	prefix   string
	cooldown time.Duration
}

type RedisStoreOption func(*RedisStore)

func WithRedisPrefix(prefix string) RedisStoreOption {
	return func(s *RedisStore) { s.prefix = strings.Trim(prefix, ":") }
}

func WithRedisCooldown(d time.Duration) RedisStoreOption {
	return func(s *RedisStore) { s.cooldown = d }
}

func NewRedisStore(rdb redis.UniversalClient, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{
		rdb:      rdb,
		script:   redis.NewScript(cooldownScript),
		prefix:   "ratelimit:cooldown",
		cooldown: DefaultCooldown,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cooldown < time.Millisecond {
		s.cooldown = DefaultCooldown
	}
	return s
}

func (s *RedisStore) Cooldown() time.Duration { return s.cooldown }

func (s *RedisStore) key(k domain.Key) string { return s.prefix + ":" + string(k) }

// Allow implementa domain.LimiterStore.
func (s *RedisStore) Allow(ctx context.Context, key domain.Key, at time.Time) (bool, error) {
	res, err := s.script.Run(ctx, s.rdb, []string{s.key(key)},
		at.UnixMilli(),
		s.cooldown.Milliseconds(),
	).Int64()
	if err != nil {
		return false, errors.WithMessage(err, "redis cooldown script")
	}
	return res == 1, nil
}

// Len implementa domain.Sizer contando as chaves do prefixo (SCAN).
// As chaves expiram com o cooldown, então o valor é o de clientes recentes.
func (s *RedisStore) Len(ctx context.Context) (int, error) {
	var (
		cursor uint64
		n      int
	)
	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, s.prefix+":*", 500).Result()
		if err != nil {
			return 0, errors.WithMessage(err, "redis scan")
		}
		n += len(keys)
		cursor = next
		if cursor == 0 {
			return n, nil
		}
	}
}
