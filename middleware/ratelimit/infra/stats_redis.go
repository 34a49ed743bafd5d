package infra

import (
	"context"
	"strconv"
	"strings"
	"time"

	"secretword-api/middleware/ratelimit/domain"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RedisStatsStore grava os contadores em hashes do Redis, compartilhados por
// todas as instâncias (servidor e CGI).
type RedisStatsStore struct {
	rdb redis.UniversalClient

	prefix string
	// ttl aplica apenas em chaves de série temporal / por key.
	// total é cumulativo e não expira.
	ttl time.Duration

	bucket string // "minute" (padrão) ou "none"

	trackKeys bool
}

type RedisStatsOption func(*RedisStatsStore)

func WithStatsPrefix(prefix string) RedisStatsOption {
	return func(s *RedisStatsStore) {
		s.prefix = strings.Trim(prefix, ":")
	}
}

func WithStatsTTL(d time.Duration) RedisStatsOption {
	return func(s *RedisStatsStore) { s.ttl = d }
}

func WithStatsBucket(bucket string) RedisStatsOption {
	return func(s *RedisStatsStore) { s.bucket = strings.ToLower(strings.TrimSpace(bucket)) }
}

func WithStatsTrackKeys(track bool) RedisStatsOption {
	return func(s *RedisStatsStore) { s.trackKeys = track }
}

func NewRedisStatsStore(rdb redis.UniversalClient, opts ...RedisStatsOption) *RedisStatsStore {
	s := &RedisStatsStore{
		rdb:    rdb,
		prefix: "ratelimit:stats",
		ttl:    24 * time.Hour,
		bucket: "minute",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

const (
	// janela da série por minuto devolvida em Breakdown
	breakdownMinutes = 60
	// teto de chaves lidas por Breakdown quando o rastreio por chave está ligado
	breakdownMaxKeys = 1000
)

func (s *RedisStatsStore) totalKey() string     { return s.prefix + ":total" }
func (s *RedisStatsStore) routeKey() string     { return s.prefix + ":route" }
func (s *RedisStatsStore) keyPrefix() string    { return s.prefix + ":key:" }
func (s *RedisStatsStore) minutePrefix() string { return s.prefix + ":minute:" }

func (s *RedisStatsStore) minuteKey(at time.Time) string {
	return s.minutePrefix() + at.UTC().Format("200601021504")
}

func (s *RedisStatsStore) Record(ctx context.Context, ev domain.StatsEvent) error {
	if s == nil || s.rdb == nil {
		return nil
	}

	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}

	field := "denied"
	if ev.Allowed {
		field = "allowed"
	}

	pipe := s.rdb.Pipeline()
	pipe.HIncrBy(ctx, s.totalKey(), field, 1)

	if s.bucket == "minute" {
		bucketKey := s.minuteKey(at)
		pipe.HIncrBy(ctx, bucketKey, field, 1)
		if s.ttl > 0 {
			pipe.Expire(ctx, bucketKey, s.ttl)
		}
	}

	routeField := strings.TrimSpace(strings.TrimSpace(ev.Method) + " " + strings.TrimSpace(ev.Path))
	if routeField != "" {
		pipe.HIncrBy(ctx, s.routeKey(), routeField+":"+field, 1)
	}

	if s.trackKeys {
		if k := strings.TrimSpace(string(ev.Key)); k != "" {
			keyKey := s.keyPrefix() + k
			pipe.HIncrBy(ctx, keyKey, field, 1)
			if s.ttl > 0 {
				pipe.Expire(ctx, keyKey, s.ttl)
			}
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return errors.WithMessage(err, "redis stats pipeline")
	}
	return nil
}

// Snapshot implementa domain.StatsReader lendo o hash total.
func (s *RedisStatsStore) Snapshot(ctx context.Context) (domain.Counters, error) {
	vals, err := s.rdb.HGetAll(ctx, s.totalKey()).Result()
	if err != nil {
		return domain.Counters{}, errors.WithMessage(err, "redis stats hgetall")
	}

	var c domain.Counters
	if c.Allowed, err = parseCounter(vals["allowed"]); err != nil {
		return domain.Counters{}, err
	}
	if c.Denied, err = parseCounter(vals["denied"]); err != nil {
		return domain.Counters{}, err
	}
	return c, nil
}

func parseCounter(v string) (int64, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "parse counter %q", v)
	}
	return n, nil
}

// Breakdown implementa domain.StatsReader: contadores por rota, por chave
// (se rastreadas) e os últimos 60 minutos até at (se bucket=minute).
func (s *RedisStatsStore) Breakdown(ctx context.Context, at time.Time) (domain.Breakdown, error) {
	var b domain.Breakdown

	routes, err := s.rdb.HGetAll(ctx, s.routeKey()).Result()
	if err != nil {
		return domain.Breakdown{}, errors.WithMessage(err, "redis stats route hgetall")
	}
	for f, v := range routes {
		i := strings.LastIndex(f, ":")
		if i <= 0 {
			continue
		}
		n, err := parseCounter(v)
		if err != nil {
			return domain.Breakdown{}, err
		}
		if b.ByRoute == nil {
			b.ByRoute = make(map[string]domain.Counters)
		}
		b.ByRoute[f[:i]] = addField(b.ByRoute[f[:i]], f[i+1:], n)
	}

	if s.trackKeys {
		keys, err := s.scanKeys(ctx, s.keyPrefix()+"*", breakdownMaxKeys)
		if err != nil {
			return domain.Breakdown{}, err
		}
		if b.ByKey, err = s.readHashes(ctx, keys, s.keyPrefix()); err != nil {
			return domain.Breakdown{}, err
		}
	}

	if s.bucket == "minute" {
		if at.IsZero() {
			at = time.Now()
		}
		keys := make([]string, 0, breakdownMinutes)
		for i := 0; i < breakdownMinutes; i++ {
			keys = append(keys, s.minuteKey(at.Add(-time.Duration(i)*time.Minute)))
		}
		if b.ByMinute, err = s.readHashes(ctx, keys, s.minutePrefix()); err != nil {
			return domain.Breakdown{}, err
		}
	}
	return b, nil
}

func (s *RedisStatsStore) scanKeys(ctx context.Context, match string, limit int) ([]string, error) {
	var (
		cursor uint64
		out    []string
	)
	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, match, 500).Result()
		if err != nil {
			return nil, errors.WithMessage(err, "redis stats scan")
		}
		out = append(out, keys...)
		if len(out) >= limit {
			return out[:limit], nil
		}
		cursor = next
		if cursor == 0 {
			return out, nil
		}
	}
}

// readHashes lê os hashes num pipeline; hashes vazios ficam de fora.
func (s *RedisStatsStore) readHashes(ctx context.Context, keys []string, trim string) (map[string]domain.Counters, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	pipe := s.rdb.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(keys))
	for i, k := range keys {
		cmds[i] = pipe.HGetAll(ctx, k)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, errors.WithMessage(err, "redis stats pipeline read")
	}

	var out map[string]domain.Counters
	for i, cmd := range cmds {
		vals := cmd.Val()
		if len(vals) == 0 {
			continue
		}
		var c domain.Counters
		for f, v := range vals {
			n, err := parseCounter(v)
			if err != nil {
				return nil, err
			}
			c = addField(c, f, n)
		}
		if out == nil {
			out = make(map[string]domain.Counters)
		}
		out[strings.TrimPrefix(keys[i], trim)] = c
	}
	return out, nil
}

func addField(c domain.Counters, field string, n int64) domain.Counters {
	switch field {
	case "allowed":
		c.Allowed += n
	case "denied":
		c.Denied += n
	}
	return c
}
