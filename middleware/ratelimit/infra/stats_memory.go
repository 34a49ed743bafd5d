package infra

import (
	"context"
	"sync"
	"time"

	"secretword-api/middleware/ratelimit/domain"
)

// MemoryStatsStore guarda os contadores do processo atual.
//
// Contagem por chave é opcional e, ligada, cresce com o número de clientes;
// por isso fica limitada a maxKeys (novas chaves além disso não são contadas).
type MemoryStatsStore struct {
	mu      sync.Mutex
	total   domain.Counters
	byRoute map[string]domain.Counters
	byKey   map[string]domain.Counters

	trackKeys bool
	maxKeys   int
}

type MemoryStatsOption func(*MemoryStatsStore)

func WithTrackKeys(track bool) MemoryStatsOption {
	return func(s *MemoryStatsStore) { s.trackKeys = track }
}

func WithMaxTrackedKeys(n int) MemoryStatsOption {
	return func(s *MemoryStatsStore) { s.maxKeys = n }
}

func NewMemoryStatsStore(opts ...MemoryStatsOption) *MemoryStatsStore {
	s := &MemoryStatsStore{
		byRoute: make(map[string]domain.Counters),
		byKey:   make(map[string]domain.Counters),
		maxKeys: 10_000,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func bump(c domain.Counters, allowed bool) domain.Counters {
	if allowed {
		c.Allowed++
	} else {
		c.Denied++
	}
	return c
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	key := string(ev.Key)
	route := ev.Method + " " + ev.Path

	s.mu.Lock()
	defer s.mu.Unlock()

	s.total = bump(s.total, ev.Allowed)
	s.byRoute[route] = bump(s.byRoute[route], ev.Allowed)

	if s.trackKeys {
		if _, ok := s.byKey[key]; ok || len(s.byKey) < s.maxKeys {
			s.byKey[key] = bump(s.byKey[key], ev.Allowed)
		}
	}
	return nil
}

// Snapshot implementa domain.StatsReader.
func (s *MemoryStatsStore) Snapshot(context.Context) (domain.Counters, error) {
	return s.Total(), nil
}

// Breakdown implementa domain.StatsReader. Não há série por minuto em memória.
func (s *MemoryStatsStore) Breakdown(context.Context, time.Time) (domain.Breakdown, error) {
	return domain.Breakdown{
		ByRoute: nonEmpty(s.ByRoute()),
		ByKey:   nonEmpty(s.ByKey()),
	}, nil
}

func nonEmpty(m map[string]domain.Counters) map[string]domain.Counters {
	if len(m) == 0 {
		return nil
	}
	return m
}

func (s *MemoryStatsStore) Total() domain.Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *MemoryStatsStore) ByRoute() map[string]domain.Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]domain.Counters, len(s.byRoute))
	for k, v := range s.byRoute {
		out[k] = v
	}
	return out
}

func (s *MemoryStatsStore) ByKey() map[string]domain.Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]domain.Counters, len(s.byKey))
	for k, v := range s.byKey {
		out[k] = v
	}
	return out
}
