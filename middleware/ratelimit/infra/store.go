package infra

import (
	"context"
	"sync"
	"time"

	"secretword-api/middleware/ratelimit/domain"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/time/rate"
)

const (
	DefaultCooldown     = 2 * time.Second
	DefaultMaxEntries   = 100_000
	DefaultIdleTTL      = time.Minute
	DefaultCleanupEvery = 30 * time.Second
	defaultShards       = 32
)

// Store é o cooldown por chave em memória.
//
// Cada chave tem um rate.Limiter com rate.Every(cooldown) e burst 1: o primeiro
// Allow passa, e o próximo só passa quando o cooldown inteiro tiver decorrido
// desde o último aceite. Rejeições não consomem nada.
//
// As chaves são distribuídas em shards (xxhash), cada um com seu mutex; o
// check-and-set de uma chave acontece inteiro sob o lock do seu shard.
// O tamanho é limitado por MaxEntries e pela limpeza de chaves inativas.
type Store struct {
	shards       []*shard
	shardCount   int
	cooldown     time.Duration
	maxEntries   int
	maxPerShard  int
	idleTTL      time.Duration
	cleanupEvery time.Duration
}

type shard struct {
	mu      sync.Mutex
	entries map[string]*storeEntry
}

type storeEntry struct {
	lim          *rate.Limiter
	lastAccepted time.Time
}

type StoreOption func(*Store)

func WithCooldown(d time.Duration) StoreOption {
	return func(s *Store) { s.cooldown = d }
}

// WithMaxEntries limita o total de chaves (dividido igualmente entre os shards).
func WithMaxEntries(n int) StoreOption {
	return func(s *Store) { s.maxEntries = n }
}

func WithShards(n int) StoreOption {
	return func(s *Store) { s.shardCount = n }
}

// WithIdleTTL define após quanto tempo sem aceite uma chave é descartada.
// Nunca fica abaixo do cooldown.
func WithIdleTTL(d time.Duration) StoreOption {
	return func(s *Store) { s.idleTTL = d }
}

func WithCleanupEvery(d time.Duration) StoreOption {
	return func(s *Store) { s.cleanupEvery = d }
}

func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		shardCount:   defaultShards,
		cooldown:     DefaultCooldown,
		maxEntries:   DefaultMaxEntries,
		idleTTL:      DefaultIdleTTL,
		cleanupEvery: DefaultCleanupEvery,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.shardCount <= 0 {
		s.shardCount = 1
	}
	if s.cooldown <= 0 {
		s.cooldown = DefaultCooldown
	}
	if s.maxEntries <= 0 {
		s.maxEntries = DefaultMaxEntries
	}
	if s.idleTTL < s.cooldown {
		s.idleTTL = s.cooldown
	}

	s.maxPerShard = (s.maxEntries + s.shardCount - 1) / s.shardCount
	s.shards = make([]*shard, s.shardCount)
	for i := range s.shards {
		s.shards[i] = &shard{entries: make(map[string]*storeEntry)}
	}
	return s
}

func (s *Store) Cooldown() time.Duration     { return s.cooldown }
func (s *Store) MaxEntries() int             { return s.maxPerShard * len(s.shards) }
func (s *Store) CleanupEvery() time.Duration { return s.cleanupEvery }

func (s *Store) shardFor(key string) *shard {
	return s.shards[xxhash.Sum64String(key)%uint64(len(s.shards))]
}

// Allow implementa domain.LimiterStore.
func (s *Store) Allow(_ context.Context, key domain.Key, at time.Time) (bool, error) {
	return s.AllowString(string(key), at), nil
}

func (s *Store) AllowString(key string, at time.Time) bool {
	sh := s.shardFor(key)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	ent, ok := sh.entries[key]
	if !ok {
		if len(sh.entries) >= s.maxPerShard {
			s.makeRoom(sh, at)
		}
		ent = &storeEntry{lim: rate.NewLimiter(rate.Every(s.cooldown), 1)}
		sh.entries[key] = ent
	}

	if !ent.lim.AllowN(at, 1) {
		return false
	}
	ent.lastAccepted = at
	return true
}

// makeRoom remove chaves cujo cooldown já passou; se ainda estiver cheio,
// remove a de aceite mais antigo. Chamado com sh.mu travado.
func (s *Store) makeRoom(sh *shard, at time.Time) {
	cutoff := at.Add(-s.cooldown)
	var (
		oldestKey string
		oldestAt  time.Time
		found     bool
	)
	for k, ent := range sh.entries {
		if !ent.lastAccepted.After(cutoff) {
			delete(sh.entries, k)
			continue
		}
		if !found || ent.lastAccepted.Before(oldestAt) {
			oldestKey, oldestAt, found = k, ent.lastAccepted, true
		}
	}
	if len(sh.entries) >= s.maxPerShard && found {
		delete(sh.entries, oldestKey)
	}
}

// Len implementa domain.Sizer.
func (s *Store) Len(context.Context) (int, error) {
	n := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		n += len(sh.entries)
		sh.mu.Unlock()
	}
	return n, nil
}

// Cleanup remove chaves sem aceite há mais de idleTTL e devolve quantas saíram.
func (s *Store) Cleanup(now time.Time) int {
	cutoff := now.Add(-s.idleTTL)
	removed := 0

	for _, sh := range s.shards {
		sh.mu.Lock()
		for k, ent := range sh.entries {
			if !ent.lastAccepted.After(cutoff) {
				delete(sh.entries, k)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	return removed
}

// StartJanitor inicia uma goroutine que limpa chaves inativas periodicamente.
// Pare cancelando o contexto. onSweep (opcional) recebe o total removido.
func (s *Store) StartJanitor(ctx DoneContext, onSweep func(removed int)) {
	if s.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(s.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-t.C:
				n := s.Cleanup(now)
				if onSweep != nil {
					onSweep(n)
				}
			}
		}
	}()
}

// DoneContext é o mínimo necessário para aceitar context.Context.
type DoneContext interface {
	Done() <-chan struct{}
}
