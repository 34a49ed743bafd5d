package infra

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"secretword-api/middleware/ratelimit/domain"

	"github.com/stretchr/testify/require"
)

func at(sec float64) time.Time {
	return time.Unix(0, 0).Add(time.Duration(sec * float64(time.Second)))
}

func storeLen(t *testing.T, s *Store) int {
	t.Helper()
	n, err := s.Len(context.Background())
	require.NoError(t, err)
	return n
}

func TestStore_CooldownAcceptRejectAccept(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	ok, err := s.Allow(ctx, "10.0.0.1", at(0))
	require.NoError(t, err)
	require.True(t, ok, "t=0 must be accepted")

	ok, _ = s.Allow(ctx, "10.0.0.1", at(1))
	require.False(t, ok, "t=1 must be throttled")

	ok, _ = s.Allow(ctx, "10.0.0.1", at(2))
	require.True(t, ok, "t=2 must be accepted (2-0 >= 2)")
}

func TestStore_RejectDoesNotMoveWindow(t *testing.T) {
	s := NewStore()

	require.True(t, s.AllowString("k", at(0)))
	require.False(t, s.AllowString("k", at(1.9)))
	require.False(t, s.AllowString("k", at(1.99)))
	require.True(t, s.AllowString("k", at(2)))
	require.False(t, s.AllowString("k", at(3.5)))
	require.True(t, s.AllowString("k", at(4)))
}

func TestStore_KeysAreIndependent(t *testing.T) {
	s := NewStore()

	require.True(t, s.AllowString("a", at(0)))
	require.True(t, s.AllowString("b", at(0)))
	require.False(t, s.AllowString("a", at(0.5)))
	require.False(t, s.AllowString("b", at(0.5)))
	require.Equal(t, 2, storeLen(t, s))
}

func TestStore_Defaults(t *testing.T) {
	s := NewStore()
	require.Equal(t, DefaultCooldown, s.Cooldown())
	require.Equal(t, DefaultCleanupEvery, s.CleanupEvery())
	require.GreaterOrEqual(t, s.MaxEntries(), DefaultMaxEntries)

	off := NewStore(WithCleanupEvery(0))
	require.Zero(t, off.CleanupEvery())
}

func TestStore_CustomCooldown(t *testing.T) {
	s := NewStore(WithCooldown(5 * time.Second))
	require.Equal(t, 5*time.Second, s.Cooldown())

	require.True(t, s.AllowString("k", at(0)))
	require.False(t, s.AllowString("k", at(4)))
	require.True(t, s.AllowString("k", at(5)))
}

func TestStore_ConcurrentSameKeyAcceptsOnce(t *testing.T) {
	s := NewStore()
	now := at(100)

	var accepted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := s.Allow(context.Background(), domain.Key("same"), now); ok {
				accepted.Add(1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), accepted.Load())
}

func TestStore_ConcurrentDistinctKeysAllAccepted(t *testing.T) {
	s := NewStore()
	now := at(100)

	var accepted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if s.AllowString(fmt.Sprintf("client-%d", i), now) {
				accepted.Add(1)
			}
		}(i)
	}
	wg.Wait()

	require.Equal(t, int32(64), accepted.Load())
}

func TestStore_CleanupRemovesIdleEntries(t *testing.T) {
	s := NewStore(WithIdleTTL(5*time.Second), WithCleanupEvery(0))

	require.True(t, s.AllowString("old", at(0)))
	require.True(t, s.AllowString("new", at(8)))

	require.Equal(t, 1, s.Cleanup(at(10)))
	require.Equal(t, 1, storeLen(t, s))

	// a chave removida volta como nova
	require.True(t, s.AllowString("old", at(10)))
}

func TestStore_IdleTTLNeverBelowCooldown(t *testing.T) {
	s := NewStore(WithIdleTTL(time.Millisecond))

	require.True(t, s.AllowString("k", at(0)))
	require.Zero(t, s.Cleanup(at(1)))
	require.False(t, s.AllowString("k", at(1.5)))
}

func TestStore_MaxEntriesEvictsExpiredFirst(t *testing.T) {
	s := NewStore(WithShards(1), WithMaxEntries(2))
	require.Equal(t, 2, s.MaxEntries())

	require.True(t, s.AllowString("a", at(0)))
	require.True(t, s.AllowString("b", at(1)))
	// em t=3 o cooldown de a (0) e de b (1) já acabou
	require.True(t, s.AllowString("c", at(3)))
	require.Equal(t, 1, storeLen(t, s))
}

func TestStore_MaxEntriesEvictsOldestWhenAllCooling(t *testing.T) {
	s := NewStore(WithShards(1), WithMaxEntries(2))

	require.True(t, s.AllowString("a", at(0)))
	require.True(t, s.AllowString("b", at(1)))
	require.True(t, s.AllowString("c", at(1.5)))
	require.Equal(t, 2, storeLen(t, s))

	// b continua em cooldown; a foi despejada
	require.False(t, s.AllowString("b", at(1.6)))
	require.Equal(t, 2, storeLen(t, s))
}

func TestStore_JanitorStopsWithContext(t *testing.T) {
	s := NewStore(WithCleanupEvery(5*time.Millisecond), WithIdleTTL(time.Nanosecond), WithCooldown(time.Nanosecond))
	require.True(t, s.AllowString("k", time.Now().Add(-time.Second)))

	ctx, cancel := context.WithCancel(context.Background())
	swept := make(chan int, 16)
	s.StartJanitor(ctx, func(n int) {
		select {
		case swept <- n:
		default:
		}
	})

	select {
	case n := <-swept:
		require.Equal(t, 1, n)
	case <-time.After(time.Second):
		t.Fatalf("janitor did not run")
	}
	cancel()

	require.Equal(t, 0, storeLen(t, s))
}
