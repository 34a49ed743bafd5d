package application

import (
	"context"
	"testing"
	"time"

	"secretword-api/middleware/ratelimit/domain"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	allow bool
	err   error
	n     int

	gotKey domain.Key
	gotAt  time.Time
}

func (s *fakeStore) Allow(_ context.Context, key domain.Key, at time.Time) (bool, error) {
	s.gotKey, s.gotAt = key, at
	return s.allow, s.err
}

func (s *fakeStore) Len(context.Context) (int, error) { return s.n, s.err }

type blindStore struct{}

func (blindStore) Allow(context.Context, domain.Key, time.Time) (bool, error) { return true, nil }

func TestService_Decide_AllowsWhenNoStore(t *testing.T) {
	svc := Service{}
	dec, err := svc.Decide(context.Background(), "k", time.Now())
	require.NoError(t, err)
	require.True(t, dec.Allowed)
	require.Zero(t, dec.RetryAfter)
}

func TestService_Decide_PassesKeyAndTime(t *testing.T) {
	store := &fakeStore{allow: true}
	svc := Service{Store: store, RetryAfter: 5 * time.Second}
	at := time.Unix(1000, 0)

	dec, err := svc.Decide(context.Background(), "10.0.0.1", at)
	require.NoError(t, err)
	require.True(t, dec.Allowed)
	require.Equal(t, domain.Key("10.0.0.1"), store.gotKey)
	require.True(t, at.Equal(store.gotAt))
}

func TestService_Decide_BlocksWithRetryAfterDefault(t *testing.T) {
	svc := Service{Store: &fakeStore{allow: false}}
	dec, err := svc.Decide(context.Background(), "k", time.Now())
	require.NoError(t, err)
	require.False(t, dec.Allowed)
	require.Equal(t, 2*time.Second, dec.RetryAfter)
}

func TestService_Decide_BlocksWithConfiguredRetryAfter(t *testing.T) {
	svc := Service{Store: &fakeStore{allow: false}, RetryAfter: 2500 * time.Millisecond}
	dec, err := svc.Decide(context.Background(), "k", time.Now())
	require.NoError(t, err)
	require.False(t, dec.Allowed)
	require.Equal(t, 2500*time.Millisecond, dec.RetryAfter)
}

func TestService_Decide_WrapsStoreError(t *testing.T) {
	boom := errors.New("boom")
	svc := Service{Store: &fakeStore{err: boom}}
	_, err := svc.Decide(context.Background(), "k", time.Now())
	require.Error(t, err)
	require.ErrorIs(t, err, boom)
	require.Contains(t, err.Error(), "limiter store allow")
}

func TestService_Size(t *testing.T) {
	n, err := Service{Store: &fakeStore{n: 3}}.Size(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, n)

	n, err = Service{Store: blindStore{}}.Size(context.Background())
	require.NoError(t, err)
	require.Equal(t, -1, n)

	n, err = Service{}.Size(context.Background())
	require.NoError(t, err)
	require.Equal(t, -1, n)
}
