package auth

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spotifyweb/spotify-cli/internal/cache"
)

type fakeFlow struct {
	calls   atomic.Int32
	err     error
	refresh string
	ttl     time.Duration
	seen    []*Token
	mu      sync.Mutex
}

func (f *fakeFlow) Refresh(_ context.Context, current *Token) (*Token, error) {
	n := f.calls.Add(1)
	f.mu.Lock()
	f.seen = append(f.seen, current)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	ttl := f.ttl
	if ttl == 0 {
		ttl = time.Hour
	}
	return &Token{
		AccessToken:  "token-" + string(rune('0'+n)),
		ExpiresIn:    int(ttl / time.Second),
		ExpiresAt:    time.Now().Add(ttl).Unix(),
		RefreshToken: f.refresh,
	}, nil
}

func validToken(access string) *Token {
	return &Token{AccessToken: access, ExpiresIn: 3600, ExpiresAt: time.Now().Add(time.Hour).Unix(), RefreshToken: "r"}
}

func TestSession_UsesValidToken(t *testing.T) {
	flow := &fakeFlow{}
	s := NewSession(flow, validToken("seed"))

	got, err := s.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "seed", got)
	assert.Zero(t, flow.calls.Load())
}

func TestSession_RefreshesExpiredToken(t *testing.T) {
	flow := &fakeFlow{}
	expired := &Token{AccessToken: "old", ExpiresAt: time.Now().Add(5 * time.Second).Unix(), RefreshToken: "r"}
	s := NewSession(flow, expired)

	var refreshed *Token
	s.OnRefresh = func(tok *Token) { refreshed = tok }

	got, err := s.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-1", got)
	require.NotNil(t, refreshed)
	assert.Equal(t, "token-1", refreshed.AccessToken)
	assert.Equal(t, "old", flow.seen[0].AccessToken)

	got, err = s.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-1", got)
	assert.EqualValues(t, 1, flow.calls.Load())
}

func TestSession_ConcurrentCallersShareRefresh(t *testing.T) {
	flow := &fakeFlow{}
	s := NewSession(flow, nil)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.AccessToken(context.Background())
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, flow.calls.Load())
}

func TestSession_Errors(t *testing.T) {
	s := NewSession(nil, nil)
	_, err := s.AccessToken(context.Background())
	assert.ErrorIs(t, err, ErrNoToken)

	boom := errors.New("boom")
	s = NewSession(&fakeFlow{err: boom}, nil)
	_, err = s.AccessToken(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, s.Token())
}

func TestSession_FileCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := cache.NewFileStore(t.TempDir(), "default")

	first := NewSession(&fakeFlow{refresh: "r1"}, nil)
	first.Cache, first.CacheKey = store, "token"
	got, err := first.AccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "token-1", got)

	flow := &fakeFlow{}
	second := NewSession(flow, nil)
	second.Cache, second.CacheKey = store, "token"
	got, err = second.AccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "token-1", got)
	assert.Zero(t, flow.calls.Load())

	require.NoError(t, second.Invalidate(ctx))
	_, ok, _ := store.Get(ctx, "token")
	assert.False(t, ok)
}

func TestSession_RedisCache(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	store, err := cache.NewRedisStore(ctx, "redis://"+mr.Addr(), "spotify-cli")
	require.NoError(t, err)
	defer store.Close()

	s := NewSession(&fakeFlow{ttl: 30 * time.Minute}, nil)
	s.Cache, s.CacheKey = store, "token:app"
	_, err = s.AccessToken(ctx)
	require.NoError(t, err)

	raw, err := mr.Get("spotify-cli/token:app")
	require.NoError(t, err)
	var tok Token
	require.NoError(t, json.Unmarshal([]byte(raw), &tok))
	assert.Equal(t, "token-1", tok.AccessToken)

	ttl := mr.TTL("spotify-cli/token:app")
	assert.True(t, ttl > 29*time.Minute && ttl <= 30*time.Minute, "ttl = %v", ttl)
}

func TestSession_SetToken(t *testing.T) {
	ctx := context.Background()
	store := cache.NewFileStore(t.TempDir(), "default")
	s := NewSession(nil, nil)
	s.Cache, s.CacheKey = store, "token"

	s.SetToken(ctx, validToken("manual"))
	got, err := s.AccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "manual", got)

	_, ok, _ := store.Get(ctx, "token")
	assert.True(t, ok)
}
