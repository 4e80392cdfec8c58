package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// TokenCache persists tokens between runs. cache.FileStore and
// cache.RedisStore satisfy it.
type TokenCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// ErrNoToken is returned when a session has neither a valid token nor a flow
// that can obtain one.
var ErrNoToken = errors.New("no valid access token; run 'spotify auth login'")

// Session is a token source that keeps its token fresh. When the token is
// about to expire it asks Flow for a new one, stores the result in Cache and
// calls OnRefresh. It is safe for concurrent use; concurrent callers share a
// single refresh.
type Session struct {
	Flow      Flow
	Cache     TokenCache
	CacheKey  string
	OnRefresh func(*Token)

	mu     sync.Mutex
	token  *Token
	loaded bool
	now    func() time.Time
}

// NewSession creates a session seeded with tok, which may be nil.
func NewSession(flow Flow, tok *Token) *Session {
	s := &Session{Flow: flow, now: time.Now}
	if tok != nil {
		cp := *tok
		s.token = &cp
	}
	return s
}

func (s *Session) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

// Token returns a copy of the current token, or nil.
func (s *Session) Token() *Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == nil {
		return nil
	}
	cp := *s.token
	return &cp
}

// AccessToken returns a valid access token, refreshing when needed.
func (s *Session) AccessToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		s.loaded = true
		if s.token == nil {
			s.token = s.loadCached(ctx)
		}
	}
	if s.token != nil && !s.token.expiredAt(s.clock()) {
		return s.token.AccessToken, nil
	}
	if s.Flow == nil {
		return "", ErrNoToken
	}

	tok, err := s.Flow.Refresh(ctx, s.token)
	if err != nil {
		return "", fmt.Errorf("refresh token: %w", err)
	}
	s.token = tok
	s.storeCached(ctx, tok)
	if s.OnRefresh != nil {
		cp := *tok
		s.OnRefresh(&cp)
	}
	return tok.AccessToken, nil
}

// SetToken replaces the current token and writes it to the cache.
func (s *Session) SetToken(ctx context.Context, tok *Token) {
	cp := *tok
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = &cp
	s.loaded = true
	s.storeCached(ctx, &cp)
}

// Invalidate drops the current token and its cache entry.
func (s *Session) Invalidate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = nil
	s.loaded = true
	if s.Cache == nil || s.CacheKey == "" {
		return nil
	}
	return s.Cache.Delete(ctx, s.CacheKey)
}

func (s *Session) loadCached(ctx context.Context) *Token {
	if s.Cache == nil || s.CacheKey == "" {
		return nil
	}
	data, ok, err := s.Cache.Get(ctx, s.CacheKey)
	if err != nil {
		slog.Debug("token cache read failed", "key", s.CacheKey, "error", err)
		return nil
	}
	if !ok {
		return nil
	}
	var tok Token
	if err := json.Unmarshal(data, &tok); err != nil {
		slog.Debug("token cache entry is invalid", "key", s.CacheKey, "error", err)
		return nil
	}
	return &tok
}

// storeCached keeps refreshable tokens until deleted; other tokens only
// until they expire.
func (s *Session) storeCached(ctx context.Context, tok *Token) {
	if s.Cache == nil || s.CacheKey == "" {
		return
	}
	data, err := json.Marshal(tok)
	if err != nil {
		return
	}
	var ttl time.Duration
	if tok.RefreshToken == "" {
		ttl = tok.Expiry().Sub(s.clock())
		if ttl <= 0 {
			return
		}
	}
	if err := s.Cache.Set(ctx, s.CacheKey, data, ttl); err != nil {
		slog.Debug("token cache write failed", "key", s.CacheKey, "error", err)
	}
}
