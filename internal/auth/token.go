// Package auth implements the Spotify OAuth flows: client credentials for
// app-only access and authorization code with PKCE for user access. Session
// turns either flow into a refreshing token source for the transport.
package auth

import (
	"errors"
	"fmt"
	"time"
)

const (
	AuthorizeURL = "https://accounts.spotify.com/authorize"
	TokenURL     = "https://accounts.spotify.com/api/token"

	// expiryMargin treats a token as expired slightly before Spotify does.
	expiryMargin = 10 * time.Second
)

var (
	ErrNoState        = errors.New("no authorization state: call AuthorizationURL first")
	ErrNoCodeVerifier = errors.New("no code verifier: call AuthorizationURL first")
	ErrCodeNotFound   = errors.New("authorization code not found")
	ErrNoRefreshToken = errors.New("token has no refresh token")
)

// InvalidStateError reports a state parameter that does not match the one
// sent with the authorization URL.
type InvalidStateError struct {
	Expected string
	Got      string
}

func (e *InvalidStateError) Error() string {
	got := e.Got
	if got == "" {
		got = "none"
	}
	return fmt.Sprintf("invalid state parameter: expected %s got %s", e.Expected, got)
}

// Token is an OAuth access token as returned by the accounts service.
// ExpiresAt is stamped locally, in unix seconds, when the token is received.
type Token struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// Expired reports whether the token is missing, unstamped or within ten
// seconds of its expiry.
func (t *Token) Expired() bool {
	return t.expiredAt(time.Now())
}

func (t *Token) expiredAt(now time.Time) bool {
	if t == nil || t.ExpiresAt == 0 {
		return true
	}
	return !now.Add(expiryMargin).Before(time.Unix(t.ExpiresAt, 0))
}

// Expiry returns the expiry time, or the zero time for an unstamped token.
func (t *Token) Expiry() time.Time {
	if t == nil || t.ExpiresAt == 0 {
		return time.Time{}
	}
	return time.Unix(t.ExpiresAt, 0)
}

func (t *Token) stamp(now time.Time) {
	t.ExpiresAt = now.Add(time.Duration(t.ExpiresIn) * time.Second).Unix()
}
