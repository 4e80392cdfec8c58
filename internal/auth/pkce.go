package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/spotifyweb/spotify-cli/internal/api"
)

const (
	codeVerifierLength = 128
	stateLength        = 16

	pkceCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-._~"
)

// AuthorizationDeniedError is returned when the user declines the
// authorization request.
type AuthorizationDeniedError struct {
	Reason string
}

func (e *AuthorizationDeniedError) Error() string {
	return "authorization denied: " + e.Reason
}

// AuthCodePKCE is the authorization code flow with proof key for code
// exchange. It needs no client secret.
//
// AuthorizationURL must be called first: it generates the state and code
// verifier that VerifyAuthorizationCode and RequestToken rely on.
type AuthCodePKCE struct {
	ClientID    string
	RedirectURI string
	Scopes      []Scope
	AuthURL     string
	TokenURL    string
	HTTP        *http.Client

	mu           sync.Mutex
	state        string
	codeVerifier string
}

var _ Flow = (*AuthCodePKCE)(nil)

func NewAuthCodePKCE(clientID, redirectURI string, scopes ...Scope) *AuthCodePKCE {
	return &AuthCodePKCE{ClientID: clientID, RedirectURI: redirectURI, Scopes: scopes}
}

// AuthorizationURL returns the URL the user opens to grant access. Each
// call starts a new authorization with a fresh state and code verifier.
func (a *AuthCodePKCE) AuthorizationURL() (string, error) {
	verifier, err := randomString(codeVerifierLength)
	if err != nil {
		return "", fmt.Errorf("generate code verifier: %w", err)
	}
	state, err := randomString(stateLength)
	if err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}

	var scope *string
	if len(a.Scopes) > 0 {
		s := JoinScopes(a.Scopes)
		scope = &s
	}
	params := api.NewQueryParams().
		Push("client_id", a.ClientID).
		Push("response_type", "code").
		Push("redirect_uri", a.RedirectURI).
		Push("state", state).
		PushOpt("scope", scope).
		Push("code_challenge_method", "S256").
		Push("code_challenge", codeChallenge(verifier))

	authURL := a.AuthURL
	if authURL == "" {
		authURL = AuthorizeURL
	}
	u, err := url.Parse(authURL)
	if err != nil {
		return "", &api.URLParseError{Input: authURL, Err: err}
	}
	params.AddToURL(u)

	a.mu.Lock()
	a.state = state
	a.codeVerifier = verifier
	a.mu.Unlock()
	return u.String(), nil
}

// State returns the state of the pending authorization, if any.
func (a *AuthCodePKCE) State() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// VerifyAuthorizationCode extracts the authorization code from the redirect
// URL after checking its state parameter.
func (a *AuthCodePKCE) VerifyAuthorizationCode(redirectURL string) (string, error) {
	expected := a.State()
	if expected == "" {
		return "", ErrNoState
	}
	u, err := url.Parse(redirectURL)
	if err != nil {
		return "", &api.URLParseError{Input: redirectURL, Err: err}
	}
	q := u.Query()
	if reason := q.Get("error"); reason != "" {
		return "", &AuthorizationDeniedError{Reason: reason}
	}
	if !q.Has("code") {
		return "", ErrCodeNotFound
	}
	if got := q.Get("state"); got != expected {
		return "", &InvalidStateError{Expected: expected, Got: got}
	}
	return q.Get("code"), nil
}

// RequestToken exchanges an authorization code for a token.
func (a *AuthCodePKCE) RequestToken(ctx context.Context, code string) (*Token, error) {
	a.mu.Lock()
	verifier := a.codeVerifier
	a.mu.Unlock()
	if verifier == "" {
		return nil, ErrNoCodeVerifier
	}
	return requestToken(ctx, a.HTTP, a.TokenURL, "", authorizationCodeForm{
		GrantType:    "authorization_code",
		Code:         code,
		RedirectURI:  a.RedirectURI,
		ClientID:     a.ClientID,
		CodeVerifier: verifier,
	})
}

// RequestTokenFromRedirectURL verifies the redirect URL and exchanges its
// code for a token.
func (a *AuthCodePKCE) RequestTokenFromRedirectURL(ctx context.Context, redirectURL string) (*Token, error) {
	code, err := a.VerifyAuthorizationCode(redirectURL)
	if err != nil {
		return nil, err
	}
	return a.RequestToken(ctx, code)
}

// RefreshToken exchanges a refresh token for a new access token.
func (a *AuthCodePKCE) RefreshToken(ctx context.Context, refreshToken string) (*Token, error) {
	return requestToken(ctx, a.HTTP, a.TokenURL, "", refreshTokenForm{
		GrantType:    "refresh_token",
		RefreshToken: refreshToken,
		ClientID:     a.ClientID,
	})
}

// Refresh refreshes current. Spotify may omit the refresh token and scope
// from the answer, in which case the previous values are kept.
func (a *AuthCodePKCE) Refresh(ctx context.Context, current *Token) (*Token, error) {
	if current == nil || current.RefreshToken == "" {
		return nil, ErrNoRefreshToken
	}
	tok, err := a.RefreshToken(ctx, current.RefreshToken)
	if err != nil {
		return nil, err
	}
	if tok.RefreshToken == "" {
		tok.RefreshToken = current.RefreshToken
	}
	if tok.Scope == "" {
		tok.Scope = current.Scope
	}
	return tok, nil
}

func codeChallenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// randomString draws n characters uniformly from pkceCharset.
func randomString(n int) (string, error) {
	const limit = 256 - 256%len(pkceCharset)
	out := make([]byte, 0, n)
	buf := make([]byte, n)
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, pkceCharset[int(b)%len(pkceCharset)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}
