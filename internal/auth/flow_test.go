package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spotifyweb/spotify-cli/internal/api"
)

type tokenServer struct {
	*httptest.Server
	mu       sync.Mutex
	forms    []url.Values
	headers  []http.Header
	status   int
	response string
}

func newTokenServer(t *testing.T, response string) *tokenServer {
	t.Helper()
	ts := &tokenServer{status: http.StatusOK, response: response}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/token" {
			http.NotFound(w, r)
			return
		}
		_ = r.ParseForm()
		ts.mu.Lock()
		ts.forms = append(ts.forms, r.PostForm)
		ts.headers = append(ts.headers, r.Header.Clone())
		status, body := ts.status, ts.response
		ts.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func (ts *tokenServer) tokenURL() string { return ts.URL + "/api/token" }

func (ts *tokenServer) lastForm() url.Values {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.forms[len(ts.forms)-1]
}

func (ts *tokenServer) lastHeader() http.Header {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.headers[len(ts.headers)-1]
}

func TestClientCredentials_RequestToken(t *testing.T) {
	ts := newTokenServer(t, `{"access_token":"app","token_type":"Bearer","expires_in":3600}`)
	cc := NewClientCredentials("id", "secret")
	cc.TokenURL = ts.tokenURL()

	before := time.Now()
	tok, err := cc.RequestToken(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "app", tok.AccessToken)
	assert.False(t, tok.Expired())
	assert.WithinDuration(t, before.Add(time.Hour), tok.Expiry(), 2*time.Second)

	assert.Equal(t, "client_credentials", ts.lastForm().Get("grant_type"))
	h := ts.lastHeader()
	assert.Equal(t, "Basic "+base64.StdEncoding.EncodeToString([]byte("id:secret")), h.Get("Authorization"))
	assert.Equal(t, api.ContentTypeForm, h.Get("Content-Type"))
}

func TestClientCredentials_ErrorsUseTaxonomy(t *testing.T) {
	ts := newTokenServer(t, `{"error":"invalid_client","error_description":"Invalid client"}`)
	ts.status = http.StatusBadRequest
	cc := &ClientCredentials{ClientID: "id", ClientSecret: "bad", TokenURL: ts.tokenURL()}

	_, err := cc.Refresh(context.Background(), nil)
	var msgErr *api.ServiceMessageError
	require.ErrorAs(t, err, &msgErr)
	assert.Equal(t, http.StatusBadRequest, msgErr.Status)
	assert.Equal(t, "invalid_client", msgErr.Message)
}

func TestRequestToken_TransportError(t *testing.T) {
	cc := &ClientCredentials{TokenURL: "http://127.0.0.1:1/api/token"}
	_, err := cc.RequestToken(context.Background())
	var clientErr *api.ClientError
	assert.ErrorAs(t, err, &clientErr)
}

func TestRequestToken_WrongShape(t *testing.T) {
	ts := newTokenServer(t, `{"access_token": 5}`)
	cc := &ClientCredentials{TokenURL: ts.tokenURL()}
	_, err := cc.RequestToken(context.Background())
	var dtErr *api.DataTypeError
	require.ErrorAs(t, err, &dtErr)
	assert.Equal(t, "auth.Token", dtErr.TypeName)
}

func TestAuthorizationURL(t *testing.T) {
	pkce := NewAuthCodePKCE("client", "http://127.0.0.1:8888/callback", UserReadEmail, UserReadPrivate)

	raw, err := pkce.AuthorizationURL()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(raw, AuthorizeURL+"?client_id=client&response_type=code&redirect_uri="), raw)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "user-read-email user-read-private", q.Get("scope"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.Len(t, q.Get("state"), stateLength)
	assert.Equal(t, pkce.State(), q.Get("state"))
	assert.Equal(t, codeChallenge(pkce.codeVerifier), q.Get("code_challenge"))
	assert.Len(t, pkce.codeVerifier, codeVerifierLength)

	noScopes := NewAuthCodePKCE("client", "http://127.0.0.1:8888/callback")
	raw, err = noScopes.AuthorizationURL()
	require.NoError(t, err)
	assert.NotContains(t, raw, "scope=")
}

func TestCodeChallenge(t *testing.T) {
	// RFC 7636 appendix B.
	assert.Equal(t, "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM", codeChallenge("dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"))
}

func TestRandomString(t *testing.T) {
	s, err := randomString(200)
	require.NoError(t, err)
	assert.Len(t, s, 200)
	for _, c := range s {
		assert.True(t, strings.ContainsRune(pkceCharset, c), "unexpected character %q", c)
	}
}

func TestVerifyAuthorizationCode(t *testing.T) {
	pkce := NewAuthCodePKCE("client", "http://127.0.0.1:8888/callback")

	_, err := pkce.VerifyAuthorizationCode("http://127.0.0.1:8888/callback?code=abc&state=x")
	assert.ErrorIs(t, err, ErrNoState)

	_, err = pkce.AuthorizationURL()
	require.NoError(t, err)
	state := pkce.State()

	tests := []struct {
		name    string
		url     string
		want    string
		check   func(error) bool
		wantErr bool
	}{
		{name: "ok", url: "http://127.0.0.1:8888/callback?code=abc&state=" + state, want: "abc"},
		{name: "no code", url: "http://127.0.0.1:8888/callback?state=" + state, check: func(err error) bool { return errors.Is(err, ErrCodeNotFound) }},
		{name: "no state", url: "http://127.0.0.1:8888/callback?code=abc", check: func(err error) bool {
			var e *InvalidStateError
			return errors.As(err, &e) && e.Got == "" && e.Expected == state
		}},
		{name: "wrong state", url: "http://127.0.0.1:8888/callback?code=abc&state=nope", check: func(err error) bool {
			var e *InvalidStateError
			return errors.As(err, &e) && e.Got == "nope"
		}},
		{name: "denied", url: "http://127.0.0.1:8888/callback?error=access_denied&state=" + state, check: func(err error) bool {
			var e *AuthorizationDeniedError
			return errors.As(err, &e) && e.Reason == "access_denied"
		}},
		{name: "bad url", url: "http://[::1", check: func(err error) bool {
			var e *api.URLParseError
			return errors.As(err, &e)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := pkce.VerifyAuthorizationCode(tt.url)
			if tt.check == nil {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
				return
			}
			assert.True(t, tt.check(err), "unexpected error: %v", err)
		})
	}
}

func TestPKCE_RequestTokenFromRedirectURL(t *testing.T) {
	ts := newTokenServer(t, `{"access_token":"user","token_type":"Bearer","expires_in":3600,"refresh_token":"r1","scope":"user-read-email"}`)
	pkce := NewAuthCodePKCE("client", "http://127.0.0.1:8888/callback")
	pkce.TokenURL = ts.tokenURL()

	_, err := pkce.RequestToken(context.Background(), "abc")
	assert.ErrorIs(t, err, ErrNoCodeVerifier)

	_, err = pkce.AuthorizationURL()
	require.NoError(t, err)

	tok, err := pkce.RequestTokenFromRedirectURL(context.Background(), "http://127.0.0.1:8888/callback?code=abc&state="+pkce.State())
	require.NoError(t, err)
	assert.Equal(t, "user", tok.AccessToken)
	assert.Equal(t, "r1", tok.RefreshToken)

	form := ts.lastForm()
	assert.Equal(t, "authorization_code", form.Get("grant_type"))
	assert.Equal(t, "abc", form.Get("code"))
	assert.Equal(t, "http://127.0.0.1:8888/callback", form.Get("redirect_uri"))
	assert.Equal(t, "client", form.Get("client_id"))
	assert.Equal(t, pkce.codeVerifier, form.Get("code_verifier"))
	assert.Empty(t, ts.lastHeader().Get("Authorization"))
}

func TestPKCE_Refresh(t *testing.T) {
	ts := newTokenServer(t, `{"access_token":"new","token_type":"Bearer","expires_in":3600}`)
	pkce := &AuthCodePKCE{ClientID: "client", TokenURL: ts.tokenURL()}

	_, err := pkce.Refresh(context.Background(), &Token{AccessToken: "old"})
	assert.ErrorIs(t, err, ErrNoRefreshToken)

	tok, err := pkce.Refresh(context.Background(), &Token{AccessToken: "old", RefreshToken: "r1", Scope: "streaming"})
	require.NoError(t, err)
	assert.Equal(t, "new", tok.AccessToken)
	assert.Equal(t, "r1", tok.RefreshToken)
	assert.Equal(t, "streaming", tok.Scope)

	form := ts.lastForm()
	assert.Equal(t, "refresh_token", form.Get("grant_type"))
	assert.Equal(t, "r1", form.Get("refresh_token"))
	assert.Equal(t, "client", form.Get("client_id"))
}
