package auth

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-querystring/query"

	"github.com/spotifyweb/spotify-cli/internal/api"
	"github.com/spotifyweb/spotify-cli/internal/debug"
)

const defaultTimeout = 10 * time.Second

var defaultHTTPClient = &http.Client{Timeout: defaultTimeout}

// Flow obtains a fresh token. current is the token being replaced and may be
// nil.
type Flow interface {
	Refresh(ctx context.Context, current *Token) (*Token, error)
}

type clientCredentialsForm struct {
	GrantType string `url:"grant_type"`
}

type authorizationCodeForm struct {
	GrantType    string `url:"grant_type"`
	Code         string `url:"code"`
	RedirectURI  string `url:"redirect_uri"`
	ClientID     string `url:"client_id"`
	CodeVerifier string `url:"code_verifier"`
}

type refreshTokenForm struct {
	GrantType    string `url:"grant_type"`
	RefreshToken string `url:"refresh_token"`
	ClientID     string `url:"client_id"`
}

// requestToken posts form to the token endpoint. Answers are classified like
// any Web API response, so a rejected grant surfaces as a service error.
func requestToken(ctx context.Context, hc *http.Client, tokenURL, authorization string, form any) (*Token, error) {
	values, err := query.Values(form)
	if err != nil {
		return nil, &api.BodyError{Encoding: "form", Err: err}
	}
	if tokenURL == "" {
		tokenURL = TokenURL
	}
	if hc == nil {
		hc = defaultHTTPClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(values.Encode()))
	if err != nil {
		return nil, &api.URLParseError{Input: tokenURL, Err: err}
	}
	req.Header.Set("Content-Type", api.ContentTypeForm)
	req.Header.Set("Accept", "application/json")
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		return nil, &api.ClientError{Err: err}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &api.ClientError{Err: err}
	}
	if debug.IsEnabled(ctx) {
		slog.Debug("token request complete", "grant_type", values.Get("grant_type"), "status", resp.StatusCode, "duration", time.Since(start))
	}

	if err := api.CheckResponse(&api.Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}); err != nil {
		return nil, err
	}
	tok, err := api.DecodeResponse[Token](body)
	if err != nil {
		return nil, err
	}
	tok.stamp(time.Now())
	return &tok, nil
}
