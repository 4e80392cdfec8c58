// Package spotify is the HTTP transport for the Web API: it resolves endpoint
// paths, authenticates requests and retries rate limited or failed calls.
package spotify

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spotifyweb/spotify-cli/internal/api"
	"github.com/spotifyweb/spotify-cli/internal/debug"
)

const (
	DefaultBaseURL = "https://api.spotify.com/v1/"
	DefaultTimeout = 30 * time.Second
)

// TokenSource supplies the bearer token for each request.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource that always returns the same token.
type StaticToken string

func (t StaticToken) AccessToken(context.Context) (string, error) {
	if t == "" {
		return "", &AuthError{Reason: "no access token configured"}
	}
	return string(t), nil
}

// Client is the Spotify Web API transport.
//
// The client includes a circuit breaker that tracks server failures across
// requests. Use ResetCircuitBreaker to clear it when reusing a client between
// logical sessions.
type Client struct {
	BaseURL        *url.URL
	Tokens         TokenSource
	HTTP           *http.Client
	UserAgent      string
	RetryConfig    RetryConfig
	circuitBreaker *circuitBreaker
	rateLimitMu    sync.Mutex
	lastRateLimit  *RateLimitInfo
}

var (
	_ api.Client      = (*Client)(nil)
	_ api.AsyncClient = (*Client)(nil)
)

// New creates a transport rooted at baseURL. An empty baseURL selects
// DefaultBaseURL.
func New(baseURL string, tokens TokenSource) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if base.Scheme != "https" && base.Scheme != "http" {
		return nil, fmt.Errorf("invalid base URL %q: expected http or https", baseURL)
	}

	baseTransport, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		baseTransport = &http.Transport{}
	}
	transport := baseTransport.Clone()
	if transport.TLSClientConfig == nil {
		transport.TLSClientConfig = &tls.Config{}
	} else {
		transport.TLSClientConfig = transport.TLSClientConfig.Clone()
	}
	transport.TLSClientConfig.MinVersion = tls.VersionTLS12

	retryCfg := DefaultRetryConfig()
	return &Client{
		BaseURL:     base,
		Tokens:      tokens,
		RetryConfig: retryCfg,
		HTTP: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: transport,
			// 301 answers are reported to the caller instead of followed.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		circuitBreaker: newCircuitBreaker(retryCfg),
	}, nil
}

// ResetCircuitBreaker clears the circuit breaker state.
func (c *Client) ResetCircuitBreaker() {
	if c.circuitBreaker != nil {
		c.circuitBreaker.reset()
	}
}

// SetRetryConfig updates the retry configuration and aligns circuit breaker settings.
func (c *Client) SetRetryConfig(cfg RetryConfig) {
	c.RetryConfig = cfg
	if c.circuitBreaker != nil {
		c.circuitBreaker.mu.Lock()
		c.circuitBreaker.threshold = cfg.CircuitBreakerThreshold
		c.circuitBreaker.resetTime = cfg.CircuitBreakerResetTime
		c.circuitBreaker.mu.Unlock()
	}
}

// RestEndpoint resolves a relative endpoint path against BaseURL.
func (c *Client) RestEndpoint(path string) (*url.URL, error) {
	ref, err := url.Parse(strings.TrimPrefix(path, "/"))
	if err != nil {
		return nil, err
	}
	if ref.IsAbs() || ref.Host != "" || strings.HasPrefix(ref.Path, "/") {
		return nil, fmt.Errorf("endpoint %q is not a relative path", path)
	}
	return c.BaseURL.ResolveReference(ref), nil
}

// RestAsync runs Rest on its own goroutine.
func (c *Client) RestAsync(ctx context.Context, req *api.Request) <-chan api.RestResult {
	out := make(chan api.RestResult, 1)
	go func() {
		resp, err := c.Rest(ctx, req)
		out <- api.RestResult{Response: resp, Err: err}
	}()
	return out
}

// Rest executes req. Idempotent requests answered with 429 are retried after
// Retry-After; idempotent requests answered with 5xx are retried a bounded
// number of times. Any other response, successful or not, is returned
// unmodified for classification by the caller.
func (c *Client) Rest(ctx context.Context, req *api.Request) (*api.Response, error) {
	if c.circuitBreaker != nil && c.circuitBreaker.isOpen() {
		return nil, &CircuitBreakerError{}
	}

	idempotent := isIdempotent(req.Method)
	var retries429, retries5xx int
	attempt := 0

	for {
		attempt++
		start := time.Now()

		httpReq, err := c.newHTTPRequest(ctx, req)
		if err != nil {
			return nil, err
		}

		resp, err := c.HTTP.Do(httpReq)
		if err != nil {
			if debug.IsEnabled(ctx) {
				slog.Debug("request failed", "method", req.Method, "url", redactURL(req.URL), "attempt", attempt, "error", err)
			}
			return nil, fmt.Errorf("request failed: %w", err)
		}

		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}
		if debug.IsEnabled(ctx) {
			slog.Debug("request complete", "method", req.Method, "url", redactURL(req.URL), "status", resp.StatusCode, "attempt", attempt, "duration", time.Since(start))
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			c.recordRateLimit(resp.Header, retries429, time.Now())
			retryAfter, hasRetryAfter := retryAfterDuration(resp.Header)
			if !idempotent || retries429 >= c.RetryConfig.MaxRateLimitRetries {
				if !hasRetryAfter {
					retryAfter = c.RetryConfig.RateLimitBaseDelay
				}
				return nil, &RateLimitError{RetryAfter: retryAfter}
			}
			delay := retryAfter
			if !hasRetryAfter {
				delay = c.RetryConfig.RateLimitBaseDelay * time.Duration(1<<retries429)
			}
			slog.Info("rate limited, retrying", "delay", delay, "attempt", retries429+1)
			if err := sleepWithContext(ctx, delay); err != nil {
				return nil, err
			}
			retries429++
			continue
		}

		if resp.StatusCode >= 500 {
			if c.circuitBreaker != nil {
				c.circuitBreaker.recordFailure()
			}
			if idempotent && retries5xx < c.RetryConfig.Max5xxRetries {
				slog.Info("server error, retrying", "status", resp.StatusCode)
				if err := sleepWithContext(ctx, c.RetryConfig.ServerErrorRetryDelay); err != nil {
					return nil, err
				}
				retries5xx++
				continue
			}
		} else if c.circuitBreaker != nil {
			c.circuitBreaker.recordSuccess()
		}

		return &api.Response{
			StatusCode: resp.StatusCode,
			Header:     resp.Header,
			Body:       body,
		}, nil
	}
}

// newHTTPRequest builds one attempt of req. The request carries a length only
// when req sets Content-Length; other bodies are streamed.
func (c *Client) newHTTPRequest(ctx context.Context, req *api.Request) (*http.Request, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	var bodyReader io.Reader
	contentLength, hasLength := int64(0), false
	if v := req.Header.Get("Content-Length"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid Content-Length %q: %w", v, err)
		}
		contentLength, hasLength = n, true
	}
	if len(req.Body) > 0 {
		if hasLength {
			bodyReader = bytes.NewReader(req.Body)
		} else {
			bodyReader = io.NopCloser(bytes.NewReader(req.Body))
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL.String(), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for key, values := range req.Header {
		if http.CanonicalHeaderKey(key) == "Content-Length" {
			continue
		}
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	if hasLength {
		httpReq.ContentLength = contentLength
		if contentLength == 0 {
			httpReq.Body = http.NoBody
		}
	}

	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Accept", "application/json")
	if c.UserAgent != "" {
		httpReq.Header.Set("User-Agent", c.UserAgent)
	}
	return httpReq, nil
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	if c.Tokens == nil {
		return "", &AuthError{Reason: "no token source configured"}
	}
	token, err := c.Tokens.AccessToken(ctx)
	if err != nil {
		if IsAuthError(err) {
			return "", err
		}
		return "", &AuthError{Reason: "failed to obtain access token", Err: err}
	}
	if token == "" {
		return "", &AuthError{Reason: "empty access token"}
	}
	return token, nil
}

// redactURL drops the query string, which may carry user data, from debug logs.
func redactURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	clean := *u
	clean.RawQuery = ""
	return clean.String()
}
