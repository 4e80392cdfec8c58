package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spotifyweb/spotify-cli/internal/auth"
	"github.com/spotifyweb/spotify-cli/internal/cache"
	"github.com/spotifyweb/spotify-cli/internal/config"
	"github.com/spotifyweb/spotify-cli/internal/spotify"
	"github.com/spotifyweb/spotify-cli/internal/validation"
)

const (
	envAccessToken = "SPOTIFY_ACCESS_TOKEN"
	envAccountsURL = "SPOTIFY_ACCOUNTS_URL"
	envRedisURL    = "SPOTIFY_REDIS_URL"

	redisPrefix = "spotify-cli"
)

type clientFactory struct {
	timeout   time.Duration
	userAgent string
}

func newClientFactory() *clientFactory {
	return &clientFactory{
		timeout:   flags.Timeout,
		userAgent: fmt.Sprintf("spotify-cli/%s", version),
	}
}

// getClient builds the Web API transport for the active profile.
func getClient(ctx context.Context) (*spotify.Client, error) {
	return newClientFactory().client(ctx)
}

// client authenticates with SPOTIFY_ACCESS_TOKEN when set, otherwise with a
// session for the active profile.
func (f *clientFactory) client(ctx context.Context) (*spotify.Client, error) {
	if token := strings.TrimSpace(os.Getenv(envAccessToken)); token != "" {
		baseURL := flags.APIURL
		if baseURL == "" {
			baseURL = strings.TrimSpace(os.Getenv("SPOTIFY_API_URL"))
		}
		return f.newClient(ctx, baseURL, spotify.StaticToken(token))
	}

	cfg, err := config.ResolveClientConfig(flags.Profile, flags.APIURL)
	if err != nil {
		return nil, err
	}
	session, err := newSession(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return f.newClient(ctx, cfg.BaseURL, session)
}

func (f *clientFactory) newClient(ctx context.Context, baseURL string, tokens spotify.TokenSource) (*spotify.Client, error) {
	if baseURL != "" {
		if err := validation.ValidateBaseURL(ctx, baseURL); err != nil {
			return nil, fmt.Errorf("invalid API URL: %w", err)
		}
	}
	client, err := spotify.New(baseURL, tokens)
	if err != nil {
		return nil, err
	}
	if f.timeout > 0 {
		client.HTTP.Timeout = f.timeout
	}
	if f.userAgent != "" {
		client.UserAgent = f.userAgent
	}
	applyRetryOverrides(client)
	return client, nil
}

func applyRetryOverrides(client *spotify.Client) {
	cfg := client.RetryConfig

	if flags.MaxRateLimitRetriesSet {
		cfg.MaxRateLimitRetries = flags.MaxRateLimitRetries
	}
	if flags.Max5xxRetriesSet {
		cfg.Max5xxRetries = flags.Max5xxRetries
	}
	if flags.RateLimitDelaySet {
		cfg.RateLimitBaseDelay = flags.RateLimitDelay
	}
	if flags.ServerErrorDelaySet {
		cfg.ServerErrorRetryDelay = flags.ServerErrorDelay
	}
	if flags.CircuitBreakerThresholdSet {
		cfg.CircuitBreakerThreshold = flags.CircuitBreakerThreshold
	}
	if flags.CircuitBreakerResetTimeSet {
		cfg.CircuitBreakerResetTime = flags.CircuitBreakerResetTime
	}

	client.SetRetryConfig(cfg)
}

// newFlow returns the OAuth flow configured for a profile.
func newFlow(ctx context.Context, p config.Profile) (auth.Flow, error) {
	accountsURL := strings.TrimRight(strings.TrimSpace(os.Getenv(envAccountsURL)), "/")
	if accountsURL != "" {
		if err := validation.ValidateBaseURL(ctx, accountsURL); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", envAccountsURL, err)
		}
	}

	switch p.Flow {
	case config.FlowClientCredentials:
		flow := auth.NewClientCredentials(p.ClientID, p.ClientSecret)
		if accountsURL != "" {
			flow.TokenURL = accountsURL + "/api/token"
		}
		return flow, nil
	default:
		scopes, err := auth.ParseScopes(p.Scopes...)
		if err != nil {
			return nil, err
		}
		flow := auth.NewAuthCodePKCE(p.ClientID, p.Redirect(), scopes...)
		if accountsURL != "" {
			flow.AuthURL = accountsURL + "/authorize"
			flow.TokenURL = accountsURL + "/api/token"
		}
		return flow, nil
	}
}

func newSession(ctx context.Context, cfg config.ClientConfig) (*auth.Session, error) {
	flow, err := newFlow(ctx, cfg.Profile)
	if err != nil {
		return nil, err
	}
	session := auth.NewSession(flow, nil)
	session.Cache, session.CacheKey = tokenCache(ctx, cfg)
	return session, nil
}

// tokenCache picks where a profile's token lives: Redis when
// SPOTIFY_REDIS_URL is set, the keychain for user tokens, and the file cache
// for app-only tokens.
func tokenCache(ctx context.Context, cfg config.ClientConfig) (auth.TokenCache, string) {
	if redisURL := strings.TrimSpace(os.Getenv(envRedisURL)); redisURL != "" {
		store, err := cache.NewRedisStore(ctx, redisURL, redisPrefix)
		if err == nil {
			return store, "token/" + cfg.ProfileName + "/" + cfg.Profile.ClientID
		}
		warnf(ctx, "Redis token cache unavailable, falling back: %v", err)
	}
	if cfg.Profile.Flow == config.FlowClientCredentials {
		dir, err := cache.DefaultDir()
		if err != nil {
			return nil, ""
		}
		return cache.NewFileStore(dir, cfg.ProfileName), "app-token-" + cfg.Profile.ClientID
	}
	return config.TokenStore{Profile: cfg.ProfileName}, "token"
}

// responseCache returns the store for cached API responses.
func responseCache(ctx context.Context) cache.Store {
	if redisURL := strings.TrimSpace(os.Getenv(envRedisURL)); redisURL != "" {
		if store, err := cache.NewRedisStore(ctx, redisURL, redisPrefix); err == nil {
			return store
		}
	}
	dir, err := cache.DefaultDir()
	if err != nil {
		return nil
	}
	return cache.NewFileStore(dir, activeProfileName())
}

func activeProfileName() string {
	if flags.Profile != "" {
		return flags.Profile
	}
	name, _, err := config.LoadActive()
	if err != nil {
		return "default"
	}
	return name
}

func activeProfileMarket() string {
	var (
		p   config.Profile
		err error
	)
	if flags.Profile != "" {
		p, err = config.LoadProfile(flags.Profile)
	} else {
		_, p, err = config.LoadActive()
	}
	if err != nil {
		return ""
	}
	return p.Market
}
