package spotify

import (
	"net/http"
	"time"
)

// RateLimitInfo describes the most recent 429 answer of the Web API. Spotify
// only reports a rolling window through Retry-After.
type RateLimitInfo struct {
	RetryAfter time.Duration
	ResetAt    time.Time
	Retried    int
}

// Meta returns a JSON-ready map for CLI output metadata.
func (r *RateLimitInfo) Meta() map[string]any {
	if r == nil {
		return nil
	}
	return map[string]any{
		"retry_after_seconds": int(r.RetryAfter / time.Second),
		"reset_at":            r.ResetAt.UTC().Format(time.RFC3339),
		"retries":             r.Retried,
	}
}

// LastRateLimit returns the most recent rate limit info seen by the client,
// or nil when no request was rate limited.
func (c *Client) LastRateLimit() *RateLimitInfo {
	c.rateLimitMu.Lock()
	defer c.rateLimitMu.Unlock()
	if c.lastRateLimit == nil {
		return nil
	}
	info := *c.lastRateLimit
	return &info
}

func (c *Client) recordRateLimit(h http.Header, retried int, now time.Time) {
	info := parseRateLimitInfo(h, c.RetryConfig.RateLimitBaseDelay, now)
	info.Retried = retried
	c.rateLimitMu.Lock()
	defer c.rateLimitMu.Unlock()
	c.lastRateLimit = info
}

func parseRateLimitInfo(h http.Header, fallback time.Duration, now time.Time) *RateLimitInfo {
	retryAfter, ok := retryAfterDuration(h)
	if !ok {
		retryAfter = fallback
	}
	return &RateLimitInfo{
		RetryAfter: retryAfter,
		ResetAt:    now.Add(retryAfter),
	}
}
