package cmd

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/spotifyweb/spotify-cli/internal/api"
	"github.com/spotifyweb/spotify-cli/internal/auth"
	"github.com/spotifyweb/spotify-cli/internal/config"
	"github.com/spotifyweb/spotify-cli/internal/spotify"
)

// HandleError processes an error and returns a user-friendly message with suggestions
func HandleError(err error) string {
	if err == nil {
		return ""
	}

	var msg strings.Builder

	var (
		rateLimitErr *spotify.RateLimitError
		circuitErr   *spotify.CircuitBreakerError
		authErr      *spotify.AuthError
		deniedErr    *auth.AuthorizationDeniedError
		scopeErr     *auth.UnknownScopeError
		movedErr     *api.MovedPermanentlyError
		jsonErr      *api.JSONError
	)

	switch {
	case errors.As(err, &rateLimitErr):
		msg.WriteString("Rate limit exceeded.\n\n")
		msg.WriteString("Suggestions:\n")
		fmt.Fprintf(&msg, "  - Wait %s and retry\n", rateLimitErr.RetryAfter)
		msg.WriteString("  - Use --max-rate-limit-retries to retry automatically\n")

	case errors.As(err, &circuitErr):
		msg.WriteString("Service temporarily unavailable (circuit breaker open).\n\n")
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - The Web API has had multiple failures recently\n")
		msg.WriteString("  - Wait 30 seconds and retry\n")

	case errors.As(err, &deniedErr):
		fmt.Fprintf(&msg, "Authorization was denied: %s\n\n", deniedErr.Reason)
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Run: spotify auth login and accept the requested scopes\n")

	case errors.As(err, &authErr), errors.Is(err, auth.ErrNoToken), errors.Is(err, config.ErrNotConfigured):
		fmt.Fprintf(&msg, "Authentication failed: %s\n\n", err)
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Run: spotify auth login\n")
		msg.WriteString("  - Check: spotify auth status\n")

	case errors.As(err, &scopeErr):
		fmt.Fprintf(&msg, "Error: %s\n", scopeErr)

	case errors.As(err, &movedErr):
		fmt.Fprintf(&msg, "API error: %s\n\n", movedErr)
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - The endpoint has moved; check the path or --api-url\n")

	case api.IsServiceError(err):
		status, _ := api.StatusCode(err)
		message := api.ServiceMessage(err)
		if message == "" {
			message = err.Error()
		}
		fmt.Fprintf(&msg, "API error (HTTP %d): %s\n\n", status, message)
		msg.WriteString(suggestionsForStatusCode(status, message))

	case errors.As(err, &jsonErr):
		fmt.Fprintf(&msg, "Unreadable stored data: %s\n\n", err)
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Run: spotify auth login to store the profile again\n")
		msg.WriteString("  - Use --debug for more detail\n")

	case strings.Contains(err.Error(), "connection refused"):
		msg.WriteString("Connection refused.\n\n")
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Check your network connection\n")
		msg.WriteString("  - Check --api-url or SPOTIFY_API_URL if set\n")

	case strings.Contains(err.Error(), "no such host"):
		msg.WriteString("DNS resolution failed.\n\n")
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Check your network connection and DNS settings\n")

	default:
		fmt.Fprintf(&msg, "Error: %s\n", err.Error())
	}

	return msg.String()
}

func suggestionsForStatusCode(code int, message string) string {
	var suggestions strings.Builder
	suggestions.WriteString("Suggestions:\n")

	switch code {
	case http.StatusBadRequest:
		suggestions.WriteString("  - Check your request parameters\n")
		suggestions.WriteString("  - Use --debug to see the request\n")
		if strings.Contains(strings.ToLower(message), "market") {
			suggestions.WriteString("  - Pass a valid --market, or from_token with a user token\n")
		}

	case http.StatusUnauthorized:
		suggestions.WriteString("  - Your access token may be invalid or expired\n")
		suggestions.WriteString("  - Run: spotify auth login\n")

	case http.StatusForbidden:
		suggestions.WriteString("  - The token lacks a required scope, or the account is not eligible\n")
		suggestions.WriteString("  - Run: spotify auth login --scopes <scope> to grant more scopes\n")
		if strings.Contains(strings.ToLower(message), "premium") {
			suggestions.WriteString("  - Player commands require Spotify Premium\n")
		}

	case http.StatusNotFound:
		suggestions.WriteString("  - The resource doesn't exist or is not available in your market\n")
		suggestions.WriteString("  - Check the ID, URI or link\n")
		if strings.Contains(strings.ToLower(message), "device") {
			suggestions.WriteString("  - No active device: start playback on a device first\n")
		}

	case http.StatusTooManyRequests:
		suggestions.WriteString("  - Too many requests\n")
		suggestions.WriteString("  - Wait and retry in a few seconds\n")

	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		suggestions.WriteString("  - Server error - not your fault\n")
		suggestions.WriteString("  - Wait and retry\n")

	default:
		suggestions.WriteString("  - Use --debug for more details\n")
	}

	return suggestions.String()
}

// errorPayload is the JSON form of a command error, written to stderr in
// JSON output modes.
type errorPayload struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Kind    string `json:"kind"`
	Status  int    `json:"status,omitempty"`
	Message string `json:"message"`
}

func newErrorPayload(err error) errorPayload {
	body := errorBody{Kind: errorKind(err), Message: err.Error()}
	if status, ok := api.StatusCode(err); ok {
		body.Status = status
		if message := api.ServiceMessage(err); message != "" {
			body.Message = message
		}
	}
	return errorPayload{Error: body}
}

func errorKind(err error) string {
	switch ExitCode(err) {
	case exitUsage:
		return "usage"
	case exitAuth:
		return "unauthorized"
	case exitNotFound:
		return "not_found"
	case exitForbidden:
		return "forbidden"
	case exitRateLimited:
		return "rate_limited"
	case exitServer:
		return "server"
	case exitNetwork:
		return "network"
	default:
		return "error"
	}
}
