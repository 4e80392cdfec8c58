package cmd

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/pflag"

	"github.com/spotifyweb/spotify-cli/internal/api"
	"github.com/spotifyweb/spotify-cli/internal/auth"
	"github.com/spotifyweb/spotify-cli/internal/config"
	"github.com/spotifyweb/spotify-cli/internal/resolve"
	"github.com/spotifyweb/spotify-cli/internal/spotify"
)

const (
	exitOK          = 0
	exitGeneric     = 1
	exitUsage       = 2
	exitAuth        = 3
	exitNotFound    = 4
	exitForbidden   = 5
	exitRateLimited = 6
	exitServer      = 7
	exitNetwork     = 8
)

// ExitCode maps an error to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return exitOK
	}
	if errors.Is(err, pflag.ErrHelp) {
		return exitOK
	}
	var handled *handledError
	if errors.As(err, &handled) {
		if handled.exitCode != 0 {
			return handled.exitCode
		}
		err = handled.err
	}

	if code := exitCodeFromTyped(err); code != 0 {
		return code
	}
	if code := exitCodeFromStatus(err); code != 0 {
		return code
	}
	if isUsageError(err) {
		return exitUsage
	}
	if isNetworkError(err) {
		return exitNetwork
	}
	return exitGeneric
}

func exitCodeFromTyped(err error) int {
	switch {
	case spotify.IsRateLimitError(err):
		return exitRateLimited
	case spotify.IsCircuitBreakerError(err):
		return exitServer
	case spotify.IsAuthError(err),
		errors.Is(err, auth.ErrNoToken),
		errors.Is(err, config.ErrNotConfigured):
		return exitAuth
	}
	var (
		denied    *auth.AuthorizationDeniedError
		noMatch   *resolve.NoMatchError
		ambiguous *resolve.AmbiguousError
	)
	switch {
	case errors.As(err, &denied):
		return exitAuth
	case errors.As(err, &noMatch):
		return exitNotFound
	case errors.As(err, &ambiguous):
		return exitUsage
	}
	return 0
}

func exitCodeFromStatus(err error) int {
	status, ok := api.StatusCode(err)
	if !ok {
		return 0
	}
	switch {
	case status == http.StatusUnauthorized:
		return exitAuth
	case status == http.StatusForbidden:
		return exitForbidden
	case status == http.StatusNotFound:
		return exitNotFound
	case status == http.StatusTooManyRequests:
		return exitRateLimited
	case status >= 500:
		return exitServer
	case status == http.StatusBadRequest:
		return exitUsage
	default:
		return 0
	}
}

func isNetworkError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "certificate") ||
		strings.Contains(msg, "i/o timeout")
}

func isUsageError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	indicators := []string{
		"unknown command",
		"unknown flag",
		"unknown shorthand flag",
		"flag needs an argument",
		"requires at least",
		"requires exactly",
		"accepts at most",
		"accepts between",
		"invalid argument",
		"invalid spotify",
		"invalid url",
		" id \"",
		"expected a ",
		"unsupported resource type",
		"invalid market",
		"invalid include group",
		"must be",
		"is required",
		"conflicts with",
	}
	for _, indicator := range indicators {
		if strings.Contains(msg, indicator) {
			return true
		}
	}
	return false
}
