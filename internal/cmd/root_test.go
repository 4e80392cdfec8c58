package cmd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnknownCommandSuggests(t *testing.T) {
	_, errOut, err := runCommand(t, "albms")
	require.Error(t, err)
	assert.Equal(t, exitUsage, ExitCode(err))
	assert.Contains(t, errOut, `Did you mean "albums"?`)
}

func TestUnknownFlagSuggests(t *testing.T) {
	setupTestEnv(t, newRouteHandler())

	_, errOut, err := runCommand(t, "albums", "tracks", "x", "--limt", "5")
	require.Error(t, err)
	assert.Contains(t, errOut, `Did you mean "--limit"?`)
	assert.Contains(t, errOut, "spotify albums tracks --help")
}

func TestJSONConflictsWithOutput(t *testing.T) {
	_, _, err := runCommand(t, "version", "--json", "-o", "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--json conflicts with --output text")
}

func TestQueryRequiresJSONOutput(t *testing.T) {
	_, _, err := runCommand(t, "version", "-o", "text", "--jq", ".version")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "require --output json")
}

func TestInvalidMarket(t *testing.T) {
	setupTestEnv(t, newRouteHandler())

	_, _, err := runCommand(t, "albums", "get", albumID, "--market", "USA")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --market")
	assert.Equal(t, exitUsage, ExitCode(err))
}

func TestNegativeRetryOverride(t *testing.T) {
	_, _, err := runCommand(t, "version", "--max-5xx-retries", "-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--max-5xx-retries must be >= 0")
}

func TestVersion(t *testing.T) {
	out, _, err := runCommand(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "spotify-cli version dev", strings.TrimSpace(out))

	out, _, err = runCommand(t, "version", "--jq", ".version")
	require.NoError(t, err)
	assert.Equal(t, `"dev"`, strings.TrimSpace(out))
}

func TestJSONErrorPayload(t *testing.T) {
	handler := newRouteHandler()
	setupTestEnv(t, handler)

	_, errOut, err := runCommand(t, "tracks", "get", trackID, "--json")
	require.Error(t, err)

	var payload struct {
		Error struct {
			Kind    string `json:"kind"`
			Status  int    `json:"status"`
			Message string `json:"message"`
		} `json:"error"`
	}
	decodeJSON(t, strings.TrimSpace(errOut), &payload)
	assert.Equal(t, "not_found", payload.Error.Kind)
	assert.Equal(t, 404, payload.Error.Status)
	assert.Equal(t, "Resource not found", payload.Error.Message)
}

func TestExtractFlag(t *testing.T) {
	assert.Equal(t, "--limt", extractFlag("unknown flag: --limt"))
	assert.Equal(t, "", extractFlag("no flag here"))
}

func TestAPIURLOverrideValidated(t *testing.T) {
	handler := newRouteHandler()
	setupTestEnv(t, handler)

	for url, want := range map[string]string{
		"http://8.8.8.8/v1/":             "must use https",
		"http://169.254.169.254/latest/": "cloud metadata",
		"ftp://files.example.com/v1/":    "only http and https",
	} {
		_, _, err := runCommand(t, "me", "--api-url", url)
		require.Error(t, err, url)
		assert.Contains(t, err.Error(), want, url)
	}
	assert.Empty(t, handler.Requests())
}

func TestAccountsURLOverrideValidated(t *testing.T) {
	setupAccounts(t, jsonResponse(200, `{}`))
	t.Setenv("SPOTIFY_ACCOUNTS_URL", "http://metadata.google.internal")

	_, _, err := runCommand(t, "auth", "login", "--client-id", "x", "--client-secret", "y", "--client-credentials")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cloud metadata")
}
