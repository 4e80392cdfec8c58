package cmd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDryRun_TracksSaveSendsNothing(t *testing.T) {
	handler := newRouteHandler()
	setupTestEnv(t, handler)

	ids := testIDs(60)
	out, _, err := runCommand(t, append([]string{"tracks", "save", "--dry-run"}, ids...)...)
	require.NoError(t, err)

	assert.Contains(t, out, "[DRY-RUN] Would save 60 track(s)")
	assert.Equal(t, 2, strings.Count(out, "PUT "), "one request per batch of 50")
	assert.Contains(t, out, "No changes made")
	assert.Empty(t, handler.Requests())
}

func TestDryRun_PlaylistAddJSON(t *testing.T) {
	handler := newRouteHandler()
	setupTestEnv(t, handler)

	out, _, err := runCommand(t, "playlists", "add", "37i9dQZF1DXcBWIGoYBM5M",
		"11dFghVXANMlKmJXsNCbNl", "spotify:episode:512ojhOuo1ktJprKbVcKyQ", "--position", "3", "--dry-run", "--json")
	require.NoError(t, err)

	var preview struct {
		Operation string `json:"operation"`
		DryRun    bool   `json:"dry_run"`
		Calls     []struct {
			Method string `json:"method"`
			URL    string `json:"url"`
		} `json:"calls"`
	}
	decodeJSON(t, out, &preview)
	assert.True(t, preview.DryRun)
	assert.Equal(t, "add", preview.Operation)
	require.Len(t, preview.Calls, 1)
	assert.Equal(t, "POST", preview.Calls[0].Method)
	assert.Contains(t, preview.Calls[0].URL, "/v1/playlists/37i9dQZF1DXcBWIGoYBM5M/tracks?uris=")
	assert.Contains(t, preview.Calls[0].URL, "position=3")
	assert.Empty(t, handler.Requests())
}

func TestDryRun_PlayerVolume(t *testing.T) {
	handler := newRouteHandler()
	setupTestEnv(t, handler)

	out, _, err := runCommand(t, "player", "volume", "40", "--device", "d1", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Would set volume to 40%")
	assert.Contains(t, out, "volume_percent=40")
	assert.Contains(t, out, "device_id=d1")
	assert.Empty(t, handler.Requests())
}

func TestDryRun_APIWriteOnly(t *testing.T) {
	handler := newRouteHandler().On("GET", "/v1/me", jsonResponse(200, `{"id":"wizzler"}`))
	setupTestEnv(t, handler)

	out, _, err := runCommand(t, "api", "me/player/next", "-X", "POST", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Would send POST me/player/next")
	assert.Empty(t, handler.Requests())

	// Reads are sent as usual.
	out, _, err = runCommand(t, "api", "me", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "wizzler")
	assert.Len(t, handler.Requests(), 1)
}
