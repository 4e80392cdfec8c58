package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	playlistID  = "37i9dQZF1DXcBWIGoYBM5M"
	playlistID2 = "3cEYpjA9oz9GiPac4AsH4n"
)

func simplePlaylistJSON(id, name string) string {
	return fmt.Sprintf(`{"id":%q,"name":%q,"public":true,"owner":{"id":"spotify","display_name":"Spotify"},"tracks":{"href":"","total":50}}`, id, name)
}

func myPlaylists() http.HandlerFunc {
	return pagedResponse("", []string{
		simplePlaylistJSON(playlistID, "Today's Top Hits"),
		simplePlaylistJSON(playlistID2, "Road trip"),
	})
}

func TestPlaylistsMine_Text(t *testing.T) {
	handler := newRouteHandler().On("GET", "/v1/me/playlists", myPlaylists())
	setupTestEnv(t, handler)

	out, _, err := runCommand(t, "playlists", "mine")
	require.NoError(t, err)
	assert.Contains(t, out, "Today's Top Hits")
	assert.Contains(t, out, "Road trip")
	assert.Contains(t, out, "Spotify")
}

func TestPlaylistsMine_JQ(t *testing.T) {
	handler := newRouteHandler().On("GET", "/v1/me/playlists", myPlaylists())
	setupTestEnv(t, handler)

	out, _, err := runCommand(t, "playlists", "mine", "--all", "--jq", ".[].name")
	require.NoError(t, err)
	var names []string
	decodeJSON(t, out, &names)
	assert.Equal(t, []string{"Today's Top Hits", "Road trip"}, names)
}

func TestPlaylistsGet_ByName(t *testing.T) {
	handler := newRouteHandler().
		On("GET", "/v1/me/playlists", myPlaylists()).
		On("GET", "/v1/playlists/"+playlistID2, jsonResponse(200, `{"id":"`+playlistID2+`","name":"Road trip","owner":{"id":"me"},"followers":{"total":3},"tracks":{"total":12,"items":[]},"snapshot_id":"abc"}`))
	setupTestEnv(t, handler)

	out, _, err := runCommand(t, "playlists", "get", "road trip")
	require.NoError(t, err)
	assert.Contains(t, out, "Road trip")
	assert.Contains(t, out, "abc")
}

func TestPlaylistsGet_NoMatch(t *testing.T) {
	handler := newRouteHandler().On("GET", "/v1/me/playlists", myPlaylists())
	setupTestEnv(t, handler)

	_, _, err := runCommand(t, "playlists", "get", "zzzz")
	require.Error(t, err)
	assert.Equal(t, exitNotFound, ExitCode(err))
}

func TestPlaylistsItems_SkipsUnavailable(t *testing.T) {
	items := []string{
		fmt.Sprintf(`{"added_at":"2024-05-01T00:00:00Z","track":%s}`, trackJSON(trackID, "Here")),
		`{"added_at":"2024-05-02T00:00:00Z","track":null}`,
	}
	handler := newRouteHandler().On("GET", "/v1/playlists/"+playlistID+"/tracks", pagedResponse("", items))
	setupTestEnv(t, handler)

	out, _, err := runCommand(t, "playlists", "items", playlistID)
	require.NoError(t, err)
	assert.Contains(t, out, "Here")
	assert.Contains(t, out, "(unavailable)")
}

func TestPlaylistsAdd_PositionAdvancesPerBatch(t *testing.T) {
	handler := newRouteHandler().
		On("POST", "/v1/playlists/"+playlistID+"/tracks", jsonResponse(201, `{"snapshot_id":"snap-2"}`))
	setupTestEnv(t, handler)

	args := []string{"playlists", "add", playlistID, "--position", "3", "spotify:episode:512ojhOuo1ktJprKbVcKyQ"}
	args = append(args, testIDs(100)...)
	out, _, err := runCommand(t, args...)
	require.NoError(t, err)
	assert.Contains(t, out, "Added 101 item(s)")
	assert.Contains(t, out, "snap-2")

	reqs := handler.Requests()
	require.Len(t, reqs, 2)
	assert.Contains(t, reqs[0].Query, "position=3")
	assert.Contains(t, reqs[1].Query, "position=103")
	assert.Contains(t, reqs[0].Query, "spotify%3Aepisode%3A512ojhOuo1ktJprKbVcKyQ")
}

func TestPlaylistsAdd_RejectsAlbums(t *testing.T) {
	setupTestEnv(t, newRouteHandler())

	_, _, err := runCommand(t, "playlists", "add", playlistID, "spotify:album:"+albumID)
	require.Error(t, err)
	assert.Equal(t, exitUsage, ExitCode(err))
}

func TestPlaylistsUpdate_SendsOnlyChangedFields(t *testing.T) {
	handler := newRouteHandler().On("PUT", "/v1/playlists/"+playlistID, jsonResponse(200, ``))
	setupTestEnv(t, handler)

	_, _, err := runCommand(t, "playlists", "update", playlistID, "--name", "New name", "--public=false")
	require.NoError(t, err)

	reqs := handler.Requests()
	require.Len(t, reqs, 1)
	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(reqs[0].Body), &body))
	assert.Equal(t, map[string]any{"name": "New name", "public": false}, body)
}

func TestPlaylistsUpdate_Validation(t *testing.T) {
	setupTestEnv(t, newRouteHandler())

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"nothing to change", []string{"playlists", "update", playlistID}, "at least one of"},
		{"empty name", []string{"playlists", "update", playlistID, "--name", " "}, "--name must be a non-empty string"},
		{"public collaborative", []string{"playlists", "update", playlistID, "--collaborative", "--public"}, "conflicts with"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := runCommand(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Equal(t, exitUsage, ExitCode(err))
		})
	}
}
