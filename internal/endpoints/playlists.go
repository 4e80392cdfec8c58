package endpoints

import (
	"net/http"

	"github.com/spotifyweb/spotify-cli/internal/api"
	"github.com/spotifyweb/spotify-cli/internal/model"
)

// GetPlaylist fetches a playlist with the first page of its items.
type GetPlaylist struct {
	api.EndpointDefaults
	ID     string
	Market model.Market
}

func (GetPlaylist) Method() string { return http.MethodGet }
func (e GetPlaylist) Path() string { return "playlists/" + api.PathEscape(e.ID) }

func (e GetPlaylist) Parameters() *api.QueryParams {
	return pushMarket(api.NewQueryParams(), e.Market)
}

// GetPlaylistItems pages through the tracks and episodes of a playlist.
type GetPlaylistItems struct {
	api.EndpointDefaults
	api.PageableEndpoint
	ID     string
	Market model.Market
}

func (GetPlaylistItems) Method() string { return http.MethodGet }
func (e GetPlaylistItems) Path() string { return "playlists/" + api.PathEscape(e.ID) + "/tracks" }

func (e GetPlaylistItems) Parameters() *api.QueryParams {
	return pushMarket(api.NewQueryParams(), e.Market)
}

// GetCurrentUserPlaylists pages through the playlists owned or followed by
// the current user.
type GetCurrentUserPlaylists struct {
	api.EndpointDefaults
	api.PageableEndpoint
}

func (GetCurrentUserPlaylists) Method() string { return http.MethodGet }
func (GetCurrentUserPlaylists) Path() string   { return "me/playlists" }

// AddItemsToPlaylist inserts track or episode URIs into a playlist. Items are
// appended unless Position is set. The response is a model.Snapshot.
type AddItemsToPlaylist struct {
	api.EndpointDefaults
	ID       string
	URIs     []string
	Position *int
}

func (AddItemsToPlaylist) Method() string { return http.MethodPost }
func (e AddItemsToPlaylist) Path() string { return "playlists/" + api.PathEscape(e.ID) + "/tracks" }

func (e AddItemsToPlaylist) Parameters() *api.QueryParams {
	return api.NewQueryParams().
		Push("uris", e.URIs).
		PushOpt("position", e.Position)
}

// ChangePlaylistDetails updates the attributes of a playlist. Nil fields are
// left unchanged.
type ChangePlaylistDetails struct {
	api.EndpointDefaults
	ID            string
	Name          *string
	Public        *bool
	Collaborative *bool
	Description   *string
}

func (ChangePlaylistDetails) Method() string { return http.MethodPut }
func (e ChangePlaylistDetails) Path() string { return "playlists/" + api.PathEscape(e.ID) }

func (e ChangePlaylistDetails) Body() (*api.Body, error) {
	return api.NewJSONParams().
		PushOpt("name", e.Name).
		PushOpt("public", e.Public).
		PushOpt("collaborative", e.Collaborative).
		PushOpt("description", e.Description).
		Body()
}

var (
	_ api.Endpoint = GetPlaylist{}
	_ api.Pageable = GetPlaylistItems{}
	_ api.Pageable = GetCurrentUserPlaylists{}
	_ api.Endpoint = AddItemsToPlaylist{}
	_ api.Endpoint = ChangePlaylistDetails{}
)
