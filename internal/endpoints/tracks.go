package endpoints

import (
	"net/http"

	"github.com/spotifyweb/spotify-cli/internal/api"
	"github.com/spotifyweb/spotify-cli/internal/model"
)

type GetTrack struct {
	api.EndpointDefaults
	ID     string
	Market model.Market
}

func (GetTrack) Method() string { return http.MethodGet }
func (e GetTrack) Path() string { return "tracks/" + api.PathEscape(e.ID) }

func (e GetTrack) Parameters() *api.QueryParams {
	return pushMarket(api.NewQueryParams(), e.Market)
}

// GetUserSavedTracks pages through the tracks in the current user's library.
type GetUserSavedTracks struct {
	api.EndpointDefaults
	api.PageableEndpoint
	Market model.Market
}

func (GetUserSavedTracks) Method() string { return http.MethodGet }
func (GetUserSavedTracks) Path() string   { return "me/tracks" }

func (e GetUserSavedTracks) Parameters() *api.QueryParams {
	return pushMarket(api.NewQueryParams(), e.Market)
}

// SaveTracksForCurrentUser adds up to 50 tracks to the user's library.
type SaveTracksForCurrentUser struct {
	api.EndpointDefaults
	IDs []string
}

func (SaveTracksForCurrentUser) Method() string             { return http.MethodPut }
func (SaveTracksForCurrentUser) Path() string               { return "me/tracks" }
func (e SaveTracksForCurrentUser) Body() (*api.Body, error) { return idsBody(e.IDs) }

// RemoveUserSavedTracks removes up to 50 tracks from the user's library.
type RemoveUserSavedTracks struct {
	api.EndpointDefaults
	IDs []string
}

func (RemoveUserSavedTracks) Method() string             { return http.MethodDelete }
func (RemoveUserSavedTracks) Path() string               { return "me/tracks" }
func (e RemoveUserSavedTracks) Body() (*api.Body, error) { return idsBody(e.IDs) }

var (
	_ api.Endpoint = GetTrack{}
	_ api.Pageable = GetUserSavedTracks{}
	_ api.Endpoint = SaveTracksForCurrentUser{}
	_ api.Endpoint = RemoveUserSavedTracks{}
)
