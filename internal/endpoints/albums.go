package endpoints

import (
	"net/http"

	"github.com/spotifyweb/spotify-cli/internal/api"
	"github.com/spotifyweb/spotify-cli/internal/model"
)

// GetAlbum fetches catalog information for a single album.
type GetAlbum struct {
	api.EndpointDefaults
	ID     string
	Market model.Market
}

func (GetAlbum) Method() string { return http.MethodGet }
func (e GetAlbum) Path() string { return "albums/" + api.PathEscape(e.ID) }

func (e GetAlbum) Parameters() *api.QueryParams {
	return pushMarket(api.NewQueryParams(), e.Market)
}

// GetSeveralAlbums fetches up to 20 albums in one request.
type GetSeveralAlbums struct {
	api.EndpointDefaults
	IDs    []string
	Market model.Market
}

func (GetSeveralAlbums) Method() string { return http.MethodGet }
func (GetSeveralAlbums) Path() string   { return "albums" }

func (e GetSeveralAlbums) Parameters() *api.QueryParams {
	return pushMarket(api.NewQueryParams().Push("ids", e.IDs), e.Market)
}

// GetAlbumTracks pages through the tracks of an album.
type GetAlbumTracks struct {
	api.EndpointDefaults
	api.PageableEndpoint
	ID     string
	Market model.Market
}

func (GetAlbumTracks) Method() string { return http.MethodGet }
func (e GetAlbumTracks) Path() string { return "albums/" + api.PathEscape(e.ID) + "/tracks" }

func (e GetAlbumTracks) Parameters() *api.QueryParams {
	return pushMarket(api.NewQueryParams(), e.Market)
}

// GetNewReleases pages through the albums featured in the Browse tab. The
// page is nested under the "albums" key of the response.
type GetNewReleases struct {
	api.EndpointDefaults
	api.PageableEndpoint
}

func (GetNewReleases) Method() string  { return http.MethodGet }
func (GetNewReleases) Path() string    { return "browse/new-releases" }
func (GetNewReleases) PageKey() string { return "albums" }

var (
	_ api.Endpoint  = GetAlbum{}
	_ api.Endpoint  = GetSeveralAlbums{}
	_ api.Pageable  = GetAlbumTracks{}
	_ api.Pageable  = GetNewReleases{}
	_ api.Enveloped = GetNewReleases{}
)
