package endpoints

import (
	"net/http"

	"github.com/spotifyweb/spotify-cli/internal/api"
	"github.com/spotifyweb/spotify-cli/internal/model"
)

type GetArtist struct {
	api.EndpointDefaults
	ID string
}

func (GetArtist) Method() string { return http.MethodGet }
func (e GetArtist) Path() string { return "artists/" + api.PathEscape(e.ID) }

// GetArtistAlbums pages through the albums of an artist, optionally limited
// to some album groups.
type GetArtistAlbums struct {
	api.EndpointDefaults
	api.PageableEndpoint
	ID            string
	IncludeGroups []model.IncludeGroup
	Market        model.Market
}

func (GetArtistAlbums) Method() string { return http.MethodGet }
func (e GetArtistAlbums) Path() string { return "artists/" + api.PathEscape(e.ID) + "/albums" }

func (e GetArtistAlbums) Parameters() *api.QueryParams {
	p := api.NewQueryParams()
	if len(e.IncludeGroups) > 0 {
		p.Push("include_groups", e.IncludeGroups)
	}
	return pushMarket(p, e.Market)
}

var (
	_ api.Endpoint = GetArtist{}
	_ api.Pageable = GetArtistAlbums{}
)
