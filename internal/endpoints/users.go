package endpoints

import (
	"net/http"

	"github.com/spotifyweb/spotify-cli/internal/api"
)

// GetCurrentUserProfile fetches the profile of the user the token belongs to.
type GetCurrentUserProfile struct {
	api.EndpointDefaults
}

func (GetCurrentUserProfile) Method() string { return http.MethodGet }
func (GetCurrentUserProfile) Path() string   { return "me" }

// GetAvailableMarkets lists the markets where Spotify is available.
type GetAvailableMarkets struct {
	api.EndpointDefaults
}

func (GetAvailableMarkets) Method() string { return http.MethodGet }
func (GetAvailableMarkets) Path() string   { return "markets" }

var (
	_ api.Endpoint = GetCurrentUserProfile{}
	_ api.Endpoint = GetAvailableMarkets{}
)
