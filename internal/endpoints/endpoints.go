// Package endpoints holds typed descriptions of Web API calls. Each type
// implements api.Endpoint and is executed with api.Query, api.Ignore or one of
// the paged entry points.
package endpoints

import (
	"github.com/spotifyweb/spotify-cli/internal/api"
	"github.com/spotifyweb/spotify-cli/internal/model"
)

// pushMarket adds the market parameter when one is selected.
func pushMarket(p *api.QueryParams, market model.Market) *api.QueryParams {
	if market != "" {
		p.Push("market", market)
	}
	return p
}

func idsBody(ids []string) (*api.Body, error) {
	if ids == nil {
		ids = []string{}
	}
	return api.NewJSONParams().Push("ids", ids).Body()
}
