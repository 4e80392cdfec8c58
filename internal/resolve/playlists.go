package resolve

import (
	"context"

	"github.com/spotifyweb/spotify-cli/internal/api"
	"github.com/spotifyweb/spotify-cli/internal/endpoints"
	"github.com/spotifyweb/spotify-cli/internal/model"
	"github.com/spotifyweb/spotify-cli/internal/urlparse"
)

// Playlists lists the current user's playlists as Named items.
func Playlists(ctx context.Context, c api.Client) ([]Named, error) {
	var items []Named
	it := api.Iterate[model.SimplifiedPlaylist](api.PagedAll(endpoints.GetCurrentUserPlaylists{}), c)
	for p, err := range it.All(ctx) {
		if err != nil {
			return nil, err
		}
		items = append(items, Named{ID: p.ID, Name: p.Name})
	}
	return items, nil
}

// PlaylistID resolves ref to a playlist ID. IDs, URIs and links are parsed
// directly; anything else is matched against the user's playlist names.
func PlaylistID(ctx context.Context, c api.Client, ref string) (string, error) {
	if id, err := urlparse.ParseID(ref, "playlist"); err == nil {
		return id, nil
	}
	items, err := Playlists(ctx, c)
	if err != nil {
		return "", err
	}
	return FuzzyMatch(ref, items)
}
