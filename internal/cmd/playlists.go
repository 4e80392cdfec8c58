package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spotifyweb/spotify-cli/internal/api"
	"github.com/spotifyweb/spotify-cli/internal/endpoints"
	"github.com/spotifyweb/spotify-cli/internal/model"
	"github.com/spotifyweb/spotify-cli/internal/outfmt"
	"github.com/spotifyweb/spotify-cli/internal/resolve"
	"github.com/spotifyweb/spotify-cli/internal/urlparse"
)

// playlistAddMax is the most URIs one add request carries.
const playlistAddMax = 100

func newPlaylistsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "playlists",
		Aliases: []string{"playlist", "pl"},
		Short:   "Browse and edit playlists",
		Long: strings.TrimSpace(`
Browse and edit playlists.

Commands taking a <playlist> accept an ID, a spotify:playlist URI, an
open.spotify.com link, or the name of one of your playlists.
`),
	}

	cmd.AddCommand(newPlaylistsMineCmd())
	cmd.AddCommand(newPlaylistsGetCmd())
	cmd.AddCommand(newPlaylistsItemsCmd())
	cmd.AddCommand(newPlaylistsAddCmd())
	cmd.AddCommand(newPlaylistsUpdateCmd())

	return cmd
}

var playlistTable = listTable[model.SimplifiedPlaylist]{
	headers: []string{"ID", "NAME", "OWNER", "TRACKS", "PUBLIC"},
	row: func(p model.SimplifiedPlaylist) []string {
		return []string{
			p.ID,
			truncateText(p.Name, 40),
			p.Owner.Name(),
			fmt.Sprint(p.Tracks.Total),
			visibility(p.Public),
		}
	},
	empty: "No playlists found",
}

var playlistItemTable = listTable[model.PlaylistTrack]{
	headers: []string{"ADDED", "ID", "TITLE", "ARTISTS", "DURATION"},
	row: func(item model.PlaylistTrack) []string {
		added := item.AddedAt
		if len(added) >= 10 {
			added = added[:10]
		}
		if item.Track == nil {
			return []string{added, "", "(unavailable)", "", ""}
		}
		t := item.Track
		return []string{
			added,
			t.ID,
			truncateText(t.Name, 40),
			truncateText(artistNames(t.Artists), 30),
			outfmt.FormatDuration(int64(t.DurationMS)),
		}
	},
	empty: "Playlist is empty",
}

func visibility(public *bool) string {
	switch {
	case public == nil:
		return "-"
	case *public:
		return "yes"
	default:
		return "no"
	}
}

// playlistArg resolves a <playlist> argument, matching names against the
// user's playlists.
func playlistArg(cmd *cobra.Command, client api.Client, ref string) (string, error) {
	return resolve.PlaylistID(cmdContext(cmd), client, ref)
}

func newPlaylistsMineCmd() *cobra.Command {
	var pf pageFlags

	cmd := &cobra.Command{
		Use:     "mine",
		Aliases: []string{"list", "ls"},
		Short:   "List your playlists",
		Example: strings.TrimSpace(`
  spotify playlists mine
  spotify playlists mine --all --jq '.[].name'
`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			pagination, err := pf.pagination(cmd)
			if err != nil {
				return err
			}
			client, err := getClient(cmdContext(cmd))
			if err != nil {
				return err
			}
			return listPaged(cmd, client, api.NewPaged(endpoints.GetCurrentUserPlaylists{}, pagination), playlistTable)
		}),
	}

	addPageFlags(cmd, &pf)
	return cmd
}

func newPlaylistsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <playlist>",
		Short: "Get playlist details",
		Example: strings.TrimSpace(`
  spotify playlists get 37i9dQZF1DXcBWIGoYBM5M
  spotify playlists get "Road trip"
`),
		Args: cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			ctx := cmdContext(cmd)
			client, err := getClient(ctx)
			if err != nil {
				return err
			}
			id, err := playlistArg(cmd, client, args[0])
			if err != nil {
				return err
			}

			p, err := api.Query[model.Playlist](ctx, endpoints.GetPlaylist{ID: id, Market: market()}, client)
			if err != nil {
				return fmt.Errorf("failed to get playlist %s: %w", id, err)
			}
			if isJSON(cmd) {
				return printJSON(cmd, p)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", p.Name)
			printField(cmd, "ID", p.ID)
			printField(cmd, "Owner", p.Owner.Name())
			if p.Description != nil && *p.Description != "" {
				printField(cmd, "Description", truncateText(*p.Description, 80))
			}
			printField(cmd, "Public", visibility(p.Public))
			printField(cmd, "Collab", fmt.Sprint(p.Collaborative))
			printField(cmd, "Followers", fmt.Sprint(p.Followers.Total))
			printField(cmd, "Tracks", fmt.Sprint(p.Tracks.Total))
			printField(cmd, "Snapshot", p.SnapshotID)
			return nil
		}),
	}
}

func newPlaylistsItemsCmd() *cobra.Command {
	var pf pageFlags

	cmd := &cobra.Command{
		Use:     "items <playlist>",
		Aliases: []string{"tracks"},
		Short:   "List the items of a playlist",
		Example: strings.TrimSpace(`
  spotify playlists items 37i9dQZF1DXcBWIGoYBM5M --limit 100
  spotify playlists items "Road trip" --all -o jsonl
`),
		Args: cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			pagination, err := pf.pagination(cmd)
			if err != nil {
				return err
			}
			client, err := getClient(cmdContext(cmd))
			if err != nil {
				return err
			}
			id, err := playlistArg(cmd, client, args[0])
			if err != nil {
				return err
			}
			ep := endpoints.GetPlaylistItems{ID: id, Market: market()}
			return listPaged(cmd, client, api.NewPaged(ep, pagination), playlistItemTable)
		}),
	}

	addPageFlags(cmd, &pf)
	return cmd
}

func newPlaylistsAddCmd() *cobra.Command {
	var position int

	cmd := &cobra.Command{
		Use:   "add <playlist> <item>...",
		Short: "Add tracks or episodes to a playlist",
		Long:  "Add items to a playlist. Items are track or episode IDs, URIs or links; bare IDs are taken as tracks.",
		Example: strings.TrimSpace(`
  spotify playlists add 37i9dQZF1DXcBWIGoYBM5M 11dFghVXANMlKmJXsNCbNl
  spotify playlists add "Road trip" spotify:episode:512ojhOuo1ktJprKbVcKyQ --position 0
`),
		Args: cobra.MinimumNArgs(2),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			var uris []string
			for _, arg := range args[1:] {
				for _, ref := range splitCommaList(arg) {
					uri, err := urlparse.ParseItemURI(ref)
					if err != nil {
						return err
					}
					uris = append(uris, uri)
				}
			}
			if len(uris) == 0 {
				return fmt.Errorf("at least one item is required")
			}
			if cmd.Flags().Changed("position") && position < 0 {
				return fmt.Errorf("--position must be >= 0")
			}

			ctx := cmdContext(cmd)
			client, err := getClient(ctx)
			if err != nil {
				return err
			}
			id, err := playlistArg(cmd, client, args[0])
			if err != nil {
				return err
			}

			var (
				snapshot model.Snapshot
				pos      *int
			)
			if cmd.Flags().Changed("position") {
				pos = &position
			}
			var eps []api.Endpoint
			for chunk := range chunkIDs(uris, playlistAddMax) {
				eps = append(eps, endpoints.AddItemsToPlaylist{ID: id, URIs: chunk, Position: pos})
				if pos != nil {
					next := *pos + len(chunk)
					pos = &next
				}
			}
			if stop, err := previewWrite(cmd, client, "add", fmt.Sprintf("%d item(s) to playlist %s", len(uris), id), eps...); stop {
				return err
			}
			for _, ep := range eps {
				snapshot, err = api.Query[model.Snapshot](ctx, ep, client)
				if err != nil {
					return err
				}
			}

			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{
					"playlist_id": id,
					"added":       len(uris),
					"snapshot_id": snapshot.SnapshotID,
				})
			}
			printAction(cmd, "Added %d item(s) to playlist %s (snapshot %s)", len(uris), id, snapshot.SnapshotID)
			return nil
		}),
	}

	cmd.Flags().IntVar(&position, "position", 0, "Zero-based index to insert at (default: append)")
	return cmd
}

func newPlaylistsUpdateCmd() *cobra.Command {
	var (
		name          string
		description   string
		public        bool
		collaborative bool
	)

	cmd := &cobra.Command{
		Use:     "update <playlist>",
		Aliases: []string{"edit", "rename"},
		Short:   "Change playlist details",
		Example: strings.TrimSpace(`
  spotify playlists update 37i9dQZF1DXcBWIGoYBM5M --name "Road trip 2026"
  spotify playlists update "Road trip" --public=false --description ""
`),
		Args: cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			ep := endpoints.ChangePlaylistDetails{
				Name:          stringPtrIfChanged(cmd, "name", name),
				Description:   stringPtrIfChanged(cmd, "description", description),
				Public:        boolPtrIfChanged(cmd, "public", public),
				Collaborative: boolPtrIfChanged(cmd, "collaborative", collaborative),
			}
			if ep.Name == nil && ep.Description == nil && ep.Public == nil && ep.Collaborative == nil {
				return fmt.Errorf("at least one of --name, --description, --public or --collaborative is required")
			}
			if ep.Name != nil && strings.TrimSpace(*ep.Name) == "" {
				return fmt.Errorf("--name must be a non-empty string")
			}
			if ep.Collaborative != nil && *ep.Collaborative && ep.Public != nil && *ep.Public {
				return fmt.Errorf("--collaborative conflicts with --public=true")
			}

			ctx := cmdContext(cmd)
			client, err := getClient(ctx)
			if err != nil {
				return err
			}
			ep.ID, err = playlistArg(cmd, client, args[0])
			if err != nil {
				return err
			}
			if stop, err := previewWrite(cmd, client, "update", "playlist "+ep.ID, ep); stop {
				return err
			}
			if err := api.Ignore(ctx, ep, client); err != nil {
				return err
			}

			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{"playlist_id": ep.ID, "success": true})
			}
			printAction(cmd, "Updated playlist %s", ep.ID)
			return nil
		}),
	}

	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	cmd.Flags().BoolVar(&public, "public", false, "Show the playlist on your profile")
	cmd.Flags().BoolVar(&collaborative, "collaborative", false, "Let others edit the playlist (requires --public=false)")
	return cmd
}
