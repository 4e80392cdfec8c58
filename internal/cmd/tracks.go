package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/spotifyweb/spotify-cli/internal/api"
	"github.com/spotifyweb/spotify-cli/internal/endpoints"
	"github.com/spotifyweb/spotify-cli/internal/model"
	"github.com/spotifyweb/spotify-cli/internal/outfmt"
	"github.com/spotifyweb/spotify-cli/internal/timeexpr"
)

// libraryBatchMax is the most IDs the library endpoints accept per request.
const libraryBatchMax = 50

func newTracksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tracks",
		Aliases: []string{"track", "tr"},
		Short:   "Look up tracks and manage saved tracks",
	}

	cmd.AddCommand(newTracksGetCmd())
	cmd.AddCommand(newTracksSavedCmd())
	cmd.AddCommand(newTracksSaveCmd())
	cmd.AddCommand(newTracksRemoveCmd())

	return cmd
}

var trackTable = listTable[model.SimplifiedTrack]{
	headers: []string{"#", "ID", "TITLE", "ARTISTS", "DURATION"},
	row: func(t model.SimplifiedTrack) []string {
		return []string{
			fmt.Sprint(t.TrackNumber),
			t.ID,
			truncateText(t.Name, 40),
			truncateText(artistNames(t.Artists), 30),
			outfmt.FormatDuration(int64(t.DurationMS)),
		}
	},
	empty: "No tracks found",
}

var fullTrackTable = listTable[model.Track]{
	headers: []string{"ID", "TITLE", "ARTISTS", "ALBUM", "DURATION"},
	row: func(t model.Track) []string {
		return []string{
			t.ID,
			truncateText(t.Name, 40),
			truncateText(artistNames(t.Artists), 30),
			truncateText(t.Album.Name, 30),
			outfmt.FormatDuration(int64(t.DurationMS)),
		}
	},
	empty: "No tracks found",
}

var savedTrackTable = listTable[model.SavedTrack]{
	headers: []string{"ADDED", "ID", "TITLE", "ARTISTS", "DURATION"},
	row: func(s model.SavedTrack) []string {
		added := s.AddedAt
		if len(added) >= 10 {
			added = added[:10]
		}
		row := fullTrackTable.row(s.Track)
		return []string{added, row[0], row[1], row[2], row[4]}
	},
	empty: "No saved tracks",
}

func newTracksGetCmd() *cobra.Command {
	var concurrency int

	cmd := &cobra.Command{
		Use:   "get <track>...",
		Short: "Get track details",
		Example: strings.TrimSpace(`
  spotify tracks get 11dFghVXANMlKmJXsNCbNl
  spotify tracks get spotify:track:11dFghVXANMlKmJXsNCbNl --market US -o json
`),
		Args: cobra.MinimumNArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDArgs(args, "track")
			if err != nil {
				return err
			}
			client, err := getClient(cmdContext(cmd))
			if err != nil {
				return err
			}

			m := market()
			if len(ids) == 1 && !isJSON(cmd) {
				track, err := api.Query[model.Track](cmdContext(cmd), endpoints.GetTrack{ID: ids[0], Market: m}, client)
				if err != nil {
					return fmt.Errorf("failed to get track %s: %w", ids[0], err)
				}
				printTrack(cmd, track)
				return nil
			}

			return fetchEach(cmd, ids, concurrency, func(ctx context.Context, id string) (model.Track, error) {
				return api.Query[model.Track](ctx, endpoints.GetTrack{ID: id, Market: m}, client)
			}, fullTrackTable)
		}),
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", DefaultConcurrency, "Maximum concurrent requests")
	return cmd
}

func printTrack(cmd *cobra.Command, t model.Track) {
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", t.Name)
	printField(cmd, "ID", t.ID)
	printField(cmd, "Artists", artistNames(t.Artists))
	printField(cmd, "Album", t.Album.Name)
	printField(cmd, "Track", fmt.Sprintf("%d (disc %d)", t.TrackNumber, t.DiscNumber))
	printField(cmd, "Duration", outfmt.FormatDuration(int64(t.DurationMS)))
	printField(cmd, "Explicit", fmt.Sprint(t.Explicit))
	printField(cmd, "Popularity", fmt.Sprint(t.Popularity))
	if t.IsPlayable != nil {
		printField(cmd, "Playable", fmt.Sprint(*t.IsPlayable))
	}
	printField(cmd, "URI", t.URI)
}

func newTracksSavedCmd() *cobra.Command {
	var (
		pf    pageFlags
		since string
	)

	cmd := &cobra.Command{
		Use:     "saved",
		Aliases: []string{"liked"},
		Short:   "List your saved tracks",
		Example: strings.TrimSpace(`
  spotify tracks saved
  spotify tracks saved --all -o jsonl
  spotify tracks saved --since "2w ago"
`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			pagination, err := pf.pagination(cmd)
			if err != nil {
				return err
			}
			table := savedTrackTable
			if since != "" {
				cutoff, err := timeexpr.ParseSince(since, time.Now())
				if err != nil {
					return fmt.Errorf("invalid --since: %w", err)
				}
				// Saved tracks come newest first, so the listing can end at
				// the first older one.
				table.stop = func(s model.SavedTrack) bool {
					added, err := time.Parse(time.RFC3339, s.AddedAt)
					return err == nil && added.Before(cutoff)
				}
				if !pf.explicit(cmd) {
					pagination = api.PaginateAll()
				}
			}
			client, err := getClient(cmdContext(cmd))
			if err != nil {
				return err
			}
			ep := endpoints.GetUserSavedTracks{Market: market()}
			return listPaged(cmd, client, api.NewPaged(ep, pagination), table)
		}),
	}

	addPageFlags(cmd, &pf)
	cmd.Flags().StringVar(&since, "since", "", `Only tracks saved after this time (e.g. "2w ago", yesterday, 2025-06-01)`)
	return cmd
}

func newTracksSaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save <track>...",
		Short: "Save tracks to your library",
		Example: strings.TrimSpace(`
  spotify tracks save 11dFghVXANMlKmJXsNCbNl 7ouMYWpwJ422jRcDASZB7P
`),
		Args: cobra.MinimumNArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			return updateLibrary(cmd, args, "save", func(ids []string) api.Endpoint {
				return endpoints.SaveTracksForCurrentUser{IDs: ids}
			}, "Saved %d track(s)")
		}),
	}
}

func newTracksRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <track>...",
		Aliases: []string{"rm"},
		Short:   "Remove tracks from your library",
		Args:    cobra.MinimumNArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			return updateLibrary(cmd, args, "remove", func(ids []string) api.Endpoint {
				return endpoints.RemoveUserSavedTracks{IDs: ids}
			}, "Removed %d track(s)")
		}),
	}
}

// updateLibrary sends the library write built by newEndpoint in batches of
// libraryBatchMax IDs.
func updateLibrary(cmd *cobra.Command, args []string, operation string, newEndpoint func([]string) api.Endpoint, done string) error {
	ids, err := parseIDArgs(args, "track")
	if err != nil {
		return err
	}
	ctx := cmdContext(cmd)
	client, err := getClient(ctx)
	if err != nil {
		return err
	}

	var eps []api.Endpoint
	for chunk := range chunkIDs(ids, libraryBatchMax) {
		eps = append(eps, newEndpoint(chunk))
	}
	if stop, err := previewWrite(cmd, client, operation, fmt.Sprintf("%d track(s)", len(ids)), eps...); stop {
		return err
	}
	for _, ep := range eps {
		if err := api.Ignore(ctx, ep, client); err != nil {
			return err
		}
	}

	if isJSON(cmd) {
		return printJSON(cmd, map[string]any{"ids": ids, "success": true})
	}
	printAction(cmd, done, len(ids))
	return nil
}
