package cmd

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spotifyweb/spotify-cli/internal/api"
	"github.com/spotifyweb/spotify-cli/internal/endpoints"
	"github.com/spotifyweb/spotify-cli/internal/model"
	"github.com/spotifyweb/spotify-cli/internal/outfmt"
)

// severalAlbumsMax is the most IDs GET /albums accepts.
const severalAlbumsMax = 20

func newAlbumsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "albums",
		Aliases: []string{"album", "al"},
		Short:   "Look up albums",
	}

	cmd.AddCommand(newAlbumsGetCmd())
	cmd.AddCommand(newAlbumsSeveralCmd())
	cmd.AddCommand(newAlbumsTracksCmd())
	cmd.AddCommand(newAlbumsNewReleasesCmd())

	return cmd
}

var albumTable = listTable[model.SimplifiedAlbum]{
	headers: []string{"ID", "NAME", "ARTISTS", "TYPE", "RELEASED", "TRACKS"},
	row: func(a model.SimplifiedAlbum) []string {
		return []string{
			a.ID,
			truncateText(a.Name, 40),
			truncateText(artistNames(a.Artists), 30),
			a.AlbumType,
			a.ReleaseDate,
			fmt.Sprint(a.TotalTracks),
		}
	},
	empty: "No albums found",
}

func fullAlbumTable() listTable[model.Album] {
	return listTable[model.Album]{
		headers: albumTable.headers,
		row:     func(a model.Album) []string { return albumTable.row(a.SimplifiedAlbum) },
	}
}

func newAlbumsGetCmd() *cobra.Command {
	var concurrency int

	cmd := &cobra.Command{
		Use:   "get <album>...",
		Short: "Get album details",
		Long:  "Get albums by ID, spotify:album URI or open.spotify.com link. Several albums are fetched concurrently.",
		Example: strings.TrimSpace(`
  # Get one album
  spotify albums get 4aawyAB9vmqN3uQ7FjRGTy

  # Links work too
  spotify albums get https://open.spotify.com/album/4aawyAB9vmqN3uQ7FjRGTy

  # Several albums as JSON
  spotify albums get 4aawyAB9vmqN3uQ7FjRGTy,2noRn2Aes5aoNVsU6iWThc -o json
`),
		Args: cobra.MinimumNArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDArgs(args, "album")
			if err != nil {
				return err
			}
			client, err := getClient(cmdContext(cmd))
			if err != nil {
				return err
			}

			m := market()
			if len(ids) == 1 && !isJSON(cmd) {
				album, err := api.Query[model.Album](cmdContext(cmd), endpoints.GetAlbum{ID: ids[0], Market: m}, client)
				if err != nil {
					return fmt.Errorf("failed to get album %s: %w", ids[0], err)
				}
				printAlbum(cmd, album)
				return nil
			}

			return fetchEach(cmd, ids, concurrency, func(ctx context.Context, id string) (model.Album, error) {
				return api.Query[model.Album](ctx, endpoints.GetAlbum{ID: id, Market: m}, client)
			}, fullAlbumTable())
		}),
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", DefaultConcurrency, "Maximum concurrent requests")
	return cmd
}

func printAlbum(cmd *cobra.Command, a model.Album) {
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "%s\n", a.Name)
	printField(cmd, "ID", a.ID)
	printField(cmd, "Artists", artistNames(a.Artists))
	printField(cmd, "Type", a.AlbumType)
	printField(cmd, "Released", a.ReleaseDate)
	if a.Label != "" {
		printField(cmd, "Label", a.Label)
	}
	printField(cmd, "Tracks", fmt.Sprint(a.TotalTracks))
	printField(cmd, "Popularity", fmt.Sprint(a.Popularity))
	printField(cmd, "URL", a.ExternalURLs.Spotify)

	if len(a.Tracks.Items) == 0 {
		return
	}
	_, _ = fmt.Fprintln(out)
	f := newFormatter(cmd)
	f.StartTable([]string{"#", "TITLE", "DURATION"})
	for _, t := range a.Tracks.Items {
		f.Row(fmt.Sprint(t.TrackNumber), t.Name, outfmt.FormatDuration(int64(t.DurationMS)))
	}
	_ = f.EndTable()
	if a.Tracks.Total > len(a.Tracks.Items) {
		_, _ = fmt.Fprintf(out, "... %d more, see 'spotify albums tracks %s'\n", a.Tracks.Total-len(a.Tracks.Items), a.ID)
	}
}

func newAlbumsSeveralCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "several <album>...",
		Short: "Get albums in batched requests",
		Long:  fmt.Sprintf("Get albums with GET /albums, %d per request. Unknown IDs are reported as missing.", severalAlbumsMax),
		Example: strings.TrimSpace(`
  spotify albums several 4aawyAB9vmqN3uQ7FjRGTy 2noRn2Aes5aoNVsU6iWThc
`),
		Args: cobra.MinimumNArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDArgs(args, "album")
			if err != nil {
				return err
			}
			ctx := cmdContext(cmd)
			client, err := getClient(ctx)
			if err != nil {
				return err
			}

			var albums []model.Album
			missing := 0
			m := market()
			for chunk := range chunkIDs(ids, severalAlbumsMax) {
				resp, err := api.Query[severalAlbums](ctx, endpoints.GetSeveralAlbums{IDs: chunk, Market: m}, client)
				if err != nil {
					return err
				}
				for _, a := range resp.Albums {
					if a == nil {
						missing++
						continue
					}
					albums = append(albums, *a)
				}
			}
			if missing > 0 {
				warnf(ctx, "%d of %d albums not found", missing, len(ids))
			}

			if isJSON(cmd) {
				if albums == nil {
					albums = []model.Album{}
				}
				return printJSON(cmd, albums)
			}
			f := newFormatter(cmd)
			if len(albums) == 0 {
				f.Empty(albumTable.empty)
				return nil
			}
			table := fullAlbumTable()
			f.StartTable(table.headers)
			for _, a := range albums {
				f.Row(table.row(a)...)
			}
			return f.EndTable()
		}),
	}
	return cmd
}

// severalAlbums decodes GET /albums, which returns null for unknown IDs.
type severalAlbums struct {
	Albums []*model.Album `json:"albums"`
}

// chunkIDs yields ids in slices of at most size.
func chunkIDs(ids []string, size int) iter.Seq[[]string] {
	return func(yield func([]string) bool) {
		for start := 0; start < len(ids); start += size {
			if !yield(ids[start:min(start+size, len(ids))]) {
				return
			}
		}
	}
}

func newAlbumsTracksCmd() *cobra.Command {
	var pf pageFlags

	cmd := &cobra.Command{
		Use:   "tracks <album>",
		Short: "List the tracks of an album",
		Example: strings.TrimSpace(`
  spotify albums tracks 4aawyAB9vmqN3uQ7FjRGTy --all
  spotify albums tracks 4aawyAB9vmqN3uQ7FjRGTy --offset 10 --page-size 5 -o jsonl
`),
		Args: cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDArgs(args, "album")
			if err != nil {
				return err
			}
			pagination, err := pf.pagination(cmd)
			if err != nil {
				return err
			}
			client, err := getClient(cmdContext(cmd))
			if err != nil {
				return err
			}

			ep := endpoints.GetAlbumTracks{ID: ids[0], Market: market()}
			return listPaged(cmd, client, api.NewPaged(ep, pagination), trackTable)
		}),
	}

	addPageFlags(cmd, &pf)
	return cmd
}

func newAlbumsNewReleasesCmd() *cobra.Command {
	var pf pageFlags

	cmd := &cobra.Command{
		Use:     "new-releases",
		Aliases: []string{"new"},
		Short:   "List new album releases",
		Example: strings.TrimSpace(`
  spotify albums new-releases --limit 10
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
			return listPaged(cmd, client, api.NewPaged(endpoints.GetNewReleases{}, pagination), albumTable)
		}),
	}

	addPageFlags(cmd, &pf)
	return cmd
}
