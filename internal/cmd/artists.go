package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spotifyweb/spotify-cli/internal/api"
	"github.com/spotifyweb/spotify-cli/internal/endpoints"
	"github.com/spotifyweb/spotify-cli/internal/model"
)

func newArtistsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "artists",
		Aliases: []string{"artist", "ar"},
		Short:   "Look up artists",
	}

	cmd.AddCommand(newArtistsGetCmd())
	cmd.AddCommand(newArtistsAlbumsCmd())

	return cmd
}

var artistTable = listTable[model.Artist]{
	headers: []string{"ID", "NAME", "FOLLOWERS", "POPULARITY", "GENRES"},
	row: func(a model.Artist) []string {
		return []string{
			a.ID,
			a.Name,
			fmt.Sprint(a.Followers.Total),
			fmt.Sprint(a.Popularity),
			truncateText(strings.Join(a.Genres, ", "), 40),
		}
	},
}

func newArtistsGetCmd() *cobra.Command {
	var concurrency int

	cmd := &cobra.Command{
		Use:   "get <artist>...",
		Short: "Get artist details",
		Example: strings.TrimSpace(`
  spotify artists get 0TnOYISbd1XYRBk9myaseg
  spotify artists get 0TnOYISbd1XYRBk9myaseg,3TVXtAsR1Inumwj472S9r4 -o json
`),
		Args: cobra.MinimumNArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDArgs(args, "artist")
			if err != nil {
				return err
			}
			client, err := getClient(cmdContext(cmd))
			if err != nil {
				return err
			}
			return fetchEach(cmd, ids, concurrency, func(ctx context.Context, id string) (model.Artist, error) {
				return api.Query[model.Artist](ctx, endpoints.GetArtist{ID: id}, client)
			}, artistTable)
		}),
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", DefaultConcurrency, "Maximum concurrent requests")
	return cmd
}

func newArtistsAlbumsCmd() *cobra.Command {
	var (
		pf            pageFlags
		includeGroups string
	)

	cmd := &cobra.Command{
		Use:   "albums <artist>",
		Short: "List the albums of an artist",
		Example: strings.TrimSpace(`
  # Studio albums and singles only
  spotify artists albums 0TnOYISbd1XYRBk9myaseg --include-groups album,single

  # Everything, as JSON lines
  spotify artists albums 0TnOYISbd1XYRBk9myaseg --all -o jsonl
`),
		Args: cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDArgs(args, "artist")
			if err != nil {
				return err
			}
			groups, err := model.ParseIncludeGroups(includeGroups)
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

			ep := endpoints.GetArtistAlbums{ID: ids[0], IncludeGroups: groups, Market: market()}
			return listPaged(cmd, client, api.NewPaged(ep, pagination), albumTable)
		}),
	}

	addPageFlags(cmd, &pf)
	cmd.Flags().StringVar(&includeGroups, "include-groups", "", "Comma-separated album groups: album, single, appears_on, compilation")
	_ = cmd.RegisterFlagCompletionFunc("include-groups", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"album", "single", "appears_on", "compilation"}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}
