package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/spotifyweb/spotify-cli/internal/api"
	"github.com/spotifyweb/spotify-cli/internal/cache"
	"github.com/spotifyweb/spotify-cli/internal/endpoints"
	"github.com/spotifyweb/spotify-cli/internal/model"
)

// marketsTTL is how long the market list is cached. It changes rarely.
const marketsTTL = 24 * time.Hour

func newMeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "me",
		Aliases: []string{"whoami"},
		Short:   "Show the current user's profile",
		Args:    cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			ctx := cmdContext(cmd)
			client, err := getClient(ctx)
			if err != nil {
				return err
			}
			user, err := api.Query[model.User](ctx, endpoints.GetCurrentUserProfile{}, client)
			if err != nil {
				return err
			}
			if isJSON(cmd) {
				return printJSON(cmd, user)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", user.Name())
			printField(cmd, "ID", user.ID)
			if user.Email != "" {
				printField(cmd, "Email", user.Email)
			}
			if user.Country != "" {
				printField(cmd, "Country", user.Country)
			}
			if user.Product != "" {
				printField(cmd, "Product", user.Product)
			}
			if user.Followers != nil {
				printField(cmd, "Followers", fmt.Sprint(user.Followers.Total))
			}
			printField(cmd, "URI", user.URI)
			return nil
		}),
	}
}

func newMarketsCmd() *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "markets",
		Short: "List the markets where Spotify is available",
		Long:  "List the ISO 3166-1 alpha-2 codes accepted by --market. The list is cached for a day.",
		Example: strings.TrimSpace(`
  spotify markets
  spotify markets --refresh -o json
`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			ctx := cmdContext(cmd)
			store := responseCache(ctx)
			const key = "markets"

			var markets model.Markets
			if refresh || store == nil || !cache.GetJSON(ctx, store, key, &markets) {
				client, err := getClient(ctx)
				if err != nil {
					return err
				}
				markets, err = api.Query[model.Markets](ctx, endpoints.GetAvailableMarkets{}, client)
				if err != nil {
					return err
				}
				if store != nil {
					cache.PutJSON(ctx, store, key, markets, marketsTTL)
				}
			}

			if isJSON(cmd) {
				return printJSON(cmd, markets)
			}
			codes := make([]string, 0, len(markets.Markets))
			for _, m := range markets.Markets {
				codes = append(codes, string(m))
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d markets\n", len(codes))
			for start := 0; start < len(codes); start += 16 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), strings.Join(codes[start:min(start+16, len(codes))], " "))
			}
			return nil
		}),
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Ignore the cached list")
	return cmd
}
