package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/spotifyweb/spotify-cli/internal/api"
	"github.com/spotifyweb/spotify-cli/internal/auth"
	"github.com/spotifyweb/spotify-cli/internal/config"
	"github.com/spotifyweb/spotify-cli/internal/endpoints"
	"github.com/spotifyweb/spotify-cli/internal/iocontext"
	"github.com/spotifyweb/spotify-cli/internal/model"
)

// newAuthCmd returns the auth command with subcommands
func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage Spotify credentials",
		Long:  "Authorize the CLI against your Spotify app. App credentials and tokens are stored in your OS keychain.",
	}

	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthStatusCmd())
	cmd.AddCommand(newAuthLogoutCmd())
	cmd.AddCommand(newAuthTokenCmd())
	cmd.AddCommand(newAuthProfilesCmd())
	cmd.AddCommand(newAuthSwitchCmd())

	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var (
		clientID          string
		clientSecret      string
		redirectURI       string
		scopes            []string
		clientCredentials bool
		noBrowser         bool
		envFile           string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authorize the CLI",
		Long: strings.TrimSpace(`
Authorize the CLI with the client ID of an app registered at
https://developer.spotify.com/dashboard.

By default the authorization code flow with PKCE is used: a browser window
asks you to grant the requested scopes and the redirect is captured on the
app's redirect URI, which must be a loopback address such as
http://127.0.0.1:8888/callback.

With --client-credentials the app authenticates as itself. No user scopes
are available, so only catalog commands work.
`),
		Example: strings.TrimSpace(`
  # Log in as a user with playlist and library access
  spotify auth login --client-id abc123 --scopes playlist,user-library

  # Paste the redirect URL instead of running a local server
  spotify auth login --client-id abc123 --no-browser

  # App-only access for catalog lookups
  spotify auth login --client-id abc123 --client-secret s3cr3t --client-credentials

  # Save a second profile
  spotify auth login --client-id def456 --profile work
`),
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			if envFile != "" {
				envVars, err := godotenv.Read(envFile)
				if err != nil {
					return fmt.Errorf("failed to read --env-file %q: %w", envFile, err)
				}
				clientID = firstNonEmpty(clientID, envVars["SPOTIFY_CLIENT_ID"])
				clientSecret = firstNonEmpty(clientSecret, envVars["SPOTIFY_CLIENT_SECRET"])
				redirectURI = firstNonEmpty(redirectURI, envVars["SPOTIFY_REDIRECT_URI"])
			}
			clientID = firstNonEmpty(clientID, os.Getenv("SPOTIFY_CLIENT_ID"))
			clientSecret = firstNonEmpty(clientSecret, os.Getenv("SPOTIFY_CLIENT_SECRET"))
			redirectURI = firstNonEmpty(redirectURI, os.Getenv("SPOTIFY_REDIRECT_URI"))

			if clientID == "" {
				return fmt.Errorf("--client-id is required")
			}
			if clientCredentials && clientSecret == "" {
				return fmt.Errorf("--client-secret is required with --client-credentials")
			}
			if clientCredentials && len(scopes) > 0 {
				return fmt.Errorf("--scopes conflicts with --client-credentials")
			}

			name := flags.Profile
			if name == "" {
				name = "default"
			}
			profile := config.Profile{
				ClientID:    clientID,
				RedirectURI: redirectURI,
				Flow:        config.FlowPKCE,
				Scopes:      scopes,
				Market:      string(flags.market),
			}
			if clientCredentials {
				profile.ClientSecret = clientSecret
				profile.Flow = config.FlowClientCredentials
				profile.RedirectURI = ""
			}

			ctx := cmdContext(cmd)
			tok, err := authorize(ctx, profile, noBrowser)
			if err != nil {
				return err
			}

			if err := config.SaveProfile(name, profile); err != nil {
				return fmt.Errorf("failed to save profile: %w", err)
			}
			cfg := config.ClientConfig{ProfileName: name, Profile: profile}
			session, err := newSession(ctx, cfg)
			if err != nil {
				return err
			}
			session.SetToken(ctx, tok)

			if isJSON(cmd) {
				return printJSON(cmd, tokenStatus(name, profile, tok))
			}
			printAction(cmd, "Logged in as profile %s", name)
			printField(cmd, "Flow", profile.Flow)
			if tok.Scope != "" {
				printField(cmd, "Scopes", tok.Scope)
			}
			printField(cmd, "Expires", tok.Expiry().Local().Format(time.RFC1123))
			return nil
		}),
	}

	cmd.Flags().StringVar(&clientID, "client-id", "", "App client ID (env SPOTIFY_CLIENT_ID)")
	cmd.Flags().StringVar(&clientSecret, "client-secret", "", "App client secret, for --client-credentials (env SPOTIFY_CLIENT_SECRET)")
	cmd.Flags().StringVar(&redirectURI, "redirect-uri", "", "Redirect URI registered for the app (default "+config.DefaultRedirectURI+")")
	cmd.Flags().StringSliceVar(&scopes, "scopes", nil, "Scopes or scope groups to request (e.g. playlist,user-library)")
	cmd.Flags().BoolVar(&clientCredentials, "client-credentials", false, "Authenticate as the app instead of a user")
	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "Print the authorization URL and read the redirect URL from stdin")
	cmd.Flags().StringVar(&envFile, "env-file", "", "Load SPOTIFY_CLIENT_ID/SECRET/REDIRECT_URI from a .env file")
	_ = cmd.RegisterFlagCompletionFunc("scopes", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		names := make([]string, 0, len(auth.AllScopes))
		for _, s := range auth.AllScopes {
			names = append(names, string(s))
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// authorize runs the profile's flow and returns the first token.
func authorize(ctx context.Context, profile config.Profile, noBrowser bool) (*auth.Token, error) {
	flow, err := newFlow(ctx, profile)
	if err != nil {
		return nil, err
	}
	ioStreams := iocontext.GetIO(ctx)

	switch f := flow.(type) {
	case *auth.ClientCredentials:
		return f.RequestToken(ctx)
	case *auth.AuthCodePKCE:
		authURL, err := f.AuthorizationURL()
		if err != nil {
			return nil, err
		}
		var redirect string
		if noBrowser {
			redirect, err = readRedirect(ioStreams.In, ioStreams.ErrOut, authURL)
		} else {
			var server *auth.CallbackServer
			server, err = auth.NewCallbackServer(profile.Redirect())
			if err != nil {
				return nil, err
			}
			server.Out = ioStreams.ErrOut
			redirect, err = server.Authorize(ctx, authURL)
		}
		if err != nil {
			return nil, err
		}
		return f.RequestTokenFromRedirectURL(ctx, redirect)
	default:
		return nil, fmt.Errorf("unsupported flow %T", flow)
	}
}

func readRedirect(in io.Reader, out io.Writer, authURL string) (string, error) {
	_, _ = fmt.Fprintf(out, "Open this URL in your browser to authorize:\n  %s\n", authURL)
	_, _ = fmt.Fprint(out, "Paste the URL you were redirected to: ")
	line, err := bufio.NewReader(in).ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		if err == nil || errors.Is(err, io.EOF) {
			return "", fmt.Errorf("redirect URL is required")
		}
		return "", fmt.Errorf("failed to read redirect URL: %w", err)
	}
	return line, nil
}

func newAuthStatusCmd() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the active profile and token",
		Example: strings.TrimSpace(`
  spotify auth status
  spotify auth status --check --json
`),
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			ctx := cmdContext(cmd)
			if os.Getenv(envAccessToken) != "" {
				if isJSON(cmd) {
					return printJSON(cmd, map[string]any{"authenticated": true, "source": "env"})
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Authenticated with "+envAccessToken)
				return nil
			}

			cfg, err := config.ResolveClientConfig(flags.Profile, "")
			if err != nil {
				if errors.Is(err, config.ErrNotConfigured) {
					if isJSON(cmd) {
						return printJSON(cmd, map[string]any{
							"authenticated": false,
							"message":       "Not authenticated. Run 'spotify auth login'.",
						})
					}
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Not authenticated.")
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Run 'spotify auth login' to authorize the CLI.")
					return nil
				}
				return err
			}

			store, key := tokenCache(ctx, cfg)
			tok := cachedToken(ctx, store, key)
			status := tokenStatus(cfg.ProfileName, cfg.Profile, tok)

			if check {
				user, err := checkToken(ctx, cfg)
				if err != nil {
					return err
				}
				if user != nil {
					status["user"] = user.Name()
				}
			}

			if isJSON(cmd) {
				return printJSON(cmd, status)
			}

			out := cmd.OutOrStdout()
			if tok == nil {
				_, _ = fmt.Fprintf(out, "Profile %s has no token. Run 'spotify auth login'.\n", cfg.ProfileName)
				return nil
			}
			_, _ = fmt.Fprintln(out, "Authenticated")
			printField(cmd, "Profile", cfg.ProfileName)
			printField(cmd, "Flow", cfg.Profile.Flow)
			printField(cmd, "Client ID", maskToken(cfg.Profile.ClientID))
			if tok.Scope != "" {
				printField(cmd, "Scopes", tok.Scope)
			}
			printField(cmd, "Expires", tok.Expiry().Local().Format(time.RFC1123))
			printField(cmd, "Refreshable", fmt.Sprint(tok.RefreshToken != ""))
			if user, ok := status["user"].(string); ok {
				printField(cmd, "User", user)
			}
			return nil
		}),
	}

	cmd.Flags().BoolVar(&check, "check", false, "Verify the token with a Web API call")
	return cmd
}

func cachedToken(ctx context.Context, store auth.TokenCache, key string) *auth.Token {
	if store == nil {
		return nil
	}
	data, ok, err := store.Get(ctx, key)
	if err != nil || !ok {
		return nil
	}
	var tok auth.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil
	}
	return &tok
}

func tokenStatus(profileName string, profile config.Profile, tok *auth.Token) map[string]any {
	status := map[string]any{
		"authenticated": tok != nil,
		"profile":       profileName,
		"flow":          profile.Flow,
		"client_id":     maskToken(profile.ClientID),
	}
	if tok != nil {
		status["expires_at"] = tok.Expiry().UTC().Format(time.RFC3339)
		status["expired"] = tok.Expired()
		status["refreshable"] = tok.RefreshToken != ""
		if tok.Scope != "" {
			status["scopes"] = strings.Fields(tok.Scope)
		}
	}
	return status
}

// checkToken makes one authenticated call. User tokens report the profile
// owner; app tokens have no user and return nil.
func checkToken(ctx context.Context, cfg config.ClientConfig) (*model.User, error) {
	client, err := newClientFactory().client(ctx)
	if err != nil {
		return nil, err
	}
	if cfg.Profile.Flow == config.FlowClientCredentials {
		return nil, api.Ignore(ctx, endpoints.GetAvailableMarkets{}, client)
	}
	user, err := api.Query[model.User](ctx, endpoints.GetCurrentUserProfile{}, client)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func newAuthLogoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove a profile and its token",
		Example: strings.TrimSpace(`
  spotify auth logout
  spotify auth logout --profile work
`),
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			ctx := cmdContext(cmd)
			name := flags.Profile
			if name == "" {
				current, err := config.CurrentProfile()
				if err != nil {
					return err
				}
				name = current
			}

			profile, err := config.LoadProfile(name)
			if errors.Is(err, config.ErrNotConfigured) {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No credentials found.")
				return nil
			}
			if err != nil {
				return err
			}

			store, key := tokenCache(ctx, config.ClientConfig{ProfileName: name, Profile: profile})
			if store != nil {
				if err := store.Delete(ctx, key); err != nil {
					warnf(ctx, "failed to remove cached token: %v", err)
				}
			}
			if err := config.DeleteProfile(name); err != nil {
				return fmt.Errorf("failed to remove credentials: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Profile %s removed.\n", name)
			return nil
		}),
	}
	return cmd
}

func newAuthTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Print a valid access token",
		Long:  "Print an access token for the active profile, refreshing it first when it is about to expire.",
		Example: strings.TrimSpace(`
  curl -H "Authorization: Bearer $(spotify auth token)" https://api.spotify.com/v1/me
`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			ctx := cmdContext(cmd)
			client, err := getClient(ctx)
			if err != nil {
				return err
			}
			token, err := client.Tokens.AccessToken(ctx)
			if err != nil {
				return err
			}
			if isJSON(cmd) {
				return printJSON(cmd, map[string]string{"access_token": token})
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		}),
	}
}

func newAuthProfilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "profiles",
		Aliases: []string{"ls"},
		Short:   "List saved profiles",
		Args:    cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			profiles, err := config.ListProfiles()
			if err != nil {
				return err
			}
			current, _ := config.CurrentProfile()
			slices.Sort(profiles)

			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{"current": current, "profiles": profiles})
			}
			f := newFormatter(cmd)
			if len(profiles) == 0 {
				f.Empty("No profiles saved. Run 'spotify auth login'.")
				return nil
			}
			f.StartTable([]string{"", "PROFILE", "FLOW", "MARKET"})
			for _, name := range profiles {
				marker := ""
				if name == current {
					marker = "*"
				}
				p, err := config.LoadProfile(name)
				if err != nil {
					f.Row(marker, name, "?", "")
					continue
				}
				f.Row(marker, name, p.Flow, p.Market)
			}
			return f.EndTable()
		}),
	}
}

func newAuthSwitchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "switch <profile>",
		Short: "Make a saved profile the active one",
		Args:  cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			if _, err := config.LoadProfile(name); err != nil {
				return fmt.Errorf("profile %q: %w", name, err)
			}
			if err := config.SetCurrentProfile(name); err != nil {
				return err
			}
			printAction(cmd, "Switched to profile %s", name)
			return nil
		}),
	}
}

// maskToken masks a secret for display, showing only first and last 4 characters
func maskToken(token string) string {
	if len(token) < 8 {
		return strings.Repeat("*", len(token))
	}
	return token[:4] + strings.Repeat("*", len(token)-8) + token[len(token)-4:]
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
