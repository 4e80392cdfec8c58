package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/spotifyweb/spotify-cli/internal/config"
	"github.com/spotifyweb/spotify-cli/internal/debug"
	"github.com/spotifyweb/spotify-cli/internal/dryrun"
	"github.com/spotifyweb/spotify-cli/internal/iocontext"
	"github.com/spotifyweb/spotify-cli/internal/model"
	"github.com/spotifyweb/spotify-cli/internal/outfmt"
	"github.com/spotifyweb/spotify-cli/internal/spotify"
)

// rootFlags holds global CLI flags
type rootFlags struct {
	Output   string
	JSON     bool
	Query    string
	JQ       string
	Template string
	Compact  bool
	Debug    bool
	Quiet    bool
	DryRun   bool
	Timeout  time.Duration
	Profile  string
	Market   string
	APIURL   string

	MaxRateLimitRetries     int
	Max5xxRetries           int
	RateLimitDelay          time.Duration
	ServerErrorDelay        time.Duration
	CircuitBreakerThreshold int
	CircuitBreakerResetTime time.Duration

	MaxRateLimitRetriesSet     bool
	Max5xxRetriesSet           bool
	RateLimitDelaySet          bool
	ServerErrorDelaySet        bool
	CircuitBreakerThresholdSet bool
	CircuitBreakerResetTimeSet bool

	// market is the parsed form of Market, set in PersistentPreRunE.
	market model.Market
}

// flags holds the global command flags. This is package-level mutable state
// that MUST be reset at the start of every Execute() call. Tests depend on
// this reset to get clean state; any code that reads flags outside of a
// command's RunE is reading stale data from the previous Execute() call.
var flags = newRootFlags()

func newRootFlags() rootFlags {
	return rootFlags{
		Output:  defaultOutput(),
		Timeout: spotify.DefaultTimeout,
		Market:  strings.TrimSpace(os.Getenv("SPOTIFY_MARKET")),
	}
}

func defaultOutput() string {
	value := strings.TrimSpace(os.Getenv("SPOTIFY_OUTPUT"))
	if value != "" {
		return value
	}
	return "text"
}

// loadEnvFile loads the .env file next to the keyring, if present. Variables
// already set in the environment are not overwritten.
func loadEnvFile() {
	path := filepath.Join(config.ConfigDir(), ".env")
	if _, err := os.Stat(path); err != nil {
		return
	}
	_ = godotenv.Load(path)
}

// Execute runs the root command
func Execute(ctx context.Context, args []string) error {
	// Runs before the flag reset so env-driven defaults see the file.
	loadEnvFile()

	flags = newRootFlags()

	root := &cobra.Command{
		Use:                "spotify",
		Short:              "Command line client for the Spotify Web API",
		SilenceUsage:       true,
		SilenceErrors:      true,
		DisableSuggestions: true, // enhanceUnknownError suggests instead
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if flags.JSON {
				if cmd.Flags().Changed("output") && flags.Output != "json" {
					return fmt.Errorf("--json conflicts with --output %s", flags.Output)
				}
				flags.Output = "json"
			}
			query := getJQQuery()
			needsJSON := query != "" || flags.Template != ""
			if needsJSON && flags.Output != "json" && flags.Output != "jsonl" && flags.Output != "ndjson" {
				if cmd.Flags().Changed("output") {
					return fmt.Errorf("--jq/--query/--template require --output json or jsonl (or --json)")
				}
				flags.Output = "json"
			}

			mode, err := outfmt.Parse(flags.Output)
			if err != nil {
				return err
			}
			ctx = outfmt.WithMode(ctx, mode)
			ctx = outfmt.WithCompact(ctx, flags.Compact)
			if query != "" {
				ctx = outfmt.WithQuery(ctx, query)
			}
			if flags.Template != "" {
				tmpl, err := loadTemplate(flags.Template)
				if err != nil {
					return err
				}
				ctx = outfmt.WithTemplate(ctx, tmpl)
			}

			ioStreams := iocontext.GetIO(ctx)
			if flags.Quiet {
				ioStreams = ioStreams.Quiet(mode == outfmt.Text)
			}
			ctx = iocontext.WithIO(ctx, ioStreams)
			cmd.SetOut(ioStreams.Out)
			cmd.SetErr(ioStreams.ErrOut)

			debug.SetupLogger(flags.Debug)
			ctx = debug.WithDebug(ctx, flags.Debug)
			ctx = dryrun.WithDryRun(ctx, flags.DryRun)

			if flags.Market != "" {
				market, err := model.ParseMarket(flags.Market)
				if err != nil {
					return fmt.Errorf("invalid --market: %w", err)
				}
				flags.market = market
			}

			if err := readRetryOverrides(cmd); err != nil {
				return err
			}

			cmd.SetContext(ctx)
			return nil
		},
	}

	root.SetContext(ctx)
	root.SetArgs(args)
	streams := iocontext.GetIO(ctx)
	root.SetOut(streams.Out)
	root.SetErr(streams.ErrOut)

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.Output, "output", "o", flags.Output, "Output format: text|json|jsonl|ndjson (env SPOTIFY_OUTPUT)")
	pf.BoolVarP(&flags.JSON, "json", "j", false, "Shorthand for --output json")
	pf.StringVarP(&flags.Query, "query", "q", "", "JQ expression to filter JSON output")
	pf.StringVar(&flags.JQ, "jq", "", "Alias for --query")
	pf.StringVar(&flags.Template, "template", "", "Go template string (or @path) to render JSON output")
	pf.BoolVar(&flags.Compact, "compact-json", false, "Compact JSON output (no indentation)")
	pf.BoolVar(&flags.Debug, "debug", false, "Enable debug logging")
	pf.BoolVarP(&flags.Quiet, "quiet", "Q", false, "Suppress non-essential output")
	pf.BoolVar(&flags.DryRun, "dry-run", false, "Print the requests a write would send without sending them")
	pf.DurationVar(&flags.Timeout, "timeout", flags.Timeout, "HTTP request timeout (e.g., 30s, 2m)")
	pf.StringVar(&flags.Profile, "profile", "", "Credentials profile to use (env SPOTIFY_PROFILE)")
	pf.StringVar(&flags.Market, "market", flags.Market, "Market (ISO country code or from_token) for catalog lookups (env SPOTIFY_MARKET)")
	pf.StringVar(&flags.APIURL, "api-url", "", "Web API base URL (env SPOTIFY_API_URL)")
	pf.IntVar(&flags.MaxRateLimitRetries, "max-rate-limit-retries", 0, "Max retries for 429 responses (overrides env)")
	pf.IntVar(&flags.Max5xxRetries, "max-5xx-retries", 0, "Max retries for 5xx responses (overrides env)")
	pf.DurationVar(&flags.RateLimitDelay, "rate-limit-delay", 0, "Delay for 429 retries without Retry-After (e.g., 1s; overrides env)")
	pf.DurationVar(&flags.ServerErrorDelay, "server-error-delay", 0, "Delay between 5xx retries (e.g., 1s; overrides env)")
	pf.IntVar(&flags.CircuitBreakerThreshold, "circuit-breaker-threshold", 0, "Failures before circuit opens (overrides env)")
	pf.DurationVar(&flags.CircuitBreakerResetTime, "circuit-breaker-reset-time", 0, "Circuit breaker reset time (e.g., 30s; overrides env)")
	_ = pf.MarkHidden("api-url")

	root.AddCommand(newAuthCmd())
	root.AddCommand(newAlbumsCmd())
	root.AddCommand(newArtistsCmd())
	root.AddCommand(newTracksCmd())
	root.AddCommand(newPlaylistsCmd())
	root.AddCommand(newMeCmd())
	root.AddCommand(newPlayerCmd())
	root.AddCommand(newMarketsCmd())
	root.AddCommand(newAPICmd())
	root.AddCommand(newCacheCmd())
	root.AddCommand(newVersionCmd())

	targetCmd, err := root.ExecuteC()
	if err != nil {
		if !errors.Is(err, errAlreadyHandled) {
			enhanced := enhanceUnknownError(err, root, targetCmd)
			_, _ = fmt.Fprintln(root.ErrOrStderr(), enhanced)
		}
		return err
	}
	return nil
}

func readRetryOverrides(cmd *cobra.Command) error {
	flags.MaxRateLimitRetriesSet = cmd.Flags().Changed("max-rate-limit-retries")
	flags.Max5xxRetriesSet = cmd.Flags().Changed("max-5xx-retries")
	flags.RateLimitDelaySet = cmd.Flags().Changed("rate-limit-delay")
	flags.ServerErrorDelaySet = cmd.Flags().Changed("server-error-delay")
	flags.CircuitBreakerThresholdSet = cmd.Flags().Changed("circuit-breaker-threshold")
	flags.CircuitBreakerResetTimeSet = cmd.Flags().Changed("circuit-breaker-reset-time")

	if flags.MaxRateLimitRetriesSet && flags.MaxRateLimitRetries < 0 {
		return fmt.Errorf("--max-rate-limit-retries must be >= 0")
	}
	if flags.Max5xxRetriesSet && flags.Max5xxRetries < 0 {
		return fmt.Errorf("--max-5xx-retries must be >= 0")
	}
	if flags.RateLimitDelaySet && flags.RateLimitDelay < 0 {
		return fmt.Errorf("--rate-limit-delay must be >= 0")
	}
	if flags.ServerErrorDelaySet && flags.ServerErrorDelay < 0 {
		return fmt.Errorf("--server-error-delay must be >= 0")
	}
	if flags.CircuitBreakerThresholdSet && flags.CircuitBreakerThreshold < 0 {
		return fmt.Errorf("--circuit-breaker-threshold must be >= 0")
	}
	if flags.CircuitBreakerResetTimeSet && flags.CircuitBreakerResetTime < 0 {
		return fmt.Errorf("--circuit-breaker-reset-time must be >= 0")
	}
	return nil
}

// getJQQuery returns --jq, falling back to --query.
func getJQQuery() string {
	if flags.JQ != "" {
		return flags.JQ
	}
	return flags.Query
}

// enhanceUnknownError adds "did you mean?" suggestions to unknown command/flag errors.
// targetCmd is the command Cobra resolved before the error (may be root itself).
func enhanceUnknownError(err error, root *cobra.Command, targetCmd *cobra.Command) string {
	msg := err.Error()

	if strings.Contains(msg, "unknown command") {
		if unknown := extractQuoted(msg); unknown != "" {
			parent := root
			if targetCmd != nil {
				parent = targetCmd
			}
			var names []string
			for _, c := range parent.Commands() {
				if c.IsAvailableCommand() || c.Name() == "help" {
					names = append(names, c.Name())
					names = append(names, c.Aliases...)
				}
			}
			if suggestion := suggestCommand(unknown, names); suggestion != "" {
				return fmt.Sprintf("%s\n\nDid you mean %q?", msg, suggestion)
			}
		}
	}

	if strings.Contains(msg, "unknown flag") || strings.Contains(msg, "unknown shorthand flag") {
		unknown := extractFlag(msg)
		if unknown == "" {
			return msg
		}
		seen := make(map[string]bool)
		var flagNames []string
		addFlags := func(fs *pflag.FlagSet) {
			fs.VisitAll(func(f *pflag.Flag) {
				if f.Hidden {
					return
				}
				for _, name := range []string{"--" + f.Name, "-" + f.Shorthand} {
					if name == "-" || seen[name] {
						continue
					}
					seen[name] = true
					flagNames = append(flagNames, name)
				}
			})
		}
		helpCmd := "spotify --help"
		if targetCmd != nil {
			addFlags(targetCmd.Flags())
			addFlags(targetCmd.InheritedFlags())
			helpCmd = targetCmd.CommandPath() + " --help"
		} else {
			addFlags(root.PersistentFlags())
		}
		if suggestion := suggestFlag(unknown, flagNames); suggestion != "" {
			return fmt.Sprintf("%s\n\nDid you mean %q?\nRun %q to see supported flags.", msg, suggestion, helpCmd)
		}
		return fmt.Sprintf("%s\n\nRun %q to see supported flags.", msg, helpCmd)
	}

	return msg
}

// extractQuoted extracts the first double-quoted substring from s.
func extractQuoted(s string) string {
	start := strings.IndexByte(s, '"')
	if start < 0 {
		return ""
	}
	end := strings.IndexByte(s[start+1:], '"')
	if end < 0 {
		return ""
	}
	return s[start+1 : start+1+end]
}

// extractFlag extracts a flag name (e.g., "--foo" or "-f") from an error message.
func extractFlag(s string) string {
	idx := strings.Index(s, "--")
	if idx < 0 {
		// "unknown shorthand flag: 'a' in -a"
		idx = strings.LastIndex(s, " -")
		if idx < 0 {
			return ""
		}
		idx++
	}
	rest := s[idx:]
	if end := strings.IndexByte(rest, ' '); end >= 0 {
		rest = rest[:end]
	}
	rest = strings.TrimRight(rest, ".,;:!?\"'")
	if len(rest) < 2 || rest[0] != '-' {
		return ""
	}
	return rest
}

func loadTemplate(value string) (string, error) {
	if path, ok := strings.CutPrefix(value, "@"); ok {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read template file: %w", err)
		}
		return string(data), nil
	}
	return value, nil
}
