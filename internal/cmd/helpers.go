package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spotifyweb/spotify-cli/internal/api"
	"github.com/spotifyweb/spotify-cli/internal/dryrun"
	"github.com/spotifyweb/spotify-cli/internal/iocontext"
	"github.com/spotifyweb/spotify-cli/internal/model"
	"github.com/spotifyweb/spotify-cli/internal/outfmt"
	"github.com/spotifyweb/spotify-cli/internal/urlparse"
)

// errAlreadyHandled is a sentinel error indicating the error was already printed to stderr.
// Commands using RunE return this to signal Cobra that an error occurred (for exit code)
// without Cobra printing it again (since SilenceErrors is true on root command).
var errAlreadyHandled = errors.New("error already handled")

type handledError struct {
	err      error
	exitCode int
}

func (e *handledError) Error() string {
	return e.err.Error()
}

func (e *handledError) Unwrap() []error {
	return []error{errAlreadyHandled, e.err}
}

func (e *handledError) ExitCode() int {
	return e.exitCode
}

// RunE wraps a command function with enhanced error handling
func RunE(fn func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := fn(cmd, args)
		if err == nil {
			return nil
		}
		ioStreams := iocontext.GetIO(cmd.Context())
		if isJSON(cmd) {
			_ = outfmt.WriteJSON(ioStreams.ErrOut, newErrorPayload(err), true)
		} else {
			_, _ = fmt.Fprint(ioStreams.ErrOut, HandleError(err))
		}
		// Return a handled error so tests can still inspect the original message.
		return &handledError{err: err, exitCode: ExitCode(err)}
	}
}

func cmdContext(cmd *cobra.Command) context.Context {
	return cmd.Context()
}

// isJSON checks if the command context wants JSON output
func isJSON(cmd *cobra.Command) bool {
	return outfmt.IsJSON(cmd.Context())
}

func newFormatter(cmd *cobra.Command) *outfmt.Formatter {
	ioStreams := iocontext.GetIO(cmd.Context())
	return outfmt.NewFormatter(cmd.Context(), ioStreams.Out, ioStreams.ErrOut)
}

// printJSON outputs data as JSON with optional query/template filtering
func printJSON(cmd *cobra.Command, v any) error {
	return newFormatter(cmd).Output(v)
}

// previewWrite prints the requests eps would send when --dry-run is set and
// reports whether the caller must stop before sending them.
func previewWrite(cmd *cobra.Command, rc api.RestClient, operation, resource string, eps ...api.Endpoint) (bool, error) {
	if !dryrun.IsEnabled(cmdContext(cmd)) {
		return false, nil
	}
	preview, err := dryrun.New(operation, resource, rc, eps...)
	if err != nil {
		return true, err
	}
	if isJSON(cmd) {
		return true, printJSON(cmd, preview)
	}
	preview.Write(cmd.OutOrStdout())
	return true, nil
}

// printAction reports a completed write in text mode.
func printAction(cmd *cobra.Command, format string, args ...any) {
	if flags.Quiet || isJSON(cmd) {
		return
	}
	ioStreams := iocontext.GetIO(cmd.Context())
	_, _ = fmt.Fprintf(ioStreams.Out, format+"\n", args...)
}

func printField(cmd *cobra.Command, label, value string) {
	ioStreams := iocontext.GetIO(cmd.Context())
	_, _ = fmt.Fprintf(ioStreams.Out, "  %-12s %s\n", label+":", value)
}

// market returns the --market flag, or the profile's market when the flag is
// unset.
func market() model.Market {
	if flags.market != "" {
		return flags.market
	}
	if m, err := model.ParseMarket(activeProfileMarket()); err == nil {
		return m
	}
	return ""
}

func splitCommaList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

// parseIDArgs accepts IDs, URIs or links, each argument optionally a comma
// separated list.
func parseIDArgs(args []string, resource string) ([]string, error) {
	var refs []string
	for _, arg := range args {
		refs = append(refs, splitCommaList(arg)...)
	}
	if len(refs) == 0 {
		return nil, fmt.Errorf("at least one %s ID is required", resource)
	}
	return urlparse.ParseIDs(refs, resource)
}

func artistNames(artists []model.SimplifiedArtist) string {
	names := make([]string, 0, len(artists))
	for _, a := range artists {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}

func truncateText(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func boolPtrIfChanged(cmd *cobra.Command, flag string, value bool) *bool {
	if cmd.Flags().Changed(flag) {
		return &value
	}
	return nil
}

func stringPtrIfChanged(cmd *cobra.Command, flag, value string) *string {
	if cmd.Flags().Changed(flag) {
		return &value
	}
	return nil
}

func warnf(ctx context.Context, format string, args ...any) {
	if flags.Quiet {
		return
	}
	ioStreams := iocontext.GetIO(ctx)
	_, _ = fmt.Fprintf(ioStreams.ErrOut, "Warning: "+format+"\n", args...)
}
