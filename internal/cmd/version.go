package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is set at build time via ldflags
var version = "dev"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Aliases: []string{"v"},
		Short:   "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			if isJSON(cmd) {
				_ = printJSON(cmd, map[string]string{"version": version})
				return
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "spotify-cli version %s\n", version)
		},
	}
}
