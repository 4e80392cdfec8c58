package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/spotifyweb/spotify-cli/internal/cache"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the local cache",
		Long:  "Manage cached API responses and app-only tokens. User tokens live in the keychain and are not affected.",
	}

	cmd.AddCommand(newCacheClearCmd())
	cmd.AddCommand(newCachePathCmd())
	return cmd
}

func newCacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear all cached data",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			dir, err := cache.DefaultDir()
			if err != nil {
				return fmt.Errorf("could not determine cache directory: %w", err)
			}
			cache.ClearAll(dir)
			printAction(cmd, "Cache cleared: %s", dir)
			return nil
		}),
	}
}

func newCachePathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show the cache directory path",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			dir, err := cache.DefaultDir()
			if err != nil {
				return fmt.Errorf("could not determine cache directory: %w", err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), dir)

			entries, err := os.ReadDir(dir)
			if err != nil {
				return nil // not created yet
			}
			files := 0
			for _, e := range entries {
				if !e.IsDir() {
					files++
				}
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d cached file(s)\n", files)
			return nil
		}),
	}
}
