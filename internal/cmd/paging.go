package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spotifyweb/spotify-cli/internal/api"
)

// defaultListLimit is how many items list commands fetch without --all or
// --limit.
const defaultListLimit = 20

type pageFlags struct {
	all      bool
	limit    int
	offset   int
	pageSize int
}

func addPageFlags(cmd *cobra.Command, pf *pageFlags) {
	cmd.Flags().BoolVarP(&pf.all, "all", "a", false, "Fetch every item")
	cmd.Flags().IntVarP(&pf.limit, "limit", "l", defaultListLimit, "Maximum number of items to fetch")
	cmd.Flags().IntVar(&pf.offset, "offset", 0, "Index of the first item; fetches one window of --page-size items")
	cmd.Flags().IntVar(&pf.pageSize, "page-size", api.MaxLimit, "Number of items in the window selected by --offset (at most 50)")
}

// explicit reports whether any paging flag was given on the command line.
func (pf *pageFlags) explicit(cmd *cobra.Command) bool {
	for _, name := range []string{"all", "limit", "offset", "page-size"} {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

// pagination turns the paging flags into a limit policy: --all fetches
// everything, --offset/--page-size a window and --limit the first n items.
func (pf *pageFlags) pagination(cmd *cobra.Command) (api.Pagination, error) {
	limitSet := cmd.Flags().Changed("limit")
	windowSet := cmd.Flags().Changed("offset") || cmd.Flags().Changed("page-size")

	switch {
	case pf.all && (limitSet || windowSet):
		return api.Pagination{}, fmt.Errorf("--all conflicts with --limit, --offset and --page-size")
	case pf.all:
		return api.PaginateAll(), nil
	case windowSet:
		if limitSet {
			return api.Pagination{}, fmt.Errorf("--limit conflicts with --offset and --page-size")
		}
		if pf.offset < 0 {
			return api.Pagination{}, fmt.Errorf("--offset must be >= 0")
		}
		if pf.pageSize < 1 {
			return api.Pagination{}, fmt.Errorf("--page-size must be >= 1")
		}
		return api.PaginatePage(pf.pageSize, pf.offset), nil
	default:
		if pf.limit < 1 {
			return api.Pagination{}, fmt.Errorf("--limit must be >= 1")
		}
		return api.PaginateLimit(pf.limit), nil
	}
}

// listTable describes the text rendering of a list command.
type listTable[T any] struct {
	headers []string
	row     func(T) []string
	empty   string
	// stop, when set, ends the listing at the first item it accepts. The
	// item itself is not printed.
	stop func(T) bool
}

// listPaged prints the items of a paged endpoint. Text and JSON lines output
// print items as pages arrive; JSON output collects them first.
func listPaged[T any, E api.Pageable](cmd *cobra.Command, client api.Client, p api.Paged[E], table listTable[T]) error {
	ctx := cmdContext(cmd)
	f := newFormatter(cmd)
	items := api.Iterate[T](p, client).All(ctx)

	if isJSON(cmd) && !f.Streaming() {
		collected := []T{}
		for item, err := range items {
			if err != nil {
				return err
			}
			if table.stop != nil && table.stop(item) {
				break
			}
			collected = append(collected, item)
		}
		return f.Output(collected)
	}

	count := 0
	for item, err := range items {
		if err != nil {
			if count > 0 && !f.Streaming() {
				_ = f.EndTable()
			}
			return err
		}
		if table.stop != nil && table.stop(item) {
			break
		}
		if f.Streaming() {
			if err := f.Item(item); err != nil {
				return err
			}
		} else {
			if count == 0 {
				f.StartTable(table.headers)
			}
			f.Row(table.row(item)...)
		}
		count++
	}

	if count == 0 {
		if !f.Streaming() {
			f.Empty(table.empty)
		}
		return nil
	}
	if f.Streaming() {
		return nil
	}
	return f.EndTable()
}
