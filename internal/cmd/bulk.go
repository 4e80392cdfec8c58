package cmd

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/spotifyweb/spotify-cli/internal/iocontext"
)

// DefaultConcurrency is the default number of concurrent workers
const DefaultConcurrency = 5

// BulkResult represents the outcome of a single bulk operation
type BulkResult struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Error   error  `json:"-"`
	Data    any    `json:"data,omitempty"`
}

// runBulkOperation executes operations concurrently with bounded parallelism.
// Results are returned in the order of ids; an ID whose operation never ran
// because ctx was cancelled reports ctx's error.
func runBulkOperation[T any](
	ctx context.Context,
	ids []string,
	concurrency int64,
	progress bool,
	errOut io.Writer,
	operation func(ctx context.Context, id string) (T, error),
) []BulkResult {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if errOut == nil {
		errOut = io.Discard
	}

	sem := semaphore.NewWeighted(concurrency)
	var mu sync.Mutex
	results := make([]BulkResult, len(ids))
	total := len(ids)
	var done int64

	g, ctx := errgroup.WithContext(ctx)

	for i, id := range ids {
		results[i] = BulkResult{ID: id}

		g.Go(func() error {
			if err := sem.Acquire(ctx, 1); err != nil {
				results[i].Error = err
				return nil
			}
			defer sem.Release(1)

			if err := ctx.Err(); err != nil {
				results[i].Error = err
				return nil
			}

			data, err := operation(ctx, id)
			if err != nil {
				results[i].Error = err
			} else {
				results[i].Success = true
				results[i].Data = data
			}

			if progress && total > 0 {
				current := atomic.AddInt64(&done, 1)
				mu.Lock()
				_, _ = fmt.Fprintf(errOut, "\rFetched %d/%d", current, total)
				mu.Unlock()
			}

			return nil // don't fail the group on individual errors
		})
	}

	_ = g.Wait()

	if progress && total > 0 {
		_, _ = fmt.Fprintf(errOut, "\rFetched %d/%d\n", atomic.LoadInt64(&done), total)
	}

	return results
}

// countResults returns success and failure counts from bulk results
func countResults(results []BulkResult) (success, failure int) {
	for _, r := range results {
		if r.Success {
			success++
		} else {
			failure++
		}
	}
	return
}

// fetchEach runs get for every ID and prints the results: JSON output gets
// the successful values, text output a row per value. The first failure is
// returned once everything is printed; when several lookups fail, each one
// is also listed on stderr.
func fetchEach[T any](
	cmd *cobra.Command,
	ids []string,
	concurrency int,
	get func(ctx context.Context, id string) (T, error),
	table listTable[T],
) error {
	ioStreams := iocontext.GetIO(cmd.Context())
	progress := !isJSON(cmd) && !flags.Quiet && len(ids) > DefaultConcurrency
	results := runBulkOperation(cmdContext(cmd), ids, int64(concurrency), progress, ioStreams.ErrOut, get)

	items := make([]T, 0, len(results))
	var firstErr error
	for _, r := range results {
		if !r.Success {
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", r.ID, r.Error)
			}
			continue
		}
		items = append(items, r.Data.(T))
	}

	f := newFormatter(cmd)
	if isJSON(cmd) {
		if len(ids) == 1 && len(items) == 1 {
			if err := f.Output(items[0]); err != nil {
				return err
			}
		} else if f.Streaming() {
			for _, item := range items {
				if err := f.Item(item); err != nil {
					return err
				}
			}
		} else if err := f.Output(items); err != nil {
			return err
		}
	} else if len(items) > 0 {
		f.StartTable(table.headers)
		for _, item := range items {
			f.Row(table.row(item)...)
		}
		if err := f.EndTable(); err != nil {
			return err
		}
	}

	if _, failure := countResults(results); failure > 1 {
		_, _ = fmt.Fprintf(ioStreams.ErrOut, "%d of %d lookups failed:\n", failure, len(results))
		for _, r := range results {
			if !r.Success {
				_, _ = fmt.Fprintf(ioStreams.ErrOut, "  %s: %v\n", r.ID, r.Error)
			}
		}
	}
	return firstErr
}
