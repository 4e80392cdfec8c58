package api

import (
	"context"
	"errors"
	"iter"
)

// Done is returned by Next when a session has no more items.
var Done = errors.New("no more items in page iterator")

// PageIter yields the items of a paging session one at a time, fetching a page
// only when the previous one has been consumed. After an error the iterator
// is exhausted.
type PageIter[T any] struct {
	it *itemIter[T]
}

// Iterate starts a lazy paging session over a synchronous client.
func Iterate[T any, E Pageable](p Paged[E], c Client) *PageIter[T] {
	return &PageIter[T]{it: &itemIter[T]{pg: newPager[T](p.Endpoint, p.Pagination, c, c.Rest)}}
}

// Next returns the next item, Done at the end of the session, or the error
// that ended it.
func (p *PageIter[T]) Next(ctx context.Context) (T, error) {
	return p.it.next(ctx)
}

// All adapts the iterator to a range-over-func sequence. The sequence stops
// after yielding an error.
func (p *PageIter[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return p.it.seq(ctx)
}

// AsyncPageIter is the AsyncClient counterpart of PageIter. Each page request
// is awaited with the caller's context.
type AsyncPageIter[T any] struct {
	it *itemIter[T]
}

// IterateAsync starts a lazy paging session over an asynchronous client.
func IterateAsync[T any, E Pageable](p Paged[E], c AsyncClient) *AsyncPageIter[T] {
	return &AsyncPageIter[T]{it: &itemIter[T]{pg: newPager[T](p.Endpoint, p.Pagination, c, restAsync(c))}}
}

// Next returns the next item, Done at the end of the session, or the error
// that ended it.
func (p *AsyncPageIter[T]) Next(ctx context.Context) (T, error) {
	return p.it.next(ctx)
}

// Seq adapts the iterator to a range-over-func stream.
func (p *AsyncPageIter[T]) Seq(ctx context.Context) iter.Seq2[T, error] {
	return p.it.seq(ctx)
}

type itemIter[T any] struct {
	pg   *pager[T]
	buf  []T
	done bool
}

func (it *itemIter[T]) next(ctx context.Context) (T, error) {
	var zero T
	for len(it.buf) == 0 {
		if it.done || it.pg.state.done() {
			it.done = true
			return zero, Done
		}
		items, err := it.pg.page(ctx)
		if err != nil {
			it.done = true
			return zero, err
		}
		it.buf = items
	}
	item := it.buf[0]
	it.buf[0] = zero
	it.buf = it.buf[1:]
	return item, nil
}

func (it *itemIter[T]) seq(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for {
			item, err := it.next(ctx)
			if errors.Is(err, Done) {
				return
			}
			if !yield(item, err) || err != nil {
				return
			}
		}
	}
}
