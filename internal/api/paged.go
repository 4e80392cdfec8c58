package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spotifyweb/spotify-cli/internal/model"
)

// Paged pairs a pageable endpoint with a limit policy.
type Paged[E Pageable] struct {
	Endpoint   E
	Pagination Pagination
}

// NewPaged pages through ep according to p.
func NewPaged[E Pageable](ep E, p Pagination) Paged[E] {
	return Paged[E]{Endpoint: ep, Pagination: p}
}

// PagedAll pages through every item of ep.
func PagedAll[E Pageable](ep E) Paged[E] {
	return NewPaged(ep, PaginateAll())
}

// PagedWithLimit pages through the first n items of ep.
func PagedWithLimit[E Pageable](ep E, n int) Paged[E] {
	return NewPaged(ep, PaginateLimit(n))
}

// QueryPaged fetches every page allowed by the policy and returns the items in
// order. The first failing page aborts the session.
func QueryPaged[T any, E Pageable](ctx context.Context, p Paged[E], c Client) ([]T, error) {
	return collect(ctx, newPager[T](p.Endpoint, p.Pagination, c, c.Rest))
}

// QueryPagedAsync is QueryPaged over an AsyncClient.
func QueryPagedAsync[T any, E Pageable](ctx context.Context, p Paged[E], c AsyncClient) ([]T, error) {
	return collect(ctx, newPager[T](p.Endpoint, p.Pagination, c, restAsync(c)))
}

func collect[T any](ctx context.Context, pg *pager[T]) ([]T, error) {
	var out []T
	for !pg.state.done() {
		items, err := pg.page(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, items...)
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// pager fetches the pages of one session.
type pager[T any] struct {
	ep    Endpoint
	rc    RestClient
	rest  restFunc
	state *pageState
}

func newPager[T any](ep Endpoint, p Pagination, rc RestClient, rest restFunc) *pager[T] {
	return &pager[T]{ep: ep, rc: rc, rest: rest, state: newPageState(p)}
}

// page fetches the next page. The endpoint's method and body are sent with
// every page.
func (pg *pager[T]) page(ctx context.Context) ([]T, error) {
	if pg.state.done() {
		return nil, nil
	}
	u, err := pg.state.pageURL(pg.ep, pg.rc)
	if err != nil {
		return nil, err
	}
	req, err := buildRequest(pg.ep, u)
	if err != nil {
		return nil, err
	}
	resp, err := pg.rest(ctx, req)
	if err != nil {
		return nil, wrapClientError(err)
	}
	if err := CheckResponse(resp); err != nil {
		return nil, err
	}
	body := resp.Body
	if env, ok := pg.ep.(Enveloped); ok && env.PageKey() != "" {
		if body, err = unwrapPage(body, env.PageKey()); err != nil {
			return nil, err
		}
	}
	page, err := DecodeResponse[model.Page[T]](body)
	if err != nil {
		return nil, err
	}
	if err := pg.state.advance(len(page.Items), page.Next); err != nil {
		return nil, err
	}
	return take(pg.state, page.Items), nil
}

func unwrapPage(body []byte, key string) ([]byte, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &DataTypeError{TypeName: "page envelope", Err: err}
	}
	inner, ok := envelope[key]
	if !ok {
		return nil, &DataTypeError{TypeName: "page envelope", Err: fmt.Errorf("missing key %q", key)}
	}
	return inner, nil
}
