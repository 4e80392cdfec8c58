// Package api implements typed dispatch of Spotify Web API endpoints.
//
// Callers describe a call as an Endpoint value, hand it to Query, Ignore or
// Raw (or one of their async variants) together with a transport, and get a
// decoded result or a classified error back. Paged collections are fetched
// through QueryPaged and Iterate.
package api

import (
	"context"
	"net/http"
	"net/url"
)

// Request is a fully prepared HTTP request handed to a transport.
type Request struct {
	Method string
	URL    *url.URL
	Header http.Header
	Body   []byte
}

// Response is the raw result returned by a transport.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// RestClient resolves relative endpoint paths against the service root.
type RestClient interface {
	RestEndpoint(path string) (*url.URL, error)
}

// Client executes requests synchronously.
type Client interface {
	RestClient
	Rest(ctx context.Context, req *Request) (*Response, error)
}

// RestResult is the single value delivered by an AsyncClient.
type RestResult struct {
	Response *Response
	Err      error
}

// AsyncClient executes requests asynchronously. The returned channel yields
// exactly one RestResult.
type AsyncClient interface {
	RestClient
	RestAsync(ctx context.Context, req *Request) <-chan RestResult
}

// AsyncAdapter lifts a synchronous Client into an AsyncClient by running each
// request on its own goroutine.
func AsyncAdapter(c Client) AsyncClient {
	return asyncAdapter{c}
}

type asyncAdapter struct {
	Client
}

func (a asyncAdapter) RestAsync(ctx context.Context, req *Request) <-chan RestResult {
	out := make(chan RestResult, 1)
	go func() {
		resp, err := a.Rest(ctx, req)
		out <- RestResult{Response: resp, Err: err}
	}()
	return out
}

// await blocks until the future resolves or ctx is done.
func await(ctx context.Context, ch <-chan RestResult) (*Response, error) {
	select {
	case res, ok := <-ch:
		if !ok {
			return nil, &ClientError{Err: errClosedFuture}
		}
		return res.Response, res.Err
	case <-ctx.Done():
		return nil, &ClientError{Err: ctx.Err()}
	}
}
