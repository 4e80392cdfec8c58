package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
)

// Query executes ep and decodes the JSON response into T.
func Query[T any](ctx context.Context, ep Endpoint, c Client) (T, error) {
	var zero T
	resp, err := execute(ctx, ep, c, c.Rest)
	if err != nil {
		return zero, err
	}
	if err := CheckResponse(resp); err != nil {
		return zero, err
	}
	return DecodeResponse[T](resp.Body)
}

// QueryAsync is Query over an AsyncClient.
func QueryAsync[T any](ctx context.Context, ep Endpoint, c AsyncClient) (T, error) {
	var zero T
	resp, err := execute(ctx, ep, c, restAsync(c))
	if err != nil {
		return zero, err
	}
	if err := CheckResponse(resp); err != nil {
		return zero, err
	}
	return DecodeResponse[T](resp.Body)
}

// Ignore executes ep and discards the response body. Only unsuccessful
// responses are classified.
func Ignore(ctx context.Context, ep Endpoint, c Client) error {
	resp, err := execute(ctx, ep, c, c.Rest)
	if err != nil {
		return err
	}
	return checkStatus(resp)
}

// IgnoreAsync is Ignore over an AsyncClient.
func IgnoreAsync(ctx context.Context, ep Endpoint, c AsyncClient) error {
	resp, err := execute(ctx, ep, c, restAsync(c))
	if err != nil {
		return err
	}
	return checkStatus(resp)
}

// Raw executes ep and returns the undecoded response body.
func Raw(ctx context.Context, ep Endpoint, c Client) ([]byte, error) {
	resp, err := execute(ctx, ep, c, c.Rest)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// RawAsync is Raw over an AsyncClient.
func RawAsync(ctx context.Context, ep Endpoint, c AsyncClient) ([]byte, error) {
	resp, err := execute(ctx, ep, c, restAsync(c))
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	return resp.Body, nil
}

type restFunc func(ctx context.Context, req *Request) (*Response, error)

func restAsync(c AsyncClient) restFunc {
	return func(ctx context.Context, req *Request) (*Response, error) {
		return await(ctx, c.RestAsync(ctx, req))
	}
}

func execute(ctx context.Context, ep Endpoint, rc RestClient, rest restFunc) (*Response, error) {
	req, err := PrepareRequest(ep, rc)
	if err != nil {
		return nil, err
	}
	resp, err := rest(ctx, req)
	if err != nil {
		return nil, wrapClientError(err)
	}
	if resp == nil {
		return nil, &ClientError{Err: errors.New("transport returned no response")}
	}
	return resp, nil
}

// PrepareRequest resolves the URL of ep, appends its parameters and encodes
// its body.
func PrepareRequest(ep Endpoint, rc RestClient) (*Request, error) {
	u, err := endpointURL(ep, rc)
	if err != nil {
		return nil, err
	}
	return buildRequest(ep, u)
}

func endpointURL(ep Endpoint, rc RestClient) (*url.URL, error) {
	u, err := ep.URLBase().EndpointFor(rc, ep.Path())
	if err != nil {
		return nil, err
	}
	ep.Parameters().AddToURL(u)
	return u, nil
}

// buildRequest attaches the method and body of ep to u. Content-Type is set
// whenever there is a body; Content-Length only for POST and PUT.
func buildRequest(ep Endpoint, u *url.URL) (*Request, error) {
	body, err := ep.Body()
	if err != nil {
		var be *BodyError
		if !errors.As(err, &be) {
			err = &BodyError{Encoding: "request", Err: err}
		}
		return nil, err
	}

	method := ep.Method()
	req := &Request{
		Method: method,
		URL:    u,
		Header: http.Header{},
	}
	if body != nil {
		req.Body = body.Data
		if body.ContentType != "" {
			req.Header.Set("Content-Type", body.ContentType)
		}
	}
	if method == http.MethodPost || method == http.MethodPut {
		req.Header.Set("Content-Length", strconv.Itoa(len(req.Body)))
	}
	return req, nil
}
