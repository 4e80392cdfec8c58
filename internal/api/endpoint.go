package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// URLBase selects the root an endpoint path is resolved against.
type URLBase int

const (
	// URLBaseAPIV1 is the versioned Web API root, e.g. https://api.spotify.com/v1/.
	URLBaseAPIV1 URLBase = iota
)

func (b URLBase) String() string {
	switch b {
	case URLBaseAPIV1:
		return "api/v1"
	default:
		return fmt.Sprintf("URLBase(%d)", int(b))
	}
}

// EndpointFor resolves path against the root selected by b.
func (b URLBase) EndpointFor(c RestClient, path string) (*url.URL, error) {
	switch b {
	case URLBaseAPIV1:
		u, err := c.RestEndpoint(path)
		if err != nil {
			var te taxonomyError
			if errors.As(err, &te) {
				return nil, err
			}
			return nil, &URLParseError{Input: path, Err: err}
		}
		return u, nil
	default:
		return nil, &UnsupportedURLBaseError{Base: b}
	}
}

// Endpoint describes one Web API call.
type Endpoint interface {
	// Method returns the HTTP method.
	Method() string
	// Path returns the endpoint path relative to its URL base.
	Path() string
	URLBase() URLBase
	Parameters() *QueryParams
	// Body returns the encoded body, or nil when the request has none.
	Body() (*Body, error)
}

// Pageable is an Endpoint whose response is a Page and may be paged through.
type Pageable interface {
	Endpoint
	Pageable()
}

// EndpointDefaults supplies the optional Endpoint methods: the v1 base, no
// parameters and no body. Embed it and override what differs.
type EndpointDefaults struct{}

func (EndpointDefaults) URLBase() URLBase         { return URLBaseAPIV1 }
func (EndpointDefaults) Parameters() *QueryParams { return nil }
func (EndpointDefaults) Body() (*Body, error)     { return nil, nil }

// Enveloped is implemented by pageable endpoints whose page is nested under a
// key of the response object, as in {"albums": {"items": [...]}}. An empty
// key means the page is the whole response.
type Enveloped interface {
	PageKey() string
}

// PageableEndpoint marks an embedding Endpoint as Pageable.
type PageableEndpoint struct{}

func (PageableEndpoint) Pageable() {}

// RawEndpoint is an Endpoint described entirely by data. It is meant for ad-hoc
// calls to paths without a dedicated type.
type RawEndpoint struct {
	HTTPMethod string
	RelPath    string
	Base       URLBase
	Params     *QueryParams
	Payload    *Body
}

func (e RawEndpoint) Method() string {
	if e.HTTPMethod == "" {
		return http.MethodGet
	}
	return e.HTTPMethod
}

func (e RawEndpoint) Path() string             { return e.RelPath }
func (e RawEndpoint) URLBase() URLBase         { return e.Base }
func (e RawEndpoint) Parameters() *QueryParams { return e.Params }
func (e RawEndpoint) Body() (*Body, error)     { return e.Payload, nil }

// RawPageable is a RawEndpoint that can be paged through. Key names the
// envelope of the page, if any.
type RawPageable struct {
	RawEndpoint
	PageableEndpoint
	Key string
}

func (e RawPageable) PageKey() string { return e.Key }

var (
	_ Endpoint = RawEndpoint{}
	_ Pageable  = RawPageable{}
	_ Enveloped = RawPageable{}
)
