package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"
)

type getThing struct {
	EndpointDefaults
	id     string
	market string
}

func (getThing) Method() string  { return http.MethodGet }
func (e getThing) Path() string { return "things/" + PathEscape(e.id) }
func (e getThing) Parameters() *QueryParams {
	return NewQueryParams().PushOpt("market", optString(e.market))
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

type putThing struct {
	EndpointDefaults
	ids []string
}

func (putThing) Method() string { return http.MethodPut }
func (putThing) Path() string   { return "me/things" }
func (e putThing) Body() (*Body, error) {
	return NewJSONParams().Push("ids", e.ids).Body()
}

type postNoBody struct {
	EndpointDefaults
}

func (postNoBody) Method() string { return http.MethodPost }
func (postNoBody) Path() string   { return "me/player/next" }

type brokenBody struct {
	EndpointDefaults
}

func (brokenBody) Method() string { return http.MethodPut }
func (brokenBody) Path() string   { return "broken" }
func (brokenBody) Body() (*Body, error) {
	return nil, errors.New("cannot encode")
}

type otherBase struct {
	getThing
}

func (otherBase) URLBase() URLBase { return URLBase(7) }

func TestQuery_DecodesResponse(t *testing.T) {
	client := newSingleJSONClient(t, expectedRequest{
		path:  "things/abc",
		query: []Param{{Key: "market", Value: "ES"}},
	}, dummyResult{Value: 3})

	got, err := Query[dummyResult](context.Background(), getThing{id: "abc", market: "ES"}, client)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if got.Value != 3 {
		t.Errorf("Value = %d, want 3", got.Value)
	}

	req := client.requests[0]
	if _, ok := req.Header["Content-Length"]; ok {
		t.Error("GET request should not carry Content-Length")
	}
}

type bodyThing struct {
	EndpointDefaults
	method string
}

func (e bodyThing) Method() string { return e.method }
func (bodyThing) Path() string     { return "me/things" }
func (bodyThing) Body() (*Body, error) {
	return NewJSONParams().Push("ids", []string{"a"}).Body()
}

func TestIgnore_GetAndDeleteBodiesHaveNoContentLength(t *testing.T) {
	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		t.Run(method, func(t *testing.T) {
			client := newSingleTestClient(t, expectedRequest{
				method:      method,
				path:        "me/things",
				contentType: ContentTypeJSON,
				body:        `{"ids":["a"]}`,
			}, "").withStatus(http.StatusOK)

			if err := Ignore(context.Background(), bodyThing{method: method}, client); err != nil {
				t.Fatalf("Ignore() error = %v", err)
			}
			req := client.requests[0]
			if _, ok := req.Header["Content-Length"]; ok {
				t.Errorf("%s request with a body should not carry Content-Length", method)
			}
			if string(req.Body) != `{"ids":["a"]}` {
				t.Errorf("body = %q", req.Body)
			}
		})
	}
}

func TestQuery_PointerEndpoint(t *testing.T) {
	client := newSingleJSONClient(t, expectedRequest{path: "things/abc"}, dummyResult{Value: 1})
	ep := &getThing{id: "abc"}
	if _, err := Query[dummyResult](context.Background(), ep, client); err != nil {
		t.Fatalf("Query() error = %v", err)
	}
}

func TestQuery_DataTypeError(t *testing.T) {
	client := newSingleTestClient(t, expectedRequest{path: "things/abc"}, `{"value":"x"}`)
	_, err := Query[dummyResult](context.Background(), getThing{id: "abc"}, client)
	var dte *DataTypeError
	if !errors.As(err, &dte) {
		t.Fatalf("expected DataTypeError, got %v", err)
	}
}

func TestQuery_ServiceErrors(t *testing.T) {
	client := newSingleTestClient(t, expectedRequest{path: "things/abc"}, `{"message":"dummy error message"}`).
		withStatus(http.StatusNotFound)
	_, err := Query[dummyResult](context.Background(), getThing{id: "abc"}, client)
	var sme *ServiceMessageError
	if !errors.As(err, &sme) {
		t.Fatalf("expected ServiceMessageError, got %v", err)
	}
	if sme.Message != "dummy error message" || sme.Status != http.StatusNotFound {
		t.Errorf("got %+v", sme)
	}
}

func TestQuery_MovedPermanently(t *testing.T) {
	client := newSingleTestClient(t, expectedRequest{path: "things/abc"}, `{}`).withStatus(http.StatusMovedPermanently)
	client.header = http.Header{"Location": {"https://elsewhere.test/"}}
	_, err := Query[dummyResult](context.Background(), getThing{id: "abc"}, client)
	var mpe *MovedPermanentlyError
	if !errors.As(err, &mpe) {
		t.Fatalf("expected MovedPermanentlyError, got %v", err)
	}
	if mpe.Location == nil || *mpe.Location != "https://elsewhere.test/" {
		t.Errorf("Location = %v", mpe.Location)
	}
}

func TestIgnore_PutSetsContentLength(t *testing.T) {
	client := newSingleTestClient(t, expectedRequest{
		method:      http.MethodPut,
		path:        "me/things",
		contentType: ContentTypeJSON,
		body:        `{"ids":["a","b"]}`,
	}, "").withStatus(http.StatusOK)

	if err := Ignore(context.Background(), putThing{ids: []string{"a", "b"}}, client); err != nil {
		t.Fatalf("Ignore() error = %v", err)
	}
	if got := client.requests[0].Header.Get("Content-Length"); got != "17" {
		t.Errorf("Content-Length = %q, want 17", got)
	}
}

func TestIgnore_PostWithoutBody(t *testing.T) {
	client := newSingleTestClient(t, expectedRequest{method: http.MethodPost, path: "me/player/next"}, "").
		withStatus(http.StatusNoContent)
	if err := Ignore(context.Background(), postNoBody{}, client); err != nil {
		t.Fatalf("Ignore() error = %v", err)
	}
	if got := client.requests[0].Header.Get("Content-Length"); got != "0" {
		t.Errorf("Content-Length = %q, want 0", got)
	}
}

func TestIgnore_ClassifiesFailures(t *testing.T) {
	client := newSingleTestClient(t, expectedRequest{method: http.MethodPost, path: "me/player/next"}, "").
		withStatus(http.StatusNotFound)
	err := Ignore(context.Background(), postNoBody{}, client)
	var se *ServiceError
	if !errors.As(err, &se) {
		t.Fatalf("expected ServiceError, got %v", err)
	}
}

func TestRaw_ReturnsBody(t *testing.T) {
	client := newSingleTestClient(t, expectedRequest{path: "things/abc"}, "raw bytes")
	got, err := Raw(context.Background(), getThing{id: "abc"}, client)
	if err != nil {
		t.Fatalf("Raw() error = %v", err)
	}
	if string(got) != "raw bytes" {
		t.Errorf("Raw() = %q", got)
	}
}

func TestQuery_BodyError(t *testing.T) {
	client := newSingleTestClient(t, expectedRequest{}, "")
	_, err := Query[dummyResult](context.Background(), brokenBody{}, client)
	var be *BodyError
	if !errors.As(err, &be) {
		t.Fatalf("expected BodyError, got %v", err)
	}
	if client.requestCount() != 0 {
		t.Error("no request should be sent when the body fails to encode")
	}
}

func TestQuery_UnsupportedURLBase(t *testing.T) {
	client := newSingleTestClient(t, expectedRequest{}, "")
	_, err := Query[dummyResult](context.Background(), otherBase{}, client)
	var ue *UnsupportedURLBaseError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UnsupportedURLBaseError, got %v", err)
	}
}

type failingClient struct {
	endpointErr error
	restErr     error
}

func (c failingClient) RestEndpoint(path string) (*url.URL, error) {
	if c.endpointErr != nil {
		return nil, c.endpointErr
	}
	return url.Parse(testBaseURL + path)
}

func (c failingClient) Rest(context.Context, *Request) (*Response, error) {
	return nil, c.restErr
}

func TestQuery_TransportErrors(t *testing.T) {
	boom := errors.New("boom")

	_, err := Query[dummyResult](context.Background(), getThing{id: "x"}, failingClient{restErr: boom})
	var ce *ClientError
	if !errors.As(err, &ce) || !errors.Is(err, boom) {
		t.Fatalf("expected ClientError wrapping boom, got %v", err)
	}

	_, err = Query[dummyResult](context.Background(), getThing{id: "x"}, failingClient{endpointErr: boom})
	var pe *URLParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected URLParseError, got %v", err)
	}
}

func TestQueryAsync(t *testing.T) {
	client := newSingleJSONClient(t, expectedRequest{path: "things/abc"}, dummyResult{Value: 9})
	got, err := QueryAsync[dummyResult](context.Background(), getThing{id: "abc"}, AsyncAdapter(client))
	if err != nil {
		t.Fatalf("QueryAsync() error = %v", err)
	}
	if got.Value != 9 {
		t.Errorf("Value = %d, want 9", got.Value)
	}

	ignoreClient := newSingleTestClient(t, expectedRequest{method: http.MethodPost, path: "me/player/next"}, "").
		withStatus(http.StatusNoContent)
	if err := IgnoreAsync(context.Background(), postNoBody{}, AsyncAdapter(ignoreClient)); err != nil {
		t.Fatalf("IgnoreAsync() error = %v", err)
	}

	rawClient := newSingleTestClient(t, expectedRequest{path: "things/abc"}, "abc")
	raw, err := RawAsync(context.Background(), getThing{id: "abc"}, AsyncAdapter(rawClient))
	if err != nil || string(raw) != "abc" {
		t.Fatalf("RawAsync() = %q, %v", raw, err)
	}
}

type pendingClient struct {
	failingClient
}

func (pendingClient) RestAsync(context.Context, *Request) <-chan RestResult {
	return make(chan RestResult)
}

func TestQueryAsync_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := QueryAsync[dummyResult](ctx, getThing{id: "abc"}, pendingClient{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
