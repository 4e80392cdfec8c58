package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/spotifyweb/spotify-cli/internal/model"
)

const testBaseURL = "https://api.spotify.test/v1/"

const defaultTestLimit = 20

// expectedRequest describes the request a fake client expects to receive.
type expectedRequest struct {
	method      string
	path        string
	query       []Param
	contentType string
	body        string
	// paginated requests may carry offset and limit on top of query.
	paginated bool
}

func (e expectedRequest) check(t *testing.T, req *Request) {
	t.Helper()

	method := e.method
	if method == "" {
		method = http.MethodGet
	}
	if req.Method != method {
		t.Errorf("method = %s, want %s", req.Method, method)
	}

	base, _ := url.Parse(testBaseURL)
	if req.URL.Scheme != base.Scheme || req.URL.Host != base.Host {
		t.Errorf("url host = %s://%s, want %s://%s", req.URL.Scheme, req.URL.Host, base.Scheme, base.Host)
	}
	if want := base.Path + e.path; req.URL.Path != want {
		t.Errorf("url path = %q, want %q", req.URL.Path, want)
	}

	var got []Param
	for _, kv := range queryPairs(req.URL) {
		if e.paginated && (kv.Key == "offset" || kv.Key == "limit") {
			continue
		}
		got = append(got, kv)
	}
	if len(got) != len(e.query) {
		t.Errorf("query = %v, want %v", got, e.query)
	} else {
		for i := range got {
			if got[i] != e.query[i] {
				t.Errorf("query[%d] = %v, want %v", i, got[i], e.query[i])
			}
		}
	}

	if ct := req.Header.Values("Content-Type"); e.contentType == "" {
		if len(ct) != 0 {
			t.Errorf("unexpected Content-Type %v", ct)
		}
	} else if len(ct) != 1 || ct[0] != e.contentType {
		t.Errorf("Content-Type = %v, want %q", ct, e.contentType)
	}

	if string(req.Body) != e.body {
		t.Errorf("body = %q, want %q", string(req.Body), e.body)
	}
}

// queryPairs decodes the query of u preserving order.
func queryPairs(u *url.URL) []Param {
	var out []Param
	raw := u.RawQuery
	for raw != "" {
		var pair string
		pair, raw, _ = strings.Cut(raw, "&")
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		key, _ := url.QueryUnescape(k)
		value, _ := url.QueryUnescape(v)
		out = append(out, Param{Key: key, Value: value})
	}
	return out
}

// singleTestClient answers every request with the same canned response.
type singleTestClient struct {
	t        *testing.T
	expected expectedRequest
	status   int
	header   http.Header
	data     []byte

	mu       sync.Mutex
	requests []*Request
}

func newSingleTestClient(t *testing.T, expected expectedRequest, data string) *singleTestClient {
	return &singleTestClient{t: t, expected: expected, status: http.StatusOK, data: []byte(data)}
}

func newSingleJSONClient(t *testing.T, expected expectedRequest, v any) *singleTestClient {
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return newSingleTestClient(t, expected, string(data))
}

func (c *singleTestClient) withStatus(status int) *singleTestClient {
	c.status = status
	return c
}

func (c *singleTestClient) RestEndpoint(path string) (*url.URL, error) {
	return url.Parse(testBaseURL + path)
}

func (c *singleTestClient) Rest(_ context.Context, req *Request) (*Response, error) {
	c.mu.Lock()
	c.requests = append(c.requests, req)
	c.mu.Unlock()

	c.expected.check(c.t, req)
	header := c.header
	if header == nil {
		header = http.Header{}
	}
	return &Response{StatusCode: c.status, Header: header, Body: c.data}, nil
}

func (c *singleTestClient) requestCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requests)
}

// pagedTestClient serves data with offset/limit semantics and next links that
// carry only offset and limit.
type pagedTestClient struct {
	t        *testing.T
	expected expectedRequest
	data     []int
	// envelope nests each page under this key when set.
	envelope string

	mu       sync.Mutex
	requests []*Request
}

func newPagedTestClient(t *testing.T, expected expectedRequest, n int) *pagedTestClient {
	data := make([]int, n)
	for i := range data {
		data[i] = i
	}
	expected.paginated = true
	return &pagedTestClient{t: t, expected: expected, data: data}
}

func (c *pagedTestClient) RestEndpoint(path string) (*url.URL, error) {
	return url.Parse(testBaseURL + path)
}

func (c *pagedTestClient) Rest(_ context.Context, req *Request) (*Response, error) {
	c.mu.Lock()
	c.requests = append(c.requests, req)
	c.mu.Unlock()

	c.expected.check(c.t, req)

	offset, limit := 0, defaultTestLimit
	q := req.URL.Query()
	if v := q.Get("offset"); v != "" {
		offset, _ = strconv.Atoi(v)
	}
	if v := q.Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}
	start := min(offset, len(c.data))
	end := min(offset+limit, len(c.data))

	page := model.Page[int]{
		Href:   req.URL.String(),
		Limit:  limit,
		Offset: offset,
		Total:  len(c.data),
		Items:  c.data[start:end],
	}
	if offset > 0 {
		prev := c.pageURL(req.URL, max(offset-limit, 0), limit)
		page.Previous = &prev
	}
	if end < len(c.data) {
		next := c.pageURL(req.URL, end, limit)
		page.Next = &next
	}

	var payload any = page
	if c.envelope != "" {
		payload = map[string]any{c.envelope: page}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Response{StatusCode: http.StatusOK, Header: http.Header{}, Body: body}, nil
}

func (c *pagedTestClient) pageURL(u *url.URL, offset, limit int) string {
	next := *u
	next.RawQuery = url.Values{
		"offset": {strconv.Itoa(offset)},
		"limit":  {strconv.Itoa(limit)},
	}.Encode()
	return next.String()
}

func (c *pagedTestClient) requestCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requests)
}

type dummyEndpoint struct {
	EndpointDefaults
	PageableEndpoint
}

func (dummyEndpoint) Method() string { return http.MethodGet }
func (dummyEndpoint) Path() string   { return "paged_dummy" }

type dummyResult struct {
	Value int `json:"value"`
}
