// Test helpers for running commands against a fake Web API.
//
// A typical test routes the paths a command calls and runs it:
//
//	handler := newRouteHandler().
//	    On("GET", "/v1/albums/4aawyAB9vmqN3uQ7FjRGTy", jsonResponse(200, `{"id": "4aawyAB9vmqN3uQ7FjRGTy"}`))
//	setupTestEnv(t, handler)
//
//	out, _, err := runCommand(t, "albums", "get", "4aawyAB9vmqN3uQ7FjRGTy")
//
// Routes match on method and path; the query string is ignored. List
// endpoints can be served by pagedResponse, which honors limit and offset.
package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/spotifyweb/spotify-cli/internal/iocontext"
)

// testEnv is a fake Web API plus the environment pointing the CLI at it.
type testEnv struct {
	server *httptest.Server
}

// setupTestEnv serves handler and authenticates with a static token. Retries
// are disabled so error tests fail fast.
func setupTestEnv(t *testing.T, handler http.Handler) *testEnv {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	t.Setenv("SPOTIFY_API_URL", server.URL+"/v1/")
	t.Setenv("SPOTIFY_ACCESS_TOKEN", "test-token")
	t.Setenv("SPOTIFY_NO_CACHE", "1")
	t.Setenv("SPOTIFY_MAX_5XX_RETRIES", "0")
	t.Setenv("SPOTIFY_MAX_RATE_LIMIT_RETRIES", "0")

	return &testEnv{server: server}
}

// runCommand executes the CLI with args and returns stdout and stderr.
func runCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return runCommandWithInput(t, strings.NewReader(""), args...)
}

func runCommandWithInput(t *testing.T, in io.Reader, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	ctx := iocontext.WithIO(context.Background(), &iocontext.IO{Out: &out, ErrOut: &errOut, In: in})
	err := Execute(ctx, args)
	return out.String(), errOut.String(), err
}

// jsonResponse returns a handler answering with status and body.
func jsonResponse(statusCode int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		_, _ = w.Write([]byte(body))
	}
}

// noContent answers 204 like the write endpoints of the Web API.
func noContent(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// pagedResponse serves items as a paging object. limit and offset come from
// the query string; key, when set, nests the page under that key.
func pagedResponse(key string, items []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
		if err != nil || limit <= 0 {
			limit = 20
		}
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		start := min(offset, len(items))
		end := min(offset+limit, len(items))

		next := "null"
		if end < len(items) {
			next = fmt.Sprintf("%q", fmt.Sprintf("http://%s%s?offset=%d&limit=%d", r.Host, r.URL.Path, end, limit))
		}
		page := fmt.Sprintf(`{"href":"","limit":%d,"offset":%d,"total":%d,"next":%s,"previous":null,"items":[%s]}`,
			limit, offset, len(items), next, strings.Join(items[start:end], ","))
		if key != "" {
			page = fmt.Sprintf(`{%q:%s}`, key, page)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(page))
	}
}

// routeHandler routes requests by "METHOD PATH" and records them. Unknown
// routes get a Web API style 404.
type routeHandler struct {
	mu       sync.Mutex
	routes   map[string]http.HandlerFunc
	requests []recordedRequest
}

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Body   string
	Header http.Header
}

func newRouteHandler() *routeHandler {
	return &routeHandler{routes: make(map[string]http.HandlerFunc)}
}

// On registers handler for method and path. It returns h for chaining.
func (h *routeHandler) On(method, path string, handler http.HandlerFunc) *routeHandler {
	h.routes[method+" "+path] = handler
	return h
}

func (h *routeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	r.Body = io.NopCloser(bytes.NewReader(body))

	h.mu.Lock()
	h.requests = append(h.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Body:   string(body),
		Header: r.Header.Clone(),
	})
	handler, ok := h.routes[r.Method+" "+r.URL.Path]
	h.mu.Unlock()

	if !ok {
		jsonResponse(http.StatusNotFound, `{"error":{"status":404,"message":"Resource not found"}}`)(w, r)
		return
	}
	handler(w, r)
}

// Requests returns the requests served so far.
func (h *routeHandler) Requests() []recordedRequest {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]recordedRequest(nil), h.requests...)
}

// decodeJSON unmarshals command output into v.
func decodeJSON(t *testing.T, output string, v any) {
	t.Helper()
	if err := json.Unmarshal([]byte(output), v); err != nil {
		t.Fatalf("failed to decode output %q: %v", output, err)
	}
}

// decodeItems returns the elements of list output, which JSON mode prints as
// {"items": [...]}.
func decodeItems(t *testing.T, output string) []map[string]any {
	t.Helper()
	var payload struct {
		Items []map[string]any `json:"items"`
	}
	decodeJSON(t, output, &payload)
	if payload.Items == nil {
		t.Fatalf("expected an items list, got %q", output)
	}
	return payload.Items
}

// jsonLines splits JSON lines output into its documents.
func jsonLines(t *testing.T, output string) []map[string]any {
	t.Helper()
	var docs []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		if line == "" {
			continue
		}
		var doc map[string]any
		if err := json.Unmarshal([]byte(line), &doc); err != nil {
			t.Fatalf("invalid JSON line %q: %v", line, err)
		}
		docs = append(docs, doc)
	}
	return docs
}

// testIDs returns n distinct valid IDs.
func testIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("%022d", i)
	}
	return ids
}

func trackJSON(id, name string) string {
	return fmt.Sprintf(`{"id":%q,"name":%q,"type":"track","uri":"spotify:track:%s","duration_ms":185000,"track_number":1,"artists":[{"id":"0TnOYISbd1XYRBk9myaseg","name":"Pitbull"}],"album":{"id":"4aawyAB9vmqN3uQ7FjRGTy","name":"Global Warming"}}`, id, name, id)
}
