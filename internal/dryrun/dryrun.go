// Package dryrun previews Web API writes without sending them.
package dryrun

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spotifyweb/spotify-cli/internal/api"
)

type contextKey struct{}

// WithDryRun returns a context with dry-run mode enabled or disabled.
func WithDryRun(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, contextKey{}, enabled)
}

// IsEnabled reports whether dry-run mode is enabled.
func IsEnabled(ctx context.Context) bool {
	if v, ok := ctx.Value(contextKey{}).(bool); ok {
		return v
	}
	return false
}

// Call is one request a write would have sent.
type Call struct {
	Method string          `json:"method"`
	URL    string          `json:"url"`
	Body   any    `json:"body,omitempty"`
}

// Preview describes a write that was not performed.
type Preview struct {
	Operation string   `json:"operation"`
	Resource  string   `json:"resource"`
	Calls     []Call   `json:"calls"`
	Warnings  []string `json:"warnings,omitempty"`
	DryRun    bool     `json:"dry_run"`
}

// New prepares every endpoint against rc and records the resulting requests.
// Nothing is sent.
func New(operation, resource string, rc api.RestClient, eps ...api.Endpoint) (*Preview, error) {
	p := &Preview{Operation: operation, Resource: resource, DryRun: true}
	for _, ep := range eps {
		req, err := api.PrepareRequest(ep, rc)
		if err != nil {
			return nil, err
		}
		call := Call{Method: req.Method, URL: req.URL.String()}
		switch {
		case len(req.Body) == 0:
		case json.Valid(req.Body):
			call.Body = json.RawMessage(req.Body)
		default:
			call.Body = string(req.Body)
		}
		p.Calls = append(p.Calls, call)
	}
	return p, nil
}

// Write renders the preview as text.
func (p *Preview) Write(w io.Writer) {
	_, _ = fmt.Fprintf(w, "[DRY-RUN] Would %s %s\n", p.Operation, p.Resource)
	for _, c := range p.Calls {
		_, _ = fmt.Fprintf(w, "  %s %s\n", c.Method, c.URL)
		if c.Body != nil {
			_, _ = fmt.Fprintf(w, "    %s\n", c.Body)
		}
	}
	if len(p.Warnings) > 0 {
		_, _ = fmt.Fprintln(w, "Warnings:")
		for _, warning := range p.Warnings {
			_, _ = fmt.Fprintf(w, "  ! %s\n", warning)
		}
	}
	_, _ = fmt.Fprintln(w, "No changes made (dry-run mode)")
}
