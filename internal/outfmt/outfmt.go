// Package outfmt renders command results as text tables, JSON or JSON lines,
// with optional jq filtering and templates.
package outfmt

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// Mode represents the output format mode.
type Mode int

const (
	// Text is the default human-readable output.
	Text Mode = iota
	// JSON outputs one JSON document.
	JSON
	// JSONL outputs one JSON value per line; list items are streamed.
	JSONL
)

type (
	modeKey     struct{}
	compactKey  struct{}
	queryKey    struct{}
	templateKey struct{}
)

// Parse parses an output mode string.
func Parse(s string) (Mode, error) {
	switch s {
	case "text", "":
		return Text, nil
	case "json":
		return JSON, nil
	case "jsonl", "ndjson":
		return JSONL, nil
	default:
		return Text, fmt.Errorf("invalid output format: %q (use 'text', 'json' or 'jsonl')", s)
	}
}

func (m Mode) String() string {
	switch m {
	case JSON:
		return "json"
	case JSONL:
		return "jsonl"
	default:
		return "text"
	}
}

func WithMode(ctx context.Context, mode Mode) context.Context {
	return context.WithValue(ctx, modeKey{}, mode)
}

// ModeFromContext returns the output mode, Text when unset.
func ModeFromContext(ctx context.Context) Mode {
	if mode, ok := ctx.Value(modeKey{}).(Mode); ok {
		return mode
	}
	return Text
}

// IsJSON reports whether output is JSON or JSON lines.
func IsJSON(ctx context.Context) bool {
	mode := ModeFromContext(ctx)
	return mode == JSON || mode == JSONL
}

func IsJSONL(ctx context.Context) bool {
	return ModeFromContext(ctx) == JSONL
}

func WithCompact(ctx context.Context, compact bool) context.Context {
	return context.WithValue(ctx, compactKey{}, compact)
}

// IsCompact reports whether JSON documents are written on a single line.
// JSON lines output is always compact.
func IsCompact(ctx context.Context) bool {
	if IsJSONL(ctx) {
		return true
	}
	c, _ := ctx.Value(compactKey{}).(bool)
	return c
}

// WithQuery adds a jq expression to the context.
func WithQuery(ctx context.Context, query string) context.Context {
	return context.WithValue(ctx, queryKey{}, query)
}

func GetQuery(ctx context.Context) string {
	q, _ := ctx.Value(queryKey{}).(string)
	return q
}

// WithTemplate adds a text/template string to the context.
func WithTemplate(ctx context.Context, tmpl string) context.Context {
	return context.WithValue(ctx, templateKey{}, tmpl)
}

func GetTemplate(ctx context.Context) string {
	tmpl, _ := ctx.Value(templateKey{}).(string)
	return tmpl
}

// WriteJSON writes v as indented JSON, or on one line when compact is set.
func WriteJSON(w io.Writer, v any, compact bool) error {
	enc := json.NewEncoder(w)
	if !compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
