package outfmt

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/itchyny/gojq"

	"github.com/spotifyweb/spotify-cli/internal/filter"
)

// Formatter writes the result of one command.
//
// In text mode commands print tables through StartTable, Row and EndTable and
// Output is a no-op. In JSON modes Output writes a whole result, and Item
// streams one element of a list in JSON lines mode.
type Formatter struct {
	ctx       context.Context
	out       io.Writer
	errOut    io.Writer
	tabWriter *tabwriter.Writer

	code    *gojq.Code
	codeErr error
	compile bool
}

func NewFormatter(ctx context.Context, out, errOut io.Writer) *Formatter {
	return &Formatter{
		ctx:       ctx,
		out:       out,
		errOut:    errOut,
		tabWriter: tabwriter.NewWriter(out, 0, 4, 2, ' ', 0),
	}
}

// Output writes data as JSON, filtered by the context's jq expression and
// rendered by its template, if any.
func (f *Formatter) Output(data any) error {
	if !IsJSON(f.ctx) {
		return nil
	}
	query := GetQuery(f.ctx)
	if tmpl := GetTemplate(f.ctx); tmpl != "" {
		filtered, err := ApplyQuery(data, query)
		if err != nil {
			return err
		}
		return WriteTemplate(f.out, filtered, tmpl)
	}
	return WriteJSONFiltered(f.out, data, query, IsCompact(f.ctx))
}

// Streaming reports whether list items should be written with Item as they
// arrive instead of collected and written with Output.
func (f *Formatter) Streaming() bool {
	return IsJSONL(f.ctx)
}

// Item writes one list element as a JSON line. Every result of the jq
// expression becomes its own line.
func (f *Formatter) Item(item any) error {
	value, err := toJSONValue(item)
	if err != nil {
		return err
	}
	results := []any{value}
	if query := GetQuery(f.ctx); query != "" {
		code, err := f.compiled(query)
		if err != nil {
			return err
		}
		if results, err = filter.Run(code, value); err != nil {
			return err
		}
	}
	for _, r := range results {
		if tmpl := GetTemplate(f.ctx); tmpl != "" {
			if err := WriteTemplate(f.out, r, tmpl); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(f.out)
			continue
		}
		if err := WriteJSON(f.out, r, true); err != nil {
			return err
		}
	}
	return nil
}

func (f *Formatter) compiled(query string) (*gojq.Code, error) {
	if !f.compile {
		f.code, f.codeErr = filter.Compile(query)
		f.compile = true
	}
	return f.code, f.codeErr
}

// StartTable writes table headers. Returns true if in text mode.
func (f *Formatter) StartTable(headers []string) bool {
	if IsJSON(f.ctx) {
		return false
	}
	f.Row(headers...)
	return true
}

// Row writes a single row to the table.
func (f *Formatter) Row(columns ...string) {
	for i, col := range columns {
		if i > 0 {
			_, _ = fmt.Fprint(f.tabWriter, "\t")
		}
		_, _ = fmt.Fprint(f.tabWriter, col)
	}
	_, _ = fmt.Fprintln(f.tabWriter)
}

// EndTable flushes the table output.
func (f *Formatter) EndTable() error {
	return f.tabWriter.Flush()
}

// Empty writes a message to stderr indicating no results.
func (f *Formatter) Empty(message string) {
	_, _ = fmt.Fprintln(f.errOut, message)
}
