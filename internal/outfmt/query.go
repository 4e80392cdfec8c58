package outfmt

import (
	"encoding/json"
	"io"
	"reflect"

	"github.com/spotifyweb/spotify-cli/internal/filter"
)

// normalizeJSONOutput wraps lists as {"items": [...]}, the shape of a Web API
// page, so jq expressions work the same on fetched and collected lists.
func normalizeJSONOutput(v any) any {
	if v == nil {
		return v
	}
	switch v.(type) {
	case []byte, json.RawMessage:
		return v
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return v
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return v
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return v
	}
	// A nil slice would encode as null and break .items[].
	if rv.Kind() == reflect.Slice && rv.IsNil() {
		return map[string]any{"items": []any{}}
	}
	return map[string]any{"items": rv.Interface()}
}

// toJSONValue converts v to the generic form jq operates on.
func toJSONValue(v any) (any, error) {
	if raw, ok := v.(json.RawMessage); ok {
		v = []byte(raw)
	}
	data, ok := v.([]byte)
	if !ok {
		var err error
		if data, err = json.Marshal(v); err != nil {
			return nil, err
		}
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ApplyQuery applies a jq expression to v and returns the filtered value.
func ApplyQuery(v any, query string) (any, error) {
	v = normalizeJSONOutput(v)
	if query == "" {
		return v, nil
	}
	generic, err := toJSONValue(v)
	if err != nil {
		return nil, err
	}
	return filter.Apply(generic, query)
}

// WriteJSONFiltered writes v as JSON after an optional jq expression.
func WriteJSONFiltered(w io.Writer, v any, query string, compact bool) error {
	if raw, ok := v.(json.RawMessage); ok && query == "" {
		generic, err := toJSONValue(raw)
		if err != nil {
			return err
		}
		return WriteJSON(w, generic, compact)
	}
	result, err := ApplyQuery(v, query)
	if err != nil {
		return err
	}
	return WriteJSON(w, result, compact)
}
