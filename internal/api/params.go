package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	ContentTypeForm = "application/x-www-form-urlencoded"
	ContentTypeJSON = "application/json"
)

var errInvalidUTF8 = errors.New("parameter is not valid UTF-8")

// ParamValue is implemented by types with a canonical query string form.
type ParamValue interface {
	ParamValue() string
}

// Param is a single key/value pair.
type Param struct {
	Key   string
	Value string
}

// QueryParams is an ordered multimap of query parameters. Keys may repeat and
// insertion order is preserved when encoded.
type QueryParams struct {
	params []Param
}

// NewQueryParams returns an empty parameter set.
func NewQueryParams() *QueryParams {
	return &QueryParams{}
}

// Push appends key with the canonical string form of value.
func (p *QueryParams) Push(key string, value any) *QueryParams {
	p.params = append(p.params, Param{Key: key, Value: FormatParam(value)})
	return p
}

// PushOpt appends key only when value is present. A nil interface, nil
// pointer, nil slice or nil map is absent; a non-nil pointer is dereferenced.
func (p *QueryParams) PushOpt(key string, value any) *QueryParams {
	v, ok := optional(value)
	if !ok {
		return p
	}
	return p.Push(key, v)
}

// Extend appends every pair of other in order.
func (p *QueryParams) Extend(other *QueryParams) *QueryParams {
	if other != nil {
		p.params = append(p.params, other.params...)
	}
	return p
}

// Len returns the number of pairs.
func (p *QueryParams) Len() int {
	if p == nil {
		return 0
	}
	return len(p.params)
}

// Pairs returns a copy of the pairs in insertion order.
func (p *QueryParams) Pairs() []Param {
	if p == nil {
		return nil
	}
	out := make([]Param, len(p.params))
	copy(out, p.params)
	return out
}

// Encode returns the form-urlencoded representation in insertion order.
func (p *QueryParams) Encode() string {
	if p == nil || len(p.params) == 0 {
		return ""
	}
	var b strings.Builder
	for i, kv := range p.params {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(kv.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(kv.Value))
	}
	return b.String()
}

// AddToURL appends the pairs to u's query, after any existing pairs.
func (p *QueryParams) AddToURL(u *url.URL) {
	encoded := p.Encode()
	if encoded == "" {
		return
	}
	if u.RawQuery == "" {
		u.RawQuery = encoded
		return
	}
	u.RawQuery += "&" + encoded
}

// FormBody encodes the pairs as an application/x-www-form-urlencoded body.
func (p *QueryParams) FormBody() (*Body, error) {
	if p != nil {
		for _, kv := range p.params {
			if !utf8.ValidString(kv.Key) || !utf8.ValidString(kv.Value) {
				return nil, &BodyError{Encoding: "form", Err: fmt.Errorf("%w: %q", errInvalidUTF8, kv.Key)}
			}
		}
	}
	return &Body{ContentType: ContentTypeForm, Data: []byte(p.Encode())}, nil
}

// Body is an encoded request payload.
type Body struct {
	ContentType string
	Data        []byte
}

// JSONParams builds a JSON object whose keys are written in insertion order.
type JSONParams struct {
	keys   []string
	values map[string]any
}

// NewJSONParams returns an empty JSON object builder.
func NewJSONParams() *JSONParams {
	return &JSONParams{values: map[string]any{}}
}

// Push sets key to value. Pushing an existing key replaces its value in place.
func (j *JSONParams) Push(key string, value any) *JSONParams {
	if j.values == nil {
		j.values = map[string]any{}
	}
	if _, exists := j.values[key]; !exists {
		j.keys = append(j.keys, key)
	}
	j.values[key] = value
	return j
}

// PushOpt sets key only when value is present, using the rules of
// QueryParams.PushOpt.
func (j *JSONParams) PushOpt(key string, value any) *JSONParams {
	v, ok := optional(value)
	if !ok {
		return j
	}
	return j.Push(key, v)
}

// Len returns the number of keys.
func (j *JSONParams) Len() int {
	if j == nil {
		return 0
	}
	return len(j.keys)
}

// MarshalJSON writes the object in insertion order.
func (j *JSONParams) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	b.WriteByte('{')
	if j != nil {
		for i, key := range j.keys {
			if i > 0 {
				b.WriteByte(',')
			}
			k, err := json.Marshal(key)
			if err != nil {
				return nil, err
			}
			v, err := json.Marshal(j.values[key])
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", key, err)
			}
			b.Write(k)
			b.WriteByte(':')
			b.Write(v)
		}
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}

// Body encodes the object as an application/json body.
func (j *JSONParams) Body() (*Body, error) {
	data, err := j.MarshalJSON()
	if err != nil {
		return nil, &BodyError{Encoding: "json", Err: err}
	}
	return &Body{ContentType: ContentTypeJSON, Data: data}, nil
}

// JSONBody marshals v as an application/json body.
func JSONBody(v any) (*Body, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, &BodyError{Encoding: "json", Err: err}
	}
	return &Body{ContentType: ContentTypeJSON, Data: data}, nil
}

// FormatParam returns the canonical query string form of value.
func FormatParam(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case ParamValue:
		return v.ParamValue()
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int8:
		return strconv.FormatInt(int64(v), 10)
	case int16:
		return strconv.FormatInt(int64(v), 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint8:
		return strconv.FormatUint(uint64(v), 10)
	case uint16:
		return strconv.FormatUint(uint64(v), 10)
	case uint32:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []string:
		return strings.Join(v, ",")
	case fmt.Stringer:
		return v.String()
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Slice {
		parts := make([]string, rv.Len())
		for i := range parts {
			parts[i] = FormatParam(rv.Index(i).Interface())
		}
		return strings.Join(parts, ",")
	}
	return fmt.Sprint(value)
}

func optional(value any) (any, bool) {
	if value == nil {
		return nil, false
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return nil, false
		}
		return rv.Elem().Interface(), true
	case reflect.Slice, reflect.Map, reflect.Interface:
		if rv.IsNil() {
			return nil, false
		}
	}
	return value, true
}

// PathEscape percent-encodes a path segment. Control characters, non-ASCII
// bytes, space and the characters "#<>`?{}%/ are escaped.
func PathEscape(segment string) string {
	var b strings.Builder
	b.Grow(len(segment))
	for i := 0; i < len(segment); i++ {
		c := segment[i]
		if shouldEscapePath(c) {
			fmt.Fprintf(&b, "%%%02X", c)
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func shouldEscapePath(c byte) bool {
	if c < 0x20 || c >= 0x7f {
		return true
	}
	switch c {
	case ' ', '"', '#', '<', '>', '`', '?', '{', '}', '%', '/':
		return true
	}
	return false
}
