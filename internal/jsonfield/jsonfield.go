// Package jsonfield implements the contract for the JSON-typed columns
// (social_links, attributes, images) shared by the catalog service and the
// admin console.
//
// Reads are permissive: Decode never fails and falls back to the raw string
// when stored text does not parse. Writes are strict: ParseObject and
// ParseStringList reject anything that is not well-formed structured data.
package jsonfield

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/datatypes"
)

// Kind selects the default returned for null or absent values.
type Kind int

const (
	Object Kind = iota
	Array
)

func (k Kind) Default() any {
	if k == Array {
		return []any{}
	}
	return map[string]any{}
}

var ErrMalformed = errors.New("malformed structured value")

// Decode turns a stored column value into a structured value. Null yields
// k.Default(), maps and lists pass through, strings (and JSON text whose
// payload is itself a string) are parsed once; text that does not parse is
// returned unchanged as a string.
func Decode(v any, k Kind) any {
	switch t := v.(type) {
	case nil:
		return k.Default()
	case map[string]any, []any, map[string]string, []string:
		return t
	case datatypes.JSON:
		return decodeBytes(t, k)
	case json.RawMessage:
		return decodeBytes(t, k)
	case []byte:
		return decodeBytes(t, k)
	case string:
		return decodeString(t, k)
	default:
		return t
	}
}

func decodeBytes(b []byte, k Kind) any {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return k.Default()
	}
	var out any
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return string(b)
	}
	if s, ok := out.(string); ok {
		return decodeString(s, k)
	}
	return out
}

func decodeString(s string, k Kind) any {
	var out any
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return s
	}
	if out == nil {
		return k.Default()
	}
	return out
}

// Encode builds a sparse map from named form fields, omitting blank values.
func Encode(fields map[string]string) map[string]string {
	out := make(map[string]string, len(fields))
	for key, val := range fields {
		if strings.TrimSpace(val) == "" {
			continue
		}
		out[key] = val
	}
	return out
}

// MergeObject rewrites the managed keys of a decoded object from submitted
// form fields and keeps every other key untouched. A blank submitted field
// removes its key. A non-object existing value is treated as empty.
func MergeObject(existing any, managed []string, submitted map[string]string) map[string]any {
	out := map[string]any{}
	for key, val := range asObject(existing) {
		out[key] = val
	}
	for _, key := range managed {
		delete(out, key)
	}
	for key, val := range Encode(submitted) {
		out[key] = val
	}
	return out
}

// StringMap flattens a decoded object into editable string fields. Non-string
// scalars are rendered with their JSON text; a non-object yields an empty map.
func StringMap(v any) map[string]string {
	out := map[string]string{}
	for key, val := range asObject(v) {
		switch x := val.(type) {
		case string:
			out[key] = x
		case nil:
		default:
			b, err := json.Marshal(x)
			if err != nil {
				continue
			}
			out[key] = string(b)
		}
	}
	return out
}

// StringList returns the string entries of a decoded list in order.
// A non-list yields an empty slice.
func StringList(v any) []string {
	switch t := v.(type) {
	case []string:
		return append([]string{}, t...)
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return []string{}
}

func asObject(v any) map[string]any {
	switch t := v.(type) {
	case map[string]any:
		return t
	case map[string]string:
		out := make(map[string]any, len(t))
		for key, val := range t {
			out[key] = val
		}
		return out
	}
	return nil
}

// ParseObject accepts caller input for an object column: a map, or a JSON
// text (string or raw JSON, possibly a JSON string holding JSON) encoding an
// object. Anything else is ErrMalformed.
func ParseObject(v any) (map[string]any, error) {
	parsed, err := parse(v)
	if err != nil {
		return nil, err
	}
	switch t := parsed.(type) {
	case map[string]any:
		return t, nil
	case map[string]string:
		return asObject(t), nil
	case nil:
		return map[string]any{}, nil
	}
	return nil, fmt.Errorf("%w: want object, got %s", ErrMalformed, typeName(parsed))
}

// ParseStringList accepts caller input for a path list: a list of strings, or
// JSON text encoding one.
func ParseStringList(v any) ([]string, error) {
	parsed, err := parse(v)
	if err != nil {
		return nil, err
	}
	switch t := parsed.(type) {
	case []string:
		return t, nil
	case []any:
		out := make([]string, 0, len(t))
		for i, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: item %d is %s, want string", ErrMalformed, i, typeName(item))
			}
			out = append(out, s)
		}
		return out, nil
	case nil:
		return []string{}, nil
	}
	return nil, fmt.Errorf("%w: want list, got %s", ErrMalformed, typeName(parsed))
}

func parse(v any) (any, error) {
	switch t := v.(type) {
	case string:
		return parseText([]byte(t), true)
	case json.RawMessage:
		return parseText(t, true)
	case []byte:
		return parseText(t, true)
	default:
		return t, nil
	}
}

func parseText(b []byte, unwrap bool) (any, error) {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrMalformed)
	}
	var out any
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if s, ok := out.(string); ok && unwrap {
		return parseText([]byte(s), false)
	}
	return out, nil
}

// Marshal serializes a structured value for a JSON column.
func Marshal(v any) (datatypes.JSON, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

// SortedKeys is used wherever a decoded object is rendered in a stable order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case []any:
		return "list"
	case map[string]any:
		return "object"
	}
	return fmt.Sprintf("%T", v)
}
