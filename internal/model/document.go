// Package model defines the records that flow through the lead pipeline and
// the loosely-typed documents returned by upstream data sources.
package model

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Document is a loosely-typed JSON object as received from an upstream API or
// stored in a collection. Accessors never panic: a missing key, a null, or a
// value of the wrong shape yields the zero value.
type Document map[string]any

// Has reports whether key is present with a non-null value.
func (d Document) Has(key string) bool {
	v, ok := d[key]
	return ok && v != nil
}

// String returns d[key] as a trimmed string. Numbers are formatted without
// exponent so numeric ids survive.
func (d Document) String(key string) string {
	return AsString(d[key])
}

// Int returns d[key] as an int64, parsing numeric strings.
func (d Document) Int(key string) int64 {
	switch v := d[key].(type) {
	case float64:
		if math.IsNaN(v) {
			return 0
		}
		return int64(v)
	case int:
		return int64(v)
	case int64:
		return v
	case json.Number:
		n, _ := v.Int64()
		return n
	case string:
		n, _ := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return n
	}
	return 0
}

// Bool returns d[key] as a bool; anything other than true is false.
func (d Document) Bool(key string) bool {
	b, _ := d[key].(bool)
	return b
}

// Map returns d[key] as a nested Document, or nil.
func (d Document) Map(key string) Document {
	return AsDocument(d[key])
}

// Slice returns d[key] as a list, or nil.
func (d Document) Slice(key string) []any {
	s, _ := d[key].([]any)
	return s
}

// Documents returns the object elements of the list at d[key], skipping
// anything that is not an object.
func (d Document) Documents(key string) []Document {
	return AsDocuments(d[key])
}

// Clone returns a shallow copy of d.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Without returns a copy of d with the given keys removed.
func (d Document) Without(keys ...string) Document {
	out := d.Clone()
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// Rename moves the value at from to to, if present.
func (d Document) Rename(from, to string) {
	if v, ok := d[from]; ok {
		delete(d, from)
		d[to] = v
	}
}

// Flatten collapses nested objects into a single level, joining keys with
// sep. Lists are kept as values.
func (d Document) Flatten(sep string) Document {
	out := make(Document, len(d))
	flattenInto(out, "", sep, d)
	return out
}

func flattenInto(out Document, prefix, sep string, in Document) {
	for k, v := range in {
		key := k
		if prefix != "" {
			key = prefix + sep + k
		}
		if nested := AsDocument(v); nested != nil {
			flattenInto(out, key, sep, nested)
			continue
		}
		out[key] = v
	}
}

// Decode converts d into v through its JSON representation.
func (d Document) Decode(v any) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return eris.Wrap(err, "model: marshal document")
	}
	return eris.Wrap(json.Unmarshal(raw, v), "model: decode document")
}

// ToDocument converts a struct into a Document through its JSON representation.
func ToDocument(v any) (Document, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, eris.Wrap(err, "model: marshal")
	}
	var d Document
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, eris.Wrap(err, "model: unmarshal to document")
	}
	return d, nil
}

// AsDocument converts an arbitrary decoded JSON value to a Document, or nil.
func AsDocument(v any) Document {
	switch m := v.(type) {
	case Document:
		return m
	case map[string]any:
		return Document(m)
	}
	return nil
}

// AsDocuments converts a decoded JSON list to its object elements. A single
// object is treated as a one-element list.
func AsDocuments(v any) []Document {
	if d := AsDocument(v); d != nil {
		return []Document{d}
	}
	var list []any
	switch s := v.(type) {
	case []any:
		list = s
	case []Document:
		return s
	case []map[string]any:
		out := make([]Document, 0, len(s))
		for _, m := range s {
			out = append(out, Document(m))
		}
		return out
	default:
		return nil
	}
	out := make([]Document, 0, len(list))
	for _, item := range list {
		if d := AsDocument(item); d != nil {
			out = append(out, d)
		}
	}
	return out
}

// AsString renders scalar JSON values as a trimmed string.
func AsString(v any) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return ""
		}
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case json.Number:
		return s.String()
	case bool:
		return strconv.FormatBool(s)
	}
	return ""
}
