package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
)

// Fields is the payload of a merge write: only the keys present are written,
// every other field of the stored document is left as it is.
type Fields map[string]any

type deleteMarker struct{}

// fieldDelete removes a field during a merge.
var fieldDelete = deleteMarker{}

// Set adds a field unless the value is absent. Absent values are nil, nil
// pointers, nil slices and nil maps; they are dropped rather than written
// as null so a merge never clears a field by accident.
func (f Fields) Set(key string, value any) Fields {
	if isAbsent(value) {
		return f
	}
	f[key] = value
	return f
}

// Delete marks a field for removal.
func (f Fields) Delete(key string) Fields {
	f[key] = fieldDelete
	return f
}

// sanitize drops absent values that slipped in through direct map writes.
func (f Fields) sanitize() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		if isAbsent(v) {
			continue
		}
		out[k] = v
	}
	return out
}

func isAbsent(v any) bool {
	if v == nil {
		return true
	}
	if _, ok := v.(deleteMarker); ok {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// decodeDocument decodes a stored document into a generic map. Numbers are
// kept as json.Number so 64-bit identities survive a round trip.
func decodeDocument(data []byte) (map[string]any, error) {
	doc := make(map[string]any)
	if len(data) == 0 {
		return doc, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

// mergeDocument overlays patch onto doc in place and returns it.
func mergeDocument(doc map[string]any, patch Fields) map[string]any {
	if doc == nil {
		doc = make(map[string]any, len(patch))
	}
	for k, v := range patch.sanitize() {
		if _, ok := v.(deleteMarker); ok {
			delete(doc, k)
			continue
		}
		doc[k] = v
	}
	return doc
}

// encodeDocument encodes a merged document for storage.
func encodeDocument(doc map[string]any) ([]byte, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return data, nil
}

// decodeInto converts stored bytes into a typed value.
func decodeInto[T any](data []byte) (*T, error) {
	v := new(T)
	if err := json.Unmarshal(data, v); err != nil {
		return nil, fmt.Errorf("decode %T: %w", v, err)
	}
	return v, nil
}

// nonEmpty maps the empty string to an absent value.
func nonEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
