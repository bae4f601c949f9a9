// Package record defines the opaque row type the data-view engine filters
// and sorts, plus the value conversions every component agrees on.
package record

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
)

// Record is one row of an in-memory collection: a mapping from field key to
// a scalar value (string, number, boolean, or nil). Nested values are
// tolerated and compared by their JSON form.
type Record map[string]any

// Get returns the value stored under key and whether the key exists.
func (r Record) Get(key string) (any, bool) {
	if r == nil {
		return nil, false
	}
	v, ok := r[key]
	return v, ok
}

// IsNull reports whether the field is missing or holds nil.
func (r Record) IsNull(key string) bool {
	v, ok := r.Get(key)
	return !ok || IsNil(v)
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// IsNil reports whether v is nil, including typed nil pointers, maps and slices.
func IsNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() { //nolint:exhaustive // only nillable kinds matter
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// String returns the string form of a value as used by filters: nil becomes
// "", booleans "true"/"false", whole numbers have no decimal point.
func String(v any) string {
	if IsNil(v) {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return formatFloat(t)
	case float32:
		return formatFloat(float64(t))
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(t)
	case json.Number:
		return t.String()
	case fmt.Stringer:
		return t.String()
	}
	if b, err := json.Marshal(v); err == nil {
		return string(b)
	}
	return fmt.Sprintf("%v", v)
}

func formatFloat(f float64) string {
	if f == math.Trunc(f) && !math.IsInf(f, 0) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Number returns the numeric value of v when v is a Go numeric type.
// Strings are not parsed: a numeric-looking string is still a string.
func Number(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, !math.IsNaN(t)
	case float32:
		return float64(t), !math.IsNaN(float64(t))
	case int:
		return float64(t), true
	case int8:
		return float64(t), true
	case int16:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint8:
		return float64(t), true
	case uint16:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	}
	return 0, false
}

// Bool returns the boolean value of v when v is a bool.
func Bool(v any) (value bool, ok bool) {
	b, ok := v.(bool)
	return b, ok
}

// Keys returns the union of record keys in first-seen order. Keys within a
// single record are taken in sorted order so the result is deterministic.
func Keys(records []Record) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range records {
		for _, k := range sortedKeys(r) {
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
	}
	return out
}

func sortedKeys(r Record) []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
