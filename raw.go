package jsonconf

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
)

// RawJSON values are the Go rendering of the JSON data model:
//
//	object  map[string]any
//	array   []any
//	string  string
//	number  float64 (any Go numeric kind and json.Number are accepted)
//	boolean bool
//	null    nil
type RawJSON = any

// IsRawJSONObject reports whether v is a map with string keys whose values
// are all raw JSON elements.
func IsRawJSONObject(v any) bool {
	m, ok := v.(map[string]any)
	if !ok {
		return false
	}
	for _, e := range m {
		if !IsRawJSONElement(e) {
			return false
		}
	}
	return true
}

// IsRawJSONArray reports whether v is a slice of raw JSON elements.
func IsRawJSONArray(v any) bool {
	a, ok := v.([]any)
	if !ok {
		return false
	}
	for _, e := range a {
		if !IsRawJSONElement(e) {
			return false
		}
	}
	return true
}

// IsRawJSONNumber reports whether v is a finite number.
func IsRawJSONNumber(v any) bool {
	switch n := v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	case float32:
		return !math.IsNaN(float64(n)) && !math.IsInf(float64(n), 0)
	case float64:
		return !math.IsNaN(n) && !math.IsInf(n, 0)
	case json.Number:
		_, err := n.Float64()
		return err == nil
	}
	return false
}

// IsRawJSONString reports whether v is a string.
func IsRawJSONString(v any) bool { _, ok := v.(string); return ok }

// IsRawJSONBool reports whether v is a bool.
func IsRawJSONBool(v any) bool { _, ok := v.(bool); return ok }

// IsRawJSONNull reports whether v is the JSON null (untyped nil).
func IsRawJSONNull(v any) bool { return v == nil }

// IsRawJSONPrimitive reports whether v is a number, string, bool or null.
func IsRawJSONPrimitive(v any) bool {
	return IsRawJSONNumber(v) || IsRawJSONString(v) || IsRawJSONBool(v) || IsRawJSONNull(v)
}

// IsRawJSONElement reports whether v is any raw JSON element.
func IsRawJSONElement(v any) bool {
	return IsRawJSONPrimitive(v) || IsRawJSONArray(v) || IsRawJSONObject(v)
}

// RawJSONer is implemented by values that know their own raw JSON form,
// such as configuration instances and collection proxies.
type RawJSONer interface {
	ToRawJSON() (any, error)
}

// Normalize converts v into canonical raw JSON: every number becomes float64,
// typed slices and string-keyed maps become []any and map[string]any, and
// RawJSONer values are asked for their raw form. Anything else (channels,
// funcs, structs, non-string map keys, NaN) fails with ErrInvalidType.
func Normalize(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case *AbsentType:
		return nil, NewValidationError("", ErrInvalidType, fmt.Errorf("Absent is not a JSON value"))
	case bool, string:
		return t, nil
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil, NewValidationError("", ErrInvalidType, fmt.Errorf("non-finite number %v", t))
		}
		return t, nil
	case json.Number:
		f, err := strconv.ParseFloat(t.String(), 64)
		if err != nil {
			return nil, NewValidationError("", ErrInvalidType, err)
		}
		return f, nil
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			ne, err := Normalize(e)
			if err != nil {
				return nil, err
			}
			out[k] = ne
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			ne, err := Normalize(e)
			if err != nil {
				return nil, err
			}
			out[i] = ne
		}
		return out, nil
	case RawJSONer:
		raw, err := t.ToRawJSON()
		if err != nil {
			return nil, err
		}
		return Normalize(raw)
	}
	return normalizeReflect(reflect.ValueOf(v))
}

func normalizeReflect(rv reflect.Value) (any, error) {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return Normalize(rv.Float())
	case reflect.String:
		return rv.String(), nil
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return []any{}, nil
		}
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			ne, err := Normalize(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			out[i] = ne
		}
		return out, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, NewValidationError("", ErrInvalidType, fmt.Errorf("map key type %s is not string", rv.Type().Key()))
		}
		out := make(map[string]any, rv.Len())
		it := rv.MapRange()
		for it.Next() {
			ne, err := Normalize(it.Value().Interface())
			if err != nil {
				return nil, err
			}
			out[it.Key().String()] = ne
		}
		return out, nil
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil, nil
		}
		return Normalize(rv.Elem().Interface())
	}
	if !rv.IsValid() {
		return nil, nil
	}
	return nil, NewValidationError("", ErrInvalidType, fmt.Errorf("unsupported Go type %s", rv.Type()))
}

// EqualRawJSON reports whether a and b are the same JSON value. Numbers are
// compared numerically and object key order is irrelevant.
func EqualRawJSON(a, b any) bool {
	na, err := Normalize(a)
	if err != nil {
		return false
	}
	nb, err := Normalize(b)
	if err != nil {
		return false
	}
	return reflect.DeepEqual(na, nb)
}

// DeepCopy returns a structural copy of a canonical raw JSON value.
func DeepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = DeepCopy(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = DeepCopy(e)
		}
		return out
	default:
		return v
	}
}

// SortedKeys returns the keys of m in ascending order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
