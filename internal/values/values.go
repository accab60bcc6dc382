// Package values holds the value rules shared by overlays, the sync engine and
// the index writer: what counts as a present translation, when two attribute
// values are equivalent, and how indexable values are coerced to text.
package values

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// ErrNotScalar is returned by Scalar for maps, slices, structs and other
// structured values.
var ErrNotScalar = errors.New("values: value is not scalar")

// IsPresent reports whether value counts as an existing translation.
//
// nil, "", false and empty slices/maps are absent. Every number (including
// zero) and the string "0" are present.
func IsPresent(value any) bool {
	switch typed := value.(type) {
	case nil:
		return false
	case string:
		return typed != ""
	case bool:
		return typed
	case json.Number:
		return typed != ""
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return false
		}
		return IsPresent(rv.Elem().Interface())
	case reflect.Map, reflect.Slice, reflect.Array:
		return rv.Len() > 0
	case reflect.String:
		return rv.Len() > 0
	case reflect.Bool:
		return rv.Bool()
	default:
		return true
	}
}

// Equivalent reports whether a and b represent the same attribute value.
// Numbers and numeric strings compare numerically; structured values compare
// by their JSON encoding.
func Equivalent(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if reflect.DeepEqual(a, b) {
		return true
	}
	if af, ok := numeric(a); ok {
		if bf, ok := numeric(b); ok {
			return af == bf
		}
		return false
	}
	if isStructured(a) || isStructured(b) {
		left, errA := json.Marshal(a)
		right, errB := json.Marshal(b)
		return errA == nil && errB == nil && string(left) == string(right)
	}
	return false
}

// Scalar converts an indexable value to its stored text form. nil and false
// map to the empty string. Structured values return ErrNotScalar.
func Scalar(value any) (string, error) {
	switch typed := value.(type) {
	case nil:
		return "", nil
	case string:
		return typed, nil
	case bool:
		if typed {
			return "1", nil
		}
		return "", nil
	case json.Number:
		return typed.String(), nil
	case int:
		return strconv.Itoa(typed), nil
	case int8, int16, int32, int64:
		return strconv.FormatInt(reflect.ValueOf(typed).Int(), 10), nil
	case uint, uint8, uint16, uint32, uint64:
		return strconv.FormatUint(reflect.ValueOf(typed).Uint(), 10), nil
	case float32:
		return strconv.FormatFloat(float64(typed), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64), nil
	case time.Time:
		return typed.UTC().Format(time.RFC3339Nano), nil
	case fmt.Stringer:
		return typed.String(), nil
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return "", nil
		}
		return Scalar(rv.Elem().Interface())
	case reflect.String:
		return rv.String(), nil
	}
	return "", fmt.Errorf("%w: %T", ErrNotScalar, value)
}

// Clone returns a deep copy of a value map. Nested maps and slices are copied
// so snapshots never alias live overlay data.
func Clone(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}
	out := make(map[string]any, len(data))
	for key, value := range data {
		out[key] = CloneValue(value)
	}
	return out
}

// CloneValue deep copies maps and slices of the shapes produced by JSON
// decoding. Other values are returned as-is.
func CloneValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return Clone(typed)
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = CloneValue(item)
		}
		return out
	case []string:
		return append([]string(nil), typed...)
	default:
		return value
	}
}

func numeric(value any) (float64, bool) {
	switch typed := value.(type) {
	case int:
		return float64(typed), true
	case int8, int16, int32, int64:
		return float64(reflect.ValueOf(typed).Int()), true
	case uint, uint8, uint16, uint32, uint64:
		return float64(reflect.ValueOf(typed).Uint()), true
	case float32:
		return float64(typed), true
	case float64:
		return typed, !math.IsNaN(typed)
	case json.Number:
		f, err := typed.Float64()
		return f, err == nil
	case string:
		trimmed := strings.TrimSpace(typed)
		if trimmed == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func isStructured(value any) bool {
	switch reflect.ValueOf(value).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		return true
	default:
		return false
	}
}
