package schemaforge

import (
	"fmt"
	"reflect"
	"strconv"
)

// display renders a value for messages: nil and false render empty, true
// renders "1", integral floats drop their fraction.
func display(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		if x {
			return "1"
		}
		return ""
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	}
	return fmt.Sprint(v)
}

type float64er interface{ Float64() (float64, error) }

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		return x, true
	case float64er:
		f, err := x.Float64()
		return f, err == nil
	}
	return 0, false
}

// equalValues compares decoded values. Numbers compare by value regardless of
// their Go type, so YAML ints, JSON floats and json.Number agree.
func equalValues(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	fa, okA := toFloat(a)
	fb, okB := toFloat(b)
	if okA && okB {
		return fa == fb
	}
	if okA != okB {
		return false
	}
	return reflect.DeepEqual(a, b)
}

// isEmpty reports whether v counts as not provided for dependency checks.
func isEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case bool:
		return !x
	case []any:
		return len(x) == 0
	case map[string]any:
		return len(x) == 0
	}
	if f, ok := toFloat(v); ok {
		return f == 0
	}
	return false
}

// asDocument returns v as a structured document when it is one.
func asDocument(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return "integer"
	case float32, float64, float64er:
		return "number"
	case []any:
		return "list"
	}
	return fmt.Sprintf("%T", v)
}
