package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ISOTimestamp is the layout used for timestamps on the wire: UTC with
// millisecond precision, e.g. 2024-01-01T00:00:00.000Z.
const ISOTimestamp = "2006-01-02T15:04:05.000Z07:00"

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// FormatTimestamp renders t in the wire timestamp layout
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(ISOTimestamp)
}

// ParseDate accepts a full timestamp or a bare calendar date
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// UpperBound widens a bare calendar date to the last millisecond of that
// day so an inclusive upper bound covers the whole day. Other values are
// returned unchanged.
func UpperBound(t FieldType, v any) any {
	s, ok := v.(string)
	if t != FieldTypeDate || !ok {
		return v
	}
	day, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return v
	}
	return day.Add(24*time.Hour - time.Millisecond)
}

// IsEmptyValue reports whether v is the empty state of a condition value
func IsEmptyValue(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	default:
		if list, ok := ToList(v); ok {
			return len(list) == 0
		}
		return false
	}
}

// ToList converts the slice types a caller may hand us into []any
func ToList(v any) ([]any, bool) {
	switch x := v.(type) {
	case []any:
		return x, true
	case []string:
		out := make([]any, len(x))
		for i := range x {
			out[i] = x[i]
		}
		return out, true
	case []float64:
		out := make([]any, len(x))
		for i := range x {
			out[i] = x[i]
		}
		return out, true
	case []int:
		out := make([]any, len(x))
		for i := range x {
			out[i] = x[i]
		}
		return out, true
	default:
		return nil, false
	}
}

// ToFloat converts numeric values and numeric strings to float64
func ToFloat(v any) (float64, error) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, err
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number %q", x)
		}
		f = parsed
	default:
		return 0, fmt.Errorf("invalid number %v (%T)", v, v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid number %v", v)
	}
	return f, nil
}

// ToTime converts time values and date strings to time.Time
func ToTime(v any) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		return x, nil
	case *time.Time:
		if x == nil {
			return time.Time{}, fmt.Errorf("nil time")
		}
		return *x, nil
	case string:
		return ParseDate(x)
	default:
		return time.Time{}, fmt.Errorf("invalid date %v (%T)", v, v)
	}
}

// NormalizeValue coerces v into the shape op requires. A scalar given to
// "in" becomes a one-element list and a one-element list given to a unary
// operator is unwrapped. Empty values are returned in the operator's empty
// shape.
func NormalizeValue(op Operator, v any) (any, error) {
	if IsEmptyValue(v) {
		if op.TakesList() {
			return []any{}, nil
		}
		if s, ok := v.(string); ok {
			return strings.TrimSpace(s), nil
		}
		return v, nil
	}

	list, isList := ToList(v)
	switch op {
	case OpIn:
		if !isList {
			return []any{v}, nil
		}
		return list, nil
	case OpBetween:
		if !isList || len(list) != 2 {
			return nil, fmt.Errorf("%w: between expects exactly two values, got %v", ErrValueShape, v)
		}
		return list, nil
	default:
		if !isList {
			return v, nil
		}
		if len(list) == 1 {
			return list[0], nil
		}
		return nil, fmt.Errorf("%w: %s expects a single value, got %d", ErrValueShape, op, len(list))
	}
}

func checkScalar(t FieldType, v any) error {
	switch t {
	case FieldTypeNumber:
		_, err := ToFloat(v)
		return err
	case FieldTypeDate:
		_, err := ToTime(v)
		return err
	default:
		switch v.(type) {
		case string, float64, float32, int, int32, int64, json.Number:
			return nil
		default:
			return fmt.Errorf("unexpected %T", v)
		}
	}
}

// CompareValues orders a and b according to the field type. Text and
// identifier values compare by their string form.
func CompareValues(t FieldType, a, b any) (int, error) {
	switch t {
	case FieldTypeNumber:
		x, err := ToFloat(a)
		if err != nil {
			return 0, err
		}
		y, err := ToFloat(b)
		if err != nil {
			return 0, err
		}
		switch {
		case x < y:
			return -1, nil
		case x > y:
			return 1, nil
		}
		return 0, nil
	case FieldTypeDate:
		x, err := ToTime(a)
		if err != nil {
			return 0, err
		}
		y, err := ToTime(b)
		if err != nil {
			return 0, err
		}
		return x.Compare(y), nil
	default:
		return strings.Compare(fmt.Sprint(a), fmt.Sprint(b)), nil
	}
}
