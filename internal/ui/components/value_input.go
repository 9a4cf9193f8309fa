package components

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/saint-community/querybuilder/internal/models"
)

// ParseValue turns typed text into a condition value for field and op.
// List operators take comma separated items. Blank input yields the
// operator's empty value so the condition stays pending.
func ParseValue(field models.Field, op models.Operator, text string) (any, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.EmptyValue(field.Type, op), nil
	}

	if !op.TakesList() {
		return parseScalar(field.Type, text)
	}

	var values []any
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := parseScalar(field.Type, part)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	if op == models.OpBetween && len(values) != 2 {
		return nil, fmt.Errorf("between needs two values separated by a comma")
	}
	if values == nil {
		values = []any{}
	}
	return values, nil
}

func parseScalar(t models.FieldType, text string) (any, error) {
	switch t {
	case models.FieldTypeNumber:
		return models.ToFloat(text)
	case models.FieldTypeDate:
		d, err := models.ParseDate(text)
		if err != nil {
			return nil, err
		}
		return models.FormatTimestamp(d), nil
	default:
		return text, nil
	}
}

// FormatValue renders a stored value back into editable text
func FormatValue(v any) string {
	if models.IsEmptyValue(v) {
		return ""
	}
	if list, ok := models.ToList(v); ok {
		parts := make([]string, len(list))
		for i, item := range list {
			parts[i] = formatScalar(item)
		}
		return strings.Join(parts, ", ")
	}
	return formatScalar(v)
}

func formatScalar(v any) string {
	if f, ok := v.(float64); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

func valueHint(c models.FilterCondition) string {
	field, _ := models.LookupField(c.Field)
	switch {
	case c.Operator == models.OpBetween && field.Type == models.FieldTypeDate:
		return "2024-01-01, 2024-12-31"
	case c.Operator == models.OpBetween:
		return "low, high"
	case c.Operator == models.OpIn:
		return "comma separated values"
	case field.Type == models.FieldTypeNumber:
		return "number"
	case field.Type == models.FieldTypeDate:
		return "YYYY-MM-DD"
	default:
		return "text"
	}
}
