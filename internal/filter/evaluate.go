package filter

import (
	"fmt"
	"strings"

	"github.com/saint-community/querybuilder/internal/models"
)

// Record is a flat row keyed by catalog field name
type Record map[string]any

// Evaluate reports whether rec satisfies the tree. Empty groups are
// always true. A missing attribute never matches, like a SQL NULL.
func Evaluate(group models.FilterGroup, rec Record) (bool, error) {
	if err := group.Complete(); err != nil {
		return false, err
	}
	return evalGroup(group, rec)
}

func evalGroup(group models.FilterGroup, rec Record) (bool, error) {
	if len(group.Conditions) == 0 {
		return true, nil
	}

	matchAny := group.Operator == models.LogicOr
	for _, child := range group.Conditions {
		var (
			ok  bool
			err error
		)
		switch n := child.(type) {
		case models.FilterGroup:
			ok, err = evalGroup(n, rec)
		case models.FilterCondition:
			ok, err = evalCondition(n, rec)
		default:
			err = fmt.Errorf("%w: %T", models.ErrInvalidNode, child)
		}
		if err != nil {
			return false, err
		}
		if matchAny && ok {
			return true, nil
		}
		if !matchAny && !ok {
			return false, nil
		}
	}
	return !matchAny, nil
}

func evalCondition(cond models.FilterCondition, rec Record) (bool, error) {
	field, ok := models.LookupField(cond.Field)
	if !ok {
		return false, fmt.Errorf("%w: %q", models.ErrUnknownField, cond.Field)
	}
	actual, ok := rec[cond.Field]
	if !ok || actual == nil {
		return false, nil
	}

	compare := func(expected any) (int, error) {
		cmp, err := models.CompareValues(field.Type, actual, expected)
		if err != nil {
			return 0, fmt.Errorf("field %s: %w", cond.Field, err)
		}
		return cmp, nil
	}

	switch cond.Operator {
	case models.OpEqual, models.OpNotEqual, models.OpGreaterThan, models.OpLessThan:
		cmp, err := compare(cond.Value)
		if err != nil {
			return false, err
		}
		switch cond.Operator {
		case models.OpEqual:
			return cmp == 0, nil
		case models.OpNotEqual:
			return cmp != 0, nil
		case models.OpGreaterThan:
			return cmp > 0, nil
		default:
			return cmp < 0, nil
		}
	case models.OpContains:
		haystack := strings.ToLower(fmt.Sprint(actual))
		needle := strings.ToLower(fmt.Sprint(cond.Value))
		return strings.Contains(haystack, needle), nil
	case models.OpIn:
		list, _ := models.ToList(cond.Value)
		for _, v := range list {
			cmp, err := compare(v)
			if err != nil {
				return false, err
			}
			if cmp == 0 {
				return true, nil
			}
		}
		return false, nil
	case models.OpBetween:
		list, _ := models.ToList(cond.Value)
		lo, err := compare(list[0])
		if err != nil {
			return false, err
		}
		hi, err := compare(models.UpperBound(field.Type, list[1]))
		if err != nil {
			return false, err
		}
		return lo >= 0 && hi <= 0, nil
	default:
		return false, fmt.Errorf("%w: %s", models.ErrUnsupportedOperator, cond.Operator)
	}
}
