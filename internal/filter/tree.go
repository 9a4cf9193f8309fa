package filter

import (
	"fmt"

	"github.com/saint-community/querybuilder/internal/models"
)

// Edits never modify the group passed in: every operation copies the
// children slice of each group it touches and shares the rest.

// NewGroup returns an empty AND group, the state a fresh builder opens with
func NewGroup() models.FilterGroup {
	return models.FilterGroup{Operator: models.LogicAnd, Conditions: []models.Node{}}
}

// NewCondition returns the condition appended by AddCondition
func NewCondition() models.FilterCondition {
	return models.FilterCondition{
		Field:    models.FieldFullName,
		Operator: models.OpContains,
		Value:    "",
	}
}

// ToggleOperator flips AND/OR on the group only; children are untouched
func ToggleOperator(g models.FilterGroup) models.FilterGroup {
	g.Operator = g.Operator.Toggle()
	return g
}

// AddCondition appends a default condition
func AddCondition(g models.FilterGroup) models.FilterGroup {
	g.Conditions = appendChild(g.Conditions, NewCondition())
	return g
}

// AddGroup appends a nested AND group holding one default condition
func AddGroup(g models.FilterGroup) models.FilterGroup {
	child := models.FilterGroup{
		Operator:   models.LogicAnd,
		Conditions: []models.Node{NewCondition()},
	}
	g.Conditions = appendChild(g.Conditions, child)
	return g
}

// UpdateChild replaces the child at index. An index outside the current
// children is a no-op. A replacement condition or group is normalized and
// validated; on error the group is returned unchanged. When the
// replacement changes a condition's field, its value is reset to the new
// field's empty value.
func UpdateChild(g models.FilterGroup, index int, child models.Node) (models.FilterGroup, error) {
	if index < 0 || index >= len(g.Conditions) {
		return g, nil
	}

	switch n := child.(type) {
	case models.FilterCondition:
		if prev, ok := g.Conditions[index].(models.FilterCondition); ok && prev.Field != n.Field {
			reset, err := SetField(prev, n.Field)
			if err != nil {
				return g, err
			}
			if field, _ := models.LookupField(n.Field); field.Supports(n.Operator) && n.Operator != reset.Operator {
				reset.Operator = n.Operator
				reset.Value = models.EmptyValue(field.Type, n.Operator)
			}
			n = reset
		}
		normalized, err := n.Normalize()
		if err != nil {
			return g, err
		}
		child = normalized
	case models.FilterGroup:
		normalized, err := n.Normalize()
		if err != nil {
			return g, err
		}
		child = normalized
	default:
		return g, fmt.Errorf("%w: %T", models.ErrInvalidNode, child)
	}

	out := copyChildren(g.Conditions)
	out[index] = child
	g.Conditions = out
	return g, nil
}

// DeleteChild removes the child at index, shifting later children down.
// An index outside the current children is a no-op.
func DeleteChild(g models.FilterGroup, index int) models.FilterGroup {
	if index < 0 || index >= len(g.Conditions) {
		return g
	}
	out := make([]models.Node, 0, len(g.Conditions)-1)
	out = append(out, g.Conditions[:index]...)
	out = append(out, g.Conditions[index+1:]...)
	g.Conditions = out
	return g
}

// SetField moves a condition to another field. The value always resets to
// the new field's empty value and the operator falls back to the field's
// default when the current one does not apply.
func SetField(c models.FilterCondition, name string) (models.FilterCondition, error) {
	field, ok := models.LookupField(name)
	if !ok {
		return c, fmt.Errorf("%w: %q", models.ErrUnknownField, name)
	}
	if c.Field == name {
		return c, nil
	}
	c.Field = name
	if !field.Supports(c.Operator) {
		c.Operator = field.Operators()[0]
	}
	c.Value = models.EmptyValue(field.Type, c.Operator)
	return c, nil
}

// SetOperator changes a condition's operator, reshaping the value when it
// can and clearing it when it cannot.
func SetOperator(c models.FilterCondition, op models.Operator) (models.FilterCondition, error) {
	field, ok := models.LookupField(c.Field)
	if !ok {
		return c, fmt.Errorf("%w: %q", models.ErrUnknownField, c.Field)
	}
	if !field.Supports(op) {
		return c, fmt.Errorf("%w: %q on %s field %s", models.ErrUnsupportedOperator, op, field.Type, c.Field)
	}
	c.Operator = op
	if value, err := models.NormalizeValue(op, c.Value); err == nil {
		c.Value = value
	} else {
		c.Value = models.EmptyValue(field.Type, op)
	}
	return c, nil
}

func appendChild(nodes []models.Node, n models.Node) []models.Node {
	out := make([]models.Node, len(nodes), len(nodes)+1)
	copy(out, nodes)
	return append(out, n)
}

func copyChildren(nodes []models.Node) []models.Node {
	out := make([]models.Node, len(nodes))
	copy(out, nodes)
	return out
}
