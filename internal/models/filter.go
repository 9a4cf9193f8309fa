package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// Operator represents a filter comparison operator
type Operator string

const (
	OpEqual       Operator = "eq"
	OpNotEqual    Operator = "ne"
	OpContains    Operator = "contains"
	OpGreaterThan Operator = "gt"
	OpLessThan    Operator = "lt"
	OpIn          Operator = "in"
	OpBetween     Operator = "between"
)

// AllOperators lists every operator in display order
var AllOperators = []Operator{
	OpEqual, OpNotEqual, OpContains, OpGreaterThan, OpLessThan, OpIn, OpBetween,
}

// Valid reports whether o is a known operator
func (o Operator) Valid() bool {
	for _, op := range AllOperators {
		if op == o {
			return true
		}
	}
	return false
}

// TakesList reports whether the operator's value is a list rather than a scalar
func (o Operator) TakesList() bool {
	return o == OpIn || o == OpBetween
}

// Label returns a short human readable form of the operator
func (o Operator) Label() string {
	switch o {
	case OpEqual:
		return "="
	case OpNotEqual:
		return "!="
	case OpContains:
		return "contains"
	case OpGreaterThan:
		return ">"
	case OpLessThan:
		return "<"
	case OpIn:
		return "in"
	case OpBetween:
		return "between"
	default:
		return string(o)
	}
}

// Logic is the boolean combinator applied to all children of a group
type Logic string

const (
	LogicAnd Logic = "AND"
	LogicOr  Logic = "OR"
)

// Toggle flips AND to OR and anything else to AND
func (l Logic) Toggle() Logic {
	if l == LogicAnd {
		return LogicOr
	}
	return LogicAnd
}

// Node is a child of a FilterGroup. It is implemented only by
// FilterCondition and FilterGroup.
type Node interface {
	node()
}

// FilterCondition represents a single filter condition
type FilterCondition struct {
	Field    string   `json:"field" yaml:"field"`
	Operator Operator `json:"operator" yaml:"operator"`
	Value    any      `json:"value" yaml:"value"`
}

func (FilterCondition) node() {}

// FilterGroup represents a group of conditions and nested groups combined
// with a single AND/OR operator. An empty group matches everything.
type FilterGroup struct {
	Operator   Logic  `json:"operator"`
	Conditions []Node `json:"conditions"`
}

func (FilterGroup) node() {}

// Pending reports whether the condition has no value yet
func (c FilterCondition) Pending() bool {
	return IsEmptyValue(c.Value)
}

// String renders the condition as a single rule row
func (c FilterCondition) String() string {
	if c.Pending() {
		return fmt.Sprintf("%s %s _", c.Field, c.Operator.Label())
	}
	switch c.Operator {
	case OpBetween:
		if list, ok := ToList(c.Value); ok && len(list) == 2 {
			return fmt.Sprintf("%s between %v and %v", c.Field, list[0], list[1])
		}
	case OpIn:
		if list, ok := ToList(c.Value); ok {
			parts := make([]string, len(list))
			for i, v := range list {
				parts[i] = fmt.Sprint(v)
			}
			return fmt.Sprintf("%s in (%s)", c.Field, strings.Join(parts, ", "))
		}
	case OpContains:
		return fmt.Sprintf("%s contains %q", c.Field, c.Value)
	}
	return fmt.Sprintf("%s %s %v", c.Field, c.Operator.Label(), c.Value)
}

// Validate checks the structural validity of the condition. A pending
// condition is valid as long as its field and operator are.
func (c FilterCondition) Validate() error {
	field, ok := LookupField(c.Field)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, c.Field)
	}
	if !field.Supports(c.Operator) {
		return fmt.Errorf("%w: %q on %s field %s", ErrUnsupportedOperator, c.Operator, field.Type, c.Field)
	}
	if c.Pending() {
		return nil
	}

	list, isList := ToList(c.Value)
	switch {
	case c.Operator == OpIn:
		if !isList || len(list) == 0 {
			return fmt.Errorf("%w: %s expects a non-empty list", ErrValueShape, c.Operator)
		}
	case c.Operator == OpBetween:
		if !isList || len(list) != 2 {
			return fmt.Errorf("%w: %s expects exactly two values", ErrValueShape, c.Operator)
		}
	default:
		if isList {
			return fmt.Errorf("%w: %s expects a single value", ErrValueShape, c.Operator)
		}
		list = []any{c.Value}
	}

	for _, v := range list {
		if err := checkScalar(field.Type, v); err != nil {
			return fmt.Errorf("%w: field %s: %v", ErrValueShape, c.Field, err)
		}
	}
	if c.Operator == OpBetween {
		if cmp, err := CompareValues(field.Type, list[0], list[1]); err == nil && cmp > 0 {
			return fmt.Errorf("%w: between range %v..%v is reversed", ErrValueShape, list[0], list[1])
		}
	}
	return nil
}

// Normalize coerces the value into the shape its operator requires and
// validates the result.
func (c FilterCondition) Normalize() (FilterCondition, error) {
	value, err := NormalizeValue(c.Operator, c.Value)
	if err != nil {
		return c, err
	}
	c.Value = value
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// Normalize returns a copy of the tree with every condition value coerced
// into the shape its operator requires, then validates it.
func (g FilterGroup) Normalize() (FilterGroup, error) {
	out := g.normalized()
	if err := out.Validate(); err != nil {
		return g, err
	}
	return out, nil
}

func (g FilterGroup) normalized() FilterGroup {
	if g.Conditions == nil {
		return g
	}
	out := FilterGroup{Operator: g.Operator, Conditions: make([]Node, len(g.Conditions))}
	for i, child := range g.Conditions {
		switch n := child.(type) {
		case FilterCondition:
			if v, err := NormalizeValue(n.Operator, n.Value); err == nil {
				n.Value = v
			}
			out.Conditions[i] = n
		case FilterGroup:
			out.Conditions[i] = n.normalized()
		default:
			out.Conditions[i] = child
		}
	}
	return out
}

// Validate checks every node in the tree and reports all problems found.
// Pending conditions are allowed.
func (g FilterGroup) Validate() error {
	return g.validate("", false).ErrorOrNil()
}

// Complete is Validate plus a check that no condition is pending. A tree
// must be complete before it is compiled or evaluated.
func (g FilterGroup) Complete() error {
	return g.validate("", true).ErrorOrNil()
}

func (g FilterGroup) validate(prefix string, complete bool) *multierror.Error {
	var result *multierror.Error
	if g.Operator != LogicAnd && g.Operator != LogicOr {
		result = multierror.Append(result, fmt.Errorf("%s%w: %q", pathPrefix(prefix), ErrInvalidLogic, g.Operator))
	}
	for i, child := range g.Conditions {
		at := fmt.Sprintf("%sconditions[%d]", prefix, i)
		switch n := child.(type) {
		case FilterCondition:
			if err := n.Validate(); err != nil {
				result = multierror.Append(result, fmt.Errorf("%s: %w", at, err))
			} else if complete && n.Pending() {
				result = multierror.Append(result, fmt.Errorf("%s: %w: %s", at, ErrIncompleteCondition, n.Field))
			}
		case FilterGroup:
			if err := n.validate(at+".", complete); err != nil {
				result = multierror.Append(result, err.Errors...)
			}
		default:
			result = multierror.Append(result, fmt.Errorf("%s: %w", at, ErrInvalidNode))
		}
	}
	return result
}

func pathPrefix(prefix string) string {
	if prefix == "" {
		return ""
	}
	return strings.TrimSuffix(prefix, ".") + ": "
}

// Clone returns a deep copy of the group
func (g FilterGroup) Clone() FilterGroup {
	out := FilterGroup{Operator: g.Operator, Conditions: make([]Node, len(g.Conditions))}
	for i, child := range g.Conditions {
		switch n := child.(type) {
		case FilterGroup:
			out.Conditions[i] = n.Clone()
		case FilterCondition:
			if list, ok := n.Value.([]any); ok {
				n.Value = append([]any(nil), list...)
			}
			out.Conditions[i] = n
		default:
			out.Conditions[i] = child
		}
	}
	return out
}

// Len returns the number of conditions in the tree, nested groups included
func (g FilterGroup) Len() int {
	count := 0
	for _, child := range g.Conditions {
		switch n := child.(type) {
		case FilterGroup:
			count += n.Len()
		case FilterCondition:
			count++
		}
	}
	return count
}

// MarshalJSON always emits a conditions array, even for an empty group
func (g FilterGroup) MarshalJSON() ([]byte, error) {
	conditions := g.Conditions
	if conditions == nil {
		conditions = []Node{}
	}
	operator := g.Operator
	if operator == "" {
		operator = LogicAnd
	}
	return json.Marshal(struct {
		Operator   Logic  `json:"operator"`
		Conditions []Node `json:"conditions"`
	}{operator, conditions})
}

// UnmarshalJSON decodes a group, telling children apart by the presence of
// a "conditions" attribute.
func (g *FilterGroup) UnmarshalJSON(data []byte) error {
	var raw struct {
		Operator   string            `json:"operator"`
		Conditions []json.RawMessage `json:"conditions"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	g.Operator = Logic(strings.ToUpper(strings.TrimSpace(raw.Operator)))
	if g.Operator == "" {
		g.Operator = LogicAnd
	}
	g.Conditions = make([]Node, 0, len(raw.Conditions))
	for i, msg := range raw.Conditions {
		node, err := decodeNode(msg)
		if err != nil {
			return fmt.Errorf("conditions[%d]: %w", i, err)
		}
		g.Conditions = append(g.Conditions, node)
	}
	return nil
}

func decodeNode(data json.RawMessage) (Node, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}
	if _, ok := probe["conditions"]; ok {
		var group FilterGroup
		if err := json.Unmarshal(data, &group); err != nil {
			return nil, err
		}
		return group, nil
	}

	var cond FilterCondition
	if err := json.Unmarshal(data, &cond); err != nil {
		return nil, err
	}
	return cond, nil
}

// MarshalYAML writes the same document shape as MarshalJSON
func (g FilterGroup) MarshalYAML() (any, error) {
	data, err := json.Marshal(g)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// UnmarshalYAML decodes a group written by MarshalYAML or by hand
func (g *FilterGroup) UnmarshalYAML(value *yaml.Node) error {
	var doc any
	if err := value.Decode(&doc); err != nil {
		return err
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("filter: %w", err)
	}
	return g.UnmarshalJSON(data)
}

// ParseFilterGroup decodes a JSON filter tree
func ParseFilterGroup(data []byte) (FilterGroup, error) {
	var group FilterGroup
	if len(bytes.TrimSpace(data)) == 0 {
		return FilterGroup{Operator: LogicAnd, Conditions: []Node{}}, nil
	}
	if err := json.Unmarshal(data, &group); err != nil {
		return FilterGroup{}, fmt.Errorf("failed to parse filter: %w", err)
	}
	return group, nil
}
