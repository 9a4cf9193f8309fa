package models

import "errors"

var (
	// ErrUnknownField is returned for a condition on a field outside the catalog
	ErrUnknownField = errors.New("unknown field")
	// ErrUnsupportedOperator is returned when an operator does not apply to a field's type
	ErrUnsupportedOperator = errors.New("unsupported operator")
	// ErrValueShape is returned when a value does not fit its operator or field type
	ErrValueShape = errors.New("value does not match operator")
	// ErrIncompleteCondition is returned when a pending condition reaches the compiler or evaluator
	ErrIncompleteCondition = errors.New("condition has no value")
	// ErrInvalidLogic is returned for a group operator other than AND/OR
	ErrInvalidLogic = errors.New("invalid group operator")
	// ErrInvalidNode is returned for a nil or foreign tree node
	ErrInvalidNode = errors.New("invalid filter node")
)
