package filter

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/saint-community/querybuilder/internal/models"
)

// Builder generates SQL WHERE clauses from filter trees
type Builder struct{}

// NewBuilder creates a new filter builder
func NewBuilder() *Builder {
	return &Builder{}
}

// BuildWhere generates a WHERE clause from a filter tree. An empty root
// group yields an empty clause. Placeholders start at $1.
func (b *Builder) BuildWhere(group models.FilterGroup) (string, []any, error) {
	if err := group.Complete(); err != nil {
		return "", nil, err
	}
	if len(group.Conditions) == 0 {
		return "", nil, nil
	}

	clause, args, err := b.buildGroup(group, 1)
	if err != nil {
		return "", nil, err
	}

	return "WHERE " + clause, args, nil
}

// buildGroup recursively builds a filter group
func (b *Builder) buildGroup(group models.FilterGroup, paramIndex int) (string, []any, error) {
	if len(group.Conditions) == 0 {
		return "TRUE", nil, nil
	}

	var clauses []string
	var args []any
	currentParam := paramIndex

	for _, child := range group.Conditions {
		var (
			clause    string
			childArgs []any
			err       error
		)
		switch n := child.(type) {
		case models.FilterCondition:
			clause, childArgs, err = b.buildCondition(n, currentParam)
		case models.FilterGroup:
			clause, childArgs, err = b.buildGroup(n, currentParam)
			if len(n.Conditions) > 1 {
				clause = "(" + clause + ")"
			}
		default:
			err = fmt.Errorf("%w: %T", models.ErrInvalidNode, child)
		}
		if err != nil {
			return "", nil, err
		}
		clauses = append(clauses, clause)
		args = append(args, childArgs...)
		currentParam += len(childArgs)
	}

	logic := group.Operator
	if logic == "" {
		logic = models.LogicAnd
	}

	return strings.Join(clauses, " "+string(logic)+" "), args, nil
}

// buildCondition builds a single filter condition
func (b *Builder) buildCondition(cond models.FilterCondition, paramIndex int) (string, []any, error) {
	field, ok := models.LookupField(cond.Field)
	if !ok {
		return "", nil, fmt.Errorf("%w: %q", models.ErrUnknownField, cond.Field)
	}
	column := pgx.Identifier{field.Column}.Sanitize()

	switch cond.Operator {
	case models.OpEqual, models.OpNotEqual, models.OpGreaterThan, models.OpLessThan:
		arg, err := sqlArg(field.Type, cond.Value)
		if err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("%s %s $%d", column, sqlOperator(cond.Operator), paramIndex), []any{arg}, nil
	case models.OpContains:
		pattern := "%" + escapeLike(fmt.Sprint(cond.Value)) + "%"
		return fmt.Sprintf("%s ILIKE $%d", column, paramIndex), []any{pattern}, nil
	case models.OpIn:
		list, _ := models.ToList(cond.Value)
		arg, err := sqlArray(field.Type, list)
		if err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("%s = ANY($%d)", column, paramIndex), []any{arg}, nil
	case models.OpBetween:
		list, _ := models.ToList(cond.Value)
		lo, err := sqlArg(field.Type, list[0])
		if err != nil {
			return "", nil, err
		}
		hi, err := sqlArg(field.Type, models.UpperBound(field.Type, list[1]))
		if err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("%s BETWEEN $%d AND $%d", column, paramIndex, paramIndex+1), []any{lo, hi}, nil
	default:
		return "", nil, fmt.Errorf("%w: %s", models.ErrUnsupportedOperator, cond.Operator)
	}
}

func sqlOperator(op models.Operator) string {
	switch op {
	case models.OpEqual:
		return "="
	case models.OpNotEqual:
		return "<>"
	case models.OpGreaterThan:
		return ">"
	case models.OpLessThan:
		return "<"
	}
	return string(op)
}

// sqlArg converts a condition value into the Go type pgx binds for the
// column type
func sqlArg(t models.FieldType, v any) (any, error) {
	switch t {
	case models.FieldTypeNumber:
		return models.ToFloat(v)
	case models.FieldTypeDate:
		return models.ToTime(v)
	default:
		return fmt.Sprint(v), nil
	}
}

func sqlArray(t models.FieldType, list []any) (any, error) {
	switch t {
	case models.FieldTypeNumber:
		out := make([]float64, len(list))
		for i, v := range list {
			f, err := models.ToFloat(v)
			if err != nil {
				return nil, err
			}
			out[i] = f
		}
		return out, nil
	default:
		out := make([]string, len(list))
		for i, v := range list {
			out[i] = fmt.Sprint(v)
		}
		return out, nil
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// OperatorsForField returns available operators for a catalog field
func OperatorsForField(name string) []models.Operator {
	field, ok := models.LookupField(name)
	if !ok {
		return nil
	}
	return field.Operators()
}
