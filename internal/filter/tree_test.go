package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saint-community/querybuilder/internal/models"
)

func cond(field string, op models.Operator, value any) models.FilterCondition {
	return models.FilterCondition{Field: field, Operator: op, Value: value}
}

func TestNewGroup(t *testing.T) {
	g := NewGroup()
	assert.Equal(t, models.LogicAnd, g.Operator)
	assert.Empty(t, g.Conditions)
	assert.NotNil(t, g.Conditions)
}

func TestToggleOperator_RoundTrip(t *testing.T) {
	g := NewGroup()
	g = AddCondition(g)

	once := ToggleOperator(g)
	assert.Equal(t, models.LogicOr, once.Operator)
	assert.Equal(t, models.LogicAnd, g.Operator, "input must not change")

	twice := ToggleOperator(once)
	assert.Equal(t, g, twice)
}

func TestToggleOperator_OnlyTargetGroup(t *testing.T) {
	g := AddGroup(NewGroup())
	toggled := ToggleOperator(g)

	inner := toggled.Conditions[0].(models.FilterGroup)
	assert.Equal(t, models.LogicOr, toggled.Operator)
	assert.Equal(t, models.LogicAnd, inner.Operator)
}

func TestAddCondition(t *testing.T) {
	g := AddCondition(NewGroup())

	require.Len(t, g.Conditions, 1)
	c, ok := g.Conditions[0].(models.FilterCondition)
	require.True(t, ok)
	assert.Equal(t, models.FieldFullName, c.Field)
	assert.Equal(t, models.OpContains, c.Operator)
	assert.True(t, c.Pending())
}

func TestAddGroup(t *testing.T) {
	g := AddGroup(NewGroup())

	require.Len(t, g.Conditions, 1)
	inner, ok := g.Conditions[0].(models.FilterGroup)
	require.True(t, ok)
	assert.Equal(t, models.LogicAnd, inner.Operator)
	require.Len(t, inner.Conditions, 1)
	assert.Equal(t, NewCondition(), inner.Conditions[0])
}

func TestAddDeleteInverse(t *testing.T) {
	g := NewGroup()
	g = AddCondition(g)
	g, err := UpdateChild(g, 0, cond(models.FieldEmail, models.OpContains, "@example.org"))
	require.NoError(t, err)
	g = AddGroup(g)

	added := AddCondition(g)
	require.Len(t, added.Conditions, len(g.Conditions)+1)

	restored := DeleteChild(added, len(added.Conditions)-1)
	assert.Equal(t, g, restored)
}

func TestAppendDoesNotAliasInput(t *testing.T) {
	base := NewGroup()
	base.Conditions = make([]models.Node, 1, 4)
	base.Conditions[0] = cond(models.FieldEmail, models.OpContains, "a")

	first := AddCondition(base)
	second := AddGroup(base)

	_, isCond := first.Conditions[1].(models.FilterCondition)
	_, isGroup := second.Conditions[1].(models.FilterGroup)
	assert.True(t, isCond)
	assert.True(t, isGroup)
	assert.Len(t, base.Conditions, 1)
}

func TestDeleteChild_LastChildLeavesEmptyGroup(t *testing.T) {
	g := AddCondition(NewGroup())

	g = DeleteChild(g, 0)
	assert.Empty(t, g.Conditions)

	ok, err := Evaluate(g, Record{})
	require.NoError(t, err)
	assert.True(t, ok, "empty group is always true")
}

func TestDeleteChild_ShiftsChildren(t *testing.T) {
	g := NewGroup()
	g.Conditions = []models.Node{
		cond(models.FieldEmail, models.OpContains, "a"),
		cond(models.FieldPhone, models.OpContains, "b"),
		cond(models.FieldAddress, models.OpContains, "c"),
	}

	out := DeleteChild(g, 1)
	assert.Equal(t, []models.Node{
		cond(models.FieldEmail, models.OpContains, "a"),
		cond(models.FieldAddress, models.OpContains, "c"),
	}, out.Conditions)
	assert.Len(t, g.Conditions, 3, "input must not change")
}

func TestOutOfRangeIndexIsNoop(t *testing.T) {
	g := AddCondition(NewGroup())

	for _, index := range []int{-1, 1, 42} {
		assert.Equal(t, g, DeleteChild(g, index))

		updated, err := UpdateChild(g, index, cond(models.FieldEmail, models.OpContains, "x"))
		assert.NoError(t, err)
		assert.Equal(t, g, updated)
	}

	empty := NewGroup()
	assert.Equal(t, empty, DeleteChild(empty, 0))
}

func TestUpdateChild_ReplacesCondition(t *testing.T) {
	g := AddCondition(NewGroup())

	g, err := UpdateChild(g, 0, cond(models.FieldFullName, models.OpContains, "John"))
	require.NoError(t, err)
	assert.Equal(t, cond(models.FieldFullName, models.OpContains, "John"), g.Conditions[0])
}

func TestUpdateChild_FieldChangeResetsValue(t *testing.T) {
	tests := []struct {
		name     string
		next     models.FilterCondition
		expected models.FilterCondition
	}{
		{
			name:     "text to number falls back to the number default operator",
			next:     cond(models.FieldEvangelismCount, models.OpContains, "John"),
			expected: cond(models.FieldEvangelismCount, models.OpGreaterThan, nil),
		},
		{
			name:     "text to text keeps operator",
			next:     cond(models.FieldEmail, models.OpContains, "John"),
			expected: cond(models.FieldEmail, models.OpContains, ""),
		},
		{
			name:     "text to id with explicit list operator",
			next:     cond(models.FieldChurchID, models.OpIn, "John"),
			expected: cond(models.FieldChurchID, models.OpIn, []any{}),
		},
		{
			name:     "text to date with explicit operator",
			next:     cond(models.FieldDateJoinedChurch, models.OpGreaterThan, "John"),
			expected: cond(models.FieldDateJoinedChurch, models.OpGreaterThan, ""),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGroup()
			g.Conditions = []models.Node{cond(models.FieldFullName, models.OpContains, "John")}

			updated, err := UpdateChild(g, 0, tt.next)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, updated.Conditions[0])
		})
	}
}

func TestUpdateChild_NormalizesValue(t *testing.T) {
	g := AddCondition(NewGroup())
	g, err := UpdateChild(g, 0, cond(models.FieldFullName, models.OpIn, "John"))
	require.NoError(t, err)
	assert.Equal(t, []any{"John"}, g.Conditions[0].(models.FilterCondition).Value)

	g, err = UpdateChild(g, 0, cond(models.FieldFullName, models.OpEqual, []any{"John"}))
	require.NoError(t, err)
	assert.Equal(t, "John", g.Conditions[0].(models.FilterCondition).Value)
}

func TestUpdateChild_RejectsMalformed(t *testing.T) {
	tests := []struct {
		name  string
		child models.Node
		err   error
	}{
		{"unknown field", cond("salary", models.OpGreaterThan, 10), models.ErrUnknownField},
		{"operator not for type", cond(models.FieldFullName, models.OpGreaterThan, "x"), models.ErrUnsupportedOperator},
		{"between with scalar", cond(models.FieldDateJoinedChurch, models.OpBetween, "2024-01-01"), models.ErrValueShape},
		{"between with three values", cond(models.FieldEvangelismCount, models.OpBetween, []any{1.0, 2.0, 3.0}), models.ErrValueShape},
		{"reversed range", cond(models.FieldEvangelismCount, models.OpBetween, []any{9.0, 2.0}), models.ErrValueShape},
		{"non numeric value", cond(models.FieldEvangelismCount, models.OpGreaterThan, "many"), models.ErrValueShape},
		{"unary with list", cond(models.FieldFullName, models.OpEqual, []any{"a", "b"}), models.ErrValueShape},
		{"invalid nested group", models.FilterGroup{Operator: "XOR"}, models.ErrInvalidLogic},
		{"nil node", nil, models.ErrInvalidNode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// same field as the replacement so no reset happens first
			base := AddCondition(NewGroup())
			if c, ok := tt.child.(models.FilterCondition); ok {
				base.Conditions[0] = cond(c.Field, c.Operator, nil)
			}

			updated, err := UpdateChild(base, 0, tt.child)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, base, updated, "group must be unchanged on error")
		})
	}
}

func TestSetOperator(t *testing.T) {
	c := cond(models.FieldEvangelismCount, models.OpGreaterThan, 3.0)

	in, err := SetOperator(c, models.OpIn)
	require.NoError(t, err)
	assert.Equal(t, []any{3.0}, in.Value)

	between, err := SetOperator(c, models.OpBetween)
	require.NoError(t, err)
	assert.Equal(t, []any{}, between.Value, "scalar cannot become a range")

	_, err = SetOperator(c, models.OpContains)
	assert.ErrorIs(t, err, models.ErrUnsupportedOperator)
}

func TestEditGroup_Nested(t *testing.T) {
	root := AddGroup(AddCondition(NewGroup()))

	updated, err := EditGroup(root, Path{1}, func(g models.FilterGroup) (models.FilterGroup, error) {
		return AddCondition(ToggleOperator(g)), nil
	})
	require.NoError(t, err)

	inner, ok := GroupAt(updated, Path{1})
	require.True(t, ok)
	assert.Equal(t, models.LogicOr, inner.Operator)
	assert.Len(t, inner.Conditions, 2)

	original, _ := GroupAt(root, Path{1})
	assert.Len(t, original.Conditions, 1, "input must not change")
}

func TestEditGroup_InvalidPathIsNoop(t *testing.T) {
	root := AddGroup(AddCondition(NewGroup()))
	edit := func(g models.FilterGroup) (models.FilterGroup, error) {
		return AddCondition(g), nil
	}

	for _, path := range []Path{{5}, {0}, {1, 0}, {-1}} {
		updated, err := EditGroup(root, path, edit)
		require.NoError(t, err)
		assert.Equal(t, root, updated, "path %v", path)
	}
}

func TestWalk_RenderOrder(t *testing.T) {
	root := NewGroup()
	root = AddCondition(root)
	root = AddGroup(root)
	root, _ = EditGroup(root, Path{1}, func(g models.FilterGroup) (models.FilterGroup, error) {
		return AddGroup(g), nil
	})

	rows := Rows(root)
	var paths []Path
	var depths []int
	for _, r := range rows {
		paths = append(paths, r.Path)
		depths = append(depths, r.Depth)
	}

	assert.Equal(t, []Path{{}, {0}, {1}, {1, 0}, {1, 1}, {1, 1, 0}}, paths)
	assert.Equal(t, []int{0, 1, 1, 2, 2, 3}, depths)
	assert.True(t, rows[0].IsGroup())
	assert.False(t, rows[1].IsGroup())
	assert.True(t, rows[4].IsGroup())
}

func TestWalk_SkipChildren(t *testing.T) {
	root := AddGroup(AddGroup(NewGroup()))

	var visited int
	Walk(root, func(r Row) bool {
		visited++
		return r.Depth == 0
	})
	assert.Equal(t, 3, visited)
}

func TestPathParent(t *testing.T) {
	parent, index := Path{1, 2}.Parent()
	assert.Equal(t, Path{1}, parent)
	assert.Equal(t, 2, index)

	_, index = Path{}.Parent()
	assert.Equal(t, -1, index)
}

func TestUpdateChild_NormalizesNestedGroup(t *testing.T) {
	g := AddGroup(NewGroup())
	nested := group(models.LogicOr,
		cond(models.FieldChurchID, models.OpIn, "12"),
		group(models.LogicAnd, cond(models.FieldCellID, models.OpEqual, []any{"c-4"})))

	g, err := UpdateChild(g, 0, nested)
	require.NoError(t, err)

	inner := g.Conditions[0].(models.FilterGroup)
	assert.Equal(t, []any{"12"}, inner.Conditions[0].(models.FilterCondition).Value)
	assert.Equal(t, "c-4", inner.Conditions[1].(models.FilterGroup).Conditions[0].(models.FilterCondition).Value)
	assert.Equal(t, "12", nested.Conditions[0].(models.FilterCondition).Value, "input is not mutated")

	_, err = UpdateChild(g, 0, group(models.LogicAnd, cond(models.FieldChurchID, models.OpIn, []any{})))
	require.NoError(t, err, "pending conditions stay allowed")

	_, err = UpdateChild(g, 0, group(models.LogicAnd, cond(models.FieldEvangelismCount, models.OpBetween, 3.0)))
	assert.ErrorIs(t, err, models.ErrValueShape)
}
