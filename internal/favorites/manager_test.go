package favorites

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saint-community/querybuilder/internal/models"
)

var churchFilter = models.FilterGroup{Operator: models.LogicAnd, Conditions: []models.Node{
	models.FilterCondition{Field: models.FieldChurchID, Operator: models.OpIn, Value: []any{"12"}},
}}

var activeFilter = models.FilterGroup{Operator: models.LogicOr, Conditions: []models.Node{
	models.FilterCondition{Field: models.FieldEvangelismCount, Operator: models.OpGreaterThan, Value: 5.0},
}}

func newTestManager(t *testing.T, dir string) *Manager {
	t.Helper()
	m, err := NewManager(dir)
	require.NoError(t, err)
	m.now = func() time.Time { return time.Date(2025, 3, 9, 14, 30, 5, 0, time.UTC) }
	return m
}

func TestManager_AddAndReload(t *testing.T) {
	dir := t.TempDir()
	m := newTestManager(t, dir)

	fav, err := m.Add("  Church 12 ", "members of church 12", churchFilter, []string{"church"})
	require.NoError(t, err)
	assert.NotEmpty(t, fav.ID)
	assert.Equal(t, "Church 12", fav.Name)

	_, err = os.Stat(filepath.Join(dir, "favorites.yaml"))
	require.NoError(t, err)

	reloaded := newTestManager(t, dir)
	got, err := reloaded.Get("church 12")
	require.NoError(t, err)
	assert.Equal(t, fav.ID, got.ID)
	assert.Equal(t, churchFilter, got.Filter)
	assert.True(t, fav.CreatedAt.Equal(got.CreatedAt))
}

func TestManager_AddRejects(t *testing.T) {
	m := newTestManager(t, t.TempDir())
	_, err := m.Add("Church 12", "", churchFilter, nil)
	require.NoError(t, err)

	_, err = m.Add("CHURCH 12", "", activeFilter, nil)
	assert.ErrorContains(t, err, "already exists")

	_, err = m.Add("   ", "", activeFilter, nil)
	assert.ErrorContains(t, err, "cannot be empty")

	pending := models.FilterGroup{Operator: models.LogicAnd, Conditions: []models.Node{
		models.FilterCondition{Field: models.FieldFullName, Operator: models.OpContains, Value: ""},
	}}
	_, err = m.Add("Pending", "", pending, nil)
	assert.ErrorIs(t, err, models.ErrIncompleteCondition)

	assert.Len(t, m.GetAll(), 1)
}

func TestManager_UpdateAndDelete(t *testing.T) {
	m := newTestManager(t, t.TempDir())
	a, err := m.Add("Church 12", "", churchFilter, nil)
	require.NoError(t, err)
	b, err := m.Add("Active", "", activeFilter, nil)
	require.NoError(t, err)

	assert.ErrorContains(t, m.Update(b.ID, "church 12", "", activeFilter, nil), "already exists")
	require.NoError(t, m.Update(b.ID, "Very active", "evangelists", activeFilter, []string{"outreach"}))

	got, err := m.Get(b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Very active", got.Name)
	assert.Equal(t, []string{"outreach"}, got.Tags)

	require.NoError(t, m.Delete(a.ID))
	_, err = m.Get(a.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, m.Delete(a.ID), ErrNotFound)
	assert.ErrorIs(t, m.Update("nope", "x", "", activeFilter, nil), ErrNotFound)
}

func TestManager_SearchAndUsage(t *testing.T) {
	m := newTestManager(t, t.TempDir())
	a, err := m.Add("Church 12", "", churchFilter, []string{"lagos"})
	require.NoError(t, err)
	b, err := m.Add("Active", "top evangelists", activeFilter, nil)
	require.NoError(t, err)

	assert.Len(t, m.Search(""), 2)
	assert.Equal(t, []string{b.ID}, ids(m.Search("EVANGEL")))
	assert.Equal(t, []string{a.ID}, ids(m.Search("lagos")))
	assert.Empty(t, m.Search("abuja"))

	// sorted by name
	assert.Equal(t, []string{b.ID, a.ID}, ids(m.GetAll()))

	require.NoError(t, m.RecordUsage(a.ID))
	require.NoError(t, m.RecordUsage(a.ID))
	most := m.GetMostUsed(1)
	require.Len(t, most, 1)
	assert.Equal(t, a.ID, most[0].ID)
	assert.Equal(t, 2, most[0].UsageCount)
	assert.False(t, most[0].LastUsed.IsZero())

	assert.ErrorIs(t, m.RecordUsage("nope"), ErrNotFound)
}

func TestNewManager_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "favorites.yaml"), []byte("{not: [yaml"), 0o644))
	_, err := NewManager(dir)
	assert.Error(t, err)
}

func ids(favs []models.Favorite) []string {
	var out []string
	for _, f := range favs {
		out = append(out, f.ID)
	}
	return out
}
