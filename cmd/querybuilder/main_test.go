package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"

	"github.com/saint-community/querybuilder/internal/config"
	"github.com/saint-community/querybuilder/internal/favorites"
	"github.com/saint-community/querybuilder/internal/filter"
	"github.com/saint-community/querybuilder/internal/history"
	"github.com/saint-community/querybuilder/internal/models"
	"github.com/saint-community/querybuilder/internal/store"
)

func memoryConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.GetDefaults()
	cfg.Store.Backend = config.BackendMemory
	cfg.Store.FixturePath = filepath.Join("testdata", "members.yaml")
	cfg.History.Path = filepath.Join(t.TempDir(), "history.db")
	return cfg
}

func fixedMapper() *filter.Mapper {
	return filter.NewMapper(filter.WithClock(func() time.Time {
		return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	}))
}

func TestRunMap(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runMap(&out, []byte(`{"churches":["12"],"name":"John"}`), fixedMapper()))
	assert.JSONEq(t, `{"operator":"AND","conditions":[
		{"field":"church_id","operator":"in","value":["12"]},
		{"field":"full_name","operator":"contains","value":"John"}
	]}`, out.String())

	out.Reset()
	require.NoError(t, runMap(&out, nil, fixedMapper()))
	assert.JSONEq(t, `{"operator":"AND","conditions":[]}`, out.String())

	assert.Error(t, runMap(&out, []byte(`{"churches":{}}`), fixedMapper()))
}

func TestRunCompile(t *testing.T) {
	group, err := decodeFilter([]byte(`{"churches":["12"],"evangelismMin":"5"}`), true, fixedMapper())
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, runCompile(&out, group, ""))
	assert.JSONEq(t, `{"where":"WHERE \"church_id\" = ANY($1) AND \"evangelism_count\" > $2","args":[["12"],5]}`, out.String())

	out.Reset()
	require.NoError(t, runCompile(&out, group, "church.members"))
	var got compiled
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Contains(t, got.Query, `FROM "church"."members" WHERE`)
	assert.Contains(t, got.Query, "LIMIT $3 OFFSET $4")

	pending, err := decodeFilter([]byte(`{"conditions":[{"field":"full_name","operator":"contains","value":""}]}`), false, fixedMapper())
	require.NoError(t, err)
	err = runCompile(&out, pending, "")
	assert.ErrorIs(t, err, models.ErrIncompleteCondition)
}

func TestRunQuery(t *testing.T) {
	cfg := memoryConfig(t)
	b, err := openBackend(context.Background(), cfg, history.SourceCLI, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer b.Close()
	require.NotNil(t, b.history)

	group, err := decodeFilter([]byte(`{"churches":["12"]}`), true, fixedMapper())
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, runQuery(context.Background(), &out, b.searcher, store.Request{Filter: group}, "table"))
	assert.Contains(t, out.String(), "Ada Obi")
	assert.Contains(t, out.String(), "John Okafor")
	assert.NotContains(t, out.String(), "Zainab")
	assert.Contains(t, out.String(), "1-2 of 2 members")

	out.Reset()
	require.NoError(t, runQuery(context.Background(), &out, b.searcher, store.Request{Filter: group, Limit: 1}, "csv"))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "m-1,Ada Obi"))

	err = runQuery(context.Background(), &out, b.searcher, store.Request{Filter: group}, "xml")
	assert.Error(t, err)

	entries, err := b.history.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, history.SourceCLI, entries[0].Source)

	out.Reset()
	require.NoError(t, printHistory(&out, entries))
	assert.Contains(t, out.String(), `"church_id" = ANY($1)`)
}

func TestOpenBackend_HistoryDisabled(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.History.Enabled = false
	b, err := openBackend(context.Background(), cfg, history.SourceCLI, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer b.Close()

	assert.Nil(t, b.history)
	assert.IsType(t, &store.Memory{}, b.searcher)
}

func TestOpenBackend_MissingFixture(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.Store.FixturePath = filepath.Join(t.TempDir(), "missing.yaml")
	_, err := openBackend(context.Background(), cfg, history.SourceCLI, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestPrintFields(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printFields(&out))
	assert.Contains(t, out.String(), "church_id")
	assert.Contains(t, out.String(), "in,eq,ne")
	assert.Equal(t, len(models.Fields)+1, strings.Count(out.String(), "\n"))
}

func TestNewLogger(t *testing.T) {
	l, level, err := newLogger("warn", false)
	require.NoError(t, err)
	assert.Equal(t, zapcore.WarnLevel, level.Level())
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))

	level.SetLevel(zapcore.DebugLevel)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))

	_, level, err = newLogger("error", true)
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, level.Level())

	_, _, err = newLogger("loud", false)
	assert.Error(t, err)
}

func TestFavorites(t *testing.T) {
	m, err := favorites.NewManager(t.TempDir())
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, printFavorites(&out, m.GetAll()))
	assert.Equal(t, "No saved filters\n", out.String())

	group := models.FilterGroup{Operator: models.LogicAnd, Conditions: []models.Node{
		models.FilterCondition{Field: models.FieldChurchID, Operator: models.OpIn, Value: []any{"12"}},
		models.FilterGroup{Operator: models.LogicOr, Conditions: []models.Node{
			models.FilterCondition{Field: models.FieldChurchID, Operator: models.OpIn, Value: []any{"13"}},
		}},
	}}
	_, err = m.Add("Church 12", "", group, []string{"weekly"})
	require.NoError(t, err)

	got, err := loadFavorite(m, "church 12")
	require.NoError(t, err)
	assert.Equal(t, group, got)

	out.Reset()
	require.NoError(t, printFavorites(&out, m.GetAll()))
	assert.Contains(t, out.String(), "Church 12")
	assert.Contains(t, out.String(), "weekly")
	assert.Contains(t, out.String(), "(1 conditions)")
	assert.Equal(t, 1, m.GetAll()[0].UsageCount)

	_, err = loadFavorite(m, "missing")
	assert.ErrorIs(t, err, favorites.ErrNotFound)

	assert.Equal(t, "(everything)", summarizeFilter(models.FilterGroup{Operator: models.LogicAnd}))
}
