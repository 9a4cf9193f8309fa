package store

import (
	"context"
	"database/sql/driver"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saint-community/querybuilder/internal/filter"
	"github.com/saint-community/querybuilder/internal/models"
)

var testLimits = Limits{Default: 50, Max: 500}

// passthrough lets slice arguments reach the mock the way pgx accepts them
type passthrough struct{}

func (passthrough) ConvertValue(v any) (driver.Value, error) { return v, nil }

func TestLimitsClamp(t *testing.T) {
	assert.Equal(t, 50, testLimits.Clamp(0))
	assert.Equal(t, 50, testLimits.Clamp(-3))
	assert.Equal(t, 20, testLimits.Clamp(20))
	assert.Equal(t, 500, testLimits.Clamp(501))
	assert.Equal(t, 1000, Limits{Default: 7}.Clamp(1000), "zero max means unbounded")
	assert.Equal(t, 7, Limits{Default: 7}.Clamp(0))
}

func TestPostgres_SelectSQL(t *testing.T) {
	p := NewPostgres(nil, "church.members", testLimits, nil)

	got := p.SelectSQL(`WHERE "church_id" = ANY($1)`, 1)
	assert.Equal(t,
		`SELECT "id", "full_name", "email", "phone", "address", "church_id", "fellowship_id", "cell_id", `+
			`"evangelism_count", "follow_up_count", "attendance_count", "date_joined_church", count(*) OVER () AS total `+
			`FROM "church"."members" WHERE "church_id" = ANY($1) ORDER BY "full_name", "id" LIMIT $2 OFFSET $3`,
		got)

	assert.Contains(t, p.SelectSQL("", 0), `FROM "church"."members" ORDER BY "full_name", "id" LIMIT $1 OFFSET $2`)
}

func TestPostgres_Search(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.ValueConverterOption(passthrough{}))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	joined := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(append(append([]string(nil), memberColumns...), "total")).
		AddRow("m-1", "Ada Obi", "ada@example.org", nil, nil, "12", nil, "c-1", 6, 1, 30, joined, 2).
		AddRow("m-2", "John Okafor", nil, "0803", nil, "12", "f-2", nil, 3, 0, 12, nil, 2)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "members" WHERE "church_id" = ANY($1) AND "evangelism_count" > $2 ORDER BY "full_name", "id" LIMIT $3 OFFSET $4`)).
		WithArgs([]string{"12"}, 2.0, 10, 0).
		WillReturnRows(rows)

	p := NewPostgres(db, "members", testLimits, nil)
	g := filter.NewMapper().Map(filter.Selections{Churches: filter.IDList{"12"}, EvangelismMin: "2"})

	result, err := p.Search(context.Background(), Request{Filter: g, Limit: 10, Offset: -5})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 10, result.Limit)
	assert.Equal(t, 0, result.Offset)
	require.Len(t, result.Members, 2)
	assert.Equal(t, models.Member{
		ID: "m-1", FullName: "Ada Obi", Email: "ada@example.org",
		ChurchID: "12", CellID: "c-1",
		EvangelismCount: 6, FollowUpCount: 1, AttendanceCount: 30,
		DateJoinedChurch: joined,
	}, result.Members[0])
	assert.Equal(t, "f-2", result.Members[1].FellowshipID)
	assert.True(t, result.Members[1].DateJoinedChurch.IsZero())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SearchEmptyFilter(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.ValueConverterOption(passthrough{}))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "members" ORDER BY "full_name", "id" LIMIT $1 OFFSET $2`)).
		WithArgs(500, 20).
		WillReturnRows(sqlmock.NewRows(append(append([]string(nil), memberColumns...), "total")))

	p := NewPostgres(db, "members", testLimits, nil)
	result, err := p.Search(context.Background(), Request{Filter: filter.NewGroup(), Limit: 9000, Offset: 20})
	require.NoError(t, err)
	assert.Empty(t, result.Members)
	assert.NotNil(t, result.Members)
	assert.Equal(t, 0, result.Total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SearchInvalidFilter(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	p := NewPostgres(db, "members", testLimits, nil)
	_, err = p.Search(context.Background(), Request{Filter: filter.AddCondition(filter.NewGroup())})
	assert.ErrorIs(t, err, ErrInvalidFilter)
	assert.ErrorIs(t, err, models.ErrIncompleteCondition)
	assert.NoError(t, mock.ExpectationsWereMet(), "no query for an invalid filter")
}

func TestPostgres_SearchQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT").WillReturnError(assert.AnError)

	p := NewPostgres(db, "members", testLimits, nil)
	_, err = p.Search(context.Background(), Request{Filter: filter.NewGroup()})
	assert.ErrorIs(t, err, assert.AnError)
	assert.NotErrorIs(t, err, ErrInvalidFilter)
}

const fixture = `
members:
  - id: m-3
    full_name: Zainab Bello
    church_id: "13"
    evangelism_count: 9
    date_joined_church: 2023-05-01T00:00:00Z
  - id: m-1
    full_name: Ada Obi
    email: ada@example.org
    church_id: "12"
    evangelism_count: 6
    date_joined_church: 2024-03-01T00:00:00Z
  - id: m-2
    full_name: John Okafor
    church_id: "12"
    evangelism_count: 3
`

func loadTestMemory(t *testing.T, limits Limits) *Memory {
	t.Helper()
	path := filepath.Join(t.TempDir(), "members.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0o644))

	members, err := LoadFixture(path)
	require.NoError(t, err)
	require.Len(t, members, 3)
	return NewMemory(members, limits)
}

func names(members []models.Member) []string {
	var out []string
	for _, m := range members {
		out = append(out, m.FullName)
	}
	return out
}

func TestMemory_Search(t *testing.T) {
	m := loadTestMemory(t, testLimits)
	ctx := context.Background()

	all, err := m.Search(ctx, Request{Filter: filter.NewGroup()})
	require.NoError(t, err)
	assert.Equal(t, []string{"Ada Obi", "John Okafor", "Zainab Bello"}, names(all.Members))
	assert.Equal(t, 3, all.Total)

	g := filter.NewMapper().Map(filter.Selections{Churches: filter.IDList{"12"}, EvangelismMin: "4"})
	some, err := m.Search(ctx, Request{Filter: g})
	require.NoError(t, err)
	assert.Equal(t, []string{"Ada Obi"}, names(some.Members))

	// members without a join date never match a date range
	g = filter.NewMapper().Map(filter.Selections{DateJoinedStart: "2020-01-01"})
	dated, err := m.Search(ctx, Request{Filter: g})
	require.NoError(t, err)
	assert.Equal(t, []string{"Ada Obi", "Zainab Bello"}, names(dated.Members))
}

func TestMemory_SearchPaging(t *testing.T) {
	m := loadTestMemory(t, Limits{Default: 2, Max: 2})

	page, err := m.Search(context.Background(), Request{Filter: filter.NewGroup(), Offset: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"John Okafor", "Zainab Bello"}, names(page.Members))
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.Limit)

	past, err := m.Search(context.Background(), Request{Filter: filter.NewGroup(), Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, past.Members)
	assert.Equal(t, 3, past.Total)
}

func TestMemory_SearchInvalidFilter(t *testing.T) {
	m := NewMemory(nil, testLimits)
	_, err := m.Search(context.Background(), Request{Filter: filter.AddCondition(filter.NewGroup())})
	assert.ErrorIs(t, err, ErrInvalidFilter)
}

func TestMemory_SearchCanceled(t *testing.T) {
	m := loadTestMemory(t, testLimits)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Search(ctx, Request{Filter: filter.NewGroup()})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadFixture_Errors(t *testing.T) {
	_, err := LoadFixture(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("members: {"), 0o644))
	_, err = LoadFixture(path)
	assert.Error(t, err)
}

func TestMemberColumns(t *testing.T) {
	cols := MemberColumns()
	assert.Contains(t, cols, "date_joined_church")
	cols[0] = "changed"
	assert.Equal(t, "id", MemberColumns()[0])
}
