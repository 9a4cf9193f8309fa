package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/saint-community/querybuilder/internal/filter"
	"github.com/saint-community/querybuilder/internal/models"
)

var memberColumns = []string{
	"id", "full_name", "email", "phone", "address",
	"church_id", "fellowship_id", "cell_id",
	"evangelism_count", "follow_up_count", "attendance_count",
	"date_joined_church",
}

// MemberColumns returns the columns a members table must have
func MemberColumns() []string {
	return append([]string(nil), memberColumns...)
}

// Postgres searches a members table through database/sql
type Postgres struct {
	db      *sql.DB
	table   string
	limits  Limits
	builder *filter.Builder
	logger  *zap.Logger
}

// NewPostgres creates a searcher over table. The table name may be schema
// qualified ("church.members").
func NewPostgres(db *sql.DB, table string, limits Limits, logger *zap.Logger) *Postgres {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Postgres{
		db:      db,
		table:   pgx.Identifier(strings.Split(table, ".")).Sanitize(),
		limits:  limits,
		builder: filter.NewBuilder(),
		logger:  logger,
	}
}

// SelectSQL builds the page query for a compiled WHERE clause. LIMIT and
// OFFSET take the two placeholders after the filter arguments.
func (p *Postgres) SelectSQL(where string, argc int) string {
	cols := make([]string, len(memberColumns))
	for i, c := range memberColumns {
		cols[i] = pgx.Identifier{c}.Sanitize()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s, count(*) OVER () AS total FROM %s", strings.Join(cols, ", "), p.table)
	if where != "" {
		b.WriteString(" ")
		b.WriteString(where)
	}
	fmt.Fprintf(&b, ` ORDER BY "full_name", "id" LIMIT $%d OFFSET $%d`, argc+1, argc+2)
	return b.String()
}

// Search compiles the filter and fetches one page of members
func (p *Postgres) Search(ctx context.Context, req Request) (Result, error) {
	where, args, err := p.builder.BuildWhere(req.Filter)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrInvalidFilter, err)
	}

	limit := p.limits.Clamp(req.Limit)
	offset := clampOffset(req.Offset)
	query := p.SelectSQL(where, len(args))
	args = append(args, limit, offset)

	p.logger.Debug("searching members",
		zap.String("where", where),
		zap.Int("args", len(args)),
		zap.Int("limit", limit),
		zap.Int("offset", offset))

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return Result{}, fmt.Errorf("failed to query members: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := Result{Members: []models.Member{}, Limit: limit, Offset: offset}
	for rows.Next() {
		var (
			m                                           models.Member
			email, phone, address, church, fellow, cell sql.NullString
			joined                                      sql.NullTime
		)
		if err := rows.Scan(
			&m.ID, &m.FullName, &email, &phone, &address,
			&church, &fellow, &cell,
			&m.EvangelismCount, &m.FollowUpCount, &m.AttendanceCount,
			&joined, &result.Total,
		); err != nil {
			return Result{}, fmt.Errorf("failed to scan member: %w", err)
		}
		m.Email = email.String
		m.Phone = phone.String
		m.Address = address.String
		m.ChurchID = church.String
		m.FellowshipID = fellow.String
		m.CellID = cell.String
		if joined.Valid {
			m.DateJoinedChurch = joined.Time.UTC()
		}
		result.Members = append(result.Members, m)
	}
	if err := rows.Err(); err != nil {
		return Result{}, fmt.Errorf("failed to read members: %w", err)
	}

	return result, nil
}
