package history

import (
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// Sources of a search
const (
	SourceCLI  = "cli"
	SourceHTTP = "http"
	SourceTUI  = "tui"
)

// Entry represents a single search history entry
type Entry struct {
	ID           string
	Source       string
	Filter       string
	Where        string
	ArgCount     int
	Rows         int
	Duration     time.Duration
	Success      bool
	ErrorMessage string
	ExecutedAt   time.Time
}

// Store manages search history persistence
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore creates a new history store
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	// Create schema
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create history schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Add adds a search to history, filling in the id and time when unset.
// It returns the stored entry.
func (s *Store) Add(entry Entry) (Entry, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.ExecutedAt.IsZero() {
		entry.ExecutedAt = s.now()
	}
	entry.ExecutedAt = entry.ExecutedAt.UTC().Truncate(time.Millisecond)

	_, err := s.db.Exec(`
		INSERT INTO search_history
		(uuid, source, filter_json, where_clause, arg_count, rows_returned, duration_ms, success, error_message, executed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.Source,
		entry.Filter,
		entry.Where,
		entry.ArgCount,
		entry.Rows,
		entry.Duration.Milliseconds(),
		entry.Success,
		entry.ErrorMessage,
		entry.ExecutedAt.Format(timeLayout),
	)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to add history entry: %w", err)
	}
	return entry, nil
}

// Recent retrieves the most recent history entries
func (s *Store) Recent(limit int) ([]Entry, error) {
	return s.query(`
		SELECT uuid, source, filter_json, where_clause, arg_count, rows_returned,
		       duration_ms, success, error_message, executed_at
		FROM search_history
		ORDER BY executed_at DESC, id DESC
		LIMIT ?`, limit)
}

// Search finds history entries whose filter or WHERE clause contains text
func (s *Store) Search(text string, limit int) ([]Entry, error) {
	pattern := "%" + likeEscaper.Replace(text) + "%"
	return s.query(`
		SELECT uuid, source, filter_json, where_clause, arg_count, rows_returned,
		       duration_ms, success, error_message, executed_at
		FROM search_history
		WHERE filter_json LIKE ? ESCAPE '\' OR where_clause LIKE ? ESCAPE '\'
		ORDER BY executed_at DESC, id DESC
		LIMIT ?`, pattern, pattern, limit)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (s *Store) query(q string, args ...any) ([]Entry, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var durationMs int64
		var executedAt string

		err := rows.Scan(
			&e.ID,
			&e.Source,
			&e.Filter,
			&e.Where,
			&e.ArgCount,
			&e.Rows,
			&durationMs,
			&e.Success,
			&e.ErrorMessage,
			&executedAt,
		)
		if err != nil {
			return nil, err
		}

		e.Duration = time.Duration(durationMs) * time.Millisecond
		e.ExecutedAt, _ = time.Parse(timeLayout, executedAt)

		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
