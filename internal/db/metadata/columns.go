package metadata

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Column is one column of a table as reported by information_schema
type Column struct {
	Name     string
	DataType string
}

// SplitTable splits an optionally schema qualified table name. Unqualified
// names live in public.
func SplitTable(name string) (schema, table string) {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "public", name
}

// GetTableColumns retrieves column metadata for a table
func GetTableColumns(ctx context.Context, db *sql.DB, schema, table string) ([]Column, error) {
	query := `
		SELECT column_name, data_type
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position
	`

	rows, err := db.QueryContext(ctx, query, schema, table)
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var col Column
		if err := rows.Scan(&col.Name, &col.DataType); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

// MissingColumns returns the required columns the table does not have. A
// table that does not exist is reported as an error.
func MissingColumns(ctx context.Context, db *sql.DB, name string, required []string) ([]string, error) {
	schema, table := SplitTable(name)
	columns, err := GetTableColumns(ctx, db, schema, table)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s.%s not found", schema, table)
	}

	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[c.Name] = true
	}
	var missing []string
	for _, name := range required {
		if !present[name] {
			missing = append(missing, name)
		}
	}
	return missing, nil
}
