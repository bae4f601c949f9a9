package loader

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/oakwood-commons/dvx/pkg/record"
)

// ErrNoQuery is returned when a SQLite source has no query.
var ErrNoQuery = errors.New("sqlite source needs a query")

// SQLiteSource reads records from a read-only SQLite database.
type SQLiteSource struct {
	Path  string
	Query string
	Args  []any
}

// Load runs the query and returns one record per row keyed by column name.
// BLOB values are returned as strings.
func (s SQLiteSource) Load(ctx context.Context) ([]record.Record, error) {
	if strings.TrimSpace(s.Path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if strings.TrimSpace(s.Query) == "" {
		return nil, ErrNoQuery
	}
	dsn := "file:" + filepath.Clean(s.Path) + "?mode=ro&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("open sqlite db %s: %w", s.Path, err)
	}
	rows, err := db.QueryContext(ctx, s.Query, s.Args...)
	if err != nil {
		return nil, fmt.Errorf("query sqlite db: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []record.Record
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		r := make(record.Record, len(cols))
		for i, c := range cols {
			if b, ok := values[i].([]byte); ok {
				r[c] = string(b)
				continue
			}
			r[c] = values[i]
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	return out, nil
}
