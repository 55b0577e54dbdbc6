// Package history records sent requests and their outcomes in a SQLite
// database so past exchanges can be listed and queried.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	// SQLite driver
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS exchanges (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	sent_at        TIMESTAMP NOT NULL,
	method         TEXT NOT NULL,
	url            TEXT NOT NULL,
	status         INTEGER NOT NULL DEFAULT 0,
	duration_ms    INTEGER NOT NULL DEFAULT 0,
	request_bytes  INTEGER NOT NULL DEFAULT 0,
	response_bytes INTEGER NOT NULL DEFAULT 0,
	error_kind     TEXT NOT NULL DEFAULT '',
	error          TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS exchanges_sent_at ON exchanges (sent_at);
`

// Entry is one recorded exchange
type Entry struct {
	ID            int64
	SentAt        time.Time
	Method        string
	URL           string
	Status        int
	Duration      time.Duration
	RequestBytes  int
	ResponseBytes int
	ErrorKind     string
	Error         string
}

// Failed reports whether the exchange ended in an error
func (e Entry) Failed() bool {
	return e.Error != ""
}

// QueryResult represents the result of an ad-hoc query
type QueryResult struct {
	Columns []string
	Rows    []map[string]any
}

// Store is an exchange log backed by SQLite
type Store struct {
	db           *sql.DB
	dataSource   string
	queryTimeout time.Duration
}

// Open opens or creates the history database. Supported formats:
//   - sqlite://path/to/history.db
//   - sqlite:./history.db
//   - a bare file path
func Open(connectionString string) (*Store, error) {
	dsn, err := parseConnectionString(connectionString)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{
		db:           db,
		dataSource:   dsn,
		queryTimeout: 30 * time.Second,
	}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record stores an exchange and returns its id
func (s *Store) Record(e Entry) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.queryTimeout)
	defer cancel()

	if e.SentAt.IsZero() {
		e.SentAt = time.Now()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO exchanges (sent_at, method, url, status, duration_ms, request_bytes, response_bytes, error_kind, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.SentAt.UTC(), e.Method, e.URL, e.Status, e.Duration.Milliseconds(),
		e.RequestBytes, e.ResponseBytes, e.ErrorKind, e.Error,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to record exchange: %w", err)
	}
	return res.LastInsertId()
}

// List returns the most recent exchanges, newest first. A limit of zero or less returns all.
func (s *Store) List(limit int) ([]Entry, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.queryTimeout)
	defer cancel()

	query := `SELECT id, sent_at, method, url, status, duration_ms, request_bytes, response_bytes, error_kind, error
		FROM exchanges ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var (
			e          Entry
			durationMs int64
		)
		if err := rows.Scan(&e.ID, &e.SentAt, &e.Method, &e.URL, &e.Status, &durationMs,
			&e.RequestBytes, &e.ResponseBytes, &e.ErrorKind, &e.Error); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		e.Duration = time.Duration(durationMs) * time.Millisecond
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return entries, nil
}

// Count returns the number of recorded exchanges
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM exchanges`).Scan(&n); err != nil {
		return 0, fmt.Errorf("query failed: %w", err)
	}
	return n, nil
}

// Clear deletes every recorded exchange
func (s *Store) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM exchanges`); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

// ErrNotReadOnly is returned by Query for statements other than SELECT
var ErrNotReadOnly = errors.New("only SELECT statements are allowed")

// Query executes a read-only SQL query and returns the result
func (s *Store) Query(query string) (*QueryResult, error) {
	if !strings.HasPrefix(strings.ToUpper(strings.TrimSpace(query)), "SELECT") {
		return nil, ErrNotReadOnly
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.queryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	result := &QueryResult{
		Columns: columns,
		Rows:    make([]map[string]any, 0),
	}

	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(map[string]any)
		for i, col := range columns {
			val := values[i]
			// Convert []byte to string for better handling
			if b, ok := val.([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = val
			}
		}
		result.Rows = append(result.Rows, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return result, nil
}

func parseConnectionString(connStr string) (string, error) {
	connStr = strings.TrimSpace(connStr)

	switch {
	case connStr == "":
		return "", fmt.Errorf("empty connection string")
	case strings.HasPrefix(connStr, "sqlite://"):
		return strings.TrimPrefix(connStr, "sqlite://"), nil
	case strings.HasPrefix(connStr, "sqlite:"):
		return strings.TrimPrefix(connStr, "sqlite:"), nil
	case strings.Contains(connStr, "://"):
		scheme, _, _ := strings.Cut(connStr, "://")
		return "", fmt.Errorf("unsupported database scheme: %s", scheme)
	default:
		return connStr, nil
	}
}
