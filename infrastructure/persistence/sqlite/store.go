// Package sqlite implements the Entity Store Adapter on a relational
// backend. Identifiers are sequence-assigned integers, formatted as
// strings at the adapter boundary so callers never see the difference
// from the key-value backend.
package sqlite

import (
	"database/sql"
	_ "embed"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Store provides SQLite-backed persistence for the book library.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open creates a new SQLite store at the given path.
// It configures WAL mode, sets pragmas, and runs schema migrations.
func Open(path string, logger *zap.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// parseID converts a boundary-level string ID to the backend's integer
// key. A non-numeric ID cannot reference any row.
func parseID(id string) (int64, bool) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// formatID converts a backend integer key to the boundary string form.
func formatID(n int64) string {
	return strconv.FormatInt(n, 10)
}

// parseTime parses a stored RFC 3339 timestamp.
func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
// The driver does not expose a typed error for this.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// sortableTimeLayout is RFC 3339 with a fixed-width fractional second.
// RFC3339Nano trims trailing zeros, and a trimmed "…00Z" sorts after
// "…00.5Z" ('Z' > '.'), so stored timestamps must keep all nine digits
// for the date-added ordering to hold lexicographically.
const sortableTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// formatTime renders a timestamp for storage in a form that sorts
// lexicographically in date order.
func formatTime(t time.Time) string {
	return t.UTC().Format(sortableTimeLayout)
}
