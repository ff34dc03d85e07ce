// Package runlog records playbook executions so operators can review what
// ran against which server, when, and how it ended.
//
// Storage is backed by a SQLite database at ~/.config/deployer/runs.db.
// Recording is best-effort: a failure to log never fails the command.
package runlog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const (
	appDir = "deployer"
	dbFile = "runs.db"
)

const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// pathOverride, when non-empty, replaces the default database path.
// Intended for testing. Use SetPath / ResetPath to manage.
var pathOverride string

// SetPath overrides the database path. Intended for testing.
func SetPath(p string) { pathOverride = p }

// ResetPath clears the path override. Intended for testing.
func ResetPath() { pathOverride = "" }

// Record is one persisted playbook execution.
type Record struct {
	ID         int64     `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Playbook   string    `json:"playbook"`
	Server     string    `json:"server"`
	Outcome    string    `json:"outcome"`
	Detail     string    `json:"detail,omitempty"`
	DurationMs int64     `json:"duration_ms"`
}

// Repository stores run records.
type Repository struct {
	db *sql.DB
}

// DefaultPath returns the default database path.
func DefaultPath() (string, error) {
	if pathOverride != "" {
		return pathOverride, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("runlog: unable to determine config directory: %w", err)
	}
	return filepath.Join(base, appDir, dbFile), nil
}

// Open creates or opens the run log at the default path.
func Open() (*Repository, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return OpenAt(path)
}

// OpenAt creates or opens a SQLite database at the given path.
func OpenAt(path string) (*Repository, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("runlog: failed to create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)")
	if err != nil {
		return nil, fmt.Errorf("runlog: failed to open database: %w", err)
	}

	r := &Repository{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repository) migrate() error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS runs (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   TEXT    NOT NULL,
			playbook    TEXT    NOT NULL,
			server      TEXT    NOT NULL,
			outcome     TEXT    NOT NULL,
			detail      TEXT    NOT NULL DEFAULT '',
			duration_ms INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_runs_server ON runs(server);
	`
	if _, err := r.db.Exec(ddl); err != nil {
		return fmt.Errorf("runlog: migration failed: %w", err)
	}
	return nil
}

// Save inserts a record, assigning its ID and timestamp.
func (r *Repository) Save(record *Record) error {
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}
	result, err := r.db.Exec(`
		INSERT INTO runs (timestamp, playbook, server, outcome, detail, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?)`,
		record.Timestamp.Format(time.RFC3339Nano), record.Playbook, record.Server,
		record.Outcome, record.Detail, record.DurationMs,
	)
	if err != nil {
		return fmt.Errorf("runlog: insert failed: %w", err)
	}
	record.ID, _ = result.LastInsertId()
	return nil
}

// ListRecent returns the most recent n records, newest first. When server
// is non-empty only that server's runs are returned.
func (r *Repository) ListRecent(server string, n int) ([]Record, error) {
	query := `
		SELECT id, timestamp, playbook, server, outcome, detail, duration_ms
		FROM runs`
	args := []any{}
	if server != "" {
		query += ` WHERE server = ?`
		args = append(args, server)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, n)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("runlog: query failed: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var ts string
		if err := rows.Scan(&rec.ID, &ts, &rec.Playbook, &rec.Server, &rec.Outcome, &rec.Detail, &rec.DurationMs); err != nil {
			return nil, fmt.Errorf("runlog: scan failed: %w", err)
		}
		rec.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// DeleteOlderThan removes records older than d. Returns the number removed.
func (r *Repository) DeleteOlderThan(d time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-d).Format(time.RFC3339Nano)
	result, err := r.db.Exec(`DELETE FROM runs WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("runlog: delete failed: %w", err)
	}
	return result.RowsAffected()
}

// Close releases database resources.
func (r *Repository) Close() error {
	return r.db.Close()
}
