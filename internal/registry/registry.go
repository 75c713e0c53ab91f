// Package registry persists the PIDs of launched roles under the run's root
// directory. A later invocation uses it to kill a crashed run's processes by
// exact identifier before any name-based matching happens.
package registry

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// Register the pure-Go SQLite driver (no CGO required).
	_ "modernc.org/sqlite"
)

// Statuses recorded for a managed process.
const (
	StatusRunning = "running"
	StatusStopped = "stopped"
)

// Record is the persisted state for one managed process. Name is unique
// across the run; insertion order is startup order.
type Record struct {
	Name      string
	PID       int
	Status    string
	UpdatedAt time.Time
}

// Registry is a sqlite-backed PID store.
type Registry struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS processes (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL UNIQUE,
	pid        INTEGER NOT NULL,
	status     TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
`

// Open opens (creating if necessary) the registry database at path.
func Open(ctx context.Context, path string) (*Registry, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open registry %s: %w", path, err)
	}
	// Single short-lived session, not a pool.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure registry schema: %w", err)
	}
	return &Registry{db: db}, nil
}

// Record upserts the state for a named process.
func (r *Registry) Record(ctx context.Context, rec Record) error {
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	const stmt = `
INSERT INTO processes (name, pid, status, updated_at) VALUES (?, ?, ?, ?)
ON CONFLICT(name) DO UPDATE SET pid = excluded.pid, status = excluded.status, updated_at = excluded.updated_at
`
	if _, err := r.db.ExecContext(ctx, stmt, rec.Name, rec.PID, rec.Status, rec.UpdatedAt); err != nil {
		return fmt.Errorf("record %s: %w", rec.Name, err)
	}
	return nil
}

// List returns all records in insertion (startup) order.
func (r *Registry) List(ctx context.Context) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name, pid, status, updated_at FROM processes ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list registry: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.Name, &rec.PID, &rec.Status, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan registry row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate registry rows: %w", err)
	}
	return records, nil
}

// Clear removes every record; called once a shutdown has fully completed.
func (r *Registry) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM processes`); err != nil {
		return fmt.Errorf("clear registry: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (r *Registry) Close() error {
	return r.db.Close()
}
