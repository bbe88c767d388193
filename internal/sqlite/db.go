package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection
type DB struct {
	*sql.DB
}

// New creates a new SQLite database connection
func New(dataSourceName string) (*DB, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &DB{db}, nil
}

// RunMigrations creates the audit schema. Safe to run at every startup.
func (db *DB) RunMigrations() error {
	migration := `
CREATE TABLE IF NOT EXISTS audit_log (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    op TEXT NOT NULL,
    project TEXT NOT NULL,
    work_item_id INTEGER,
    outcome TEXT NOT NULL CHECK(outcome IN ('ok', 'failed')),
    detail TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_audit_project ON audit_log(project);
CREATE INDEX IF NOT EXISTS idx_audit_work_item ON audit_log(work_item_id);
CREATE INDEX IF NOT EXISTS idx_audit_created_at ON audit_log(created_at);
`

	if _, err := db.Exec(migration); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
