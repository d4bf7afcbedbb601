package database

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    benchmark TEXT NOT NULL,
    instructions TEXT NOT NULL,
    visual_check TEXT DEFAULT '',
    input_file TEXT DEFAULT '',
    output_file TEXT DEFAULT '',
    created_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS records (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL REFERENCES runs(id),
    url TEXT NOT NULL,
    status TEXT NOT NULL CHECK(status IN ('ok', 'fetch_failed', 'model_failed')),
    description TEXT DEFAULT '',
    failure_reason TEXT DEFAULT '',
    correction TEXT DEFAULT '',
    html_snippet TEXT DEFAULT '',
    nav_links TEXT DEFAULT '',
    meta_description TEXT DEFAULT '',
    ui_signals TEXT DEFAULT '',
    created_at TEXT DEFAULT (datetime('now')),
    UNIQUE(run_id, url)
);

CREATE INDEX IF NOT EXISTS idx_records_run ON records(run_id);
CREATE INDEX IF NOT EXISTS idx_records_status ON records(status);
`)
			return err
		},
	},
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
