// Package results persists check findings to a SQLite database so repeated
// runs over the same relation can be compared.
//
// Build modes:
//   - Default (CGO_ENABLED=0): Uses pure Go modernc.org/sqlite
//   - CGO mode (CGO_ENABLED=1 -tags cgo_sqlite): Uses mattn/go-sqlite3
//
// The driver name is "sqlite" or "sqlite3" depending on the implementation.
// Use Open() instead of sql.Open() to ensure the correct driver is used.
package results

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/FocuswithJustin/btcheck/internal/report"
)

// DriverName returns the SQL driver name in use.
func DriverName() string {
	return driverName
}

// IsCGO returns true if the CGO implementation is being used.
func IsCGO() bool {
	return driverType == "cgo"
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	index_path  TEXT NOT NULL,
	relation    TEXT NOT NULL,
	blocks      INTEGER NOT NULL,
	errors      INTEGER,
	started_at  TEXT NOT NULL,
	finished_at TEXT
);

CREATE TABLE IF NOT EXISTS pages (
	run_id      TEXT NOT NULL REFERENCES runs(id),
	block       INTEGER NOT NULL,
	errors      INTEGER NOT NULL,
	fingerprint TEXT NOT NULL,
	PRIMARY KEY (run_id, block)
);

CREATE TABLE IF NOT EXISTS findings (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id   TEXT NOT NULL REFERENCES runs(id),
	block    INTEGER NOT NULL,
	slot     INTEGER,
	attr     TEXT,
	message  TEXT NOT NULL
);
`

// DB is a handle to a results database.
type DB struct {
	db *sql.DB
}

// Open opens (creating if needed) a results database at path.
func Open(path string) (*DB, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open results database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create results schema: %w", err)
	}
	return &DB{db: db}, nil
}

// Close closes the database handle.
func (d *DB) Close() error {
	return d.db.Close()
}

// BeginRun records the start of a check run.
func (d *DB) BeginRun(runID, indexPath, relation string, blocks int) error {
	_, err := d.db.Exec(
		`INSERT INTO runs (id, index_path, relation, blocks, started_at) VALUES (?, ?, ?, ?, ?)`,
		runID, indexPath, relation, blocks, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("record run start: %w", err)
	}
	return nil
}

// FinishRun records the final error count of a check run.
func (d *DB) FinishRun(runID string, errors uint32) error {
	_, err := d.db.Exec(
		`UPDATE runs SET errors = ?, finished_at = ? WHERE id = ?`,
		errors, time.Now().UTC().Format(time.RFC3339), runID)
	if err != nil {
		return fmt.Errorf("record run finish: %w", err)
	}
	return nil
}

// AddPage records the verdict for one corrupted page together with its
// warning-level findings. Pages with no errors are not stored.
func (d *DB) AddPage(runID string, block uint32, errors uint32, fingerprint string, diags []report.Diagnostic) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("begin page transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO pages (run_id, block, errors, fingerprint) VALUES (?, ?, ?, ?)`,
		runID, block, errors, fingerprint); err != nil {
		return fmt.Errorf("record page: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO findings (run_id, block, slot, attr, message) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare findings insert: %w", err)
	}
	defer stmt.Close()

	for _, diag := range diags {
		if diag.Severity != report.Warning {
			continue
		}
		if _, err := stmt.Exec(runID, diag.Block, diag.Slot, diag.Attr, diag.Message); err != nil {
			return fmt.Errorf("record finding: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit page transaction: %w", err)
	}
	return nil
}

// RunSummary is one row of the runs table.
type RunSummary struct {
	ID        string
	IndexPath string
	Relation  string
	Blocks    int
	Errors    sql.NullInt64
}

// Runs lists recorded runs, newest first.
func (d *DB) Runs() ([]RunSummary, error) {
	rows, err := d.db.Query(
		`SELECT id, index_path, relation, blocks, errors FROM runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.ID, &r.IndexPath, &r.Relation, &r.Blocks, &r.Errors); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// FindingCount returns the number of stored findings for a run.
func (d *DB) FindingCount(runID string) (int, error) {
	var n int
	err := d.db.QueryRow(
		`SELECT COUNT(*) FROM findings WHERE run_id = ?`, runID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count findings: %w", err)
	}
	return n, nil
}
