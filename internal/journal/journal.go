// Package journal records provisioning actions in a local SQLite database.
// The journal is append-only audit history: the engine writes a row per
// action but never reads the journal to decide what to provision, so
// idempotency is always re-derived from the remote server.
package journal

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Journal wraps a SQLite database holding run history.
type Journal struct {
	db    *sql.DB
	runID int64
}

// Open opens or creates the journal database at path and starts a new run
// record for the given server URL.
func Open(path, serverURL string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}

	// SQLite doesn't support concurrent writes
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating journal schema: %w", err)
	}

	res, err := db.Exec(
		`INSERT INTO runs (server_url, started_at) VALUES (?, ?)`,
		serverURL, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("starting journal run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("starting journal run: %w", err)
	}

	return &Journal{db: db, runID: runID}, nil
}

// createSchema creates the journal schema if it doesn't exist.
func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			server_url TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT
		);

		CREATE TABLE IF NOT EXISTS actions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL REFERENCES runs(id),
			kind TEXT NOT NULL,
			name TEXT NOT NULL,
			action TEXT NOT NULL,
			outcome TEXT NOT NULL,
			detail TEXT,
			recorded_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_actions_run ON actions(run_id);
	`
	_, err := db.Exec(schema)
	return err
}

// Record appends one action to the current run. Implements
// provision.Recorder. Write failures are deliberately ignored: the journal
// is audit history only, and losing a row must never fail the run.
func (j *Journal) Record(kind, name, action, outcome, detail string) {
	_, _ = j.db.Exec(
		`INSERT INTO actions (run_id, kind, name, action, outcome, detail, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		j.runID, kind, name, action, outcome, detail,
		time.Now().UTC().Format(time.RFC3339),
	)
}

// Close marks the run finished and closes the database.
func (j *Journal) Close() error {
	_, err := j.db.Exec(
		`UPDATE runs SET finished_at = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339), j.runID,
	)
	if closeErr := j.db.Close(); err == nil {
		err = closeErr
	}
	return err
}

// RunAction is one recorded action, as returned by Actions.
type RunAction struct {
	Kind    string
	Name    string
	Action  string
	Outcome string
	Detail  string
}

// Actions returns the actions recorded for the current run, oldest first.
// Used by tests and the journal inspection command.
func (j *Journal) Actions() ([]RunAction, error) {
	rows, err := j.db.Query(
		`SELECT kind, name, action, outcome, COALESCE(detail, '')
		 FROM actions WHERE run_id = ? ORDER BY id`, j.runID)
	if err != nil {
		return nil, fmt.Errorf("querying journal actions: %w", err)
	}
	defer rows.Close()

	var actions []RunAction
	for rows.Next() {
		var a RunAction
		if err := rows.Scan(&a.Kind, &a.Name, &a.Action, &a.Outcome, &a.Detail); err != nil {
			return nil, fmt.Errorf("scanning journal action: %w", err)
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}
