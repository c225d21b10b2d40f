// Package persistence stores finished runs, their growth history and plant
// snapshots in SQLite.
package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("not found")

// RunRow is one finished game.
type RunRow struct {
	ID           string  `db:"id" json:"id"`
	Gardener     string  `db:"gardener" json:"gardener"`
	Source       string  `db:"source" json:"source"`
	Seed         int64   `db:"seed" json:"seed"`
	Turns        int     `db:"turns" json:"turns"`
	Varieties    int     `db:"varieties" json:"varieties"`
	PlantsPlaced int     `db:"plants_placed" json:"plants_placed"`
	FinalGrowth  float64 `db:"final_growth" json:"final_growth"`
	PlacementMS  int64   `db:"placement_ms" json:"placement_ms"`
	CreatedAt    int64   `db:"created_at" json:"created_at"` // Unix seconds
}

// DB wraps a SQLite connection for run storage.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One writer at a time; tournaments share a DB across goroutines.
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		gardener TEXT NOT NULL,
		source TEXT NOT NULL,
		seed INTEGER NOT NULL,
		turns INTEGER NOT NULL,
		varieties INTEGER NOT NULL,
		plants_placed INTEGER NOT NULL,
		final_growth REAL NOT NULL,
		placement_ms INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS growth_history (
		run_id TEXT NOT NULL,
		turn INTEGER NOT NULL,
		total_growth REAL NOT NULL,
		PRIMARY KEY (run_id, turn)
	);

	CREATE TABLE IF NOT EXISTS plant_snapshots (
		run_id TEXT NOT NULL,
		turn INTEGER NOT NULL,
		plant_id INTEGER NOT NULL,
		variety TEXT NOT NULL,
		species TEXT NOT NULL,
		radius INTEGER NOT NULL,
		x REAL NOT NULL,
		y REAL NOT NULL,
		size REAL NOT NULL,
		max_size REAL NOT NULL,
		capacity REAL NOT NULL,
		coef_r REAL NOT NULL,
		coef_g REAL NOT NULL,
		coef_b REAL NOT NULL,
		inv_r REAL NOT NULL,
		inv_g REAL NOT NULL,
		inv_b REAL NOT NULL,
		PRIMARY KEY (run_id, turn, plant_id)
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveRun writes a run and its growth history in one transaction. A zero
// CreatedAt is stamped with the current time.
func (db *DB) SaveRun(run RunRow, history []float64) error {
	return db.SaveRunWithSnapshots(run, history, nil)
}

// SaveRunWithSnapshots writes a run, its growth history and its plant
// snapshots in one transaction; on any failure nothing is stored.
func (db *DB) SaveRunWithSnapshots(run RunRow, history []float64, rows []PlantRow) error {
	if run.CreatedAt == 0 {
		run.CreatedAt = time.Now().Unix()
	}

	err := db.inTx(func(tx *sqlx.Tx) error {
		if err := insertRun(tx, run, history); err != nil {
			return err
		}
		return insertSnapshots(tx, rows)
	})
	if err != nil {
		return err
	}
	slog.Debug("run saved", "run_id", run.ID, "turns", len(history), "snapshot_rows", len(rows))
	return nil
}

func insertRun(tx *sqlx.Tx, run RunRow, history []float64) error {
	_, err := tx.NamedExec(`INSERT INTO runs
		(id, gardener, source, seed, turns, varieties, plants_placed, final_growth, placement_ms, created_at)
		VALUES (:id, :gardener, :source, :seed, :turns, :varieties, :plants_placed, :final_growth, :placement_ms, :created_at)`,
		run)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}

	stmt, err := tx.Preparex("INSERT INTO growth_history (run_id, turn, total_growth) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, g := range history {
		if _, err := stmt.Exec(run.ID, i+1, g); err != nil {
			return fmt.Errorf("insert history %s turn %d: %w", run.ID, i+1, err)
		}
	}
	return nil
}

// inTx runs fn in a transaction, committing only if fn succeeds.
func (db *DB) inTx(fn func(*sqlx.Tx) error) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// ListRuns returns the most recent runs, newest first.
func (db *DB) ListRuns(limit int) ([]RunRow, error) {
	var runs []RunRow
	err := db.conn.Select(&runs,
		"SELECT * FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?", limit)
	return runs, err
}

// GetRun returns one run, or ErrNotFound.
func (db *DB) GetRun(id string) (RunRow, error) {
	var run RunRow
	err := db.conn.Get(&run, "SELECT * FROM runs WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return RunRow{}, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	return run, err
}

// History returns the per-turn total growth of a run, turn 1 first.
func (db *DB) History(runID string) ([]float64, error) {
	var history []float64
	err := db.conn.Select(&history,
		"SELECT total_growth FROM growth_history WHERE run_id = ? ORDER BY turn", runID)
	return history, err
}

// SaveMeta stores a key-value pair.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM meta WHERE key = ?", key)
	return value, err
}
