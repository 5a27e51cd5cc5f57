// Package persistence provides the SQLite archive of finished runs.
// A run is stored once, after its horizon completes, and is never resumed.
package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/mini-census/internal/engine"
)

// ErrRunNotFound is returned when a run ID is not in the archive.
var ErrRunNotFound = errors.New("run not found")

// DB wraps a SQLite connection for the run archive.
type DB struct {
	conn *sqlx.DB
}

// Run describes one archived simulation run.
type Run struct {
	ID                 string `json:"id" db:"id"`
	CreatedAt          string `json:"created_at" db:"created_at"` // RFC 3339, UTC
	Seed               int64  `json:"seed" db:"seed"`
	TotalYears         int    `json:"total_years" db:"total_years"`
	GraduationAge      int    `json:"graduation_age" db:"graduation_age"`
	SampleSize         int    `json:"sample_size" db:"sample_size"`
	FertilityThreshold int    `json:"fertility_threshold" db:"fertility_threshold"`
	Kinship            string `json:"kinship" db:"kinship"`
	FinalLiving        int    `json:"final_living" db:"final_living"`
	FinalDeceased      int    `json:"final_deceased" db:"final_deceased"`
}

// NewRun returns a Run with a fresh ID and creation time.
func NewRun() Run {
	return Run{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

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
		created_at TEXT NOT NULL,
		seed INTEGER NOT NULL,
		total_years INTEGER NOT NULL,
		graduation_age INTEGER NOT NULL,
		sample_size INTEGER NOT NULL,
		fertility_threshold INTEGER NOT NULL,
		kinship TEXT NOT NULL,
		final_living INTEGER NOT NULL,
		final_deceased INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS year_records (
		run_id TEXT NOT NULL REFERENCES runs(id),
		year INTEGER NOT NULL,
		total_living INTEGER NOT NULL,
		children INTEGER NOT NULL,
		single_men INTEGER NOT NULL,
		single_women INTEGER NOT NULL,
		deceased INTEGER NOT NULL,
		couples INTEGER NOT NULL,
		PRIMARY KEY (run_id, year)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveRun writes a finished run and its records in one transaction.
// FinalLiving and FinalDeceased are filled in from the last record.
func (db *DB) SaveRun(run Run, records []engine.YearRecord) error {
	if len(records) > 0 {
		last := records[len(records)-1]
		run.FinalLiving = last.TotalLiving
		run.FinalDeceased = last.DeceasedCumulative
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.NamedExec(`INSERT INTO runs
		(id, created_at, seed, total_years, graduation_age, sample_size,
		 fertility_threshold, kinship, final_living, final_deceased)
		VALUES (:id, :created_at, :seed, :total_years, :graduation_age, :sample_size,
		 :fertility_threshold, :kinship, :final_living, :final_deceased)`, run)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}

	stmt, err := tx.Preparex(`INSERT INTO year_records
		(run_id, year, total_living, children, single_men, single_women, deceased, couples)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		_, err := stmt.Exec(
			run.ID, r.Year, r.TotalLiving, r.Children,
			r.SingleMen, r.SingleWomen, r.DeceasedCumulative, r.Couples,
		)
		if err != nil {
			return fmt.Errorf("insert year %d: %w", r.Year, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Info("run archived", "run", run.ID, "years", len(records))
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (db *DB) ListRuns(limit int) ([]Run, error) {
	var runs []Run
	err := db.conn.Select(&runs,
		"SELECT * FROM runs ORDER BY created_at DESC, id LIMIT ?",
		limit,
	)
	return runs, err
}

// GetRun returns one run by ID.
func (db *DB) GetRun(id string) (Run, error) {
	var run Run
	err := db.conn.Get(&run, "SELECT * FROM runs WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return run, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

// LoadRecords returns the yearly records of a run ordered by year.
func (db *DB) LoadRecords(runID string) ([]engine.YearRecord, error) {
	if _, err := db.GetRun(runID); err != nil {
		return nil, err
	}
	var records []engine.YearRecord
	err := db.conn.Select(&records,
		`SELECT year, total_living, children, single_men, single_women, deceased, couples
		 FROM year_records WHERE run_id = ? ORDER BY year`,
		runID,
	)
	return records, err
}
