package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"hrestore/internal/database/migrations"
	"hrestore/internal/hr"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteRunLog implements hr.RunLog using SQLite.
type SQLiteRunLog struct {
	db   *sql.DB
	path string
}

// NewSQLiteRunLog opens (creating if needed) the run log at path and brings
// its schema up to date. path can be a file path or ":memory:".
func NewSQLiteRunLog(path string) (*SQLiteRunLog, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating run log: %w", err)
	}

	return &SQLiteRunLog{db: db, path: path}, nil
}

// OpenConnection opens and configures a SQLite database connection.
// A single open connection is used: the run log has one writer, and an
// in-memory database only exists on the connection that created it.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

const runColumns = `id, run_id, started_at, finished_at, history_dir, target_dir, destination,
	window_start, window_end, status, files_found, files_restored, files_failed`

func (s *SQLiteRunLog) CreateRun(run *hr.RunRecord) error {
	res, err := s.db.Exec(`INSERT INTO restore_runs
		(run_id, started_at, history_dir, target_dir, destination, window_start, window_end, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.StartedAt.UTC(), run.HistoryDir, run.TargetDir, run.Destination,
		run.WindowStart.UTC(), run.WindowEnd.UTC(), string(run.Status),
	)
	if err != nil {
		return fmt.Errorf("creating restore run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading restore run id: %w", err)
	}
	run.ID = id
	return nil
}

func (s *SQLiteRunLog) FinishRun(run *hr.RunRecord) error {
	var finishedAt any
	if run.FinishedAt.Valid {
		finishedAt = run.FinishedAt.Time.UTC()
	}

	res, err := s.db.Exec(`UPDATE restore_runs
		SET finished_at = ?, status = ?, files_found = ?, files_restored = ?, files_failed = ?
		WHERE id = ?`,
		finishedAt, string(run.Status), run.FilesFound, run.FilesRestored, run.FilesFailed, run.ID,
	)
	if err != nil {
		return fmt.Errorf("finishing restore run: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finishing restore run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("restore run %d not found", run.ID)
	}
	return nil
}

func (s *SQLiteRunLog) ListRuns(limit int) ([]*hr.RunRecord, error) {
	rows, err := s.db.Query(`SELECT `+runColumns+` FROM restore_runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing restore runs: %w", err)
	}
	defer rows.Close()

	runs := []*hr.RunRecord{}
	for rows.Next() {
		var run hr.RunRecord
		var status string
		if err := rows.Scan(
			&run.ID, &run.RunID, &run.StartedAt, &run.FinishedAt, &run.HistoryDir, &run.TargetDir,
			&run.Destination, &run.WindowStart, &run.WindowEnd, &status,
			&run.FilesFound, &run.FilesRestored, &run.FilesFailed,
		); err != nil {
			return nil, fmt.Errorf("scanning restore run: %w", err)
		}
		run.Status = hr.RunStatus(status)
		runs = append(runs, &run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing restore runs: %w", err)
	}
	return runs, nil
}

// Path returns the database file path.
func (s *SQLiteRunLog) Path() string {
	return s.path
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteRunLog) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// Close closes the database connection.
func (s *SQLiteRunLog) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Compile-time check that SQLiteRunLog implements hr.RunLog interface
var _ hr.RunLog = (*SQLiteRunLog)(nil)
