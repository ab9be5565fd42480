package hr

import (
	"database/sql"
	"time"
)

// RunStatus is the final state of a restore run.
type RunStatus string

const (
	RunRunning RunStatus = "running"
	RunSuccess RunStatus = "success"
	RunPartial RunStatus = "partial" // some files failed to restore
	RunDryRun  RunStatus = "dry-run"
	RunError   RunStatus = "error"
)

// RunRecord is one restore run as kept in the run log.
type RunRecord struct {
	ID            int64
	RunID         string
	StartedAt     time.Time
	FinishedAt    sql.NullTime
	HistoryDir    string
	TargetDir     string
	Destination   string
	WindowStart   time.Time
	WindowEnd     time.Time
	Status        RunStatus
	FilesFound    int
	FilesRestored int
	FilesFailed   int
}

// RunLog records restore runs so past recoveries can be reviewed.
type RunLog interface {
	// CreateRun inserts run and sets its ID.
	CreateRun(run *RunRecord) error

	// FinishRun stores the final status, counters and finish time of run.
	FinishRun(run *RunRecord) error

	// ListRuns returns the most recent runs, newest first.
	ListRuns(limit int) ([]*RunRecord, error)

	// Close closes the underlying storage.
	Close() error
}
