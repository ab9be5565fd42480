package database

import (
	"fmt"
	"path/filepath"

	"hrestore/internal/config"
	"hrestore/internal/hr"
)

// runLogFileName is the SQLite file inside data_dir.
const runLogFileName = "runs.db"

// NewRunLogFromConfig creates a RunLog implementation based on the database config type.
func NewRunLogFromConfig(cfg config.DatabaseConfig) (hr.RunLog, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		return NewSQLiteRunLog(filepath.Join(cfg.DataDir, runLogFileName))
	case "memory", "":
		return NewSQLiteRunLog(":memory:")
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}
