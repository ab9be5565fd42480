package testutil

import (
	"testing"

	"hrestore/internal/database"
)

// NewTestRunLog opens an in-memory run log with migrations applied.
// It is closed when the test completes.
func NewTestRunLog(t *testing.T) *database.SQLiteRunLog {
	t.Helper()

	runLog, err := database.NewSQLiteRunLog(":memory:")
	if err != nil {
		t.Fatalf("failed to open run log: %v", err)
	}
	t.Cleanup(func() {
		runLog.Close()
	})
	return runLog
}
