package hr

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"
)

// Excluder decides whether a relative path should be left out of a restore.
type Excluder interface {
	Match(relativePath string) bool
}

// RestoreRequest describes one recovery.
type RestoreRequest struct {
	HistoryDir string
	TargetDir  string
	Window     Window
	Exclude    Excluder // optional
	DryRun     bool     // select only, write nothing
}

// Summary is what a restore run saw and did.
type Summary struct {
	RunID          string
	Destination    string
	Window         Window
	FoldersScanned int
	FoldersSkipped int
	FilesFound     int
	FilesExcluded  int
	FilesRestored  int
	FilesFailed    int
	Selected       []SelectedFile // sorted by relative path
	Report         *RestoreReport // nil for dry runs
	Status         RunStatus
}

// RestoreService is the orchestration layer that scans a history store,
// selects the latest snapshot per file and restores them into a sink.
type RestoreService struct {
	sink   Sink
	runLog RunLog
	logger Logger
	clock  Clock
	idgen  IDGenerator
}

// NewRestoreService creates a new RestoreService with the provided dependencies.
func NewRestoreService(sink Sink, runLog RunLog, logger Logger, clock Clock, idgen IDGenerator) *RestoreService {
	return &RestoreService{
		sink:   sink,
		runLog: runLog,
		logger: orDiscard(logger),
		clock:  clock,
		idgen:  idgen,
	}
}

// Run performs one restore. Configuration problems (no target, unreadable
// history root) are returned before anything is scanned or recorded.
// Per-folder and per-file problems never fail the run; they show up as
// skipped folders and failed files in the summary.
func (s *RestoreService) Run(ctx context.Context, req RestoreRequest) (*Summary, error) {
	if strings.TrimSpace(req.TargetDir) == "" || Normalize(req.TargetDir) == "" {
		return nil, fmt.Errorf("%w: restore path is required", ErrConfiguration)
	}
	store, err := OpenStore(req.HistoryDir, s.logger)
	if err != nil {
		return nil, err
	}

	run := &RunRecord{
		RunID:       s.idgen.New(),
		StartedAt:   s.clock.Now(),
		HistoryDir:  store.Root(),
		TargetDir:   req.TargetDir,
		Destination: s.sink.Describe(),
		WindowStart: req.Window.Start,
		WindowEnd:   req.Window.End,
		Status:      RunRunning,
	}
	if err := s.runLog.CreateRun(run); err != nil {
		return nil, fmt.Errorf("recording run: %w", err)
	}

	s.logger.Info("restore started",
		"run", run.RunID,
		"history", store.Root(),
		"target", req.TargetDir,
		"destination", s.sink.Describe(),
		"window", req.Window.String(),
	)

	summary := &Summary{
		RunID:       run.RunID,
		Destination: s.sink.Describe(),
		Window:      req.Window,
	}
	summary.Selected = s.collect(store, req, summary)
	summary.FilesFound = len(summary.Selected)
	stats := store.Stats()
	summary.FoldersScanned = stats.Folders
	summary.FoldersSkipped = stats.Skipped

	s.logger.Info("scan complete",
		"folders", stats.Folders,
		"skipped", stats.Skipped,
		"found", summary.FilesFound,
		"excluded", summary.FilesExcluded,
	)

	var runErr error
	if req.DryRun {
		summary.Status = RunDryRun
	} else {
		report, err := NewRestorer(s.sink, s.logger).Restore(ctx, slices.Values(summary.Selected))
		summary.Report = report
		summary.FilesRestored = report.Succeeded
		summary.FilesFailed = len(report.Failed)
		switch {
		case err != nil:
			summary.Status = RunError
			runErr = fmt.Errorf("restore interrupted: %w", err)
		case len(report.Failed) > 0:
			summary.Status = RunPartial
		default:
			summary.Status = RunSuccess
		}
	}

	run.Status = summary.Status
	run.FilesFound = summary.FilesFound
	run.FilesRestored = summary.FilesRestored
	run.FilesFailed = summary.FilesFailed
	run.FinishedAt = sql.NullTime{Time: s.clock.Now(), Valid: true}
	if err := s.runLog.FinishRun(run); err != nil && runErr == nil {
		runErr = fmt.Errorf("recording run result: %w", err)
	}

	s.logger.Info("restore complete",
		"status", string(summary.Status),
		"restored", summary.FilesRestored,
		"failed", summary.FilesFailed,
	)
	return summary, runErr
}

// collect selects files from the store, drops excluded paths and keeps only
// the newest snapshot when several folders resolve to the same relative path
// (the editor starts a new folder when a locator's encoding changes).
func (s *RestoreService) collect(store *Store, req RestoreRequest, summary *Summary) []SelectedFile {
	byPath := make(map[string]SelectedFile)
	for f := range Select(store.Records(), req.TargetDir, req.Window) {
		if req.Exclude != nil && req.Exclude.Match(f.RelativePath) {
			summary.FilesExcluded++
			s.logger.Debug("file excluded", "path", f.RelativePath)
			continue
		}
		if prev, ok := byPath[f.RelativePath]; ok && prev.SnapshotTime.After(f.SnapshotTime) {
			s.logger.Debug("older duplicate dropped", "path", f.RelativePath, "folder", f.FolderID)
			continue
		}
		byPath[f.RelativePath] = f
		s.logger.Debug("file found", "path", f.RelativePath, "folder", f.FolderID, "snapshot", f.SnapshotTime)
	}

	selected := make([]SelectedFile, 0, len(byPath))
	for _, f := range byPath {
		selected = append(selected, f)
	}
	slices.SortFunc(selected, func(a, b SelectedFile) int {
		return strings.Compare(a.RelativePath, b.RelativePath)
	})
	return selected
}

// History returns the most recent restore runs, newest first.
func (s *RestoreService) History(limit int) ([]*RunRecord, error) {
	runs, err := s.runLog.ListRuns(limit)
	if err != nil {
		return nil, fmt.Errorf("listing restore runs: %w", err)
	}
	return runs, nil
}
