package hr

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"strings"
)

// FailureKind classifies why one file could not be restored.
type FailureKind string

const (
	FailureSourceMissing FailureKind = "source_missing"
	FailurePermission    FailureKind = "permission"
	FailureInvalidPath   FailureKind = "invalid_path"
	FailureIO            FailureKind = "io"
)

// RestoreFailure records one file that could not be restored.
type RestoreFailure struct {
	RelativePath string
	Kind         FailureKind
	Err          error
}

// RestoreReport is the outcome of a Restore call.
type RestoreReport struct {
	Succeeded int
	Restored  []string // relative paths written, in processing order
	Failed    []RestoreFailure
}

// Restorer copies selected snapshots into a Sink.
type Restorer struct {
	sink   Sink
	logger Logger
}

// NewRestorer creates a Restorer writing to sink.
func NewRestorer(sink Sink, logger Logger) *Restorer {
	return &Restorer{sink: sink, logger: orDiscard(logger)}
}

// Restore copies every selected file into the sink, overwriting existing
// entries. A failure for one file is recorded in the report and processing
// continues. The only error returned is ctx's, checked between files; the
// report then covers the files handled so far.
func (r *Restorer) Restore(ctx context.Context, files iter.Seq[SelectedFile]) (*RestoreReport, error) {
	report := &RestoreReport{}
	for f := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		if err := r.restoreOne(f); err != nil {
			kind := classifyFailure(err)
			report.Failed = append(report.Failed, RestoreFailure{RelativePath: f.RelativePath, Kind: kind, Err: err})
			r.logger.Error("restore failed", "path", f.RelativePath, "kind", string(kind), "error", err)
			continue
		}

		report.Succeeded++
		report.Restored = append(report.Restored, f.RelativePath)
		r.logger.Info("file restored", "path", f.RelativePath, "snapshot", f.SnapshotTime.Format("2006-01-02T15:04:05"))
	}
	return report, nil
}

func (r *Restorer) restoreOne(f SelectedFile) error {
	if err := ValidateRelativePath(f.RelativePath); err != nil {
		return err
	}

	src, err := os.Open(f.SourcePath)
	if err != nil {
		return fmt.Errorf("%w: opening snapshot: %w", ErrRestoreIO, err)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return fmt.Errorf("%w: stat snapshot: %w", ErrRestoreIO, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: snapshot is not a regular file: %s", ErrRestoreIO, f.SourcePath)
	}

	if err := r.sink.Put(f.RelativePath, src, info.Size(), f.SnapshotTime); err != nil {
		return fmt.Errorf("%w: writing %s to %s: %w", ErrRestoreIO, f.RelativePath, r.sink.Describe(), err)
	}
	return nil
}

// ValidateRelativePath rejects paths that are empty, absolute, or that climb
// out of the output root. Errors wrap ErrInvalidPath.
func ValidateRelativePath(rel string) error {
	if rel == "" {
		return fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	if strings.HasPrefix(rel, "/") || strings.ContainsRune(rel, '\\') {
		return fmt.Errorf("%w: %s", ErrInvalidPath, rel)
	}
	for _, seg := range strings.Split(rel, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return fmt.Errorf("%w: %s", ErrInvalidPath, rel)
		}
		if len(seg) == 2 && seg[1] == ':' && isLetter(seg[0]) {
			return fmt.Errorf("%w: %s", ErrInvalidPath, rel)
		}
	}
	return nil
}

func classifyFailure(err error) FailureKind {
	switch {
	case errors.Is(err, ErrInvalidPath):
		return FailureInvalidPath
	case errors.Is(err, fs.ErrNotExist):
		return FailureSourceMissing
	case errors.Is(err, fs.ErrPermission):
		return FailurePermission
	default:
		return FailureIO
	}
}
