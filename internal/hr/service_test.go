package hr_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"hrestore/internal/fs"
	"hrestore/internal/hr"
	"hrestore/internal/sink"
	"hrestore/internal/testutil"
)

func newTestService(t *testing.T, out hr.Sink) (*hr.RestoreService, hr.RunLog) {
	t.Helper()
	runLog := testutil.NewTestRunLog(t)
	svc := hr.NewRestoreService(out, runLog, hr.Discard, testutil.FixedClock(), testutil.NewStubIDGenerator())
	return svc, runLog
}

func TestRestoreService_EndToEnd(t *testing.T) {
	t.Parallel()

	b := testutil.NewHistoryStore(t)
	b.Folder("file:///c%3A/proj/src/main.py",
		testutil.SnapshotFile{ID: "m1.bak", Time: time.Date(2024, 7, 30, 10, 0, 0, 0, time.UTC), Content: "m1"},
		testutil.SnapshotFile{ID: "m2.bak", Time: time.Date(2024, 7, 31, 10, 0, 0, 0, time.UTC), Content: "m2"},
	)
	b.Folder(`C:\other\readme.md`,
		testutil.SnapshotFile{ID: "r1.bak", Time: time.Date(2024, 7, 31, 9, 0, 0, 0, time.UTC), Content: "r1"},
	)

	outDir := filepath.Join(t.TempDir(), "restoredFolder")
	out, err := sink.NewFileSystemSink(outDir)
	if err != nil {
		t.Fatalf("NewFileSystemSink() error = %v", err)
	}
	svc, runLog := newTestService(t, out)

	window := hr.NewWindow(time.Date(2024, 7, 30, 0, 0, 0, 0, time.UTC), time.Date(2024, 7, 31, 23, 59, 59, 0, time.UTC))
	summary, err := svc.Run(context.Background(), hr.RestoreRequest{
		HistoryDir: b.Root(),
		TargetDir:  "C:/proj",
		Window:     window,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if summary.FilesFound != 1 || summary.FilesRestored != 1 || summary.Status != hr.RunSuccess {
		t.Errorf("summary = %+v", summary)
	}
	if summary.FoldersScanned != 2 || summary.FoldersSkipped != 0 {
		t.Errorf("folders scanned/skipped = %d/%d", summary.FoldersScanned, summary.FoldersSkipped)
	}

	got, err := os.ReadFile(filepath.Join(outDir, "src", "main.py"))
	if err != nil {
		t.Fatalf("reading restored file: %v", err)
	}
	if string(got) != "m2" {
		t.Errorf("content = %q, want m2", got)
	}
	info, err := os.Stat(filepath.Join(outDir, "src", "main.py"))
	if err != nil {
		t.Fatal(err)
	}
	if !info.ModTime().Equal(time.Date(2024, 7, 31, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("mtime = %v, want snapshot time", info.ModTime())
	}
	if _, err := os.Stat(filepath.Join(outDir, "readme.md")); !os.IsNotExist(err) {
		t.Errorf("file outside target was restored: %v", err)
	}

	runs, err := runLog.ListRuns(5)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(runs))
	}
	r := runs[0]
	if r.RunID != "run-1" || r.Status != hr.RunSuccess || r.FilesFound != 1 || r.FilesRestored != 1 || !r.FinishedAt.Valid {
		t.Errorf("run = %+v", r)
	}
	if r.Destination != outDir || r.TargetDir != "C:/proj" {
		t.Errorf("run destination/target = %q/%q", r.Destination, r.TargetDir)
	}
}

func TestRestoreService_Run(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 7, 31, 12, 0, 0, 0, time.UTC)
	window := hr.NewWindow(now.Add(-24*time.Hour), now)

	b := testutil.NewHistoryStore(t)
	b.Folder("/work/app/main.go",
		testutil.SnapshotFile{Time: now.Add(-2 * time.Hour), Content: "old"},
	)
	// Same file recorded under a differently encoded locator.
	b.Folder("file:///work/app/main.go",
		testutil.SnapshotFile{Time: now.Add(-time.Hour), Content: "new"},
	)
	b.Folder("/work/app/build/out.log",
		testutil.SnapshotFile{Time: now.Add(-time.Hour), Content: "log"},
	)
	b.Folder("/work/app/lost.txt",
		testutil.SnapshotFile{Time: now.Add(-time.Hour), Missing: true},
	)
	b.RawFolder("broken", "not json")

	t.Run("dedupes, excludes and reports partial failures", func(t *testing.T) {
		t.Parallel()
		out := sink.NewMemorySink("out")
		svc, runLog := newTestService(t, out)

		summary, err := svc.Run(context.Background(), hr.RestoreRequest{
			HistoryDir: b.Root(),
			TargetDir:  "/work/app",
			Window:     window,
			Exclude:    fs.NewExcludeMatcher([]string{"build/"}),
		})
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}

		if summary.Status != hr.RunPartial {
			t.Errorf("Status = %s, want partial", summary.Status)
		}
		if summary.FilesFound != 2 || summary.FilesExcluded != 1 || summary.FilesRestored != 1 || summary.FilesFailed != 1 {
			t.Errorf("summary = %+v", summary)
		}
		if summary.FoldersSkipped != 1 {
			t.Errorf("FoldersSkipped = %d, want 1", summary.FoldersSkipped)
		}
		if got, _ := out.Get("main.go"); string(got) != "new" {
			t.Errorf("main.go = %q, want newer duplicate", got)
		}
		if summary.Report.Failed[0].RelativePath != "lost.txt" || summary.Report.Failed[0].Kind != hr.FailureSourceMissing {
			t.Errorf("failure = %+v", summary.Report.Failed[0])
		}
		if summary.Selected[0].RelativePath != "lost.txt" || summary.Selected[1].RelativePath != "main.go" {
			t.Errorf("Selected not sorted: %+v", summary.Selected)
		}

		runs, err := runLog.ListRuns(1)
		if err != nil {
			t.Fatalf("ListRuns() error = %v", err)
		}
		if runs[0].Status != hr.RunPartial || runs[0].FilesFailed != 1 {
			t.Errorf("run = %+v", runs[0])
		}
	})

	t.Run("dry run writes nothing", func(t *testing.T) {
		t.Parallel()
		out := sink.NewMemorySink("out")
		svc, runLog := newTestService(t, out)

		summary, err := svc.Run(context.Background(), hr.RestoreRequest{
			HistoryDir: b.Root(),
			TargetDir:  "/work/app",
			Window:     window,
			DryRun:     true,
		})
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if summary.Status != hr.RunDryRun || summary.FilesFound != 3 || summary.Report != nil {
			t.Errorf("summary = %+v", summary)
		}
		if len(out.Paths()) != 0 {
			t.Errorf("dry run wrote %v", out.Paths())
		}
		runs, _ := runLog.ListRuns(1)
		if len(runs) != 1 || runs[0].Status != hr.RunDryRun {
			t.Errorf("runs = %+v", runs)
		}
	})

	t.Run("empty window finds nothing", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t, sink.NewMemorySink("out"))
		summary, err := svc.Run(context.Background(), hr.RestoreRequest{
			HistoryDir: b.Root(),
			TargetDir:  "/work/app",
			Window:     hr.NewWindow(now, now.Add(-time.Hour)),
		})
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if summary.FilesFound != 0 || summary.Status != hr.RunSuccess {
			t.Errorf("summary = %+v", summary)
		}
	})

	t.Run("configuration errors record no run", func(t *testing.T) {
		t.Parallel()
		svc, runLog := newTestService(t, sink.NewMemorySink("out"))

		reqs := map[string]hr.RestoreRequest{
			"no target":       {HistoryDir: b.Root(), Window: window},
			"missing history": {HistoryDir: filepath.Join(t.TempDir(), "none"), TargetDir: "/work/app", Window: window},
		}
		for name, req := range reqs {
			if _, err := svc.Run(context.Background(), req); !errors.Is(err, hr.ErrConfiguration) {
				t.Errorf("%s: Run() error = %v, want ErrConfiguration", name, err)
			}
		}
		if runs, _ := runLog.ListRuns(10); len(runs) != 0 {
			t.Errorf("runs recorded for failed pre-flight: %+v", runs)
		}
	})

	t.Run("history lists newest first", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t, sink.NewMemorySink("out"))
		req := hr.RestoreRequest{HistoryDir: b.Root(), TargetDir: "/work/app", Window: window, DryRun: true}
		for range 3 {
			if _, err := svc.Run(context.Background(), req); err != nil {
				t.Fatalf("Run() error = %v", err)
			}
		}

		runs, err := svc.History(2)
		if err != nil {
			t.Fatalf("History() error = %v", err)
		}
		if len(runs) != 2 || runs[0].RunID != "run-3" || runs[1].RunID != "run-2" {
			t.Errorf("History() = %+v", runs)
		}
	})
}
