package hr

import (
	"iter"
	"path/filepath"
)

// Select yields, for every record whose original path lies under targetDir,
// the newest snapshot whose timestamp falls inside w. Records with no
// snapshot in the window produce nothing; that is the normal "no activity"
// outcome, not an error. When two snapshots share the newest timestamp the
// one listed last in the descriptor wins.
//
// Output order follows the input but callers must not depend on it.
func Select(records iter.Seq[*FolderRecord], targetDir string, w Window) iter.Seq[SelectedFile] {
	return func(yield func(SelectedFile) bool) {
		if w.Empty() || Normalize(targetDir) == "" {
			return
		}
		for rec := range records {
			sel, ok := selectOne(rec, targetDir, w)
			if !ok {
				continue
			}
			if !yield(sel) {
				return
			}
		}
	}
}

func selectOne(rec *FolderRecord, targetDir string, w Window) (SelectedFile, bool) {
	if rec == nil || rec.OriginalPath == "" {
		return SelectedFile{}, false
	}
	rel, ok := RelativeTo(rec.OriginalPath, targetDir)
	if !ok || rel == "" {
		return SelectedFile{}, false
	}

	best := -1
	for i, snap := range rec.Snapshots {
		if !w.Contains(snap.Timestamp) {
			continue
		}
		if best < 0 || !snap.Timestamp.Before(rec.Snapshots[best].Timestamp) {
			best = i
		}
	}
	if best < 0 {
		return SelectedFile{}, false
	}

	chosen := rec.Snapshots[best]
	return SelectedFile{
		FolderID:     rec.FolderID,
		RelativePath: rel,
		SourcePath:   filepath.Join(rec.Dir, chosen.StoredName),
		SnapshotTime: chosen.Timestamp,
	}, true
}
