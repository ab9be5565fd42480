package hr

import "time"

// Snapshot is one saved copy of a file inside a history folder.
type Snapshot struct {
	StoredName string // generated file name inside the folder
	Timestamp  time.Time
}

// FolderRecord describes one history folder: the original file it backs up
// and the snapshots stored for it. Records are built by Store.Records and
// never mutated afterwards.
type FolderRecord struct {
	FolderID     string
	Dir          string // absolute folder path on disk
	Resource     string // raw locator from the descriptor
	OriginalPath string // Canonical(Resource); empty when unresolvable
	Snapshots    []Snapshot
}

// SelectedFile is the snapshot chosen for one original file.
type SelectedFile struct {
	FolderID     string
	RelativePath string // forward slashes, relative to the target directory
	SourcePath   string // snapshot file on disk
	SnapshotTime time.Time
}
