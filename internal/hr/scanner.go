package hr

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
)

// scanBatchSize bounds how many directory entries are held at once.
const scanBatchSize = 256

// ScanStats counts what the most recent pass over a store saw.
type ScanStats struct {
	Folders int // immediate subdirectories visited
	Skipped int // folders dropped because their descriptor was unusable

	// Unresolved counts folders whose resource locator decoded to no path.
	Unresolved int
}

// Store is an editor history root: one subdirectory per tracked file, each
// holding an entries.json descriptor and the snapshot files it lists.
// The store is only ever read.
type Store struct {
	root   string
	logger Logger
	stats  ScanStats
}

// OpenStore validates that root is a readable directory. Failures wrap
// ErrConfiguration since nothing can be scanned without a root.
func OpenStore(root string, logger Logger) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("%w: history directory not set", ErrConfiguration)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: resolving history directory: %v", ErrConfiguration, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: history directory not accessible: %v", ErrConfiguration, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: history path is not a directory: %s", ErrConfiguration, abs)
	}
	f, err := os.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: history directory not readable: %v", ErrConfiguration, err)
	}
	f.Close()

	return &Store{root: abs, logger: orDiscard(logger)}, nil
}

// Root returns the absolute history root.
func (s *Store) Root() string {
	return s.root
}

// Stats returns the counters of the last (or current) Records pass.
func (s *Store) Stats() ScanStats {
	return s.stats
}

// Records lazily yields one record per history folder with a usable
// descriptor. Folders that cannot be loaded are logged and skipped; the
// scan never stops because of one bad folder. Each call starts a fresh
// pass over the root and resets Stats.
func (s *Store) Records() iter.Seq[*FolderRecord] {
	return func(yield func(*FolderRecord) bool) {
		s.stats = ScanStats{}

		dir, err := os.Open(s.root)
		if err != nil {
			s.logger.Error("opening history directory", "path", s.root, "error", err)
			return
		}
		defer dir.Close()

		for {
			entries, err := dir.ReadDir(scanBatchSize)
			for _, entry := range entries {
				if !isDirOrSymlink(entry, s.root) {
					continue
				}
				s.stats.Folders++

				rec, loadErr := LoadFolder(filepath.Join(s.root, entry.Name()))
				if loadErr != nil {
					s.stats.Skipped++
					s.logger.Warn("skipping history folder", "folder", entry.Name(), "error", loadErr)
					continue
				}
				if rec.OriginalPath == "" {
					s.stats.Unresolved++
					s.logger.Debug("dropping history folder", "folder", entry.Name(),
						"error", fmt.Errorf("%w: %q", ErrPathUnresolvable, rec.Resource))
					continue
				}
				if !yield(rec) {
					return
				}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					s.logger.Error("reading history directory", "path", s.root, "error", err)
				}
				return
			}
		}
	}
}

// LoadFolder reads and parses one history folder. Errors wrap ErrFolderCorrupt.
func LoadFolder(dir string) (*FolderRecord, error) {
	data, err := os.ReadFile(filepath.Join(dir, DescriptorFileName))
	if err != nil {
		return nil, fmt.Errorf("%w: reading descriptor: %v", ErrFolderCorrupt, err)
	}

	d, err := ParseDescriptor(data)
	if err != nil {
		return nil, err
	}

	rec := &FolderRecord{
		FolderID:     filepath.Base(dir),
		Dir:          dir,
		Resource:     d.Resource,
		OriginalPath: Canonical(d.Resource),
		Snapshots:    make([]Snapshot, len(d.Entries)),
	}
	for i, e := range d.Entries {
		rec.Snapshots[i] = Snapshot{StoredName: e.ID, Timestamp: e.Timestamp}
	}
	return rec, nil
}

// isDirOrSymlink reports whether the entry is a directory or a symlink that
// resolves to one.
func isDirOrSymlink(entry os.DirEntry, parentDir string) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Type()&os.ModeSymlink == 0 {
		return false
	}
	fi, err := os.Stat(filepath.Join(parentDir, entry.Name()))
	return err == nil && fi.IsDir()
}
