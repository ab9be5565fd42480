package testutil

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// FileURL returns the file:// locator the editor records for an absolute
// path, percent-encoding what needs it.
func FileURL(p string) string {
	p = filepath.ToSlash(p)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return (&url.URL{Scheme: "file", Path: p}).String()
}

// HistoryStoreBuilder lays out an editor history root in a temp directory:
// one folder per tracked file with an entries.json and its snapshot files.
type HistoryStoreBuilder struct {
	t    *testing.T
	root string
	n    int
}

// NewHistoryStore creates an empty history root under t.TempDir().
func NewHistoryStore(t *testing.T) *HistoryStoreBuilder {
	t.Helper()
	root := filepath.Join(t.TempDir(), "History")
	if err := os.MkdirAll(root, 0755); err != nil {
		t.Fatalf("creating history root: %v", err)
	}
	return &HistoryStoreBuilder{t: t, root: root}
}

// Root returns the history root directory.
func (b *HistoryStoreBuilder) Root() string {
	return b.root
}

// SnapshotFile is one entry to write into a folder.
type SnapshotFile struct {
	ID      string // stored file name; generated when empty
	Time    time.Time
	Content string
	Missing bool // list in the descriptor but do not write the file
}

// Folder writes a history folder for resource with the given snapshots, in
// descriptor order, and returns the folder path. Timestamps are written as
// epoch milliseconds.
func (b *HistoryStoreBuilder) Folder(resource string, snaps ...SnapshotFile) string {
	b.t.Helper()
	b.n++
	id := fmt.Sprintf("f%04d", b.n)

	type entry struct {
		ID        string `json:"id"`
		Source    string `json:"source"`
		Timestamp int64  `json:"timestamp"`
	}
	doc := struct {
		Version  int     `json:"version"`
		Resource string  `json:"resource"`
		Entries  []entry `json:"entries"`
	}{Version: 1, Resource: resource}

	dir := filepath.Join(b.root, id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		b.t.Fatalf("creating folder: %v", err)
	}
	for i, s := range snaps {
		name := s.ID
		if name == "" {
			name = fmt.Sprintf("s%02d%s", i, filepath.Ext(resource))
		}
		doc.Entries = append(doc.Entries, entry{ID: name, Source: "undoRedo.source", Timestamp: s.Time.UnixMilli()})
		if s.Missing {
			continue
		}
		if err := os.WriteFile(filepath.Join(dir, name), []byte(s.Content), 0644); err != nil {
			b.t.Fatalf("writing snapshot: %v", err)
		}
	}

	data, err := json.Marshal(doc)
	if err != nil {
		b.t.Fatalf("encoding descriptor: %v", err)
	}
	b.RawFolder(id, string(data))
	return dir
}

// RawFolder writes a folder whose entries.json holds exactly descriptor.
// An empty descriptor writes no entries.json at all.
func (b *HistoryStoreBuilder) RawFolder(id, descriptor string) string {
	b.t.Helper()
	dir := filepath.Join(b.root, id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		b.t.Fatalf("creating folder: %v", err)
	}
	if descriptor == "" {
		return dir
	}
	if err := os.WriteFile(filepath.Join(dir, "entries.json"), []byte(descriptor), 0644); err != nil {
		b.t.Fatalf("writing descriptor: %v", err)
	}
	return dir
}

// File writes a plain file at the history root.
func (b *HistoryStoreBuilder) File(name, content string) {
	b.t.Helper()
	if err := os.WriteFile(filepath.Join(b.root, name), []byte(content), 0644); err != nil {
		b.t.Fatalf("writing file: %v", err)
	}
}
