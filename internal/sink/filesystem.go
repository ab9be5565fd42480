package sink

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"hrestore/internal/hr"
)

// FileSystemSink writes restored files below a root directory, mirroring
// their relative paths:
//
//	<root>/
//	  src/
//	    main.py
//	  README.md
type FileSystemSink struct {
	root string
}

// NewFileSystemSink creates a sink rooted at root. The directory is created
// by the first Put, so a sink that never receives a file leaves no trace.
// An existing root must be a directory.
func NewFileSystemSink(root string) (*FileSystemSink, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: resolving output directory: %v", hr.ErrConfiguration, err)
	}
	info, err := os.Stat(abs)
	switch {
	case err == nil && !info.IsDir():
		return nil, fmt.Errorf("%w: output path is not a directory: %s", hr.ErrConfiguration, abs)
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("%w: output directory not accessible: %v", hr.ErrConfiguration, err)
	}
	return &FileSystemSink{root: abs}, nil
}

// Root returns the absolute output directory.
func (s *FileSystemSink) Root() string {
	return s.root
}

// Describe returns the output directory.
func (s *FileSystemSink) Describe() string {
	return s.root
}

// Put writes r to <root>/<relativePath>, creating parent directories and
// replacing any existing file. The modification time is set to modTime when
// it is non-zero.
func (s *FileSystemSink) Put(relativePath string, r io.Reader, size int64, modTime time.Time) error {
	if err := hr.ValidateRelativePath(relativePath); err != nil {
		return err
	}
	destPath := filepath.Join(s.root, filepath.FromSlash(relativePath))

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}
	return writeFile(destPath, r, size, modTime)
}

// writeFile writes data from r to destPath using atomic write (temp file + rename),
// so a failed copy never leaves a truncated destination behind.
func writeFile(destPath string, r io.Reader, expectedSize int64, modTime time.Time) error {
	// Create temp file in the same directory to ensure atomic rename works
	dir := filepath.Dir(destPath)
	tmpFile, err := os.CreateTemp(dir, ".hrestore-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if expectedSize >= 0 && written != expectedSize {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", expectedSize, written)
	}

	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	if !modTime.IsZero() {
		if err := os.Chtimes(tmpPath, modTime, modTime); err != nil {
			return fmt.Errorf("setting file times: %w", err)
		}
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

// Compile-time check that FileSystemSink implements hr.Sink interface
var _ hr.Sink = (*FileSystemSink)(nil)
