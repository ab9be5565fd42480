package hr

import (
	"io"
	"time"
)

// Sink is where restored files are written.
type Sink interface {
	// Put stores the content read from r under relativePath (forward slashes).
	// size is the number of bytes that will be read from r, or -1 if unknown.
	// An existing entry is overwritten. A failed Put must not leave a partial
	// entry behind.
	Put(relativePath string, r io.Reader, size int64, modTime time.Time) error

	// Describe returns a human-readable location for logs and summaries.
	Describe() string
}
