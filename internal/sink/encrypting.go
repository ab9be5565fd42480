package sink

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"hrestore/internal/hr"
)

// EncryptedSuffix is appended to the names of encrypted restored files.
const EncryptedSuffix = ".age"

// EncryptingSink encrypts every file before handing it to the wrapped sink.
// Stored names gain EncryptedSuffix.
type EncryptingSink struct {
	inner hr.Sink
	enc   hr.Encryptor
}

// NewEncryptingSink wraps inner so content is encrypted with enc.
func NewEncryptingSink(inner hr.Sink, enc hr.Encryptor) *EncryptingSink {
	return &EncryptingSink{inner: inner, enc: enc}
}

// Describe returns the wrapped sink's location.
func (s *EncryptingSink) Describe() string {
	return s.inner.Describe() + " (encrypted)"
}

// Put encrypts r in memory and stores the ciphertext as relativePath+".age".
// size refers to the plaintext and is verified before anything is written.
func (s *EncryptingSink) Put(relativePath string, r io.Reader, size int64, modTime time.Time) error {
	counter := &countingReader{r: r}
	var buf bytes.Buffer
	if err := s.enc.Encrypt(counter, &buf); err != nil {
		return fmt.Errorf("encrypting %s: %w", relativePath, err)
	}
	if size >= 0 && counter.n != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, counter.n)
	}
	return s.inner.Put(relativePath+EncryptedSuffix, &buf, int64(buf.Len()), modTime)
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

var _ hr.Sink = (*EncryptingSink)(nil)
