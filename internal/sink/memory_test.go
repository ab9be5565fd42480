package sink

import (
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"hrestore/internal/hr"
)

func TestMemorySink(t *testing.T) {
	t.Parallel()

	m := NewMemorySink("t")
	ts := time.Date(2024, 7, 31, 10, 0, 0, 0, time.UTC)
	for _, p := range []string{"b.txt", "a/c.txt", "a/b.txt"} {
		if err := m.Put(p, strings.NewReader(p), int64(len(p)), ts); err != nil {
			t.Fatalf("Put(%q) error = %v", p, err)
		}
	}
	if err := m.Put("b.txt", strings.NewReader("new"), 3, ts); err != nil {
		t.Fatalf("Put() overwrite error = %v", err)
	}

	if got := m.Paths(); !slices.Equal(got, []string{"a/b.txt", "a/c.txt", "b.txt"}) {
		t.Errorf("Paths() = %v", got)
	}
	if got, _ := m.Get("b.txt"); string(got) != "new" {
		t.Errorf("Get(b.txt) = %q, want new", got)
	}
	if err := m.Put("x", strings.NewReader("abc"), 2, ts); err == nil {
		t.Error("Put() expected size mismatch error")
	}
	if err := m.Put("../x", strings.NewReader(""), 0, ts); !errors.Is(err, hr.ErrInvalidPath) {
		t.Errorf("Put(../x) error = %v, want ErrInvalidPath", err)
	}
}
