package fs

import (
	"errors"
	iofs "io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestNewExcludeMatcher(t *testing.T) {
	t.Run("skips blank lines, comments and bad patterns", func(t *testing.T) {
		t.Parallel()
		m := NewExcludeMatcher([]string{"", "  ", "# comment", "*.log", "[", "/"})
		if m.Len() != 1 {
			t.Fatalf("Len() = %d, want 1", m.Len())
		}
		if m.patterns[0].pattern != "*.log" {
			t.Errorf("pattern = %q, want *.log", m.patterns[0].pattern)
		}
	})

	t.Run("classifies patterns", func(t *testing.T) {
		t.Parallel()
		m := NewExcludeMatcher([]string{"*.log", "build/output", "node_modules/", "/dist/*"})
		want := []patternKind{matchBase, matchPath, matchDir, matchPath}
		for i, k := range want {
			if m.patterns[i].kind != k {
				t.Errorf("patterns[%d] (%q) kind = %d, want %d", i, m.patterns[i].pattern, m.patterns[i].kind, k)
			}
		}
		if m.patterns[3].pattern != "dist/*" {
			t.Errorf("leading slash not trimmed: %q", m.patterns[3].pattern)
		}
	})
}

func TestExcludeMatcher_Match(t *testing.T) {
	tests := []struct {
		name         string
		patterns     []string
		relativePath string
		want         bool
	}{
		{"basename glob at root", []string{"*.log"}, "app.log", true},
		{"basename glob in subdirectory", []string{"*.log"}, "sub/app.log", true},
		{"basename glob other extension", []string{"*.log"}, "app.txt", false},
		{"exact basename in subdirectory", []string{".DS_Store"}, "a/b/.DS_Store", true},
		{"path pattern exact", []string{"build/output"}, "build/output", true},
		{"path pattern wrong dir", []string{"build/output"}, "src/output", false},
		{"path glob", []string{"build/*.o"}, "build/main.o", true},
		{"path glob does not cross segments", []string{"build/*.o"}, "build/x/main.o", false},
		{"dir pattern at root", []string{"node_modules/"}, "node_modules/lodash/index.js", true},
		{"dir pattern nested", []string{"node_modules/"}, "web/node_modules/x.js", true},
		{"dir pattern is not a file name", []string{"node_modules/"}, "src/node_modules", false},
		{"dir pattern glob", []string{".venv*/"}, ".venv311/lib/site.py", true},
		{"question mark", []string{"?.txt"}, "a.txt", true},
		{"question mark one char only", []string{"?.txt"}, "ab.txt", false},
		{"character class", []string{"*.[oa]"}, "main.o", true},
		{"no patterns", nil, "anything.txt", false},
		{"empty path", []string{"*"}, "", false},
		{"second pattern matches", []string{"*.log", "*.tmp"}, "data.tmp", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := NewExcludeMatcher(tt.patterns)
			if got := m.Match(tt.relativePath); got != tt.want {
				t.Errorf("Match(%q) = %v, want %v", tt.relativePath, got, tt.want)
			}
		})
	}
}

func TestReadPatternFile(t *testing.T) {
	t.Run("reads raw lines", func(t *testing.T) {
		t.Parallel()
		name := filepath.Join(t.TempDir(), "exclude.txt")
		content := "*.log\n# comment\n\n*.tmp\nbuild/\n"
		if err := os.WriteFile(name, []byte(content), 0644); err != nil {
			t.Fatalf("writing test file: %v", err)
		}

		lines, err := ReadPatternFile(name)
		if err != nil {
			t.Fatalf("ReadPatternFile() error = %v", err)
		}
		if len(lines) != 5 {
			t.Fatalf("got %d lines, want 5", len(lines))
		}
		if m := NewExcludeMatcher(lines); m.Len() != 3 {
			t.Errorf("Len() = %d, want 3", m.Len())
		}
	})

	t.Run("missing file is an error", func(t *testing.T) {
		t.Parallel()
		_, err := ReadPatternFile(filepath.Join(t.TempDir(), "missing"))
		if !errors.Is(err, iofs.ErrNotExist) {
			t.Errorf("error = %v, want ErrNotExist", err)
		}
	})
}
