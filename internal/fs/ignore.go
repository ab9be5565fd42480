package fs

import (
	"bufio"
	"fmt"
	"os"
	"path"
	"strings"
)

type patternKind int

const (
	matchBase patternKind = iota // pattern has no '/': compared with the last segment
	matchPath                    // pattern has an inner '/': compared with the whole relative path
	matchDir                     // pattern ends in '/': any directory segment
)

type excludePattern struct {
	pattern string
	kind    patternKind
}

// ExcludeMatcher decides whether a restored relative path is excluded.
// Relative paths always use '/' separators.
//
//	*.log          any file named *.log, at any depth
//	build/*.o      relative path matched as a whole
//	node_modules/  anything below a directory named node_modules
type ExcludeMatcher struct {
	patterns []excludePattern
}

// NewExcludeMatcher parses raw pattern lines. Blank lines and lines starting
// with '#' are skipped, as are patterns path.Match would reject.
func NewExcludeMatcher(rawPatterns []string) *ExcludeMatcher {
	var patterns []excludePattern
	for _, raw := range rawPatterns {
		raw = strings.TrimSpace(raw)
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		raw = strings.TrimPrefix(raw, "/")

		p := excludePattern{pattern: raw, kind: matchBase}
		switch {
		case strings.HasSuffix(raw, "/"):
			p.pattern = strings.TrimSuffix(raw, "/")
			p.kind = matchDir
		case strings.Contains(raw, "/"):
			p.kind = matchPath
		}
		if p.pattern == "" {
			continue
		}
		if _, err := path.Match(p.pattern, ""); err != nil {
			continue
		}
		patterns = append(patterns, p)
	}
	return &ExcludeMatcher{patterns: patterns}
}

// Len returns the number of usable patterns.
func (m *ExcludeMatcher) Len() int { return len(m.patterns) }

// Match reports whether relativePath is excluded.
func (m *ExcludeMatcher) Match(relativePath string) bool {
	if relativePath == "" || len(m.patterns) == 0 {
		return false
	}

	segments := strings.Split(relativePath, "/")
	base := segments[len(segments)-1]
	dirs := segments[:len(segments)-1]

	for _, p := range m.patterns {
		switch p.kind {
		case matchBase:
			if ok, _ := path.Match(p.pattern, base); ok {
				return true
			}
		case matchPath:
			if ok, _ := path.Match(p.pattern, relativePath); ok {
				return true
			}
		case matchDir:
			for _, d := range dirs {
				if ok, _ := path.Match(p.pattern, d); ok {
					return true
				}
			}
		}
	}
	return false
}

// ReadPatternFile returns the raw lines of an exclude file, one pattern per
// line. Filtering of blanks and comments is left to NewExcludeMatcher.
func ReadPatternFile(name string) ([]string, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("opening exclude file: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading exclude file: %w", err)
	}
	return lines, nil
}
