package hr

import (
	"path"
	"strings"
)

// Canonical converts a raw path or resource locator into a slash-separated,
// percent-decoded, cleaned path while preserving the original casing.
// It accepts file:// URIs (with an optional leading slash before a drive
// letter), other scheme://authority/path locators, Windows and POSIX
// separators, and trailing separators. Malformed percent escapes are kept
// verbatim. An empty result means the locator carried no usable path.
func Canonical(raw string) string {
	s := stripScheme(raw)
	s = percentDecode(s)
	s = strings.ReplaceAll(s, `\`, "/")
	s = trimDriveSlash(s)
	if s == "" {
		return ""
	}

	unc := strings.HasPrefix(s, "//")
	s = path.Clean(s)
	if unc {
		s = "/" + s
	}
	return s
}

// Normalize returns the comparison key for a path: the canonical form,
// lower-cased. Two strings naming the same location compare equal after
// Normalize regardless of encoding, separators, drive-letter case or a
// trailing separator.
func Normalize(raw string) string {
	return strings.ToLower(Canonical(raw))
}

// IsUnder reports whether candidate is targetDir itself or lies inside it.
// The match respects path boundaries: "/a/bc" is not under "/a/b".
func IsUnder(candidate, targetDir string) bool {
	c := Normalize(candidate)
	t := Normalize(targetDir)
	if c == "" || t == "" {
		return false
	}
	if c == t {
		return true
	}
	if strings.HasSuffix(t, "/") {
		return strings.HasPrefix(c, t)
	}
	return strings.HasPrefix(c, t+"/")
}

// RelativeTo returns candidate's path below targetDir using forward slashes,
// taken from the un-lowered canonical form so the original casing survives.
// ok is false when candidate is not under targetDir. When candidate equals
// targetDir the relative path is empty.
func RelativeTo(candidate, targetDir string) (rel string, ok bool) {
	if !IsUnder(candidate, targetDir) {
		return "", false
	}

	// Normalize only changes case, so both forms split into the same segments.
	prefix := strings.Split(strings.TrimSuffix(Normalize(targetDir), "/"), "/")
	segments := strings.Split(Canonical(candidate), "/")
	if len(segments) <= len(prefix) {
		return "", true
	}
	return strings.TrimLeft(strings.Join(segments[len(prefix):], "/"), "/"), true
}

// stripScheme removes a scheme://authority prefix. For file URIs the authority
// is kept as a UNC host unless it is empty or "localhost"; for any other
// scheme the authority is dropped and only the path remains.
func stripScheme(raw string) string {
	i := strings.Index(raw, "://")
	if i < 2 || !isScheme(raw[:i]) {
		// i < 2 keeps "C://dir" from being read as a scheme.
		return raw
	}
	scheme, rest := raw[:i], raw[i+3:]

	if !strings.EqualFold(scheme, "file") {
		if j := strings.IndexByte(rest, '/'); j >= 0 {
			return rest[j:]
		}
		return ""
	}

	if strings.HasPrefix(rest, "/") {
		return rest
	}
	if host, after, found := strings.Cut(rest, "/"); found && strings.EqualFold(host, "localhost") {
		return "/" + after
	}
	if rest == "" {
		return ""
	}
	return "//" + rest
}

func isScheme(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case isLetter(c):
		case i > 0 && (c >= '0' && c <= '9' || c == '+' || c == '-' || c == '.'):
		default:
			return false
		}
	}
	return true
}

// percentDecode decodes %XX escapes. Unlike url.PathUnescape it never fails:
// a '%' that does not start a valid escape is copied through unchanged, and
// '+' is left alone since locators are paths, not query strings.
func percentDecode(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) {
			hi, okHi := unhex(s[i+1])
			lo, okLo := unhex(s[i+2])
			if okHi && okLo {
				b.WriteByte(hi<<4 | lo)
				i += 2
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// trimDriveSlash turns "/c:/dir" (the path part of file:///c:/dir) into "c:/dir".
func trimDriveSlash(s string) string {
	if len(s) >= 3 && s[0] == '/' && isLetter(s[1]) && s[2] == ':' {
		return s[1:]
	}
	return s
}

func unhex(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

func isLetter(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
