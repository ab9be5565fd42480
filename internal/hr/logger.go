package hr

// Logger is what the scanner, restorer and service log through. Args are
// slog-style key/value pairs; the app layer backs it with a slog handler
// that stamps every line with the run ID.
//
// Per-folder and per-file problems go to Warn, fatal pre-flight failures
// to Error, skipped-but-expected items such as unresolvable locators to
// Debug.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type discardLogger struct{}

func (discardLogger) Debug(string, ...any) {}
func (discardLogger) Info(string, ...any)  {}
func (discardLogger) Warn(string, ...any)  {}
func (discardLogger) Error(string, ...any) {}

// Discard drops every line.
var Discard Logger = discardLogger{}

// orDiscard lets constructors accept a nil Logger.
func orDiscard(l Logger) Logger {
	if l == nil {
		return Discard
	}
	return l
}
