package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// logFileName is the log file inside log_dir.
const logFileName = "hrestore.log"

// logTarget is a writer with its own minimum level.
type logTarget struct {
	w     io.Writer
	level slog.Level
}

// hrHandler is a custom slog.Handler that formats log records as:
//
//	<timestamp>\t<level>\t<runID>\t<message>\t<key=value ...>
//
// and writes each line to every target whose level it meets.
type hrHandler struct {
	targets []logTarget
	runID   string
	attrs   []slog.Attr
}

func (h *hrHandler) Enabled(_ context.Context, level slog.Level) bool {
	for _, t := range h.targets {
		if level >= t.level {
			return true
		}
	}
	return false
}

func (h *hrHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s\t%s\t%s\t%s",
		r.Time.UTC().Format("2006-01-02T15:04:05Z"), r.Level.String(), h.runID, r.Message)

	for _, a := range h.attrs {
		writeAttr(&buf, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&buf, a)
		return true
	})
	buf.WriteByte('\n')

	var firstErr error
	for _, t := range h.targets {
		if r.Level < t.level {
			continue
		}
		if _, err := t.w.Write(buf.Bytes()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (h *hrHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &hrHandler{
		targets: h.targets,
		runID:   h.runID,
		attrs:   append(append([]slog.Attr{}, h.attrs...), attrs...),
	}
}

func (h *hrHandler) WithGroup(string) slog.Handler { return h }

// writeAttr appends "\tkey=value". Values containing whitespace are quoted
// so a line always splits cleanly on tabs.
func writeAttr(buf *bytes.Buffer, a slog.Attr) {
	v := a.Value.Resolve()
	var s string
	if v.Kind() == slog.KindTime {
		s = v.Time().UTC().Format(time.RFC3339)
	} else {
		s = v.String()
	}
	if strings.ContainsAny(s, " \t\r\n\"") {
		s = strconv.Quote(s)
	}
	fmt.Fprintf(buf, "\t%s=%s", a.Key, s)
}

// parseLevel maps a log_level config value to a slog.Level.
func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}

// newLogger creates a structured logger that writes to logDir/hrestore.log
// at level and to stderr. stderr only receives warnings and errors unless
// verbose is set, keeping the per-file lines out of the terminal.
// It returns the slog.Logger, the open log file (for cleanup), and any error.
func newLogger(logDir, runID string, level slog.Level, verbose bool) (*slog.Logger, *os.File, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}

	logPath := filepath.Join(logDir, logFileName)
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	stderrLevel := max(level, slog.LevelWarn)
	if verbose {
		stderrLevel = level
	}
	handler := &hrHandler{
		targets: []logTarget{{w: f, level: level}, {w: os.Stderr, level: stderrLevel}},
		runID:   runID,
	}
	return slog.New(handler), f, nil
}

// slogAdapter wraps *slog.Logger to satisfy the hr.Logger interface.
type slogAdapter struct {
	l *slog.Logger
}

func (a *slogAdapter) Debug(msg string, args ...any) { a.l.Debug(msg, args...) }
func (a *slogAdapter) Info(msg string, args ...any)  { a.l.Info(msg, args...) }
func (a *slogAdapter) Warn(msg string, args ...any)  { a.l.Warn(msg, args...) }
func (a *slogAdapter) Error(msg string, args ...any) { a.l.Error(msg, args...) }
