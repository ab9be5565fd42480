package hr

import (
	"fmt"
	"strings"
	"time"
)

// DefaultDaysBack is the window length used when no start time is given.
const DefaultDaysBack = 7

// timeLayouts are the accepted forms for explicit window bounds, tried in order.
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Window is an inclusive time range [Start, End].
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow returns the window [start, end]. A start after end is allowed and
// produces an empty window.
func NewWindow(start, end time.Time) Window {
	return Window{Start: start, End: end}
}

// DefaultWindow returns [now - days, now]. days <= 0 means DefaultDaysBack.
func DefaultWindow(now time.Time, days int) Window {
	if days <= 0 {
		days = DefaultDaysBack
	}
	return Window{Start: now.AddDate(0, 0, -days), End: now}
}

// Contains reports whether t lies within the window, bounds included.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Empty reports whether no instant can satisfy the window.
func (w Window) Empty() bool {
	return w.Start.After(w.End)
}

func (w Window) String() string {
	return fmt.Sprintf("%s .. %s", w.Start.Format(time.DateTime), w.End.Format(time.DateTime))
}

// ResolveWindow builds the window from optional explicit bounds. A missing
// end means now; a missing start means end minus daysBack days. Bounds without
// a zone are read in loc. Unparseable bounds wrap ErrConfiguration.
func ResolveWindow(start, end string, daysBack int, now time.Time, loc *time.Location) (Window, error) {
	if loc == nil {
		loc = time.Local
	}

	endTime := now
	if strings.TrimSpace(end) != "" {
		t, err := ParseTime(end, loc)
		if err != nil {
			return Window{}, fmt.Errorf("%w: end time: %v", ErrConfiguration, err)
		}
		endTime = t
	}

	if strings.TrimSpace(start) == "" {
		return DefaultWindow(endTime, daysBack), nil
	}
	startTime, err := ParseTime(start, loc)
	if err != nil {
		return Window{}, fmt.Errorf("%w: start time: %v", ErrConfiguration, err)
	}
	return NewWindow(startTime, endTime), nil
}

// ParseTime parses an RFC 3339 timestamp or one of the local layouts
// ("2006-01-02 15:04:05", "2006-01-02T15:04:05", "2006-01-02 15:04", "2006-01-02").
func ParseTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q (want YYYY-MM-DD HH:MM:SS)", s)
}
