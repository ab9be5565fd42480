package hr

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// DescriptorFileName is the metadata file inside every history folder.
const DescriptorFileName = "entries.json"

// Descriptor is the parsed form of a folder's entries.json:
//
//	{"version":1,"resource":"file:///c%3A/proj/main.py",
//	 "entries":[{"id":"AbC1.py","source":"undoRedo.source","timestamp":1722333600000}]}
type Descriptor struct {
	Version  int64
	Resource string
	Entries  []DescriptorEntry
}

// DescriptorEntry is one snapshot listed in a descriptor.
type DescriptorEntry struct {
	ID        string
	Source    string
	Timestamp time.Time
}

// ParseDescriptor parses entries.json content. The document must be valid
// JSON with a non-empty string "resource" and an "entries" array. Individual
// entries without a string id or a usable timestamp are dropped; if none
// remain the descriptor is rejected. All rejections wrap ErrFolderCorrupt.
func ParseDescriptor(data []byte) (*Descriptor, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: invalid json", ErrFolderCorrupt)
	}

	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, fmt.Errorf("%w: descriptor is not an object", ErrFolderCorrupt)
	}

	resource := doc.Get("resource")
	if resource.Type != gjson.String || resource.Str == "" {
		return nil, fmt.Errorf("%w: missing resource", ErrFolderCorrupt)
	}

	entries := doc.Get("entries")
	if !entries.IsArray() {
		return nil, fmt.Errorf("%w: missing entries", ErrFolderCorrupt)
	}

	d := &Descriptor{
		Version:  doc.Get("version").Int(),
		Resource: resource.Str,
	}
	for _, e := range entries.Array() {
		id := e.Get("id")
		if id.Type != gjson.String || id.Str == "" {
			continue
		}
		ts, ok := parseEntryTimestamp(e.Get("timestamp"))
		if !ok {
			continue
		}
		d.Entries = append(d.Entries, DescriptorEntry{
			ID:        id.Str,
			Source:    e.Get("source").String(),
			Timestamp: ts,
		})
	}

	if len(d.Entries) == 0 {
		return nil, fmt.Errorf("%w: no usable entries", ErrFolderCorrupt)
	}
	return d, nil
}

// parseEntryTimestamp accepts epoch milliseconds as a JSON number or numeric
// string, or an ISO-8601 string with or without a zone offset.
func parseEntryTimestamp(v gjson.Result) (time.Time, bool) {
	switch v.Type {
	case gjson.Number:
		us := v.Num * 1000
		if v.Num <= 0 || us >= math.MaxInt64 {
			return time.Time{}, false
		}
		return time.UnixMicro(int64(us)), true
	case gjson.String:
		s := strings.TrimSpace(v.Str)
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			if ms <= 0 {
				return time.Time{}, false
			}
			return time.UnixMilli(ms), true
		}
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return t, true
		}
		if t, err := time.ParseInLocation("2006-01-02T15:04:05.999999999", s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
