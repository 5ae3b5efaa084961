package eventfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sadopc/calendr/internal/calendar"
)

var (
	ErrRead      = errors.New("read events file")
	ErrMalformed = errors.New("malformed events file")
	ErrWrite     = errors.New("write events file")
)

const indent = "    "

// record is the on-disk form of one event. Pointers distinguish a missing
// field from an empty one.
type record struct {
	Date        *string `json:"date"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Color       *string `json:"color"`
	Time        *string `json:"time,omitempty"`
	Recurrence  *string `json:"recurrence,omitempty"`
}

func toRecord(e *calendar.Event) record {
	str := func(s string) *string { return &s }
	return record{
		Date:        str(e.Date.String()),
		Title:       str(e.Title),
		Description: str(e.Description),
		Category:    str(e.Category),
		Color:       str(e.Color.Hex()),
		Time:        str(e.Time.String()),
		Recurrence:  str(string(e.Recurrence)),
	}
}

func (r record) toEvent(loadedAt calendar.Clock) (*calendar.Event, error) {
	required := []struct {
		name  string
		value *string
	}{
		{"date", r.Date},
		{"title", r.Title},
		{"description", r.Description},
		{"category", r.Category},
		{"color", r.Color},
	}
	for _, f := range required {
		if f.value == nil {
			return nil, fmt.Errorf("missing field %q", f.name)
		}
	}

	date, err := calendar.ParseDate(*r.Date)
	if err != nil {
		return nil, err
	}
	color, err := calendar.ParseColor(*r.Color)
	if err != nil {
		return nil, err
	}
	clock := loadedAt
	if r.Time != nil {
		if clock, err = calendar.ParseClock(*r.Time); err != nil {
			return nil, err
		}
	}
	recurrence := calendar.RecurNone
	if r.Recurrence != nil {
		recurrence = calendar.Recurrence(*r.Recurrence)
	}

	return calendar.NewEvent(date, *r.Title, *r.Description, *r.Category, color, &clock, recurrence), nil
}

// Encode writes events as a pretty-printed JSON array.
func Encode(w io.Writer, events []*calendar.Event) error {
	records := make([]record, 0, len(events))
	for _, e := range events {
		records = append(records, toRecord(e))
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", indent)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode events: %w", err)
	}
	return nil
}

// Decode reads a JSON array of events. Either every record converts or
// nothing is returned.
func Decode(r io.Reader) ([]*calendar.Event, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRead, err)
	}
	// The whole input must be one array; null and trailing data are rejected.
	if trimmed := bytes.TrimSpace(data); len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: top-level value is not a JSON array", ErrMalformed)
	}
	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	loadedAt := calendar.Now()
	events := make([]*calendar.Event, 0, len(records))
	for i, rec := range records {
		e, err := rec.toEvent(loadedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrMalformed, i, err)
		}
		events = append(events, e)
	}
	return events, nil
}

// Save writes events to path through a temporary file in the same
// directory, so an existing file survives a failed write.
func Save(path string, events []*calendar.Event) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".calendr-*.json.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := Encode(tmp, events); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return nil
}

// Load reads the events stored at path. The caller adds them to a store;
// loading never clears what is already there.
func Load(path string) ([]*calendar.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRead, err)
	}
	defer f.Close()
	return Decode(f)
}
