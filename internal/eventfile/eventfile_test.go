package eventfile

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/sadopc/calendr/internal/calendar"
)

func clock(h, m, s int) *calendar.Clock {
	return &calendar.Clock{Hour: h, Minute: m, Second: s}
}

func june(d int) calendar.Date {
	return calendar.Date{Year: 2024, Month: time.June, Day: d}
}

func sampleStore() *calendar.Store {
	s := calendar.NewStore()
	s.Add(calendar.NewEvent(june(1), "Standup", "daily sync", "Work", calendar.DefaultColor, clock(9, 0, 0), calendar.RecurDaily))
	s.Add(calendar.NewEvent(june(1), "Lunch", "", "Personal", calendar.Color{R: 0xff, G: 0x88}, clock(12, 30, 0), calendar.RecurNone))
	s.Add(calendar.NewEvent(june(14), "Flag day", "", "Holiday", calendar.Color{B: 0xff}, clock(0, 0, 0), calendar.RecurMonthly))
	return s
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// fields reduces an event to its persisted fields for comparison.
func fields(e *calendar.Event) string {
	return strings.Join([]string{
		e.Date.String(), e.Title, e.Description, e.Category,
		e.Color.Hex(), e.Time.String(), string(e.Recurrence),
	}, "|")
}

// ============================================================
// Save
// ============================================================

func TestSaveFieldSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.json")
	if err := Save(path, sampleStore().All()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var raw []map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(raw) != 3 {
		t.Fatalf("expected 3 records, got %d", len(raw))
	}

	want := []string{"date", "title", "description", "category", "color", "time", "recurrence"}
	for i, rec := range raw {
		if len(rec) != len(want) {
			t.Fatalf("record %d has %d fields, want %d: %v", i, len(rec), len(want), rec)
		}
		for _, k := range want {
			if _, ok := rec[k].(string); !ok {
				t.Fatalf("record %d field %q missing or not a string", i, k)
			}
		}
	}

	first := raw[0]
	if first["date"] != "2024-06-01" || first["time"] != "09:00:00" || first["color"] != "#00ff00" {
		t.Fatalf("unexpected encoding: %v", first)
	}
	if first["recurrence"] != "Daily" {
		t.Fatalf("recurrence = %v, want Daily", first["recurrence"])
	}
}

func TestSaveIndentation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pretty.json")
	if err := Save(path, sampleStore().All()); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "\n    {") {
		t.Fatal("records should be indented by 4 spaces")
	}
	if !strings.Contains(string(data), "\n        \"date\"") {
		t.Fatal("fields should be indented by 8 spaces")
	}
}

func TestSaveEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	if err := Save(path, calendar.NewStore().All()); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if strings.TrimSpace(string(data)) != "[]" {
		t.Fatalf("empty store should save as [], got %q", data)
	}
}

func TestSaveBadPath(t *testing.T) {
	err := Save("/nonexistent/dir/events.json", nil)
	if err == nil {
		t.Fatal("expected error for bad path")
	}
	if !errors.Is(err, ErrWrite) {
		t.Fatalf("expected ErrWrite, got %v", err)
	}
}

func TestSaveOverwritesAndLeavesNoTemp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "events.json")
	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Save(path, sampleStore().All()); err != nil {
		t.Fatal(err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("expected only the target file, found %d entries", len(entries))
	}
	data, _ := os.ReadFile(path)
	if string(data) == "old" {
		t.Fatal("file should have been replaced")
	}
}

func TestSaveKeepsSpecialCharacters(t *testing.T) {
	s := calendar.NewStore()
	s.Add(calendar.NewEvent(june(1), `<b>"quoted" & co</b>`, "line1\nline2", "Work", calendar.DefaultColor, clock(9, 0, 0), ""))
	path := filepath.Join(t.TempDir(), "special.json")
	if err := Save(path, s.All()); err != nil {
		t.Fatal(err)
	}
	events, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if events[0].Title != `<b>"quoted" & co</b>` || events[0].Description != "line1\nline2" {
		t.Fatalf("text mangled: %q / %q", events[0].Title, events[0].Description)
	}
}

// ============================================================
// Load
// ============================================================

func TestRoundTrip(t *testing.T) {
	src := sampleStore()
	path := filepath.Join(t.TempDir(), "events.json")
	if err := Save(path, src.All()); err != nil {
		t.Fatal(err)
	}

	events, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	dst := calendar.NewStore()
	dst.AddAll(events)

	if dst.Len() != src.Len() {
		t.Fatalf("Len = %d, want %d", dst.Len(), src.Len())
	}
	for _, d := range src.Dates() {
		want := src.ListFor(d)
		got := dst.ListFor(d)
		if len(got) != len(want) {
			t.Fatalf("%s: %d events, want %d", d, len(got), len(want))
		}
		for i := range want {
			if fields(got[i]) != fields(want[i]) {
				t.Fatalf("%s[%d] = %s, want %s", d, i, fields(got[i]), fields(want[i]))
			}
		}
	}
}

func TestLoadStandupExample(t *testing.T) {
	s := calendar.NewStore()
	s.Add(calendar.NewEvent(june(1), "Standup", "", "Work", calendar.DefaultColor, clock(9, 0, 0), ""))
	path := filepath.Join(t.TempDir(), "x.json")
	if err := Save(path, s.All()); err != nil {
		t.Fatal(err)
	}

	events, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	fresh := calendar.NewStore()
	fresh.AddAll(events)

	got := fresh.ListFor(june(1))
	if len(got) != 1 || got[0].Title != "Standup" {
		t.Fatalf("expected one Standup event, got %d", len(got))
	}
}

func TestLoadIsAdditive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.json")
	if err := Save(path, sampleStore().All()); err != nil {
		t.Fatal(err)
	}

	s := calendar.NewStore()
	s.Add(calendar.NewEvent(june(2), "existing", "", "Work", calendar.DefaultColor, clock(8, 0, 0), ""))

	for i := 0; i < 2; i++ {
		events, err := Load(path)
		if err != nil {
			t.Fatal(err)
		}
		s.AddAll(events)
	}

	// Repeated loads duplicate entries; this is the expected behavior.
	if s.Len() != 1+2*3 {
		t.Fatalf("Len = %d, want 7", s.Len())
	}
	if n := len(s.ListFor(june(1))); n != 4 {
		t.Fatalf("June 1 has %d events, want 4", n)
	}
	if n := len(s.ListFor(june(2))); n != 1 {
		t.Fatalf("existing event should be untouched, got %d", n)
	}
}

func TestLoadDuplicatesGetDistinctIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.json")
	Save(path, sampleStore().All())

	a, _ := Load(path)
	b, _ := Load(path)
	if a[0].ID == b[0].ID {
		t.Fatal("each load should mint fresh IDs")
	}
}

func TestLoadMissingRecurrenceDefaultsToNone(t *testing.T) {
	path := writeFile(t, "legacy.json", `[
		{"date": "2024-06-01", "title": "x", "description": "", "category": "Work", "color": "#00ff00", "time": "09:00:00"}
	]`)
	events, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if events[0].Recurrence != calendar.RecurNone {
		t.Fatalf("Recurrence = %q, want None", events[0].Recurrence)
	}
}

func TestLoadMissingTimeDefaultsToNow(t *testing.T) {
	path := writeFile(t, "notime.json", `[
		{"date": "2024-06-01", "title": "x", "description": "", "category": "Work", "color": "#00ff00"}
	]`)
	before := calendar.Now()
	events, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	after := calendar.Now()
	got := events[0].Time
	if got != before && got != after {
		t.Fatalf("Time = %s, want the load moment", got)
	}
}

func TestLoadAcceptsShortTimeAndUppercaseColor(t *testing.T) {
	path := writeFile(t, "short.json", `[
		{"date": "2024-06-01", "title": "x", "description": "", "category": "Work", "color": "#FF0000", "time": "09:30"}
	]`)
	events, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if events[0].Time != (calendar.Clock{Hour: 9, Minute: 30}) {
		t.Fatalf("Time = %s, want 09:30:00", events[0].Time)
	}
	if events[0].Color.Hex() != "#ff0000" {
		t.Fatalf("Color = %s, want #ff0000", events[0].Color.Hex())
	}
}

func TestLoadIgnoresUnknownFields(t *testing.T) {
	path := writeFile(t, "extra.json", `[
		{"date": "2024-06-01", "title": "x", "description": "", "category": "Work",
		 "color": "#00ff00", "time": "09:00:00", "recurrence": "None", "location": "HQ", "priority": 3}
	]`)
	events, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
}

func TestLoadKeepsUnknownLabels(t *testing.T) {
	path := writeFile(t, "labels.json", `[
		{"date": "2024-06-01", "title": "x", "description": "", "category": "Gym",
		 "color": "#00ff00", "time": "09:00:00", "recurrence": "Yearly"}
	]`)
	events, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if events[0].Category != "Gym" || events[0].Recurrence != "Yearly" {
		t.Fatalf("labels should be stored as-is: %q / %q", events[0].Category, events[0].Recurrence)
	}
}

func TestLoadEmptyArray(t *testing.T) {
	events, err := Load(writeFile(t, "empty.json", "[]"))
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 0 {
		t.Fatalf("expected no events, got %d", len(events))
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if !errors.Is(err, ErrRead) {
		t.Fatalf("expected ErrRead, got %v", err)
	}
}

func TestLoadFailuresLeaveStoreUnchanged(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid json", `[{"date": "2024-06-01",`},
		{"not an array", `{"date": "2024-06-01"}`},
		{"null document", `null`},
		{"empty file", ``},
		{"trailing text", `[{"date": "2024-06-01", "title": "x", "description": "", "category": "Work", "color": "#00ff00"}] this is not json`},
		{"trailing brackets", `[] ]]]`},
		{"two arrays", `[] []`},
		{"missing title", `[
			{"date": "2024-06-01", "title": "ok", "description": "", "category": "Work", "color": "#00ff00"},
			{"date": "2024-06-02", "description": "", "category": "Work", "color": "#00ff00"}
		]`},
		{"missing color", `[{"date": "2024-06-01", "title": "x", "description": "", "category": "Work"}]`},
		{"null title", `[{"date": "2024-06-01", "title": null, "description": "", "category": "Work", "color": "#00ff00"}]`},
		{"bad date", `[{"date": "06/01/2024", "title": "x", "description": "", "category": "Work", "color": "#00ff00"}]`},
		{"bad color", `[{"date": "2024-06-01", "title": "x", "description": "", "category": "Work", "color": "green"}]`},
		{"bad time", `[{"date": "2024-06-01", "title": "x", "description": "", "category": "Work", "color": "#00ff00", "time": "9am"}]`},
		{"number field", `[{"date": "2024-06-01", "title": 7, "description": "", "category": "Work", "color": "#00ff00"}]`},
	}

	for _, tt := range tests {
		s := sampleStore()
		before := s.Len()

		events, err := Load(writeFile(t, "bad.json", tt.content))
		if err == nil {
			t.Fatalf("%s: expected error", tt.name)
		}
		if !errors.Is(err, ErrMalformed) {
			t.Fatalf("%s: expected ErrMalformed, got %v", tt.name, err)
		}
		if events != nil {
			t.Fatalf("%s: no events should be returned on failure", tt.name)
		}
		s.AddAll(events)
		if s.Len() != before {
			t.Fatalf("%s: store changed from %d to %d", tt.name, before, s.Len())
		}
	}
}

// ============================================================
// CSV
// ============================================================

func TestToCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.csv")
	if err := ToCSV(sampleStore().All(), path); err != nil {
		t.Fatalf("ToCSV: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}

	if len(records) != 4 {
		t.Fatalf("expected 4 rows (1 header + 3 data), got %d", len(records))
	}
	for i, h := range csvHeader {
		if records[0][i] != h {
			t.Fatalf("header[%d] = %q, want %q", i, records[0][i], h)
		}
	}
	row := records[1]
	if row[1] != "2024-06-01" || row[2] != "09:00:00" || row[3] != "Standup" || row[6] != "Daily" {
		t.Fatalf("unexpected first row: %v", row)
	}
}

func TestToCSVEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	if err := ToCSV(nil, path); err != nil {
		t.Fatal(err)
	}
	f, _ := os.Open(path)
	defer f.Close()
	records, _ := csv.NewReader(f).ReadAll()
	if len(records) != 1 {
		t.Fatalf("expected header only, got %d rows", len(records))
	}
}

func TestToCSVBadPath(t *testing.T) {
	if err := ToCSV(nil, "/nonexistent/dir/file.csv"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

// ============================================================
// iCalendar
// ============================================================

func TestToICS(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.ics")
	if err := ToICS(sampleStore().All(), path); err != nil {
		t.Fatalf("ToICS: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cal, err := ical.ParseCalendar(f)
	if err != nil {
		t.Fatalf("exported file does not parse: %v", err)
	}

	events := cal.Events()
	if len(events) != 3 {
		t.Fatalf("expected 3 VEVENTs, got %d", len(events))
	}

	first := events[0]
	if p := first.GetProperty(ical.ComponentPropertySummary); p == nil || p.Value != "Standup" {
		t.Fatal("SUMMARY should be the title")
	}
	if p := first.GetProperty(ical.ComponentPropertyDtStart); p == nil || p.Value != "20240601T090000" {
		t.Fatalf("DTSTART = %v, want 20240601T090000", p)
	}
	if p := first.GetProperty(ical.ComponentPropertyRrule); p == nil || !strings.Contains(p.Value, "FREQ=DAILY") {
		t.Fatal("Daily recurrence should export an RRULE")
	}
	if p := first.GetProperty(ical.ComponentPropertyCategories); p == nil || p.Value != "Work" {
		t.Fatal("CATEGORIES should be the category")
	}

	lunch := events[1]
	if lunch.GetProperty(ical.ComponentPropertyRrule) != nil {
		t.Fatal("non-recurring event should have no RRULE")
	}
	if p := lunch.GetProperty(ical.ComponentPropertyDtEnd); p == nil || p.Value != "20240601T133000" {
		t.Fatalf("DTEND = %v, want one hour after start", p)
	}

	if p := events[2].GetProperty(ical.ComponentPropertyRrule); p == nil || !strings.Contains(p.Value, "FREQ=MONTHLY") {
		t.Fatal("Monthly recurrence should export FREQ=MONTHLY")
	}
}

func TestBuildICSUIDsUnique(t *testing.T) {
	cal := BuildICS(sampleStore().All(), time.Now())
	seen := make(map[string]bool)
	for _, ve := range cal.Events() {
		uid := ve.GetProperty(ical.ComponentPropertyUniqueId).Value
		if seen[uid] {
			t.Fatalf("duplicate UID %q", uid)
		}
		seen[uid] = true
	}
}

func TestToICSBadPath(t *testing.T) {
	if err := ToICS(nil, "/nonexistent/dir/file.ics"); err == nil {
		t.Fatal("expected error for bad path")
	}
}
