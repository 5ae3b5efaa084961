package prefs

import (
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// ============================================================
// Store initialization
// ============================================================

func TestNewMemory(t *testing.T) {
	s, err := NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	var version int
	s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if version != 1 {
		t.Fatalf("expected user_version 1, got %d", version)
	}
}

func TestNewWithPath(t *testing.T) {
	path := t.TempDir() + "/sub/calendr.db"
	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SetSetting(KeyWeekStart, "sunday"); err != nil {
		t.Fatal(err)
	}
	s.Close()

	// Reopen: should not re-migrate or reset settings.
	s2, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	if v := s2.Setting(KeyWeekStart, ""); v != "sunday" {
		t.Fatalf("week_start = %q after reopen, want sunday", v)
	}
}

func TestDefaultDBPath(t *testing.T) {
	path, err := DefaultDBPath()
	if err != nil {
		t.Fatal(err)
	}
	if path == "" {
		t.Fatal("empty path")
	}
}

func TestMigrationIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.migrate(); err != nil {
		t.Fatalf("second migration failed: %v", err)
	}
}

// ============================================================
// Settings
// ============================================================

func TestDefaultSettings(t *testing.T) {
	s := newTestStore(t)
	want := map[string]string{
		KeyDefaultCategory:   "Work",
		KeyDefaultColor:      "#00ff00",
		KeyDefaultRecurrence: "None",
		KeyWeekStart:         "monday",
		KeyCellEvents:        "3",
	}
	for k, v := range want {
		got, err := s.GetSetting(k)
		if err != nil {
			t.Fatalf("GetSetting(%q): %v", k, err)
		}
		if got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
	}
}

func TestSetSettingUpsert(t *testing.T) {
	s := newTestStore(t)
	if err := s.SetSetting(KeyDefaultCategory, "Personal"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetSetting("custom", "x"); err != nil {
		t.Fatal(err)
	}
	if v, _ := s.GetSetting(KeyDefaultCategory); v != "Personal" {
		t.Fatalf("default_category = %q, want Personal", v)
	}
	if v, _ := s.GetSetting("custom"); v != "x" {
		t.Fatalf("custom = %q, want x", v)
	}
}

func TestGetSettingMissing(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetSetting("nope"); err == nil {
		t.Fatal("expected error for missing setting")
	}
	if v := s.Setting("nope", "fallback"); v != "fallback" {
		t.Fatalf("Setting fallback = %q", v)
	}
}

func TestGetAllSettingsSorted(t *testing.T) {
	s := newTestStore(t)
	settings, err := s.GetAllSettings()
	if err != nil {
		t.Fatal(err)
	}
	if len(settings) != 5 {
		t.Fatalf("expected 5 settings, got %d", len(settings))
	}
	for i := 1; i < len(settings); i++ {
		if settings[i-1].Key > settings[i].Key {
			t.Fatalf("settings not sorted: %q > %q", settings[i-1].Key, settings[i].Key)
		}
	}
}

// ============================================================
// Recent files
// ============================================================

func TestListRecentEmpty(t *testing.T) {
	s := newTestStore(t)
	files, err := s.ListRecent("", 0)
	if err != nil {
		t.Fatal(err)
	}
	if files != nil {
		t.Fatalf("expected nil slice, got %d items", len(files))
	}
	if s.LastFile() != "" {
		t.Fatal("LastFile should be empty")
	}
}

func TestRecentNewestFirst(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC)
	s.touchRecentAt("/a.json", KindLoad, base)
	s.touchRecentAt("/b.json", KindLoad, base.Add(500*time.Millisecond))
	s.touchRecentAt("/c.json", KindLoad, base.Add(time.Second))

	files, err := s.ListRecent(KindLoad, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 3 {
		t.Fatalf("expected 3 files, got %d", len(files))
	}
	for i, want := range []string{"/c.json", "/b.json", "/a.json"} {
		if files[i].Path != want {
			t.Fatalf("files[%d] = %q, want %q", i, files[i].Path, want)
		}
	}
	if !files[0].UsedAt.Equal(base.Add(time.Second)) {
		t.Fatalf("UsedAt = %v", files[0].UsedAt)
	}
}

func TestTouchRecentUpdatesExisting(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC)
	s.touchRecentAt("/a.json", KindSave, base)
	s.touchRecentAt("/b.json", KindSave, base.Add(time.Minute))
	s.touchRecentAt("/a.json", KindSave, base.Add(time.Hour))

	files, _ := s.ListRecent(KindSave, 0)
	if len(files) != 2 {
		t.Fatalf("re-touching should not duplicate, got %d rows", len(files))
	}
	if files[0].Path != "/a.json" {
		t.Fatalf("re-touched file should be newest, got %q", files[0].Path)
	}
}

func TestListRecentKindAndLimit(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC)
	s.touchRecentAt("/a.json", KindLoad, base)
	s.touchRecentAt("/b.json", KindSave, base.Add(time.Minute))
	s.touchRecentAt("/c.csv", KindExport, base.Add(2*time.Minute))

	loads, _ := s.ListRecent(KindLoad, 0)
	if len(loads) != 1 || loads[0].Path != "/a.json" {
		t.Fatalf("kind filter broken: %+v", loads)
	}
	all, _ := s.ListRecent("", 2)
	if len(all) != 2 {
		t.Fatalf("limit broken: got %d", len(all))
	}
	if s.LastFile() != "/b.json" {
		t.Fatalf("LastFile = %q, want /b.json (exports are skipped)", s.LastFile())
	}
}
