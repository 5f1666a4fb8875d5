package store

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenMemory("test-salt")
	if err != nil {
		t.Fatalf("OpenMemory() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestValueRoundTrip(t *testing.T) {
	s := newTestStore(t)

	if _, ok, err := s.Value("v1", "theme"); err != nil || ok {
		t.Fatalf("Value() on empty store = (_, %v, %v), want (_, false, nil)", ok, err)
	}
	if err := s.SetValue("v1", "theme", "light"); err != nil {
		t.Fatalf("SetValue() failed: %v", err)
	}
	if err := s.SetValue("v1", "theme", "dark"); err != nil {
		t.Fatalf("SetValue() overwrite failed: %v", err)
	}
	got, ok, err := s.Value("v1", "theme")
	if err != nil || !ok || got != "dark" {
		t.Errorf("Value() = (%q, %v, %v), want (dark, true, nil)", got, ok, err)
	}
	if _, ok, _ := s.Value("v2", "theme"); ok {
		t.Error("value leaked across visitors")
	}
}

func TestKV(t *testing.T) {
	s := newTestStore(t)
	kv := s.KV("visitor")

	if _, ok := kv.Get("currentSection"); ok {
		t.Fatal("Get() on empty store reported a value")
	}
	kv.Set("currentSection", "about")
	if v, ok := kv.Get("currentSection"); !ok || v != "about" {
		t.Errorf("Get() = (%q, %v), want (about, true)", v, ok)
	}
}

func TestKVSwallowsErrors(t *testing.T) {
	s, err := OpenMemory("salt")
	if err != nil {
		t.Fatalf("OpenMemory() failed: %v", err)
	}
	kv := s.KV("visitor")
	s.Close()

	kv.Set("currentSection", "about")
	if _, ok := kv.Get("currentSection"); ok {
		t.Error("Get() on closed store reported a value")
	}
}

func TestHash(t *testing.T) {
	s := newTestStore(t)
	a, b := s.Hash("10.0.0.1"), s.Hash("10.0.0.1")
	if a != b {
		t.Errorf("Hash not stable: %q vs %q", a, b)
	}
	if len(a) != 16 {
		t.Errorf("len(Hash) = %d, want 16", len(a))
	}
	if a == s.Hash("10.0.0.2") {
		t.Error("different addresses hashed equal")
	}
}

func TestStats(t *testing.T) {
	s := newTestStore(t)

	for _, ip := range []string{"1.1.1.1", "1.1.1.1", "2.2.2.2"} {
		if err := s.RecordVisit(ip, "test-agent", "/"); err != nil {
			t.Fatalf("RecordVisit() failed: %v", err)
		}
	}
	for _, sec := range []string{"about", "about", "projects"} {
		if err := s.RecordSectionView("v1", sec); err != nil {
			t.Fatalf("RecordSectionView() failed: %v", err)
		}
	}

	stats, err := s.Stats()
	if err != nil {
		t.Fatalf("Stats() failed: %v", err)
	}
	if stats.TotalVisits != 3 || stats.UniqueVisitors != 2 {
		t.Errorf("visits = %d/%d unique, want 3/2", stats.TotalVisits, stats.UniqueVisitors)
	}
	if stats.VisitsToday != 3 || stats.VisitsThisWeek != 3 {
		t.Errorf("today/week = %d/%d, want 3/3", stats.VisitsToday, stats.VisitsThisWeek)
	}
	if stats.TotalNavigations != 3 {
		t.Errorf("TotalNavigations = %d, want 3", stats.TotalNavigations)
	}
	if len(stats.TopSections) != 2 || stats.TopSections[0] != (SectionCount{Section: "about", Views: 2}) {
		t.Errorf("TopSections = %v", stats.TopSections)
	}
	if len(stats.RecentVisits) != 3 {
		t.Errorf("len(RecentVisits) = %d, want 3", len(stats.RecentVisits))
	}
	for _, v := range stats.RecentVisits {
		if v.HashedIP == "1.1.1.1" || v.HashedIP == "2.2.2.2" {
			t.Errorf("raw address stored: %q", v.HashedIP)
		}
	}
}

func TestCleanupOldVisits(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.db.Exec(
		`INSERT INTO visits (hashed_ip, path, timestamp) VALUES (?, ?, ?)`,
		"old", "/", time.Now().UTC().AddDate(-2, 0, 0),
	); err != nil {
		t.Fatalf("seeding old visit: %v", err)
	}
	if err := s.RecordVisit("1.1.1.1", "agent", "/"); err != nil {
		t.Fatalf("RecordVisit() failed: %v", err)
	}

	n, err := s.CleanupOldVisits(365 * 24 * time.Hour)
	if err != nil {
		t.Fatalf("CleanupOldVisits() failed: %v", err)
	}
	if n != 1 {
		t.Errorf("removed %d rows, want 1", n)
	}
}

func TestOpenCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "portfolio.db")
	s, err := Open(path, "salt")
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()
	if err := s.SetValue("v", "k", "x"); err != nil {
		t.Errorf("SetValue() failed: %v", err)
	}
}
