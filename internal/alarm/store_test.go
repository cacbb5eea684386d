package alarm

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/AbrarShakhi/wall-e/pkg/models"
)

func testProfile() models.Profile {
	return models.Profile{
		ID:             "1",
		StudentName:    "Test Student",
		StudentID:      "2021-1-60-001",
		PortalPassword: "secret",
		StudentEmail:   "test@std.ewubd.edu",
		AdvisorEmail:   "advisor@ewubd.edu",
	}
}

func testAlarm(t, course string, repeat ...string) models.Alarm {
	return models.Alarm{
		Time:       t,
		RepeatDays: repeat,
		CourseCode: course,
		Section:    "2",
		Department: "Department of CSE",
		Semester:   "Fall-2024",
		Profile:    testProfile(),
	}
}

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "alarms.json")
	s, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s, path
}

func TestStoreAddAssignsID(t *testing.T) {
	s, _ := newTestStore(t)

	added, err := s.Add(testAlarm("09:00", "CSE370"))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if added.ID == "" {
		t.Fatal("Add did not assign an id")
	}
	if got := s.List(); len(got) != 1 {
		t.Fatalf("List returned %d alarms, want 1", len(got))
	}
}

func TestStoreAddRejectsIncomplete(t *testing.T) {
	s, _ := newTestStore(t)

	a := testAlarm("09:00", "CSE370")
	a.Section = ""
	if _, err := s.Add(a); err == nil {
		t.Fatal("Add accepted an alarm with no section")
	}
	if got := s.List(); len(got) != 0 {
		t.Fatalf("incomplete alarm was stored: %v", got)
	}
}

func TestStoreRoundTrip(t *testing.T) {
	s, path := newTestStore(t)

	first, err := s.Add(testAlarm("09:00", "CSE370", "Mon", "Wed"))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := s.Add(testAlarm("14:30", "CSE421")); err != nil {
		t.Fatalf("Add: %v", err)
	}

	reloaded, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore reload: %v", err)
	}

	got := reloaded.List()
	if len(got) != 2 {
		t.Fatalf("reload produced %d alarms, want 2", len(got))
	}
	if got[0].ID != first.ID {
		t.Errorf("reloaded id = %q, want %q", got[0].ID, first.ID)
	}
	if got[0].Time != "09:00" || got[0].CourseCode != "CSE370" {
		t.Errorf("reloaded alarm = %+v", got[0])
	}
	if len(got[0].RepeatDays) != 2 {
		t.Errorf("repeat days = %v, want [Mon Wed]", got[0].RepeatDays)
	}
	if got[0].Profile.StudentID != "2021-1-60-001" {
		t.Errorf("profile snapshot not preserved: %+v", got[0].Profile)
	}
}

func TestStoreLoadDropsMalformedRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alarms.json")

	records := []map[string]interface{}{
		{
			"time": "09:00", "repeat": []string{}, "course": "CSE370",
			"section": "2", "department": "Department of CSE",
			"semester": "Fall-2024", "profile": testProfile(),
		},
		// Missing course.
		{
			"time": "10:00", "repeat": []string{}, "section": "1",
			"department": "Department of CSE", "semester": "Fall-2024",
			"profile": testProfile(),
		},
		// Unparseable time.
		{
			"time": "25:99", "repeat": []string{}, "course": "CSE421",
			"section": "1", "department": "Department of CSE",
			"semester": "Fall-2024", "profile": testProfile(),
		},
	}
	data, _ := json.Marshal(records)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	s, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	got := s.List()
	if len(got) != 1 {
		t.Fatalf("load kept %d records, want 1 (malformed dropped)", len(got))
	}
	if got[0].CourseCode != "CSE370" {
		t.Errorf("surviving record = %+v", got[0])
	}
	if got[0].ID == "" {
		t.Error("legacy record without id was not assigned one")
	}
}

func TestStoreLoadCorruptFileDegradesToEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alarms.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore should not fail on corrupt file: %v", err)
	}
	if got := s.List(); len(got) != 0 {
		t.Fatalf("corrupt file produced %d alarms, want 0", len(got))
	}
}

func TestStoreRemoveIsIdempotent(t *testing.T) {
	s, _ := newTestStore(t)

	added, err := s.Add(testAlarm("09:00", "CSE370"))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	if err := s.Remove("no-such-id"); err != nil {
		t.Fatalf("Remove of unknown id returned error: %v", err)
	}
	if got := s.List(); len(got) != 1 {
		t.Fatalf("Remove of unknown id changed the set: %v", got)
	}

	if err := s.Remove(added.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := s.Remove(added.ID); err != nil {
		t.Fatalf("second Remove returned error: %v", err)
	}
	if got := s.List(); len(got) != 0 {
		t.Fatalf("alarm not removed: %v", got)
	}
}

func TestStoreRemoveAll(t *testing.T) {
	s, path := newTestStore(t)

	s.Add(testAlarm("09:00", "CSE370"))
	s.Add(testAlarm("10:00", "CSE421"))

	if err := s.RemoveAll(); err != nil {
		t.Fatalf("RemoveAll: %v", err)
	}
	if got := s.List(); len(got) != 0 {
		t.Fatalf("RemoveAll left %d alarms", len(got))
	}

	// The persisted form must reflect the cleared set.
	reloaded, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore reload: %v", err)
	}
	if got := reloaded.List(); len(got) != 0 {
		t.Fatalf("reload after RemoveAll produced %d alarms", len(got))
	}
}

func TestStoreSaveLeavesNoTempFiles(t *testing.T) {
	s, path := newTestStore(t)
	s.Add(testAlarm("09:00", "CSE370"))

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.Name() != filepath.Base(path) {
			t.Errorf("unexpected file left behind: %s", e.Name())
		}
	}
}
