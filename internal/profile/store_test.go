package profile

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/AbrarShakhi/wall-e/pkg/models"
)

const testDomain = "@std.ewubd.edu"

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "profiles.json"), testDomain)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func validProfile() models.Profile {
	return models.Profile{
		StudentName:    "Test Student",
		StudentID:      "2021-1-60-001",
		PortalPassword: "secret",
		StudentEmail:   "test@std.ewubd.edu",
		AdvisorEmail:   "advisor@ewubd.edu",
	}
}

func TestCreateAssignsSequentialKeys(t *testing.T) {
	s := newTestStore(t)

	first, err := s.Create(validProfile())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if first.ID != "1" {
		t.Errorf("first id = %q, want %q", first.ID, "1")
	}

	second, err := s.Create(validProfile())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if second.ID != "2" {
		t.Errorf("second id = %q, want %q", second.ID, "2")
	}

	// Deleting the middle key must not reuse it out of order: next key
	// is one past the largest.
	if err := s.Delete("2"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	third, err := s.Create(validProfile())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if third.ID != "2" {
		t.Errorf("id after delete = %q, want %q (one past largest)", third.ID, "2")
	}
}

func TestCreateValidation(t *testing.T) {
	s := newTestStore(t)

	missing := validProfile()
	missing.AdvisorEmail = ""
	if _, err := s.Create(missing); err == nil {
		t.Error("Create accepted a profile with a missing field")
	}

	wrongDomain := validProfile()
	wrongDomain.StudentEmail = "test@gmail.com"
	if _, err := s.Create(wrongDomain); err == nil {
		t.Error("Create accepted a student email outside the university domain")
	}
}

func TestGetAndUpdate(t *testing.T) {
	s := newTestStore(t)

	created, err := s.Create(validProfile())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := s.Get(created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.StudentName != "Test Student" {
		t.Errorf("Get returned %+v", got)
	}

	updated := validProfile()
	updated.StudentName = "Renamed Student"
	if _, err := s.Update(created.ID, updated); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err = s.Get(created.ID)
	if err != nil {
		t.Fatalf("Get after update: %v", err)
	}
	if got.StudentName != "Renamed Student" {
		t.Errorf("update not persisted: %+v", got)
	}

	if _, err := s.Update("99", validProfile()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update of unknown id: err = %v, want ErrNotFound", err)
	}
	if _, err := s.Get("99"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get of unknown id: err = %v, want ErrNotFound", err)
	}
}

func TestListOrdersByNumericKey(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < 11; i++ {
		if _, err := s.Create(validProfile()); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	list := s.List()
	if len(list) != 11 {
		t.Fatalf("List returned %d profiles, want 11", len(list))
	}
	// Numeric, not lexicographic: "10" comes after "9".
	if list[9].ID != "10" || list[10].ID != "11" {
		t.Errorf("List order: got %q then %q, want 10 then 11", list[9].ID, list[10].ID)
	}
}

func TestDeleteUnknownID(t *testing.T) {
	s := newTestStore(t)
	if err := s.Delete("42"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete of unknown id: err = %v, want ErrNotFound", err)
	}
}
