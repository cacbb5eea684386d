// Package alarm persists and schedules the time-based triggers that
// fire automatic seat searches.
package alarm

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/AbrarShakhi/wall-e/pkg/models"
)

// Store is the durable alarm collection, backed by a JSON array file.
// All mutations happen under one mutex: scheduler callbacks and API
// handlers can race on add/remove/save.
type Store struct {
	path   string
	mu     sync.Mutex
	alarms []models.Alarm
}

// NewStore loads (or initializes) the alarm file at path. Records
// missing required fields are dropped individually; an unreadable file
// degrades to an empty set rather than failing startup.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create alarm directory: %w", err)
	}

	s := &Store{path: path}
	s.load()
	return s, nil
}

func (s *Store) load() {
	s.alarms = nil

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[alarms] Failed to read %s: %v, starting with empty set", s.path, err)
		}
		return
	}
	if len(data) == 0 {
		return
	}

	var raw []models.Alarm
	if err := json.Unmarshal(data, &raw); err != nil {
		log.Printf("[alarms] Corrupt alarm file %s: %v, starting with empty set", s.path, err)
		return
	}

	for _, a := range raw {
		if !a.Valid() {
			log.Printf("[alarms] Dropping malformed alarm record (time=%q course=%q)", a.Time, a.CourseCode)
			continue
		}
		// Legacy files predate generated ids.
		if a.ID == "" {
			a.ID = uuid.New().String()
		}
		s.alarms = append(s.alarms, a)
	}
}

// List returns a copy of the current alarm set.
func (s *Store) List() []models.Alarm {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Alarm, len(s.alarms))
	copy(out, s.alarms)
	return out
}

// Get returns the alarm with the given id.
func (s *Store) Get(id string) (models.Alarm, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.alarms {
		if a.ID == id {
			return a, true
		}
	}
	return models.Alarm{}, false
}

// Add validates the alarm, assigns it an id, and persists the set.
func (s *Store) Add(a models.Alarm) (models.Alarm, error) {
	if !a.Valid() {
		return models.Alarm{}, fmt.Errorf("alarm is missing required fields")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a.ID = uuid.New().String()
	s.alarms = append(s.alarms, a)
	if err := s.save(); err != nil {
		s.alarms = s.alarms[:len(s.alarms)-1]
		return models.Alarm{}, err
	}
	return a, nil
}

// Remove deletes the alarm with the given id. Removing an id that is
// not present is a no-op.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, a := range s.alarms {
		if a.ID == id {
			s.alarms = append(s.alarms[:i], s.alarms[i+1:]...)
			return s.save()
		}
	}
	return nil
}

// RemoveAll clears every stored alarm and persists the empty set.
func (s *Store) RemoveAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.alarms = nil
	return s.save()
}

// save writes the alarm set atomically: serialize to a temp file in the
// same directory, then rename over the live file. A write that fails
// partway never corrupts the previously persisted set.
func (s *Store) save() error {
	data, err := json.MarshalIndent(s.alarms, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize alarms: %w", err)
	}
	if s.alarms == nil {
		data = []byte("[]")
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".alarms-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp alarm file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write alarms: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp alarm file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace alarm file: %w", err)
	}
	return nil
}
