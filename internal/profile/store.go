// Package profile persists student profiles: portal credentials plus
// the email addresses used for advisor notifications.
package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"github.com/AbrarShakhi/wall-e/pkg/models"
)

// ErrNotFound is returned when no profile exists for the given id.
var ErrNotFound = errors.New("profile not found")

// Store is the profiles.json-backed profile collection. Keys are
// numeric strings; new profiles get one past the largest existing key.
type Store struct {
	path        string
	emailDomain string

	mu sync.Mutex
}

// NewStore creates a store backed by the file at path. emailDomain is
// the required student-email suffix (e.g. "@std.ewubd.edu").
func NewStore(path, emailDomain string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create profile directory: %w", err)
	}
	return &Store{path: path, emailDomain: emailDomain}, nil
}

// Load returns the id-keyed profile mapping. A missing or unreadable
// file degrades to an empty mapping.
func (s *Store) Load() map[string]models.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// List returns all profiles ordered by numeric key.
func (s *Store) List() []models.Profile {
	profiles := s.Load()

	keys := make([]string, 0, len(profiles))
	for k := range profiles {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, _ := strconv.Atoi(keys[i])
		b, _ := strconv.Atoi(keys[j])
		return a < b
	})

	out := make([]models.Profile, 0, len(keys))
	for _, k := range keys {
		out = append(out, profiles[k])
	}
	return out
}

// Get returns the profile with the given id.
func (s *Store) Get(id string) (models.Profile, error) {
	profiles := s.Load()
	p, ok := profiles[id]
	if !ok {
		return models.Profile{}, ErrNotFound
	}
	return p, nil
}

// Create validates and stores a new profile under the next numeric key.
func (s *Store) Create(p models.Profile) (models.Profile, error) {
	if err := s.validate(p); err != nil {
		return models.Profile{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	profiles := s.read()

	largest := 0
	for key := range profiles {
		if n, err := strconv.Atoi(key); err == nil && n > largest {
			largest = n
		}
	}
	p.ID = strconv.Itoa(largest + 1)
	profiles[p.ID] = p

	if err := s.write(profiles); err != nil {
		return models.Profile{}, err
	}
	return p, nil
}

// Update replaces the profile stored under id.
func (s *Store) Update(id string, p models.Profile) (models.Profile, error) {
	if err := s.validate(p); err != nil {
		return models.Profile{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	profiles := s.read()
	if _, ok := profiles[id]; !ok {
		return models.Profile{}, ErrNotFound
	}
	p.ID = id
	profiles[id] = p

	if err := s.write(profiles); err != nil {
		return models.Profile{}, err
	}
	return p, nil
}

// Delete removes the profile under id.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	profiles := s.read()
	if _, ok := profiles[id]; !ok {
		return ErrNotFound
	}
	delete(profiles, id)
	return s.write(profiles)
}

func (s *Store) validate(p models.Profile) error {
	if !p.Complete() {
		return fmt.Errorf("all profile fields are required")
	}
	if s.emailDomain != "" && !p.HasStudentDomain(s.emailDomain) {
		return fmt.Errorf("invalid student email: must use %s", s.emailDomain)
	}
	return nil
}

func (s *Store) read() map[string]models.Profile {
	profiles := make(map[string]models.Profile)

	data, err := os.ReadFile(s.path)
	if err != nil || len(data) == 0 {
		return profiles
	}
	if err := json.Unmarshal(data, &profiles); err != nil {
		return make(map[string]models.Profile)
	}
	for id, p := range profiles {
		p.ID = id
		profiles[id] = p
	}
	return profiles
}

func (s *Store) write(profiles map[string]models.Profile) error {
	data, err := json.MarshalIndent(profiles, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to serialize profiles: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".profiles-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp profile file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write profiles: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp profile file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace profile file: %w", err)
	}
	return nil
}
