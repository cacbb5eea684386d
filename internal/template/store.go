// Package template manages the advisor-email templates and the active
// template selection, backed by a JSON file under the data dir.
package template

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/AbrarShakhi/wall-e/pkg/models"
)

// Default is the built-in template used when the template file is
// missing, invalid, or has no active entry.
var Default = models.EmailTemplate{
	Subject: "{course_code} Add Request",
	Body: `Hi Advisor,

I want to add {course_code} section {section}.

Thanks for your time.

Sincerely Yours,
{student_name},
{student_id}`,
}

// Store persists named templates. Two names matter: "default" (the
// built-in) and "active" (what the mailer actually renders).
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore creates a template store backed by the file at path.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create template directory: %w", err)
	}
	return &Store{path: path}, nil
}

// Load returns all templates. A missing or invalid file falls back to
// just the default template.
func (s *Store) Load() map[string]models.EmailTemplate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// Active returns the template emails are rendered from: the "active"
// entry if set, the "default" entry otherwise, the built-in as a last
// resort.
func (s *Store) Active() models.EmailTemplate {
	templates := s.Load()
	if t, ok := templates["active"]; ok {
		return t
	}
	if t, ok := templates["default"]; ok {
		return t
	}
	return Default
}

// SetActive stores the given template as the active one.
func (s *Store) SetActive(t models.EmailTemplate) error {
	if t.Subject == "" || t.Body == "" {
		return fmt.Errorf("template subject and body are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	templates := s.read()
	templates["active"] = t
	return s.write(templates)
}

// ResetActive makes the default template active again.
func (s *Store) ResetActive() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	templates := s.read()
	templates["active"] = templates["default"]
	return s.write(templates)
}

func (s *Store) read() map[string]models.EmailTemplate {
	fallback := map[string]models.EmailTemplate{"default": Default}

	data, err := os.ReadFile(s.path)
	if err != nil || len(data) == 0 {
		return fallback
	}

	var templates map[string]models.EmailTemplate
	if err := json.Unmarshal(data, &templates); err != nil || templates == nil {
		return fallback
	}
	if _, ok := templates["default"]; !ok {
		templates["default"] = Default
	}
	return templates
}

func (s *Store) write(templates map[string]models.EmailTemplate) error {
	data, err := json.MarshalIndent(templates, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to serialize templates: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".templates-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp template file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write templates: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp template file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace template file: %w", err)
	}
	return nil
}
