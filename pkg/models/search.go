package models

import (
	"fmt"
	"strings"
)

// SearchConfig identifies what to search for and with which profile.
// It is immutable once a search or alarm has been created from it.
type SearchConfig struct {
	ProfileID  string `json:"profileId"`
	Department string `json:"department"`
	Semester   string `json:"semester"`
	CourseCode string `json:"course"`
	Section    string `json:"section"`
}

// Validate checks that every field is populated. It returns an error
// naming the first missing field so callers can surface it directly.
func (c SearchConfig) Validate() error {
	fields := []struct {
		name  string
		value string
	}{
		{"profileId", c.ProfileID},
		{"department", c.Department},
		{"semester", c.Semester},
		{"course", c.CourseCode},
		{"section", c.Section},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%s is required", f.name)
		}
	}
	return nil
}

// SeatRow is one row extracted from the portal's offered-courses table.
// Rows are transient: they live only for the duration of one search.
type SeatRow struct {
	CourseCode string `json:"course"`
	Section    string `json:"section"`
	Seats      string `json:"seats"` // raw "enrolled/capacity" text
}

// SearchStatus is the terminal state of one search attempt.
type SearchStatus string

const (
	SearchFound    SearchStatus = "FOUND"
	SearchNotFound SearchStatus = "NOT_FOUND"
	SearchFailed   SearchStatus = "FAILED"
)

// SearchOutcome is produced exactly once per search attempt.
type SearchOutcome struct {
	Status       SearchStatus `json:"status"`
	SeatsDisplay string       `json:"seats,omitempty"`
	Error        string       `json:"error,omitempty"`
}

// SearchRequest is the payload for triggering a manual search.
type SearchRequest struct {
	Config      SearchConfig `json:"config"`
	NotifyEmail bool         `json:"notifyEmail"`
}
