package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Weekday abbreviations accepted in an alarm's repeat list, in the
// order the portal app has always displayed them.
var WeekdayAbbrevs = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// Alarm is a persisted trigger that runs a seat search at a wall-clock
// time, optionally repeating on selected weekdays. The scheduler's live
// timer handle is never stored here; it lives in a runtime side table
// keyed by ID.
type Alarm struct {
	ID         string   `json:"id,omitempty"`
	Time       string   `json:"time"`   // "HH:MM", 24-hour
	RepeatDays []string `json:"repeat"` // subset of WeekdayAbbrevs; empty = fire once
	CourseCode string   `json:"course"`
	Section    string   `json:"section"`
	Department string   `json:"department"`
	Semester   string   `json:"semester"`
	Profile    Profile  `json:"profile"` // embedded snapshot, not just an id
}

// Config assembles the alarm's search parameters as a SearchConfig.
func (a Alarm) Config() SearchConfig {
	return SearchConfig{
		ProfileID:  a.Profile.ID,
		Department: a.Department,
		Semester:   a.Semester,
		CourseCode: a.CourseCode,
		Section:    a.Section,
	}
}

// Valid reports whether the alarm carries every required field.
// Records failing this check are dropped on load rather than failing
// the whole alarm file.
func (a Alarm) Valid() bool {
	if a.Time == "" || a.CourseCode == "" || a.Section == "" ||
		a.Department == "" || a.Semester == "" {
		return false
	}
	if !a.Profile.Complete() {
		return false
	}
	_, _, err := a.ClockTime()
	if err != nil {
		return false
	}
	return validRepeatDays(a.RepeatDays)
}

// ClockTime parses the alarm's "HH:MM" trigger time.
func (a Alarm) ClockTime() (hour, minute int, err error) {
	parts := strings.SplitN(a.Time, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid alarm time %q", a.Time)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid alarm hour %q", a.Time)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid alarm minute %q", a.Time)
	}
	return hour, minute, nil
}

func validRepeatDays(days []string) bool {
	for _, d := range days {
		found := false
		for _, abbrev := range WeekdayAbbrevs {
			if d == abbrev {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
