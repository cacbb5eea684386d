// Package seats decides seat availability from the portal's raw
// offered-courses rows.
package seats

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/AbrarShakhi/wall-e/pkg/models"
)

// ErrRowNotFound means no row matched the requested course and section.
// Callers render this as "no seats found" without implying the course
// does not exist.
var ErrRowNotFound = errors.New("course/section not found in offered courses")

// ParseError means a matching row was found but its seat field was not
// a well-formed "enrolled/capacity" pair. This is deliberately distinct
// from "zero seats available": a parse failure usually means the portal
// changed its table format and must be diagnosable in logs.
type ParseError struct {
	Raw string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed seat string %q", e.Raw)
}

// Result is the evaluation of one search against the extracted rows.
type Result struct {
	Available    bool
	SeatsDisplay string // the raw seat string, unmodified
}

// Evaluate scans rows for the first exact (trimmed) course+section match
// and reports whether any seats remain. Available is capacity minus
// enrollment, strictly positive.
func Evaluate(rows []models.SeatRow, courseCode, section string) (Result, error) {
	courseCode = strings.TrimSpace(courseCode)
	section = strings.TrimSpace(section)

	for _, row := range rows {
		if strings.TrimSpace(row.CourseCode) != courseCode ||
			strings.TrimSpace(row.Section) != section {
			continue
		}

		raw := strings.TrimSpace(row.Seats)
		enrolled, capacity, err := parseSeats(raw)
		if err != nil {
			return Result{}, &ParseError{Raw: raw}
		}

		return Result{
			Available:    capacity-enrolled > 0,
			SeatsDisplay: raw,
		}, nil
	}

	return Result{}, ErrRowNotFound
}

func parseSeats(raw string) (enrolled, capacity int, err error) {
	parts := strings.SplitN(raw, "/", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("missing slash")
	}
	enrolled, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, err
	}
	capacity, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, err
	}
	return enrolled, capacity, nil
}
