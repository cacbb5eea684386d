package models

import "strings"

// Profile holds one student's portal credentials and email addresses.
// Profiles are persisted as a numeric-keyed map in profiles.json.
type Profile struct {
	ID             string `json:"-"`
	StudentName    string `json:"student_name"`
	StudentID      string `json:"student_id"`
	PortalPassword string `json:"portal_password"`
	StudentEmail   string `json:"student_email"`
	AdvisorEmail   string `json:"advisor_email"`
}

// Complete reports whether every profile field is filled in.
func (p Profile) Complete() bool {
	return p.StudentName != "" &&
		p.StudentID != "" &&
		p.PortalPassword != "" &&
		p.StudentEmail != "" &&
		p.AdvisorEmail != ""
}

// HasStudentDomain checks the student email against the required
// university domain (e.g. "@std.ewubd.edu").
func (p Profile) HasStudentDomain(domain string) bool {
	return strings.HasSuffix(p.StudentEmail, domain)
}
