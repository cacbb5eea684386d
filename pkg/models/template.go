package models

import "strings"

// EmailTemplate is an advisor-email template with named placeholders:
// {course_code}, {section}, {student_name}, {student_id}.
type EmailTemplate struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// TemplateFields carries the values substituted into a template.
type TemplateFields struct {
	CourseCode  string
	Section     string
	StudentName string
	StudentID   string
}

// Render substitutes the placeholder fields into the subject and body.
func (t EmailTemplate) Render(f TemplateFields) (subject, body string) {
	r := strings.NewReplacer(
		"{course_code}", f.CourseCode,
		"{section}", f.Section,
		"{student_name}", f.StudentName,
		"{student_id}", f.StudentID,
	)
	return r.Replace(t.Subject), r.Replace(t.Body)
}
