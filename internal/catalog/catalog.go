// Package catalog holds the fixed department and semester display-name
// lists. The portal's filter dropdowns match on visible text, so these
// strings must match the portal exactly, character for character.
package catalog

// Departments returns the department display names in dropdown order.
func Departments() []string {
	return []string{
		"MBA and EMBA Program",
		"Department of BA",
		"Department of Civil Engineering",
		"Department of CSE",
		"Department of ECE",
		"Department of Economics",
		"Department of EEE",
		"Department of English",
		"Department of Information Studies",
		"Department of Law",
		"Department of Mathematical & Physical Sciences",
		"Department of Pharmacy",
		"Department of Social Relations",
		"Department of Sociology",
		"Department of Genetic Engineering and Biotechnology",
		"GDLFM",
		"Entrepreneurship Development Centre",
		"DSS",
	}
}

// Semesters returns the selectable semester names, newest first.
func Semesters() []string {
	return []string{
		"Summer-2025", "Spring-2025", "Fall-2024", "Summer-2024", "Spring-2024",
		"Fall-2023", "Summer-2023", "Spring-2023", "Fall-2022",
		"Summer-2022", "Spring-2022", "Fall-2021", "Summer-2021",
		"Spring-2021", "Fall-2020", "Summer-2020", "Spring-2020",
		"Fall-2019", "Summer-2019", "Spring-2019",
	}
}

// ValidDepartment reports whether name is one of the known departments.
func ValidDepartment(name string) bool {
	for _, d := range Departments() {
		if d == name {
			return true
		}
	}
	return false
}

// ValidSemester reports whether name is one of the known semesters.
func ValidSemester(name string) bool {
	for _, s := range Semesters() {
		if s == name {
			return true
		}
	}
	return false
}
