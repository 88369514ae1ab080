package models

// Skill is a single assessable competency, e.g. "Fractions" at grade 4.
type Skill struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Subject     string `json:"subject"`
	GradeLevel  int    `json:"gradeLevel"`
}
