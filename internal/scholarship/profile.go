// Package scholarship holds the data model shared by the matching and discovery paths.
package scholarship

import "strings"

// UserProfile is the subset of a student profile used for matching. It is never mutated.
type UserProfile struct {
	ID                 string   `json:"id" binding:"required"`
	Nationality        string   `json:"nationality,omitempty"`
	ResidingCountry    string   `json:"residingCountry,omitempty"`
	EducationLevel     string   `json:"educationLevel,omitempty"`
	CurrentInstitution string   `json:"currentInstitution,omitempty"`
	FieldOfStudy       string   `json:"fieldOfStudy,omitempty"`
	Interests          []string `json:"interests"`
}

// Completeness is the share of the five matching fields that are populated,
// rounded to two decimals.
func (p *UserProfile) Completeness() float64 {
	filled := 0
	for _, v := range []string{p.Nationality, p.EducationLevel, p.FieldOfStudy, p.ResidingCountry} {
		if strings.TrimSpace(v) != "" {
			filled++
		}
	}
	if len(p.Interests) > 0 {
		filled++
	}
	return Round2(float64(filled) / 5)
}
