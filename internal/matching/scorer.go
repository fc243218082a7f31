// Package matching scores verified scholarships against a student profile and
// ranks them, optionally asking a completion provider to narrate each match.
package matching

import (
	"fmt"
	"math"
	"strings"

	"github.com/spigell/scholara/internal/dates"
	"github.com/spigell/scholara/internal/scholarship"
	"github.com/spigell/scholara/internal/textutil"
)

// Score rates record for profile with DefaultWeights.
func Score(profile *scholarship.UserProfile, record *scholarship.Record) (int, []string, []string) {
	return DefaultWeights.Score(profile, record)
}

// Score returns a 0..100 match score with positive reasons and missing requirements,
// both in evaluation order. Inputs are not modified.
func (w Weights) Score(profile *scholarship.UserProfile, record *scholarship.Record) (int, []string, []string) {
	s := &scoreSheet{reasons: []string{}, missing: []string{}}
	open := record.Status == scholarship.StatusOpen

	if open {
		s.add(w.Status, "Scholarship is open for applications")
	} else {
		s.miss(fmt.Sprintf("Scholarship status is %s", record.Status))
	}

	w.scoreDeadline(s, record)
	w.scoreField(s, profile, record)
	w.scoreLevel(s, profile, record)
	w.scoreCountry(s, profile, record)
	w.scoreNationality(s, profile, record)
	w.scoreInterests(s, profile, record)

	score := s.total
	if !open && score > closedScoreCap {
		score = closedScoreCap
	}

	return clamp(score, 0, maxScore), s.reasons, s.missing
}

type scoreSheet struct {
	total   int
	reasons []string
	missing []string
}

func (s *scoreSheet) add(points int, reason string) {
	s.total += points
	if reason != "" {
		s.reasons = append(s.reasons, reason)
	}
}

func (s *scoreSheet) miss(requirement string) {
	s.missing = append(s.missing, requirement)
}

// scoreDeadline treats a missing deadline as rolling. A deadline that is present
// but unparseable earns nothing.
func (w Weights) scoreDeadline(s *scoreSheet, record *scholarship.Record) {
	raw := record.DeadlineValue()
	if strings.TrimSpace(raw) == "" {
		s.add(half(w.Deadline), "")
		return
	}

	deadline, ok := dates.Parse(raw)
	if !ok {
		return
	}

	if dates.IsExpired(deadline) {
		s.miss("Application deadline has passed")
		return
	}

	remaining := dates.DaysUntil(deadline)
	switch {
	case remaining > deadlineComfortableDays:
		s.add(w.Deadline, fmt.Sprintf("%d days until deadline", remaining))
	case remaining > deadlineSoonDays:
		s.add(half(w.Deadline), fmt.Sprintf("Deadline approaching (%d days)", remaining))
	default:
		s.add(quarter(w.Deadline), "")
		s.miss(fmt.Sprintf("Deadline very soon (%d days)", remaining))
	}
}

func (w Weights) scoreField(s *scoreSheet, profile *scholarship.UserProfile, record *scholarship.Record) {
	field := strings.TrimSpace(profile.FieldOfStudy)
	if field == "" {
		s.add(third(w.Field), "")
		return
	}
	if strings.TrimSpace(record.FieldOfStudy) == "" {
		return
	}

	overlap := textutil.KeywordOverlap(field, record.FieldOfStudy)
	points := scaled(w.Field, overlap*fieldOverlapBoost)

	switch {
	case overlap > fieldMatchOverlap:
		s.add(points, fmt.Sprintf("Your field (%s) matches", profile.FieldOfStudy))
	case overlap > 0:
		s.add(points, "Partial field of study overlap")
	default:
		s.add(points, "")
	}
}

func (w Weights) scoreLevel(s *scoreSheet, profile *scholarship.UserProfile, record *scholarship.Record) {
	if strings.TrimSpace(profile.EducationLevel) == "" {
		s.add(third(w.Level), "")
		return
	}
	if strings.TrimSpace(record.Level) == "" {
		return
	}

	if levelMatches(profile.EducationLevel, record.Level) {
		s.add(w.Level, "Education level matches")
		return
	}

	s.miss(fmt.Sprintf("Scholarship is for %s, you are %s", record.Level, profile.EducationLevel))
}

func levelMatches(profileLevel, recordLevel string) bool {
	user := strings.ToLower(profileLevel)
	target := strings.ToLower(recordLevel)

	for _, alias := range levelAliases {
		if !strings.Contains(user, alias.phrase) && !strings.Contains(alias.phrase, user) {
			continue
		}
		for _, token := range alias.tokens {
			token = strings.ToLower(token)
			if strings.Contains(target, token) || strings.Contains(token, target) {
				return true
			}
		}
	}

	return textutil.FuzzyContains(target, user) || textutil.FuzzyContains(user, target)
}

func (w Weights) scoreCountry(s *scoreSheet, profile *scholarship.UserProfile, record *scholarship.Record) {
	if strings.TrimSpace(profile.ResidingCountry) == "" {
		s.add(third(w.Country), "")
		return
	}
	if strings.TrimSpace(record.Country) == "" {
		return
	}

	if textutil.NormalizeCountry(profile.ResidingCountry) == textutil.NormalizeCountry(record.Country) {
		s.add(w.Country, fmt.Sprintf("Available in your country (%s)", record.Country))
	}
}

func (w Weights) scoreNationality(s *scoreSheet, profile *scholarship.UserProfile, record *scholarship.Record) {
	eligibility, ok := record.EligibilityMap()
	if !ok {
		s.add(half(w.Nationality), "")
		return
	}

	allowed := scholarship.AllowedNationalities(eligibility)
	if len(allowed) == 0 {
		s.add(w.Nationality, "Open to all nationalities")
		return
	}

	if strings.TrimSpace(profile.Nationality) == "" {
		s.add(third(w.Nationality), "")
		return
	}

	nationality := textutil.NormalizeCountry(profile.Nationality)
	for _, country := range allowed {
		if textutil.NormalizeCountry(country) == nationality {
			s.add(w.Nationality, "Your nationality is eligible")
			return
		}
	}

	shown := allowed
	if len(shown) > 5 {
		shown = shown[:5]
	}
	s.miss("Restricted to: " + strings.Join(shown, ", "))
}

func (w Weights) scoreInterests(s *scoreSheet, profile *scholarship.UserProfile, record *scholarship.Record) {
	if len(profile.Interests) == 0 {
		s.add(third(w.Interest), "")
		return
	}
	if strings.TrimSpace(record.Description) == "" {
		return
	}

	overlap := textutil.KeywordOverlap(strings.Join(profile.Interests, " "), record.Description)
	reason := ""
	if overlap > interestMatchOverlap {
		reason = "Matches your interests"
	}
	s.add(scaled(w.Interest, overlap*interestOverlapBoost), reason)
}

// scaled truncates weight*min(ratio,1) toward zero.
func scaled(weight int, ratio float64) int {
	return int(float64(weight) * math.Min(ratio, 1))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ProfileCompleteness is the share of populated matching fields in profile.
func ProfileCompleteness(profile *scholarship.UserProfile) float64 {
	return profile.Completeness()
}

// MatchConfidence discounts the normalized score by profile completeness.
func MatchConfidence(score int, completeness float64) float64 {
	adjusted := float64(score) / 100 * (0.5 + 0.5*completeness)
	return scholarship.Clamp01(scholarship.Round2(adjusted))
}
