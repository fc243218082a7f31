package matching

import (
	"context"
	"fmt"
	"strings"

	"github.com/spigell/scholara/internal/ai"
	"github.com/spigell/scholara/internal/scholarship"
	"go.uber.org/zap"
)

// Matches scoring at or below this never reach the completer.
const explanationMinScore = 20

const (
	explanationTemperature = 0.3
	explanationMaxTokens   = 200
	notSpecified           = "Not specified"
	none                   = "None"
)

const explanationSystemPrompt = "You are a scholarship advisor. Write a concise 2-3 sentence explanation " +
	"of why this scholarship matches (or doesn't match) the student's profile. " +
	"Be specific and grounded, only reference the facts provided. " +
	"Do NOT invent any information."

func (r *Ranker) explain(ctx context.Context, profile *scholarship.UserProfile, s scored) string {
	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	text, err := r.completer.Complete(ctx, ai.Request{
		System:      explanationSystemPrompt,
		User:        explanationPrompt(profile, s),
		Temperature: explanationTemperature,
		MaxTokens:   explanationMaxTokens,
	})
	if err == nil {
		if text = strings.TrimSpace(text); text != "" {
			return text
		}
	}

	r.logger.Warn("explanation failed, using template",
		zap.String("scholarship_id", s.record.ID),
		zap.Error(err),
	)

	return FallbackExplanation(s.record.Title, s.score, s.reasons)
}

// explanationPrompt lists only profile fields, record summary fields and the
// computed factors, so the narrative cannot draw on anything else.
func explanationPrompt(profile *scholarship.UserProfile, s scored) string {
	rec := s.record

	interests := notSpecified
	if len(profile.Interests) > 0 {
		interests = strings.Join(profile.Interests, ", ")
	}

	var b strings.Builder
	b.WriteString("Student profile:\n")
	fmt.Fprintf(&b, "- Nationality: %s\n", orDefault(profile.Nationality, notSpecified))
	fmt.Fprintf(&b, "- Education: %s\n", orDefault(profile.EducationLevel, notSpecified))
	fmt.Fprintf(&b, "- Field of study: %s\n", orDefault(profile.FieldOfStudy, notSpecified))
	fmt.Fprintf(&b, "- Interests: %s\n", interests)
	fmt.Fprintf(&b, "- Country: %s\n\n", orDefault(profile.ResidingCountry, notSpecified))

	fmt.Fprintf(&b, "Scholarship: %s\n", rec.Title)
	fmt.Fprintf(&b, "- Provider: %s\n", rec.Provider)
	fmt.Fprintf(&b, "- Country: %s\n", rec.Country)
	fmt.Fprintf(&b, "- Level: %s\n", rec.Level)
	fmt.Fprintf(&b, "- Field: %s\n", rec.FieldOfStudy)
	fmt.Fprintf(&b, "- Value: %s\n\n", rec.Value)

	fmt.Fprintf(&b, "Match score: %d/100\n", s.score)
	fmt.Fprintf(&b, "Positive reasons: %s\n", joinOr(s.reasons, none))
	fmt.Fprintf(&b, "Missing requirements: %s\n\n", joinOr(s.missing, none))
	b.WriteString("Write a concise explanation for the student.")

	return b.String()
}

// FallbackExplanation is the one-line template used when no narrative is available.
func FallbackExplanation(title string, score int, reasons []string) string {
	strength := "weak"
	switch {
	case score >= 70:
		strength = "strong"
	case score >= 40:
		strength = "moderate"
	}

	text := fmt.Sprintf("%s is a %s match for your profile.", title, strength)
	if len(reasons) == 0 {
		return text
	}

	top := reasons
	if len(top) > 3 {
		top = top[:3]
	}
	return text + " Key factors: " + strings.Join(top, "; ") + "."
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func joinOr(items []string, def string) string {
	if len(items) == 0 {
		return def
	}
	return strings.Join(items, "; ")
}
