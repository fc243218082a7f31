// Package validation applies deterministic checks to extracted scholarships.
// Checks only add flags and only lower confidence, so the model's self-reported
// confidence acts as an upper bound.
package validation

import (
	"strings"

	"github.com/spigell/scholara/internal/dates"
	"github.com/spigell/scholara/internal/scholarship"
	"github.com/spigell/scholara/internal/textutil"
	"go.uber.org/zap"
)

// Engine runs an ordered list of rules.
type Engine struct {
	rules  []Rule
	logger *zap.Logger
}

// New returns an Engine with DefaultRules when rules is empty.
func New(log *zap.Logger, rules ...Rule) *Engine {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{rules: rules, logger: log}
}

// Validate updates flags and confidence of e in place and returns it. Applying it
// again to its own output changes nothing.
func (v *Engine) Validate(e *scholarship.Extracted) *scholarship.Extracted {
	if e == nil {
		return nil
	}

	for _, rule := range v.rules {
		if added := rule.Apply(e); len(added) > 0 {
			v.logger.Debug("validation flagged",
				zap.String("rule", rule.Name()),
				zap.String("name", e.Name),
				zap.Strings("flags", added),
				zap.Float64("confidence", e.Confidence),
			)
		}
	}

	e.Confidence = scholarship.Clamp01(scholarship.Round2(e.Confidence))
	return e
}

// IsEligibleForUser checks only expiry and the nationality allow-list. An empty
// list or an unknown nationality does not restrict.
func IsEligibleForUser(e *scholarship.Extracted, nationality string) (bool, []string) {
	reasons := []string{}

	if e.Deadline != nil && dates.IsExpired(e.Deadline.Time) {
		reasons = append(reasons, "Scholarship deadline has passed")
	}

	allowed := e.Eligibility.NationalitiesAllowed
	if len(allowed) > 0 && strings.TrimSpace(nationality) != "" {
		user := textutil.NormalizeCountry(nationality)
		eligible := false
		for _, country := range allowed {
			if textutil.NormalizeCountry(country) == user {
				eligible = true
				break
			}
		}
		if !eligible {
			reasons = append(reasons, "Restricted to: "+strings.Join(allowed, ", "))
		}
	}

	return len(reasons) == 0, reasons
}
