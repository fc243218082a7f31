package validation

import (
	"math"
	"strings"

	"github.com/spigell/scholara/internal/dates"
	"github.com/spigell/scholara/internal/scholarship"
)

// Rule is one validation step. Apply may only add flags and lower confidence.
type Rule interface {
	Name() string
	Apply(e *scholarship.Extracted) []string
}

// requiredEvidence lists the fields that must be backed by a quote, in flag order.
var requiredEvidence = []string{"deadline", "funding_type", "nationalities_allowed", "value"}

var fundingEvidence = []string{"funding_type", "value", "tuition", "stipend"}

const (
	missingURLCeiling      = 0.4
	fundingPenalty         = 0.8
	evidenceFloor          = 0.3
	evidenceSpan           = 0.7
	needsReviewCeiling     = 0.2
	unknownProviderCeiling = 0.3
)

// DefaultRules returns the production rule order.
func DefaultRules() []Rule {
	return []Rule{
		expiredRule{},
		officialURLRule{},
		fundingRule{},
		evidenceRule{},
		identityRule{},
		providerRule{},
	}
}

type expiredRule struct{}

func (expiredRule) Name() string { return "expired" }

func (expiredRule) Apply(e *scholarship.Extracted) []string {
	if e.Deadline == nil || !dates.IsExpired(e.Deadline.Time) {
		return nil
	}
	return addFlags(e, scholarship.FlagExpired)
}

type officialURLRule struct{}

func (officialURLRule) Name() string { return "official_url" }

func (officialURLRule) Apply(e *scholarship.Extracted) []string {
	if e.OfficialURLValue() != "" {
		return nil
	}
	capConfidence(e, missingURLCeiling)
	return addFlags(e, scholarship.FlagMissingOfficialURL)
}

// fundingRule discounts an unbacked funding claim once. A record already carrying
// the flag was discounted by an earlier pass.
type fundingRule struct{}

func (fundingRule) Name() string { return "funding_evidence" }

func (fundingRule) Apply(e *scholarship.Extracted) []string {
	if e.FundingType == scholarship.FundingUnknown || e.FundingType == "" {
		return nil
	}
	if e.HasEvidenceFor(fundingEvidence...) {
		return nil
	}
	if !e.AddFlag(scholarship.FlagFundingTypeUnverified) {
		return nil
	}
	capConfidence(e, e.Confidence*fundingPenalty)
	return []string{scholarship.FlagFundingTypeUnverified}
}

// evidenceRule flags every required field without a quote and applies one
// combined ceiling based on coverage.
type evidenceRule struct{}

func (evidenceRule) Name() string { return "evidence_coverage" }

func (evidenceRule) Apply(e *scholarship.Extracted) []string {
	var added []string
	covered := 0
	for _, field := range requiredEvidence {
		if e.HasEvidenceFor(field) {
			covered++
			continue
		}
		added = append(added, addFlags(e, scholarship.FlagMissingEvidencePrefix+field)...)
	}

	if covered == len(requiredEvidence) {
		return nil
	}

	coverage := float64(covered) / float64(len(requiredEvidence))
	capConfidence(e, evidenceFloor+evidenceSpan*coverage)
	return added
}

type identityRule struct{}

func (identityRule) Name() string { return "identity" }

func (identityRule) Apply(e *scholarship.Extracted) []string {
	name := strings.TrimSpace(e.Name)
	if name != "" && !strings.HasPrefix(name, scholarship.UnknownNamePrefix) {
		return nil
	}
	capConfidence(e, needsReviewCeiling)
	return addFlags(e, scholarship.FlagNeedsReview)
}

type providerRule struct{}

func (providerRule) Name() string { return "provider" }

func (providerRule) Apply(e *scholarship.Extracted) []string {
	provider := strings.TrimSpace(e.Provider)
	if provider != "" && provider != scholarship.UnknownProvider {
		return nil
	}
	capConfidence(e, unknownProviderCeiling)
	return addFlags(e, scholarship.FlagUnknownProvider)
}

func addFlags(e *scholarship.Extracted, flags ...string) []string {
	var added []string
	for _, f := range flags {
		if e.AddFlag(f) {
			added = append(added, f)
		}
	}
	return added
}

func capConfidence(e *scholarship.Extracted, ceiling float64) {
	e.Confidence = math.Min(e.Confidence, ceiling)
}
