package discovery

import (
	"strings"

	"github.com/spigell/scholara/internal/scholarship"
	"github.com/spigell/scholara/internal/textutil"
)

// IsDuplicate reports whether candidate repeats a proposal already accepted in
// this batch: same official URL ignoring a trailing slash, or a name and provider
// that both contain the earlier ones.
func IsDuplicate(candidate *scholarship.Extracted, existing []*scholarship.Proposed) bool {
	candidateURL := normalizeURL(candidate.OfficialURLValue())

	for _, p := range existing {
		ex := p.Extracted
		if ex == nil {
			continue
		}

		if candidateURL != "" && candidateURL == normalizeURL(ex.OfficialURLValue()) {
			return true
		}

		if sameIdentity(candidate.Name, ex.Name) && sameIdentity(candidate.Provider, ex.Provider) {
			return true
		}
	}

	return false
}

func sameIdentity(candidate, existing string) bool {
	if strings.TrimSpace(candidate) == "" || strings.TrimSpace(existing) == "" {
		return false
	}
	return textutil.FuzzyContains(candidate, existing)
}

func normalizeURL(u string) string {
	return strings.TrimRight(strings.TrimSpace(u), "/")
}
