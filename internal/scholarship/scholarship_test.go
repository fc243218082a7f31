package scholarship

import (
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"
)

func TestCompleteness(t *testing.T) {
	tests := []struct {
		name    string
		profile UserProfile
		want    float64
	}{
		{"empty", UserProfile{ID: "u"}, 0},
		{"two of five", UserProfile{Nationality: "Kenya", FieldOfStudy: "Law"}, 0.4},
		{"full", UserProfile{
			Nationality:     "Kenya",
			ResidingCountry: "Kenya",
			EducationLevel:  "Bachelor",
			FieldOfStudy:    "Law",
			Interests:       []string{"justice"},
		}, 1},
		{"institution is not counted", UserProfile{CurrentInstitution: "UoN"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.profile.Completeness(); got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestRecordEligibility(t *testing.T) {
	var rec Record
	if err := json.Unmarshal([]byte(`{"id":"s1","eligibility":{"nationalities_allowed":["Kenya", 3, "Ghana"]}}`), &rec); err != nil {
		t.Fatalf("decoding record: %v", err)
	}

	m, ok := rec.EligibilityMap()
	if !ok {
		t.Fatalf("expected eligibility map")
	}
	if got := strings.Join(AllowedNationalities(m), ","); got != "Kenya,Ghana" {
		t.Fatalf("unexpected nationalities %q", got)
	}

	for _, raw := range []string{`{"eligibility":["a"]}`, `{"eligibility":{}}`, `{}`} {
		var r Record
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			t.Fatalf("decoding %s: %v", raw, err)
		}
		if _, ok := r.EligibilityMap(); ok {
			t.Fatalf("%s: expected no eligibility map", raw)
		}
	}
}

func TestDateJSON(t *testing.T) {
	d := Date{time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}
	b, err := json.Marshal(d)
	if err != nil || string(b) != `"2026-03-01"` {
		t.Fatalf("unexpected encoding %s, %v", b, err)
	}

	var back Date
	if err := json.Unmarshal([]byte(`"2025-12-31"`), &back); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if back.Year() != 2025 || back.Month() != time.December || back.Day() != 31 {
		t.Fatalf("unexpected date %v", back)
	}
	if err := json.Unmarshal([]byte(`"31/12/2025"`), &back); err == nil {
		t.Fatalf("expected error for non-iso date")
	}
}

func TestExtractedFlags(t *testing.T) {
	e := NewPlaceholder("Unknown (error from x)", "https://x.example", 0, FlagExtractionError)

	if e.Provider != UnknownProvider || e.FundingType != FundingUnknown || e.DeadlineType != DeadlineUnknown {
		t.Fatalf("unexpected placeholder %+v", e)
	}
	if !e.AddFlag(FlagNeedsReview) || e.AddFlag(FlagNeedsReview) {
		t.Fatalf("expected AddFlag to add once")
	}
	e.EnsureSourceURL("https://x.example")
	e.EnsureSourceURL("https://y.example")
	if len(e.SourceURLs) != 2 {
		t.Fatalf("expected 2 source urls, got %v", e.SourceURLs)
	}
}

func TestExtractedEncodesMissingValuesAsNull(t *testing.T) {
	b, err := json.Marshal(NewPlaceholder(UnknownNamePrefix+" (error from x)", "https://x.example", 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, key := range []string{"official_url", "deadline", "field_of_study", "country", "duration", "value", "description"} {
		if !strings.Contains(string(b), `"`+key+`":null`) {
			t.Fatalf("expected %s to be null in %s", key, b)
		}
	}

	official := "https://x.example/apply"
	e := NewPlaceholder("Award", "https://x.example", 0)
	e.OfficialURL = &official
	e.Deadline = &Date{time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)}
	b, err = json.Marshal(e)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(b), `"official_url":"https://x.example/apply"`) || !strings.Contains(string(b), `"deadline":"2026-05-01"`) {
		t.Fatalf("unexpected encoding %s", b)
	}
}

func TestProposalsReportAndDump(t *testing.T) {
	url := "https://example.org/award"
	proposals := &Proposals{Items: []*Proposed{
		{Extracted: &Extracted{Name: "A", Provider: "Org", OfficialURL: &url, Confidence: 0.8, FundingType: FundingFull}, DiscoveryRank: 1},
		{Extracted: &Extracted{Name: "B", Provider: "Org", Flags: []string{FlagNeedsReview}}, DiscoveryRank: 2, IsDuplicate: true},
		{Extracted: &Extracted{Name: "C", Provider: "Other"}, DiscoveryRank: 3},
	}}

	report := proposals.ReportByProvider()
	if len(report["Org"]) != 2 || len(report["Other"]) != 1 {
		t.Fatalf("unexpected report %v", report)
	}
	first := report["Org"][0]
	if first["url"] != url || first["confidence"] != "0.80" || first["funding"] != "full" {
		t.Fatalf("unexpected entry %v", first)
	}
	if report["Org"][1]["duplicate"] != "true" {
		t.Fatalf("expected duplicate marker, got %v", report["Org"][1])
	}

	filename, err := proposals.DumpToTmpFile(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		t.Fatalf("reading dump: %v", err)
	}
	var items []Proposed
	if err := json.Unmarshal(data, &items); err != nil {
		t.Fatalf("decoding dump: %v", err)
	}
	if len(items) != 3 || items[1].IsDuplicate != true || items[2].DiscoveryRank != 3 {
		t.Fatalf("unexpected dump %+v", items)
	}
}
