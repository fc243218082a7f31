package scholarship

import (
	"encoding/json"
	"fmt"
	"os"
)

// Proposed wraps an extracted candidate with discovery metadata for human review.
type Proposed struct {
	Extracted       *Extracted `json:"extracted"`
	SearchQueryUsed string     `json:"search_query_used"`
	DiscoveryRank   int        `json:"discovery_rank"`
	IsDuplicate     bool       `json:"is_duplicate"`
	// DuplicateOf stays nil: in-batch duplicates have no persisted id to point at.
	DuplicateOf *string `json:"duplicate_of"`
}

// Proposals is an ordered batch of discovered candidates.
type Proposals struct {
	Items []*Proposed
}

func (p *Proposals) Len() int {
	return len(p.Items)
}

// DumpToTmpFile writes the proposals as indented JSON to a new temporary file.
func (p *Proposals) DumpToTmpFile(dir string) (string, error) {
	file, err := os.CreateTemp(dir, "proposals_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p.Items); err != nil {
		return "", err
	}
	return file.Name(), nil
}

// ReportByProvider groups a short summary of every proposal under its provider.
func (p *Proposals) ReportByProvider() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, item := range p.Items {
		ex := item.Extracted
		if ex == nil {
			continue
		}

		entry := map[string]string{
			"name":       ex.Name,
			"rank":       fmt.Sprintf("%d", item.DiscoveryRank),
			"confidence": fmt.Sprintf("%.2f", ex.Confidence),
			"funding":    string(ex.FundingType),
		}
		if u := ex.OfficialURLValue(); u != "" {
			entry["url"] = u
		}
		if ex.Deadline != nil {
			entry["deadline"] = ex.Deadline.Format("2006-01-02")
		}
		if len(ex.Flags) > 0 {
			entry["flags"] = fmt.Sprintf("%v", ex.Flags)
		}
		if item.IsDuplicate {
			entry["duplicate"] = "true"
		}

		report[ex.Provider] = append(report[ex.Provider], entry)
	}
	return report
}
