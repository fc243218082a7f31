package scholarship

// StatusOpen is the only status that earns the status weight.
const StatusOpen = "OPEN"

// Record is a verified scholarship as stored upstream. Eligibility, Benefits and
// Requirements are loosely typed: a JSON object, a JSON array, or absent.
type Record struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Provider     string  `json:"provider"`
	Country      string  `json:"country"`
	Description  string  `json:"description"`
	Status       string  `json:"status"`
	Level        string  `json:"level"`
	Duration     *string `json:"duration,omitempty"`
	Deadline     *string `json:"deadline,omitempty"`
	Value        string  `json:"value"`
	FieldOfStudy string  `json:"fieldOfStudy"`
	Type         string  `json:"type"`
	Eligibility  any     `json:"eligibility,omitempty"`
	Benefits     any     `json:"benefits,omitempty"`
	Requirements any     `json:"requirements,omitempty"`
	Featured     bool    `json:"featured"`
}

// DeadlineValue returns the raw deadline or an empty string.
func (r *Record) DeadlineValue() string {
	if r.Deadline == nil {
		return ""
	}
	return *r.Deadline
}

// EligibilityMap returns the eligibility object when it is a non-empty JSON object.
func (r *Record) EligibilityMap() (map[string]any, bool) {
	m, ok := r.Eligibility.(map[string]any)
	if !ok || len(m) == 0 {
		return nil, false
	}
	return m, true
}

// AllowedNationalities reads eligibility.nationalities_allowed, skipping non-string entries.
func AllowedNationalities(eligibility map[string]any) []string {
	raw, ok := eligibility["nationalities_allowed"]
	if !ok || raw == nil {
		return nil
	}

	var out []string
	switch list := raw.(type) {
	case []string:
		out = append(out, list...)
	case []any:
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
	}
	return out
}
