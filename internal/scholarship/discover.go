package scholarship

// DefaultMaxResults applies when a discover request does not set max_results.
const DefaultMaxResults = 5

// DiscoverRequest asks for new candidates matching a free-text query and filters.
type DiscoverRequest struct {
	Query       string `json:"query" binding:"required"`
	DegreeLevel string `json:"degree_level,omitempty"`
	Country     string `json:"country,omitempty"`
	Year        *int   `json:"year,omitempty"`
	MaxResults  int    `json:"max_results" binding:"omitempty,min=1,max=15"`
}

// DiscoverResponse carries proposals for human review plus run counters.
type DiscoverResponse struct {
	Proposed          []*Proposed `json:"proposed"`
	Query             string      `json:"query"`
	TotalURLsSearched int         `json:"total_urls_searched"`
	TotalURLsParsed   int         `json:"total_urls_parsed"`
	Errors            []string    `json:"errors"`
}

// Proposals wraps the response items for reporting and dumping.
func (r *DiscoverResponse) Proposals() *Proposals {
	return &Proposals{Items: r.Proposed}
}
