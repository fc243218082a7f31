package scholarship

import "math"

// MatchResult is one ranked scholarship for a profile.
type MatchResult struct {
	ScholarshipID       string   `json:"scholarship_id"`
	Score               int      `json:"score"`
	Reasons             []string `json:"reasons"`
	MissingRequirements []string `json:"missing_requirements"`
	Explanation         string   `json:"explanation"`
	Confidence          float64  `json:"confidence"`
}

// DefaultMatchLimit applies when a match request does not set a limit.
const DefaultMatchLimit = 20

// MatchRequest asks for the best scholarships for one profile.
type MatchRequest struct {
	UserProfile  UserProfile `json:"user_profile" binding:"required"`
	Scholarships []Record    `json:"scholarships"`
	Limit        int         `json:"limit" binding:"omitempty,min=1,max=100"`
}

// MatchResponse is the ranked answer to a MatchRequest.
type MatchResponse struct {
	Matches             []*MatchResult `json:"matches"`
	TotalEvaluated      int            `json:"total_evaluated"`
	ProfileCompleteness float64        `json:"profile_completeness"`
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Clamp01 bounds v to [0,1].
func Clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
