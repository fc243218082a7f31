package matching

// Weights are the maximum points each factor contributes. DefaultWeights sum to 100.
type Weights struct {
	Status      int
	Deadline    int
	Field       int
	Level       int
	Country     int
	Nationality int
	Interest    int
}

// DefaultWeights is the production weighting.
var DefaultWeights = Weights{
	Status:      15,
	Deadline:    10,
	Field:       25,
	Level:       20,
	Country:     10,
	Nationality: 10,
	Interest:    10,
}

const (
	// closedScoreCap bounds the score of any scholarship whose status is not OPEN.
	closedScoreCap = 30
	maxScore       = 100

	deadlineComfortableDays = 30
	deadlineSoonDays        = 7

	fieldOverlapBoost    = 2.0
	interestOverlapBoost = 3.0
	fieldMatchOverlap    = 0.3
	interestMatchOverlap = 0.2
)

type levelAlias struct {
	phrase string
	tokens []string
}

// levelAliases maps natural-language education levels to the level tokens used by
// scholarship records. Every phrase related to the profile level is tried in order.
var levelAliases = []levelAlias{
	{phrase: "high school", tokens: []string{"HIGH_SCHOOL", "UNDERGRADUATE"}},
	{phrase: "bachelor's degree", tokens: []string{"BACHELORS", "UNDERGRADUATE"}},
	{phrase: "master's degree", tokens: []string{"MASTERS", "GRADUATE", "POSTGRADUATE"}},
	{phrase: "phd", tokens: []string{"PHD", "DOCTORAL", "GRADUATE", "POSTGRADUATE"}},
}

func third(v int) int   { return v / 3 }
func half(v int) int    { return v / 2 }
func quarter(v int) int { return v / 4 }
