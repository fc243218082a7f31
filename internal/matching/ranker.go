package matching

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/spigell/scholara/internal/ai"
	"github.com/spigell/scholara/internal/logger"
	"github.com/spigell/scholara/internal/scholarship"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	MinLimit = 1
	MaxLimit = 100

	defaultConcurrency = 4
)

// ErrInvalidLimit is returned when a rank limit falls outside [MinLimit, MaxLimit].
var ErrInvalidLimit = errors.New("limit must be between 1 and 100")

// Options configures a Ranker.
type Options struct {
	// Explanations enables narrative explanations from the completer.
	Explanations bool
	// Concurrency bounds in-flight explanation requests.
	Concurrency int
	// Timeout bounds each explanation request.
	Timeout time.Duration
	Weights *Weights
}

// Ranker scores every record for a profile, keeps the best ones and explains them.
type Ranker struct {
	completer ai.Completer
	opts      Options
	weights   Weights
	logger    *zap.Logger
}

// NewRanker builds a Ranker. A nil completer disables narrative explanations.
func NewRanker(completer ai.Completer, opts Options, log *zap.Logger) *Ranker {
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}

	weights := DefaultWeights
	if opts.Weights != nil {
		weights = *opts.Weights
	}

	if completer == nil {
		completer = ai.Unavailable{}
		opts.Explanations = false
	}

	provider, model := ai.Describe(completer)

	return &Ranker{
		completer: completer,
		opts:      opts,
		weights:   weights,
		logger:    logger.WithCommonFields(log, provider, model),
	}
}

type scored struct {
	record  *scholarship.Record
	score   int
	reasons []string
	missing []string
}

// Rank returns at most limit results ordered by score, highest first. Equal scores
// keep input order. Every record is scored before truncation.
func (r *Ranker) Rank(ctx context.Context, profile *scholarship.UserProfile, records []scholarship.Record, limit int) ([]*scholarship.MatchResult, error) {
	if limit < MinLimit || limit > MaxLimit {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidLimit, limit)
	}
	if profile == nil {
		return nil, errors.New("profile is required")
	}

	all := make([]scored, 0, len(records))
	for i := range records {
		score, reasons, missing := r.weights.Score(profile, &records[i])
		all = append(all, scored{record: &records[i], score: score, reasons: reasons, missing: missing})
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].score > all[j].score
	})

	if len(all) > limit {
		all = all[:limit]
	}

	completeness := ProfileCompleteness(profile)
	results := make([]*scholarship.MatchResult, len(all))
	for i, s := range all {
		results[i] = &scholarship.MatchResult{
			ScholarshipID:       s.record.ID,
			Score:               s.score,
			Reasons:             s.reasons,
			MissingRequirements: s.missing,
			Confidence:          MatchConfidence(s.score, completeness),
		}
	}

	r.explainAll(ctx, profile, all, results)

	r.logger.Info("ranked scholarships",
		zap.String("profile_id", profile.ID),
		zap.Int("evaluated", len(records)),
		zap.Int("returned", len(results)),
		zap.Float64("profile_completeness", completeness),
	)

	return results, nil
}

// Match answers a MatchRequest, applying the default limit when unset.
func (r *Ranker) Match(ctx context.Context, req *scholarship.MatchRequest) (*scholarship.MatchResponse, error) {
	limit := req.Limit
	if limit == 0 {
		limit = scholarship.DefaultMatchLimit
	}

	matches, err := r.Rank(ctx, &req.UserProfile, req.Scholarships, limit)
	if err != nil {
		return nil, err
	}

	return &scholarship.MatchResponse{
		Matches:             matches,
		TotalEvaluated:      len(req.Scholarships),
		ProfileCompleteness: ProfileCompleteness(&req.UserProfile),
	}, nil
}

func (r *Ranker) explainAll(ctx context.Context, profile *scholarship.UserProfile, all []scored, results []*scholarship.MatchResult) {
	var g errgroup.Group
	g.SetLimit(r.opts.Concurrency)

	for i := range all {
		s := all[i]
		result := results[i]

		if !r.opts.Explanations || s.score <= explanationMinScore {
			result.Explanation = FallbackExplanation(s.record.Title, s.score, s.reasons)
			continue
		}

		g.Go(func() error {
			result.Explanation = r.explain(ctx, profile, s)
			return nil
		})
	}

	_ = g.Wait()
}
