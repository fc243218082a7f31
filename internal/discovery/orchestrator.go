// Package discovery runs search, fetch, parse, extraction, validation and
// in-batch duplicate detection to propose new scholarships for review.
// Nothing is persisted.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/spigell/scholara/internal/fetch"
	"github.com/spigell/scholara/internal/logger"
	"github.com/spigell/scholara/internal/parse"
	"github.com/spigell/scholara/internal/scholarship"
	"github.com/spigell/scholara/internal/search"
	"go.uber.org/zap"
)

const (
	MinMaxResults = 1
	MaxMaxResults = 15

	// searchOverfetch absorbs fetch and parse failures.
	searchOverfetch = 2
	minTextChars    = 50

	noResultsMessage = "No search results found. Try a different query."
)

// ErrInvalidMaxResults is returned when max_results falls outside [1, 15].
var ErrInvalidMaxResults = errors.New("max_results must be between 1 and 15")

// ErrEmptyQuery is returned when the query is blank after trimming.
var ErrEmptyQuery = errors.New("query is required")

// Extractor turns page text into a record. It must not fail.
type Extractor interface {
	Extract(ctx context.Context, pageText, sourceURL, snippet string) *scholarship.Extracted
}

// Validator adjusts flags and confidence of a record in place.
type Validator interface {
	Validate(e *scholarship.Extracted) *scholarship.Extracted
}

// Orchestrator wires the discovery collaborators together.
type Orchestrator struct {
	searcher  search.Searcher
	fetcher   fetch.Fetcher
	parser    parse.Parser
	extractor Extractor
	validator Validator
	logger    *zap.Logger
}

func New(searcher search.Searcher, fetcher fetch.Fetcher, parser parse.Parser, extractor Extractor, validator Validator, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		searcher:  searcher,
		fetcher:   fetcher,
		parser:    parser,
		extractor: extractor,
		validator: validator,
		logger:    log,
	}
}

// Discover visits search results in rank order until req.MaxResults proposals are
// collected. Per-URL failures are reported in Errors and never abort the run.
func (o *Orchestrator) Discover(ctx context.Context, req scholarship.DiscoverRequest) (*scholarship.DiscoverResponse, error) {
	maxResults := req.MaxResults
	if maxResults == 0 {
		maxResults = scholarship.DefaultMaxResults
	}
	if maxResults < MinMaxResults || maxResults > MaxMaxResults {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidMaxResults, maxResults)
	}
	if strings.TrimSpace(req.Query) == "" {
		return nil, ErrEmptyQuery
	}

	query := BuildQuery(req)
	log := logger.WithFields(o.logger, logger.DiscoveryFields(o.searcher.Name(), query, "")...)

	log.Info("discovery started", zap.Int("max_results", maxResults))

	results := o.searcher.Search(ctx, query, maxResults*searchOverfetch)

	resp := &scholarship.DiscoverResponse{
		Proposed:          []*scholarship.Proposed{},
		Query:             query,
		TotalURLsSearched: len(results),
		Errors:            []string{},
	}

	if len(results) == 0 {
		resp.Errors = append(resp.Errors, noResultsMessage)
		log.Info("discovery finished", zap.String("reason", "no search results"))
		return resp, nil
	}

	for i, result := range results {
		if len(resp.Proposed) >= maxResults {
			break
		}
		if err := ctx.Err(); err != nil {
			resp.Errors = append(resp.Errors, fmt.Sprintf("Discovery stopped: %v", err))
			break
		}

		rank := i + 1
		pageLog := log.With(zap.String(logger.FieldURL, result.URL), zap.Int("rank", rank))

		raw, err := o.fetcher.Fetch(ctx, result.URL)
		if err != nil || raw == "" {
			pageLog.Warn("fetch failed", zap.Error(err))
			resp.Errors = append(resp.Errors, "Failed to fetch: "+result.URL)
			continue
		}

		text := o.parser.Parse(raw, result.URL)
		if utf8.RuneCountInString(text) < minTextChars {
			pageLog.Warn("no useful content", zap.Int("chars", utf8.RuneCountInString(text)))
			resp.Errors = append(resp.Errors, "No useful content from: "+result.URL)
			continue
		}
		resp.TotalURLsParsed++

		extracted := o.validator.Validate(o.extractor.Extract(ctx, text, result.URL, result.Snippet))

		duplicate := IsDuplicate(extracted, resp.Proposed)
		resp.Proposed = append(resp.Proposed, &scholarship.Proposed{
			Extracted:       extracted,
			SearchQueryUsed: query,
			DiscoveryRank:   rank,
			IsDuplicate:     duplicate,
		})

		pageLog.Info("extracted candidate",
			zap.String("name", truncateName(extracted.Name)),
			zap.Float64("confidence", extracted.Confidence),
			zap.Strings("flags", extracted.Flags),
			zap.Bool("duplicate", duplicate),
		)
	}

	log.Info("discovery finished",
		zap.Int("proposed", len(resp.Proposed)),
		zap.Int("parsed", resp.TotalURLsParsed),
		zap.Int("errors", len(resp.Errors)),
	)

	return resp, nil
}

// BuildQuery appends the non-empty filters and the word "scholarship" to the query.
func BuildQuery(req scholarship.DiscoverRequest) string {
	parts := []string{strings.TrimSpace(req.Query)}
	if v := strings.TrimSpace(req.DegreeLevel); v != "" {
		parts = append(parts, v)
	}
	if v := strings.TrimSpace(req.Country); v != "" {
		parts = append(parts, v)
	}
	if req.Year != nil && *req.Year != 0 {
		parts = append(parts, strconv.Itoa(*req.Year))
	}
	parts = append(parts, "scholarship")
	return strings.Join(parts, " ")
}

func truncateName(name string) string {
	runes := []rune(name)
	if len(runes) > 50 {
		return string(runes[:50])
	}
	return name
}
