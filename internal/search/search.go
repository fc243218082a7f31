// Package search finds candidate scholarship pages through a configurable web
// search backend. Backend failures are logged and yield no results.
package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Supported provider names.
const (
	ProviderTavily  = "tavily"
	ProviderSerpAPI = "serpapi"
	ProviderBrave   = "brave"
	ProviderRSS     = "rss"
	ProviderNone    = "none"
)

const defaultTimeout = 15 * time.Second

// Result is one search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Searcher returns up to maxResults hits for query, in rank order.
type Searcher interface {
	Name() string
	Search(ctx context.Context, query string, maxResults int) []Result
}

// Options selects and configures a backend.
type Options struct {
	Provider  string
	APIKey    string
	Timeout   time.Duration
	UserAgent string
	Feeds     []string
}

// New returns the Searcher for opts.Provider.
func New(opts Options, log *zap.Logger) (Searcher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}

	provider := strings.ToLower(strings.TrimSpace(opts.Provider))
	log = log.With(zap.String("search_provider", provider))

	switch provider {
	case ProviderTavily:
		return newTavily(newClient(opts, log)), nil
	case ProviderSerpAPI:
		return newSerpAPI(newClient(opts, log)), nil
	case ProviderBrave:
		return newBrave(newClient(opts, log)), nil
	case ProviderRSS:
		return NewRSS(opts.Feeds, opts.Timeout, opts.UserAgent, log), nil
	case ProviderNone, "":
		return None{logger: log}, nil
	default:
		return nil, fmt.Errorf("unsupported search provider: %s", opts.Provider)
	}
}

// None is the disabled backend.
type None struct {
	logger *zap.Logger
}

func (None) Name() string { return ProviderNone }

func (n None) Search(context.Context, string, int) []Result {
	if n.logger != nil {
		n.logger.Warn("search provider is none, returning empty results")
	}
	return nil
}
