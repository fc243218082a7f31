package search

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/spigell/scholara/internal/textutil"
	"go.uber.org/zap"
)

// RSS searches a fixed set of scholarship feeds. An item matches when its title
// or summary shares a keyword with the query, ignoring words every scholarship
// feed item carries. A query made only of such words matches every item.
type RSS struct {
	feeds  []string
	parser *gofeed.Parser
	logger *zap.Logger
}

func NewRSS(feeds []string, timeout time.Duration, userAgent string, log *zap.Logger) *RSS {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: timeout}
	if userAgent != "" {
		parser.UserAgent = userAgent
	}

	if log == nil {
		log = zap.NewNop()
	}

	return &RSS{feeds: feeds, parser: parser, logger: log}
}

func (r *RSS) Name() string { return ProviderRSS }

func (r *RSS) Search(ctx context.Context, query string, maxResults int) []Result {
	results := make([]Result, 0, maxResults)
	seen := make(map[string]struct{})
	terms := feedTerms(query)

	for _, feedURL := range r.feeds {
		if len(results) >= maxResults {
			break
		}

		feed, err := r.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			r.logger.Error("rss feed failed", zap.String("feed", feedURL), zap.Error(err))
			continue
		}

		for _, item := range feed.Items {
			if len(results) >= maxResults {
				break
			}
			if item == nil || item.Link == "" {
				continue
			}
			if _, ok := seen[item.Link]; ok {
				continue
			}

			summary := item.Description
			if summary == "" {
				summary = item.Content
			}

			if terms != "" && textutil.KeywordOverlap(terms, item.Title+" "+summary) == 0 {
				continue
			}

			seen[item.Link] = struct{}{}
			results = append(results, Result{
				Title:   strings.TrimSpace(item.Title),
				URL:     item.Link,
				Snippet: textutil.Truncate(textutil.CleanText(summary), 500),
			})
		}
	}

	r.logger.Info("search results", zap.String("query", query), zap.Int("count", len(results)))
	return results
}

var genericFeedTerms = map[string]struct{}{
	"scholarship":  {},
	"scholarships": {},
}

func feedTerms(query string) string {
	var kept []string
	for _, word := range strings.Fields(query) {
		if _, ok := genericFeedTerms[strings.ToLower(word)]; ok {
			continue
		}
		kept = append(kept, word)
	}
	return strings.Join(kept, " ")
}
