package search

import (
	"context"
	"net/url"
	"strconv"

	"go.uber.org/zap"
)

const (
	tavilyEndpoint  = "https://api.tavily.com/search"
	serpAPIEndpoint = "https://serpapi.com/search"
	braveEndpoint   = "https://api.search.brave.com/res/v1/web/search"
)

// Tavily queries the Tavily search API.
type Tavily struct {
	*client
	endpoint string
}

func newTavily(c *client) *Tavily {
	return &Tavily{client: c, endpoint: tavilyEndpoint}
}

func (t *Tavily) Name() string { return ProviderTavily }

func (t *Tavily) Search(ctx context.Context, query string, maxResults int) []Result {
	payload := map[string]any{
		"api_key":        t.apiKey,
		"query":          query,
		"max_results":    maxResults,
		"search_depth":   "advanced",
		"include_answer": false,
	}

	var resp struct {
		Results []struct {
			Title   string `json:"title"`
			URL     string `json:"url"`
			Content string `json:"content"`
		} `json:"results"`
	}

	if err := t.postJSON(ctx, t.endpoint, payload, nil, &resp); err != nil {
		t.logger.Error("tavily search failed", zap.String("query", query), zap.Error(err))
		return nil
	}

	results := make([]Result, 0, len(resp.Results))
	for _, item := range resp.Results {
		results = append(results, Result{Title: item.Title, URL: item.URL, Snippet: item.Content})
	}

	t.logger.Info("search results", zap.String("query", query), zap.Int("count", len(results)))
	return results
}

// SerpAPI queries Google through SerpAPI.
type SerpAPI struct {
	*client
	endpoint string
}

func newSerpAPI(c *client) *SerpAPI {
	return &SerpAPI{client: c, endpoint: serpAPIEndpoint}
}

func (s *SerpAPI) Name() string { return ProviderSerpAPI }

func (s *SerpAPI) Search(ctx context.Context, query string, maxResults int) []Result {
	q := url.Values{}
	q.Set("api_key", s.apiKey)
	q.Set("q", query)
	q.Set("num", strconv.Itoa(maxResults))
	q.Set("engine", "google")

	var resp struct {
		OrganicResults []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"organic_results"`
	}

	if err := s.getJSON(ctx, s.endpoint, q, nil, &resp); err != nil {
		s.logger.Error("serpapi search failed", zap.String("query", query), zap.Error(err))
		return nil
	}

	results := make([]Result, 0, len(resp.OrganicResults))
	for _, item := range resp.OrganicResults {
		results = append(results, Result{Title: item.Title, URL: item.Link, Snippet: item.Snippet})
	}

	s.logger.Info("search results", zap.String("query", query), zap.Int("count", len(results)))
	return results
}

// Brave queries the Brave Search API.
type Brave struct {
	*client
	endpoint string
}

func newBrave(c *client) *Brave {
	return &Brave{client: c, endpoint: braveEndpoint}
}

func (b *Brave) Name() string { return ProviderBrave }

func (b *Brave) Search(ctx context.Context, query string, maxResults int) []Result {
	q := url.Values{}
	q.Set("q", query)
	q.Set("count", strconv.Itoa(maxResults))

	var resp struct {
		Web struct {
			Results []struct {
				Title       string `json:"title"`
				URL         string `json:"url"`
				Description string `json:"description"`
			} `json:"results"`
		} `json:"web"`
	}

	headers := map[string]string{"X-Subscription-Token": b.apiKey}
	if err := b.getJSON(ctx, b.endpoint, q, headers, &resp); err != nil {
		b.logger.Error("brave search failed", zap.String("query", query), zap.Error(err))
		return nil
	}

	results := make([]Result, 0, len(resp.Web.Results))
	for _, item := range resp.Web.Results {
		results = append(results, Result{Title: item.Title, URL: item.URL, Snippet: item.Description})
	}

	b.logger.Info("search results", zap.String("query", query), zap.Int("count", len(results)))
	return results
}
