package config

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func load(t *testing.T, yaml string) (*Config, error) {
	t.Helper()

	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(strings.NewReader(yaml)); err != nil {
		t.Fatalf("reading yaml: %v", err)
	}

	return Load(v)
}

func TestLoadDecodesEverySection(t *testing.T) {
	cfg, err := load(t, `
ai:
  provider: Gemini
  model: gemini-2.5-pro
  api-key-file: /run/secrets/gemini
  max-retries: 5
  timeout: 45s
search:
  provider: rss
  feeds:
    - https://example.org/feed.xml
fetch:
  timeout: 10s
  rate-per-host: 0.5
  burst: 2
  max-body-bytes: 1048576
parse:
  max-chars: 6000
matching:
  explanations: true
  explanation-concurrency: 3
discovery:
  schedule: "@every 6h"
  dump-dir: /tmp/proposals
  queries:
    - query: engineering
      degree-level: masters
      year: 2026
      max-results: 4
cache:
  enabled: true
  url: redis://localhost:6379/0
  ttl: 2h
server:
  listen: ":9000"
  internal-key-file: /run/secrets/internal
`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.AI.Provider != AIProviderGemini || cfg.AI.Model != "gemini-2.5-pro" || cfg.AI.MaxRetries != 5 {
		t.Fatalf("unexpected ai config %+v", cfg.AI)
	}
	if cfg.AI.Timeout != 45*time.Second {
		t.Fatalf("expected ai timeout 45s, got %s", cfg.AI.Timeout)
	}
	if cfg.Search.Provider != "rss" || len(cfg.Search.Feeds) != 1 {
		t.Fatalf("unexpected search config %+v", cfg.Search)
	}
	if cfg.Fetch.Timeout != 10*time.Second || cfg.Fetch.RatePerHost != 0.5 || cfg.Fetch.Burst != 2 || cfg.Fetch.MaxBodyBytes != 1<<20 {
		t.Fatalf("unexpected fetch config %+v", cfg.Fetch)
	}
	if cfg.Parse.MaxChars != 6000 {
		t.Fatalf("unexpected parse config %+v", cfg.Parse)
	}
	if !cfg.Matching.Explanations || cfg.Matching.ExplanationConcurrency != 3 {
		t.Fatalf("unexpected matching config %+v", cfg.Matching)
	}
	if cfg.Cache.TTL != 2*time.Hour || !cfg.Cache.Enabled {
		t.Fatalf("unexpected cache config %+v", cfg.Cache)
	}
	if cfg.Server.Listen != ":9000" || cfg.Server.InternalKeyFile != "/run/secrets/internal" {
		t.Fatalf("unexpected server config %+v", cfg.Server)
	}

	if len(cfg.Discovery.Queries) != 1 {
		t.Fatalf("expected one watch query, got %d", len(cfg.Discovery.Queries))
	}
	req := cfg.Discovery.Queries[0].Request()
	if req.Query != "engineering" || req.DegreeLevel != "masters" || req.MaxResults != 4 {
		t.Fatalf("unexpected request %+v", req)
	}
	if req.Year == nil || *req.Year != 2026 {
		t.Fatalf("expected year 2026, got %v", req.Year)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := load(t, "parse:\n  max-chars: 0\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.AI.Provider != AIProviderNone || cfg.Search.Provider != "none" {
		t.Fatalf("expected providers to default to none, got %q/%q", cfg.AI.Provider, cfg.Search.Provider)
	}
	if cfg.AI.MaxLogLength != defaultMaxLogLength || cfg.AI.Timeout != defaultCompletionTO {
		t.Fatalf("unexpected ai defaults %+v", cfg.AI)
	}
	if cfg.Discovery.Schedule != defaultSchedule || cfg.Server.Listen != defaultListen || cfg.Cache.TTL != defaultCacheTTL {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Cache.Enabled {
		t.Fatalf("cache must be disabled by default")
	}
	if !cfg.Matching.Explanations {
		t.Fatalf("explanations must be enabled by default")
	}
}

func TestLoadRespectsDisabledExplanations(t *testing.T) {
	cfg, err := load(t, "ai:\n  provider: gemini\nmatching:\n  explanations: false\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Matching.Explanations {
		t.Fatalf("expected explanations to stay disabled")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{"ai provider", Config{AI: AIConfig{Provider: "openai"}}, ErrUnsupportedAIProvider},
		{"search provider", Config{Search: SearchConfig{Provider: "bing"}}, ErrUnsupportedSearchProvider},
		{"cache url", Config{Cache: CacheConfig{Enabled: true}}, ErrMissingCacheURL},
		{"empty watch query", Config{Discovery: DiscoveryConfig{Queries: []WatchQuery{{Query: " "}}}}, ErrInvalidWatchQuery},
		{"watch max results", Config{Discovery: DiscoveryConfig{Queries: []WatchQuery{{Query: "x", MaxResults: 16}}}}, ErrInvalidWatchQuery},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestWatchQueryWithoutYear(t *testing.T) {
	if req := (WatchQuery{Query: "x"}).Request(); req.Year != nil {
		t.Fatalf("expected no year, got %d", *req.Year)
	}
}
