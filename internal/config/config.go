// Package config holds the explicit configuration object decoded by viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/spigell/scholara/internal/scholarship"
)

const (
	AIProviderGemini = "gemini"
	AIProviderCohere = "cohere"
	AIProviderNone   = "none"

	defaultListen       = ":8000"
	defaultSchedule     = "@every 24h"
	defaultCompletionTO = 30 * time.Second
	defaultMaxLogLength = 200
	defaultCacheTTL     = 24 * time.Hour
)

var (
	ErrUnsupportedAIProvider     = errors.New("ai.provider must be one of: gemini, cohere, none")
	ErrUnsupportedSearchProvider = errors.New("search.provider must be one of: tavily, serpapi, brave, rss, none")
	ErrMissingCacheURL           = errors.New("cache.url is required when cache is enabled")
	ErrInvalidWatchQuery         = errors.New("discovery.queries entries need a query and max-results between 1 and 15")
)

var searchProviders = map[string]struct{}{
	"tavily":  {},
	"serpapi": {},
	"brave":   {},
	"rss":     {},
	"none":    {},
}

type Config struct {
	AI        AIConfig        `mapstructure:"ai"`
	Search    SearchConfig    `mapstructure:"search"`
	Fetch     FetchConfig     `mapstructure:"fetch"`
	Parse     ParseConfig     `mapstructure:"parse"`
	Matching  MatchingConfig  `mapstructure:"matching"`
	Discovery DiscoveryConfig `mapstructure:"discovery"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Server    ServerConfig    `mapstructure:"server"`
}

type AIConfig struct {
	Provider     string        `mapstructure:"provider"`
	Model        string        `mapstructure:"model"`
	APIKeyFile   string        `mapstructure:"api-key-file"`
	MaxRetries   int           `mapstructure:"max-retries"`
	MaxLogLength int           `mapstructure:"max-log-length"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

type SearchConfig struct {
	Provider   string        `mapstructure:"provider"`
	APIKeyFile string        `mapstructure:"api-key-file"`
	Timeout    time.Duration `mapstructure:"timeout"`
	Feeds      []string      `mapstructure:"feeds"`
}

type FetchConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	UserAgent    string        `mapstructure:"user-agent"`
	RatePerHost  float64       `mapstructure:"rate-per-host"`
	Burst        int           `mapstructure:"burst"`
	MaxBodyBytes int64         `mapstructure:"max-body-bytes"`
}

type ParseConfig struct {
	MaxChars int `mapstructure:"max-chars"`
}

type MatchingConfig struct {
	Explanations           bool `mapstructure:"explanations"`
	ExplanationConcurrency int  `mapstructure:"explanation-concurrency"`
}

type DiscoveryConfig struct {
	Schedule string       `mapstructure:"schedule"`
	Queries  []WatchQuery `mapstructure:"queries"`
	DumpDir  string       `mapstructure:"dump-dir"`
}

// WatchQuery is one scheduled discovery run.
type WatchQuery struct {
	Query       string `mapstructure:"query"`
	DegreeLevel string `mapstructure:"degree-level"`
	Country     string `mapstructure:"country"`
	Year        int    `mapstructure:"year"`
	MaxResults  int    `mapstructure:"max-results"`
}

// Request converts q into a discovery request.
func (q WatchQuery) Request() scholarship.DiscoverRequest {
	req := scholarship.DiscoverRequest{
		Query:       q.Query,
		DegreeLevel: q.DegreeLevel,
		Country:     q.Country,
		MaxResults:  q.MaxResults,
	}
	if q.Year != 0 {
		year := q.Year
		req.Year = &year
	}
	return req
}

type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	URL     string        `mapstructure:"url"`
	TTL     time.Duration `mapstructure:"ttl"`
}

type ServerConfig struct {
	Listen          string `mapstructure:"listen"`
	InternalKeyFile string `mapstructure:"internal-key-file"`
}

// Load decodes v into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	v.SetDefault("matching.explanations", true)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Validate fills defaults and rejects unsupported values.
func (c *Config) Validate() error {
	c.AI.Provider = strings.ToLower(strings.TrimSpace(c.AI.Provider))
	if c.AI.Provider == "" {
		c.AI.Provider = AIProviderNone
	}
	switch c.AI.Provider {
	case AIProviderGemini, AIProviderCohere, AIProviderNone:
	default:
		return fmt.Errorf("%w: got %q", ErrUnsupportedAIProvider, c.AI.Provider)
	}
	if c.AI.MaxLogLength <= 0 {
		c.AI.MaxLogLength = defaultMaxLogLength
	}
	if c.AI.Timeout <= 0 {
		c.AI.Timeout = defaultCompletionTO
	}

	c.Search.Provider = strings.ToLower(strings.TrimSpace(c.Search.Provider))
	if c.Search.Provider == "" {
		c.Search.Provider = "none"
	}
	if _, ok := searchProviders[c.Search.Provider]; !ok {
		return fmt.Errorf("%w: got %q", ErrUnsupportedSearchProvider, c.Search.Provider)
	}

	if c.Discovery.Schedule == "" {
		c.Discovery.Schedule = defaultSchedule
	}
	for i, q := range c.Discovery.Queries {
		if strings.TrimSpace(q.Query) == "" || q.MaxResults < 0 || q.MaxResults > 15 {
			return fmt.Errorf("%w: queries[%d]", ErrInvalidWatchQuery, i)
		}
	}

	if c.Cache.Enabled && strings.TrimSpace(c.Cache.URL) == "" {
		return ErrMissingCacheURL
	}
	if c.Cache.TTL <= 0 {
		c.Cache.TTL = defaultCacheTTL
	}

	if c.Server.Listen == "" {
		c.Server.Listen = defaultListen
	}

	return nil
}
