package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/viper"
	"github.com/spigell/scholara/internal/ai"
	"github.com/spigell/scholara/internal/ai/cohere"
	"github.com/spigell/scholara/internal/ai/gemini"
	"github.com/spigell/scholara/internal/cache"
	"github.com/spigell/scholara/internal/config"
	"github.com/spigell/scholara/internal/discovery"
	"github.com/spigell/scholara/internal/extraction"
	"github.com/spigell/scholara/internal/fetch"
	"github.com/spigell/scholara/internal/logger"
	"github.com/spigell/scholara/internal/matching"
	"github.com/spigell/scholara/internal/parse"
	"github.com/spigell/scholara/internal/search"
	"github.com/spigell/scholara/internal/secrets"
	"github.com/spigell/scholara/internal/validation"
	"go.uber.org/zap"
)

// setup builds the logger and loads the config shared by every command.
func setup() (*zap.Logger, *config.Config) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	cfg, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Debug("starting with config",
		zap.String("ai_provider", cfg.AI.Provider),
		zap.String("search_provider", cfg.Search.Provider),
		zap.Bool("cache", cfg.Cache.Enabled),
	)

	return logger, cfg
}

// newCompleter returns the configured completion provider, wrapped in the Redis
// cache when enabled. The returned cleanup must be called on exit.
func newCompleter(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ai.Completer, func(), error) {
	noop := func() {}

	var completer ai.Completer
	switch cfg.AI.Provider {
	case config.AIProviderNone:
		logger.Info("ai provider disabled, using template explanations and placeholder extraction")
		return ai.Unavailable{}, noop, nil
	case config.AIProviderGemini:
		apiKey, err := loadAPIKey("gemini api key", cfg.AI.APIKeyFile, "GEMINI_API_KEY")
		if err != nil {
			return nil, noop, fmt.Errorf("%w (set ai.api-key-file or GEMINI_API_KEY_FILE)", err)
		}
		completer, err = gemini.NewGenerator(ctx, gemini.Options{
			APIKey:       apiKey,
			Model:        cfg.AI.Model,
			MaxRetries:   cfg.AI.MaxRetries,
			MaxLogLength: cfg.AI.MaxLogLength,
		}, logger)
		if err != nil {
			return nil, noop, err
		}
	case config.AIProviderCohere:
		apiKey, err := loadAPIKey("cohere api key", cfg.AI.APIKeyFile, "COHERE_API_KEY")
		if err != nil {
			return nil, noop, fmt.Errorf("%w (set ai.api-key-file or COHERE_API_KEY_FILE)", err)
		}
		completer, err = cohere.New(cohere.Options{
			APIKey:       apiKey,
			Model:        cfg.AI.Model,
			Timeout:      cfg.AI.Timeout,
			MaxLogLength: cfg.AI.MaxLogLength,
		}, logger)
		if err != nil {
			return nil, noop, err
		}
	default:
		return nil, noop, fmt.Errorf("unsupported ai provider: %s", cfg.AI.Provider)
	}

	if !cfg.Cache.Enabled {
		return completer, noop, nil
	}

	store, err := cache.NewRedis(ctx, cfg.Cache.URL)
	if err != nil {
		logger.Warn("completion cache unavailable, continuing without it", zap.Error(err))
		return completer, noop, nil
	}

	cleanup := func() {
		if err := store.Close(); err != nil {
			logger.Warn("closing redis", zap.Error(err))
		}
	}

	return cache.Wrap(completer, store, cfg.Cache.TTL, logger), cleanup, nil
}

func loadAPIKey(name, file, env string) (string, error) {
	return secrets.Load(secrets.Source{Name: name, File: file, Env: env})
}

func newRanker(completer ai.Completer, cfg *config.Config, logger *zap.Logger) *matching.Ranker {
	return matching.NewRanker(completer, matching.Options{
		Explanations: cfg.Matching.Explanations,
		Concurrency:  cfg.Matching.ExplanationConcurrency,
		Timeout:      cfg.AI.Timeout,
	}, logger)
}

func newOrchestrator(completer ai.Completer, cfg *config.Config, logger *zap.Logger) (*discovery.Orchestrator, error) {
	opts := search.Options{
		Provider:  cfg.Search.Provider,
		Timeout:   cfg.Search.Timeout,
		UserAgent: cfg.Fetch.UserAgent,
		Feeds:     cfg.Search.Feeds,
	}

	switch cfg.Search.Provider {
	case search.ProviderTavily, search.ProviderSerpAPI, search.ProviderBrave:
		apiKey, err := loadAPIKey("search api key", cfg.Search.APIKeyFile, "SEARCH_API_KEY")
		if err != nil {
			return nil, fmt.Errorf("%w (set search.api-key-file or SEARCH_API_KEY_FILE)", err)
		}
		opts.APIKey = apiKey
	}

	searcher, err := search.New(opts, logger)
	if err != nil {
		return nil, err
	}

	fetcher := fetch.New(fetch.Options{
		Timeout:      cfg.Fetch.Timeout,
		UserAgent:    cfg.Fetch.UserAgent,
		RatePerHost:  cfg.Fetch.RatePerHost,
		Burst:        cfg.Fetch.Burst,
		MaxBodyBytes: cfg.Fetch.MaxBodyBytes,
	}, logger)

	extractor := extraction.New(completer, extraction.Options{
		Timeout:      cfg.AI.Timeout,
		MaxLogLength: cfg.AI.MaxLogLength,
	}, logger)

	return discovery.New(
		searcher,
		fetcher,
		parse.New(cfg.Parse.MaxChars, logger),
		extractor,
		validation.New(logger, validation.DefaultRules()...),
		logger,
	), nil
}
