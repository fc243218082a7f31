// Package cache memoizes completion responses in Redis so repeated extraction of
// the same page text does not pay for another model call.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spigell/scholara/internal/ai"
	"github.com/spigell/scholara/internal/logger"
	"go.uber.org/zap"
)

const (
	keyPrefix  = "scholara:completion:"
	defaultTTL = 24 * time.Hour
)

// Store is the subset of Redis the cache needs.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// Completer wraps another completer. Cache failures are logged and bypassed.
type Completer struct {
	next   ai.Completer
	store  Store
	ttl    time.Duration
	logger *zap.Logger
}

// Wrap returns next with a read-through cache in front of it.
func Wrap(next ai.Completer, store Store, ttl time.Duration, log *zap.Logger) *Completer {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	provider, model := ai.Describe(next)
	return &Completer{
		next:   next,
		store:  store,
		ttl:    ttl,
		logger: logger.WithCommonFields(log, provider, model),
	}
}

func (c *Completer) Provider() string {
	provider, _ := ai.Describe(c.next)
	return provider
}

func (c *Completer) Model() string {
	_, model := ai.Describe(c.next)
	return model
}

// Complete serves req from the store when possible. Only successful responses are stored.
func (c *Completer) Complete(ctx context.Context, req ai.Request) (string, error) {
	key, err := Key(c.Provider(), c.Model(), req)
	if err != nil {
		return "", err
	}

	cached, ok, err := c.store.Get(ctx, key)
	switch {
	case err != nil:
		c.logger.Warn("completion cache read failed", zap.Error(err))
	case ok:
		c.logger.Debug("completion cache hit", zap.String("key", key))
		return cached, nil
	}

	resp, err := c.next.Complete(ctx, req)
	if err != nil {
		return "", err
	}

	if err := c.store.Set(ctx, key, resp, c.ttl); err != nil {
		c.logger.Warn("completion cache write failed", zap.Error(err))
	}

	return resp, nil
}

// Key derives a stable cache key from the model identity and the full request.
func Key(provider, model string, req ai.Request) (string, error) {
	payload, err := json.Marshal(struct {
		Provider string     `json:"provider"`
		Model    string     `json:"model"`
		Request  ai.Request `json:"request"`
	}{provider, model, req})
	if err != nil {
		return "", fmt.Errorf("encoding cache key: %w", err)
	}

	sum := sha256.Sum256(payload)
	return keyPrefix + hex.EncodeToString(sum[:]), nil
}

// Redis is a Store backed by a go-redis client.
type Redis struct {
	client *redis.Client
}

// NewRedis parses redisURL and verifies connectivity.
func NewRedis(ctx context.Context, redisURL string) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Redis{client: client}, nil
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
