package cache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spigell/scholara/internal/ai"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type memoryStore struct {
	data    map[string]string
	ttls    map[string]time.Duration
	readErr error
	sets    int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryStore) Get(_ context.Context, key string) (string, bool, error) {
	if m.readErr != nil {
		return "", false, m.readErr
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.sets++
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

type countingCompleter struct {
	calls int
	resp  string
	err   error
}

func (c *countingCompleter) Complete(context.Context, ai.Request) (string, error) {
	c.calls++
	return c.resp, c.err
}

func (c *countingCompleter) Provider() string { return "stub" }
func (c *countingCompleter) Model() string    { return "stub-1" }

func TestCompleterServesRepeatedRequestsFromStore(t *testing.T) {
	next := &countingCompleter{resp: `{"name":"x"}`}
	store := newMemoryStore()
	c := Wrap(next, store, time.Hour, zap.NewNop())

	req := ai.Request{System: "sys", User: "page text", JSON: true}
	for i := 0; i < 3; i++ {
		got, err := c.Complete(context.Background(), req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != next.resp {
			t.Fatalf("unexpected response %q", got)
		}
	}

	if next.calls != 1 {
		t.Fatalf("expected one upstream call, got %d", next.calls)
	}
	for key, ttl := range store.ttls {
		if !strings.HasPrefix(key, keyPrefix) {
			t.Fatalf("unexpected key %q", key)
		}
		if ttl != time.Hour {
			t.Fatalf("expected ttl of 1h, got %s", ttl)
		}
	}
	if c.Provider() != "stub" || c.Model() != "stub-1" {
		t.Fatalf("expected wrapped identity, got %s/%s", c.Provider(), c.Model())
	}
}

func TestCompleterDoesNotStoreFailures(t *testing.T) {
	next := &countingCompleter{err: errors.New("quota")}
	store := newMemoryStore()
	c := Wrap(next, store, 0, nil)

	if _, err := c.Complete(context.Background(), ai.Request{User: "x"}); err == nil {
		t.Fatalf("expected upstream error")
	}
	if store.sets != 0 {
		t.Fatalf("expected nothing stored, got %d writes", store.sets)
	}
	if c.ttl != defaultTTL {
		t.Fatalf("expected default ttl, got %s", c.ttl)
	}
}

func TestCompleterBypassesBrokenStore(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	next := &countingCompleter{resp: "ok"}
	store := newMemoryStore()
	store.readErr = errors.New("connection refused")
	c := Wrap(next, store, time.Minute, zap.New(core))

	got, err := c.Complete(context.Background(), ai.Request{User: "x"})
	if err != nil || got != "ok" {
		t.Fatalf("expected upstream response, got %q, %v", got, err)
	}
	if logs.FilterMessage("completion cache read failed").Len() != 1 {
		t.Fatalf("expected a warning for the failed read")
	}
}

func TestKeyDependsOnEveryRequestField(t *testing.T) {
	base := ai.Request{System: "s", User: "u", JSON: true, Temperature: 0.3, MaxTokens: 200}
	baseKey, err := Key("gemini", "m", base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	variants := map[string]func() (string, error){
		"system":      func() (string, error) { r := base; r.System = "s2"; return Key("gemini", "m", r) },
		"user":        func() (string, error) { r := base; r.User = "u2"; return Key("gemini", "m", r) },
		"json":        func() (string, error) { r := base; r.JSON = false; return Key("gemini", "m", r) },
		"temperature": func() (string, error) { r := base; r.Temperature = 0; return Key("gemini", "m", r) },
		"max tokens":  func() (string, error) { r := base; r.MaxTokens = 100; return Key("gemini", "m", r) },
		"provider":    func() (string, error) { return Key("cohere", "m", base) },
		"model":       func() (string, error) { return Key("gemini", "m2", base) },
	}

	for name, build := range variants {
		key, err := build()
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}
		if key == baseKey {
			t.Fatalf("%s: expected a different key", name)
		}
	}

	again, _ := Key("gemini", "m", base)
	if again != baseKey {
		t.Fatalf("expected stable key")
	}
}
