// Package ai defines the text-completion capability used by ranking explanations
// and page extraction, plus helpers for JSON-mode responses.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidJSON is returned by CompleteJSON when the model output is not a JSON object.
var ErrInvalidJSON = errors.New("completion is not a valid json object")

// Request is a single completion call.
type Request struct {
	System      string
	User        string
	JSON        bool
	Temperature float64
	MaxTokens   int
}

// Completer turns a system and user prompt into text.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Describer is implemented by completers that can name their provider and model for logs.
type Describer interface {
	Provider() string
	Model() string
}

// Describe returns provider and model names when c implements Describer.
func Describe(c Completer) (string, string) {
	if d, ok := c.(Describer); ok {
		return d.Provider(), d.Model()
	}
	return "", ""
}

// CompleteJSON requests JSON output and decodes it into a map. Code fences around
// the object are stripped first.
func CompleteJSON(ctx context.Context, c Completer, req Request) (map[string]any, error) {
	req.JSON = true
	raw, err := c.Complete(ctx, req)
	if err != nil {
		return nil, err
	}

	return DecodeObject(raw)
}

// DecodeObject parses raw model output as a JSON object.
func DecodeObject(raw string) (map[string]any, error) {
	cleaned := ExtractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if data == nil {
		return nil, fmt.Errorf("%w: null object", ErrInvalidJSON)
	}

	return data, nil
}

// ExtractJSON strips markdown code fences wrapped around a JSON payload.
func ExtractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

// JSONEmphasis is appended to system prompts for providers without a native JSON mode.
const JSONEmphasis = "\n\nIMPORTANT: Respond ONLY with valid JSON. No markdown, no explanation, no code fences."

// Unavailable is the completer used when no provider is configured. Every call fails,
// so callers fall back to their deterministic output.
type Unavailable struct{}

func (Unavailable) Complete(context.Context, Request) (string, error) {
	return "", errors.New("no completion provider configured")
}

func (Unavailable) Provider() string { return "none" }
func (Unavailable) Model() string    { return "" }
