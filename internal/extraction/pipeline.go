// Package extraction turns cleaned page text into a structured scholarship record
// by asking a completion provider for a strict JSON object.
package extraction

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spigell/scholara/internal/ai"
	"github.com/spigell/scholara/internal/logger"
	"github.com/spigell/scholara/internal/scholarship"
	"go.uber.org/zap"
)

//go:embed prompt.md
var systemPrompt string

const (
	extractionTemperature = 0.0
	extractionMaxTokens   = 4096
	defaultMaxLogLength   = 200

	failedConfidence = 0.1
	errorConfidence  = 0.0
)

// Pipeline extracts one scholarship per page. It never returns an error: failures
// become low-confidence placeholders so a batch keeps going.
type Pipeline struct {
	completer ai.Completer
	timeout   time.Duration
	maxLogLen int
	logger    *zap.Logger
}

// Options configures a Pipeline.
type Options struct {
	Timeout      time.Duration
	MaxLogLength int
}

func New(completer ai.Completer, opts Options, log *zap.Logger) *Pipeline {
	if completer == nil {
		completer = ai.Unavailable{}
	}
	if opts.MaxLogLength <= 0 {
		opts.MaxLogLength = defaultMaxLogLength
	}

	provider, model := ai.Describe(completer)

	return &Pipeline{
		completer: completer,
		timeout:   opts.Timeout,
		maxLogLen: opts.MaxLogLength,
		logger:    logger.WithCommonFields(log, provider, model),
	}
}

// Extract returns the record found in pageText. sourceURL is always among the
// record's source URLs.
func (p *Pipeline) Extract(ctx context.Context, pageText, sourceURL, snippet string) (out *scholarship.Extracted) {
	log := p.logger.With(zap.String(logger.FieldURL, sourceURL))

	defer func() {
		if r := recover(); r != nil {
			log.Error("extraction panicked", zap.Any("panic", r))
			out = errorPlaceholder(sourceURL)
		}
	}()

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	prompt := userPrompt(pageText, sourceURL, snippet)
	log.Debug("extraction request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, p.maxLogLen)),
	)

	data, err := ai.CompleteJSON(ctx, p.completer, ai.Request{
		System:      systemPrompt,
		User:        prompt,
		Temperature: extractionTemperature,
		MaxTokens:   extractionMaxTokens,
	})
	if err != nil {
		if errors.Is(err, ai.ErrInvalidJSON) {
			log.Error("extraction returned invalid json", zap.Error(err))
			return failedPlaceholder(sourceURL)
		}
		log.Error("extraction call failed", zap.Error(err))
		return errorPlaceholder(sourceURL)
	}

	extracted, err := decode(data)
	if err != nil {
		log.Error("extraction does not match schema", zap.Error(err))
		return failedPlaceholder(sourceURL)
	}

	extracted.EnsureSourceURL(sourceURL)

	log.Debug("extracted scholarship",
		zap.String("name", extracted.Name),
		zap.String("provider", extracted.Provider),
		zap.Float64("confidence", extracted.Confidence),
		zap.Int("evidence", len(extracted.Evidence)),
	)

	return extracted
}

func userPrompt(pageText, sourceURL, snippet string) string {
	if strings.TrimSpace(snippet) == "" {
		snippet = "(none)"
	}

	return fmt.Sprintf(`Extract scholarship information from the following web page.

SOURCE URL: %s

SEARCH SNIPPET (if available):
%s

WEB PAGE TEXT:
%s`, sourceURL, snippet, pageText)
}

func failedPlaceholder(sourceURL string) *scholarship.Extracted {
	return scholarship.NewPlaceholder(
		fmt.Sprintf("%s (extraction failed from %s)", scholarship.UnknownNamePrefix, sourceURL),
		sourceURL,
		failedConfidence,
		scholarship.FlagExtractionFailed, scholarship.FlagNeedsReview,
	)
}

func errorPlaceholder(sourceURL string) *scholarship.Extracted {
	return scholarship.NewPlaceholder(
		fmt.Sprintf("%s (error from %s)", scholarship.UnknownNamePrefix, sourceURL),
		sourceURL,
		errorConfidence,
		scholarship.FlagExtractionError, scholarship.FlagNeedsReview,
	)
}
