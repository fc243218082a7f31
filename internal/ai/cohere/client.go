// Package cohere implements ai.Completer with the Cohere chat API.
package cohere

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
	"github.com/spigell/scholara/internal/ai"
	"github.com/spigell/scholara/internal/logger"
	"go.uber.org/zap"
)

const (
	defaultModel        = "command-r-plus"
	defaultTimeout      = 60 * time.Second
	defaultMaxLogLength = 200
)

type chatter interface {
	Chat(ctx context.Context, req *cohere.ChatRequest) (*cohere.NonStreamedChatResponse, error)
}

type sdkChatter struct {
	client *cohereclient.Client
}

func (s sdkChatter) Chat(ctx context.Context, req *cohere.ChatRequest) (*cohere.NonStreamedChatResponse, error) {
	return s.client.Chat(ctx, req)
}

// Client sends one chat turn per completion. The system prompt travels as the preamble.
type Client struct {
	chat      chatter
	model     string
	maxLogLen int
	logger    *zap.Logger
}

// Options configures New.
type Options struct {
	APIKey       string
	Model        string
	Timeout      time.Duration
	MaxLogLength int
}

func New(opts Options, log *zap.Logger) (*Client, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, errors.New("cohere api key is required")
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	sdk := cohereclient.NewClient(
		cohereclient.WithToken(apiKey),
		cohereclient.WithHTTPClient(&http.Client{Timeout: timeout}),
	)

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}

	maxLogLen := opts.MaxLogLength
	if maxLogLen <= 0 {
		maxLogLen = defaultMaxLogLength
	}

	return &Client{
		chat:      sdkChatter{client: sdk},
		model:     model,
		maxLogLen: maxLogLen,
		logger:    logger.WithCommonFields(log, "cohere", model),
	}, nil
}

func (c *Client) Provider() string { return "cohere" }
func (c *Client) Model() string    { return c.model }

// Complete implements ai.Completer. Cohere chat has no JSON mode switch here, so
// JSON requests get an explicit instruction appended to the preamble.
func (c *Client) Complete(ctx context.Context, req ai.Request) (string, error) {
	if c == nil || c.chat == nil {
		return "", errors.New("cohere client is not initialized")
	}

	message := strings.TrimSpace(req.User)
	if message == "" {
		return "", errors.New("message must not be empty")
	}

	preamble := req.System
	if req.JSON {
		preamble += ai.JSONEmphasis
	}

	chatReq := &cohere.ChatRequest{
		Message:     message,
		Model:       &c.model,
		Temperature: &req.Temperature,
	}
	if strings.TrimSpace(preamble) != "" {
		chatReq.Preamble = &preamble
	}
	if req.MaxTokens > 0 {
		maxTokens := req.MaxTokens
		chatReq.MaxTokens = &maxTokens
	}

	log := c.logger
	if log == nil {
		log = zap.NewNop()
	}
	log.Debug("cohere chat request",
		zap.Int("prompt_length", utf8.RuneCountInString(message)),
		zap.String("prompt_preview", logger.TruncateForLog(message, c.maxLogLen)),
	)

	resp, err := c.chat.Chat(ctx, chatReq)
	if err != nil {
		return "", fmt.Errorf("cohere chat: %w", err)
	}
	if resp == nil {
		return "", errors.New("cohere chat returned empty response")
	}

	output := strings.TrimSpace(resp.Text)
	if output == "" {
		return "", errors.New("cohere chat returned empty response")
	}

	log.Debug("cohere chat response",
		zap.Int("response_length", utf8.RuneCountInString(output)),
		zap.String("response_preview", logger.TruncateForLog(output, c.maxLogLen)),
	)

	return output, nil
}
