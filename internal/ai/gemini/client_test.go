package gemini

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/spigell/scholara/internal/ai"
	"google.golang.org/genai"
)

// scriptedChats hands out one reply per Create call, in order.
type scriptedChats struct {
	replies []reply
	sent    []sentMessage
}

type reply struct {
	text string
	err  error
}

type sentMessage struct {
	model   string
	config  *genai.GenerateContentConfig
	message string
}

type scriptedChat struct {
	owner *scriptedChats
	sent  sentMessage
	reply reply
}

func (c *scriptedChat) SendMessage(_ context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	for _, p := range parts {
		c.sent.message += p.Text
	}
	c.owner.sent = append(c.owner.sent, c.sent)

	if c.reply.err != nil {
		return nil, c.reply.err
	}
	if c.reply.text == "" {
		return &genai.GenerateContentResponse{}, nil
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: c.reply.text}}},
		}},
	}, nil
}

func (s *scriptedChats) Create(_ context.Context, model string, config *genai.GenerateContentConfig, _ []*genai.Content) (chatSession, error) {
	if len(s.replies) == 0 {
		return nil, errors.New("no scripted reply left")
	}
	next := s.replies[0]
	s.replies = s.replies[1:]
	return &scriptedChat{owner: s, sent: sentMessage{model: model, config: config}, reply: next}, nil
}

func apiErr(code int, message string) error {
	return genai.APIError{Code: code, Message: message}
}

func recordWaits(t *testing.T) *[]time.Duration {
	t.Helper()
	var waited []time.Duration
	original := wait
	wait = func(_ context.Context, d time.Duration) error {
		waited = append(waited, d)
		return nil
	}
	t.Cleanup(func() { wait = original })
	return &waited
}

func TestGenerateContentRetryPolicy(t *testing.T) {
	tests := []struct {
		name       string
		maxRetries int
		replies    []reply
		wantErr    bool
		wantCalls  int
		wantWaits  []time.Duration
	}{
		{
			name:       "server error then success",
			maxRetries: 2,
			replies:    []reply{{err: apiErr(http.StatusInternalServerError, "")}, {text: "ok"}},
			wantCalls:  2,
			wantWaits:  []time.Duration{baseRetryDelay},
		},
		{
			name:       "backoff doubles",
			maxRetries: 3,
			replies: []reply{
				{err: apiErr(http.StatusServiceUnavailable, "")},
				{err: apiErr(http.StatusServiceUnavailable, "")},
				{text: "ok"},
			},
			wantCalls: 3,
			wantWaits: []time.Duration{baseRetryDelay, 2 * baseRetryDelay},
		},
		{
			name:       "retries exhausted",
			maxRetries: 2,
			replies:    []reply{{err: apiErr(http.StatusBadGateway, "")}, {err: apiErr(http.StatusBadGateway, "")}},
			wantErr:    true,
			wantCalls:  2,
			wantWaits:  []time.Duration{baseRetryDelay},
		},
		{
			name:       "short quota delay is honoured",
			maxRetries: 3,
			replies:    []reply{{err: apiErr(http.StatusTooManyRequests, "quota exceeded, retry in 5s")}, {text: "ok"}},
			wantCalls:  2,
			wantWaits:  []time.Duration{5 * time.Second},
		},
		{
			name:       "long quota delay is not waited for",
			maxRetries: 3,
			replies:    []reply{{err: apiErr(http.StatusTooManyRequests, "quota exhausted, retry after 60 seconds")}},
			wantErr:    true,
			wantCalls:  1,
		},
		{
			name:       "client errors are final",
			maxRetries: 3,
			replies:    []reply{{err: apiErr(http.StatusBadRequest, "bad schema")}},
			wantErr:    true,
			wantCalls:  1,
		},
		{
			name:       "empty response is an error",
			maxRetries: 1,
			replies:    []reply{{}},
			wantErr:    true,
			wantCalls:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			waited := recordWaits(t)
			chats := &scriptedChats{replies: tt.replies}
			g := &Generator{chats: chats, model: "gemini-test", maxRetries: tt.maxRetries}

			out, err := g.GenerateContent(context.Background(), "system", "message")
			if tt.wantErr != (err != nil) {
				t.Fatalf("expected error=%v, got %v", tt.wantErr, err)
			}
			if !tt.wantErr && out != "ok" {
				t.Fatalf("unexpected output %q", out)
			}
			if len(chats.sent) != tt.wantCalls {
				t.Fatalf("expected %d calls, got %d", tt.wantCalls, len(chats.sent))
			}
			if len(*waited) != len(tt.wantWaits) {
				t.Fatalf("expected waits %v, got %v", tt.wantWaits, *waited)
			}
			for i := range tt.wantWaits {
				if (*waited)[i] != tt.wantWaits[i] {
					t.Fatalf("expected waits %v, got %v", tt.wantWaits, *waited)
				}
			}
		})
	}
}

func TestGenerateContentStopsWhenContextEnds(t *testing.T) {
	original := wait
	wait = func(ctx context.Context, _ time.Duration) error { return context.Canceled }
	t.Cleanup(func() { wait = original })

	chats := &scriptedChats{replies: []reply{{err: apiErr(http.StatusInternalServerError, "")}, {text: "never"}}}
	g := &Generator{chats: chats, model: "gemini-test", maxRetries: 3}

	if _, err := g.GenerateContent(context.Background(), "", "message"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(chats.sent) != 1 {
		t.Fatalf("expected a single call, got %d", len(chats.sent))
	}
}

func TestCompleteMapsRequestToConfig(t *testing.T) {
	chats := &scriptedChats{replies: []reply{{text: `{"ok":true}`}}}
	g := &Generator{chats: chats, model: "gemini-test", maxRetries: 1}

	out, err := g.Complete(context.Background(), ai.Request{
		System:      "extract",
		User:        "page",
		JSON:        true,
		Temperature: 0.3,
		MaxTokens:   200,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out != `{"ok":true}` {
		t.Fatalf("unexpected output %q", out)
	}

	sent := chats.sent[0]
	if sent.model != "gemini-test" || sent.message != "page" {
		t.Fatalf("unexpected call %+v", sent)
	}
	cfg := sent.config
	if cfg.SystemInstruction == nil || cfg.SystemInstruction.Parts[0].Text != "extract" {
		t.Fatalf("expected system instruction to carry the system prompt")
	}
	if cfg.ResponseMIMEType != "application/json" {
		t.Fatalf("expected json mime type, got %q", cfg.ResponseMIMEType)
	}
	if cfg.Temperature == nil || *cfg.Temperature != float32(0.3) {
		t.Fatalf("unexpected temperature %v", cfg.Temperature)
	}
	if cfg.MaxOutputTokens != 200 {
		t.Fatalf("unexpected max tokens %d", cfg.MaxOutputTokens)
	}
}

func TestGenerateContentWithoutSystemPrompt(t *testing.T) {
	chats := &scriptedChats{replies: []reply{{text: "ok"}}}
	g := &Generator{chats: chats, model: "gemini-test", maxRetries: 1}

	if _, err := g.GenerateContent(context.Background(), "  ", "message"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if chats.sent[0].config.SystemInstruction != nil {
		t.Fatalf("expected no system instruction for a blank system prompt")
	}
	if _, err := g.GenerateContent(context.Background(), "sys", "   "); err == nil {
		t.Fatalf("expected error for a blank message")
	}
}

func TestQuotaDelay(t *testing.T) {
	tests := []struct {
		name string
		err  genai.APIError
		want time.Duration
		ok   bool
	}{
		{"details", genai.APIError{Details: []map[string]any{{"retryDelay": "7s"}}}, 7 * time.Second, true},
		{"message", genai.APIError{Message: "Please retry in 1.5s."}, 1500 * time.Millisecond, true},
		{"none", genai.APIError{Message: "quota exceeded"}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := quotaDelay(tt.err)
			if ok != tt.ok || got != tt.want {
				t.Fatalf("expected %s (%v), got %s (%v)", tt.want, tt.ok, got, ok)
			}
		})
	}
}
