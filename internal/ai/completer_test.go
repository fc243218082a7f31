package ai

import (
	"context"
	"errors"
	"testing"
)

type stubCompleter struct {
	out  string
	err  error
	last Request
}

func (s *stubCompleter) Complete(_ context.Context, req Request) (string, error) {
	s.last = req
	return s.out, s.err
}

func TestExtractJSON(t *testing.T) {
	cases := map[string]string{
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```\n{\"a\":1}```":       `{"a":1}`,
		"  {\"a\":1}  ":           `{"a":1}`,
		"`{\"a\":1}`":             `{"a":1}`,
	}

	for in, want := range cases {
		if got := ExtractJSON(in); got != want {
			t.Fatalf("ExtractJSON(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCompleteJSONForcesJSONMode(t *testing.T) {
	stub := &stubCompleter{out: "```json\n{\"name\":\"x\"}\n```"}

	data, err := CompleteJSON(context.Background(), stub, Request{System: "s", User: "u"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !stub.last.JSON {
		t.Fatalf("expected json mode to be requested")
	}
	if data["name"] != "x" {
		t.Fatalf("unexpected payload: %+v", data)
	}
}

func TestCompleteJSONInvalid(t *testing.T) {
	for _, raw := range []string{"not json", "[1,2]", "null"} {
		_, err := CompleteJSON(context.Background(), &stubCompleter{out: raw}, Request{})
		if !errors.Is(err, ErrInvalidJSON) {
			t.Fatalf("expected ErrInvalidJSON for %q, got %v", raw, err)
		}
	}
}

func TestCompleteJSONPropagatesProviderError(t *testing.T) {
	providerErr := errors.New("boom")
	_, err := CompleteJSON(context.Background(), &stubCompleter{err: providerErr}, Request{})
	if !errors.Is(err, providerErr) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if errors.Is(err, ErrInvalidJSON) {
		t.Fatalf("provider error must not look like invalid json")
	}
}

func TestUnavailableAlwaysFails(t *testing.T) {
	if _, err := (Unavailable{}).Complete(context.Background(), Request{}); err == nil {
		t.Fatal("expected error")
	}
	provider, _ := Describe(Unavailable{})
	if provider != "none" {
		t.Fatalf("unexpected provider %q", provider)
	}
}
