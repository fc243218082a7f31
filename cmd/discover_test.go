package cmd

import (
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/spigell/scholara/internal/scholarship"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func sampleProposals() *scholarship.Proposals {
	return &scholarship.Proposals{Items: []*scholarship.Proposed{
		{Extracted: &scholarship.Extracted{Name: "A", Provider: "Org"}, DiscoveryRank: 1},
		{Extracted: &scholarship.Extracted{Name: "B", Provider: "Org"}, DiscoveryRank: 2, IsDuplicate: true},
	}}
}

func TestHandleActionExit(t *testing.T) {
	if err := handleAction(PromptExit, zap.NewNop(), "", sampleProposals()); !errors.Is(err, errExit) {
		t.Fatalf("expected errExit, got %v", err)
	}
}

func TestHandleActionUnknown(t *testing.T) {
	if err := handleAction("nope", zap.NewNop(), "", sampleProposals()); err == nil {
		t.Fatalf("expected error for unknown action")
	}
}

func TestHandleActionDumpsProposals(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	dir := t.TempDir()

	if err := handleAction(PromptProposalsToFile, zap.New(core), dir, sampleProposals()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries := logs.FilterMessage("dumping proposals to file").All()
	if len(entries) != 1 {
		t.Fatalf("expected one dump log, got %d", len(entries))
	}
	filename, _ := entries[0].ContextMap()["filename"].(string)

	data, err := os.ReadFile(filename)
	if err != nil {
		t.Fatalf("reading dump: %v", err)
	}
	var items []map[string]any
	if err := json.Unmarshal(data, &items); err != nil {
		t.Fatalf("decoding dump: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 proposals in dump, got %d", len(items))
	}
}

func TestCronLoggerAddsError(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := cronLogger{zap.New(core).Sugar()}

	l.Info("tick", "entry", 1)
	l.Error(errors.New("boom"), "job failed", "entry", 1)

	if logs.Len() != 2 {
		t.Fatalf("expected 2 log entries, got %d", logs.Len())
	}
	if got := logs.FilterMessage("job failed").All()[0].ContextMap()["error"]; got == nil {
		t.Fatalf("expected error field, got %v", logs.All()[1].ContextMap())
	}
}
