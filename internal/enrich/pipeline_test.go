package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"trialspec/internal/cache"
	"trialspec/internal/extract"
	"trialspec/internal/registry"
)

// The canonical text for this record contains "assigned to Treatment or
// Control" verbatim, so the mocked extraction validates cleanly.
func testRecords() []*registry.Record {
	return []*registry.Record{
		{
			RCTID:              "R1",
			Title:              "Test Trial",
			ExperimentalDesign: "Participants were assigned to Treatment or Control.",
		},
	}
}

const mockExtraction = `{
	"design_type": "simple_multiarm",
	"design_completeness": "complete",
	"arms": [
		{"arm_id": "control", "name": "Control", "role": "control", "description": "no intervention", "evidence_quote_ids": ["eq1"]},
		{"arm_id": "t1", "name": "Treatment", "role": "treatment", "description": "intervention", "evidence_quote_ids": ["eq1"]}
	],
	"factors": [],
	"evidence_quotes": [
		{"id": "eq1", "source_doc": "registry", "quote": "assigned to Treatment or Control", "supports": "arms"}
	]
}`

func mockModelServer(t *testing.T, extraction string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp, _ := json.Marshal(map[string]any{
			"model": "test-model",
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": extraction}},
			},
		})
		w.Write(resp)
	}))
}

func newTestPipeline(t *testing.T, endpoint string, progress io.Writer) *Pipeline {
	t.Helper()
	store, err := cache.Open(":memory:")
	if err != nil {
		t.Fatalf("opening cache: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	config := &extract.Config{
		Provider:    "custom",
		Model:       "test-model",
		Endpoint:    endpoint,
		APIKey:      "test-key",
		MaxRetries:  0,
		TimeoutSecs: 5,
	}
	return &Pipeline{
		Escalator: extract.NewEscalator(extract.NewClient(config), store, config),
		Provider:  "custom",
		Progress:  progress,
	}
}

func TestPipeline_EndToEnd(t *testing.T) {
	server := mockModelServer(t, mockExtraction)
	defer server.Close()

	var progress bytes.Buffer
	p := newTestPipeline(t, server.URL, &progress)

	out, summary, err := p.Run(context.Background(), testRecords())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("got %d records, want 1", len(out))
	}

	rec := out[0]
	if rec.RCTID != "R1" {
		t.Errorf("rct_id = %q", rec.RCTID)
	}
	if !rec.Enrichment.Quality.ValidationPassed {
		t.Fatalf("expected validation to pass: %v", rec.Enrichment.Quality.ValidationErrors)
	}
	if rec.Enrichment.Quality.NeedsManual {
		t.Error("clean record must not need manual review")
	}
	if got := len(rec.Enrichment.Derived.Arms); got != 2 {
		t.Errorf("derived arms = %d, want 2", got)
	}
	if rec.Enrichment.LLM.PromptVersion != "v3.1" {
		t.Errorf("prompt_version = %q", rec.Enrichment.LLM.PromptVersion)
	}
	if rec.Enrichment.LLM.InputFingerprint == "" {
		t.Error("input fingerprint missing")
	}
	if rec.Enrichment.LLM.RunID == "" {
		t.Error("run id missing")
	}

	if summary.OK != 1 || summary.Manual != 0 {
		t.Errorf("summary = %+v", summary)
	}
	if !strings.Contains(progress.String(), "[1/1] R1: ok=true manual=false") {
		t.Errorf("progress output = %q", progress.String())
	}
}

func TestPipeline_FailedRecordStillShips(t *testing.T) {
	server := mockModelServer(t, "not json")
	defer server.Close()

	p := newTestPipeline(t, server.URL, nil)
	out, summary, err := p.Run(context.Background(), testRecords())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("failed record must still produce output, got %d", len(out))
	}
	if !out[0].Enrichment.Quality.NeedsManual {
		t.Error("failed record must be flagged for manual review")
	}
	if summary.Manual != 1 || summary.OK != 0 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestPipeline_SharedRunID(t *testing.T) {
	server := mockModelServer(t, mockExtraction)
	defer server.Close()

	records := []*registry.Record{
		{RCTID: "R1", ExperimentalDesign: "Participants were assigned to Treatment or Control."},
		{RCTID: "R2", ExperimentalDesign: "Participants were assigned to Treatment or Control."},
	}

	p := newTestPipeline(t, server.URL, nil)
	out, _, err := p.Run(context.Background(), records)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d records", len(out))
	}
	if out[0].Enrichment.LLM.RunID != out[1].Enrichment.LLM.RunID {
		t.Error("records from one run must share a run id")
	}
}

func TestPipeline_CanceledContext(t *testing.T) {
	server := mockModelServer(t, mockExtraction)
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := newTestPipeline(t, server.URL, nil)
	if _, _, err := p.Run(ctx, testRecords()); err == nil {
		t.Error("expected context error")
	}
}
