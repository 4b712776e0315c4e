package batch

import (
	"encoding/json"
	"fmt"
	"io"

	"trialspec/internal/enrich"
	"trialspec/internal/extract"
	"trialspec/internal/registry"
	"trialspec/internal/validate"
)

// Result is one line of a batch output file.
type Result struct {
	ID       string `json:"id"`
	CustomID string `json:"custom_id"`
	Response struct {
		Body json.RawMessage `json:"body"`
	} `json:"response"`
}

// Summary counts per-record reconciliation outcomes. Skipped covers
// results whose custom_id matched no source record; Failed covers
// undecodable or unparseable payloads. Both count toward failures in
// the final report, never toward an abort.
type Summary struct {
	Succeeded int
	Failed    int
	Skipped   int
}

// Reconciler merges batch results with their source records. Log
// receives one diagnostic line per skipped or failed result; nil
// silences it.
type Reconciler struct {
	Log io.Writer
}

// Reconcile produces one enriched record per successfully matched,
// successfully decoded result, preserving result order. A single bad
// result is counted and skipped; the batch never halts on it.
func (r *Reconciler) Reconcile(results []Result, originals map[string]*registry.Record) ([]*enrich.EnrichedRecord, Summary) {
	var out []*enrich.EnrichedRecord
	var summary Summary

	for _, item := range results {
		if item.CustomID == "" {
			summary.Skipped++
			continue
		}
		rec, ok := originals[item.CustomID]
		if !ok {
			r.logf("warning: %s found in batch but not in original input, skipping", item.CustomID)
			summary.Skipped++
			continue
		}

		text, model, err := extract.DecodeEnvelope(item.Response.Body)
		if err != nil {
			r.logf("error decoding response for %s: %v", item.CustomID, err)
			summary.Failed++
			continue
		}

		var ext validate.Extraction
		if err := extract.ParseExtractionJSON(text, &ext); err != nil {
			r.logf("error parsing extraction for %s: %v", item.CustomID, err)
			summary.Failed++
			continue
		}

		// Validation runs against the recomputed canonical text, the
		// exact string the batch request was built from.
		inputText := rec.CanonicalInput()
		verdict := validate.Validate(&ext, inputText)

		if model == "" {
			model = "batch-unknown"
		}
		meta := enrich.LLMMeta{
			Provider:         "openai",
			Model:            model,
			PromptVersion:    extract.PromptVersion,
			InputFingerprint: rec.Fingerprint(),
			RunID:            item.ID,
		}

		out = append(out, enrich.NewRecord(rec, &ext, meta, verdict.OK, verdict.Diagnostics))
		summary.Succeeded++
	}

	return out, summary
}

// ReadResults parses a batch output JSONL stream, skipping blank lines.
func ReadResults(r io.Reader) ([]Result, error) {
	var out []Result
	if err := registry.ScanLines(r, func(lineNo int, line []byte) error {
		var res Result
		if err := json.Unmarshal(line, &res); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		out = append(out, res)
		return nil
	}); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Reconciler) logf(format string, args ...any) {
	if r.Log != nil {
		fmt.Fprintf(r.Log, format+"\n", args...)
	}
}
