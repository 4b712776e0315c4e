package enrich

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"trialspec/internal/extract"
	"trialspec/internal/registry"
)

// Summary counts pipeline outcomes for the final report.
type Summary struct {
	OK     int
	Manual int
}

// Pipeline is the synchronous enrichment path: canonicalize each
// record, run the escalating extraction, and merge the result into the
// enriched schema. One record's failure never aborts the run.
type Pipeline struct {
	Escalator *extract.Escalator
	Provider  string

	// Progress receives one status line per record; nil silences it.
	Progress io.Writer

	// Sleep pauses between uncached model calls, for rate-limit head
	// room. Zero disables it.
	Sleep time.Duration
}

// Run enriches all records in input order. Every record produces
// exactly one output, flagged needs_manual when extraction or
// validation failed. The error return fires only on infrastructure
// failures (cache I/O, canceled context).
func (p *Pipeline) Run(ctx context.Context, records []*registry.Record) ([]*EnrichedRecord, Summary, error) {
	runID := uuid.NewString()
	var out []*EnrichedRecord
	var summary Summary

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, summary, err
		}

		inputText := rec.CanonicalInput()
		outcome, err := p.Escalator.Run(ctx, rec.RCTID, inputText)
		if err != nil {
			return nil, summary, fmt.Errorf("enriching %s: %w", rec.RCTID, err)
		}

		createdAt := time.Now().UTC().Format(time.RFC3339)
		meta := LLMMeta{
			Provider:         p.Provider,
			Model:            outcome.Model,
			PromptVersion:    extract.PromptVersion,
			InputFingerprint: rec.Fingerprint(),
			RunID:            runID,
			CreatedAt:        &createdAt,
		}

		enriched := NewRecord(rec, outcome.Extraction, meta, outcome.OK, outcome.Diagnostics)
		out = append(out, enriched)

		if outcome.OK {
			summary.OK++
		} else {
			summary.Manual++
		}

		if p.Progress != nil {
			fmt.Fprintf(p.Progress, "[%d/%d] %s: ok=%v manual=%v\n",
				i+1, len(records), rec.RCTID, outcome.OK, !outcome.OK)
		}

		if p.Sleep > 0 && !outcome.Cached {
			select {
			case <-ctx.Done():
				return nil, summary, ctx.Err()
			case <-time.After(p.Sleep):
			}
		}
	}

	return out, summary, nil
}
