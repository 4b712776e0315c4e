// Package batch prepares asynchronous batch-API request files and
// reconciles their result files back into enriched records.
package batch

import (
	"trialspec/internal/extract"
	"trialspec/internal/registry"
)

// Endpoint is the batch target; every request line's url must match
// the endpoint the batch job is submitted against.
const Endpoint = "/v1/responses"

// Request is one line of a batch input file. The custom_id carries the
// trial id so results can be matched back to their source records.
type Request struct {
	CustomID string `json:"custom_id"`
	Method   string `json:"method"`
	URL      string `json:"url"`
	Body     Body   `json:"body"`
}

// Body is the /v1/responses request payload.
type Body struct {
	Model string            `json:"model"`
	Input []extract.Message `json:"input"`
	Text  map[string]any    `json:"text"`
}

// BuildRequests renders one batch request line per record, in input
// order. Batch jobs are one-shot, so only the lenient prompt is used —
// there is no second attempt to escalate to.
func BuildRequests(records []*registry.Record, model string) []Request {
	out := make([]Request, 0, len(records))
	for _, rec := range records {
		out = append(out, Request{
			CustomID: rec.RCTID,
			Method:   "POST",
			URL:      Endpoint,
			Body: Body{
				Model: model,
				Input: extract.BuildMessages(rec.CanonicalInput(), false),
				Text:  extract.SchemaFormat(),
			},
		})
	}
	return out
}
