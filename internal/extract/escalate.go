package extract

import (
	"context"
	"encoding/json"
	"fmt"

	gocache "github.com/patrickmn/go-cache"

	"trialspec/internal/cache"
	"trialspec/internal/canon"
	"trialspec/internal/validate"
)

// Outcome is the final result of extracting one record: at most two
// model attempts, validated against the canonical input text.
type Outcome struct {
	Extraction  *validate.Extraction
	OK          bool
	Diagnostics []string
	RawText     string
	Model       string // responding model; config model on cache hits
	Cached      bool
}

// Escalator runs the two-attempt extraction protocol. The first
// attempt uses the lenient prompt; if its output fails validation, one
// strict attempt follows and its result is final — a strict failure is
// recorded as needing manual review, never retried further.
//
// Outcomes are cached by (record, prompt version, model, input
// fingerprint), failures included, so reruns never repeat settled
// calls.
type Escalator struct {
	client *Client
	store  *cache.Cache
	hot    *gocache.Cache
	config Config
}

// NewEscalator wires a client and a persisted cache together. The hot
// layer keeps this process's hits out of SQLite.
func NewEscalator(client *Client, store *cache.Cache, config *Config) *Escalator {
	return &Escalator{
		client: client,
		store:  store,
		hot:    gocache.New(gocache.NoExpiration, 0),
		config: *config,
	}
}

// Run extracts one record. Model and validation failures land in the
// Outcome; the error return is reserved for cache I/O problems.
func (e *Escalator) Run(ctx context.Context, rctID, inputText string) (*Outcome, error) {
	key := cache.Key{
		RCTID:         rctID,
		PromptVersion: PromptVersion,
		Model:         e.config.Model,
		Fingerprint:   canon.Fingerprint(inputText),
	}

	if cached, found := e.hot.Get(key.Hash()); found {
		return cached.(*Outcome), nil
	}

	// One writer per key: concurrent workers on the same record wait
	// here and take the first worker's result from the store.
	e.store.Lock(key)
	defer e.store.Unlock(key)

	if entry, hit, err := e.store.Get(ctx, key); err != nil {
		return nil, fmt.Errorf("reading extraction cache: %w", err)
	} else if hit {
		outcome := outcomeFromEntry(entry, e.config.Model)
		e.hot.Set(key.Hash(), outcome, gocache.NoExpiration)
		return outcome, nil
	}

	outcome := e.attempt(ctx, inputText, false)
	if !outcome.OK {
		// The strict attempt is final either way.
		outcome = e.attempt(ctx, inputText, true)
	}

	entry := &cache.Entry{
		RCTID:         rctID,
		OK:            outcome.OK,
		Diagnostics:   outcome.Diagnostics,
		RawText:       outcome.RawText,
		PromptVersion: PromptVersion,
		Model:         e.config.Model,
	}
	if outcome.Extraction != nil {
		if b, err := json.Marshal(outcome.Extraction); err == nil {
			entry.Extraction = b
		}
	}
	if err := e.store.Put(ctx, key, entry); err != nil {
		return nil, fmt.Errorf("writing extraction cache: %w", err)
	}

	e.hot.Set(key.Hash(), outcome, gocache.NoExpiration)
	return outcome, nil
}

// attempt makes one model call and validates its output. Transport and
// parse failures become diagnostics on a failed outcome rather than
// errors: one bad record must not stop a run.
func (e *Escalator) attempt(ctx context.Context, inputText string, strict bool) *Outcome {
	text, model, err := e.client.Complete(ctx, BuildMessages(inputText, strict))
	if err != nil {
		return &Outcome{
			OK:          false,
			Diagnostics: []string{fmt.Sprintf("exception: %v", err)},
			Model:       e.config.Model,
		}
	}

	var ext validate.Extraction
	if err := ParseExtractionJSON(text, &ext); err != nil {
		return &Outcome{
			OK:          false,
			Diagnostics: []string{"response_not_json_parseable"},
			RawText:     text,
			Model:       model,
		}
	}

	verdict := validate.Validate(&ext, inputText)
	return &Outcome{
		Extraction:  &ext,
		OK:          verdict.OK,
		Diagnostics: verdict.Diagnostics,
		RawText:     text,
		Model:       model,
	}
}

func outcomeFromEntry(entry *cache.Entry, model string) *Outcome {
	outcome := &Outcome{
		OK:          entry.OK,
		Diagnostics: entry.Diagnostics,
		RawText:     entry.RawText,
		Model:       model,
		Cached:      true,
	}
	if len(entry.Extraction) > 0 {
		var ext validate.Extraction
		if err := json.Unmarshal(entry.Extraction, &ext); err == nil {
			outcome.Extraction = &ext
		}
	}
	return outcome
}
