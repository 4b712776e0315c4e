// Package enrich assembles validated extractions and their source
// records into the versioned enriched output schema.
package enrich

import (
	"trialspec/internal/registry"
	"trialspec/internal/validate"
)

// SchemaVersion tags every enriched record so downstream consumers can
// detect format evolution.
const SchemaVersion = "design_specs_enriched.v1"

// LLMMeta records which model run produced an enrichment.
type LLMMeta struct {
	Provider         string  `json:"provider"`
	Model            string  `json:"model"`
	PromptVersion    string  `json:"prompt_version"`
	InputFingerprint string  `json:"input_fingerprint"`
	RunID            string  `json:"run_id"`
	CreatedAt        *string `json:"created_at"`
}

// Derived holds the model's structured design fields, minus the
// evidence quotes which live under Evidence.
type Derived struct {
	DesignType                   string            `json:"design_type,omitempty"`
	UnitOfRandomizationCanonical *string           `json:"unit_of_randomization_canonical,omitempty"`
	IsClustered                  bool              `json:"is_clustered,omitempty"`
	AnalysisUnitCanonical        *string           `json:"analysis_unit_canonical,omitempty"`
	PrimaryOutcomesDedup         []string          `json:"primary_outcomes_dedup,omitempty"`
	Arms                         []validate.Arm    `json:"arms,omitempty"`
	Factors                      []validate.Factor `json:"factors,omitempty"`
	AssignmentRules              []string          `json:"assignment_rules,omitempty"`
	DesignCompleteness           string            `json:"design_completeness,omitempty"`
	ExtractionSources            []string          `json:"extraction_sources,omitempty"`
	Notes                        string            `json:"notes,omitempty"`
}

// Evidence carries the quote list the derived fields reference.
type Evidence struct {
	Quotes []validate.EvidenceQuote `json:"quotes"`
}

// Quality is the validation outcome for one record. NeedsManual marks
// records a reviewer must look at; it is never cleared downstream.
type Quality struct {
	ValidationPassed bool     `json:"validation_passed"`
	ValidationErrors []string `json:"validation_errors"`
	Flags            []string `json:"flags"`
	NeedsManual      bool     `json:"needs_manual"`
}

// Provenance holds the source record exactly as it was read. Nothing
// model-derived belongs here.
type Provenance struct {
	Registry registry.Record `json:"registry"`
}

// Enrichment groups everything added on top of the source record.
type Enrichment struct {
	LLM      LLMMeta  `json:"llm"`
	Derived  Derived  `json:"derived"`
	Evidence Evidence `json:"evidence"`
	Quality  Quality  `json:"quality"`
}

// EnrichedRecord is the final merged output for one trial. Created once
// at the end of the pipeline; immutable thereafter.
type EnrichedRecord struct {
	SchemaVersion string     `json:"schema_version"`
	RCTID         string     `json:"rct_id"`
	Provenance    Provenance `json:"provenance"`
	Enrichment    Enrichment `json:"enrichment"`
}

// NewRecord assembles an enriched record from a source record, a
// (possibly nil) extraction, and the validation outcome. A nil
// extraction yields empty derived fields and an empty quote list — the
// record still ships, flagged for manual review by its quality block.
func NewRecord(rec *registry.Record, ext *validate.Extraction, meta LLMMeta, ok bool, diagnostics []string) *EnrichedRecord {
	if diagnostics == nil {
		diagnostics = []string{}
	}

	out := &EnrichedRecord{
		SchemaVersion: SchemaVersion,
		RCTID:         rec.RCTID,
		Provenance:    Provenance{Registry: *rec},
		Enrichment: Enrichment{
			LLM: meta,
			Evidence: Evidence{
				Quotes: []validate.EvidenceQuote{},
			},
			Quality: Quality{
				ValidationPassed: ok,
				ValidationErrors: diagnostics,
				Flags:            []string{},
				NeedsManual:      !ok,
			},
		},
	}

	if ext != nil {
		out.Enrichment.Derived = Derived{
			DesignType:                   ext.DesignType,
			UnitOfRandomizationCanonical: ext.UnitOfRandomizationCanonical,
			IsClustered:                  ext.IsClustered,
			AnalysisUnitCanonical:        ext.AnalysisUnitCanonical,
			PrimaryOutcomesDedup:         ext.PrimaryOutcomesDedup,
			Arms:                         ext.Arms,
			Factors:                      ext.Factors,
			AssignmentRules:              ext.AssignmentRules,
			DesignCompleteness:           ext.DesignCompleteness,
			ExtractionSources:            ext.ExtractionSources,
			Notes:                        ext.Notes,
		}
		if ext.EvidenceQuotes != nil {
			out.Enrichment.Evidence.Quotes = ext.EvidenceQuotes
		}
	}

	return out
}
