// Package validate checks candidate design-spec extractions against the
// evidence-anchoring business rules: every structured claim must cite a
// quote, and every quote must be traceable (at least approximately) to
// the canonical source text.
package validate

// Enumerations mirror the design_extraction schema the model is held to.
var (
	DesignTypes = []string{
		"simple_multiarm", "factorial", "encouragement", "cluster_rct",
		"crossover", "stepped_wedge", "multistage", "saturation",
		"discontinuity", "observational", "other",
	}
	ArmRoles         = []string{"control", "treatment", "experimental", "active_comparator", "placebo", "unknown"}
	CompletenessVals = []string{"complete", "partial", "unclear"}
	SourceDocs       = []string{"registry", "paper"}
)

// EvidenceQuote is one claimed span of source text. The id is referenced
// by arms and factor levels; the quote must be approximately present in
// the canonical input.
type EvidenceQuote struct {
	ID        string `json:"id"`
	SourceDoc string `json:"source_doc"`
	Quote     string `json:"quote"`
	Supports  string `json:"supports"`
}

// Arm is one treatment cell of the trial.
type Arm struct {
	ArmID            string   `json:"arm_id"`
	Name             string   `json:"name"`
	Role             string   `json:"role"`
	Description      string   `json:"description"`
	EvidenceQuoteIDs []string `json:"evidence_quote_ids"`
}

// Level is one level of an experimental factor.
type Level struct {
	LevelID          string   `json:"level_id"`
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	EvidenceQuoteIDs []string `json:"evidence_quote_ids"`
}

// Factor is one dimension of a factorial design. A factor with a single
// level is not a factor; the validator enforces at least two.
type Factor struct {
	FactorID string  `json:"factor_id"`
	Name     string  `json:"name"`
	Levels   []Level `json:"levels"`
}

// Extraction is the candidate structured object produced by the model
// for one record and one attempt. It is consumed exactly once by
// Validate and never mutated; a failed attempt produces a fresh
// Extraction rather than patching this one.
type Extraction struct {
	DesignType                   string          `json:"design_type"`
	UnitOfRandomizationCanonical *string         `json:"unit_of_randomization_canonical"`
	IsClustered                  bool            `json:"is_clustered"`
	AnalysisUnitCanonical        *string         `json:"analysis_unit_canonical"`
	PrimaryOutcomesDedup         []string        `json:"primary_outcomes_dedup"`
	Arms                         []Arm           `json:"arms"`
	Factors                      []Factor        `json:"factors"`
	AssignmentRules              []string        `json:"assignment_rules"`
	DesignCompleteness           string          `json:"design_completeness"`
	ExtractionSources            []string        `json:"extraction_sources"`
	EvidenceQuotes               []EvidenceQuote `json:"evidence_quotes"`
	Notes                        string          `json:"notes"`
}
