// Package registry models AEA RCT Registry trial records as typed
// design-spec rows and handles their line-delimited JSON persistence.
//
// Registry exports are duck-typed and inconsistent (alternate key
// spellings, HTML escapes, numbers-as-strings). This package pins the
// schema down once: every field is named and typed, absence decodes to
// the zero value, and all free text is canonicalized on the way in.
package registry

// SampleSizes carries planned and final sample-size fields as strings.
// The registry mixes formats freely ("N/A", "2500 individuals/1600
// individuals"), so no numeric parsing is attempted here.
type SampleSizes struct {
	PlannedClusters     string `json:"planned_clusters"`
	PlannedObservations string `json:"planned_observations"`
	PlannedArms         string `json:"planned_arms"`
	ByArm               string `json:"by_arm"`
	MDE                 string `json:"mde"`
	FinalClusters       string `json:"final_clusters"`
	FinalObservations   string `json:"final_observations"`
	FinalByArm          string `json:"final_by_arm"`
	AttritionCorrelated string `json:"attrition_correlated"`
}

// Record is one trial's design spec: the free-text design sections the
// model extracts from, plus registry metadata carried through verbatim
// into output provenance. Immutable once loaded.
type Record struct {
	RCTID     string   `json:"rct_id"`
	Title     string   `json:"title"`
	Status    string   `json:"status"`
	DOIURL    string   `json:"doi_url"`
	Countries []string `json:"countries"`

	StartDate             string `json:"start_date"`
	EndDate               string `json:"end_date"`
	InterventionStartDate string `json:"intervention_start_date"`
	InterventionEndDate   string `json:"intervention_end_date"`

	RandomizationUnit   string `json:"randomization_unit"`
	RandomizationMethod string `json:"randomization_method"`

	PrimaryOutcomes             []string `json:"primary_outcomes"`
	PrimaryOutcomesExplanation  string   `json:"primary_outcomes_explanation"`
	SecondaryOutcomes           []string `json:"secondary_outcomes"`
	SecondaryOutcomesExplanation string  `json:"secondary_outcomes_explanation"`

	InterventionText           string `json:"intervention_text"`
	ExperimentalDesign         string `json:"experimental_design"`
	ExperimentalDesignDetails  string `json:"experimental_design_details"`

	SampleSizes        SampleSizes `json:"sample_sizes"`
	Keywords           []string    `json:"keywords"`
	AdditionalKeywords []string    `json:"additional_keywords"`
}
