package registry

import (
	"strings"

	"trialspec/internal/canon"
)

// CanonicalInput renders the record as the deterministic labeled text
// block sent to the model. Quotes are later verified against this exact
// string, so the section ordering is fixed and labels are emitted even
// when a section is empty — offsets must be reproducible across runs.
func (r *Record) CanonicalInput() string {
	var parts []string
	parts = append(parts, strings.TrimSpace("TITLE: "+r.Title))
	parts = append(parts, strings.TrimSpace("RCT_ID: "+r.RCTID))
	if r.DOIURL != "" {
		parts = append(parts, strings.TrimSpace("DOI: "+r.DOIURL))
	}
	parts = append(parts, "")
	parts = append(parts, "INTERVENTION_TEXT:")
	parts = append(parts, canon.NormText(r.InterventionText))
	parts = append(parts, "")
	parts = append(parts, "EXPERIMENTAL_DESIGN:")
	parts = append(parts, canon.NormText(r.ExperimentalDesign))
	if r.ExperimentalDesignDetails != "" {
		parts = append(parts, "")
		parts = append(parts, "EXPERIMENTAL_DESIGN_DETAILS:")
		parts = append(parts, canon.NormText(r.ExperimentalDesignDetails))
	}
	parts = append(parts, "")
	parts = append(parts, "PRIMARY_OUTCOMES_RAW:")
	parts = append(parts, strings.Join(r.PrimaryOutcomes, ", "))
	parts = append(parts, "")
	parts = append(parts, "SECONDARY_OUTCOMES_RAW:")
	parts = append(parts, strings.Join(r.SecondaryOutcomes, ", "))
	return strings.TrimSpace(strings.Join(parts, "\n")) + "\n"
}

// Fingerprint is the content hash of CanonicalInput, used as the
// extraction cache and idempotency key.
func (r *Record) Fingerprint() string {
	return canon.Fingerprint(r.CanonicalInput())
}
