package validate

import (
	"fmt"
	"strings"
)

// warningPrefix marks diagnostics that are recorded but never flip the
// verdict. Quote-fidelity drift is common in model output and should
// not discard an otherwise-sound extraction; structural defects should.
const warningPrefix = "Warning: "

// Verdict is the outcome of validating one extraction. OK is true iff
// no hard-error diagnostics were recorded; warnings are retained for
// audit but never fail the verdict.
type Verdict struct {
	OK          bool     `json:"ok"`
	Diagnostics []string `json:"diagnostics"`
}

// Warnings returns only the non-blocking diagnostics.
func (v Verdict) Warnings() []string {
	var out []string
	for _, d := range v.Diagnostics {
		if strings.HasPrefix(d, warningPrefix) {
			out = append(out, d)
		}
	}
	return out
}

// HardErrors returns only the diagnostics that failed the verdict.
func (v Verdict) HardErrors() []string {
	var out []string
	for _, d := range v.Diagnostics {
		if !strings.HasPrefix(d, warningPrefix) {
			out = append(out, d)
		}
	}
	return out
}

// Validate applies the evidence-anchoring business rules to ext against
// inputText, the canonical source text the model was shown.
//
// Hard errors: missing/duplicate ids, empty quotes, dangling quote
// references, unevidenced arms, factors with fewer than two levels, and
// a factorial design with no factors (unless completeness is unclear).
// Quote-fidelity failures are warnings.
func Validate(ext *Extraction, inputText string) Verdict {
	var diags []string

	if ext == nil {
		return Verdict{OK: false, Diagnostics: []string{"extraction is missing"}}
	}

	// (1) Evidence quotes: collect the id set everything else resolves
	// against, flagging duplicates, empties, and unverifiable quotes.
	quoteIDs := make(map[string]struct{}, len(ext.EvidenceQuotes))
	for i, q := range ext.EvidenceQuotes {
		if q.ID == "" {
			diags = append(diags, fmt.Sprintf("evidence_quotes[%d] missing id", i))
			continue
		}
		if _, dup := quoteIDs[q.ID]; dup {
			diags = append(diags, fmt.Sprintf("evidence_quotes[%d] duplicate id '%s'", i, q.ID))
		}
		quoteIDs[q.ID] = struct{}{}

		if strings.TrimSpace(q.Quote) == "" {
			diags = append(diags, fmt.Sprintf("evidence_quotes[%d] empty quote", i))
		} else if !VerifyQuoteFuzzy(q.Quote, inputText) {
			diags = append(diags, fmt.Sprintf("%sevidence_quotes[%d] quote not found in text (id: %s)", warningPrefix, i, q.ID))
		}
	}

	checkRefs := func(refs []string, path string) {
		if len(refs) == 0 {
			diags = append(diags, fmt.Sprintf("%s has no evidence_quote_ids", path))
			return
		}
		for _, rid := range refs {
			if _, ok := quoteIDs[rid]; !ok {
				diags = append(diags, fmt.Sprintf("%s references unknown quote id '%s'", path, rid))
			}
		}
	}

	// (2) Arms: unique ids, and every arm must cite evidence — an
	// unevidenced arm is a defect, not an omission.
	seenArms := make(map[string]struct{}, len(ext.Arms))
	for i, arm := range ext.Arms {
		if arm.ArmID == "" {
			diags = append(diags, fmt.Sprintf("arms[%d] missing arm_id", i))
		} else if _, dup := seenArms[arm.ArmID]; dup {
			diags = append(diags, fmt.Sprintf("arms[%d] duplicate arm_id '%s'", i, arm.ArmID))
		}
		seenArms[arm.ArmID] = struct{}{}

		checkRefs(arm.EvidenceQuoteIDs, fmt.Sprintf("arms[%d](%s)", i, arm.ArmID))
	}

	// (3) Factors: at least two levels each, levels resolve against the
	// same quote id set.
	for i, fac := range ext.Factors {
		if len(fac.Levels) < 2 {
			diags = append(diags, fmt.Sprintf("factors[%d] has fewer than 2 levels", i))
		}
		for j, lvl := range fac.Levels {
			checkRefs(lvl.EvidenceQuoteIDs, fmt.Sprintf("factors[%d].levels[%d]", i, j))
		}
	}

	// (4) Conditional design-type rules. Arms are still allowed on
	// factorial designs for named cells.
	if ext.DesignType == "factorial" {
		if len(ext.Factors) < 1 && ext.DesignCompleteness != "unclear" {
			diags = append(diags, "design_type 'factorial' requires at least 1 factor")
		}
	}

	ok := true
	for _, d := range diags {
		if !strings.HasPrefix(d, warningPrefix) {
			ok = false
			break
		}
	}
	return Verdict{OK: ok, Diagnostics: diags}
}
