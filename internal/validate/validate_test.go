package validate

import (
	"strings"
	"testing"
)

const designText = "EXPERIMENTAL_DESIGN:\nParticipants were assigned to Treatment or Control."

func validExtraction() *Extraction {
	return &Extraction{
		DesignType:         "simple_multiarm",
		DesignCompleteness: "complete",
		Arms: []Arm{
			{ArmID: "control", Name: "Control", Role: "control", EvidenceQuoteIDs: []string{"eq1"}},
			{ArmID: "t1", Name: "Treatment", Role: "treatment", EvidenceQuoteIDs: []string{"eq1"}},
		},
		EvidenceQuotes: []EvidenceQuote{
			{ID: "eq1", SourceDoc: "registry", Quote: "assigned to Treatment or Control", Supports: "arms"},
		},
	}
}

func TestValidate_OK(t *testing.T) {
	v := Validate(validExtraction(), designText)
	if !v.OK {
		t.Fatalf("expected ok verdict, diagnostics: %v", v.Diagnostics)
	}
	if len(v.Diagnostics) != 0 {
		t.Errorf("expected no diagnostics, got %v", v.Diagnostics)
	}
}

func TestValidate_NilExtraction(t *testing.T) {
	v := Validate(nil, designText)
	if v.OK {
		t.Error("nil extraction should fail")
	}
}

func TestValidate_DanglingQuoteReference(t *testing.T) {
	ext := validExtraction()
	ext.Arms[1].EvidenceQuoteIDs = []string{"eq99"}

	v := Validate(ext, designText)
	if v.OK {
		t.Fatal("dangling quote reference should fail the verdict")
	}
	found := false
	for _, d := range v.Diagnostics {
		if strings.Contains(d, "arms[1](t1)") && strings.Contains(d, "'eq99'") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected diagnostic naming the arm and the dangling id, got %v", v.Diagnostics)
	}
}

func TestValidate_DuplicateArmID(t *testing.T) {
	ext := validExtraction()
	ext.Arms[1].ArmID = "control"

	v := Validate(ext, designText)
	if v.OK {
		t.Fatal("duplicate arm_id should fail the verdict")
	}
}

func TestValidate_MissingArmID(t *testing.T) {
	ext := validExtraction()
	ext.Arms[0].ArmID = ""

	v := Validate(ext, designText)
	if v.OK {
		t.Fatal("missing arm_id should fail the verdict")
	}
}

func TestValidate_ArmWithoutEvidence(t *testing.T) {
	ext := validExtraction()
	ext.Arms[0].EvidenceQuoteIDs = nil

	v := Validate(ext, designText)
	if v.OK {
		t.Fatal("unevidenced arm should fail the verdict")
	}
	found := false
	for _, d := range v.Diagnostics {
		if strings.Contains(d, "has no evidence_quote_ids") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected no-evidence diagnostic, got %v", v.Diagnostics)
	}
}

func TestValidate_DuplicateQuoteID(t *testing.T) {
	ext := validExtraction()
	ext.EvidenceQuotes = append(ext.EvidenceQuotes, EvidenceQuote{
		ID: "eq1", SourceDoc: "registry", Quote: "assigned to Treatment or Control",
	})

	v := Validate(ext, designText)
	if v.OK {
		t.Fatal("duplicate evidence quote id should fail the verdict")
	}
}

func TestValidate_EmptyQuote(t *testing.T) {
	ext := validExtraction()
	ext.EvidenceQuotes[0].Quote = "   "

	v := Validate(ext, designText)
	if v.OK {
		t.Fatal("empty quote should fail the verdict")
	}
}

func TestValidate_MissingQuoteID(t *testing.T) {
	ext := validExtraction()
	ext.EvidenceQuotes[0].ID = ""

	v := Validate(ext, designText)
	if v.OK {
		t.Fatal("missing quote id should fail the verdict")
	}
	// The arms referencing eq1 now dangle too.
	if len(v.HardErrors()) < 2 {
		t.Errorf("expected cascade diagnostics, got %v", v.Diagnostics)
	}
}

func TestValidate_UnverifiableQuoteIsWarningOnly(t *testing.T) {
	ext := validExtraction()
	ext.EvidenceQuotes[0].Quote = "this sentence appears nowhere in the source text at all"

	v := Validate(ext, designText)
	if !v.OK {
		t.Fatalf("quote-fidelity mismatch alone must not fail the verdict: %v", v.Diagnostics)
	}
	if len(v.Warnings()) != 1 {
		t.Fatalf("expected exactly one warning, got %v", v.Diagnostics)
	}
	if !strings.Contains(v.Warnings()[0], "quote not found in text (id: eq1)") {
		t.Errorf("unexpected warning text: %q", v.Warnings()[0])
	}
	if len(v.HardErrors()) != 0 {
		t.Errorf("expected no hard errors, got %v", v.HardErrors())
	}
}

func TestValidate_FactorLevelCount(t *testing.T) {
	ext := validExtraction()
	ext.Factors = []Factor{
		{FactorID: "f1", Name: "price", Levels: []Level{
			{LevelID: "l1", Name: "high", EvidenceQuoteIDs: []string{"eq1"}},
		}},
	}

	v := Validate(ext, designText)
	if v.OK {
		t.Fatal("factor with a single level should fail the verdict")
	}
	found := false
	for _, d := range v.Diagnostics {
		if strings.Contains(d, "factors[0] has fewer than 2 levels") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected level-count diagnostic, got %v", v.Diagnostics)
	}
}

func TestValidate_FactorLevelDanglingReference(t *testing.T) {
	ext := validExtraction()
	ext.Factors = []Factor{
		{FactorID: "f1", Name: "price", Levels: []Level{
			{LevelID: "l1", Name: "high", EvidenceQuoteIDs: []string{"eq1"}},
			{LevelID: "l2", Name: "low", EvidenceQuoteIDs: []string{"missing"}},
		}},
	}

	v := Validate(ext, designText)
	if v.OK {
		t.Fatal("dangling level reference should fail the verdict")
	}
}

func TestValidate_FactorialRequiresFactors(t *testing.T) {
	ext := validExtraction()
	ext.DesignType = "factorial"
	ext.Factors = nil
	ext.DesignCompleteness = "partial"

	v := Validate(ext, designText)
	if v.OK {
		t.Fatal("factorial design with zero factors should fail unless completeness is unclear")
	}

	ext.DesignCompleteness = "unclear"
	v = Validate(ext, designText)
	if !v.OK {
		t.Fatalf("unclear completeness exempts the factor requirement: %v", v.Diagnostics)
	}
}

func TestValidate_WarningsNeverFlipVerdict(t *testing.T) {
	ext := validExtraction()
	ext.EvidenceQuotes[0].Quote = "completely fabricated quote that matches nothing here"
	ext.Arms[0].EvidenceQuoteIDs = []string{"eq404"}

	v := Validate(ext, designText)
	if v.OK {
		t.Fatal("hard error present, verdict must fail")
	}
	if len(v.Warnings()) != 1 {
		t.Errorf("warning should still be recorded alongside hard errors: %v", v.Diagnostics)
	}
}
