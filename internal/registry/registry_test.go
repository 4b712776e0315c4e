package registry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCanonicalInput_Deterministic(t *testing.T) {
	rec := &Record{
		RCTID:              "AEARCTR-0001234",
		Title:              "Cash Transfers and Schooling",
		InterventionText:   "Households receive  monthly\r\ncash transfers.",
		ExperimentalDesign: "Participants were assigned to Treatment or Control.",
		PrimaryOutcomes:    []string{"school attendance", "test scores"},
	}

	a := rec.CanonicalInput()
	b := rec.CanonicalInput()
	if a != b {
		t.Fatal("CanonicalInput is not deterministic")
	}
	if rec.Fingerprint() != rec.Fingerprint() {
		t.Fatal("Fingerprint is not deterministic")
	}
}

func TestCanonicalInput_SectionLabels(t *testing.T) {
	// Labels must appear even when sections are empty so offsets stay
	// reproducible.
	rec := &Record{RCTID: "AEARCTR-0000001"}
	text := rec.CanonicalInput()

	for _, label := range []string{
		"TITLE:", "RCT_ID: AEARCTR-0000001",
		"INTERVENTION_TEXT:", "EXPERIMENTAL_DESIGN:",
		"PRIMARY_OUTCOMES_RAW:", "SECONDARY_OUTCOMES_RAW:",
	} {
		if !strings.Contains(text, label) {
			t.Errorf("canonical input missing label %q:\n%s", label, text)
		}
	}
	if strings.Contains(text, "DOI:") {
		t.Error("DOI label should be omitted when empty")
	}
	if strings.Contains(text, "EXPERIMENTAL_DESIGN_DETAILS:") {
		t.Error("details label should be omitted when empty")
	}
	if !strings.HasSuffix(text, "\n") {
		t.Error("canonical input should end with a newline")
	}
}

func TestCanonicalInput_OptionalSections(t *testing.T) {
	rec := &Record{
		RCTID:                     "AEARCTR-0000002",
		DOIURL:                    "https://doi.org/10.1257/rct.2",
		ExperimentalDesignDetails: "Stratified by district.",
	}
	text := rec.CanonicalInput()
	if !strings.Contains(text, "DOI: https://doi.org/10.1257/rct.2") {
		t.Error("expected DOI section")
	}
	if !strings.Contains(text, "EXPERIMENTAL_DESIGN_DETAILS:\nStratified by district.") {
		t.Error("expected design details section")
	}
}

func TestReadRecords_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "design_specs.jsonl")

	in := []*Record{
		{RCTID: "AEARCTR-0000001", Title: "First"},
		{RCTID: "AEARCTR-0000002", Title: "Second"},
	}
	if err := WriteJSONL(path, in); err != nil {
		t.Fatalf("WriteJSONL failed: %v", err)
	}

	out, err := ReadRecords(path)
	if err != nil {
		t.Fatalf("ReadRecords failed: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 records, got %d", len(out))
	}
	if out[0].RCTID != "AEARCTR-0000001" || out[1].Title != "Second" {
		t.Errorf("round trip mismatch: %+v", out)
	}
}

func TestReadRecords_SkipsBlankLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "specs.jsonl")
	content := `{"rct_id":"A"}` + "\n\n   \n" + `{"rct_id":"B"}` + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := ReadRecords(path)
	if err != nil {
		t.Fatalf("ReadRecords failed: %v", err)
	}
	if len(out) != 2 {
		t.Errorf("expected 2 records, got %d", len(out))
	}
}

func TestReadRecords_MalformedLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "specs.jsonl")
	content := `{"rct_id":"A"}` + "\n" + `{not json}` + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := ReadRecords(path)
	if err == nil {
		t.Fatal("expected error for malformed line")
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("expected line number in error, got: %v", err)
	}
}

func TestIndexByID(t *testing.T) {
	idx := IndexByID([]*Record{
		{RCTID: "A", Title: "first"},
		{RCTID: "B"},
		{RCTID: ""},
		{RCTID: "A", Title: "later wins"},
	})
	if len(idx) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(idx))
	}
	if idx["A"].Title != "later wins" {
		t.Errorf("expected later duplicate to win, got %q", idx["A"].Title)
	}
}

func TestBuildRecords_DictOfDicts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trials.json")
	raw := `{
	  "1": {
	    "RCT ID": "AEARCTR-0009999",
	    "Title": "Microcredit &amp; Welfare",
	    "Status": "completed",
	    "Citation": "See https://doi.org/10.1257/rct.9999).",
	    "Countries": [{"Country": "Kenya"}, {"Country": "Uganda"}],
	    "Randomization Unit": "household",
	    "Primary Outcomes (end points)": "- income\n- consumption",
	    "Intervention(s)": "Loans of  varying size",
	    "Experimental Design": "Households randomized to loan or control",
	    "Sample size: planned number of observations": 2500
	  },
	  "0": {
	    "rct_id": "AEARCTR-0000001",
	    "Title": "First Trial"
	  }
	}`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	records, err := BuildRecords(path)
	if err != nil {
		t.Fatalf("BuildRecords failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	// Numeric key order: "0" before "1".
	if records[0].RCTID != "AEARCTR-0000001" {
		t.Errorf("expected numeric key ordering, got %q first", records[0].RCTID)
	}

	r := records[1]
	if r.RCTID != "AEARCTR-0009999" {
		t.Errorf("RCTID = %q", r.RCTID)
	}
	if r.Title != "Microcredit & Welfare" {
		t.Errorf("expected HTML entities decoded, got %q", r.Title)
	}
	if r.DOIURL != "https://doi.org/10.1257/rct.9999" {
		t.Errorf("DOIURL = %q", r.DOIURL)
	}
	if len(r.Countries) != 2 || r.Countries[0] != "Kenya" {
		t.Errorf("Countries = %v", r.Countries)
	}
	if len(r.PrimaryOutcomes) != 2 || r.PrimaryOutcomes[1] != "consumption" {
		t.Errorf("PrimaryOutcomes = %v", r.PrimaryOutcomes)
	}
	if r.InterventionText != "Loans of varying size" {
		t.Errorf("InterventionText = %q", r.InterventionText)
	}
	if r.SampleSizes.PlannedObservations != "2500" {
		t.Errorf("PlannedObservations = %q", r.SampleSizes.PlannedObservations)
	}
}

func TestBuildRecords_ListInput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trials.json")
	raw := `[{"RCT ID": "AEARCTR-0000042", "Title": "List Shape"}]`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	records, err := BuildRecords(path)
	if err != nil {
		t.Fatalf("BuildRecords failed: %v", err)
	}
	if len(records) != 1 || records[0].RCTID != "AEARCTR-0000042" {
		t.Errorf("unexpected records: %+v", records)
	}
}

func TestBuildRecords_MissingID(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trials.json")
	raw := `[{"Title": "No ID"}]`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	records, err := BuildRecords(path)
	if err != nil {
		t.Fatalf("BuildRecords failed: %v", err)
	}
	if records[0].RCTID != "UNKNOWN" {
		t.Errorf("expected UNKNOWN fallback, got %q", records[0].RCTID)
	}
}
