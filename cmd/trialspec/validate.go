package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"

	"trialspec/internal/registry"
	"trialspec/internal/validate"
)

func runValidate(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	in := fs.String("in", "data/design_specs.jsonl", "Design-spec JSONL containing the record")
	rctID := fs.String("rct-id", "", "Trial identifier (required)")
	extractionPath := fs.String("extraction", "", "Path to an extraction JSON file (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *rctID == "" || *extractionPath == "" {
		return fmt.Errorf("usage: trialspec validate --rct-id <id> --extraction <file.json> [--in <specs.jsonl>]")
	}

	records, err := registry.ReadRecords(*in)
	if err != nil {
		return err
	}
	rec, ok := registry.IndexByID(records)[*rctID]
	if !ok {
		return fmt.Errorf("no record for rct_id %q in %s", *rctID, *in)
	}

	raw, err := os.ReadFile(*extractionPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", *extractionPath, err)
	}
	var ext validate.Extraction
	if err := json.Unmarshal(raw, &ext); err != nil {
		return fmt.Errorf("parsing %s: %w", *extractionPath, err)
	}

	verdict := validate.Validate(&ext, rec.CanonicalInput())

	if verdict.OK {
		color.Green("%s: ok", *rctID)
	} else {
		color.Red("%s: FAILED", *rctID)
	}
	for _, d := range verdict.Diagnostics {
		if strings.HasPrefix(d, "Warning: ") {
			color.Yellow("  %s", d)
		} else {
			fmt.Printf("  %s\n", d)
		}
	}

	if !verdict.OK {
		os.Exit(1)
	}
	return nil
}
