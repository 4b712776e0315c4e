package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"

	"trialspec/internal/batch"
	"trialspec/internal/registry"
)

func runPrepareBatch(args []string) error {
	fs := flag.NewFlagSet("prepare-batch", flag.ExitOnError)
	in := fs.String("in", "data/design_specs.jsonl", "Input design-spec JSONL")
	out := fs.String("out", "data/batch_input.jsonl", "Output batch request JSONL")
	model := fs.String("model", "gpt-5.2", "Model name for the batch body")
	maxN := fs.Int("max", 0, "Include at most N records (0 = all)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	records, err := registry.ReadRecords(*in)
	if err != nil {
		return err
	}
	if *maxN > 0 && len(records) > *maxN {
		records = records[:*maxN]
	}

	requests := batch.BuildRequests(records, *model)
	if err := registry.WriteJSONL(*out, requests); err != nil {
		return err
	}

	color.Green("Wrote %d request lines to %s (endpoint %s)", len(requests), *out, batch.Endpoint)
	return nil
}

func runUnpack(args []string) error {
	fs := flag.NewFlagSet("unpack", flag.ExitOnError)
	batchFile := fs.String("batch", "", "Batch output JSONL file (required)")
	in := fs.String("in", "data/design_specs.jsonl", "Original design-spec JSONL")
	out := fs.String("out", "data/design_specs_enriched.jsonl", "Output enriched JSONL")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *batchFile == "" {
		return fmt.Errorf("usage: trialspec unpack --batch <results.jsonl> [--in <specs.jsonl>] [--out <enriched.jsonl>]")
	}

	records, err := registry.ReadRecords(*in)
	if err != nil {
		return err
	}

	f, err := os.Open(*batchFile)
	if err != nil {
		return fmt.Errorf("opening %s: %w", *batchFile, err)
	}
	results, err := batch.ReadResults(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("reading %s: %w", *batchFile, err)
	}

	reconciler := &batch.Reconciler{Log: os.Stderr}
	enriched, summary := reconciler.Reconcile(results, registry.IndexByID(records))

	if err := registry.WriteJSONL(*out, enriched); err != nil {
		return err
	}

	color.Green("Wrote %d enriched records to %s", len(enriched), *out)
	fmt.Printf("Succeeded: %d\n", summary.Succeeded)
	if summary.Failed+summary.Skipped > 0 {
		color.Yellow("Failed: %d, Skipped: %d", summary.Failed, summary.Skipped)
	}
	return nil
}
