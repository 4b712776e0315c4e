package main

import (
	"flag"

	"github.com/fatih/color"

	"trialspec/internal/registry"
)

func runBuild(args []string) error {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	in := fs.String("in", "data/trials.json", "Raw registry export (JSON)")
	out := fs.String("out", "data/design_specs.jsonl", "Output design-spec JSONL")
	if err := fs.Parse(args); err != nil {
		return err
	}

	records, err := registry.BuildRecords(*in)
	if err != nil {
		return err
	}

	if err := registry.WriteJSONL(*out, records); err != nil {
		return err
	}

	color.Green("Wrote %d design specs to %s", len(records), *out)
	return nil
}
