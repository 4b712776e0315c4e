package main

import (
	"flag"
	"fmt"
	"os"

	"trialspec/internal/enrich"
	"trialspec/internal/mcp"
	"trialspec/internal/registry"
)

func runMCP(args []string) error {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	in := fs.String("in", "data/design_specs.jsonl", "Design-spec JSONL")
	enrichedPath := fs.String("enriched", "", "Enriched output JSONL (optional)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	records, err := registry.ReadRecords(*in)
	if err != nil {
		return err
	}

	var enrichedRecords []*enrich.EnrichedRecord
	if *enrichedPath != "" {
		enrichedRecords, err = enrich.ReadRecords(*enrichedPath)
		if err != nil {
			return err
		}
	}

	fmt.Fprintf(os.Stderr, "trialspec mcp: serving %d records (%d enriched) over stdio\n",
		len(records), len(enrichedRecords))

	srv := mcp.NewServer(mcp.ServerConfig{
		Records:  records,
		Enriched: enrichedRecords,
		Version:  version,
	})
	return mcp.ServeStdio(srv)
}
