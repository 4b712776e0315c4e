package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"

	"trialspec/internal/cache"
	"trialspec/internal/config"
	"trialspec/internal/enrich"
	"trialspec/internal/extract"
	"trialspec/internal/registry"
)

func runEnrich(args []string) error {
	fs := flag.NewFlagSet("enrich", flag.ExitOnError)
	in := fs.String("in", "data/design_specs.jsonl", "Input design-spec JSONL")
	out := fs.String("out", "", "Output enriched JSONL (default: data/design_specs_enriched.jsonl)")
	model := fs.String("model", "", "Model as provider/model, e.g. openai/gpt-5.2")
	cachePath := fs.String("cache", "", "Extraction cache database path")
	maxN := fs.Int("max", 0, "Process at most N records (0 = all)")
	sleep := fs.Duration("sleep", 0, "Pause between uncached model calls")
	configPath := fs.String("config", "", "Config file path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	resolved, err := config.Resolve(config.ResolveOptions{
		ConfigPath:   *configPath,
		CLIModel:     *model,
		CLICachePath: *cachePath,
		CLIOutPath:   *out,
	})
	if err != nil {
		return err
	}

	modelCfg, err := extract.ResolveConfig(resolved.Model.Value)
	if err != nil {
		return err
	}
	if modelCfg == nil {
		return fmt.Errorf("no model configured: pass --model provider/model or set TRIALSPEC_MODEL")
	}
	if modelCfg.APIKey == "" {
		if k := resolved.APIKeyForProvider(resolved.Model.Value); k.Value != "" {
			modelCfg.APIKey = k.Value
		}
	}
	if err := modelCfg.Validate(); err != nil {
		return err
	}

	records, err := registry.ReadRecords(*in)
	if err != nil {
		return err
	}
	if *maxN > 0 && len(records) > *maxN {
		records = records[:*maxN]
	}

	store, err := cache.Open(resolved.CachePath.Value)
	if err != nil {
		return err
	}
	defer store.Close()

	pipeline := &enrich.Pipeline{
		Escalator: extract.NewEscalator(extract.NewClient(modelCfg), store, modelCfg),
		Provider:  modelCfg.Provider,
		Progress:  os.Stdout,
		Sleep:     *sleep,
	}

	start := time.Now()
	enriched, summary, err := pipeline.Run(context.Background(), records)
	if err != nil {
		return err
	}

	outPath := resolved.OutPath.Value
	if outPath == "" {
		outPath = "data/design_specs_enriched.jsonl"
	}
	if err := registry.WriteJSONL(outPath, enriched); err != nil {
		return err
	}

	fmt.Println()
	color.Green("Wrote %d enriched records to %s in %s", len(enriched), outPath, time.Since(start).Round(time.Second))
	fmt.Printf("Validated OK: %d\n", summary.OK)
	if summary.Manual > 0 {
		color.Yellow("Needs manual:  %d", summary.Manual)
	} else {
		fmt.Printf("Needs manual:  %d\n", summary.Manual)
	}
	return nil
}
