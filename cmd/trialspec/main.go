package main

import (
	"fmt"
	"os"
)

const version = "0.3.1"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}

	var err error
	switch os.Args[1] {
	case "build":
		err = runBuild(os.Args[2:])
	case "enrich":
		err = runEnrich(os.Args[2:])
	case "prepare-batch":
		err = runPrepareBatch(os.Args[2:])
	case "unpack":
		err = runUnpack(os.Args[2:])
	case "validate":
		err = runValidate(os.Args[2:])
	case "mcp":
		err = runMCP(os.Args[2:])
	case "version", "--version", "-v":
		fmt.Printf("trialspec %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`trialspec %s — design-spec extraction for trial registry entries

Usage:
  trialspec <command> [arguments]

Commands:
  build          Build design-spec records from a raw registry export
  enrich         Run the synchronous LLM enrichment pipeline
  prepare-batch  Write a batch API request file (one line per record)
  unpack         Reconcile a batch output file into enriched records
  validate       Validate one extraction against one record
  mcp            Serve produced output over the Model Context Protocol
  version        Print version

Flags:
  -h, --help     Show this help message
  -v, --version  Print version

Run 'trialspec <command> --help' for command-specific flags.
`, version)
}
