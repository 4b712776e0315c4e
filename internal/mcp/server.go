// Package mcp provides a Model Context Protocol server over trialspec
// output files.
//
// It exposes produced design-spec data (record lookup, extraction
// validation, run statistics) as read-only MCP tools over stdio, for
// agent frontends that want to inspect enrichment results without
// shelling out to the CLI.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"trialspec/internal/enrich"
	"trialspec/internal/registry"
	"trialspec/internal/validate"
)

// ServerConfig holds configuration for the MCP server.
type ServerConfig struct {
	Records  []*registry.Record       // source design specs
	Enriched []*enrich.EnrichedRecord // enriched output, may be empty
	Version  string                   // version string for MCP server info
}

// mu serializes tool calls. The mcp-go library dispatches handlers
// concurrently via goroutines; the indexes below are read-only after
// construction, but a single mutex keeps the invariant obvious and
// cheap at this call volume.
var mu sync.Mutex

// NewServer creates a configured MCP server with all trialspec tools.
func NewServer(cfg ServerConfig) *server.MCPServer {
	ver := cfg.Version
	if ver == "" {
		ver = "dev"
	}

	s := server.NewMCPServer(
		"trialspec",
		ver,
		server.WithToolCapabilities(false),
	)

	records := registry.IndexByID(cfg.Records)
	enriched := make(map[string]*enrich.EnrichedRecord, len(cfg.Enriched))
	for _, e := range cfg.Enriched {
		enriched[e.RCTID] = e
	}

	registerGetTool(s, records, enriched)
	registerValidateTool(s, records)
	registerStatsTool(s, cfg.Enriched)

	return s
}

// ServeStdio runs the server over stdin/stdout until the client hangs up.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func registerGetTool(s *server.MCPServer, records map[string]*registry.Record, enriched map[string]*enrich.EnrichedRecord) {
	tool := mcp.NewTool("trialspec_get",
		mcp.WithDescription("Look up one trial by rct_id. Returns the enriched record when available, otherwise the source design spec."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("rct_id",
			mcp.Required(),
			mcp.Description("Trial identifier, e.g. AEARCTR-0000001"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		mu.Lock()
		defer mu.Unlock()

		rctID, err := req.RequireString("rct_id")
		if err != nil {
			return mcp.NewToolResultError("rct_id is required"), nil
		}

		if e, ok := enriched[rctID]; ok {
			data, _ := json.MarshalIndent(e, "", "  ")
			return mcp.NewToolResultText(string(data)), nil
		}
		if r, ok := records[rctID]; ok {
			data, _ := json.MarshalIndent(r, "", "  ")
			return mcp.NewToolResultText(string(data)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("no record for rct_id %q", rctID)), nil
	})
}

func registerValidateTool(s *server.MCPServer, records map[string]*registry.Record) {
	tool := mcp.NewTool("trialspec_validate",
		mcp.WithDescription("Validate a candidate extraction against a trial's canonical input text. Returns the verdict and every diagnostic."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("rct_id",
			mcp.Required(),
			mcp.Description("Trial identifier the extraction claims to describe"),
		),
		mcp.WithString("extraction",
			mcp.Required(),
			mcp.Description("Candidate extraction as a JSON object"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		mu.Lock()
		defer mu.Unlock()

		rctID, err := req.RequireString("rct_id")
		if err != nil {
			return mcp.NewToolResultError("rct_id is required"), nil
		}
		raw, err := req.RequireString("extraction")
		if err != nil {
			return mcp.NewToolResultError("extraction is required"), nil
		}

		rec, ok := records[rctID]
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("no record for rct_id %q", rctID)), nil
		}

		var ext validate.Extraction
		if err := json.Unmarshal([]byte(raw), &ext); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("extraction is not valid JSON: %v", err)), nil
		}

		verdict := validate.Validate(&ext, rec.CanonicalInput())
		out := map[string]any{
			"ok":          verdict.OK,
			"diagnostics": verdict.Diagnostics,
			"warnings":    verdict.Warnings(),
		}
		data, _ := json.MarshalIndent(out, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerStatsTool(s *server.MCPServer, enriched []*enrich.EnrichedRecord) {
	tool := mcp.NewTool("trialspec_stats",
		mcp.WithDescription("Summarize enrichment outcomes: total records, validated ok, and flagged for manual review."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		mu.Lock()
		defer mu.Unlock()

		var ok, manual int
		for _, e := range enriched {
			if e.Enrichment.Quality.NeedsManual {
				manual++
			} else {
				ok++
			}
		}

		out := map[string]any{
			"total":        len(enriched),
			"ok":           ok,
			"needs_manual": manual,
		}
		data, _ := json.MarshalIndent(out, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}
