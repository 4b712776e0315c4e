package extract

import "trialspec/internal/validate"

// SchemaName labels the structured-output schema in API requests.
const SchemaName = "design_extraction"

// ExtractionSchema builds the JSON schema that strict structured-output
// mode enforces server-side. Keeping it in code rather than a fixture
// means the enum lists stay in lockstep with the validator's.
func ExtractionSchema() map[string]any {
	quoteRefs := map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
	stringArr := map[string]any{"type": "array", "items": map[string]any{"type": "string"}}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"design_type":                     map[string]any{"type": "string", "enum": validate.DesignTypes},
			"unit_of_randomization_canonical": map[string]any{"type": []string{"string", "null"}},
			"is_clustered":                    map[string]any{"type": "boolean"},
			"analysis_unit_canonical":         map[string]any{"type": []string{"string", "null"}},
			"primary_outcomes_dedup":          stringArr,
			"arms": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"arm_id":             map[string]any{"type": "string"},
						"name":               map[string]any{"type": "string"},
						"role":               map[string]any{"type": "string", "enum": validate.ArmRoles},
						"description":        map[string]any{"type": "string"},
						"evidence_quote_ids": quoteRefs,
					},
					"required":             []string{"arm_id", "name", "role", "description", "evidence_quote_ids"},
					"additionalProperties": false,
				},
			},
			"factors": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"factor_id": map[string]any{"type": "string"},
						"name":      map[string]any{"type": "string"},
						"levels": map[string]any{
							"type": "array",
							"items": map[string]any{
								"type": "object",
								"properties": map[string]any{
									"level_id":           map[string]any{"type": "string"},
									"name":               map[string]any{"type": "string"},
									"description":        map[string]any{"type": "string"},
									"evidence_quote_ids": quoteRefs,
								},
								"required":             []string{"level_id", "name", "description", "evidence_quote_ids"},
								"additionalProperties": false,
							},
						},
					},
					"required":             []string{"factor_id", "name", "levels"},
					"additionalProperties": false,
				},
			},
			"assignment_rules":    stringArr,
			"design_completeness": map[string]any{"type": "string", "enum": validate.CompletenessVals},
			"extraction_sources": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string", "enum": validate.SourceDocs},
			},
			"evidence_quotes": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"id":         map[string]any{"type": "string"},
						"source_doc": map[string]any{"type": "string", "enum": validate.SourceDocs},
						"quote":      map[string]any{"type": "string"},
						"supports":   map[string]any{"type": "string"},
					},
					"required":             []string{"id", "source_doc", "quote", "supports"},
					"additionalProperties": false,
				},
			},
			"notes": map[string]any{"type": "string"},
		},
		"required": []string{
			"design_type", "unit_of_randomization_canonical", "is_clustered", "analysis_unit_canonical",
			"primary_outcomes_dedup", "arms", "factors", "assignment_rules",
			"design_completeness", "extraction_sources", "evidence_quotes", "notes",
		},
		"additionalProperties": false,
	}
}

// SchemaFormat wraps the schema in the envelope the /v1/responses "text"
// parameter expects.
func SchemaFormat() map[string]any {
	return map[string]any{
		"format": map[string]any{
			"type":   "json_schema",
			"name":   SchemaName,
			"schema": ExtractionSchema(),
			"strict": true,
		},
	}
}
