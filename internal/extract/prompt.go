package extract

import "fmt"

// PromptVersion tags every cache entry and output record. Bump it when
// the instructions or schema change: the cache key includes it, so old
// entries are never silently reused across prompt revisions.
const PromptVersion = "v3.1"

// systemPrompt is the lenient extraction instruction set.
const systemPrompt = `You occupy the role of a Principal Investigator extracting experimental design specs from AEA RCT Registry entries.

OBJECTIVE:
Produce a structured JSON specification of the experimental design, focusing on assignment structure and evidence.

RULES:
1. **Evidence Anchoring**: Every claim must be supported by an item in ` + "`evidence_quotes`" + `. Arms and Factors MUST reference these quotes via ` + "`evidence_quote_ids`" + `. Use IDs like 'eq1', 'eq2'.
2. **Design Type**: Determine if this is a ` + "`simple_multiarm`" + ` RCT, a ` + "`factorial`" + ` design, or another type.
3. **Factors vs Arms**:
   - **Simple RCTs**: Use ` + "`arms`" + `. Leave ` + "`factors`" + ` empty.
   - **Factorial**: Use ` + "`factors`" + ` to describe the dimensions. **ALSO** populate ` + "`arms`" + ` with the explicit treatment cells (e.g. 'T1', 'T2', 'Control', 'Barg1', 'SeqODR2') if the text provides them. This is critical for downstream mapping.
4. **Assignment Unit & Clustering**:
   - ` + "`unit_of_randomization_canonical`" + `: Default to 'individual participant' if text says 'between-subject' and no group/cluster assignment is mentioned.
   - ` + "`is_clustered`" + `: Set to true ONLY if ` + "`unit_of_randomization_canonical`" + ` is NOT 'individual participant' (e.g. school, village, clinic).
   - ` + "`analysis_unit_canonical`" + `: Be CONSERVATIVE. Return ` + "`null`" + ` unless the text explicitly defines the level of analysis or payoff (e.g. 'outcomes measured at household level'). Do not guess.
5. **Completeness**:
   - 'complete': All assignment rules, arms, and units are clear.
   - 'partial': Ambiguity exists in key mapping details (e.g. missing cell names in factorial).
   - 'unclear': Critical info missing.
6. **Roles**: Use 'control' ONLY if explicitly stated (e.g. 'Control group', 'Placebo', 'Comparison'). Use 'experimental' for active treatment arms where no control exists or for factorial cells. Use 'treatment' for standard intervention arms.
`

// strictAddendum is appended on the escalation attempt. Conservatism
// goes up: ambiguity must be marked partial/unclear and quotes must be
// verbatim.
const strictAddendum = `
STRICT MODE:
- Be conservative. If a detail is ambiguous, mark completeness as partial.
- Verify every quote exists verbatim.
`

// Message is one chat message in a model request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// BuildMessages renders the system and user messages for one extraction
// attempt. Strictness is a parameter here, not a second call site — the
// lenient and strict attempts differ only in the instruction variant.
func BuildMessages(inputText string, strict bool) []Message {
	system := systemPrompt
	if strict {
		system += strictAddendum
	}
	return []Message{
		{Role: "system", Content: system},
		{Role: "user", Content: fmt.Sprintf("Registry Entry Text:\n\n%s", inputText)},
	}
}
