package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"trialspec/internal/canon"
)

var doiRE = regexp.MustCompile(`(?i)(https?://doi\.org/[^\s"<>]+)`)

// BuildRecords turns a raw registry trial export (dict-of-dicts or
// list-of-dicts JSON) into design-spec records. Focus is experimental
// design — arms, outcomes, randomization, sample sizes — not results.
func BuildRecords(path string) ([]*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	trials, err := decodeTrials(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	records := make([]*Record, 0, len(trials))
	for _, t := range trials {
		records = append(records, buildRecord(t))
	}
	return records, nil
}

func decodeTrials(data []byte) ([]map[string]any, error) {
	// Dict-of-dicts ({"0": {...}, ...}) is the common export shape;
	// list-of-dicts also appears. Anything else is unsupported.
	var asMap map[string]json.RawMessage
	if err := json.Unmarshal(data, &asMap); err == nil {
		trials := make([]map[string]any, 0, len(asMap))
		// Sort keys for deterministic output ordering.
		keys := make([]string, 0, len(asMap))
		for k := range asMap {
			keys = append(keys, k)
		}
		sortNumericAware(keys)
		for _, k := range keys {
			var t map[string]any
			if err := json.Unmarshal(asMap[k], &t); err != nil {
				continue
			}
			trials = append(trials, t)
		}
		return trials, nil
	}

	var asList []map[string]any
	if err := json.Unmarshal(data, &asList); err == nil {
		return asList, nil
	}

	return nil, fmt.Errorf("unsupported input structure; expected JSON object or array of trials")
}

func buildRecord(t map[string]any) *Record {
	rctID := canon.NormText(getFirst(t, "RCT ID", "RCT_ID", "rct_id"))
	if rctID == "" {
		rctID = "UNKNOWN"
	}

	citation := canon.NormText(t["Citation"])
	doiURL := ""
	if m := doiRE.FindString(citation); m != "" {
		doiURL = strings.TrimRight(m, ").,]")
	}

	return &Record{
		RCTID:     rctID,
		Title:     canon.NormText(t["Title"]),
		Status:    canon.NormText(t["Status"]),
		DOIURL:    doiURL,
		Countries: parseCountries(t),

		StartDate:             canon.NormText(t["Start date"]),
		EndDate:               canon.NormText(t["End date"]),
		InterventionStartDate: canon.NormText(t["Intervention Start Date"]),
		InterventionEndDate:   canon.NormText(t["Intervention End Date"]),

		RandomizationUnit:   canon.NormText(t["Randomization Unit"]),
		RandomizationMethod: canon.NormText(t["Randomization Method"]),

		PrimaryOutcomes:              canon.SplitBullets(t["Primary Outcomes (end points)"]),
		PrimaryOutcomesExplanation:   canon.NormText(t["Primary Outcomes (explanation)"]),
		SecondaryOutcomes:            canon.SplitBullets(t["Secondary Outcomes (end points)"]),
		SecondaryOutcomesExplanation: canon.NormText(t["Secondary Outcomes (explanation)"]),

		InterventionText:          canon.NormText(t["Intervention(s)"]),
		ExperimentalDesign:        canon.NormText(t["Experimental Design"]),
		ExperimentalDesignDetails: canon.NormText(t["Experimental Design Details"]),

		SampleSizes: SampleSizes{
			PlannedClusters:     canon.NormText(t["Sample size: planned number of clusters"]),
			PlannedObservations: canon.NormText(t["Sample size: planned number of observations"]),
			PlannedArms:         canon.NormText(t["Sample size: planned number of arms"]),
			ByArm:               canon.NormText(t["Sample size (or number of clusters) by treatment arms"]),
			MDE:                 canon.NormText(t["Minimum detectable effect size for main outcomes (accounting for sampledesign and clustering)"]),
			FinalClusters:       canon.NormText(t["Final Sample Size: Number of Clusters (Unit of Randomization)"]),
			FinalObservations:   canon.NormText(t["Final Sample Size: Total Number of Observations"]),
			FinalByArm:          canon.NormText(t["Final Sample Size (or Number of Clusters) by Treatment Arms"]),
			AttritionCorrelated: canon.NormText(t["Was attrition correlated with treatment status?"]),
		},
		Keywords:           canon.SplitBullets(t["Keywords"]),
		AdditionalKeywords: parseAdditionalKeywords(t["Additional Keywords"]),
	}
}

// getFirst returns the first present, non-empty value among keys.
// Absence is a value, not an exception path.
func getFirst(t map[string]any, keys ...string) any {
	for _, k := range keys {
		v, ok := t[k]
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr && s == "" {
			continue
		}
		return v
	}
	return nil
}

// parseCountries handles the registry's country shapes:
// [{"Country":"Kenya",...}], ["Kenya"], or a delimited string.
func parseCountries(t map[string]any) []string {
	c := t["Countries"]
	if c == nil {
		c = t["Country names"]
	}
	switch v := c.(type) {
	case []any:
		var out []string
		for _, item := range v {
			switch it := item.(type) {
			case map[string]any:
				if name := canon.NormText(it["Country"]); name != "" {
					out = append(out, name)
				}
			case string:
				if name := canon.NormText(it); name != "" {
					out = append(out, name)
				}
			}
		}
		return out
	case string:
		return canon.SplitBullets(v)
	}
	return nil
}

func parseAdditionalKeywords(v any) []string {
	if list, ok := v.([]any); ok {
		var out []string
		for _, item := range list {
			if s := canon.NormText(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return canon.SplitBullets(v)
}

// sortNumericAware orders keys numerically when they are all integers
// ("0", "1", ... "10") and lexically otherwise, so dict-of-dicts
// exports keep their original trial order.
func sortNumericAware(keys []string) {
	numeric := make(map[string]int, len(keys))
	allNumeric := true
	for _, k := range keys {
		n, err := strconv.Atoi(k)
		if err != nil {
			allNumeric = false
			break
		}
		numeric[k] = n
	}
	sort.Slice(keys, func(i, j int) bool {
		if allNumeric {
			return numeric[keys[i]] < numeric[keys[j]]
		}
		return keys[i] < keys[j]
	})
}
