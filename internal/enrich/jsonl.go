package enrich

import (
	"encoding/json"
	"fmt"
	"os"

	"trialspec/internal/registry"
)

// ReadRecords loads enriched records from a line-delimited JSON file.
func ReadRecords(path string) ([]*EnrichedRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var records []*EnrichedRecord
	if err := registry.ScanLines(f, func(lineNo int, line []byte) error {
		var r EnrichedRecord
		if err := json.Unmarshal(line, &r); err != nil {
			return fmt.Errorf("%s line %d: %w", path, lineNo, err)
		}
		records = append(records, &r)
		return nil
	}); err != nil {
		return nil, err
	}
	return records, nil
}
