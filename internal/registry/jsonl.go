package registry

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// maxLineBytes bounds a single JSONL line. Registry design texts run
// long but nowhere near this; batch result lines carry whole model
// responses and need the headroom.
const maxLineBytes = 16 * 1024 * 1024

// ReadRecords loads design-spec records from a line-delimited JSON
// file. Blank lines are skipped; a malformed line is a hard error with
// its line number, since silently dropping source records would make
// downstream counts lie.
func ReadRecords(path string) ([]*Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var records []*Record
	if err := ScanLines(f, func(lineNo int, line []byte) error {
		var r Record
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

// IndexByID builds the rct_id lookup used for batch reconciliation.
// Later duplicates win, matching a plain map rebuild of the input file.
func IndexByID(records []*Record) map[string]*Record {
	idx := make(map[string]*Record, len(records))
	for _, r := range records {
		if r.RCTID != "" {
			idx[r.RCTID] = r
		}
	}
	return idx
}

// ScanLines iterates non-blank lines of a JSONL stream, calling fn with
// a 1-based line number.
func ScanLines(r io.Reader, fn func(lineNo int, line []byte) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Bytes()
		if len(trimSpace(line)) == 0 {
			continue
		}
		if err := fn(lineNo, line); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("scanning input: %w", err)
	}
	return nil
}

// WriteJSONL writes one compact JSON object per line, creating parent
// directories as needed.
func WriteJSONL[T any](path string, rows []T) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("encoding row: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing %s: %w", path, err)
	}
	return nil
}

func trimSpace(b []byte) []byte {
	start := 0
	for start < len(b) && (b[start] == ' ' || b[start] == '\t' || b[start] == '\r' || b[start] == '\n') {
		start++
	}
	end := len(b)
	for end > start && (b[end-1] == ' ' || b[end-1] == '\t' || b[end-1] == '\r' || b[end-1] == '\n') {
		end--
	}
	return b[start:end]
}
