package journal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// WriteJSONL writes events as JSON Lines: one compact JSON object per line.
func WriteJSONL(w io.Writer, events []*Event) error {
	enc := json.NewEncoder(w)
	for i, e := range events {
		if err := enc.Encode(e); err != nil {
			return fmt.Errorf("journal: encode event %d: %w", i, err)
		}
	}
	return nil
}

// WriteJSONLFile writes events to a JSONL file, replacing any existing file.
func WriteJSONLFile(filename string, events []*Event) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("journal: create file: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if err := WriteJSONL(bw, events); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("journal: flush: %w", err)
	}
	return nil
}

// ReadJSONL parses events from a JSONL reader. Empty lines are skipped.
func ReadJSONL(r io.Reader) ([]*Event, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var events []*Event
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if line == "" {
			continue
		}
		var e Event
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			return nil, fmt.Errorf("journal: line %d: invalid JSON: %w", lineNum, err)
		}
		events = append(events, &e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("journal: reading: %w", err)
	}
	return events, nil
}

// ReadJSONLFile parses events from a JSONL file.
func ReadJSONLFile(filename string) ([]*Event, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("journal: open file: %w", err)
	}
	defer f.Close()
	return ReadJSONL(f)
}
