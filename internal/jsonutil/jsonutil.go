// Package jsonutil parses ingest request bodies into a slice of JSON records.
package jsonutil

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
)

// ParseLines parses a newline-delimited JSON body, one object per line.
// Blank lines are skipped.
func ParseLines(body []byte) ([]map[string]interface{}, error) {
	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var records []map[string]interface{}
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec map[string]interface{}
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("parse line: %w", err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return records, nil
}

// ParseValue parses a body holding either a single JSON object or a JSON
// array of objects, normalizing a bare object to a one-element slice.
func ParseValue(body []byte) ([]map[string]interface{}, error) {
	var raw json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var arr []map[string]interface{}
		if err := json.Unmarshal(trimmed, &arr); err != nil {
			return nil, fmt.Errorf("parse json array: %w", err)
		}
		return arr, nil
	}

	var obj map[string]interface{}
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return nil, fmt.Errorf("parse json object: %w", err)
	}
	return []map[string]interface{}{obj}, nil
}
