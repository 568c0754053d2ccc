// Package jsonutil recovers JSON objects from model output that may be
// wrapped in markdown fences or surrounded by prose.
package jsonutil

import (
	"encoding/json"
	"fmt"
	"strings"
)

const previewLen = 100

// ParseError is returned when no JSON object can be recovered from the input
type ParseError struct {
	Preview string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse JSON: %s... error: %v", e.Preview, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseJSONLike parses text as a JSON object.
//
// Known fence markers are stripped first. If that does not parse, the
// substring between the first '{' and the last '}' is tried.
func ParseJSONLike(text string) (map[string]interface{}, error) {
	var out map[string]interface{}

	firstErr := decodeObject(stripFences(text), &out)
	if firstErr == nil {
		return out, nil
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start != -1 && end > start {
		var inner map[string]interface{}
		if err := decodeObject(text[start:end+1], &inner); err == nil {
			return inner, nil
		}
	}

	return nil, &ParseError{Preview: truncate(text, previewLen), Err: firstErr}
}

func stripFences(text string) string {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	return strings.TrimSpace(cleaned)
}

// decodeObject rejects null and non-object documents so a parsed result is never nil
func decodeObject(s string, out *map[string]interface{}) error {
	if err := json.Unmarshal([]byte(s), out); err != nil {
		return err
	}
	if *out == nil {
		return fmt.Errorf("expected a JSON object, got null")
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
