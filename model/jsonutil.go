package model

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	// jsonBlockPattern matches JSON inside markdown code blocks: ```json { ... } ```
	jsonBlockPattern = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(\\{.*\\})\\s*```")
	// jsonObjectPattern matches any JSON object (greedy fallback).
	jsonObjectPattern = regexp.MustCompile(`(?s)\{[\s\S]*\}`)
	// fencePattern matches an opening or closing code fence line.
	fencePattern = regexp.MustCompile("(?m)^\\s*```[a-zA-Z]*\\s*$")
	// trailingCommaPattern matches trailing commas before ] or }.
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)
)

// StripCodeFences removes markdown code fences around a model reply.
func StripCodeFences(text string) string {
	return strings.TrimSpace(fencePattern.ReplaceAllString(text, ""))
}

// ExtractJSON extracts a JSON object from a model reply. Code fences and
// trailing commas are tolerated. Returns "" when no object is found.
func ExtractJSON(text string) string {
	var raw string
	if m := jsonBlockPattern.FindStringSubmatch(text); len(m) > 1 {
		raw = m[1]
	} else {
		raw = jsonObjectPattern.FindString(text)
	}
	if raw == "" {
		return ""
	}
	return trailingCommaPattern.ReplaceAllString(raw, "$1")
}

// DecodeJSON extracts the JSON object from text and decodes it into v. Any
// failure wraps ErrMalformedResponse.
func DecodeJSON(text string, v any) error {
	raw := ExtractJSON(text)
	if raw == "" {
		return fmt.Errorf("%w: no JSON object found", ErrMalformedResponse)
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}
