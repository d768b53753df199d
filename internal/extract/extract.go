// Package extract pulls structured JSON out of raw model output. Models
// routinely wrap their JSON in markdown fences or surround it with prose,
// so extraction is tolerant of both.
package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Error is returned when no parsable JSON could be found in the model
// output. It carries the offending text so callers can log it or decide
// to fall back.
type Error struct {
	Text string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to extract JSON from model output: %v", e.Err)
	}
	return "no JSON found in model output"
}

func (e *Error) Unwrap() error { return e.Err }

var fencePattern = regexp.MustCompile("```(?:json)?\n?")

// stripFences removes markdown code-fence markers wherever they appear.
func stripFences(text string) string {
	return strings.TrimSpace(fencePattern.ReplaceAllString(text, ""))
}

// Object extracts the first top-level JSON object from model output.
// The span is located with a first-{ to last-} scan; model output rarely
// nests unrelated braces outside the JSON itself.
func Object(text string) (json.RawMessage, error) {
	return span(text, '{', '}')
}

// Array extracts a top-level JSON array, for tasks that return a list.
func Array(text string) (json.RawMessage, error) {
	return span(text, '[', ']')
}

func span(text string, open, close byte) (json.RawMessage, error) {
	cleaned := stripFences(text)
	start := strings.IndexByte(cleaned, open)
	end := strings.LastIndexByte(cleaned, close)
	if start == -1 || end == -1 || end <= start {
		return nil, &Error{Text: text}
	}
	raw := json.RawMessage(cleaned[start : end+1])
	if !json.Valid(raw) {
		return nil, &Error{Text: cleaned[start : end+1], Err: fmt.Errorf("extracted span is not valid JSON")}
	}
	return raw, nil
}

// DecodeObject extracts a JSON object and unmarshals it into dst.
// Unmarshal failures are extraction errors so callers treat them
// identically to missing JSON.
func DecodeObject(text string, dst any) error {
	raw, err := Object(text)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return &Error{Text: string(raw), Err: err}
	}
	return nil
}

// DecodeArray extracts a JSON array and unmarshals it into dst.
func DecodeArray(text string, dst any) error {
	raw, err := Array(text)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return &Error{Text: string(raw), Err: err}
	}
	return nil
}
