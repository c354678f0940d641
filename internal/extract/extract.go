// Package extract pulls structured data out of free-form model output.
// Model responses routinely wrap JSON in fenced code blocks, prepend prose,
// or come back empty; the extractor absorbs those failure modes and returns
// an error envelope instead of raising.
package extract

import (
	"encoding/json"
	"strings"

	perrors "github.com/sathyaincampus/software-engineering-agents/internal/errors"
)

// DefaultRawOutputLimit bounds the raw text carried inside an error envelope.
const DefaultRawOutputLimit = 1000

// Extractor converts raw model output into structured values or documents.
type Extractor struct {
	// RawOutputLimit caps raw_output in envelopes, in runes.
	RawOutputLimit int
}

// New returns an Extractor with the given raw-output bound.
// Non-positive limits fall back to DefaultRawOutputLimit.
func New(rawOutputLimit int) *Extractor {
	if rawOutputLimit <= 0 {
		rawOutputLimit = DefaultRawOutputLimit
	}
	return &Extractor{RawOutputLimit: rawOutputLimit}
}

// Structured parses text as JSON, looking inside fenced code blocks when a
// direct parse fails. The labeled ```json fence is preferred over a generic
// fence. A parsed object that already carries an "error" key is returned
// unchanged rather than wrapped in a second envelope.
//
// The returned envelope is nil on success.
func (e *Extractor) Structured(text string) (any, *perrors.Envelope) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, &perrors.Envelope{
			Error:     "Model returned an empty response",
			ErrorType: perrors.TypeEmptyResponse,
		}
	}

	if v, ok := parseJSON(trimmed); ok {
		return v, nil
	}

	candidate := trimmed
	if block, ok := firstFencedBlock(trimmed, "json"); ok {
		candidate = block
		if v, ok := parseJSON(block); ok {
			return v, nil
		}
	}
	if block, ok := firstFencedBlock(trimmed, ""); ok {
		candidate = block
		if v, ok := parseJSON(block); ok {
			return v, nil
		}
	}

	return nil, &perrors.Envelope{
		Error:     "Failed to parse structured output",
		ErrorType: perrors.TypeParseFailure,
		RawOutput: e.truncate(candidate),
	}
}

// Document extracts document text (markdown or plain) from the response.
// Without a matching fence the trimmed input is returned as-is.
func (e *Extractor) Document(text string) string {
	trimmed := strings.TrimSpace(text)
	for _, label := range []string{"markdown", "md", "text"} {
		if block, ok := firstFencedBlock(trimmed, label); ok {
			return block
		}
	}
	return trimmed
}

// parseJSON decodes s, accepting objects and arrays only. Scalar JSON (a bare
// string or number) is not a usable artifact, so it is treated as a failure.
func parseJSON(s string) (any, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "{") && !strings.HasPrefix(s, "[") {
		return nil, false
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	return v, true
}

// firstFencedBlock returns the interior of the first ``` block with the given
// label ("" matches any label, including none).
func firstFencedBlock(text, label string) (string, bool) {
	marker := "```" + label
	start := strings.Index(text, marker)
	if start < 0 {
		return "", false
	}
	rest := text[start+len(marker):]
	if label == "" {
		// Skip whatever language tag follows the generic fence.
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			rest = rest[nl+1:]
		}
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		return strings.TrimSpace(rest), true
	}
	return strings.TrimSpace(rest[:end]), true
}

func (e *Extractor) truncate(s string) string {
	r := []rune(s)
	if len(r) <= e.RawOutputLimit {
		return s
	}
	return string(r[:e.RawOutputLimit])
}
