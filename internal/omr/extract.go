package omr

import (
	"encoding/json"
	"fmt"
	"strings"
)

// rawTextLimit caps how much of the model's raw text a ParseError carries.
const rawTextLimit = 500

// ParseError indicates that no structured payload could be isolated from the
// model's raw text response.
type ParseError struct {
	RawText string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("no JSON payload found in model response: %s", e.RawText)
}

// ExtractPayload isolates the JSON payload embedded in a model's free-text
// response. The model is not guaranteed to emit clean JSON: it may wrap the
// payload in commentary or code fences. Isolation is layered: a ```json fence
// first, then any generic ``` fence, then the whole text. If strict parsing of
// the selected substring fails, the original text is scanned for the first
// balanced brace-delimited region and parsing is retried; only after that does
// a *ParseError carrying (truncated) raw text come back.
//
// The payload is returned as-is even when it is not the expected object shape;
// field-level checking belongs to the caller.
func ExtractPayload(raw string) (json.RawMessage, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, &ParseError{RawText: truncate(raw, rawTextLimit)}
	}

	candidate := text
	if block, ok := fencedBlock(text, "```json"); ok {
		candidate = block
	} else if block, ok := fencedBlock(text, "```"); ok {
		candidate = block
	}

	if payload, ok := strictParse(candidate); ok {
		return payload, nil
	}

	// Fallback: the fence selection may have picked up prose, or the payload
	// may be embedded mid-sentence. Scan the original text instead.
	if region, ok := balancedBraces(text); ok {
		if payload, ok := strictParse(region); ok {
			return payload, nil
		}
	}

	return nil, &ParseError{RawText: truncate(raw, rawTextLimit)}
}

// fencedBlock returns the contents between an opening fence marker and the
// next closing ``` fence.
func fencedBlock(text, marker string) (string, bool) {
	start := strings.Index(text, marker)
	if start < 0 {
		return "", false
	}
	start += len(marker)
	end := strings.Index(text[start:], "```")
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(text[start : start+end]), true
}

// balancedBraces returns the first balanced {...} region of text, tracking
// string literals so braces inside quoted values do not affect the depth.
func balancedBraces(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

func strictParse(candidate string) (json.RawMessage, bool) {
	var payload json.RawMessage
	if err := json.Unmarshal([]byte(candidate), &payload); err != nil {
		return nil, false
	}
	return payload, true
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
