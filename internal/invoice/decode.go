package invoice

import (
	"encoding/json"
	"strings"

	"github.com/darehype/ai-invoice-app/internal/gemini"
)

// extractJSON strips markdown code fences the model sometimes wraps
// around its output and narrows to the outermost JSON object.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return text[start : end+1]
}

// DecodeRecord turns raw extraction output into a fully-typed Record or a
// typed error, never a partially-filled record. The output is validated
// against the invoice schema before decoding; line items missing a
// category decode to "" by construction.
func DecodeRecord(text string) (*Record, error) {
	raw := extractJSON(text)
	if raw == "" {
		return nil, &gemini.MalformedResponseError{Message: "no JSON object found in response"}
	}

	if err := gemini.ValidateRecordJSON([]byte(raw)); err != nil {
		return nil, err
	}

	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, &gemini.MalformedResponseError{Message: "unmarshaling invoice record", Cause: err}
	}
	if len(rec.LineItems) == 0 {
		return nil, &gemini.MalformedResponseError{Message: "invoice has no line items"}
	}
	return &rec, nil
}

// DecodeCategories parses a bulk-suggestion reply: a flat JSON object
// mapping line item descriptions to category labels. The reply carries no
// schema guarantee, only "JSON", so anything non-conforming is malformed.
func DecodeCategories(text string) (map[string]string, error) {
	raw := extractJSON(text)
	if raw == "" {
		return nil, &gemini.MalformedResponseError{Message: "no JSON object found in response"}
	}

	var m map[string]string
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, &gemini.MalformedResponseError{Message: "unmarshaling category map", Cause: err}
	}
	return m, nil
}
