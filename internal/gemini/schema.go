package gemini

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// recordSchema is the structured-output schema sent with extraction
// requests: it tells the model which fields are required. recordJSONSchema
// below describes what this side accepts back; a test keeps the two
// property trees in lockstep.
func recordSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"invoiceNumber": {Type: genai.TypeString},
			"invoiceDate":   {Type: genai.TypeString},
			"dueDate":       {Type: genai.TypeString},
			"billedTo":      {Type: genai.TypeString},
			"from":          {Type: genai.TypeString},
			"currency":      {Type: genai.TypeString},
			"lineItems": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"description": {Type: genai.TypeString},
						"quantity":    {Type: genai.TypeNumber},
						"unitPrice":   {Type: genai.TypeNumber},
						"total":       {Type: genai.TypeNumber},
					},
					Required: []string{"description", "quantity", "unitPrice", "total"},
				},
			},
			"subtotal": {Type: genai.TypeNumber},
			"tax":      {Type: genai.TypeNumber},
			"total":    {Type: genai.TypeNumber},
		},
		Required: []string{"invoiceNumber", "invoiceDate", "billedTo", "from", "currency", "lineItems", "subtotal", "tax", "total"},
	}
}

// recordJSONSchema is what the local side accepts back from the model,
// used to validate the returned text before it is decoded. The API promises
// schema conformance but the promise is not trusted. Acceptance is looser
// than the request: every field is type-checked when present, but only a
// usable lineItems sequence is demanded. A response missing invoice
// metadata still yields a working record, one missing items does not.
func recordJSONSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"invoiceNumber": map[string]any{"type": "string"},
			"invoiceDate":   map[string]any{"type": "string"},
			"dueDate":       map[string]any{"type": "string"},
			"billedTo":      map[string]any{"type": "string"},
			"from":          map[string]any{"type": "string"},
			"currency":      map[string]any{"type": "string"},
			"lineItems": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"description": map[string]any{"type": "string"},
						"quantity":    map[string]any{"type": "number"},
						"unitPrice":   map[string]any{"type": "number"},
						"total":       map[string]any{"type": "number"},
					},
					"required": []any{"description", "quantity", "unitPrice", "total"},
				},
			},
			"subtotal": map[string]any{"type": "number"},
			"tax":      map[string]any{"type": "number"},
			"total":    map[string]any{"type": "number"},
		},
		"required": []any{"lineItems"},
	}
}

// ValidateRecordJSON checks raw extraction output against the record
// schema. Any violation, including unparsable input, surfaces as a
// MalformedResponseError.
func ValidateRecordJSON(raw []byte) error {
	schemaBytes, err := json.Marshal(recordJSONSchema())
	if err != nil {
		return fmt.Errorf("marshaling record schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("record.json", bytes.NewReader(schemaBytes)); err != nil {
		return fmt.Errorf("adding schema resource: %w", err)
	}
	schema, err := compiler.Compile("record.json")
	if err != nil {
		return fmt.Errorf("compiling record schema: %w", err)
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return &MalformedResponseError{Message: "response is not valid JSON", Cause: err}
	}
	if err := schema.Validate(v); err != nil {
		return &MalformedResponseError{Message: "response does not match invoice schema", Cause: err}
	}
	return nil
}
