// internal/annotation/schema.go
package annotation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// documentSchema builds the JSON schema an extraction payload must satisfy:
// a top-level object whose task keys, when present, hold arrays of
// annotation objects. Field values inside a record may be string, number,
// or null; the comparators handle the rest.
func documentSchema() map[string]any {
	recordList := map[string]any{
		"type": "array",
		"items": map[string]any{
			"type": "object",
			"additionalProperties": map[string]any{
				"type": []string{"string", "number", "boolean", "null"},
			},
		},
	}
	properties := map[string]any{}
	for _, t := range Tasks() {
		properties[t.JSONKey] = recordList
	}
	return map[string]any{
		"type":       "object",
		"properties": properties,
	}
}

// ParseDocument decodes and validates one extraction payload. A payload that
// fails schema validation is a per-document extraction failure, not a panic
// deferred to scoring.
func ParseDocument(data []byte) (Document, error) {
	schemaLoader := gojsonschema.NewGoLoader(documentSchema())
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("schema validation error: %w", err)
	}
	if !result.Valid() {
		var details []string
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return nil, fmt.Errorf("extraction payload failed validation: %s", strings.Join(details, "; "))
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode extraction payload: %w", err)
	}

	doc := Document{}
	for _, t := range Tasks() {
		section, ok := raw[t.JSONKey]
		if !ok {
			continue
		}
		var records []Record
		if err := json.Unmarshal(section, &records); err != nil {
			return nil, fmt.Errorf("decode %s records: %w", t.JSONKey, err)
		}
		doc[t.JSONKey] = records
	}
	return doc, nil
}
