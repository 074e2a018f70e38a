package ai

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// salaryEstimateSchema is sent to OpenAI as a structured output format and
// used locally to validate every provider's answer.
var salaryEstimateSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"properties": map[string]any{
		"pays_above_threshold": map[string]any{"type": "boolean"},
		"estimated_min_lpa":    map[string]any{"type": "number", "minimum": 0},
		"estimated_max_lpa":    map[string]any{"type": "number", "minimum": 0},
		"confidence": map[string]any{
			"type": "string",
			"enum": []string{"High", "Medium", "Low"},
		},
		"reasoning": map[string]any{"type": "string"},
	},
	"required": []string{
		"pays_above_threshold", "estimated_min_lpa", "estimated_max_lpa",
		"confidence", "reasoning",
	},
}

func compileSchema(schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("salary_estimate.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("salary_estimate.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// validateJSON checks raw against schema.
func validateJSON(schema *jsonschema.Schema, raw []byte) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("unmarshal estimate: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("estimate does not match schema: %w", err)
	}
	return nil
}
