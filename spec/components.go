package spec

import (
	"encoding/json"

	"github.com/mark3labs/openapiroute/validation"
)

const (
	InputErrorSchemaName   = "InputError"
	InputErrorResponseName = "InputErrorResponse"
)

// injectInputErrorComponents adds the InputError schema and the
// InputErrorResponse response to the raw tree unless they already exist.
func injectInputErrorComponents(tree map[string]any, version int) error {
	schema, err := toTree(validation.InputError())
	if err != nil {
		return err
	}
	description := "Bad Request"
	if r := validation.InputErrorResponse(); r.Description != nil {
		description = *r.Description
	}

	if version == 2 {
		definitions := childMap(tree, "definitions")
		if _, ok := definitions[InputErrorSchemaName]; !ok {
			definitions[InputErrorSchemaName] = schema
		}
		responses := childMap(tree, "responses")
		if _, ok := responses[InputErrorResponseName]; !ok {
			responses[InputErrorResponseName] = map[string]any{
				"description": description,
				"schema":      map[string]any{"$ref": "#/definitions/" + InputErrorSchemaName},
			}
		}
		return nil
	}

	components := childMap(tree, "components")
	schemas := childMap(components, "schemas")
	if _, ok := schemas[InputErrorSchemaName]; !ok {
		schemas[InputErrorSchemaName] = schema
	}
	responses := childMap(components, "responses")
	if _, ok := responses[InputErrorResponseName]; !ok {
		responses[InputErrorResponseName] = map[string]any{
			"description": description,
			"content": map[string]any{
				"application/json": map[string]any{
					"schema": map[string]any{"$ref": "#/components/schemas/" + InputErrorSchemaName},
				},
			},
		}
	}
	return nil
}

func childMap(parent map[string]any, key string) map[string]any {
	if m, ok := parent[key].(map[string]any); ok {
		return m
	}
	m := map[string]any{}
	parent[key] = m
	return m
}

func toTree(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
