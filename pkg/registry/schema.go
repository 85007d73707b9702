package registry

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// metadataSchema constrains the tool metadata block of the config file.
// Keywords and score bounds are enforced here so a bad reload never reaches
// the scorer.
var metadataSchema = map[string]interface{}{
	"type": "object",
	"additionalProperties": map[string]interface{}{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]interface{}{
			"category": map[string]interface{}{
				"type": "string",
			},
			"description": map[string]interface{}{
				"type": "string",
			},
			"keywords": map[string]interface{}{
				"type":  "array",
				"items": map[string]interface{}{"type": "string"},
			},
			"dependencies": map[string]interface{}{
				"type":  "array",
				"items": map[string]interface{}{"type": "string"},
			},
			"fallbacks": map[string]interface{}{
				"type":  "array",
				"items": map[string]interface{}{"type": "string"},
			},
			"base_score": map[string]interface{}{
				"type":    "number",
				"minimum": 0,
				"maximum": 1,
			},
			"timeout_seconds": map[string]interface{}{
				"type":    "integer",
				"minimum": 0,
			},
		},
	},
}

// ValidateMetadata checks a metadata map against the registry schema.
func ValidateMetadata(meta map[string]Metadata) error {
	schemaLoader := gojsonschema.NewGoLoader(metadataSchema)

	// Round-trip through a generic map so gojsonschema sees JSON types.
	doc := make(map[string]interface{}, len(meta))
	for name, m := range meta {
		doc[name] = map[string]interface{}{
			"category":        m.Category,
			"description":     m.Description,
			"keywords":        toInterfaceSlice(m.Keywords),
			"dependencies":    toInterfaceSlice(m.Dependencies),
			"fallbacks":       toInterfaceSlice(m.Fallbacks),
			"base_score":      m.BaseScore,
			"timeout_seconds": m.TimeoutSeconds,
		}
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return err
	}
	if !result.Valid() {
		errs := []string{}
		for _, e := range result.Errors() {
			errs = append(errs, e.String())
		}
		return fmt.Errorf("validation errors: %v", errs)
	}

	// Schema cannot see cross-entry references; check those here.
	for name, m := range meta {
		for _, dep := range m.Dependencies {
			if dep == name {
				return fmt.Errorf("tool %s depends on itself", name)
			}
		}
		for _, fb := range m.Fallbacks {
			if fb == name {
				return fmt.Errorf("tool %s lists itself as fallback", name)
			}
		}
	}

	return nil
}

func toInterfaceSlice(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
