package tools

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// SchemaFor reflects a JSON Schema object from an argument struct.
// Tags: json for names, jsonschema:"required" and jsonschema:"description=..." for the rest.
func SchemaFor[T any]() (map[string]any, error) {
	reflector := &jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		DoNotReference:             true,
		AllowAdditionalProperties:  true,
	}

	data, err := json.Marshal(reflector.Reflect(new(T)))
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}

	// Backends accept a bare object schema: no $schema/$id, and always a properties map.
	props, _ := raw["properties"].(map[string]any)
	if props == nil {
		props = map[string]any{}
	}
	out := map[string]any{"type": "object", "properties": props}
	if req, ok := raw["required"]; ok {
		out["required"] = req
	}
	return out, nil
}

func mustSchema[T any]() map[string]any {
	s, err := SchemaFor[T]()
	if err != nil {
		panic(err)
	}
	return s
}
