package schema

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// MarshalJSON writes the schema as a map of type names.
func (s Schema) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}
	for key, typ := range s {
		if typ == nil {
			return nil, fmt.Errorf("parameter %s: type is nil", key)
		}
	}
	return json.Marshal(s.TypeMap())
}

// UnmarshalJSON reads a map of type names.
func (s *Schema) UnmarshalJSON(data []byte) error {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	return s.set(raw)
}

// MarshalYAML writes the schema as a map of type names.
func (s Schema) MarshalYAML() (any, error) {
	return s.TypeMap(), nil
}

// UnmarshalYAML reads a map of type names.
func (s *Schema) UnmarshalYAML(node *yaml.Node) error {
	var raw map[string]string
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	return s.set(raw)
}

func (s *Schema) set(raw map[string]string) error {
	if raw == nil {
		*s = nil
		return nil
	}
	parsed, err := ParseTypeMap(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
