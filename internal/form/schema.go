package form

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadSchema reads a YAML form schema and validates it.
func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load schema %q: %w", path, err)
	}
	return ParseSchema(data)
}

// ParseSchema decodes a YAML (or JSON) schema document and validates it.
func ParseSchema(data []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if s.Version == "" {
		s.Version = "1"
	}
	return &s, nil
}

// LoadSchemaOrDefault loads path, or returns DefaultSchema when path is empty.
func LoadSchemaOrDefault(path string) (*Schema, error) {
	if path == "" {
		return DefaultSchema(), nil
	}
	return LoadSchema(path)
}
