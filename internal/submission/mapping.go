package submission

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadMapping reads the field-mapping file: a flat YAML map of internal
// field key to external form field identifier.
func LoadMapping(path string) (FieldMapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read field mapping: %w", err)
	}

	var mapping FieldMapping
	if err := yaml.Unmarshal(data, &mapping); err != nil {
		return nil, fmt.Errorf("parse field mapping: %w", err)
	}
	if len(mapping) == 0 {
		return nil, fmt.Errorf("field mapping %s is empty", path)
	}
	return mapping, nil
}
