package category

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadTables reads category tables from a YAML file. Sections left empty in
// the file keep the built-in defaults when passed to NewWithTables.
func LoadTables(path string) (Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Tables{}, fmt.Errorf("read category tables: %w", err)
	}
	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Tables{}, fmt.Errorf("parse category tables %s: %w", path, err)
	}
	return t, nil
}
