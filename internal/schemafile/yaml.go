package schemafile

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/linmx0130/yoshino/internal/ir"
)

type yamlFile struct {
	Tables []yamlTable `yaml:"tables"`
}

type yamlTable struct {
	Name    string     `yaml:"name"`
	Storage string     `yaml:"storage,omitempty"`
	Fields  []ir.Field `yaml:"fields"`
}

// ParseYAML parses table declarations from YAML. Unknown keys are rejected.
func ParseYAML(data []byte) (*File, error) {
	var doc yamlFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	decls := make([]decl, len(doc.Tables))
	for i, t := range doc.Tables {
		if t.Name == "" {
			return nil, &Error{Message: fmt.Sprintf("tables[%d]: name is required", i)}
		}
		decls[i] = decl{name: t.Name, storage: t.Storage, fields: t.Fields}
	}
	return build(decls)
}
