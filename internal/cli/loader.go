package cli

import (
	"fmt"

	"github.com/linmx0130/yoshino/internal/cond"
	"github.com/linmx0130/yoshino/internal/schemafile"
)

// loadTable loads a schema file and returns the named table. The returned
// code is the CLI error code of a failure.
func loadTable(path, name string) (schemafile.Table, string, error) {
	file, err := schemafile.Load(path)
	if err != nil {
		return schemafile.Table{}, ErrCodeSchema, err
	}
	table, ok := file.Lookup(name)
	if !ok {
		return schemafile.Table{}, ErrCodeTable, fmt.Errorf("table %q not declared in %s", name, path)
	}
	return table, "", nil
}

// parseWhere decodes a YAML condition and checks it against the table.
// An empty string is no condition.
func parseWhere(src string, table schemafile.Table) (cond.Cond, error) {
	if src == "" {
		return nil, nil
	}
	c, err := cond.ParseYAML([]byte(src))
	if err != nil {
		return nil, err
	}
	if err := cond.Validate(c, table.Schema.Fields()); err != nil {
		return nil, fmt.Errorf("invalid condition: %w", err)
	}
	return c, nil
}
