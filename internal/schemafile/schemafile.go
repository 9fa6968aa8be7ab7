// Package schemafile loads table declarations from CUE or YAML files.
//
// CUE files declare tables under a top-level "table" struct:
//
//	table: counter: {
//		storage: "y_counter" // optional
//		fields: [
//			{name: "id", kind: "row_id"},
//			{name: "name", kind: "text"},
//		]
//	}
//
// YAML files list them under "tables":
//
//	tables:
//	  - name: counter
//	    fields:
//	      - {name: id, kind: row_id}
//	      - {name: name, kind: text}
//
// The storage name defaults to the schema.StorageName of the table name.
package schemafile

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue/token"

	"github.com/linmx0130/yoshino/internal/ir"
	"github.com/linmx0130/yoshino/internal/schema"
)

// Table is one declared table.
type Table struct {
	// Name is the declared name.
	Name string

	// Schema is the runtime descriptor of the table's rows.
	Schema *schema.Descriptor[ir.Row]
}

// File holds the tables of one schema file in declaration order.
type File struct {
	Path   string
	Tables []Table
}

// Lookup returns the table declared as name.
func (f *File) Lookup(name string) (Table, bool) {
	for _, t := range f.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}

// Error reports an invalid declaration.
type Error struct {
	Table   string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	prefix := ""
	if e.Table != "" {
		prefix = "table " + e.Table + ": "
	}
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s%s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), prefix, e.Message)
	}
	return prefix + e.Message
}

// Load reads a schema file, choosing the format by extension.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}

	var f *File
	switch ext := filepath.Ext(path); ext {
	case ".cue":
		f, err = ParseCUE(path, data)
	case ".yaml", ".yml":
		f, err = ParseYAML(data)
	default:
		return nil, fmt.Errorf("unsupported schema file extension %q", ext)
	}
	if err != nil {
		return nil, err
	}
	f.Path = path
	return f, nil
}

// decl is a declaration before it is turned into a descriptor.
type decl struct {
	name    string
	storage string
	fields  []ir.Field
	pos     token.Pos
}

func build(decls []decl) (*File, error) {
	if len(decls) == 0 {
		return nil, &Error{Message: "no tables declared"}
	}
	f := &File{Tables: make([]Table, 0, len(decls))}
	seen := make(map[string]bool, len(decls))
	for _, d := range decls {
		if seen[d.name] {
			return nil, &Error{Table: d.name, Message: "declared twice", Pos: d.pos}
		}
		seen[d.name] = true
		if !schema.ValidIdentifier(d.name) {
			return nil, &Error{Table: d.name, Message: "invalid table name", Pos: d.pos}
		}

		storage := d.storage
		if storage == "" {
			storage = schema.StorageName(d.name)
		}
		desc, err := schema.NewTable(storage, d.fields)
		if err != nil {
			return nil, &Error{Table: d.name, Message: err.Error(), Pos: d.pos}
		}
		f.Tables = append(f.Tables, Table{Name: d.name, Schema: desc})
	}
	return f, nil
}
