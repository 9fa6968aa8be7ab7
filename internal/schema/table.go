package schema

import (
	"fmt"

	"github.com/linmx0130/yoshino/internal/ir"
)

// NewTable builds a descriptor over ir.Row for tables whose shape is only
// known at runtime, such as tables declared in schema files.
//
// Values returns the row's cells unchanged and panics when the row length
// differs from the field count, like FromValues. The adaptor checks the
// cell kinds before binding. FromValues checks each cell against its field
// kind.
func NewTable(storageName string, fields []ir.Field) (*Descriptor[ir.Row], error) {
	bindings := make([]Field[ir.Row], len(fields))
	for i, f := range fields {
		bindings[i] = Field[ir.Row]{
			name: f.Name,
			kind: f.Kind,
			encode: func(r *ir.Row) ir.Cell {
				if len(*r) != len(fields) {
					panic(fmt.Sprintf("schema %s: values: want %d cells, got %d", storageName, len(fields), len(*r)))
				}
				return (*r)[i]
			},
			decode: func(r *ir.Row, c ir.Cell) error {
				if c.Kind() != f.Kind {
					return &ir.DecodeError{Want: f.Kind, Got: c.Kind()}
				}
				(*r)[i] = c
				return nil
			},
		}
	}
	d, err := define(storageName, bindings)
	if err != nil {
		return nil, err
	}
	d.newRecord = func() ir.Row { return make(ir.Row, len(fields)) }
	return d, nil
}
