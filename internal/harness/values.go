package harness

import (
	"fmt"

	"github.com/linmx0130/yoshino/internal/ir"
)

// rowFromValues builds a row in field order. Fields missing from values
// are NULL.
func rowFromValues(fields []ir.Field, values map[string]any) (ir.Row, error) {
	known := make(map[string]bool, len(fields))
	row := make(ir.Row, len(fields))
	for i, f := range fields {
		known[f.Name] = true
		c, err := cellFromValue(f.Kind, values[f.Name])
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		row[i] = c
	}
	for name := range values {
		if !known[name] {
			return nil, fmt.Errorf("unknown field %q", name)
		}
	}
	return row, nil
}

// cellFromValue converts a YAML scalar to a cell of kind. nil is NULL; the
// adaptor rejects it for non-nullable kinds.
func cellFromValue(kind ir.Kind, v any) (ir.Cell, error) {
	if v == nil {
		return ir.Null(kind), nil
	}

	switch {
	case kind.Textual():
		s, ok := v.(string)
		if !ok {
			return ir.Cell{}, fmt.Errorf("want string for %s, got %T", kind, v)
		}
		if kind == ir.KindText {
			return ir.Text(s), nil
		}
		return ir.NullableText(s, true), nil

	case kind.Integer():
		n, ok := toInt64(v)
		if !ok {
			return ir.Cell{}, fmt.Errorf("want integer for %s, got %T", kind, v)
		}
		switch kind {
		case ir.KindInt64:
			return ir.Int64(n), nil
		case ir.KindNullableInt64:
			return ir.NullableInt64(n, true), nil
		default:
			return ir.RowIDCell(ir.AssignedRowID(n)), nil
		}

	case kind == ir.KindFloat64:
		switch x := v.(type) {
		case float64:
			return ir.Float64(x), nil
		default:
			n, ok := toInt64(v)
			if !ok {
				return ir.Cell{}, fmt.Errorf("want number for %s, got %T", kind, v)
			}
			return ir.Float64(float64(n)), nil
		}

	case kind.Binary():
		s, ok := v.(string)
		if !ok {
			return ir.Cell{}, fmt.Errorf("want string for %s, got %T", kind, v)
		}
		if kind == ir.KindBinary {
			return ir.Binary([]byte(s)), nil
		}
		return ir.NullableBinary([]byte(s), true), nil

	default:
		return ir.Cell{}, fmt.Errorf("unsupported kind %s", kind)
	}
}

func toInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int64:
		return x, true
	case uint64:
		return int64(x), x <= 1<<63-1
	default:
		return 0, false
	}
}

// rowMap names the cells of row by field.
func rowMap(fields []ir.Field, row ir.Row) map[string]ir.Cell {
	m := make(map[string]ir.Cell, len(fields))
	for i, f := range fields {
		m[f.Name] = row[i]
	}
	return m
}

// matchRows compares actual rows against expected subsets, in order.
func matchRows(fields []ir.Field, actual []map[string]ir.Cell, expected []map[string]any) error {
	if len(actual) != len(expected) {
		return fmt.Errorf("expected %d rows, got %d", len(expected), len(actual))
	}
	kinds := make(map[string]ir.Kind, len(fields))
	for _, f := range fields {
		kinds[f.Name] = f.Kind
	}
	for i, want := range expected {
		for name, v := range want {
			kind, ok := kinds[name]
			if !ok {
				return fmt.Errorf("row %d: unknown field %q", i, name)
			}
			wantCell, err := cellFromValue(kind, v)
			if err != nil {
				return fmt.Errorf("row %d: field %q: %w", i, name, err)
			}
			if got := actual[i][name]; !got.Equal(wantCell) {
				return fmt.Errorf("row %d: field %q: expected %s, got %s", i, name, wantCell, got)
			}
		}
	}
	return nil
}
