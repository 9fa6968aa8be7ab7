package schema

import (
	"fmt"
	"reflect"
	"regexp"

	"github.com/linmx0130/yoshino/internal/codec"
	"github.com/linmx0130/yoshino/internal/cond"
	"github.com/linmx0130/yoshino/internal/ir"
)

// Schema is the record-type independent view of a descriptor used by the
// statement builders and the adaptor.
type Schema interface {
	// StorageName returns the backing table name.
	StorageName() string

	// Fields returns the ordered field list.
	Fields() []ir.Field
}

// Field binds one column of a record type T.
type Field[T any] struct {
	name   string
	kind   ir.Kind
	encode func(*T) ir.Cell
	decode func(*T, ir.Cell) error
}

// Name returns the column name.
func (f Field[T]) Name() string { return f.name }

// Kind returns the storage kind.
func (f Field[T]) Kind() ir.Kind { return f.kind }

// Bind declares a field stored with codec c. The accessor returns the
// address of the field inside a record.
func Bind[T, V any](name string, c codec.Codec[V], field func(*T) *V) Field[T] {
	return Field[T]{
		name: name,
		kind: c.Kind(),
		encode: func(r *T) ir.Cell {
			return c.Encode(*field(r))
		},
		decode: func(r *T, cell ir.Cell) error {
			v, err := c.Decode(cell)
			if err != nil {
				return err
			}
			*field(r) = v
			return nil
		},
	}
}

// Descriptor is the schema of record type T.
type Descriptor[T any] struct {
	name      string
	fields    []Field[T]
	newRecord func() T
}

var _ Schema = (*Descriptor[struct{}])(nil)

// Define builds the descriptor of T named after T's type name.
// It panics on an empty field list or a duplicate field name.
func Define[T any](fields ...Field[T]) *Descriptor[T] {
	return DefineAs(StorageName(reflect.TypeFor[T]().Name()), fields...)
}

// DefineAs is like Define with an explicit storage name.
func DefineAs[T any](storageName string, fields ...Field[T]) *Descriptor[T] {
	d, err := define(storageName, fields)
	if err != nil {
		panic(err.Error())
	}
	return d
}

// identifier matches the names allowed in generated SQL: letters, digits
// and underscores, not starting with a digit.
var identifier = regexp.MustCompile(`^[\p{L}_][\p{L}\p{Nd}_]*$`)

// ValidIdentifier reports whether name can be used unquoted as a table or
// column name.
func ValidIdentifier(name string) bool {
	return identifier.MatchString(name)
}

func define[T any](storageName string, fields []Field[T]) (*Descriptor[T], error) {
	if storageName == "" || storageName == StoragePrefix {
		return nil, fmt.Errorf("schema: empty storage name")
	}
	if !ValidIdentifier(storageName) {
		return nil, fmt.Errorf("schema: invalid storage name %q", storageName)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("schema %s: no fields", storageName)
	}
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if f.name == "" {
			return nil, fmt.Errorf("schema %s: field with empty name", storageName)
		}
		if !ValidIdentifier(f.name) {
			return nil, fmt.Errorf("schema %s: invalid field name %q", storageName, f.name)
		}
		if !f.kind.Valid() {
			return nil, fmt.Errorf("schema %s: field %q has invalid kind", storageName, f.name)
		}
		if seen[f.name] {
			return nil, fmt.Errorf("schema %s: duplicate field %q", storageName, f.name)
		}
		seen[f.name] = true
	}
	return &Descriptor[T]{
		name:   storageName,
		fields: append([]Field[T](nil), fields...),
	}, nil
}

// StorageName returns the backing table name.
func (d *Descriptor[T]) StorageName() string {
	return d.name
}

// Fields returns a copy of the ordered field list.
func (d *Descriptor[T]) Fields() []ir.Field {
	out := make([]ir.Field, len(d.fields))
	for i, f := range d.fields {
		out[i] = ir.Field{Name: f.name, Kind: f.kind}
	}
	return out
}

// Lookup returns the position and kind of the named field.
func (d *Descriptor[T]) Lookup(name string) (int, ir.Kind, bool) {
	for i, f := range d.fields {
		if f.name == name {
			return i, f.kind, true
		}
	}
	return -1, 0, false
}

// Values encodes r into one cell per field, in field order.
func (d *Descriptor[T]) Values(r T) []ir.Cell {
	cells := make([]ir.Cell, len(d.fields))
	for i, f := range d.fields {
		cells[i] = f.encode(&r)
	}
	return cells
}

// FromValues rebuilds a record from cells in field order.
//
// A cell count different from the field count is a programming error and
// panics. A cell whose kind differs from its field returns an
// *ir.DecodeError naming the field.
func (d *Descriptor[T]) FromValues(cells []ir.Cell) (T, error) {
	var zero T
	if len(cells) != len(d.fields) {
		panic(fmt.Sprintf("schema %s: from values: want %d cells, got %d", d.name, len(d.fields), len(cells)))
	}
	r := zero
	if d.newRecord != nil {
		r = d.newRecord()
	}
	for i, f := range d.fields {
		if err := f.decode(&r, cells[i]); err != nil {
			return zero, ir.WithField(err, f.name)
		}
	}
	return r, nil
}

// MustFromValues is like FromValues but panics on a decode error.
func (d *Descriptor[T]) MustFromValues(cells []ir.Cell) T {
	r, err := d.FromValues(cells)
	if err != nil {
		panic(fmt.Sprintf("schema %s: %v", d.name, err))
	}
	return r
}

// RowIdentity returns the row identity field of r, if the schema has one.
//
// A schema with more than one row identity field is malformed; RowIdentity
// panics naming the schema.
func (d *Descriptor[T]) RowIdentity(r T) (string, ir.RowID, bool) {
	idx := -1
	for i, f := range d.fields {
		if f.kind != ir.KindRowID {
			continue
		}
		if idx >= 0 {
			panic("schema: multiple row identity fields found in " + d.name)
		}
		idx = i
	}
	if idx < 0 {
		return "", ir.RowID{}, false
	}
	f := d.fields[idx]
	id, err := f.encode(&r).AsRowID()
	if err != nil {
		return f.name, ir.NewRowID(), true
	}
	return f.name, id, true
}

// RowIDCond returns a condition selecting r by its assigned row identity.
// It reports false when the schema has no row identity field or the
// identity of r is still New.
func (d *Descriptor[T]) RowIDCond(r T) (cond.Cond, bool) {
	name, id, ok := d.RowIdentity(r)
	if !ok {
		return nil, false
	}
	return cond.RowIDEquals(name, id)
}
