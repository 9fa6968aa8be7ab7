package schema

import (
	"encoding"
	"fmt"
	"reflect"

	"github.com/aarondl/opt/null"

	"github.com/linmx0130/yoshino/internal/codec"
	"github.com/linmx0130/yoshino/internal/ir"
)

// TagName is the struct tag consulted by Reflect. `yoshino:"name"` renames
// a column and `yoshino:"-"` skips a field. Untagged exported fields use
// their lower-cased Go name.
const TagName = "yoshino"

var (
	rowIDType           = reflect.TypeFor[ir.RowID]()
	nullTextType        = reflect.TypeFor[null.Val[string]]()
	nullInt64Type       = reflect.TypeFor[null.Val[int64]]()
	nullBinaryType      = reflect.TypeFor[null.Val[[]byte]]()
	textMarshalerType   = reflect.TypeFor[encoding.TextMarshaler]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
)

// Reflect derives the descriptor of struct type T from its exported fields.
func Reflect[T any]() (*Descriptor[T], error) {
	rt := reflect.TypeFor[T]()
	if rt.Kind() != reflect.Struct {
		return nil, fmt.Errorf("reflect schema: %s is not a struct", rt)
	}

	var fields []Field[T]
	for i := range rt.NumField() {
		sf := rt.Field(i)
		if !sf.IsExported() || sf.Anonymous {
			continue
		}
		name := sf.Tag.Get(TagName)
		if name == "-" {
			continue
		}
		if name == "" {
			name = lower(sf.Name)
		}
		f, err := reflectField[T](name, sf)
		if err != nil {
			return nil, fmt.Errorf("reflect schema %s: %w", rt.Name(), err)
		}
		fields = append(fields, f)
	}
	return define(StorageName(rt.Name()), fields)
}

// MustReflect is like Reflect but panics on error. It is meant for package
// level descriptor variables.
func MustReflect[T any]() *Descriptor[T] {
	d, err := Reflect[T]()
	if err != nil {
		panic(err.Error())
	}
	return d
}

func reflectField[T any](name string, sf reflect.StructField) (Field[T], error) {
	index := sf.Index
	access := func(r *T) reflect.Value {
		return reflect.ValueOf(r).Elem().FieldByIndex(index)
	}
	ft := sf.Type

	switch {
	case ft == rowIDType:
		return reflectBind(name, codec.RowID, access), nil
	case ft == nullTextType:
		return reflectBind(name, codec.NullableText, access), nil
	case ft == nullInt64Type:
		return reflectBind(name, codec.NullableInt64, access), nil
	case ft == nullBinaryType:
		return reflectBind(name, codec.NullableBinary, access), nil
	case ft.Implements(textMarshalerType) && reflect.PointerTo(ft).Implements(textUnmarshalerType):
		return textField(name, access), nil
	case ft.Kind() == reflect.Pointer:
		return pointerField(name, ft, access)
	}

	switch ft.Kind() {
	case reflect.String:
		return scalarField(name, ir.KindText, access,
			func(v reflect.Value) ir.Cell { return ir.Text(v.String()) },
			func(v reflect.Value, c ir.Cell) error {
				s, err := codec.Text.Decode(c)
				v.SetString(s)
				return err
			}), nil
	case reflect.Int64:
		return scalarField(name, ir.KindInt64, access,
			func(v reflect.Value) ir.Cell { return ir.Int64(v.Int()) },
			func(v reflect.Value, c ir.Cell) error {
				n, err := codec.Int64.Decode(c)
				v.SetInt(n)
				return err
			}), nil
	case reflect.Float64:
		return scalarField(name, ir.KindFloat64, access,
			func(v reflect.Value) ir.Cell { return ir.Float64(v.Float()) },
			func(v reflect.Value, c ir.Cell) error {
				f, err := codec.Float64.Decode(c)
				v.SetFloat(f)
				return err
			}), nil
	case reflect.Slice:
		if ft.Elem().Kind() == reflect.Uint8 {
			return scalarField(name, ir.KindBinary, access,
				func(v reflect.Value) ir.Cell { return ir.Binary(v.Bytes()) },
				func(v reflect.Value, c ir.Cell) error {
					b, err := codec.Binary.Decode(c)
					if err == nil {
						v.SetBytes(b)
					}
					return err
				}), nil
		}
	}
	return Field[T]{}, fmt.Errorf("field %s: unsupported type %s", sf.Name, ft)
}

func reflectBind[T, V any](name string, c codec.Codec[V], access func(*T) reflect.Value) Field[T] {
	return Field[T]{
		name: name,
		kind: c.Kind(),
		encode: func(r *T) ir.Cell {
			return c.Encode(access(r).Interface().(V))
		},
		decode: func(r *T, cell ir.Cell) error {
			v, err := c.Decode(cell)
			if err != nil {
				return err
			}
			access(r).Set(reflect.ValueOf(v))
			return nil
		},
	}
}

func scalarField[T any](
	name string,
	kind ir.Kind,
	access func(*T) reflect.Value,
	encode func(reflect.Value) ir.Cell,
	decode func(reflect.Value, ir.Cell) error,
) Field[T] {
	return Field[T]{
		name:   name,
		kind:   kind,
		encode: func(r *T) ir.Cell { return encode(access(r)) },
		decode: func(r *T, c ir.Cell) error { return decode(access(r), c) },
	}
}

func textField[T any](name string, access func(*T) reflect.Value) Field[T] {
	return Field[T]{
		name: name,
		kind: ir.KindText,
		encode: func(r *T) ir.Cell {
			v := access(r)
			text, err := v.Interface().(encoding.TextMarshaler).MarshalText()
			if err != nil {
				panic(fmt.Sprintf("schema: marshal %s: %v", v.Type(), err))
			}
			return ir.Text(string(text))
		},
		decode: func(r *T, c ir.Cell) error {
			s, err := codec.Text.Decode(c)
			if err != nil {
				return err
			}
			u := access(r).Addr().Interface().(encoding.TextUnmarshaler)
			return u.UnmarshalText([]byte(s))
		},
	}
}

// pointerField maps *string, *int64 and *[]byte onto the nullable kinds.
func pointerField[T any](name string, ft reflect.Type, access func(*T) reflect.Value) (Field[T], error) {
	elem := ft.Elem()
	var kind ir.Kind
	switch {
	case elem.Kind() == reflect.String:
		kind = ir.KindNullableText
	case elem.Kind() == reflect.Int64:
		kind = ir.KindNullableInt64
	case elem.Kind() == reflect.Slice && elem.Elem().Kind() == reflect.Uint8:
		kind = ir.KindNullableBinary
	default:
		return Field[T]{}, fmt.Errorf("field %s: unsupported pointer type %s", name, ft)
	}

	encode := func(r *T) ir.Cell {
		p := access(r)
		if p.IsNil() {
			return ir.Null(kind)
		}
		v := p.Elem()
		switch kind {
		case ir.KindNullableText:
			return ir.NullableText(v.String(), true)
		case ir.KindNullableInt64:
			return ir.NullableInt64(v.Int(), true)
		default:
			return ir.NullableBinary(v.Bytes(), true)
		}
	}
	decode := func(r *T, c ir.Cell) error {
		if c.Kind() != kind {
			return &ir.DecodeError{Want: kind, Got: c.Kind()}
		}
		p := access(r)
		if c.IsNull() {
			p.Set(reflect.Zero(ft))
			return nil
		}
		nv := reflect.New(elem)
		switch kind {
		case ir.KindNullableText:
			s, err := c.AsText()
			if err != nil {
				return err
			}
			nv.Elem().SetString(s)
		case ir.KindNullableInt64:
			n, err := c.AsInt64()
			if err != nil {
				return err
			}
			nv.Elem().SetInt(n)
		default:
			b, err := c.AsBinary()
			if err != nil {
				return err
			}
			nv.Elem().SetBytes(b)
		}
		p.Set(nv)
		return nil
	}
	return Field[T]{name: name, kind: kind, encode: encode, decode: decode}, nil
}
