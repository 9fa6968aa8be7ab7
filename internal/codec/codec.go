// Package codec converts native Go values to and from ir cells, one codec
// per storage kind.
//
// Encoding is total. Decoding checks the cell kind and returns an
// *ir.DecodeError on mismatch. Text and binary values are copied in both
// directions so the cell and the native value never share memory.
package codec

import (
	"encoding"
	"fmt"

	"github.com/aarondl/opt/null"

	"github.com/linmx0130/yoshino/internal/ir"
)

// Codec moves values of type V in and out of cells of a single kind.
type Codec[V any] interface {
	Kind() ir.Kind
	Encode(v V) ir.Cell
	Decode(c ir.Cell) (V, error)
}

// Codecs for the eight storage kinds. Nullable kinds use null.Val from
// github.com/aarondl/opt.
var (
	Text           Codec[string]           = textCodec{}
	NullableText   Codec[null.Val[string]] = nullableTextCodec{}
	Int64          Codec[int64]            = int64Codec{}
	NullableInt64  Codec[null.Val[int64]]  = nullableInt64Codec{}
	Float64        Codec[float64]          = float64Codec{}
	Binary         Codec[[]byte]           = binaryCodec{}
	NullableBinary Codec[null.Val[[]byte]] = nullableBinaryCodec{}
	RowID          Codec[ir.RowID]         = rowIDCodec{}
)

func expect(c ir.Cell, want ir.Kind) error {
	if c.Kind() != want {
		return &ir.DecodeError{Want: want, Got: c.Kind()}
	}
	return nil
}

type textCodec struct{}

func (textCodec) Kind() ir.Kind           { return ir.KindText }
func (textCodec) Encode(v string) ir.Cell { return ir.Text(v) }

func (textCodec) Decode(c ir.Cell) (string, error) {
	if err := expect(c, ir.KindText); err != nil {
		return "", err
	}
	return c.AsText()
}

type nullableTextCodec struct{}

func (nullableTextCodec) Kind() ir.Kind { return ir.KindNullableText }

func (nullableTextCodec) Encode(v null.Val[string]) ir.Cell {
	s, ok := v.Get()
	return ir.NullableText(s, ok)
}

func (nullableTextCodec) Decode(c ir.Cell) (null.Val[string], error) {
	if err := expect(c, ir.KindNullableText); err != nil {
		return null.FromPtr[string](nil), err
	}
	if c.IsNull() {
		return null.FromPtr[string](nil), nil
	}
	s, err := c.AsText()
	if err != nil {
		return null.FromPtr[string](nil), err
	}
	return null.From(s), nil
}

type int64Codec struct{}

func (int64Codec) Kind() ir.Kind          { return ir.KindInt64 }
func (int64Codec) Encode(v int64) ir.Cell { return ir.Int64(v) }

func (int64Codec) Decode(c ir.Cell) (int64, error) {
	if err := expect(c, ir.KindInt64); err != nil {
		return 0, err
	}
	return c.AsInt64()
}

type nullableInt64Codec struct{}

func (nullableInt64Codec) Kind() ir.Kind { return ir.KindNullableInt64 }

func (nullableInt64Codec) Encode(v null.Val[int64]) ir.Cell {
	n, ok := v.Get()
	return ir.NullableInt64(n, ok)
}

func (nullableInt64Codec) Decode(c ir.Cell) (null.Val[int64], error) {
	if err := expect(c, ir.KindNullableInt64); err != nil {
		return null.FromPtr[int64](nil), err
	}
	if c.IsNull() {
		return null.FromPtr[int64](nil), nil
	}
	n, err := c.AsInt64()
	if err != nil {
		return null.FromPtr[int64](nil), err
	}
	return null.From(n), nil
}

type float64Codec struct{}

func (float64Codec) Kind() ir.Kind            { return ir.KindFloat64 }
func (float64Codec) Encode(v float64) ir.Cell { return ir.Float64(v) }

func (float64Codec) Decode(c ir.Cell) (float64, error) {
	if err := expect(c, ir.KindFloat64); err != nil {
		return 0, err
	}
	return c.AsFloat64()
}

type binaryCodec struct{}

func (binaryCodec) Kind() ir.Kind           { return ir.KindBinary }
func (binaryCodec) Encode(v []byte) ir.Cell { return ir.Binary(v) }

func (binaryCodec) Decode(c ir.Cell) ([]byte, error) {
	if err := expect(c, ir.KindBinary); err != nil {
		return nil, err
	}
	return c.AsBinary()
}

type nullableBinaryCodec struct{}

func (nullableBinaryCodec) Kind() ir.Kind { return ir.KindNullableBinary }

func (nullableBinaryCodec) Encode(v null.Val[[]byte]) ir.Cell {
	b, ok := v.Get()
	return ir.NullableBinary(b, ok)
}

func (nullableBinaryCodec) Decode(c ir.Cell) (null.Val[[]byte], error) {
	if err := expect(c, ir.KindNullableBinary); err != nil {
		return null.FromPtr[[]byte](nil), err
	}
	if c.IsNull() {
		return null.FromPtr[[]byte](nil), nil
	}
	b, err := c.AsBinary()
	if err != nil {
		return null.FromPtr[[]byte](nil), err
	}
	return null.From(b), nil
}

type rowIDCodec struct{}

func (rowIDCodec) Kind() ir.Kind             { return ir.KindRowID }
func (rowIDCodec) Encode(v ir.RowID) ir.Cell { return ir.RowIDCell(v) }

func (rowIDCodec) Decode(c ir.Cell) (ir.RowID, error) {
	return c.AsRowID()
}

// TextOf returns a codec storing V as KindText through its text marshalling
// methods.
func TextOf[V encoding.TextMarshaler, PV interface {
	*V
	encoding.TextUnmarshaler
}]() Codec[V] {
	return textOf[V, PV]{}
}

type textOf[V encoding.TextMarshaler, PV interface {
	*V
	encoding.TextUnmarshaler
}] struct{}

func (textOf[V, PV]) Kind() ir.Kind { return ir.KindText }

// Encode stores the marshalled text. A marshalling failure is a defect of V
// and panics, since encoding must be total.
func (textOf[V, PV]) Encode(v V) ir.Cell {
	text, err := v.MarshalText()
	if err != nil {
		panic(fmt.Sprintf("codec: marshal %T: %v", v, err))
	}
	return ir.Text(string(text))
}

func (textOf[V, PV]) Decode(c ir.Cell) (V, error) {
	var v V
	if err := expect(c, ir.KindText); err != nil {
		return v, err
	}
	s, err := c.AsText()
	if err != nil {
		return v, err
	}
	if err := PV(&v).UnmarshalText([]byte(s)); err != nil {
		return v, fmt.Errorf("unmarshal %T: %w", v, err)
	}
	return v, nil
}

// Int64Of returns a codec storing a named integer type as KindInt64.
func Int64Of[V ~int64]() Codec[V] {
	return int64Of[V]{}
}

type int64Of[V ~int64] struct{}

func (int64Of[V]) Kind() ir.Kind      { return ir.KindInt64 }
func (int64Of[V]) Encode(v V) ir.Cell { return ir.Int64(int64(v)) }

func (int64Of[V]) Decode(c ir.Cell) (V, error) {
	n, err := Int64.Decode(c)
	return V(n), err
}
