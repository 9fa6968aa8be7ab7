package ir

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Cell is one field value in erased form: a storage kind, a presence flag
// and the owned encoded bytes.
//
// Integers (including row identities) and floats are 8 little-endian bytes,
// text is UTF-8 and binary is kept verbatim. The zero Cell has no kind and is
// rejected by every accessor.
type Cell struct {
	kind  Kind
	valid bool
	data  []byte
}

// Row is an ordered list of cells, one per schema field.
type Row []Cell

// Text returns a present KindText cell.
func Text(s string) Cell {
	return Cell{kind: KindText, valid: true, data: []byte(s)}
}

// NullableText returns a KindNullableText cell, absent unless valid.
func NullableText(s string, valid bool) Cell {
	if !valid {
		return Null(KindNullableText)
	}
	return Cell{kind: KindNullableText, valid: true, data: []byte(s)}
}

// Int64 returns a present KindInt64 cell.
func Int64(n int64) Cell {
	return Cell{kind: KindInt64, valid: true, data: encodeInt(n)}
}

// NullableInt64 returns a KindNullableInt64 cell, absent unless valid.
func NullableInt64(n int64, valid bool) Cell {
	if !valid {
		return Null(KindNullableInt64)
	}
	return Cell{kind: KindNullableInt64, valid: true, data: encodeInt(n)}
}

// Float64 returns a present KindFloat64 cell.
func Float64(f float64) Cell {
	return Cell{kind: KindFloat64, valid: true, data: encodeInt(int64(math.Float64bits(f)))}
}

// Binary returns a present KindBinary cell holding a copy of b.
func Binary(b []byte) Cell {
	return Cell{kind: KindBinary, valid: true, data: clone(b)}
}

// NullableBinary returns a KindNullableBinary cell, absent unless valid.
func NullableBinary(b []byte, valid bool) Cell {
	if !valid {
		return Null(KindNullableBinary)
	}
	return Cell{kind: KindNullableBinary, valid: true, data: clone(b)}
}

// RowIDCell returns a KindRowID cell; New identities are absent.
func RowIDCell(id RowID) Cell {
	if n, ok := id.Get(); ok {
		return Cell{kind: KindRowID, valid: true, data: encodeInt(n)}
	}
	return Null(KindRowID)
}

// Null returns an absent cell of kind k. Binding an absent cell of a
// non-nullable kind is rejected by the adaptor.
func Null(k Kind) Cell {
	return Cell{kind: k}
}

// Kind returns the storage kind of the cell.
func (c Cell) Kind() Kind {
	return c.kind
}

// IsNull reports whether the cell is absent.
func (c Cell) IsNull() bool {
	return !c.valid
}

// Len returns the number of encoded bytes.
func (c Cell) Len() int {
	return len(c.data)
}

// Bytes returns a copy of the encoded bytes.
func (c Cell) Bytes() []byte {
	return clone(c.data)
}

// AsText returns the value of a text cell.
func (c Cell) AsText() (string, error) {
	if !c.kind.Textual() {
		return "", &DecodeError{Want: KindText, Got: c.kind}
	}
	if !c.valid {
		return "", ErrNull
	}
	return string(c.data), nil
}

// AsInt64 returns the value of an integer or assigned row identity cell.
func (c Cell) AsInt64() (int64, error) {
	if !c.kind.Integer() {
		return 0, &DecodeError{Want: KindInt64, Got: c.kind}
	}
	if !c.valid {
		return 0, ErrNull
	}
	return decodeInt(c.data)
}

// AsFloat64 returns the value of a float cell.
func (c Cell) AsFloat64() (float64, error) {
	if c.kind != KindFloat64 {
		return 0, &DecodeError{Want: KindFloat64, Got: c.kind}
	}
	if !c.valid {
		return 0, ErrNull
	}
	bits, err := decodeInt(c.data)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(uint64(bits)), nil
}

// AsBinary returns a copy of the value of a binary cell. A present
// zero-length value is returned as an empty, non-nil slice.
func (c Cell) AsBinary() ([]byte, error) {
	if !c.kind.Binary() {
		return nil, &DecodeError{Want: KindBinary, Got: c.kind}
	}
	if !c.valid {
		return nil, ErrNull
	}
	out := make([]byte, len(c.data))
	copy(out, c.data)
	return out, nil
}

// AsRowID returns the identity held by a KindRowID cell.
func (c Cell) AsRowID() (RowID, error) {
	if c.kind != KindRowID {
		return RowID{}, &DecodeError{Want: KindRowID, Got: c.kind}
	}
	if !c.valid {
		return NewRowID(), nil
	}
	n, err := decodeInt(c.data)
	if err != nil {
		return RowID{}, err
	}
	return AssignedRowID(n), nil
}

// Equal reports whether a and b have the same kind, presence and bytes.
func (c Cell) Equal(other Cell) bool {
	if c.kind != other.kind || c.valid != other.valid {
		return false
	}
	return !c.valid || bytes.Equal(c.data, other.data)
}

// String renders the cell for logs and test failures.
func (c Cell) String() string {
	if !c.valid {
		return "null(" + c.kind.String() + ")"
	}
	switch {
	case c.kind.Textual():
		return strconv.Quote(string(c.data))
	case c.kind.Integer():
		n, _ := decodeInt(c.data)
		return strconv.FormatInt(n, 10)
	case c.kind == KindFloat64:
		f, _ := c.AsFloat64()
		return strconv.FormatFloat(f, 'g', -1, 64)
	case c.kind.Binary():
		return fmt.Sprintf("0x%x", c.data)
	default:
		return c.kind.String()
	}
}

// MarshalJSON renders the value: text as a string, numbers as numbers,
// binary as base64 and absent cells as null.
func (c Cell) MarshalJSON() ([]byte, error) {
	if !c.valid {
		return []byte("null"), nil
	}
	switch {
	case c.kind.Textual():
		return json.Marshal(string(c.data))
	case c.kind.Integer():
		n, err := decodeInt(c.data)
		if err != nil {
			return nil, err
		}
		return []byte(strconv.FormatInt(n, 10)), nil
	case c.kind == KindFloat64:
		f, err := c.AsFloat64()
		if err != nil {
			return nil, err
		}
		return json.Marshal(f)
	case c.kind.Binary():
		return json.Marshal(base64.StdEncoding.EncodeToString(c.data))
	default:
		return nil, fmt.Errorf("marshal cell: invalid kind %s", c.kind)
	}
}

func encodeInt(n int64) []byte {
	return binary.LittleEndian.AppendUint64(make([]byte, 0, 8), uint64(n))
}

func decodeInt(b []byte) (int64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("decode integer: want 8 bytes, got %d", len(b))
	}
	return int64(binary.LittleEndian.Uint64(b)), nil
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
