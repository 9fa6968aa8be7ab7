package schema

import (
	"testing"

	"github.com/aarondl/opt/null"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linmx0130/yoshino/internal/ir"
)

type Label string

type Item struct {
	ID       ir.RowID         `yoshino:"row_id"`
	Handle   uuid.UUID        `yoshino:"handle"`
	Title    Label            `yoshino:"title"`
	Note     null.Val[string] `yoshino:"note"`
	Count    int64
	Weight   float64
	Payload  []byte
	Thumb    null.Val[[]byte] `yoshino:"thumb"`
	Parent   *int64           `yoshino:"parent"`
	Comment  *string          `yoshino:"comment"`
	Scratch  string           `yoshino:"-"`
	internal string
}

func TestReflectFields(t *testing.T) {
	d, err := Reflect[Item]()
	require.NoError(t, err)

	assert.Equal(t, "y_item", d.StorageName())
	assert.Equal(t, []ir.Field{
		{Name: "row_id", Kind: ir.KindRowID},
		{Name: "handle", Kind: ir.KindText},
		{Name: "title", Kind: ir.KindText},
		{Name: "note", Kind: ir.KindNullableText},
		{Name: "count", Kind: ir.KindInt64},
		{Name: "weight", Kind: ir.KindFloat64},
		{Name: "payload", Kind: ir.KindBinary},
		{Name: "thumb", Kind: ir.KindNullableBinary},
		{Name: "parent", Kind: ir.KindNullableInt64},
		{Name: "comment", Kind: ir.KindNullableText},
	}, d.Fields())
}

func TestReflectRoundTrip(t *testing.T) {
	d := MustReflect[Item]()
	parent := int64(7)

	full := Item{
		ID:      ir.AssignedRowID(2),
		Handle:  uuid.MustParse("0190f0b4-7c1e-7a3b-9b2c-1f2e3d4c5b6a"),
		Title:   "first",
		Note:    null.From("n"),
		Count:   -3,
		Weight:  2.5,
		Payload: []byte{1, 2},
		Thumb:   null.From([]byte{}),
		Parent:  &parent,
	}
	got, err := d.FromValues(d.Values(full))
	require.NoError(t, err)
	assert.Equal(t, full, got)

	empty := Item{
		Handle:  uuid.Nil,
		Note:    null.FromPtr[string](nil),
		Payload: []byte{},
		Thumb:   null.FromPtr[[]byte](nil),
	}
	got, err = d.FromValues(d.Values(empty))
	require.NoError(t, err)
	assert.Equal(t, empty, got)
	assert.Nil(t, got.Parent)
	assert.Nil(t, got.Comment)
}

func TestReflectSkipsIgnoredFields(t *testing.T) {
	d := MustReflect[Item]()
	got, err := d.FromValues(d.Values(Item{Scratch: "x", internal: "y", Payload: []byte{}}))
	require.NoError(t, err)
	assert.Empty(t, got.Scratch)
	assert.Empty(t, got.internal)
}

func TestReflectPointerDecodeMismatch(t *testing.T) {
	d := MustReflect[Item]()
	cells := d.Values(Item{Payload: []byte{}})
	cells[8] = ir.Int64(1)

	_, err := d.FromValues(cells)
	var de *ir.DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "parent", de.Field)
}

type Unsupported struct {
	Flag bool
}

func TestReflectUnsupportedType(t *testing.T) {
	_, err := Reflect[Unsupported]()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported type bool")
}

func TestReflectNonStruct(t *testing.T) {
	_, err := Reflect[int]()
	assert.Error(t, err)
}

type Duplicated struct {
	A string `yoshino:"x"`
	B string `yoshino:"x"`
}

func TestReflectDuplicateName(t *testing.T) {
	_, err := Reflect[Duplicated]()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate field "x"`)
	assert.Panics(t, func() { MustReflect[Duplicated]() })
}
