package codec

import (
	"math"
	"testing"

	"github.com/aarondl/opt/null"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linmx0130/yoshino/internal/ir"
)

func roundTrip[V any](t *testing.T, c Codec[V], v V) V {
	t.Helper()
	cell := c.Encode(v)
	assert.Equal(t, c.Kind(), cell.Kind())
	got, err := c.Decode(cell)
	require.NoError(t, err)
	return got
}

func TestTextRoundTrip(t *testing.T) {
	for _, v := range []string{"", "milk", "多字节", "with\x00nul"} {
		assert.Equal(t, v, roundTrip(t, Text, v))
	}
}

func TestNullableTextRoundTrip(t *testing.T) {
	got := roundTrip(t, NullableText, null.From(""))
	assert.True(t, got.IsValue())
	assert.Equal(t, "", got.GetOrZero())

	got = roundTrip(t, NullableText, null.From("x"))
	assert.Equal(t, "x", got.GetOrZero())

	got = roundTrip(t, NullableText, null.FromPtr[string](nil))
	assert.True(t, got.IsNull())
}

func TestInt64RoundTrip(t *testing.T) {
	for _, v := range []int64{0, 1, -1, math.MaxInt64, math.MinInt64} {
		assert.Equal(t, v, roundTrip(t, Int64, v))
	}
}

func TestNullableInt64RoundTrip(t *testing.T) {
	got := roundTrip(t, NullableInt64, null.From(int64(20)))
	n, ok := got.Get()
	assert.True(t, ok)
	assert.Equal(t, int64(20), n)

	got = roundTrip(t, NullableInt64, null.From(int64(0)))
	assert.True(t, got.IsValue())

	got = roundTrip(t, NullableInt64, null.FromPtr[int64](nil))
	assert.True(t, got.IsNull())
}

func TestFloat64RoundTrip(t *testing.T) {
	for _, v := range []float64{0, 1.02, -3.5e300, math.SmallestNonzeroFloat64, math.Inf(1)} {
		assert.Equal(t, v, roundTrip(t, Float64, v))
	}
	assert.True(t, math.IsNaN(roundTrip(t, Float64, math.NaN())))
}

func TestBinaryRoundTrip(t *testing.T) {
	assert.Equal(t, []byte{0, 1, 255}, roundTrip(t, Binary, []byte{0, 1, 255}))

	empty := roundTrip(t, Binary, []byte{})
	assert.NotNil(t, empty)
	assert.Len(t, empty, 0)
}

func TestBinaryCopiesOnDecode(t *testing.T) {
	cell := Binary.Encode([]byte("abc"))
	first, err := Binary.Decode(cell)
	require.NoError(t, err)
	first[0] = 'z'

	second, err := Binary.Decode(cell)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), second)
}

func TestNullableBinaryRoundTrip(t *testing.T) {
	got := roundTrip(t, NullableBinary, null.From([]byte{}))
	b, ok := got.Get()
	assert.True(t, ok)
	assert.Empty(t, b)

	got = roundTrip(t, NullableBinary, null.FromPtr[[]byte](nil))
	assert.True(t, got.IsNull())
}

func TestRowIDRoundTrip(t *testing.T) {
	assert.Equal(t, ir.NewRowID(), roundTrip(t, RowID, ir.NewRowID()))
	assert.Equal(t, ir.AssignedRowID(7), roundTrip(t, RowID, ir.AssignedRowID(7)))
}

func TestDecodeKindMismatch(t *testing.T) {
	tests := []struct {
		name   string
		decode func(ir.Cell) error
		cell   ir.Cell
	}{
		{"text from nullable text", func(c ir.Cell) error { _, err := Text.Decode(c); return err }, ir.NullableText("a", true)},
		{"nullable text from text", func(c ir.Cell) error { _, err := NullableText.Decode(c); return err }, ir.Text("a")},
		{"int64 from row id", func(c ir.Cell) error { _, err := Int64.Decode(c); return err }, ir.RowIDCell(ir.AssignedRowID(1))},
		{"nullable int64 from float", func(c ir.Cell) error { _, err := NullableInt64.Decode(c); return err }, ir.Float64(1)},
		{"float64 from int64", func(c ir.Cell) error { _, err := Float64.Decode(c); return err }, ir.Int64(1)},
		{"binary from text", func(c ir.Cell) error { _, err := Binary.Decode(c); return err }, ir.Text("a")},
		{"nullable binary from binary", func(c ir.Cell) error { _, err := NullableBinary.Decode(c); return err }, ir.Binary(nil)},
		{"row id from int64", func(c ir.Cell) error { _, err := RowID.Decode(c); return err }, ir.Int64(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.decode(tt.cell)
			require.Error(t, err)
			assert.ErrorIs(t, err, ir.ErrKindMismatch)
		})
	}
}

func TestTextOfUUID(t *testing.T) {
	c := TextOf[uuid.UUID]()
	id := uuid.MustParse("0190f0b4-7c1e-7a3b-9b2c-1f2e3d4c5b6a")

	cell := c.Encode(id)
	s, err := cell.AsText()
	require.NoError(t, err)
	assert.Equal(t, "0190f0b4-7c1e-7a3b-9b2c-1f2e3d4c5b6a", s)

	assert.Equal(t, id, roundTrip(t, c, id))

	_, err = c.Decode(ir.Text("not-a-uuid"))
	assert.Error(t, err)

	_, err = c.Decode(ir.Int64(1))
	assert.ErrorIs(t, err, ir.ErrKindMismatch)
}

type stock int64

func TestInt64Of(t *testing.T) {
	c := Int64Of[stock]()
	assert.Equal(t, ir.KindInt64, c.Kind())
	assert.Equal(t, stock(-4), roundTrip(t, c, stock(-4)))

	_, err := c.Decode(ir.Text("4"))
	assert.ErrorIs(t, err, ir.ErrKindMismatch)
}
