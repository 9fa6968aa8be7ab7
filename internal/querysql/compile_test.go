package querysql

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linmx0130/yoshino/internal/cond"
	"github.com/linmx0130/yoshino/internal/ir"
)

func TestCompileCondExact(t *testing.T) {
	c := NewCompiler(SQLite)

	tests := []struct {
		name   string
		cond   cond.Cond
		sql    string
		params []ir.Cell
	}{
		{
			name:   "integer equality",
			cond:   cond.Eq("value", 255),
			sql:    "value=?",
			params: []ir.Cell{ir.Int64(255)},
		},
		{
			name:   "and keeps left-to-right parameter order",
			cond:   cond.And(cond.Eq("value1", 240), cond.TextEq("value2", "str")),
			sql:    "(value1=?) AND (value2=?)",
			params: []ir.Cell{ir.Int64(240), ir.Text("str")},
		},
		{
			name:   "not",
			cond:   cond.Not(cond.Eq("value1", 240)),
			sql:    "NOT (value1=?)",
			params: []ir.Cell{ir.Int64(240)},
		},
		{
			name: "null tests carry no parameters",
			cond: cond.Or(cond.IsNull("stock"), cond.IsNotNull("name")),
			sql:  "(stock IS NULL) OR (name IS NOT NULL)",
		},
		{
			name:   "every comparison operator",
			cond:   cond.All(cond.Neq("a", 1), cond.Gt("b", 2), cond.Gte("c", 3), cond.Lt("d", 4), cond.Lte("e", 5)),
			sql:    "((((a<>?) AND (b>?)) AND (c>=?)) AND (d<?)) AND (e<=?)",
			params: []ir.Cell{ir.Int64(1), ir.Int64(2), ir.Int64(3), ir.Int64(4), ir.Int64(5)},
		},
		{
			name:   "nested right side",
			cond:   cond.Or(cond.IsNull("stock"), cond.And(cond.Eq("stock", 20), cond.Not(cond.TextEq("name", "x")))),
			sql:    "(stock IS NULL) OR ((stock=?) AND (NOT (name=?)))",
			params: []ir.Cell{ir.Int64(20), ir.Text("x")},
		},
		{
			name:   "pointer nodes",
			cond:   &cond.Conj{Left: &cond.Compare{Field: "a", Op: cond.OpEq, Value: 1}, Right: &cond.Null{Field: "b"}},
			sql:    "(a=?) AND (b IS NULL)",
			params: []ir.Cell{ir.Int64(1)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, params, err := c.Cond(tt.cond)
			require.NoError(t, err)
			assert.Equal(t, tt.sql, sql)
			assertCells(t, tt.params, params)
		})
	}
}

func TestCompileCondMySQL(t *testing.T) {
	c := NewCompiler(MySQL)

	sql, params, err := c.Cond(cond.And(cond.Eq("value1", 240), cond.TextEq("value2", "str")))
	require.NoError(t, err)
	assert.Equal(t, "(value1 = ?) AND (value2 = ?)", sql)
	assertCells(t, []ir.Cell{ir.Int64(240), ir.Text("str")}, params)

	sql, _, err = c.Cond(cond.Not(cond.Neq("v", 1)))
	require.NoError(t, err)
	assert.Equal(t, "NOT (v <> ?)", sql)
}

func TestCompileCondErrors(t *testing.T) {
	c := NewCompiler(SQLite)

	_, _, err := c.Cond(nil)
	assert.EqualError(t, err, "cannot compile nil condition")

	_, _, err = c.Cond(cond.And(cond.IsNull("a"), nil))
	assert.Error(t, err)

	_, _, err = c.Cond(cond.Compare{Field: "a"})
	assert.Error(t, err)
}

func TestCreateTableExact(t *testing.T) {
	fields := []ir.Field{
		{Name: "row_id", Kind: ir.KindRowID},
		{Name: "name", Kind: ir.KindText},
		{Name: "desc", Kind: ir.KindNullableText},
		{Name: "counter", Kind: ir.KindInt64},
	}

	st, err := NewCompiler(SQLite).CreateTable("test_table_name", fields)
	require.NoError(t, err)
	assert.Equal(t,
		"CREATE TABLE IF NOT EXISTS test_table_name (row_id INTEGER PRIMARY KEY, name TEXT NOT NULL, desc TEXT, counter INTEGER NOT NULL);",
		st.SQL)
	assert.Empty(t, st.Params)

	st, err = NewCompiler(MySQL).CreateTable("test_table_name", fields)
	require.NoError(t, err)
	assert.Equal(t,
		"CREATE TABLE IF NOT EXISTS test_table_name (row_id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY, name TEXT NOT NULL, desc TEXT, counter BIGINT NOT NULL);",
		st.SQL)
}

func TestCreateTableEveryKind(t *testing.T) {
	for _, d := range []Dialect{SQLite, MySQL} {
		for _, k := range ir.Kinds {
			typ, err := d.ColumnType(k)
			require.NoError(t, err, "%s %s", d.Name(), k)
			assert.NotEmpty(t, typ)
			if k != ir.KindRowID {
				assert.Equal(t, !k.Nullable(), strings.Contains(typ, "NOT NULL"), "%s %s: %s", d.Name(), k, typ)
			}
		}
		_, err := d.ColumnType(ir.Kind(0))
		assert.Error(t, err)
	}
}

func TestInsertPlaceholderOrder(t *testing.T) {
	fields := []ir.Field{{Name: "a", Kind: ir.KindText}, {Name: "b", Kind: ir.KindInt64}}
	values := []ir.Cell{ir.Text("x"), ir.Int64(2)}

	st, err := NewCompiler(SQLite).Insert("t", fields, values)
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO t (a, b) VALUES (?1, ?2);", st.SQL)
	assertCells(t, values, st.Params)

	st, err = NewCompiler(MySQL).Insert("t", fields, values)
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO t (a, b) VALUES (?, ?);", st.SQL)
}

func TestInsertRejectsMismatchedValues(t *testing.T) {
	c := NewCompiler(SQLite)
	fields := []ir.Field{{Name: "a", Kind: ir.KindText}, {Name: "b", Kind: ir.KindNullableInt64}}

	_, err := c.Insert("t", fields, []ir.Cell{ir.Text("x")})
	assert.ErrorIs(t, err, ErrValueMismatch)

	_, err = c.Insert("t", fields, []ir.Cell{ir.Text("x"), ir.Int64(1)})
	assert.ErrorIs(t, err, ErrValueMismatch)

	_, err = c.Insert("t", fields, []ir.Cell{ir.Null(ir.KindText), ir.NullableInt64(0, false)})
	assert.ErrorIs(t, err, ErrValueMismatch)

	_, err = c.Insert("t", fields, []ir.Cell{ir.Text("x"), ir.NullableInt64(0, false)})
	assert.NoError(t, err)
}

func TestSelectShapes(t *testing.T) {
	c := NewCompiler(SQLite)
	fields := []ir.Field{{Name: "a", Kind: ir.KindText}, {Name: "b", Kind: ir.KindInt64}}

	st, err := c.Select("t", fields, nil)
	require.NoError(t, err)
	assert.Equal(t, "SELECT a, b FROM t;", st.SQL)
	assert.Empty(t, st.Params)

	st, err = c.Select("t", fields, cond.Gt("b", 3))
	require.NoError(t, err)
	assert.Equal(t, "SELECT a, b FROM t WHERE b>?;", st.SQL)
	assertCells(t, []ir.Cell{ir.Int64(3)}, st.Params)
}

func TestUpdateBindsValuesBeforePredicate(t *testing.T) {
	fields := []ir.Field{{Name: "a", Kind: ir.KindText}, {Name: "b", Kind: ir.KindInt64}}
	values := []ir.Cell{ir.Text("x"), ir.Int64(2)}
	where := cond.And(cond.Eq("b", 7), cond.TextEq("a", "old"))

	st, err := NewCompiler(SQLite).Update("t", fields, values, where)
	require.NoError(t, err)
	assert.Equal(t, "UPDATE t SET a=?1, b=?2 WHERE (b=?) AND (a=?);", st.SQL)
	assertCells(t, []ir.Cell{ir.Text("x"), ir.Int64(2), ir.Int64(7), ir.Text("old")}, st.Params)

	st, err = NewCompiler(MySQL).Update("t", fields, values, where)
	require.NoError(t, err)
	assert.Equal(t, "UPDATE t SET a=?, b=? WHERE (b = ?) AND (a = ?);", st.SQL)
	assert.Len(t, st.Params, 4)
}

func TestDeleteShapes(t *testing.T) {
	c := NewCompiler(SQLite)

	st, err := c.Delete("t", cond.IsNull("b"))
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM t WHERE b IS NULL;", st.SQL)
	assert.Empty(t, st.Params)

	st, err = c.Delete("t", nil)
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM t;", st.SQL)
}

func TestDialectByName(t *testing.T) {
	d, err := DialectByName("sqlite")
	require.NoError(t, err)
	assert.Equal(t, SQLite, d)

	d, err = DialectByName("mysql")
	require.NoError(t, err)
	assert.Equal(t, MySQL, d)

	_, err = DialectByName("postgres")
	assert.Error(t, err)
}

var goldenFields = []ir.Field{
	{Name: "id", Kind: ir.KindRowID},
	{Name: "name", Kind: ir.KindText},
	{Name: "stock", Kind: ir.KindNullableInt64},
	{Name: "score", Kind: ir.KindFloat64},
	{Name: "photo", Kind: ir.KindNullableBinary},
}

func renderStatements(t *testing.T, c *Compiler) []byte {
	t.Helper()
	var b strings.Builder
	add := func(label string, st Statement, err error) {
		require.NoError(t, err, label)
		fmt.Fprintf(&b, "-- %s\n%s\n", label, st.SQL)
		if len(st.Params) > 0 {
			fmt.Fprintf(&b, "-- params: %v\n", st.Params)
		}
	}

	st, err := c.CreateTable("y_counter", goldenFields)
	add("create", st, err)

	st, err = c.Insert("y_counter", goldenFields, []ir.Cell{
		ir.RowIDCell(ir.NewRowID()),
		ir.Text("milk"),
		ir.NullableInt64(20, true),
		ir.Float64(1.02),
		ir.NullableBinary(nil, false),
	})
	add("insert", st, err)

	st, err = c.Select("y_counter", goldenFields, nil)
	add("select all", st, err)

	st, err = c.Select("y_counter", goldenFields, cond.Or(cond.IsNull("stock"), cond.Eq("stock", 20)))
	add("select where", st, err)

	st, err = c.Update("y_counter", goldenFields, []ir.Cell{
		ir.RowIDCell(ir.AssignedRowID(1)),
		ir.Text("oat milk"),
		ir.NullableInt64(0, false),
		ir.Float64(2.5),
		ir.NullableBinary(nil, false),
	}, cond.And(cond.Eq("id", 1), cond.Not(cond.TextEq("name", "milk"))))
	add("update where", st, err)

	st, err = c.Delete("y_counter", cond.Lte("stock", 0))
	add("delete where", st, err)

	return []byte(b.String())
}

func TestStatementsGolden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	for _, d := range []Dialect{SQLite, MySQL} {
		t.Run(d.Name(), func(t *testing.T) {
			g.Assert(t, "statements_"+d.Name(), renderStatements(t, NewCompiler(d)))
		})
	}
}

func assertCells(t *testing.T, want, got []ir.Cell) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.True(t, want[i].Equal(got[i]), "param %d: want %s, got %s", i, want[i], got[i])
	}
}
