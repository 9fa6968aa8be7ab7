package sqlite_test

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aarondl/opt/null"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linmx0130/yoshino/internal/codec"
	"github.com/linmx0130/yoshino/internal/cond"
	"github.com/linmx0130/yoshino/internal/ir"
	"github.com/linmx0130/yoshino/internal/schema"
	"github.com/linmx0130/yoshino/internal/store"
	"github.com/linmx0130/yoshino/internal/store/sqlite"
)

type Counter struct {
	ID    ir.RowID
	Name  string
	Stock null.Val[int64]
	Price float64
	Tag   null.Val[string]
	Photo []byte
}

var counterSchema = schema.Define(
	schema.Bind("id", codec.RowID, func(c *Counter) *ir.RowID { return &c.ID }),
	schema.Bind("name", codec.Text, func(c *Counter) *string { return &c.Name }),
	schema.Bind("stock", codec.NullableInt64, func(c *Counter) *null.Val[int64] { return &c.Stock }),
	schema.Bind("price", codec.Float64, func(c *Counter) *float64 { return &c.Price }),
	schema.Bind("tag", codec.NullableText, func(c *Counter) *null.Val[string] { return &c.Tag }),
	schema.Bind("photo", codec.Binary, func(c *Counter) *[]byte { return &c.Photo }),
)

func openTable(t *testing.T, cfg sqlite.Config) *store.Table[Counter] {
	t.Helper()
	a, err := sqlite.Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	tbl := store.NewTable(a, counterSchema)
	require.NoError(t, tbl.CreateTable(context.Background()))
	return tbl
}

func collect(t *testing.T, rows *store.Rows[Counter], err error) []Counter {
	t.Helper()
	require.NoError(t, err)
	out, err := rows.Collect()
	require.NoError(t, err)
	return out
}

func TestEngines(t *testing.T) {
	for _, engine := range sqlite.Engines {
		t.Run(string(engine), func(t *testing.T) {
			ctx := context.Background()
			tbl := openTable(t, sqlite.Config{Engine: engine})

			// Creating twice is a no-op.
			require.NoError(t, tbl.CreateTable(ctx))

			require.NoError(t, tbl.Insert(ctx, Counter{Name: "milk", Stock: null.From(int64(20)), Price: 1.02, Photo: []byte{}}))
			require.NoError(t, tbl.Insert(ctx, Counter{Name: "egg", Price: 0.5, Tag: null.From("fresh"), Photo: []byte{0xff, 0}}))
			require.NoError(t, tbl.Insert(ctx, Counter{Name: "tea", Stock: null.From(int64(3)), Price: 4, Photo: []byte("x")}))

			all := collect(t, tbl.QueryAll(ctx))
			require.Len(t, all, 3)
			assert.Equal(t, Counter{
				ID:    ir.AssignedRowID(1),
				Name:  "milk",
				Stock: null.From(int64(20)),
				Price: 1.02,
				Photo: []byte{},
			}, all[0])
			assert.Equal(t, ir.AssignedRowID(2), all[1].ID)
			assert.True(t, all[1].Stock.IsNull())
			assert.Equal(t, null.From("fresh"), all[1].Tag)
			assert.Equal(t, []byte{0xff, 0}, all[1].Photo)

			matched := collect(t, tbl.QueryWhere(ctx, cond.Or(cond.IsNull("stock"), cond.Eq("stock", 20))))
			names := make([]string, len(matched))
			for i, c := range matched {
				names[i] = c.Name
			}
			assert.ElementsMatch(t, []string{"milk", "egg"}, names)

			tea := all[2]
			tea.Stock = null.From(int64(0))
			tea.Name = "green tea"
			require.NoError(t, tbl.Update(ctx, tea))

			got := collect(t, tbl.QueryWhere(ctx, cond.TextEq("name", "green tea")))
			require.Len(t, got, 1)
			assert.Equal(t, tea, got[0])

			require.NoError(t, tbl.DeleteWhere(ctx, cond.Lte("stock", 0)))
			require.NoError(t, tbl.Delete(ctx, all[1]))

			left := collect(t, tbl.QueryAll(ctx))
			require.Len(t, left, 1)
			assert.Equal(t, "milk", left[0].Name)
		})
	}
}

func TestEmptyBinaryIsNotNull(t *testing.T) {
	for _, engine := range sqlite.Engines {
		t.Run(string(engine), func(t *testing.T) {
			ctx := context.Background()
			tbl := openTable(t, sqlite.Config{Engine: engine})
			require.NoError(t, tbl.Insert(ctx, Counter{Name: "a", Photo: []byte{}}))

			got := collect(t, tbl.QueryWhere(ctx, cond.IsNotNull("photo")))
			require.Len(t, got, 1)
			assert.NotNil(t, got[0].Photo)
			assert.Empty(t, got[0].Photo)
		})
	}
}

func TestEarlyBreakReleasesStatement(t *testing.T) {
	for _, engine := range sqlite.Engines {
		t.Run(string(engine), func(t *testing.T) {
			ctx := context.Background()
			tbl := openTable(t, sqlite.Config{Engine: engine})
			for _, name := range []string{"a", "b", "c"} {
				require.NoError(t, tbl.Insert(ctx, Counter{Name: name, Photo: []byte{}}))
			}

			rows, err := tbl.QueryAll(ctx)
			require.NoError(t, err)
			for _, err := range rows.All() {
				require.NoError(t, err)
				break
			}

			// The connection is free for the next statement.
			require.NoError(t, tbl.DeleteWhere(ctx, cond.TextEq("name", "a")))
			assert.Len(t, collect(t, tbl.QueryAll(ctx)), 2)
		})
	}
}

func TestDecodeMismatch(t *testing.T) {
	ctx := context.Background()
	a, err := sqlite.Open(ctx, sqlite.Config{})
	require.NoError(t, err)
	defer a.Close()

	loose, err := schema.NewTable("y_counter", []ir.Field{
		{Name: "id", Kind: ir.KindRowID},
		{Name: "name", Kind: ir.KindNullableText},
		{Name: "stock", Kind: ir.KindNullableInt64},
		{Name: "price", Kind: ir.KindFloat64},
		{Name: "tag", Kind: ir.KindNullableText},
		{Name: "photo", Kind: ir.KindBinary},
	})
	require.NoError(t, err)
	require.NoError(t, a.CreateTable(ctx, loose))
	require.NoError(t, a.Insert(ctx, loose, []ir.Cell{
		ir.Null(ir.KindRowID),
		ir.Null(ir.KindNullableText),
		ir.Null(ir.KindNullableInt64),
		ir.Float64(1),
		ir.Null(ir.KindNullableText),
		ir.Binary(nil),
	}))

	rows, err := store.NewTable(a, counterSchema).QueryAll(ctx)
	require.NoError(t, err)
	_, err = rows.Collect()
	require.Error(t, err)
	assert.True(t, store.IsDecodeError(err))
	assert.Contains(t, err.Error(), `field "name"`)
}

func TestStatementErrorFromBackend(t *testing.T) {
	ctx := context.Background()
	a, err := sqlite.Open(ctx, sqlite.Config{})
	require.NoError(t, err)
	defer a.Close()

	err = store.NewTable(a, counterSchema).Insert(ctx, Counter{Name: "no table"})
	require.Error(t, err)
	assert.True(t, store.IsStatementError(err))
	assert.Contains(t, err.Error(), "no such table")
}

func TestOpenFileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	tbl := openTable(t, sqlite.Config{Path: path})
	require.NoError(t, tbl.Insert(ctx, Counter{Name: "milk", Photo: []byte{}}))

	_, err := os.Stat(path)
	require.NoError(t, err)

	// Reopen with another engine and read back.
	again := openTable(t, sqlite.Config{Path: path, Engine: sqlite.EngineZombiezen})
	got := collect(t, again.QueryAll(ctx))
	require.Len(t, got, 1)
	assert.Equal(t, "milk", got[0].Name)
}

func TestOpenUnknownEngine(t *testing.T) {
	_, err := sqlite.Open(context.Background(), sqlite.Config{Engine: "berkeley"})
	require.Error(t, err)
	assert.True(t, store.IsConnectionError(err))
}

func TestOpenMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "test.db")
	for _, engine := range sqlite.Engines {
		_, err := sqlite.Open(context.Background(), sqlite.Config{Path: path, Engine: engine})
		require.Error(t, err, engine)
		assert.True(t, store.IsConnectionError(err), engine)
	}
}

func TestLogStatements(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tbl := openTable(t, sqlite.Config{LogStatements: true, Logger: logger})
	require.NoError(t, tbl.Insert(context.Background(), Counter{Name: "milk", Photo: []byte{}}))

	out := buf.String()
	assert.Contains(t, out, "executing statement")
	assert.Contains(t, out, "INSERT INTO y_counter")
}

func TestCloseWithOpenCursor(t *testing.T) {
	for _, engine := range sqlite.Engines {
		t.Run(string(engine), func(t *testing.T) {
			ctx := context.Background()
			a, err := sqlite.Open(ctx, sqlite.Config{Engine: engine})
			require.NoError(t, err)

			tbl := store.NewTable(a, counterSchema)
			require.NoError(t, tbl.CreateTable(ctx))
			for _, name := range []string{"a", "b"} {
				require.NoError(t, tbl.Insert(ctx, Counter{Name: name, Photo: []byte{}}))
			}

			rows, err := tbl.QueryAll(ctx)
			require.NoError(t, err)
			require.True(t, rows.Next())

			done := make(chan error, 1)
			go func() { done <- a.Close() }()
			select {
			case err := <-done:
				require.NoError(t, err)
			case <-time.After(5 * time.Second):
				t.Fatal("Close blocked on an open cursor")
			}

			assert.False(t, rows.Next())
			assert.ErrorIs(t, rows.Err(), store.ErrAdaptorClosed)
			assert.Equal(t, 0, a.OpenCursors())
		})
	}
}
