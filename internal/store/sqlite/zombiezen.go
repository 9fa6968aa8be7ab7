package sqlite

import (
	"context"
	"fmt"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/linmx0130/yoshino/internal/ir"
	"github.com/linmx0130/yoshino/internal/store"
)

// connDriver drives a zombiezen connection without database/sql.
type connDriver struct {
	conn *sqlite.Conn
}

func openConn(ctx context.Context, path string) (*connDriver, error) {
	conn, err := sqlite.OpenConn(path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	conn.SetInterrupt(ctx.Done())
	for _, pragma := range pragmas(path) {
		if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
			conn.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	conn.SetInterrupt(nil)
	return &connDriver{conn: conn}, nil
}

func (d *connDriver) Prepare(ctx context.Context, query string) (store.Stmt, error) {
	d.conn.SetInterrupt(ctx.Done())
	stmt, _, err := d.conn.PrepareTransient(query)
	if err != nil {
		return nil, err
	}
	return &connStmt{conn: d.conn, stmt: stmt}, nil
}

func (d *connDriver) Close() error {
	return d.conn.Close()
}

type connStmt struct {
	conn *sqlite.Conn
	stmt *sqlite.Stmt
}

func (s *connStmt) Bind(pos int, c ir.Cell) error {
	if c.IsNull() {
		s.stmt.BindNull(pos)
		return nil
	}
	k := c.Kind()
	switch {
	case k.Textual():
		v, err := c.AsText()
		if err != nil {
			return err
		}
		s.stmt.BindText(pos, v)
	case k.Integer():
		v, err := c.AsInt64()
		if err != nil {
			return err
		}
		s.stmt.BindInt64(pos, v)
	case k == ir.KindFloat64:
		v, err := c.AsFloat64()
		if err != nil {
			return err
		}
		s.stmt.BindFloat(pos, v)
	case k.Binary():
		v, err := c.AsBinary()
		if err != nil {
			return err
		}
		s.stmt.BindBytes(pos, v)
	default:
		return fmt.Errorf("cannot bind cell of kind %s", k)
	}
	return nil
}

func (s *connStmt) Exec(ctx context.Context) error {
	s.conn.SetInterrupt(ctx.Done())
	for {
		more, err := s.stmt.Step()
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
}

func (s *connStmt) Step(ctx context.Context) (bool, error) {
	s.conn.SetInterrupt(ctx.Done())
	return s.stmt.Step()
}

// Column reads column pos, requiring the SQLite storage class to match kind.
func (s *connStmt) Column(pos int, kind ir.Kind) (ir.Cell, error) {
	typ := s.stmt.ColumnType(pos)
	if typ == sqlite.TypeNull {
		if kind.Nullable() {
			return ir.Null(kind), nil
		}
		return ir.Cell{}, fmt.Errorf("NULL in non-nullable %s column", kind)
	}

	switch kind {
	case ir.KindText, ir.KindNullableText:
		if typ != sqlite.TypeText {
			return ir.Cell{}, fmt.Errorf("cannot read %v as text", typ)
		}
		v := s.stmt.ColumnText(pos)
		if kind == ir.KindText {
			return ir.Text(v), nil
		}
		return ir.NullableText(v, true), nil

	case ir.KindInt64, ir.KindNullableInt64, ir.KindRowID:
		if typ != sqlite.TypeInteger {
			return ir.Cell{}, fmt.Errorf("cannot read %v as integer", typ)
		}
		v := s.stmt.ColumnInt64(pos)
		switch kind {
		case ir.KindInt64:
			return ir.Int64(v), nil
		case ir.KindNullableInt64:
			return ir.NullableInt64(v, true), nil
		default:
			return ir.RowIDCell(ir.AssignedRowID(v)), nil
		}

	case ir.KindFloat64:
		if typ != sqlite.TypeFloat && typ != sqlite.TypeInteger {
			return ir.Cell{}, fmt.Errorf("cannot read %v as float", typ)
		}
		return ir.Float64(s.stmt.ColumnFloat(pos)), nil

	case ir.KindBinary, ir.KindNullableBinary:
		if typ != sqlite.TypeBlob {
			return ir.Cell{}, fmt.Errorf("cannot read %v as binary", typ)
		}
		buf := make([]byte, s.stmt.ColumnLen(pos))
		s.stmt.ColumnBytes(pos, buf)
		if kind == ir.KindBinary {
			return ir.Binary(buf), nil
		}
		return ir.NullableBinary(buf, true), nil

	default:
		return ir.Cell{}, fmt.Errorf("cannot read column as kind %s", kind)
	}
}

func (s *connStmt) Finalize() error {
	if s.stmt == nil {
		return nil
	}
	stmt := s.stmt
	s.stmt = nil
	return stmt.Finalize()
}
