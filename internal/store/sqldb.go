package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/hashicorp/go-multierror"

	"github.com/linmx0130/yoshino/internal/ir"
)

// SQLDriver adapts a database/sql handle to the native boundary.
//
// The driver pins one *sql.Conn so that every statement of the adaptor runs
// on the same backend connection.
type SQLDriver struct {
	db   *sql.DB
	conn *sql.Conn
}

// NewSQLDriver takes a dedicated connection from db. The driver owns db and
// closes it on Close.
func NewSQLDriver(ctx context.Context, db *sql.DB) (*SQLDriver, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	return &SQLDriver{db: db, conn: conn}, nil
}

// Conn returns the pinned connection.
func (d *SQLDriver) Conn() *sql.Conn {
	return d.conn
}

// Prepare implements Driver.
func (d *SQLDriver) Prepare(ctx context.Context, query string) (Stmt, error) {
	stmt, err := d.conn.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	return &sqlStmt{stmt: stmt}, nil
}

// Close implements Driver.
func (d *SQLDriver) Close() error {
	var result *multierror.Error
	if err := d.conn.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("close connection: %w", err))
	}
	if err := d.db.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("close database: %w", err))
	}
	return result.ErrorOrNil()
}

type sqlStmt struct {
	stmt   *sql.Stmt
	args   []any
	rows   *sql.Rows
	values []any
	closed bool
}

func (s *sqlStmt) Bind(pos int, c ir.Cell) error {
	if pos < 1 {
		return fmt.Errorf("bind position %d out of range", pos)
	}
	arg, err := cellArg(c)
	if err != nil {
		return fmt.Errorf("bind position %d: %w", pos, err)
	}
	for len(s.args) < pos {
		s.args = append(s.args, nil)
	}
	s.args[pos-1] = arg
	return nil
}

func (s *sqlStmt) Exec(ctx context.Context) error {
	_, err := s.stmt.ExecContext(ctx, s.args...)
	return err
}

func (s *sqlStmt) Step(ctx context.Context) (bool, error) {
	if s.closed {
		return false, fmt.Errorf("step on finalized statement")
	}
	if s.rows == nil {
		rows, err := s.stmt.QueryContext(ctx, s.args...)
		if err != nil {
			return false, err
		}
		cols, err := rows.Columns()
		if err != nil {
			rows.Close()
			return false, err
		}
		s.rows = rows
		s.values = make([]any, len(cols))
	}
	if !s.rows.Next() {
		return false, s.rows.Err()
	}
	dest := make([]any, len(s.values))
	for i := range s.values {
		dest[i] = &s.values[i]
	}
	if err := s.rows.Scan(dest...); err != nil {
		return false, err
	}
	return true, nil
}

func (s *sqlStmt) Column(pos int, kind ir.Kind) (ir.Cell, error) {
	if pos < 0 || pos >= len(s.values) {
		return ir.Cell{}, fmt.Errorf("column %d out of range", pos)
	}
	return columnCell(s.values[pos], kind)
}

func (s *sqlStmt) Finalize() error {
	if s.closed {
		return nil
	}
	s.closed = true
	var result *multierror.Error
	if s.rows != nil {
		if err := s.rows.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if err := s.stmt.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

// cellArg converts a cell to a database/sql argument. Absent cells bind
// NULL; present binary values are never nil so that zero-length blobs stay
// distinct from NULL.
func cellArg(c ir.Cell) (any, error) {
	k := c.Kind()
	if !k.Valid() {
		return nil, fmt.Errorf("cannot bind cell of kind %s", k)
	}
	if c.IsNull() {
		return nil, nil
	}
	switch {
	case k.Textual():
		return c.AsText()
	case k.Integer():
		return c.AsInt64()
	case k == ir.KindFloat64:
		return c.AsFloat64()
	case k.Binary():
		return c.AsBinary()
	default:
		return nil, fmt.Errorf("cannot bind cell of kind %s", k)
	}
}

// columnCell converts a scanned database/sql value to a cell of kind.
func columnCell(v any, kind ir.Kind) (ir.Cell, error) {
	if v == nil {
		if kind.Nullable() {
			return ir.Null(kind), nil
		}
		return ir.Cell{}, fmt.Errorf("NULL in non-nullable %s column", kind)
	}

	switch kind {
	case ir.KindText, ir.KindNullableText:
		s, err := scanText(v)
		if err != nil {
			return ir.Cell{}, err
		}
		if kind == ir.KindText {
			return ir.Text(s), nil
		}
		return ir.NullableText(s, true), nil

	case ir.KindInt64, ir.KindNullableInt64, ir.KindRowID:
		n, err := scanInt(v)
		if err != nil {
			return ir.Cell{}, err
		}
		switch kind {
		case ir.KindInt64:
			return ir.Int64(n), nil
		case ir.KindNullableInt64:
			return ir.NullableInt64(n, true), nil
		default:
			return ir.RowIDCell(ir.AssignedRowID(n)), nil
		}

	case ir.KindFloat64:
		f, err := scanFloat(v)
		if err != nil {
			return ir.Cell{}, err
		}
		return ir.Float64(f), nil

	case ir.KindBinary, ir.KindNullableBinary:
		b, err := scanBytes(v)
		if err != nil {
			return ir.Cell{}, err
		}
		if kind == ir.KindBinary {
			return ir.Binary(b), nil
		}
		return ir.NullableBinary(b, true), nil

	default:
		return ir.Cell{}, fmt.Errorf("cannot read column as kind %s", kind)
	}
}

func scanText(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	default:
		return "", fmt.Errorf("cannot read %T as text", v)
	}
}

func scanInt(v any) (int64, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case int32:
		return int64(x), nil
	case int:
		return int64(x), nil
	case uint64:
		if x > 1<<63-1 {
			return 0, fmt.Errorf("integer %d overflows int64", x)
		}
		return int64(x), nil
	case []byte:
		return strconv.ParseInt(string(x), 10, 64)
	case string:
		return strconv.ParseInt(x, 10, 64)
	default:
		return 0, fmt.Errorf("cannot read %T as integer", v)
	}
}

func scanFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case []byte:
		return strconv.ParseFloat(string(x), 64)
	case string:
		return strconv.ParseFloat(x, 64)
	default:
		return 0, fmt.Errorf("cannot read %T as float", v)
	}
}

func scanBytes(v any) ([]byte, error) {
	switch x := v.(type) {
	case []byte:
		return x, nil
	case string:
		return []byte(x), nil
	default:
		return nil, fmt.Errorf("cannot read %T as binary", v)
	}
}
