package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hashicorp/go-multierror"

	"github.com/linmx0130/yoshino/internal/cond"
	"github.com/linmx0130/yoshino/internal/ir"
	"github.com/linmx0130/yoshino/internal/querysql"
	"github.com/linmx0130/yoshino/internal/schema"
)

// Operation names reported in errors and logs.
const (
	OpCreateTable = "create_table"
	OpInsert      = "insert"
	OpQuery       = "query"
	OpUpdate      = "update"
	OpDelete      = "delete"
)

// Adaptor runs the six persistence operations against one backend
// connection.
//
// Every operation follows prepare, bind, execute (or step), finalize. The
// statement is finalized on every exit path; for queries the returned Cursor
// owns it until exhaustion or Close.
//
// An Adaptor owns its connection exclusively and has no internal locking:
// callers must not run two operations on it concurrently. Statements are
// only ever finalized on the caller's goroutine.
type Adaptor struct {
	driver   Driver
	compiler *querysql.Compiler
	logger   *slog.Logger
	open     map[*openStmt]struct{}
}

// Option configures an Adaptor.
type Option func(*Adaptor)

// WithLogger sets the logger receiving one Debug record per statement.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Adaptor) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// New creates an adaptor over an open driver.
func New(driver Driver, dialect querysql.Dialect, opts ...Option) *Adaptor {
	a := &Adaptor{
		driver:   driver,
		compiler: querysql.NewCompiler(dialect),
		logger:   slog.New(slog.DiscardHandler),
		open:     make(map[*openStmt]struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Dialect returns the SQL dialect of the backend.
func (a *Adaptor) Dialect() querysql.Dialect {
	return a.compiler.Dialect()
}

// Close finalizes the statements of cursors still open and releases the
// backend connection. Those cursors report ErrAdaptorClosed afterwards.
func (a *Adaptor) Close() error {
	var result *multierror.Error
	for open := range a.open {
		if err := a.finalize(open); err != nil {
			result = multierror.Append(result, fmt.Errorf("finalize open cursor: %w", err))
		}
	}
	if err := a.driver.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

// OpenCursors returns the number of cursor statements not yet finalized.
func (a *Adaptor) OpenCursors() int {
	return len(a.open)
}

func (a *Adaptor) track(stmt Stmt) *openStmt {
	open := &openStmt{stmt: stmt}
	a.open[open] = struct{}{}
	return open
}

func (a *Adaptor) finalize(open *openStmt) error {
	if open.finalized {
		return nil
	}
	open.finalized = true
	delete(a.open, open)
	return open.stmt.Finalize()
}

// sweep finalizes the statements of cursors garbage collected without
// Close.
func (a *Adaptor) sweep(ctx context.Context) {
	for open := range a.open {
		if !open.abandoned.Load() {
			continue
		}
		if err := a.finalize(open); err != nil {
			a.logger.WarnContext(ctx, "finalize abandoned cursor", "error", err)
		}
	}
}

// CreateTable creates the table of s if it does not exist.
func (a *Adaptor) CreateTable(ctx context.Context, s schema.Schema) error {
	table := s.StorageName()
	st, err := a.compiler.CreateTable(table, s.Fields())
	if err != nil {
		return invalid(OpCreateTable, table, err)
	}
	return a.exec(ctx, OpCreateTable, table, st)
}

// Insert stores one row. values follow the field order of s; an absent row
// identity lets the backend assign one.
func (a *Adaptor) Insert(ctx context.Context, s schema.Schema, values []ir.Cell) error {
	table := s.StorageName()
	st, err := a.compiler.Insert(table, s.Fields(), values)
	if err != nil {
		return invalid(OpInsert, table, err)
	}
	return a.exec(ctx, OpInsert, table, st)
}

// QueryAll returns a cursor over every row of the table of s.
func (a *Adaptor) QueryAll(ctx context.Context, s schema.Schema) (*Cursor, error) {
	return a.query(ctx, s, nil)
}

// QueryWhere returns a cursor over the rows matching where. The predicate
// parameters are the only bound parameters.
func (a *Adaptor) QueryWhere(ctx context.Context, s schema.Schema, where cond.Cond) (*Cursor, error) {
	if err := checkCond(where, s); err != nil {
		return nil, invalid(OpQuery, s.StorageName(), err)
	}
	return a.query(ctx, s, where)
}

// UpdateWhere sets every field of the rows matching where to values.
// Values are bound before the predicate parameters.
func (a *Adaptor) UpdateWhere(ctx context.Context, s schema.Schema, where cond.Cond, values []ir.Cell) error {
	table := s.StorageName()
	if err := checkCond(where, s); err != nil {
		return invalid(OpUpdate, table, err)
	}
	st, err := a.compiler.Update(table, s.Fields(), values, where)
	if err != nil {
		return invalid(OpUpdate, table, err)
	}
	return a.exec(ctx, OpUpdate, table, st)
}

// DeleteWhere removes the rows matching where.
func (a *Adaptor) DeleteWhere(ctx context.Context, s schema.Schema, where cond.Cond) error {
	table := s.StorageName()
	if err := checkCond(where, s); err != nil {
		return invalid(OpDelete, table, err)
	}
	st, err := a.compiler.Delete(table, where)
	if err != nil {
		return invalid(OpDelete, table, err)
	}
	return a.exec(ctx, OpDelete, table, st)
}

func checkCond(where cond.Cond, s schema.Schema) error {
	if where == nil {
		return ErrNilCond
	}
	return cond.Validate(where, s.Fields())
}

func (a *Adaptor) exec(ctx context.Context, op, table string, st querysql.Statement) (err error) {
	stmt, err := a.prepare(ctx, op, table, st)
	if err != nil {
		return err
	}
	defer func() {
		if ferr := stmt.Finalize(); ferr != nil && err == nil {
			err = statementError(op, table, "finalize", st.SQL, ferr)
		}
	}()

	if err := stmt.Exec(ctx); err != nil {
		return statementError(op, table, "execute", st.SQL, err)
	}
	return nil
}

func (a *Adaptor) query(ctx context.Context, s schema.Schema, where cond.Cond) (*Cursor, error) {
	table := s.StorageName()
	st, err := a.compiler.Select(table, s.Fields(), where)
	if err != nil {
		return nil, invalid(OpQuery, table, err)
	}
	stmt, err := a.prepare(ctx, OpQuery, table, st)
	if err != nil {
		return nil, err
	}
	return newCursor(ctx, a, stmt, OpQuery, table, st.SQL, s.Fields()), nil
}

// prepare prepares st and binds its parameters. On failure the statement
// has already been finalized.
func (a *Adaptor) prepare(ctx context.Context, op, table string, st querysql.Statement) (Stmt, error) {
	a.sweep(ctx)
	a.logger.DebugContext(ctx, "executing statement",
		"op", op,
		"table", table,
		"sql", st.SQL,
		"params", len(st.Params))

	stmt, err := a.driver.Prepare(ctx, st.SQL)
	if err != nil {
		return nil, statementError(op, table, "prepare", st.SQL, err)
	}
	for i, p := range st.Params {
		if err := stmt.Bind(i+1, p); err != nil {
			_ = stmt.Finalize()
			return nil, statementError(op, table, "bind", st.SQL, err)
		}
	}
	return stmt, nil
}
