package store

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"

	"github.com/linmx0130/yoshino/internal/ir"
)

// ErrAdaptorClosed is reported by a cursor whose adaptor was closed while
// the cursor was still open.
var ErrAdaptorClosed = errors.New("adaptor closed")

// openStmt is a cursor statement tracked by its adaptor until finalized.
//
// abandoned is the only field touched outside the caller's goroutine: the
// garbage collector sets it for a cursor dropped without Close, and the
// adaptor finalizes the statement on its next operation or on Close.
type openStmt struct {
	stmt      Stmt
	finalized bool
	abandoned atomic.Bool
}

// Cursor is a lazy, single-pass iterator over the rows of a query.
//
// The cursor owns its backend statement. The statement is finalized when
// Next reports false, when Close is called, or when the adaptor is closed.
// A cursor dropped without either is finalized by the adaptor's next
// operation once the cursor has been garbage collected.
type Cursor struct {
	ctx     context.Context
	adaptor *Adaptor
	open    *openStmt
	op      string
	table   string
	sql     string
	fields  []ir.Field
	row     ir.Row
	err     error
	done    bool
	cleanup runtime.Cleanup
}

func newCursor(ctx context.Context, a *Adaptor, stmt Stmt, op, table, sql string, fields []ir.Field) *Cursor {
	open := a.track(stmt)
	c := &Cursor{
		ctx:     ctx,
		adaptor: a,
		open:    open,
		op:      op,
		table:   table,
		sql:     sql,
		fields:  fields,
	}
	c.cleanup = runtime.AddCleanup(c, markAbandoned, open)
	return c
}

func markAbandoned(open *openStmt) {
	open.abandoned.Store(true)
}

// Fields returns the field list the rows follow.
func (c *Cursor) Fields() []ir.Field {
	return c.fields
}

// Next steps the backend cursor once and decodes the row, one cell per
// field. It returns false at the end of the rows or on error; the
// statement is released in both cases.
func (c *Cursor) Next() bool {
	if c.done {
		return false
	}
	if c.open.finalized {
		c.done = true
		c.row = nil
		c.cleanup.Stop()
		c.err = statementError(c.op, c.table, "step", c.sql, ErrAdaptorClosed)
		return false
	}
	ok, err := c.open.stmt.Step(c.ctx)
	if err != nil {
		c.fail(statementError(c.op, c.table, "step", c.sql, err))
		return false
	}
	if !ok {
		if err := c.release(); err != nil {
			c.err = err
		}
		return false
	}

	row := make(ir.Row, len(c.fields))
	for i, f := range c.fields {
		cell, err := c.open.stmt.Column(i, f.Kind)
		if err != nil {
			c.fail(decodeError(c.op, c.table, c.sql, ir.WithField(err, f.Name)))
			return false
		}
		row[i] = cell
	}
	c.row = row
	return true
}

// Row returns the current row. It is valid until the next call to Next.
func (c *Cursor) Row() ir.Row {
	return c.row
}

// Err returns the error that ended iteration, if any.
func (c *Cursor) Err() error {
	return c.err
}

// Close releases the statement. Closing an exhausted cursor is a no-op.
func (c *Cursor) Close() error {
	if c.done {
		return nil
	}
	return c.release()
}

func (c *Cursor) fail(err error) {
	c.err = err
	_ = c.release()
}

func (c *Cursor) release() error {
	if c.done {
		return nil
	}
	c.done = true
	c.row = nil
	c.cleanup.Stop()
	if err := c.adaptor.finalize(c.open); err != nil {
		return statementError(c.op, c.table, "finalize", c.sql, err)
	}
	return nil
}
