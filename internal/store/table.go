package store

import (
	"context"
	"iter"

	"github.com/linmx0130/yoshino/internal/cond"
	"github.com/linmx0130/yoshino/internal/schema"
)

// Table binds an adaptor to the descriptor of record type T.
type Table[T any] struct {
	adaptor *Adaptor
	schema  *schema.Descriptor[T]
}

// NewTable returns the typed view of d's table on a.
func NewTable[T any](a *Adaptor, d *schema.Descriptor[T]) *Table[T] {
	return &Table[T]{adaptor: a, schema: d}
}

// Schema returns the descriptor of T.
func (t *Table[T]) Schema() *schema.Descriptor[T] {
	return t.schema
}

// CreateTable creates the table if it does not exist.
func (t *Table[T]) CreateTable(ctx context.Context) error {
	return t.adaptor.CreateTable(ctx, t.schema)
}

// Insert stores r. The assigned row identity is not read back.
func (t *Table[T]) Insert(ctx context.Context, r T) error {
	return t.adaptor.Insert(ctx, t.schema, t.schema.Values(r))
}

// QueryAll returns every record.
func (t *Table[T]) QueryAll(ctx context.Context) (*Rows[T], error) {
	cur, err := t.adaptor.QueryAll(ctx, t.schema)
	if err != nil {
		return nil, err
	}
	return &Rows[T]{cur: cur, schema: t.schema}, nil
}

// QueryWhere returns the records matching where.
func (t *Table[T]) QueryWhere(ctx context.Context, where cond.Cond) (*Rows[T], error) {
	cur, err := t.adaptor.QueryWhere(ctx, t.schema, where)
	if err != nil {
		return nil, err
	}
	return &Rows[T]{cur: cur, schema: t.schema}, nil
}

// UpdateWhere overwrites every field of the matching rows with r.
func (t *Table[T]) UpdateWhere(ctx context.Context, where cond.Cond, r T) error {
	return t.adaptor.UpdateWhere(ctx, t.schema, where, t.schema.Values(r))
}

// DeleteWhere removes the matching rows.
func (t *Table[T]) DeleteWhere(ctx context.Context, where cond.Cond) error {
	return t.adaptor.DeleteWhere(ctx, t.schema, where)
}

// Update overwrites the stored row with the row identity of r.
// It returns ErrNoRowID, without touching the backend, when r has no
// assigned identity.
func (t *Table[T]) Update(ctx context.Context, r T) error {
	where, ok := t.schema.RowIDCond(r)
	if !ok {
		return invalid(OpUpdate, t.schema.StorageName(), ErrNoRowID)
	}
	return t.UpdateWhere(ctx, where, r)
}

// Delete removes the stored row with the row identity of r.
func (t *Table[T]) Delete(ctx context.Context, r T) error {
	where, ok := t.schema.RowIDCond(r)
	if !ok {
		return invalid(OpDelete, t.schema.StorageName(), ErrNoRowID)
	}
	return t.DeleteWhere(ctx, where)
}

// Rows decodes the rows of a cursor into records of type T.
type Rows[T any] struct {
	cur    *Cursor
	schema *schema.Descriptor[T]
	rec    T
	err    error
}

// Next advances to the next record.
func (r *Rows[T]) Next() bool {
	if r.err != nil || !r.cur.Next() {
		return false
	}
	rec, err := r.schema.FromValues(r.cur.Row())
	if err != nil {
		r.err = decodeError(r.cur.op, r.cur.table, r.cur.sql, err)
		_ = r.cur.Close()
		return false
	}
	r.rec = rec
	return true
}

// Record returns the current record.
func (r *Rows[T]) Record() T {
	return r.rec
}

// Err returns the error that ended iteration, if any.
func (r *Rows[T]) Err() error {
	if r.err != nil {
		return r.err
	}
	return r.cur.Err()
}

// Close releases the underlying statement.
func (r *Rows[T]) Close() error {
	return r.cur.Close()
}

// All returns an iterator over the remaining records. A final pair with a
// non-nil error reports a failure. The statement is released when the loop
// ends, including on break.
func (r *Rows[T]) All() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		defer r.Close()
		for r.Next() {
			if !yield(r.rec, nil) {
				return
			}
		}
		if err := r.Err(); err != nil {
			var zero T
			yield(zero, err)
		}
	}
}

// Collect reads every remaining record and releases the statement.
func (r *Rows[T]) Collect() ([]T, error) {
	defer r.Close()
	var out []T
	for r.Next() {
		out = append(out, r.rec)
	}
	return out, r.Err()
}
