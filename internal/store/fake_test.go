package store

import (
	"context"
	"errors"

	"github.com/linmx0130/yoshino/internal/ir"
)

var (
	errPrepare = errors.New("prepare refused")
	errBind    = errors.New("bind refused")
	errExec    = errors.New("exec refused")
	errStep    = errors.New("step refused")
)

// fakeDriver records every statement it prepares.
type fakeDriver struct {
	prepareErr error
	bindErr    error
	execErr    error
	stepErr    error
	rows       []ir.Row

	stmts  []*fakeStmt
	closed bool
}

func (d *fakeDriver) Prepare(_ context.Context, query string) (Stmt, error) {
	if d.prepareErr != nil {
		return nil, d.prepareErr
	}
	s := &fakeStmt{driver: d, sql: query, params: map[int]ir.Cell{}}
	d.stmts = append(d.stmts, s)
	return s, nil
}

func (d *fakeDriver) Close() error {
	d.closed = true
	return nil
}

func (d *fakeDriver) last() *fakeStmt {
	if len(d.stmts) == 0 {
		return nil
	}
	return d.stmts[len(d.stmts)-1]
}

type fakeStmt struct {
	driver    *fakeDriver
	sql       string
	params    map[int]ir.Cell
	executed  int
	steps     int
	pos       int
	finalized int
}

func (s *fakeStmt) Bind(pos int, c ir.Cell) error {
	if s.driver.bindErr != nil {
		return s.driver.bindErr
	}
	s.params[pos] = c
	return nil
}

func (s *fakeStmt) Exec(context.Context) error {
	s.executed++
	return s.driver.execErr
}

func (s *fakeStmt) Step(context.Context) (bool, error) {
	s.steps++
	if s.driver.stepErr != nil {
		return false, s.driver.stepErr
	}
	if s.pos >= len(s.driver.rows) {
		return false, nil
	}
	s.pos++
	return true, nil
}

func (s *fakeStmt) Column(pos int, kind ir.Kind) (ir.Cell, error) {
	c := s.driver.rows[s.pos-1][pos]
	if c.Kind() != kind {
		return ir.Cell{}, &ir.DecodeError{Want: kind, Got: c.Kind()}
	}
	return c, nil
}

func (s *fakeStmt) Finalize() error {
	s.finalized++
	return nil
}

// bound returns the bound parameters in position order.
func (s *fakeStmt) bound() []ir.Cell {
	out := make([]ir.Cell, len(s.params))
	for pos, c := range s.params {
		out[pos-1] = c
	}
	return out
}
