package mysql

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"sync"
)

// recorderDriverName is a database/sql driver that records every statement
// instead of talking to a server.
const recorderDriverName = "yoshino_mysql_recorder"

func init() {
	sql.Register(recorderDriverName, recorder)
}

var recorder = &recorderDriver{}

type execCall struct {
	SQL  string
	Args []driver.Value
}

type recorderDriver struct {
	mu    sync.Mutex
	execs []execCall
	rows  [][]driver.Value
	cols  []string
}

func (d *recorderDriver) reset(cols []string, rows [][]driver.Value) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.execs = nil
	d.cols = cols
	d.rows = rows
}

func (d *recorderDriver) calls() []execCall {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]execCall(nil), d.execs...)
}

func (d *recorderDriver) Open(string) (driver.Conn, error) {
	return &recorderConn{d: d}, nil
}

type recorderConn struct {
	d *recorderDriver
}

func (c *recorderConn) Prepare(query string) (driver.Stmt, error) {
	return &recorderStmt{d: c.d, query: query}, nil
}

func (c *recorderConn) Close() error { return nil }

func (c *recorderConn) Begin() (driver.Tx, error) {
	return nil, errors.New("transactions not supported")
}

type recorderStmt struct {
	d     *recorderDriver
	query string
}

func (s *recorderStmt) Close() error { return nil }

func (s *recorderStmt) NumInput() int { return -1 }

func (s *recorderStmt) Exec(args []driver.Value) (driver.Result, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	s.d.execs = append(s.d.execs, execCall{SQL: s.query, Args: append([]driver.Value(nil), args...)})
	return driver.RowsAffected(1), nil
}

func (s *recorderStmt) Query(args []driver.Value) (driver.Rows, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	s.d.execs = append(s.d.execs, execCall{SQL: s.query, Args: append([]driver.Value(nil), args...)})
	return &recorderRows{cols: s.d.cols, rows: s.d.rows}, nil
}

type recorderRows struct {
	cols []string
	rows [][]driver.Value
	pos  int
}

func (r *recorderRows) Columns() []string { return r.cols }

func (r *recorderRows) Close() error { return nil }

func (r *recorderRows) Next(dest []driver.Value) error {
	if r.pos >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.pos])
	r.pos++
	return nil
}
