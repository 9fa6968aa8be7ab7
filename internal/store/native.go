package store

import (
	"context"

	"github.com/linmx0130/yoshino/internal/ir"
)

// Driver is the native client boundary a backend supplies: one open
// connection able to prepare statements.
//
// A Driver is used by one goroutine at a time.
type Driver interface {
	// Prepare compiles one SQL statement.
	Prepare(ctx context.Context, query string) (Stmt, error)

	// Close releases the connection.
	Close() error
}

// Stmt is a prepared statement owned by the caller until Finalize.
type Stmt interface {
	// Bind sets the value of the pos-th (1-based) parameter. Absent cells
	// bind NULL.
	Bind(pos int, c ir.Cell) error

	// Exec runs a statement that returns no rows.
	Exec(ctx context.Context) error

	// Step advances to the next result row. It reports false when no rows
	// remain.
	Step(ctx context.Context) (bool, error)

	// Column reads the pos-th (0-based) column of the current row as kind.
	// A NULL column yields an absent cell for nullable kinds and an error
	// otherwise.
	Column(pos int, kind ir.Kind) (ir.Cell, error)

	// Finalize releases the statement. It is safe to call more than once.
	Finalize() error
}
