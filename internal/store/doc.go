// Package store runs records through a relational backend.
//
// The Adaptor executes the six persistence operations (create table,
// insert, query all, query where, update where, delete where) by compiling
// a statement with querysql and driving it through the native boundary:
// prepare, bind, execute or step, finalize. Every statement is finalized
// exactly once on every path, including failures.
//
// Queries return a Cursor, a lazy single-pass iterator that decodes one row
// per step. Table wraps an Adaptor with a schema.Descriptor and yields typed
// records through Rows.
//
// # Backends
//
// Driver and Stmt are the native boundary. SQLDriver adapts any
// database/sql handle to it; store/sqlite and store/mysql open configured
// connections. Statement logging goes through slog.
//
// # Errors
//
// All operation failures are *Error values carrying a code:
//
//   - CONNECTION_FAILED: the backend could not be opened
//   - STATEMENT_FAILED: prepare, bind, execute or step was rejected
//   - DECODE_MISMATCH: a result column did not fit its field
//   - INVALID_ARGUMENT: bad input caught before reaching the backend
package store
