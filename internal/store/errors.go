package store

import "errors"

// Error represents a failure of an adaptor operation.
//
// Error includes structured fields for diagnostics. The backend's own
// message is kept in Err.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Op is the adaptor operation (create_table, insert, query, update,
	// delete, connect).
	Op string

	// Phase is the statement step that failed (prepare, bind, execute,
	// step, column, finalize). Empty for connection errors.
	Phase string

	// Table is the storage name involved, if any.
	Table string

	// SQL is the statement text, if one was built.
	SQL string

	// Err is the underlying error.
	Err error
}

// ErrorCode categorizes adaptor errors.
type ErrorCode string

const (
	// ErrCodeConnection indicates the backend could not be reached.
	ErrCodeConnection ErrorCode = "CONNECTION_FAILED"

	// ErrCodeStatement indicates the backend rejected a statement.
	ErrCodeStatement ErrorCode = "STATEMENT_FAILED"

	// ErrCodeDecode indicates a result column did not fit its field.
	ErrCodeDecode ErrorCode = "DECODE_MISMATCH"

	// ErrCodeInvalid indicates bad input caught before reaching the backend.
	ErrCodeInvalid ErrorCode = "INVALID_ARGUMENT"
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := string(e.Code) + ": " + e.Op
	if e.Table != "" {
		msg += " " + e.Table
	}
	if e.Phase != "" {
		msg += ": " + e.Phase
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// ConnectionError wraps a failure to open a backend connection.
func ConnectionError(backend string, err error) *Error {
	return &Error{Code: ErrCodeConnection, Op: "connect", Table: backend, Err: err}
}

func hasCode(err error, code ErrorCode) bool {
	var se *Error
	return errors.As(err, &se) && se.Code == code
}

// IsConnectionError returns true if err is a connection failure.
func IsConnectionError(err error) bool { return hasCode(err, ErrCodeConnection) }

// IsStatementError returns true if err is a statement failure.
func IsStatementError(err error) bool { return hasCode(err, ErrCodeStatement) }

// IsDecodeError returns true if err is a decode mismatch.
func IsDecodeError(err error) bool { return hasCode(err, ErrCodeDecode) }

// IsInvalidError returns true if err was caught before reaching the backend.
func IsInvalidError(err error) bool { return hasCode(err, ErrCodeInvalid) }

// ErrNilCond is returned by update and delete without a condition.
var ErrNilCond = errors.New("condition is required")

// ErrNoRowID is returned by Table.Update for records without an assigned
// row identity.
var ErrNoRowID = errors.New("record has no assigned row identity")

func invalid(op, table string, err error) *Error {
	return &Error{Code: ErrCodeInvalid, Op: op, Table: table, Err: err}
}

func statementError(op, table, phase, sql string, err error) *Error {
	return &Error{Code: ErrCodeStatement, Op: op, Table: table, Phase: phase, SQL: sql, Err: err}
}

func decodeError(op, table, sql string, err error) *Error {
	return &Error{Code: ErrCodeDecode, Op: op, Table: table, Phase: "column", SQL: sql, Err: err}
}
