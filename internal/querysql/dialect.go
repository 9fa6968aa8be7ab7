package querysql

import (
	"fmt"
	"strconv"

	"github.com/linmx0130/yoshino/internal/cond"
	"github.com/linmx0130/yoshino/internal/ir"
)

// Dialect holds the backend-specific tokens of the generated SQL.
type Dialect interface {
	// Name identifies the dialect in configuration and logs.
	Name() string

	// ColumnType returns the column definition of a storage kind.
	ColumnType(kind ir.Kind) (string, error)

	// Placeholder returns the marker bound to the n-th (1-based) value of
	// the column list of an INSERT or UPDATE.
	Placeholder(n int) string

	// Compare renders a parameterized comparison of field with one value.
	Compare(field string, op cond.Op) string
}

// Dialects by name.
var (
	SQLite Dialect = sqliteDialect{}
	MySQL  Dialect = mysqlDialect{}
)

// DialectByName returns the dialect called name.
func DialectByName(name string) (Dialect, error) {
	switch name {
	case SQLite.Name():
		return SQLite, nil
	case MySQL.Name():
		return MySQL, nil
	default:
		return nil, fmt.Errorf("unknown dialect %q", name)
	}
}

var opTokens = [...]string{
	cond.OpEq:  "=",
	cond.OpNeq: "<>",
	cond.OpGt:  ">",
	cond.OpGte: ">=",
	cond.OpLt:  "<",
	cond.OpLte: "<=",
}

func opToken(op cond.Op) string {
	if op < cond.OpEq || op > cond.OpLte {
		return "?op?"
	}
	return opTokens[op]
}

// sqliteDialect numbers column-list placeholders (?1, ?2, ...) and leaves
// predicate placeholders anonymous; SQLite numbers an anonymous ? one past
// the largest index used before it, so UPDATE predicates bind after the SET
// values.
type sqliteDialect struct{}

func (sqliteDialect) Name() string { return "sqlite" }

func (sqliteDialect) ColumnType(kind ir.Kind) (string, error) {
	switch kind {
	case ir.KindText:
		return "TEXT NOT NULL", nil
	case ir.KindNullableText:
		return "TEXT", nil
	case ir.KindInt64:
		return "INTEGER NOT NULL", nil
	case ir.KindNullableInt64:
		return "INTEGER", nil
	case ir.KindFloat64:
		return "REAL NOT NULL", nil
	case ir.KindBinary:
		return "BLOB NOT NULL", nil
	case ir.KindNullableBinary:
		return "BLOB", nil
	case ir.KindRowID:
		return "INTEGER PRIMARY KEY", nil
	default:
		return "", fmt.Errorf("sqlite: unsupported storage kind %s", kind)
	}
}

func (sqliteDialect) Placeholder(n int) string {
	return "?" + strconv.Itoa(n)
}

func (sqliteDialect) Compare(field string, op cond.Op) string {
	return field + opToken(op) + "?"
}

// mysqlDialect uses anonymous placeholders throughout.
type mysqlDialect struct{}

func (mysqlDialect) Name() string { return "mysql" }

func (mysqlDialect) ColumnType(kind ir.Kind) (string, error) {
	switch kind {
	case ir.KindText:
		return "TEXT NOT NULL", nil
	case ir.KindNullableText:
		return "TEXT", nil
	case ir.KindInt64:
		return "BIGINT NOT NULL", nil
	case ir.KindNullableInt64:
		return "BIGINT", nil
	case ir.KindFloat64:
		return "DOUBLE NOT NULL", nil
	case ir.KindBinary:
		return "BLOB NOT NULL", nil
	case ir.KindNullableBinary:
		return "BLOB", nil
	case ir.KindRowID:
		return "BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY", nil
	default:
		return "", fmt.Errorf("mysql: unsupported storage kind %s", kind)
	}
}

func (mysqlDialect) Placeholder(int) string {
	return "?"
}

func (mysqlDialect) Compare(field string, op cond.Op) string {
	return field + " " + opToken(op) + " ?"
}
