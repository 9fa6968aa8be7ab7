package querysql

import (
	"errors"
	"fmt"
	"strings"

	"github.com/linmx0130/yoshino/internal/cond"
	"github.com/linmx0130/yoshino/internal/ir"
)

// ErrValueMismatch is wrapped when statement values do not fit the field
// list they are bound against.
var ErrValueMismatch = errors.New("value does not match field")

// Statement is parameterized SQL plus its parameters in placeholder order.
type Statement struct {
	SQL    string
	Params []ir.Cell
}

// Compiler builds statements for one dialect.
//
// CRITICAL: values are never interpolated into SQL text. Every literal is a
// placeholder and Params lists the values in placeholder order.
type Compiler struct {
	dialect Dialect
}

// NewCompiler creates a compiler for d.
func NewCompiler(d Dialect) *Compiler {
	return &Compiler{dialect: d}
}

// Dialect returns the dialect the compiler targets.
func (c *Compiler) Dialect() Dialect {
	return c.dialect
}

// CreateTable returns CREATE TABLE IF NOT EXISTS for the field list.
func (c *Compiler) CreateTable(table string, fields []ir.Field) (Statement, error) {
	if len(fields) == 0 {
		return Statement{}, fmt.Errorf("create table %s: no fields", table)
	}
	columns := make([]string, len(fields))
	for i, f := range fields {
		typ, err := c.dialect.ColumnType(f.Kind)
		if err != nil {
			return Statement{}, fmt.Errorf("create table %s: field %q: %w", table, f.Name, err)
		}
		columns[i] = f.Name + " " + typ
	}
	sql := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s);", table, strings.Join(columns, ", "))
	return Statement{SQL: sql}, nil
}

// Insert returns the INSERT of one row. values follow field order.
func (c *Compiler) Insert(table string, fields []ir.Field, values []ir.Cell) (Statement, error) {
	if err := checkValues(fields, values); err != nil {
		return Statement{}, fmt.Errorf("insert into %s: %w", table, err)
	}
	placeholders := make([]string, len(fields))
	for i := range fields {
		placeholders[i] = c.dialect.Placeholder(i + 1)
	}
	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s);",
		table, columnList(fields), strings.Join(placeholders, ", "))
	return Statement{SQL: sql, Params: cloneCells(values)}, nil
}

// Select returns the SELECT of every field, filtered by where when it is
// not nil.
func (c *Compiler) Select(table string, fields []ir.Field, where cond.Cond) (Statement, error) {
	if len(fields) == 0 {
		return Statement{}, fmt.Errorf("select from %s: no fields", table)
	}
	whereSQL, params, err := c.where(where)
	if err != nil {
		return Statement{}, fmt.Errorf("select from %s: %w", table, err)
	}
	sql := fmt.Sprintf("SELECT %s FROM %s%s;", columnList(fields), table, whereSQL)
	return Statement{SQL: sql, Params: params}, nil
}

// Update returns the UPDATE setting every field to values.
//
// Params are the record values in field order followed by the predicate
// parameters, matching the order of the placeholders in the SQL text.
func (c *Compiler) Update(table string, fields []ir.Field, values []ir.Cell, where cond.Cond) (Statement, error) {
	if err := checkValues(fields, values); err != nil {
		return Statement{}, fmt.Errorf("update %s: %w", table, err)
	}
	assignments := make([]string, len(fields))
	for i, f := range fields {
		assignments[i] = f.Name + "=" + c.dialect.Placeholder(i+1)
	}
	whereSQL, whereParams, err := c.where(where)
	if err != nil {
		return Statement{}, fmt.Errorf("update %s: %w", table, err)
	}
	params := make([]ir.Cell, 0, len(values)+len(whereParams))
	params = append(params, cloneCells(values)...)
	params = append(params, whereParams...)

	sql := fmt.Sprintf("UPDATE %s SET %s%s;", table, strings.Join(assignments, ", "), whereSQL)
	return Statement{SQL: sql, Params: params}, nil
}

// Delete returns the DELETE of the rows matching where.
func (c *Compiler) Delete(table string, where cond.Cond) (Statement, error) {
	whereSQL, params, err := c.where(where)
	if err != nil {
		return Statement{}, fmt.Errorf("delete from %s: %w", table, err)
	}
	return Statement{SQL: fmt.Sprintf("DELETE FROM %s%s;", table, whereSQL), Params: params}, nil
}

func (c *Compiler) where(where cond.Cond) (string, []ir.Cell, error) {
	if where == nil {
		return "", nil, nil
	}
	sql, params, err := c.Cond(where)
	if err != nil {
		return "", nil, fmt.Errorf("compile condition: %w", err)
	}
	return " WHERE " + sql, params, nil
}

// Cond compiles a condition to a SQL fragment and its parameters.
// Returns (sql, params, error) tuple.
//
// Leaves render as the dialect's comparison with one placeholder and append
// their literal to params; And and Or parenthesize both sides; Not renders
// NOT (...). Parameters are appended in left-to-right tree order, which is
// the order their placeholders appear in the fragment.
func (c *Compiler) Cond(where cond.Cond) (string, []ir.Cell, error) {
	if where == nil {
		return "", nil, fmt.Errorf("cannot compile nil condition")
	}

	switch n := where.(type) {
	case cond.Null:
		return n.Field + " IS NULL", nil, nil
	case *cond.Null:
		return n.Field + " IS NULL", nil, nil
	case cond.NotNull:
		return n.Field + " IS NOT NULL", nil, nil
	case *cond.NotNull:
		return n.Field + " IS NOT NULL", nil, nil
	case cond.Compare:
		return c.compileCompare(n)
	case *cond.Compare:
		return c.compileCompare(*n)
	case cond.TextEqual:
		return c.dialect.Compare(n.Field, cond.OpEq), []ir.Cell{ir.Text(n.Value)}, nil
	case *cond.TextEqual:
		return c.dialect.Compare(n.Field, cond.OpEq), []ir.Cell{ir.Text(n.Value)}, nil
	case cond.Conj:
		return c.compileBinary(n.Left, n.Right, " AND ")
	case *cond.Conj:
		return c.compileBinary(n.Left, n.Right, " AND ")
	case cond.Disj:
		return c.compileBinary(n.Left, n.Right, " OR ")
	case *cond.Disj:
		return c.compileBinary(n.Left, n.Right, " OR ")
	case cond.Neg:
		return c.compileNot(n.Inner)
	case *cond.Neg:
		return c.compileNot(n.Inner)
	default:
		return "", nil, fmt.Errorf("unsupported condition type: %T", where)
	}
}

func (c *Compiler) compileCompare(n cond.Compare) (string, []ir.Cell, error) {
	if n.Op < cond.OpEq || n.Op > cond.OpLte {
		return "", nil, fmt.Errorf("field %q: invalid operator %s", n.Field, n.Op)
	}
	return c.dialect.Compare(n.Field, n.Op), []ir.Cell{ir.Int64(n.Value)}, nil
}

func (c *Compiler) compileBinary(left, right cond.Cond, joiner string) (string, []ir.Cell, error) {
	leftSQL, leftParams, err := c.Cond(left)
	if err != nil {
		return "", nil, err
	}
	rightSQL, rightParams, err := c.Cond(right)
	if err != nil {
		return "", nil, err
	}
	params := make([]ir.Cell, 0, len(leftParams)+len(rightParams))
	params = append(params, leftParams...)
	params = append(params, rightParams...)
	return "(" + leftSQL + ")" + joiner + "(" + rightSQL + ")", params, nil
}

func (c *Compiler) compileNot(inner cond.Cond) (string, []ir.Cell, error) {
	sql, params, err := c.Cond(inner)
	if err != nil {
		return "", nil, err
	}
	return "NOT (" + sql + ")", params, nil
}

// checkValues verifies one value per field with matching kinds and no
// absent value in a non-nullable field.
func checkValues(fields []ir.Field, values []ir.Cell) error {
	if len(fields) == 0 {
		return fmt.Errorf("no fields")
	}
	if len(values) != len(fields) {
		return fmt.Errorf("%w: want %d values, got %d", ErrValueMismatch, len(fields), len(values))
	}
	for i, f := range fields {
		v := values[i]
		if v.Kind() != f.Kind {
			return fmt.Errorf("%w: field %q wants %s, got %s", ErrValueMismatch, f.Name, f.Kind, v.Kind())
		}
		if v.IsNull() && !f.Kind.Nullable() {
			return fmt.Errorf("%w: field %q is %s and cannot be null", ErrValueMismatch, f.Name, f.Kind)
		}
	}
	return nil
}

func columnList(fields []ir.Field) string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return strings.Join(names, ", ")
}

func cloneCells(cells []ir.Cell) []ir.Cell {
	return append([]ir.Cell(nil), cells...)
}
