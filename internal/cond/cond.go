package cond

import (
	"fmt"

	"github.com/linmx0130/yoshino/internal/ir"
)

// Cond is a boolean condition over the fields of one table.
//
// This is a sealed interface - only types in this package implement it.
// The marker method prevents external implementations and enables
// exhaustive type switches in backend compilers.
//
// Node types:
//   - Null, NotNull: field IS [NOT] NULL
//   - Compare: integer field compared with a literal
//   - TextEqual: text field equal to a literal
//   - Conj, Disj, Neg: and, or, not
type Cond interface {
	condNode()
}

// Op is an integer comparison operator.
type Op uint8

const (
	OpEq Op = iota + 1
	OpNeq
	OpGt
	OpGte
	OpLt
	OpLte
)

var opNames = [...]string{
	OpEq:  "eq",
	OpNeq: "neq",
	OpGt:  "gt",
	OpGte: "gte",
	OpLt:  "lt",
	OpLte: "lte",
}

// String returns the short operator name used in condition files.
func (o Op) String() string {
	if o < OpEq || o > OpLte {
		return fmt.Sprintf("op(%d)", uint8(o))
	}
	return opNames[o]
}

// Null matches rows where Field is NULL.
type Null struct {
	Field string
}

func (Null) condNode() {}

// NotNull matches rows where Field is not NULL.
type NotNull struct {
	Field string
}

func (NotNull) condNode() {}

// Compare matches rows where the integer Field compares to Value with Op.
type Compare struct {
	Field string
	Op    Op
	Value int64
}

func (Compare) condNode() {}

// TextEqual matches rows where the text Field equals Value.
type TextEqual struct {
	Field string
	Value string
}

func (TextEqual) condNode() {}

// Conj matches rows matching both Left and Right.
type Conj struct {
	Left, Right Cond
}

func (Conj) condNode() {}

// Disj matches rows matching Left or Right.
type Disj struct {
	Left, Right Cond
}

func (Disj) condNode() {}

// Neg matches rows not matching Inner.
type Neg struct {
	Inner Cond
}

func (Neg) condNode() {}

// IsNull returns field IS NULL.
func IsNull(field string) Cond { return Null{Field: field} }

// IsNotNull returns field IS NOT NULL.
func IsNotNull(field string) Cond { return NotNull{Field: field} }

// Eq returns field = v.
func Eq(field string, v int64) Cond { return Compare{Field: field, Op: OpEq, Value: v} }

// Neq returns field <> v.
func Neq(field string, v int64) Cond { return Compare{Field: field, Op: OpNeq, Value: v} }

// Gt returns field > v.
func Gt(field string, v int64) Cond { return Compare{Field: field, Op: OpGt, Value: v} }

// Gte returns field >= v.
func Gte(field string, v int64) Cond { return Compare{Field: field, Op: OpGte, Value: v} }

// Lt returns field < v.
func Lt(field string, v int64) Cond { return Compare{Field: field, Op: OpLt, Value: v} }

// Lte returns field <= v.
func Lte(field string, v int64) Cond { return Compare{Field: field, Op: OpLte, Value: v} }

// TextEq returns field = s for a text field.
func TextEq(field, s string) Cond { return TextEqual{Field: field, Value: s} }

// And returns left AND right.
func And(left, right Cond) Cond { return Conj{Left: left, Right: right} }

// Or returns left OR right.
func Or(left, right Cond) Cond { return Disj{Left: left, Right: right} }

// Not returns NOT c.
func Not(c Cond) Cond { return Neg{Inner: c} }

// All folds conds into a left-nested conjunction. It returns nil for no
// conditions and the condition itself for one.
func All(conds ...Cond) Cond {
	return fold(conds, And)
}

// Any folds conds into a left-nested disjunction.
func Any(conds ...Cond) Cond {
	return fold(conds, Or)
}

func fold(conds []Cond, join func(Cond, Cond) Cond) Cond {
	if len(conds) == 0 {
		return nil
	}
	acc := conds[0]
	for _, c := range conds[1:] {
		acc = join(acc, c)
	}
	return acc
}

// RowIDEquals returns field = id for an assigned row identity. It reports
// false for a New identity, which matches no stored row.
func RowIDEquals(field string, id ir.RowID) (Cond, bool) {
	n, ok := id.Get()
	if !ok {
		return nil, false
	}
	return Eq(field, n), true
}
