package cond

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/linmx0130/yoshino/internal/ir"
)

// Validate checks c against the ordered field list of a table.
//
// Every leaf must name an existing field. Compare requires an integer kind
// (including row identities), TextEqual a text kind. NULL tests are allowed
// on any field. All problems are reported together.
func Validate(c Cond, fields []ir.Field) error {
	kinds := make(map[string]ir.Kind, len(fields))
	for _, f := range fields {
		kinds[f.Name] = f.Kind
	}
	v := &validator{kinds: kinds}
	v.walk(c)
	return v.errs.ErrorOrNil()
}

type validator struct {
	kinds map[string]ir.Kind
	errs  *multierror.Error
}

func (v *validator) fail(format string, args ...any) {
	v.errs = multierror.Append(v.errs, fmt.Errorf(format, args...))
}

func (v *validator) field(name string) (ir.Kind, bool) {
	k, ok := v.kinds[name]
	if !ok {
		v.fail("unknown field %q", name)
	}
	return k, ok
}

func (v *validator) walk(c Cond) {
	switch n := c.(type) {
	case nil:
		v.fail("nil condition")
	case Null:
		v.field(n.Field)
	case *Null:
		v.field(n.Field)
	case NotNull:
		v.field(n.Field)
	case *NotNull:
		v.field(n.Field)
	case Compare:
		v.compare(n)
	case *Compare:
		v.compare(*n)
	case TextEqual:
		v.text(n)
	case *TextEqual:
		v.text(*n)
	case Conj:
		v.walk(n.Left)
		v.walk(n.Right)
	case *Conj:
		v.walk(n.Left)
		v.walk(n.Right)
	case Disj:
		v.walk(n.Left)
		v.walk(n.Right)
	case *Disj:
		v.walk(n.Left)
		v.walk(n.Right)
	case Neg:
		v.walk(n.Inner)
	case *Neg:
		v.walk(n.Inner)
	default:
		v.fail("unsupported condition type %T", c)
	}
}

func (v *validator) compare(n Compare) {
	if n.Op < OpEq || n.Op > OpLte {
		v.fail("field %q: invalid operator %s", n.Field, n.Op)
	}
	if k, ok := v.field(n.Field); ok && !k.Integer() {
		v.fail("field %q: integer comparison on %s field", n.Field, k)
	}
}

func (v *validator) text(n TextEqual) {
	if k, ok := v.field(n.Field); ok && !k.Textual() {
		v.fail("field %q: text comparison on %s field", n.Field, k)
	}
}
