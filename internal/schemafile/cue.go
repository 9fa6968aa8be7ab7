package schemafile

import (
	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"

	"github.com/linmx0130/yoshino/internal/ir"
)

// ParseCUE parses table declarations from CUE source. filename is used in
// error positions.
func ParseCUE(filename string, src []byte) (*File, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	tablesVal := v.LookupPath(cue.ParsePath("table"))
	if !tablesVal.Exists() {
		return nil, &Error{Message: "missing top-level table struct", Pos: v.Pos()}
	}
	iter, err := tablesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var decls []decl
	for iter.Next() {
		d, err := parseCUETable(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		decls = append(decls, d)
	}
	return build(decls)
}

func parseCUETable(name string, v cue.Value) (decl, error) {
	d := decl{name: name, pos: v.Pos()}

	if sv := v.LookupPath(cue.ParsePath("storage")); sv.Exists() {
		s, err := sv.String()
		if err != nil {
			return decl{}, formatCUEError(err)
		}
		d.storage = s
	}

	fv := v.LookupPath(cue.ParsePath("fields"))
	if !fv.Exists() {
		return decl{}, &Error{Table: name, Message: "fields is required", Pos: v.Pos()}
	}
	list, err := fv.List()
	if err != nil {
		return decl{}, formatCUEError(err)
	}
	for list.Next() {
		f, err := parseCUEField(name, list.Value())
		if err != nil {
			return decl{}, err
		}
		d.fields = append(d.fields, f)
	}
	return d, nil
}

func parseCUEField(table string, v cue.Value) (ir.Field, error) {
	name, err := v.LookupPath(cue.ParsePath("name")).String()
	if err != nil {
		return ir.Field{}, &Error{Table: table, Message: "field name must be a string", Pos: v.Pos()}
	}
	kindStr, err := v.LookupPath(cue.ParsePath("kind")).String()
	if err != nil {
		return ir.Field{}, &Error{Table: table, Message: "field " + name + ": kind must be a string", Pos: v.Pos()}
	}
	kind, err := ir.ParseKind(kindStr)
	if err != nil {
		return ir.Field{}, &Error{Table: table, Message: "field " + name + ": " + err.Error(), Pos: v.Pos()}
	}
	return ir.Field{Name: name, Kind: kind}, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &Error{Message: first.Error(), Pos: positions[0]}
	}
	return err
}
