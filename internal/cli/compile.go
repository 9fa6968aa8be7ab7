package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/linmx0130/yoshino/internal/ir"
	"github.com/linmx0130/yoshino/internal/querysql"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Dialect string
	Op      string // "select" | "delete"
	Where   string // YAML condition
}

// CompileResult is a compiled statement.
type CompileResult struct {
	SQL    string    `json:"sql"`
	Params []ir.Cell `json:"params"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <schema-file> <table>",
		Short: "Compile a condition to a parameterized statement",
		Long: `Compile a SELECT or DELETE over a declared table, with an optional
YAML condition, and print the SQL and its parameters without touching a
database.

Examples:
  yoshino compile shop.cue counter --where '{or: [{is_null: stock}, {eq: {field: stock, value: 20}}]}'
  yoshino compile shop.cue counter --op delete --where '{lte: {field: stock, value: 0}}' --dialect mysql`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Dialect, "dialect", "sqlite", "SQL dialect (sqlite|mysql)")
	cmd.Flags().StringVar(&opts.Op, "op", "select", "statement to compile (select|delete)")
	cmd.Flags().StringVarP(&opts.Where, "where", "w", "", "condition in YAML form")

	return cmd
}

func runCompile(opts *CompileOptions, path, tableName string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	dialect, err := querysql.DialectByName(opts.Dialect)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err)
	}
	table, code, err := loadTable(path, tableName)
	if err != nil {
		return formatter.Fail(ExitCommandError, code, err)
	}
	where, err := parseWhere(opts.Where, table)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeWhere, err)
	}

	compiler := querysql.NewCompiler(dialect)
	var st querysql.Statement
	switch opts.Op {
	case "select":
		st, err = compiler.Select(table.Schema.StorageName(), table.Schema.Fields(), where)
	case "delete":
		if where == nil {
			return formatter.Fail(ExitCommandError, ErrCodeWhere, fmt.Errorf("delete requires --where"))
		}
		st, err = compiler.Delete(table.Schema.StorageName(), where)
	default:
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, fmt.Errorf("unknown op %q: must be select or delete", opts.Op))
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeWhere, err)
	}

	params := st.Params
	if params == nil {
		params = []ir.Cell{}
	}
	return formatter.Success(CompileResult{SQL: st.SQL, Params: params}, formatStatement(st))
}

func formatStatement(st querysql.Statement) string {
	var b strings.Builder
	b.WriteString(st.SQL)
	b.WriteString("\n")
	if len(st.Params) > 0 {
		parts := make([]string, len(st.Params))
		for i, p := range st.Params {
			parts[i] = p.String()
		}
		fmt.Fprintf(&b, "-- params: [%s]\n", strings.Join(parts, " "))
	}
	return b.String()
}
