package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/linmx0130/yoshino/internal/querysql"
	"github.com/linmx0130/yoshino/internal/schemafile"
)

// DDLOptions holds flags for the ddl command.
type DDLOptions struct {
	*RootOptions
	Dialect string
}

// TableDDL is the CREATE statement of one declared table.
type TableDDL struct {
	Name    string `json:"name"`
	Storage string `json:"storage"`
	SQL     string `json:"sql"`
}

// DDLResult holds the statements of a schema file.
type DDLResult struct {
	Dialect string     `json:"dialect"`
	Tables  []TableDDL `json:"tables"`
}

// NewDDLCommand creates the ddl command.
func NewDDLCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DDLOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "ddl <schema-file>",
		Short: "Print CREATE TABLE statements for declared tables",
		Long: `Print the CREATE TABLE IF NOT EXISTS statement of every table declared
in a CUE or YAML schema file.

Examples:
  yoshino ddl shop.cue
  yoshino ddl shop.yaml --dialect mysql --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDDL(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Dialect, "dialect", "sqlite", "SQL dialect (sqlite|mysql)")

	return cmd
}

func runDDL(opts *DDLOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	dialect, err := querysql.DialectByName(opts.Dialect)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err)
	}
	file, err := schemafile.Load(path)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeSchema, err)
	}
	formatter.VerboseLog("Loaded %d table(s) from %s", len(file.Tables), path)

	compiler := querysql.NewCompiler(dialect)
	result := DDLResult{Dialect: dialect.Name(), Tables: make([]TableDDL, 0, len(file.Tables))}
	var text strings.Builder
	for _, t := range file.Tables {
		st, err := compiler.CreateTable(t.Schema.StorageName(), t.Schema.Fields())
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeSchema, err)
		}
		result.Tables = append(result.Tables, TableDDL{Name: t.Name, Storage: t.Schema.StorageName(), SQL: st.SQL})
		text.WriteString(st.SQL)
		text.WriteString("\n")
	}
	return formatter.Success(result, text.String())
}
