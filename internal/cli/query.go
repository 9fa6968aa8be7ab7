package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/linmx0130/yoshino/internal/backend"
	"github.com/linmx0130/yoshino/internal/cond"
	"github.com/linmx0130/yoshino/internal/ir"
	"github.com/linmx0130/yoshino/internal/schemafile"
	"github.com/linmx0130/yoshino/internal/store"
	"github.com/linmx0130/yoshino/internal/store/sqlite"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Where  string // YAML condition
	DB     string // SQLite database path, overrides --config
	Engine string // SQLite engine
	Create bool   // create the table before querying
}

// QueryResult holds the rows returned by the query command.
type QueryResult struct {
	Table  string               `json:"table"`
	Fields []ir.Field           `json:"fields"`
	Rows   []map[string]ir.Cell `json:"rows"`
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <schema-file> <table>",
		Short: "Query a declared table on a backend",
		Long: `Run a SELECT over a declared table and print the matching rows.

The backend comes from --config. --db opens the given SQLite database
instead.

Examples:
  yoshino query shop.cue counter --db shop.db
  yoshino query shop.cue counter --db shop.db --where '{is_null: stock}'
  yoshino query shop.cue counter --config backend.yaml --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd.Context(), opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Where, "where", "w", "", "condition in YAML form")
	cmd.Flags().StringVar(&opts.DB, "db", "", "SQLite database path")
	cmd.Flags().StringVar(&opts.Engine, "engine", "", "SQLite engine (mattn|modernc|zombiezen)")
	cmd.Flags().BoolVar(&opts.Create, "create", false, "create the table if it does not exist")

	return cmd
}

func runQuery(ctx context.Context, opts *QueryOptions, path, tableName string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := opts.formatter(cmd)

	table, code, err := loadTable(path, tableName)
	if err != nil {
		return formatter.Fail(ExitCommandError, code, err)
	}
	where, err := parseWhere(opts.Where, table)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeWhere, err)
	}
	cfg, err := opts.backendConfig()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, err)
	}

	adaptor, err := backend.Open(ctx, cfg, opts.logger())
	if err != nil {
		return formatter.Fail(ExitFailure, errorCode(err, ErrCodeGeneric), err)
	}
	defer adaptor.Close()

	result, err := queryRows(ctx, adaptor, table, where, opts.Create)
	if err != nil {
		return formatter.Fail(ExitFailure, errorCode(err, ErrCodeGeneric), err)
	}
	formatter.VerboseLog("%d row(s) from %s", len(result.Rows), table.Schema.StorageName())
	return formatter.Success(result, formatRows(result))
}

// backendConfig resolves the backend from --db, --config or the default.
func (o *QueryOptions) backendConfig() (backend.Config, error) {
	cfg := backend.Default()
	if o.Config != "" && o.DB == "" {
		loaded, err := backend.LoadConfig(o.Config)
		if err != nil {
			return backend.Config{}, err
		}
		cfg = loaded
	}
	if o.DB != "" {
		cfg.Backend = backend.SQLite
		cfg.SQLite.Path = o.DB
	}
	if o.Engine != "" {
		if cfg.Backend != backend.SQLite {
			return backend.Config{}, fmt.Errorf("--engine applies to the sqlite backend only")
		}
		cfg.SQLite.Engine = sqlite.Engine(o.Engine)
	}
	if err := cfg.Validate(); err != nil {
		return backend.Config{}, err
	}
	return cfg, nil
}

func queryRows(ctx context.Context, adaptor *store.Adaptor, table schemafile.Table, where cond.Cond, create bool) (QueryResult, error) {
	t := store.NewTable(adaptor, table.Schema)
	if create {
		if err := t.CreateTable(ctx); err != nil {
			return QueryResult{}, err
		}
	}

	var rows *store.Rows[ir.Row]
	var err error
	if where == nil {
		rows, err = t.QueryAll(ctx)
	} else {
		rows, err = t.QueryWhere(ctx, where)
	}
	if err != nil {
		return QueryResult{}, err
	}
	records, err := rows.Collect()
	if err != nil {
		return QueryResult{}, err
	}

	fields := table.Schema.Fields()
	result := QueryResult{Table: table.Name, Fields: fields, Rows: make([]map[string]ir.Cell, 0, len(records))}
	for _, r := range records {
		m := make(map[string]ir.Cell, len(fields))
		for i, f := range fields {
			m[f.Name] = r[i]
		}
		result.Rows = append(result.Rows, m)
	}
	return result, nil
}

func formatRows(result QueryResult) string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	names := make([]string, len(result.Fields))
	for i, f := range result.Fields {
		names[i] = f.Name
	}
	fmt.Fprintln(w, strings.Join(names, "\t"))
	for _, row := range result.Rows {
		cells := make([]string, len(result.Fields))
		for i, f := range result.Fields {
			cells[i] = row[f.Name].String()
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	w.Flush()
	fmt.Fprintf(&b, "(%d rows)\n", len(result.Rows))
	return b.String()
}
