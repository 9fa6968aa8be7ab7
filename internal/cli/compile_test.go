package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileCommandText(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "select all",
			args: []string{"compile", "testdata/shop.yaml", "counter"},
			want: "SELECT id, name, stock, price FROM y_counter;\n",
		},
		{
			name: "select where",
			args: []string{"compile", "testdata/shop.yaml", "counter",
				"--where", "{or: [{is_null: stock}, {eq: {field: stock, value: 20}}]}"},
			want: "SELECT id, name, stock, price FROM y_counter WHERE (stock IS NULL) OR (stock=?);\n-- params: [20]\n",
		},
		{
			name: "delete mysql",
			args: []string{"compile", "testdata/shop.yaml", "counter", "--op", "delete",
				"--dialect", "mysql", "--where", "{lte: {field: stock, value: 0}}"},
			want: "DELETE FROM y_counter WHERE stock <= ?;\n-- params: [0]\n",
		},
		{
			name: "text equality",
			args: []string{"compile", "testdata/shop.yaml", "photo", "--where", "{eq: {field: caption, value: front}}"},
			want: "SELECT counter, caption, data FROM y_counter_photo WHERE caption=?;\n-- params: [\"front\"]\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestCompileCommandJSON(t *testing.T) {
	out, _, err := execute(t, "--format", "json", "compile", "testdata/shop.yaml", "counter",
		"--where", "{and: [{eq: {field: id, value: 1}}, {not: {is_not_null: stock}}]}")
	require.NoError(t, err)

	var data struct {
		SQL    string `json:"sql"`
		Params []any  `json:"params"`
	}
	resp := decodeResponse(t, out, &data)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "SELECT id, name, stock, price FROM y_counter WHERE (id=?) AND (NOT (stock IS NOT NULL));", data.SQL)
	assert.Equal(t, []any{float64(1)}, data.Params)
}

func TestCompileCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code string
	}{
		{"unknown table", []string{"compile", "testdata/shop.yaml", "shelf"}, ErrCodeTable},
		{"unknown field", []string{"compile", "testdata/shop.yaml", "counter", "--where", "{is_null: color}"}, ErrCodeWhere},
		{"bad yaml", []string{"compile", "testdata/shop.yaml", "counter", "--where", "{between: stock}"}, ErrCodeWhere},
		{"delete without where", []string{"compile", "testdata/shop.yaml", "counter", "--op", "delete"}, ErrCodeWhere},
		{"unknown op", []string{"compile", "testdata/shop.yaml", "counter", "--op", "merge"}, ErrCodeGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, append([]string{"--format", "json"}, tt.args...)...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))

			resp := decodeResponse(t, out, nil)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}
