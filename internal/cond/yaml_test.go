package cond

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseYAML(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want Cond
	}{
		{"is null", "is_null: stock", IsNull("stock")},
		{"is not null", "is_not_null: stock", IsNotNull("stock")},
		{"integer eq", "eq: {field: stock, value: 20}", Eq("stock", 20)},
		{"negative lte", "lte: {field: stock, value: -3}", Lte("stock", -3)},
		{"text eq", "eq: {field: name, value: milk}", TextEq("name", "milk")},
		{"quoted number is text", `eq: {field: name, value: "20"}`, TextEq("name", "20")},
		{"not", "not: {gt: {field: v, value: 1}}", Not(Gt("v", 1))},
		{
			"or of two",
			"or:\n  - is_null: stock\n  - eq: {field: stock, value: 20}\n",
			Or(IsNull("stock"), Eq("stock", 20)),
		},
		{
			"and folds left",
			"and:\n  - neq: {field: a, value: 1}\n  - gte: {field: b, value: 2}\n  - lt: {field: c, value: 3}\n",
			And(And(Neq("a", 1), Gte("b", 2)), Lt("c", 3)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseYAML([]byte(tt.doc))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseYAMLErrors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		message string
	}{
		{"empty", "", "empty document"},
		{"two keys", "is_null: a\nis_not_null: b\n", "exactly one key"},
		{"unknown", "like: {field: a, value: x}", `unknown condition "like"`},
		{"single and", "and:\n  - is_null: a\n", "at least two"},
		{"missing field", "eq: {value: 1}", "requires a field"},
		{"text gt", "gt: {field: a, value: x}", "only support eq"},
		{"float value", "eq: {field: a, value: 1.5}", "integer or a string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseYAML([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestSpecInsideDocument(t *testing.T) {
	var doc struct {
		Where Spec `yaml:"where"`
	}
	err := yaml.Unmarshal([]byte("where:\n  eq: {field: id, value: 3}\n"), &doc)
	require.NoError(t, err)
	assert.Equal(t, Eq("id", 3), doc.Where.Cond)
}
