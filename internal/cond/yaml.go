package cond

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Spec wraps a Cond decoded from YAML.
//
// Forms:
//
//	is_null: stock
//	is_not_null: stock
//	eq: {field: stock, value: 20}      # also neq, gt, gte, lt, lte
//	eq: {field: name, value: milk}     # string value: text equality
//	not: <cond>
//	and: [<cond>, <cond>, ...]          # folded left
//	or: [<cond>, <cond>, ...]
type Spec struct {
	Cond Cond
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *Spec) UnmarshalYAML(node *yaml.Node) error {
	c, err := decodeNode(node)
	if err != nil {
		return err
	}
	s.Cond = c
	return nil
}

// ParseYAML decodes a condition document.
func ParseYAML(data []byte) (Cond, error) {
	var s Spec
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse condition: %w", err)
	}
	if s.Cond == nil {
		return nil, fmt.Errorf("parse condition: empty document")
	}
	return s.Cond, nil
}

var compareOps = map[string]Op{
	"eq":  OpEq,
	"neq": OpNeq,
	"gt":  OpGt,
	"gte": OpGte,
	"lt":  OpLt,
	"lte": OpLte,
}

func decodeNode(node *yaml.Node) (Cond, error) {
	if node.Kind == yaml.DocumentNode && len(node.Content) == 1 {
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode || len(node.Content) != 2 {
		return nil, fmt.Errorf("line %d: condition must be a mapping with exactly one key", node.Line)
	}
	key, value := node.Content[0].Value, node.Content[1]

	switch key {
	case "is_null", "is_not_null":
		if value.Kind != yaml.ScalarNode || value.Value == "" {
			return nil, fmt.Errorf("line %d: %s takes a field name", value.Line, key)
		}
		if key == "is_null" {
			return IsNull(value.Value), nil
		}
		return IsNotNull(value.Value), nil

	case "not":
		inner, err := decodeNode(value)
		if err != nil {
			return nil, err
		}
		return Not(inner), nil

	case "and", "or":
		if value.Kind != yaml.SequenceNode || len(value.Content) < 2 {
			return nil, fmt.Errorf("line %d: %s takes a list of at least two conditions", value.Line, key)
		}
		children := make([]Cond, len(value.Content))
		for i, child := range value.Content {
			c, err := decodeNode(child)
			if err != nil {
				return nil, err
			}
			children[i] = c
		}
		if key == "and" {
			return All(children...), nil
		}
		return Any(children...), nil
	}

	op, ok := compareOps[key]
	if !ok {
		return nil, fmt.Errorf("line %d: unknown condition %q", node.Content[0].Line, key)
	}
	var leaf struct {
		Field string    `yaml:"field"`
		Value yaml.Node `yaml:"value"`
	}
	if err := value.Decode(&leaf); err != nil {
		return nil, fmt.Errorf("line %d: %s: %w", value.Line, key, err)
	}
	if leaf.Field == "" {
		return nil, fmt.Errorf("line %d: %s requires a field", value.Line, key)
	}

	switch leaf.Value.Tag {
	case "!!int":
		n, err := strconv.ParseInt(leaf.Value.Value, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %s value: %w", leaf.Value.Line, key, err)
		}
		return Compare{Field: leaf.Field, Op: op, Value: n}, nil
	case "!!str":
		if op != OpEq {
			return nil, fmt.Errorf("line %d: text values only support eq", leaf.Value.Line)
		}
		return TextEq(leaf.Field, leaf.Value.Value), nil
	default:
		return nil, fmt.Errorf("line %d: %s value must be an integer or a string", value.Line, key)
	}
}
