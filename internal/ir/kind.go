package ir

import "fmt"

// Kind is the closed set of storage kinds a field can have.
type Kind uint8

const (
	KindText Kind = iota + 1
	KindNullableText
	KindInt64
	KindNullableInt64
	KindFloat64
	KindBinary
	KindNullableBinary
	KindRowID
)

var kindNames = [...]string{
	KindText:           "text",
	KindNullableText:   "nullable_text",
	KindInt64:          "int64",
	KindNullableInt64:  "nullable_int64",
	KindFloat64:        "float64",
	KindBinary:         "binary",
	KindNullableBinary: "nullable_binary",
	KindRowID:          "row_id",
}

// Kinds lists every storage kind in declaration order.
var Kinds = []Kind{
	KindText,
	KindNullableText,
	KindInt64,
	KindNullableInt64,
	KindFloat64,
	KindBinary,
	KindNullableBinary,
	KindRowID,
}

// String returns the snake_case name used in schema files.
func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
	return kindNames[k]
}

// Valid reports whether k is one of the eight storage kinds.
func (k Kind) Valid() bool {
	return k >= KindText && k <= KindRowID
}

// Nullable reports whether a cell of kind k may be absent.
// RowID cells are absent while the identity is New.
func (k Kind) Nullable() bool {
	switch k {
	case KindNullableText, KindNullableInt64, KindNullableBinary, KindRowID:
		return true
	}
	return false
}

// Integer reports whether cells of kind k carry an int64.
func (k Kind) Integer() bool {
	return k == KindInt64 || k == KindNullableInt64 || k == KindRowID
}

// Textual reports whether cells of kind k carry UTF-8 text.
func (k Kind) Textual() bool {
	return k == KindText || k == KindNullableText
}

// Binary reports whether cells of kind k carry raw bytes.
func (k Kind) Binary() bool {
	return k == KindBinary || k == KindNullableBinary
}

// ParseKind returns the kind named s.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if kindNames[k] == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown storage kind %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("invalid storage kind %d", uint8(k))
	}
	return []byte(kindNames[k]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Field is one (name, kind) pair of a schema's ordered field list.
type Field struct {
	Name string `json:"name" yaml:"name"`
	Kind Kind   `json:"kind" yaml:"kind"`
}

// String returns "name kind".
func (f Field) String() string {
	return f.Name + " " + f.Kind.String()
}
