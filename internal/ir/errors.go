package ir

import (
	"errors"
	"fmt"
)

var (
	// ErrKindMismatch is wrapped by every DecodeError.
	ErrKindMismatch = errors.New("storage kind mismatch")

	// ErrNull is returned when reading the value of an absent cell.
	ErrNull = errors.New("cell is null")
)

// DecodeError reports a cell whose kind does not match the kind expected by
// the reader.
type DecodeError struct {
	// Field names the schema field, when known.
	Field string

	// Want is the kind the reader expected.
	Want Kind

	// Got is the kind the cell carries.
	Got Kind
}

func (e *DecodeError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("decode field %q: want %s, got %s", e.Field, e.Want, e.Got)
	}
	return fmt.Sprintf("decode: want %s, got %s", e.Want, e.Got)
}

// Unwrap lets errors.Is match ErrKindMismatch.
func (e *DecodeError) Unwrap() error {
	return ErrKindMismatch
}

// WithField returns a copy of err naming field if err is a *DecodeError.
// Other errors are wrapped with the field name.
func WithField(err error, field string) error {
	if err == nil {
		return nil
	}
	var de *DecodeError
	if errors.As(err, &de) {
		named := *de
		named.Field = field
		return &named
	}
	return fmt.Errorf("field %q: %w", field, err)
}

// IsDecodeError returns true if err is or wraps a *DecodeError.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}
