package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/linmx0130/yoshino/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			for _, sql := range event.SQL {
				fmt.Fprintf(&buf, "  [%d] %s\n", event.Step, sql)
			}
		}
	}
	return buf.String()
}

// evaluateAssertions checks every assertion and returns the failure
// messages.
func (h *Harness) evaluateAssertions(ctx context.Context, result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertStatementCount:
			err = assertStatementCount(result, a)
		case AssertFinalState:
			err = h.assertFinalState(ctx, result, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

// assertStatementCount checks how many statements steps of one op issued.
func assertStatementCount(result *Result, a Assertion) error {
	got := result.StatementCount(a.Op)
	if got == *a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertStatementCount,
		Expected: fmt.Sprintf("%d %s statements", *a.Count, a.Op),
		Actual:   fmt.Sprintf("%d", got),
		Trace:    result.Trace,
	}
}

// assertFinalState queries the table after all steps. The query is not
// part of the trace.
func (h *Harness) assertFinalState(ctx context.Context, result *Result, a Assertion) error {
	rows, err := h.query(ctx, a.Where)
	h.recorder.take()
	if err != nil {
		return fmt.Errorf("final state query: %w", err)
	}

	actual := make([]map[string]ir.Cell, len(rows))
	for i, row := range rows {
		actual[i] = rowMap(h.fields, row)
	}

	if a.Count != nil && len(actual) != *a.Count {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("%d rows", *a.Count),
			Actual:   fmt.Sprintf("%d rows", len(actual)),
			Trace:    result.Trace,
		}
	}
	if a.Rows != nil {
		if err := matchRows(h.fields, actual, a.Rows); err != nil {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("%v", a.Rows),
				Actual:   err.Error(),
				Trace:    result.Trace,
			}
		}
	}
	return nil
}
