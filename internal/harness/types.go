package harness

import (
	"github.com/linmx0130/yoshino/internal/ir"
	"github.com/linmx0130/yoshino/internal/store"
)

// TraceEvent records what one step sent to the backend and got back.
type TraceEvent struct {
	Step  int                  `json:"step"`
	Op    string               `json:"op"`
	SQL   []string             `json:"sql,omitempty"`
	Rows  []map[string]ir.Cell `json:"rows,omitempty"`
	Error store.ErrorCode      `json:"error,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all expect clauses and assertions match.
	Pass bool `json:"pass"`

	// Trace contains one event per step in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// StatementCount returns the number of statements issued by steps of op.
func (r *Result) StatementCount(op string) int {
	n := 0
	for _, e := range r.Trace {
		if e.Op == op {
			n += len(e.SQL)
		}
	}
	return n
}
