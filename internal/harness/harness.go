package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/linmx0130/yoshino/internal/cond"
	"github.com/linmx0130/yoshino/internal/ir"
	"github.com/linmx0130/yoshino/internal/schemafile"
	"github.com/linmx0130/yoshino/internal/store"
	"github.com/linmx0130/yoshino/internal/store/sqlite"
)

// Harness is the test execution engine for one scenario.
type Harness struct {
	table    *store.Table[ir.Row]
	fields   []ir.Field
	recorder *statementRecorder
	logger   *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Load the schema file and find the scenario's table
// 2. Open an in-memory database with the scenario's engine
// 3. Execute steps, checking expect clauses
// 4. Evaluate assertions
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	return RunWithLogger(ctx, scenario, slog.New(slog.DiscardHandler))
}

// RunWithLogger is like Run and reports step progress to logger.
func RunWithLogger(ctx context.Context, scenario *Scenario, logger *slog.Logger) (*Result, error) {
	file, err := schemafile.Load(scenario.Schema)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}
	decl, ok := file.Lookup(scenario.Table)
	if !ok {
		return nil, fmt.Errorf("table %q not declared in %s", scenario.Table, scenario.Schema)
	}

	rec := &statementRecorder{}
	a, err := sqlite.Open(ctx, sqlite.Config{
		Path:   sqlite.MemoryPath,
		Engine: scenario.Engine,
		Logger: slog.New(rec),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory database: %w", err)
	}
	defer a.Close()

	h := &Harness{
		table:    store.NewTable(a, decl.Schema),
		fields:   decl.Schema.Fields(),
		recorder: rec,
		logger:   logger,
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i, step, result); err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
	}

	for _, msg := range h.evaluateAssertions(ctx, result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// executeStep runs one step and appends its trace event. Returned errors
// abort the scenario; mismatches are recorded on result.
func (h *Harness) executeStep(ctx context.Context, i int, step Step, result *Result) error {
	event := TraceEvent{Step: i, Op: step.Op}

	rows, opErr := h.apply(ctx, step)
	event.SQL = h.recorder.take()
	if opErr != nil {
		var se *store.Error
		if !errors.As(opErr, &se) {
			return opErr
		}
		event.Error = se.Code
	}
	for _, row := range rows {
		event.Rows = append(event.Rows, rowMap(h.fields, row))
	}
	result.Trace = append(result.Trace, event)

	h.logger.Debug("step completed",
		"step", i,
		"op", step.Op,
		"statements", len(event.SQL),
		"error", event.Error,
	)

	h.checkExpect(i, step, event, opErr, result)
	return nil
}

func (h *Harness) checkExpect(i int, step Step, event TraceEvent, opErr error, result *Result) {
	expect := step.Expect
	if expect == nil || expect.Error == "" {
		if opErr != nil {
			result.AddError(fmt.Sprintf("steps[%d]: unexpected error: %v", i, opErr))
			return
		}
	} else if event.Error != expect.Error {
		result.AddError(fmt.Sprintf("steps[%d]: expected error %s, got %q", i, expect.Error, event.Error))
		return
	}
	if expect == nil {
		return
	}

	if expect.Count != nil && len(event.Rows) != *expect.Count {
		result.AddError(fmt.Sprintf("steps[%d]: expected %d rows, got %d", i, *expect.Count, len(event.Rows)))
	}
	if expect.Rows != nil {
		if err := matchRows(h.fields, event.Rows, expect.Rows); err != nil {
			result.AddError(fmt.Sprintf("steps[%d]: %v", i, err))
		}
	}
}

// apply runs the adaptor operation of step.
func (h *Harness) apply(ctx context.Context, step Step) ([]ir.Row, error) {
	switch step.Op {
	case OpCreate:
		return nil, h.table.CreateTable(ctx)

	case OpInsert:
		row, err := rowFromValues(h.fields, step.Values)
		if err != nil {
			return nil, err
		}
		return nil, h.table.Insert(ctx, row)

	case OpQuery:
		return h.query(ctx, step.Where)

	case OpUpdate:
		row, err := rowFromValues(h.fields, step.Values)
		if err != nil {
			return nil, err
		}
		return nil, h.table.UpdateWhere(ctx, step.Where.Cond, row)

	case OpDelete:
		return nil, h.table.DeleteWhere(ctx, step.Where.Cond)

	default:
		return nil, fmt.Errorf("unknown op %q", step.Op)
	}
}

func (h *Harness) query(ctx context.Context, where *cond.Spec) ([]ir.Row, error) {
	var (
		rows *store.Rows[ir.Row]
		err  error
	)
	if where == nil {
		rows, err = h.table.QueryAll(ctx)
	} else {
		rows, err = h.table.QueryWhere(ctx, where.Cond)
	}
	if err != nil {
		return nil, err
	}
	return rows.Collect()
}
