package harness

import (
	"context"
	"log/slog"
)

// statementRecorder is a slog.Handler collecting the SQL text of the
// adaptor's statement records.
type statementRecorder struct {
	sql []string
}

func (r *statementRecorder) Enabled(context.Context, slog.Level) bool { return true }

func (r *statementRecorder) Handle(_ context.Context, rec slog.Record) error {
	rec.Attrs(func(a slog.Attr) bool {
		if a.Key == "sql" {
			r.sql = append(r.sql, a.Value.String())
			return false
		}
		return true
	})
	return nil
}

func (r *statementRecorder) WithAttrs([]slog.Attr) slog.Handler { return r }

func (r *statementRecorder) WithGroup(string) slog.Handler { return r }

// take returns and clears the statements recorded so far.
func (r *statementRecorder) take() []string {
	out := r.sql
	r.sql = nil
	return out
}
