package store

import (
	"context"
	"database/sql"
	"log/slog"
	"slices"

	sqldblogger "github.com/simukti/sqldb-logger"
)

// StatementLogger forwards database/sql statement logs to slog.
type StatementLogger struct {
	Logger *slog.Logger
}

// Log implements sqldblogger.Logger.
func (l StatementLogger) Log(ctx context.Context, level sqldblogger.Level, msg string, data map[string]interface{}) {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	attrs := make([]slog.Attr, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, slog.Any(k, data[k]))
	}
	l.Logger.LogAttrs(ctx, slogLevel(level), msg, attrs...)
}

func slogLevel(level sqldblogger.Level) slog.Level {
	switch level {
	case sqldblogger.LevelError:
		return slog.LevelError
	case sqldblogger.LevelInfo:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

// WithStatementLogging reopens db's driver behind a statement logger.
// The original handle is closed.
func WithStatementLogging(db *sql.DB, dsn string, logger *slog.Logger) *sql.DB {
	logged := sqldblogger.OpenDriver(dsn, db.Driver(), StatementLogger{Logger: logger})
	_ = db.Close()
	return logged
}
