// Package mysql opens MySQL-backed adaptors.
package mysql

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/go-sql-driver/mysql"
	sqldblogger "github.com/simukti/sqldb-logger"

	"github.com/linmx0130/yoshino/internal/querysql"
	"github.com/linmx0130/yoshino/internal/store"
)

// Config configures a MySQL connection.
type Config struct {
	Addr     string            `yaml:"addr"`
	User     string            `yaml:"user"`
	Password string            `yaml:"password"`
	Database string            `yaml:"database"`
	Params   map[string]string `yaml:"params"`

	// Timeout bounds the initial dial. Zero uses the driver default.
	Timeout time.Duration `yaml:"timeout"`

	// LogStatements routes driver-level statement logs to Logger.
	LogStatements bool `yaml:"log_statements"`

	// Logger receives adaptor and statement logs. Nil discards them.
	Logger *slog.Logger `yaml:"-"`
}

func (c Config) mysqlConfig() *mysql.Config {
	mc := mysql.NewConfig()
	mc.User = c.User
	mc.Passwd = c.Password
	mc.Net = "tcp"
	mc.Addr = c.Addr
	mc.DBName = c.Database
	mc.Params = c.Params
	mc.Timeout = c.Timeout
	return mc
}

// DSN returns the data source name of c.
func (c Config) DSN() string {
	return c.mysqlConfig().FormatDSN()
}

func (c Config) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}

// Connect opens and pings the server described by cfg.
// Connection failures are reported as store.ConnectionError.
func Connect(ctx context.Context, cfg Config) (*store.Adaptor, error) {
	mc := cfg.mysqlConfig()

	var db *sql.DB
	if cfg.LogStatements {
		db = sqldblogger.OpenDriver(mc.FormatDSN(), &mysql.MySQLDriver{}, store.StatementLogger{Logger: cfg.logger()})
	} else {
		connector, err := mysql.NewConnector(mc)
		if err != nil {
			return nil, store.ConnectionError("mysql", err)
		}
		db = sql.OpenDB(connector)
	}

	return open(ctx, db, cfg.logger())
}

// open pings db and pins one of its connections for a MySQL adaptor. The
// adaptor owns db; on failure db is closed.
func open(ctx context.Context, db *sql.DB, logger *slog.Logger) (*store.Adaptor, error) {
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, store.ConnectionError("mysql", err)
	}

	d, err := store.NewSQLDriver(ctx, db)
	if err != nil {
		db.Close()
		return nil, store.ConnectionError("mysql", err)
	}
	return store.New(d, querysql.MySQL, store.WithLogger(logger)), nil
}
