// Package sqlite opens SQLite-backed adaptors.
//
// Three engines are available behind the same adaptor:
//   - mattn: github.com/mattn/go-sqlite3 through database/sql (default)
//   - modernc: modernc.org/sqlite through database/sql
//   - zombiezen: zombiezen.com/go/sqlite driven directly
//
// Every connection is opened with:
//   - foreign key enforcement
//   - 5-second busy timeout for lock contention
//   - WAL mode with NORMAL synchronous for file databases
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"github.com/linmx0130/yoshino/internal/querysql"
	"github.com/linmx0130/yoshino/internal/store"
)

// Engine selects the SQLite implementation.
type Engine string

const (
	EngineMattn     Engine = "mattn"
	EngineModernc   Engine = "modernc"
	EngineZombiezen Engine = "zombiezen"
)

// Engines lists the supported engines.
var Engines = []Engine{EngineMattn, EngineModernc, EngineZombiezen}

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Config configures a SQLite connection.
type Config struct {
	// Path is the database file, or MemoryPath.
	Path string `yaml:"path"`

	// Engine defaults to EngineMattn.
	Engine Engine `yaml:"engine"`

	// LogStatements routes driver-level statement logs to Logger.
	// Ignored by the zombiezen engine.
	LogStatements bool `yaml:"log_statements"`

	// Logger receives adaptor and statement logs. Nil discards them.
	Logger *slog.Logger `yaml:"-"`
}

func (c Config) engine() Engine {
	if c.Engine == "" {
		return EngineMattn
	}
	return c.Engine
}

func (c Config) path() string {
	if c.Path == "" {
		return MemoryPath
	}
	return c.Path
}

func (c Config) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}

// pragmas returns the connection settings for path.
func pragmas(path string) []string {
	p := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	if path != MemoryPath {
		p = append(p,
			"PRAGMA journal_mode = WAL",
			"PRAGMA synchronous = NORMAL",
		)
	}
	return p
}

// Open connects to the database described by cfg.
// Connection failures are reported as store.ConnectionError.
func Open(ctx context.Context, cfg Config) (*store.Adaptor, error) {
	var (
		driver store.Driver
		err    error
	)
	switch cfg.engine() {
	case EngineMattn:
		driver, err = openSQL(ctx, "sqlite3", cfg)
	case EngineModernc:
		driver, err = openSQL(ctx, "sqlite", cfg)
	case EngineZombiezen:
		driver, err = openConn(ctx, cfg.path())
	default:
		return nil, store.ConnectionError("sqlite", fmt.Errorf("unknown engine %q", cfg.Engine))
	}
	if err != nil {
		return nil, store.ConnectionError("sqlite", err)
	}
	return store.New(driver, querysql.SQLite, store.WithLogger(cfg.logger())), nil
}

func openSQL(ctx context.Context, driverName string, cfg Config) (*store.SQLDriver, error) {
	path := cfg.path()

	// Open database (creates file if doesn't exist)
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if cfg.LogStatements {
		db = store.WithStatementLogging(db, path, cfg.logger())
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// One connection keeps in-memory databases alive and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	d, err := store.NewSQLDriver(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	for _, pragma := range pragmas(path) {
		if _, err := d.Conn().ExecContext(ctx, pragma); err != nil {
			d.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	return d, nil
}
