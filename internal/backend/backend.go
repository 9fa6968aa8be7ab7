// Package backend selects and opens the configured storage backend.
package backend

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/linmx0130/yoshino/internal/store"
	"github.com/linmx0130/yoshino/internal/store/mysql"
	"github.com/linmx0130/yoshino/internal/store/sqlite"
)

// Backend names.
const (
	SQLite = "sqlite"
	MySQL  = "mysql"
)

// Config selects a backend and carries its settings.
//
//	backend: sqlite
//	log_statements: true
//	sqlite:
//	  path: shop.db
//	  engine: modernc
type Config struct {
	Backend       string        `yaml:"backend"`
	LogStatements bool          `yaml:"log_statements"`
	SQLite        sqlite.Config `yaml:"sqlite"`
	MySQL         mysql.Config  `yaml:"mysql"`
}

// Default returns an in-memory SQLite configuration.
func Default() Config {
	return Config{Backend: SQLite, SQLite: sqlite.Config{Path: sqlite.MemoryPath}}
}

// LoadConfig reads a YAML configuration file. Unknown keys are rejected.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes a YAML configuration.
func ParseConfig(data []byte) (Config, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks the backend selection.
func (c Config) Validate() error {
	switch c.Backend {
	case SQLite:
		if c.SQLite.Engine == "" {
			return nil
		}
		for _, e := range sqlite.Engines {
			if c.SQLite.Engine == e {
				return nil
			}
		}
		return fmt.Errorf("unknown sqlite engine %q", c.SQLite.Engine)
	case MySQL:
		if c.MySQL.Addr == "" {
			return fmt.Errorf("mysql.addr is required")
		}
		return nil
	default:
		return fmt.Errorf("unknown backend %q (want %s or %s)", c.Backend, SQLite, MySQL)
	}
}

// Open connects to the configured backend.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*store.Adaptor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, store.ConnectionError(cfg.Backend, err)
	}
	logger.DebugContext(ctx, "opening backend", "backend", cfg.Backend)

	switch cfg.Backend {
	case MySQL:
		mc := cfg.MySQL
		mc.LogStatements = mc.LogStatements || cfg.LogStatements
		mc.Logger = logger
		return mysql.Connect(ctx, mc)
	default:
		sc := cfg.SQLite
		sc.LogStatements = sc.LogStatements || cfg.LogStatements
		sc.Logger = logger
		return sqlite.Open(ctx, sc)
	}
}
