// Package db owns the process-wide DuckDB connection used for operation records.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/marcboeker/go-duckdb"
)

var (
	instance *sql.DB
	once     sync.Once
	initErr  error
)

// Config holds database configuration.
type Config struct {
	DataDir string // empty means an in-memory database
	DBName  string
}

// Path returns the database file path, or "" for in-memory.
func (c Config) Path() string {
	if c.DataDir == "" {
		return ""
	}
	return filepath.Join(c.DataDir, "duckdb", c.DBName+".duckdb")
}

// Get returns the singleton DuckDB connection.
func Get(cfg Config) (*sql.DB, error) {
	once.Do(func() {
		path := cfg.Path()
		if path != "" {
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				initErr = fmt.Errorf("failed to create duckdb directory: %w", err)
				return
			}
		}

		instance, initErr = sql.Open("duckdb", path)
		if initErr != nil {
			return
		}
		if err := instance.Ping(); err != nil {
			_ = instance.Close()
			instance, initErr = nil, fmt.Errorf("duckdb ping: %w", err)
		}
	})
	return instance, initErr
}

// Close closes the database connection.
func Close() error {
	if instance != nil {
		return instance.Close()
	}
	return nil
}
