// Package db opens the DuckDB database that keeps saved permalinks.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Config holds database configuration. An empty DataDir opens an in-memory
// database.
type Config struct {
	DataDir string
	DBName  string
}

// Open opens a new DuckDB connection pool for cfg.
func Open(cfg Config) (*sql.DB, error) {
	if cfg.DataDir == "" {
		return sql.Open("duckdb", "")
	}

	duckdbDir := filepath.Join(cfg.DataDir, "duckdb")
	if err := os.MkdirAll(duckdbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create duckdb directory: %w", err)
	}

	name := cfg.DBName
	if name == "" {
		name = "layers"
	}
	db, err := sql.Open("duckdb", filepath.Join(duckdbDir, name+".duckdb"))
	if err != nil {
		return nil, fmt.Errorf("open duckdb %q: %w", name, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open duckdb %q: %w", name, err)
	}
	return db, nil
}
