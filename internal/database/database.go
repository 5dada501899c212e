// Package database archives solver runs and their placements in SQLite
// or PostgreSQL.
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Database wraps the SQL connection and provides run archival operations.
type Database struct {
	db      *sql.DB
	dialect Dialect
	qb      *QueryBuilder
}

// Open opens or creates the SQLite archive at the given path.
func Open(path string) (*Database, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	return open(NewDialect(DialectSQLite), path)
}

// OpenWithConfig opens the archive described by the configuration,
// choosing the dialect from its driver.
func OpenWithConfig(cfg Config) (*Database, error) {
	switch cfg.Driver {
	case "postgres":
		return openPostgres(cfg)
	default:
		return Open(cfg.SQLitePath)
	}
}

func openPostgres(cfg Config) (*Database, error) {
	d, err := open(NewDialect(DialectPostgres), cfg.Postgres.ConnString())
	if err != nil {
		return nil, err
	}
	pool := cfg.Postgres
	if pool.MaxOpenConns > 0 {
		d.db.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		d.db.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		d.db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}
	return d, nil
}

func open(dialect Dialect, dsn string) (*Database, error) {
	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	for _, stmt := range dialect.InitStatements() {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
	}

	d := &Database{
		db:      db,
		dialect: dialect,
		qb:      NewQueryBuilder(dialect),
	}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return d, nil
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// migrate creates the archive schema if it doesn't exist. The column
// types are chosen to be valid in both SQLite and PostgreSQL.
func (d *Database) migrate() error {
	migrations := []string{
		// One row per solver run
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			catalog TEXT NOT NULL,
			width INTEGER NOT NULL,
			depth INTEGER NOT NULL,
			seed BIGINT NOT NULL,
			use_backtracking INTEGER NOT NULL DEFAULT 0,
			max_backtracks INTEGER NOT NULL DEFAULT 0,
			outcome TEXT NOT NULL,
			failure TEXT NOT NULL DEFAULT '',
			collapses INTEGER NOT NULL DEFAULT 0,
			contradictions INTEGER NOT NULL DEFAULT 0,
			backtracks INTEGER NOT NULL DEFAULT 0,
			elapsed_ms BIGINT NOT NULL DEFAULT 0,
			checksum TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,

		// One row per grid cell of a finished run
		`CREATE TABLE IF NOT EXISTS placements (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			x INTEGER NOT NULL,
			z INTEGER NOT NULL,
			tile_id TEXT NOT NULL DEFAULT '',
			rotation INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (run_id, x, z)
		)`,

		// Indexes for common queries
		`CREATE INDEX IF NOT EXISTS idx_runs_catalog ON runs(catalog)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// DB returns the underlying sql.DB for advanced operations.
func (d *Database) DB() *sql.DB {
	return d.db
}
