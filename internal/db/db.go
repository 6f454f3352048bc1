// Package db stores feature windows and pipeline run output in SQLite.
package db

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	_ "modernc.org/sqlite"

	"github.com/banshee-data/drivestyle/internal/monitoring"
	"github.com/banshee-data/drivestyle/internal/timeutil"
)

var logf = monitoring.Tagged("db")

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationsFS returns the embedded schema migrations.
func MigrationsFS() fs.FS {
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		panic(fmt.Sprintf("embedded migrations: %v", err))
	}
	return sub
}

// pragmas are applied to every pooled connection through the DSN.
const pragmas = "?_pragma=journal_mode(WAL)" +
	"&_pragma=busy_timeout(5000)" +
	"&_pragma=synchronous(NORMAL)" +
	"&_pragma=temp_store(MEMORY)" +
	"&_pragma=foreign_keys(1)"

type DB struct {
	*sql.DB
	clock timeutil.Clock
}

// OpenDB opens the database without touching the schema; use MigrateUp or
// NewDB to bring it to the latest version.
func OpenDB(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path+pragmas)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	return &DB{DB: sqlDB, clock: timeutil.RealClock{}}, nil
}

// NewDB opens the database and applies all pending migrations.
func NewDB(path string) (*DB, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}
	if err := db.MigrateUp(MigrationsFS()); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// SetClock replaces the clock used for created_at timestamps.
func (db *DB) SetClock(c timeutil.Clock) {
	db.clock = c
}

func (db *DB) nowNs() int64 {
	return db.clock.Now().UnixNano()
}
