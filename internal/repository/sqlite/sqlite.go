// Package sqlite implements the repository interfaces on an embedded SQLite
// database (modernc.org/sqlite, no cgo).
//
// CONNECTIONS:
// The pool is capped at a single connection. The ledger is a single-session
// program, and a ":memory:" database only exists on the connection that
// created it. Inside WithTx every query must go through the transaction
// handle; touching the pool there would wait on itself forever.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/pressly/goose/v3"
	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/ledger/internal/apperror"
	"github.com/sakif/ledger/internal/dbx"
	"github.com/sakif/ledger/internal/repository"
)

//go:embed migrations/*.sql
var migrations embed.FS

var _ repository.Store = (*DB)(nil)

// DB implements repository.Store. A DB returned by New owns the pool; the
// DB handed to a WithTx callback is bound to the transaction and has no
// pool of its own.
type DB struct {
	conn   dbx.DBTX
	pool   *sql.DB
	logger *slog.Logger
}

// New opens the database at dbPath and brings its schema up to date.
//
//   - "data/ledger.db" is a file-backed database
//   - ":memory:" is an in-memory database, used by tests
func New(ctx context.Context, dbPath string, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	pool, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	pool.SetMaxOpenConns(1)

	if err := pool.PingContext(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := pool.ExecContext(ctx, pragma); err != nil {
			pool.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", pragma, err)
		}
	}

	if err := migrate(ctx, pool, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	logger.Debug("database ready", slog.String("path", dbPath))
	return &DB{conn: pool, pool: pool, logger: logger}, nil
}

// Close releases the pool. It is a no-op on a transaction-bound DB.
func (db *DB) Close() error {
	if db.pool == nil {
		return nil
	}
	return db.pool.Close()
}

// Ping checks that the database still answers.
func (db *DB) Ping(ctx context.Context) error {
	if db.pool == nil {
		return nil
	}
	if err := db.pool.PingContext(ctx); err != nil {
		return storageErr("ping", err)
	}
	return nil
}

// WithTx runs fn inside one transaction. Nested calls join the outer
// transaction. An *apperror.AppError from fn is returned as is; any other
// error, including a failed begin or commit, is a storage error.
func (db *DB) WithTx(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	if db.pool == nil {
		return fn(ctx, db)
	}
	err := dbx.WithTx(ctx, db.pool, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, &DB{conn: tx, logger: db.logger})
	})
	var appErr *apperror.AppError
	if err != nil && !errors.As(err, &appErr) {
		return storageErr("transaction", err)
	}
	return err
}

// migrate applies the embedded goose migrations. goose keeps its settings
// in package state, so callers must not run migrate concurrently.
func migrate(ctx context.Context, pool *sql.DB, logger *slog.Logger) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(gooseLogger{logger: logger})
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}
	return goose.UpContext(ctx, pool, "migrations")
}

// gooseLogger routes goose output into slog.
type gooseLogger struct {
	logger *slog.Logger
}

func (l gooseLogger) Printf(format string, v ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)), slog.String("component", "goose"))
}

func (l gooseLogger) Fatalf(format string, v ...any) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, v...)), slog.String("component", "goose"))
	os.Exit(1)
}

// isUniqueViolation reports whether err is SQLite rejecting a row for a
// PRIMARY KEY or UNIQUE constraint.
func isUniqueViolation(err error) bool {
	var se *sqlitedrv.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func storageErr(op string, err error) error {
	return apperror.Storage("sqlite: "+op, err)
}
