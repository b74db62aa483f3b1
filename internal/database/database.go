package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"shim/internal/config"
	"shim/internal/logging"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

const (
	DialectSQLite = "sqlite3"
	DialectMySQL  = "mysql"
)

// DB is a pooled sqlx store. Every call acquires its own connection or
// transaction from the pool; nothing holds a session between calls.
type DB struct {
	*sqlx.DB
	dialect string
	path    string
	outbox  bool
	logger  *zerolog.Logger
}

func NewDB(cfg config.DatabaseConfig, logger *zerolog.Logger) (*DB, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	driverName := cfg.Driver
	if driverName == "" {
		driverName = DialectSQLite
	}

	var dsn string
	switch driverName {
	case DialectSQLite:
		if dir := filepath.Dir(cfg.Path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		dsn = sqliteDSN(cfg.Path, cfg.BusyTimeout)
	case DialectMySQL:
		var err error
		if dsn, err = mysqlDSN(cfg.DSN); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driverName)
	}

	conn, err := sqlx.Connect(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		conn.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	l := logging.Component(logger, "database").With().Str("dialect", driverName).Logger()
	db := &DB{DB: conn, dialect: driverName, path: cfg.Path, logger: &l}

	if err := db.createTables(context.Background()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	l.Info().Msg("Database initialized")
	return db, nil
}

// Dialect returns the driver name the store was opened with.
func (db *DB) Dialect() string { return db.dialect }

// sqliteDSN makes every transaction take the write lock up front so that
// check-then-insert sequences are serialised; waiters block for busyTimeout.
func sqliteDSN(path string, busyTimeout time.Duration) string {
	if busyTimeout <= 0 {
		busyTimeout = 5 * time.Second
	}
	params := url.Values{}
	params.Set("_txlock", "immediate")
	params.Set("_busy_timeout", fmt.Sprint(busyTimeout.Milliseconds()))
	params.Set("_foreign_keys", "on")
	params.Set("_journal_mode", "WAL")
	return "file:" + path + "?" + params.Encode()
}

// mysqlDSN forces found-rows semantics so an UPDATE that matches a row
// reports it even when no column value changed.
func mysqlDSN(raw string) (string, error) {
	mc, err := mysql.ParseDSN(raw)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	mc.ClientFoundRows = true
	mc.Loc = time.UTC
	return mc.FormatDSN(), nil
}

func (db *DB) createTables(ctx context.Context) error {
	queries := sqliteSchema
	if db.dialect == DialectMySQL {
		queries = mysqlSchema
	}
	for _, query := range queries {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

// forUpdate appends a row lock clause where the dialect supports one. SQLite
// needs none: the immediate transaction already holds the database write lock.
func (db *DB) forUpdate(query string) string {
	if db.dialect == DialectMySQL {
		return query + " FOR UPDATE"
	}
	return query
}

// readRetry runs an idempotent read, retrying it once on a transient driver error.
func (db *DB) readRetry(ctx context.Context, op string, fn func() error) error {
	err := fn()
	if err == nil || !isTransient(err) || ctx.Err() != nil {
		return err
	}
	db.logger.Warn().Err(err).Str("op", op).Msg("Transient read failure, retrying once")
	return fn()
}

func isTransient(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked
	}
	return false
}

func toMillis(t time.Time) int64 { return t.UTC().UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

func nullMillis(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	ms := toMillis(*t)
	return &ms
}

func timePtr(ms *int64) *time.Time {
	if ms == nil {
		return nil
	}
	t := fromMillis(*ms)
	return &t
}
