package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type Config struct {
	DSN             string
	MaxConns        int32
	MaxConnLifetime time.Duration
	DialTimeout     time.Duration
}

type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// DB is a database/sql handle plus the dialect it speaks.
type DB struct {
	*sql.DB
	Dialect Dialect
	pool    *pgxpool.Pool
}

// DialectOf picks postgres for postgres:// URLs and SQLite for anything else
// (a file path or ":memory:").
func DialectOf(dsn string) Dialect {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return DialectPostgres
	}
	return DialectSQLite
}

// Open connects to cfg.DSN and creates the schema when missing.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 10 * time.Second
	}
	dialect := DialectOf(cfg.DSN)
	logger.Info("connecting to database", "dialect", dialect)

	db := &DB{Dialect: dialect}
	switch dialect {
	case DialectPostgres:
		pc, err := pgxpool.ParseConfig(cfg.DSN)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			return nil, err
		}
		if cfg.MaxConns > 0 {
			pc.MaxConns = cfg.MaxConns
		}
		if cfg.MaxConnLifetime > 0 {
			pc.MaxConnLifetime = cfg.MaxConnLifetime
		}
		pc.ConnConfig.RuntimeParams["application_name"] = "docgate"

		dctx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
		pool, err := pgxpool.NewWithConfig(dctx, pc)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			return nil, err
		}
		db.pool = pool
		db.DB = stdlib.OpenDBFromPool(pool)
	default:
		sqldb, err := sql.Open("sqlite", cfg.DSN)
		if err != nil {
			logger.Error("failed to open database", "error", err)
			return nil, err
		}
		// one connection: SQLite has a single writer and ":memory:" is per connection
		sqldb.SetMaxOpenConns(1)
		db.DB = sqldb
	}

	if err := db.migrate(ctx); err != nil {
		db.Close(logger)
		return nil, fmt.Errorf("migrate: %w", err)
	}
	logger.Info("successfully connected to database")
	return db, nil
}

func (db *DB) migrate(ctx context.Context) error {
	id, ts := "INTEGER PRIMARY KEY AUTOINCREMENT", "TIMESTAMP"
	if db.Dialect == DialectPostgres {
		id, ts = "BIGSERIAL PRIMARY KEY", "TIMESTAMPTZ"
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS gate_events (
			id ` + id + `,
			request_id TEXT NOT NULL,
			op TEXT NOT NULL,
			path TEXT NOT NULL,
			allowed BOOLEAN NOT NULL,
			roots TEXT NOT NULL,
			stage TEXT NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			created_at ` + ts + ` NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS gate_events_request_id_idx ON gate_events (request_id)`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

// Rebind rewrites '?' placeholders into the dialect's form.
func (db *DB) Rebind(query string) string {
	if db.Dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

// Close closes the database connections gracefully
func (db *DB) Close(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("closing database connections")
	if db.DB != nil {
		if err := db.DB.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}
	if db.pool != nil {
		db.pool.Close()
	}
	logger.Info("database connections closed")
}

// HealthCheck pings the database to catch DSN issues early.
func HealthCheck(ctx context.Context, db *DB, timeout time.Duration, logger *slog.Logger) error {
	logger.Debug("pinging database")
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := db.PingContext(ctx); err != nil {
		return err
	}
	logger.Debug("database ping successful")
	return nil
}
