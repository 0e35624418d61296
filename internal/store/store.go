// Package store persists documents, expenses, payment transactions and the payment registries.
//
// Two drivers are supported through database/sql:
//   - sqlite3 (github.com/mattn/go-sqlite3): the default single-file store
//   - pgx (github.com/jackc/pgx/v5/stdlib): PostgreSQL
//
// Queries are written with "?" placeholders and rebound for PostgreSQL. Amount columns are
// floating point; every value is converted to decimal.Decimal on read and back on write, so
// no arithmetic happens on floats outside this package.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"invoicing/internal/logger"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

// Config selects the driver and data source.
type Config struct {
	Driver string
	DSN    string
}

// DBTX is the subset of *sql.DB and *sql.Tx used by the queries.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn carries the query methods shared by Store and Tx.
type conn struct {
	q        DBTX
	postgres bool
}

// Store is the connection pool. Its query methods run outside any transaction.
type Store struct {
	conn
	db     *sql.DB
	driver string
	log    zerolog.Logger
}

// Tx is one database transaction. It exposes the same query methods as Store.
type Tx struct {
	conn
	tx *sql.Tx
}

// Open connects to the database. SQLite pools are limited to one connection so that
// writers are serialized.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	const op = "store.Open"

	driver := cfg.Driver
	if driver == "" {
		driver = DriverSQLite
	}
	dsn := cfg.DSN

	switch driver {
	case DriverSQLite:
		if dsn == "" {
			dsn = "invoicing.db"
		}
		dsn = sqliteDSN(dsn)
	case DriverPostgres:
		if dsn == "" {
			return nil, fmt.Errorf("%s: DATABASE_URL is required for driver %s", op, driver)
		}
	default:
		return nil, fmt.Errorf("%s: unsupported driver %q", op, driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: open database: %w", op, err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: ping database: %w", op, err)
	}

	s := &Store{
		conn:   conn{q: db, postgres: driver == DriverPostgres},
		db:     db,
		driver: driver,
		log:    logger.WithComponent("store"),
	}
	s.log.Debug().
		Str("driver", driver).
		Msg("Database connection established")

	return s, nil
}

// sqliteDSN enables foreign keys, a busy timeout and IMMEDIATE transactions unless the
// caller already passed parameters.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "?") {
		return dsn
	}
	return dsn + "?_foreign_keys=on&_busy_timeout=5000&_txlock=immediate"
}

// Driver returns the database/sql driver name in use.
func (s *Store) Driver() string {
	return s.driver
}

// Close closes the pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// WithTx runs fn inside one transaction and commits when fn returns nil.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&Tx{conn: conn{q: sqlTx, postgres: s.postgres}, tx: sqlTx}); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (c conn) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.q.ExecContext(ctx, c.rebind(query), args...)
}

func (c conn) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.q.QueryContext(ctx, c.rebind(query), args...)
}

func (c conn) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return c.q.QueryRowContext(ctx, c.rebind(query), args...)
}

// insert runs an INSERT ... RETURNING id.
func (c conn) insert(ctx context.Context, query string, args ...any) (int64, error) {
	var id int64
	if err := c.queryRow(ctx, query+" RETURNING id", args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// rebind rewrites "?" placeholders to "$n" for PostgreSQL.
func (c conn) rebind(query string) string {
	if !c.postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// forUpdate locks selected rows on PostgreSQL. SQLite transactions already hold the write lock.
func (c conn) forUpdate() string {
	if c.postgres {
		return " FOR UPDATE"
	}
	return ""
}

func nullString(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return s
}

func nullInt(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

func intPtr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func likePattern(search string) string {
	return "%" + strings.ToLower(strings.TrimSpace(search)) + "%"
}
