package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"
)

// Supported database/sql driver names.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

//go:embed migrations
var migrations embed.FS

// Config selects and addresses the backing database.
type Config struct {
	Driver string
	DSN    string

	// MaxOpenConns caps the pool. SQLite is always limited to one
	// connection so in memory databases stay shared.
	MaxOpenConns int
}

// DefaultConfig returns an in memory SQLite configuration.
func DefaultConfig() Config {
	return Config{
		Driver:       DriverSQLite,
		DSN:          "file::memory:?cache=shared&_foreign_keys=on",
		MaxOpenConns: 10,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	var fields goerrors.ValidationErrors
	switch c.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		fields = append(fields, goerrors.FieldError{
			Field:   "Driver",
			Message: fmt.Sprintf("must be %q or %q", DriverSQLite, DriverPostgres),
			Value:   c.Driver,
		})
	}
	if strings.TrimSpace(c.DSN) == "" {
		fields = append(fields, goerrors.FieldError{Field: "DSN", Message: "must not be empty"})
	}
	if c.MaxOpenConns < 0 {
		fields = append(fields, goerrors.FieldError{Field: "MaxOpenConns", Message: "must be non-negative", Value: c.MaxOpenConns})
	}

	if len(fields) > 0 {
		return goerrors.NewValidation("invalid store configuration", fields...)
	}
	return nil
}

// Open connects to the database described by cfg and applies every
// pending migration.
func Open(ctx context.Context, cfg Config) (*bun.DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sqldb, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryExternal, "failed to open database")
	}

	var dialect schema.Dialect
	switch cfg.Driver {
	case DriverSQLite:
		sqldb.SetMaxOpenConns(1)
		dialect = sqlitedialect.New()
	default:
		if cfg.MaxOpenConns > 0 {
			sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		dialect = pgdialect.New()
	}

	if err := sqldb.PingContext(ctx); err != nil {
		sqldb.Close()
		return nil, goerrors.Wrap(err, goerrors.CategoryExternal, "failed to ping database")
	}

	if err := migrateUp(ctx, sqldb, cfg.Driver); err != nil {
		sqldb.Close()
		return nil, err
	}

	return bun.NewDB(sqldb, dialect), nil
}

func migrateUp(ctx context.Context, sqldb *sql.DB, driver string) error {
	src, err := iofs.New(migrations, "migrations/"+driverDir(driver))
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read migrations")
	}

	var target database.Driver
	switch driver {
	case DriverSQLite:
		// the sqlite3 driver closes the pool on Close, so it is never closed here
		target, err = sqlite3.WithInstance(sqldb, &sqlite3.Config{})
	default:
		conn, connErr := sqldb.Conn(ctx)
		if connErr != nil {
			return goerrors.Wrap(connErr, goerrors.CategoryExternal, "failed to reserve migration connection")
		}
		defer conn.Close()
		target, err = postgres.WithConnection(ctx, conn, &postgres.Config{})
	}
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryExternal, "failed to prepare migrations")
	}

	m, err := migrate.NewWithInstance("iofs", src, driver, target)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create migrator")
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return goerrors.Wrap(err, goerrors.CategoryExternal, "failed to apply migrations")
	}
	return nil
}

func driverDir(driver string) string {
	if driver == DriverPostgres {
		return "postgres"
	}
	return "sqlite"
}
