package storage

import (
	"context"
	"fmt"
	"io/fs"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"utnode/internal/adapters/storage/migrations"
)

// Dialect identifies the SQL flavour behind a DB.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

const (
	driverSQLite   = "sqlite"
	driverPostgres = "pgx"
)

func init() {
	sqlx.BindDriver(driverSQLite, sqlx.QUESTION)
}

// DB is the database interface used by the document store.
// Both *sqlx.DB and *TimedDB satisfy this interface.
type DB interface {
	sqlx.ExtContext
}

// Compile-time check that *sqlx.DB satisfies DB.
var _ DB = (*sqlx.DB)(nil)

// DialectOf reports the dialect of db from its driver name.
func DialectOf(db DB) Dialect {
	if db.DriverName() == driverPostgres {
		return DialectPostgres
	}
	return DialectSQLite
}

// Open connects to the document store named by dsn.
// postgres:// and postgresql:// URLs use pgx; anything else is a SQLite DSN.
// PRE: dsn is non-empty
// POST: Returns a pinged connection pool
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	driver := driverSQLite
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		driver = driverPostgres
	} else {
		dsn = sqliteDSN(dsn)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// An in-memory SQLite database exists per connection.
	if driver == driverSQLite && isMemory(dsn) {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}
	return db, nil
}

// Migrate applies the embedded schema migrations for the dialect of db.
// PRE: db is a valid connection returned by Open
// POST: All collections and unique indexes exist
func Migrate(ctx context.Context, db *sqlx.DB) error {
	dialect := DialectOf(db)
	gooseDialect := "sqlite3"
	if dialect == DialectPostgres {
		gooseDialect = "postgres"
	}

	fsys, err := fs.Sub(migrations.FS, string(dialect))
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	goose.SetBaseFS(fsys)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(gooseDialect); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sqlx.DB, dir string) error {
	return goose.UpContext(ctx, db.DB, dir)
}

func sqliteDSN(dsn string) string {
	pragmas := []string{"_pragma=busy_timeout(5000)", "_pragma=foreign_keys(ON)"}
	if !isMemory(dsn) {
		pragmas = append(pragmas, "_pragma=journal_mode(WAL)", "_pragma=synchronous(NORMAL)")
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(pragmas, "&")
}

func isMemory(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}
