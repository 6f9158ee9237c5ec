package ralaver

import (
	"database/sql"
	"time"

	"github.com/cvaize/ralaver-sub001/config"
	"github.com/cvaize/ralaver-sub001/internal/database"
	"github.com/cvaize/ralaver-sub001/internal/database/sqlite"
)

type SqliteOptions struct {
	MigrationsTable string
}

type SqliteOptionFunc func(*SqliteOptions, *database.ConnectOptions)

// UseSqlite keeps the bookkeeping table in SQLite. There is no locking,
// SQLite serializes writers on its own.
func UseSqlite(db *sql.DB, options ...SqliteOptionFunc) OptionFunc {
	return func(m *Migrator) error {
		sqliteOpts := &SqliteOptions{
			MigrationsTable: config.DefaultMigrationsTable,
		}

		connectOpts := database.NewDefaultConnectOptions()

		for _, oFunc := range options {
			oFunc(sqliteOpts, connectOpts)
		}

		connector := database.MakeRetryingConnector(db, connectOpts)
		m.gateway = database.NewGateway(
			connector,
			sqlite.NewDialect(sqliteOpts.MigrationsTable),
			database.NullLocker{},
		)
		m.closerFns = append(m.closerFns, m.gateway.Close)

		return nil
	}
}

func WithSqliteConfig(cfg *config.Config) SqliteOptionFunc {
	return func(sqliteOpts *SqliteOptions, connectOpts *database.ConnectOptions) {
		if cfg.Migrations.Table != "" {
			sqliteOpts.MigrationsTable = cfg.Migrations.Table
		}

		if cfg.Database.ConnectAttempts > 0 {
			connectOpts.MaxAttempts = cfg.Database.ConnectAttempts
		}

		if cfg.Database.ConnectTimeout > 0 {
			connectOpts.MaxTimeout = cfg.Database.ConnectTimeout
		}
	}
}

func WithSqliteMigrationTable(migrationTable string) SqliteOptionFunc {
	return func(sqliteOpts *SqliteOptions, _ *database.ConnectOptions) {
		sqliteOpts.MigrationsTable = migrationTable
	}
}

func WithSqliteMaxConnectionAttempts(attempts int) SqliteOptionFunc {
	return func(_ *SqliteOptions, connectOpts *database.ConnectOptions) {
		connectOpts.MaxAttempts = attempts
	}
}

func WithSqliteConnectionTimeout(timeout time.Duration) SqliteOptionFunc {
	return func(_ *SqliteOptions, connectOpts *database.ConnectOptions) {
		connectOpts.MaxTimeout = timeout
	}
}
