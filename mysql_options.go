package ralaver

import (
	"database/sql"
	"time"

	"github.com/cvaize/ralaver-sub001/config"
	"github.com/cvaize/ralaver-sub001/internal/database"
	"github.com/cvaize/ralaver-sub001/internal/database/mysql"
)

type MySQLOptions struct {
	MigrationsTable string
	Charset         string
	LockKey         string
	LockFor         int
	NoLock          bool
}

type MySQLOptionFunc func(*MySQLOptions, *database.ConnectOptions)

func UseMySQL(db *sql.DB, options ...MySQLOptionFunc) OptionFunc {
	return func(m *Migrator) error {
		mysqlOpts := &MySQLOptions{
			MigrationsTable: config.DefaultMigrationsTable,
			Charset:         mysql.DefaultCharset,
			LockKey:         mysql.DefaultLockKey,
			LockFor:         mysql.DefaultLockSeconds,
		}

		connectOpts := database.NewDefaultConnectOptions()

		for _, oFunc := range options {
			oFunc(mysqlOpts, connectOpts)
		}

		connector := database.MakeRetryingConnector(db, connectOpts)
		m.gateway = database.NewGateway(
			connector,
			mysql.NewDialect(mysqlOpts.MigrationsTable, mysqlOpts.Charset),
			mysql.NewLocker(mysqlOpts.LockKey, mysqlOpts.LockFor, mysqlOpts.NoLock),
		)
		m.closerFns = append(m.closerFns, m.gateway.Close)

		return nil
	}
}

// WithMySQLConfig applies the migrations and database sections of cfg
func WithMySQLConfig(cfg *config.Config) MySQLOptionFunc {
	return func(mysqlOpts *MySQLOptions, connectOpts *database.ConnectOptions) {
		if cfg.Migrations.Table != "" {
			mysqlOpts.MigrationsTable = cfg.Migrations.Table
		}

		if cfg.Migrations.LockKey != "" {
			mysqlOpts.LockKey = cfg.Migrations.LockKey
		}

		if cfg.Migrations.LockFor > 0 {
			mysqlOpts.LockFor = cfg.Migrations.LockFor
		}

		mysqlOpts.NoLock = cfg.Migrations.NoLock

		if cfg.Database.ConnectAttempts > 0 {
			connectOpts.MaxAttempts = cfg.Database.ConnectAttempts
		}

		if cfg.Database.ConnectTimeout > 0 {
			connectOpts.MaxTimeout = cfg.Database.ConnectTimeout
		}
	}
}

func WithMySQLNoLock() MySQLOptionFunc {
	return func(mysqlOpts *MySQLOptions, _ *database.ConnectOptions) {
		mysqlOpts.NoLock = true
	}
}

func WithMySQLLockKey(key string) MySQLOptionFunc {
	return func(mysqlOpts *MySQLOptions, _ *database.ConnectOptions) {
		mysqlOpts.LockKey = key
	}
}

func WithMySQLLockFor(lockFor int) MySQLOptionFunc {
	return func(mysqlOpts *MySQLOptions, _ *database.ConnectOptions) {
		mysqlOpts.LockFor = lockFor
	}
}

func WithMySQLMigrationTable(migrationTable string) MySQLOptionFunc {
	return func(mysqlOpts *MySQLOptions, _ *database.ConnectOptions) {
		mysqlOpts.MigrationsTable = migrationTable
	}
}

func WithMySQLCharset(charset string) MySQLOptionFunc {
	return func(mysqlOpts *MySQLOptions, _ *database.ConnectOptions) {
		mysqlOpts.Charset = charset
	}
}

func WithMySQLConnectionTimeout(timeout time.Duration) MySQLOptionFunc {
	return func(_ *MySQLOptions, connectOpts *database.ConnectOptions) {
		connectOpts.MaxTimeout = timeout
	}
}

func WithMySQLMaxConnectionAttempts(attempts int) MySQLOptionFunc {
	return func(_ *MySQLOptions, connectOpts *database.ConnectOptions) {
		connectOpts.MaxAttempts = attempts
	}
}
