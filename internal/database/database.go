package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrNoChangesRequired = errors.New("no changes to the database required")
	ErrUnsupportedDriver = errors.New("unsupported database driver")
	ErrLockNotAcquired   = errors.New("could not acquire migrations lock")
	ErrMissingRecordName = errors.New("migration record name not specified")
)

const (
	OperationMigrate  = "migrate"
	OperationRollback = "rollback"
	OperationRefresh  = "refresh"
	OperationApply    = "apply"
	OperationStatus   = "status"
)

type (
	// Record is a row of the migrations bookkeeping table. ID grows with
	// every insert, so it defines the order units were applied in.
	Record struct {
		ID         uint64
		Name       string
		MigratedAt time.Time
	}

	// Plan narrows down an operation: Steps limits the count of units
	// (0 means no limit), Names restricts it to the listed units.
	Plan struct {
		Steps int
		Names []string
	}

	CtxExecutor interface {
		ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
		QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	}

	// Dialect produces the driver specific queries of the bookkeeping table
	Dialect interface {
		InitQuery() string
		InsertQuery(name string, migratedAt time.Time) (string, []interface{})
		RemoveQuery(name string) (string, []interface{})
		ReadQuery() string
		DropQuery() string
		ShowTablesQuery() string
	}

	Locker interface {
		Lock(ctx context.Context, ex CtxExecutor) error
		Unlock(ctx context.Context, ex CtxExecutor) error
	}

	NullLocker struct{}
)

var _ Locker = NullLocker{}

func (NullLocker) Lock(context.Context, CtxExecutor) error {
	return nil
}

func (NullLocker) Unlock(context.Context, CtxExecutor) error {
	return nil
}

// InRecords reports whether a unit with this name has been recorded
func InRecords(name string, records []Record) bool {
	for i := range records {
		if records[i].Name == name {
			return true
		}
	}

	return false
}

func inNames(name string, names []string) bool {
	for i := range names {
		if names[i] == name {
			return true
		}
	}

	return false
}
