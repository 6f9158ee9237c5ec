package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/cvaize/ralaver-sub001/internal/logger"
	"github.com/pkg/errors"
)

// Gateway owns the bookkeeping table and serializes migration runs with
// the Locker. Everything runs on the single connection handed out by the
// connector, so a session level lock covers the whole operation.
type Gateway struct {
	connector SQLConnector
	dialect   Dialect
	locker    Locker
	lg        logger.Logger
}

func NewGateway(connector SQLConnector, dialect Dialect, locker Locker) *Gateway {
	if locker == nil {
		locker = NullLocker{}
	}

	return &Gateway{
		connector: connector,
		dialect:   dialect,
		locker:    locker,
		lg:        &logger.NullLogger{},
	}
}

func (g *Gateway) SetLogger(lg logger.Logger) {
	g.lg = lg
}

func (g *Gateway) Close() error {
	return g.connector.Close()
}

func (g *Gateway) CreateMigrationsTable(ctx context.Context) error {
	conn, err := g.connector.Connect(ctx)
	if err != nil {
		return err
	}

	return g.createMigrationsTable(ctx, conn)
}

func (g *Gateway) DropMigrationsTable(ctx context.Context) error {
	conn, err := g.connector.Connect(ctx)
	if err != nil {
		return err
	}

	q := g.dialect.DropQuery()
	g.lg.SQL(q)

	if _, err := conn.ExecContext(ctx, q); err != nil {
		return errors.Wrap(err, "could not drop migrations table")
	}

	return nil
}

// ReadRecords returns the applied units in the order they were applied
func (g *Gateway) ReadRecords(ctx context.Context) ([]Record, error) {
	conn, err := g.connector.Connect(ctx)
	if err != nil {
		return nil, err
	}

	return g.readRecords(ctx, conn)
}

func (g *Gateway) ShowTables(ctx context.Context) ([]string, error) {
	conn, err := g.connector.Connect(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := conn.QueryContext(ctx, g.dialect.ShowTablesQuery())
	if err != nil {
		return nil, errors.Wrap(err, "could not list all tables")
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			g.lg.Error(closeErr)
		}
	}()

	var result []string
	for rows.Next() {
		var table string
		if err := rows.Scan(&table); err != nil {
			return result, errors.Wrap(err, "could not scan table name")
		}

		result = append(result, table)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "show tables iteration failed")
	}

	return result, nil
}

func (g *Gateway) Insert(ctx context.Context, ex CtxExecutor, name string) error {
	if name == "" {
		return ErrMissingRecordName
	}

	q, args := g.dialect.InsertQuery(name, time.Now().UTC())
	g.lg.SQL(q, args...)

	if _, err := ex.ExecContext(ctx, q, args...); err != nil {
		return errors.Wrapf(err, "could not insert migration record [%s]", name)
	}

	return nil
}

func (g *Gateway) Remove(ctx context.Context, ex CtxExecutor, name string) error {
	if name == "" {
		return ErrMissingRecordName
	}

	q, args := g.dialect.RemoveQuery(name)
	g.lg.SQL(q, args...)

	if _, err := ex.ExecContext(ctx, q, args...); err != nil {
		return errors.Wrapf(err, "could not remove migration record [%s]", name)
	}

	return nil
}

// Run locks the database, makes sure the bookkeeping table exists and
// hands the held connection with the current records to f. Errors
// returned by f are passed through unchanged.
func (g *Gateway) Run(
	ctx context.Context,
	operation string,
	f func(conn *sql.Conn, records []Record) error,
) error {
	conn, err := g.connector.Connect(ctx)
	if err != nil {
		return errors.Wrapf(err, "operation [%s] could not connect", operation)
	}

	if err := g.locker.Lock(ctx, conn); err != nil {
		return errors.Wrapf(err, "operation [%s] database lock failed", operation)
	}

	if err := g.createMigrationsTable(ctx, conn); err != nil {
		return g.unlock(ctx, conn, errors.Wrapf(err, "operation [%s] failed", operation))
	}

	records, err := g.readRecords(ctx, conn)
	if err != nil {
		return g.unlock(ctx, conn, errors.Wrapf(err, "operation [%s] failed", operation))
	}

	if err := f(conn, records); err != nil {
		return g.unlock(ctx, conn, err)
	}

	return g.unlock(ctx, conn, nil)
}

func (g *Gateway) createMigrationsTable(ctx context.Context, ex CtxExecutor) error {
	q := g.dialect.InitQuery()
	g.lg.SQL(q)

	if _, err := ex.ExecContext(ctx, q); err != nil {
		return errors.Wrap(err, "could not create migrations table")
	}

	return nil
}

func (g *Gateway) readRecords(ctx context.Context, conn *sql.Conn) ([]Record, error) {
	q := g.dialect.ReadQuery()
	g.lg.SQL(q)

	rows, err := conn.QueryContext(ctx, q)
	if err != nil {
		return nil, errors.Wrap(err, "could not read migration records")
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			g.lg.Error(closeErr)
		}
	}()

	var result []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.Name, &r.MigratedAt); err != nil {
			return nil, errors.Wrap(err, "could not scan migration record")
		}

		result = append(result, r)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "read migration records iteration failed")
	}

	return result, nil
}

// unlock always releases the lock and keeps the original error on top
func (g *Gateway) unlock(ctx context.Context, ex CtxExecutor, err error) error {
	unlockErr := g.locker.Unlock(ctx, ex)
	if unlockErr == nil {
		return err
	}

	if err == nil {
		return unlockErr
	}

	g.lg.Error(unlockErr)

	return err
}
